package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jjenkins/evcms/internal/frontmatter"
	"github.com/jjenkins/evcms/internal/model"
	"github.com/jjenkins/evcms/internal/store"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// WordsPerMinute is the reading speed used for computed reading times
const WordsPerMinute = 200

// FeedService maps content files to content items for the public site and
// the dashboard
type FeedService struct {
	content *store.ContentStore
	folders map[model.Collection]string
	md      goldmark.Markdown
}

// NewFeedService creates a FeedService reading each collection from its
// repository-relative folder
func NewFeedService(content *store.ContentStore, folders map[model.Collection]string) *FeedService {
	return &FeedService{
		content: content,
		folders: folders,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Published returns the published items of a collection, newest first
func (f *FeedService) Published(ctx context.Context, coll model.Collection) ([]model.ContentItem, error) {
	return f.Items(ctx, coll, false)
}

// Items returns the items of a collection, newest first. Unpublished items
// are included only when includeDrafts is set
func (f *FeedService) Items(ctx context.Context, coll model.Collection, includeDrafts bool) ([]model.ContentItem, error) {
	folder, ok := f.folders[coll]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", coll)
	}

	markdown, err := f.content.List(ctx, folder, "md", 1)
	if err != nil {
		return nil, err
	}
	sidecars, err := f.content.List(ctx, folder, "json", 1)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*store.File, len(sidecars))
	for i := range sidecars {
		byID[stem(sidecars[i].Name)] = &sidecars[i]
	}

	items := make([]model.ContentItem, 0, len(markdown)+len(sidecars))
	seen := make(map[string]bool, len(markdown))
	for i := range markdown {
		file := &markdown[i]
		id := stem(file.Name)
		seen[id] = true

		meta, body := frontmatter.Decode(string(file.Data))
		if sidecar, ok := byID[id]; ok {
			if values, err := decodeSidecar(sidecar.Data); err == nil {
				meta.Fill(values)
			}
		}

		item, err := f.item(coll, id, meta, body, file)
		if err != nil {
			return nil, err
		}
		if includeDrafts || item.Published {
			items = append(items, item)
		}
	}

	// JSON-only items
	for i := range sidecars {
		file := &sidecars[i]
		id := stem(file.Name)
		if seen[id] {
			continue
		}
		meta := frontmatter.New()
		if err := json.Unmarshal(file.Data, meta); err != nil {
			continue
		}
		body := meta.String(model.FieldBody)
		item, err := f.item(coll, id, meta, body, file)
		if err != nil {
			return nil, err
		}
		if includeDrafts || item.Published {
			items = append(items, item)
		}
	}

	SortItems(items)
	return items, nil
}

func decodeSidecar(data []byte) (map[string]any, error) {
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (f *FeedService) item(coll model.Collection, id string, meta *frontmatter.Metadata, body string, file *store.File) (model.ContentItem, error) {
	html, words, err := f.render(body)
	if err != nil {
		return model.ContentItem{}, fmt.Errorf("failed to render %s: %w", file.Path, err)
	}

	item := model.ContentItem{
		ID:           id,
		Collection:   coll,
		Title:        meta.String(model.FieldTitle),
		Date:         meta.String(model.FieldDate),
		Brand:        meta.String(model.FieldBrand),
		Category:     meta.String(model.FieldCategory),
		Tags:         meta.Strings(model.FieldTags),
		Summary:      meta.String(model.FieldSummary),
		Body:         body,
		BodyHTML:     html,
		Author:       meta.String(model.FieldAuthor),
		Importance:   model.ParseImportance(meta.String(model.FieldImportance)),
		Confidence:   model.ParseConfidence(meta.String(model.FieldConfidence)),
		Status:       model.ParseStatus(meta.String(model.FieldStatus)),
		RelatedLinks: meta.Strings(model.FieldRelatedLinks),
		DataSources:  meta.Strings(model.FieldDataSources),
		UpdatedAt:    file.ModTime.UTC(),
		Published:    true,
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	if item.Title == "" {
		item.Title = id
	}

	// a published key that is present but unreadable hides the item
	if meta.Has(model.FieldPublished) {
		v, ok := meta.Bool(model.FieldPublished)
		item.Published = ok && v
	}
	item.IsPro, _ = meta.Bool(model.FieldIsPro)
	item.Featured, _ = meta.Bool(model.FieldFeatured)

	if minutes, ok := meta.Int(model.FieldReadingTime); ok && minutes > 0 {
		item.ReadingTime = minutes
	} else {
		item.ReadingTime = ReadingTime(words)
	}

	return item, nil
}

// render converts markdown to HTML and counts the words of its text
func (f *FeedService) render(body string) (string, int, error) {
	source := []byte(body)
	doc := f.md.Parser().Parse(text.NewReader(source))

	words := 0
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			words += countWords(node.Segment.Value(source))
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				words += countWords(seg.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", 0, err
	}

	var buf bytes.Buffer
	if err := f.md.Renderer().Render(&buf, source, doc); err != nil {
		return "", 0, err
	}
	return buf.String(), words, nil
}

// ReadingTime converts a word count to minutes, never less than one
func ReadingTime(words int) int {
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

func countWords(b []byte) int {
	return len(strings.Fields(string(b)))
}

// SortItems orders items by date, newest first, then by id. Undated items
// sort last
func SortItems(items []model.ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, okI := items[i].ParsedDate()
		tj, okJ := items[j].ParsedDate()
		switch {
		case okI && okJ && !ti.Equal(tj):
			return ti.After(tj)
		case okI != okJ:
			return okI
		}
		return items[i].ID < items[j].ID
	})
}
