package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jjenkins/evcms/internal/frontmatter"
	"github.com/jjenkins/evcms/internal/model"
	"github.com/jjenkins/evcms/internal/store"
)

// ServerName is reported by the info action
const ServerName = "evcms"

// CMSOptions describes the repository the CMS pretends to serve
type CMSOptions struct {
	Version         string
	Owner           string
	Repo            string
	Branch          string
	PublicMediaPath string
	Collections     []string
	Clock           Clock
}

var _ Backend = (*CMS)(nil)

// CMS implements every router action over the content and media stores
type CMS struct {
	content  *store.ContentStore
	media    *store.MediaStore
	urls     *URLBuilder
	opts     CMSOptions
	validate *validator.Validate
}

// NewCMS creates a new CMS
func NewCMS(content *store.ContentStore, media *store.MediaStore, urls *URLBuilder, opts CMSOptions) *CMS {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.PublicMediaPath == "" {
		opts.PublicMediaPath = "/" + media.Folder()
	}
	return &CMS{
		content:  content,
		media:    media,
		urls:     urls,
		opts:     opts,
		validate: newValidator(),
	}
}

// Info describes the server and repository
func (s *CMS) Info(ctx context.Context) (*model.ServerInfo, error) {
	collections := s.opts.Collections
	if collections == nil {
		collections = []string{}
	}
	return &model.ServerInfo{
		Name:        ServerName,
		Version:     s.opts.Version,
		Repo:        s.opts.Owner + "/" + s.opts.Repo,
		Branch:      s.opts.Branch,
		Collections: collections,
		MediaFolder: s.media.Folder(),
		Time:        s.opts.Clock().UTC(),
	}, nil
}

// Auth issues a mock token. Any login is accepted
func (s *CMS) Auth(ctx context.Context, p AuthParams) (*model.AuthResult, error) {
	if err := s.validate.Struct(p); err != nil {
		return nil, validationError(err)
	}
	login := p.Login
	if login == "" {
		login = "editor"
	}
	return &model.AuthResult{
		Token: uuid.NewString(),
		User:  model.AuthUser{Login: login, Name: login},
	}, nil
}

// GetMedia lists uploaded images
func (s *CMS) GetMedia(ctx context.Context) ([]model.MediaAsset, error) {
	files, err := s.media.List(ctx)
	if err != nil {
		return nil, err
	}

	assets := make([]model.MediaAsset, 0, len(files))
	for i := range files {
		assets = append(assets, s.mediaAsset(&files[i]))
	}
	return assets, nil
}

// UploadMedia stores an image and describes it as a repository entry
func (s *CMS) UploadMedia(ctx context.Context, filename string, data []byte) (*model.RepositoryEntry, error) {
	f, err := s.media.Upload(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	entry := s.urls.FileEntry(f, false)
	return &entry, nil
}

// MediaPathFor is where an upload of filename lands in the repository
func (s *CMS) MediaPathFor(filename string) string {
	return s.media.PathFor(filename)
}

func (s *CMS) mediaAsset(f *store.File) model.MediaAsset {
	return model.MediaAsset{
		Name:         f.Name,
		Path:         f.Path,
		SHA:          f.Tag,
		Size:         f.Size,
		LastModified: f.ModTime.UTC(),
		URL:          strings.TrimRight(s.opts.PublicMediaPath, "/") + "/" + f.Name,
	}
}

// EntriesByFolder decodes every matching file in a folder. A missing folder
// yields an empty list
func (s *CMS) EntriesByFolder(ctx context.Context, p EntriesByFolderParams) ([]model.Entry, error) {
	if err := s.validate.Struct(p); err != nil {
		return nil, validationError(err)
	}
	ext := p.Extension
	if ext == "" {
		ext = "md"
	}

	files, err := s.content.List(ctx, p.Folder, ext, p.Depth)
	if err != nil {
		return nil, err
	}

	entries := make([]model.Entry, 0, len(files))
	for i := range files {
		entries = append(entries, s.entry(&files[i]))
	}
	return entries, nil
}

// GetEntry decodes a single file
func (s *CMS) GetEntry(ctx context.Context, p GetEntryParams) (*model.Entry, error) {
	if err := s.validate.Struct(p); err != nil {
		return nil, validationError(err)
	}
	f, err := s.content.Read(ctx, p.Path)
	if err != nil {
		return nil, err
	}
	entry := s.entry(f)
	return &entry, nil
}

// PersistEntry writes raw content verbatim, creating or replacing the file
func (s *CMS) PersistEntry(ctx context.Context, p PersistEntryParams) (*model.PersistResult, error) {
	in := p.normalize()
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	f, existed, err := s.content.Write(ctx, in.Path, []byte(*in.Raw))
	if err != nil {
		return nil, err
	}

	message := in.Message
	if message == "" {
		verb := "Create"
		if existed {
			verb = "Update"
		}
		message = verb + " " + f.Path
	}

	return &model.PersistResult{
		Content:        s.urls.FileEntry(f, false),
		Commit:         model.Commit{SHA: f.Tag, Message: message},
		IsModification: existed,
	}, nil
}

// DeleteEntry removes a file and reports the tag it had before removal
func (s *CMS) DeleteEntry(ctx context.Context, p DeleteEntryParams) (*model.DeleteResult, error) {
	if err := s.validate.Struct(p); err != nil {
		return nil, validationError(err)
	}

	f, err := s.content.Delete(ctx, p.Path)
	if err != nil {
		return nil, err
	}

	message := p.Message
	if message == "" && p.Options != nil {
		message = p.Options.CommitMessage
	}
	if message == "" {
		message = "Delete " + f.Path
	}

	return &model.DeleteResult{
		Content: nil,
		Commit:  model.Commit{SHA: f.Tag, Message: message},
		Path:    f.Path,
		SHA:     f.Tag,
	}, nil
}

// GetContents returns a file entry with content, or the listing of a
// directory
func (s *CMS) GetContents(ctx context.Context, rel string) (any, error) {
	isDir, err := s.content.IsDir(ctx, rel)
	if err != nil {
		return nil, err
	}

	if isDir {
		children, err := s.content.ListDir(ctx, rel)
		if err != nil {
			return nil, err
		}
		entries := make([]model.RepositoryEntry, 0, len(children))
		for _, child := range children {
			entries = append(entries, s.urls.DirEntry(child))
		}
		return entries, nil
	}

	f, err := s.content.Read(ctx, rel)
	if err != nil {
		return nil, err
	}
	entry := s.urls.FileEntry(f, true)
	return &entry, nil
}

// entry projects a stored file into the editor view. Markdown files are
// split by the frontmatter codec; JSON files become metadata with no body
func (s *CMS) entry(f *store.File) model.Entry {
	raw := string(f.Data)
	data, body := decodeEntry(f.Name, raw)
	return model.Entry{
		File:    model.EntryFile{Path: f.Path, ID: stem(f.Name)},
		Data:    data,
		Body:    body,
		Raw:     raw,
		Content: s.urls.FileEntry(f, false),
	}
}

func decodeEntry(name, raw string) (*frontmatter.Metadata, string) {
	if strings.EqualFold(path.Ext(name), ".json") {
		meta := frontmatter.New()
		if err := json.Unmarshal([]byte(raw), meta); err != nil {
			return frontmatter.New(), raw
		}
		return meta, ""
	}
	return frontmatter.Decode(raw)
}

func stem(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

func encodeContent(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
