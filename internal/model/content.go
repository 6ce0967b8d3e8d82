package model

import "time"

// Collection names a group of content items sharing a schema
type Collection string

const (
	CollectionIntelligence Collection = "intelligence"
	CollectionModels       Collection = "models"
)

// Collections lists every collection in display order
var Collections = []Collection{CollectionIntelligence, CollectionModels}

// Valid reports whether c is a known collection
func (c Collection) Valid() bool {
	return c == CollectionIntelligence || c == CollectionModels
}

// Importance ranks how significant an item is
type Importance string

const (
	ImportanceLow      Importance = "low"
	ImportanceMedium   Importance = "medium"
	ImportanceHigh     Importance = "high"
	ImportanceCritical Importance = "critical"
)

// Confidence expresses how well sourced an item is
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Status is the editorial state of an item
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// ParseImportance returns the importance for s, or "" when s is unknown
func ParseImportance(s string) Importance {
	switch v := Importance(s); v {
	case ImportanceLow, ImportanceMedium, ImportanceHigh, ImportanceCritical:
		return v
	}
	return ""
}

// ParseConfidence returns the confidence for s, or "" when s is unknown
func ParseConfidence(s string) Confidence {
	switch v := Confidence(s); v {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return v
	}
	return ""
}

// ParseStatus returns the status for s, or "" when s is unknown
func ParseStatus(s string) Status {
	switch v := Status(s); v {
	case StatusDraft, StatusReview, StatusPublished, StatusArchived:
		return v
	}
	return ""
}

// ContentItem is a single intelligence article or vehicle model record
type ContentItem struct {
	ID           string     `json:"id"`
	Collection   Collection `json:"collection"`
	Title        string     `json:"title"`
	Date         string     `json:"date,omitempty"`
	Brand        string     `json:"brand,omitempty"`
	Category     string     `json:"category,omitempty"`
	Tags         []string   `json:"tags"`
	Summary      string     `json:"summary,omitempty"`
	Body         string     `json:"body"`
	BodyHTML     string     `json:"body_html,omitempty"`
	Author       string     `json:"author,omitempty"`
	ReadingTime  int        `json:"reading_time"`
	Importance   Importance `json:"importance,omitempty"`
	Confidence   Confidence `json:"confidence,omitempty"`
	Status       Status     `json:"status,omitempty"`
	IsPro        bool       `json:"is_pro"`
	Published    bool       `json:"published"`
	Featured     bool       `json:"featured"`
	RelatedLinks []string   `json:"related_links,omitempty"`
	DataSources  []string   `json:"data_sources,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ParsedDate returns the item date, accepting a plain date or RFC3339
func (c *ContentItem) ParsedDate() (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, c.Date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Frontmatter keys understood by the content mapping
const (
	FieldTitle        = "title"
	FieldDate         = "date"
	FieldBrand        = "brand"
	FieldCategory     = "category"
	FieldTags         = "tags"
	FieldSummary      = "summary"
	FieldAuthor       = "author"
	FieldReadingTime  = "reading_time"
	FieldImportance   = "importance"
	FieldConfidence   = "confidence"
	FieldStatus       = "status"
	FieldIsPro        = "is_pro"
	FieldPublished    = "published"
	FieldFeatured     = "featured"
	FieldRelatedLinks = "related_links"
	FieldDataSources  = "data_sources"
	FieldBody         = "body"
)

// ContentFields lists every frontmatter key of a content item, plus the body
var ContentFields = []string{
	FieldTitle, FieldDate, FieldBrand, FieldCategory, FieldTags, FieldSummary,
	FieldAuthor, FieldReadingTime, FieldImportance, FieldConfidence, FieldStatus,
	FieldIsPro, FieldPublished, FieldFeatured, FieldRelatedLinks, FieldDataSources,
	FieldBody,
}
