package service

import (
	"github.com/jjenkins/evcms/internal/model"
)

// EditorConfig is the collection and field schema consumed by the editing
// client. It is maintained by hand alongside model.ContentItem
type EditorConfig struct {
	Backend      EditorBackend      `json:"backend" yaml:"backend"`
	MediaFolder  string             `json:"media_folder" yaml:"media_folder"`
	PublicFolder string             `json:"public_folder" yaml:"public_folder"`
	Collections  []EditorCollection `json:"collections" yaml:"collections"`
}

// EditorBackend points the client at this server
type EditorBackend struct {
	Name    string `json:"name" yaml:"name"`
	Repo    string `json:"repo" yaml:"repo"`
	Branch  string `json:"branch" yaml:"branch"`
	APIRoot string `json:"api_root" yaml:"api_root"`
}

// EditorCollection describes one folder of entries
type EditorCollection struct {
	Name      string        `json:"name" yaml:"name"`
	Label     string        `json:"label" yaml:"label"`
	Folder    string        `json:"folder" yaml:"folder"`
	Create    bool          `json:"create" yaml:"create"`
	Slug      string        `json:"slug" yaml:"slug"`
	Extension string        `json:"extension" yaml:"extension"`
	Fields    []EditorField `json:"fields" yaml:"fields"`
}

// EditorField describes one editable attribute
type EditorField struct {
	Label    string   `json:"label" yaml:"label"`
	Name     string   `json:"name" yaml:"name"`
	Widget   string   `json:"widget" yaml:"widget"`
	Required *bool    `json:"required,omitempty" yaml:"required,omitempty"`
	Default  any      `json:"default,omitempty" yaml:"default,omitempty"`
	Options  []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// EditorConfigOptions carries the deployment-specific values of the document
type EditorConfigOptions struct {
	BaseURL            string
	Owner              string
	Repo               string
	Branch             string
	IntelligenceFolder string
	ModelsFolder       string
	MediaFolder        string
	PublicMediaPath    string
}

var optional = func() *bool { b := false; return &b }()

// NewEditorConfig builds the static editor document
func NewEditorConfig(opts EditorConfigOptions) *EditorConfig {
	return &EditorConfig{
		Backend: EditorBackend{
			Name:    "github",
			Repo:    opts.Owner + "/" + opts.Repo,
			Branch:  opts.Branch,
			APIRoot: opts.BaseURL + "/api/v1",
		},
		MediaFolder:  opts.MediaFolder,
		PublicFolder: opts.PublicMediaPath,
		Collections: []EditorCollection{
			{
				Name:      string(model.CollectionIntelligence),
				Label:     "Intelligence",
				Folder:    opts.IntelligenceFolder,
				Create:    true,
				Slug:      "{{year}}-{{month}}-{{day}}-{{slug}}",
				Extension: "md",
				Fields:    intelligenceFields(),
			},
			{
				Name:      string(model.CollectionModels),
				Label:     "Models",
				Folder:    opts.ModelsFolder,
				Create:    true,
				Slug:      "{{slug}}",
				Extension: "md",
				Fields:    modelFields(),
			},
		},
	}
}

func commonFields() []EditorField {
	return []EditorField{
		{Label: "Title", Name: model.FieldTitle, Widget: "string"},
		{Label: "Date", Name: model.FieldDate, Widget: "datetime"},
		{Label: "Brand", Name: model.FieldBrand, Widget: "string", Required: optional},
		{Label: "Category", Name: model.FieldCategory, Widget: "string", Required: optional},
		{Label: "Tags", Name: model.FieldTags, Widget: "list", Required: optional},
		{Label: "Summary", Name: model.FieldSummary, Widget: "text", Required: optional},
		{Label: "Author", Name: model.FieldAuthor, Widget: "string", Required: optional},
		{Label: "Reading Time", Name: model.FieldReadingTime, Widget: "number", Required: optional},
		{
			Label: "Status", Name: model.FieldStatus, Widget: "select", Default: string(model.StatusDraft),
			Options: []string{
				string(model.StatusDraft), string(model.StatusReview),
				string(model.StatusPublished), string(model.StatusArchived),
			},
		},
		{Label: "Pro", Name: model.FieldIsPro, Widget: "boolean", Default: false},
		{Label: "Published", Name: model.FieldPublished, Widget: "boolean", Default: false},
		{Label: "Featured", Name: model.FieldFeatured, Widget: "boolean", Default: false},
		{Label: "Related Links", Name: model.FieldRelatedLinks, Widget: "list", Required: optional},
		{Label: "Data Sources", Name: model.FieldDataSources, Widget: "list", Required: optional},
	}
}

func intelligenceFields() []EditorField {
	fields := commonFields()
	fields = append(fields,
		EditorField{
			Label: "Importance", Name: model.FieldImportance, Widget: "select", Default: string(model.ImportanceMedium),
			Options: []string{
				string(model.ImportanceLow), string(model.ImportanceMedium),
				string(model.ImportanceHigh), string(model.ImportanceCritical),
			},
		},
		EditorField{
			Label: "Confidence", Name: model.FieldConfidence, Widget: "select", Default: string(model.ConfidenceMedium),
			Options: []string{
				string(model.ConfidenceLow), string(model.ConfidenceMedium), string(model.ConfidenceHigh),
			},
		},
		EditorField{Label: "Body", Name: model.FieldBody, Widget: "markdown"},
	)
	return fields
}

func modelFields() []EditorField {
	fields := commonFields()
	fields = append(fields,
		EditorField{
			Label: "Confidence", Name: model.FieldConfidence, Widget: "select", Required: optional,
			Options: []string{
				string(model.ConfidenceLow), string(model.ConfidenceMedium), string(model.ConfidenceHigh),
			},
		},
		EditorField{
			Label: "Importance", Name: model.FieldImportance, Widget: "select", Required: optional,
			Options: []string{
				string(model.ImportanceLow), string(model.ImportanceMedium),
				string(model.ImportanceHigh), string(model.ImportanceCritical),
			},
		},
		EditorField{Label: "Body", Name: model.FieldBody, Widget: "markdown"},
	)
	return fields
}
