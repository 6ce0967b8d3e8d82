package model

import (
	"time"

	"github.com/jjenkins/evcms/internal/frontmatter"
)

// Entry types in the contents API
const (
	EntryTypeFile = "file"
	EntryTypeDir  = "dir"
)

// RepositoryEntry mirrors a hosted git provider's "repository contents"
// object. Field names are fixed by the editor client.
type RepositoryEntry struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	SHA         string     `json:"sha"`
	Size        int64      `json:"size"`
	URL         string     `json:"url"`
	HTMLURL     string     `json:"html_url"`
	GitURL      string     `json:"git_url"`
	DownloadURL *string    `json:"download_url"`
	Type        string     `json:"type"`
	Content     string     `json:"content,omitempty"`
	Encoding    string     `json:"encoding,omitempty"`
	Links       EntryLinks `json:"_links"`
	ModifiedAt  *time.Time `json:"last_modified,omitempty"`
}

// EntryLinks holds the self-referential links of a RepositoryEntry
type EntryLinks struct {
	Self string `json:"self"`
	Git  string `json:"git"`
	HTML string `json:"html"`
}

// EntryFile identifies the file behind an editor entry
type EntryFile struct {
	Path string `json:"path"`
	ID   string `json:"id"`
}

// Entry is the editor-facing view of a content file
type Entry struct {
	File    EntryFile             `json:"file"`
	Data    *frontmatter.Metadata `json:"data"`
	Body    string                `json:"body"`
	Raw     string                `json:"raw"`
	Content RepositoryEntry       `json:"content"`
}

// Commit describes the pseudo-commit reported for a write
type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
}

// PersistResult is returned by persistEntry
type PersistResult struct {
	Content        RepositoryEntry `json:"content"`
	Commit         Commit          `json:"commit"`
	IsModification bool            `json:"isModification"`
}

// DeleteResult is returned by deleteEntry. SHA is the tag the file had
// before it was removed.
type DeleteResult struct {
	Content *RepositoryEntry `json:"content"`
	Commit  Commit           `json:"commit"`
	Path    string           `json:"path"`
	SHA     string           `json:"sha"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Message          string `json:"message"`
	Status           int    `json:"status"`
	Timestamp        string `json:"timestamp"`
	DocumentationURL string `json:"documentation_url"`
}

// ServerInfo is returned by the info action
type ServerInfo struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Repo        string    `json:"repo"`
	Branch      string    `json:"branch"`
	Collections []string  `json:"collections"`
	MediaFolder string    `json:"media_folder"`
	Time        time.Time `json:"time"`
}

// AuthResult is returned by the auth action. The token is a mock and grants
// nothing.
type AuthResult struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// AuthUser is the mock editor identity
type AuthUser struct {
	Login string `json:"login"`
	Name  string `json:"name"`
}
