package service

import (
	"net/url"
	"strings"

	"github.com/jjenkins/evcms/internal/model"
	"github.com/jjenkins/evcms/internal/store"
)

// URLBuilder produces the links carried by repository entries
type URLBuilder struct {
	base   string
	owner  string
	repo   string
	branch string
}

// NewURLBuilder creates a URLBuilder for the public base URL and repository
func NewURLBuilder(base, owner, repo, branch string) *URLBuilder {
	return &URLBuilder{
		base:   strings.TrimRight(base, "/"),
		owner:  owner,
		repo:   repo,
		branch: branch,
	}
}

// Contents is the API URL of path
func (u *URLBuilder) Contents(path string) string {
	return u.base + "/api/v1/repos/" + u.owner + "/" + u.repo + "/contents/" + escapePath(path) +
		"?ref=" + url.QueryEscape(u.branch)
}

// HTML is the browsable URL of path
func (u *URLBuilder) HTML(path string) string {
	return u.base + "/" + u.owner + "/" + u.repo + "/blob/" + u.branch + "/" + escapePath(path)
}

// Git is the blob URL of a tag
func (u *URLBuilder) Git(sha string) string {
	return u.base + "/api/v1/repos/" + u.owner + "/" + u.repo + "/git/blobs/" + sha
}

// Download is the raw file URL of path
func (u *URLBuilder) Download(path string) string {
	return u.base + "/raw/" + escapePath(path)
}

// FileEntry projects a stored file, optionally with base64 content
func (u *URLBuilder) FileEntry(f *store.File, withContent bool) model.RepositoryEntry {
	download := u.Download(f.Path)
	modified := f.ModTime.UTC()
	entry := model.RepositoryEntry{
		Name:        f.Name,
		Path:        f.Path,
		SHA:         f.Tag,
		Size:        f.Size,
		URL:         u.Contents(f.Path),
		HTMLURL:     u.HTML(f.Path),
		GitURL:      u.Git(f.Tag),
		DownloadURL: &download,
		Type:        model.EntryTypeFile,
		ModifiedAt:  &modified,
	}
	entry.Links = model.EntryLinks{Self: entry.URL, Git: entry.GitURL, HTML: entry.HTMLURL}
	if withContent {
		entry.Content = encodeContent(f.Data)
		entry.Encoding = "base64"
	}
	return entry
}

// DirEntry projects one child of a directory listing
func (u *URLBuilder) DirEntry(d store.DirEntry) model.RepositoryEntry {
	modified := d.ModTime.UTC()
	entry := model.RepositoryEntry{
		Name:       d.Name,
		Path:       d.Path,
		SHA:        d.Tag,
		Size:       d.Size,
		URL:        u.Contents(d.Path),
		HTMLURL:    u.HTML(d.Path),
		GitURL:     u.Git(d.Tag),
		Type:       model.EntryTypeFile,
		ModifiedAt: &modified,
	}
	if d.IsDir {
		entry.Type = model.EntryTypeDir
	} else {
		download := u.Download(d.Path)
		entry.DownloadURL = &download
	}
	entry.Links = model.EntryLinks{Self: entry.URL, Git: entry.GitURL, HTML: entry.HTMLURL}
	return entry
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
