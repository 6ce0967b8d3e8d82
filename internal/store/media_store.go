package store

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/jjenkins/evcms/internal/cmserr"
)

// ImageTypes maps accepted image extensions to their MIME types
var ImageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".avif": "image/avif",
}

// IsImage reports whether name has an accepted image extension
func IsImage(name string) bool {
	_, ok := ImageTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}

// IsImageMIME reports whether mime is one of the accepted image types
func IsImageMIME(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(strings.SplitN(mime, ";", 2)[0]))
	for _, t := range ImageTypes {
		if t == mime {
			return true
		}
	}
	return false
}

// MediaStore keeps uploaded images in one flat folder of a ContentStore.
// Uploads overwrite files of the same name without warning.
type MediaStore struct {
	content *ContentStore
	folder  string
}

// NewMediaStore creates a MediaStore for the repository-relative folder
func NewMediaStore(content *ContentStore, folder string) (*MediaStore, error) {
	clean, err := Clean(folder)
	if err != nil {
		return nil, err
	}
	return &MediaStore{content: content, folder: clean}, nil
}

// Folder returns the repository-relative upload folder
func (m *MediaStore) Folder() string {
	return m.folder
}

// List returns every image in the upload folder. A missing folder yields an
// empty list.
func (m *MediaStore) List(ctx context.Context) ([]File, error) {
	files, err := m.content.List(ctx, m.folder, "", 1)
	if err != nil {
		return nil, err
	}

	images := make([]File, 0, len(files))
	for _, f := range files {
		if IsImage(f.Name) {
			images = append(images, f)
		}
	}
	return images, nil
}

// PathFor returns the repository-relative path an upload of filename is
// written to
func (m *MediaStore) PathFor(filename string) string {
	return path.Join(m.folder, baseName(filename))
}

func baseName(filename string) string {
	return path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
}

// Upload writes data as filename in the upload folder. Only the base name of
// filename is used.
func (m *MediaStore) Upload(ctx context.Context, filename string, data []byte) (*File, error) {
	name := baseName(filename)
	if name == "" || name == "." || name == "/" || name == ".." || strings.HasPrefix(name, ".") {
		return nil, cmserr.BadRequest("invalid file name %q", filename)
	}
	if !IsImage(name) {
		return nil, cmserr.BadRequest("unsupported media type for %q", name)
	}

	f, _, err := m.content.Write(ctx, path.Join(m.folder, name), data)
	if err != nil {
		return nil, err
	}
	return f, nil
}
