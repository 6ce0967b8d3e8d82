package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jjenkins/evcms/internal/cmserr"
	"github.com/jjenkins/evcms/internal/identity"
)

// File is a stored file together with its change tag
type File struct {
	Path    string // repository-relative, slash separated
	Name    string
	Data    []byte
	Size    int64
	ModTime time.Time
	Tag     string
}

// DirEntry is one child of a listed directory
type DirEntry struct {
	Path    string
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
	Tag     string
}

// ContentStore reads and writes files under a single root directory.
// Writes are not locked; concurrent writers to one path race and the last
// write wins.
type ContentStore struct {
	root string
}

// NewContentStore creates a ContentStore rooted at root
func NewContentStore(root string) (*ContentStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve content root %q: %w", root, err)
	}
	return &ContentStore{root: abs}, nil
}

// Root returns the absolute root directory
func (s *ContentStore) Root() string {
	return s.root
}

// Clean normalizes a repository-relative path. It rejects empty paths and
// paths escaping the root.
func Clean(rel string) (string, error) {
	if strings.ContainsRune(rel, 0) {
		return "", cmserr.BadRequest("invalid path %q", rel)
	}
	slashed := strings.ReplaceAll(rel, "\\", "/")
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", cmserr.BadRequest("path %q escapes the repository", rel)
		}
	}
	p := strings.TrimPrefix(path.Clean("/"+slashed), "/")
	if p == "" {
		return ".", nil
	}
	return p, nil
}

// Resolve maps a repository-relative path to an absolute filesystem path
func (s *ContentStore) Resolve(rel string) (string, string, error) {
	clean, err := Clean(rel)
	if err != nil {
		return "", "", err
	}
	if clean == "." {
		return s.root, clean, nil
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), clean, nil
}

// Stat returns file info for rel, or a not-found error
func (s *ContentStore) Stat(ctx context.Context, rel string) (os.FileInfo, error) {
	abs, clean, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, cmserr.NotFound("%s not found", clean)
	}
	if err != nil {
		return nil, cmserr.Internal(err, "failed to stat %s", clean)
	}
	return info, nil
}

// Read loads the file at rel. Missing files and directories are not found.
func (s *ContentStore) Read(ctx context.Context, rel string) (*File, error) {
	abs, clean, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}
	if clean == "." {
		return nil, cmserr.BadRequest("path is required")
	}

	tag, data, info, err := identity.ForFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, cmserr.NotFound("%s not found", clean)
	}
	if err != nil {
		if st, statErr := os.Stat(abs); statErr == nil && st.IsDir() {
			return nil, cmserr.NotFound("%s is a directory", clean)
		}
		return nil, cmserr.Internal(err, "failed to read %s", clean)
	}

	return &File{
		Path:    clean,
		Name:    path.Base(clean),
		Data:    data,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Tag:     tag,
	}, nil
}

// List returns the files under folder whose extension matches ext (without
// the dot; empty matches everything), descending at most depth levels
// (depth <= 1 lists direct children only). A missing folder yields an empty
// list.
func (s *ContentStore) List(ctx context.Context, folder, ext string, depth int) ([]File, error) {
	abs, clean, err := s.Resolve(folder)
	if err != nil {
		return nil, err
	}
	if depth < 1 {
		depth = 1
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")

	files := []File{}
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == abs && errors.Is(walkErr, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relToFolder, err := filepath.Rel(abs, p)
		if err != nil {
			return err
		}
		level := 0
		if relToFolder != "." {
			level = len(strings.Split(filepath.ToSlash(relToFolder), "/"))
		}

		if d.IsDir() {
			if p != abs && (level >= depth || strings.HasPrefix(d.Name(), ".")) {
				return fs.SkipDir
			}
			return nil
		}
		if p == abs {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if ext != "" && strings.ToLower(strings.TrimPrefix(filepath.Ext(d.Name()), ".")) != ext {
			return nil
		}

		rel := path.Join(clean, filepath.ToSlash(relToFolder))
		f, err := s.Read(ctx, rel)
		if err != nil {
			if cmserr.Is(err, cmserr.KindNotFound) {
				// removed between walk and read
				return nil
			}
			return err
		}
		files = append(files, *f)
		return nil
	})
	if err != nil {
		var cerr *cmserr.Error
		if errors.As(err, &cerr) || ctx.Err() != nil {
			return nil, err
		}
		return nil, cmserr.Internal(err, "failed to list %s", clean)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// ListDir returns the direct children of a directory
func (s *ContentStore) ListDir(ctx context.Context, rel string) ([]DirEntry, error) {
	abs, clean, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, cmserr.NotFound("%s not found", clean)
	}
	if err != nil {
		return nil, cmserr.Internal(err, "failed to list %s", clean)
	}

	entries := make([]DirEntry, 0, len(dirEntries))
	for _, d := range dirEntries {
		if strings.HasPrefix(d.Name(), ".") {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		childPath := path.Join(clean, d.Name())
		if clean == "." {
			childPath = d.Name()
		}

		entry := DirEntry{
			Path:    childPath,
			Name:    d.Name(),
			IsDir:   d.IsDir(),
			ModTime: info.ModTime(),
		}
		if d.IsDir() {
			entry.Tag = identity.Tag([]byte(childPath), info.ModTime())
		} else {
			f, err := s.Read(ctx, childPath)
			if err != nil {
				continue
			}
			entry.Size = f.Size
			entry.Tag = f.Tag
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// IsDir reports whether rel names an existing directory
func (s *ContentStore) IsDir(ctx context.Context, rel string) (bool, error) {
	info, err := s.Stat(ctx, rel)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// Write stores data at rel verbatim, creating parent directories. existed
// reports whether the file was present just before the write; the check and
// the write are not atomic.
func (s *ContentStore) Write(ctx context.Context, rel string, data []byte) (f *File, existed bool, err error) {
	abs, clean, err := s.Resolve(rel)
	if err != nil {
		return nil, false, err
	}
	if clean == "." {
		return nil, false, cmserr.BadRequest("path is required")
	}

	if info, statErr := os.Stat(abs); statErr == nil {
		if info.IsDir() {
			return nil, false, cmserr.BadRequest("%s is a directory", clean)
		}
		existed = true
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, false, cmserr.Internal(err, "failed to create directory for %s", clean)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return nil, false, cmserr.Internal(err, "failed to write %s", clean)
	}

	f, err = s.Read(ctx, clean)
	if err != nil {
		return nil, false, err
	}
	return f, existed, nil
}

// Delete removes the file at rel and returns it as it was just before
// removal.
func (s *ContentStore) Delete(ctx context.Context, rel string) (*File, error) {
	f, err := s.Read(ctx, rel)
	if err != nil {
		return nil, err
	}

	abs, _, err := s.Resolve(f.Path)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cmserr.NotFound("%s not found", f.Path)
		}
		return nil, cmserr.Internal(err, "failed to delete %s", f.Path)
	}
	return f, nil
}
