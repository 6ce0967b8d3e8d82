// Package identity computes change-detection tags for stored files.
//
// A tag is exposed to editor clients in the "sha" field of the contents API,
// but it is not a git blob hash and is not collision resistant. It only tells
// a client that a file's bytes or modification time changed.
package identity

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Tag returns a 16 character hex tag for content last modified at modTime.
func Tag(content []byte, modTime time.Time) string {
	var stamp [8]byte
	binary.BigEndian.PutUint64(stamp[:], uint64(modTime.UnixNano()))

	d := xxhash.New()
	_, _ = d.Write(content)
	_, _ = d.Write(stamp[:])
	return fmt.Sprintf("%016x", d.Sum64())
}

// ForFile reads path and returns its tag along with the bytes and file info
// used to compute it.
func ForFile(path string) (string, []byte, os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, nil, err
	}
	return Tag(data, info.ModTime()), data, info, nil
}
