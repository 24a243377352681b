package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"

	"github.com/google/uuid"
)

// ObjectStore keeps the original archive materials. Keys are relative, e.g. archives/<hex>/<name>.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SafeName replaces every character outside [a-zA-Z0-9._-] with '_'.
func SafeName(filename string) string {
	base := path.Base(filename)
	if filename == "" || base == "." || base == "/" {
		return "file"
	}
	return unsafeNameChars.ReplaceAllString(base, "_")
}

// BuildStoragePath returns archives/<32 hex>/<safe name>, unique per upload.
func BuildStoragePath(filename string) string {
	id := uuid.New()
	return fmt.Sprintf("archives/%x/%s", id[:], SafeName(filename))
}
