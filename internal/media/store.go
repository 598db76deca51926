// Package media stores uploaded image binaries outside the relational
// database and hands back a reference path that is kept on the owning
// record. Writes happen outside any transaction boundary, so callers must
// tolerate an orphaned binary if a crash lands between "image written" and
// "record updated".
package media

import (
	"context"
	"crypto/rand"
	"fmt"
	"path"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Store is the content store for uploaded images.
type Store interface {
	// Save writes the bytes and returns the reference path to record.
	Save(ctx context.Context, dir, filename string, data []byte) (string, error)
	// Remove deletes a previously saved binary. Callers treat removal as
	// best-effort cleanup and only log failures.
	Remove(ctx context.Context, ref string) error
}

// Directories for the two kinds of uploads.
const (
	ProfileImagesDir = "profile_images"
	EventImagesDir   = "event_images"
)

const maxFilenameLength = 100

// objectName builds a collision-free object name: a fresh ULID prefix plus
// the client filename reduced to a safe character set.
func objectName(filename string) string {
	id := ulid.MustNew(ulid.Now(), rand.Reader)
	return id.String() + "_" + safeFilename(filename)
}

func safeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "image"
	}

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	cleaned := strings.Trim(b.String(), ".")
	if cleaned == "" {
		cleaned = "image"
	}
	if len(cleaned) > maxFilenameLength {
		cleaned = cleaned[len(cleaned)-maxFilenameLength:]
	}
	return cleaned
}

// ErrEmptyUpload is returned when a caller tries to save zero bytes.
var ErrEmptyUpload = fmt.Errorf("media: empty upload")
