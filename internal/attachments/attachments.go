package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("attachment not found")
	ErrInvalidName = errors.New("invalid attachment name")
)

// Store keeps uploaded complaint files under flat, generated names.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadSeekCloser, time.Time, error)
	Remove(ctx context.Context, name string) error
}

// StoredName prefixes the client's base file name with the upload time in
// Unix milliseconds and a random segment, so files uploaded together never
// share a name. Commas are replaced because stored lists are comma-joined.
func StoredName(now time.Time, original string) string {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(original), "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == ',', r == '/', r == ':', r == '"', r == '*', r == '?', r == '<', r == '>', r == '|':
			return '_'
		}
		return r
	}, base)
	if base == "" || base == "." || base == ".." {
		base = "file"
	}
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), uuid.NewString()[:8], base)
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
