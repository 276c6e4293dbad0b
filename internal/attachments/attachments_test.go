package attachments

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestStoredName(t *testing.T) {
	now := time.UnixMilli(1704412800123)
	cases := map[string]string{
		"photo.jpg":               "photo.jpg",
		"C:\\Users\\me\\scan.pdf": "scan.pdf",
		"../../etc/passwd":        "passwd",
		"":                        "file",
		"what?.mp4":               "what_.mp4",
		"leaf,front.jpg":          "leaf_front.jpg",
	}
	for original, wantBase := range cases {
		got := StoredName(now, original)
		parts := strings.SplitN(got, "-", 3)
		if len(parts) != 3 || parts[0] != "1704412800123" || len(parts[1]) != 8 || parts[2] != wantBase {
			t.Errorf("StoredName(%q) = %q, want 1704412800123-<8 chars>-%s", original, got, wantBase)
		}
		if strings.Contains(got, ",") {
			t.Errorf("StoredName(%q) = %q contains a comma", original, got)
		}
	}
}

func TestStoredNameIsUniqueForSameUpload(t *testing.T) {
	now := time.UnixMilli(1704412800123)
	first := StoredName(now, "image.jpg")
	second := StoredName(now, "image.jpg")
	if first == second {
		t.Fatalf("expected distinct names for the same file and time, got %q twice", first)
	}
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("new local: %v", err)
	}

	if err := store.Save(ctx, "1-a.txt", strings.NewReader("hello"), 5, "text/plain"); err != nil {
		t.Fatalf("save: %v", err)
	}
	f, _, err := store.Open(ctx, "1-a.txt")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	body, _ := io.ReadAll(f)
	_ = f.Close()
	if string(body) != "hello" {
		t.Fatalf("expected hello, got %q", body)
	}

	if err := store.Remove(ctx, "1-a.txt"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, _, err := store.Open(ctx, "1-a.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
	if err := store.Remove(ctx, "1-a.txt"); err != nil {
		t.Fatalf("removing a missing file must not fail: %v", err)
	}
}

func TestLocalRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("new local: %v", err)
	}
	if err := store.Save(ctx, "../escape.txt", strings.NewReader("x"), 1, ""); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, _, err := store.Open(ctx, "../escape.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
