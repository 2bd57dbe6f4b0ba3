package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

func newTestLocalStore(t *testing.T) (ObjectStore, string) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(log, dir, "uploads/")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return store, dir
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store, dir := newTestLocalStore(t)
	ctx := context.Background()

	if err := store.Upload(ctx, "owner_ana_ab12.png", strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "owner_ana_ab12.png")); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	rc, err := store.Open(ctx, "owner_ana_ab12.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "png-bytes" {
		t.Fatalf("body: got=%q", body)
	}

	if got := store.PublicURL("owner_ana_ab12.png"); got != "/uploads/owner_ana_ab12.png" {
		t.Fatalf("PublicURL: got=%q", got)
	}

	if err := store.Delete(ctx, "owner_ana_ab12.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, "owner_ana_ab12.png"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Open after delete: want ErrObjectNotFound got %v", err)
	}
	if err := store.Delete(ctx, "owner_ana_ab12.png"); err != nil {
		t.Fatalf("Delete of missing object should be a no-op: %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, _ := newTestLocalStore(t)
	for _, key := range []string{"", "../escape.png", "a/b.png", `a\b.png`, ".."} {
		if err := store.Upload(context.Background(), key, strings.NewReader("x")); err == nil {
			t.Fatalf("Upload(%q): expected error", key)
		}
	}
}

func TestLocalDir(t *testing.T) {
	store, dir := newTestLocalStore(t)
	got, ok := LocalDir(store)
	if !ok || got != dir {
		t.Fatalf("LocalDir: got=%q ok=%v", got, ok)
	}
}

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"a.PNG":     "image/png",
		"a.jpeg":    "image/jpeg",
		"a.webp":    "image/webp",
		"a.gif?v=1": "image/gif",
		"a.bin":     "application/octet-stream",
	}
	for key, want := range cases {
		if got := ContentTypeForKey(key); got != want {
			t.Fatalf("ContentTypeForKey(%q): want=%q got=%q", key, want, got)
		}
	}
}
