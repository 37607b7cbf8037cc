package querycache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goforj/querycache/cachetest"
)

func TestFileStoreContract(t *testing.T) {
	cachetest.RunStoreContract(t, newFileStore(t.TempDir()), cachetest.Options{})
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	if err := newFileStore(dir).Set(ctx, "query_1_2", []byte("payload")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	body, ok, err := newFileStore(dir).Get(ctx, "query_1_2")
	if err != nil || !ok || string(body) != "payload" {
		t.Fatalf("expected entry visible to a new store; ok=%v err=%v body=%q", ok, err, body)
	}
}

func TestFileStoreCorruptEntryIsRemoved(t *testing.T) {
	dir := t.TempDir()
	store := newFileStore(dir).(*fileStore)
	ctx := context.Background()

	path := store.path("bad")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}
	if _, _, err := store.Get(ctx, "bad"); !errors.Is(err, ErrCorruptFileEntry) {
		t.Fatalf("expected ErrCorruptFileEntry, got %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected corrupt entry removed, stat err=%v", err)
	}
}

func TestFileStoreLenIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := newFileStore(dir).(*fileStore)
	ctx := context.Background()

	if err := store.Set(ctx, "a", []byte("1")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write foreign file: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"+fileEntryExt), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if n, err := store.Len(ctx); err != nil || n != 1 {
		t.Fatalf("expected len=1, got %d err=%v", n, err)
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Fatalf("expected foreign file kept: %v", err)
	}
}

func TestFileStoreSetFailuresCleanUpTempFile(t *testing.T) {
	dir := t.TempDir()
	store := newFileStore(dir)
	ctx := context.Background()

	origRename := renameFile
	renameFile = func(string, string) error { return errors.New("rename boom") }
	t.Cleanup(func() { renameFile = origRename })

	if err := store.Set(ctx, "k", []byte("v")); err == nil {
		t.Fatalf("expected rename error")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected temp file removed, found %d entries", len(entries))
	}
}

func TestFileStoreCreateTempFailure(t *testing.T) {
	store := newFileStore(t.TempDir())
	origCreate := createTempFile
	createTempFile = func(string, string) (*os.File, error) { return nil, errors.New("create boom") }
	t.Cleanup(func() { createTempFile = origCreate })

	if err := store.Set(context.Background(), "k", []byte("v")); err == nil {
		t.Fatalf("expected create error")
	}
}

func TestFileStorePingReportsUnusableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	store := newFileStore(filepath.Join(file, "sub")).(*fileStore)
	if err := store.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error for a dir under a regular file")
	}
}

func TestFileStoreMissingDirIsEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	store := newFileStore(dir).(*fileStore)
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove dir: %v", err)
	}
	if n, err := store.Len(context.Background()); err != nil || n != 0 {
		t.Fatalf("expected empty len for missing dir, got %d err=%v", n, err)
	}
}
