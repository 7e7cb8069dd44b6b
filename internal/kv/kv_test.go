package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.Get(ctx, KeyBalance)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected absent key")
	}

	if err := s.Set(ctx, KeyBalance, `{"total":0,"isInitialized":false}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := s.Get(ctx, KeyBalance)
	if err != nil || !ok {
		t.Fatalf("get after set: ok=%v err=%v", ok, err)
	}
	if v != `{"total":0,"isInitialized":false}` {
		t.Fatalf("unexpected value %q", v)
	}

	// Overwrite replaces
	if err := s.Set(ctx, KeyBalance, `{"total":100,"isInitialized":true}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, _, _ = s.Get(ctx, KeyBalance)
	if v != `{"total":100,"isInitialized":true}` {
		t.Fatalf("overwrite lost: %q", v)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	_, ok, err := s.Get(ctx, KeyCategories)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected absent key")
	}

	if err := s.Set(ctx, KeyCategories, `[]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := s.Get(ctx, KeyCategories)
	if err != nil || !ok || v != `[]` {
		t.Fatalf("round trip failed: v=%q ok=%v err=%v", v, ok, err)
	}

	// Value lands in <dir>/<key>.json with no temp file left behind
	if _, err := os.Stat(filepath.Join(dir, "categories.json")); err != nil {
		t.Fatalf("expected data file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "categories.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp file should not remain")
	}

	// A fresh store over the same directory sees the value
	s2, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, ok, err = s2.Get(ctx, KeyCategories)
	if err != nil || !ok || v != `[]` {
		t.Fatalf("reopen read failed: v=%q ok=%v err=%v", v, ok, err)
	}
}

func TestFileStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	if _, err := NewFileStore(dir); err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("directory not created: %v", err)
	}
}
