package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorageReadWrite(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	ctx := context.Background()

	if err := s.Write(ctx, "tasks/abc.yaml", []byte("title: hello")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := s.Read(ctx, "tasks/abc.yaml")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "title: hello" {
		t.Errorf("Read returned %q, want %q", data, "title: hello")
	}

	exists, err := s.Exists(ctx, "tasks/abc.yaml")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("Exists returned false for a stored key")
	}
}

func TestLocalStorageReadMissing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	_, err = s.Read(context.Background(), "tasks/missing.yaml")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Read on missing key returned %v, want ErrNotFound", err)
	}
}

func TestLocalStorageDelete(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	ctx := context.Background()

	if err := s.Write(ctx, "tasks/abc.yaml", []byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Delete(ctx, "tasks/abc.yaml"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	exists, err := s.Exists(ctx, "tasks/abc.yaml")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("key still exists after delete")
	}

	if err := s.Delete(ctx, "tasks/abc.yaml"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete on missing key returned %v, want ErrNotFound", err)
	}
}

func TestLocalStorageList(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"tasks/a.yaml", "tasks/b.yaml", "other/c.yaml"} {
		if err := s.Write(ctx, key, []byte("x")); err != nil {
			t.Fatalf("Write %s failed: %v", key, err)
		}
	}
	// Leftover temp files must not show up as documents.
	if err := os.WriteFile(filepath.Join(dir, "tasks", "d.yaml.tmp"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to plant temp file: %v", err)
	}

	keys, err := s.List(ctx, "tasks")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("List returned %d keys, want 2: %v", len(keys), keys)
	}
	for _, k := range keys {
		if k != "tasks/a.yaml" && k != "tasks/b.yaml" {
			t.Errorf("unexpected key %q", k)
		}
	}
}

func TestLocalStorageListMissingPrefix(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	keys, err := s.List(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("List on missing prefix returned %v, want empty", keys)
	}
}
