package kv

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileStore_BasicOperations(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenFileStore(dir, 0, 3)
	if err != nil {
		t.Fatalf("Failed to open file store: %v", err)
	}
	defer store.Close()

	if err := store.Set("fortune_library", []byte(`{"formatVersion":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, ok, err := store.Get("fortune_library")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok %v, err %v", ok, err)
	}
	if string(value) != `{"formatVersion":1}` {
		t.Errorf("Get = %q", value)
	}

	if err := store.Delete("fortune_library"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := store.Get("fortune_library"); ok {
		t.Error("key still exists after delete")
	}
	if store.Size() != 0 {
		t.Errorf("Size after delete = %d, want 0", store.Size())
	}
}

func TestFileStore_CompressionRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenFileStore(dir, 0, 3)
	if err != nil {
		t.Fatalf("Failed to open file store: %v", err)
	}
	defer store.Close()

	large := []byte(strings.Repeat("ดวงความรักวันนี้สดใส ", 200))
	if err := store.Set("big", large); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if store.Size() >= int64(len(large)) {
		t.Errorf("expected compressed size below %d, got %d", len(large), store.Size())
	}

	value, ok, err := store.Get("big")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok %v, err %v", ok, err)
	}
	if !bytes.Equal(value, large) {
		t.Error("decompressed value differs from original")
	}
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenFileStore(dir, 0, 0)
	if err != nil {
		t.Fatalf("Failed to open file store: %v", err)
	}
	keys := []string{"fortune_cache_horoscope_aries_daily_2026-10-16", "fortune_favorites", "a/b c"}
	for _, k := range keys {
		if err := store.Set(k, []byte(k)); err != nil {
			t.Fatalf("Set(%q) failed: %v", k, err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenFileStore(dir, 0, 0)
	if err != nil {
		t.Fatalf("Failed to reopen file store: %v", err)
	}
	defer reopened.Close()

	got, _ := reopened.Keys()
	if len(got) != len(keys) {
		t.Fatalf("Keys after reopen = %v, want %v", got, keys)
	}
	for _, k := range keys {
		value, ok, err := reopened.Get(k)
		if err != nil || !ok || string(value) != k {
			t.Errorf("Get(%q) = %q, %v, %v", k, value, ok, err)
		}
	}
}

func TestFileStore_Quota(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenFileStore(dir, 16, 0)
	if err != nil {
		t.Fatalf("Failed to open file store: %v", err)
	}
	defer store.Close()

	if err := store.Set("a", []byte("0123456789")); err != nil {
		t.Fatalf("Set within quota failed: %v", err)
	}
	if err := store.Set("b", []byte("0123456789")); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Set over quota = %v, want ErrQuotaExceeded", err)
	}
}

func TestFileStore_Locked(t *testing.T) {
	dir := t.TempDir()

	first, err := OpenFileStore(dir, 0, 0)
	if err != nil {
		t.Fatalf("Failed to open file store: %v", err)
	}

	if _, err := OpenFileStore(dir, 0, 0); !errors.Is(err, ErrLocked) {
		t.Fatalf("second open = %v, want ErrLocked", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := OpenFileStore(dir, 0, 0)
	if err != nil {
		t.Fatalf("open after release failed: %v", err)
	}
	second.Close()
}

func TestFileStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenFileStore(dir, 0, 0)
	if err != nil {
		t.Fatalf("Failed to open file store: %v", err)
	}
	defer store.Close()

	if err := store.Set("key", []byte("value")); err != nil {
		t.Fatal(err)
	}

	// Overwrite with an unknown header byte
	if err := os.WriteFile(store.filePath("key"), []byte{0x7f, 'x'}, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := store.Get("key"); !errors.Is(err, ErrCorrupted) {
		t.Errorf("Get of corrupted value = %v, want ErrCorrupted", err)
	}
}

func TestFileStore_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "!!!.kv"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := OpenFileStore(dir, 0, 0)
	if err != nil {
		t.Fatalf("Failed to open file store: %v", err)
	}
	defer store.Close()

	keys, _ := store.Keys()
	if len(keys) != 0 {
		t.Errorf("expected no keys, got %v", keys)
	}
}
