package kv

import (
	"path/filepath"
	"sort"
	"testing"
)

func TestSQLStore_BasicOperations(t *testing.T) {
	store, err := OpenSQLStore(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("Failed to open sql store: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.Get("missing"); ok || err != nil {
		t.Fatalf("Get on empty store = ok %v, err %v", ok, err)
	}

	if err := store.Set("k1", []byte("v1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set("k1", []byte("v2")); err != nil {
		t.Fatalf("Set (update) failed: %v", err)
	}
	if err := store.Set("k2", []byte("other")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, ok, err := store.Get("k1")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok %v, err %v", ok, err)
	}
	if string(value) != "v2" {
		t.Errorf("Get = %q, want v2", value)
	}

	keys, err := store.Keys()
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "k1" || keys[1] != "k2" {
		t.Errorf("Keys = %v", keys)
	}

	if err := store.Delete("k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := store.Get("k1"); ok {
		t.Error("key still exists after delete")
	}
}

func TestOpen_Backends(t *testing.T) {
	dir := t.TempDir()

	for _, backend := range []string{BackendMemory, BackendFile, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			store, closer, err := Open(Config{Backend: backend, Dir: filepath.Join(dir, backend)})
			if err != nil {
				t.Fatalf("Open(%s) failed: %v", backend, err)
			}
			defer closer.Close()

			if err := store.Set("k", []byte("v")); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if v, ok, _ := store.Get("k"); !ok || string(v) != "v" {
				t.Errorf("Get = %q, %v", v, ok)
			}
		})
	}

	if _, _, err := Open(Config{Backend: "etcd"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
