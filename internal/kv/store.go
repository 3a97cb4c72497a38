package kv

import (
	"errors"
	"sort"
	"strings"
)

// Common errors for store operations
var (
	// ErrQuotaExceeded is returned when a write would take the store past its quota
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrUnavailable is returned when the backing storage cannot be used
	ErrUnavailable = errors.New("storage unavailable")

	// ErrLocked is returned when another process owns the storage location
	ErrLocked = errors.New("storage is locked by another process")

	// ErrCorrupted is returned when a stored value cannot be decoded
	ErrCorrupted = errors.New("stored value corrupted")
)

// Store is a synchronous string-keyed byte store.
//
// Get reports a missing key with ok == false and a nil error. Delete of a
// missing key is not an error.
type Store interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
	Keys() ([]string, error)
}

// KeysWithPrefix returns the sorted keys of s that start with prefix.
func KeysWithPrefix(s Store, prefix string) ([]string, error) {
	keys, err := s.Keys()
	if err != nil {
		return nil, err
	}

	matched := keys[:0]
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	sort.Strings(matched)
	return matched, nil
}
