package kv

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/zstd"
)

const (
	fileExt  = ".kv"
	lockName = ".lock"

	// values at or below this size are never compressed
	compressThreshold = 1024

	headerRaw  byte = 0
	headerZstd byte = 1
)

// FileStore keeps one file per key in a directory. Writes go to a
// temporary file that is renamed into place. The directory is locked for
// the lifetime of the store so a single process owns it.
type FileStore struct {
	basePath string
	quota    int64 // Maximum size on disk in bytes, 0 for unlimited
	size     int64 // Current size on disk in bytes

	// Compression
	compressionLevel int
	encoder          *zstd.Encoder
	decoder          *zstd.Decoder

	// On-disk size per key
	index map[string]int64

	lock *flock.Flock

	mu sync.RWMutex

	enableCompression bool
}

// OpenFileStore opens (creating if needed) a file store rooted at basePath.
// A compressionLevel of 0 disables compression of new values.
func OpenFileStore(basePath string, quota int64, compressionLevel int) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create store directory: %v", ErrUnavailable, err)
	}

	lock := flock.New(filepath.Join(basePath, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to lock store directory: %v", ErrUnavailable, err)
	}
	if !locked {
		return nil, ErrLocked
	}

	s := &FileStore{
		basePath:          basePath,
		quota:             quota,
		compressionLevel:  compressionLevel,
		index:             make(map[string]int64),
		lock:              lock,
		enableCompression: compressionLevel > 0,
	}

	if s.enableCompression {
		s.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			_ = lock.Unlock()
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}

	// Compressed values written earlier stay readable even when
	// compression is now disabled.
	s.decoder, err = zstd.NewReader(nil)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	if err := s.loadIndex(); err != nil {
		s.closeCodecs()
		_ = lock.Unlock()
		return nil, fmt.Errorf("%w: failed to read store directory: %v", ErrUnavailable, err)
	}

	return s, nil
}

// Get retrieves the value stored under key.
func (s *FileStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[key]; !ok {
		return nil, false, nil
	}

	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// File removed behind our back
			s.size -= s.index[key]
			delete(s.index, key)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %q: %w", key, err)
	}

	value, err := s.decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("%q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key.
func (s *FileStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.encode(value)
	diskSize := int64(len(data))

	newSize := s.size + diskSize - s.index[key]
	if s.quota > 0 && newSize > s.quota {
		return ErrQuotaExceeded
	}

	if err := s.writeFile(s.filePath(key), data); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}

	s.index[key] = diskSize
	s.size = newSize
	return nil
}

// Delete removes key from the store.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	size, ok := s.index[key]
	if !ok {
		return nil
	}

	if err := os.Remove(s.filePath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}

	delete(s.index, key)
	s.size -= size
	return nil
}

// Keys returns all keys in the store.
func (s *FileStore) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.index))
	for key := range s.index {
		keys = append(keys, key)
	}
	return keys, nil
}

// Size returns the current size on disk in bytes.
func (s *FileStore) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.size
}

// Path returns the directory backing the store.
func (s *FileStore) Path() string {
	return s.basePath
}

// Close releases the directory lock.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeCodecs()
	return s.lock.Unlock()
}

// Private helper methods

func (s *FileStore) filePath(key string) string {
	return filepath.Join(s.basePath, base64.RawURLEncoding.EncodeToString([]byte(key))+fileExt)
}

func (s *FileStore) encode(value []byte) []byte {
	if s.enableCompression && len(value) > compressThreshold {
		compressed := s.encoder.EncodeAll(value, []byte{headerZstd})
		// Only use compression if it actually reduces size
		if len(compressed) < len(value)+1 {
			return compressed
		}
	}

	data := make([]byte, 0, len(value)+1)
	data = append(data, headerRaw)
	return append(data, value...)
}

func (s *FileStore) decode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrCorrupted
	}

	switch data[0] {
	case headerRaw:
		return data[1:], nil
	case headerZstd:
		value, err := s.decoder.DecodeAll(data[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
		}
		return value, nil
	default:
		return nil, ErrCorrupted
	}
}

func (s *FileStore) writeFile(path string, data []byte) error {
	// Write to temp file first, then rename (atomic on most systems)
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	closeErr := file.Close()

	if err != nil {
		os.Remove(tempPath)
		return err
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return closeErr
	}

	return os.Rename(tempPath, path)
}

func (s *FileStore) loadIndex() error {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}

		key, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue // not ours
		}

		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}

		s.index[string(key)] = info.Size()
		s.size += info.Size()
	}

	return nil
}

func (s *FileStore) closeCodecs() {
	if s.encoder != nil {
		_ = s.encoder.Close()
		s.encoder = nil
	}
	if s.decoder != nil {
		s.decoder.Close()
		s.decoder = nil
	}
}
