package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Keys under which the registry persists its two lists.
const (
	KeySelectedMetrics = "selectedMetricsMap"
	KeySelectedItems   = "selectedItems"
)

// ErrCorruptState is returned by a store whose persisted document cannot be
// parsed at all.
var ErrCorruptState = errors.New("corrupt selection state")

// Store is the key-value slot the registry persists into.
// Load returns (nil, nil) for a missing key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, raw []byte) error
	Remove(ctx context.Context, key string) error
}

// Notice announces that a key was rewritten by registry Origin.
type Notice struct {
	Origin string `json:"origin"`
	Key    string `json:"key"`
}

// Broadcaster is implemented by stores shared between processes so that
// every registry can pick up changes written by the others.
type Broadcaster interface {
	Publish(ctx context.Context, n Notice) error
	// Listen blocks, calling onNotice for every notice, until ctx is done.
	Listen(ctx context.Context, onNotice func(Notice)) error
}

// Stamper is implemented by stores that can cheaply report a value which
// changes whenever their contents do.
type Stamper interface {
	Stamp() (string, error)
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), raw...), nil
}

func (s *MemoryStore) Save(_ context.Context, key string, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), raw...)
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// FileStore keeps all keys in a single JSON document on disk so selections
// survive restarts of the CLI and server.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// Stamp is the file's modification time and size; a missing file stamps as "".
func (s *FileStore) Stamp() (string, error) {
	fi, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat selection file: %w", err)
	}
	return fmt.Sprintf("%d:%d", fi.ModTime().UnixNano(), fi.Size()), nil
}

func (s *FileStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	raw, ok := doc[key]
	if !ok {
		return nil, nil
	}
	return raw, nil
}

func (s *FileStore) Save(_ context.Context, key string, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		// An unreadable document is replaced rather than blocking every write.
		doc = map[string]json.RawMessage{}
	}
	doc[key] = json.RawMessage(raw)
	return s.write(doc)
}

func (s *FileStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if errors.Is(err, ErrCorruptState) {
		return s.write(map[string]json.RawMessage{})
	}
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return s.write(doc)
}

func (s *FileStore) read() (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("failed to read selection file: %w", err)
	}
	doc := map[string]json.RawMessage{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, s.path, err)
	}
	return doc, nil
}

func (s *FileStore) write(doc map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal selections: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write selection file: %w", err)
	}
	return os.Rename(tmp, s.path)
}
