package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrStorageWrite marks a durable-write failure. Callers must treat a
// failed append as not saved; the store never silently drops a record.
var ErrStorageWrite = errors.New("store: durable write failed")

// Store is a collection-per-file JSON store under a single data
// directory. Each logical collection lives in its own namespaced file
// and is read or replaced as a whole, so readers never observe an
// interleaved partial write. It is the only shared mutable resource in
// the agent; all mutation goes through Append/ReplaceAll/Clear.
type Store struct {
	dir string

	mu     sync.Mutex
	loaded map[string][]json.RawMessage
}

// Open prepares a store rooted at dir, creating it if needed.
// Collections are loaded lazily on first access.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	return &Store{
		dir:    dir,
		loaded: make(map[string][]json.RawMessage),
	}, nil
}

// Dir returns the data directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// Append adds a record to the end of a collection and persists the
// collection before returning. On a write failure the in-memory state is
// rolled back and ErrStorageWrite is returned, so a successful return
// means the record is durable.
func (s *Store) Append(collection string, record interface{}) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("store: marshal record for %s: %w", collection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(collection)
	if err != nil {
		return err
	}

	updated := append(records, json.RawMessage(raw))
	if err := s.persist(collection, updated); err != nil {
		return err
	}
	s.loaded[collection] = updated
	return nil
}

// List decodes the full collection into dest, which must be a pointer to
// a slice. Records come back in append order. A missing collection
// decodes as an empty slice.
func (s *Store) List(collection string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(collection)
	if err != nil {
		return err
	}

	combined, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", collection, err)
	}
	if err := json.Unmarshal(combined, dest); err != nil {
		return fmt.Errorf("store: decode %s: %w", collection, err)
	}
	return nil
}

// Count returns the number of records in a collection.
func (s *Store) Count(collection string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(collection)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// ReplaceAll atomically swaps the entire contents of a collection.
// records must be a slice.
func (s *Store) ReplaceAll(collection string, records interface{}) error {
	combined, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("store: marshal records for %s: %w", collection, err)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(combined, &raws); err != nil {
		return fmt.Errorf("store: records for %s must be a slice: %w", collection, err)
	}
	if raws == nil {
		raws = []json.RawMessage{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(collection, raws); err != nil {
		return err
	}
	s.loaded[collection] = raws
	return nil
}

// Update applies fn to the current contents of a collection and
// persists the result, entirely under the store lock. Read-modify-write
// callers must use this instead of List followed by ReplaceAll, so a
// concurrent Append can never land between the read and the write and
// be erased. fn gets its own copy of the slice header; returning a nil
// slice leaves the collection untouched.
func (s *Store) Update(collection string, fn func(records []json.RawMessage) ([]json.RawMessage, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(collection)
	if err != nil {
		return err
	}

	updated, err := fn(append([]json.RawMessage(nil), records...))
	if err != nil {
		return err
	}
	if updated == nil {
		return nil
	}
	if err := s.persist(collection, updated); err != nil {
		return err
	}
	s.loaded[collection] = updated
	return nil
}

// Clear removes every record in a collection.
func (s *Store) Clear(collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(collection, []json.RawMessage{}); err != nil {
		return err
	}
	s.loaded[collection] = []json.RawMessage{}
	return nil
}

// load returns the cached collection, reading it from disk on first use.
// Caller must hold s.mu.
func (s *Store) load(collection string) ([]json.RawMessage, error) {
	if records, ok := s.loaded[collection]; ok {
		return records, nil
	}

	data, err := os.ReadFile(s.path(collection))
	if os.IsNotExist(err) {
		s.loaded[collection] = []json.RawMessage{}
		return s.loaded[collection], nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", collection, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("store: corrupt collection %s: %w", collection, err)
	}
	s.loaded[collection] = records
	return records, nil
}

// persist writes the collection to a temp file, fsyncs and renames it
// into place so a crash mid-write leaves the previous contents intact.
// Caller must hold s.mu.
func (s *Store) persist(collection string, records []json.RawMessage) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrStorageWrite, collection, err)
	}

	tmp, err := os.CreateTemp(s.dir, collection+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	if err := os.Rename(tmpName, s.path(collection)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return nil
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}
