// Package jsondb persists each entity collection as one named JSON document.
// Every mutation is a full read-modify-write of the document; a single active
// writer process is assumed. Two processes sharing a data directory race with
// last-write-wins semantics at whole-collection granularity -- this is a known
// hazard, not coordinated.
package jsondb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Storage keys, one per entity kind.
const (
	usersKey    = "erp_users"
	studentsKey = "erp_students_data"
	feesKey     = "erp_fee_data"
	coursesKey  = "erp_course_data"
	commsKey    = "erp_communications"
)

// Backend stores one raw JSON value per key.
type Backend interface {
	// Load returns the stored value; ok is false when the key is absent.
	Load(key string) (data []byte, ok bool, err error)
	// Save overwrites the stored value in full.
	Save(key string, data []byte) error
}

// FileBackend keeps one <key>.json file per key under a data directory.
type FileBackend struct {
	dir string
}

var _ Backend = (*FileBackend)(nil)

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating data dir %q", dir)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

func (b *FileBackend) Load(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "reading %q", key)
	}
	return data, true, nil
}

// Save writes to a temp file and renames it into place so a crashed write
// never leaves a truncated document behind.
func (b *FileBackend) Save(key string, data []byte) error {
	path := b.path(key)
	tmp, err := os.CreateTemp(b.dir, key+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "saving %q", key)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "saving %q", key)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "saving %q", key)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "saving %q", key)
}

// MemBackend is an in-memory Backend for tests.
type MemBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

var _ Backend = (*MemBackend)(nil)

func NewMemBackend() *MemBackend {
	return &MemBackend{values: make(map[string][]byte)}
}

func (b *MemBackend) Load(key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.values[key]
	return data, ok, nil
}

func (b *MemBackend) Save(key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = append([]byte(nil), data...)
	return nil
}

// collection is a typed view over one Backend key with lazy
// default-initialization.
type collection[T any] struct {
	be  Backend
	key string
	def func() T
}

// load returns the stored value. An absent key is initialized with the
// default; corrupt or unreadable data silently falls back to the default
// rather than failing the caller.
func (c *collection[T]) load() T {
	if raw, ok, err := c.be.Load(c.key); err == nil && ok {
		var v T
		if err = json.Unmarshal(raw, &v); err == nil {
			return v
		}
	}
	v := c.def()
	if raw, err := json.Marshal(v); err == nil {
		_ = c.be.Save(c.key, raw) // best effort; reads keep recovering
	}
	return v
}

// save marshals and overwrites the whole document. Write failures propagate
// to the caller.
func (c *collection[T]) save(v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshaling %q", c.key)
	}
	return c.be.Save(c.key, raw)
}
