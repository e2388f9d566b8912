package rrepr

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const (
	MemoryStoreType   = "MemoryStore"
	LocalStoreType    = "LocalStore"
	dirPermissionBits = 0755
)

var ErrNotfound = errors.New("not found")

// Store holds container documents by key
type Store interface {
	Get(key string) (io.ReadCloser, error)
	Put(key string, val io.Reader) error
	Keys() ([]string, error)
	Type() string
}

type MemoryStore struct {
	lk   sync.Mutex
	data map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: map[string][]byte{},
	}
}

func (s *MemoryStore) Type() string { return MemoryStoreType }

func (s *MemoryStore) Get(key string) (io.ReadCloser, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	d, ok := s.data[NewPath(key).String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotfound, key)
	}
	return io.NopCloser(bytes.NewReader(d)), nil
}

func (s *MemoryStore) Put(key string, val io.Reader) error {
	d, err := io.ReadAll(val)
	if err != nil {
		return err
	}

	s.lk.Lock()
	defer s.lk.Unlock()
	s.data[NewPath(key).String()] = d

	return nil
}

func (s *MemoryStore) Keys() ([]string, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

type LocalStore struct {
	base string
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(base string) (*LocalStore, error) {
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(base, dirPermissionBits); err != nil {
		return nil, err
	}

	return &LocalStore{
		base: base,
	}, nil
}

func (s *LocalStore) Type() string { return LocalStoreType }

// filename resolves key below the store's base directory
func (s *LocalStore) filename(key string) (string, error) {
	p := NewPath(key)
	for _, el := range p {
		if el == ".." {
			return "", fmt.Errorf("invalid key %q: parent references are not allowed", key)
		}
	}
	if len(p) == 0 {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.base, filepath.FromSlash(p.String())), nil
}

func (s *LocalStore) Get(key string) (io.ReadCloser, error) {
	path, err := s.filename(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotfound, key)
	}
	return f, err
}

func (s *LocalStore) Put(key string, val io.Reader) error {
	path, err := s.filename(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPermissionBits); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, val); err != nil {
		f.Close()
		return err
	}
	if c, ok := val.(io.Closer); ok {
		if err := c.Close(); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

func (s *LocalStore) Keys() ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.base, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.base, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(keys)
	return keys, err
}

// LoadContainer reads and decodes the container document stored under key.
// Keys ending in a compression extension are decompressed first.
func LoadContainer(s Store, key string) (*Container, error) {
	f, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := decompressor(key, f)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", key, err)
	}
	c, err := DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return c, nil
}
