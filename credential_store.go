package auth

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-errors"
)

// DefaultCredentialFile is the well-known filename the client keeps its
// bearer credential under, relative to the state directory.
const DefaultCredentialFile = "credential"

// FileCredentialStore keeps the single bearer credential in a file scoped to
// one user profile. Writes go through a temp file plus rename so a crashed
// client never observes a torn credential.
type FileCredentialStore struct {
	mu   sync.Mutex
	path string
}

var _ CredentialStore = (*FileCredentialStore)(nil)

// NewFileCredentialStore creates a store rooted at dir, creating it if needed.
func NewFileCredentialStore(dir string) (*FileCredentialStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "unable to create credential directory")
	}
	return &FileCredentialStore{path: filepath.Join(dir, DefaultCredentialFile)}, nil
}

func (s *FileCredentialStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token), 0o600); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "unable to write credential")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "unable to persist credential")
	}

	return nil
}

func (s *FileCredentialStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		// absence is the normal anonymous state
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryOperation, "unable to read credential")
	}

	return strings.TrimSpace(string(b)), nil
}

func (s *FileCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.CategoryOperation, "unable to clear credential")
	}

	return nil
}

// MemoryCredentialStore is an in-process store for tests and embedding.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	token string
}

var _ CredentialStore = (*MemoryCredentialStore)(nil)

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryCredentialStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
