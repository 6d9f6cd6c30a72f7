package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cosmospool/cosmospool/internal/chain/eth"
	"github.com/cosmospool/cosmospool/internal/fileutil"
)

// DefaultFileName is the name of the persisted session file under the home directory.
const DefaultFileName = "session.json"

const sessionFilePermissions = 0o600

// AddressStore persists the last connected address. It is only a hint for
// silent reattachment and never grants authorization by itself.
type AddressStore interface {
	// Load returns the saved address or "" when none is saved.
	Load() (string, error)
	Save(address string) error
	Clear() error
}

type sessionFile struct {
	Address string    `json:"address"`
	SavedAt time.Time `json:"saved_at"`
}

// FileAddressStore keeps the address in a single JSON file.
type FileAddressStore struct {
	path string
	mu   sync.Mutex
}

// NewFileAddressStore creates a store backed by path.
func NewFileAddressStore(path string) *FileAddressStore {
	return &FileAddressStore{path: path}
}

// Path returns the backing file path.
func (s *FileAddressStore) Path() string {
	return s.path
}

// Load implements AddressStore.
func (s *FileAddressStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading session file: %w", err)
	}

	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("parsing session file: %w", err)
	}
	if f.Address == "" {
		return "", nil
	}
	if !eth.IsValidAddress(f.Address) {
		return "", fmt.Errorf("session file holds invalid address %q", f.Address)
	}
	return f.Address, nil
}

// Save implements AddressStore.
func (s *FileAddressStore) Save(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(sessionFile{Address: address, SavedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session file: %w", err)
	}
	return fileutil.WriteAtomic(s.path, data, sessionFilePermissions)
}

// Clear implements AddressStore.
func (s *FileAddressStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fileutil.RemoveIfExists(s.path)
}

// MemoryAddressStore keeps the address in memory.
type MemoryAddressStore struct {
	mu      sync.Mutex
	address string
}

// NewMemoryAddressStore returns a store preloaded with address.
func NewMemoryAddressStore(address string) *MemoryAddressStore {
	return &MemoryAddressStore{address: address}
}

// Load implements AddressStore.
func (s *MemoryAddressStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address, nil
}

// Save implements AddressStore.
func (s *MemoryAddressStore) Save(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = address
	return nil
}

// Clear implements AddressStore.
func (s *MemoryAddressStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = ""
	return nil
}
