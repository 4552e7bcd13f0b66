package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/viant/mcp-protocol/oauth2/meta"
	"golang.org/x/oauth2"
)

// FileStore persists tokens and client registrations to a JSON file, while keeping
// authorization server metadata in memory (it can be rediscovered).
// Persisting registrations lets a dynamically registered client reuse its client_id
// across process restarts instead of registering again.
type FileStore struct {
	mu     sync.Mutex
	path   string
	memory *memoryStore
}

type fileSnapshot struct {
	Tokens  map[string]*oauth2.Token  `json:"tokens"`
	Clients map[string]*oauth2.Config `json:"clients,omitempty"`
}

// NewFileStore creates a Store backed by path. A missing file starts an empty store.
func NewFileStore(path string, options ...MemoryStoreOption) (*FileStore, error) {
	ret := &FileStore{path: path, memory: newMemoryStore()}
	if err := ret.load(); err != nil {
		return nil, err
	}
	for _, opt := range options {
		opt(ret.memory)
	}
	return ret, nil
}

func (f *FileStore) LookupClientConfig(issuer string) (*oauth2.Config, bool) {
	return f.memory.LookupClientConfig(issuer)
}

func (f *FileStore) AddClientConfig(issuer string, client *oauth2.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.memory.AddClientConfig(issuer, client); err != nil {
		return err
	}
	return f.save()
}

func (f *FileStore) AddAuthorizationServerMetadata(metadata *meta.AuthorizationServerMetadata) error {
	return f.memory.AddAuthorizationServerMetadata(metadata)
}

func (f *FileStore) LookupAuthorizationServerMetadata(issuer string) (*meta.AuthorizationServerMetadata, bool) {
	return f.memory.LookupAuthorizationServerMetadata(issuer)
}

func (f *FileStore) LookupToken(key TokenKey) (*oauth2.Token, bool) {
	return f.memory.LookupToken(key)
}

func (f *FileStore) AddToken(key TokenKey, token *oauth2.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.memory.AddToken(key, token); err != nil {
		return err
	}
	return f.save()
}

func keyString(k TokenKey) string { return k.Issuer + "|" + k.Scopes }

func (f *FileStore) save() error {
	snap := fileSnapshot{Tokens: map[string]*oauth2.Token{}, Clients: map[string]*oauth2.Config{}}
	f.memory.mu.RLock()
	for k, v := range f.memory.tokens {
		snap.Tokens[keyString(k)] = v
	}
	for issuer, client := range f.memory.clients {
		snap.Clients[issuer] = client
	}
	f.memory.mu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var snap fileSnapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return err
	}
	for k, v := range snap.Tokens {
		parts := strings.SplitN(k, "|", 2)
		if len(parts) != 2 {
			continue
		}
		f.memory.tokens[TokenKey{Issuer: parts[0], Scopes: parts[1]}] = v
	}
	for issuer, client := range snap.Clients {
		f.memory.clients[issuer] = client
	}
	return nil
}
