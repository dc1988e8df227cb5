package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/filex"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
)

// now is a test seam.
var now = time.Now

// FileStore keeps records in a single JSON file. It accepts three historical
// on-disk layouts and always writes back the keyed one:
//
//	{"users": [ {...}, {...} ]}   - current
//	[ {...}, {...} ]              - bare list
//	{"username": "...", ...}      - legacy single record
type FileStore struct {
	path string
	log  logging.Logger

	mu sync.Mutex
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string, log logging.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

// keyedFile is the layout every save produces.
type keyedFile struct {
	Users []UserCredential `json:"users"`
}

// load reads and normalizes the backing file. Never fails: anything that
// cannot be decoded is treated as an empty store, logged once.
func (s *FileStore) load() []UserCredential {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn(context.Background(), "credentials file unreadable", "path", s.path, "error", err)
		}
		return []UserCredential{}
	}

	// Bare list first: it cannot be decoded into an object.
	var list []UserCredential
	if err := json.Unmarshal(data, &list); err == nil {
		return list
	}

	var keyed keyedFile
	if err := json.Unmarshal(data, &keyed); err == nil && keyed.Users != nil {
		return keyed.Users
	}

	var single UserCredential
	if err := json.Unmarshal(data, &single); err == nil && single.Username != "" {
		return []UserCredential{single}
	}

	s.log.Warn(context.Background(), "credentials file has unknown layout, treating as empty", "path", s.path)
	return []UserCredential{}
}

// save rewrites the whole file atomically in the keyed layout.
func (s *FileStore) save(users []UserCredential) error {
	data, err := json.MarshalIndent(keyedFile{Users: users}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := filex.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (s *FileStore) LoadAll() []UserCredential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Get(username string) (*UserCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.load() {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, common.ErrNotFound)
}

func (s *FileStore) Upsert(username string, upd Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.load()

	idx := -1
	for i, u := range users {
		if u.Username == username {
			idx = i
			break
		}
	}
	if idx == -1 {
		users = append(users, UserCredential{Username: username})
		idx = len(users) - 1
	}

	if upd.Password != nil {
		users[idx].Password = *upd.Password
	}
	if upd.Token != nil {
		users[idx].Token = *upd.Token
		if *upd.Token != "" {
			users[idx].LastLogin = now().UTC().Format(time.RFC3339)
		}
	}

	return s.save(users)
}
