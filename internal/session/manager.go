// Package session owns the login lifecycle: per-user session managers and
// the multi-user context that keeps exactly one of them active.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/api"
	"github.com/dmitrijs2005/paykeeper/internal/credentials"
	"github.com/dmitrijs2005/paykeeper/internal/filex"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
)

// Manager maintains the session of a single user over its own API channel.
// Re-authentication is serialized internally so the keep-alive loop and
// order pollers cannot interleave logins on the same channel.
type Manager struct {
	username   string
	store      credentials.Store
	client     api.Client
	log        logging.Logger
	profileDir string

	mu    sync.Mutex
	token string
}

func NewManager(username string, store credentials.Store, client api.Client, log logging.Logger) *Manager {
	return &Manager{
		username: username,
		store:    store,
		client:   client,
		log:      log.With("user", username),
	}
}

// SetProfileDir enables best-effort profile snapshots after each login.
func (m *Manager) SetProfileDir(dir string) {
	m.profileDir = dir
}

func (m *Manager) Username() string { return m.username }

// API exposes the manager's authenticated channel.
func (m *Manager) API() api.Client { return m.client }

func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Restore arms a token that is already known to be valid, without logging in
// or touching the store.
func (m *Manager) Restore(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.client.SetToken(token)
}

// Authenticate performs a fresh login with the given password and persists
// the resulting token.
func (m *Manager) Authenticate(ctx context.Context, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticateLocked(ctx, password)
}

func (m *Manager) authenticateLocked(ctx context.Context, password string) error {
	if err := m.client.ClearCookies(); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}

	res, err := m.client.Login(ctx, m.username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	m.token = res.Token
	m.client.SetToken(res.Token)

	if err := m.store.Upsert(m.username, credentials.Update{
		Password: &password,
		Token:    &res.Token,
	}); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	m.saveProfile(ctx, &res.Profile)
	m.log.Info(ctx, "logged in")
	return nil
}

// EnsureActive makes sure the session token is usable, re-authenticating
// with the stored password when needed. The stored record is re-read on
// every call, so a token injected into the file by an external process takes
// effect without a restart. Returns whether a login was performed.
func (m *Manager) EnsureActive(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, err := m.store.Get(m.username)
	if err != nil {
		return false, err
	}

	verr := ValidateToken(cred.Token, time.Now())
	if verr == nil {
		if cred.Token != m.token {
			m.log.Info(ctx, "adopting externally updated token")
			m.token = cred.Token
			m.client.SetToken(cred.Token)
		}
		return false, nil
	}
	m.log.Debug(ctx, "stored token unusable, re-login needed", "reason", verr)

	if cred.Password == "" {
		return false, fmt.Errorf("user %s has no stored password to re-login with", m.username)
	}
	if err := m.authenticateLocked(ctx, cred.Password); err != nil {
		return false, err
	}
	return true, nil
}

// Reauthenticate forces a fresh login with the stored password, regardless
// of the current token's apparent validity. Used when the remote side
// rejects a request that looked authenticated.
func (m *Manager) Reauthenticate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, err := m.store.Get(m.username)
	if err != nil {
		return err
	}
	if cred.Password == "" {
		return fmt.Errorf("user %s has no stored password to re-login with", m.username)
	}
	return m.authenticateLocked(ctx, cred.Password)
}

// saveProfile snapshots the login profile for the info command. Best effort:
// a failure is logged and otherwise ignored.
func (m *Manager) saveProfile(ctx context.Context, p *api.Profile) {
	if m.profileDir == "" {
		return
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		m.log.Warn(ctx, "marshal profile snapshot", "error", err)
		return
	}
	path := profilePath(m.profileDir, m.username)
	if err := filex.WriteFileAtomic(path, data, 0o600); err != nil {
		m.log.Warn(ctx, "save profile snapshot", "error", err)
	}
}

func profilePath(dir, username string) string {
	return filepath.Join(dir, "profile_"+username+".json")
}

// LoadProfile reads the last saved profile snapshot for username.
func LoadProfile(dir, username string) (*api.Profile, error) {
	data, err := os.ReadFile(profilePath(dir, username))
	if err != nil {
		return nil, err
	}
	var p api.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile snapshot: %w", err)
	}
	return &p, nil
}
