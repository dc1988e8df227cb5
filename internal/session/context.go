package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/credentials"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
)

// ManagerFactory builds a fresh Manager (with a fresh API channel) for a
// username. Injected so tests can substitute fake channels.
type ManagerFactory func(username string) (*Manager, error)

// MultiUserContext keeps at most one active user session at a time. A switch
// replaces the whole (user, manager) pair atomically; the previous manager
// is never mutated, so order pollers holding it keep working against the
// session they captured.
type MultiUserContext struct {
	store   credentials.Store
	factory ManagerFactory
	log     logging.Logger

	switchMu sync.Mutex
	active   atomic.Pointer[Manager]
}

func NewMultiUserContext(store credentials.Store, factory ManagerFactory, log logging.Logger) *MultiUserContext {
	return &MultiUserContext{store: store, factory: factory, log: log}
}

// Active returns the current manager, or nil when no user is active.
func (c *MultiUserContext) Active() *Manager {
	return c.active.Load()
}

// Username returns the active username, or "" when no user is active.
func (c *MultiUserContext) Username() string {
	if m := c.active.Load(); m != nil {
		return m.Username()
	}
	return ""
}

// Switch makes username the active user. Only one switch may run at a time;
// a concurrent attempt fails fast with common.ErrSwitchInProgress. On any
// failure the previously active session stays in place.
func (c *MultiUserContext) Switch(ctx context.Context, username string) error {
	if !c.switchMu.TryLock() {
		return common.ErrSwitchInProgress
	}
	defer c.switchMu.Unlock()

	cred, err := c.store.Get(username)
	if err != nil {
		return err
	}

	mgr, err := c.factory(username)
	if err != nil {
		return fmt.Errorf("build session for %s: %w", username, err)
	}

	if cred.Token != "" && !IsExpired(cred.Token, time.Now()) {
		mgr.Restore(cred.Token)
	} else {
		if cred.Password == "" {
			return fmt.Errorf("user %s has no stored password", username)
		}
		if err := mgr.Authenticate(ctx, cred.Password); err != nil {
			return err
		}
	}

	c.active.Store(mgr)
	c.log.Info(ctx, "active user switched", "user", username)
	return nil
}

// EnsureActive delegates to the active manager; with no active user it
// returns common.ErrNoActiveUser rather than guessing an account.
func (c *MultiUserContext) EnsureActive(ctx context.Context) (bool, error) {
	mgr := c.active.Load()
	if mgr == nil {
		return false, common.ErrNoActiveUser
	}
	return mgr.EnsureActive(ctx)
}
