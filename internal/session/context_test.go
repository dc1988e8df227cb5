package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/paykeeper/internal/api"
	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/credentials"
)

func newTestContext(t *testing.T, store credentials.Store, clients map[string]*fakeClient) *MultiUserContext {
	t.Helper()
	factory := func(username string) (*Manager, error) {
		c, ok := clients[username]
		if !ok {
			c = &fakeClient{}
			clients[username] = c
		}
		return NewManager(username, store, c, testLogger(t)), nil
	}
	return NewMultiUserContext(store, factory, testLogger(t))
}

func TestMultiUserContext_Switch_ValidTokenRestoresWithoutLogin(t *testing.T) {
	tok := expiringToken(t, time.Now().Add(time.Hour))

	store := newMemStore()
	store.set(credentials.UserCredential{Username: "alice", Password: "secret", Token: tok})

	clients := map[string]*fakeClient{}
	c := newTestContext(t, store, clients)

	require.NoError(t, c.Switch(context.Background(), "alice"))

	require.NotNil(t, c.Active())
	assert.Equal(t, "alice", c.Username())
	assert.Equal(t, tok, c.Active().Token())
	assert.Zero(t, clients["alice"].LoginCalls())
}

func TestMultiUserContext_Switch_ExpiredTokenLogsIn(t *testing.T) {
	expired := expiringToken(t, time.Now().Add(-time.Hour))

	store := newMemStore()
	store.set(credentials.UserCredential{Username: "alice", Password: "secret", Token: expired})

	clients := map[string]*fakeClient{}
	c := newTestContext(t, store, clients)

	require.NoError(t, c.Switch(context.Background(), "alice"))
	assert.Equal(t, 1, clients["alice"].LoginCalls())
	assert.Equal(t, "fake-token", c.Active().Token())
}

func TestMultiUserContext_Switch_UnknownUser(t *testing.T) {
	c := newTestContext(t, newMemStore(), map[string]*fakeClient{})

	err := c.Switch(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Nil(t, c.Active())
}

func TestMultiUserContext_Switch_FailureKeepsPreviousUser(t *testing.T) {
	tok := expiringToken(t, time.Now().Add(time.Hour))

	store := newMemStore()
	store.set(credentials.UserCredential{Username: "alice", Password: "secret", Token: tok})
	store.set(credentials.UserCredential{Username: "bob", Password: "bad"})

	clients := map[string]*fakeClient{
		"bob": {
			loginFn: func(ctx context.Context, username, password string) (*api.LoginResult, error) {
				return nil, &api.Error{Message: "wrong password"}
			},
		},
	}
	c := newTestContext(t, store, clients)

	require.NoError(t, c.Switch(context.Background(), "alice"))
	require.Error(t, c.Switch(context.Background(), "bob"))

	assert.Equal(t, "alice", c.Username(), "failed switch must not change the active user")
}

func TestMultiUserContext_Switch_ConcurrentAttemptFailsFast(t *testing.T) {
	store := newMemStore()
	store.set(credentials.UserCredential{Username: "alice", Password: "secret"})
	store.set(credentials.UserCredential{Username: "bob", Password: "secret"})

	release := make(chan struct{})
	started := make(chan struct{})
	clients := map[string]*fakeClient{
		"alice": {
			loginFn: func(ctx context.Context, username, password string) (*api.LoginResult, error) {
				close(started)
				<-release
				return &api.LoginResult{Token: "tok-a"}, nil
			},
		},
	}
	c := newTestContext(t, store, clients)

	done := make(chan error, 1)
	go func() { done <- c.Switch(context.Background(), "alice") }()

	<-started
	err := c.Switch(context.Background(), "bob")
	require.ErrorIs(t, err, common.ErrSwitchInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, "alice", c.Username())
}

func TestMultiUserContext_Switch_LeavesPreviousManagerIntact(t *testing.T) {
	tokA := expiringToken(t, time.Now().Add(time.Hour))
	tokB := expiringToken(t, time.Now().Add(time.Hour))

	store := newMemStore()
	store.set(credentials.UserCredential{Username: "alice", Password: "secret", Token: tokA})
	store.set(credentials.UserCredential{Username: "bob", Password: "secret", Token: tokB})

	clients := map[string]*fakeClient{}
	c := newTestContext(t, store, clients)

	require.NoError(t, c.Switch(context.Background(), "alice"))
	captured := c.Active() // what an order poller would hold on to

	require.NoError(t, c.Switch(context.Background(), "bob"))

	// The captured session still belongs to alice and still carries her
	// token; the switch built a new pair instead of mutating the old one.
	assert.Equal(t, "alice", captured.Username())
	assert.Equal(t, tokA, captured.Token())
	assert.Equal(t, "bob", c.Username())
	assert.NotSame(t, captured, c.Active())
}

func TestMultiUserContext_EnsureActive_NoActiveUser(t *testing.T) {
	c := newTestContext(t, newMemStore(), map[string]*fakeClient{})

	_, err := c.EnsureActive(context.Background())
	require.ErrorIs(t, err, common.ErrNoActiveUser)
}

func TestMultiUserContext_EnsureActive_DelegatesToActiveManager(t *testing.T) {
	tok := expiringToken(t, time.Now().Add(time.Hour))

	store := newMemStore()
	store.set(credentials.UserCredential{Username: "alice", Password: "secret", Token: tok})

	clients := map[string]*fakeClient{}
	c := newTestContext(t, store, clients)
	require.NoError(t, c.Switch(context.Background(), "alice"))

	loggedIn, err := c.EnsureActive(context.Background())
	require.NoError(t, err)
	assert.False(t, loggedIn)
}
