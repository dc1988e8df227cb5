// Package credentials stores the username/password/token records the
// application acts on behalf of. Passwords are kept replayable because the
// remote service is the only authority that can verify them and re-login
// needs the original value.
package credentials

// UserCredential is one stored account record.
type UserCredential struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Token     string `json:"token,omitempty"`
	LastLogin string `json:"last_login,omitempty"`
}

// Update describes a partial change to a record. Nil fields are left as-is.
type Update struct {
	Password *string
	Token    *string
}

// Store is the persistence interface for account records.
type Store interface {
	// LoadAll returns every stored record. A missing or unreadable backing
	// file yields an empty slice, never an error: the caller can always
	// proceed and register users from scratch.
	LoadAll() []UserCredential

	// Get returns the record for username or common.ErrNotFound.
	Get(username string) (*UserCredential, error)

	// Upsert applies upd to the record for username, creating it when
	// absent. A token-bearing update also stamps the last login time.
	Upsert(username string, upd Update) error
}
