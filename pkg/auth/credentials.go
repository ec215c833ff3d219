package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Account is a Reddit account's OAuth bearer token. With a token configured
// profile lookups go to oauth.reddit.com instead of the public endpoint.
type Account struct {
	Username     string    `json:"username"`
	AccessToken  string    `json:"access_token"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Backend is one place tokens can be kept.
type Backend interface {
	Name() string
	Store(account *Account) error
	Retrieve(username string) (*Account, error)
	List() ([]*Account, error)
	Delete(username string) error
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)

// Manager consults its backends in order.
type Manager struct {
	backends []Backend
}

// NewManager uses the system keychain when one is reachable, then an
// encrypted file in the user config directory, then the environment.
func NewManager() (*Manager, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}

	var backends []Backend
	if k, err := NewKeyringStore(); err == nil {
		backends = append(backends, k)
	}
	f, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("encrypted credential file: %w", err)
	}
	backends = append(backends, f, NewEnvironmentStore())

	return NewManagerWithStores(backends...), nil
}

// NewManagerWithStores builds a Manager over explicit backends.
func NewManagerWithStores(backends ...Backend) *Manager {
	return &Manager{backends: backends}
}

// Backends names the backends in lookup order.
func (m *Manager) Backends() []string {
	names := make([]string, len(m.backends))
	for i, b := range m.backends {
		names[i] = b.Name()
	}
	return names
}

// Store saves account in the first backend that accepts it.
func (m *Manager) Store(account *Account) error {
	switch {
	case account == nil || account.Username == "":
		return fmt.Errorf("%w: username is required", ErrInvalidCredentials)
	case account.AccessToken == "":
		return fmt.Errorf("%w: access token is required", ErrInvalidCredentials)
	}
	account.LastModified = time.Now()

	var errs []error
	for _, b := range m.backends {
		err := b.Store(account)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
	}
	if len(errs) == 0 {
		return ErrStoreUnavailable
	}
	return fmt.Errorf("failed to store credentials: %w", errors.Join(errs...))
}

// Retrieve returns username's account from the first backend holding it.
func (m *Manager) Retrieve(username string) (*Account, error) {
	for _, b := range m.backends {
		if account, err := b.Retrieve(username); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, username)
}

// Resolve returns the named account. With no name the environment account
// wins, then the most recently saved one.
func (m *Manager) Resolve(name string) (*Account, error) {
	if name != "" {
		return m.Retrieve(name)
	}

	for _, b := range m.backends {
		if env, isEnv := b.(*EnvironmentStore); isEnv {
			if account, err := env.Retrieve(""); err == nil {
				return account, nil
			}
		}
	}
	if accounts, _ := m.List(); len(accounts) > 0 {
		return accounts[0], nil
	}
	return nil, ErrCredentialsNotFound
}

// List returns every account, newest first. A username held by several
// backends is reported once, as its newest copy.
func (m *Manager) List() ([]*Account, error) {
	newest := make(map[string]*Account)
	for _, b := range m.backends {
		accounts, err := b.List()
		if err != nil {
			continue
		}
		for _, a := range accounts {
			if seen, dup := newest[a.Username]; !dup || a.LastModified.After(seen.LastModified) {
				newest[a.Username] = a
			}
		}
	}

	out := make([]*Account, 0, len(newest))
	for _, a := range newest {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastModified.Equal(out[j].LastModified) {
			return out[i].LastModified.After(out[j].LastModified)
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

// Delete removes username from every backend that has it.
func (m *Manager) Delete(username string) error {
	removed := false
	var errs []error
	for _, b := range m.backends {
		err := b.Delete(username)
		switch {
		case err == nil:
			removed = true
		case errors.Is(err, ErrCredentialsNotFound), errors.Is(err, ErrStoreUnavailable):
		default:
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, username)
	}
	return nil
}

func configDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	dir := filepath.Join(base, "bottagger")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// SanitizeAccount returns a copy of account with the token masked.
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}
	masked := *account
	masked.AccessToken = maskString(account.AccessToken)
	return &masked
}

// maskString keeps the first and last four characters.
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
