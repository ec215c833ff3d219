package auth

import (
	"sort"
	"sync"
)

// vault is every stored account keyed by username. The keychain and the
// encrypted file both persist a whole vault as one secret.
type vault map[string]Account

func (v vault) list() []*Account {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Account, 0, len(names))
	for _, name := range names {
		a := v[name]
		out = append(out, &a)
	}
	return out
}

// vaultStore implements Backend on top of whole-vault reads and writes.
// load returns an empty vault when nothing is stored yet; save removes the
// secret when given an empty one.
type vaultStore struct {
	name string
	mu   sync.Mutex
	load func() (vault, error)
	save func(vault) error
}

func (s *vaultStore) Name() string { return s.name }

func (s *vaultStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.load()
	if err != nil {
		return err
	}
	v[account.Username] = *account
	return s.save(v)
}

func (s *vaultStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.load()
	if err != nil {
		return nil, err
	}
	a, found := v[username]
	if !found {
		return nil, ErrCredentialsNotFound
	}
	return &a, nil
}

func (s *vaultStore) List() ([]*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.load()
	if err != nil {
		return nil, err
	}
	return v.list(), nil
}

func (s *vaultStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.load()
	if err != nil {
		return err
	}
	if _, found := v[username]; !found {
		return ErrCredentialsNotFound
	}
	delete(v, username)
	return s.save(v)
}
