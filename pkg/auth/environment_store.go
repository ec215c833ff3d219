package auth

import (
	"os"
	"time"
)

const (
	envAccessToken = "BOTTAGGER_ACCESS_TOKEN"
	envAccount     = "BOTTAGGER_ACCOUNT"
	envUserAgent   = "BOTTAGGER_USER_AGENT"
)

// EnvironmentStore exposes BOTTAGGER_ACCESS_TOKEN as a read-only account,
// named by BOTTAGGER_ACCOUNT or "default".
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore { return &EnvironmentStore{} }

func (*EnvironmentStore) Name() string { return "environment" }

func (*EnvironmentStore) Store(*Account) error { return ErrStoreUnavailable }

func (*EnvironmentStore) Delete(string) error { return ErrStoreUnavailable }

// Retrieve matches an empty username as well as the configured name.
func (*EnvironmentStore) Retrieve(username string) (*Account, error) {
	token := os.Getenv(envAccessToken)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	name := os.Getenv(envAccount)
	if name == "" {
		name = "default"
	}
	if username != "" && username != name {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Username:     name,
		AccessToken:  token,
		UserAgent:    os.Getenv(envUserAgent),
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	if a, err := e.Retrieve(""); err == nil {
		return []*Account{a}, nil
	}
	return nil, nil
}
