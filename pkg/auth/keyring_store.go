package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "bottagger"
	keyringUser    = "reddit-accounts"
)

// KeyringStore keeps the vault as one system keychain secret.
type KeyringStore struct {
	vaultStore
}

// NewKeyringStore returns a keychain backend, or an error when no keychain
// is reachable (headless Linux without a secret service, for example).
func NewKeyringStore() (*KeyringStore, error) {
	const probe = "availability-check"
	if err := keyring.Set(keyringService, probe, "ok"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, probe)

	return &KeyringStore{vaultStore{
		name: "system keychain",
		load: loadKeyringVault,
		save: saveKeyringVault,
	}}, nil
}

func loadKeyringVault() (vault, error) {
	secret, err := keyring.Get(keyringService, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return vault{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read keychain: %w", err)
	}

	v := vault{}
	if err := json.Unmarshal([]byte(secret), &v); err != nil {
		return nil, fmt.Errorf("decode keychain secret: %w", err)
	}
	return v, nil
}

func saveKeyringVault(v vault) error {
	if len(v) == 0 {
		if err := keyring.Delete(keyringService, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("clear keychain: %w", err)
		}
		return nil
	}

	secret, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := keyring.Set(keyringService, keyringUser, string(secret)); err != nil {
		return fmt.Errorf("write keychain: %w", err)
	}
	return nil
}
