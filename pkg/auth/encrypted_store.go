package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize         = 32
	keySize          = 32
	pbkdf2Iterations = 100000
	envelopeVersion  = 2

	envPassphrase = "BOTTAGGER_PASSPHRASE"
)

// EncryptedFileStore keeps the vault in one AES-GCM encrypted file. The key
// is derived with PBKDF2 from BOTTAGGER_PASSPHRASE, or from a passphrase
// generated once into a .passphrase file next to the vault.
type EncryptedFileStore struct {
	vaultStore
	path       string
	passphrase []byte
}

// envelope is the on-disk form. A fresh salt and nonce are drawn on every
// write.
type envelope struct {
	Version  int       `json:"version"`
	Salt     []byte    `json:"salt"`
	Sealed   []byte    `json:"sealed"`
	Modified time.Time `json:"modified"`
}

func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	passphrase, err := loadPassphrase(filepath.Join(dir, ".passphrase"))
	if err != nil {
		return nil, err
	}

	s := &EncryptedFileStore{path: path, passphrase: passphrase}
	s.vaultStore = vaultStore{name: "encrypted file", load: s.read, save: s.write}
	return s, nil
}

func (s *EncryptedFileStore) read() (vault, error) {
	content, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return vault{}, nil
	}
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(content, &env); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	gcm, err := s.cipher(env.Salt)
	if err != nil {
		return nil, err
	}
	n := gcm.NonceSize()
	if len(env.Sealed) < n {
		return nil, errors.New("credential file is truncated")
	}
	plain, err := gcm.Open(nil, env.Sealed[:n], env.Sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s (wrong passphrase?): %w", s.path, err)
	}

	v := vault{}
	if err := json.Unmarshal(plain, &v); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return v, nil
}

func (s *EncryptedFileStore) write(v vault) error {
	if len(v) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}

	plain, err := json.Marshal(v)
	if err != nil {
		return err
	}
	salt, err := randomBytes(saltSize)
	if err != nil {
		return err
	}
	gcm, err := s.cipher(salt)
	if err != nil {
		return err
	}
	nonce, err := randomBytes(gcm.NonceSize())
	if err != nil {
		return err
	}

	content, err := json.MarshalIndent(envelope{
		Version:  envelopeVersion,
		Salt:     salt,
		Sealed:   gcm.Seal(nonce, nonce, plain, nil),
		Modified: time.Now(),
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, s.path)
}

func (s *EncryptedFileStore) cipher(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(s.passphrase, salt, pbkdf2Iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// loadPassphrase prefers the environment, then an existing passphrase file,
// and otherwise generates one into path.
func loadPassphrase(path string) ([]byte, error) {
	if pass := os.Getenv(envPassphrase); pass != "" {
		return []byte(pass), nil
	}
	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return content, nil
	}

	b, err := randomBytes(32)
	if err != nil {
		return nil, err
	}
	pass := []byte(base64.RawURLEncoding.EncodeToString(b))
	if err := os.WriteFile(path, pass, 0600); err != nil {
		return nil, fmt.Errorf("save passphrase: %w", err)
	}
	return pass, nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return b, nil
}
