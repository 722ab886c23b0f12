package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/keyring"
)

// TokenKey is the keyring key the GitHub token is stored under.
const TokenKey = "github-token"

// TokenStore keeps the GitHub token in the OS keyring, falling back to an
// encrypted file under ~/.config/ghnotify/credentials when no secret
// service is running.
type TokenStore struct {
	open func() (keyring.Keyring, error)
}

// NewTokenStore returns a store backed by the system keyring.
func NewTokenStore() *TokenStore {
	return &TokenStore{open: openSystemKeyring}
}

func openSystemKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: "ghnotify",
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/ghnotify/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("ghnotify-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Token returns the stored token. A missing entry yields ErrNoToken.
func (s *TokenStore) Token() (string, error) {
	ring, err := s.open()
	if err != nil {
		return "", err
	}
	item, err := ring.Get(TokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("reading token from keyring: %w", err)
	}
	tok := strings.TrimSpace(string(item.Data))
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// SaveToken stores tok, replacing any previous token.
func (s *TokenStore) SaveToken(tok string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}
	err = ring.Set(keyring.Item{
		Key:         TokenKey,
		Data:        []byte(tok),
		Label:       "ghnotify GitHub token",
		Description: "personal access token with the notifications scope",
	})
	if err != nil {
		return fmt.Errorf("saving token to keyring: %w", err)
	}
	return nil
}

// ForgetToken removes the stored token. Removing a token that is not there
// is not an error.
func (s *TokenStore) ForgetToken() error {
	ring, err := s.open()
	if err != nil {
		return err
	}
	if err := ring.Remove(TokenKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("removing token from keyring: %w", err)
	}
	return nil
}
