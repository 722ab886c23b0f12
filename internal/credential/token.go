package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
)

// Token environment variables, checked in order.
var tokenEnv = []string{"GHNOTIFY_GITHUB_TOKEN", "GITHUB_TOKEN"}

// ErrNoToken is returned when no GitHub token could be found anywhere.
var ErrNoToken = errors.New("no GitHub token configured")

// TokenSource names where a token was found.
type TokenSource string

const (
	FromEnv     TokenSource = "env"
	FromKeyring TokenSource = "keyring"
	FromFile    TokenSource = "file"
)

// Resolver looks a token up from the environment, the keyring and the
// legacy token file, in that order.
type Resolver struct {
	Getenv    func(string) string
	Keyring   func() (string, error)
	LegacyDir func() (string, error)
}

// DefaultResolver uses the process environment, the token store and the
// home directory.
func DefaultResolver(store *TokenStore) Resolver {
	return Resolver{
		Getenv:    os.Getenv,
		Keyring:   store.Token,
		LegacyDir: os.UserHomeDir,
	}
}

// LegacyTokenFile is the file the token was historically kept in.
const LegacyTokenFile = ".githubapi"

// Resolve returns the first non-empty token and where it came from.
func (r Resolver) Resolve() (string, TokenSource, error) {
	if r.Getenv != nil {
		for _, name := range tokenEnv {
			if tok := strings.TrimSpace(r.Getenv(name)); tok != "" {
				return tok, FromEnv, nil
			}
		}
	}

	if r.Keyring != nil {
		if tok, err := r.Keyring(); err == nil && strings.TrimSpace(tok) != "" {
			return strings.TrimSpace(tok), FromKeyring, nil
		}
	}

	if r.LegacyDir != nil {
		dir, err := r.LegacyDir()
		if err == nil {
			data, err := os.ReadFile(filepath.Join(dir, LegacyTokenFile))
			if err == nil && strings.TrimSpace(string(data)) != "" {
				return strings.TrimSpace(string(data)), FromFile, nil
			}
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return "", "", fmt.Errorf("reading %s: %w", LegacyTokenFile, err)
			}
		}
	}

	return "", "", ErrNoToken
}

// Prompt asks for a token interactively and saves it to store.
func Prompt(store *TokenStore) (string, error) {
	var token string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("GitHub token").
				Description("A personal access token with the notifications scope.").
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("token is required")
					}
					return nil
				}).
				Value(&token),
		),
	)

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompting for token: %w", err)
	}

	token = strings.TrimSpace(token)
	if err := store.SaveToken(token); err != nil {
		return "", err
	}
	return token, nil
}
