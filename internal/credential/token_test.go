package credential

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestResolve_Order(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, LegacyTokenFile), []byte("from-file\n"), 0o600))

	keyring := func() (string, error) { return "from-keyring", nil }
	noKeyring := func() (string, error) { return "", ErrNoToken }
	dir := func() (string, error) { return home, nil }

	tests := []struct {
		name    string
		r       Resolver
		want    string
		wantSrc TokenSource
	}{
		{
			name:    "ghnotify env wins",
			r:       Resolver{Getenv: envOf(map[string]string{"GHNOTIFY_GITHUB_TOKEN": "a", "GITHUB_TOKEN": "b"}), Keyring: keyring, LegacyDir: dir},
			want:    "a",
			wantSrc: FromEnv,
		},
		{
			name:    "generic env",
			r:       Resolver{Getenv: envOf(map[string]string{"GITHUB_TOKEN": " b "}), Keyring: keyring, LegacyDir: dir},
			want:    "b",
			wantSrc: FromEnv,
		},
		{
			name:    "keyring before file",
			r:       Resolver{Getenv: envOf(nil), Keyring: keyring, LegacyDir: dir},
			want:    "from-keyring",
			wantSrc: FromKeyring,
		},
		{
			name:    "legacy file",
			r:       Resolver{Getenv: envOf(nil), Keyring: noKeyring, LegacyDir: dir},
			want:    "from-file",
			wantSrc: FromFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, src, err := tt.r.Resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantSrc, src)
		})
	}
}

func TestResolve_NoToken(t *testing.T) {
	r := Resolver{
		Getenv:    envOf(nil),
		Keyring:   func() (string, error) { return "", errors.New("keyring locked") },
		LegacyDir: func() (string, error) { return t.TempDir(), nil },
	}

	_, _, err := r.Resolve()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestTokenStore_SaveTokenForget(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)
	s := &TokenStore{open: func() (keyring.Keyring, error) { return ring, nil }}

	_, err := s.Token()
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.SaveToken("ghp_abc"))
	tok, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc", tok)

	item, err := ring.Get(TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "ghnotify GitHub token", item.Label)

	require.NoError(t, s.ForgetToken())
	_, err = s.Token()
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.ForgetToken(), "forgetting twice is fine")
}

func TestTokenStore_OpenFailure(t *testing.T) {
	s := &TokenStore{open: func() (keyring.Keyring, error) { return nil, errors.New("no backend") }}

	_, err := s.Token()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoToken)
	assert.Error(t, s.SaveToken("x"))
	assert.Error(t, s.ForgetToken())
}
