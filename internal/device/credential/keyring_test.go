package credential

import (
	"context"
	"slices"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertsphere/internal/notification/domain"
)

func TestTokenVault(t *testing.T) {
	vault := NewTokenVault(keyring.NewArrayKeyring(nil))

	_, err := vault.Get()
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, vault.Persist(context.Background(), domain.DeviceToken{Value: "tok-1", Owner: "anonymous"}))
	require.NoError(t, vault.Persist(context.Background(), domain.DeviceToken{Value: "tok-2", Owner: "anonymous"}))

	got, err := vault.Get()
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got)

	require.NoError(t, vault.Forget())
	require.NoError(t, vault.Forget())
	_, err = vault.Get()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestKeyringConfig_FileBackendNeedsPassword(t *testing.T) {
	cfg := keyringConfig(t.TempDir(), "")
	assert.False(t, slices.Contains(cfg.AllowedBackends, keyring.FileBackend))
	assert.Nil(t, cfg.FilePasswordFunc)

	cfg = keyringConfig(t.TempDir(), "s3cret")
	assert.True(t, slices.Contains(cfg.AllowedBackends, keyring.FileBackend))
	pass, err := cfg.FilePasswordFunc("")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pass)
}

func TestFileBackend_UsesConfiguredPassword(t *testing.T) {
	dir := t.TempDir()
	fileOnly := func(password string) keyring.Keyring {
		cfg := keyringConfig(dir, password)
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		ring, err := keyring.Open(cfg)
		require.NoError(t, err)
		return ring
	}

	vault := NewTokenVault(fileOnly("right-password"))
	require.NoError(t, vault.Persist(context.Background(), domain.DeviceToken{Value: "tok-1", Owner: "anonymous"}))

	got, err := NewTokenVault(fileOnly("right-password")).Get()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	_, err = NewTokenVault(fileOnly("wrong-password")).Get()
	assert.Error(t, err)
}
