package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/99designs/keyring"

	"alertsphere/internal/notification/domain"
)

const (
	serviceName = "alertsphere"
	tokenKey    = "device-token"
)

// ErrNoToken is returned by Get when nothing has been stored yet.
var ErrNoToken = errors.New("no device token stored")

// TokenVault keeps the most recent device token in the OS keyring so other
// local tools can read it without talking to the server.
type TokenVault struct {
	ring keyring.Keyring
}

// Open returns a vault backed by the system keyring. The encrypted file
// backend under fileDir is only offered when filePassword is set.
func Open(fileDir, filePassword string) (*TokenVault, error) {
	ring, err := keyring.Open(keyringConfig(fileDir, filePassword))
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewTokenVault(ring), nil
}

func keyringConfig(fileDir, filePassword string) keyring.Config {
	cfg := keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
		},
		KeychainTrustApplication: true,
	}
	if filePassword != "" {
		cfg.AllowedBackends = append(cfg.AllowedBackends, keyring.FileBackend)
		cfg.FileDir = fileDir
		cfg.FilePasswordFunc = keyring.FixedStringPrompt(filePassword)
	}
	return cfg
}

func NewTokenVault(ring keyring.Keyring) *TokenVault {
	return &TokenVault{ring: ring}
}

// Name identifies the vault as a token sink.
func (v *TokenVault) Name() string { return "keyring" }

// Persist stores token, replacing any previous one.
func (v *TokenVault) Persist(ctx context.Context, token domain.DeviceToken) error {
	err := v.ring.Set(keyring.Item{
		Key:         tokenKey,
		Data:        []byte(token.Value),
		Label:       "AlertSphere device token",
		Description: token.Owner,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", tokenKey, err)
	}
	return nil
}

// Get returns the stored token value.
func (v *TokenVault) Get() (string, error) {
	item, err := v.ring.Get(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", tokenKey, err)
	}
	return string(item.Data), nil
}

// Forget removes the stored token; removing nothing is not an error.
func (v *TokenVault) Forget() error {
	err := v.ring.Remove(tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", tokenKey, err)
	}
	return nil
}
