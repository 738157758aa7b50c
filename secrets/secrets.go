// Package secrets holds the remote daemon password outside the
// configuration file. Secrets are stored as generic passwords keyed by
// service "magnetrelay:<server-url>" and account = username, so different
// servers keep independent credentials.
package secrets

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

// Store is the interface for secret storage operations.
type Store interface {
	// GetPassword returns the stored secret, or "" with no error when none
	// exists (some daemons run without credentials).
	GetPassword(server, username string) (string, error)
	SetPassword(server, username, secret string) error
	DeletePassword(server, username string) error
}

// Keyring stores secrets in the OS keychain.
type Keyring struct{}

func service(server string) string { return "magnetrelay:" + server }

func (Keyring) GetPassword(server, username string) (string, error) {
	secret, err := keyring.Get(service(server), username)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("keychain lookup: %w", err)
	}
	return secret, nil
}

func (Keyring) SetPassword(server, username, secret string) error {
	if err := keyring.Set(service(server), username, secret); err != nil {
		return fmt.Errorf("keychain store: %w", err)
	}
	return nil
}

func (Keyring) DeletePassword(server, username string) error {
	err := keyring.Delete(service(server), username)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("keychain delete: %w", err)
	}
	return nil
}

// Static is an in-memory store used by tests and by inline-password mode.
type Static struct {
	mu      sync.Mutex
	entries map[string]string
}

func NewStatic() *Static {
	return &Static{entries: make(map[string]string)}
}

func (s *Static) key(server, username string) string {
	return service(server) + "\x00" + username
}

func (s *Static) GetPassword(server, username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[s.key(server, username)], nil
}

func (s *Static) SetPassword(server, username, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[s.key(server, username)] = secret
	return nil
}

func (s *Static) DeletePassword(server, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, s.key(server, username))
	return nil
}
