// Package permission tracks whether the user allowed desktop notifications.
package permission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/keyring"
)

// Permission is the user's answer to the notification prompt.
type Permission string

const (
	Granted Permission = "granted"
	Denied  Permission = "denied"
	// Default means the user has not been asked yet.
	Default Permission = "default"
)

// Parse converts user input into a Permission.
func Parse(s string) (Permission, error) {
	switch p := Permission(strings.ToLower(strings.TrimSpace(s))); p {
	case Granted, Denied, Default:
		return p, nil
	}
	return "", fmt.Errorf("unknown notification permission %q (want granted, denied or default)", s)
}

// Provider reports the current permission.
type Provider interface {
	Permission(ctx context.Context) (Permission, error)
}

// Static is a fixed permission.
type Static Permission

// Permission returns s.
func (s Static) Permission(context.Context) (Permission, error) {
	return Permission(s), nil
}

const (
	serviceName = "taskdown"
	itemKey     = "notification-permission"
)

// KeyringStore persists the permission in the OS keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

// OpenKeyring opens the system keyring, falling back to an encrypted file
// store under fileDir.
func OpenKeyring(fileDir string) (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("taskdown-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewKeyringStore(ring), nil
}

// NewKeyringStore wraps an already opened keyring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// Permission returns the stored permission, or Default when none is stored.
func (k *KeyringStore) Permission(context.Context) (Permission, error) {
	item, err := k.ring.Get(itemKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return Default, nil
	}
	if err != nil {
		return Default, fmt.Errorf("reading notification permission: %w", err)
	}
	p, err := Parse(string(item.Data))
	if err != nil {
		return Default, err
	}
	return p, nil
}

// Set stores p.
func (k *KeyringStore) Set(p Permission) error {
	if _, err := Parse(string(p)); err != nil {
		return err
	}
	err := k.ring.Set(keyring.Item{
		Key:   itemKey,
		Data:  []byte(p),
		Label: "Taskdown notification permission",
	})
	if err != nil {
		return fmt.Errorf("storing notification permission: %w", err)
	}
	return nil
}

// Reset forgets the stored answer.
func (k *KeyringStore) Reset() error {
	err := k.ring.Remove(itemKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("clearing notification permission: %w", err)
	}
	return nil
}
