// internal/config/keyring.go
package config

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "ezgrid"

// KeyringStore keeps profile secrets in the system keyring
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore opens the system keyring
func NewKeyringStore() (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &KeyringStore{ring: ring}, nil
}

// NewKeyringStoreFrom wraps an already opened keyring
func NewKeyringStoreFrom(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

func passwordKey(profile string) string    { return profile }
func sshPasswordKey(profile string) string { return profile + "/ssh" }

// SetPassword stores the database password of a profile
func (k *KeyringStore) SetPassword(profileName, password string) error {
	return k.set(passwordKey(profileName), password)
}

// GetPassword retrieves the database password of a profile
func (k *KeyringStore) GetPassword(profileName string) (string, error) {
	return k.get(passwordKey(profileName))
}

// SetSSHPassword stores the SSH password of a profile
func (k *KeyringStore) SetSSHPassword(profileName, password string) error {
	return k.set(sshPasswordKey(profileName), password)
}

// GetSSHPassword retrieves the SSH password of a profile
func (k *KeyringStore) GetSSHPassword(profileName string) (string, error) {
	return k.get(sshPasswordKey(profileName))
}

// DeletePassword removes every secret of a profile
func (k *KeyringStore) DeletePassword(profileName string) error {
	err := k.ring.Remove(passwordKey(profileName))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		err = nil
	}
	if sshErr := k.ring.Remove(sshPasswordKey(profileName)); sshErr != nil && !errors.Is(sshErr, keyring.ErrKeyNotFound) {
		return sshErr
	}
	return err
}

func (k *KeyringStore) set(key, value string) error {
	return k.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
}

func (k *KeyringStore) get(key string) (string, error) {
	item, err := k.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("secret not found: %s: %w", key, err)
	}
	return string(item.Data), nil
}
