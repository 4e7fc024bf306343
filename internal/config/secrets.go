// internal/config/secrets.go
package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const masterKeyName = "__master_key__"

// MasterKey returns the key sealing passwords written to the config file,
// creating it in the keyring on first use
func (k *KeyringStore) MasterKey() ([]byte, error) {
	if keyHex, err := k.get(masterKeyName); err == nil {
		return hex.DecodeString(keyHex)
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	if err := k.set(masterKeyName, hex.EncodeToString(key)); err != nil {
		return nil, err
	}
	return key, nil
}

// Seal encrypts plainText with AES-GCM and returns it hex encoded
func Seal(plainText string, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	return hex.EncodeToString(gcm.Seal(nonce, nonce, []byte(plainText), nil)), nil
}

// Open reverses Seal
func Open(sealed string, key []byte) (string, error) {
	data, err := hex.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("sealed secret: %w", err)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", errors.New("sealed secret too short")
	}
	nonce, body := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// ResolveSecrets fills the in-memory passwords of every profile. The
// keyring entry of a profile wins; a sealed password from the config file
// is the fallback.
func (c *Config) ResolveSecrets(k *KeyringStore) {
	var key []byte
	for i := range c.Profiles {
		p := &c.Profiles[i]
		if pw, err := k.GetPassword(p.Name); err == nil {
			p.Password = pw
		} else if p.SealedPassword != "" {
			if key == nil {
				key, _ = k.MasterKey()
			}
			if pw, err := Open(p.SealedPassword, key); err == nil {
				p.Password = pw
			}
		}
		if pw, err := k.GetSSHPassword(p.Name); err == nil {
			p.SSHPassword = pw
		} else if p.SealedSSHPassword != "" {
			if key == nil {
				key, _ = k.MasterKey()
			}
			if pw, err := Open(p.SealedSSHPassword, key); err == nil {
				p.SSHPassword = pw
			}
		}
	}
}
