// Package keyring caches entry passphrases in the OS keyring.
//
// Each entry has its own passphrase, so the keyring account is
// "<vault id>/<entry name>". The vault id is a random UUID stored in the
// vault database, which keeps two vaults with equal entry names apart.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "seedvault"

// ErrNotFound is returned when no passphrase is cached for an entry
var ErrNotFound = keyring.ErrNotFound

// Account returns the keyring account name for an entry
func Account(vaultID, entry string) string {
	return vaultID + "/" + entry
}

// SavePassword stores an entry passphrase in the OS keyring
func SavePassword(vaultID, entry, password string) error {
	if err := keyring.Set(serviceName, Account(vaultID, entry), password); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// GetPassword retrieves an entry passphrase from the OS keyring
func GetPassword(vaultID, entry string) (string, error) {
	return keyring.Get(serviceName, Account(vaultID, entry))
}

// DeletePassword removes an entry passphrase from the OS keyring.
// Deleting an absent passphrase is not an error.
func DeletePassword(vaultID, entry string) error {
	err := keyring.Delete(serviceName, Account(vaultID, entry))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// HasPassword checks if a passphrase is stored for the entry
func HasPassword(vaultID, entry string) bool {
	_, err := keyring.Get(serviceName, Account(vaultID, entry))
	return err == nil
}
