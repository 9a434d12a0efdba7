package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/seedvault/internal/crypto"
	"github.com/illarion/seedvault/internal/keyring"
)

// Passwd changes the passphrase of one entry
func Passwd(ctx context.Context, name string) {
	v := openVault()

	// Get vault ID for keyring lookup
	vaultID, _ := v.GetVaultID()

	// Current passphrase from keyring, env or prompt
	WithEntryPassword(v, name, func(currentPassword []byte) error {
		var newPassword []byte
		defer func() { crypto.ClearBytes(newPassword) }()

		// The new passphrase is asked for only after the current one
		// has decrypted the entry
		err := v.ChangePasswordFunc(ctx, name, currentPassword, func() ([]byte, error) {
			var err error
			newPassword, err = GetNewPassword(fmt.Sprintf("New passphrase for %s: ", name))
			return newPassword, err
		})
		if err != nil {
			return err
		}

		// Keep a cached passphrase in sync
		if vaultID != "" && keyring.HasPassword(vaultID, name) {
			if err := keyring.SavePassword(vaultID, name, string(newPassword)); err == nil {
				fmt.Println("Keyring updated with new passphrase")
			}
		}
		return nil
	})

	// Compact database so the old payload does not linger in free pages
	if err := v.Compact(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: compaction failed: %s\n", err)
	}

	fmt.Println("passphrase changed successfully")
}
