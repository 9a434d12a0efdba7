package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/seedvault/internal/core"
	"github.com/illarion/seedvault/internal/crypto"
	"github.com/illarion/seedvault/internal/keyring"
)

// KeyringSave saves an entry passphrase to the OS keyring
func KeyringSave(ctx context.Context, name string) {
	v := openVault()

	// Prompt for password
	password, err := core.ReadPassword(fmt.Sprintf("Enter passphrase for %s: ", name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer crypto.ClearBytes(password)

	// Verify password is correct
	if err := v.VerifyPassword(ctx, name, password); err != nil {
		HandleError(err)
	}

	// Get vault ID (create if not exists)
	vaultID, err := v.GetOrCreateVaultID()
	if err != nil {
		HandleError(err)
	}

	if err := keyring.SavePassword(vaultID, name, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	fmt.Println("Passphrase saved to keyring")
}

// KeyringDelete removes an entry passphrase from the OS keyring
func KeyringDelete(name string) {
	v := openVault()

	vaultID, err := v.GetVaultID()
	if err != nil {
		fmt.Println("No passphrase stored in keyring")
		return
	}

	if !keyring.HasPassword(vaultID, name) {
		fmt.Println("No passphrase stored in keyring")
		return
	}
	if err := keyring.DeletePassword(vaultID, name); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	fmt.Println("Passphrase removed from keyring")
}

// KeyringStatus checks if a passphrase is stored for an entry
func KeyringStatus(name string) {
	v := openVault()

	vaultID, err := v.GetVaultID()
	if err != nil {
		fmt.Println("Passphrase: not stored")
		return
	}

	if keyring.HasPassword(vaultID, name) {
		fmt.Println("Passphrase: stored in keyring")
	} else {
		fmt.Println("Passphrase: not stored")
	}
}
