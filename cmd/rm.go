package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/seedvault/internal/keyring"
)

// Remove deletes entries from the vault
func Remove(names []string) {
	if len(names) == 0 {
		fmt.Fprintf(os.Stderr, "Error: rm requires at least one entry name\n")
		fmt.Fprintf(os.Stderr, "Usage: seedvault rm <name> [name...]\n")
		os.Exit(1)
	}

	v := openVault()
	vaultID, _ := v.GetVaultID()

	for _, name := range names {
		if err := v.Remove(name); err != nil {
			HandleError(err)
		}
		if vaultID != "" {
			if err := keyring.DeletePassword(vaultID, name); err != nil {
				fmt.Fprintf(os.Stderr, "warning: keyring cleanup failed for %s: %s\n", name, err)
			}
		}
		fmt.Printf("removed: %s\n", name)
	}

	// Compact database to reclaim space
	if err := v.Compact(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: compaction failed: %s\n", err)
	}
}
