package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/illarion/seedvault/internal/core"
	"github.com/illarion/seedvault/internal/git"
	"github.com/illarion/seedvault/internal/keyring"
)

// List prints all entries. No passphrase is required.
func List(ctx context.Context) {
	v := openVault()

	entries, err := v.List(ctx)
	if err != nil {
		HandleError(err)
	}

	if len(entries) == 0 {
		fmt.Println("(no entries)")
		return
	}

	vaultID, _ := v.GetVaultID()
	for _, e := range entries {
		cached := ""
		if vaultID != "" && keyring.HasPassword(vaultID, e.Name) {
			cached = " [keyring]"
		}
		fmt.Printf("  %-20s %-7s %s%s\n", e.Name, e.Kind, e.Modified.Format("2006-01-02 15:04"), cached)
		if e.Address != "" {
			fmt.Printf("  %-20s address %s\n", "", e.Address)
		}
	}
}

// Status shows the current state of the vault
func Status(ctx context.Context) {
	v := openVault()

	status, err := v.Status(ctx)
	if err != nil {
		if errors.Is(err, core.ErrNotInitialized) {
			fmt.Printf("No vault found at %s\n", v.Path())
			fmt.Println("Run 'seedvault init' to create one")
			return
		}
		HandleError(err)
	}

	fmt.Printf("Vault:    %s\n", status.Path)
	if info, err := os.Stat(status.Path); err == nil {
		fmt.Printf("Size:     %s\n", formatSize(info.Size()))
	}
	fmt.Printf("ID:       %s\n", status.VaultID)
	fmt.Printf("Created:  %s\n", status.Created.Format(time.RFC3339))
	fmt.Printf("Modified: %s\n", status.Modified.Format(time.RFC3339))
	fmt.Printf("Keys:     %d\n", status.Keys)
	fmt.Printf("Seeds:    %d\n", status.Seeds)
	fmt.Printf("KDF:      %s\n", settings.Backend)

	if len(status.Invalid) > 0 {
		fmt.Println("\nEntries failing structural checks:")
		for _, name := range status.Invalid {
			fmt.Printf("  ✗ %s\n", name)
		}
	}

	fmt.Print(git.FormatStatus(git.CheckVault(status.Path), filepath.Base(status.Path)))
}
