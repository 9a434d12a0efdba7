package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/illarion/seedvault/internal/aezeed"
	"github.com/illarion/seedvault/internal/core"
	"github.com/illarion/seedvault/internal/crypto"
)

func printMnemonic(m aezeed.Mnemonic) {
	for i, w := range m {
		fmt.Printf("%2d. %-10s", i+1, w)
		if (i+1)%4 == 0 {
			fmt.Println()
		}
	}
}

// SeedNew creates a new enciphered seed and prints its mnemonic
func SeedNew(ctx context.Context, name string) {
	v := openVault()

	fmt.Fprintf(os.Stderr, "An empty passphrase uses the default %q\n", aezeed.DefaultPassphrase)
	password := GetNewPasswordOrExit(fmt.Sprintf("New passphrase for %s: ", name))
	defer crypto.ClearBytes(password)

	mnemonic, err := v.AddSeed(ctx, name, password)
	if err != nil {
		HandleError(err)
	}

	fmt.Fprintln(os.Stderr, "Write down these words. They and the passphrase restore the seed:")
	printMnemonic(mnemonic)
}

// SeedImport stores an existing mnemonic. Words are read from stdin when
// not given as arguments.
func SeedImport(name string, words []string) {
	v := openVault()

	text := strings.Join(words, " ")
	if text == "" {
		secret, err := core.ReadPassword("Enter 24 mnemonic words: ")
		if err != nil {
			HandleError(err)
		}
		text = string(secret)
		crypto.ClearBytes(secret)
	}

	if _, err := v.ImportSeed(name, text); err != nil {
		HandleError(err)
	}
	fmt.Printf("imported %s\n", name)
}

// SeedShow deciphers a seed and prints its entropy and birthday
func SeedShow(ctx context.Context, name string, words bool) {
	v := openVault()

	WithEntryPassword(v, name, func(password []byte) error {
		seed, err := v.RevealSeed(ctx, name, password)
		if err != nil {
			return err
		}
		defer seed.Destroy()

		fmt.Printf("internal version: %d\n", seed.InternalVersion)
		fmt.Printf("birthday: %s\n", seed.BirthDate().UTC().Format("2006-01-02"))
		fmt.Fprintln(os.Stderr, "entropy:")
		fmt.Println(hex.EncodeToString(seed.Entropy[:]))

		if words {
			m, err := v.Mnemonic(name)
			if err != nil {
				return err
			}
			printMnemonic(m)
		}
		return nil
	})
}
