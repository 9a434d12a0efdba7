package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/illarion/seedvault/internal/bip38"
	"github.com/illarion/seedvault/internal/core"
	"github.com/illarion/seedvault/internal/crypto"
	"github.com/illarion/seedvault/internal/storage"
)

func printKeyEntry(e *storage.Entry) {
	fmt.Printf("%s\n", e.Payload)
	if e.Address != "" {
		fmt.Printf("address: %s\n", e.Address)
	}
}

// KeyAdd encrypts an existing WIF private key into the vault
func KeyAdd(ctx context.Context, name, wif string) {
	v := openVault()

	if wif == "" {
		secret, err := core.ReadPassword("Enter WIF private key: ")
		if err != nil {
			HandleError(err)
		}
		wif = strings.TrimSpace(string(secret))
		crypto.ClearBytes(secret)
	}

	key, compressed, err := bip38.DecodeWIF(wif)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(key[:])

	password := GetNewPasswordOrExit(fmt.Sprintf("New passphrase for %s: ", name))
	defer crypto.ClearBytes(password)

	entry, err := v.AddKey(ctx, name, key[:], compressed, password)
	if err != nil {
		HandleError(err)
	}
	printKeyEntry(entry)
}

// KeyGen generates a fresh private key inside the vault
func KeyGen(ctx context.Context, name string, uncompressed bool) {
	v := openVault()

	password := GetNewPasswordOrExit(fmt.Sprintf("New passphrase for %s: ", name))
	defer crypto.ClearBytes(password)

	entry, err := v.GenerateKey(ctx, name, !uncompressed, password)
	if err != nil {
		HandleError(err)
	}
	printKeyEntry(entry)
}

// KeyImport stores an already encrypted key without decrypting it
func KeyImport(name, encoded string) {
	v := openVault()

	entry, err := v.ImportKey(name, strings.TrimSpace(encoded))
	if err != nil {
		HandleError(err)
	}

	kind, compressed, _ := bip38.Inspect(entry.Payload)
	fmt.Printf("imported %s (%s, compressed=%t)\n", name, kind, compressed)
}

// KeyShow decrypts a key and prints it in WIF form
func KeyShow(ctx context.Context, name string) {
	v := openVault()

	WithEntryPassword(v, name, func(password []byte) error {
		key, err := v.RevealKey(ctx, name, password)
		if err != nil {
			return err
		}
		defer key.Destroy()

		fmt.Printf("address: %s\n", key.Address)
		if key.LotSequence != nil {
			fmt.Printf("lot: %d sequence: %d\n", key.LotSequence.Lot, key.LotSequence.Sequence)
		}
		fmt.Fprintln(os.Stderr, "private key (WIF):")
		fmt.Println(key.WIF())
		return nil
	})
}
