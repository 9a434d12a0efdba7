package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/seedvault/internal/bip38"
	"github.com/illarion/seedvault/internal/crypto"
)

// Intermediate prints a passphrase code for delegated key generation
func Intermediate(ctx context.Context, lot, sequence int) {
	var ls *bip38.LotSequence
	if lot >= 0 || sequence >= 0 {
		if lot < 0 || sequence < 0 {
			fmt.Fprintf(os.Stderr, "Error: --lot and --sequence must be given together\n")
			os.Exit(1)
		}
		ls = &bip38.LotSequence{Lot: uint32(lot), Sequence: uint32(sequence)}
	}

	password := GetNewPasswordOrExit("Owner passphrase: ")
	defer crypto.ClearBytes(password)

	im, err := keyCodec().NewIntermediate(ctx, password, ls)
	if err != nil {
		HandleError(err)
	}
	fmt.Println(im.String())
}

// ECGen creates an encrypted key from a passphrase code. The passphrase is
// never needed here.
func ECGen(ctx context.Context, code string, uncompressed bool, name string) {
	gen, err := keyCodec().GenerateFromIntermediate(ctx, code, !uncompressed)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("address:      %s\n", gen.Address)
	fmt.Printf("encrypted:    %s\n", gen.Encrypted)
	fmt.Printf("confirmation: %s\n", gen.Confirmation)

	if name != "" {
		entry, err := openVault().ImportKey(name, gen.Encrypted)
		if err != nil {
			HandleError(err)
		}
		fmt.Printf("stored as %s\n", entry.Name)
	}
}

// Confirm checks a confirmation code against the owner passphrase
func Confirm(ctx context.Context, confirmation string) {
	password := GetPasswordOrExit("Owner passphrase: ")
	defer crypto.ClearBytes(password)

	address, err := keyCodec().VerifyConfirmation(ctx, confirmation, password)
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("✓ confirmed, address %s\n", address)
}
