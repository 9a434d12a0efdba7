package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/illarion/seedvault/internal/aezeed"
	"github.com/illarion/seedvault/internal/bip38"
	"github.com/illarion/seedvault/internal/core"
)

// Verify checks the structure of a stored entry or a raw payload without a
// passphrase. Arguments that name no entry are treated as payload text.
func Verify(args []string) {
	requireArgs(args, 1, "seedvault verify <name | 6P... | 24 words>")

	text := strings.Join(args, " ")
	if len(args) == 1 {
		v := openVault()
		err := v.Check(args[0])
		switch {
		case err == nil:
			fmt.Printf("✓ %s is well formed\n", args[0])
			return
		case errors.Is(err, core.ErrEntryNotFound), errors.Is(err, core.ErrNotInitialized):
			// not an entry, fall through to payload checks
		default:
			HandleError(err)
		}
	}

	if strings.Count(text, " ") == 0 {
		kind, compressed, err := bip38.Inspect(text)
		if err != nil {
			HandleError(err)
		}
		fmt.Printf("✓ encrypted key (%s, compressed=%t)\n", kind, compressed)
		return
	}

	m, err := aezeed.ParseMnemonic(text)
	if err != nil {
		HandleError(err)
	}
	if err := m.Check(); err != nil {
		HandleError(err)
	}
	fmt.Println("✓ enciphered seed mnemonic")
}
