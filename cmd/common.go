package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/illarion/seedvault/internal/aezeed"
	"github.com/illarion/seedvault/internal/bip38"
	"github.com/illarion/seedvault/internal/config"
	"github.com/illarion/seedvault/internal/core"
	"github.com/illarion/seedvault/internal/crypto"
	"github.com/illarion/seedvault/internal/kdf"
	"github.com/illarion/seedvault/internal/keyring"
	"github.com/illarion/seedvault/internal/logging"
)

var settings *config.Config

// LoadConfig reads configuration and applies the log level. It must run
// before any other command function.
func LoadConfig(path string) {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if cfg.File != "" {
		logging.Debugf("using config %s", cfg.File)
	}
	settings = cfg
}

// deriver builds the configured KDF backend, reporting progress on stderr
// when it is a terminal
func deriver() kdf.Deriver {
	w := progressWriter()
	if w == nil {
		d, err := settings.Deriver(kdf.WithLogger(logging.L))
		if err != nil {
			HandleError(err)
		}
		return d
	}

	d, err := newProgressDeriver(w, func(progress chan<- kdf.Progress) (kdf.Deriver, error) {
		return settings.Deriver(kdf.WithLogger(logging.L), kdf.WithProgress(progress))
	})
	if err != nil {
		HandleError(err)
	}
	return d
}

// openVault returns the vault named by the configuration
func openVault() *core.Vault {
	return core.New(settings.VaultPath, core.WithDeriver(deriver()))
}

// keyCodec returns a standalone key codec for commands that work on raw
// payloads rather than vault entries
func keyCodec() *bip38.Codec {
	return bip38.New(bip38.WithDeriver(deriver()))
}

// GetPassword retrieves password from environment or prompts user
// The caller is responsible for calling crypto.ClearBytes on the returned password
func GetPassword(prompt string) ([]byte, error) {
	// Try environment variable first
	password := core.GetPasswordFromEnv()
	if password != nil {
		return password, nil
	}

	// Prompt user
	password, err := core.ReadPassword(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	return password, nil
}

// GetPasswordOrExit is like GetPassword but exits on error
func GetPasswordOrExit(prompt string) []byte {
	password, err := GetPassword(prompt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return password
}

// GetNewPassword retrieves a new passphrase from the environment or
// prompts twice for it
func GetNewPassword(prompt string) ([]byte, error) {
	password := core.GetPasswordFromEnv()
	if password != nil {
		return password, nil
	}
	return core.ReadPasswordConfirm(prompt)
}

// GetNewPasswordOrExit is like GetNewPassword but exits on error
func GetNewPasswordOrExit(prompt string) []byte {
	password, err := GetNewPassword(prompt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return password
}

// WithEntryPassword runs op with the passphrase of an entry. The keyring is
// tried first; a stale cached passphrase is dropped and the user prompted.
func WithEntryPassword(v *core.Vault, name string, op func(password []byte) error) {
	vaultID, _ := v.GetVaultID()

	if vaultID != "" && core.GetPasswordFromEnv() == nil {
		if cached, err := keyring.GetPassword(vaultID, name); err == nil {
			password := []byte(cached)
			err := op(password)
			crypto.ClearBytes(password)
			if err == nil {
				return
			}
			if !errors.Is(err, core.ErrWrongPassword) {
				HandleError(err)
			}
			fmt.Fprintln(os.Stderr, "Keyring passphrase is stale, removing it")
			if err := keyring.DeletePassword(vaultID, name); err != nil {
				logging.Warnf("failed to remove stale keyring entry: %v", err)
			}
		}
	}

	password := GetPasswordOrExit(fmt.Sprintf("Enter passphrase for %s: ", name))
	defer crypto.ClearBytes(password)
	if err := op(password); err != nil {
		HandleError(err)
	}
}

// requireArgs exits with usage when fewer than n arguments were given
func requireArgs(args []string, n int, usage string) {
	if len(args) < n {
		fmt.Fprintf(os.Stderr, "Error: missing arguments\n")
		fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		os.Exit(1)
	}
}

// HandleError handles common errors consistently
func HandleError(err error) {
	switch {
	case errors.Is(err, core.ErrNotInitialized):
		fmt.Fprintf(os.Stderr, "Error: seedvault not initialized\n")
		fmt.Fprintf(os.Stderr, "Run 'seedvault init' first\n")
	case errors.Is(err, core.ErrAlreadyExists):
		fmt.Fprintf(os.Stderr, "Error: %s already exists\n", settings.VaultPath)
		fmt.Fprintf(os.Stderr, "Use 'seedvault status' to see current state\n")
	case errors.Is(err, core.ErrWrongPassword):
		fmt.Fprintf(os.Stderr, "Error: wrong passphrase\n")
	case errors.Is(err, core.ErrEntryNotFound), errors.Is(err, core.ErrEntryExists), errors.Is(err, core.ErrWrongKind):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use 'seedvault ls' to see stored entries\n")
	case errors.Is(err, kdf.ErrCancelled), errors.Is(err, context.Canceled):
		fmt.Fprintf(os.Stderr, "\nError: interrupted\n")
	case errors.Is(err, bip38.ErrInvalidFormat), errors.Is(err, core.ErrInvalidPayload):
		fmt.Fprintf(os.Stderr, "Error: not a valid encrypted key\n")
	case errors.Is(err, bip38.ErrChecksumMismatch):
		fmt.Fprintf(os.Stderr, "Error: wrong passphrase or corrupted key\n")
	case errors.Is(err, aezeed.ErrUnknownMnemonicWord), errors.Is(err, aezeed.ErrChecksumMismatch),
		errors.Is(err, aezeed.ErrUnsupportedVersion), errors.Is(err, aezeed.ErrInvalidFormat):
		fmt.Fprintf(os.Stderr, "Error: invalid seed mnemonic: %s\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}

func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
