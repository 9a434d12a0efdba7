package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/illarion/seedvault/internal/aezeed"
	"github.com/illarion/seedvault/internal/bip38"
	"github.com/illarion/seedvault/internal/crypto"
	"github.com/illarion/seedvault/internal/kdf"
	"github.com/illarion/seedvault/internal/logging"
	"github.com/illarion/seedvault/internal/storage"
)

const (
	VaultFile = ".seedvault"

	// maxKeyAttempts bounds retries when random bytes fall outside the curve order
	maxKeyAttempts = 8
)

var (
	ErrNotInitialized = errors.New("seedvault not initialized")
	ErrAlreadyExists  = errors.New("seedvault already exists")
	ErrWrongPassword  = errors.New("wrong passphrase")
	ErrEntryExists    = errors.New("entry already exists")
	ErrEntryNotFound  = storage.ErrEntryNotFound
	ErrWrongKind      = errors.New("entry has a different kind")
	ErrInvalidPayload = errors.New("invalid encrypted payload")
)

// Vault stores encrypted keys and seeds in a single database file
type Vault struct {
	path  string
	keys  *bip38.Codec
	seeds *aezeed.Codec
}

// Option configures a Vault
type Option func(*Vault)

// WithDeriver routes every key derivation through d
func WithDeriver(d kdf.Deriver) Option {
	return func(v *Vault) {
		v.keys = bip38.New(bip38.WithDeriver(d))
		v.seeds = aezeed.NewCodec(aezeed.WithDeriver(d))
	}
}

// WithKeyCodec replaces the private key codec
func WithKeyCodec(c *bip38.Codec) Option {
	return func(v *Vault) {
		v.keys = c
	}
}

// WithSeedCodec replaces the seed codec
func WithSeedCodec(c *aezeed.Codec) Option {
	return func(v *Vault) {
		v.seeds = c
	}
}

// New creates a Vault backed by the database file at path
func New(path string, opts ...Option) *Vault {
	v := &Vault{
		path:  path,
		keys:  bip38.New(),
		seeds: aezeed.NewCodec(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Path returns the database file path
func (v *Vault) Path() string {
	return v.path
}

// Keys returns the private key codec used by the vault
func (v *Vault) Keys() *bip38.Codec {
	return v.keys
}

// Init creates an empty vault
func (v *Vault) Init() error {
	if _, err := os.Stat(v.path); err == nil {
		return ErrAlreadyExists
	}

	db, err := storage.Open(v.path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if _, err := db.GetOrCreateVaultID(); err != nil {
		return fmt.Errorf("failed to create vault id: %w", err)
	}

	logging.Infof("initialized vault at %s", v.path)
	return nil
}

func (v *Vault) openDB() (*storage.Storage, error) {
	if _, err := os.Stat(v.path); err != nil {
		return nil, ErrNotInitialized
	}

	db, err := storage.Open(v.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	initialized, err := db.IsInitialized()
	if err != nil || !initialized {
		db.Close()
		return nil, ErrNotInitialized
	}
	return db, nil
}

// insert stores a new entry, refusing to overwrite an existing name
func (v *Vault) insert(entry *storage.Entry) error {
	if err := storage.ValidateName(entry.Name); err != nil {
		return err
	}

	db, err := v.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	exists, err := db.HasEntry(entry.Name)
	if err != nil {
		return fmt.Errorf("failed to read entry: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrEntryExists, entry.Name)
	}

	if err := db.PutEntry(entry); err != nil {
		return fmt.Errorf("failed to store entry: %w", err)
	}
	return nil
}

// available fails with ErrEntryExists when name is taken. Checked before
// any key derivation.
func (v *Vault) available(name string) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}

	db, err := v.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	exists, err := db.HasEntry(name)
	if err != nil {
		return fmt.Errorf("failed to read entry: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrEntryExists, name)
	}
	return nil
}

func (v *Vault) entry(name string, kind storage.Kind) (*storage.Entry, error) {
	db, err := v.openDB()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	entry, err := db.GetEntry(name)
	if err != nil {
		if errors.Is(err, storage.ErrEntryNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
		}
		return nil, fmt.Errorf("failed to read entry: %w", err)
	}
	if kind != "" && entry.Kind != kind {
		return nil, fmt.Errorf("%w: %s is %s", ErrWrongKind, name, entry.Kind)
	}
	return entry, nil
}

func (v *Vault) update(entry *storage.Entry) error {
	db, err := v.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PutEntry(entry); err != nil {
		return fmt.Errorf("failed to store entry: %w", err)
	}
	return nil
}

// AddKey encrypts key under pass and stores it as name
func (v *Vault) AddKey(ctx context.Context, name string, key []byte, compressed bool, pass []byte) (*storage.Entry, error) {
	if err := v.available(name); err != nil {
		return nil, err
	}

	address, err := bip38.KeyAddress(key, compressed)
	if err != nil {
		return nil, err
	}

	logging.Debugf("encrypting key %s", name)
	encoded, err := v.keys.Encrypt(ctx, key, compressed, pass)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt key: %w", err)
	}

	entry := storage.NewEntry(name, storage.KindKey, encoded)
	entry.Address = address
	if err := v.insert(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// GenerateKey creates a random private key and stores it encrypted under pass
func (v *Vault) GenerateKey(ctx context.Context, name string, compressed bool, pass []byte) (*storage.Entry, error) {
	if err := v.available(name); err != nil {
		return nil, err
	}

	for i := 0; i < maxKeyAttempts; i++ {
		key, err := crypto.GenerateRandom(32)
		if err != nil {
			return nil, err
		}

		entry, err := v.AddKey(ctx, name, key, compressed, pass)
		crypto.ClearBytes(key)
		if errors.Is(err, bip38.ErrInvalidKey) {
			continue
		}
		return entry, err
	}
	return nil, fmt.Errorf("failed to generate key: %w", bip38.ErrInvalidKey)
}

// ImportKey stores an already encrypted key. Only the structure is checked;
// the passphrase is not needed.
func (v *Vault) ImportKey(name, encoded string) (*storage.Entry, error) {
	if !bip38.Verify(encoded) {
		return nil, ErrInvalidPayload
	}

	entry := storage.NewEntry(name, storage.KindKey, encoded)
	if err := v.insert(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// RevealKey decrypts a stored key. The caller must Destroy the result.
func (v *Vault) RevealKey(ctx context.Context, name string, pass []byte) (*bip38.DecryptedKey, error) {
	entry, err := v.entry(name, storage.KindKey)
	if err != nil {
		return nil, err
	}

	key, err := v.keys.Decrypt(ctx, entry.Payload, pass)
	if err != nil {
		if errors.Is(err, bip38.ErrChecksumMismatch) {
			return nil, ErrWrongPassword
		}
		return nil, err
	}

	// imported keys learn their address on first reveal
	if entry.Address == "" {
		entry.Address = key.Address
		if err := v.update(entry); err != nil {
			logging.Warnf("failed to record address of %s: %v", name, err)
		}
	}
	return key, nil
}

// AddSeed creates a new random seed, stores its mnemonic enciphered under
// pass and returns the mnemonic for the user to write down
func (v *Vault) AddSeed(ctx context.Context, name string, pass []byte) (aezeed.Mnemonic, error) {
	if err := v.available(name); err != nil {
		return aezeed.Mnemonic{}, err
	}

	seed, err := aezeed.Random(0)
	if err != nil {
		return aezeed.Mnemonic{}, err
	}
	defer seed.Destroy()

	logging.Debugf("enciphering seed %s", name)
	mnemonic, err := v.seeds.ToMnemonic(ctx, seed, pass)
	if err != nil {
		return aezeed.Mnemonic{}, fmt.Errorf("failed to encipher seed: %w", err)
	}

	if err := v.insert(storage.NewEntry(name, storage.KindSeed, mnemonic.String())); err != nil {
		return aezeed.Mnemonic{}, err
	}
	return mnemonic, nil
}

// ImportSeed stores an existing mnemonic after checking words, version and
// checksum
func (v *Vault) ImportSeed(name, words string) (aezeed.Mnemonic, error) {
	mnemonic, err := aezeed.ParseMnemonic(words)
	if err != nil {
		return aezeed.Mnemonic{}, err
	}
	if err := v.seeds.Check(mnemonic); err != nil {
		return aezeed.Mnemonic{}, err
	}

	if err := v.insert(storage.NewEntry(name, storage.KindSeed, mnemonic.String())); err != nil {
		return aezeed.Mnemonic{}, err
	}
	return mnemonic, nil
}

// RevealSeed deciphers a stored seed. The caller must Destroy the result.
func (v *Vault) RevealSeed(ctx context.Context, name string, pass []byte) (*aezeed.CipherSeed, error) {
	entry, err := v.entry(name, storage.KindSeed)
	if err != nil {
		return nil, err
	}

	mnemonic, err := aezeed.ParseMnemonic(entry.Payload)
	if err != nil {
		return nil, err
	}

	seed, err := v.seeds.FromMnemonic(ctx, mnemonic, pass)
	if err != nil {
		if errors.Is(err, aezeed.ErrInvalidPass) {
			return nil, ErrWrongPassword
		}
		return nil, err
	}
	return seed, nil
}

// Mnemonic returns the stored, still enciphered mnemonic of a seed entry
func (v *Vault) Mnemonic(name string) (aezeed.Mnemonic, error) {
	entry, err := v.entry(name, storage.KindSeed)
	if err != nil {
		return aezeed.Mnemonic{}, err
	}
	return aezeed.ParseMnemonic(entry.Payload)
}

// ChangePassword re-encrypts one entry under a new passphrase. Keys created
// by ec-multiply are stored as plain encrypted keys afterwards.
func (v *Vault) ChangePassword(ctx context.Context, name string, oldPass, newPass []byte) error {
	return v.ChangePasswordFunc(ctx, name, oldPass, func() ([]byte, error) {
		return newPass, nil
	})
}

// ChangePasswordFunc is ChangePassword with the new passphrase supplied by
// newPass, which is only called once oldPass has decrypted the entry. The
// secret is decrypted exactly once.
func (v *Vault) ChangePasswordFunc(ctx context.Context, name string, oldPass []byte, newPass func() ([]byte, error)) error {
	entry, err := v.entry(name, "")
	if err != nil {
		return err
	}

	switch entry.Kind {
	case storage.KindKey:
		key, err := v.RevealKey(ctx, name, oldPass)
		if err != nil {
			return err
		}
		defer key.Destroy()

		pass, err := newPass()
		if err != nil {
			return err
		}

		encoded, err := v.keys.Encrypt(ctx, key.Key[:], key.Compressed, pass)
		if err != nil {
			return fmt.Errorf("failed to encrypt key: %w", err)
		}
		entry.Address = key.Address
		entry.Touch(encoded)

	case storage.KindSeed:
		mnemonic, err := aezeed.ParseMnemonic(entry.Payload)
		if err != nil {
			return err
		}
		enc, err := mnemonic.Bytes()
		if err != nil {
			return err
		}

		seed, version, err := v.seeds.Decipher(ctx, enc, oldPass)
		if err != nil {
			if errors.Is(err, aezeed.ErrInvalidPass) {
				return ErrWrongPassword
			}
			return err
		}
		defer seed.Destroy()

		pass, err := newPass()
		if err != nil {
			return err
		}

		// salt, birthday and seed version carry over
		out, err := v.seeds.Encipher(ctx, seed, pass, version)
		if err != nil {
			return fmt.Errorf("failed to encipher seed: %w", err)
		}
		entry.Touch(aezeed.EncodeMnemonic(out).String())

	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPayload, entry.Kind)
	}

	return v.update(entry)
}

// VerifyPassword checks pass against an entry by decrypting it
func (v *Vault) VerifyPassword(ctx context.Context, name string, pass []byte) error {
	entry, err := v.entry(name, "")
	if err != nil {
		return err
	}

	switch entry.Kind {
	case storage.KindKey:
		key, err := v.RevealKey(ctx, name, pass)
		if err != nil {
			return err
		}
		key.Destroy()
	case storage.KindSeed:
		seed, err := v.RevealSeed(ctx, name, pass)
		if err != nil {
			return err
		}
		seed.Destroy()
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPayload, entry.Kind)
	}
	return nil
}

// Check validates the structure of a stored entry without a passphrase
func (v *Vault) Check(name string) error {
	entry, err := v.entry(name, "")
	if err != nil {
		return err
	}
	return CheckPayload(entry.Kind, entry.Payload)
}

// CheckPayload validates an encrypted payload of the given kind
func CheckPayload(kind storage.Kind, payload string) error {
	switch kind {
	case storage.KindKey:
		if !bip38.Verify(payload) {
			return ErrInvalidPayload
		}
		return nil
	case storage.KindSeed:
		mnemonic, err := aezeed.ParseMnemonic(payload)
		if err != nil {
			return err
		}
		return mnemonic.Check()
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPayload, kind)
	}
}

// Remove deletes an entry
func (v *Vault) Remove(name string) error {
	db, err := v.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteEntry(name); err != nil {
		if errors.Is(err, storage.ErrEntryNotFound) {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, name)
		}
		return err
	}
	return nil
}

// List returns all entries. No passphrase is needed.
func (v *Vault) List(ctx context.Context) ([]storage.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := v.openDB()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.ListEntries()
}

// StatusInfo summarizes a vault
type StatusInfo struct {
	Path     string
	VaultID  string
	Created  time.Time
	Modified time.Time
	Keys     int
	Seeds    int
	Invalid  []string // entries failing the structural check
}

// Status reports vault metadata and checks every entry's structure
func (v *Vault) Status(ctx context.Context) (*StatusInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := v.openDB()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	status := &StatusInfo{Path: v.path}

	// Not critical
	status.VaultID, _ = db.GetVaultID()
	status.Created, _ = db.GetCreated()
	status.Modified, _ = db.GetModified()

	entries, err := db.ListEntries()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch e.Kind {
		case storage.KindKey:
			status.Keys++
		case storage.KindSeed:
			status.Seeds++
		}
		if err := CheckPayload(e.Kind, e.Payload); err != nil {
			status.Invalid = append(status.Invalid, e.Name)
		}
	}
	return status, nil
}

// Compact rewrites the database, dropping free pages left by removed entries
func (v *Vault) Compact() error {
	db, err := v.openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Compact()
}

// GetVaultID returns the vault ID
func (v *Vault) GetVaultID() (string, error) {
	db, err := v.openDB()
	if err != nil {
		return "", err
	}
	defer db.Close()
	return db.GetVaultID()
}

// GetOrCreateVaultID returns the vault ID, creating one for vaults that lack it
func (v *Vault) GetOrCreateVaultID() (string, error) {
	db, err := v.openDB()
	if err != nil {
		return "", err
	}
	defer db.Close()
	return db.GetOrCreateVaultID()
}
