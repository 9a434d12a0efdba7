package aezeed

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/Yawning/aez"
	"github.com/illarion/seedvault/internal/crypto"
	"github.com/illarion/seedvault/internal/kdf"
)

const (
	EntropySize    = 16
	SaltSize       = 5
	DecipheredSize = 19
	EncipheredSize = 33

	// tagSize is the AEZ ciphertext expansion
	tagSize      = 4
	checksumSize = 4
	adSize       = 1 + SaltSize

	checksumOffset = EncipheredSize - checksumSize
	saltOffset     = checksumOffset - SaltSize

	// DefaultPassphrase is used when the caller supplies none
	DefaultPassphrase = "aezeed"
)

// GenesisDate is the epoch of the birthday field
var GenesisDate = time.Unix(1231006505, 0)

// CipherSeed is the plaintext seed record
type CipherSeed struct {
	InternalVersion uint8
	Birthday        uint16 // days since GenesisDate
	Entropy         [EntropySize]byte
	Salt            [SaltSize]byte
}

// New creates a seed born at now. A nil entropy is filled from the secure
// random source; the salt is always random.
func New(internalVersion uint8, entropy *[EntropySize]byte, now time.Time) (*CipherSeed, error) {
	seed := &CipherSeed{
		InternalVersion: internalVersion,
		Birthday:        birthdayAt(now),
	}

	if entropy != nil {
		seed.Entropy = *entropy
	} else {
		b, err := crypto.GenerateRandom(EntropySize)
		if err != nil {
			return nil, err
		}
		copy(seed.Entropy[:], b)
		crypto.ClearBytes(b)
	}

	salt, err := crypto.GenerateRandom(SaltSize)
	if err != nil {
		return nil, err
	}
	copy(seed.Salt[:], salt)
	return seed, nil
}

// Random creates a seed with fresh entropy born today
func Random(internalVersion uint8) (*CipherSeed, error) {
	return New(internalVersion, nil, time.Now())
}

func birthdayAt(now time.Time) uint16 {
	if now.Before(GenesisDate) {
		return 0
	}
	days := now.Sub(GenesisDate) / (24 * time.Hour)
	if days > 0xffff {
		return 0xffff
	}
	return uint16(days)
}

// BirthDate is the day the seed was created
func (c *CipherSeed) BirthDate() time.Time {
	return GenesisDate.Add(time.Duration(c.Birthday) * 24 * time.Hour)
}

// Destroy clears the entropy
func (c *CipherSeed) Destroy() {
	crypto.ClearBytes(c.Entropy[:])
}

// plaintext is internalVersion || birthday (big endian) || entropy
func (c *CipherSeed) plaintext() [DecipheredSize]byte {
	var out [DecipheredSize]byte
	out[0] = c.InternalVersion
	binary.BigEndian.PutUint16(out[1:3], c.Birthday)
	copy(out[3:], c.Entropy[:])
	return out
}

func associatedData(version SeedVersion, salt []byte) [adSize]byte {
	var ad [adSize]byte
	ad[0] = byte(version)
	copy(ad[1:], salt)
	return ad
}

// Codec enciphers and deciphers seeds
type Codec struct {
	deriver  kdf.Deriver
	versions VersionTable
}

// Option configures a Codec
type Option func(*Codec)

// WithDeriver selects the key derivation backend
func WithDeriver(d kdf.Deriver) Option {
	return func(c *Codec) {
		c.deriver = d
	}
}

// WithVersions replaces the version parameter table
func WithVersions(t VersionTable) Option {
	return func(c *Codec) {
		c.versions = t
	}
}

// NewCodec creates a Codec with the default version table
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		deriver:  kdf.NewEngine(),
		versions: DefaultVersions(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Codec) key(ctx context.Context, pass []byte, salt []byte, version SeedVersion) ([]byte, error) {
	params, err := c.versions.lookup(version)
	if err != nil {
		return nil, err
	}
	if len(pass) == 0 {
		pass = []byte(DefaultPassphrase)
	}
	key, err := c.deriver.Derive(ctx, pass, salt, params)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// Encipher encrypts the seed under pass with the parameters of version
func (c *Codec) Encipher(ctx context.Context, seed *CipherSeed, pass []byte, version SeedVersion) ([EncipheredSize]byte, error) {
	var out [EncipheredSize]byte

	key, err := c.key(ctx, pass, seed.Salt[:], version)
	if err != nil {
		return out, err
	}
	defer crypto.ClearBytes(key)

	plain := seed.plaintext()
	defer crypto.ClearBytes(plain[:])

	ad := associatedData(version, seed.Salt[:])
	ct := aez.Encrypt(key, nil, [][]byte{ad[:]}, tagSize, plain[:], nil)

	out[0] = byte(version)
	copy(out[1:saltOffset], ct)
	copy(out[saltOffset:checksumOffset], seed.Salt[:])
	binary.BigEndian.PutUint32(out[checksumOffset:], crypto.Checksum32C(out[:checksumOffset]))
	return out, nil
}

// checkEnciphered validates version and checksum without deriving a key
func (c *Codec) checkEnciphered(enc *[EncipheredSize]byte) (SeedVersion, error) {
	version := SeedVersion(enc[0])
	if _, err := c.versions.lookup(version); err != nil {
		return 0, err
	}
	want := binary.BigEndian.Uint32(enc[checksumOffset:])
	if crypto.Checksum32C(enc[:checksumOffset]) != want {
		return 0, ErrChecksumMismatch
	}
	return version, nil
}

// Decipher decrypts an enciphered seed. Version and checksum are checked
// before the key derivation runs.
func (c *Codec) Decipher(ctx context.Context, enc [EncipheredSize]byte, pass []byte) (*CipherSeed, SeedVersion, error) {
	version, err := c.checkEnciphered(&enc)
	if err != nil {
		return nil, 0, err
	}

	salt := enc[saltOffset:checksumOffset]
	key, err := c.key(ctx, pass, salt, version)
	if err != nil {
		return nil, 0, err
	}
	defer crypto.ClearBytes(key)

	ad := associatedData(version, salt)
	plain, ok := aez.Decrypt(key, nil, [][]byte{ad[:]}, tagSize, enc[1:saltOffset], nil)
	if !ok {
		return nil, 0, ErrInvalidPass
	}
	defer crypto.ClearBytes(plain)
	if len(plain) != DecipheredSize {
		return nil, 0, fmt.Errorf("%w: plaintext is %d bytes", ErrInvalidFormat, len(plain))
	}

	seed := &CipherSeed{
		InternalVersion: plain[0],
		Birthday:        binary.BigEndian.Uint16(plain[1:3]),
	}
	copy(seed.Entropy[:], plain[3:])
	copy(seed.Salt[:], salt)
	return seed, version, nil
}

// ToMnemonic enciphers the seed with the current version and encodes it
func (c *Codec) ToMnemonic(ctx context.Context, seed *CipherSeed, pass []byte) (Mnemonic, error) {
	enc, err := c.Encipher(ctx, seed, pass, CurrentVersion)
	if err != nil {
		return Mnemonic{}, err
	}
	return encodeMnemonic(enc), nil
}

// FromMnemonic decodes and deciphers a mnemonic
func (c *Codec) FromMnemonic(ctx context.Context, m Mnemonic, pass []byte) (*CipherSeed, error) {
	enc, err := m.Bytes()
	if err != nil {
		return nil, err
	}
	seed, _, err := c.Decipher(ctx, enc, pass)
	return seed, err
}

// ChangePassword re-enciphers a mnemonic under a new passphrase. Salt,
// entropy, internal version, birthday and seed version are preserved.
func (c *Codec) ChangePassword(ctx context.Context, m Mnemonic, oldPass, newPass []byte) (Mnemonic, error) {
	enc, err := m.Bytes()
	if err != nil {
		return Mnemonic{}, err
	}
	seed, version, err := c.Decipher(ctx, enc, oldPass)
	if err != nil {
		return Mnemonic{}, err
	}
	defer seed.Destroy()

	out, err := c.Encipher(ctx, seed, newPass, version)
	if err != nil {
		return Mnemonic{}, err
	}
	return encodeMnemonic(out), nil
}

// Check validates words, version and checksum of a mnemonic without a
// passphrase
func (c *Codec) Check(m Mnemonic) error {
	enc, err := m.Bytes()
	if err != nil {
		return err
	}
	_, err = c.checkEnciphered(&enc)
	return err
}

var defaultCodec = NewCodec()

// Encipher encrypts the seed with the default codec
func (c *CipherSeed) Encipher(ctx context.Context, pass []byte, version SeedVersion) ([EncipheredSize]byte, error) {
	return defaultCodec.Encipher(ctx, c, pass, version)
}

// ToMnemonic enciphers and encodes the seed with the default codec
func (c *CipherSeed) ToMnemonic(ctx context.Context, pass []byte) (Mnemonic, error) {
	return defaultCodec.ToMnemonic(ctx, c, pass)
}

// Decipher decrypts an enciphered seed with the default codec
func Decipher(ctx context.Context, enc [EncipheredSize]byte, pass []byte) (*CipherSeed, SeedVersion, error) {
	return defaultCodec.Decipher(ctx, enc, pass)
}

// ToCipherSeed deciphers the mnemonic with the default codec
func (m Mnemonic) ToCipherSeed(ctx context.Context, pass []byte) (*CipherSeed, error) {
	return defaultCodec.FromMnemonic(ctx, m, pass)
}

// ChangePass re-enciphers the mnemonic with the default codec
func (m Mnemonic) ChangePass(ctx context.Context, oldPass, newPass []byte) (Mnemonic, error) {
	return defaultCodec.ChangePassword(ctx, m, oldPass, newPass)
}

// Check validates the mnemonic against the default version table
func (m Mnemonic) Check() error {
	return defaultCodec.Check(m)
}
