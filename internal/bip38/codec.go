package bip38

import (
	"context"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/illarion/seedvault/internal/crypto"
	"github.com/illarion/seedvault/internal/kdf"
	"golang.org/x/text/unicode/norm"
)

var (
	// DefaultParams stretch the passphrase for plain keys and the owner
	// pass of ec-multiply keys
	DefaultParams = kdf.Params{N: 16384, R: 8, P: 8, KeyLen: 64}

	// pointParams key the ec-multiply halves from the pass point
	pointParams = kdf.Params{N: 1024, R: 1, P: 1, KeyLen: 64}
)

// Codec encrypts and decrypts private keys under a passphrase
type Codec struct {
	deriver kdf.Deriver
	params  kdf.Params
}

// Option configures a Codec
type Option func(*Codec)

// WithDeriver selects the key derivation backend
func WithDeriver(d kdf.Deriver) Option {
	return func(c *Codec) {
		c.deriver = d
	}
}

// WithParams overrides the passphrase stretching cost. Keys encrypted with
// non-default parameters only decrypt with the same parameters.
func WithParams(p kdf.Params) Option {
	return func(c *Codec) {
		c.params = p
	}
}

// New creates a Codec
func New(opts ...Option) *Codec {
	c := &Codec{
		deriver: kdf.NewEngine(),
		params:  DefaultParams,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DecryptedKey is a recovered private key
type DecryptedKey struct {
	Key         [32]byte
	Compressed  bool
	Address     string
	LotSequence *LotSequence // ec-multiply keys with lot/sequence only
}

// WIF encodes the key in wallet import format
func (d *DecryptedKey) WIF() string {
	return EncodeWIF(d.Key, d.Compressed)
}

// Destroy clears the key material
func (d *DecryptedKey) Destroy() {
	crypto.ClearBytes(d.Key[:])
}

// normalizePass returns an NFC-normalized copy of pass
func normalizePass(pass []byte) []byte {
	return norm.NFC.Append(nil, pass...)
}

func (c *Codec) derive(ctx context.Context, password, salt []byte, params kdf.Params) ([]byte, error) {
	dk, err := c.deriver.Derive(ctx, password, salt, params)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return dk, nil
}

// Encrypt encrypts a 32-byte private key and returns the base58check text
func (c *Codec) Encrypt(ctx context.Context, key []byte, compressed bool, pass []byte) (string, error) {
	scalar, err := scalarFromBytes(key)
	if err != nil {
		return "", err
	}
	address := Address(serializePub(secp256k1.NewPrivateKey(scalar).PubKey(), compressed))
	salt := addressHash(address)

	pass = normalizePass(pass)
	defer crypto.ClearBytes(pass)

	dk, err := c.derive(ctx, pass, salt[:], c.keyParams(64))
	if err != nil {
		return "", err
	}
	defer crypto.ClearBytes(dk)

	var masked [32]byte
	defer crypto.ClearBytes(masked[:])
	crypto.XORBytes(masked[:], key, dk[:32])

	ct, err := crypto.EncryptECB(dk[32:64], masked[:])
	if err != nil {
		return "", err
	}

	var p payload
	p[0] = prefixByte
	p[1] = typePlain
	p[2] = flagPlain
	if compressed {
		p[2] = flagPlainCompressed
	}
	copy(p[3:7], salt[:])
	copy(p[7:], ct)
	return p.String(), nil
}

// Decrypt recovers the private key from either encrypted form. A wrong
// passphrase and corrupted data both surface as ErrChecksumMismatch.
func (c *Codec) Decrypt(ctx context.Context, encoded string, pass []byte) (*DecryptedKey, error) {
	p, err := parsePayload(encoded)
	if err != nil {
		return nil, err
	}

	pass = normalizePass(pass)
	defer crypto.ClearBytes(pass)

	if p.kind() == KindECMultiply {
		return c.decryptECMultiply(ctx, p, pass)
	}
	return c.decryptPlain(ctx, p, pass)
}

func (c *Codec) decryptPlain(ctx context.Context, p *payload, pass []byte) (*DecryptedKey, error) {
	dk, err := c.derive(ctx, pass, p.salt(), c.keyParams(64))
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(dk)

	masked, err := crypto.DecryptECB(dk[32:64], p[7:])
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(masked)

	out := &DecryptedKey{Compressed: p.compressed()}
	crypto.XORBytes(out.Key[:], masked, dk[:32])

	address, err := KeyAddress(out.Key[:], out.Compressed)
	if err != nil {
		out.Destroy()
		return nil, ErrChecksumMismatch
	}
	if salt := addressHash(address); !crypto.ConstantTimeCompare(salt[:], p.salt()) {
		out.Destroy()
		return nil, ErrChecksumMismatch
	}
	out.Address = address
	return out, nil
}

// keyParams returns the configured stretching cost with the given output size
func (c *Codec) keyParams(keyLen int) kdf.Params {
	p := c.params
	p.KeyLen = keyLen
	return p
}

var defaultCodec = New()

// Encrypt encrypts key with the default codec
func Encrypt(ctx context.Context, key []byte, compressed bool, pass []byte) (string, error) {
	return defaultCodec.Encrypt(ctx, key, compressed, pass)
}

// Decrypt decrypts encoded with the default codec
func Decrypt(ctx context.Context, encoded string, pass []byte) (*DecryptedKey, error) {
	return defaultCodec.Decrypt(ctx, encoded, pass)
}
