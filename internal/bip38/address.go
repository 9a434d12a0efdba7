package bip38

import (
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/illarion/seedvault/internal/crypto"
)

const (
	addressVersion = 0x00
	wifVersion     = 0x80
)

// Address returns the version-prefixed base58check hash160 address of a
// serialized public key
func Address(pubKey []byte) string {
	h := crypto.Hash160(pubKey)
	return base58.CheckEncode(h[:], addressVersion)
}

// addressHash is the 4-byte salt derived from an address string
func addressHash(address string) [4]byte {
	sum := crypto.Hash256([]byte(address))
	var out [4]byte
	copy(out[:], sum[:4])
	return out
}

func serializePub(pub *secp256k1.PublicKey, compressed bool) []byte {
	if compressed {
		return pub.SerializeCompressed()
	}
	return pub.SerializeUncompressed()
}

// scalarFromBytes parses a 32-byte big-endian scalar in [1, n-1]
func scalarFromBytes(b []byte) (*secp256k1.ModNScalar, error) {
	if len(b) != 32 {
		return nil, ErrInvalidKey
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow || s.IsZero() {
		return nil, ErrInvalidKey
	}
	return &s, nil
}

// KeyAddress returns the address controlled by the 32-byte private key
func KeyAddress(key []byte, compressed bool) (string, error) {
	s, err := scalarFromBytes(key)
	if err != nil {
		return "", err
	}
	pub := secp256k1.NewPrivateKey(s).PubKey()
	return Address(serializePub(pub, compressed)), nil
}

// basePoint returns s*G in compressed form
func basePoint(s *secp256k1.ModNScalar) []byte {
	var p secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(s, &p)
	p.ToAffine()
	return secp256k1.NewPublicKey(&p.X, &p.Y).SerializeCompressed()
}

// multiplyPoint returns s*P for a serialized point P
func multiplyPoint(s *secp256k1.ModNScalar, point []byte) (*secp256k1.PublicKey, error) {
	pub, err := secp256k1.ParsePubKey(point)
	if err != nil {
		return nil, fmt.Errorf("invalid curve point: %w", err)
	}
	var in, out secp256k1.JacobianPoint
	pub.AsJacobian(&in)
	secp256k1.ScalarMultNonConst(s, &in, &out)
	out.ToAffine()
	return secp256k1.NewPublicKey(&out.X, &out.Y), nil
}

// EncodeWIF encodes a private key in wallet import format
func EncodeWIF(key [32]byte, compressed bool) string {
	payload := key[:]
	if compressed {
		payload = append(append([]byte{}, key[:]...), 0x01)
	}
	return base58.CheckEncode(payload, wifVersion)
}

// DecodeWIF parses a wallet import format private key
func DecodeWIF(wif string) ([32]byte, bool, error) {
	var key [32]byte
	payload, version, err := base58.CheckDecode(wif)
	if err != nil {
		return key, false, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if version != wifVersion {
		return key, false, fmt.Errorf("%w: unexpected version byte 0x%02x", ErrInvalidKey, version)
	}

	compressed := false
	switch {
	case len(payload) == 33 && payload[32] == 0x01:
		compressed = true
	case len(payload) == 32:
	default:
		return key, false, fmt.Errorf("%w: unexpected length %d", ErrInvalidKey, len(payload))
	}

	if _, err := scalarFromBytes(payload[:32]); err != nil {
		return key, false, err
	}
	copy(key[:], payload[:32])
	return key, compressed, nil
}
