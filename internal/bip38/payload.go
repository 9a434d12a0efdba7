package bip38

import (
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

const (
	PayloadSize = 39

	prefixByte     = 0x01
	typePlain      = 0x42
	typeECMultiply = 0x43

	flagPlain           = 0xc0
	flagCompressed      = 0x20
	flagLotSequence     = 0x04
	flagPlainCompressed = flagPlain | flagCompressed
)

// Kind tells the two encrypted key forms apart
type Kind uint8

const (
	KindPlain      Kind = typePlain
	KindECMultiply Kind = typeECMultiply
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindECMultiply:
		return "ec-multiply"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(k))
	}
}

// payload is the raw 39-byte encrypted key
//
//	[0]     0x01
//	[1]     0x42 plain, 0x43 ec-multiply
//	[2]     flags
//	[3:7]   address hash (salt)
//	[7:39]  plain: ciphertext
//	        ec-multiply: owner entropy [7:15], encrypted part 1 [15:23],
//	        encrypted part 2 [23:39]
type payload [PayloadSize]byte

func (p *payload) kind() Kind       { return Kind(p[1]) }
func (p *payload) flag() byte       { return p[2] }
func (p *payload) salt() []byte     { return p[3:7] }
func (p *payload) compressed() bool { return p[2]&flagCompressed != 0 }
func (p *payload) lotSequence() bool {
	return p.kind() == KindECMultiply && p[2]&flagLotSequence != 0
}

func (p *payload) String() string {
	return base58.CheckEncode(p[1:], p[0])
}

// parsePayload decodes the base58check text and validates the layout.
// It is the only gate in front of the KDF.
func parsePayload(encoded string) (*payload, error) {
	data, version, err := base58.CheckDecode(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if version != prefixByte {
		return nil, fmt.Errorf("%w: unexpected prefix 0x%02x", ErrInvalidFormat, version)
	}
	if len(data) != PayloadSize-1 {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidFormat, PayloadSize, len(data)+1)
	}

	var p payload
	p[0] = version
	copy(p[1:], data)

	if err := checkFlags(p.kind(), p.flag()); err != nil {
		return nil, err
	}
	return &p, nil
}

func checkFlags(kind Kind, flag byte) error {
	switch kind {
	case KindPlain:
		if flag != flagPlain && flag != flagPlainCompressed {
			return fmt.Errorf("%w: flag 0x%02x not allowed for plain keys", ErrInvalidFormat, flag)
		}
	case KindECMultiply:
		if flag&^(flagCompressed|flagLotSequence) != 0 {
			return fmt.Errorf("%w: flag 0x%02x not allowed for ec-multiply keys", ErrInvalidFormat, flag)
		}
	default:
		return fmt.Errorf("%w: unknown type 0x%02x", ErrInvalidFormat, uint8(kind))
	}
	return nil
}

// Verify reports whether encoded is a structurally valid encrypted key.
// It checks the text checksum, length, prefix, type and flags only and
// never runs the key derivation.
func Verify(encoded string) bool {
	_, err := parsePayload(encoded)
	return err == nil
}

// Inspect returns the kind and compression flag of a structurally valid key
func Inspect(encoded string) (Kind, bool, error) {
	p, err := parsePayload(encoded)
	if err != nil {
		return 0, false, err
	}
	return p.kind(), p.compressed(), nil
}
