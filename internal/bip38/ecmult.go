package bip38

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/illarion/seedvault/internal/crypto"
)

const (
	MaxLot      = 1<<20 - 1
	MaxSequence = 1<<12 - 1

	intermediateSize = 49
	confirmationSize = 51
	seedBSize        = 24
)

var (
	intermediateMagic = [8]byte{0x2c, 0xe9, 0xb3, 0xe1, 0xff, 0x39, 0xe2, 0x51}
	confirmationMagic = [5]byte{0x64, 0x3b, 0xf6, 0xa8, 0x9a}
)

const intermediateLotSequence = 0x53

// LotSequence identifies a batch of keys generated from one intermediate code
type LotSequence struct {
	Lot      uint32
	Sequence uint32
}

func (ls LotSequence) validate() error {
	if ls.Lot > MaxLot || ls.Sequence > MaxSequence {
		return fmt.Errorf("%w: lot %d, sequence %d", ErrInvalidLotSequence, ls.Lot, ls.Sequence)
	}
	return nil
}

func (ls LotSequence) encode() [4]byte {
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], ls.Lot*4096+ls.Sequence)
	return out
}

func decodeLotSequence(b []byte) *LotSequence {
	v := binary.BigEndian.Uint32(b)
	return &LotSequence{Lot: v / 4096, Sequence: v % 4096}
}

// Intermediate is the passphrase code handed from the key owner to a
// factory that generates encrypted keys without learning the passphrase
type Intermediate struct {
	OwnerEntropy [8]byte
	PassPoint    [33]byte
	LotSequence  *LotSequence
}

// OwnerSalt is the salt of the passphrase pass
func (im *Intermediate) OwnerSalt() []byte {
	return ownerSalt(im.OwnerEntropy[:], im.LotSequence != nil)
}

// String encodes the intermediate code ("passphrase...")
func (im *Intermediate) String() string {
	var raw [intermediateSize]byte
	copy(raw[:8], intermediateMagic[:])
	if im.LotSequence != nil {
		raw[7] = intermediateLotSequence
	}
	copy(raw[8:16], im.OwnerEntropy[:])
	copy(raw[16:], im.PassPoint[:])
	return base58.CheckEncode(raw[1:], raw[0])
}

// ParseIntermediate decodes and validates an intermediate code
func ParseIntermediate(code string) (*Intermediate, error) {
	data, version, err := base58.CheckDecode(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if version != intermediateMagic[0] || len(data) != intermediateSize-1 {
		return nil, fmt.Errorf("%w: not an intermediate code", ErrInvalidFormat)
	}
	if !bytes.Equal(data[:6], intermediateMagic[1:7]) {
		return nil, fmt.Errorf("%w: bad intermediate magic", ErrInvalidFormat)
	}

	im := &Intermediate{}
	copy(im.OwnerEntropy[:], data[7:15])
	copy(im.PassPoint[:], data[15:])

	switch data[6] {
	case intermediateMagic[7]:
	case intermediateLotSequence:
		im.LotSequence = decodeLotSequence(im.OwnerEntropy[4:])
	default:
		return nil, fmt.Errorf("%w: bad intermediate magic", ErrInvalidFormat)
	}

	if _, err := secp256k1.ParsePubKey(im.PassPoint[:]); err != nil {
		return nil, fmt.Errorf("%w: invalid pass point", ErrInvalidFormat)
	}
	return im, nil
}

// ownerSalt is the KDF salt of the first pass: the whole owner entropy,
// or its first four bytes when lot/sequence is in use
func ownerSalt(ownerEntropy []byte, lotSequence bool) []byte {
	if lotSequence {
		return ownerEntropy[:4]
	}
	return ownerEntropy
}

// passFactor runs the expensive passphrase pass shared by the owner and
// decryption sides
func (c *Codec) passFactor(ctx context.Context, pass, ownerEntropy []byte, lotSequence bool) (*secp256k1.ModNScalar, error) {
	prefactor, err := c.derive(ctx, pass, ownerSalt(ownerEntropy, lotSequence), c.keyParams(32))
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(prefactor)

	factor := prefactor
	if lotSequence {
		buf := make([]byte, 0, 40)
		buf = append(buf, prefactor...)
		buf = append(buf, ownerEntropy...)
		sum := crypto.Hash256(buf)
		crypto.ClearBytes(buf)
		factor = sum[:]
		defer crypto.ClearBytes(sum[:])
	}

	s, err := scalarFromBytes(factor)
	if err != nil {
		return nil, fmt.Errorf("%w: pass factor out of range", ErrInvalidKey)
	}
	return s, nil
}

// pointKeys derives the 64 bytes that mask and key the ec-multiply halves
func (c *Codec) pointKeys(ctx context.Context, passPoint, addrHash, ownerEntropy []byte) ([]byte, error) {
	salt := make([]byte, 0, 12)
	salt = append(salt, addrHash...)
	salt = append(salt, ownerEntropy...)
	return c.derive(ctx, passPoint, salt, pointParams)
}

// IntermediateFromSalt computes the intermediate code for a given owner
// salt: 8 bytes without lot/sequence, 4 bytes with it
func (c *Codec) IntermediateFromSalt(ctx context.Context, pass, salt []byte, ls *LotSequence) (*Intermediate, error) {
	im := &Intermediate{LotSequence: ls}
	if ls == nil {
		if len(salt) != 8 {
			return nil, fmt.Errorf("owner salt must be 8 bytes, got %d", len(salt))
		}
		copy(im.OwnerEntropy[:], salt)
	} else {
		if err := ls.validate(); err != nil {
			return nil, err
		}
		if len(salt) != 4 {
			return nil, fmt.Errorf("owner salt must be 4 bytes with lot/sequence, got %d", len(salt))
		}
		enc := ls.encode()
		copy(im.OwnerEntropy[:4], salt)
		copy(im.OwnerEntropy[4:], enc[:])
	}

	pass = normalizePass(pass)
	defer crypto.ClearBytes(pass)

	factor, err := c.passFactor(ctx, pass, im.OwnerEntropy[:], ls != nil)
	if err != nil {
		return nil, err
	}
	defer factor.Zero()

	copy(im.PassPoint[:], basePoint(factor))
	return im, nil
}

// NewIntermediate computes an intermediate code with a random owner salt
func (c *Codec) NewIntermediate(ctx context.Context, pass []byte, ls *LotSequence) (*Intermediate, error) {
	n := 8
	if ls != nil {
		n = 4
	}
	salt, err := crypto.GenerateRandom(n)
	if err != nil {
		return nil, err
	}
	return c.IntermediateFromSalt(ctx, pass, salt, ls)
}

// Generated is the factory output of ec-multiply key generation
type Generated struct {
	Encrypted    string
	Confirmation string
	Address      string
}

// GenerateWithSeed creates an encrypted key from an intermediate code and
// the factory's 24-byte seed. The passphrase is not needed.
func (c *Codec) GenerateWithSeed(ctx context.Context, code string, compressed bool, seedB []byte) (*Generated, error) {
	if len(seedB) != seedBSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", seedBSize, len(seedB))
	}
	im, err := ParseIntermediate(code)
	if err != nil {
		return nil, err
	}

	flag := byte(0)
	if compressed {
		flag |= flagCompressed
	}
	if im.LotSequence != nil {
		flag |= flagLotSequence
	}

	factorSum := crypto.Hash256(seedB)
	defer crypto.ClearBytes(factorSum[:])
	factorB, err := scalarFromBytes(factorSum[:])
	if err != nil {
		return nil, err
	}
	defer factorB.Zero()

	pub, err := multiplyPoint(factorB, im.PassPoint[:])
	if err != nil {
		return nil, err
	}
	address := Address(serializePub(pub, compressed))
	addrHash := addressHash(address)

	dk, err := c.pointKeys(ctx, im.PassPoint[:], addrHash[:], im.OwnerEntropy[:])
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(dk)
	half1, half2 := dk[:32], dk[32:]

	var block [16]byte
	defer crypto.ClearBytes(block[:])

	crypto.XORBytes(block[:], seedB[:16], half1[:16])
	part1, err := crypto.EncryptECB(half2, block[:])
	if err != nil {
		return nil, err
	}

	copy(block[:8], part1[8:])
	copy(block[8:], seedB[16:])
	crypto.XORBytes(block[:], block[:], half1[16:32])
	part2, err := crypto.EncryptECB(half2, block[:])
	if err != nil {
		return nil, err
	}

	var p payload
	p[0] = prefixByte
	p[1] = typeECMultiply
	p[2] = flag
	copy(p[3:7], addrHash[:])
	copy(p[7:15], im.OwnerEntropy[:])
	copy(p[15:23], part1[:8])
	copy(p[23:39], part2)

	confirmation, err := confirmationCode(flag, addrHash, im.OwnerEntropy, basePoint(factorB), half1, half2)
	if err != nil {
		return nil, err
	}

	return &Generated{
		Encrypted:    p.String(),
		Confirmation: confirmation,
		Address:      address,
	}, nil
}

// GenerateFromIntermediate creates an encrypted key with a random seed
func (c *Codec) GenerateFromIntermediate(ctx context.Context, code string, compressed bool) (*Generated, error) {
	seedB, err := crypto.GenerateRandom(seedBSize)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(seedB)
	return c.GenerateWithSeed(ctx, code, compressed, seedB)
}

func (c *Codec) decryptECMultiply(ctx context.Context, p *payload, pass []byte) (*DecryptedKey, error) {
	ownerEntropy := p[7:15]
	lotSequence := p.lotSequence()

	factor, err := c.passFactor(ctx, pass, ownerEntropy, lotSequence)
	if err != nil {
		return nil, err
	}
	defer factor.Zero()

	dk, err := c.pointKeys(ctx, basePoint(factor), p.salt(), ownerEntropy)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(dk)
	half1, half2 := dk[:32], dk[32:]

	// part 2 decrypts to the tail of part 1 followed by the tail of seedB
	dec2, err := crypto.DecryptECB(half2, p[23:39])
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(dec2)
	crypto.XORBytes(dec2, dec2, half1[16:32])

	var part1 [16]byte
	copy(part1[:8], p[15:23])
	copy(part1[8:], dec2[:8])
	dec1, err := crypto.DecryptECB(half2, part1[:])
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(dec1)
	crypto.XORBytes(dec1, dec1, half1[:16])

	var seedB [seedBSize]byte
	defer crypto.ClearBytes(seedB[:])
	copy(seedB[:16], dec1)
	copy(seedB[16:], dec2[8:])

	factorSum := crypto.Hash256(seedB[:])
	defer crypto.ClearBytes(factorSum[:])
	factorB, err := scalarFromBytes(factorSum[:])
	if err != nil {
		return nil, ErrChecksumMismatch
	}
	defer factorB.Zero()

	// d = passFactor * factorB mod n
	var d secp256k1.ModNScalar
	d.Mul2(factor, factorB)
	if d.IsZero() {
		return nil, ErrChecksumMismatch
	}

	out := &DecryptedKey{Key: d.Bytes(), Compressed: p.compressed()}
	d.Zero()

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
	if lotSequence {
		out.LotSequence = decodeLotSequence(ownerEntropy[4:])
	}
	return out, nil
}

// confirmationCode encrypts pointB = factorB*G so the owner can check the
// generated address with the passphrase alone
func confirmationCode(flag byte, addrHash [4]byte, ownerEntropy [8]byte, pointB, half1, half2 []byte) (string, error) {
	var block [16]byte
	crypto.XORBytes(block[:], pointB[1:17], half1[:16])
	x1, err := crypto.EncryptECB(half2, block[:])
	if err != nil {
		return "", err
	}
	crypto.XORBytes(block[:], pointB[17:33], half1[16:32])
	x2, err := crypto.EncryptECB(half2, block[:])
	if err != nil {
		return "", err
	}

	var raw [confirmationSize]byte
	copy(raw[:5], confirmationMagic[:])
	raw[5] = flag
	copy(raw[6:10], addrHash[:])
	copy(raw[10:18], ownerEntropy[:])
	raw[18] = pointB[0] ^ (half2[31] & 0x01)
	copy(raw[19:35], x1)
	copy(raw[35:51], x2)
	return base58.CheckEncode(raw[1:], raw[0]), nil
}

// VerifyConfirmation checks a confirmation code against the passphrase and
// returns the address the encrypted key controls
func (c *Codec) VerifyConfirmation(ctx context.Context, confirmation string, pass []byte) (string, error) {
	data, version, err := base58.CheckDecode(confirmation)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if version != confirmationMagic[0] || len(data) != confirmationSize-1 ||
		!bytes.Equal(data[:4], confirmationMagic[1:]) {
		return "", fmt.Errorf("%w: not a confirmation code", ErrInvalidFormat)
	}
	flag := data[4]
	if err := checkFlags(KindECMultiply, flag); err != nil {
		return "", err
	}
	addrHash := data[5:9]
	ownerEntropy := data[9:17]
	lotSequence := flag&flagLotSequence != 0

	pass = normalizePass(pass)
	defer crypto.ClearBytes(pass)

	factor, err := c.passFactor(ctx, pass, ownerEntropy, lotSequence)
	if err != nil {
		return "", err
	}
	defer factor.Zero()

	dk, err := c.pointKeys(ctx, basePoint(factor), addrHash, ownerEntropy)
	if err != nil {
		return "", err
	}
	defer crypto.ClearBytes(dk)
	half1, half2 := dk[:32], dk[32:]

	var pointB [33]byte
	pointB[0] = data[17] ^ (half2[31] & 0x01)
	x1, err := crypto.DecryptECB(half2, data[18:34])
	if err != nil {
		return "", err
	}
	x2, err := crypto.DecryptECB(half2, data[34:50])
	if err != nil {
		return "", err
	}
	crypto.XORBytes(pointB[1:17], x1, half1[:16])
	crypto.XORBytes(pointB[17:33], x2, half1[16:32])

	pub, err := multiplyPoint(factor, pointB[:])
	if err != nil {
		return "", ErrChecksumMismatch
	}
	address := Address(serializePub(pub, flag&flagCompressed != 0))
	if sum := addressHash(address); !crypto.ConstantTimeCompare(sum[:], addrHash) {
		return "", ErrChecksumMismatch
	}
	return address, nil
}

// NewIntermediate computes an intermediate code with the default codec
func NewIntermediate(ctx context.Context, pass []byte, ls *LotSequence) (*Intermediate, error) {
	return defaultCodec.NewIntermediate(ctx, pass, ls)
}

// GenerateFromIntermediate generates an encrypted key with the default codec
func GenerateFromIntermediate(ctx context.Context, code string, compressed bool) (*Generated, error) {
	return defaultCodec.GenerateFromIntermediate(ctx, code, compressed)
}

// VerifyConfirmation checks a confirmation code with the default codec
func VerifyConfirmation(ctx context.Context, confirmation string, pass []byte) (string, error) {
	return defaultCodec.VerifyConfirmation(ctx, confirmation, pass)
}
