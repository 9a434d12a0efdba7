package crypto

import (
	"crypto/aes"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"hash/crc32"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // hash160 is fixed by the address format
)

const (
	KeySize   = 32 // AES-256 key size
	BlockSize = aes.BlockSize
)

var (
	ErrBlockSize = errors.New("input is not a multiple of the block size")
	ErrKeySize   = errors.New("invalid key size")
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Hash256 returns SHA256(SHA256(b))
func Hash256(b []byte) [32]byte {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

// Hash160 returns RIPEMD160(SHA256(b))
func Hash160(b []byte) [20]byte {
	sum := sha256.Sum256(b)
	h := ripemd160.New()
	h.Write(sum[:])

	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Checksum32C computes the CRC-32C (Castagnoli) checksum of b
func Checksum32C(b []byte) uint32 {
	return crc32.Checksum(b, castagnoli)
}

// EncryptECB encrypts src with AES-256 in ECB mode without padding
func EncryptECB(key, src []byte) ([]byte, error) {
	return ecb(key, src, true)
}

// DecryptECB decrypts src with AES-256 in ECB mode without padding
func DecryptECB(key, src []byte) ([]byte, error) {
	return ecb(key, src, false)
}

func ecb(key, src []byte, encrypt bool) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	if len(src)%BlockSize != 0 {
		return nil, ErrBlockSize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	dst := make([]byte, len(src))
	for i := 0; i < len(src); i += BlockSize {
		if encrypt {
			block.Encrypt(dst[i:i+BlockSize], src[i:i+BlockSize])
		} else {
			block.Decrypt(dst[i:i+BlockSize], src[i:i+BlockSize])
		}
	}
	return dst, nil
}

// XORBytes sets dst[i] = a[i] ^ b[i] for the length of the shortest input
// and returns the number of bytes written
func XORBytes(dst, a, b []byte) int {
	return subtle.XORBytes(dst, a, b)
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
