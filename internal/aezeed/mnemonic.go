package aezeed

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39/wordlists"
)

const (
	NumMnemonicWords = 24
	bitsPerWord      = 11
)

var wordIndex = func() map[string]uint16 {
	m := make(map[string]uint16, len(wordlists.English))
	for i, w := range wordlists.English {
		m[w] = uint16(i)
	}
	return m
}()

// Mnemonic is the 24-word form of an enciphered seed, 11 bits per word
type Mnemonic [NumMnemonicWords]string

func (m Mnemonic) String() string {
	return strings.Join(m[:], " ")
}

// ParseMnemonic splits a whitespace separated word list
func ParseMnemonic(s string) (Mnemonic, error) {
	var m Mnemonic
	words := strings.Fields(strings.ToLower(s))
	if len(words) != NumMnemonicWords {
		return m, fmt.Errorf("%w: expected %d words, got %d", ErrInvalidFormat, NumMnemonicWords, len(words))
	}
	copy(m[:], words)
	return m, nil
}

// Bytes decodes the words back into the enciphered seed
func (m Mnemonic) Bytes() ([EncipheredSize]byte, error) {
	var out [EncipheredSize]byte
	for i, w := range m {
		idx, ok := wordIndex[w]
		if !ok {
			return out, fmt.Errorf("%w: %q at position %d", ErrUnknownMnemonicWord, w, i+1)
		}
		for j := 0; j < bitsPerWord; j++ {
			if idx&(1<<(bitsPerWord-1-j)) != 0 {
				bit := i*bitsPerWord + j
				out[bit/8] |= 0x80 >> (bit % 8)
			}
		}
	}
	return out, nil
}

func encodeMnemonic(enc [EncipheredSize]byte) Mnemonic {
	var m Mnemonic
	for i := range m {
		var idx uint16
		for j := 0; j < bitsPerWord; j++ {
			bit := i*bitsPerWord + j
			idx = idx<<1 | uint16(enc[bit/8]>>(7-bit%8))&1
		}
		m[i] = wordlists.English[idx]
	}
	return m
}

// EncodeMnemonic converts an enciphered seed into its word form
func EncodeMnemonic(enc [EncipheredSize]byte) Mnemonic {
	return encodeMnemonic(enc)
}
