package kdf

import (
	"errors"
	"fmt"
)

const maxInt31 = 1<<31 - 1

var (
	ErrInvalidParameters = errors.New("invalid kdf parameters")
	ErrCancelled         = errors.New("key derivation cancelled")
)

// Params are the cost parameters of a single derivation
type Params struct {
	N      int // CPU/memory cost, power of two
	R      int // block size factor
	P      int // parallelism factor
	KeyLen int // output length in bytes
}

// NewParams builds and validates a parameter set
func NewParams(n, r, p, keyLen int) (Params, error) {
	params := Params{N: n, R: r, P: p, KeyLen: keyLen}
	if err := params.Validate(); err != nil {
		return Params{}, err
	}
	return params, nil
}

// Validate checks the power-of-two and buffer size invariants
func (p Params) Validate() error {
	if p.N <= 1 || p.N&(p.N-1) != 0 {
		return fmt.Errorf("%w: N must be a power of two greater than 1, got %d", ErrInvalidParameters, p.N)
	}
	if p.R <= 0 || p.P <= 0 {
		return fmt.Errorf("%w: r and p must be positive (r=%d, p=%d)", ErrInvalidParameters, p.R, p.P)
	}
	if p.KeyLen <= 0 {
		return fmt.Errorf("%w: key length must be positive, got %d", ErrInvalidParameters, p.KeyLen)
	}
	if uint64(p.R)*uint64(p.P) >= 1<<30 {
		return fmt.Errorf("%w: r*p too large", ErrInvalidParameters)
	}
	if uint64(p.N)*uint64(p.R)*128 > maxInt31 {
		return fmt.Errorf("%w: N*r*128 exceeds addressable scratch size", ErrInvalidParameters)
	}
	if uint64(p.P)*uint64(p.R)*128 > maxInt31 {
		return fmt.Errorf("%w: p*r*128 exceeds addressable scratch size", ErrInvalidParameters)
	}
	return nil
}

// ScratchBytes is the size of the memory-hard scratch array
func (p Params) ScratchBytes() int {
	return 128 * p.R * p.N
}

func (p Params) String() string {
	return fmt.Sprintf("N=%d r=%d p=%d len=%d", p.N, p.R, p.P, p.KeyLen)
}
