package kdf

import (
	"context"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// Native derives with golang.org/x/crypto/scrypt. Output is byte-identical
// to the reference engine; it neither yields nor reports progress.
type Native struct{}

// Derive implements Deriver
func (Native) Derive(ctx context.Context, password, salt []byte, params Params) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	dk, err := scrypt.Key(password, salt, params.N, params.R, params.P, params.KeyLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	return dk, nil
}

// NewDeriver returns the backend named by backend ("reference" or "native")
func NewDeriver(backend string, opts ...Option) (Deriver, error) {
	switch backend {
	case "", "reference":
		return NewEngine(opts...), nil
	case "native":
		return Native{}, nil
	default:
		return nil, fmt.Errorf("unknown kdf backend %q", backend)
	}
}
