package aezeed

import (
	"fmt"

	"github.com/illarion/seedvault/internal/kdf"
)

// SeedVersion selects the key derivation cost of an enciphered seed. It is
// the first byte of the enciphered form.
type SeedVersion uint8

const (
	Version0 SeedVersion = 0

	// CurrentVersion is used for newly enciphered seeds
	CurrentVersion = Version0
)

// KnownVersions lists every version with a parameter set
var KnownVersions = []SeedVersion{Version0}

// Params returns the key derivation parameters of v
func (v SeedVersion) Params() (kdf.Params, error) {
	switch v {
	case Version0:
		return kdf.Params{N: 32768, R: 8, P: 1, KeyLen: 32}, nil
	default:
		return kdf.Params{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, uint8(v))
	}
}

// VersionTable maps seed versions to derivation parameters
type VersionTable map[SeedVersion]kdf.Params

// DefaultVersions builds the table of all known versions
func DefaultVersions() VersionTable {
	table := make(VersionTable, len(KnownVersions))
	for _, v := range KnownVersions {
		params, err := v.Params()
		if err != nil {
			panic(err)
		}
		table[v] = params
	}
	return table
}

func (t VersionTable) lookup(v SeedVersion) (kdf.Params, error) {
	params, ok := t[v]
	if !ok {
		return kdf.Params{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, uint8(v))
	}
	return params, nil
}
