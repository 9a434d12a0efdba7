// Package kdf implements the memory-hard key derivation used by the secret
// codecs: PBKDF2-HMAC-SHA256 expansion, a ROMix pass with a Salsa20/8
// block mix per parallel block, and a final PBKDF2 compression. The output
// is the standard scrypt function.
//
// Two scheduling variants share one implementation:
//   - Derive runs to completion on the calling goroutine
//   - DeriveContext yields every few thousand steps and stops with
//     ErrCancelled once its context is done
//
// Native wraps golang.org/x/crypto/scrypt behind the same Deriver
// interface for callers that do not need yielding or progress.
package kdf
