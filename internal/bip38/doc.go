// Package bip38 encrypts secp256k1 private keys under a passphrase.
//
// Two forms share one 39-byte layout, carried as base58check text that
// starts with "6P":
//   - plain (0x42): the key is masked with the first half of a scrypt
//     derivation salted by its own address hash, then AES-256 encrypted
//     with the second half
//   - ec-multiply (0x43): a factory combines an owner's intermediate code
//     with its own random seed, so the final key is
//     passFactor * factorB mod n and only the owner can decrypt it
//
// The only integrity check is the recomputed address hash. It rejects a
// wrong passphrase with overwhelming probability but is not a MAC over the
// ciphertext.
//
// Verify checks the structure of a payload without running the key
// derivation, so garbage can be rejected before paying for scrypt.
package bip38
