// Package core provides the main seedvault operations.
//
// A Vault is a bbolt file of named entries. Every entry holds an already
// encrypted payload, so only operations that reveal or re-encrypt a
// secret need a passphrase:
//   - AddKey/GenerateKey/ImportKey: store private keys (base58 "6P..." form)
//   - AddSeed/ImportSeed: store enciphered seed mnemonics
//   - RevealKey/RevealSeed: decrypt a single entry
//   - ChangePassword: re-encrypt a single entry under a new passphrase
//   - List/Status/Check/Remove/Compact: passphrase-free maintenance
//
// Entries carry independent passphrases; there is no vault master key.
package core
