// Package storage provides the BBolt database interface for seedvault.
//
// Database structure uses two buckets:
//   - config: format version, timestamps and the vault id (keyring lookup)
//   - entries: one JSON record per secret, keyed by name
//
// Entry payloads are the encrypted text forms produced by the bip38 and
// aezeed codecs. The database never holds a passphrase or plaintext key,
// so listing and status work without a password.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
