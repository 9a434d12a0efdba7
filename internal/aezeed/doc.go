// Package aezeed enciphers wallet seeds into a versioned 33-byte record
// that is carried as 24 mnemonic words.
//
// Layout:
//
//	[0]      seed version, selects the scrypt parameters
//	[1:24]   AEZ ciphertext of internalVersion || birthday || entropy,
//	         with a 4 byte tag, associated data version || salt
//	[24:29]  salt
//	[29:33]  CRC-32C of bytes 0..28, big endian
//
// Decipher rejects unknown versions and bad checksums before deriving a
// key. A failed AEZ open is reported as ErrInvalidPass.
package aezeed
