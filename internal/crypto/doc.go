// Package crypto provides the primitive layer shared by the secret codecs.
//
// Hashing:
//   - Hash256: double SHA-256, used for address salts and key factors
//   - Hash160: RIPEMD-160 of SHA-256, used for address payloads
//   - Checksum32C: CRC-32C trailer of the enciphered seed format
//
// Block cipher:
//   - AES-256 in ECB mode without padding (EncryptECB / DecryptECB)
//   - inputs must already be a multiple of 16 bytes
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
package crypto
