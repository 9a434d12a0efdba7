package bip38

import "errors"

var (
	ErrInvalidFormat      = errors.New("invalid encrypted key format")
	ErrChecksumMismatch   = errors.New("checksum mismatch: wrong passphrase or corrupted data")
	ErrInvalidKey         = errors.New("invalid private key")
	ErrInvalidLotSequence = errors.New("lot or sequence number out of range")
)
