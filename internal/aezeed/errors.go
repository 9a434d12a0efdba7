package aezeed

import "errors"

var (
	ErrInvalidFormat       = errors.New("invalid enciphered seed format")
	ErrUnsupportedVersion  = errors.New("unsupported cipher seed version")
	ErrChecksumMismatch    = errors.New("cipher seed checksum mismatch")
	ErrInvalidPass         = errors.New("invalid password")
	ErrUnknownMnemonicWord = errors.New("unknown mnemonic word")
)
