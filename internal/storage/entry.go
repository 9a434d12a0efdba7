package storage

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Kind identifies the encrypted format of an entry payload
type Kind string

const (
	KindKey  Kind = "bip38"  // base58check encrypted private key
	KindSeed Kind = "aezeed" // space separated enciphered seed mnemonic
)

const maxNameLen = 64

// Entry is a stored secret. Payload is always the encrypted text form;
// nothing in an entry needs a passphrase to read.
type Entry struct {
	Name     string    `json:"name"`
	Kind     Kind      `json:"kind"`
	Payload  string    `json:"payload"`
	Address  string    `json:"address,omitempty"` // keys only, filled once known
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// NewEntry creates an entry stamped with the current time
func NewEntry(name string, kind Kind, payload string) *Entry {
	now := time.Now()
	return &Entry{
		Name:     name,
		Kind:     kind,
		Payload:  payload,
		Created:  now,
		Modified: now,
	}
}

// Touch replaces the payload and bumps the modification time
func (e *Entry) Touch(payload string) {
	e.Payload = payload
	e.Modified = time.Now()
}

// ValidateName checks that name is usable as an entry key
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("entry name is empty")
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("entry name longer than %d bytes", maxNameLen)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("entry name has leading or trailing spaces")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("entry name contains control characters")
		}
	}
	return nil
}
