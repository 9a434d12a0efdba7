// Package git reports whether the vault file is exposed through git.
//
// Entries are encrypted, but a vault pushed to a shared repository lets
// anyone run offline passphrase guesses against it. Status warns when the
// vault file is tracked or not ignored. All checks shell out to git and
// treat a missing git binary as "not a repository".
package git
