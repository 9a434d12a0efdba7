package core

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/illarion/seedvault/internal/aezeed"
	"github.com/illarion/seedvault/internal/bip38"
	"github.com/illarion/seedvault/internal/kdf"
	"github.com/illarion/seedvault/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestVault returns an initialized vault with cheap derivation costs
func newTestVault(t *testing.T) *Vault {
	t.Helper()

	keys := bip38.New(bip38.WithParams(kdf.Params{N: 16, R: 1, P: 1, KeyLen: 64}))
	seeds := aezeed.NewCodec(aezeed.WithVersions(aezeed.VersionTable{
		aezeed.Version0: {N: 16, R: 1, P: 1, KeyLen: 32},
	}))

	v := New(filepath.Join(t.TempDir(), VaultFile), WithKeyCodec(keys), WithSeedCodec(seeds))
	if err := v.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return v
}

// countingDeriver records how often the KDF runs
type countingDeriver struct {
	calls atomic.Int32
}

func (d *countingDeriver) Derive(ctx context.Context, password, salt []byte, params kdf.Params) ([]byte, error) {
	d.calls.Add(1)
	return kdf.Native{}.Derive(ctx, password, salt, params)
}

// newCountingVault is newTestVault with every derivation counted
func newCountingVault(t *testing.T) (*Vault, *countingDeriver) {
	t.Helper()

	counter := &countingDeriver{}
	keys := bip38.New(
		bip38.WithParams(kdf.Params{N: 16, R: 1, P: 1, KeyLen: 64}),
		bip38.WithDeriver(counter),
	)
	seeds := aezeed.NewCodec(
		aezeed.WithVersions(aezeed.VersionTable{
			aezeed.Version0: {N: 16, R: 1, P: 1, KeyLen: 32},
		}),
		aezeed.WithDeriver(counter),
	)

	v := New(filepath.Join(t.TempDir(), VaultFile), WithKeyCodec(keys), WithSeedCodec(seeds))
	if err := v.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return v, counter
}

func testKey() []byte {
	key := make([]byte, 32)
	key[31] = 1
	return key
}

func TestInit(t *testing.T) {
	v := newTestVault(t)

	if err := v.Init(); err != ErrAlreadyExists {
		t.Errorf("Expected ErrAlreadyExists, got %v", err)
	}

	id, err := v.GetVaultID()
	if err != nil {
		t.Fatalf("GetVaultID failed: %v", err)
	}
	again, err := v.GetOrCreateVaultID()
	if err != nil {
		t.Fatalf("GetOrCreateVaultID failed: %v", err)
	}
	if id != again {
		t.Errorf("Vault id changed: %s != %s", id, again)
	}
}

func TestNotInitialized(t *testing.T) {
	v := New(filepath.Join(t.TempDir(), VaultFile))

	if _, err := v.List(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
	if err := v.Remove("x"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}

func TestKeyLifecycle(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	pass := []byte("correct horse")

	entry, err := v.AddKey(ctx, "cold", testKey(), false, pass)
	require.NoError(t, err)
	assert.Equal(t, storage.KindKey, entry.Kind)
	assert.Equal(t, "1EHNa6Q4Jz2uvNExL497mE43ikXhwF6kZm", entry.Address)
	assert.True(t, strings.HasPrefix(entry.Payload, "6P"))

	_, err = v.AddKey(ctx, "cold", testKey(), false, pass)
	assert.ErrorIs(t, err, ErrEntryExists)

	key, err := v.RevealKey(ctx, "cold", pass)
	require.NoError(t, err)
	assert.Equal(t, testKey(), key.Key[:])
	assert.False(t, key.Compressed)
	key.Destroy()

	_, err = v.RevealKey(ctx, "cold", []byte("wrong"))
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = v.RevealSeed(ctx, "cold", pass)
	assert.ErrorIs(t, err, ErrWrongKind)

	assert.NoError(t, v.VerifyPassword(ctx, "cold", pass))
	assert.ErrorIs(t, v.VerifyPassword(ctx, "cold", []byte("wrong")), ErrWrongPassword)

	require.NoError(t, v.ChangePassword(ctx, "cold", pass, []byte("new pass")))
	_, err = v.RevealKey(ctx, "cold", pass)
	assert.ErrorIs(t, err, ErrWrongPassword)

	key, err = v.RevealKey(ctx, "cold", []byte("new pass"))
	require.NoError(t, err)
	assert.Equal(t, testKey(), key.Key[:])
	key.Destroy()

	require.NoError(t, v.Remove("cold"))
	_, err = v.RevealKey(ctx, "cold", pass)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestGenerateKey(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	entry, err := v.GenerateKey(ctx, "hot", true, []byte("pw"))
	require.NoError(t, err)

	key, err := v.RevealKey(ctx, "hot", []byte("pw"))
	require.NoError(t, err)
	defer key.Destroy()
	assert.True(t, key.Compressed)
	assert.Equal(t, entry.Address, key.Address)
}

func TestImportKey(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	encoded, err := v.Keys().Encrypt(ctx, testKey(), true, []byte("pw"))
	require.NoError(t, err)

	entry, err := v.ImportKey("imported", encoded)
	require.NoError(t, err)
	assert.Empty(t, entry.Address)

	_, err = v.ImportKey("junk", "6Pnotakey")
	assert.ErrorIs(t, err, ErrInvalidPayload)

	key, err := v.RevealKey(ctx, "imported", []byte("pw"))
	require.NoError(t, err)
	key.Destroy()

	// address is recorded after the first reveal
	list, err := v.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", list[0].Address)
}

func TestSeedLifecycle(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	pass := []byte("seed pass")

	mnemonic, err := v.AddSeed(ctx, "wallet", pass)
	require.NoError(t, err)
	require.NoError(t, v.Check("wallet"))

	stored, err := v.Mnemonic("wallet")
	require.NoError(t, err)
	assert.Equal(t, mnemonic, stored)

	seed, err := v.RevealSeed(ctx, "wallet", pass)
	require.NoError(t, err)
	entropy := seed.Entropy
	seed.Destroy()

	_, err = v.RevealSeed(ctx, "wallet", []byte("nope"))
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.ErrorIs(t, v.VerifyPassword(ctx, "wallet", []byte("nope")), ErrWrongPassword)

	// the same mnemonic imported elsewhere deciphers to the same entropy
	_, err = v.ImportSeed("copy", mnemonic.String())
	require.NoError(t, err)
	seed, err = v.RevealSeed(ctx, "copy", pass)
	require.NoError(t, err)
	assert.Equal(t, entropy, seed.Entropy)
	seed.Destroy()

	require.NoError(t, v.ChangePassword(ctx, "copy", pass, nil))
	seed, err = v.RevealSeed(ctx, "copy", []byte(aezeed.DefaultPassphrase))
	require.NoError(t, err)
	assert.Equal(t, entropy, seed.Entropy)
	seed.Destroy()

	err = v.ChangePassword(ctx, "wallet", []byte("nope"), pass)
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestImportSeedRejectsGarbage(t *testing.T) {
	v := newTestVault(t)

	_, err := v.ImportSeed("bad", "abandon abandon")
	assert.ErrorIs(t, err, aezeed.ErrInvalidFormat)

	_, err = v.ImportSeed("bad", strings.Repeat("notaword ", 24))
	assert.ErrorIs(t, err, aezeed.ErrUnknownMnemonicWord)
}

func TestStatusAndCompact(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	_, err := v.AddKey(ctx, "k", testKey(), true, []byte("a"))
	require.NoError(t, err)
	_, err = v.AddSeed(ctx, "s", []byte("b"))
	require.NoError(t, err)

	require.NoError(t, v.Compact())

	status, err := v.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Keys)
	assert.Equal(t, 1, status.Seeds)
	assert.Empty(t, status.Invalid)
	assert.NotEmpty(t, status.VaultID)
	assert.False(t, status.Modified.Before(status.Created))
}

func TestCancelledReveal(t *testing.T) {
	v := newTestVault(t)
	_, err := v.AddKey(context.Background(), "k", testKey(), false, []byte("a"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = v.RevealKey(ctx, "k", []byte("a"))
	assert.ErrorIs(t, err, kdf.ErrCancelled)
}

func TestDuplicateNameSkipsDerivation(t *testing.T) {
	ctx := context.Background()
	v, counter := newCountingVault(t)

	_, err := v.AddKey(ctx, "k", testKey(), false, []byte("a"))
	require.NoError(t, err)
	_, err = v.AddSeed(ctx, "s", []byte("b"))
	require.NoError(t, err)
	counter.calls.Store(0)

	_, err = v.AddKey(ctx, "k", testKey(), true, []byte("a"))
	assert.ErrorIs(t, err, ErrEntryExists)
	_, err = v.GenerateKey(ctx, "s", false, []byte("a"))
	assert.ErrorIs(t, err, ErrEntryExists)
	_, err = v.AddSeed(ctx, "s", []byte("b"))
	assert.ErrorIs(t, err, ErrEntryExists)
	_, err = v.AddSeed(ctx, "k", []byte("b"))
	assert.ErrorIs(t, err, ErrEntryExists)

	assert.EqualValues(t, 0, counter.calls.Load())
}

func TestChangePasswordDecryptsOnce(t *testing.T) {
	ctx := context.Background()
	v, counter := newCountingVault(t)
	oldPass := []byte("old")

	_, err := v.AddKey(ctx, "k", testKey(), true, oldPass)
	require.NoError(t, err)
	_, err = v.AddSeed(ctx, "s", oldPass)
	require.NoError(t, err)

	for _, name := range []string{"k", "s"} {
		t.Run(name, func(t *testing.T) {
			counter.calls.Store(0)

			asked := 0
			err := v.ChangePasswordFunc(ctx, name, oldPass, func() ([]byte, error) {
				asked++
				assert.EqualValues(t, 1, counter.calls.Load(), "decrypt must run before the prompt")
				return []byte("new"), nil
			})
			require.NoError(t, err)
			assert.Equal(t, 1, asked)
			assert.EqualValues(t, 2, counter.calls.Load(), "one decrypt and one encrypt")

			assert.NoError(t, v.VerifyPassword(ctx, name, []byte("new")))
		})
	}
}

func TestChangePasswordFuncWrongPassword(t *testing.T) {
	ctx := context.Background()
	v, _ := newCountingVault(t)

	_, err := v.AddKey(ctx, "k", testKey(), false, []byte("right"))
	require.NoError(t, err)
	_, err = v.AddSeed(ctx, "s", []byte("right"))
	require.NoError(t, err)

	for _, name := range []string{"k", "s"} {
		err := v.ChangePasswordFunc(ctx, name, []byte("wrong"), func() ([]byte, error) {
			t.Fatalf("new passphrase requested for %s after a failed decrypt", name)
			return nil, nil
		})
		assert.ErrorIs(t, err, ErrWrongPassword)
	}

	// a failing prompt leaves the entry untouched
	errPrompt := errors.New("passphrases do not match")
	err = v.ChangePasswordFunc(ctx, "k", []byte("right"), func() ([]byte, error) {
		return nil, errPrompt
	})
	assert.ErrorIs(t, err, errPrompt)
	assert.NoError(t, v.VerifyPassword(ctx, "k", []byte("right")))
}
