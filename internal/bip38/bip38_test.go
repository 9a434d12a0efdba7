package bip38

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/btcsuite/btcutil/base58"
	"github.com/illarion/seedvault/internal/kdf"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

var cheapParams = kdf.Params{N: 16, R: 1, P: 1, KeyLen: 64}

func cheapCodec() *Codec {
	return New(WithParams(cheapParams))
}

func keyFromHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, b, 32)
	return b
}

func keyOne() []byte {
	k := make([]byte, 32)
	k[31] = 0x01
	return k
}

// countingDeriver records how often the KDF runs
type countingDeriver struct {
	calls atomic.Int32
	inner kdf.Deriver
}

func (d *countingDeriver) Derive(ctx context.Context, password, salt []byte, params kdf.Params) ([]byte, error) {
	d.calls.Add(1)
	return d.inner.Derive(ctx, password, salt, params)
}

func TestKnownVectors(t *testing.T) {
	if testing.Short() {
		t.Skip("full-cost scrypt vectors skipped in short mode")
	}

	tests := []struct {
		name       string
		encrypted  string
		pass       string
		key        string
		compressed bool
	}{
		{
			name:      "uncompressed",
			encrypted: "6PRVWUbkzzsbcVac2qwfssoUJAN1Xhrg6bNk8J7Nzm5H7kxEbn2Nh2ZoGg",
			pass:      "TestingOneTwoThree",
			key:       "cbf4b9f70470856bb4f40f80b87edb90865997ffee6df315ab166d713af433a5",
		},
		{
			name:       "compressed",
			encrypted:  "6PYNKZ1EAgYgmQfmNVamxyXVWHzK5s6DGhwP4J5o44cvXdoY7sRzhtpUeo",
			pass:       "TestingOneTwoThree",
			key:        "cbf4b9f70470856bb4f40f80b87edb90865997ffee6df315ab166d713af433a5",
			compressed: true,
		},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := keyFromHex(t, tt.key)

			got, err := Encrypt(ctx, key, tt.compressed, []byte(tt.pass))
			require.NoError(t, err)
			require.Equal(t, tt.encrypted, got)

			dec, err := Decrypt(ctx, tt.encrypted, []byte(tt.pass))
			require.NoError(t, err)
			require.Equal(t, key, dec.Key[:])
			require.Equal(t, tt.compressed, dec.Compressed)
		})
	}
}

func TestKnownVectorsECMultiply(t *testing.T) {
	if testing.Short() {
		t.Skip("full-cost scrypt vectors skipped in short mode")
	}

	tests := []struct {
		name      string
		encrypted string
		pass      string
		key       string
		address   string
		ls        *LotSequence
	}{
		{
			name:      "no lot",
			encrypted: "6PfQu77ygVyJLZjfvMLyhLMQbYnu5uguoJJ4kMCLqWwPEdfpwANVS76gTX",
			pass:      "TestingOneTwoThree",
			key:       "a43a940577f4e97f5c4d39eb14ff083a98187c64ea7c99ef7ce460833959a519",
			address:   "1PE6TQi6HTVNz5DLwB1LcpMBALubfuN2z2",
		},
		{
			name:      "no lot second",
			encrypted: "6PfLGnQs6VZnrNpmVKfjotbnQuaJK4KZoPFrAjx1JMJUa1Ft8gnf5WxfKd",
			pass:      "Satoshi",
			key:       "c2c8036df268f498099350718c4a3ef3984d2be84618c2650f5171dcc5eb660a",
			address:   "1CqzrtZC6mXSAhoxtFwVjz8LtwLJjDYU3V",
		},
		{
			name:      "lot sequence",
			encrypted: "6PgNBNNzDkKdhkT6uJntUXwwzQV8Rr2tZcbkDcuC9DZRsS6AtHts4Ypo1j",
			pass:      "MOLON LABE",
			key:       "44ea95afbf138356a05ea32110dfd627232d0f2991ad221187be356f19fa8190",
			address:   "1Jscj8ALrYu2y9TD8NrpvDBugPedmbj4Yh",
			ls:        &LotSequence{Lot: 263183, Sequence: 1},
		},
		{
			name:      "lot sequence greek passphrase",
			encrypted: "6PgGWtx25kUg8QWvwuJAgorN6k9FbE25rv5dMRwu5SKMnfpfVe5mar2ngH",
			pass:      "\u039c\u039f\u039b\u03a9\u039d \u039b\u0391\u0392\u0395",
			key:       "ca2759aa4adb0f96c414f36abeb8db59342985be9fa50faac228c8e7d90e3006",
			address:   "1Lurmih3KruL4xDB5FmHof38yawNtP9oGf",
			ls:        &LotSequence{Lot: 806938, Sequence: 1},
		},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := Decrypt(ctx, tt.encrypted, []byte(tt.pass))
			require.NoError(t, err)
			require.Equal(t, tt.key, hex.EncodeToString(dec.Key[:]))
			require.Equal(t, tt.address, dec.Address)
			require.False(t, dec.Compressed)
			require.Equal(t, tt.ls, dec.LotSequence)
		})
	}
}

func TestKeyOneScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("full-cost scrypt skipped in short mode")
	}
	ctx := context.Background()
	pass := []byte("TestingOneTwoThree")

	first, err := Encrypt(ctx, keyOne(), false, pass)
	require.NoError(t, err)
	second, err := Encrypt(ctx, keyOne(), false, pass)
	require.NoError(t, err)
	require.Equal(t, first, second, "encryption must be deterministic")
	require.True(t, strings.HasPrefix(first, "6PR"))

	dec, err := Decrypt(ctx, first, pass)
	require.NoError(t, err)
	require.Equal(t, keyOne(), dec.Key[:])
	require.False(t, dec.Compressed)
	require.Equal(t, "1EHNa6Q4Jz2uvNExL497mE43ikXhwF6kZm", dec.Address)

	_, err = Decrypt(ctx, first, []byte("wrong"))
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestRoundTripProperty(t *testing.T) {
	c := cheapCodec()
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	properties.Property("decrypt(encrypt(k)) == k", prop.ForAll(
		func(key []byte, pass string, compressed bool) bool {
			if _, err := scalarFromBytes(key); err != nil {
				return true
			}
			enc, err := c.Encrypt(ctx, key, compressed, []byte(pass))
			if err != nil || !Verify(enc) {
				return false
			}
			dec, err := c.Decrypt(ctx, enc, []byte(pass))
			if err != nil {
				return false
			}
			return bytes.Equal(dec.Key[:], key) && dec.Compressed == compressed
		},
		gen.SliceOfN(32, gen.UInt8()),
		gen.AnyString(),
		gen.Bool(),
	))

	properties.Property("wrong passphrase is rejected", prop.ForAll(
		func(pass, wrong string) bool {
			if pass == wrong {
				return true
			}
			enc, err := c.Encrypt(ctx, keyOne(), false, []byte(pass))
			if err != nil {
				return false
			}
			_, err = c.Decrypt(ctx, enc, []byte(wrong))
			return errors.Is(err, ErrChecksumMismatch)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestPassphraseIsNormalized(t *testing.T) {
	c := cheapCodec()
	ctx := context.Background()

	composed := []byte("caf\u00e9")
	decomposed := []byte("cafe\u0301")

	enc, err := c.Encrypt(ctx, keyOne(), true, composed)
	require.NoError(t, err)
	dec, err := c.Decrypt(ctx, enc, decomposed)
	require.NoError(t, err)
	require.Equal(t, keyOne(), dec.Key[:])
	require.Equal(t, []byte("cafe\u0301"), decomposed, "caller's passphrase must not be modified")
}

func TestEncryptRejectsInvalidKeys(t *testing.T) {
	c := cheapCodec()
	ctx := context.Background()

	_, err := c.Encrypt(ctx, make([]byte, 32), false, []byte("pw"))
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = c.Encrypt(ctx, make([]byte, 31), false, []byte("pw"))
	require.ErrorIs(t, err, ErrInvalidKey)

	// the group order itself is out of range
	n := keyFromHex(t, "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")
	_, err = c.Encrypt(ctx, n, false, []byte("pw"))
	require.ErrorIs(t, err, ErrInvalidKey)
}

func rawPayload(t *testing.T, c *Codec) []byte {
	t.Helper()
	enc, err := c.Encrypt(context.Background(), keyOne(), false, []byte("pw"))
	require.NoError(t, err)
	data, version, err := base58.CheckDecode(enc)
	require.NoError(t, err)
	return append([]byte{version}, data...)
}

func encodeRaw(raw []byte) string {
	return base58.CheckEncode(raw[1:], raw[0])
}

func TestVerifyRejectsMalformedPayloads(t *testing.T) {
	raw := rawPayload(t, cheapCodec())
	valid := encodeRaw(raw)
	require.True(t, Verify(valid))

	mutate := func(i int, b byte) string {
		cp := append([]byte{}, raw...)
		cp[i] = b
		return encodeRaw(cp)
	}

	cases := map[string]string{
		"empty":              "",
		"garbage":            "not-base58-0OIl",
		"truncated text":     valid[:len(valid)-3],
		"bad checksum":       valid[:len(valid)-1] + string(rune(valid[len(valid)-1]^1)),
		"short payload":      encodeRaw(raw[:38]),
		"long payload":       encodeRaw(append(append([]byte{}, raw...), 0x00)),
		"wrong prefix":       mutate(0, 0x02),
		"unknown type":       mutate(1, 0x44),
		"plain bad flag":     mutate(2, 0xc4),
		"plain zero flag":    mutate(2, 0x00),
		"ec with plain flag": encodeRaw(append([]byte{0x01, 0x43, 0xc0}, raw[3:]...)),
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			require.False(t, Verify(s))
		})
	}

	// legal ec-multiply flag combinations
	for _, flag := range []byte{0x00, 0x04, 0x20, 0x24} {
		require.True(t, Verify(encodeRaw(append([]byte{0x01, 0x43, flag}, raw[3:]...))), "flag 0x%02x", flag)
	}
}

func TestDecryptFailsFastWithoutDerivation(t *testing.T) {
	counter := &countingDeriver{inner: kdf.Native{}}
	c := New(WithParams(cheapParams), WithDeriver(counter))
	raw := rawPayload(t, c)
	require.EqualValues(t, 1, counter.calls.Load())

	bad := append([]byte{}, raw...)
	bad[2] = 0x01
	for _, s := range []string{"", "6P", encodeRaw(raw[:20]), encodeRaw(bad)} {
		_, err := c.Decrypt(context.Background(), s, []byte("pw"))
		require.ErrorIs(t, err, ErrInvalidFormat)
	}
	require.EqualValues(t, 1, counter.calls.Load(), "no derivation for malformed input")
}

func TestCorruptedCiphertextIsRejected(t *testing.T) {
	c := cheapCodec()
	raw := rawPayload(t, c)
	raw[20] ^= 0x01

	_, err := c.Decrypt(context.Background(), encodeRaw(raw), []byte("pw"))
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestDecryptCancelled(t *testing.T) {
	c := cheapCodec()
	enc, err := c.Encrypt(context.Background(), keyOne(), false, []byte("pw"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Decrypt(ctx, enc, []byte("pw"))
	require.ErrorIs(t, err, kdf.ErrCancelled)
}

func TestInspect(t *testing.T) {
	c := cheapCodec()
	enc, err := c.Encrypt(context.Background(), keyOne(), true, []byte("pw"))
	require.NoError(t, err)

	kind, compressed, err := Inspect(enc)
	require.NoError(t, err)
	require.Equal(t, KindPlain, kind)
	require.True(t, compressed)
	require.Equal(t, "plain", kind.String())
}
