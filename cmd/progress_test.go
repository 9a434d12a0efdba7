package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/seedvault/internal/kdf"
)

// scriptedDeriver emits fixed progress events and returns before the
// display goroutine has necessarily seen any of them
type scriptedDeriver struct {
	progress chan<- kdf.Progress
	events   []kdf.Progress
	err      error
}

func (d *scriptedDeriver) Derive(ctx context.Context, password, salt []byte, params kdf.Params) ([]byte, error) {
	for _, ev := range d.events {
		d.progress <- ev
	}
	if d.err != nil {
		return nil, d.err
	}
	return []byte("key"), nil
}

func TestProgressDeriverDrawsEveryEventBeforeReturning(t *testing.T) {
	var out bytes.Buffer
	d, err := newProgressDeriver(&out, func(progress chan<- kdf.Progress) (kdf.Deriver, error) {
		return &scriptedDeriver{
			progress: progress,
			events: []kdf.Progress{
				{Current: 1, Total: 4, Percent: 25},
				{Current: 2, Total: 4, Percent: 50},
				{Current: 4, Total: 4, Percent: 100},
			},
		}, nil
	})
	require.NoError(t, err)

	key, err := d.Derive(context.Background(), nil, nil, kdf.Params{})
	require.NoError(t, err)
	assert.Equal(t, []byte("key"), key)

	want := "\rDeriving key...  25%\rDeriving key...  50%\rDeriving key... 100%\r\033[K"
	assert.Equal(t, want, out.String())
}

func TestProgressDeriverClearsLineOnError(t *testing.T) {
	var out bytes.Buffer
	d, err := newProgressDeriver(&out, func(progress chan<- kdf.Progress) (kdf.Deriver, error) {
		return &scriptedDeriver{
			progress: progress,
			events:   []kdf.Progress{{Current: 1, Total: 2, Percent: 50}},
			err:      kdf.ErrCancelled,
		}, nil
	})
	require.NoError(t, err)

	_, err = d.Derive(context.Background(), nil, nil, kdf.Params{})
	assert.ErrorIs(t, err, kdf.ErrCancelled)
	assert.True(t, strings.HasSuffix(out.String(), "\r\033[K"), "%q", out.String())
}

func TestProgressDeriverBuildError(t *testing.T) {
	errBuild := errors.New("unknown backend")
	_, err := newProgressDeriver(&bytes.Buffer{}, func(chan<- kdf.Progress) (kdf.Deriver, error) {
		return nil, errBuild
	})
	assert.ErrorIs(t, err, errBuild)
}

func TestProgressDeriverWithEngine(t *testing.T) {
	params := kdf.Params{N: 1024, R: 1, P: 1, KeyLen: 32}
	ctx := context.Background()

	var out bytes.Buffer
	d, err := newProgressDeriver(&out, func(progress chan<- kdf.Progress) (kdf.Deriver, error) {
		return kdf.NewEngine(kdf.WithProgress(progress)), nil
	})
	require.NoError(t, err)

	// two derivations back to back, as a passphrase change does
	for i := 0; i < 2; i++ {
		out.Reset()
		key, err := d.Derive(ctx, []byte("pw"), []byte("salt"), params)
		require.NoError(t, err)

		want, err := kdf.DeriveContext(ctx, []byte("pw"), []byte("salt"), params)
		require.NoError(t, err)
		assert.Equal(t, want, key)

		assert.Contains(t, out.String(), "Deriving key... 100%")
		assert.True(t, strings.HasSuffix(out.String(), "\r\033[K"), "%q", out.String())
	}
}
