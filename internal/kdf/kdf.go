package kdf

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"runtime"

	clog "github.com/charmbracelet/log"
	"golang.org/x/crypto/pbkdf2"
)

const (
	DefaultYieldInterval = 5000 // inner steps between scheduler yields
	ProgressInterval     = 1000 // inner steps between progress events
)

// Progress reports how far a derivation has advanced. Total counts the
// inner ROMix steps of all parallel blocks (2*N*p).
type Progress struct {
	Current int
	Total   int
	Percent float64
}

// Deriver turns a password and salt into key material
type Deriver interface {
	Derive(ctx context.Context, password, salt []byte, params Params) ([]byte, error)
}

type options struct {
	yieldInterval int
	progress      chan<- Progress
	logger        *clog.Logger
}

// Option configures a derivation
type Option func(*options)

// WithYieldInterval sets how many inner steps run between yields.
// Zero or less disables yielding.
func WithYieldInterval(n int) Option {
	return func(o *options) {
		o.yieldInterval = n
	}
}

// WithProgress delivers progress events on ch. Sends never block; events
// are dropped when the receiver is not ready.
func WithProgress(ch chan<- Progress) Option {
	return func(o *options) {
		o.progress = ch
	}
}

// WithLogger logs derivation start and finish at debug level
func WithLogger(l *clog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Derive runs the whole derivation on the calling goroutine without yielding
func Derive(password, salt []byte, params Params, opts ...Option) ([]byte, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	o.yieldInterval = 0
	return derive(context.Background(), password, salt, params, o)
}

// DeriveContext runs the derivation, yielding to the scheduler every
// yield interval steps. Cancellation of ctx is observed at those yield
// points and reported as ErrCancelled.
func DeriveContext(ctx context.Context, password, salt []byte, params Params, opts ...Option) ([]byte, error) {
	o := options{yieldInterval: DefaultYieldInterval}
	for _, opt := range opts {
		opt(&o)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return derive(ctx, password, salt, params, o)
}

// Engine is the reference Deriver with a fixed option set
type Engine struct {
	opts []Option
}

// NewEngine creates a reference engine
func NewEngine(opts ...Option) *Engine {
	return &Engine{opts: opts}
}

// Derive implements Deriver using the cooperative-yield variant
func (e *Engine) Derive(ctx context.Context, password, salt []byte, params Params) ([]byte, error) {
	return DeriveContext(ctx, password, salt, params, e.opts...)
}

// stepper counts inner ROMix steps and drives progress and yields
type stepper struct {
	ctx   context.Context
	opts  *options
	done  int
	total int
}

func (s *stepper) step() error {
	s.done++
	if s.opts.progress != nil && (s.done%ProgressInterval == 0 || s.done == s.total) {
		ev := Progress{
			Current: s.done,
			Total:   s.total,
			Percent: float64(s.done) * 100 / float64(s.total),
		}
		select {
		case s.opts.progress <- ev:
		default:
		}
	}
	if s.opts.yieldInterval > 0 && s.done%s.opts.yieldInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		runtime.Gosched()
	}
	return nil
}

func derive(ctx context.Context, password, salt []byte, params Params, o options) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if o.logger != nil {
		o.logger.Debug("derive start", "params", params.String(), "yield", o.yieldInterval)
	}

	n, r, p := params.N, params.R, params.P
	blockLen := 128 * r
	words := 32 * r

	b := pbkdf2.Key(password, salt, 1, p*blockLen, sha256.New)

	// arena: x and y working blocks followed by the N-entry snapshot array
	arena := make([]uint32, 2*words+n*words)
	defer clearWords(arena)

	s := &stepper{ctx: ctx, opts: &o, total: 2 * n * p}
	for i := 0; i < p; i++ {
		if err := romix(b[i*blockLen:(i+1)*blockLen], r, n, arena, s); err != nil {
			clearBytes(b)
			return nil, err
		}
	}

	dk := pbkdf2.Key(password, b, 1, params.KeyLen, sha256.New)
	clearBytes(b)

	if o.logger != nil {
		o.logger.Debug("derive done", "params", params.String(), "steps", s.done)
	}
	return dk, nil
}

// romix runs the sequential memory-hard mix over one 128*r byte block
func romix(b []byte, r, n int, arena []uint32, s *stepper) error {
	var tmp [16]uint32
	words := 32 * r
	x := arena[:words]
	y := arena[words : 2*words]
	v := arena[2*words:]

	for i := range x {
		x[i] = binary.LittleEndian.Uint32(b[i*4:])
	}

	for i := 0; i < n; i++ {
		copy(v[i*words:(i+1)*words], x)
		blockMix(&tmp, x, y, r)
		x, y = y, x
		if err := s.step(); err != nil {
			return err
		}
	}

	mask := uint64(n - 1)
	for i := 0; i < n; i++ {
		j := int(integer(x, r) & mask)
		blockXOR(x, v[j*words:], words)
		blockMix(&tmp, x, y, r)
		x, y = y, x
		if err := s.step(); err != nil {
			return err
		}
	}

	for i, w := range x {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	return nil
}

func clearWords(w []uint32) {
	for i := range w {
		w[i] = 0
	}
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
