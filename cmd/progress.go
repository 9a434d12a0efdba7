package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/illarion/seedvault/internal/kdf"
)

// progressBuffer is the number of events held between draws
const progressBuffer = 64

// progressDeriver draws key derivation progress while a derivation runs.
// Nothing is written once Derive has returned, so the progress line never
// interleaves with a passphrase prompt.
type progressDeriver struct {
	mu    sync.Mutex
	inner kdf.Deriver
	ch    chan kdf.Progress
	w     io.Writer
}

// newProgressDeriver wraps the deriver built by build. build receives the
// channel the deriver must report progress on.
func newProgressDeriver(w io.Writer, build func(progress chan<- kdf.Progress) (kdf.Deriver, error)) (*progressDeriver, error) {
	ch := make(chan kdf.Progress, progressBuffer)
	inner, err := build(ch)
	if err != nil {
		return nil, err
	}
	return &progressDeriver{inner: inner, ch: ch, w: w}, nil
}

func (d *progressDeriver) draw(p kdf.Progress) {
	fmt.Fprintf(d.w, "\rDeriving key... %3.0f%%", p.Percent)
}

func (d *progressDeriver) Derive(ctx context.Context, password, salt []byte, params kdf.Params) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case p := <-d.ch:
				d.draw(p)
			case <-stop:
				return
			}
		}
	}()

	key, err := d.inner.Derive(ctx, password, salt, params)
	close(stop)
	<-done

	// events still buffered when the derivation finished
	for drained := false; !drained; {
		select {
		case p := <-d.ch:
			d.draw(p)
		default:
			drained = true
		}
	}
	fmt.Fprint(d.w, "\r\033[K")
	return key, err
}

// progressWriter is where derivation progress goes, nil when stderr is not
// a terminal
func progressWriter() io.Writer {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return os.Stderr
}
