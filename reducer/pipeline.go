package reducer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jrhy/statecore/ticket"
)

// ErrStale is delivered to onDone when a sequence stops because a later
// Apply, or Close, made its ticket stale before a write.
var ErrStale = errors.New("reducer: result superseded by a later apply")

// Config connects a Pipeline to the state container it drives.
type Config[S, P any] struct {
	// Get reads the current state.
	Get func() S
	// Set merges a partial state into the container.
	Set func(P)
	// Logger receives diagnostics; nil means slog.Default().
	Logger *slog.Logger
}

// Pipeline applies sequences of reducers to a state container. Get and
// Set are only ever called by one goroutine at a time, and never while
// a Deferred reducer is running.
type Pipeline[S, P any] struct {
	get func() S
	set func(P)
	log *slog.Logger
	op  ticket.Operation
	mu  sync.Mutex
}

// New returns a Pipeline driving the container described by cfg.
func New[S, P any](cfg Config[S, P]) *Pipeline[S, P] {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline[S, P]{get: cfg.Get, set: cfg.Set, log: log}
}

// Apply starts applying reducers in order on a new goroutine and
// returns immediately. It does not wait for any step to be committed,
// not even an Immediate one. Every step of the call shares one ticket,
// taken before Apply returns, so the ticket of any earlier call that is
// still running becomes stale: Apply(a); Apply(b) in a row normally
// discards all of a's writes. Use Run, or wait for onDone, when a call
// must land before the next one starts.
//
// onDone, if not nil, is called once: with nil after every reducer has
// been merged, with ErrStale if a write was discarded, or with the
// error of a failing or panicking reducer. If a reducer resolves to
// Skip the sequence stops there and onDone is never called.
func (p *Pipeline[S, P]) Apply(ctx context.Context, onDone func(error), reducers ...Reducer[S, P]) {
	t := p.op.Ticket()
	go p.run(ctx, t, onDone, reducers)
}

// Run is Apply that waits for the sequence to finish. It returns
// ctx.Err() if ctx is done first, which is the only way it returns for
// a sequence that stalls on Skip.
func (p *Pipeline[S, P]) Run(ctx context.Context, reducers ...Reducer[S, P]) error {
	done := make(chan error, 1)
	p.Apply(ctx, func(err error) { done <- err }, reducers...)
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close makes every running and future sequence discard its writes.
func (p *Pipeline[S, P]) Close() {
	p.op.Cancel()
}

func (p *Pipeline[S, P]) run(ctx context.Context, t ticket.Ticket, onDone func(error), reducers []Reducer[S, P]) {
	done := func(err error) {
		if onDone != nil {
			onDone(err)
		}
	}
	e := evaluator[S, P]{get: p.get, lock: p.mu.Lock, unlock: p.mu.Unlock}
	for i, r := range reducers {
		if err := ctx.Err(); err != nil {
			done(err)
			return
		}
		p.mu.Lock()
		patch, ok, err := e.resolve(ctx, r)
		if err != nil {
			p.mu.Unlock()
			done(err)
			return
		}
		if !ok {
			p.mu.Unlock()
			p.log.Debug("reducer requested no update; sequence stalled",
				"step", i, "ticket", t.Generation())
			return
		}
		if !t.Current() {
			p.mu.Unlock()
			p.log.Warn("discarding stale reducer result",
				"step", i, "ticket", t.Generation())
			done(ErrStale)
			return
		}
		err = p.commit(patch)
		p.mu.Unlock()
		if err != nil {
			done(err)
			return
		}
	}
	done(nil)
}

func (p *Pipeline[S, P]) commit(patch P) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v}
		}
	}()
	p.set(patch)
	return nil
}
