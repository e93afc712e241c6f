// Package reducer sequences state transitions against a shared state
// container.
//
// A Reducer describes one transition. It is one of
//
//	Immediate(patch)   a partial state to merge
//	Skip()             no update
//	Deferred(f)        f runs without holding the container and yields another Reducer
//	Derived(f)         f reads the current state and yields another Reducer
//
// A Pipeline applies sequences of reducers in order, each step seeing
// the state the previous step wrote, and discards writes from a
// sequence once a later sequence has been started on the same
// Pipeline.
package reducer

import (
	"context"
	"fmt"
)

type kind uint8

const (
	kindSkip kind = iota
	kindImmediate
	kindDeferred
	kindDerived
)

// Reducer is a transition of a state S by merging a partial state P.
// The zero Reducer is Skip.
type Reducer[S, P any] struct {
	kind     kind
	patch    P
	deferred func(context.Context) (Reducer[S, P], error)
	derived  func(S) (Reducer[S, P], error)
}

// Immediate merges patch.
func Immediate[S, P any](patch P) Reducer[S, P] {
	return Reducer[S, P]{kind: kindImmediate, patch: patch}
}

// Skip requests no update.
func Skip[S, P any]() Reducer[S, P] {
	return Reducer[S, P]{}
}

// Deferred runs f, which may block, and then resolves whatever it
// returns. The state container is not held while f runs.
func Deferred[S, P any](f func(context.Context) (Reducer[S, P], error)) Reducer[S, P] {
	return Reducer[S, P]{kind: kindDeferred, deferred: f}
}

// Derived calls f with the state as it is when the step runs.
func Derived[S, P any](f func(S) (Reducer[S, P], error)) Reducer[S, P] {
	return Reducer[S, P]{kind: kindDerived, derived: f}
}

// Func is Derived for a function that always produces a patch.
func Func[S, P any](f func(S) P) Reducer[S, P] {
	return Derived(func(s S) (Reducer[S, P], error) {
		return Immediate[S](f(s)), nil
	})
}

// IsSkip reports whether r requests no update without further
// evaluation.
func (r Reducer[S, P]) IsSkip() bool {
	return r.kind == kindSkip
}

func (r Reducer[S, P]) String() string {
	switch r.kind {
	case kindImmediate:
		return fmt.Sprintf("Immediate(%v)", r.patch)
	case kindDeferred:
		return "Deferred"
	case kindDerived:
		return "Derived"
	}
	return "Skip"
}

// PanicError carries a value recovered from a panicking reducer.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("reducer panicked: %v", e.Value)
}

// Unwrap returns the panic value if it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// evaluator resolves reducers; lock and unlock bracket access to the
// state container so Deferred functions run without holding it.
type evaluator[S, P any] struct {
	get    func() S
	lock   func()
	unlock func()
}

// resolve evaluates r to a patch, reporting false if it resolved to
// Skip. It must be called holding the lock, and returns holding it.
func (e evaluator[S, P]) resolve(ctx context.Context, r Reducer[S, P]) (patch P, ok bool, err error) {
	for {
		switch r.kind {
		case kindSkip:
			return patch, false, nil
		case kindImmediate:
			return r.patch, true, nil
		case kindDerived:
			if r.derived == nil {
				return patch, false, nil
			}
			r, err = e.derived(r.derived)
		case kindDeferred:
			if err = ctx.Err(); err != nil {
				return patch, false, err
			}
			if r.deferred == nil {
				return patch, false, nil
			}
			r, err = e.wait(ctx, r.deferred)
		default:
			return patch, false, fmt.Errorf("unknown reducer kind %d", r.kind)
		}
		if err != nil {
			return patch, false, err
		}
	}
}

func (e evaluator[S, P]) derived(f func(S) (Reducer[S, P], error)) (r Reducer[S, P], err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v}
		}
	}()
	return f(e.get())
}

func (e evaluator[S, P]) wait(ctx context.Context, f func(context.Context) (Reducer[S, P], error)) (r Reducer[S, P], err error) {
	e.unlock()
	defer e.lock()
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v}
		}
	}()
	return f(ctx)
}
