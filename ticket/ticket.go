// Package ticket provides generation-counter cancellation tokens.
//
// An Operation issues Tickets. A Ticket is current until a newer one is
// issued from the same Operation, or until the Operation is canceled.
// Asynchronous work takes a ticket before it starts and checks it before
// publishing any result; work in flight is never interrupted, only its
// late result is discarded.
package ticket

import "sync/atomic"

// Operation is the source of tickets. The zero value is ready to use.
// An Operation is safe for concurrent use and must not be copied after
// first use.
type Operation struct {
	generation atomic.Uint64
	canceled   atomic.Bool
}

// Ticket reports whether the epoch it was issued in is still current.
// The zero Ticket is never current.
type Ticket struct {
	op *Operation
	id uint64
}

// Ticket issues a new ticket, making every earlier one stale. On a
// canceled Operation it returns a ticket that is never current.
func (o *Operation) Ticket() Ticket {
	if o.canceled.Load() {
		return Ticket{}
	}
	return Ticket{op: o, id: o.generation.Add(1)}
}

// Cancel makes every ticket, past and future, permanently stale.
func (o *Operation) Cancel() {
	o.canceled.Store(true)
}

// Canceled reports whether Cancel has been called.
func (o *Operation) Canceled() bool {
	return o.canceled.Load()
}

// Current reports whether no newer ticket has been issued and the
// Operation has not been canceled.
func (t Ticket) Current() bool {
	return t.op != nil && !t.op.canceled.Load() && t.op.generation.Load() == t.id
}

// Generation returns the epoch the ticket was issued in, or 0 for a
// ticket that was never current.
func (t Ticket) Generation() uint64 {
	return t.id
}
