package ticket

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketMonotonicity(t *testing.T) {
	t.Parallel()
	var op Operation
	t1 := op.Ticket()
	require.True(t, t1.Current())
	t2 := op.Ticket()
	for range 3 {
		assert.False(t, t1.Current())
		assert.True(t, t2.Current())
	}
	require.Less(t, t1.Generation(), t2.Generation())
}

func TestCancellationPermanence(t *testing.T) {
	t.Parallel()
	var op Operation
	before := op.Ticket()
	op.Cancel()
	after := op.Ticket()
	require.True(t, op.Canceled())
	for range 3 {
		assert.False(t, before.Current())
		assert.False(t, after.Current())
	}
	assert.Equal(t, uint64(0), after.Generation())
	op.Cancel()
	assert.False(t, op.Ticket().Current())
}

func TestZeroTicket(t *testing.T) {
	t.Parallel()
	var tk Ticket
	require.False(t, tk.Current())
}

func TestTicketsAcrossOperationsAreIndependent(t *testing.T) {
	t.Parallel()
	var a, b Operation
	ta := a.Ticket()
	tb := b.Ticket()
	b.Ticket()
	require.True(t, ta.Current())
	require.False(t, tb.Current())
}

func TestConcurrentIssue(t *testing.T) {
	t.Parallel()
	var op Operation
	const n = 64
	tickets := make([]Ticket, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tickets[i] = op.Ticket()
		}()
	}
	wg.Wait()
	current := 0
	seen := map[uint64]bool{}
	for _, tk := range tickets {
		require.False(t, seen[tk.Generation()], "generation %d issued twice", tk.Generation())
		seen[tk.Generation()] = true
		if tk.Current() {
			current++
		}
	}
	require.Equal(t, 1, current)
}
