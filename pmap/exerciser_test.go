package pmap

import (
	"fmt"
	"reflect"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/commands"
	"github.com/leanovate/gopter/gen"
	"github.com/stretchr/testify/assert"
)

var testThingy *testing.T

// expected is the model: a Go map plus the key order.
type expected struct {
	entries  map[uint]uint
	order    []uint
	snapshot []*expected
}

func (e *expected) clone() *expected {
	c := &expected{
		entries: make(map[uint]uint, len(e.entries)),
		order:   append([]uint(nil), e.order...),
	}
	for k, v := range e.entries {
		c.entries[k] = v
	}
	return c
}

type system struct {
	m        *Map[uint, uint]
	snapshot []*Map[uint, uint]
	// identical counts operations that returned the receiver
	identical int
	cmdCount  int
}

const (
	uimax      = 99
	nSnapshots = 5
)

var (
	cmdCount = 0
	debug    = false
)

func progress(i interface{}) {
	if debug {
		fmt.Printf("%v\n", i)
	}
}

func entriesOf(m *Map[uint, uint]) ([]uint, map[uint]uint) {
	order := slices.Collect(m.Keys())
	entries := make(map[uint]uint, m.Len())
	for k, v := range m.All() {
		entries[k] = v
	}
	return order, entries
}

func matches(state *expected, m *Map[uint, uint]) *gopter.PropResult {
	order, entries := entriesOf(m)
	if len(order) == 0 {
		order = nil
	}
	want := state.order
	if len(want) == 0 {
		want = nil
	}
	if !reflect.DeepEqual(want, order) || !reflect.DeepEqual(state.entries, entries) {
		assert.Equal(testThingy, want, order)
		assert.Equal(testThingy, state.entries, entries)
		return &gopter.PropResult{Status: gopter.PropFalse}
	}
	return &gopter.PropResult{Status: gopter.PropTrue}
}

var LenCommand = &commands.ProtoCommand{
	Name: "Len",
	RunFunc: func(s commands.SystemUnderTest) commands.Result {
		s.(*system).cmdCount++
		return s.(*system).m.Len()
	},
	NextStateFunc:    func(state commands.State) commands.State { return state },
	PreConditionFunc: func(state commands.State) bool { return true },
	PostConditionFunc: func(state commands.State, result commands.Result) *gopter.PropResult {
		if len(state.(*expected).entries) != result.(int) {
			fmt.Printf("lenPostCondition: expected=%d, actual=%d\n", len(state.(*expected).entries), result.(int))
			return &gopter.PropResult{Status: gopter.PropFalse}
		}
		progress("Len")
		return &gopter.PropResult{Status: gopter.PropTrue}
	},
}

type setCommand struct {
	Key   uint
	Value uint
}

func (c setCommand) Run(s commands.SystemUnderTest) commands.Result {
	sys := s.(*system)
	before := sys.m
	sys.m = sys.m.Set(c.Key, c.Value)
	if sys.m == before {
		sys.identical++
	}
	sys.cmdCount++
	return sys.m
}

func (c setCommand) NextState(state commands.State) commands.State {
	s := state.(*expected)
	if _, ok := s.entries[c.Key]; !ok {
		s.order = append(s.order, c.Key)
	}
	s.entries[c.Key] = c.Value
	return s
}

func (c setCommand) PreCondition(state commands.State) bool { return true }

func (c setCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	progress(c)
	return matches(state.(*expected), result.(*Map[uint, uint]))
}

func (c setCommand) String() string {
	return fmt.Sprintf("Set(%d,%d)", c.Key, c.Value)
}

var genSet = gen.Struct(reflect.TypeOf(setCommand{}), map[string]gopter.Gen{
	"Key":   gen.UIntRange(0, uimax),
	"Value": gen.UIntRange(0, 3),
}).Map(func(c setCommand) commands.Command { return c })

type deleteCommand uint

func (key deleteCommand) Run(s commands.SystemUnderTest) commands.Result {
	sys := s.(*system)
	had := sys.m.Has(uint(key))
	before := sys.m
	sys.m = sys.m.Delete(uint(key))
	sys.cmdCount++
	if !had && sys.m != before {
		return fmt.Errorf("delete of absent key %d returned a new map", key)
	}
	return sys.m
}

func (key deleteCommand) NextState(state commands.State) commands.State {
	s := state.(*expected)
	delete(s.entries, uint(key))
	s.order = slices.DeleteFunc(s.order, func(k uint) bool { return k == uint(key) })
	return s
}

func (key deleteCommand) PreCondition(state commands.State) bool { return true }

func (key deleteCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	if err, ok := result.(error); ok {
		fmt.Printf("deletePostCondition: %v\n", err)
		return &gopter.PropResult{Status: gopter.PropFalse}
	}
	progress(key)
	return matches(state.(*expected), result.(*Map[uint, uint]))
}

func (key deleteCommand) String() string {
	return fmt.Sprintf("Delete(%d)", key)
}

var genDelete = uintCommandGen(
	func(value uint) commands.Command { return deleteCommand(value) },
	func(command interface{}) uint { return uint(command.(deleteCommand)) })

type rekeyCommand struct {
	From uint
	To   uint
}

func (c rekeyCommand) Run(s commands.SystemUnderTest) commands.Result {
	sys := s.(*system)
	sys.m = sys.m.Rekey(c.From, c.To)
	sys.cmdCount++
	return sys.m
}

func (c rekeyCommand) NextState(state commands.State) commands.State {
	s := state.(*expected)
	v, ok := s.entries[c.From]
	if _, taken := s.entries[c.To]; !ok || taken || c.From == c.To {
		return s
	}
	delete(s.entries, c.From)
	s.entries[c.To] = v
	for i, k := range s.order {
		if k == c.From {
			s.order[i] = c.To
		}
	}
	return s
}

func (c rekeyCommand) PreCondition(state commands.State) bool { return true }

func (c rekeyCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	progress(c)
	return matches(state.(*expected), result.(*Map[uint, uint]))
}

func (c rekeyCommand) String() string {
	return fmt.Sprintf("Rekey(%d,%d)", c.From, c.To)
}

var genRekey = gen.Struct(reflect.TypeOf(rekeyCommand{}), map[string]gopter.Gen{
	"From": gen.UIntRange(0, uimax),
	"To":   gen.UIntRange(0, uimax),
}).Map(func(c rekeyCommand) commands.Command { return c })

type snapshotCommand uint

func (n snapshotCommand) Run(s commands.SystemUnderTest) commands.Result {
	sys := s.(*system)
	sys.snapshot[int(n)%nSnapshots] = sys.m
	return nil
}

func (n snapshotCommand) NextState(state commands.State) commands.State {
	s := state.(*expected)
	s.snapshot[int(n)%nSnapshots] = s.clone()
	return s
}

func (n snapshotCommand) PreCondition(state commands.State) bool { return true }

func (n snapshotCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	progress(n)
	return &gopter.PropResult{Status: gopter.PropTrue}
}

func (n snapshotCommand) String() string {
	return fmt.Sprintf("Snapshot(%d)", int(n)%nSnapshots)
}

var genSnapshot = uintCommandGen(
	func(slot uint) commands.Command { return snapshotCommand(slot) },
	func(command interface{}) uint { return uint(command.(snapshotCommand)) })

// checkSnapshotCommand verifies an old version is unaffected by every
// derivation made since it was taken.
type checkSnapshotCommand uint

func (n checkSnapshotCommand) Run(s commands.SystemUnderTest) commands.Result {
	return s.(*system).snapshot[int(n)%nSnapshots]
}

func (n checkSnapshotCommand) NextState(state commands.State) commands.State { return state }

func (n checkSnapshotCommand) PreCondition(state commands.State) bool {
	return state.(*expected).snapshot[int(n)%nSnapshots] != nil
}

func (n checkSnapshotCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	progress(n)
	return matches(state.(*expected).snapshot[int(n)%nSnapshots], result.(*Map[uint, uint]))
}

func (n checkSnapshotCommand) String() string {
	return fmt.Sprintf("CheckSnapshot(%d)", int(n)%nSnapshots)
}

var genCheckSnapshot = uintCommandGen(
	func(slot uint) commands.Command { return checkSnapshotCommand(slot) },
	func(command interface{}) uint { return uint(command.(checkSnapshotCommand)) })

func uintCommandGen(toCommand func(uint) commands.Command, fromCommand func(interface{}) uint) gopter.Gen {
	return gen.UIntRange(0, uimax).Map(func(value uint) commands.Command {
		return toCommand(value)
	}).WithShrinker(func(v interface{}) gopter.Shrink {
		return gen.UIntShrinker(fromCommand(v)).Map(func(value uint) commands.Command {
			return toCommand(value)
		})
	})
}

var (
	identicalCount = 0
	pmapCommands   = &commands.ProtoCommands{
		NewSystemUnderTestFunc: func(initialState commands.State) commands.SystemUnderTest {
			m := New[uint, uint]()
			for _, k := range initialState.(*expected).order {
				m = m.Set(k, initialState.(*expected).entries[k])
			}
			progress("NewSystem")
			return &system{m: m, snapshot: make([]*Map[uint, uint], nSnapshots)}
		},
		DestroySystemUnderTestFunc: func(s commands.SystemUnderTest) {
			cmdCount += s.(*system).cmdCount
			identicalCount += s.(*system).identical
		},
		InitialStateGen: gen.SliceOf(gen.UIntRange(0, uimax)).Map(func(keys []uint) *expected {
			e := &expected{
				entries:  map[uint]uint{},
				snapshot: make([]*expected, nSnapshots),
			}
			for _, k := range keys {
				if _, ok := e.entries[k]; !ok {
					e.order = append(e.order, k)
				}
				e.entries[k] = k % 4
			}
			return e
		}),
		InitialPreConditionFunc: func(state commands.State) bool {
			_ = state.(*expected)
			return true
		},
		GenCommandFunc: func(state commands.State) gopter.Gen {
			return gen.Weighted(
				[]gen.WeightedGen{
					{Weight: 100, Gen: genSet},
					{Weight: 60, Gen: genDelete},
					{Weight: 20, Gen: genRekey},
					{Weight: 5, Gen: genSnapshot},
					{Weight: 5, Gen: genCheckSnapshot},
					{Weight: 20, Gen: gen.Const(LenCommand)},
				},
			)
		},
	}
)

func TestExerciser(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	if !testing.Short() {
		parameters.MaxSize = 512
	}
	properties := gopter.NewProperties(parameters)
	properties.Property("pmap exerciser", commands.Prop(pmapCommands))
	testThingy = t
	properties.TestingRun(t)
	testThingy = nil
	if !t.Failed() {
		fmt.Printf("successful commands: %d (%d returned the receiver)\n", cmdCount, identicalCount)
	}
}
