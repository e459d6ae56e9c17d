// Package scripting runs attacker profile scripts in sandboxed GopherLua
// states. It has no dependency on the combat packages: hooks receive a table
// of plain numbers and return one number.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget of one hook call when no limit is configured.
const DefaultInstructionLimit = 100_000

// removedGlobals are stripped from every sandboxed state. math.random and
// math.randomseed are removed separately so seeded runs stay reproducible.
var removedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require"}

// opcodeBudget is a context that cancels itself once Done has been called
// limit times. The GopherLua main loop calls Done once per opcode.
type opcodeBudget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func (b *opcodeBudget) Done() <-chan struct{} {
	if b.left.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

func newOpcodeBudget(limit int) *opcodeBudget {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &opcodeBudget{Context: ctx, cancel: cancel}
	b.left.Store(int64(limit))
	return b
}

// NewSandboxedState returns a state with only the base, table, string and math
// libraries, without file loading or randomness, armed with instLimit opcodes.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: The caller owns the state and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	if math, ok := L.GetGlobal(lua.MathLibName).(*lua.LTable); ok {
		math.RawSetString("random", lua.LNil)
		math.RawSetString("randomseed", lua.LNil)
	}
	Rearm(L, instLimit)
	return L
}

// Rearm replaces L's opcode budget with a fresh one of instLimit opcodes.
// Budgets are not shared between hook calls; a long-lived state is rearmed
// before each call.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: The returned CancelFunc releases the budget.
func Rearm(L *lua.LState, instLimit int) context.CancelFunc {
	b := newOpcodeBudget(instLimit)
	L.SetContext(b)
	return b.cancel
}
