package scripting

import (
	"fmt"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// vm is one profile's LState. An LState is single-threaded; mu serializes calls.
type vm struct {
	mu sync.Mutex
	L  *lua.LState
}

// Manager owns one sandboxed LState per attacker profile and exposes hook dispatch.
//
// Manager is safe for concurrent use. Calls into the same profile are
// serialized; different profiles run concurrently.
type Manager struct {
	mu        sync.RWMutex
	profiles  map[string]*vm
	instLimit int
	logger    *zap.Logger
}

// NewManager creates a Manager whose hook calls are each limited to instLimit opcodes.
//
// Precondition: logger must be non-nil; instLimit >= 0 (0 uses DefaultInstructionLimit).
// Postcondition: Returns a non-nil Manager with no profiles loaded.
func NewManager(instLimit int, logger *zap.Logger) *Manager {
	return &Manager{
		profiles:  make(map[string]*vm),
		instLimit: instLimit,
		logger:    logger,
	}
}

// LoadFile creates a sandboxed VM for profile, registers the engine module,
// then executes the Lua file at path. An existing VM for profile is replaced.
//
// Precondition: profile must be non-empty; path must be a readable file.
// Postcondition: the profile VM is registered; returns error on Lua load failure.
func (m *Manager) LoadFile(profile, path string) error {
	return m.load(profile, func(L *lua.LState) error {
		if err := L.DoFile(path); err != nil {
			return fmt.Errorf("scripting: loading %q for %q: %w", path, profile, err)
		}
		return nil
	})
}

// LoadString is LoadFile for inline source.
func (m *Manager) LoadString(profile, src string) error {
	return m.load(profile, func(L *lua.LState) error {
		if err := L.DoString(src); err != nil {
			return fmt.Errorf("scripting: loading source for %q: %w", profile, err)
		}
		return nil
	})
}

func (m *Manager) load(profile string, run func(*lua.LState) error) error {
	L := NewSandboxedState(m.instLimit)
	m.RegisterModules(L, profile)
	if err := run(L); err != nil {
		L.Close()
		return err
	}

	m.mu.Lock()
	if old, ok := m.profiles[profile]; ok {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.profiles[profile] = &vm{L: L}
	m.mu.Unlock()
	return nil
}

// Profiles returns the loaded profile names in sorted order.
func (m *Manager) Profiles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.profiles))
	for name := range m.profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// HasHook reports whether profile defines a global function named hook.
func (m *Manager) HasHook(profile, hook string) bool {
	v := m.lookup(profile)
	if v == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.L.GetGlobal(hook).(*lua.LFunction)
	return ok
}

func (m *Manager) lookup(profile string) *vm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profiles[profile]
}

// CallNumber calls the named Lua global function in profile's VM with a single
// table argument built from args, and returns its numeric result.
//
// Returns ok == false when the profile or hook does not exist, when the hook
// raises an error or exceeds its instruction budget, or when it returns a
// non-number. Runtime errors are logged at Warn level and never propagated.
//
// Postcondition: ok is true only if the hook returned a Lua number.
func (m *Manager) CallNumber(profile, hook string, args map[string]float64) (float64, bool) {
	v := m.lookup(profile)
	if v == nil {
		m.logger.Info("scripting: no VM for profile",
			zap.String("profile", profile),
			zap.String("hook", hook),
		)
		return 0, false
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	L := v.L

	fn, ok := L.GetGlobal(hook).(*lua.LFunction)
	if !ok {
		return 0, false
	}

	tbl := L.NewTable()
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		L.SetField(tbl, k, lua.LNumber(args[k]))
	}

	cancel := Rearm(L, m.instLimit)
	defer cancel()
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, tbl); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("profile", profile),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return 0, false
	}

	ret := L.Get(-1)
	L.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok {
		m.logger.Warn("scripting: hook returned non-number",
			zap.String("profile", profile),
			zap.String("hook", hook),
			zap.String("type", ret.Type().String()),
		)
		return 0, false
	}
	return float64(n), true
}

// Close releases every profile VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, v := range m.profiles {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
		delete(m.profiles, name)
	}
}
