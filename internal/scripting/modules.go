package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine Lua table into L.
//
// engine.log(msg) writes msg to the manager's logger at debug level, tagged
// with profile.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState, profile string) {
	engine := L.NewTable()
	L.SetField(engine, "log", L.NewFunction(func(L *lua.LState) int {
		m.logger.Debug("scripting: lua log",
			zap.String("profile", profile),
			zap.String("message", L.CheckString(1)),
		)
		return 0
	}))
	L.SetGlobal("engine", engine)
}
