package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
	"github.com/JakubekWeg/wc2-sub000/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding the combat hooks.
// Single-goroutine access only (tick loop).
//
// Hooks, all optional:
//
//	select_target(self, candidates) -> id   candidates is an array of entity tables
//	projectile_damage(source, target, base) -> damage
//
// Entity tables carry id, x, y, hp, force and distance.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

var _ world.Hooks = (*Engine)(nil)

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	for _, sub := range []string{"core", "ai", "combat"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// NewEngineFromSource loads hooks from one chunk of Lua source.
func NewEngineFromSource(src string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if err := e.vm.DoString(src); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load lua source: %w", err)
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{vm: vm, log: log}
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Has reports whether a hook function is defined.
func (e *Engine) Has(name string) bool {
	return e.vm.GetGlobal(name).Type() == lua.LTFunction
}

func (e *Engine) candidateTable(c world.Candidate) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("id", lua.LNumber(c.ID))
	t.RawSetString("x", lua.LNumber(c.X))
	t.RawSetString("y", lua.LNumber(c.Y))
	t.RawSetString("hp", lua.LNumber(c.HP))
	t.RawSetString("force", lua.LNumber(c.Force))
	t.RawSetString("distance", lua.LNumber(c.Distance))
	return t
}

// SelectTarget calls select_target. It returns 0 when the hook is missing,
// fails, or declines; the world then applies its default rule.
func (e *Engine) SelectTarget(self world.Candidate, candidates []world.Candidate) ecs.EntityID {
	fn := e.vm.GetGlobal("select_target")
	if fn == lua.LNil {
		return 0
	}

	list := e.vm.NewTable()
	for i, c := range candidates {
		list.RawSetInt(i+1, e.candidateTable(c))
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, e.candidateTable(self), list); err != nil {
		e.log.Error("lua select_target error", zap.Error(err), zap.Uint32("entity", uint32(self.ID)))
		return 0
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		return 0
	}
	f := float64(n)
	if f < 0 || f > math.MaxUint32 || f != math.Trunc(f) {
		e.log.Error("lua select_target returned a bad id",
			zap.Float64("id", f), zap.Uint32("entity", uint32(self.ID)))
		return 0
	}
	return ecs.EntityID(f)
}

// ProjectileDamage calls projectile_damage, falling back to base.
func (e *Engine) ProjectileDamage(source, target world.Candidate, base int) int {
	fn := e.vm.GetGlobal("projectile_damage")
	if fn == lua.LNil {
		return base
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, e.candidateTable(source), e.candidateTable(target), lua.LNumber(base)); err != nil {
		e.log.Error("lua projectile_damage error", zap.Error(err))
		return base
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua projectile_damage returned non-number")
		return base
	}
	return int(n)
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
