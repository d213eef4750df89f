// Package scripting wraps a single gopher-lua VM for the tunable game
// formulas (XP rewards, level curve). Scripts are embedded so the server
// binary is self-contained; a scripts directory on disk overrides them for
// live rebalancing.
package scripting

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

//go:embed scripts/*.lua
var embeddedScripts embed.FS

// Engine is single-goroutine only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates the VM, loads the embedded scripts, then overlays any
// .lua files found in overrideDir (may be empty or missing).
func NewEngine(overrideDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	entries, err := embeddedScripts.ReadDir("scripts")
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("read embedded scripts: %w", err)
	}
	for _, entry := range entries {
		raw, err := embeddedScripts.ReadFile("scripts/" + entry.Name())
		if err != nil {
			vm.Close()
			return nil, err
		}
		if err := vm.DoString(string(raw)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
	}

	if overrideDir != "" {
		if err := e.loadDir(overrideDir); err != nil {
			vm.Close()
			return nil, err
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory, skipping missing dirs.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
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

// XPForKill returns the XP reward for killing the named species.
func (e *Engine) XPForKill(species string) int {
	return e.callIntFunc("xp_for_kill", lua.LString(species))
}

// XPForPlayerKill returns the XP reward for a PvP kill.
func (e *Engine) XPForPlayerKill() int {
	return e.callIntFunc("xp_for_player_kill")
}

// LevelFromXP maps total XP to a character level.
func (e *Engine) LevelFromXP(xp int) int {
	return e.callIntFunc("level_from_xp", lua.LNumber(xp))
}

// XPForLevel returns the total XP required to reach a level.
func (e *Engine) XPForLevel(level int) int {
	return e.callIntFunc("xp_for_level", lua.LNumber(level))
}

// callIntFunc calls a Lua function and returns its int result.
func (e *Engine) callIntFunc(name string, args ...lua.LValue) int {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("name", name))
		return 0
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return 0
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return int(lua.LVAsNumber(result))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
