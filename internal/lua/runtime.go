// Package lua executes workflow scripts: small sandboxed Lua programs that
// assemble a custom step sequence instead of using a built-in variant. The
// script only plans; execution stays with the orchestrator.
package lua

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"

	"github.com/lcroisez/undini/internal/steps"
)

// Runtime plans a step sequence from a Lua workflow script.
type Runtime struct {
	registry *steps.Registry
	logger   *slog.Logger

	plan []steps.Step
	logs []string

	stuckReason string
	isStuck     bool
}

func NewRuntime(registry *steps.Registry, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{registry: registry, logger: logger}
}

// Plan runs the script's workflow function and returns the step sequence it
// assembled. The script must define `workflow(iteration)` and call step()
// or variant() at least once.
func (r *Runtime) Plan(scriptPath string, iteration int) ([]steps.Step, error) {
	script, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("reading workflow script: %w", err)
	}

	r.plan = nil
	r.logs = nil
	r.isStuck = false

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // nothing from the host environment leaks in
	})
	defer L.Close()

	r.openSafeLibs(L)
	r.registerAPI(L, iteration)

	if err := L.DoString(string(script)); err != nil {
		return nil, fmt.Errorf("loading workflow script: %w", err)
	}

	workflow := L.GetGlobal("workflow")
	if workflow == lua.LNil {
		return nil, fmt.Errorf("script %s must define a 'workflow' function", filepath.Base(scriptPath))
	}

	L.Push(workflow)
	L.Push(lua.LNumber(iteration))
	if err := L.PCall(1, 0, nil); err != nil {
		if r.isStuck {
			return nil, fmt.Errorf("workflow gave up: %s", r.stuckReason)
		}
		return nil, fmt.Errorf("workflow script failed: %w", err)
	}
	if r.isStuck {
		return nil, fmt.Errorf("workflow gave up: %s", r.stuckReason)
	}

	if len(r.plan) == 0 {
		return nil, fmt.Errorf("workflow script produced no steps")
	}
	return r.plan, nil
}

// openSafeLibs loads only the deterministic standard libraries.
func (r *Runtime) openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)

	// No code loading, no host filesystem, no stdout.
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)
	L.SetGlobal("print", lua.LNil) // use log() instead

	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	math := L.GetGlobal("math")
	if tbl, ok := math.(*lua.LTable); ok {
		L.SetField(tbl, "random", lua.LNil)
		L.SetField(tbl, "randomseed", lua.LNil)
	}
}

func (r *Runtime) registerAPI(L *lua.LState, iteration int) {
	L.SetGlobal("step", L.NewFunction(r.luaStep))
	L.SetGlobal("variant", L.NewFunction(r.luaVariant))
	L.SetGlobal("stuck", L.NewFunction(r.luaStuck))
	L.SetGlobal("log", L.NewFunction(r.luaLog))

	ctx := L.NewTable()
	L.SetField(ctx, "iteration", lua.LNumber(iteration))
	L.SetGlobal("ctx", ctx)
}

// luaStep implements step(name): append one named step to the plan.
func (r *Runtime) luaStep(L *lua.LState) int {
	name := L.CheckString(1)
	s, err := r.registry.Step(name)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	r.plan = append(r.plan, s)
	return 0
}

// luaVariant implements variant(name): append a built-in variant's whole
// sequence to the plan.
func (r *Runtime) luaVariant(L *lua.LState) int {
	name := L.CheckString(1)
	seq, err := r.registry.Variant(name)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	r.plan = append(r.plan, seq...)
	return 0
}

// luaStuck implements stuck(reason?): abandon planning.
func (r *Runtime) luaStuck(L *lua.LState) int {
	reason := L.OptString(1, "workflow stuck")
	r.stuckReason = reason
	r.isStuck = true
	L.RaiseError("stuck: %s", reason)
	return 0
}

// luaLog implements log(message).
func (r *Runtime) luaLog(L *lua.LState) int {
	message := L.CheckString(1)
	r.logs = append(r.logs, message)
	r.logger.Info("workflow script", "message", message)
	return 0
}

// Logs returns the messages the script logged while planning.
func (r *Runtime) Logs() []string {
	return r.logs
}

// IsWorkflowScript reports whether path looks like a Lua workflow script.
func IsWorkflowScript(path string) bool {
	return filepath.Ext(path) == ".lua"
}
