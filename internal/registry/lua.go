package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// RegisterLua registers a handler backed by a Lua script. The script
// must define a global handle(params) function taking a table of
// arguments and returning a value that becomes the call's result; a
// Lua error becomes the call's error. The script is validated once at
// registration and re-executed in a fresh state per call, so handlers
// cannot leak state into each other.
func (r *Registry) RegisterLua(name, scriptPath string) error {
	absPath, err := filepath.Abs(scriptPath)
	if err != nil {
		return fmt.Errorf("script path: %w", err)
	}
	if err := validateLuaScript(absPath); err != nil {
		return err
	}

	r.Register(name, func(_ context.Context, params map[string]any, hctx *HandlerContext) (any, error) {
		return runLuaHandler(absPath, params, hctx)
	})
	return nil
}

func validateLuaScript(absPath string) error {
	lState := lua.NewState()
	defer lState.Close()
	lState.PreloadModule("os", osModuleLoader)

	if err := lState.DoFile(absPath); err != nil {
		return fmt.Errorf("load script: %w", err)
	}
	fn := lState.GetGlobal("handle")
	if fn.Type() == lua.LTNil {
		return fmt.Errorf("script must define global function handle(params)")
	}
	if fn.Type() != lua.LTFunction {
		return fmt.Errorf("handle must be a function, got %s", fn.Type().String())
	}
	return nil
}

func runLuaHandler(absPath string, params map[string]any, hctx *HandlerContext) (any, error) {
	lState := lua.NewState()
	defer lState.Close()
	lState.PreloadModule("os", osModuleLoader)

	if err := lState.DoFile(absPath); err != nil {
		return nil, fmt.Errorf("load script: %w", err)
	}

	args := lState.NewTable()
	for key, value := range params {
		lState.SetField(args, key, toLuaValue(lState, value))
	}
	prior := lState.NewTable()
	for key, value := range hctx.Results {
		lState.SetField(prior, key, toLuaValue(lState, value))
	}
	lState.SetGlobal("results", prior)

	lState.Push(lState.GetGlobal("handle"))
	lState.Push(args)
	if err := lState.PCall(1, 1, nil); err != nil {
		return nil, fmt.Errorf("handle(): %w", err)
	}

	ret := lState.Get(-1)
	lState.Pop(1)
	return fromLuaValue(ret), nil
}

func toLuaValue(lState *lua.LState, v any) lua.LValue {
	switch value := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(value)
	case string:
		return lua.LString(value)
	case float64:
		return lua.LNumber(value)
	case int:
		return lua.LNumber(value)
	case []any:
		tbl := lState.NewTable()
		for _, item := range value {
			tbl.Append(toLuaValue(lState, item))
		}
		return tbl
	case map[string]any:
		tbl := lState.NewTable()
		for key, item := range value {
			lState.SetField(tbl, key, toLuaValue(lState, item))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprintf("%v", value))
	}
}

func fromLuaValue(lv lua.LValue) any {
	switch value := lv.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(value)
	case lua.LString:
		return string(value)
	case lua.LNumber:
		return float64(value)
	case *lua.LTable:
		// A table with only positive integer keys decodes as a slice.
		maxIndex := value.MaxN()
		if maxIndex > 0 {
			list := make([]any, 0, maxIndex)
			for i := 1; i <= maxIndex; i++ {
				list = append(list, fromLuaValue(value.RawGetInt(i)))
			}
			return list
		}
		obj := make(map[string]any)
		value.ForEach(func(k, v lua.LValue) {
			obj[k.String()] = fromLuaValue(v)
		})
		return obj
	default:
		return lv.String()
	}
}

// osModuleLoader exposes a minimal os module to scripts: getenv and
// time only.
func osModuleLoader(lState *lua.LState) int {
	mod := lState.NewTable()
	lState.SetField(mod, "getenv", lState.NewFunction(func(ls *lua.LState) int {
		ls.Push(lua.LString(os.Getenv(ls.CheckString(1))))
		return 1
	}))
	lState.SetField(mod, "time", lState.NewFunction(func(ls *lua.LState) int {
		ls.Push(lua.LNumber(time.Now().Unix()))
		return 1
	}))
	lState.Push(mod)
	return 1
}
