// Package script embeds a Lua runtime behind the command bridge interpreter
// contract.
package script

import (
	"fmt"
	"math"
	"sort"

	"github.com/Shopify/go-lua"

	"github.com/zeusync/gamecore/internal/core/command"
)

var _ command.Interpreter = (*Lua)(nil)

// Options configure the script runtime.
type Options struct {
	// AllowHostAccess opens the io, os, package and debug libraries and keeps
	// file loading builtins. Off, scripts see only base, string, table, math
	// and bit32.
	AllowHostAccess bool
}

// Lua is a single Lua state. It is not safe for concurrent use; the command
// bridge serializes access.
type Lua struct {
	state *lua.State
}

func NewLua(opts Options) *Lua {
	state := lua.NewState()
	if opts.AllowHostAccess {
		lua.OpenLibraries(state)
	} else {
		openSandbox(state)
	}
	return &Lua{state: state}
}

var sandboxLibraries = []lua.RegistryFunction{
	{Name: "_G", Function: lua.BaseOpen},
	{Name: "table", Function: lua.TableOpen},
	{Name: "string", Function: lua.StringOpen},
	{Name: "bit32", Function: lua.Bit32Open},
	{Name: "math", Function: lua.MathOpen},
}

func openSandbox(state *lua.State) {
	for _, lib := range sandboxLibraries {
		lua.Require(state, lib.Name, lib.Function, true)
		state.Pop(1)
	}
	for _, name := range []string{"dofile", "loadfile"} {
		state.PushNil()
		state.SetGlobal(name)
	}
}

// Bind registers h as a global Lua function.
func (l *Lua) Bind(name string, h command.Handler) error {
	if h == nil {
		return fmt.Errorf("bind %s: nil handler", name)
	}
	l.state.Register(name, wrapHandler(h))
	return nil
}

// Eval runs src. Expressions are tried first so that `tps()` or `1 + 1`
// yield a value; statements fall back to plain execution. The first value
// left by the chunk is the completion value.
func (l *Lua) Eval(src string) (result any, err error) {
	state := l.state
	top := state.Top()
	defer state.SetTop(top)

	if loadErr := lua.LoadString(state, "return "+src); loadErr != nil {
		state.SetTop(top)
		if loadErr = lua.LoadString(state, src); loadErr != nil {
			return nil, fmt.Errorf("parse: %s", errorMessage(state, top, loadErr))
		}
	}

	if callErr := state.ProtectedCall(0, lua.MultipleReturns, 0); callErr != nil {
		return nil, fmt.Errorf("run: %s", errorMessage(state, top, callErr))
	}
	if state.Top() == top {
		return nil, nil
	}
	return toGo(state, top+1), nil
}

func errorMessage(state *lua.State, top int, err error) string {
	if state.Top() > top {
		if msg, ok := state.ToString(-1); ok && msg != "" {
			return msg
		}
	}
	return err.Error()
}

func wrapHandler(h command.Handler) lua.Function {
	return func(state *lua.State) int {
		n := state.Top()
		args := make([]any, n)
		for i := 1; i <= n; i++ {
			args[i-1] = toGo(state, i)
		}

		result, err := callHandler(h, args)
		if err != nil {
			lua.Errorf(state, "%s", err.Error())
			return 0
		}
		pushGo(state, result)
		return 1
	}
}

func callHandler(h command.Handler, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command panicked: %v", r)
		}
	}()
	return h(args...)
}

func toGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	case lua.TypeUserData:
		return state.ToUserData(index)
	default:
		return nil
	}
}

func tableToGo(state *lua.State, index int) any {
	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, toGo(state, -1))
			state.Pop(1)
		}
		return result
	}

	output := map[string]any{}
	state.PushNil()
	for state.Next(index) {
		// Copy the key so ToString does not convert it in place and break Next.
		state.PushValue(-2)
		if key, ok := state.ToString(-1); ok {
			output[key] = toGo(state, -2)
		}
		state.Pop(2)
	}
	return output
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 && math.Abs(value) < 1<<53 {
		return int(value)
	}
	return value
}

func pushGo(state *lua.State, value any) {
	switch v := value.(type) {
	case nil:
		state.PushNil()
	case bool:
		state.PushBoolean(v)
	case string:
		state.PushString(v)
	case int:
		state.PushInteger(v)
	case int32:
		state.PushInteger(int(v))
	case int64:
		state.PushNumber(float64(v))
	case uint64:
		state.PushNumber(float64(v))
	case uint32:
		state.PushNumber(float64(v))
	case float64:
		state.PushNumber(v)
	case float32:
		state.PushNumber(float64(v))
	case []string:
		state.CreateTable(len(v), 0)
		for i, s := range v {
			state.PushString(s)
			state.RawSetInt(-2, i+1)
		}
	case []any:
		state.CreateTable(len(v), 0)
		for i, item := range v {
			pushGo(state, item)
			state.RawSetInt(-2, i+1)
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		state.CreateTable(0, len(v))
		for _, k := range keys {
			pushGo(state, v[k])
			state.SetField(-2, k)
		}
	case error:
		state.PushString(v.Error())
	case fmt.Stringer:
		state.PushString(v.String())
	default:
		state.PushUserData(v)
	}
}
