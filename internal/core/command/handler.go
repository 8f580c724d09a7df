package command

import (
	"fmt"
	"math"
	"reflect"
)

// Handler is the fixed signature every command is adapted to. Arguments
// arrive as interpreter-native values: nil, bool, int, float64, string,
// []any or map[string]any.
type Handler func(args ...any) (any, error)

// Callable is a Handler together with the type names of its signature.
type Callable struct {
	Handler    Handler
	ParamTypes []string
	ReturnType string
}

const voidType = "void"

func Func0[R any](fn func() R) Callable {
	return Callable{
		Handler:    func(...any) (any, error) { return fn(), nil },
		ReturnType: typeName[R](),
	}
}

func Func1[A, R any](fn func(A) R) Callable {
	return Callable{
		Handler: func(args ...any) (any, error) {
			a, err := Arg[A](args, 0)
			if err != nil {
				return nil, err
			}
			return fn(a), nil
		},
		ParamTypes: []string{typeName[A]()},
		ReturnType: typeName[R](),
	}
}

func Func2[A, B, R any](fn func(A, B) R) Callable {
	return Callable{
		Handler: func(args ...any) (any, error) {
			a, err := Arg[A](args, 0)
			if err != nil {
				return nil, err
			}
			b, err := Arg[B](args, 1)
			if err != nil {
				return nil, err
			}
			return fn(a, b), nil
		},
		ParamTypes: []string{typeName[A](), typeName[B]()},
		ReturnType: typeName[R](),
	}
}

func Action0(fn func()) Callable {
	return Callable{
		Handler:    func(...any) (any, error) { fn(); return nil, nil },
		ReturnType: voidType,
	}
}

func Action1[A any](fn func(A)) Callable {
	return Callable{
		Handler: func(args ...any) (any, error) {
			a, err := Arg[A](args, 0)
			if err != nil {
				return nil, err
			}
			fn(a)
			return nil, nil
		},
		ParamTypes: []string{typeName[A]()},
		ReturnType: voidType,
	}
}

func Action2[A, B any](fn func(A, B)) Callable {
	return Callable{
		Handler: func(args ...any) (any, error) {
			a, err := Arg[A](args, 0)
			if err != nil {
				return nil, err
			}
			b, err := Arg[B](args, 1)
			if err != nil {
				return nil, err
			}
			fn(a, b)
			return nil, nil
		},
		ParamTypes: []string{typeName[A](), typeName[B]()},
		ReturnType: voidType,
	}
}

// Raw wraps an untyped handler; the declaration supplies the type names.
func Raw(returnType string, h Handler, paramTypes ...string) Callable {
	return Callable{Handler: h, ParamTypes: paramTypes, ReturnType: returnType}
}

// Arg converts args[i] to T. A missing or nil argument yields the zero value.
func Arg[T any](args []any, i int) (T, error) {
	var zero T
	if i >= len(args) || args[i] == nil {
		return zero, nil
	}
	v := args[i]
	if t, ok := v.(T); ok {
		return t, nil
	}

	var converted any
	switch any(zero).(type) {
	case int:
		n, ok := toFloat(v)
		if !ok || n != math.Trunc(n) {
			return zero, argError[T](i, v)
		}
		converted = int(n)
	case int64:
		n, ok := toFloat(v)
		if !ok || n != math.Trunc(n) {
			return zero, argError[T](i, v)
		}
		converted = int64(n)
	case float64:
		n, ok := toFloat(v)
		if !ok {
			return zero, argError[T](i, v)
		}
		converted = n
	case float32:
		n, ok := toFloat(v)
		if !ok {
			return zero, argError[T](i, v)
		}
		converted = float32(n)
	case string:
		converted = fmt.Sprint(v)
	default:
		return zero, argError[T](i, v)
	}
	return converted.(T), nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func argError[T any](i int, v any) error {
	return fmt.Errorf("%w: argument %d is %T, want %s", ErrArgumentType, i+1, v, typeName[T]())
}

func typeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return "any"
	}
	return t.String()
}
