package filter

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

type Operator func(obj map[string]any, args []any) (EvalResult, error)

var operators = make(map[string]Operator)

func init() {
	operators["And"] = opAnd
	operators["Or"] = opOr
	operators["Not"] = opNot
	operators["Eq"] = opEq
	operators["Contains"] = opContains
	operators["Prefix"] = opPrefix
	operators["Load"] = opLoad
}

func fail(op string, err error) (EvalResult, error) {
	return EvalResult{
		Operator: op,
		Error:    err.Error(),
	}, err
}

func opAnd(_ map[string]any, args []any) (EvalResult, error) {
	for i, arg := range args {
		evaluated, ok := arg.(bool)
		if !ok {
			return fail("And", fmt.Errorf("bad argument type for And at index %d: expected bool but got %v", i, reflect.TypeOf(arg)))
		}
		if !evaluated {
			return EvalResult{Operator: "And", Result: false}, nil
		}
	}
	return EvalResult{Operator: "And", Result: true}, nil
}

func opOr(_ map[string]any, args []any) (EvalResult, error) {
	for i, arg := range args {
		evaluated, ok := arg.(bool)
		if !ok {
			return fail("Or", fmt.Errorf("bad argument type for Or at index %d: expected bool but got %v", i, reflect.TypeOf(arg)))
		}
		if evaluated {
			return EvalResult{Operator: "Or", Result: true}, nil
		}
	}
	return EvalResult{Operator: "Or", Result: false}, nil
}

func opNot(_ map[string]any, args []any) (EvalResult, error) {
	if len(args) != 1 {
		return fail("Not", fmt.Errorf("bad argument length for Not: expected 1 but got %d", len(args)))
	}
	evaluated, ok := args[0].(bool)
	if !ok {
		return fail("Not", fmt.Errorf("bad argument type for Not: expected bool but got %v", reflect.TypeOf(args[0])))
	}
	return EvalResult{Operator: "Not", Result: !evaluated}, nil
}

func opEq(_ map[string]any, args []any) (EvalResult, error) {
	if len(args) != 2 {
		return fail("Eq", fmt.Errorf("bad argument length for Eq: expected 2 but got %d", len(args)))
	}
	return EvalResult{Operator: "Eq", Result: reflect.DeepEqual(args[0], args[1])}, nil
}

// opContains tests list membership, or substring inclusion for strings.
func opContains(_ map[string]any, args []any) (EvalResult, error) {
	if len(args) != 2 {
		return fail("Contains", fmt.Errorf("bad argument length for Contains: expected 2 but got %d", len(args)))
	}

	switch haystack := args[0].(type) {
	case []any:
		return EvalResult{Operator: "Contains", Result: slices.Contains(haystack, args[1])}, nil
	case string:
		needle, ok := args[1].(string)
		if !ok {
			return fail("Contains", fmt.Errorf("bad argument type for Contains: expected string but got %v", reflect.TypeOf(args[1])))
		}
		return EvalResult{Operator: "Contains", Result: strings.Contains(haystack, needle)}, nil
	default:
		return fail("Contains", fmt.Errorf("bad argument type for Contains: expected []any or string but got %v", reflect.TypeOf(args[0])))
	}
}

func opPrefix(_ map[string]any, args []any) (EvalResult, error) {
	if len(args) != 2 {
		return fail("Prefix", fmt.Errorf("bad argument length for Prefix: expected 2 but got %d", len(args)))
	}
	s, ok1 := args[0].(string)
	prefix, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return fail("Prefix", fmt.Errorf("bad argument types for Prefix: expected strings but got %v and %v", reflect.TypeOf(args[0]), reflect.TypeOf(args[1])))
	}
	return EvalResult{Operator: "Prefix", Result: strings.HasPrefix(s, prefix)}, nil
}

// opLoad reads a field of the object. Nested fields use dots, e.g.
// dseng:EnterpriseReference.partNumber. A missing field loads as nil.
func opLoad(obj map[string]any, args []any) (EvalResult, error) {
	if len(args) != 1 {
		return fail("Load", fmt.Errorf("bad argument length for Load: expected 1 but got %d", len(args)))
	}
	key, ok := args[0].(string)
	if !ok {
		return fail("Load", fmt.Errorf("bad argument type for Load: expected string but got %v", reflect.TypeOf(args[0])))
	}
	value, _ := resolveDotNotation(obj, key)
	return EvalResult{Operator: "Load", Result: value}, nil
}
