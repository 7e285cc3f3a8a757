// Package filter decides which fetched objects a mirror run keeps. A filter is
// a JSON expression tree evaluated against the object payload.
package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/totegamma/enovia-go"
)

type Filter struct {
	expr *Expr
}

// Parse reads a filter from its JSON form. An empty string keeps everything.
func Parse(s string) (*Filter, error) {
	if strings.TrimSpace(s) == "" {
		return &Filter{}, nil
	}
	var expr Expr
	if err := json.Unmarshal([]byte(s), &expr); err != nil {
		return nil, errors.Wrap(err, "invalid filter expression")
	}
	return &Filter{expr: &expr}, nil
}

func New(expr Expr) *Filter {
	return &Filter{expr: &expr}
}

// Decide evaluates the filter against one object. An expression that does not
// evaluate to a bool is an error.
func (f *Filter) Decide(obj enovia.RawObject) (Decision, error) {
	if f == nil || f.expr == nil {
		return KEEP, nil
	}
	var fields map[string]any
	if len(obj.Raw) > 0 {
		if err := json.Unmarshal(obj.Raw, &fields); err != nil {
			return UNSET, errors.Wrapf(err, "object %s is not a json object", obj.ID)
		}
	} else {
		fields = map[string]any{"id": obj.ID, "type": obj.Type, "title": obj.Title, "state": obj.State}
	}

	result, err := Eval(fields, *f.expr)
	if err != nil {
		return UNSET, err
	}
	keep, ok := result.Result.(bool)
	if !ok {
		return UNSET, fmt.Errorf("filter evaluated to %v, not a bool", result.Result)
	}
	if keep {
		return KEEP, nil
	}
	return SKIP, nil
}

// Keep is Decide for callers that only need a yes or no.
func (f *Filter) Keep(obj enovia.RawObject) (bool, error) {
	d, err := f.Decide(obj)
	return d == KEEP, err
}

func Eval(obj map[string]any, expr Expr) (EvalResult, error) {

	if expr.Const != nil {
		return EvalResult{
			Operator: "Const",
			Result:   expr.Const,
		}, nil
	}

	args := make([]any, 0, len(expr.Args))
	for _, arg := range expr.Args {
		result, err := Eval(obj, arg)
		if err != nil {
			return EvalResult{
				Operator: expr.Operator,
				Error:    err.Error(),
			}, err
		}
		args = append(args, result.Result)
	}

	if operatorFunc, exists := operators[expr.Operator]; exists {
		return operatorFunc(obj, args)
	}

	err := fmt.Errorf("unknown operator: %s", expr.Operator)
	return EvalResult{
		Operator: expr.Operator,
		Error:    err.Error(),
	}, err
}
