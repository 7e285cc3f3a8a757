package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/enovia-go"
)

func raw(t *testing.T, v map[string]any) enovia.RawObject {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var obj enovia.RawObject
	require.NoError(t, json.Unmarshal(b, &obj))
	return obj
}

func load(key string) Expr {
	return Expr{Operator: "Load", Args: []Expr{{Const: key}}}
}

func TestEvalLoadsNestedFields(t *testing.T) {
	obj := map[string]any{
		"state": "RELEASED",
		"dseng:EnterpriseReference": map[string]any{
			"partNumber": "PN-42",
		},
	}

	result, err := Eval(obj, Expr{
		Operator: "And",
		Args: []Expr{
			{Operator: "Eq", Args: []Expr{load("state"), {Const: "RELEASED"}}},
			{Operator: "Prefix", Args: []Expr{load("dseng:EnterpriseReference.partNumber"), {Const: "PN-"}}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, true, result.Result)

	result, err = Eval(obj, load("missing.field"))
	require.NoError(t, err)
	assert.Nil(t, result.Result)
}

func TestOperatorErrors(t *testing.T) {
	cases := map[string]Expr{
		"and of string": {Operator: "And", Args: []Expr{{Const: "yes"}}},
		"not arity":     {Operator: "Not", Args: []Expr{{Const: true}, {Const: false}}},
		"eq arity":      {Operator: "Eq", Args: []Expr{{Const: 1.0}}},
		"contains type": {Operator: "Contains", Args: []Expr{{Const: 3.0}, {Const: 3.0}}},
		"prefix type":   {Operator: "Prefix", Args: []Expr{{Const: 3.0}, {Const: "3"}}},
		"unknown":       {Operator: "Sum", Args: []Expr{{Const: 1.0}}},
	}
	for name, expr := range cases {
		t.Run(name, func(t *testing.T) {
			result, err := Eval(map[string]any{}, expr)
			assert.Error(t, err)
			assert.NotEmpty(t, result.Error)
		})
	}
}

func TestContains(t *testing.T) {
	obj := map[string]any{"title": "Front bracket", "tags": []any{"steel", "welded"}}

	result, err := Eval(obj, Expr{Operator: "Contains", Args: []Expr{load("tags"), {Const: "welded"}}})
	require.NoError(t, err)
	assert.Equal(t, true, result.Result)

	result, err = Eval(obj, Expr{Operator: "Contains", Args: []Expr{load("title"), {Const: "rear"}}})
	require.NoError(t, err)
	assert.Equal(t, false, result.Result)
}

func TestParseAndDecide(t *testing.T) {
	f, err := Parse(`{"op":"Or","args":[
		{"op":"Eq","args":[{"op":"Load","args":[{"const":"state"}]},{"const":"RELEASED"}]},
		{"op":"Not","args":[{"op":"Eq","args":[{"op":"Load","args":[{"const":"isLastRevision"}]},{"const":false}]}]}
	]}`)
	require.NoError(t, err)

	d, err := f.Decide(raw(t, map[string]any{"id": "A", "state": "RELEASED", "isLastRevision": false}))
	require.NoError(t, err)
	assert.Equal(t, KEEP, d)

	d, err = f.Decide(raw(t, map[string]any{"id": "B", "state": "IN_WORK", "isLastRevision": false}))
	require.NoError(t, err)
	assert.Equal(t, SKIP, d)

	keep, err := f.Keep(raw(t, map[string]any{"id": "C", "state": "IN_WORK", "isLastRevision": true}))
	require.NoError(t, err)
	assert.True(t, keep)
}

func TestEmptyFilterKeepsEverything(t *testing.T) {
	f, err := Parse("  ")
	require.NoError(t, err)
	d, err := f.Decide(enovia.RawObject{Object: enovia.Object{ID: "A"}})
	require.NoError(t, err)
	assert.Equal(t, KEEP, d)

	var none *Filter
	keep, err := none.Keep(enovia.RawObject{})
	require.NoError(t, err)
	assert.True(t, keep)
}

func TestNonBoolResult(t *testing.T) {
	f := New(load("title"))
	d, err := f.Decide(raw(t, map[string]any{"id": "A", "title": "x"}))
	assert.Error(t, err)
	assert.Equal(t, UNSET, d)

	_, err = Parse(`{"op":`)
	assert.Error(t, err)
}
