package gateway

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/enovia-go/dseng"
	"github.com/totegamma/enovia-go/internal/testutil"
	"github.com/totegamma/enovia-go/modeler"
)

func seed(f *testutil.Fixture, n int) {
	for i := 1; i <= n; i++ {
		f.Space.Seed(dseng.TypeEngItem, map[string]any{
			"id":    fmt.Sprintf("EI-%02d", i),
			"title": fmt.Sprintf("bracket %d", i),
			"dseng:EnterpriseReference": map[string]any{
				"partNumber": fmt.Sprintf("PN-%02d", i),
			},
		})
	}
}

func TestLookupKind(t *testing.T) {
	k, err := LookupKind("engitem")
	require.NoError(t, err)
	assert.Equal(t, dseng.TypeEngItem, k.Definition.Type)

	k, err = LookupKind("dsxcad:Template")
	require.NoError(t, err)
	assert.Equal(t, "template", k.Name)

	_, err = LookupKind("widget")
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.ErrorContains(t, err, "drawing")
}

func TestEveryKindServesItsMasks(t *testing.T) {
	for _, k := range kinds {
		r := modeler.NewResource(nil, k.Definition)
		assert.True(t, r.Allows(k.SearchMask), k.Name)
		assert.True(t, r.Allows(k.FetchMask), k.Name)
	}
}

func TestSourceSearchAndFetch(t *testing.T) {
	f := testutil.NewFixture(t)
	seed(f, 5)
	g := NewModelerGateway(f.Client, 2)
	ctx := context.Background()

	src, err := g.Source("engitem")
	require.NoError(t, err)
	assert.Equal(t, dseng.TypeEngItem, src.Resource())

	var ids []string
	for obj, err := range src.Search(ctx, "bracket") {
		require.NoError(t, err)
		ids = append(ids, obj.ID)
	}
	assert.Equal(t, []string{"EI-01", "EI-02", "EI-03", "EI-04", "EI-05"}, ids)

	res, err := src.Fetch(ctx, []string{"EI-02", "EI-77"})
	require.NoError(t, err)
	require.Len(t, res.Succeeded, 1)
	assert.Equal(t, "EI-02", res.Succeeded[0].ID)
	assert.Contains(t, string(res.Succeeded[0].Raw), "PN-02")
	assert.Equal(t, []string{"EI-77"}, res.Failed)
}

func TestGetIsCached(t *testing.T) {
	f := testutil.NewFixture(t)
	seed(f, 1)
	g := NewModelerGateway(f.Client, 0)
	ctx := context.Background()

	obj, err := g.Get(ctx, "engitem", "EI-01", false)
	require.NoError(t, err)
	assert.Equal(t, "bracket 1", obj.Title)
	calls := f.ModelerCalls()

	_, err = g.Get(ctx, "engitem", "EI-01", false)
	require.NoError(t, err)
	assert.Equal(t, calls, f.ModelerCalls())

	_, err = g.Get(ctx, "engitem", "EI-01", true)
	require.NoError(t, err)
	assert.Equal(t, calls+1, f.ModelerCalls())

	page, err := g.SearchPage(ctx, "engitem", modeler.Query{Text: "bracket", Top: 10})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
