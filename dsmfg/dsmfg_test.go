package dsmfg_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/dseng"
	"github.com/totegamma/enovia-go/dsmfg"
	"github.com/totegamma/enovia-go/internal/testutil"
	"github.com/totegamma/enovia-go/modeler"
)

func seed(f *testutil.Fixture) {
	f.Space.Seed(dsmfg.TypeMfgItem, map[string]any{"id": "MFG-1", "title": "Weld assembly", "manufacturingType": "Weld"})
	f.Space.Seed(dsmfg.TypeMfgItem, map[string]any{"id": "MFG-2", "title": "Paint assembly"})
	f.Space.Seed(dseng.TypeEngItem, map[string]any{"id": "ENG-1", "title": "Frame"})
}

func TestGetAndSearch(t *testing.T) {
	f := testutil.NewFixture(t)
	seed(f)
	svc := dsmfg.NewService(f.Client)
	ctx := context.Background()

	item, err := dsmfg.Get[dsmfg.MfgItemDetails](ctx, svc, "MFG-1")
	require.NoError(t, err)
	assert.Equal(t, "MFG-1", item.ID)
	assert.Equal(t, "Weld", item.ManufacturingType)

	found, err := dsmfg.SearchAll[dsmfg.MfgItemDefault](ctx, svc, modeler.Query{Text: "assembly"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = modeler.Get[dseng.EngItemDefault](ctx, svc.Resource(), "MFG-1")
	assert.ErrorIs(t, err, modeler.ErrMaskNotAllowed)

	_, err = dsmfg.Get[dsmfg.MfgItemDefault](ctx, svc, "MFG-404")
	assert.ErrorIs(t, err, enovia.ErrNotFound)
}

func TestInstances(t *testing.T) {
	f := testutil.NewFixture(t)
	seed(f)
	svc := dsmfg.NewService(f.Client)
	ctx := context.Background()

	added, err := svc.AddInstance(ctx, "MFG-1", dsmfg.InstanceRequest{
		Items: []dsmfg.InstanceItem{{ReferencedObject: svc.Reference("MFG-2")}},
	})
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "MFG-2", added[0].ReferencedObject.Identifier)

	rows, err := svc.Instances(ctx, "MFG-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, svc.RemoveInstance(ctx, "MFG-1", added[0].ID))
	rows, err = svc.Instances(ctx, "MFG-1")
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = svc.AddInstance(ctx, "MFG-1", dsmfg.InstanceRequest{})
	var verr *modeler.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestScopes(t *testing.T) {
	f := testutil.NewFixture(t)
	seed(f)
	svc := dsmfg.NewService(f.Client)
	eng := dseng.NewService(f.Client)
	ctx := context.Background()

	require.NoError(t, svc.AttachScope(ctx, "MFG-1", eng.Reference("ENG-1")))
	require.NoError(t, svc.AttachScope(ctx, "MFG-1", eng.Reference("ENG-1")))

	scopes, err := svc.Scopes(ctx, "MFG-1")
	require.NoError(t, err)
	require.Len(t, scopes, 1)
	assert.Equal(t, "ENG-1", scopes[0].ID)

	require.NoError(t, svc.DetachScope(ctx, "MFG-1", eng.Reference("ENG-1")))
	scopes, err = svc.Scopes(ctx, "MFG-1")
	require.NoError(t, err)
	assert.Empty(t, scopes)

	calls := f.ModelerCalls()
	err = svc.AttachScope(ctx, "MFG-1")
	var verr *modeler.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, calls, f.ModelerCalls())
}

func TestBulkFetchAndDelete(t *testing.T) {
	f := testutil.NewFixture(t)
	seed(f)
	svc := dsmfg.NewService(f.Client)
	ctx := context.Background()

	res, err := dsmfg.BulkFetch[dsmfg.MfgItemDefault](ctx, svc, []string{"MFG-1", "MFG-2", "MFG-9"})
	require.NoError(t, err)
	assert.Len(t, res.Succeeded, 2)
	assert.Equal(t, []string{"MFG-9"}, res.Failed)

	require.NoError(t, svc.Delete(ctx, "MFG-2"))
	res, err = dsmfg.BulkFetch[dsmfg.MfgItemDefault](ctx, svc, []string{"MFG-1", "MFG-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MFG-2"}, res.Failed)
}
