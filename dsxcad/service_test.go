package dsxcad_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/dsxcad"
	"github.com/totegamma/enovia-go/internal/testutil"
	"github.com/totegamma/enovia-go/modeler"
)

func seed(f *testutil.Fixture) {
	f.Space.Seed(dsxcad.TypePart, map[string]any{"id": "PRT-1", "title": "Bolt M6", "material": "Steel", "isLastRevision": true})
	f.Space.Seed(dsxcad.TypeProduct, map[string]any{"id": "PRD-1", "title": "Gearbox"})
	f.Space.Seed(dsxcad.TypeRepresentation, map[string]any{"id": "REP-1", "title": "Bolt shape", "fileName": "bolt.CATPart", "fileSize": 2048})
	f.Space.Seed(dsxcad.TypeTemplate, map[string]any{"id": "TPL-1", "title": "Standard gearbox", "category": "Assemblies"})
}

func TestMaskSelectsResource(t *testing.T) {
	f := testutil.NewFixture(t)
	seed(f)
	svc := dsxcad.NewService(f.Client)
	ctx := context.Background()

	part, err := dsxcad.Get[dsxcad.PartDetails](ctx, svc, "PRT-1")
	require.NoError(t, err)
	assert.Equal(t, "PRT-1", part.ID)
	assert.Equal(t, "Steel", part.Material)
	assert.True(t, part.IsLastRevision)

	product, err := dsxcad.Get[dsxcad.ProductDefault](ctx, svc, "PRD-1")
	require.NoError(t, err)
	assert.Equal(t, "PRD-1", product.ID)

	rep, err := dsxcad.Get[dsxcad.RepresentationDetails](ctx, svc, "REP-1")
	require.NoError(t, err)
	assert.Equal(t, "bolt.CATPart", rep.FileName)
	assert.EqualValues(t, 2048, rep.FileSize)
	assert.Equal(t, "3DShape", rep.Type)

	tpl, err := dsxcad.Get[dsxcad.TemplateDefault](ctx, svc, "TPL-1")
	require.NoError(t, err)
	assert.Equal(t, "Assemblies", tpl.Category)

	_, err = dsxcad.Get[dsxcad.PartDefault](ctx, svc, "PRD-1")
	assert.ErrorIs(t, err, enovia.ErrNotFound)

	_, err = modeler.Get[dsxcad.ProductDefault](ctx, svc.Resource(dsxcad.TypePart), "PRT-1")
	assert.ErrorIs(t, err, modeler.ErrMaskNotAllowed)
}

func TestSearchAndModify(t *testing.T) {
	f := testutil.NewFixture(t)
	seed(f)
	svc := dsxcad.NewService(f.Client)
	ctx := context.Background()

	parts, err := dsxcad.SearchAll[dsxcad.PartDefault](ctx, svc, modeler.Query{Text: "bolt"})
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "PRT-1", parts[0].ID)

	reps, err := dsxcad.SearchAll[dsxcad.RepresentationDefault](ctx, svc, modeler.Query{Text: "bolt"})
	require.NoError(t, err)
	require.Len(t, reps, 1)
	assert.Equal(t, "REP-1", reps[0].ID)

	updated, err := dsxcad.Modify[dsxcad.PartDefault](ctx, svc, "PRT-1", dsxcad.ModifyRequest{
		Cestamp:     parts[0].Cestamp,
		Description: "ISO 4017",
	})
	require.NoError(t, err)
	assert.Equal(t, "ISO 4017", updated.Description)

	require.NoError(t, svc.Delete(ctx, dsxcad.TypeRepresentation, "REP-1"))
	var verr *modeler.ValidationError
	assert.ErrorAs(t, svc.Delete(ctx, "dseng:EngItem", "REP-1"), &verr)
}

func TestRepresentations(t *testing.T) {
	f := testutil.NewFixture(t)
	seed(f)
	svc := dsxcad.NewService(f.Client)
	ctx := context.Background()
	shape := svc.Reference(dsxcad.TypeRepresentation, "REP-1")
	assert.Equal(t, "3DShape", shape.Type)

	require.NoError(t, svc.AttachRepresentation(ctx, dsxcad.TypePart, "PRT-1", shape))
	links, err := svc.Representations(ctx, dsxcad.TypePart, "PRT-1")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "REP-1", links[0].ID)

	require.NoError(t, svc.DetachRepresentation(ctx, dsxcad.TypePart, "PRT-1", shape))
	links, err = svc.Representations(ctx, dsxcad.TypePart, "PRT-1")
	require.NoError(t, err)
	assert.Empty(t, links)

	calls := f.ModelerCalls()
	err = svc.AttachRepresentation(ctx, dsxcad.TypeTemplate, "TPL-1", shape)
	var verr *modeler.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, calls, f.ModelerCalls())
}

func TestInstantiateAndInstances(t *testing.T) {
	f := testutil.NewFixture(t)
	seed(f)
	svc := dsxcad.NewService(f.Client)
	ctx := context.Background()

	products, err := dsxcad.Instantiate[dsxcad.ProductDetails](ctx, svc, "TPL-1", dsxcad.InstantiateRequest{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	product := products[0]
	assert.Equal(t, "Standard gearbox", product.Title)
	assert.Equal(t, "TPL-1", product.Template)

	got, err := dsxcad.Get[dsxcad.ProductDefault](ctx, svc, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, got.ID)

	_, err = dsxcad.Instantiate[dsxcad.ProductDefault](ctx, svc, "TPL-404", dsxcad.InstantiateRequest{Title: "x"})
	assert.ErrorIs(t, err, enovia.ErrNotFound)

	added, err := svc.AddProductInstance(ctx, "PRD-1", dsxcad.InstanceRequest{
		Items: []dsxcad.InstanceItem{{ReferencedObject: svc.Reference(dsxcad.TypeProduct, product.ID)}},
	})
	require.NoError(t, err)
	require.Len(t, added, 1)

	rows, err := svc.ProductInstances(ctx, "PRD-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, product.ID, rows[0].ReferencedObject.Identifier)

	require.NoError(t, svc.RemoveProductInstance(ctx, "PRD-1", added[0].ID))
	rows, err = svc.ProductInstances(ctx, "PRD-1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
