package modeler_test

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/client"
	"github.com/totegamma/enovia-go/modeler"
)

func ids[T modeler.Projection](items []T) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Identifier()
	}
	return out
}

func TestGetReturnsRequestedID(t *testing.T) {
	s := newSpace(3, "AAA27")
	r := newResource(t, s)
	ctx := context.Background()

	def, err := modeler.Get[itemDefault](ctx, r, "AAA27-02")
	require.NoError(t, err)
	assert.Equal(t, "AAA27-02", def.ID)

	det, err := modeler.Get[itemDetails](ctx, r, "AAA27-02")
	require.NoError(t, err)
	assert.Equal(t, "AAA27-02", det.ID)
	assert.Equal(t, "PN-2", det.PartNumber)

	log := s.log()
	require.Len(t, log, 2)
	assert.Equal(t, "/resources/v1/modeler/dseng/dseng:EngItem/AAA27-02", log[0].Path)
	assert.Equal(t, string(maskDefault), log[0].Query["$mask"])
	assert.Equal(t, string(maskDetails), log[1].Query["$mask"])
}

func TestGetNotFound(t *testing.T) {
	s := newSpace(1, "AAA27")
	r := newResource(t, s)
	ctx := context.Background()

	_, err := modeler.Get[itemDefault](ctx, r, "missing")
	assert.ErrorIs(t, err, enovia.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, client.StatusCode(err))

	_, err = modeler.Get[itemDefault](ctx, r, "empty")
	assert.ErrorIs(t, err, enovia.ErrNotFound)
	assert.Equal(t, 0, client.StatusCode(err))
}

func TestUnsupportedMaskMakesNoRequest(t *testing.T) {
	s := newSpace(3, "AAA27")
	r := newResource(t, s)
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["get"] = modeler.Get[itemBogus](ctx, r, "AAA27-01")
	_, checks["page"] = modeler.SearchPage[itemBogus](ctx, r, modeler.Query{Text: "AAA27"})
	_, checks["all"] = modeler.SearchAll[itemBogus](ctx, r, modeler.Query{Text: "AAA27"})
	_, checks["create"] = modeler.Create[itemBogus](ctx, r, map[string]any{"title": "x"})
	_, checks["modify"] = modeler.Modify[itemBogus](ctx, r, "AAA27-01", map[string]any{"title": "x"})
	_, checks["bulkfetch"] = modeler.BulkFetch[itemBogus](ctx, r, []string{"AAA27-01"})
	_, checks["bulkupdate"] = modeler.BulkUpdate[itemBogus](ctx, r, []enovia.UpdateItem{{ID: "AAA27-01"}})
	_, checks["locate"] = modeler.Locate[itemBogus](ctx, r, enovia.NewTypedURI("VPMReference", "AAA27-01", ""))
	_, checks["related"] = modeler.Related[itemDefault](ctx, r, "AAA27-01", instances)

	for name, err := range checks {
		assert.ErrorIs(t, err, modeler.ErrMaskNotAllowed, name)
		var maskErr *modeler.MaskError
		assert.True(t, errors.As(err, &maskErr), name)
	}
	assert.Zero(t, s.calls.Load(), "no request may leave before the mask is checked")
}

func TestSearchPageWindows(t *testing.T) {
	s := newSpace(15, "AAA27")
	s.add("ZZZ-1", "unrelated")
	r := newResource(t, s)
	ctx := context.Background()

	first, err := modeler.SearchPage[itemDefault](ctx, r, modeler.Query{Text: "AAA27", Skip: 0, Top: 10})
	require.NoError(t, err)
	second, err := modeler.SearchPage[itemDefault](ctx, r, modeler.Query{Text: "AAA27", Skip: 10, Top: 10})
	require.NoError(t, err)

	assert.Len(t, first, 10)
	assert.Len(t, second, 5)
	for _, a := range ids(first) {
		assert.NotContains(t, ids(second), a)
	}

	all, err := modeler.SearchAll[itemDefault](ctx, r, modeler.Query{Text: "AAA27"})
	require.NoError(t, err)

	union := append(ids(first), ids(second)...)
	got := ids(all)
	sort.Strings(union)
	sort.Strings(got)
	assert.Equal(t, union, got)

	log := s.log()
	assert.Equal(t, "AAA27", log[0].Query["$searchStr"])
	assert.Equal(t, "0", log[0].Query["$skip"])
	assert.Equal(t, "10", log[0].Query["$top"])
	assert.Equal(t, "10", log[1].Query["$skip"])
}

func TestSearchPagesUntilShortPage(t *testing.T) {
	s := newSpace(15, "AAA27")
	r := newResource(t, s).WithPageSize(5)
	ctx := context.Background()

	all, err := modeler.SearchAll[itemDefault](ctx, r, modeler.Query{Text: "AAA27"})
	require.NoError(t, err)
	assert.Len(t, all, 15)
	// three full pages, then an empty one
	assert.Equal(t, int32(4), s.calls.Load())
}

func TestSearchSkipsDuplicates(t *testing.T) {
	s := newSpace(15, "AAA27")
	s.overlap = true
	r := newResource(t, s).WithPageSize(10)

	all, err := modeler.SearchAll[itemDefault](context.Background(), r, modeler.Query{Text: "AAA27"})
	require.NoError(t, err)
	assert.Len(t, all, 15)

	seen := map[string]bool{}
	for _, id := range ids(all) {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
}

func TestSearchStopsWhenServerIgnoresSkip(t *testing.T) {
	s := newSpace(4, "AAA27")
	s.stuck = true
	r := newResource(t, s).WithPageSize(2)

	all, err := modeler.SearchAll[itemDefault](context.Background(), r, modeler.Query{Text: "AAA27"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA27-01", "AAA27-02"}, ids(all))
	// the second page repeats the first and ends the search
	assert.Equal(t, int32(2), s.calls.Load())
}

func TestSearchIsLazyAndRestartable(t *testing.T) {
	s := newSpace(15, "AAA27")
	r := newResource(t, s).WithPageSize(5)
	ctx := context.Background()

	seq := modeler.Search[itemDefault](ctx, r, modeler.Query{Text: "AAA27", Skip: 3})
	assert.Zero(t, s.calls.Load())

	var taken []string
	for item, err := range seq {
		require.NoError(t, err)
		taken = append(taken, item.ID)
		if len(taken) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"AAA27-04", "AAA27-05"}, taken)
	assert.Equal(t, int32(1), s.calls.Load())

	var again []string
	for item, err := range seq {
		require.NoError(t, err)
		again = append(again, item.ID)
	}
	assert.Len(t, again, 12)
	assert.Equal(t, "AAA27-04", again[0])
}

func TestSearchRejectsNegativeWindow(t *testing.T) {
	s := newSpace(1, "AAA27")
	r := newResource(t, s)

	_, err := modeler.SearchPage[itemDefault](context.Background(), r, modeler.Query{Text: "AAA27", Skip: -1})
	var verr *modeler.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, s.calls.Load())
}

func TestBulkFetchPartitionsInput(t *testing.T) {
	s := newSpace(5, "AAA27")
	r := newResource(t, s)

	input := []string{"AAA27-01", "bad-1", "AAA27-03", "gone", "AAA27-05"}
	result, err := modeler.BulkFetch[itemDefault](context.Background(), r, input)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA27-01", "AAA27-03", "AAA27-05"}, ids(result.Succeeded))
	assert.ElementsMatch(t, []string{"bad-1", "gone"}, result.Failed)
	assert.Equal(t, len(input), result.Total())
	assert.JSONEq(t, `["AAA27-01","bad-1","AAA27-03","gone","AAA27-05"]`, s.log()[0].Body)
}

func TestBulkFetchCountsRepeatedIDsOnce(t *testing.T) {
	s := newSpace(3, "AAA27")
	s.doubled = true
	r := newResource(t, s)

	input := []string{"AAA27-01", "AAA27-01", "gone", "AAA27-02", "gone"}
	result, err := modeler.BulkFetch[itemDefault](context.Background(), r, input)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA27-01", "AAA27-02"}, ids(result.Succeeded))
	assert.Equal(t, []string{"gone"}, result.Failed)
	assert.Equal(t, 3, result.Total())
	assert.JSONEq(t, `["AAA27-01","gone","AAA27-02"]`, s.log()[0].Body)
}

func TestBulkFetchRequiresIDs(t *testing.T) {
	s := newSpace(1, "AAA27")
	r := newResource(t, s)

	_, err := modeler.BulkFetch[itemDefault](context.Background(), r, nil)
	var verr *modeler.ValidationError
	assert.ErrorAs(t, err, &verr)
	_, err = modeler.BulkFetch[itemDefault](context.Background(), r, []string{"AAA27-01", ""})
	assert.ErrorAs(t, err, &verr)
	assert.Zero(t, s.calls.Load())
}

func TestBulkUpdateReportsStaleItems(t *testing.T) {
	s := newSpace(3, "AAA27")
	r := newResource(t, s)

	result, err := modeler.BulkUpdate[itemDefault](context.Background(), r, []enovia.UpdateItem{
		{ID: "AAA27-01", Cestamp: "c1", Attributes: map[string]any{"title": "renamed"}},
		{ID: "AAA27-02", Cestamp: "old", Attributes: map[string]any{"title": "lost"}},
	})
	require.NoError(t, err)
	require.Len(t, result.Succeeded, 1)
	assert.Equal(t, "renamed", result.Succeeded[0].Title)
	assert.Equal(t, []string{"AAA27-02"}, result.Failed)
}

func TestModifyConflictSurfacesHTTPError(t *testing.T) {
	s := newSpace(2, "AAA27")
	r := newResource(t, s)
	ctx := context.Background()

	updated, err := modeler.Modify[itemDefault](ctx, r, "AAA27-01", map[string]any{"cestamp": "c1", "title": "new"})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)

	_, err = modeler.Modify[itemDefault](ctx, r, "AAA27-02", map[string]any{"cestamp": "stale", "title": "new"})
	var httpErr *client.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.StatusCode)
	assert.Equal(t, "cestamp mismatch", httpErr.Message())
}

func TestCreateValidatesPayload(t *testing.T) {
	type createRequest struct {
		Items []struct {
			Type  string `json:"type" validate:"required"`
			Title string `json:"title"`
		} `json:"items" validate:"required,min=1,dive"`
	}
	s := newSpace(0, "AAA27")
	r := newResource(t, s)
	ctx := context.Background()

	_, err := modeler.Create[itemDefault](ctx, r, createRequest{})
	var verr *modeler.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "Items")
	assert.Zero(t, s.calls.Load())

	var req createRequest
	req.Items = append(req.Items, struct {
		Type  string `json:"type" validate:"required"`
		Title string `json:"title"`
	}{Type: "VPMReference", Title: "created"})
	created, err := modeler.Create[itemDefault](ctx, r, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"NEW-1"}, ids(created))
}

func TestRelationsAndLinks(t *testing.T) {
	s := newSpace(2, "AAA27")
	r := newResource(t, s)
	ctx := context.Background()

	rows, err := modeler.Related[instanceRow](ctx, r, "AAA27-01", instances)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	target := r.Reference("VPMReference", "AAA27-02")
	require.NoError(t, modeler.Attach(ctx, r, "AAA27-01", instances, target))
	require.NoError(t, modeler.Detach(ctx, r, "AAA27-01", instances, target))

	err = modeler.Attach(ctx, r, "AAA27-01", instances)
	var verr *modeler.ValidationError
	assert.ErrorAs(t, err, &verr)

	log := s.log()
	require.Len(t, log, 3)
	assert.Equal(t, "/resources/v1/modeler/dseng/dseng:EngItem/AAA27-01/dseng:EngInstance", log[0].Path)
	assert.Equal(t, "/resources/v1/modeler/dseng/dseng:EngItem/AAA27-01/dseng:EngInstance/attach", log[1].Path)
	assert.JSONEq(t, `{"referencedObject":[{"identifier":"AAA27-02","type":"VPMReference","source":"$3DSpace","relativePath":"/resources/v1/modeler/dseng/dseng:EngItem/AAA27-02"}]}`, log[1].Body)
	assert.Equal(t, "/resources/v1/modeler/dseng/dseng:EngItem/AAA27-01/dseng:EngInstance/detach", log[2].Path)
}

func TestLocateAndDelete(t *testing.T) {
	s := newSpace(2, "AAA27")
	r := newResource(t, s)
	ctx := context.Background()

	found, err := modeler.Locate[itemDefault](ctx, r,
		enovia.NewTypedURI("VPMReference", "AAA27-02", ""),
		enovia.NewTypedURI("VPMReference", "nope", ""),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA27-02"}, ids(found))

	require.NoError(t, modeler.Delete(ctx, r, "AAA27-01"))
	assert.Equal(t, http.MethodDelete, s.log()[1].Method)
}

func TestViewKeepsRawPayload(t *testing.T) {
	s := newSpace(6, "AAA27")
	r := newResource(t, s).WithPageSize(4)
	ctx := context.Background()

	_, err := r.View("dsmveng:EngItemMask.Bogus")
	assert.ErrorIs(t, err, modeler.ErrMaskNotAllowed)
	assert.Zero(t, s.calls.Load())

	v, err := r.View(maskDetails)
	require.NoError(t, err)

	one, err := v.Get(ctx, "AAA27-03")
	require.NoError(t, err)
	assert.Equal(t, "AAA27-03", one.ID)
	assert.Contains(t, string(one.Raw), `"partNumber":"PN-3"`)

	all, err := v.SearchAll(ctx, modeler.Query{Text: "AAA27"})
	require.NoError(t, err)
	assert.Len(t, all, 6)

	res, err := v.BulkFetch(ctx, []string{"AAA27-01", "AAA27-99"})
	require.NoError(t, err)
	require.Len(t, res.Succeeded, 1)
	assert.Equal(t, []string{"AAA27-99"}, res.Failed)
	assert.NotEmpty(t, res.Succeeded[0].Raw)
}
