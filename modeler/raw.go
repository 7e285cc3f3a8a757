package modeler

import (
	"context"
	"iter"

	"github.com/totegamma/enovia-go"
)

// View reads a resource under a mask chosen at run time, for tools that take
// the resource and projection from configuration. Rows keep their undecoded
// payload.
type View struct {
	r    *Resource
	mask Mask
}

// View returns a raw reader for m, or a *MaskError when the resource does not
// serve m.
func (r *Resource) View(m Mask) (View, error) {
	if err := r.check(m); err != nil {
		return View{}, err
	}
	return View{r: r, mask: m}, nil
}

func (v View) Resource() *Resource { return v.r }
func (v View) Mask() Mask          { return v.mask }

func (v View) Get(ctx context.Context, id string) (enovia.RawObject, error) {
	return get[enovia.RawObject](ctx, v.r, v.mask, id)
}

func (v View) SearchPage(ctx context.Context, q Query) ([]enovia.RawObject, error) {
	return searchPage[enovia.RawObject](ctx, v.r, v.mask, q)
}

func (v View) Search(ctx context.Context, q Query) iter.Seq2[enovia.RawObject, error] {
	return search[enovia.RawObject](ctx, v.r, v.mask, q)
}

func (v View) SearchAll(ctx context.Context, q Query) ([]enovia.RawObject, error) {
	return collect(v.Search(ctx, q))
}

func (v View) BulkFetch(ctx context.Context, ids []string) (enovia.BulkResult[enovia.RawObject], error) {
	return bulkFetch[enovia.RawObject](ctx, v.r, v.mask, ids)
}
