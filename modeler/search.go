package modeler

import (
	"context"
	"iter"

	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/enovia-go/client"
)

// identified is what paging needs from a row: raw rows qualify without a mask.
type identified interface {
	Identifier() string
}

// SearchPage returns one window of results, exactly as the server answers it.
// A zero Top asks for one resource page.
func SearchPage[T Projection](ctx context.Context, r *Resource, q Query) ([]T, error) {
	m, err := checkMask[T](r)
	if err != nil {
		return nil, err
	}
	return searchPage[T](ctx, r, m, q)
}

func searchPage[T any](ctx context.Context, r *Resource, m Mask, q Query) ([]T, error) {
	ctx, span := tracer.Start(ctx, "Modeler.SearchPage")
	defer span.End()

	if err := validateStruct("search", q); err != nil {
		return nil, err
	}

	top := q.Top
	if top == 0 {
		top = r.pageSize
	}
	span.SetAttributes(
		attribute.String("enovia.type", r.Type()),
		attribute.Int("enovia.skip", q.Skip),
		attribute.Int("enovia.top", top),
	)

	uri, err := searchURI(r, m, q.Text, q.Skip, top)
	if err != nil {
		return nil, err
	}
	return client.GetCollection[T](ctx, r.client, uri)
}

// Search pages through every match starting at q.Skip. Each range over the
// returned sequence starts again from the cursor. An object seen on an earlier
// page is not yielded twice, and paging ends on a short page or on a page with
// nothing new. Iteration stops at the first error, which is
// yielded with a zero T.
func Search[T Projection](ctx context.Context, r *Resource, q Query) iter.Seq2[T, error] {
	m, err := checkMask[T](r)
	if err != nil {
		return failed[T](err)
	}
	return search[T](ctx, r, m, q)
}

func failed[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}

func search[T identified](ctx context.Context, r *Resource, m Mask, q Query) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		ctx, span := tracer.Start(ctx, "Modeler.Search")
		defer span.End()

		if err := validateStruct("search", q); err != nil {
			yield(zero, err)
			return
		}

		pageSize := r.pageSize
		if q.Top > 0 {
			pageSize = q.Top
		}

		seen := make(map[string]struct{})
		skip := q.Skip
		pages := 0
		for {
			uri, err := searchURI(r, m, q.Text, skip, pageSize)
			if err != nil {
				yield(zero, err)
				return
			}
			page, err := client.GetCollection[T](ctx, r.client, uri)
			if err != nil {
				yield(zero, err)
				return
			}
			pages++

			fresh := 0
			for _, item := range page {
				if id := item.Identifier(); id != "" {
					if _, dup := seen[id]; dup {
						continue
					}
					seen[id] = struct{}{}
				}
				fresh++
				if !yield(item, nil) {
					return
				}
			}

			// a full page of rows already seen means the server ignores $skip
			if len(page) < pageSize || fresh == 0 {
				span.SetAttributes(attribute.Int("enovia.pages", pages))
				return
			}
			skip += len(page)
		}
	}
}

// SearchAll collects Search into a slice.
func SearchAll[T Projection](ctx context.Context, r *Resource, q Query) ([]T, error) {
	return collect(Search[T](ctx, r, q))
}

func collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	result := []T{}
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, nil
}
