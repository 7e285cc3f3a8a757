package modeler

import (
	"net/url"

	"github.com/gorilla/schema"
	"github.com/pkg/errors"
)

var encoder = schema.NewEncoder()

// Query is a free text search window. Top bounds a single page; for unbounded
// searches a positive Top replaces the resource page size.
type Query struct {
	Text string
	Skip int `validate:"gte=0"`
	Top  int `validate:"gte=0"`
}

type searchParams struct {
	SearchStr string `schema:"$searchStr"`
	Mask      Mask   `schema:"$mask,omitempty"`
	Skip      int    `schema:"$skip"`
	Top       int    `schema:"$top"`
}

type maskParams struct {
	Mask Mask `schema:"$mask,omitempty"`
}

func encode(v any) (string, error) {
	values := url.Values{}
	if err := encoder.Encode(v, values); err != nil {
		return "", errors.Wrap(err, "failed to encode query")
	}
	return values.Encode(), nil
}

// withMask appends the $mask parameter to path when m is set.
func withMask(path string, m Mask) (string, error) {
	q, err := encode(maskParams{Mask: m})
	if err != nil {
		return "", err
	}
	if q == "" {
		return path, nil
	}
	return path + "?" + q, nil
}

func searchURI(r *Resource, m Mask, text string, skip, top int) (string, error) {
	q, err := encode(searchParams{
		SearchStr: text,
		Mask:      m,
		Skip:      skip,
		Top:       top,
	})
	if err != nil {
		return "", err
	}
	return r.Path("search") + "?" + q, nil
}
