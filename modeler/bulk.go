package modeler

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/enovia-go"
)

// BulkFetch reads ids in one request. IDs the server reports as failed, or
// leaves out of the answer, end up in Failed; a partial answer is not an error.
// A repeated ID is requested and reported once.
func BulkFetch[T Projection](ctx context.Context, r *Resource, ids []string) (enovia.BulkResult[T], error) {
	m, err := checkMask[T](r)
	if err != nil {
		return enovia.BulkResult[T]{}, err
	}
	return bulkFetch[T](ctx, r, m, ids)
}

func bulkFetch[T identified](ctx context.Context, r *Resource, m Mask, ids []string) (enovia.BulkResult[T], error) {
	ctx, span := tracer.Start(ctx, "Modeler.BulkFetch")
	defer span.End()
	span.SetAttributes(attribute.String("enovia.type", r.Type()), attribute.Int("enovia.count", len(ids)))

	if err := validateVar("bulkfetch", ids, "required,min=1,dive,required"); err != nil {
		return enovia.BulkResult[T]{}, err
	}
	ids = distinct(ids)

	uri, err := withMask(r.Path("bulkfetch"), m)
	if err != nil {
		return enovia.BulkResult[T]{}, err
	}

	var env enovia.BulkEnvelope[T]
	if err := r.client.Do(ctx, http.MethodPost, uri, ids, &env); err != nil {
		return enovia.BulkResult[T]{}, err
	}
	result := partition(ids, env)
	span.SetAttributes(attribute.Int("enovia.failed", len(result.Failed)))
	return result, nil
}

// BulkUpdate patches several objects at once. Each item carries its own cestamp.
func BulkUpdate[T Projection](ctx context.Context, r *Resource, items []enovia.UpdateItem) (enovia.BulkResult[T], error) {
	ctx, span := tracer.Start(ctx, "Modeler.BulkUpdate")
	defer span.End()
	span.SetAttributes(attribute.String("enovia.type", r.Type()), attribute.Int("enovia.count", len(items)))

	m, err := checkMask[T](r)
	if err != nil {
		return enovia.BulkResult[T]{}, err
	}
	body := enovia.BulkUpdateRequest{Items: items}
	if err := validateStruct("bulkupdate", body); err != nil {
		return enovia.BulkResult[T]{}, err
	}

	uri, err := withMask(r.Path("bulkupdate"), m)
	if err != nil {
		return enovia.BulkResult[T]{}, err
	}

	var env enovia.BulkEnvelope[T]
	if err := r.client.Do(ctx, http.MethodPost, uri, body, &env); err != nil {
		return enovia.BulkResult[T]{}, err
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	result := partition(ids, env)
	span.SetAttributes(attribute.Int("enovia.failed", len(result.Failed)))
	return result, nil
}

func partition[T identified](requested []string, env enovia.BulkEnvelope[T]) enovia.BulkResult[T] {
	result := enovia.BulkResult[T]{
		Succeeded: make([]T, 0, len(env.Member)),
		Failed:    []string{},
	}

	failed := make(map[string]struct{}, len(env.Failures))
	for _, f := range env.Failures {
		if f.ID == "" {
			continue
		}
		if _, dup := failed[f.ID]; dup {
			continue
		}
		failed[f.ID] = struct{}{}
		result.Failed = append(result.Failed, f.ID)
	}

	answered := make(map[string]struct{}, len(env.Member))
	for _, item := range env.Member {
		id := item.Identifier()
		if _, bad := failed[id]; bad {
			continue
		}
		if _, dup := answered[id]; dup {
			continue
		}
		answered[id] = struct{}{}
		result.Succeeded = append(result.Succeeded, item)
	}

	for _, id := range requested {
		if _, ok := answered[id]; ok {
			continue
		}
		if _, ok := failed[id]; ok {
			continue
		}
		failed[id] = struct{}{}
		result.Failed = append(result.Failed, id)
	}
	return result
}

// distinct drops repeated ids and keeps the first occurrence order.
func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
