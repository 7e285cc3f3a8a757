package modeler

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/client"
)

// Get reads one object. A 404 or an empty member list yields an error matching
// enovia.ErrNotFound.
func Get[T Projection](ctx context.Context, r *Resource, id string) (T, error) {
	m, err := checkMask[T](r)
	if err != nil {
		var zero T
		return zero, err
	}
	return get[T](ctx, r, m, id)
}

func get[T any](ctx context.Context, r *Resource, m Mask, id string) (T, error) {
	ctx, span := tracer.Start(ctx, "Modeler.Get")
	defer span.End()
	span.SetAttributes(attribute.String("enovia.type", r.Type()), attribute.String("enovia.id", id))

	var zero T
	if err := validateVar("get", id, "required"); err != nil {
		return zero, err
	}

	uri, err := withMask(r.Path(id), m)
	if err != nil {
		return zero, err
	}
	items, err := client.GetCollection[T](ctx, r.client, uri)
	if err != nil {
		return zero, err
	}
	return first(items, r.Type(), id)
}

// Create posts req to the resource collection and returns the created objects.
func Create[T Projection, Req any](ctx context.Context, r *Resource, req Req) ([]T, error) {
	ctx, span := tracer.Start(ctx, "Modeler.Create")
	defer span.End()
	span.SetAttributes(attribute.String("enovia.type", r.Type()))

	m, err := checkMask[T](r)
	if err != nil {
		return nil, err
	}
	if err := validateStruct("create", req); err != nil {
		return nil, err
	}

	uri, err := withMask(r.Path(), m)
	if err != nil {
		return nil, err
	}
	return client.PostCollection[T](ctx, r.client, uri, req)
}

// Modify patches one object. req must carry the cestamp the caller read.
func Modify[T Projection, Req any](ctx context.Context, r *Resource, id string, req Req) (T, error) {
	ctx, span := tracer.Start(ctx, "Modeler.Modify")
	defer span.End()
	span.SetAttributes(attribute.String("enovia.type", r.Type()), attribute.String("enovia.id", id))

	var zero T
	m, err := checkMask[T](r)
	if err != nil {
		return zero, err
	}
	if err := validateVar("modify", id, "required"); err != nil {
		return zero, err
	}
	if err := validateStruct("modify", req); err != nil {
		return zero, err
	}

	uri, err := withMask(r.Path(id), m)
	if err != nil {
		return zero, err
	}
	items, err := client.PatchGroup[T](ctx, r.client, uri, req)
	if err != nil {
		return zero, err
	}
	return first(items, r.Type(), id)
}

func Delete(ctx context.Context, r *Resource, id string) error {
	ctx, span := tracer.Start(ctx, "Modeler.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("enovia.type", r.Type()), attribute.String("enovia.id", id))

	if err := validateVar("delete", id, "required"); err != nil {
		return err
	}
	return r.client.Do(ctx, http.MethodDelete, r.Path(id), nil, nil)
}

// Related lists the objects reached from id through rel.
func Related[T Projection](ctx context.Context, r *Resource, id string, rel Relation) ([]T, error) {
	ctx, span := tracer.Start(ctx, "Modeler.Related")
	defer span.End()
	span.SetAttributes(attribute.String("enovia.relation", rel.Name), attribute.String("enovia.id", id))

	m, err := checkRelationMask[T](r, rel)
	if err != nil {
		return nil, err
	}
	if err := validateVar("related", id, "required"); err != nil {
		return nil, err
	}

	uri, err := withMask(r.Path(id, rel.Name), m)
	if err != nil {
		return nil, err
	}
	return client.GetCollection[T](ctx, r.client, uri)
}

// RelatedOne reads a single related object, e.g. one instance of a product.
func RelatedOne[T Projection](ctx context.Context, r *Resource, id string, rel Relation, relatedID string) (T, error) {
	ctx, span := tracer.Start(ctx, "Modeler.RelatedOne")
	defer span.End()

	var zero T
	m, err := checkRelationMask[T](r, rel)
	if err != nil {
		return zero, err
	}
	if err := validateVar("related", []string{id, relatedID}, "dive,required"); err != nil {
		return zero, err
	}

	uri, err := withMask(r.Path(id, rel.Name, relatedID), m)
	if err != nil {
		return zero, err
	}
	items, err := client.GetCollection[T](ctx, r.client, uri)
	if err != nil {
		return zero, err
	}
	return first(items, rel.Name, relatedID)
}

// AddRelated creates objects under id through rel.
func AddRelated[T Projection, Req any](ctx context.Context, r *Resource, id string, rel Relation, req Req) ([]T, error) {
	ctx, span := tracer.Start(ctx, "Modeler.AddRelated")
	defer span.End()

	m, err := checkRelationMask[T](r, rel)
	if err != nil {
		return nil, err
	}
	if err := validateVar("add", id, "required"); err != nil {
		return nil, err
	}
	if err := validateStruct("add", req); err != nil {
		return nil, err
	}

	uri, err := withMask(r.Path(id, rel.Name), m)
	if err != nil {
		return nil, err
	}
	return client.PostCollection[T](ctx, r.client, uri, req)
}

func RemoveRelated(ctx context.Context, r *Resource, id string, rel Relation, relatedID string) error {
	ctx, span := tracer.Start(ctx, "Modeler.RemoveRelated")
	defer span.End()

	if err := validateVar("remove", []string{id, relatedID}, "dive,required"); err != nil {
		return err
	}
	return r.client.Do(ctx, http.MethodDelete, r.Path(id, rel.Name, relatedID), nil, nil)
}

// Attach links targets to id through rel.
func Attach(ctx context.Context, r *Resource, id string, rel Relation, targets ...enovia.TypedURI) error {
	return link(ctx, r, id, rel, "attach", targets)
}

// Detach removes the links Attach created.
func Detach(ctx context.Context, r *Resource, id string, rel Relation, targets ...enovia.TypedURI) error {
	return link(ctx, r, id, rel, "detach", targets)
}

func link(ctx context.Context, r *Resource, id string, rel Relation, verb string, targets []enovia.TypedURI) error {
	ctx, span := tracer.Start(ctx, "Modeler.Link")
	defer span.End()
	span.SetAttributes(
		attribute.String("enovia.relation", rel.Name),
		attribute.String("enovia.verb", verb),
		attribute.Int("enovia.targets", len(targets)),
	)

	if err := validateVar(verb, id, "required"); err != nil {
		return err
	}
	body := enovia.ReferencedObjects{ReferencedObject: targets}
	if err := validateStruct(verb, body); err != nil {
		return err
	}
	return r.client.Do(ctx, http.MethodPost, r.Path(id, rel.Name, verb), body, nil)
}

// Locate resolves typed references into objects of this resource.
func Locate[T Projection](ctx context.Context, r *Resource, targets ...enovia.TypedURI) ([]T, error) {
	ctx, span := tracer.Start(ctx, "Modeler.Locate")
	defer span.End()

	m, err := checkMask[T](r)
	if err != nil {
		return nil, err
	}
	body := enovia.ReferencedObjects{ReferencedObject: targets}
	if err := validateStruct("locate", body); err != nil {
		return nil, err
	}

	uri, err := withMask(r.Path("locate"), m)
	if err != nil {
		return nil, err
	}
	return client.PostCollection[T](ctx, r.client, uri, body)
}

// Invoke posts req to the action endpoint {id}/{action} of r. The answer holds
// objects of target, so T is checked against the allow-list of target.
func Invoke[T Projection, Req any](ctx context.Context, r *Resource, id, action string, target *Resource, req Req) ([]T, error) {
	ctx, span := tracer.Start(ctx, "Modeler.Invoke")
	defer span.End()
	span.SetAttributes(attribute.String("enovia.action", action), attribute.String("enovia.id", id))

	m, err := checkMask[T](target)
	if err != nil {
		return nil, err
	}
	if err := validateVar(action, id, "required"); err != nil {
		return nil, err
	}
	if err := validateStruct(action, req); err != nil {
		return nil, err
	}

	uri, err := withMask(r.Path(id, action), m)
	if err != nil {
		return nil, err
	}
	return client.PostCollection[T](ctx, r.client, uri, req)
}

func first[T any](items []T, resource, id string) (T, error) {
	if len(items) == 0 {
		var zero T
		return zero, enovia.NotFoundError{Resource: resource, ID: id}
	}
	return items[0], nil
}
