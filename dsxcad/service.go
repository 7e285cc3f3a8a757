// Package dsxcad serves the CAD-authored objects of the xCAD modeler: parts,
// products, their 3D representations and the templates new products are
// instantiated from.
package dsxcad

import (
	"context"
	"iter"

	"github.com/pkg/errors"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/client"
	"github.com/totegamma/enovia-go/modeler"
)

type Service struct {
	parts           *modeler.Resource
	products        *modeler.Resource
	representations *modeler.Resource
	templates       *modeler.Resource
}

func NewService(cl *client.Client) *Service {
	return &Service{
		parts:           modeler.NewResource(cl, PartDefinition),
		products:        modeler.NewResource(cl, ProductDefinition),
		representations: modeler.NewResource(cl, RepresentationDefinition),
		templates:       modeler.NewResource(cl, TemplateDefinition),
	}
}

func (s *Service) resources() []*modeler.Resource {
	return []*modeler.Resource{s.parts, s.products, s.representations, s.templates}
}

// Resource returns the resource of typ, or nil for a type outside xCAD.
func (s *Service) Resource(typ string) *modeler.Resource {
	for _, r := range s.resources() {
		if r.Type() == typ {
			return r
		}
	}
	return nil
}

func (s *Service) resourceOf(m modeler.Mask) *modeler.Resource {
	for _, r := range s.resources() {
		if r.Allows(m) {
			return r
		}
	}
	return s.parts
}

func resourceFor[T Mask](s *Service) *modeler.Resource {
	return s.resourceOf(modeler.MaskOf[T]())
}

func (s *Service) lookup(typ string) (*modeler.Resource, error) {
	r := s.Resource(typ)
	if r == nil {
		return nil, &modeler.ValidationError{Op: "dsxcad", Err: errors.Errorf("unknown type %q", typ)}
	}
	return r, nil
}

// Reference builds the typed URI of the object id of typ.
func (s *Service) Reference(typ, id string) enovia.TypedURI {
	platformType := PlatformTypeReference
	if typ == TypeRepresentation {
		platformType = PlatformTypeShape
	}
	r := s.Resource(typ)
	if r == nil {
		return enovia.NewTypedURI(platformType, id, "")
	}
	return r.Reference(platformType, id)
}

func Get[T Mask](ctx context.Context, s *Service, id string) (T, error) {
	return modeler.Get[T](ctx, resourceFor[T](s), id)
}

func SearchPage[T Mask](ctx context.Context, s *Service, q modeler.Query) ([]T, error) {
	return modeler.SearchPage[T](ctx, resourceFor[T](s), q)
}

func Search[T Mask](ctx context.Context, s *Service, q modeler.Query) iter.Seq2[T, error] {
	return modeler.Search[T](ctx, resourceFor[T](s), q)
}

func SearchAll[T Mask](ctx context.Context, s *Service, q modeler.Query) ([]T, error) {
	return modeler.SearchAll[T](ctx, resourceFor[T](s), q)
}

func Create[T Mask](ctx context.Context, s *Service, req CreateRequest) ([]T, error) {
	return modeler.Create[T](ctx, resourceFor[T](s), req)
}

func Modify[T Mask](ctx context.Context, s *Service, id string, req ModifyRequest) (T, error) {
	return modeler.Modify[T](ctx, resourceFor[T](s), id, req)
}

func BulkFetch[T Mask](ctx context.Context, s *Service, ids []string) (enovia.BulkResult[T], error) {
	return modeler.BulkFetch[T](ctx, resourceFor[T](s), ids)
}

func BulkUpdate[T Mask](ctx context.Context, s *Service, items []enovia.UpdateItem) (enovia.BulkResult[T], error) {
	return modeler.BulkUpdate[T](ctx, resourceFor[T](s), items)
}

func (s *Service) Delete(ctx context.Context, typ, id string) error {
	r, err := s.lookup(typ)
	if err != nil {
		return err
	}
	return modeler.Delete(ctx, r, id)
}

// Representations lists the representations attached to the part or product id.
func (s *Service) Representations(ctx context.Context, typ, id string) ([]RepresentationLink, error) {
	r, err := s.owner(typ)
	if err != nil {
		return nil, err
	}
	return modeler.Related[RepresentationLink](ctx, r, id, representations)
}

func (s *Service) AttachRepresentation(ctx context.Context, typ, id string, reps ...enovia.TypedURI) error {
	r, err := s.owner(typ)
	if err != nil {
		return err
	}
	return modeler.Attach(ctx, r, id, representations, reps...)
}

func (s *Service) DetachRepresentation(ctx context.Context, typ, id string, reps ...enovia.TypedURI) error {
	r, err := s.owner(typ)
	if err != nil {
		return err
	}
	return modeler.Detach(ctx, r, id, representations, reps...)
}

// owner resolves the types representations can be attached to.
func (s *Service) owner(typ string) (*modeler.Resource, error) {
	switch typ {
	case TypePart:
		return s.parts, nil
	case TypeProduct:
		return s.products, nil
	}
	return nil, &modeler.ValidationError{Op: "dsxcad", Err: errors.Errorf("%q carries no representations", typ)}
}

func (s *Service) ProductInstances(ctx context.Context, id string) ([]ProductInstance, error) {
	return modeler.Related[ProductInstance](ctx, s.products, id, productInstances)
}

func (s *Service) AddProductInstance(ctx context.Context, id string, req InstanceRequest) ([]ProductInstance, error) {
	return modeler.AddRelated[ProductInstance](ctx, s.products, id, productInstances, req)
}

func (s *Service) RemoveProductInstance(ctx context.Context, id, instanceID string) error {
	return modeler.RemoveRelated(ctx, s.products, id, productInstances, instanceID)
}

// Instantiate creates a product from the template templateID.
func Instantiate[T ProductMask](ctx context.Context, s *Service, templateID string, req InstantiateRequest) ([]T, error) {
	return modeler.Invoke[T](ctx, s.templates, templateID, "instantiate", s.products, req)
}
