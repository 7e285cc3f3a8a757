// Package dseng serves Engineering Items (dseng:EngItem): physical products and
// their instances, enterprise part numbers, structure expansion and the
// configuration and change control attached to them.
package dseng

import (
	"context"
	"iter"

	"github.com/pkg/errors"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/client"
	"github.com/totegamma/enovia-go/dscfg"
	"github.com/totegamma/enovia-go/dslc"
	"github.com/totegamma/enovia-go/modeler"
)

type Service struct {
	items         *modeler.Resource
	configuration *dscfg.Service
	changeControl *dslc.Service
}

func NewService(cl *client.Client) *Service {
	return &Service{
		items:         modeler.NewResource(cl, Definition),
		configuration: dscfg.NewService(cl),
		changeControl: dslc.NewService(cl),
	}
}

func (s *Service) Resource() *modeler.Resource { return s.items }

// Reference is the typed URI other resources use to point at the item id.
func (s *Service) Reference(id string) enovia.TypedURI {
	return s.items.Reference(PlatformTypeVPMRef, id)
}

func Get[T ItemMask](ctx context.Context, s *Service, id string) (T, error) {
	return modeler.Get[T](ctx, s.items, id)
}

func SearchPage[T ItemMask](ctx context.Context, s *Service, q modeler.Query) ([]T, error) {
	return modeler.SearchPage[T](ctx, s.items, q)
}

func Search[T ItemMask](ctx context.Context, s *Service, q modeler.Query) iter.Seq2[T, error] {
	return modeler.Search[T](ctx, s.items, q)
}

func SearchAll[T ItemMask](ctx context.Context, s *Service, q modeler.Query) ([]T, error) {
	return modeler.SearchAll[T](ctx, s.items, q)
}

func Create[T ItemMask](ctx context.Context, s *Service, req CreateRequest) ([]T, error) {
	return modeler.Create[T](ctx, s.items, req)
}

func Modify[T ItemMask](ctx context.Context, s *Service, id string, req ModifyRequest) (T, error) {
	return modeler.Modify[T](ctx, s.items, id, req)
}

func BulkFetch[T ItemMask](ctx context.Context, s *Service, ids []string) (enovia.BulkResult[T], error) {
	return modeler.BulkFetch[T](ctx, s.items, ids)
}

func BulkUpdate[T ItemMask](ctx context.Context, s *Service, items []enovia.UpdateItem) (enovia.BulkResult[T], error) {
	return modeler.BulkUpdate[T](ctx, s.items, items)
}

func Locate[T ItemMask](ctx context.Context, s *Service, refs ...enovia.TypedURI) ([]T, error) {
	return modeler.Locate[T](ctx, s.items, refs...)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return modeler.Delete(ctx, s.items, id)
}

// Instances lists the children instantiated under the item id.
func Instances[T InstanceMask](ctx context.Context, s *Service, id string) ([]T, error) {
	return modeler.Related[T](ctx, s.items, id, instances)
}

func Instance[T InstanceMask](ctx context.Context, s *Service, id, instanceID string) (T, error) {
	return modeler.RelatedOne[T](ctx, s.items, id, instances, instanceID)
}

// AddInstance instantiates the referenced items under id.
func AddInstance[T InstanceMask](ctx context.Context, s *Service, id string, req InstanceRequest) ([]T, error) {
	return modeler.AddRelated[T](ctx, s.items, id, instances, req)
}

func (s *Service) RemoveInstance(ctx context.Context, id, instanceID string) error {
	return modeler.RemoveRelated(ctx, s.items, id, instances, instanceID)
}

// EnterpriseReference returns the part number of id; an item without one yields
// an error matching enovia.ErrNotFound.
func (s *Service) EnterpriseReference(ctx context.Context, id string) (EnterpriseReference, error) {
	refs, err := modeler.Related[EnterpriseReference](ctx, s.items, id, enterpriseReference)
	if err != nil {
		return EnterpriseReference{}, err
	}
	if len(refs) == 0 {
		return EnterpriseReference{}, enovia.NotFoundError{Resource: RelationEnterpriseRef, ID: id}
	}
	return refs[0], nil
}

func (s *Service) SetEnterpriseReference(ctx context.Context, id, partNumber string) (EnterpriseReference, error) {
	refs, err := modeler.AddRelated[EnterpriseReference](ctx, s.items, id, enterpriseReference, enterpriseReferenceRequest{PartNumber: partNumber})
	if err != nil {
		return EnterpriseReference{}, err
	}
	if len(refs) == 0 {
		return EnterpriseReference{}, errors.Errorf("dseng: no enterprise reference returned for %s", id)
	}
	return refs[0], nil
}

// Expand returns the structure below id down to depth levels; depth -1 walks
// the whole structure.
func (s *Service) Expand(ctx context.Context, id string, depth int) ([]ExpandRow, error) {
	if id == "" {
		return nil, &modeler.ValidationError{Op: "expand", Err: errors.New("id is required")}
	}
	if depth == 0 || depth < -1 {
		return nil, &modeler.ValidationError{Op: "expand", Err: errors.Errorf("depth %d is neither positive nor -1", depth)}
	}
	return client.PostCollection[ExpandRow](ctx, s.items.Client(), s.items.Path(id, "expand"), expandRequest{ExpandDepth: depth})
}

func (s *Service) Configuration(ctx context.Context, id string) (dscfg.ReferenceDefault, error) {
	return s.configuration.Configuration(ctx, id)
}

func (s *Service) ChangeControl(ctx context.Context, id string) (dslc.Status, error) {
	return s.changeControl.Status(ctx, id)
}

func (s *Service) EnableChangeControl(ctx context.Context, id string) (dslc.Status, error) {
	return s.changeControl.Enable(ctx, id)
}
