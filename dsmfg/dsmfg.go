// Package dsmfg serves Manufacturing Items (dsmfg:MfgItem), their instances and
// the engineering items they are scoped to.
package dsmfg

import (
	"context"
	"iter"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/client"
	"github.com/totegamma/enovia-go/modeler"
)

const (
	Namespace = "dsmfg"

	TypeMfgItem       = "dsmfg:MfgItem"
	RelationInstance  = "dsmfg:MfgItemInstance"
	RelationScope     = "dsmfg:ScopeEngItem"
	PlatformType      = "CreateAssembly"
	ScopePlatformType = "VPMReference"

	MaskMfgItemDefault     modeler.Mask = "dsmvmfg:MfgItemMask.Default"
	MaskMfgItemDetails     modeler.Mask = "dsmvmfg:MfgItemMask.Details"
	MaskMfgInstanceDefault modeler.Mask = "dsmvmfg:MfgItemInstanceMask.Default"
)

var Definition = modeler.Definition{
	Namespace: Namespace,
	Type:      TypeMfgItem,
	Masks:     []modeler.Mask{MaskMfgItemDefault, MaskMfgItemDetails},
}

var (
	instances = modeler.Relation{Name: RelationInstance, Masks: []modeler.Mask{MaskMfgInstanceDefault}}
	scopes    = modeler.Relation{Name: RelationScope, Masks: []modeler.Mask{modeler.NoMask}}
)

type MfgItemDefault struct {
	enovia.Object
}

func (MfgItemDefault) Mask() modeler.Mask { return MaskMfgItemDefault }

type MfgItemDetails struct {
	enovia.Object
	IsLastRevision     bool           `json:"isLastRevision"`
	ManufacturingType  string         `json:"manufacturingType,omitempty"`
	CustomerAttributes map[string]any `json:"dsmfg:CustomerAttributes,omitempty"`
}

func (MfgItemDetails) Mask() modeler.Mask { return MaskMfgItemDetails }

type MfgInstance struct {
	enovia.Object
	ReferencedObject enovia.TypedURI `json:"referencedObject"`
}

func (MfgInstance) Mask() modeler.Mask { return MaskMfgInstanceDefault }

// ScopeLink is an engineering item a manufacturing item realizes.
type ScopeLink struct {
	enovia.Object
}

func (ScopeLink) Mask() modeler.Mask { return modeler.NoMask }

type ItemMask interface {
	MfgItemDefault | MfgItemDetails
	modeler.Projection
}

type CreateItem struct {
	Type       string         `json:"type,omitempty"`
	Attributes map[string]any `json:"attributes" validate:"required"`
}

type CreateRequest struct {
	Items []CreateItem `json:"items" validate:"required,min=1,dive"`
}

type ModifyRequest struct {
	Cestamp     string `json:"cestamp" validate:"required"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type InstanceItem struct {
	ReferencedObject enovia.TypedURI `json:"referencedObject"`
	Attributes       map[string]any  `json:"attributes,omitempty"`
}

type InstanceRequest struct {
	Items []InstanceItem `json:"items" validate:"required,min=1,dive"`
}

type Service struct {
	items *modeler.Resource
}

func NewService(cl *client.Client) *Service {
	return &Service{items: modeler.NewResource(cl, Definition)}
}

func (s *Service) Resource() *modeler.Resource { return s.items }

func (s *Service) Reference(id string) enovia.TypedURI {
	return s.items.Reference(PlatformType, id)
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

func (s *Service) Delete(ctx context.Context, id string) error {
	return modeler.Delete(ctx, s.items, id)
}

func (s *Service) Instances(ctx context.Context, id string) ([]MfgInstance, error) {
	return modeler.Related[MfgInstance](ctx, s.items, id, instances)
}

func (s *Service) AddInstance(ctx context.Context, id string, req InstanceRequest) ([]MfgInstance, error) {
	return modeler.AddRelated[MfgInstance](ctx, s.items, id, instances, req)
}

func (s *Service) RemoveInstance(ctx context.Context, id, instanceID string) error {
	return modeler.RemoveRelated(ctx, s.items, id, instances, instanceID)
}

// Scopes lists the engineering items id is scoped to.
func (s *Service) Scopes(ctx context.Context, id string) ([]ScopeLink, error) {
	return modeler.Related[ScopeLink](ctx, s.items, id, scopes)
}

// AttachScope scopes id to the given engineering items.
func (s *Service) AttachScope(ctx context.Context, id string, engItems ...enovia.TypedURI) error {
	return modeler.Attach(ctx, s.items, id, scopes, engItems...)
}

func (s *Service) DetachScope(ctx context.Context, id string, engItems ...enovia.TypedURI) error {
	return modeler.Detach(ctx, s.items, id, scopes, engItems...)
}
