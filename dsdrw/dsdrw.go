// Package dsdrw serves 2D drawings (dsdrw:Drawing), their sheets and the
// products they represent.
package dsdrw

import (
	"context"
	"iter"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/client"
	"github.com/totegamma/enovia-go/modeler"
)

const (
	Namespace = "dsdrw"

	TypeDrawing         = "dsdrw:Drawing"
	RelationSheet       = "dsdrw:Sheet"
	RelationRepresented = "dsdrw:Represented"
	PlatformType        = "Drawing"

	MaskDrawingDefault modeler.Mask = "dsmvdrw:DrawingMask.Default"
	MaskDrawingDetails modeler.Mask = "dsmvdrw:DrawingMask.Details"
	MaskSheetDefault   modeler.Mask = "dsmvdrw:SheetMask.Default"
)

var Definition = modeler.Definition{
	Namespace: Namespace,
	Type:      TypeDrawing,
	Masks:     []modeler.Mask{MaskDrawingDefault, MaskDrawingDetails},
}

var (
	sheets      = modeler.Relation{Name: RelationSheet, Masks: []modeler.Mask{MaskSheetDefault}}
	represented = modeler.Relation{Name: RelationRepresented, Masks: []modeler.Mask{modeler.NoMask}}
)

type DrawingDefault struct {
	enovia.Object
}

func (DrawingDefault) Mask() modeler.Mask { return MaskDrawingDefault }

type DrawingDetails struct {
	enovia.Object
	IsLastRevision bool   `json:"isLastRevision"`
	Reserved       bool   `json:"reserved"`
	ReservedBy     string `json:"reservedBy,omitempty"`
	Standard       string `json:"standard,omitempty"`
	SheetCount     int    `json:"sheetCount,omitempty"`
}

func (DrawingDetails) Mask() modeler.Mask { return MaskDrawingDetails }

type Sheet struct {
	enovia.Object
	Format      string `json:"format,omitempty"`
	Scale       string `json:"scale,omitempty"`
	Orientation string `json:"orientation,omitempty"`
}

func (Sheet) Mask() modeler.Mask { return MaskSheetDefault }

// RepresentedLink is a 3D object a drawing documents.
type RepresentedLink struct {
	enovia.Object
}

func (RepresentedLink) Mask() modeler.Mask { return modeler.NoMask }

type DrawingMask interface {
	DrawingDefault | DrawingDetails
	modeler.Projection
}

type DrawingAttributes struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	Standard    string `json:"standard,omitempty"`
}

type CreateItem struct {
	Attributes DrawingAttributes `json:"attributes"`
}

type CreateRequest struct {
	Items []CreateItem `json:"items" validate:"required,min=1,dive"`
}

type ModifyRequest struct {
	Cestamp     string `json:"cestamp" validate:"required"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Standard    string `json:"standard,omitempty"`
}

type Service struct {
	drawings *modeler.Resource
}

func NewService(cl *client.Client) *Service {
	return &Service{drawings: modeler.NewResource(cl, Definition)}
}

func (s *Service) Resource() *modeler.Resource { return s.drawings }

func Get[T DrawingMask](ctx context.Context, s *Service, id string) (T, error) {
	return modeler.Get[T](ctx, s.drawings, id)
}

func SearchPage[T DrawingMask](ctx context.Context, s *Service, q modeler.Query) ([]T, error) {
	return modeler.SearchPage[T](ctx, s.drawings, q)
}

func Search[T DrawingMask](ctx context.Context, s *Service, q modeler.Query) iter.Seq2[T, error] {
	return modeler.Search[T](ctx, s.drawings, q)
}

func SearchAll[T DrawingMask](ctx context.Context, s *Service, q modeler.Query) ([]T, error) {
	return modeler.SearchAll[T](ctx, s.drawings, q)
}

func Create[T DrawingMask](ctx context.Context, s *Service, req CreateRequest) ([]T, error) {
	return modeler.Create[T](ctx, s.drawings, req)
}

func Modify[T DrawingMask](ctx context.Context, s *Service, id string, req ModifyRequest) (T, error) {
	return modeler.Modify[T](ctx, s.drawings, id, req)
}

func BulkFetch[T DrawingMask](ctx context.Context, s *Service, ids []string) (enovia.BulkResult[T], error) {
	return modeler.BulkFetch[T](ctx, s.drawings, ids)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return modeler.Delete(ctx, s.drawings, id)
}

func (s *Service) Sheets(ctx context.Context, id string) ([]Sheet, error) {
	return modeler.Related[Sheet](ctx, s.drawings, id, sheets)
}

// Represented lists the 3D objects the drawing id documents.
func (s *Service) Represented(ctx context.Context, id string) ([]RepresentedLink, error) {
	return modeler.Related[RepresentedLink](ctx, s.drawings, id, represented)
}

func (s *Service) AttachRepresented(ctx context.Context, id string, targets ...enovia.TypedURI) error {
	return modeler.Attach(ctx, s.drawings, id, represented, targets...)
}

func (s *Service) DetachRepresented(ctx context.Context, id string, targets ...enovia.TypedURI) error {
	return modeler.Detach(ctx, s.drawings, id, represented, targets...)
}
