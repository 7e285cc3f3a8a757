package dsxcad

import (
	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/modeler"
)

const (
	Namespace = "dsxcad"

	TypePart           = "dsxcad:Part"
	TypeProduct        = "dsxcad:Product"
	TypeRepresentation = "dsxcad:Representation"
	TypeTemplate       = "dsxcad:Template"

	RelationRepresentation  = "dsxcad:Representation"
	RelationProductInstance = "dsxcad:ProductInstance"

	PlatformTypeReference = "VPMReference"
	PlatformTypeShape     = "3DShape"

	MaskPartDefault           modeler.Mask = "dsmvxcad:xCADPartMask.Default"
	MaskPartDetails           modeler.Mask = "dsmvxcad:xCADPartMask.Details"
	MaskProductDefault        modeler.Mask = "dsmvxcad:xCADProductMask.Default"
	MaskProductDetails        modeler.Mask = "dsmvxcad:xCADProductMask.Details"
	MaskRepresentationDefault modeler.Mask = "dsmvxcad:xCADRepresentationMask.Default"
	MaskRepresentationDetails modeler.Mask = "dsmvxcad:xCADRepresentationMask.Details"
	MaskTemplateDefault       modeler.Mask = "dsmvxcad:xCADTemplateMask.Default"
	MaskProductInstance       modeler.Mask = "dsmvxcad:xCADInstanceMask.Default"
)

var (
	PartDefinition = modeler.Definition{
		Namespace: Namespace,
		Type:      TypePart,
		Masks:     []modeler.Mask{MaskPartDefault, MaskPartDetails},
	}
	ProductDefinition = modeler.Definition{
		Namespace: Namespace,
		Type:      TypeProduct,
		Masks:     []modeler.Mask{MaskProductDefault, MaskProductDetails},
	}
	RepresentationDefinition = modeler.Definition{
		Namespace: Namespace,
		Type:      TypeRepresentation,
		Masks:     []modeler.Mask{MaskRepresentationDefault, MaskRepresentationDetails},
	}
	TemplateDefinition = modeler.Definition{
		Namespace: Namespace,
		Type:      TypeTemplate,
		Masks:     []modeler.Mask{MaskTemplateDefault},
	}
)

var (
	representations  = modeler.Relation{Name: RelationRepresentation, Masks: []modeler.Mask{modeler.NoMask}}
	productInstances = modeler.Relation{Name: RelationProductInstance, Masks: []modeler.Mask{MaskProductInstance}}
)

// authoring holds the CAD fields parts and products share in their details mask.
type authoring struct {
	IsLastRevision bool   `json:"isLastRevision"`
	Reserved       bool   `json:"reserved"`
	ReservedBy     string `json:"reservedBy,omitempty"`
	Authoring      string `json:"authoringApplication,omitempty"`
	FileName       string `json:"fileName,omitempty"`
}

type PartDefault struct {
	enovia.Object
}

func (PartDefault) Mask() modeler.Mask { return MaskPartDefault }

type PartDetails struct {
	enovia.Object
	authoring
	Material string `json:"material,omitempty"`
}

func (PartDetails) Mask() modeler.Mask { return MaskPartDetails }

type ProductDefault struct {
	enovia.Object
}

func (ProductDefault) Mask() modeler.Mask { return MaskProductDefault }

type ProductDetails struct {
	enovia.Object
	authoring
	// Template is the id of the template the product was instantiated from.
	Template string `json:"template,omitempty"`
}

func (ProductDetails) Mask() modeler.Mask { return MaskProductDetails }

type RepresentationDefault struct {
	enovia.Object
}

func (RepresentationDefault) Mask() modeler.Mask { return MaskRepresentationDefault }

type RepresentationDetails struct {
	enovia.Object
	FileName  string `json:"fileName,omitempty"`
	FileSize  int64  `json:"fileSize,omitempty"`
	Authoring string `json:"authoringApplication,omitempty"`
}

func (RepresentationDetails) Mask() modeler.Mask { return MaskRepresentationDetails }

type TemplateDefault struct {
	enovia.Object
	Category string `json:"category,omitempty"`
}

func (TemplateDefault) Mask() modeler.Mask { return MaskTemplateDefault }

type ProductInstance struct {
	enovia.Object
	ReferencedObject enovia.TypedURI `json:"referencedObject"`
}

func (ProductInstance) Mask() modeler.Mask { return MaskProductInstance }

// RepresentationLink is a representation attached to a part or product.
type RepresentationLink struct {
	enovia.Object
}

func (RepresentationLink) Mask() modeler.Mask { return modeler.NoMask }

type PartMask interface {
	PartDefault | PartDetails
	modeler.Projection
}

type ProductMask interface {
	ProductDefault | ProductDetails
	modeler.Projection
}

// Mask is every projection the xCAD resources serve. The projection picks the
// resource a generic call goes to.
type Mask interface {
	PartDefault | PartDetails |
		ProductDefault | ProductDetails |
		RepresentationDefault | RepresentationDetails |
		TemplateDefault
	modeler.Projection
}

type Attributes struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
}

type CreateItem struct {
	Attributes Attributes `json:"attributes"`
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

// InstantiateRequest names the product built from a template. An empty title
// keeps the one of the template.
type InstantiateRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}
