package dseng

import (
	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/modeler"
)

const (
	Namespace = "dseng"

	TypeEngItem             = "dseng:EngItem"
	RelationInstance        = "dseng:EngInstance"
	RelationEnterpriseRef   = "dseng:EnterpriseReference"
	PlatformTypeVPMRef      = "VPMReference"
	PlatformTypeVPMInstance = "VPMInstance"

	MaskEngItemDefault     modeler.Mask = "dsmveng:EngItemMask.Default"
	MaskEngItemCommon      modeler.Mask = "dsmveng:EngItemMask.Common"
	MaskEngItemDetails     modeler.Mask = "dsmveng:EngItemMask.Details"
	MaskEngInstanceDefault modeler.Mask = "dsmveng:EngInstanceMask.Default"
	MaskEngInstanceDetails modeler.Mask = "dsmveng:EngInstanceMask.Details"
)

var Definition = modeler.Definition{
	Namespace: Namespace,
	Type:      TypeEngItem,
	Masks:     []modeler.Mask{MaskEngItemDefault, MaskEngItemCommon, MaskEngItemDetails},
}

var (
	instances = modeler.Relation{
		Name:  RelationInstance,
		Masks: []modeler.Mask{MaskEngInstanceDefault, MaskEngInstanceDetails},
	}
	enterpriseReference = modeler.Relation{
		Name:  RelationEnterpriseRef,
		Masks: []modeler.Mask{modeler.NoMask},
	}
)

type EngItemDefault struct {
	enovia.Object
}

func (EngItemDefault) Mask() modeler.Mask { return MaskEngItemDefault }

type EngItemCommon struct {
	enovia.Object
	IsLastRevision bool   `json:"isLastRevision"`
	Reserved       bool   `json:"reserved"`
	ReservedBy     string `json:"reservedBy,omitempty"`
}

func (EngItemCommon) Mask() modeler.Mask { return MaskEngItemCommon }

type EngItemDetails struct {
	EngItemCommon
	EnterpriseReference *EnterpriseReference `json:"dseng:EnterpriseReference,omitempty"`
	CustomerAttributes  map[string]any       `json:"dseng:CustomerAttributes,omitempty"`
}

func (EngItemDetails) Mask() modeler.Mask { return MaskEngItemDetails }

type EngInstanceDefault struct {
	enovia.Object
	ReferencedObject enovia.TypedURI `json:"referencedObject"`
}

func (EngInstanceDefault) Mask() modeler.Mask { return MaskEngInstanceDefault }

type EngInstanceDetails struct {
	EngInstanceDefault
	// Position is the 3x4 placement matrix of the instance in its parent.
	Position []float64 `json:"position,omitempty"`
}

func (EngInstanceDetails) Mask() modeler.Mask { return MaskEngInstanceDetails }

type EnterpriseReference struct {
	ID         string `json:"id,omitempty"`
	PartNumber string `json:"partNumber"`
}

func (EnterpriseReference) Mask() modeler.Mask    { return modeler.NoMask }
func (r EnterpriseReference) Identifier() string { return r.ID }

// ExpandRow is one object of an expanded structure. Path lists the ids leading
// to it from the expanded root.
type ExpandRow struct {
	enovia.Object
	ReferencedObject *enovia.TypedURI `json:"referencedObject,omitempty"`
	Path             []string         `json:"Path,omitempty"`
}

// ItemMask is the set of projections the engineering item resource serves.
type ItemMask interface {
	EngItemDefault | EngItemCommon | EngItemDetails
	modeler.Projection
}

type InstanceMask interface {
	EngInstanceDefault | EngInstanceDetails
	modeler.Projection
}

type ItemAttributes struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
}

type CreateItem struct {
	Type       string         `json:"type,omitempty"`
	Attributes ItemAttributes `json:"attributes"`
}

type CreateRequest struct {
	Items []CreateItem `json:"items" validate:"required,min=1,dive"`
}

// ModifyRequest patches an item. Cestamp must be the one last read.
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

type enterpriseReferenceRequest struct {
	PartNumber string `json:"partNumber" validate:"required"`
}

type expandRequest struct {
	ExpandDepth int `json:"expandDepth"`
}
