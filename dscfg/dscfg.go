// Package dscfg reads the configuration (variability) data of configured references.
package dscfg

import (
	"context"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/client"
	"github.com/totegamma/enovia-go/modeler"
)

const (
	Namespace     = "dscfg"
	TypeReference = "dscfg:Reference"

	MaskReferenceDefault modeler.Mask = "dsmvcfg:ReferenceMask.Default"
)

var Definition = modeler.Definition{
	Namespace: Namespace,
	Type:      TypeReference,
	Masks:     []modeler.Mask{MaskReferenceDefault},
}

// Criteria tells which kinds of effectivity are enabled on a reference.
type Criteria struct {
	Feature       bool `json:"feature"`
	Manufacturing bool `json:"manufacturing"`
	Milestone     bool `json:"milestone"`
	Unit          bool `json:"unit"`
	Date          bool `json:"date"`
}

type Model struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Title string `json:"title,omitempty"`
}

type ReferenceDefault struct {
	enovia.Object
	EnabledCriterias Criteria `json:"enabledCriterias"`
	Models           []Model  `json:"models,omitempty"`
}

func (ReferenceDefault) Mask() modeler.Mask { return MaskReferenceDefault }

type Service struct {
	references *modeler.Resource
}

func NewService(cl *client.Client) *Service {
	return &Service{references: modeler.NewResource(cl, Definition)}
}

func (s *Service) Resource() *modeler.Resource { return s.references }

// Configuration returns the configuration of the reference id. An unconfigured
// reference yields an error matching enovia.ErrNotFound.
func (s *Service) Configuration(ctx context.Context, id string) (ReferenceDefault, error) {
	return modeler.Get[ReferenceDefault](ctx, s.references, id)
}
