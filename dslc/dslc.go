// Package dslc reads and enables change control (lifecycle) on modeler objects.
package dslc

import (
	"context"

	"github.com/pkg/errors"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/client"
	"github.com/totegamma/enovia-go/modeler"
)

const Namespace = "dslc"

const (
	Enabled  = "enabled"
	Disabled = "disabled"
)

type Status struct {
	ID            string `json:"id"`
	ChangeControl string `json:"changeControl"`
}

func (s Status) Enabled() bool {
	return s.ChangeControl == Enabled
}

type Service struct {
	client *client.Client
}

func NewService(cl *client.Client) *Service {
	return &Service{client: cl}
}

var errNoID = errors.New("id is required")

func changeControlPath(id string) string {
	return enovia.ComposeModelerPath(Namespace, "changeControl", "pid:"+id)
}

// Status reports whether changes to id are tracked by change actions.
func (s *Service) Status(ctx context.Context, id string) (Status, error) {
	if id == "" {
		return Status{}, &modeler.ValidationError{Op: "changecontrol", Err: errNoID}
	}
	return client.GetIndividual[Status](ctx, s.client, changeControlPath(id))
}

// Enable turns change control on. It cannot be turned off again.
func (s *Service) Enable(ctx context.Context, id string) (Status, error) {
	if id == "" {
		return Status{}, &modeler.ValidationError{Op: "changecontrol", Err: errNoID}
	}
	return client.PostIndividual[Status](ctx, s.client, changeControlPath(id), struct{}{})
}
