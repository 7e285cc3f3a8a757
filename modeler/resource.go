// Package modeler binds the transport to modeler web service resources.
//
// A Resource is one /resources/v1/modeler/<namespace>/<Type> collection together
// with the masks the service accepts for it. Every typed operation takes the mask
// from its type parameter and refuses masks outside the allow-list before any
// request leaves the process.
package modeler

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/client"
)

const DefaultPageSize = 50

var tracer = otel.Tracer("modeler")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Mask names a server-side projection, e.g. dsmveng:EngItemMask.Details.
type Mask string

// NoMask is used by relations the service serves without a projection parameter.
const NoMask Mask = ""

// Projection is implemented by mask types. Mask must work on the zero value,
// so projections are plain structs with value receivers.
type Projection interface {
	Mask() Mask
	Identifier() string
}

// MaskOf returns the mask T stands for.
func MaskOf[T Projection]() Mask {
	var zero T
	return zero.Mask()
}

// Definition describes one resource kind.
type Definition struct {
	Namespace string
	Type      string
	Masks     []Mask
	PageSize  int
}

// Relation describes a navigable relationship below an object of a resource.
type Relation struct {
	Name  string
	Masks []Mask
}

func (rel Relation) allows(m Mask) bool {
	return slices.Contains(rel.Masks, m)
}

type Resource struct {
	client   *client.Client
	def      Definition
	pageSize int
}

func NewResource(cl *client.Client, def Definition) *Resource {
	pageSize := def.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if def.Namespace == "" {
		def.Namespace = enovia.Namespace(def.Type)
	}
	return &Resource{
		client:   cl,
		def:      def,
		pageSize: pageSize,
	}
}

// WithPageSize returns a copy paging unbounded searches by n rows.
func (r *Resource) WithPageSize(n int) *Resource {
	cp := *r
	if n > 0 {
		cp.pageSize = n
	}
	return &cp
}

func (r *Resource) Client() *client.Client { return r.client }
func (r *Resource) Type() string           { return r.def.Type }
func (r *Resource) Namespace() string      { return r.def.Namespace }
func (r *Resource) PageSize() int          { return r.pageSize }

func (r *Resource) Masks() []Mask {
	return slices.Clone(r.def.Masks)
}

func (r *Resource) Allows(m Mask) bool {
	return slices.Contains(r.def.Masks, m)
}

// Path returns the modeler path of the resource followed by segments.
func (r *Resource) Path(segments ...string) string {
	return enovia.ComposeModelerPath(r.def.Namespace, append([]string{r.def.Type}, segments...)...)
}

// ObjectPath returns the relative path a TypedURI uses to point at id.
func (r *Resource) ObjectPath(id string) string {
	return r.Path(id)
}

// Reference builds the typed URI of id, with the platform type of the object.
func (r *Resource) Reference(platformType, id string) enovia.TypedURI {
	return enovia.NewTypedURI(platformType, id, r.ObjectPath(id))
}

var ErrMaskNotAllowed = errors.New("mask not allowed")

// MaskError reports a projection the resource does not serve.
type MaskError struct {
	Resource string
	Mask     Mask
	Allowed  []Mask
}

func (e *MaskError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, m := range e.Allowed {
		allowed[i] = string(m)
	}
	mask := string(e.Mask)
	if mask == "" {
		mask = "(none)"
	}
	return fmt.Sprintf("mask %s not allowed for %s (allowed: %s)", mask, e.Resource, strings.Join(allowed, ", "))
}

func (e *MaskError) Is(target error) bool {
	return target == ErrMaskNotAllowed
}

func (r *Resource) check(m Mask) error {
	if !r.Allows(m) {
		return &MaskError{Resource: r.def.Type, Mask: m, Allowed: r.Masks()}
	}
	return nil
}

func checkMask[T Projection](r *Resource) (Mask, error) {
	m := MaskOf[T]()
	if err := r.check(m); err != nil {
		return "", err
	}
	return m, nil
}

func checkRelationMask[T Projection](r *Resource, rel Relation) (Mask, error) {
	m := MaskOf[T]()
	if !rel.allows(m) {
		return "", &MaskError{Resource: r.def.Type + "/" + rel.Name, Mask: m, Allowed: slices.Clone(rel.Masks)}
	}
	return m, nil
}

// ValidationError reports a request rejected locally before any I/O.
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string {
	var verrs validator.ValidationErrors
	if errors.As(e.Err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			if fe.Param() != "" {
				msgs = append(msgs, fmt.Sprintf("%s: %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			} else {
				msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
			}
		}
		return fmt.Sprintf("%s: invalid request: %s", e.Op, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("%s: invalid request: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// validateStruct checks struct payloads. Maps and other shapes pass through.
func validateStruct(op string, v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return &ValidationError{Op: op, Err: errors.New("nil request")}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	if err := validate.Struct(rv.Interface()); err != nil {
		return &ValidationError{Op: op, Err: err}
	}
	return nil
}

func validateVar(op string, v any, tag string) error {
	if err := validate.Var(v, tag); err != nil {
		return &ValidationError{Op: op, Err: err}
	}
	return nil
}
