package enovia

import (
	"encoding/json"
	"time"
)

const (
	ModelerRoot = "/resources/v1/modeler"
	CSRFPath    = "/resources/v1/application/CSRF"

	SourceSpace = "$3DSpace"
)

// Object holds the fields every modeler representation carries. Masks embed it.
type Object struct {
	ID           string     `json:"id"`
	Type         string     `json:"type,omitempty"`
	Name         string     `json:"name,omitempty"`
	Title        string     `json:"title,omitempty"`
	Description  string     `json:"description,omitempty"`
	Revision     string     `json:"revision,omitempty"`
	State        string     `json:"state,omitempty"`
	Owner        string     `json:"owner,omitempty"`
	Organization string     `json:"organization,omitempty"`
	Collabspace  string     `json:"collabspace,omitempty"`
	Cestamp      string     `json:"cestamp,omitempty"`
	Created      *time.Time `json:"created,omitempty"`
	Modified     *time.Time `json:"modified,omitempty"`
	Source       string     `json:"source,omitempty"`
	RelativePath string     `json:"relativePath,omitempty"`
}

func (o Object) Identifier() string { return o.ID }

// Collection is the envelope of every list response.
type Collection[T any] struct {
	TotalItems int               `json:"totalItems"`
	Member     []T               `json:"member"`
	NLSLabel   map[string]string `json:"nlsLabel,omitempty"`
}

// TypedURI references another object in attach, detach and create payloads.
type TypedURI struct {
	Identifier   string `json:"identifier" validate:"required"`
	Type         string `json:"type" validate:"required"`
	Source       string `json:"source,omitempty"`
	RelativePath string `json:"relativePath,omitempty"`
}

// NewTypedURI references id of kind typ living at the given modeler path.
func NewTypedURI(typ, id, relativePath string) TypedURI {
	return TypedURI{
		Identifier:   id,
		Type:         typ,
		Source:       SourceSpace,
		RelativePath: relativePath,
	}
}

// ReferencedObjects is the body of attach, detach and locate requests.
type ReferencedObjects struct {
	ReferencedObject []TypedURI `json:"referencedObject" validate:"required,min=1,dive"`
}

// BulkFailure is one entry of the failure list a batch endpoint reports.
type BulkFailure struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// BulkEnvelope is the raw response of bulkfetch and bulkupdate.
type BulkEnvelope[T any] struct {
	TotalItems int           `json:"totalItems"`
	Member     []T           `json:"member"`
	Failures   []BulkFailure `json:"failures,omitempty"`
}

// BulkResult splits a batch answer into processed objects and the IDs that failed.
type BulkResult[T any] struct {
	Succeeded []T      `json:"succeeded"`
	Failed    []string `json:"failed"`
}

// Total is the number of distinct IDs in the batch. Each ID lands in exactly
// one of Succeeded or Failed, so repeated input IDs are counted once.
func (r BulkResult[T]) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

// UpdateItem is one row of a bulk update.
type UpdateItem struct {
	ID         string         `json:"id" validate:"required"`
	Cestamp    string         `json:"cestamp,omitempty"`
	Attributes map[string]any `json:"attributes"`
}

type BulkUpdateRequest struct {
	Items []UpdateItem `json:"items" validate:"required,min=1,dive"`
}

// ChangeEvent is published for every mirrored object whose payload changed.
type ChangeEvent struct {
	Resource string    `json:"resource"`
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Cestamp  string    `json:"cestamp"`
	Hash     string    `json:"hash"`
	SyncedAt time.Time `json:"syncedAt"`
}

// CSRFResponse is returned by the application CSRF endpoint.
type CSRFResponse struct {
	Success bool `json:"success"`
	CSRF    struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"csrf"`
}

// RawObject keeps the undecoded payload next to the common fields.
type RawObject struct {
	Object
	Raw json.RawMessage `json:"-"`
}

func (r *RawObject) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.Object); err != nil {
		return err
	}
	r.Raw = append(r.Raw[:0], data...)
	return nil
}

func (r RawObject) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(r.Object)
}
