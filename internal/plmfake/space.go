// Package plmfake keeps the in-memory state of a fake 3DSpace used by contract
// tests and local development. It models the wire contract only: objects are
// plain JSON maps, cestamps change on every write and nothing else is enforced.
package plmfake

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/totegamma/enovia-go"
)

type Object = map[string]any

const ConfigurationType = "dscfg:Reference"

// Kind is one modeler resource the space serves.
type Kind struct {
	Namespace    string
	Type         string
	PlatformType string
	Masks        []string

	// InstanceRelation is walked by expand.
	InstanceRelation string
}

func (k Kind) Allows(mask string) bool {
	return mask == "" || slices.Contains(k.Masks, mask)
}

// Failure is one rejected row of a batch request.
type Failure struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type ErrConflict struct {
	ID string
}

func (e ErrConflict) Error() string {
	return fmt.Sprintf("cestamp mismatch for %s: the object was modified by another session", e.ID)
}

type Space struct {
	mu            sync.RWMutex
	kinds         map[string]Kind
	objects       map[string]map[string]Object
	order         map[string][]string
	related       map[string][]Object
	changeControl map[string]bool
	csrf          string
	now           func() time.Time
}

func NewSpace(kinds ...Kind) *Space {
	s := &Space{
		kinds:         map[string]Kind{},
		objects:       map[string]map[string]Object{},
		order:         map[string][]string{},
		related:       map[string][]Object{},
		changeControl: map[string]bool{},
		csrf:          newStamp(),
		now:           time.Now,
	}
	if len(kinds) == 0 {
		kinds = DefaultKinds()
	}
	for _, k := range kinds {
		s.kinds[k.Type] = k
		s.objects[k.Type] = map[string]Object{}
	}
	return s
}

// DefaultKinds lists the resources of the engineering, manufacturing, drawing,
// xCAD and configuration modelers.
func DefaultKinds() []Kind {
	return []Kind{
		{Namespace: "dseng", Type: "dseng:EngItem", PlatformType: "VPMReference", InstanceRelation: "dseng:EngInstance",
			Masks: []string{"dsmveng:EngItemMask.Default", "dsmveng:EngItemMask.Common", "dsmveng:EngItemMask.Details"}},
		{Namespace: "dsmfg", Type: "dsmfg:MfgItem", PlatformType: "CreateAssembly", InstanceRelation: "dsmfg:MfgItemInstance",
			Masks: []string{"dsmvmfg:MfgItemMask.Default", "dsmvmfg:MfgItemMask.Details"}},
		{Namespace: "dsdrw", Type: "dsdrw:Drawing", PlatformType: "Drawing",
			Masks: []string{"dsmvdrw:DrawingMask.Default", "dsmvdrw:DrawingMask.Details"}},
		{Namespace: "dsxcad", Type: "dsxcad:Part", PlatformType: "VPMReference",
			Masks: []string{"dsmvxcad:xCADPartMask.Default", "dsmvxcad:xCADPartMask.Details"}},
		{Namespace: "dsxcad", Type: "dsxcad:Product", PlatformType: "VPMReference", InstanceRelation: "dsxcad:ProductInstance",
			Masks: []string{"dsmvxcad:xCADProductMask.Default", "dsmvxcad:xCADProductMask.Details"}},
		{Namespace: "dsxcad", Type: "dsxcad:Representation", PlatformType: "3DShape",
			Masks: []string{"dsmvxcad:xCADRepresentationMask.Default", "dsmvxcad:xCADRepresentationMask.Details"}},
		{Namespace: "dsxcad", Type: "dsxcad:Template", PlatformType: "VPMReference",
			Masks: []string{"dsmvxcad:xCADTemplateMask.Default"}},
		{Namespace: "dscfg", Type: "dscfg:Reference", PlatformType: "VPMReference",
			Masks: []string{"dsmvcfg:ReferenceMask.Default"}},
	}
}

func newStamp() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func clone(o Object) Object {
	if o == nil {
		return nil
	}
	out := make(Object, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

func relatedKey(typ, id, rel string) string {
	return typ + "/" + id + "/" + rel
}

func (s *Space) Kind(typ string) (Kind, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.kinds[typ]
	return k, ok
}

// CSRF returns the token writes must present.
func (s *Space) CSRF() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.csrf
}

// RotateCSRF invalidates the current token, as a session timeout would.
func (s *Space) RotateCSRF() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.csrf = newStamp()
	return s.csrf
}

func (s *Space) stamp(typ string, o Object) {
	now := s.now().UTC().Format(time.RFC3339)
	if _, ok := o["created"]; !ok {
		o["created"] = now
	}
	o["modified"] = now
	o["cestamp"] = newStamp()
	if k, ok := s.kinds[typ]; ok {
		if _, ok := o["type"]; !ok {
			o["type"] = k.PlatformType
		}
	}
	if _, ok := o["state"]; !ok {
		o["state"] = "IN_WORK"
	}
	if _, ok := o["revision"]; !ok {
		o["revision"] = "A"
	}
}

// Seed stores o as is. A missing id or cestamp is generated.
func (s *Space) Seed(typ string, o Object) Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	o = clone(o)
	id, _ := o["id"].(string)
	if id == "" {
		id = newStamp()
		o["id"] = id
	}
	cestamp, _ := o["cestamp"].(string)
	s.stamp(typ, o)
	if cestamp != "" {
		o["cestamp"] = cestamp
	}
	if _, ok := s.objects[typ]; !ok {
		s.objects[typ] = map[string]Object{}
	}
	if _, exists := s.objects[typ][id]; !exists {
		s.order[typ] = append(s.order[typ], id)
	}
	s.objects[typ][id] = o
	return clone(o)
}

func (s *Space) Get(typ, id string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[typ][id]
	return clone(o), ok
}

func matches(o Object, text string) bool {
	if text == "" || text == "*" {
		return true
	}
	text = strings.ToLower(strings.Trim(text, "*"))
	for _, key := range []string{"id", "name", "title", "description"} {
		if v, ok := o[key].(string); ok && strings.Contains(strings.ToLower(v), text) {
			return true
		}
	}
	return false
}

// Search returns the window [skip, skip+top) of the objects matching text, in
// insertion order.
func (s *Space) Search(typ, text string, skip, top int) []Object {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []Object{}
	n := 0
	for _, id := range s.order[typ] {
		o, ok := s.objects[typ][id]
		if !ok || !matches(o, text) {
			continue
		}
		if n >= skip && len(result) < top {
			result = append(result, clone(o))
		}
		n++
	}
	return result
}

// Create stores one new object built from attributes.
func (s *Space) Create(typ string, attributes Object) Object {
	o := clone(attributes)
	if o == nil {
		o = Object{}
	}
	delete(o, "id")
	delete(o, "cestamp")
	return s.Seed(typ, o)
}

// Patch applies attributes when cestamp matches the stored one.
func (s *Space) Patch(typ, id, cestamp string, attributes Object) (Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.objects[typ][id]
	if !ok {
		return nil, enovia.NotFoundError{Resource: typ, ID: id}
	}
	if cestamp != o["cestamp"] {
		return nil, ErrConflict{ID: id}
	}
	for k, v := range attributes {
		switch k {
		case "id", "cestamp", "created", "modified":
			continue
		}
		o[k] = v
	}
	s.stamp(typ, o)
	return clone(o), nil
}

func (s *Space) Delete(typ, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[typ][id]; !ok {
		return enovia.NotFoundError{Resource: typ, ID: id}
	}
	delete(s.objects[typ], id)
	s.order[typ] = slices.DeleteFunc(s.order[typ], func(x string) bool { return x == id })
	for key := range s.related {
		if strings.HasPrefix(key, typ+"/"+id+"/") {
			delete(s.related, key)
		}
	}
	return nil
}

func (s *Space) BulkFetch(typ string, ids []string) ([]Object, []Failure) {
	members := []Object{}
	failures := []Failure{}
	for _, id := range ids {
		o, ok := s.Get(typ, id)
		if !ok {
			failures = append(failures, Failure{ID: id, Message: "Object not found"})
			continue
		}
		members = append(members, o)
	}
	return members, failures
}

func (s *Space) BulkUpdate(typ string, items []enovia.UpdateItem) ([]Object, []Failure) {
	members := []Object{}
	failures := []Failure{}
	for _, item := range items {
		cestamp := item.Cestamp
		if cestamp == "" {
			if current, ok := s.Get(typ, item.ID); ok {
				cestamp, _ = current["cestamp"].(string)
			}
		}
		o, err := s.Patch(typ, item.ID, cestamp, item.Attributes)
		if err != nil {
			failures = append(failures, Failure{ID: item.ID, Message: err.Error()})
			continue
		}
		members = append(members, o)
	}
	return members, failures
}

// Locate returns the objects of typ the references point at.
func (s *Space) Locate(typ string, refs []enovia.TypedURI) []Object {
	members := []Object{}
	for _, ref := range refs {
		if o, ok := s.Get(typ, ref.Identifier); ok {
			members = append(members, o)
		}
	}
	return members
}

func (s *Space) Related(typ, id, rel string) ([]Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.objects[typ][id]; !ok {
		return nil, enovia.NotFoundError{Resource: typ, ID: id}
	}
	rows := s.related[relatedKey(typ, id, rel)]
	out := make([]Object, 0, len(rows))
	for _, row := range rows {
		out = append(out, clone(row))
	}
	return out, nil
}

func (s *Space) RelatedOne(typ, id, rel, relatedID string) (Object, error) {
	rows, err := s.Related(typ, id, rel)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row["id"] == relatedID {
			return row, nil
		}
	}
	return nil, enovia.NotFoundError{Resource: rel, ID: relatedID}
}

// AddRelated creates rows below id. Rows pointing at another object carry it
// under referencedObject.
func (s *Space) AddRelated(typ, id, rel string, rows []Object) ([]Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[typ][id]; !ok {
		return nil, enovia.NotFoundError{Resource: typ, ID: id}
	}
	key := relatedKey(typ, id, rel)
	created := make([]Object, 0, len(rows))
	for _, row := range rows {
		o := clone(row)
		if o == nil {
			o = Object{}
		}
		if rid, _ := o["id"].(string); rid == "" {
			o["id"] = newStamp()
		}
		if _, ok := o["type"]; !ok {
			o["type"] = rel
		}
		o["cestamp"] = newStamp()
		s.related[key] = append(s.related[key], o)
		created = append(created, clone(o))
	}
	return created, nil
}

func (s *Space) RemoveRelated(typ, id, rel, relatedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := relatedKey(typ, id, rel)
	rows := s.related[key]
	kept := slices.DeleteFunc(slices.Clone(rows), func(o Object) bool { return o["id"] == relatedID })
	if len(kept) == len(rows) {
		return enovia.NotFoundError{Resource: rel, ID: relatedID}
	}
	s.related[key] = kept
	return nil
}

// Attach links references below id; linking an already linked identifier is a no-op.
func (s *Space) Attach(typ, id, rel string, refs []enovia.TypedURI) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[typ][id]; !ok {
		return enovia.NotFoundError{Resource: typ, ID: id}
	}
	key := relatedKey(typ, id, rel)
	for _, ref := range refs {
		exists := slices.ContainsFunc(s.related[key], func(o Object) bool { return o["id"] == ref.Identifier })
		if exists {
			continue
		}
		s.related[key] = append(s.related[key], Object{
			"id":           ref.Identifier,
			"type":         ref.Type,
			"source":       ref.Source,
			"relativePath": ref.RelativePath,
		})
	}
	return nil
}

func (s *Space) Detach(typ, id, rel string, refs []enovia.TypedURI) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[typ][id]; !ok {
		return enovia.NotFoundError{Resource: typ, ID: id}
	}
	key := relatedKey(typ, id, rel)
	for _, ref := range refs {
		s.related[key] = slices.DeleteFunc(s.related[key], func(o Object) bool { return o["id"] == ref.Identifier })
	}
	return nil
}

// Expand walks the instance rows of id down to depth levels. Every returned row
// carries the Path of ids that leads to it from the root. A depth below one
// walks the whole structure.
func (s *Space) Expand(typ, id, rel string, depth int) ([]Object, error) {
	root, ok := s.Get(typ, id)
	if !ok {
		return nil, enovia.NotFoundError{Resource: typ, ID: id}
	}
	root["Path"] = []string{id}
	out := []Object{root}

	type frame struct {
		id    string
		path  []string
		level int
	}
	stack := []frame{{id: id, path: []string{id}, level: 0}}
	visited := map[string]bool{id: true}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if depth > 0 && f.level >= depth {
			continue
		}
		rows, err := s.Related(typ, f.id, rel)
		if err != nil {
			continue
		}
		for _, row := range rows {
			instanceID, _ := row["id"].(string)
			path := append(slices.Clone(f.path), instanceID)
			row["Path"] = path
			out = append(out, row)

			ref, _ := row["referencedObject"].(map[string]any)
			refID, _ := ref["identifier"].(string)
			if refID == "" || visited[refID] {
				continue
			}
			visited[refID] = true
			child, ok := s.Get(typ, refID)
			if !ok {
				continue
			}
			childPath := append(slices.Clone(path), refID)
			child["Path"] = childPath
			out = append(out, child)
			stack = append(stack, frame{id: refID, path: childPath, level: f.level + 1})
		}
	}
	return out, nil
}

func (s *Space) ChangeControl(id string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists(id) {
		return false, false
	}
	return s.changeControl[id], true
}

func (s *Space) EnableChangeControl(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists(id) {
		return enovia.NotFoundError{Resource: "changeControl", ID: id}
	}
	s.changeControl[id] = true
	return nil
}

func (s *Space) exists(id string) bool {
	for _, objects := range s.objects {
		if _, ok := objects[id]; ok {
			return true
		}
	}
	return false
}

// Configure publishes configuration data for id under dscfg:Reference.
func (s *Space) Configure(id string, cfg Object) Object {
	o := clone(cfg)
	if o == nil {
		o = Object{}
	}
	o["id"] = id
	return s.Seed(ConfigurationType, o)
}
