package modeler_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/client"
	"github.com/totegamma/enovia-go/modeler"
	"github.com/totegamma/enovia-go/passport"
)

const (
	maskDefault = modeler.Mask("dsmveng:EngItemMask.Default")
	maskDetails = modeler.Mask("dsmveng:EngItemMask.Details")
)

type itemDefault struct {
	enovia.Object
}

func (itemDefault) Mask() modeler.Mask { return maskDefault }

type itemDetails struct {
	enovia.Object
	PartNumber string `json:"partNumber"`
}

func (itemDetails) Mask() modeler.Mask { return maskDetails }

type itemBogus struct {
	enovia.Object
}

func (itemBogus) Mask() modeler.Mask { return "dsmveng:EngItemMask.Bogus" }

type instanceRow struct {
	enovia.Object
}

func (instanceRow) Mask() modeler.Mask { return "dsmveng:EngInstanceMask.Default" }

var engItemDef = modeler.Definition{
	Type:  "dseng:EngItem",
	Masks: []modeler.Mask{maskDefault, maskDetails},
}

var instances = modeler.Relation{
	Name:  "dseng:EngInstance",
	Masks: []modeler.Mask{"dsmveng:EngInstanceMask.Default"},
}

type recorded struct {
	Method string
	Path   string
	Query  map[string]string
	Body   string
}

// space is a minimal modeler endpoint serving an ordered item list.
type space struct {
	mu       sync.Mutex
	items    []map[string]any
	requests []recorded
	calls    atomic.Int32
	// overlap makes every page after the first repeat the previous page's last row.
	overlap bool
	// stuck makes search ignore $skip.
	stuck bool
	// doubled makes bulk answers list every member twice.
	doubled bool
}

func newSpace(n int, prefix string) *space {
	s := &space{}
	for i := 1; i <= n; i++ {
		s.items = append(s.items, map[string]any{
			"id":         fmt.Sprintf("%s-%02d", prefix, i),
			"title":      fmt.Sprintf("%s part %d", prefix, i),
			"cestamp":    "c" + strconv.Itoa(i),
			"partNumber": fmt.Sprintf("PN-%d", i),
		})
	}
	return s
}

func (s *space) add(id, title string) {
	s.items = append(s.items, map[string]any{"id": id, "title": title, "cestamp": "c0"})
}

func (s *space) log() []recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recorded(nil), s.requests...)
}

func (s *space) find(id string) map[string]any {
	for _, item := range s.items {
		if item["id"] == id {
			return item
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *space) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == enovia.CSRFPath {
		writeJSON(w, 200, map[string]any{"success": true, "csrf": map[string]string{"name": "ENO_CSRF_TOKEN", "value": "tok"}})
		return
	}

	s.calls.Add(1)
	body, _ := io.ReadAll(r.Body)
	query := map[string]string{}
	for k, v := range r.URL.Query() {
		query[k] = v[0]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, recorded{Method: r.Method, Path: r.URL.Path, Query: query, Body: string(body)})

	rest, ok := strings.CutPrefix(r.URL.Path, "/resources/v1/modeler/dseng/dseng:EngItem")
	if !ok {
		writeJSON(w, 404, map[string]string{"error": "unknown resource"})
		return
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case r.Method == http.MethodGet && parts[0] == "search":
		text := query["$searchStr"]
		skip, _ := strconv.Atoi(query["$skip"])
		top, _ := strconv.Atoi(query["$top"])
		matches := []map[string]any{}
		for _, item := range s.items {
			if strings.Contains(item["id"].(string), text) || strings.Contains(item["title"].(string), text) {
				matches = append(matches, item)
			}
		}
		if s.overlap && skip > 0 {
			skip--
		}
		if s.stuck {
			skip = 0
		}
		page := []map[string]any{}
		for i := skip; i < len(matches) && len(page) < top; i++ {
			page = append(page, matches[i])
		}
		writeJSON(w, 200, map[string]any{"totalItems": len(page), "member": page})

	case r.Method == http.MethodPost && parts[0] == "bulkfetch":
		var ids []string
		_ = json.Unmarshal(body, &ids)
		members := []map[string]any{}
		failures := []map[string]string{}
		for _, id := range ids {
			switch {
			case strings.HasPrefix(id, "bad"):
				failures = append(failures, map[string]string{"id": id, "message": "invalid id"})
			case s.find(id) != nil:
				members = append(members, s.find(id))
				if s.doubled {
					members = append(members, s.find(id))
				}
			}
		}
		writeJSON(w, 200, map[string]any{"totalItems": len(members), "member": members, "failures": failures})

	case r.Method == http.MethodPost && parts[0] == "bulkupdate":
		var req enovia.BulkUpdateRequest
		_ = json.Unmarshal(body, &req)
		members := []map[string]any{}
		failures := []map[string]string{}
		for _, item := range req.Items {
			obj := s.find(item.ID)
			if obj == nil || obj["cestamp"] != item.Cestamp {
				failures = append(failures, map[string]string{"id": item.ID, "message": "stale"})
				continue
			}
			for k, v := range item.Attributes {
				obj[k] = v
			}
			members = append(members, obj)
		}
		writeJSON(w, 200, map[string]any{"member": members, "failures": failures})

	case r.Method == http.MethodPost && parts[0] == "locate":
		var req enovia.ReferencedObjects
		_ = json.Unmarshal(body, &req)
		members := []map[string]any{}
		for _, ref := range req.ReferencedObject {
			if obj := s.find(ref.Identifier); obj != nil {
				members = append(members, obj)
			}
		}
		writeJSON(w, 200, map[string]any{"member": members})

	case r.Method == http.MethodPost && len(parts) == 1 && parts[0] == "":
		writeJSON(w, 200, map[string]any{"member": []map[string]any{{"id": "NEW-1", "title": "created"}}})

	case r.Method == http.MethodGet && len(parts) == 1:
		if parts[0] == "empty" {
			writeJSON(w, 200, map[string]any{"totalItems": 0, "member": []any{}})
			return
		}
		obj := s.find(parts[0])
		if obj == nil {
			writeJSON(w, 404, map[string]string{"error": "Object not found"})
			return
		}
		writeJSON(w, 200, map[string]any{"totalItems": 1, "member": []any{obj}})

	case r.Method == http.MethodPatch && len(parts) == 1:
		obj := s.find(parts[0])
		if obj == nil {
			writeJSON(w, 404, map[string]string{"error": "Object not found"})
			return
		}
		var patch map[string]any
		_ = json.Unmarshal(body, &patch)
		if patch["cestamp"] != obj["cestamp"] {
			writeJSON(w, 409, map[string]string{"error": "cestamp mismatch"})
			return
		}
		for k, v := range patch {
			if k != "cestamp" {
				obj[k] = v
			}
		}
		writeJSON(w, 200, map[string]any{"member": []any{obj}})

	case r.Method == http.MethodDelete && len(parts) == 1:
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodGet && len(parts) == 2:
		writeJSON(w, 200, map[string]any{"totalItems": 0})

	case r.Method == http.MethodPost && len(parts) == 3 && (parts[2] == "attach" || parts[2] == "detach"):
		writeJSON(w, 200, map[string]any{"success": true})

	default:
		writeJSON(w, 405, map[string]string{"error": "unsupported"})
	}
}

func newResource(t *testing.T, s *space) *modeler.Resource {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	cl, err := client.New(client.Config{
		BaseURL:         srv.URL,
		SecurityContext: "VPLMProjectLeader.Company Name.Common Space",
	}, passport.NewCookieSession(map[string]string{"JSESSIONID": "sess"}))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return modeler.NewResource(cl, engItemDef)
}
