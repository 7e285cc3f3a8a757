package rest

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/internal/plmfake"
	"github.com/totegamma/enovia-go/internal/present/rest/middleware"
	"github.com/totegamma/enovia-go/internal/present/rest/presenter"
)

const defaultTop = 50

type Handler struct {
	space  *plmfake.Space
	logger *zap.Logger
}

func NewHandler(
	space *plmfake.Space,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		space:  space,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, auth *middleware.AuthMiddleware) {
	e.GET(enovia.CSRFPath, h.handleCSRF, auth.RequireSession)

	g := e.Group(enovia.ModelerRoot, auth.RequireSession, auth.IdentifyContext)
	g.GET("/dslc/changeControl/:pid", h.handleChangeControl)
	g.POST("/dslc/changeControl/:pid", h.handleEnableChangeControl)

	g.POST("/:ns/:type", h.handleCreate)
	g.GET("/:ns/:type/search", h.handleSearch)
	g.POST("/:ns/:type/bulkfetch", h.handleBulkFetch)
	g.POST("/:ns/:type/bulkupdate", h.handleBulkUpdate)
	g.POST("/:ns/:type/locate", h.handleLocate)
	g.GET("/:ns/:type/:id", h.handleGet)
	g.PATCH("/:ns/:type/:id", h.handlePatch)
	g.DELETE("/:ns/:type/:id", h.handleDelete)
	g.POST("/:ns/:type/:id/expand", h.handleExpand)
	g.POST("/:ns/:type/:id/instantiate", h.handleInstantiate)
	g.GET("/:ns/:type/:id/:rel", h.handleRelated)
	g.POST("/:ns/:type/:id/:rel", h.handleAddRelated)
	g.POST("/:ns/:type/:id/:rel/attach", h.handleAttach)
	g.POST("/:ns/:type/:id/:rel/detach", h.handleDetach)
	g.GET("/:ns/:type/:id/:rel/:relid", h.handleRelatedOne)
	g.DELETE("/:ns/:type/:id/:rel/:relid", h.handleRemoveRelated)
}

func param(c echo.Context, name string) string {
	v := c.Param(name)
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

func decode(c echo.Context, v any) error {
	if err := json.NewDecoder(c.Request().Body).Decode(v); err != nil {
		return errors.Wrap(err, "invalid request body")
	}
	return nil
}

type badRequestError string

func (e badRequestError) Error() string { return string(e) }

// kind resolves the :ns/:type pair and checks the requested mask.
func (h *Handler) kind(c echo.Context) (plmfake.Kind, error) {
	k, err := h.relationKind(c)
	if err != nil {
		return k, err
	}
	if mask := c.QueryParam("$mask"); !k.Allows(mask) {
		return plmfake.Kind{}, badRequestError(fmt.Sprintf("invalid mask %s for %s", mask, k.Type))
	}
	return k, nil
}

// relationKind resolves the :ns/:type pair of routes whose mask belongs to the
// related objects.
func (h *Handler) relationKind(c echo.Context) (plmfake.Kind, error) {
	typ := param(c, "type")
	k, ok := h.space.Kind(typ)
	if !ok || k.Namespace != param(c, "ns") {
		return plmfake.Kind{}, enovia.NotFoundError{Resource: param(c, "ns") + "/" + typ}
	}
	return k, nil
}

func (h *Handler) handleError(c echo.Context, err error) error {
	var conflict plmfake.ErrConflict
	var bad badRequestError
	switch {
	case errors.As(err, &bad):
		return presenter.BadRequest(c, err)
	case errors.Is(err, enovia.ErrNotFound):
		return presenter.NotFound(c, err.Error())
	case errors.As(err, &conflict):
		return presenter.Conflict(c, err)
	default:
		h.logger.Error("unexpected space error", zap.Error(err))
		return presenter.InternalError(c, err)
	}
}

func (h *Handler) handleCSRF(c echo.Context) error {
	var resp enovia.CSRFResponse
	resp.Success = true
	resp.CSRF.Name = "ENO_CSRF_TOKEN"
	resp.CSRF.Value = h.space.CSRF()
	return presenter.OK(c, resp)
}

func intParam(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.Errorf("invalid %s parameter", name)
	}
	return n, nil
}

func (h *Handler) handleSearch(c echo.Context) error {
	k, err := h.kind(c)
	if err != nil {
		return h.handleError(c, err)
	}
	skip, err := intParam(c, "$skip", 0)
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	top, err := intParam(c, "$top", defaultTop)
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	return presenter.Members(c, h.space.Search(k.Type, c.QueryParam("$searchStr"), skip, top))
}

func (h *Handler) handleGet(c echo.Context) error {
	k, err := h.kind(c)
	if err != nil {
		return h.handleError(c, err)
	}
	id := param(c, "id")
	o, ok := h.space.Get(k.Type, id)
	if !ok {
		return presenter.NotFound(c, fmt.Sprintf("object %s does not exist", id))
	}
	return presenter.Members(c, []plmfake.Object{o})
}

type item struct {
	Type       string         `json:"type"`
	Attributes plmfake.Object `json:"attributes"`
}

type itemsRequest struct {
	Items []item `json:"items"`
}

func (i item) object() plmfake.Object {
	o := plmfake.Object{}
	for k, v := range i.Attributes {
		o[k] = v
	}
	if i.Type != "" {
		o["type"] = i.Type
	}
	return o
}

func (h *Handler) handleCreate(c echo.Context) error {
	k, err := h.kind(c)
	if err != nil {
		return h.handleError(c, err)
	}
	var req itemsRequest
	if err := decode(c, &req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if len(req.Items) == 0 {
		return presenter.BadRequestMessage(c, "items is required")
	}
	created := make([]plmfake.Object, 0, len(req.Items))
	for _, it := range req.Items {
		created = append(created, h.space.Create(k.Type, it.object()))
	}
	return presenter.Members(c, created)
}

func (h *Handler) handlePatch(c echo.Context) error {
	k, err := h.kind(c)
	if err != nil {
		return h.handleError(c, err)
	}
	var patch plmfake.Object
	if err := decode(c, &patch); err != nil {
		return presenter.BadRequest(c, err)
	}
	cestamp, _ := patch["cestamp"].(string)
	if cestamp == "" {
		return presenter.BadRequestMessage(c, "cestamp is required")
	}
	attributes := patch
	if nested, ok := patch["attributes"].(map[string]any); ok {
		attributes = nested
	}
	o, err := h.space.Patch(k.Type, param(c, "id"), cestamp, attributes)
	if err != nil {
		return h.handleError(c, err)
	}
	return presenter.Members(c, []plmfake.Object{o})
}

func (h *Handler) handleDelete(c echo.Context) error {
	k, err := h.kind(c)
	if err != nil {
		return h.handleError(c, err)
	}
	if err := h.space.Delete(k.Type, param(c, "id")); err != nil {
		return h.handleError(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleBulkFetch(c echo.Context) error {
	k, err := h.kind(c)
	if err != nil {
		return h.handleError(c, err)
	}
	var ids []string
	if err := decode(c, &ids); err != nil {
		return presenter.BadRequest(c, err)
	}
	members, failures := h.space.BulkFetch(k.Type, ids)
	return presenter.Bulk(c, members, failures)
}

func (h *Handler) handleBulkUpdate(c echo.Context) error {
	k, err := h.kind(c)
	if err != nil {
		return h.handleError(c, err)
	}
	var req enovia.BulkUpdateRequest
	if err := decode(c, &req); err != nil {
		return presenter.BadRequest(c, err)
	}
	members, failures := h.space.BulkUpdate(k.Type, req.Items)
	return presenter.Bulk(c, members, failures)
}

func (h *Handler) handleLocate(c echo.Context) error {
	k, err := h.kind(c)
	if err != nil {
		return h.handleError(c, err)
	}
	var req enovia.ReferencedObjects
	if err := decode(c, &req); err != nil {
		return presenter.BadRequest(c, err)
	}
	return presenter.Members(c, h.space.Locate(k.Type, req.ReferencedObject))
}

type expandRequest struct {
	ExpandDepth int `json:"expandDepth"`
}

func (h *Handler) handleExpand(c echo.Context) error {
	k, err := h.kind(c)
	if err != nil {
		return h.handleError(c, err)
	}
	if k.InstanceRelation == "" {
		return presenter.BadRequestMessage(c, fmt.Sprintf("%s cannot be expanded", k.Type))
	}
	var req expandRequest
	if err := decode(c, &req); err != nil {
		return presenter.BadRequest(c, err)
	}
	rows, err := h.space.Expand(k.Type, param(c, "id"), k.InstanceRelation, req.ExpandDepth)
	if err != nil {
		return h.handleError(c, err)
	}
	return presenter.Members(c, rows)
}

type instantiateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (h *Handler) handleInstantiate(c echo.Context) error {
	k, err := h.relationKind(c)
	if err != nil {
		return h.handleError(c, err)
	}
	id := param(c, "id")
	template, ok := h.space.Get(k.Type, id)
	if !ok {
		return presenter.NotFound(c, fmt.Sprintf("template %s does not exist", id))
	}
	var req instantiateRequest
	if err := decode(c, &req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.Title == "" {
		req.Title, _ = template["title"].(string)
	}
	product := h.space.Create("dsxcad:Product", plmfake.Object{
		"title":       req.Title,
		"description": req.Description,
		"template":    id,
	})
	return presenter.Members(c, []plmfake.Object{product})
}

func (h *Handler) handleRelated(c echo.Context) error {
	k, err := h.relationKind(c)
	if err != nil {
		return h.handleError(c, err)
	}
	rows, err := h.space.Related(k.Type, param(c, "id"), param(c, "rel"))
	if err != nil {
		return h.handleError(c, err)
	}
	return presenter.Members(c, rows)
}

func (h *Handler) handleRelatedOne(c echo.Context) error {
	k, err := h.relationKind(c)
	if err != nil {
		return h.handleError(c, err)
	}
	row, err := h.space.RelatedOne(k.Type, param(c, "id"), param(c, "rel"), param(c, "relid"))
	if err != nil {
		return h.handleError(c, err)
	}
	return presenter.Members(c, []plmfake.Object{row})
}

// relatedRows accepts {"items": [...]} or a single row.
func relatedRows(body plmfake.Object) []plmfake.Object {
	var rows []plmfake.Object
	if items, ok := body["items"].([]any); ok {
		for _, it := range items {
			if row, ok := it.(map[string]any); ok {
				rows = append(rows, row)
			}
		}
	} else {
		rows = []plmfake.Object{body}
	}
	for _, row := range rows {
		if attributes, ok := row["attributes"].(map[string]any); ok {
			delete(row, "attributes")
			for key, v := range attributes {
				row[key] = v
			}
		}
	}
	return rows
}

func (h *Handler) handleAddRelated(c echo.Context) error {
	k, err := h.relationKind(c)
	if err != nil {
		return h.handleError(c, err)
	}
	var body plmfake.Object
	if err := decode(c, &body); err != nil {
		return presenter.BadRequest(c, err)
	}
	created, err := h.space.AddRelated(k.Type, param(c, "id"), param(c, "rel"), relatedRows(body))
	if err != nil {
		return h.handleError(c, err)
	}
	return presenter.Members(c, created)
}

func (h *Handler) handleRemoveRelated(c echo.Context) error {
	k, err := h.relationKind(c)
	if err != nil {
		return h.handleError(c, err)
	}
	if err := h.space.RemoveRelated(k.Type, param(c, "id"), param(c, "rel"), param(c, "relid")); err != nil {
		return h.handleError(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleAttach(c echo.Context) error {
	return h.link(c, h.space.Attach)
}

func (h *Handler) handleDetach(c echo.Context) error {
	return h.link(c, h.space.Detach)
}

func (h *Handler) link(c echo.Context, apply func(typ, id, rel string, refs []enovia.TypedURI) error) error {
	k, err := h.relationKind(c)
	if err != nil {
		return h.handleError(c, err)
	}
	var req enovia.ReferencedObjects
	if err := decode(c, &req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if len(req.ReferencedObject) == 0 {
		return presenter.BadRequestMessage(c, "referencedObject is required")
	}
	if err := apply(k.Type, param(c, "id"), param(c, "rel"), req.ReferencedObject); err != nil {
		return h.handleError(c, err)
	}
	return presenter.OK(c, echo.Map{"success": true})
}

type changeControlResponse struct {
	ID            string `json:"id"`
	ChangeControl string `json:"changeControl"`
}

func pid(c echo.Context) string {
	return strings.TrimPrefix(param(c, "pid"), "pid:")
}

func (h *Handler) handleChangeControl(c echo.Context) error {
	id := pid(c)
	enabled, ok := h.space.ChangeControl(id)
	if !ok {
		return presenter.NotFound(c, fmt.Sprintf("object %s does not exist", id))
	}
	status := "disabled"
	if enabled {
		status = "enabled"
	}
	return presenter.OK(c, changeControlResponse{ID: id, ChangeControl: status})
}

func (h *Handler) handleEnableChangeControl(c echo.Context) error {
	id := pid(c)
	if err := h.space.EnableChangeControl(id); err != nil {
		return h.handleError(c, err)
	}
	return presenter.OK(c, changeControlResponse{ID: id, ChangeControl: "enabled"})
}
