package presenter

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
}

type collection struct {
	TotalItems int   `json:"totalItems"`
	Member     []any `json:"member"`
}

type bulkCollection struct {
	TotalItems int   `json:"totalItems"`
	Member     []any `json:"member"`
	Failures   any   `json:"failures"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

// Members answers with the member envelope every modeler list uses.
func Members[T any](c echo.Context, items []T) error {
	member := make([]any, len(items))
	for i, item := range items {
		member[i] = item
	}
	return c.JSON(http.StatusOK, collection{TotalItems: len(member), Member: member})
}

func Bulk[T, F any](c echo.Context, items []T, failures []F) error {
	member := make([]any, len(items))
	for i, item := range items {
		member[i] = item
	}
	if failures == nil {
		failures = []F{}
	}
	return c.JSON(http.StatusOK, bulkCollection{TotalItems: len(member), Member: member, Failures: failures})
}

func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func BadRequest(c echo.Context, err error) error {
	c.Logger().Warn("bad request: ", err)
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	c.Logger().Warn("bad request: ", msg)
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func Unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: msg})
}

func Forbidden(c echo.Context, msg string) error {
	return c.JSON(http.StatusForbidden, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func Conflict(c echo.Context, err error) error {
	return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
}

func InternalError(c echo.Context, err error) error {
	c.Logger().Error("internal error: ", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
