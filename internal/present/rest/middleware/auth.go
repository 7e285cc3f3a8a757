package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/internal/plmfake"
	"github.com/totegamma/enovia-go/internal/present/rest/presenter"
)

var tracer = otel.Tracer("auth")

const (
	securityContextHeader = "SecurityContext"
	csrfHeader            = "ENO_CSRF_TOKEN"
)

type Config struct {
	Tenant        string
	SessionCookie string
	SessionValue  string
}

type AuthMiddleware struct {
	space  *plmfake.Space
	config Config
}

func NewAuthMiddleware(
	space *plmfake.Space,
	config Config,
) *AuthMiddleware {
	return &AuthMiddleware{
		space:  space,
		config: config,
	}
}

// RequireSession rejects requests without the configured session cookie.
func (s *AuthMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.config.SessionCookie == "" {
			return next(c)
		}
		cookie, err := c.Cookie(s.config.SessionCookie)
		if err != nil || cookie.Value == "" {
			return presenter.Unauthorized(c, "authentication required")
		}
		if s.config.SessionValue != "" && cookie.Value != s.config.SessionValue {
			return presenter.Unauthorized(c, "session expired")
		}
		return next(c)
	}
}

// IdentifyContext checks the security context and tenant of modeler calls, and
// the CSRF token of writes.
func (s *AuthMiddleware) IdentifyContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyContext")
		defer span.End()

		sc := c.Request().Header.Get(securityContextHeader)
		if !strings.HasPrefix(sc, "ctx::") || !enovia.IsSecurityContext(sc) {
			span.SetAttributes(attribute.String("SecurityContext", sc))
			return presenter.Forbidden(c, "invalid SecurityContext")
		}
		span.SetAttributes(attribute.String("SecurityContext", sc))

		if s.config.Tenant != "" && c.QueryParam("tenant") != s.config.Tenant {
			return presenter.Forbidden(c, "unknown tenant")
		}

		switch c.Request().Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			if c.Request().Header.Get(csrfHeader) != s.space.CSRF() {
				return presenter.Forbidden(c, "invalid CSRF token")
			}
		}

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
