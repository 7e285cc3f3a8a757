package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/passport"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "enovia-go/1.0"

	SecurityContextHeader = "SecurityContext"
	CSRFHeader            = "ENO_CSRF_TOKEN"
	RequestIDHeader       = "X-Request-Id"
	TenantParam           = "tenant"
)

var tracer = otel.Tracer("client")

type Config struct {
	BaseURL         string
	Tenant          string
	SecurityContext string
	UserAgent       string
	Timeout         time.Duration
}

// Client performs authenticated calls against one 3DSpace service.
// Its configuration is fixed at construction; it is safe for concurrent use.
type Client struct {
	client          *http.Client
	next            http.RoundTripper
	base            *url.URL
	tenant          string
	securityContext string
	userAgent       string
	session         passport.Session
	tokens          TokenStore
	csrf            singleflight.Group
	logger          *zap.Logger
}

type Option func(*Client)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTokenStore shares CSRF tokens through store instead of the in-process cache.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) {
		if store != nil {
			c.tokens = store
		}
	}
}

// WithTransport replaces the round tripper the client delegates to.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.next = rt
		}
	}
}

func New(conf Config, session passport.Session, opts ...Option) (*Client, error) {
	if session == nil {
		return nil, errors.New("client: session is required")
	}

	base, err := url.Parse(strings.TrimSpace(conf.BaseURL))
	if err != nil {
		return nil, errors.Wrap(err, "client: invalid base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("client: base url must be absolute, got %q", conf.BaseURL)
	}
	base.Path = strings.TrimRight(base.Path, "/")
	base.RawPath = ""
	base.RawQuery = ""

	sc := enovia.NormalizeSecurityContext(conf.SecurityContext)
	if sc == "" {
		return nil, errors.New("client: security context is required")
	}

	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := conf.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	httpClient := http.Client{
		Timeout: timeout,
	}

	c := &Client{
		client:          &httpClient,
		next:            http.DefaultTransport,
		base:            base,
		tenant:          strings.TrimSpace(conf.Tenant),
		securityContext: sc,
		userAgent:       userAgent,
		session:         session,
		tokens:          NewMemoryTokenStore(),
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	httpClient.Transport = c
	return c, nil
}

func (c *Client) BaseURL() string         { return c.base.String() }
func (c *Client) Tenant() string          { return c.tenant }
func (c *Client) SecurityContext() string { return c.securityContext }
func (c *Client) Logger() *zap.Logger     { return c.logger }

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(SecurityContextHeader, c.securityContext)
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))

	if err := c.session.Authorize(req.Context(), req); err != nil {
		return nil, errors.Wrap(err, "authorize request")
	}
	return c.next.RoundTrip(req)
}

// Resolve turns a service-relative URI into an absolute URL carrying the tenant.
func (c *Client) Resolve(uri string) (string, error) {
	ref, err := url.Parse(uri)
	if err != nil {
		return "", errors.Wrapf(err, "invalid uri %q", uri)
	}
	if ref.IsAbs() {
		return "", errors.Errorf("uri must be relative to the service: %q", uri)
	}

	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = c.base.EscapedPath() + "/" + strings.TrimLeft(ref.EscapedPath(), "/")

	q := ref.Query()
	if c.tenant != "" && !q.Has(TenantParam) {
		q.Set(TenantParam, c.tenant)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Do performs one exchange. body is marshaled as JSON when non-nil; a 2xx answer
// is decoded into out when out is non-nil and the body is not empty.
func (c *Client) Do(ctx context.Context, method, uri string, body, out any) error {
	ctx, span := tracer.Start(ctx, "Client.Do")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("enovia.uri", uri),
	)

	target, err := c.Resolve(uri)
	if err != nil {
		span.RecordError(err)
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			span.RecordError(err)
			return errors.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	write := isWrite(method)
	if write {
		token, err := c.CSRFToken(ctx)
		if err != nil {
			span.RecordError(err)
			return err
		}
		req.Header.Set(CSRFHeader, token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		c.logger.Warn("request failed", zap.String("method", method), zap.String("uri", uri), zap.Error(err))
		return errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to read response body")
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("uri", uri),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{
			StatusCode: resp.StatusCode,
			Method:     method,
			URL:        target,
			Body:       raw,
		}
		if write && resp.StatusCode == http.StatusForbidden {
			if err := c.tokens.Evict(ctx, c.tokenKey()); err != nil {
				c.logger.Warn("failed to evict csrf token", zap.Error(err))
			}
		}
		span.RecordError(httpErr)
		span.SetStatus(codes.Error, httpErr.Message())
		c.logger.Warn("request rejected",
			zap.String("method", method),
			zap.String("uri", uri),
			zap.Int("status", resp.StatusCode),
			zap.String("message", httpErr.Message()),
		)
		return httpErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

// GetIndividual decodes the response body as one T.
func GetIndividual[T any](ctx context.Context, c *Client, uri string) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodGet, uri, nil, &out)
	return out, err
}

// GetCollection decodes the member array of the response. It never returns a nil slice
// without an error.
func GetCollection[T any](ctx context.Context, c *Client, uri string) ([]T, error) {
	var env enovia.Collection[T]
	if err := c.Do(ctx, http.MethodGet, uri, nil, &env); err != nil {
		return nil, err
	}
	return members(env.Member), nil
}

func PostIndividual[T, Req any](ctx context.Context, c *Client, uri string, req Req) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodPost, uri, req, &out)
	return out, err
}

func PostCollection[T, Req any](ctx context.Context, c *Client, uri string, req Req) ([]T, error) {
	var env enovia.Collection[T]
	if err := c.Do(ctx, http.MethodPost, uri, req, &env); err != nil {
		return nil, err
	}
	return members(env.Member), nil
}

// PatchGroup sends a partial update; the server answers with the updated members.
func PatchGroup[T, Req any](ctx context.Context, c *Client, uri string, req Req) ([]T, error) {
	var env enovia.Collection[T]
	if err := c.Do(ctx, http.MethodPatch, uri, req, &env); err != nil {
		return nil, err
	}
	return members(env.Member), nil
}

func DeleteIndividual[T any](ctx context.Context, c *Client, uri string) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodDelete, uri, nil, &out)
	return out, err
}

func members[T any](m []T) []T {
	if m == nil {
		return []T{}
	}
	return m
}
