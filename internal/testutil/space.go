// Package testutil starts a fake 3DSpace and a client bound to it.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/totegamma/enovia-go"
	"github.com/totegamma/enovia-go/client"
	"github.com/totegamma/enovia-go/internal/plmfake"
	"github.com/totegamma/enovia-go/internal/present/rest"
	"github.com/totegamma/enovia-go/passport"
)

const (
	Tenant          = "R1132100001"
	SecurityContext = "VPLMProjectLeader.Company Name.Common Space"
	SessionCookie   = "JSESSIONID"
	SessionValue    = "test-session"
)

type Fixture struct {
	Space  *plmfake.Space
	Client *client.Client
	URL    string

	modelerCalls atomic.Int64
}

// ModelerCalls counts requests to modeler resources; CSRF fetches are not counted.
func (f *Fixture) ModelerCalls() int64 {
	return f.modelerCalls.Load()
}

// NewFixture serves a fresh space for the lifetime of t.
func NewFixture(t testing.TB, opts ...client.Option) *Fixture {
	t.Helper()

	f := &Fixture{Space: plmfake.NewSpace()}
	server := rest.NewServer(f.Space, rest.Config{
		Tenant:        Tenant,
		SessionCookie: SessionCookie,
		SessionValue:  SessionValue,
	}, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, enovia.ModelerRoot) {
			f.modelerCalls.Add(1)
		}
		server.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	f.URL = srv.URL

	cl, err := client.New(client.Config{
		BaseURL:         srv.URL,
		Tenant:          Tenant,
		SecurityContext: SecurityContext,
	}, passport.NewCookieSession(map[string]string{SessionCookie: SessionValue}), opts...)
	if err != nil {
		t.Fatalf("testutil: client: %v", err)
	}
	f.Client = cl
	return f
}
