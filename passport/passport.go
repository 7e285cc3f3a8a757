// Package passport defines what the modeler client needs from the 3DPassport
// login component: a way to put the authenticated session on a request.
// Performing the CAS login itself is left to that component.
package passport

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var ErrNoSession = errors.New("passport: no session")

// Session decorates outgoing requests with the credentials of a logged-in user.
type Session interface {
	Authorize(ctx context.Context, req *http.Request) error
}

// CookieSession replays cookies obtained by a passport login.
type CookieSession struct {
	mu      sync.RWMutex
	cookies map[string]string
}

func NewCookieSession(cookies map[string]string) *CookieSession {
	s := &CookieSession{cookies: make(map[string]string, len(cookies))}
	for k, v := range cookies {
		s.cookies[k] = v
	}
	return s
}

// Set replaces one cookie value, for instance after the server rotated it.
func (s *CookieSession) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies[name] = value
}

func (s *CookieSession) Authorize(ctx context.Context, req *http.Request) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.cookies) == 0 {
		return ErrNoSession
	}

	names := make([]string, 0, len(s.cookies))
	for name := range s.cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		req.AddCookie(&http.Cookie{Name: name, Value: s.cookies[name]})
	}
	return nil
}

// JarSession uses the cookie jar a passport login filled.
type JarSession struct {
	Jar http.CookieJar
}

func (s JarSession) Authorize(ctx context.Context, req *http.Request) error {
	if s.Jar == nil {
		return ErrNoSession
	}

	u := *req.URL
	u.RawQuery = ""
	cookies := s.Jar.Cookies(&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path})
	if len(cookies) == 0 {
		return ErrNoSession
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return nil
}

// Anonymous sends requests without credentials. Only useful against test servers.
type Anonymous struct{}

func (Anonymous) Authorize(context.Context, *http.Request) error { return nil }
