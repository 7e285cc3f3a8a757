package database

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
)

// NewMemcached returns the client CSRF tokens are shared through.
func NewMemcached(server string) (*memcache.Client, error) {
	mc := memcache.New(server)
	mc.Timeout = 500 * time.Millisecond
	if err := mc.Ping(); err != nil {
		return nil, errors.Wrapf(err, "memcached %s unreachable", server)
	}
	return mc, nil
}
