package client

import (
	"context"
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"github.com/totegamma/enovia-go"
)

const csrfTTL = 10 * time.Minute

// TokenStore keeps CSRF tokens between write requests.
type TokenStore interface {
	Load(ctx context.Context, key string) (string, bool, error)
	Store(ctx context.Context, key, token string) error
	Evict(ctx context.Context, key string) error
}

// MemoryTokenStore is the default, process-local TokenStore.
type MemoryTokenStore struct {
	cache *cache.Cache
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{cache: cache.New(csrfTTL, 15*time.Minute)}
}

func (s *MemoryTokenStore) Load(_ context.Context, key string) (string, bool, error) {
	x, found := s.cache.Get(key)
	if !found {
		return "", false, nil
	}
	return x.(string), true, nil
}

func (s *MemoryTokenStore) Store(_ context.Context, key, token string) error {
	s.cache.Set(key, token, cache.DefaultExpiration)
	return nil
}

func (s *MemoryTokenStore) Evict(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// MemcacheTokenStore shares tokens between processes using the same session.
type MemcacheTokenStore struct {
	mc     *memcache.Client
	prefix string
}

func NewMemcacheTokenStore(mc *memcache.Client, prefix string) *MemcacheTokenStore {
	if prefix == "" {
		prefix = "enovia:csrf:"
	}
	return &MemcacheTokenStore{mc: mc, prefix: prefix}
}

// memcache keys cannot hold spaces, and security contexts usually do.
func (s *MemcacheTokenStore) key(key string) string {
	return s.prefix + strconv.FormatUint(xxh3.HashString(key), 16)
}

func (s *MemcacheTokenStore) Load(_ context.Context, key string) (string, bool, error) {
	item, err := s.mc.Get(s.key(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "memcache get")
	}
	return string(item.Value), true, nil
}

func (s *MemcacheTokenStore) Store(_ context.Context, key, token string) error {
	err := s.mc.Set(&memcache.Item{
		Key:        s.key(key),
		Value:      []byte(token),
		Expiration: int32(csrfTTL / time.Second),
	})
	return errors.Wrap(err, "memcache set")
}

func (s *MemcacheTokenStore) Evict(_ context.Context, key string) error {
	err := s.mc.Delete(s.key(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return errors.Wrap(err, "memcache delete")
}

func (c *Client) tokenKey() string {
	return c.base.String() + "|" + c.securityContext
}

// CSRFToken returns the token write requests must carry, fetching it once per TTL.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	key := c.tokenKey()

	token, found, err := c.tokens.Load(ctx, key)
	if err != nil {
		c.logger.Warn("csrf token store unavailable", zap.Error(err))
	}
	if found {
		return token, nil
	}

	// Waiters share one fetch. It runs detached from the caller that started it
	// and is bounded by the http client timeout.
	ch := c.csrf.DoChan(key, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		resp, err := GetIndividual[enovia.CSRFResponse](fetchCtx, c, enovia.CSRFPath)
		if err != nil {
			return "", errors.Wrap(err, "failed to fetch csrf token")
		}
		if resp.CSRF.Value == "" {
			return "", errors.New("csrf endpoint returned an empty token")
		}
		if err := c.tokens.Store(fetchCtx, key, resp.CSRF.Value); err != nil {
			c.logger.Warn("failed to store csrf token", zap.Error(err))
		}
		return resp.CSRF.Value, nil
	})

	select {
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "failed to fetch csrf token")
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}
