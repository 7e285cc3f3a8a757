package providers

import (
	"context"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/totegamma/enovia-go/client"
	"github.com/totegamma/enovia-go/internal/config"
	"github.com/totegamma/enovia-go/internal/filter"
	"github.com/totegamma/enovia-go/internal/infra/database"
	"github.com/totegamma/enovia-go/internal/infra/gateway"
	"github.com/totegamma/enovia-go/internal/infra/repository"
	"github.com/totegamma/enovia-go/internal/service"
	"github.com/totegamma/enovia-go/internal/usecase"
	"github.com/totegamma/enovia-go/passport"
)

// NewDatabase opens the mirror database and applies migrations.
func NewDatabase(conf config.Server, log *zap.Logger) (*gorm.DB, error) {
	db, err := database.NewPostgres(conf.PostgresDsn, log)
	if err != nil {
		return nil, err
	}
	if err := database.MigratePostgres(db); err != nil {
		return nil, err
	}
	return db, nil
}

// NewRedis returns nil when no address is configured.
func NewRedis(ctx context.Context, conf config.Server) (*redis.Client, error) {
	if conf.RedisAddr == "" {
		return nil, nil
	}
	return database.NewRedis(ctx, conf.RedisAddr, "", conf.RedisDB)
}

// NewMemcache returns nil when no address is configured.
func NewMemcache(conf config.Server) (*memcache.Client, error) {
	if conf.MemcachedAddr == "" {
		return nil, nil
	}
	return database.NewMemcached(conf.MemcachedAddr)
}

// NewClient builds the PLM client from the passport cookies in the config.
// With mc set, CSRF tokens are shared with other processes of the same tenant.
func NewClient(conf config.Config, mc *memcache.Client, log *zap.Logger) (*client.Client, error) {
	opts := []client.Option{client.WithLogger(log)}
	if mc != nil {
		opts = append(opts, client.WithTokenStore(client.NewMemcacheTokenStore(mc, "enovia:csrf:")))
	}
	return client.New(conf.PLM.ClientConfig(), passport.NewCookieSession(conf.Session), opts...)
}

func NewModelerGateway(cl *client.Client, conf config.PLM) *gateway.ModelerGateway {
	return gateway.NewModelerGateway(cl, conf.PageSize)
}

func NewSignalService(rdb *redis.Client) *service.SignalService {
	return service.NewSignalService(rdb)
}

// NewMirrorUsecase wires the mirror. Without redis no change events are sent.
func NewMirrorUsecase(db *gorm.DB, rdb *redis.Client, conf config.Config, log *zap.Logger) (*usecase.MirrorUsecase, error) {
	f, err := filter.Parse(conf.Mirror.Filter)
	if err != nil {
		return nil, err
	}
	var publisher usecase.Publisher
	if rdb != nil {
		publisher = NewSignalService(rdb)
	}
	return usecase.NewMirrorUsecase(
		repository.NewMirrorRepository(db),
		publisher,
		f,
		usecase.MirrorConfig{
			BatchSize:   conf.Mirror.BatchSize,
			Concurrency: conf.Mirror.Concurrency,
			Channel:     conf.Server.SignalChannel,
		},
		log,
	), nil
}
