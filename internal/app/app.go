package app

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/suPer8Hu/gopherchat/internal/ai"
	"github.com/suPer8Hu/gopherchat/internal/auth"
	"github.com/suPer8Hu/gopherchat/internal/chat"
	"github.com/suPer8Hu/gopherchat/internal/config"
	"github.com/suPer8Hu/gopherchat/internal/controller"
	"github.com/suPer8Hu/gopherchat/internal/db"
	"github.com/suPer8Hu/gopherchat/internal/store/mongostore"
	"github.com/suPer8Hu/gopherchat/internal/store/rabbitmq"
	"github.com/suPer8Hu/gopherchat/internal/store/redisstore"
)

// App holds the adapters shared by every controller of a process.
type App struct {
	Cfg       config.Config
	DB        *gorm.DB
	Store     controller.ConversationStore
	Identity  *auth.Provider
	Completer *ai.Completer
	// Redis and Events are nil when not configured.
	Redis  *redisstore.Store
	Events *rabbitmq.Publisher

	closers []func()
}

// Build connects every configured backend. Optional backends (Redis, RabbitMQ)
// that fail to connect are logged and left disabled.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Cfg: cfg}

	// accounts always live in the SQL database
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	a.DB = gdb
	if sqlDB, err := gdb.DB(); err == nil {
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	}

	switch cfg.StoreBackend {
	case "mongo":
		ms, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			a.Close()
			return nil, errors.Wrap(err, "mongo store")
		}
		a.Store = ms
		a.closers = append(a.closers, func() { _ = ms.Close(context.Background()) })
	default:
		a.Store = chat.NewRepo(gdb)
	}

	var sessions auth.SessionRegistry
	if cfg.RedisAddr != "" {
		rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rds.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, sessions are stateless")
			_ = rds.Close()
		} else {
			a.Redis = rds
			sessions = rds
			a.closers = append(a.closers, func() { _ = rds.Close() })
		}
	}
	a.Identity = auth.NewProvider(gdb, cfg.JWTSecret, cfg.SessionTTL, sessions)

	reg := ai.NewRegistryFromConfig(ctx, cfg)
	a.Completer = ai.NewCompleter(reg, cfg.AIProvider, cfg.Model())

	if cfg.EventsEnabled {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq unavailable, change events disabled")
		} else {
			a.Events = pub
			a.closers = append(a.closers, func() { _ = pub.Close() })
		}
	}

	log.Info().
		Str("store", cfg.StoreBackend).
		Str("ai_provider", cfg.AIProvider).
		Str("model", cfg.Model()).
		Strs("providers", reg.Names()).
		Bool("redis", a.Redis != nil).
		Bool("events", a.Events != nil).
		Msg("backends ready")
	return a, nil
}

// NewController returns a controller wired to the shared adapters.
func (a *App) NewController() *controller.Controller {
	var opts []controller.Option
	if a.Cfg.ChatIncludeHistory {
		opts = append(opts, controller.WithHistory(a.Cfg.ChatContextWindowSize))
	}
	if a.Events != nil {
		opts = append(opts, controller.WithEvents(a.Events))
	}
	return controller.New(a.Store, a.Completer, a.Identity, opts...)
}

// Close releases backends in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
