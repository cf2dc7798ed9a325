package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/suPer8Hu/gopherchat/internal/chat"
	"github.com/suPer8Hu/gopherchat/internal/config"
	"github.com/suPer8Hu/gopherchat/internal/logging"
	"github.com/suPer8Hu/gopherchat/internal/store/rabbitmq"
	"github.com/suPer8Hu/gopherchat/internal/store/redisstore"
)

// The worker consumes conversation change events and records per-user
// activity in Redis.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init("info", "console", nil)
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat, nil)

	if cfg.RedisAddr == "" {
		log.Fatal().Msg("REDIS_ADDR is required for the event worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()
	if err := rds.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis")
	}

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitQueue, cfg.WorkerConcurrency)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbitmq")
	}
	defer consumer.Close()

	err = consumer.Run(ctx, func(ctx context.Context, ev chat.Event) error {
		log.Debug().
			Str("type", string(ev.Type)).
			Str("conversation_id", ev.ConversationID).
			Str("user_id", ev.UserID).
			Msg("chat event")
		return rds.RecordActivity(ctx, ev)
	})
	if err != nil {
		log.Error().Err(err).Msg("worker stopped")
	}
}
