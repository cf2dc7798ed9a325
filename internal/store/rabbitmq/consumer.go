package rabbitmq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/suPer8Hu/gopherchat/internal/chat"
)

// HandlerFunc processes one event. A returned error dead-letters the delivery.
type HandlerFunc func(ctx context.Context, ev chat.Event) error

type Consumer struct {
	conn        *amqp.Connection
	ch          *amqp.Channel
	queue       string
	concurrency int
}

// NewConsumer runs concurrency workers; config.Config.WorkerConcurrency
// supplies the bounded value.
func NewConsumer(url, queue string, concurrency int) (*Consumer, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "rabbit dial")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "rabbit channel")
	}
	if err := declareQueues(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	// at most `concurrency` unacked deliveries in flight
	if err := ch.Qos(concurrency, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrap(err, "qos")
	}

	return &Consumer{conn: conn, ch: ch, queue: queue, concurrency: concurrency}, nil
}

func (c *Consumer) Close() error {
	_ = c.ch.Close()
	return c.conn.Close()
}

func decodeEvent(body []byte) (chat.Event, error) {
	var ev chat.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return chat.Event{}, errors.Wrap(err, "decode event")
	}
	if ev.Type == "" || ev.ConversationID == "" {
		return chat.Event{}, errors.New("event without type or conversation id")
	}
	return ev, nil
}

// Run consumes until ctx is cancelled or the broker closes the channel.
func (c *Consumer) Run(ctx context.Context, handle HandlerFunc) error {
	msgs, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "consume")
	}

	log.Info().Str("queue", c.queue).Int("concurrency", c.concurrency).Msg("event consumer started")

	jobs := make(chan amqp.Delivery, c.concurrency*2)
	var wg sync.WaitGroup
	wg.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				process(ctx, workerID, d, handle)
			}
		}(i)
	}

	defer func() {
		close(jobs)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event consumer shutting down")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			jobs <- d
		}
	}
}

// acknowledger is the part of amqp.Delivery process needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func process(ctx context.Context, workerID int, d amqp.Delivery, handle HandlerFunc) {
	handleDelivery(ctx, workerID, d.Body, d, handle)
}

func handleDelivery(ctx context.Context, workerID int, body []byte, ack acknowledger, handle HandlerFunc) {
	ev, err := decodeEvent(body)
	if err != nil {
		log.Warn().Int("worker", workerID).Err(err).Msg("bad event message")
		_ = ack.Nack(false, false)
		return
	}

	// buffered deliveries drained during shutdown go back to the queue
	if ctx.Err() != nil {
		_ = ack.Nack(false, true)
		return
	}

	start := time.Now()
	if err := handle(ctx, ev); err != nil {
		if ctx.Err() != nil {
			log.Warn().Int("worker", workerID).Err(err).Msg("event requeued on shutdown")
			_ = ack.Nack(false, true)
			return
		}
		log.Error().Int("worker", workerID).Err(err).
			Str("type", string(ev.Type)).
			Str("conversation_id", ev.ConversationID).
			Dur("cost", time.Since(start)).
			Msg("event handling failed")
		_ = ack.Nack(false, false)
		return
	}
	if err := ack.Ack(false); err != nil {
		log.Error().Int("worker", workerID).Err(err).Msg("ack failed")
	}
}
