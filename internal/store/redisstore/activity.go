package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/suPer8Hu/gopherchat/internal/chat"
)

const (
	activityKeyPrefix = "gopherchat:activity:"
	activityTTL       = 30 * 24 * time.Hour
)

func activityKey(userID string) string {
	return activityKeyPrefix + userID
}

// RecordActivity stores the time of the latest change per conversation in a
// hash keyed by user.
func (s *Store) RecordActivity(ctx context.Context, ev chat.Event) error {
	if ev.UserID == "" {
		return errors.New("event without user id")
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	key := activityKey(ev.UserID)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, ev.ConversationID, at.UTC().Format(time.RFC3339Nano))
	pipe.Expire(ctx, key, activityTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "record activity")
	}
	return nil
}

// Activity returns the last recorded change time for each of the user's
// conversations.
func (s *Store) Activity(ctx context.Context, userID string) (map[string]time.Time, error) {
	raw, err := s.rdb.HGetAll(ctx, activityKey(userID)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "load activity")
	}
	out := make(map[string]time.Time, len(raw))
	for convID, v := range raw {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			continue
		}
		out[convID] = t
	}
	return out, nil
}
