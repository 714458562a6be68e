// README: Redis-backed dispatch log deduplicating proposal notifications.
package shift

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shiftmatch/internal/types"
)

const (
	dispatchedAtKeyPrefix = "matching:shift:%s:dispatched_at"
	notifiedKeyPrefix     = "matching:shift:%s:notified"
	// TTL for dispatch keys (shifts resolve well within 30 days).
	dispatchKeyTTL = 30 * 24 * time.Hour
)

// RedisDispatchLog remembers which workers were already notified for a shift
// so repeated match attempts do not re-ping them.
type RedisDispatchLog struct {
	redis *redis.Client
}

func NewRedisDispatchLog(rdb *redis.Client) *RedisDispatchLog {
	return &RedisDispatchLog{redis: rdb}
}

func (l *RedisDispatchLog) WasNotified(ctx context.Context, shiftID, workerID types.ID) (bool, error) {
	return l.redis.SIsMember(ctx, notifiedKey(shiftID), string(workerID)).Result()
}

// RecordDispatch records the dispatch timestamp and the notified worker set.
func (l *RedisDispatchLog) RecordDispatch(ctx context.Context, shiftID types.ID, workerIDs []types.ID) error {
	pipe := l.redis.Pipeline()
	pipe.Set(ctx, dispatchedAtKey(shiftID), time.Now().UTC().Format(time.RFC3339), dispatchKeyTTL)
	if len(workerIDs) > 0 {
		members := make([]interface{}, len(workerIDs))
		for i, w := range workerIDs {
			members[i] = string(w)
		}
		key := notifiedKey(shiftID)
		pipe.SAdd(ctx, key, members...)
		pipe.Expire(ctx, key, dispatchKeyTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetDispatchedAt returns when the shift was first dispatched, and whether it
// has been dispatched at all.
func (l *RedisDispatchLog) GetDispatchedAt(ctx context.Context, shiftID types.ID) (time.Time, bool, error) {
	val, err := l.redis.Get(ctx, dispatchedAtKey(shiftID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

func dispatchedAtKey(shiftID types.ID) string {
	return fmt.Sprintf(dispatchedAtKeyPrefix, string(shiftID))
}

func notifiedKey(shiftID types.ID) string {
	return fmt.Sprintf(notifiedKeyPrefix, string(shiftID))
}
