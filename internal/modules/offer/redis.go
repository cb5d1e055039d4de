// README: Redis-backed offer store using SET EX and GETDEL.
package offer

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"safar/internal/types"
)

const keyPrefix = "offer:ride:%s:driver:%s"

type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client}
}

func (s *RedisStore) Put(ctx context.Context, rideID, driverID types.ID, ttl time.Duration) error {
	return s.redis.Set(ctx, offerKey(rideID, driverID), time.Now().UTC().Format(time.RFC3339), ttl).Err()
}

func (s *RedisStore) Exists(ctx context.Context, rideID, driverID types.ID) (bool, error) {
	n, err := s.redis.Exists(ctx, offerKey(rideID, driverID)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CheckAndDelete relies on GETDEL: redis removes the key and returns its old
// value in one step, so concurrent acceptors cannot both observe it present.
func (s *RedisStore) CheckAndDelete(ctx context.Context, rideID, driverID types.ID) (bool, error) {
	_, err := s.redis.GetDel(ctx, offerKey(rideID, driverID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) Forget(ctx context.Context, rideID, driverID types.ID) error {
	return s.redis.Del(ctx, offerKey(rideID, driverID)).Err()
}

func offerKey(rideID, driverID types.ID) string {
	return fmt.Sprintf(keyPrefix, string(rideID), string(driverID))
}
