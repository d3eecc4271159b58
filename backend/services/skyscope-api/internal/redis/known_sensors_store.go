package redisstore

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const knownSensorsKey = "skyscope:sensors:known"

// Store caches the set of registered sensor ids so ingestion can skip the database
// round trip for sensors it has already seen.
type Store struct {
	client *redis.Client
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) key() string {
	return knownSensorsKey
}

// Remember marks sensorID as registered.
func (s *Store) Remember(ctx context.Context, sensorID string) error {
	return s.client.SAdd(ctx, s.key(), sensorID).Err()
}

// Known reports whether sensorID was remembered. A false result is not authoritative.
func (s *Store) Known(ctx context.Context, sensorID string) (bool, error) {
	return s.client.SIsMember(ctx, s.key(), sensorID).Result()
}
