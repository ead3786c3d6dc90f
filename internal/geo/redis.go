package geo

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// locationKey is the Redis GEO set holding user positions.
const locationKey = "user:locations"

// RedisIndex is a spatial index over user locations backed by a Redis GEO
// set. It stores member ids only; the caller resolves ids back to users.
type RedisIndex struct {
	client *redis.Client
}

// NewRedisIndex connects to Redis and verifies the connection.
func NewRedisIndex(redisURL string) (*RedisIndex, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisIndex{client: client}, nil
}

// Upsert records or moves a user's position.
func (i *RedisIndex) Upsert(ctx context.Context, userID string, lon, lat float64) error {
	err := i.client.GeoAdd(ctx, locationKey, &redis.GeoLocation{
		Name:      userID,
		Longitude: lon,
		Latitude:  lat,
	}).Err()
	if err != nil {
		return fmt.Errorf("geoadd %s: %w", userID, err)
	}
	return nil
}

// Remove drops a user from the index, e.g. on deactivation.
func (i *RedisIndex) Remove(ctx context.Context, userID string) error {
	if err := i.client.ZRem(ctx, locationKey, userID).Err(); err != nil {
		return fmt.Errorf("zrem %s: %w", userID, err)
	}
	return nil
}

// Near returns ids of users within radiusMeters of (lon, lat), excluding
// excludeID.
func (i *RedisIndex) Near(ctx context.Context, lon, lat, radiusMeters float64, excludeID string) ([]string, error) {
	locs, err := i.client.GeoSearch(ctx, locationKey, &redis.GeoSearchQuery{
		Longitude:  lon,
		Latitude:   lat,
		Radius:     radiusMeters,
		RadiusUnit: "m",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geosearch: %w", err)
	}

	ids := make([]string, 0, len(locs))
	for _, member := range locs {
		if member == excludeID {
			continue
		}
		ids = append(ids, member)
	}
	return ids, nil
}

// Health checks the Redis connection.
func (i *RedisIndex) Health(ctx context.Context) error {
	return i.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (i *RedisIndex) Close() error { return i.client.Close() }
