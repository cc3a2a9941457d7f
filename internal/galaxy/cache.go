package galaxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix     = "galaxy:buffer:"
	publishedKeyPrefix = "galaxy:published:"
	currentEpochKey    = "galaxy:current"
	// UpdatesChannel carries the epoch of every newly published buffer.
	UpdatesChannel = "galaxy:updates"

	sinkTimeout = 3 * time.Second
)

// Cache keeps encoded buffers in Redis. Seeded parameter sets are
// reproducible, so their buffers are cached by parameter hash; as a
// BufferSink it also mirrors the published buffer for other readers.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	logger.Debug("Initializing galaxy buffer cache", "ttl", ttl)
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// CacheKey identifies the buffer a seeded parameter set generates. The
// display-only fields are excluded since they do not change the output.
func CacheKey(p Parameters) (string, bool) {
	if p.Seed == nil {
		return "", false
	}
	p.ParticleSize = 0
	p.Randomness = 0
	encoded, err := json.Marshal(p)
	if err != nil {
		return "", false
	}
	return cacheKeyPrefix + strconv.FormatUint(xxhash.Sum64(encoded), 16), true
}

// Get returns the cached buffer for p. Unseeded parameters always miss.
func (c *Cache) Get(ctx context.Context, p Parameters) (*Buffer, bool, error) {
	key, ok := CacheKey(p)
	if !ok {
		return nil, false, nil
	}
	logger := c.logger.With("component", "galaxy_cache", "operation", "get", "key", key)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Debug("Cache miss")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached buffer: %w", err)
	}

	buf := &Buffer{Params: p}
	if err := buf.UnmarshalBinary(data); err != nil {
		logger.Warn("Discarding corrupt cache entry", "error", err)
		c.client.Del(ctx, key)
		return nil, false, nil
	}
	if buf.Len() != p.Count {
		logger.Warn("Discarding cache entry with wrong particle count", "cached", buf.Len(), "want", p.Count)
		c.client.Del(ctx, key)
		return nil, false, nil
	}
	buf.GeneratedAt = time.Now()

	logger.Debug("Cache hit", "count", buf.Len())
	return buf, true, nil
}

// Put stores buf if its parameters are seeded.
func (c *Cache) Put(ctx context.Context, buf *Buffer) error {
	key, ok := CacheKey(buf.Params)
	if !ok {
		return nil
	}

	data, err := buf.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode buffer: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache buffer: %w", err)
	}

	c.logger.Debug("Buffer cached", "component", "galaxy_cache", "key", key, "bytes", len(data))
	return nil
}

// Adopt mirrors the newly published buffer and announces its epoch.
func (c *Cache) Adopt(buf *Buffer) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	logger := c.logger.With("component", "galaxy_cache", "operation", "adopt", "epoch", buf.Epoch)

	data, err := buf.MarshalBinary()
	if err != nil {
		logger.Error("Failed to encode published buffer", "error", err)
		return
	}

	epoch := strconv.FormatUint(buf.Epoch, 10)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, publishedKeyPrefix+epoch, data, c.ttl)
		pipe.Set(ctx, currentEpochKey, epoch, 0)
		pipe.Publish(ctx, UpdatesChannel, epoch)
		return nil
	})
	if err != nil {
		logger.Error("Failed to mirror published buffer", "error", err)
		return
	}
	logger.Debug("Published buffer mirrored", "bytes", len(data))
}

// Release drops the mirror of a superseded buffer.
func (c *Cache) Release(buf *Buffer) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	key := publishedKeyPrefix + strconv.FormatUint(buf.Epoch, 10)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("Failed to drop released buffer", "component", "galaxy_cache", "key", key, "error", err)
	}
}

// Published loads the mirrored buffer of the given epoch.
func (c *Cache) Published(ctx context.Context, epoch uint64) (*Buffer, error) {
	data, err := c.client.Get(ctx, publishedKeyPrefix+strconv.FormatUint(epoch, 10)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read published buffer %d: %w", epoch, err)
	}
	buf := &Buffer{Epoch: epoch}
	if err := buf.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *Cache) PingContext(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
