package redisx

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
)

type Cache struct {
	rdb    *redis.Client
	logger *log.Logger
}

type Config struct {
	Addr     string
	DB       int
	Password string
}

func New(cfg Config, logger *log.Logger) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &Cache{rdb: rdb, logger: logger}
}

func (c *Cache) Ping(ctx context.Context) error {
	err := c.rdb.Ping(ctx).Err()
	if err != nil {
		c.logger.Printf("PING failed: %v", err)
	} else {
		c.logger.Println("PING ok")
	}
	return err
}

func (c *Cache) Close() {
	if c.rdb == nil {
		c.logger.Println("nothing to close")
		return
	}

	if err := c.rdb.Close(); err != nil {
		c.logger.Printf("error while closing: %v", err)
		return
	}

	c.logger.Println("closed")
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Printf("GET %q: not found", key)
		return nil, false, nil
	}
	if err != nil {
		c.logger.Printf("GET %q: error: %v", key, err)
		return nil, false, err
	}
	c.logger.Printf("GET %q: hit (%d bytes)", key, len(b))
	return b, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, val []byte, ttlSeconds int) error {
	ttl := ttlOf(ttlSeconds)
	err := c.rdb.Set(ctx, key, val, ttl).Err()
	if err != nil {
		c.logger.Printf("SET %q failed: %v", key, err)
	} else {
		c.logger.Printf("SET %q ok (%d bytes, ttl=%s)", key, len(val), ttl)
	}
	return err
}

// SetMany пишет все ключи одной транзакцией MULTI/EXEC: читатель видит либо
// все новые значения, либо ни одного.
func (c *Cache) SetMany(ctx context.Context, writes []domain.CacheWrite) error {
	start := time.Now()
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, w := range writes {
			p.Set(ctx, w.Key, w.Val, ttlOf(w.TTLSeconds))
		}
		return nil
	})
	if err != nil {
		c.logger.Printf("MULTI SET %d keys failed: %v", len(writes), err)
		return err
	}
	c.logger.Printf("MULTI SET %d keys ok in %s", len(writes), time.Since(start))
	return nil
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	n, err := c.rdb.Del(ctx, keys...).Result()
	if err != nil {
		c.logger.Printf("DEL %d keys failed: %v", len(keys), err)
	} else {
		c.logger.Printf("DEL %d keys: deleted=%d", len(keys), n)
	}
	return err
}

// Keys перечисляет ключи по шаблону через SCAN (без блокирующего KEYS).
func (c *Cache) Keys(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	iter := c.rdb.Scan(ctx, 0, pattern, 500).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Printf("SCAN %q failed: %v", pattern, err)
		return nil, err
	}
	c.logger.Printf("SCAN %q: %d keys", pattern, len(out))
	return out, nil
}

func ttlOf(seconds int) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
