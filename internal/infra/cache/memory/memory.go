// Package memcache — процессный кеш для разработки и тестов.
// Один процесс: прогрев и сервер делят кеш только при запуске в одном бинаре.
package memcache

import (
	"context"
	"io"
	"log"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
)

type item struct {
	val     []byte
	expires time.Time // нулевое — без TTL
}

// Просроченные записи удаляются при чтении и не реже раза в sweepEvery при записи:
// ключи вроде *_tail_count_* с устаревшей подписью больше никто не читает.
const sweepEvery = time.Minute

type Cache struct {
	mu        sync.RWMutex
	items     map[string]item
	now       func() time.Time
	nextSweep time.Time
	logger    *log.Logger
}

func New(logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Cache{items: make(map[string]item), now: time.Now, logger: logger}
}

// WithClock подменяет часы (для тестов TTL).
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func (c *Cache) Ping(context.Context) error { return nil }

func (c *Cache) Close() {
	c.mu.Lock()
	c.items = make(map[string]item)
	c.mu.Unlock()
	c.logger.Println("closed")
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if ok && c.expired(it) {
		c.mu.Lock()
		if cur, still := c.items[key]; still && c.expired(cur) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		ok = false
	}
	if !ok {
		c.logger.Printf("GET %q: not found", key)
		return nil, false, nil
	}
	out := make([]byte, len(it.val))
	copy(out, it.val)
	return out, true, nil
}

func (c *Cache) Set(_ context.Context, key string, val []byte, ttlSeconds int) error {
	c.mu.Lock()
	c.items[key] = c.newItem(val, ttlSeconds)
	swept := c.sweepLocked()
	c.mu.Unlock()
	if swept > 0 {
		c.logger.Printf("swept %d expired keys", swept)
	}
	c.logger.Printf("SET %q ok (%d bytes, ttl=%ds)", key, len(val), ttlSeconds)
	return nil
}

// SetMany применяет все записи под одной блокировкой.
func (c *Cache) SetMany(_ context.Context, writes []domain.CacheWrite) error {
	c.mu.Lock()
	for _, w := range writes {
		c.items[w.Key] = c.newItem(w.Val, w.TTLSeconds)
	}
	swept := c.sweepLocked()
	c.mu.Unlock()
	if swept > 0 {
		c.logger.Printf("swept %d expired keys", swept)
	}
	c.logger.Printf("MULTI SET %d keys ok", len(writes))
	return nil
}

func (c *Cache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.items, k)
	}
	c.mu.Unlock()
	c.logger.Printf("DEL %d keys", len(keys))
	return nil
}

// Keys — живые ключи по glob-шаблону в стиле Redis (подмножество path.Match).
func (c *Cache) Keys(_ context.Context, pattern string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for k, it := range c.items {
		if c.expired(it) {
			continue
		}
		ok, err := path.Match(pattern, k)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// TTL оставшееся время жизни ключа; ok=false для отсутствующего.
func (c *Cache) TTL(key string) (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[key]
	if !ok || c.expired(it) {
		return 0, false
	}
	if it.expires.IsZero() {
		return 0, true
	}
	return it.expires.Sub(c.now()), true
}

func (c *Cache) newItem(val []byte, ttlSeconds int) item {
	v := make([]byte, len(val))
	copy(v, val)
	it := item{val: v}
	if ttlSeconds > 0 {
		it.expires = c.now().Add(time.Duration(ttlSeconds) * time.Second)
	}
	return it
}

// sweepLocked вызывается под c.mu.Lock.
func (c *Cache) sweepLocked() int {
	now := c.now()
	if now.Before(c.nextSweep) {
		return 0
	}
	c.nextSweep = now.Add(sweepEvery)
	n := 0
	for k, it := range c.items {
		if c.expired(it) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

func (c *Cache) expired(it item) bool {
	return !it.expires.IsZero() && !c.now().Before(it.expires)
}
