package listing

import (
	"context"
	"fmt"
	"time"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
)

// Policy задаёт TTL и размер окна прогрева.
type Policy struct {
	ListTTL  time.Duration
	CountTTL time.Duration
	// Максимум id в предвычисленном списке; 0 — без ограничения.
	Window int
}

func DefaultPolicy() Policy {
	return Policy{ListTTL: 24 * time.Hour, CountTTL: 5 * time.Minute, Window: 2000}
}

func (p Policy) listTTL() int  { return int(p.ListTTL.Seconds()) }
func (p Policy) countTTL() int { return int(p.CountTTL.Seconds()) }

// entries — типизированный доступ к записям кеша поверх сырого k/v.
type entries struct {
	cache domain.Cache
}

func (e entries) get(ctx context.Context, key string) (domain.CacheEntry, bool, error) {
	raw, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if !ok {
		return domain.CacheEntry{}, false, nil
	}
	ent, err := domain.DecodeEntry(key, raw)
	if err != nil {
		return domain.CacheEntry{}, false, err
	}
	return ent, true, nil
}

func (e entries) ids(ctx context.Context, key string) ([]domain.MovieID, bool, error) {
	ent, ok, err := e.get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	if ent.Kind != domain.KindIDs {
		return nil, false, fmt.Errorf("%s: %w: want ids, got %s", key, domain.ErrCorruptEntry, ent.Kind)
	}
	return ent.IDs, true, nil
}

func (e entries) count(ctx context.Context, key string) (int, bool, error) {
	ent, ok, err := e.get(ctx, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if ent.Kind != domain.KindCount {
		return 0, false, fmt.Errorf("%s: %w: want count, got %s", key, domain.ErrCorruptEntry, ent.Kind)
	}
	return *ent.Count, true, nil
}

func (e entries) structured(ctx context.Context, key string, v any) (bool, error) {
	ent, ok, err := e.get(ctx, key)
	if err != nil || !ok {
		return ok, err
	}
	if err := ent.DecodeStruct(v); err != nil {
		return false, err
	}
	return true, nil
}

// put пишет запись под ключом (финальным или staging) и возвращает размер payload.
func (e entries) put(ctx context.Context, key string, ent domain.CacheEntry) (int, error) {
	raw, err := ent.Encode()
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", ent.Key, err)
	}
	if err := e.cache.Set(ctx, key, raw, ent.TTLSeconds); err != nil {
		return 0, fmt.Errorf("cache set %s: %w", key, err)
	}
	return len(raw), nil
}
