package listing

import (
	"context"
	"log"
	"time"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
)

type StagedKey struct {
	Final   string
	Staging string
}

type SwapResult struct {
	Promoted []string
	// Нет staged-значения: измерение упало на прогреве, старый final остаётся.
	Skipped []string
	Failed  []PromotionFailure
	// Продвижение прошло одной транзакцией.
	Atomic       bool
	CleanupError string
}

// Swapper продвигает staged-значения в финальные ключи и чистит staging.
// Без BatchSetter продвижение идёт по ключу: каждый ключ заменяется целиком,
// но набор ключей вместе не атомарен.
type Swapper struct {
	cache domain.Cache
	log   *log.Logger
}

func NewSwapper(cache domain.Cache, logger *log.Logger) *Swapper {
	return &Swapper{cache: cache, log: logger}
}

type promotion struct {
	final string
	raw   []byte
	ttl   int
}

func (s *Swapper) Swap(ctx context.Context, keys []StagedKey) SwapResult {
	start := time.Now()
	var res SwapResult

	ready := make([]promotion, 0, len(keys))
	for _, k := range keys {
		raw, ok, err := s.cache.Get(ctx, k.Staging)
		if err != nil {
			res.Failed = append(res.Failed, PromotionFailure{Key: k.Final, Error: err.Error()})
			continue
		}
		if !ok {
			res.Skipped = append(res.Skipped, k.Final)
			continue
		}
		// staged-запись уже несёт финальный ключ: проверяем и копируем байты как есть
		ent, err := domain.DecodeEntry(k.Final, raw)
		if err != nil {
			res.Failed = append(res.Failed, PromotionFailure{Key: k.Final, Error: err.Error()})
			continue
		}
		ready = append(ready, promotion{final: k.Final, raw: raw, ttl: ent.TTLSeconds})
	}

	if bs, ok := s.cache.(domain.BatchSetter); ok && len(ready) > 0 {
		s.promoteBatch(ctx, bs, ready, &res)
	} else {
		s.promoteEach(ctx, ready, &res)
	}

	if len(keys) > 0 {
		staging := make([]string, len(keys))
		for i, k := range keys {
			staging[i] = k.Staging
		}
		if err := s.cache.Del(ctx, staging...); err != nil {
			s.log.Printf("swap: cleanup of %d staging keys failed: %v", len(staging), err)
			res.CleanupError = err.Error()
		}
	}

	s.log.Printf("swap: promoted=%d skipped=%d failed=%d atomic=%t in %s",
		len(res.Promoted), len(res.Skipped), len(res.Failed), res.Atomic, time.Since(start))
	return res
}

func (s *Swapper) promoteBatch(ctx context.Context, bs domain.BatchSetter, ready []promotion, res *SwapResult) {
	writes := make([]domain.CacheWrite, len(ready))
	for i, p := range ready {
		writes[i] = domain.CacheWrite{Key: p.final, Val: p.raw, TTLSeconds: p.ttl}
	}
	if err := bs.SetMany(ctx, writes); err != nil {
		// транзакция не прошла целиком: все измерения ждут следующего цикла
		s.log.Printf("swap: batch promotion of %d keys failed: %v", len(writes), err)
		for _, p := range ready {
			res.Failed = append(res.Failed, PromotionFailure{Key: p.final, Error: err.Error()})
		}
		return
	}
	res.Atomic = true
	for _, p := range ready {
		res.Promoted = append(res.Promoted, p.final)
	}
}

func (s *Swapper) promoteEach(ctx context.Context, ready []promotion, res *SwapResult) {
	for _, p := range ready {
		if err := s.cache.Set(ctx, p.final, p.raw, p.ttl); err != nil {
			s.log.Printf("swap: promote %s failed: %v", p.final, err)
			res.Failed = append(res.Failed, PromotionFailure{Key: p.final, Error: err.Error()})
			continue
		}
		res.Promoted = append(res.Promoted, p.final)
	}
}

// SweepOrphans удаляет staging-ключи, оставшиеся от прерванного запуска.
// Кеш без KeyLister оставляет их доживать TTL.
func (s *Swapper) SweepOrphans(ctx context.Context) (int, error) {
	kl, ok := s.cache.(domain.KeyLister)
	if !ok {
		return 0, nil
	}
	keys, err := kl.Keys(ctx, domain.StagingPrefix+"*")
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		return 0, err
	}
	s.log.Printf("swap: swept %d orphaned staging keys", len(keys))
	return len(keys), nil
}
