package listing

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
)

// Warmer пересчитывает все измерения каталога и пишет их под staging-ключами.
// Финальные ключи не трогает: их продвигает Swapper.
type Warmer struct {
	movies    domain.MovieStore
	orderings domain.OrderingStore
	entries   entries
	catalog   *domain.Catalog
	policy    Policy
	log       *log.Logger
}

func NewWarmer(
	movies domain.MovieStore,
	orderings domain.OrderingStore,
	cache domain.Cache,
	catalog *domain.Catalog,
	policy Policy,
	logger *log.Logger,
) *Warmer {
	return &Warmer{
		movies:    movies,
		orderings: orderings,
		entries:   entries{cache: cache},
		catalog:   catalog,
		policy:    policy,
		log:       logger,
	}
}

// Warm проходит категории последовательно. Ошибка одного измерения
// попадает в отчёт и не прерывает остальные.
func (w *Warmer) Warm(ctx context.Context) *RunReport {
	rep := newRunReport()
	start := time.Now()
	w.log.Printf("warmup %s: %d categories, window=%d", rep.RunID, len(w.catalog.All()), w.policy.Window)

	var countries []domain.CountryCount
	for i, cat := range w.catalog.All() {
		n, ok := w.warmCategory(ctx, cat, rep)
		if cat.Dimension == domain.DimCountry && ok {
			countries = append(countries, domain.CountryCount{
				Code:   cat.Code,
				Name:   cat.Filter.Country,
				Label:  cat.Label,
				Count:  n,
				Legacy: cat.Legacy,
			})
		}
		if (i+1)%25 == 0 {
			w.log.Printf("warmup %s: %d/%d categories done", rep.RunID, i+1, len(w.catalog.All()))
		}
	}

	if len(countries) > 0 {
		ent, err := domain.NewStructEntry(domain.CacheKeyCountries, domain.CountryIndex{Countries: countries}, w.policy.listTTL())
		if err != nil {
			rep.addFailure("countries", domain.CacheKeyCountries, err)
		} else {
			w.stage(ctx, rep, "countries", ent, len(countries))
		}
	}

	w.log.Printf("warmup %s: staged=%d failed=%d in %s",
		rep.RunID, len(rep.Staged), len(rep.Failures), time.Since(start))
	return rep
}

// warmCategory возвращает количество фильмов категории (если посчитано).
func (w *Warmer) warmCategory(ctx context.Context, cat domain.Category, rep *RunReport) (int, bool) {
	start := time.Now()
	ids, err := w.movies.QueryIDs(ctx, domain.IDQuery{Filter: cat.Filter, Order: cat.Order, Limit: w.policy.Window})
	if err != nil {
		w.log.Printf("warmup %s: ids query failed after %s: %v", cat.Slug, time.Since(start), err)
		rep.addFailure(cat.Slug, cat.ListKey(), err)
		return 0, false
	}
	w.stage(ctx, rep, cat.Slug, domain.NewIDsEntry(cat.ListKey(), ids, w.policy.listTTL()), len(ids))

	n, err := w.movies.Count(ctx, cat.Filter)
	if err != nil {
		w.log.Printf("warmup %s: count failed: %v", cat.Slug, err)
		rep.addFailure(cat.Slug, cat.CountKey(), err)
		return 0, false
	}
	w.stage(ctx, rep, cat.Slug, domain.NewCountEntry(cat.CountKey(), n, w.policy.countTTL()), 1)

	if cat.Curatable() {
		w.warmCurated(ctx, cat, ids, rep)
	}

	w.log.Printf("warmup %s: %d ids (total %d) in %s", cat.Slug, len(ids), n, time.Since(start))
	return n, true
}

func (w *Warmer) warmCurated(ctx context.Context, cat domain.Category, auto []domain.MovieID, rep *RunReport) {
	items, err := w.orderings.Ordering(ctx, cat.Status)
	if err != nil {
		w.log.Printf("warmup %s: read ordering failed: %v", cat.Slug, err)
		rep.addFailure(cat.Slug, cat.CuratedKey(), err)
		return
	}
	if len(items) == 0 {
		return
	}

	prefix, err := resolveCurated(ctx, w.movies, items)
	if err != nil {
		w.log.Printf("warmup %s: %v", cat.Slug, err)
		rep.addFailure(cat.Slug, cat.CuratedKey(), err)
		return
	}
	if dropped := len(items) - len(prefix); dropped > 0 {
		w.log.Printf("warmup %s: %d curated ids not in catalog yet", cat.Slug, dropped)
	}

	snap := domain.CuratedSnapshot{
		ExternalIDs: externalIDs(items),
		Prefix:      prefix,
		IDs:         mergeCurated(prefix, auto),
	}
	ent, err := domain.NewStructEntry(cat.CuratedKey(), snap, w.policy.listTTL())
	if err != nil {
		rep.addFailure(cat.Slug, cat.CuratedKey(), err)
		return
	}
	w.stage(ctx, rep, cat.Slug, ent, len(snap.IDs))

	tailKey := cat.TailCountKey(prefix)
	n, err := w.movies.Count(ctx, cat.Filter.Without(distinct(prefix)))
	if err != nil {
		w.log.Printf("warmup %s: tail count failed: %v", cat.Slug, err)
		rep.addFailure(cat.Slug, tailKey, err)
		return
	}
	w.stage(ctx, rep, cat.Slug, domain.NewCountEntry(tailKey, n, w.policy.countTTL()), 1)
}

func (w *Warmer) stage(ctx context.Context, rep *RunReport, category string, ent domain.CacheEntry, items int) {
	size, err := w.entries.put(ctx, domain.StagingKey(ent.Key), ent)
	if err != nil {
		w.log.Printf("warmup %s: stage %s failed: %v", category, ent.Key, err)
		rep.addFailure(category, ent.Key, fmt.Errorf("stage: %w", err))
		return
	}
	rep.addStaged(StagedItem{Category: category, Key: ent.Key, Kind: ent.Kind, Bytes: size, Items: items})
}
