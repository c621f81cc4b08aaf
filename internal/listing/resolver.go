package listing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// предел offset; (page-1)*limit проверяется до умножения
	maxOffset = math.MaxInt32

	loadTimeout = 30 * time.Second
)

type PageRequest struct {
	Category string
	Page     int // с единицы
	Limit    int
}

type Page = domain.ListingResponse

// Resolver отвечает на «страница P размера L категории C» с точным total.
// Пишет в кеш только при read-through промахе.
type Resolver struct {
	movies    domain.MovieStore
	orderings domain.OrderingStore
	entries   entries
	catalog   *domain.Catalog
	policy    Policy
	log       *log.Logger

	sf singleflight.Group
}

func NewResolver(
	movies domain.MovieStore,
	orderings domain.OrderingStore,
	cache domain.Cache,
	catalog *domain.Catalog,
	policy Policy,
	logger *log.Logger,
) *Resolver {
	return &Resolver{
		movies:    movies,
		orderings: orderings,
		entries:   entries{cache: cache},
		catalog:   catalog,
		policy:    policy,
		log:       logger,
	}
}

func (r *Resolver) Catalog() *domain.Catalog { return r.catalog }

func (r *Resolver) Resolve(ctx context.Context, req PageRequest) (Page, error) {
	if req.Page < 1 {
		return Page{}, fmt.Errorf("page must be >= 1: %w", domain.ErrBadParams)
	}
	if req.Limit < 1 || req.Limit > MaxLimit {
		return Page{}, fmt.Errorf("limit must be in [1, %d]: %w", MaxLimit, domain.ErrBadParams)
	}
	if req.Page > maxOffset/req.Limit+1 {
		return Page{}, fmt.Errorf("page %d is out of range: %w", req.Page, domain.ErrBadParams)
	}
	cat, ok := r.catalog.Lookup(req.Category)
	if !ok {
		return Page{}, fmt.Errorf("category %q: %w", req.Category, domain.ErrNotFound)
	}
	offset := (req.Page - 1) * req.Limit

	var (
		ids   []domain.MovieID
		total int
		err   error
	)
	items, err := r.curatedItems(ctx, cat)
	if err != nil {
		return Page{}, err
	}
	if len(items) > 0 {
		ids, total, err = r.curatedPage(ctx, cat, items, offset, req.Limit)
	} else {
		ids, total, err = r.plainPage(ctx, cat, offset, req.Limit)
	}
	if err != nil {
		return Page{}, err
	}

	data, err := r.fetchOrdered(ctx, cat.Slug, ids)
	if err != nil {
		return Page{}, err
	}
	return Page{Data: data, Page: req.Page, PerPage: req.Limit, Total: total}, nil
}

func (r *Resolver) curatedItems(ctx context.Context, cat domain.Category) ([]domain.OrderingItem, error) {
	if !cat.Curatable() {
		return nil, nil
	}
	items, err := r.orderings.Ordering(ctx, cat.Status)
	if err != nil {
		return nil, fmt.Errorf("read ordering %s: %w", cat.Status, err)
	}
	return items, nil
}

// plainPage обслуживает категорию без куратора: кешированный список и кешированный count.
func (r *Resolver) plainPage(ctx context.Context, cat domain.Category, offset, limit int) ([]domain.MovieID, int, error) {
	cached, err := r.list(ctx, cat)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.count(ctx, cat.CountKey(), cat.Filter)
	if err != nil {
		return nil, 0, err
	}
	ids, err := r.window(ctx, cat.Filter, cat.Order, cached, total, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return ids, total, nil
}

// curatedPage — префикс куратора длины K перед автоматическим хвостом; total = K + A.
func (r *Resolver) curatedPage(
	ctx context.Context, cat domain.Category, items []domain.OrderingItem, offset, limit int,
) ([]domain.MovieID, int, error) {
	prefix, tail, err := r.curated(ctx, cat, items)
	if err != nil {
		return nil, 0, err
	}

	k := len(prefix)
	tailFilter := cat.Filter.Without(distinct(prefix))
	a, err := r.count(ctx, cat.TailCountKey(prefix), tailFilter)
	if err != nil {
		return nil, 0, err
	}

	if offset >= k {
		ids, err := r.window(ctx, tailFilter, cat.Order, tail, a, offset-k, limit)
		if err != nil {
			return nil, 0, err
		}
		return ids, k + a, nil
	}

	ids := sliceWindow(prefix, offset, limit)
	if rest := limit - len(ids); rest > 0 {
		more, err := r.window(ctx, tailFilter, cat.Order, tail, a, 0, rest)
		if err != nil {
			return nil, 0, err
		}
		ids = append(ids, more...)
	}
	return ids, k + a, nil
}

// curated отдаёт разрешённый префикс и кешированный хвост.
// Снимок прогрева используется, только если куратор с тех пор ничего не менял.
func (r *Resolver) curated(
	ctx context.Context, cat domain.Category, items []domain.OrderingItem,
) ([]domain.MovieID, []domain.MovieID, error) {
	var snap domain.CuratedSnapshot
	ok, err := r.entries.structured(ctx, cat.CuratedKey(), &snap)
	if err != nil {
		r.log.Printf("resolve %s: curated snapshot unreadable, resolving live: %v", cat.Slug, err)
		ok = false
	}
	if ok && slices.Equal(snap.ExternalIDs, externalIDs(items)) {
		return snap.Prefix, snap.Tail(), nil
	}

	prefix, err := resolveCurated(ctx, r.movies, items)
	if err != nil {
		return nil, nil, err
	}
	auto, err := r.list(ctx, cat)
	if err != nil {
		return nil, nil, err
	}
	return prefix, excludeIDs(auto, newIDSet(prefix)), nil
}

// window берёт [skip, skip+take) из кешированного списка. Если страница выходит
// за прогретое окно, недостающее добирается прямым запросом к хранилищу.
func (r *Resolver) window(
	ctx context.Context, filter domain.Predicate, order domain.SortOrder,
	cached []domain.MovieID, total, skip, take int,
) ([]domain.MovieID, error) {
	ids := sliceWindow(cached, skip, take)
	if len(ids) == take {
		return ids, nil
	}
	next := skip + len(ids)
	if next >= total {
		return ids, nil
	}
	more, err := r.movies.QueryIDs(ctx, domain.IDQuery{
		Filter: filter,
		Order:  order,
		Offset: next,
		Limit:  take - len(ids),
	})
	if err != nil {
		return nil, fmt.Errorf("direct page query: %w", err)
	}
	return append(ids, more...), nil
}

// list — финальный кешированный список категории. Промах: read-through
// для категорий, которые это допускают, иначе MissingEntryError.
func (r *Resolver) list(ctx context.Context, cat domain.Category) ([]domain.MovieID, error) {
	key := cat.ListKey()
	ids, ok, err := r.entries.ids(ctx, key)
	switch {
	case err == nil && ok:
		return ids, nil
	case err != nil && errors.Is(err, domain.ErrCorruptEntry):
		r.log.Printf("resolve %s: %v", cat.Slug, err)
	case err != nil && !cat.ReadThrough:
		return nil, err
	case err != nil:
		r.log.Printf("resolve %s: cache unavailable, computing: %v", cat.Slug, err)
	}
	if !cat.ReadThrough {
		return nil, &domain.MissingEntryError{Key: key}
	}

	v, err := r.shared(ctx, key, func(ctx context.Context) (any, error) {
		ids, err := r.movies.QueryIDs(ctx, domain.IDQuery{Filter: cat.Filter, Order: cat.Order, Limit: r.policy.Window})
		if err != nil {
			return nil, fmt.Errorf("populate %s: %w", key, err)
		}
		if _, err := r.entries.put(ctx, key, domain.NewIDsEntry(key, ids, r.policy.listTTL())); err != nil {
			r.log.Printf("resolve %s: populate write failed: %v", cat.Slug, err)
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.MovieID), nil
}

// count читает короткоживущий счётчик; при промахе считается и кладётся в кеш.
func (r *Resolver) count(ctx context.Context, key string, filter domain.Predicate) (int, error) {
	n, ok, err := r.entries.count(ctx, key)
	if err != nil {
		r.log.Printf("resolve: count %s unreadable, recomputing: %v", key, err)
	} else if ok {
		return n, nil
	}

	v, err := r.shared(ctx, key, func(ctx context.Context) (any, error) {
		n, err := r.movies.Count(ctx, filter)
		if err != nil {
			return 0, fmt.Errorf("count %s: %w", key, err)
		}
		if _, err := r.entries.put(ctx, key, domain.NewCountEntry(key, n, r.policy.countTTL())); err != nil {
			r.log.Printf("resolve: count %s write failed: %v", key, err)
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// shared выполняет загрузку один раз на ключ для всех ждущих запросов.
// Загрузка идёт на контексте без отмены (с таймаутом loadTimeout): уход
// первого клиента не роняет остальных. Каждый ждёт результата на своём ctx.
func (r *Resolver) shared(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	ch := r.sf.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return load(lctx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fetchOrdered возвращает сводки строго в порядке ids, дубли сохраняются.
// Фильм, удалённый из хранилища после прогрева, выпадает из страницы; это логируется.
func (r *Resolver) fetchOrdered(ctx context.Context, slug string, ids []domain.MovieID) ([]domain.MovieSummary, error) {
	if len(ids) == 0 {
		return []domain.MovieSummary{}, nil
	}
	found, err := r.movies.FetchByIDs(ctx, distinct(ids))
	if err != nil {
		return nil, fmt.Errorf("fetch movies: %w", err)
	}
	out := orderSummaries(ids, found)
	if len(out) < len(ids) {
		r.log.Printf("resolve %s: %d of %d ids not in movie store (%v), page is short until next warmup",
			slug, len(ids)-len(out), len(ids), missingIDs(ids, found))
	}
	return out, nil
}

// Countries отдаёт индекс стран с количеством фильмов. Строится только прогревом.
func (r *Resolver) Countries(ctx context.Context) (domain.CountryIndex, error) {
	var idx domain.CountryIndex
	ok, err := r.entries.structured(ctx, domain.CacheKeyCountries, &idx)
	if err != nil {
		return domain.CountryIndex{}, err
	}
	if !ok {
		return domain.CountryIndex{}, &domain.MissingEntryError{Key: domain.CacheKeyCountries}
	}
	return idx, nil
}
