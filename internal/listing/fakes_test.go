package listing

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
	memcache "github.com/Chimarrao/GuiaDeFilmes.com/internal/infra/cache/memory"
)

var errBoom = errors.New("boom")

type fakeMovie struct {
	ID      domain.MovieID
	Ext     domain.ExternalID
	Status  domain.Status
	Year    int
	Country string
}

// fakeMovies хранит фильмы уже в канонической сортировке: Order игнорируется.
type fakeMovies struct {
	mu     sync.Mutex
	movies []fakeMovie

	queries int
	counts  int
	fetches int
	// failIf возвращает ошибку для выбранных фильтров.
	failIf func(p domain.Predicate) error
}

func (f *fakeMovies) set(ms ...fakeMovie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies = ms
}

func (f *fakeMovies) match(p domain.Predicate) []domain.MovieID {
	skip := newIDSet(p.ExcludeIDs)
	var out []domain.MovieID
	for _, m := range f.movies {
		if p.Status != "" && m.Status != p.Status {
			continue
		}
		if p.Country != "" && m.Country != p.Country {
			continue
		}
		if p.YearFrom != 0 && (m.Year < p.YearFrom || m.Year > p.YearTo) {
			continue
		}
		if _, ok := skip[m.ID]; ok {
			continue
		}
		out = append(out, m.ID)
	}
	return out
}

func (f *fakeMovies) Count(_ context.Context, p domain.Predicate) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts++
	if f.failIf != nil {
		if err := f.failIf(p); err != nil {
			return 0, err
		}
	}
	return len(f.match(p)), nil
}

func (f *fakeMovies) QueryIDs(_ context.Context, q domain.IDQuery) ([]domain.MovieID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.failIf != nil {
		if err := f.failIf(q.Filter); err != nil {
			return nil, err
		}
	}
	ids := f.match(q.Filter)
	if q.Offset >= len(ids) {
		return []domain.MovieID{}, nil
	}
	ids = ids[q.Offset:]
	if q.Limit > 0 && q.Limit < len(ids) {
		ids = ids[:q.Limit]
	}
	return append([]domain.MovieID{}, ids...), nil
}

// FetchByIDs отдаёт найденное в обратном порядке: вызывающий обязан пересортировать.
func (f *fakeMovies) FetchByIDs(_ context.Context, ids []domain.MovieID) ([]domain.MovieSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	want := newIDSet(ids)
	var out []domain.MovieSummary
	for i := len(f.movies) - 1; i >= 0; i-- {
		m := f.movies[i]
		if _, ok := want[m.ID]; ok {
			out = append(out, domain.MovieSummary{ID: m.ID, ExternalID: m.Ext, Status: m.Status})
		}
	}
	return out, nil
}

func (f *fakeMovies) IDsByExternalIDs(_ context.Context, ext []domain.ExternalID) (map[domain.ExternalID]domain.MovieID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[domain.ExternalID]domain.MovieID)
	for _, x := range ext {
		for _, m := range f.movies {
			if m.Ext == x {
				out[x] = m.ID
				break
			}
		}
	}
	return out, nil
}

type fakeOrderings struct {
	mu  sync.Mutex
	rec domain.OrderingRecord
	err error
}

func (f *fakeOrderings) set(s domain.Status, ext ...domain.ExternalID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]domain.OrderingItem, len(ext))
	for i, x := range ext {
		items[i] = domain.OrderingItem{ExternalID: x}
	}
	switch s {
	case domain.StatusUpcoming:
		f.rec.Upcoming = items
	case domain.StatusInTheaters:
		f.rec.InTheaters = items
	case domain.StatusReleased:
		f.rec.Released = items
	}
}

func (f *fakeOrderings) Ordering(_ context.Context, s domain.Status) ([]domain.OrderingItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.rec.For(s), nil
}

func (f *fakeOrderings) OrderingRecord(context.Context) (domain.OrderingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rec, f.err
}

// sequentialCache прячет SetMany: Swapper продвигает ключи по одному.
type sequentialCache struct {
	domain.Cache
}

// failingBatch — транзакция всегда отклоняется.
type failingBatch struct {
	*memcache.Cache
}

func (failingBatch) SetMany(context.Context, []domain.CacheWrite) error { return errBoom }

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func testCatalog() *domain.Catalog {
	c, err := domain.NewCatalog(
		domain.Category{
			Slug: "upcoming", Dimension: domain.DimStatus,
			Filter: domain.Predicate{Status: domain.StatusUpcoming}, Order: domain.SortReleaseAscPopularity,
			Version: domain.VersionStatus, Status: domain.StatusUpcoming, ReadThrough: true,
		},
		domain.Category{
			Slug: "decade_1930s", Dimension: domain.DimDecade,
			Filter: domain.Predicate{YearFrom: 1930, YearTo: 1939}, Order: domain.SortVotesDescPopularity,
			Version: domain.VersionDecade,
		},
		domain.Category{
			Slug: "country_BR", Dimension: domain.DimCountry, Label: "Brasil", Code: "BR",
			Filter: domain.Predicate{Country: "Brazil"}, Order: domain.SortVotesDescPopularity,
			Version: domain.VersionCountry,
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

type harness struct {
	movies    *fakeMovies
	orderings *fakeOrderings
	cache     domain.Cache
	catalog   *domain.Catalog
	policy    Policy
}

func newHarness(cache domain.Cache) *harness {
	if cache == nil {
		cache = memcache.New(nil)
	}
	return &harness{
		movies:    &fakeMovies{},
		orderings: &fakeOrderings{},
		cache:     cache,
		catalog:   testCatalog(),
		policy:    DefaultPolicy(),
	}
}

func (h *harness) cycle() *Cycle {
	w := NewWarmer(h.movies, h.orderings, h.cache, h.catalog, h.policy, quietLogger())
	return NewCycle(w, NewSwapper(h.cache, quietLogger()))
}

func (h *harness) resolver() *Resolver {
	return NewResolver(h.movies, h.orderings, h.cache, h.catalog, h.policy, quietLogger())
}

func upcoming(ids ...domain.MovieID) []fakeMovie {
	out := make([]fakeMovie, len(ids))
	for i, id := range ids {
		out[i] = fakeMovie{ID: id, Ext: 1000 + id, Status: domain.StatusUpcoming}
	}
	return out
}

func summaryIDs(ms []domain.MovieSummary) []domain.MovieID {
	out := make([]domain.MovieID, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

// blockingMovies держит QueryIDs до закрытия release и уважает ctx вызова,
// как это делает pgx.
type blockingMovies struct {
	*fakeMovies
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newBlockingMovies(f *fakeMovies) *blockingMovies {
	return &blockingMovies{fakeMovies: f, entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (b *blockingMovies) QueryIDs(ctx context.Context, q domain.IDQuery) ([]domain.MovieID, error) {
	b.calls.Add(1)
	b.entered <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.fakeMovies.QueryIDs(ctx, q)
}
