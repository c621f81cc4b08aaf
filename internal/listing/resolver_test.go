package listing

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
)

func TestResolver_PageSizesFollowStoredOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(nil)
	h.movies.set(upcoming(7, 3, 5, 1, 6, 2, 4)...)
	rep := h.cycle().Run(ctx)
	require.True(t, rep.Clean(), "%+v", rep.Failures)

	r := h.resolver()
	cases := []struct {
		page, limit int
		want        []domain.MovieID
	}{
		{1, 3, []domain.MovieID{7, 3, 5}},
		{2, 3, []domain.MovieID{1, 6, 2}},
		{3, 3, []domain.MovieID{4}},
		{4, 3, []domain.MovieID{}},
		{1, 10, []domain.MovieID{7, 3, 5, 1, 6, 2, 4}},
	}
	for _, tc := range cases {
		got, err := r.Resolve(ctx, PageRequest{Category: "upcoming", Page: tc.page, Limit: tc.limit})
		require.NoError(t, err)
		assert.Equal(t, tc.want, summaryIDs(got.Data), "page=%d limit=%d", tc.page, tc.limit)
		assert.Equal(t, 7, got.Total)
		assert.Equal(t, tc.page, got.Page)
		assert.Equal(t, tc.limit, got.PerPage)
	}
}

func TestResolver_CuratedPrefixBeforeAutomaticTail(t *testing.T) {
	ctx := context.Background()
	h := newHarness(nil)
	h.movies.set(upcoming(30, 10, 40, 20, 50)...)
	h.orderings.set(domain.StatusUpcoming, 1010, 1020)

	check := func(t *testing.T, r *Resolver) {
		p1, err := r.Resolve(ctx, PageRequest{Category: "upcoming", Page: 1, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, []domain.MovieID{10, 20, 30}, summaryIDs(p1.Data))
		assert.Equal(t, 5, p1.Total)

		p2, err := r.Resolve(ctx, PageRequest{Category: "upcoming", Page: 2, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, []domain.MovieID{40, 50}, summaryIDs(p2.Data))
		assert.Equal(t, 5, p2.Total)
	}

	t.Run("cold cache", func(t *testing.T) {
		check(t, h.resolver())
	})

	t.Run("warmed snapshot", func(t *testing.T) {
		rep := h.cycle().Run(ctx)
		require.True(t, rep.Clean(), "%+v", rep.Failures)
		check(t, h.resolver())
	})

	t.Run("snapshot reused without resolving curated ids", func(t *testing.T) {
		r := h.resolver()
		before := h.movies.queries
		_, err := r.Resolve(ctx, PageRequest{Category: "upcoming", Page: 2, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, before, h.movies.queries)
	})
}

func TestResolver_CuratorChangeAfterWarmup(t *testing.T) {
	ctx := context.Background()
	h := newHarness(nil)
	h.movies.set(upcoming(30, 10, 40, 20, 50)...)
	h.orderings.set(domain.StatusUpcoming, 1010, 1020)
	require.True(t, h.cycle().Run(ctx).Clean())

	h.orderings.set(domain.StatusUpcoming, 1050)
	got, err := h.resolver().Resolve(ctx, PageRequest{Category: "upcoming", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []domain.MovieID{50, 30, 10, 40, 20}, summaryIDs(got.Data))
	assert.Equal(t, 5, got.Total)
}

func TestResolver_UnknownCuratedIDIsDropped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(nil)
	h.movies.set(upcoming(30, 10, 40)...)
	h.orderings.set(domain.StatusUpcoming, 99, 1010)
	require.True(t, h.cycle().Run(ctx).Clean())

	got, err := h.resolver().Resolve(ctx, PageRequest{Category: "upcoming", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []domain.MovieID{10, 30, 40}, summaryIDs(got.Data))
	assert.Equal(t, 3, got.Total)
}

func TestResolver_DuplicateCuratedIDsAreKept(t *testing.T) {
	ctx := context.Background()
	h := newHarness(nil)
	h.movies.set(upcoming(30, 10, 40)...)
	h.orderings.set(domain.StatusUpcoming, 1010, 1010)

	got, err := h.resolver().Resolve(ctx, PageRequest{Category: "upcoming", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []domain.MovieID{10, 10, 30, 40}, summaryIDs(got.Data))
	assert.Equal(t, 4, got.Total)
}

func TestResolver_CuratedBoundaryTopsUpFromTail(t *testing.T) {
	ctx := context.Background()
	h := newHarness(nil)
	h.movies.set(upcoming(30, 10, 40, 20, 50)...)
	h.orderings.set(domain.StatusUpcoming, 1010, 1020)
	require.True(t, h.cycle().Run(ctx).Clean())

	got, err := h.resolver().Resolve(ctx, PageRequest{Category: "upcoming", Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []domain.MovieID{20}, summaryIDs(got.Data))

	got, err = h.resolver().Resolve(ctx, PageRequest{Category: "upcoming", Page: 1, Limit: 4})
	require.NoError(t, err)
	assert.Equal(t, []domain.MovieID{10, 20, 30, 40}, summaryIDs(got.Data))
}

func TestResolver_MissingEntryWithoutFallback(t *testing.T) {
	ctx := context.Background()
	h := newHarness(nil)
	h.movies.set(fakeMovie{ID: 1, Year: 1934})

	_, err := h.resolver().Resolve(ctx, PageRequest{Category: "decade_1930s", Page: 1, Limit: 20})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCacheNotWarmed))

	var miss *domain.MissingEntryError
	require.ErrorAs(t, err, &miss)
	assert.Equal(t, "decade_1930s_ids_v2", miss.Key)
	assert.Contains(t, err.Error(), "decade_1930s_ids")
	assert.Contains(t, err.Error(), "run warmup")
	assert.Zero(t, h.movies.queries)
}

func TestResolver_ReadThroughPopulatesOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(nil)
	h.movies.set(upcoming(1, 2, 3)...)
	r := h.resolver()

	_, err := r.Resolve(ctx, PageRequest{Category: "upcoming", Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, h.movies.queries)

	cat, _ := h.catalog.Lookup("upcoming")
	_, ok, err := h.cache.Get(ctx, cat.ListKey())
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = r.Resolve(ctx, PageRequest{Category: "upcoming", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, h.movies.queries)
}

func TestResolver_CorruptEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	h := newHarness(nil)
	h.movies.set(upcoming(1, 2)...)
	cat, _ := h.catalog.Lookup("upcoming")
	require.NoError(t, h.cache.Set(ctx, cat.ListKey(), []byte(`{"key":"other","kind":"ids","ids":[9]}`), 0))

	got, err := h.resolver().Resolve(ctx, PageRequest{Category: "upcoming", Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []domain.MovieID{1, 2}, summaryIDs(got.Data))
}

func TestResolver_BeyondWarmWindowQueriesStore(t *testing.T) {
	ctx := context.Background()
	h := newHarness(nil)
	h.policy.Window = 3
	h.movies.set(upcoming(1, 2, 3, 4, 5, 6, 7)...)
	require.True(t, h.cycle().Run(ctx).Clean())
	r := h.resolver()

	got, err := r.Resolve(ctx, PageRequest{Category: "upcoming", Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []domain.MovieID{4, 5, 6}, summaryIDs(got.Data))
	assert.Equal(t, 7, got.Total)

	// страница на границе окна: хвост кеша и добор из хранилища
	got, err = r.Resolve(ctx, PageRequest{Category: "upcoming", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []domain.MovieID{3, 4}, summaryIDs(got.Data))

	got, err = r.Resolve(ctx, PageRequest{Category: "upcoming", Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, got.Data)
	assert.Equal(t, 7, got.Total)
}

func TestResolver_CuratedTotalStableWithinCountTTL(t *testing.T) {
	ctx := context.Background()
	h := newHarness(nil)
	h.movies.set(upcoming(30, 10, 40, 20, 50)...)
	h.orderings.set(domain.StatusUpcoming, 1010, 1020)
	require.True(t, h.cycle().Run(ctx).Clean())
	r := h.resolver()

	first, err := r.Resolve(ctx, PageRequest{Category: "upcoming", Page: 1, Limit: 2})
	require.NoError(t, err)

	h.movies.set(upcoming(30, 10, 40, 20, 50, 60, 70)...)
	for i := 0; i < 3; i++ {
		again, err := r.Resolve(ctx, PageRequest{Category: "upcoming", Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, first.Total, again.Total)
	}
}

func TestResolver_Validation(t *testing.T) {
	ctx := context.Background()
	r := newHarness(nil).resolver()

	_, err := r.Resolve(ctx, PageRequest{Category: "upcoming", Page: 0, Limit: 10})
	assert.ErrorIs(t, err, domain.ErrBadParams)

	_, err = r.Resolve(ctx, PageRequest{Category: "upcoming", Page: 1, Limit: MaxLimit + 1})
	assert.ErrorIs(t, err, domain.ErrBadParams)

	_, err = r.Resolve(ctx, PageRequest{Category: "upcoming", Page: 1, Limit: 0})
	assert.ErrorIs(t, err, domain.ErrBadParams)

	_, err = r.Resolve(ctx, PageRequest{Category: "nope", Page: 1, Limit: 10})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolver_HugePageIsRejected(t *testing.T) {
	ctx := context.Background()
	huge := math.MaxInt/MaxLimit + 2

	t.Run("plain", func(t *testing.T) {
		h := newHarness(nil)
		h.movies.set(upcoming(1, 2, 3)...)
		r := h.resolver()

		_, err := r.Resolve(ctx, PageRequest{Category: "upcoming", Page: huge, Limit: MaxLimit})
		assert.ErrorIs(t, err, domain.ErrBadParams)
	})

	t.Run("curated", func(t *testing.T) {
		h := newHarness(nil)
		h.movies.set(upcoming(1, 2, 3)...)
		h.orderings.set(domain.StatusUpcoming, 1002)
		h.cycle().Run(ctx)
		r := h.resolver()

		_, err := r.Resolve(ctx, PageRequest{Category: "upcoming", Page: huge, Limit: MaxLimit})
		assert.ErrorIs(t, err, domain.ErrBadParams)
	})

	t.Run("last allowed page is empty", func(t *testing.T) {
		h := newHarness(nil)
		h.movies.set(upcoming(1, 2, 3)...)
		r := h.resolver()

		got, err := r.Resolve(ctx, PageRequest{Category: "upcoming", Page: maxOffset/MaxLimit + 1, Limit: MaxLimit})
		require.NoError(t, err)
		assert.Empty(t, got.Data)
		assert.Equal(t, 3, got.Total)
	})
}

func TestSliceWindow_Bounds(t *testing.T) {
	ids := []domain.MovieID{1, 2, 3}
	assert.Nil(t, sliceWindow(ids, -1, 2))
	assert.Nil(t, sliceWindow(ids, 3, 2))
	assert.Equal(t, []domain.MovieID{2, 3}, sliceWindow(ids, 1, math.MaxInt))
}

func TestResolver_ReadThroughSurvivesFirstCallerCancel(t *testing.T) {
	h := newHarness(nil)
	h.movies.set(upcoming(1, 2, 3)...)
	bm := newBlockingMovies(h.movies)
	r := NewResolver(bm, h.orderings, h.cache, h.catalog, h.policy, quietLogger())
	req := PageRequest{Category: "upcoming", Page: 1, Limit: 10}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := r.Resolve(firstCtx, req)
		firstErr <- err
	}()
	<-bm.entered

	// первый клиент ушёл, а загрузка по ключу ещё идёт
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	type result struct {
		page Page
		err  error
	}
	second := make(chan result, 1)
	go func() {
		p, err := r.Resolve(context.Background(), req)
		second <- result{p, err}
	}()
	close(bm.release)

	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, []domain.MovieID{1, 2, 3}, summaryIDs(res.page.Data))
	assert.Equal(t, int32(1), bm.calls.Load())
}

func TestResolver_MovieDeletedAfterWarmupIsLogged(t *testing.T) {
	ctx := context.Background()
	h := newHarness(nil)
	h.movies.set(upcoming(1, 2, 3, 4, 5)...)
	require.True(t, h.cycle().Run(ctx).Clean())

	h.movies.set(upcoming(1, 3, 4, 5)...)
	var buf bytes.Buffer
	r := NewResolver(h.movies, h.orderings, h.cache, h.catalog, h.policy, log.New(&buf, "", 0))

	got, err := r.Resolve(ctx, PageRequest{Category: "upcoming", Page: 1, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []domain.MovieID{1, 3, 4, 5}, summaryIDs(got.Data))
	assert.Equal(t, 5, got.Total)
	assert.Contains(t, buf.String(), "resolve upcoming: 1 of 5 ids not in movie store ([2])")
}

func TestResolver_OrderingStoreErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	h := newHarness(nil)
	h.orderings.err = errBoom

	_, err := h.resolver().Resolve(ctx, PageRequest{Category: "upcoming", Page: 1, Limit: 10})
	assert.ErrorIs(t, err, errBoom)
}

func TestResolver_Countries(t *testing.T) {
	ctx := context.Background()
	h := newHarness(nil)
	r := h.resolver()

	_, err := r.Countries(ctx)
	assert.ErrorIs(t, err, domain.ErrCacheNotWarmed)

	h.movies.set(
		fakeMovie{ID: 1, Country: "Brazil"},
		fakeMovie{ID: 2, Country: "Brazil"},
		fakeMovie{ID: 3, Country: "Chile"},
	)
	require.True(t, h.cycle().Run(ctx).Clean())

	idx, err := r.Countries(ctx)
	require.NoError(t, err)
	require.Len(t, idx.Countries, 1)
	assert.Equal(t, domain.CountryCount{Code: "BR", Name: "Brazil", Label: "Brasil", Count: 2}, idx.Countries[0])
}
