package listing

import (
	"context"
	"fmt"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
)

func externalIDs(items []domain.OrderingItem) []domain.ExternalID {
	out := make([]domain.ExternalID, len(items))
	for i, it := range items {
		out[i] = it.ExternalID
	}
	return out
}

// resolveCurated переводит внешние id куратора в id фильмов одним запросом.
// Порядок куратора сохраняется, неизвестные фильмы молча выпадают, дубли остаются.
func resolveCurated(ctx context.Context, movies domain.MovieStore, items []domain.OrderingItem) ([]domain.MovieID, error) {
	if len(items) == 0 {
		return []domain.MovieID{}, nil
	}
	ext := externalIDs(items)

	uniq := make([]domain.ExternalID, 0, len(ext))
	seen := make(map[domain.ExternalID]struct{}, len(ext))
	for _, x := range ext {
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		uniq = append(uniq, x)
	}

	byExt, err := movies.IDsByExternalIDs(ctx, uniq)
	if err != nil {
		return nil, fmt.Errorf("resolve curated ids: %w", err)
	}

	prefix := make([]domain.MovieID, 0, len(ext))
	for _, x := range ext {
		if id, ok := byExt[x]; ok {
			prefix = append(prefix, id)
		}
	}
	return prefix, nil
}

type idSet map[domain.MovieID]struct{}

func newIDSet(ids []domain.MovieID) idSet {
	s := make(idSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// excludeIDs — автоматический хвост: без id из skip и без повторов.
func excludeIDs(ids []domain.MovieID, skip idSet) []domain.MovieID {
	out := make([]domain.MovieID, 0, len(ids))
	seen := make(idSet, len(ids))
	for _, id := range ids {
		if _, ok := skip[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func distinct(ids []domain.MovieID) []domain.MovieID {
	return excludeIDs(ids, nil)
}

// mergeCurated строит порядок выдачи: префикс куратора, затем автоматика без кураторских id.
func mergeCurated(prefix, auto []domain.MovieID) []domain.MovieID {
	tail := excludeIDs(auto, newIDSet(prefix))
	out := make([]domain.MovieID, 0, len(prefix)+len(tail))
	out = append(out, prefix...)
	return append(out, tail...)
}

// orderSummaries раскладывает ответ хранилища по позициям среза id.
// Порядку, в котором вернуло хранилище, не доверяем.
func orderSummaries(ids []domain.MovieID, found []domain.MovieSummary) []domain.MovieSummary {
	byID := make(map[domain.MovieID]domain.MovieSummary, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}
	out := make([]domain.MovieSummary, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

func missingIDs(ids []domain.MovieID, found []domain.MovieSummary) []domain.MovieID {
	have := make(idSet, len(found))
	for _, m := range found {
		have[m.ID] = struct{}{}
	}
	var out []domain.MovieID
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func sliceWindow(ids []domain.MovieID, offset, limit int) []domain.MovieID {
	if offset < 0 || offset >= len(ids) || limit <= 0 {
		return nil
	}
	hi := len(ids)
	if limit < hi-offset {
		hi = offset + limit
	}
	out := make([]domain.MovieID, hi-offset)
	copy(out, ids[offset:hi])
	return out
}
