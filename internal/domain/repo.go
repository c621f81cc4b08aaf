package domain

import (
	"context"
)

// Каноническая сортировка измерения
type SortOrder string

const (
	// ближайшие премьеры первыми
	SortReleaseAscPopularity SortOrder = "release_asc_popularity"
	// свежие первыми
	SortReleaseDescPopularity SortOrder = "release_desc_popularity"
	SortYearDescVotes         SortOrder = "year_desc_votes"
	SortVotesDescPopularity   SortOrder = "votes_desc_popularity"
)

// Фильтр списка. Пустые поля не участвуют в условии.
type Predicate struct {
	Status             Status
	Genre              string // имя жанра у провайдера (без учёта регистра)
	Country            string // полное английское имя страны
	YearFrom           int
	YearTo             int
	RequireReleaseDate bool
	ExcludeIDs         []MovieID
}

// Without возвращает копию фильтра с исключёнными id.
func (p Predicate) Without(ids []MovieID) Predicate {
	out := p
	out.ExcludeIDs = append(append([]MovieID(nil), p.ExcludeIDs...), ids...)
	return out
}

type IDQuery struct {
	Filter Predicate
	Order  SortOrder
	Offset int
	Limit  int // 0 — без ограничения
}

type MovieStore interface {
	Count(ctx context.Context, p Predicate) (int, error)
	QueryIDs(ctx context.Context, q IDQuery) ([]MovieID, error)
	// Порядок результата не гарантирован — вызывающий сортирует сам.
	FetchByIDs(ctx context.Context, ids []MovieID) ([]MovieSummary, error)
	IDsByExternalIDs(ctx context.Context, ext []ExternalID) (map[ExternalID]MovieID, error)
}

// Только чтение: записью занимается внешний клиент куратора.
type OrderingStore interface {
	Ordering(ctx context.Context, s Status) ([]OrderingItem, error)
	OrderingRecord(ctx context.Context) (OrderingRecord, error)
}

type Pinger interface {
	Ping(context.Context) error
}
