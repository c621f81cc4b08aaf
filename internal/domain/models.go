package domain

import (
	"fmt"
	"time"
)

// Базовые идентификаторы
type MovieID = int64
type ExternalID = int64

// Статус выхода фильма
type Status string

const (
	StatusUpcoming   Status = "upcoming"
	StatusInTheaters Status = "in_theaters"
	StatusReleased   Status = "released"
)

var Statuses = []Status{StatusUpcoming, StatusInTheaters, StatusReleased}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusUpcoming, StatusInTheaters, StatusReleased:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q: %w", s, ErrBadParams)
}

// Проекция фильма для выдачи в списках. В кеш попадает только ID.
type MovieSummary struct {
	ID          MovieID    `json:"id"`
	ExternalID  ExternalID `json:"tmdb_id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Status      Status     `json:"status"`
	ReleaseDate *time.Time `json:"release_date"`
	Popularity  float64    `json:"popularity"`
	VoteCount   int        `json:"vote_count"`
	PosterURL   string     `json:"poster_url,omitempty"`
}

// Элемент ручной сортировки (формат, который пишет клиент куратора)
type OrderingItem struct {
	ExternalID ExternalID `json:"id_tmdb"`
	Title      string     `json:"title"`
}

// Единственная запись с ручными порядками по статусам
type OrderingRecord struct {
	Upcoming   []OrderingItem `json:"upcoming"`
	InTheaters []OrderingItem `json:"in_theaters"`
	Released   []OrderingItem `json:"released"`
}

func (r OrderingRecord) For(s Status) []OrderingItem {
	switch s {
	case StatusUpcoming:
		return r.Upcoming
	case StatusInTheaters:
		return r.InTheaters
	case StatusReleased:
		return r.Released
	}
	return nil
}

// ValidateOrdering проверяет список на границе хранилища.
// Дубликаты не проверяются: это ответственность куратора.
func ValidateOrdering(items []OrderingItem) error {
	for i, it := range items {
		if it.ExternalID <= 0 {
			return fmt.Errorf("ordering item %d: invalid id_tmdb %d", i, it.ExternalID)
		}
	}
	return nil
}

// Снимок «куратор + автоматика» для статусной категории
type CuratedSnapshot struct {
	ExternalIDs []ExternalID `json:"external_ids"` // исходная последовательность куратора
	Prefix      []MovieID    `json:"prefix"`       // разрешённые id в порядке куратора
	IDs         []MovieID    `json:"ids"`          // prefix + автоматический хвост
}

// Tail возвращает автоматическую часть снимка.
func (s CuratedSnapshot) Tail() []MovieID {
	if len(s.Prefix) > len(s.IDs) {
		return nil
	}
	return s.IDs[len(s.Prefix):]
}

// Страны с количеством фильмов (страница «Países»)
type CountryCount struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
	Legacy bool   `json:"legacy,omitempty"`
}

type CountryIndex struct {
	Countries []CountryCount `json:"countries"`
}
