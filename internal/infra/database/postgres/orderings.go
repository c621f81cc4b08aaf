package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
)

// Ручные порядки лежат в единственной строке movie_orderings (id = 1).
// Отсюда только чтение.

func orderingColumn(s domain.Status) (string, error) {
	switch s {
	case domain.StatusUpcoming:
		return "upcoming", nil
	case domain.StatusInTheaters:
		return "in_theaters", nil
	case domain.StatusReleased:
		return "released", nil
	}
	return "", fmt.Errorf("ordering for %q: %w", s, domain.ErrBadParams)
}

func (r *PGRepo) Ordering(ctx context.Context, s domain.Status) ([]domain.OrderingItem, error) {
	col, err := orderingColumn(s)
	if err != nil {
		return nil, err
	}
	sqlStr, args, _ := r.qb().Select(col).
		From(r.table("movie_orderings")).
		Where(sq.Eq{"id": 1}).
		ToSql()
	r.logSQL("Ordering", sqlStr, args)

	start := time.Now()
	var raw []byte
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("Ordering %s: no record yet", col)
			return []domain.OrderingItem{}, nil
		}
		r.logger.Printf("Ordering scan error after %s: %v", time.Since(start), err)
		return nil, err
	}
	items, err := decodeOrdering(col, raw)
	if err != nil {
		r.logger.Printf("Ordering %s: %v", col, err)
		return nil, err
	}
	r.logger.Printf("Ordering %s ok in %s n=%d", col, time.Since(start), len(items))
	return items, nil
}

func (r *PGRepo) OrderingRecord(ctx context.Context) (domain.OrderingRecord, error) {
	sqlStr, args, _ := r.qb().Select("upcoming", "in_theaters", "released").
		From(r.table("movie_orderings")).
		Where(sq.Eq{"id": 1}).
		ToSql()
	r.logSQL("OrderingRecord", sqlStr, args)

	start := time.Now()
	var up, inth, rel []byte
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&up, &inth, &rel); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.OrderingRecord{
				Upcoming: []domain.OrderingItem{}, InTheaters: []domain.OrderingItem{}, Released: []domain.OrderingItem{},
			}, nil
		}
		r.logger.Printf("OrderingRecord scan error after %s: %v", time.Since(start), err)
		return domain.OrderingRecord{}, err
	}

	var rec domain.OrderingRecord
	var err error
	if rec.Upcoming, err = decodeOrdering("upcoming", up); err != nil {
		return domain.OrderingRecord{}, err
	}
	if rec.InTheaters, err = decodeOrdering("in_theaters", inth); err != nil {
		return domain.OrderingRecord{}, err
	}
	if rec.Released, err = decodeOrdering("released", rel); err != nil {
		return domain.OrderingRecord{}, err
	}
	r.logger.Printf("OrderingRecord ok in %s", time.Since(start))
	return rec, nil
}

// decodeOrdering — граница хранилища: jsonb разбирается в типизированные элементы и проверяется.
func decodeOrdering(col string, raw []byte) ([]domain.OrderingItem, error) {
	items := []domain.OrderingItem{}
	if len(raw) == 0 || string(raw) == "null" {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("ordering %s: %w: %v", col, domain.ErrUnexpected, err)
	}
	if err := domain.ValidateOrdering(items); err != nil {
		return nil, fmt.Errorf("ordering %s: %w: %v", col, domain.ErrUnexpected, err)
	}
	return items, nil
}
