package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
)

var summaryColumns = []string{
	"m.id", "m.tmdb_id", "m.title", "m.slug", "m.status",
	"m.release_date", "m.popularity", "m.vote_count", "m.poster_url",
}

func (r *PGRepo) Count(ctx context.Context, p domain.Predicate) (int, error) {
	sqlStr, args, err := countQuery(r.qb(), r.table("movies"), p).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	r.logSQL("Count", sqlStr, args)

	start := time.Now()
	var n int
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&n); err != nil {
		r.logger.Printf("Count scan error after %s: %v", time.Since(start), err)
		return 0, err
	}
	r.logger.Printf("Count ok in %s n=%d", time.Since(start), n)
	return n, nil
}

func (r *PGRepo) QueryIDs(ctx context.Context, q domain.IDQuery) ([]domain.MovieID, error) {
	sqlStr, args, err := idsQuery(r.qb(), r.table("movies"), q).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ids: %w", err)
	}
	r.logSQL("QueryIDs", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("QueryIDs error after %s: %v", time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.MovieID, 0, q.Limit)
	for rows.Next() {
		var id domain.MovieID
		if err := rows.Scan(&id); err != nil {
			r.logger.Printf("QueryIDs scan error: %v", err)
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("QueryIDs rows error: %v", err)
		return nil, err
	}
	r.logger.Printf("QueryIDs ok in %s n=%d", time.Since(start), len(out))
	return out, nil
}

func (r *PGRepo) FetchByIDs(ctx context.Context, ids []domain.MovieID) ([]domain.MovieSummary, error) {
	if len(ids) == 0 {
		return []domain.MovieSummary{}, nil
	}
	sqlStr, args, err := r.qb().Select(summaryColumns...).
		From(r.table("movies") + " m").
		Where(sq.Eq{"m.id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build fetch: %w", err)
	}
	r.logSQL("FetchByIDs", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("FetchByIDs error after %s: %v", time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.MovieSummary, 0, len(ids))
	for rows.Next() {
		var (
			m      domain.MovieSummary
			status string
		)
		if err := rows.Scan(
			&m.ID, &m.ExternalID, &m.Title, &m.Slug, &status,
			&m.ReleaseDate, &m.Popularity, &m.VoteCount, &m.PosterURL,
		); err != nil {
			r.logger.Printf("FetchByIDs scan error: %v", err)
			return nil, err
		}
		m.Status = domain.Status(status)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.Printf("FetchByIDs ok in %s want=%d got=%d", time.Since(start), len(ids), len(out))
	return out, nil
}

func (r *PGRepo) IDsByExternalIDs(ctx context.Context, ext []domain.ExternalID) (map[domain.ExternalID]domain.MovieID, error) {
	out := make(map[domain.ExternalID]domain.MovieID, len(ext))
	if len(ext) == 0 {
		return out, nil
	}
	sqlStr, args, err := r.qb().Select("m.tmdb_id", "m.id").
		From(r.table("movies") + " m").
		Where(sq.Eq{"m.tmdb_id": ext}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build external ids: %w", err)
	}
	r.logSQL("IDsByExternalIDs", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("IDsByExternalIDs error after %s: %v", time.Since(start), err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var x domain.ExternalID
		var id domain.MovieID
		if err := rows.Scan(&x, &id); err != nil {
			return nil, err
		}
		out[x] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.Printf("IDsByExternalIDs ok in %s want=%d got=%d", time.Since(start), len(ext), len(out))
	return out, nil
}

// ---- Построители запросов (без пула, тестируются через ToSql) ----

func countQuery(qb sq.StatementBuilderType, table string, p domain.Predicate) sq.SelectBuilder {
	b := qb.Select("count(*)").From(table + " m")
	return applyPredicate(b, p)
}

func idsQuery(qb sq.StatementBuilderType, table string, q domain.IDQuery) sq.SelectBuilder {
	b := applyPredicate(qb.Select("m.id").From(table+" m"), q.Filter).
		OrderBy(orderBy(q.Order)...)
	if q.Offset > 0 {
		b = b.Offset(uint64(q.Offset))
	}
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	return b
}

func applyPredicate(b sq.SelectBuilder, p domain.Predicate) sq.SelectBuilder {
	if p.Status != "" {
		b = b.Where(sq.Eq{"m.status": string(p.Status)})
	}
	if p.Genre != "" {
		b = b.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM jsonb_array_elements_text(m.genres) g WHERE lower(g) = lower(?))", p.Genre))
	}
	if p.Country != "" {
		b = b.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM jsonb_array_elements_text(m.production_countries) c WHERE lower(c) = lower(?))", p.Country))
	}
	if p.YearFrom > 0 {
		b = b.Where(sq.GtOrEq{"m.release_year": p.YearFrom})
	}
	if p.YearTo > 0 {
		b = b.Where(sq.LtOrEq{"m.release_year": p.YearTo})
	}
	if p.RequireReleaseDate {
		b = b.Where(sq.NotEq{"m.release_date": nil})
	}
	if len(p.ExcludeIDs) > 0 {
		b = b.Where(sq.NotEq{"m.id": p.ExcludeIDs})
	}
	return b
}

// orderBy — каноническая сортировка; id в конце делает порядок полным.
func orderBy(o domain.SortOrder) []string {
	switch o {
	case domain.SortReleaseAscPopularity:
		return []string{"m.release_date ASC NULLS LAST", "m.popularity DESC", "m.id ASC"}
	case domain.SortReleaseDescPopularity:
		return []string{"m.release_date DESC NULLS LAST", "m.popularity DESC", "m.id ASC"}
	case domain.SortYearDescVotes:
		return []string{"m.release_year DESC NULLS LAST", "m.vote_count DESC", "m.id ASC"}
	case domain.SortVotesDescPopularity:
		return []string{"m.vote_count DESC", "m.popularity DESC", "m.id ASC"}
	}
	return []string{"m.id ASC"}
}
