package listing

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
	core "github.com/Chimarrao/GuiaDeFilmes.com/internal/listing"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/logx"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/mw"
	v1 "github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/v1"
)

type Resolver interface {
	Resolve(ctx context.Context, req core.PageRequest) (core.Page, error)
	Countries(ctx context.Context) (domain.CountryIndex, error)
	Catalog() *domain.Catalog
}

type Handler struct {
	Log      *log.Logger
	Listings Resolver
	// Cache-Control max-age для успешных страниц, секунд
	MaxAge int
}

// Listing godoc
// @Summary     Page of a listing category
// @Description Страница категории (статус, жанр, декада, страна) с точным total.
// @Tags        listing
// @Produce     json
// @Param       category path  string true  "category slug, e.g. upcoming, genre_acao, decade_1990s, country_BR"
// @Param       page     query int    false "page, from 1"
// @Param       limit    query int    false "page size, 1..100"
// @Success     200 {object} domain.ListingResponse
// @Failure     400 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Failure     503 {object} domain.APIEnvelope
// @Router      /v1/listing/{category} [get]
func (h *Handler) Listing(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, r.PathValue("category"))
}

// ByStatus обслуживает старые маршруты /v1/movies/{upcoming,in-theaters,released}.
func (h *Handler) ByStatus(value string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serveDimension(w, r, domain.DimStatus, value)
	}
}

// ByDimension — /v1/movies/{genre,decade,country}/{value}.
//
// @Summary     Page of a genre, decade or country
// @Tags        listing
// @Produce     json
// @Param       value path  string true  "genre slug, decade (1990s) or country code"
// @Param       page  query int    false "page, from 1"
// @Param       limit query int    false "page size, 1..100"
// @Success     200 {object} domain.ListingResponse
// @Failure     404 {object} domain.APIEnvelope
// @Failure     503 {object} domain.APIEnvelope
// @Router      /v1/movies/genre/{value} [get]
// @Router      /v1/movies/decade/{value} [get]
// @Router      /v1/movies/country/{value} [get]
func (h *Handler) ByDimension(dim domain.Dimension) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serveDimension(w, r, dim, r.PathValue("value"))
	}
}

func (h *Handler) serveDimension(w http.ResponseWriter, r *http.Request, dim domain.Dimension, value string) {
	cat, ok := h.Listings.Catalog().Resolve(dim, value)
	if !ok {
		logx.Info(h.Log, mw.RequestIDFromCtx(r.Context()), "listing.resolve", "unknown category",
			"dimension", dim, "value", value)
		v1.WriteDomainError(w, r, domain.ErrNotFound)
		return
	}
	h.serve(w, r, cat.Slug)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, category string) {
	const op = "listing.page"
	reqID := mw.RequestIDFromCtx(r.Context())

	page, err := v1.IntQuery(r, "page", 1)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	limit, err := v1.IntQuery(r, "limit", core.DefaultLimit)
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}

	res, err := h.Listings.Resolve(r.Context(), core.PageRequest{Category: category, Page: page, Limit: limit})
	if err != nil {
		logx.Error(h.Log, reqID, op, "resolve failed", err, "category", category, "page", page, "limit", limit)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "category", category, "page", page, "limit", limit,
		"items", len(res.Data), "total", res.Total)
	if h.MaxAge > 0 {
		w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(h.MaxAge))
	}
	v1.WriteJSON(w, r, http.StatusOK, res)
}

// Countries godoc
// @Summary     Countries with movie counts
// @Tags        listing
// @Produce     json
// @Success     200 {object} domain.APIEnvelope{data=domain.CountryIndex}
// @Failure     503 {object} domain.APIEnvelope
// @Router      /v1/countries [get]
func (h *Handler) Countries(w http.ResponseWriter, r *http.Request) {
	const op = "listing.countries"
	reqID := mw.RequestIDFromCtx(r.Context())

	idx, err := h.Listings.Countries(r.Context())
	if err != nil {
		logx.Error(h.Log, reqID, op, "countries failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "countries", len(idx.Countries))
	v1.WriteOKData(w, r, idx)
}

type categoryOut struct {
	Slug      string `json:"slug"`
	Dimension string `json:"dimension"`
	Label     string `json:"label"`
	Curated   bool   `json:"curated"`
	Legacy    bool   `json:"legacy,omitempty"`
}

// Categories godoc
// @Summary     Known listing categories
// @Tags        listing
// @Produce     json
// @Param       dimension query string false "status|genre|decade|country"
// @Success     200 {object} domain.APIEnvelope{data=[]object}
// @Failure     400 {object} domain.APIEnvelope
// @Router      /v1/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	dim := strings.ToLower(r.URL.Query().Get("dimension"))
	cats := h.Listings.Catalog().All()
	if dim != "" {
		switch domain.Dimension(dim) {
		case domain.DimStatus, domain.DimGenre, domain.DimDecade, domain.DimCountry:
		default:
			v1.WriteDomainError(w, r, fmt.Errorf("dimension %q: %w", dim, domain.ErrBadParams))
			return
		}
		cats = h.Listings.Catalog().ByDimension(domain.Dimension(dim))
	}
	out := make([]categoryOut, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryOut{
			Slug: c.Slug, Dimension: string(c.Dimension), Label: c.Label,
			Curated: c.Curatable(), Legacy: c.Legacy,
		})
	}
	v1.WriteOKData(w, r, out)
}
