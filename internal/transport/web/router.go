package web

import (
	"log"
	"net/http"

	_ "github.com/Chimarrao/GuiaDeFilmes.com/internal/docs"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/mw"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/v1/health"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/v1/listing"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/v1/ordering"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/v1/warmup"
	httpSwagger "github.com/swaggo/http-swagger"
)

type handlers struct {
	health   *health.Handler
	listing  *listing.Handler
	ordering *ordering.Handler
	warmup   *warmup.Handler
}

func newRouter(h handlers, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /v1/healthz", h.health.Liveness)
	mux.HandleFunc("GET /v1/readyz", h.health.Readiness)

	// листинги
	mux.HandleFunc("GET /v1/listing/{category}", h.listing.Listing)
	mux.HandleFunc("GET /v1/categories", h.listing.Categories)
	mux.HandleFunc("GET /v1/countries", h.listing.Countries)

	// старые маршруты фронтенда
	mux.HandleFunc("GET /v1/movies/upcoming", h.listing.ByStatus("upcoming"))
	mux.HandleFunc("GET /v1/movies/in-theaters", h.listing.ByStatus("in-theaters"))
	mux.HandleFunc("GET /v1/movies/released", h.listing.ByStatus("released"))
	mux.HandleFunc("GET /v1/movies/genre/{value}", h.listing.ByDimension(domain.DimGenre))
	mux.HandleFunc("GET /v1/movies/decade/{value}", h.listing.ByDimension(domain.DimDecade))
	mux.HandleFunc("GET /v1/movies/country/{value}", h.listing.ByDimension(domain.DimCountry))

	// ручные порядки (только чтение)
	mux.HandleFunc("GET /v1/movie-ordering/all", h.ordering.All)
	mux.HandleFunc("GET /v1/movie-ordering/{type}", h.ordering.ByType)

	// отчёты прогрева
	mux.HandleFunc("GET /v1/warmup/reports/latest", h.warmup.LatestReport)

	// swagger
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// 🔗 middleware
	return mw.WithRequestID(mw.Logging(logger)(mux))
}
