package web

import (
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/v1/listing"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/v1/warmup"
)

// Deps: всё, что HTTP-слою нужно от приложения.
type Deps struct {
	DB        domain.Pinger
	Cache     domain.Pinger
	Listings  listing.Resolver
	Orderings domain.OrderingStore

	// Архив отчётов прогрева; оба nil, если S3 не настроен.
	Storage       domain.Pinger
	Archive       warmup.Archive
	ArchivePrefix string
}
