package ordering

import (
	"log"
	"net/http"
	"strings"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/logx"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/mw"
	v1 "github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/v1"
)

// Handler — только чтение ручных порядков; пишет их внешний клиент куратора.
type Handler struct {
	Log       *log.Logger
	Orderings domain.OrderingStore
}

// All godoc
// @Summary     Curated orderings for every status
// @Tags        ordering
// @Produce     json
// @Success     200 {object} domain.APIEnvelope{data=domain.OrderingRecord}
// @Router      /v1/movie-ordering/all [get]
func (h *Handler) All(w http.ResponseWriter, r *http.Request) {
	const op = "ordering.all"
	reqID := mw.RequestIDFromCtx(r.Context())

	rec, err := h.Orderings.OrderingRecord(r.Context())
	if err != nil {
		logx.Error(h.Log, reqID, op, "read failed", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	logx.Info(h.Log, reqID, op, "ok",
		"upcoming", len(rec.Upcoming), "in_theaters", len(rec.InTheaters), "released", len(rec.Released))
	v1.WriteOKData(w, r, rec)
}

// ByType godoc
// @Summary     Curated ordering for one status
// @Tags        ordering
// @Produce     json
// @Param       type path string true "upcoming | in-theaters | released"
// @Success     200 {object} domain.APIEnvelope{data=[]domain.OrderingItem}
// @Failure     400 {object} domain.APIEnvelope
// @Router      /v1/movie-ordering/{type} [get]
func (h *Handler) ByType(w http.ResponseWriter, r *http.Request) {
	const op = "ordering.by_type"
	reqID := mw.RequestIDFromCtx(r.Context())

	status, err := domain.ParseStatus(strings.ReplaceAll(r.PathValue("type"), "-", "_"))
	if err != nil {
		v1.WriteDomainError(w, r, err)
		return
	}
	items, err := h.Orderings.Ordering(r.Context(), status)
	if err != nil {
		logx.Error(h.Log, reqID, op, "read failed", err, "status", status)
		v1.WriteDomainError(w, r, err)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "status", status, "items", len(items))
	v1.WriteOKData(w, r, items)
}
