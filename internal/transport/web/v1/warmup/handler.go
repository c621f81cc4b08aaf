package warmup

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/logx"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/mw"
	v1 "github.com/Chimarrao/GuiaDeFilmes.com/internal/transport/web/v1"
)

type Archive interface {
	Latest(ctx context.Context, prefix string) ([]byte, string, error)
}

type Handler struct {
	Log *log.Logger
	// nil — архив не настроен
	Archive Archive
	Prefix  string
}

type latestOut struct {
	Key    string          `json:"key"`
	Report json.RawMessage `json:"report"`
}

// LatestReport godoc
// @Summary     Last archived warmup report
// @Tags        warmup
// @Produce     json
// @Success     200 {object} domain.APIEnvelope{data=object}
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/warmup/reports/latest [get]
func (h *Handler) LatestReport(w http.ResponseWriter, r *http.Request) {
	const op = "warmup.latest_report"
	reqID := mw.RequestIDFromCtx(r.Context())

	if h.Archive == nil {
		v1.WriteDomainError(w, r, domain.ErrNotFound)
		return
	}
	body, key, err := h.Archive.Latest(r.Context(), h.Prefix)
	if err != nil {
		logx.Error(h.Log, reqID, op, "archive read failed", err, "prefix", h.Prefix)
		v1.WriteDomainError(w, r, err)
		return
	}
	if !json.Valid(body) {
		logx.Error(h.Log, reqID, op, "archived report is not json", domain.ErrUnexpected, "key", key)
		v1.WriteDomainError(w, r, domain.ErrUnexpected)
		return
	}
	logx.Info(h.Log, reqID, op, "ok", "key", key, "bytes", len(body))
	v1.WriteOKData(w, r, latestOut{Key: key, Report: body})
}
