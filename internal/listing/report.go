package listing

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
)

// RunReport описывает итог одного цикла warmup → swap → cleanup.
// Ошибки измерений остаются в отчёте и не влияют на код возврата.
type RunReport struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	Summary ReportSummary `json:"summary" yaml:"summary"`

	Staged            []StagedItem       `json:"staged" yaml:"staged"`
	Failures          []DimensionFailure `json:"failures" yaml:"failures"`
	Promoted          []string           `json:"promoted" yaml:"promoted"`
	Skipped           []string           `json:"skipped" yaml:"skipped"`
	PromotionFailures []PromotionFailure `json:"promotion_failures" yaml:"promotion_failures"`
	AtomicPromotion   bool               `json:"atomic_promotion" yaml:"atomic_promotion"`
	SweptOrphans      int                `json:"swept_orphans" yaml:"swept_orphans"`
	SweepError        string             `json:"sweep_error,omitempty" yaml:"sweep_error,omitempty"`
	CleanupError      string             `json:"cleanup_error,omitempty" yaml:"cleanup_error,omitempty"`
}

type ReportSummary struct {
	Staged          int `json:"staged" yaml:"staged"`
	StagedBytes     int `json:"staged_bytes" yaml:"staged_bytes"`
	Failed          int `json:"failed" yaml:"failed"`
	Promoted        int `json:"promoted" yaml:"promoted"`
	Skipped         int `json:"skipped" yaml:"skipped"`
	PromotionFailed int `json:"promotion_failed" yaml:"promotion_failed"`
}

// StagedItem: строка отчёта о размерах.
type StagedItem struct {
	Category string             `json:"category" yaml:"category"`
	Key      string             `json:"key" yaml:"key"`
	Kind     domain.PayloadKind `json:"kind" yaml:"kind"`
	Bytes    int                `json:"bytes" yaml:"bytes"`
	Items    int                `json:"items" yaml:"items"`
}

// DimensionFailure — исходный запрос или staging-запись измерения не удались.
type DimensionFailure struct {
	Category string `json:"category" yaml:"category"`
	Key      string `json:"key" yaml:"key"`
	Error    string `json:"error" yaml:"error"`
}

type PromotionFailure struct {
	Key   string `json:"key" yaml:"key"`
	Error string `json:"error" yaml:"error"`
}

func newRunReport() *RunReport {
	return &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Staged:    make([]StagedItem, 0, 128),
	}
}

func (r *RunReport) addStaged(it StagedItem) { r.Staged = append(r.Staged, it) }

func (r *RunReport) addFailure(category, key string, err error) {
	r.Failures = append(r.Failures, DimensionFailure{Category: category, Key: key, Error: err.Error()})
}

// StagedKeys — все ключи прогона, включая упавшие: у них staging пуст,
// и Swapper оставит прежний final.
func (r *RunReport) StagedKeys() []StagedKey {
	out := make([]StagedKey, 0, len(r.Staged)+len(r.Failures))
	seen := make(map[string]struct{}, cap(out))
	add := func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, StagedKey{Final: key, Staging: domain.StagingKey(key)})
	}
	for _, it := range r.Staged {
		add(it.Key)
	}
	for _, f := range r.Failures {
		add(f.Key)
	}
	return out
}

func (r *RunReport) applySwap(res SwapResult) {
	r.Promoted = res.Promoted
	r.Skipped = res.Skipped
	r.PromotionFailures = res.Failed
	r.AtomicPromotion = res.Atomic
	r.CleanupError = res.CleanupError
}

// Finalize: время в UTC, стабильный порядок строк, summary считается из строк.
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Staged, func(i, j int) bool { return r.Staged[i].Key < r.Staged[j].Key })
	sort.SliceStable(r.Failures, func(i, j int) bool { return r.Failures[i].Key < r.Failures[j].Key })
	sort.Strings(r.Promoted)
	sort.Strings(r.Skipped)
	sort.SliceStable(r.PromotionFailures, func(i, j int) bool {
		return r.PromotionFailures[i].Key < r.PromotionFailures[j].Key
	})

	var s ReportSummary
	for _, it := range r.Staged {
		s.Staged++
		s.StagedBytes += it.Bytes
	}
	s.Failed = len(r.Failures)
	s.Promoted = len(r.Promoted)
	s.Skipped = len(r.Skipped)
	s.PromotionFailed = len(r.PromotionFailures)
	r.Summary = s
}

// Clean сообщает, что ни на одном этапе не было ошибок.
func (r *RunReport) Clean() bool {
	return len(r.Failures) == 0 && len(r.PromotionFailures) == 0 &&
		r.CleanupError == "" && r.SweepError == ""
}
