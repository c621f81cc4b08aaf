package listing

import (
	"context"
	"time"
)

// Cycle выполняет операторскую команду целиком: warmup → swap → cleanup → отчёт.
type Cycle struct {
	Warmer  *Warmer
	Swapper *Swapper
}

func NewCycle(w *Warmer, s *Swapper) *Cycle {
	return &Cycle{Warmer: w, Swapper: s}
}

// Run никогда не возвращает ошибку: сбои измерений живут в отчёте.
func (c *Cycle) Run(ctx context.Context) *RunReport {
	swept, sweepErr := c.Swapper.SweepOrphans(ctx)

	rep := c.Warmer.Warm(ctx)
	rep.SweptOrphans = swept
	if sweepErr != nil {
		rep.SweepError = sweepErr.Error()
	}
	rep.applySwap(c.Swapper.Swap(ctx, rep.StagedKeys()))
	rep.FinishedAt = time.Now()
	rep.Finalize()
	return rep
}
