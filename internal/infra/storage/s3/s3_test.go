package s3

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReportKey(t *testing.T) {
	at := time.Date(2024, 3, 9, 4, 5, 6, 0, time.FixedZone("BRT", -3*3600))
	key := ReportKey("warmup-reports", at, "3f1c/..x")
	assert.Equal(t, "warmup-reports/2024/03/09/20240309T070506Z-3f1c___x.json", key)
}

func TestReportKey_SortsByTime(t *testing.T) {
	a := ReportKey("r", time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), "zzz")
	b := ReportKey("r", time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC), "aaa")
	assert.Less(t, a, b)
}
