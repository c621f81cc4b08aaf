package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/app"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/domain"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/listing"
)

var errExitCalled = errors.New("exit called")

func sampleResult() app.WarmupResult {
	start := time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC)
	rep := &listing.RunReport{
		RunID:      "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Staged: []listing.StagedItem{
			{Category: "upcoming", Key: "upcoming_ids_v2", Kind: domain.KindIDs, Bytes: 120, Items: 10},
		},
		Failures: []listing.DimensionFailure{
			{Category: "decade_1930s", Key: "decade_1930s_ids_v2", Error: "db down"},
		},
		Promoted:        []string{"upcoming_ids_v2"},
		Skipped:         []string{"decade_1930s_ids_v2"},
		AtomicPromotion: true,
	}
	rep.Finalize()
	return app.WarmupResult{Report: rep}
}

func TestCLI_Version(t *testing.T) {
	var cli CLI
	var buf bytes.Buffer
	k, err := kong.New(&cli,
		kong.Vars{"version": "v1.2.3 abc 2026-01-01"},
		kong.Writers(&buf, &buf),
		kong.Exit(func(int) { panic(errExitCalled) }),
	)
	require.NoError(t, err)

	assert.PanicsWithValue(t, errExitCalled, func() {
		_, _ = k.Parse([]string{"--version"})
	})
	assert.Contains(t, buf.String(), "v1.2.3 abc 2026-01-01")
}

func TestCLI_WarmupFlags(t *testing.T) {
	var cli CLI
	k, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)

	ctx, err := k.Parse([]string{"warmup", "--format", "yaml", "--archive"})
	require.NoError(t, err)
	assert.Equal(t, "warmup", ctx.Command())
	assert.Equal(t, "yaml", cli.Warmup.Format)
	assert.True(t, cli.Warmup.Archive)

	_, err = k.Parse([]string{"warmup", "--format", "xml"})
	assert.Error(t, err)
}

func TestRenderResult_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, "text", sampleResult(), false))

	out := buf.String()
	assert.Contains(t, out, "warmup run run-1 (with errors)")
	assert.Contains(t, out, "duration: 1.5s")
	assert.Contains(t, out, "staged: 1 (120 bytes)  failed: 1  promoted: 1  skipped: 1")
	assert.Contains(t, out, "promotion: atomic")
	assert.Contains(t, out, "decade_1930s_ids_v2: db down")
	assert.Contains(t, out, "kept previous value")
	assert.NotContains(t, out, "archived:")
}

func TestRenderResult_TextArchive(t *testing.T) {
	res := sampleResult()
	res.ArchiveKey = "reports/2026/03/01/x.json"

	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, "text", res, false))
	assert.Contains(t, buf.String(), "archived: reports/2026/03/01/x.json")

	res.ArchiveKey = ""
	res.ArchiveError = errors.New("bucket gone")
	buf.Reset()
	require.NoError(t, renderResult(&buf, "text", res, false))
	assert.Contains(t, buf.String(), "archive failed: bucket gone")
}

func TestRenderResult_JSON(t *testing.T) {
	res := sampleResult()
	res.ArchiveError = errors.New("bucket gone")

	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, "json", res, true))

	var got struct {
		Report struct {
			RunID   string `json:"run_id"`
			Summary struct {
				Staged  int `json:"staged"`
				Skipped int `json:"skipped"`
			} `json:"summary"`
		} `json:"report"`
		Archive *struct {
			Error string `json:"error"`
		} `json:"archive"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.Report.RunID)
	assert.Equal(t, 1, got.Report.Summary.Staged)
	assert.Equal(t, 1, got.Report.Summary.Skipped)
	require.NotNil(t, got.Archive)
	assert.Equal(t, "bucket gone", got.Archive.Error)
}

func TestRenderResult_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, "yaml", sampleResult(), false))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	rep, ok := got["report"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "run-1", rep["run_id"])
	assert.Equal(t, true, rep["atomic_promotion"])
	_, hasArchive := got["archive"]
	assert.False(t, hasArchive)
}

func TestRenderResult_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, renderResult(&buf, "xml", sampleResult(), false))
}
