package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/Chimarrao/GuiaDeFilmes.com/internal/app"
	"github.com/Chimarrao/GuiaDeFilmes.com/internal/listing"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	exitSuccess = 0
	exitSetup   = 2
)

// CLI: HTTP-сервис и операторский прогрев.
type CLI struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`
	Serve   ServeCmd         `cmd:"" help:"Serve the listings HTTP API."`
	Warmup  WarmupCmd        `cmd:"" help:"Run one warmup -> swap -> cleanup cycle and print the report."`
}

type ServeCmd struct{}

func (c *ServeCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, os.Stderr)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return a.Run(ctx)
}

// WarmupCmd запускается по расписанию (cron). Ошибки отдельных измерений
// попадают в отчёт, код выхода остаётся нулевым.
type WarmupCmd struct {
	Format  string `help:"Report format." enum:"text,json,yaml" default:"text"`
	Archive bool   `help:"Upload the report to the S3 archive." default:"false"`
	NoColor bool   `help:"Plain text even if stdout is a TTY." default:"false"`
}

func (c *WarmupCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, os.Stderr)
	if err != nil {
		return fmt.Errorf("warmup: %w", err)
	}
	defer a.Close()

	res := a.Warmup(ctx, c.Archive)
	styled := !c.NoColor && (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
	if err := renderResult(os.Stdout, c.Format, res, styled); err != nil {
		return fmt.Errorf("warmup: render: %w", err)
	}
	return nil
}

type archiveOut struct {
	Key   string `json:"key,omitempty" yaml:"key,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

type resultOut struct {
	Report  *listing.RunReport `json:"report" yaml:"report"`
	Archive *archiveOut        `json:"archive,omitempty" yaml:"archive,omitempty"`
}

func toOut(res app.WarmupResult) resultOut {
	out := resultOut{Report: res.Report}
	if res.ArchiveKey != "" || res.ArchiveError != nil {
		out.Archive = &archiveOut{Key: res.ArchiveKey}
		if res.ArchiveError != nil {
			out.Archive.Error = res.ArchiveError.Error()
		}
	}
	return out
}

func renderResult(w io.Writer, format string, res app.WarmupResult, styled bool) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toOut(res))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toOut(res)); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		st := plainStyles()
		if styled {
			st = colorStyles()
		}
		_, err := io.WriteString(w, renderText(res, st))
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}

type textStyles struct {
	title lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	fail  lipgloss.Style
	dim   lipgloss.Style
}

func plainStyles() textStyles {
	s := lipgloss.NewStyle()
	return textStyles{title: s, ok: s, warn: s, fail: s, dim: s}
}

func colorStyles() textStyles {
	return textStyles{
		title: lipgloss.NewStyle().Bold(true),
		ok:    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "2", Dark: "10"}),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "3", Dark: "11"}),
		fail:  lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "1", Dark: "9"}),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"}),
	}
}

func renderText(res app.WarmupResult, st textStyles) string {
	r := res.Report
	var b strings.Builder

	status := st.ok.Render("clean")
	if !r.Clean() {
		status = st.warn.Render("with errors")
	}
	fmt.Fprintf(&b, "%s %s (%s)\n", st.title.Render("warmup run"), r.RunID, status)
	fmt.Fprintf(&b, "  duration: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(&b, "  staged: %d (%d bytes)  failed: %d  promoted: %d  skipped: %d  promotion failed: %d\n",
		r.Summary.Staged, r.Summary.StagedBytes, r.Summary.Failed,
		r.Summary.Promoted, r.Summary.Skipped, r.Summary.PromotionFailed)
	atomic := "sequential"
	if r.AtomicPromotion {
		atomic = "atomic"
	}
	fmt.Fprintf(&b, "  promotion: %s  swept orphans: %d\n", atomic, r.SweptOrphans)

	if len(r.Staged) > 0 {
		fmt.Fprintf(&b, "\n%s\n", st.title.Render("staged entries"))
		for _, it := range r.Staged {
			fmt.Fprintf(&b, "  %-40s %-10s %8d B %6d items %s\n",
				it.Key, it.Kind, it.Bytes, it.Items, st.dim.Render(it.Category))
		}
	}
	if len(r.Failures) > 0 {
		fmt.Fprintf(&b, "\n%s\n", st.fail.Render("failed dimensions"))
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "  %s: %s\n", f.Key, f.Error)
		}
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "\n%s\n", st.warn.Render("kept previous value"))
		for _, k := range r.Skipped {
			fmt.Fprintf(&b, "  %s\n", k)
		}
	}
	if len(r.PromotionFailures) > 0 {
		fmt.Fprintf(&b, "\n%s\n", st.fail.Render("promotion failures"))
		for _, f := range r.PromotionFailures {
			fmt.Fprintf(&b, "  %s: %s\n", f.Key, f.Error)
		}
	}
	if r.SweepError != "" {
		fmt.Fprintf(&b, "\n%s %s\n", st.fail.Render("sweep error:"), r.SweepError)
	}
	if r.CleanupError != "" {
		fmt.Fprintf(&b, "\n%s %s\n", st.fail.Render("cleanup error:"), r.CleanupError)
	}

	switch {
	case res.ArchiveError != nil:
		fmt.Fprintf(&b, "\n%s %v\n", st.fail.Render("archive failed:"), res.ArchiveError)
	case res.ArchiveKey != "":
		fmt.Fprintf(&b, "\n%s %s\n", st.ok.Render("archived:"), res.ArchiveKey)
	}
	return b.String()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("listings"),
		kong.Description("GuiaDeFilmes precomputed movie listings."),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitSetup)
	}
	os.Exit(exitSuccess)
}
