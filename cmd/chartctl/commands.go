package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/sdibella/chart-analyzer/internal/analyzer"
	"github.com/sdibella/chart-analyzer/internal/browser"
	"github.com/sdibella/chart-analyzer/internal/dashboard"
	"github.com/sdibella/chart-analyzer/internal/render"
	"github.com/sdibella/chart-analyzer/internal/trace"
)

func (a *app) analyzerOptions() analyzer.Options {
	return analyzer.Options{
		TradingStyle: a.cfg.TradingStyle,
		RiskProfile:  a.cfg.RiskProfile,
		AssetType:    a.cfg.AssetType,
		Tracer:       a.tracer,
	}
}

func (a *app) runAnalyze(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: analyze FILE")
	}
	f, err := analyzer.OpenFile(args[0])
	if err != nil {
		return err
	}

	view := newTermView(os.Stdout)
	ctl := analyzer.NewController(a.client, view, a.analyzerOptions())
	ctl.Select(ctx, f)
	ctl.Analyze(ctx)

	if msg := view.Error(); msg != "" {
		return errors.New(msg)
	}
	return nil
}

func (a *app) runDashboard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	filter := fs.String("filter", dashboard.FilterAll, "outcome category: all, win, loss or pending")
	breakdown := fs.Bool("breakdown", false, "print win rate and confidence by direction and confidence bucket")
	csvPath := fs.String("csv", "", "write the visible history cards to this CSV file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tab := browser.NewTab(browser.DashboardPath)
	ctl := dashboard.NewController(a.client, tab, dashboard.Options{Tracer: a.tracer})
	ctl.Load(ctx)
	if *filter != dashboard.FilterAll {
		ctl.Filter(ctx, *filter)
	}

	s := ctl.View()
	if s.Halted {
		return fmt.Errorf("not signed in: the dashboard sent you to %s (set CHART_SESSION_COOKIE or CHART_USERNAME/CHART_PASSWORD, or use shell and login)", s.Left)
	}
	if err := render.Dashboard(os.Stdout, s); err != nil {
		return err
	}
	if *breakdown {
		fmt.Println()
		if err := render.Breakdown(os.Stdout, dashboard.ComputeBreakdown(s.Snapshot)); err != nil {
			return err
		}
	}
	if *csvPath != "" {
		return writeCSV(*csvPath, s.Cards)
	}
	return nil
}

func writeCSV(path string, cards []dashboard.Card) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dashboard.WriteCSV(f, cards); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("history exported", "path", path, "cards", len(cards))
	return nil
}

// runView follows the dashboard hand-off: fetch the detail, store it in the
// tab, then let the analyzer page render it from storage.
func (a *app) runView(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: view ID")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("analysis id %q: %w", args[0], err)
	}

	tab := browser.NewTab(browser.DashboardPath)
	dash := dashboard.NewController(a.client, tab, dashboard.Options{Tracer: a.tracer})
	dash.Open(ctx, id)

	if tab.Location.Path() != browser.AnalyzerPath {
		return fmt.Errorf("analysis %d could not be loaded", id)
	}
	ctl := analyzer.NewController(a.client, newTermView(os.Stdout), a.analyzerOptions())
	if !ctl.LoadStoredView(ctx, tab) {
		return fmt.Errorf("analysis %d could not be shown", id)
	}
	return nil
}

func (a *app) runOutcome(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: outcome ID win|loss|pending [NOTES]")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("analysis id %q: %w", args[0], err)
	}
	notes := strings.Join(args[2:], " ")
	if err := a.client.UpdateOutcome(ctx, id, args[1], notes); err != nil {
		return err
	}
	fmt.Printf("analysis %d marked %s\n", id, args[1])
	return nil
}

func (a *app) runHealth(ctx context.Context) error {
	status, err := a.client.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Println(status)
	return nil
}

func runTrace(args []string) error {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	page := fs.String("page", "", "only entries for this page (analyzer or dashboard)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: trace [-page PAGE] FILE")
	}

	entries, err := trace.ReadFile(fs.Arg(0), *page)
	if err != nil {
		return err
	}
	fmt.Printf("%d entries\n", len(entries))
	return render.Trace(os.Stdout, trace.Tally(entries))
}

// runViewer starts the dashboard viewer binary installed next to chartctl
// and waits for it, forwarding shutdown.
func runViewer(ctx context.Context) error {
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	viewerBinary := filepath.Join(filepath.Dir(exePath), "chart-dashboard")
	if _, err := os.Stat(viewerBinary); err != nil {
		return fmt.Errorf("viewer binary not found at %s: %w", viewerBinary, err)
	}

	cmd := exec.Command(viewerBinary)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start viewer: %w", err)
	}
	slog.Info("viewer started", "pid", cmd.Process.Pid)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cmd.Process.Signal(syscall.SIGTERM)
		<-done
		return nil
	}
}

// signIn logs in with configured credentials when no session cookie was
// given. Without either, requests go out unauthenticated.
func (a *app) signIn(ctx context.Context) error {
	if a.cfg.SessionCookie != "" || a.cfg.Username == "" {
		return nil
	}
	u, err := a.client.Login(ctx, a.cfg.Username, a.cfg.Password, a.cfg.Remember)
	if err != nil {
		return fmt.Errorf("login as %s: %w", a.cfg.Username, err)
	}
	slog.Info("signed in", "user", u.Username, "premium", u.IsPremium)
	return nil
}
