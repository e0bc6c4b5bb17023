package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sdibella/chart-analyzer/internal/api"
	"github.com/sdibella/chart-analyzer/internal/config"
	"github.com/sdibella/chart-analyzer/internal/trace"
)

const usage = `usage: chartctl [-debug] [-trace FILE] <command> [args]

commands:
  analyze FILE                    upload a chart and print the analysis
  dashboard [-filter CAT] [-breakdown] [-csv FILE]
                                  print stats and history
  view ID                         print a stored analysis
  outcome ID win|loss|pending [NOTES]
                                  record how a trade ended
  health                          check the backend
  trace [-page PAGE] FILE         summarize a trace file
  viewer                          start the HTML dashboard viewer
  shell                           interactive session
`

// app carries what every command needs.
type app struct {
	cfg    *config.Config
	client *api.Client
	tracer trace.Tracer
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	tracePath := flag.String("trace", "", "append dispatched events and effects to this JSONL file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	// Logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	// trace reads files only; it needs no backend.
	if cmd == "trace" {
		if err := runTrace(args); err != nil {
			slog.Error("trace failed", "err", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}
	if *tracePath != "" {
		cfg.TracePath = *tracePath
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		slog.Error("api client init failed", "err", err)
		os.Exit(1)
	}

	a := &app{cfg: cfg, client: client, tracer: trace.Nop{}}
	if cfg.TracePath != "" {
		j, err := trace.Open(cfg.TracePath)
		if err != nil {
			slog.Error("trace init failed", "err", err)
			os.Exit(1)
		}
		defer j.Close()
		a.tracer = j
		slog.Debug("trace opened", "path", cfg.TracePath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Debug("chartctl starting", "api", cfg.APIURL, "command", cmd)

	switch cmd {
	case "analyze", "dashboard", "view", "outcome":
		if err := a.signIn(ctx); err != nil {
			slog.Error("sign in failed", "err", err)
			os.Exit(1)
		}
	}

	switch cmd {
	case "analyze":
		err = a.runAnalyze(ctx, args)
	case "dashboard":
		err = a.runDashboard(ctx, args)
	case "view":
		err = a.runView(ctx, args)
	case "outcome":
		err = a.runOutcome(ctx, args)
	case "health":
		err = a.runHealth(ctx)
	case "viewer":
		err = runViewer(ctx)
	case "shell":
		err = newShell(a, os.Stdout).run(ctx, os.Stdin)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error(cmd+" failed", "err", err)
		os.Exit(1)
	}
}
