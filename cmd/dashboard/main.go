package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sdibella/chart-analyzer/internal/api"
	"github.com/sdibella/chart-analyzer/internal/config"
	"github.com/sdibella/chart-analyzer/internal/dashboard"
	"github.com/sdibella/chart-analyzer/internal/live"
	"github.com/sdibella/chart-analyzer/internal/render"
	"github.com/sdibella/chart-analyzer/internal/trace"
)

//go:embed web/templates/*
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"toupper": strings.ToUpper,
		"bytes":   render.Bytes,
		"pct":     func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
		"list":    func(items ...string) []string { return items },
		"one":     func(g dashboard.GroupStats) []dashboard.GroupStats { return []dashboard.GroupStats{g} },
	}
	return template.New("").Funcs(funcMap).ParseFS(templateFS, "web/templates/*.html")
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		slog.Error("api client init failed", "err", err)
		os.Exit(1)
	}

	templates, err := parseTemplates()
	if err != nil {
		slog.Error("failed to parse templates", "err", err)
		os.Exit(1)
	}

	var tracer trace.Tracer = trace.Nop{}
	if cfg.TracePath != "" {
		j, err := trace.Open(cfg.TracePath)
		if err != nil {
			slog.Error("trace init failed", "err", err)
			os.Exit(1)
		}
		defer j.Close()
		tracer = j
	}

	srv := newServer(client, templates, live.NewHub(), cfg, tracer)

	addr := fmt.Sprintf("%s:%d", cfg.DashboardHost, cfg.DashboardPort)
	server := &http.Server{
		Addr:    addr,
		Handler: srv.routes(),
	}

	go func() {
		slog.Info("chart dashboard starting", "url", "http://"+addr, "api", cfg.APIURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("server exited")
}
