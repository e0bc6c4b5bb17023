package main

import (
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/sdibella/chart-analyzer/internal/analyzer"
	"github.com/sdibella/chart-analyzer/internal/api"
	"github.com/sdibella/chart-analyzer/internal/browser"
	"github.com/sdibella/chart-analyzer/internal/config"
	"github.com/sdibella/chart-analyzer/internal/dashboard"
	"github.com/sdibella/chart-analyzer/internal/live"
	"github.com/sdibella/chart-analyzer/internal/trace"
)

// maxUpload bounds the multipart body accepted by POST /analyzer.
const maxUpload = 20 << 20

// server is the viewer: one browser tab shared by every request. Each page
// load builds a fresh page controller bound to that tab.
type server struct {
	client    *api.Client
	templates *template.Template
	hub       *live.Hub
	opts      analyzer.Options

	// mu serializes page work on the tab.
	mu   sync.Mutex
	tab  *browser.Tab
	dash *dashboard.Controller
}

func newServer(client *api.Client, templates *template.Template, hub *live.Hub, cfg *config.Config, tracer trace.Tracer) *server {
	return &server{
		client:    client,
		templates: templates,
		hub:       hub,
		opts: analyzer.Options{
			TradingStyle: cfg.TradingStyle,
			RiskProfile:  cfg.RiskProfile,
			AssetType:    cfg.AssetType,
			Tracer:       tracer,
		},
		tab: browser.NewTab(""),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/filter", s.handleFilter)
	mux.HandleFunc("/open", s.handleOpen)
	mux.HandleFunc("/analyzer", s.handleAnalyzer)
	mux.HandleFunc("/breakdown", s.handleBreakdown)
	mux.HandleFunc("/export.csv", s.handleExport)
	mux.HandleFunc("/outcome", s.handleOutcome)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)
	mux.HandleFunc("/reload", s.handleReload)
	mux.Handle("/live", s.hub)
	return mux
}

// dashboardPage is what dashboard.html renders.
type dashboardPage struct {
	State dashboard.State
	Error string
}

// analyzerPage is what analyzer.html renders.
type analyzerPage struct {
	State   analyzer.State
	Preview *analyzer.Preview
}

// pageView records what the analyzer controller drew during one request.
// The error dismiss timer may still render into it after the response is
// written.
type pageView struct {
	mu      sync.Mutex
	state   analyzer.State
	preview *analyzer.Preview
}

func (v *pageView) Render(st analyzer.State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = st
}

func (v *pageView) ShowPreview(p analyzer.Preview) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.preview = &p
}

func (v *pageView) Scroll(analyzer.ScrollTarget) {}

func (v *pageView) page() analyzerPage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return analyzerPage{State: v.state, Preview: v.preview}
}

func (s *server) newDashboard() *dashboard.Controller {
	return dashboard.NewController(s.client, s.tab, dashboard.Options{Tracer: s.opts.Tracer})
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != browser.DashboardPath {
		http.NotFound(w, r)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tab.Location.Navigate(browser.DashboardPath)
	s.dash = s.newDashboard()
	s.dash.Load(r.Context())
	s.showDashboard(w, r, "")
}

func (s *server) handleFilter(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dash == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	category := r.URL.Query().Get("category")
	if category == "" {
		category = dashboard.FilterAll
	}
	s.dash.Filter(r.Context(), category)
	s.showDashboard(w, r, "")
}

func (s *server) handleOpen(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid analysis id", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dash == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.dash.Open(r.Context(), id)
	if s.tab.Location.Path() != browser.AnalyzerPath {
		s.showDashboard(w, r, "Failed to load analysis details. Please try again.")
		return
	}
	http.Redirect(w, r, s.tab.Location.Current(), http.StatusSeeOther)
}

// showDashboard renders the dashboard unless the page navigated away.
func (s *server) showDashboard(w http.ResponseWriter, r *http.Request, errMsg string) {
	st := s.dash.View()
	if st.Halted {
		http.Redirect(w, r, st.Left, http.StatusSeeOther)
		return
	}
	s.execute(w, "dashboard.html", dashboardPage{State: st, Error: errMsg})
}

func (s *server) handleAnalyzer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tab.Location.Navigate(r.URL.RequestURI())
	s.dash = nil
	view := &pageView{}
	ctl := analyzer.NewController(s.client, view, s.opts)

	switch r.Method {
	case http.MethodGet:
		ctl.LoadStoredView(r.Context(), s.tab)
	case http.MethodPost:
		f, err := uploadedFile(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ctl.Select(r.Context(), f)
		if ctl.State().AnalyzeEnabled {
			ctl.Analyze(r.Context())
		}
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.execute(w, "analyzer.html", view.page())
}

// uploadedFile reads the "chart" form field into memory.
func uploadedFile(w http.ResponseWriter, r *http.Request) (analyzer.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	part, header, err := r.FormFile(api.FieldChart)
	if err != nil {
		return analyzer.File{}, err
	}
	defer part.Close()
	data, err := io.ReadAll(part)
	if err != nil {
		return analyzer.File{}, err
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return analyzer.NewFile(header.Filename, mimeType, data), nil
}

func (s *server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dash == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.execute(w, "breakdown.html", dashboard.ComputeBreakdown(s.dash.View().Snapshot))
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dash == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="history.csv"`)
	if err := dashboard.WriteCSV(w, s.dash.View().Cards); err != nil {
		slog.Error("csv export failed", "err", err)
	}
}

func (s *server) handleOutcome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid analysis id", http.StatusBadRequest)
		return
	}
	if err := s.client.UpdateOutcome(r.Context(), id, r.FormValue("outcome"), r.FormValue("notes")); err != nil {
		slog.Error("outcome update failed", "id", id, "err", err)
		http.Error(w, api.Message(err, "Failed to update outcome"), http.StatusBadGateway)
		return
	}
	s.hub.Notify("dashboard")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type loginPage struct {
	Username string
	Error    string
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.execute(w, "login.html", loginPage{})
		return
	}
	user := r.FormValue("username")
	_, err := s.client.Login(r.Context(), user, r.FormValue("password"), r.FormValue("remember") != "")
	if err != nil {
		slog.Warn("login failed", "user", user, "err", err)
		w.WriteHeader(http.StatusUnauthorized)
		s.execute(w, "login.html", loginPage{Username: user, Error: api.Message(err, "Login failed. Please try again.")})
		return
	}
	slog.Info("signed in", "user", user)
	s.hub.Notify("dashboard")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.dash
	if d == nil {
		s.tab.Location.Navigate(browser.DashboardPath)
		d = s.newDashboard()
	}
	d.Logout(r.Context())
	s.dash = nil
	s.hub.Notify("dashboard")
	http.Redirect(w, r, s.tab.Location.Current(), http.StatusSeeOther)
}

// handleReload tells every open page to reload itself.
func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.hub.Notify("dashboard")
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) execute(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("failed to render template", "template", name, "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}
