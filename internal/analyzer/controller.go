package analyzer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sdibella/chart-analyzer/internal/api"
	"github.com/sdibella/chart-analyzer/internal/browser"
	"github.com/sdibella/chart-analyzer/internal/trace"
)

// Client is the part of api.Client the upload page needs.
type Client interface {
	Analyze(ctx context.Context, up api.Upload) (api.AnalysisDetail, error)
}

// ScrollTarget names where the page scrolls to.
type ScrollTarget int

const (
	ScrollTop ScrollTarget = iota
	ScrollResults
)

// View draws the page.
type View interface {
	Render(State)
	ShowPreview(Preview)
	Scroll(ScrollTarget)
}

// Timer is the handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

type Options struct {
	// Form fields sent with every upload; empty values are omitted.
	TradingStyle string
	RiskProfile  string
	AssetType    string

	Clock  Clock
	Tracer trace.Tracer
}

// Controller runs the upload page: it feeds events through Update and
// carries out the resulting effects.
type Controller struct {
	client Client
	view   View
	opts   Options

	mu      sync.Mutex
	state   State
	dismiss Timer
}

func NewController(client Client, view View, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop{}
	}
	return &Controller{client: client, view: view, opts: opts}
}

// State returns a copy of the current page state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies ev and runs its effects. Effects run outside the lock so
// a timer firing during a slow upload is not blocked.
func (c *Controller) Dispatch(ctx context.Context, ev Event) {
	c.opts.Tracer.Record("analyzer", "event", ev)

	c.mu.Lock()
	next, effects := Update(c.state, ev)
	c.state = next
	c.mu.Unlock()

	c.view.Render(next)
	for _, eff := range effects {
		c.opts.Tracer.Record("analyzer", "effect", eff)
		c.run(ctx, eff)
	}
}

func (c *Controller) Select(ctx context.Context, f File) { c.Dispatch(ctx, FileChosen{File: f}) }
func (c *Controller) Analyze(ctx context.Context)        { c.Dispatch(ctx, AnalyzeClicked{}) }
func (c *Controller) Reset(ctx context.Context)          { c.Dispatch(ctx, ResetClicked{}) }

// LoadStoredView shows the analysis the dashboard left in session storage
// when the tab is on /analyzer?view={id}. It reports whether one was shown.
func (c *Controller) LoadStoredView(ctx context.Context, tab *browser.Tab) bool {
	u, err := url.Parse(tab.Location.Current())
	if err != nil || u.Path != browser.AnalyzerPath {
		return false
	}
	viewID := u.Query().Get("view")
	if viewID == "" {
		return false
	}
	raw, ok := tab.Storage.Get(browser.ViewAnalysisKey)
	if !ok {
		slog.Warn("analyzer view requested but nothing stored", "view", viewID)
		return false
	}

	var d api.AnalysisDetail
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		slog.Error("stored analysis unreadable", "view", viewID, "err", err)
		return false
	}
	if strconv.FormatInt(d.Key(), 10) != viewID {
		slog.Warn("stored analysis does not match view", "view", viewID, "stored", d.Key())
		return false
	}

	c.Dispatch(ctx, ViewStored{Detail: d})
	return true
}

func (c *Controller) run(ctx context.Context, eff Effect) {
	switch e := eff.(type) {
	case ShowPreview:
		p, err := DecodePreview(e.File)
		if err != nil {
			slog.Warn("preview header unreadable", "file", e.File.Name, "err", err)
		}
		c.view.ShowPreview(p)

	case SubmitAnalysis:
		c.Dispatch(ctx, c.submit(ctx, e.Gen, e.File))

	case ScrollToResults:
		c.view.Scroll(ScrollResults)

	case ScrollToTop:
		c.view.Scroll(ScrollTop)

	case ScheduleDismiss:
		gen := e.Gen
		t := c.opts.Clock.AfterFunc(e.After, func() {
			c.Dispatch(context.Background(), ErrorExpired{Gen: gen})
		})
		c.mu.Lock()
		if c.dismiss != nil {
			c.dismiss.Stop()
		}
		c.dismiss = t
		c.mu.Unlock()
	}
}

func (c *Controller) submit(ctx context.Context, gen uint64, f File) Event {
	body, err := f.Open()
	if err != nil {
		slog.Error("reading upload", "file", f.Name, "err", err)
		return AnalyzeFailed{Gen: gen}
	}
	defer body.Close()

	d, err := c.client.Analyze(ctx, api.Upload{
		Filename:     f.Name,
		ContentType:  f.Type,
		Body:         body,
		TradingStyle: c.opts.TradingStyle,
		RiskProfile:  c.opts.RiskProfile,
		AssetType:    c.opts.AssetType,
	})
	if err != nil {
		slog.Error("analysis failed", "file", f.Name, "err", err)
		return FailureFrom(gen, err)
	}
	slog.Info("analysis complete", "file", f.Name, "analysis_id", d.Key(), "confidence", d.ConfidenceScore.String())
	return AnalyzeSucceeded{Gen: gen, Detail: d}
}
