package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sdibella/chart-analyzer/internal/api"
	"github.com/sdibella/chart-analyzer/internal/browser"
	"github.com/sdibella/chart-analyzer/internal/trace"
)

// Client is the part of api.Client the dashboard needs.
type Client interface {
	User(ctx context.Context) (api.User, error)
	Stats(ctx context.Context) (api.Stats, error)
	History(ctx context.Context, perPage int) ([]api.Analysis, error)
	Analysis(ctx context.Context, id int64) (api.AnalysisDetail, json.RawMessage, error)
	Logout(ctx context.Context) error
}

// View is told about every state change. It may be nil.
type View interface {
	Render(State)
}

type Options struct {
	Zone   *time.Location
	View   View
	Tracer trace.Tracer
}

// Controller is one dashboard page load bound to a browser tab.
type Controller struct {
	client Client
	tab    *browser.Tab
	opts   Options

	mu    sync.Mutex
	state State
}

func NewController(client Client, tab *browser.Tab, opts Options) *Controller {
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop{}
	}
	s := NewState()
	s.Zone = opts.Zone
	return &Controller{client: client, tab: tab, opts: opts, state: s}
}

// View returns a snapshot of the page for rendering.
func (c *Controller) View() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies ev and runs the resulting effects outside the lock.
func (c *Controller) Dispatch(ctx context.Context, ev Event) {
	c.opts.Tracer.Record("dashboard", "event", ev)

	c.mu.Lock()
	next, effects := Update(c.state, ev)
	c.state = next
	c.mu.Unlock()

	if c.opts.View != nil {
		c.opts.View.Render(next)
	}
	for _, eff := range effects {
		c.opts.Tracer.Record("dashboard", "effect", eff)
		c.run(ctx, eff)
	}
}

// Load runs the page-load sequence: user, then stats, then history.
func (c *Controller) Load(ctx context.Context) { c.Dispatch(ctx, PageLoaded{}) }

func (c *Controller) Filter(ctx context.Context, category string) {
	c.Dispatch(ctx, FilterSelected{Category: category})
}

// Open fetches one analysis and hands it to the analyzer page.
func (c *Controller) Open(ctx context.Context, id int64) { c.Dispatch(ctx, CardClicked{ID: id}) }

func (c *Controller) Logout(ctx context.Context) { c.Dispatch(ctx, LogoutClicked{}) }

func (c *Controller) run(ctx context.Context, eff Effect) {
	switch e := eff.(type) {
	case FetchUser:
		u, err := c.client.User(ctx)
		if err != nil {
			c.Dispatch(ctx, UserFailed{Err: err})
			return
		}
		c.Dispatch(ctx, UserLoaded{User: u})

	case FetchStats:
		c.Dispatch(ctx, c.fetchStats(ctx))

	case FetchHistory:
		items, err := c.client.History(ctx, e.PerPage)
		if err != nil {
			c.Dispatch(ctx, HistoryFailed{Err: err})
			return
		}
		c.Dispatch(ctx, HistoryLoaded{Items: items})

	case FetchDetail:
		_, raw, err := c.client.Analysis(ctx, e.ID)
		if err != nil {
			c.Dispatch(ctx, DetailFailed{ID: e.ID, Err: err})
			return
		}
		c.Dispatch(ctx, DetailLoaded{ID: e.ID, Raw: raw})

	case StoreSession:
		c.tab.Storage.Set(e.Key, e.Value)

	case Navigate:
		slog.Info("navigating", "from", c.tab.Location.Current(), "to", e.URL)
		c.tab.Location.Navigate(e.URL)

	case PostLogout:
		c.Dispatch(ctx, LogoutDone{Err: c.client.Logout(ctx)})

	case LogError:
		slog.Error(e.Op+" failed", "err", e.Err)
	}
}

// fetchStats joins /api/stats and /api/user; both must succeed.
func (c *Controller) fetchStats(ctx context.Context) Event {
	var (
		stats api.Stats
		user  api.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = c.client.Stats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = c.client.User(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return StatsFailed{Err: err}
	}
	return StatsLoaded{Stats: stats, User: user}
}
