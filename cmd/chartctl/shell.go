package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sdibella/chart-analyzer/internal/analyzer"
	"github.com/sdibella/chart-analyzer/internal/browser"
	"github.com/sdibella/chart-analyzer/internal/dashboard"
	"github.com/sdibella/chart-analyzer/internal/render"
)

const shellHelp = `commands:
  login [USER PASS]    sign in (defaults to CHART_USERNAME/CHART_PASSWORD)
  dashboard            load the dashboard page
  filter CAT           show all, win, loss or pending analyses
  open ID              open an analysis from the dashboard
  breakdown            win rate and confidence for the loaded history
  export FILE          write the visible history cards as CSV
  analyzer             go to the upload page
  select FILE          choose a chart image
  analyze              submit the chosen chart
  reset                clear the upload page
  logout               end the session
  where                current page and navigation history
  help, quit
`

// shell is one browser tab driven from a terminal. Each navigation starts
// a fresh page controller, the way a page load would.
type shell struct {
	app *app
	out io.Writer
	tab *browser.Tab

	dash *dashboard.Controller
	an   *analyzer.Controller
	view *termView
}

func newShell(a *app, out io.Writer) *shell {
	return &shell{app: a, out: out, tab: browser.NewTab("")}
}

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintf(sh.out, "chartctl shell on %s, type help for commands\n", sh.app.cfg.APIURL)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(sh.out, "%s> ", sh.page())
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			return scanner.Err()
		}
		quit, err := sh.exec(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

func (sh *shell) page() string {
	if p := sh.tab.Location.Path(); p != "" {
		return p
	}
	return "/"
}

// exec runs one command line and reports whether the shell should exit.
func (sh *shell) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprint(sh.out, shellHelp)
	case "login":
		return false, sh.login(ctx, args)
	case "dashboard":
		sh.loadDashboard(ctx)
	case "filter":
		if len(args) != 1 {
			return false, errors.New("usage: filter all|win|loss|pending")
		}
		d, err := sh.dashboardPage()
		if err != nil {
			return false, err
		}
		d.Filter(ctx, args[0])
		render.Dashboard(sh.out, d.View())
	case "open":
		return false, sh.open(ctx, args)
	case "breakdown":
		d, err := sh.dashboardPage()
		if err != nil {
			return false, err
		}
		return false, render.Breakdown(sh.out, dashboard.ComputeBreakdown(d.View().Snapshot))
	case "export":
		if len(args) != 1 {
			return false, errors.New("usage: export FILE")
		}
		d, err := sh.dashboardPage()
		if err != nil {
			return false, err
		}
		return false, writeCSV(args[0], d.View().Cards)
	case "analyzer":
		sh.navigate(browser.AnalyzerPath)
	case "select":
		if len(args) != 1 {
			return false, errors.New("usage: select FILE")
		}
		an, err := sh.analyzerPage()
		if err != nil {
			return false, err
		}
		f, err := analyzer.OpenFile(args[0])
		if err != nil {
			return false, err
		}
		an.Select(ctx, f)
	case "analyze":
		an, err := sh.analyzerPage()
		if err != nil {
			return false, err
		}
		if an.State().File == nil {
			return false, errors.New("no file selected")
		}
		an.Analyze(ctx)
	case "reset":
		an, err := sh.analyzerPage()
		if err != nil {
			return false, err
		}
		an.Reset(ctx)
	case "logout":
		d := sh.dash
		if d == nil || sh.tab.Location.Path() != browser.DashboardPath {
			d = sh.newDashboard()
		}
		d.Logout(ctx)
		sh.follow(ctx)
	case "where":
		fmt.Fprintf(sh.out, "at %s\n", sh.page())
		for i, u := range sh.tab.Location.History() {
			fmt.Fprintf(sh.out, "  %d %s\n", i+1, u)
		}
	default:
		return false, fmt.Errorf("unknown command %q, type help", cmd)
	}
	return false, nil
}

func (sh *shell) login(ctx context.Context, args []string) error {
	user, pass := sh.app.cfg.Username, sh.app.cfg.Password
	if len(args) == 2 {
		user, pass = args[0], args[1]
	} else if len(args) != 0 {
		return errors.New("usage: login [USER PASS]")
	}
	if user == "" {
		return errors.New("no username: pass one or set CHART_USERNAME")
	}

	u, err := sh.app.client.Login(ctx, user, pass, sh.app.cfg.Remember)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "signed in as %s\n", u.Username)
	sh.loadDashboard(ctx)
	return nil
}

func (sh *shell) open(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: open ID")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("analysis id %q: %w", args[0], err)
	}
	d, err := sh.dashboardPage()
	if err != nil {
		return err
	}
	d.Open(ctx, id)
	if sh.tab.Location.Path() == browser.DashboardPath {
		return fmt.Errorf("analysis %d could not be loaded", id)
	}
	sh.follow(ctx)
	return nil
}

func (sh *shell) newDashboard() *dashboard.Controller {
	return dashboard.NewController(sh.app.client, sh.tab, dashboard.Options{Tracer: sh.app.tracer})
}

func (sh *shell) loadDashboard(ctx context.Context) {
	sh.tab.Location.Navigate(browser.DashboardPath)
	sh.an = nil
	sh.dash = sh.newDashboard()
	sh.dash.Load(ctx)
	sh.follow(ctx)
}

// navigate starts a new page at url without fetching anything.
func (sh *shell) navigate(url string) {
	sh.tab.Location.Navigate(url)
	sh.startPage()
}

// startPage drops the old page controllers and builds the one for the
// current location.
func (sh *shell) startPage() {
	sh.dash = nil
	sh.an = nil
	if sh.tab.Location.Path() == browser.AnalyzerPath {
		sh.view = newTermView(sh.out)
		sh.an = analyzer.NewController(sh.app.client, sh.view, sh.app.analyzerOptions())
	}
}

// follow reacts to where the current page left the tab.
func (sh *shell) follow(ctx context.Context) {
	switch sh.tab.Location.Path() {
	case browser.DashboardPath:
		if sh.dash != nil {
			render.Dashboard(sh.out, sh.dash.View())
		}
	case browser.LoginPath:
		sh.dash = nil
		sh.an = nil
		fmt.Fprintln(sh.out, "signed out: use login to continue")
	case browser.AnalyzerPath:
		sh.startPage()
		sh.an.LoadStoredView(ctx, sh.tab)
	}
}

func (sh *shell) dashboardPage() (*dashboard.Controller, error) {
	if sh.dash == nil {
		return nil, errors.New("not on the dashboard: run dashboard first")
	}
	return sh.dash, nil
}

func (sh *shell) analyzerPage() (*analyzer.Controller, error) {
	if sh.an == nil {
		return nil, errors.New("not on the analyzer: run analyzer first")
	}
	return sh.an, nil
}
