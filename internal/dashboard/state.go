package dashboard

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sdibella/chart-analyzer/internal/api"
	"github.com/sdibella/chart-analyzer/internal/browser"
)

// FilterAll shows every outcome.
const FilterAll = "all"

// EmptyNoHistory is shown when the account has no analyses at all.
const EmptyNoHistory = "No analyses yet"

// State is one dashboard page load.
type State struct {
	DisplayName string
	Stats       StatsView

	Loading  bool
	Snapshot []api.Analysis // fetched once, never paginated
	Filter   string
	Cards    []Card

	Empty        bool
	EmptyMessage string

	// Halted is set once the page navigates away; later events are dropped.
	Halted bool
	Left   string

	// Zone is used for card dates; nil means local time.
	Zone *time.Location

	historyRequested bool
	historyDone      bool
}

// NewState is a fresh page with placeholders and the "all" filter.
func NewState() State {
	return State{Stats: PlaceholderStats(), Filter: FilterAll}
}

// --- Events ---

type Event interface{ dashboardEvent() }

type PageLoaded struct{}

type UserLoaded struct{ User api.User }

type UserFailed struct{ Err error }

// StatsLoaded carries the stats and the user fetched alongside them.
type StatsLoaded struct {
	Stats api.Stats
	User  api.User
}

type StatsFailed struct{ Err error }

type HistoryLoaded struct{ Items []api.Analysis }

type HistoryFailed struct{ Err error }

type FilterSelected struct{ Category string }

type CardClicked struct{ ID int64 }

// DetailLoaded carries the detail payload exactly as the server sent it.
type DetailLoaded struct {
	ID  int64
	Raw json.RawMessage
}

type DetailFailed struct {
	ID  int64
	Err error
}

type LogoutClicked struct{}

// LogoutDone reports the logout request; Err is nil on a 2xx.
type LogoutDone struct{ Err error }

func (PageLoaded) dashboardEvent()     {}
func (UserLoaded) dashboardEvent()     {}
func (UserFailed) dashboardEvent()     {}
func (StatsLoaded) dashboardEvent()    {}
func (StatsFailed) dashboardEvent()    {}
func (HistoryLoaded) dashboardEvent()  {}
func (HistoryFailed) dashboardEvent()  {}
func (FilterSelected) dashboardEvent() {}
func (CardClicked) dashboardEvent()    {}
func (DetailLoaded) dashboardEvent()   {}
func (DetailFailed) dashboardEvent()   {}
func (LogoutClicked) dashboardEvent()  {}
func (LogoutDone) dashboardEvent()     {}

// --- Effects ---

type Effect interface{ dashboardEffect() }

type FetchUser struct{}

// FetchStats fetches stats and the user concurrently.
type FetchStats struct{}

type FetchHistory struct{ PerPage int }

type FetchDetail struct{ ID int64 }

type StoreSession struct {
	Key   string
	Value string
}

type Navigate struct{ URL string }

type PostLogout struct{}

// LogError records a failure that the page degrades around.
type LogError struct {
	Op  string
	Err error
}

func (FetchUser) dashboardEffect()    {}
func (FetchStats) dashboardEffect()   {}
func (FetchHistory) dashboardEffect() {}
func (FetchDetail) dashboardEffect()  {}
func (StoreSession) dashboardEffect() {}
func (Navigate) dashboardEffect()     {}
func (PostLogout) dashboardEffect()   {}
func (LogError) dashboardEffect()     {}

// Update applies ev to s. It performs no I/O.
func Update(s State, ev Event) (State, []Effect) {
	if s.Halted {
		return s, nil
	}

	switch e := ev.(type) {
	case PageLoaded:
		return s, []Effect{FetchUser{}}

	case UserLoaded:
		s.DisplayName = e.User.FullName
		return s, []Effect{FetchStats{}}

	case UserFailed:
		effects := []Effect{LogError{Op: "load user", Err: e.Err}}
		return leave(s, browser.LoginPath, effects)

	case StatsLoaded:
		s.Stats = buildStats(e.Stats, e.User)
		return requestHistory(s, nil)

	case StatsFailed:
		return requestHistory(s, []Effect{LogError{Op: "load stats", Err: e.Err}})

	case HistoryLoaded:
		if !s.Loading || s.historyDone {
			return s, nil
		}
		s.Loading = false
		s.historyDone = true
		if len(e.Items) == 0 {
			return showEmpty(s, EmptyNoHistory), nil
		}
		s.Snapshot = e.Items
		return applyFilter(s), nil

	case HistoryFailed:
		if !s.Loading || s.historyDone {
			return s, nil
		}
		s.Loading = false
		s.historyDone = true
		return showEmpty(s, EmptyNoHistory), []Effect{LogError{Op: "load history", Err: e.Err}}

	case FilterSelected:
		s.Filter = e.Category
		if s.Loading {
			return s, nil
		}
		return applyFilter(s), nil

	case CardClicked:
		return s, []Effect{FetchDetail{ID: e.ID}}

	case DetailLoaded:
		return leave(s, browser.AnalyzerViewURL(e.ID), []Effect{
			StoreSession{Key: browser.ViewAnalysisKey, Value: string(e.Raw)},
		})

	case DetailFailed:
		return s, []Effect{LogError{Op: "load analysis " + strconv.FormatInt(e.ID, 10), Err: e.Err}}

	case LogoutClicked:
		return s, []Effect{PostLogout{}}

	case LogoutDone:
		var effects []Effect
		if e.Err != nil {
			effects = append(effects, LogError{Op: "logout", Err: e.Err})
		}
		return leave(s, browser.LoginPath, effects)
	}
	return s, nil
}

func leave(s State, url string, effects []Effect) (State, []Effect) {
	s.Halted = true
	s.Left = url
	return s, append(effects, Navigate{URL: url})
}

func requestHistory(s State, effects []Effect) (State, []Effect) {
	if s.historyRequested {
		return s, effects
	}
	s.historyRequested = true
	s.Loading = true
	s.Empty = false
	s.Cards = nil
	return s, append(effects, FetchHistory{PerPage: api.HistoryPageSize})
}

// applyFilter rebuilds Cards from Snapshot by exact outcome match. Cards
// keep snapshot order.
func applyFilter(s State) State {
	cards := make([]Card, 0, len(s.Snapshot))
	for _, a := range s.Snapshot {
		if s.Filter != FilterAll && a.Outcome != s.Filter {
			continue
		}
		cards = append(cards, BuildCard(a, s.Zone))
	}
	if len(cards) == 0 {
		return showEmpty(s, FilterEmptyMessage(s.Filter))
	}
	s.Cards = cards
	s.Empty = false
	s.EmptyMessage = ""
	return s
}

// FilterEmptyMessage names the filter category that matched nothing.
func FilterEmptyMessage(category string) string {
	if category == FilterAll || category == "" {
		return "No analyses"
	}
	return fmt.Sprintf("No %s analyses", category)
}

func showEmpty(s State, msg string) State {
	s.Cards = nil
	s.Empty = true
	s.EmptyMessage = msg
	return s
}

func buildStats(st api.Stats, u api.User) StatsView {
	v := StatsView{
		TotalAnalyses: strconv.Itoa(st.TotalAnalyses),
		WinRate:       st.WinRate.String() + "%",
		AvgConfidence: st.AvgConfidence.String() + "%",
	}
	if u.IsPremium {
		v.AnalysesLeft = Infinity
		v.AnalysesLeftLabel = LabelPremium
	} else {
		v.AnalysesLeft = strconv.Itoa(u.Remaining())
		v.AnalysesLeftLabel = LabelAnalysesLeft
	}
	return v
}
