// Package browser holds the per-tab state the page controllers share:
// session-scoped storage and the current location.
package browser

import (
	"strconv"
	"strings"
	"sync"
)

// Routes used as navigation signals.
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
	AnalyzerPath  = "/analyzer"
)

// ViewAnalysisKey is the session storage key for the dashboard -> analyzer hand-off.
const ViewAnalysisKey = "viewAnalysis"

// AnalyzerViewURL is the analyzer route showing a stored analysis.
func AnalyzerViewURL(id int64) string {
	return AnalyzerPath + "?view=" + strconv.FormatInt(id, 10)
}

// Storage is transient session storage. Nothing is written to disk.
type Storage struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewStorage() *Storage {
	return &Storage{items: make(map[string]string)}
}

func (s *Storage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

func (s *Storage) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

func (s *Storage) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// Location tracks where the tab currently points.
type Location struct {
	mu      sync.RWMutex
	current string
	history []string
}

func (l *Location) Navigate(url string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = url
	l.history = append(l.history, url)
}

func (l *Location) Current() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// History returns every navigation in order.
func (l *Location) History() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.history...)
}

// Path returns the current location without its query string.
func (l *Location) Path() string {
	p, _, _ := strings.Cut(l.Current(), "?")
	return p
}

// Tab is one browsing session.
type Tab struct {
	Storage  *Storage
	Location *Location
}

func NewTab(start string) *Tab {
	t := &Tab{Storage: NewStorage(), Location: &Location{}}
	if start != "" {
		t.Location.Navigate(start)
	}
	return t
}
