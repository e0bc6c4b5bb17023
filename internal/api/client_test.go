package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sdibella/chart-analyzer/internal/config"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(&config.Config{APIURL: srv.URL, SessionCookie: "abc123"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestUserSuccess(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ck, err := r.Cookie("session"); err != nil || ck.Value != "abc123" {
			t.Errorf("session cookie missing: %v", err)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("X-Request-ID header missing")
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"user": map[string]any{
				"full_name":      "Ada Trader",
				"is_premium":     false,
				"daily_limit":    5,
				"analyses_today": 2,
			},
		})
	}))

	u, err := c.User(context.Background())
	if err != nil {
		t.Fatalf("User() error = %v", err)
	}
	if u.FullName != "Ada Trader" || u.Remaining() != 3 {
		t.Errorf("User() = %+v, remaining %d", u, u.Remaining())
	}
}

func TestFetchFailureKinds(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantKind    Kind
		wantMessage string
	}{
		{
			name: "success false with message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusTooManyRequests, map[string]any{"success": false, "error": "Daily analysis limit reached"})
			},
			wantKind:    KindRejected,
			wantMessage: "Daily analysis limit reached",
		},
		{
			name: "success false without message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"success": false})
			},
			wantKind: KindRejected,
		},
		{
			name: "html body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				io.WriteString(w, "<html>login</html>")
			},
			wantKind: KindTransport,
		},
		{
			name: "login redirect is not followed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/login" {
					writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": map[string]any{}})
					return
				}
				http.Redirect(w, r, "/login", http.StatusFound)
			},
			wantKind: KindTransport,
		},
		{
			name: "payload field missing",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"success": true})
			},
			wantKind: KindTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.User(context.Background())

			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *api.Error", err)
			}
			if apiErr.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", apiErr.Kind, tt.wantKind)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(&config.Config{APIURL: url})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Stats(context.Background())
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if IsRejected(err) {
		t.Error("closed server reported as rejected")
	}
	if got := Message(err, "fallback"); got != "fallback" {
		t.Errorf("Message() = %q, want fallback", got)
	}
}

func TestHistoryRequestsPageSize(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("per_page"); got != "20" {
			t.Errorf("per_page = %q, want 20", got)
		}
		io.WriteString(w, `{"success":true,"analyses":[
			{"id":1,"outcome":"win","confidence_score":85,"take_profit":["101.5","103"],"created_at":"2024-03-01T10:00:00"},
			{"id":2,"outcome":null,"confidence_score":null,"take_profit":"[1.1, 1.2]"}
		]}`)
	}))

	items, err := c.History(context.Background(), HistoryPageSize)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if first, ok := items[0].TakeProfit.First(); !ok || first.String() != "101.5" {
		t.Errorf("first take profit = %v, %v", first, ok)
	}
	if !items[1].TakeProfit.IsList() || len(items[1].TakeProfit.All()) != 2 {
		t.Errorf("JSON-text take profit not unwrapped: %+v", items[1].TakeProfit)
	}
}

func TestAnalysisReturnsRaw(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analysis/42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		io.WriteString(w, `{"success":true,"analysis":{"id":42,"market_type":"Crypto","trade_direction":"Long","entry_price":"100"}}`)
	}))

	d, raw, err := c.Analysis(context.Background(), 42)
	if err != nil {
		t.Fatalf("Analysis() error = %v", err)
	}
	if d.Key() != 42 || d.MarketType != "Crypto" {
		t.Errorf("detail = %+v", d)
	}
	if !strings.Contains(string(raw), `"id":42`) {
		t.Errorf("raw = %s", raw)
	}
	if s := d.Setup(); s == nil || s.Direction != "Long" || s.Entry.String() != "100" {
		t.Errorf("Setup() from flat fields = %+v", s)
	}
}

func TestAnalyzeMultipart(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		f, hdr, err := r.FormFile("chart")
		if err != nil {
			t.Fatalf("chart part: %v", err)
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "btc.png" || string(data) != "PNGDATA" {
			t.Errorf("file = %s %q", hdr.Filename, data)
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("part content type = %q", ct)
		}
		if got := r.FormValue("trading_style"); got != "Swing" {
			t.Errorf("trading_style = %q", got)
		}
		if _, ok := r.MultipartForm.Value["asset_type"]; ok {
			t.Error("empty asset_type should be omitted")
		}
		io.WriteString(w, `{"success":true,"analysis":{"analysis_id":7,"market_type":"Forex","confidence_score":72,
			"trade_setup":{"direction":"Short","entry":1.0852,"stop_loss":"1.09","take_profit":[1.08,1.075]}}}`)
	}))

	d, err := c.Analyze(context.Background(), Upload{
		Filename:     "btc.png",
		ContentType:  "image/png",
		Body:         strings.NewReader("PNGDATA"),
		TradingStyle: "Swing",
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if d.Key() != 7 || d.ConfidenceScore.String() != "72" {
		t.Errorf("detail = %+v", d)
	}
	if d.TradeSetup == nil || d.TradeSetup.Entry.String() != "1.0852" {
		t.Errorf("trade setup = %+v", d.TradeSetup)
	}
}

func TestLogoutStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"no content", http.StatusNoContent, false},
		{"server error", http.StatusInternalServerError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/api/logout" {
					t.Errorf("request = %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}))
			err := c.Logout(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Logout() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoginAndUpdateOutcome(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["username"] != "ada" || body["password"] != "pw" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Invalid username or password"})
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "fresh", Path: "/"})
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": map[string]any{"full_name": "Ada"}})
		case "/api/analysis/3/outcome":
			if ck, _ := r.Cookie("session"); ck == nil || ck.Value != "fresh" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "login required"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Outcome updated successfully"})
		default:
			http.NotFound(w, r)
		}
	}))

	if _, err := c.Login(context.Background(), "ada", "wrong", false); Message(err, "") != "Invalid username or password" {
		t.Errorf("bad login error = %v", err)
	}
	if _, err := c.Login(context.Background(), "ada", "pw", true); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := c.UpdateOutcome(context.Background(), 3, "win", "hit TP1"); err != nil {
		t.Errorf("UpdateOutcome() error = %v", err)
	}
	if err := c.UpdateOutcome(context.Background(), 3, "draw", ""); err == nil {
		t.Error("UpdateOutcome() accepted an unknown outcome")
	}
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "service": "Trading Chart Analyzer"})
	}))
	s, err := c.Health(context.Background())
	if err != nil || s != "healthy" {
		t.Errorf("Health() = %q, %v", s, err)
	}
}
