package live

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func waitPages(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Pages() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Pages() = %d, want %d", h.Pages(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubNotify(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	msgs, err := Watch(ctx, url)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	waitPages(t, h, 1)

	h.Notify("dashboard")
	h.Notify("dashboard")

	for want := uint64(1); want <= 2; want++ {
		select {
		case m := <-msgs:
			if m.Type != "render" || m.Page != "dashboard" || m.Version != want {
				t.Errorf("message = %+v, want version %d", m, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no message %d", want)
		}
	}

	cancel()
	waitPages(t, h, 0)
}

func TestWatchDialFailure(t *testing.T) {
	if _, err := Watch(context.Background(), "ws://127.0.0.1:1/live"); err == nil {
		t.Fatal("Watch() to a closed port succeeded")
	}
}
