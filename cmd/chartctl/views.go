package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/sdibella/chart-analyzer/internal/analyzer"
	"github.com/sdibella/chart-analyzer/internal/render"
)

// termView prints the upload page to a terminal. Only status changes are
// printed; results are printed when the page scrolls to them.
type termView struct {
	w io.Writer

	mu     sync.Mutex
	last   analyzer.State
	status string
}

func newTermView(w io.Writer) *termView {
	return &termView{w: w}
}

func (v *termView) Render(s analyzer.State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.last = s

	status := fmt.Sprintf("%s|%v|%v|%s", s.Phase, s.Busy, s.ErrorVisible, s.Error)
	if status == v.status {
		return
	}
	v.status = status
	render.Analyzer(v.w, s)
}

func (v *termView) ShowPreview(p analyzer.Preview) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p.Width > 0 {
		fmt.Fprintf(v.w, "preview: %s %dx%d, %s\n", p.Name, p.Width, p.Height, render.Bytes(p.Size))
		return
	}
	fmt.Fprintf(v.w, "preview: %s, %s\n", p.Name, render.Bytes(p.Size))
}

func (v *termView) Scroll(t analyzer.ScrollTarget) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t == analyzer.ScrollResults && v.last.Result != nil {
		fmt.Fprintln(v.w)
		render.Result(v.w, v.last.Result)
	}
}

// Error is the message currently on screen, if any.
func (v *termView) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.last.ErrorVisible {
		return ""
	}
	return v.last.Error
}
