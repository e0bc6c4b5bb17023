package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Tracer receives page events and effects as they are dispatched.
type Tracer interface {
	Record(page, kind string, v any)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Record(string, string, any) {}

// Journal is an append-only JSONL writer of dispatched events and effects.
type Journal struct {
	f  *os.File
	mu sync.Mutex
}

// Open opens (or creates) the trace file in append mode.
func Open(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &Journal{f: f}, nil
}

// Entry is one line in the trace.
type Entry struct {
	Time string          `json:"time"`
	Page string          `json:"page"` // "analyzer" or "dashboard"
	Kind string          `json:"kind"` // "event" or "effect"
	Name string          `json:"name"` // Go type name, e.g. "analyzer.FileChosen"
	Data json.RawMessage `json:"data,omitempty"`
}

func NewEntry(page, kind string, v any) Entry {
	e := Entry{
		Time: time.Now().UTC().Format(time.RFC3339Nano),
		Page: page,
		Kind: kind,
		Name: fmt.Sprintf("%T", v),
	}
	if data, err := json.Marshal(v); err == nil && string(data) != "{}" {
		e.Data = data
	}
	return e
}

// Log marshals entry to JSON and appends it as a single line.
func (j *Journal) Log(entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.f.Write(data)
	return err
}

// Record implements Tracer; write failures are dropped.
func (j *Journal) Record(page, kind string, v any) {
	_ = j.Log(NewEntry(page, kind, v))
}

// Close flushes and closes the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.f.Sync(); err != nil {
		j.f.Close()
		return err
	}
	return j.f.Close()
}
