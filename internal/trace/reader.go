package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ReadFile parses a JSONL trace. When page is non-empty only that page's
// entries are returned.
func ReadFile(path, page string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file %s: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("failed to parse trace entry at line %d: %w", lineNum, err)
		}
		if page != "" && e.Page != page {
			continue
		}
		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading trace file: %w", err)
	}
	return entries, nil
}

// Count is how often one event or effect type appears in a trace.
type Count struct {
	Page string
	Kind string
	Name string
	N    int
}

// Tally counts entries by page, kind and name, sorted by page then name.
func Tally(entries []Entry) []Count {
	idx := make(map[string]int)
	var counts []Count
	for _, e := range entries {
		key := e.Page + "\x00" + e.Kind + "\x00" + e.Name
		i, ok := idx[key]
		if !ok {
			i = len(counts)
			idx[key] = i
			counts = append(counts, Count{Page: e.Page, Kind: e.Kind, Name: e.Name})
		}
		counts[i].N++
	}

	sort.Slice(counts, func(i, j int) bool {
		a, b := counts[i], counts[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Kind != b.Kind {
			return a.Kind > b.Kind // events before effects
		}
		return a.Name < b.Name
	})
	return counts
}

// ShortName drops the package path from a recorded type name.
func ShortName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
