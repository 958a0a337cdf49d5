package gemini

import "sync"

// maxHistoryEntries bounds how many recent question/SQL pairs feed back into
// generation prompts.
const maxHistoryEntries = 5

type historyEntry struct {
	Question string
	SQL      string
}

// history is a bounded FIFO of recent successful generations, shared across
// the worker goroutines that call the generator.
type history struct {
	mu      sync.Mutex
	entries []historyEntry
	max     int
}

func newHistory(max int) *history {
	return &history{max: max}
}

func (h *history) add(question, sql string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, historyEntry{Question: question, SQL: sql})
	if len(h.entries) > h.max {
		h.entries = h.entries[1:]
	}
}

func (h *history) snapshot() []historyEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]historyEntry, len(h.entries))
	copy(out, h.entries)
	return out
}
