package navigation

import "sync"

// History is the in-app back stack. The zero value is empty.
type History struct {
	mu      sync.RWMutex
	entries []Location
}

// NewHistory starts a history at path.
func NewHistory(path string) *History {
	return &History{entries: []Location{ParsePath(path)}}
}

// Push appends a new entry.
func (h *History) Push(path string) Location {
	loc := ParsePath(path)
	h.mu.Lock()
	h.entries = append(h.entries, loc)
	h.mu.Unlock()
	return loc
}

// Replace swaps the current entry without growing the stack.
func (h *History) Replace(path string) Location {
	loc := ParsePath(path)
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		h.entries = append(h.entries, loc)
		return loc
	}
	h.entries[len(h.entries)-1] = loc
	return loc
}

// Back pops the current entry. It reports false when there is nothing to go
// back to.
func (h *History) Back() (Location, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) < 2 {
		return h.current(), false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return h.current(), true
}

// Current returns the active location.
func (h *History) Current() Location {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current()
}

// Len is the number of entries in the stack.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

func (h *History) current() Location {
	if len(h.entries) == 0 {
		return Location{}
	}
	return h.entries[len(h.entries)-1]
}
