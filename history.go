package xrayprep

import "sync"

// MixtureHistory keeps a bounded undo/redo trail of gas mixtures.
//
// Entries are stored as independent copies, so callers can keep editing the
// mixtures they pushed. Once capacity is reached the oldest entry is
// overwritten. Safe for concurrent use.
//
// Example:
//
//	h := NewMixtureHistory(50)
//	h.Push(GasMixture{{Name: "N2", Fraction: 1}})
//	h.Push(AddGas(h.Current(), "Ar", 0.2))
//	prev, _ := h.Undo() // back to pure N2
type MixtureHistory struct {
	mu       sync.RWMutex
	entries  []GasMixture // ring buffer
	capacity int
	start    int // ring index of the oldest entry
	size     int // entries stored
	cursor   int // logical index of the current entry, -1 when empty
}

// NewMixtureHistory creates a history holding at most capacity mixtures.
// Non-positive capacity defaults to 100.
func NewMixtureHistory(capacity int) *MixtureHistory {
	if capacity <= 0 {
		capacity = 100
	}
	return &MixtureHistory{
		entries:  make([]GasMixture, capacity),
		capacity: capacity,
		cursor:   -1,
	}
}

// Push records m as the current mixture and discards any redo entries.
func (h *MixtureHistory) Push(m GasMixture) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Drop the redo tail.
	h.size = h.cursor + 1

	if h.size == h.capacity {
		h.start = (h.start + 1) % h.capacity
		h.size--
	}
	h.entries[h.slot(h.size)] = m.Clone()
	h.size++
	h.cursor = h.size - 1
}

// Current returns a copy of the current mixture, or nil when empty.
func (h *MixtureHistory) Current() GasMixture {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.cursor < 0 {
		return nil
	}
	return h.entries[h.slot(h.cursor)].Clone()
}

// Undo steps back one entry. It reports false when there is nothing to undo.
func (h *MixtureHistory) Undo() (GasMixture, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor <= 0 {
		return nil, false
	}
	h.cursor--
	return h.entries[h.slot(h.cursor)].Clone(), true
}

// Redo steps forward one entry. It reports false when there is nothing to redo.
func (h *MixtureHistory) Redo() (GasMixture, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor+1 >= h.size {
		return nil, false
	}
	h.cursor++
	return h.entries[h.slot(h.cursor)].Clone(), true
}

// Len returns the number of stored mixtures, including redo entries.
func (h *MixtureHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

func (h *MixtureHistory) slot(i int) int {
	return (h.start + i) % h.capacity
}
