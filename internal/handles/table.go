// Package handles hands out opaque store handles for the portable backends.
package handles

import (
	"sync"

	"github.com/joshuapare/winreg/pkg/types"
)

const (
	firstHandle types.Handle = 0x100
	handleStep  types.Handle = 4

	// Predefined roots live at 0x80000000 and above; allocated handles wrap
	// before reaching them.
	handleLimit types.Handle = 0x80000000
)

// Table maps allocated handles to backend state. It is safe for concurrent use.
type Table[T any] struct {
	mu      sync.Mutex
	next    types.Handle
	entries map[types.Handle]T
}

// New returns an empty table.
func New[T any]() *Table[T] {
	return &Table[T]{next: firstHandle, entries: make(map[types.Handle]T)}
}

// Add stores v under a fresh handle. Handles are never zero and never
// collide with a live entry or a predefined root.
func (t *Table[T]) Add(v T) types.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	for {
		h := t.next
		t.next += handleStep
		if t.next >= handleLimit {
			t.next = firstHandle
		}
		if _, used := t.entries[h]; !used {
			t.entries[h] = v
			return h
		}
	}
}

// Get returns the entry for h.
func (t *Table[T]) Get(h types.Handle) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.entries[h]
	return v, ok
}

// Remove deletes h and returns its entry.
func (t *Table[T]) Remove(h types.Handle) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.entries[h]
	if ok {
		delete(t.entries, h)
	}
	return v, ok
}

// Len reports the number of open handles.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
