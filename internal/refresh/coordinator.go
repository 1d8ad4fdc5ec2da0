package refresh

import (
	"log/slog"
	"sync"
)

// Coordinator owns the refresh state for one panel/context pair. Change
// notifications are admitted through Enqueue and drained strictly FIFO with at
// most one refresh in flight. The refresh collaborator is opaque to the
// coordinator: it is expected to refetch history and acknowledge the head it
// observed via SetLastObserved.
//
// A Coordinator must not be shared across two repository contexts; retargeting
// goes through Reset.
type Coordinator struct {
	refresh func(head string) error

	mu           sync.Mutex
	processing   bool
	pending      []string
	active       string
	lastObserved string
}

func NewCoordinator(refresh func(head string) error) *Coordinator {
	return &Coordinator{refresh: refresh}
}

// Enqueue admits a candidate head. Heads equal to the last observed head (per
// ShouldRefresh), the head currently being refreshed, or a head already
// pending are dropped, so repeated notifications for the same tip cost exactly
// one refresh. Enqueue never blocks; when the coordinator is idle it starts
// the drain on its own goroutine.
func (c *Coordinator) Enqueue(head string) {
	c.mu.Lock()
	if !ShouldRefresh(c.lastObserved, head) || head == c.active || c.isPendingLocked(head) {
		c.mu.Unlock()
		return
	}
	c.pending = append(c.pending, head)
	if c.processing {
		c.mu.Unlock()
		return
	}
	c.processing = true
	c.mu.Unlock()
	go c.drain()
}

// drain processes pending heads to completion. The pending queue is re-checked
// after every refresh while still holding the processing flag, so an Enqueue
// landing during an in-flight refresh is picked up by the same drain instead
// of being lost.
func (c *Coordinator) drain() {
	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.processing = false
			c.mu.Unlock()
			return
		}
		head := c.pending[0]
		c.pending = c.pending[1:]
		c.active = head
		refresh := c.refresh
		c.mu.Unlock()

		var err error
		if refresh != nil {
			err = refresh(head)
		}
		if err != nil {
			// The provider surfaces the error to its consumers; here it only
			// must not poison the remaining queue.
			slog.Error("history refresh failed", slog.String("head", head), slog.Any("error", err))
		}

		c.mu.Lock()
		c.active = ""
		c.mu.Unlock()
	}
}

// SetLastObserved records the head a completed refresh actually saw. Later
// notifications for the same head are suppressed at enqueue time.
func (c *Coordinator) SetLastObserved(head string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastObserved = head
}

// Reset atomically clears pending heads, the active head marker and the last
// observed head. Call when retargeting the panel at a different repository
// context: nothing from the previous context may suppress or trigger work in
// the new one. An in-flight refresh is not cancelled; it runs to completion
// against the old provider and its head is simply forgotten.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
	c.active = ""
	c.lastObserved = ""
}

func (c *Coordinator) isPendingLocked(head string) bool {
	for _, pending := range c.pending {
		if pending == head {
			return true
		}
	}
	return false
}
