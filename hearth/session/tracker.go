// Package session tracks the scoped context items consulted while composing
// a reply, so the outbound text can be scanned against exactly that set.
package session

import (
	"sync"

	"github.com/samber/lo"

	contractx "github.com/openhearth/hearth/hearth/contract"
)

// Tracker is the recorder contract used by the tool adapters and the
// outbound scanner.
type Tracker interface {
	Record(sessionKey string, item contractx.ScopedContext)
	Used(sessionKey string) []contractx.ScopedContext
	PrivateUsed(sessionKey string) []contractx.ScopedContext
	Reset(sessionKey string)
}

// MemoryTracker keeps per-session context in process memory. Context notes
// are session-scoped until a durable context store lands, so nothing here
// survives a restart.
type MemoryTracker struct {
	mu    sync.Mutex
	items map[string][]contractx.ScopedContext
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{items: make(map[string][]contractx.ScopedContext)}
}

// Record appends an item to the session's used set. Items are append-only;
// a superseding note is recorded as a new item.
func (t *MemoryTracker) Record(sessionKey string, item contractx.ScopedContext) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[sessionKey] = append(t.items[sessionKey], item)
}

// Used returns a copy of every item recorded for the session.
func (t *MemoryTracker) Used(sessionKey string) []contractx.ScopedContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	items := t.items[sessionKey]
	out := make([]contractx.ScopedContext, len(items))
	copy(out, items)
	return out
}

// PrivateUsed returns the private-layer subset, the input the violation
// scanner needs before a reply is sent.
func (t *MemoryTracker) PrivateUsed(sessionKey string) []contractx.ScopedContext {
	return lo.Filter(t.Used(sessionKey), func(item contractx.ScopedContext, _ int) bool {
		return item.PrivacyLayer == contractx.LayerPrivate
	})
}

// Reset drops the session's recorded set, typically after a reply ships.
func (t *MemoryTracker) Reset(sessionKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.items, sessionKey)
}
