package boundary

import (
	"sync"
	"unsafe"
)

// A ReleaseTracker records which pointers the boundary currently owns, so the
// exactly-once-release contract on returned strings can be enforced instead
// of trusted: releasing nil or a pointer that is not currently owned is a
// tracked no-op rather than undefined behaviour.
type ReleaseTracker struct {
	mu    sync.Mutex
	owned map[unsafe.Pointer]struct{}
}

// NewReleaseTracker returns an empty tracker.
func NewReleaseTracker() *ReleaseTracker {
	return &ReleaseTracker{owned: make(map[unsafe.Pointer]struct{})}
}

// Track records p as owned. Tracking nil is a no-op.
func (t *ReleaseTracker) Track(p unsafe.Pointer) {
	if p == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.owned[p] = struct{}{}
}

// Release removes p from the owned set, reporting whether the caller should
// actually free it. Returns false for nil, untracked, and already-released
// pointers, so a double release never reaches the allocator.
func (t *ReleaseTracker) Release(p unsafe.Pointer) bool {
	if p == nil {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.owned[p]; !ok {
		return false
	}

	delete(t.owned, p)

	return true
}

// Owned returns the number of currently tracked pointers.
func (t *ReleaseTracker) Owned() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.owned)
}
