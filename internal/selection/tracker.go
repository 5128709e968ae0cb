package selection

import (
	"sync"
)

// TriState is the select-all indicator state
type TriState string

const (
	StateNone    TriState = "none"
	StatePartial TriState = "partial"
	StateAll     TriState = "all"
)

// Listener receives the full ordered selection after every change
type Listener func(selected []string)

// Tracker holds the operator's multi-device selection independent of
// pagination and filtering. Membership is a set; emission order is
// insertion order, which consumers rely on for counts and command
// payloads.
type Tracker struct {
	mu        sync.Mutex
	order     []string
	member    map[string]struct{}
	listeners []Listener
}

// NewTracker creates an empty selection
func NewTracker() *Tracker {
	return &Tracker{
		member: make(map[string]struct{}),
	}
}

// OnChange registers a listener. Register before concurrent use.
func (t *Tracker) OnChange(l Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Toggle flips one device in or out of the selection
func (t *Tracker) Toggle(deviceID string) {
	t.mu.Lock()
	if _, ok := t.member[deviceID]; ok {
		t.removeLocked(deviceID)
	} else {
		t.member[deviceID] = struct{}{}
		t.order = append(t.order, deviceID)
	}
	t.emitLocked()
	t.mu.Unlock()
}

// ToggleAll operates over the entire fleet identifier universe, never a
// displayed page: when every universe id is already selected the
// selection clears, otherwise the whole universe becomes selected.
// Applying it twice with no intervening snapshot change restores the
// pre-call state.
func (t *Tracker) ToggleAll(universe []string) {
	t.mu.Lock()
	if t.coversLocked(universe) {
		t.order = nil
		t.member = make(map[string]struct{})
	} else {
		t.order = make([]string, 0, len(universe))
		t.member = make(map[string]struct{}, len(universe))
		for _, id := range universe {
			if _, dup := t.member[id]; dup {
				continue
			}
			t.member[id] = struct{}{}
			t.order = append(t.order, id)
		}
	}
	t.emitLocked()
	t.mu.Unlock()
}

// Reconcile prunes selected ids that are absent from the latest known
// identifier universe. Devices legitimately disappear between snapshots,
// so pruning is silent. It never adds ids.
func (t *Tracker) Reconcile(knownIDs map[string]struct{}) {
	t.mu.Lock()
	kept := t.order[:0]
	changed := false
	for _, id := range t.order {
		if _, ok := knownIDs[id]; ok {
			kept = append(kept, id)
		} else {
			delete(t.member, id)
			changed = true
		}
	}
	t.order = kept
	if changed {
		t.emitLocked()
	}
	t.mu.Unlock()
}

// Selected returns the current selection in insertion order
func (t *Tracker) Selected() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Contains reports whether a device is selected
func (t *Tracker) Contains(deviceID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.member[deviceID]
	return ok
}

// Count returns the selection size
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// State returns the tri-state indicator for a universe of the given size
func (t *Tracker) State(universeSize int) TriState {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case universeSize > 0 && len(t.order) == universeSize:
		return StateAll
	case len(t.order) > 0:
		return StatePartial
	default:
		return StateNone
	}
}

// Clear empties the selection
func (t *Tracker) Clear() {
	t.mu.Lock()
	if len(t.order) > 0 {
		t.order = nil
		t.member = make(map[string]struct{})
		t.emitLocked()
	}
	t.mu.Unlock()
}

func (t *Tracker) coversLocked(universe []string) bool {
	if len(universe) == 0 || len(t.order) != len(universe) {
		return false
	}
	for _, id := range universe {
		if _, ok := t.member[id]; !ok {
			return false
		}
	}
	return true
}

func (t *Tracker) removeLocked(deviceID string) {
	delete(t.member, deviceID)
	for i, id := range t.order {
		if id == deviceID {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

func (t *Tracker) emitLocked() {
	if len(t.listeners) == 0 {
		return
	}
	snapshot := make([]string, len(t.order))
	copy(snapshot, t.order)
	for _, l := range t.listeners {
		l(snapshot)
	}
}
