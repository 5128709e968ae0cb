package selection

import (
	"testing"
)

func asSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestToggle(t *testing.T) {
	tr := NewTracker()

	tr.Toggle("a")
	tr.Toggle("b")
	if !tr.Contains("a") || !tr.Contains("b") || tr.Count() != 2 {
		t.Fatalf("expected a and b selected, got %v", tr.Selected())
	}

	tr.Toggle("a")
	if tr.Contains("a") || tr.Count() != 1 {
		t.Fatalf("toggle should flip a back out, got %v", tr.Selected())
	}
}

func TestSelectedKeepsInsertionOrder(t *testing.T) {
	tr := NewTracker()
	tr.Toggle("c")
	tr.Toggle("a")
	tr.Toggle("b")

	got := tr.Selected()
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("insertion order lost: %v", got)
		}
	}
}

func TestToggleAllSelectsUniverse(t *testing.T) {
	tr := NewTracker()
	tr.Toggle("b")

	universe := []string{"a", "b", "c"}
	tr.ToggleAll(universe)
	if tr.Count() != 3 {
		t.Fatalf("partial selection should expand to the universe, got %v", tr.Selected())
	}

	tr.ToggleAll(universe)
	if tr.Count() != 0 {
		t.Fatalf("full selection should clear, got %v", tr.Selected())
	}
}

func TestToggleAllTwiceRestoresState(t *testing.T) {
	tr := NewTracker()
	universe := []string{"a", "b"}

	tr.ToggleAll(universe)
	tr.ToggleAll(universe)
	tr.ToggleAll(universe)
	tr.ToggleAll(universe)
	if tr.Count() != 0 {
		t.Fatalf("even number of toggles should restore empty, got %v", tr.Selected())
	}
}

func TestToggleAllIgnoresDisplayedSubset(t *testing.T) {
	// selection of a strict subset, even a large one, selects everything
	tr := NewTracker()
	tr.Toggle("a")
	tr.Toggle("b")

	tr.ToggleAll([]string{"a", "b", "c"})
	if !tr.Contains("c") {
		t.Fatal("toggle-all must operate on the whole universe")
	}
}

func TestReconcilePrunesUnknown(t *testing.T) {
	tr := NewTracker()
	tr.Toggle("a")
	tr.Toggle("gone")
	tr.Toggle("b")

	tr.Reconcile(asSet("a", "b", "c"))

	got := tr.Selected()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected [a b] after pruning, got %v", got)
	}
	if tr.Contains("gone") {
		t.Fatal("pruned id should not remain selected")
	}
}

func TestReconcileNeverAdds(t *testing.T) {
	tr := NewTracker()
	tr.Toggle("a")

	tr.Reconcile(asSet("a", "b", "c"))
	if tr.Count() != 1 {
		t.Fatalf("reconcile must never add ids, got %v", tr.Selected())
	}
}

func TestReconcileEmitsOnlyOnChange(t *testing.T) {
	tr := NewTracker()
	tr.Toggle("a")

	emits := 0
	tr.OnChange(func([]string) { emits++ })

	tr.Reconcile(asSet("a"))
	if emits != 0 {
		t.Fatal("no-op reconcile should not emit")
	}
	tr.Reconcile(asSet("b"))
	if emits != 1 {
		t.Fatalf("pruning reconcile should emit once, got %d", emits)
	}
}

func TestTriState(t *testing.T) {
	tr := NewTracker()

	if got := tr.State(3); got != StateNone {
		t.Fatalf("empty selection: got %q", got)
	}
	tr.Toggle("a")
	if got := tr.State(3); got != StatePartial {
		t.Fatalf("partial selection: got %q", got)
	}
	tr.Toggle("b")
	tr.Toggle("c")
	if got := tr.State(3); got != StateAll {
		t.Fatalf("full selection: got %q", got)
	}
	if got := tr.State(0); got != StatePartial {
		t.Fatalf("selection over an empty universe: got %q", got)
	}
}

func TestClear(t *testing.T) {
	tr := NewTracker()
	tr.Toggle("a")
	tr.Clear()
	if tr.Count() != 0 {
		t.Fatalf("clear should empty the selection, got %v", tr.Selected())
	}
}

func TestListenerReceivesSnapshotCopy(t *testing.T) {
	tr := NewTracker()

	var last []string
	tr.OnChange(func(selected []string) { last = selected })

	tr.Toggle("a")
	last[0] = "mutated"
	tr.Toggle("b")
	if got := tr.Selected(); got[0] != "a" {
		t.Fatalf("listener mutation leaked into tracker state: %v", got)
	}
}
