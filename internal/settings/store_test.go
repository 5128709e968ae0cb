package settings

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "console.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGetSetString(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.GetString("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.SetString(KeyTheme, "dark"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, err := store.GetString(KeyTheme)
	if err != nil || value != "dark" {
		t.Fatalf("got %q, %v", value, err)
	}

	// upsert overwrites
	store.SetString(KeyTheme, "light")
	if value, _ := store.GetString(KeyTheme); value != "light" {
		t.Fatalf("upsert failed, got %q", value)
	}
}

func TestGetStringDefault(t *testing.T) {
	store := openTestStore(t)
	if got := store.GetStringDefault("missing", "fallback"); got != "fallback" {
		t.Fatalf("got %q", got)
	}
	store.SetString("present", "value")
	if got := store.GetStringDefault("present", "fallback"); got != "value" {
		t.Fatalf("got %q", got)
	}
}

func TestBoolRoundTrip(t *testing.T) {
	store := openTestStore(t)

	if err := store.SetBool("flag", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.GetBool("flag")
	if err != nil || !got {
		t.Fatalf("got %v, %v", got, err)
	}

	store.SetString("junk", "not-a-bool")
	if _, err := store.GetBool("junk"); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)
	store.SetString("k", "v")
	if err := store.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetString("k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// deleting a missing key is fine
	if err := store.Delete("never-existed"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestWatch(t *testing.T) {
	store := openTestStore(t)

	ch, cancel := store.Watch(KeyActivationKey)
	defer cancel()
	store.SetString(KeyActivationKey, "new-key")

	select {
	case got := <-ch:
		if got != "new-key" {
			t.Fatalf("watcher got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("watcher never notified")
	}
}

func TestWatchCancelUnsubscribes(t *testing.T) {
	store := openTestStore(t)

	ch, cancel := store.Watch(KeyTheme)
	cancel()

	// cancel closes the channel and detaches it from writers
	if _, open := <-ch; open {
		t.Fatal("channel should be closed after cancel")
	}
	if err := store.SetString(KeyTheme, "dark"); err != nil {
		t.Fatalf("set after cancel: %v", err)
	}

	// a second cancel is a no-op
	cancel()
}

func TestCloseEndsWatchers(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "console.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	ch, cancel := store.Watch(KeyTheme)
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case _, open := <-ch:
		if open {
			t.Fatal("channel should be closed, not carrying a value")
		}
	case <-time.After(time.Second):
		t.Fatal("watcher channel still open after Close")
	}

	// cancel after Close must not panic
	cancel()
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	store.SetString(KeyActivationKey, "persisted")
	store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if got, _ := reopened.GetString(KeyActivationKey); got != "persisted" {
		t.Fatalf("value should survive a restart, got %q", got)
	}
}
