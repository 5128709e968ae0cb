package configedit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fleet-console/fleet-console-pro/internal/models"
)

// EditState is the lifecycle of an editable aggregate
type EditState string

const (
	// StateClean means the draft equals the last known server value
	StateClean EditState = "clean"
	// StateDirty means the draft has unsaved local edits
	StateDirty EditState = "dirty"
	// StateSaving means a save is pending; the save control is disabled
	StateSaving EditState = "saving"
)

// Editor errors
var (
	ErrSavePending = errors.New("save already in progress")
	ErrNotLoaded   = errors.New("session config not fetched yet")
)

// ConfigClient fetches and saves the session config on the backend
type ConfigClient interface {
	GetConfig(ctx context.Context) (*models.SessionConfig, error)
	UpdateConfig(ctx context.Context, cfg models.SessionConfig) (*models.SessionConfig, error)
}

// SessionEditor holds the follow-automation draft, decoupled from the
// last-fetched server value until an explicit save. Background refetches
// never merge into a dirty draft: local edits win until the operator
// saves or reloads.
type SessionEditor struct {
	client ConfigClient

	mu      sync.Mutex
	state   EditState
	loaded  bool
	server  models.SessionConfig
	draft   models.SessionConfig
	saveErr error
}

// NewSessionEditor creates an editor with nothing fetched yet
func NewSessionEditor(client ConfigClient) *SessionEditor {
	return &SessionEditor{
		client: client,
		state:  StateClean,
	}
}

// Load fetches the server value. A clean editor adopts it as the draft;
// a dirty editor only updates the cached server value and keeps its
// draft untouched.
func (e *SessionEditor) Load(ctx context.Context) error {
	cfg, err := e.client.GetConfig(ctx)
	if err != nil {
		return fmt.Errorf("fetch session config: %w", err)
	}

	e.mu.Lock()
	e.server = *cfg
	if e.state == StateClean {
		e.draft = *cfg
	}
	e.loaded = true
	e.mu.Unlock()
	return nil
}

// Draft returns the current draft value
func (e *SessionEditor) Draft() models.SessionConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// ServerValue returns the last value fetched from the backend
func (e *SessionEditor) ServerValue() models.SessionConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.server
}

// State returns the editor state; SaveError carries the last failure
func (e *SessionEditor) State() EditState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SaveError returns the error of the last failed save, nil otherwise
func (e *SessionEditor) SaveError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveErr
}

// SetDraft replaces the whole draft and marks the editor dirty
func (e *SessionEditor) SetDraft(cfg models.SessionConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateSaving {
		return ErrSavePending
	}
	e.draft = cfg
	e.state = StateDirty
	return nil
}

// Edit applies a field-level mutation to the draft
func (e *SessionEditor) Edit(mutate func(*models.SessionConfig)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateSaving {
		return ErrSavePending
	}
	mutate(&e.draft)
	e.state = StateDirty
	return nil
}

// Revert discards local edits and restores the last server value
func (e *SessionEditor) Revert() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateSaving {
		return ErrSavePending
	}
	e.draft = e.server
	e.state = StateClean
	e.saveErr = nil
	return nil
}

// Save transmits the entire draft, never a diff. Success adopts the
// server's returned value; failure returns to dirty with the draft
// intact, so a failed save loses nothing.
func (e *SessionEditor) Save(ctx context.Context) error {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	if e.state == StateSaving {
		e.mu.Unlock()
		return ErrSavePending
	}
	draft := e.draft
	e.state = StateSaving
	e.mu.Unlock()

	updated, err := e.client.UpdateConfig(ctx, draft)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = StateDirty
		e.saveErr = err
		return err
	}

	e.server = *updated
	e.draft = *updated
	e.state = StateClean
	e.saveErr = nil
	return nil
}

// WarmupEditor holds seven per-day drafts seeded from the built-in
// defaults. Switching the selected day swaps the visible draft without
// discarding edits to other days. Drafts are session-local and never
// transmitted to the backend.
type WarmupEditor struct {
	mu       sync.Mutex
	days     map[int]models.WarmupDayConfig
	selected int
}

// NewWarmupEditor seeds all seven days from the default plan
func NewWarmupEditor() *WarmupEditor {
	return &WarmupEditor{
		days:     models.DefaultWarmupPlan(),
		selected: 1,
	}
}

// SelectDay changes which day's draft is visible
func (e *WarmupEditor) SelectDay(day int) error {
	if err := checkDay(day); err != nil {
		return err
	}
	e.mu.Lock()
	e.selected = day
	e.mu.Unlock()
	return nil
}

// SelectedDay returns the currently visible day
func (e *WarmupEditor) SelectedDay() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// Day returns the draft for one day
func (e *WarmupEditor) Day(day int) (models.WarmupDayConfig, error) {
	if err := checkDay(day); err != nil {
		return models.WarmupDayConfig{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.days[day], nil
}

// UpdateDay replaces one day's draft. Values are held verbatim; min/max
// ordering is not checked here.
func (e *WarmupEditor) UpdateDay(day int, cfg models.WarmupDayConfig) error {
	if err := checkDay(day); err != nil {
		return err
	}
	e.mu.Lock()
	e.days[day] = cfg
	e.mu.Unlock()
	return nil
}

// ResetDay restores one day to its built-in default
func (e *WarmupEditor) ResetDay(day int) error {
	if err := checkDay(day); err != nil {
		return err
	}
	defaults := models.DefaultWarmupPlan()
	e.mu.Lock()
	e.days[day] = defaults[day]
	e.mu.Unlock()
	return nil
}

func checkDay(day int) error {
	if day < 1 || day > models.WarmupDays {
		return fmt.Errorf("warmup day out of range: %d", day)
	}
	return nil
}
