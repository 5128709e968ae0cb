package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/fleet-console/fleet-console-pro/internal/models"
)

// Dispatch errors surfaced before any network call is made
var (
	// ErrNoSelection rejects a start with an empty device scope
	ErrNoSelection = errors.New("Please select at least one device")
	// ErrInFlight rejects a duplicate submission while the same control's
	// command is still pending
	ErrInFlight = errors.New("command already in flight")
)

// Default confirmations used when the backend supplies no message
const (
	defaultStartMessage = "Automation started"
	defaultStopMessage  = "Automation stopped"
)

// Commander issues automation commands to the backend
type Commander interface {
	StartAutomation(ctx context.Context, sel models.DeviceSelection) (*models.AutomationStatus, error)
	StopAutomation(ctx context.Context, sel models.DeviceSelection) (*models.AutomationStatus, error)
	EnableAccount(ctx context.Context, deviceID string) (*models.DeviceRecord, error)
	DisableAccount(ctx context.Context, deviceID string) (*models.DeviceRecord, error)
}

// Refresher re-pulls the fleet snapshot after a mutation
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Notifier surfaces command outcomes to the operator
type Notifier interface {
	Success(message string)
	Error(message string)
}

// AuditListener observes every dispatched command and its outcome
type AuditListener func(verb string, deviceIDs []string, err error)

// Dispatcher turns selection, mode, and per-day configuration into
// idempotent start/stop intents. It guarantees at most one in-flight
// command per control scope and an unconditional snapshot refresh after
// every success, so the view never trusts poll timing after a mutation.
type Dispatcher struct {
	commander Commander
	refresher Refresher
	notifier  Notifier

	mu       sync.Mutex
	inFlight map[string]bool
	audits   []AuditListener
}

// NewDispatcher creates a dispatcher with no in-flight commands
func NewDispatcher(commander Commander, refresher Refresher, notifier Notifier) *Dispatcher {
	return &Dispatcher{
		commander: commander,
		refresher: refresher,
		notifier:  notifier,
		inFlight:  make(map[string]bool),
	}
}

// OnCommand registers an audit listener. Register before concurrent use.
func (d *Dispatcher) OnCommand(l AuditListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.audits = append(d.audits, l)
}

// InFlight reports whether the given control scope has a pending command;
// the UI disables the matching control while true
func (d *Dispatcher) InFlight(scope string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight[scope]
}

// Start launches automation on the selected devices. An empty selection
// is rejected locally; no request reaches the backend.
func (d *Dispatcher) Start(ctx context.Context, deviceIDs []string, mode models.TaskMode, warmupDay int) (string, error) {
	if len(deviceIDs) == 0 {
		d.notifier.Error(ErrNoSelection.Error())
		return "", ErrNoSelection
	}

	if !d.acquire("start") {
		return "", ErrInFlight
	}
	defer d.release("start")

	sel := models.DeviceSelection{DeviceIDs: deviceIDs, Mode: mode}
	if mode == models.TaskModeWarmup {
		sel.WarmupDay = warmupDay
	}

	status, err := d.commander.StartAutomation(ctx, sel)
	d.emitAudit("start", deviceIDs, err)
	if err != nil {
		// selection and mode stay untouched on failure
		d.notifier.Error(err.Error())
		return "", err
	}

	return d.finish(ctx, status, defaultStartMessage), nil
}

// Stop halts automation on the selected devices
func (d *Dispatcher) Stop(ctx context.Context, deviceIDs []string) (string, error) {
	if len(deviceIDs) == 0 {
		d.notifier.Error(ErrNoSelection.Error())
		return "", ErrNoSelection
	}

	if !d.acquire("stop") {
		return "", ErrInFlight
	}
	defer d.release("stop")

	status, err := d.commander.StopAutomation(ctx, models.DeviceSelection{DeviceIDs: deviceIDs})
	d.emitAudit("stop", deviceIDs, err)
	if err != nil {
		d.notifier.Error(err.Error())
		return "", err
	}

	return d.finish(ctx, status, defaultStopMessage), nil
}

// StopAll halts the entire fleet. This is a distinct operation with an
// empty scope, independent of the current selection.
func (d *Dispatcher) StopAll(ctx context.Context) (string, error) {
	if !d.acquire("stop-all") {
		return "", ErrInFlight
	}
	defer d.release("stop-all")

	status, err := d.commander.StopAutomation(ctx, models.DeviceSelection{})
	d.emitAudit("stop-all", nil, err)
	if err != nil {
		d.notifier.Error(err.Error())
		return "", err
	}

	return d.finish(ctx, status, defaultStopMessage), nil
}

// SetEnabled flips one device's enabled flag. Guarded per device so a
// double-clicked row toggle cannot race itself.
func (d *Dispatcher) SetEnabled(ctx context.Context, deviceID string, enabled bool) error {
	scope := "enable:" + deviceID
	if !d.acquire(scope) {
		return ErrInFlight
	}
	defer d.release(scope)

	var err error
	if enabled {
		_, err = d.commander.EnableAccount(ctx, deviceID)
		d.emitAudit("enable", []string{deviceID}, err)
	} else {
		_, err = d.commander.DisableAccount(ctx, deviceID)
		d.emitAudit("disable", []string{deviceID}, err)
	}
	if err != nil {
		d.notifier.Error(err.Error())
		return err
	}

	if err := d.refresher.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("post-command refresh failed")
	}
	return nil
}

// finish refreshes the snapshot and reports the confirmation message,
// preferring the server-supplied one
func (d *Dispatcher) finish(ctx context.Context, status *models.AutomationStatus, fallback string) string {
	if err := d.refresher.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("post-command refresh failed")
	}

	message := fallback
	if status != nil && status.Message != "" {
		message = status.Message
	}
	d.notifier.Success(message)
	return message
}

func (d *Dispatcher) acquire(scope string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight[scope] {
		return false
	}
	d.inFlight[scope] = true
	return true
}

func (d *Dispatcher) release(scope string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inFlight, scope)
}

func (d *Dispatcher) emitAudit(verb string, deviceIDs []string, err error) {
	d.mu.Lock()
	audits := d.audits
	d.mu.Unlock()
	for _, l := range audits {
		l(verb, deviceIDs, err)
	}
}
