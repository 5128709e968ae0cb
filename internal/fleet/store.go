package fleet

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fleet-console/fleet-console-pro/internal/models"
)

// DefaultPollInterval is how often the fleet snapshot is refreshed
const DefaultPollInterval = 5 * time.Second

// Fetcher pulls the fleet snapshot from the backend
type Fetcher interface {
	AutomationStatus(ctx context.Context) (*models.AutomationStatus, error)
}

// RefreshHook runs after every successful refresh with a copy of the new
// snapshot. Selection reconciliation and log resubscription hang off this.
type RefreshHook func(snapshot []models.DeviceRecord)

// Store holds the most recent polled fleet snapshot. It is the single
// writer of DeviceRecords; everything handed out is a copy.
type Store struct {
	fetcher Fetcher

	// refreshMu serializes whole refresh cycles (fetch, commit, hooks).
	// The poller, the post-command refresh, and the manual refresh may
	// overlap; an older fetch must never commit after a newer one.
	refreshMu sync.Mutex

	mu          sync.RWMutex
	devices     []models.DeviceRecord
	index       map[string]int
	status      string
	message     string
	lastErr     error
	refreshedAt time.Time

	hooks []RefreshHook
}

// NewStore creates an empty snapshot store
func NewStore(fetcher Fetcher) *Store {
	return &Store{
		fetcher: fetcher,
		index:   make(map[string]int),
	}
}

// OnRefresh registers a hook. Register before the poller starts.
func (s *Store) OnRefresh(hook RefreshHook) {
	s.hooks = append(s.hooks, hook)
}

// Refresh pulls one snapshot and replaces the stored records wholesale.
// On failure the last good snapshot is retained and only the error flag
// changes, so a transient poll failure never empties the fleet view.
func (s *Store) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	status, err := s.fetcher.AutomationStatus(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.devices = status.Accounts
	s.index = make(map[string]int, len(status.Accounts))
	for i, d := range status.Accounts {
		s.index[d.DeviceID] = i
	}
	s.status = status.Status
	s.message = status.Message
	s.lastErr = nil
	s.refreshedAt = time.Now()
	snapshot := s.copySnapshotLocked()
	hooks := s.hooks
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(snapshot)
	}

	return nil
}

// Run polls on a fixed interval until the context ends. The interval does
// not depend on any UI focus state.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	if err := s.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial fleet refresh failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("fleet refresh failed, keeping last snapshot")
			}
		}
	}
}

// Snapshot returns a copy of the current records in server order
func (s *Store) Snapshot() []models.DeviceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copySnapshotLocked()
}

// Get returns a copy of one record
func (s *Store) Get(deviceID string) (models.DeviceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[deviceID]
	if !ok {
		return models.DeviceRecord{}, false
	}
	return cloneRecord(s.devices[i]), true
}

// IDs returns every known device id in server order
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.devices))
	for i, d := range s.devices {
		ids[i] = d.DeviceID
	}
	return ids
}

// EnabledIDs returns the set of devices whose enabled flag is true.
// The enabled flag, not the transient runtime status, decides whether a
// device is active for log streaming.
func (s *Store) EnabledIDs() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[string]struct{})
	for _, d := range s.devices {
		if d.Enabled {
			ids[d.DeviceID] = struct{}{}
		}
	}
	return ids
}

// LastError returns the most recent poll error, nil when the last poll
// succeeded
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// RefreshedAt returns when the last successful refresh happened
func (s *Store) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// EngineStatus returns the backend's own status and message from the last
// good snapshot
func (s *Store) EngineStatus() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.message
}

// Summary aggregates the snapshot for the dashboard cards
type Summary struct {
	Total      int `json:"total"`
	Enabled    int `json:"enabled"`
	Running    int `json:"running"`
	Errors     int `json:"errors"`
	Recent2h   int `json:"recent_2h"`
	Rolling24h int `json:"rolling_24h"`
}

// Summarize computes fleet-wide counts from the current snapshot
func (s *Store) Summarize() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{Total: len(s.devices)}
	for _, d := range s.devices {
		if d.Enabled {
			sum.Enabled++
		}
		switch d.DisplayStatus() {
		case models.StatusRunning:
			sum.Running++
		case models.StatusError:
			sum.Errors++
		}
		sum.Recent2h += d.Stats.Recent2h
		sum.Rolling24h += d.Stats.Rolling24h
	}
	return sum
}

func (s *Store) copySnapshotLocked() []models.DeviceRecord {
	snapshot := make([]models.DeviceRecord, len(s.devices))
	for i, d := range s.devices {
		snapshot[i] = cloneRecord(d)
	}
	return snapshot
}

// cloneRecord copies a record including its pointer fields, so callers
// holding a copy can never mutate the stored snapshot through them.
func cloneRecord(d models.DeviceRecord) models.DeviceRecord {
	if d.CooldownUntil != nil {
		until := *d.CooldownUntil
		d.CooldownUntil = &until
	}
	return d
}
