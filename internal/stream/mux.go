package stream

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/fleet-console/fleet-console-pro/internal/models"
	"github.com/fleet-console/fleet-console-pro/internal/remote"
)

// BufferSize is how many events each device's ring buffer keeps,
// newest first
const BufferSize = 3

// Subscription is one open per-device log stream
type Subscription interface {
	Close() error
}

// Dialer opens a log stream for one device
type Dialer interface {
	Subscribe(ctx context.Context, deviceID string, handler func(models.LogEvent), onClose func(error)) (Subscription, error)
}

// remoteDialer adapts the backend client to the Dialer interface
type remoteDialer struct {
	client *remote.Client
}

// NewRemoteDialer wraps the backend client for use by the multiplexer
func NewRemoteDialer(client *remote.Client) Dialer {
	return &remoteDialer{client: client}
}

func (d *remoteDialer) Subscribe(ctx context.Context, deviceID string, handler func(models.LogEvent), onClose func(error)) (Subscription, error) {
	return d.client.SubscribeLogs(ctx, deviceID, remote.LogHandler(handler), remote.CloseHandler(onClose))
}

// Listener observes every event accepted into any buffer
type Listener func(models.LogEvent)

// Mux owns one log subscription per active device and the per-device
// ring buffers. A device is active iff its latest snapshot record has
// the enabled flag set; activity is a domain state, not a UI lifecycle,
// so subscriptions survive pagination and re-renders.
type Mux struct {
	dialer Dialer

	mu        sync.Mutex
	subs      map[string]Subscription
	buffers   map[string][]models.LogEvent
	listeners []Listener
}

// NewMux creates a multiplexer with no active devices
func NewMux(dialer Dialer) *Mux {
	return &Mux{
		dialer:  dialer,
		subs:    make(map[string]Subscription),
		buffers: make(map[string][]models.LogEvent),
	}
}

// AddListener registers a fan-out observer. Register before streams open.
func (m *Mux) AddListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// SetActiveDevices reconciles open subscriptions against the given set:
// newly active ids get exactly one subscription, ids no longer active
// (including ids that left the fleet) lose their subscription and their
// buffer. Calling it with an unchanged set is a no-op.
func (m *Mux) SetActiveDevices(ctx context.Context, active map[string]struct{}) {
	m.mu.Lock()

	var stale []string
	for id := range m.buffers {
		if _, ok := active[id]; !ok {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		if sub, ok := m.subs[id]; ok {
			sub.Close()
			delete(m.subs, id)
		}
		delete(m.buffers, id)
		log.Debug().Str("device_id", id).Msg("log stream deactivated")
	}

	var fresh []string
	for id := range active {
		if _, ok := m.subs[id]; !ok {
			fresh = append(fresh, id)
		}
		if _, ok := m.buffers[id]; !ok {
			m.buffers[id] = nil
		}
	}
	m.mu.Unlock()

	// dial outside the lock; event delivery takes it again
	for _, id := range fresh {
		id := id
		sub, err := m.dialer.Subscribe(ctx, id,
			func(event models.LogEvent) { m.onEvent(id, event) },
			func(err error) { m.onStreamClosed(id, err) },
		)
		if err != nil {
			log.Warn().Str("device_id", id).Err(err).Msg("log stream dial failed")
			continue
		}

		m.mu.Lock()
		if _, stillActive := m.buffers[id]; !stillActive {
			// deactivated while dialing
			m.mu.Unlock()
			sub.Close()
			continue
		}
		if old, ok := m.subs[id]; ok {
			// never hold two subscriptions for one device
			old.Close()
		}
		m.subs[id] = sub
		m.mu.Unlock()
	}
}

// onEvent prepends the event to the device buffer and truncates to the
// newest BufferSize entries
func (m *Mux) onEvent(deviceID string, event models.LogEvent) {
	m.mu.Lock()
	buf, active := m.buffers[deviceID]
	if !active {
		// late event after deactivation
		m.mu.Unlock()
		return
	}

	buf = append([]models.LogEvent{event}, buf...)
	if len(buf) > BufferSize {
		buf = buf[:BufferSize]
	}
	m.buffers[deviceID] = buf
	listeners := m.listeners
	m.mu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}

// onStreamClosed drops the broken subscription for one device. Other
// devices and the REST poll are untouched; the next reconciliation cycle
// reopens the stream if the device is still active.
func (m *Mux) onStreamClosed(deviceID string, err error) {
	if err == nil {
		return
	}
	log.Warn().Str("device_id", deviceID).Err(err).Msg("log stream closed with error")

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, deviceID)
}

// Buffer returns a copy of the device's buffered events, newest first
func (m *Mux) Buffer(deviceID string) []models.LogEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := m.buffers[deviceID]
	out := make([]models.LogEvent, len(buf))
	copy(out, buf)
	return out
}

// ActiveCount returns how many subscriptions are currently open
func (m *Mux) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Close tears down every subscription and buffer
func (m *Mux) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, sub := range m.subs {
		sub.Close()
		delete(m.subs, id)
	}
	m.buffers = make(map[string][]models.LogEvent)
}
