package integration

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/fleet-console/fleet-console-pro/internal/config"
	"github.com/fleet-console/fleet-console-pro/internal/models"
)

// Connect opens the NATS connection for event forwarding. Callers treat
// a nil config URL as "forwarding disabled" and never reach here.
func Connect(cfg *config.NATSConfig) (*nats.Conn, error) {
	return nats.Connect(cfg.URL,
		nats.Name("fleet-console"),
		nats.UserInfo(cfg.Username, cfg.Password),
		nats.ReconnectWait(cfg.ReconnectInterval),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("Disconnected from NATS")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Msg("Reconnected to NATS")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	)
}

// Forwarder republishes console events for external consumers: device
// log events on console.device.<id>.log and command audit records on
// console.command.<verb>. Forwarding is best effort; a publish failure
// is logged and never propagates into the console's own flow.
type Forwarder struct {
	nc *nats.Conn
}

// NewForwarder creates a forwarder over an established connection
func NewForwarder(nc *nats.Conn) *Forwarder {
	return &Forwarder{nc: nc}
}

// ForwardLogEvent publishes one device log event
func (f *Forwarder) ForwardLogEvent(event models.LogEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("encode log event for forwarding")
		return
	}

	subject := "console.device." + event.DeviceID + ".log"
	if err := f.nc.Publish(subject, data); err != nil {
		log.Warn().Str("subject", subject).Err(err).Msg("forward log event failed")
	}
}

// CommandAudit is the published record of one dispatched command
type CommandAudit struct {
	ID        uuid.UUID `json:"id"`
	Verb      string    `json:"verb"`
	DeviceIDs []string  `json:"device_ids,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// ForwardCommand publishes one command audit record
func (f *Forwarder) ForwardCommand(verb string, deviceIDs []string, cmdErr error) {
	audit := CommandAudit{
		ID:        uuid.New(),
		Verb:      verb,
		DeviceIDs: deviceIDs,
		At:        time.Now().UTC(),
	}
	if cmdErr != nil {
		audit.Error = cmdErr.Error()
	}

	data, err := json.Marshal(audit)
	if err != nil {
		log.Error().Err(err).Msg("encode command audit for forwarding")
		return
	}

	subject := "console.command." + verb
	if err := f.nc.Publish(subject, data); err != nil {
		log.Warn().Str("subject", subject).Err(err).Msg("forward command audit failed")
	}
}
