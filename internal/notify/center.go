package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fleet-console/fleet-console-pro/internal/models"
)

// defaultCapacity bounds how many notifications the center retains
const defaultCapacity = 100

// Listener observes every published notification
type Listener func(models.Notification)

// Center is the in-memory operator notification feed. Publishing never
// blocks and never panics the console; failed calls become entries here,
// not crashes.
type Center struct {
	mu        sync.Mutex
	entries   []models.Notification
	capacity  int
	listeners []Listener
}

// NewCenter creates a notification center with the default capacity
func NewCenter() *Center {
	return &Center{capacity: defaultCapacity}
}

// OnNotify registers a listener. Register before concurrent use.
func (c *Center) OnNotify(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Success publishes a success notification
func (c *Center) Success(message string) {
	c.publish(models.NotificationSuccess, message)
}

// Error publishes an error notification
func (c *Center) Error(message string) {
	c.publish(models.NotificationError, message)
}

// Info publishes an informational notification
func (c *Center) Info(message string) {
	c.publish(models.NotificationInfo, message)
}

// Recent returns up to limit notifications, newest first
func (c *Center) Recent(limit int) []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]models.Notification, limit)
	for i := 0; i < limit; i++ {
		out[i] = c.entries[n-1-i]
	}
	return out
}

func (c *Center) publish(level models.NotificationLevel, message string) {
	entry := models.Notification{
		ID:        uuid.New(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	c.entries = append(c.entries, entry)
	if len(c.entries) > c.capacity {
		c.entries = c.entries[len(c.entries)-c.capacity:]
	}
	listeners := c.listeners
	c.mu.Unlock()

	log.Debug().Str("level", string(level)).Str("message", message).Msg("notification")
	for _, l := range listeners {
		l(entry)
	}
}
