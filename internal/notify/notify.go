// Package notify delivers user-facing notifications about wallet actions.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cosmospool/cosmospool/internal/output"
)

// Severity classifies a notification.
type Severity string

// Severities.
const (
	Success Severity = "success"
	Error   Severity = "error"
	Info    Severity = "info"
	Warning Severity = "warning"
)

// DefaultAutoClose is how long a notification stays active before it is
// removed automatically.
const DefaultAutoClose = 5 * time.Second

// Sink receives notifications. Show returns an id that Remove accepts.
type Sink interface {
	Show(severity Severity, message, title string) string
	Remove(id string)
}

// Notification is a shown notification.
type Notification struct {
	ID        string
	Severity  Severity
	Title     string
	Message   string
	CreatedAt time.Time
}

// LogWriter is the logging surface the center needs.
type LogWriter interface {
	Debug(format string, args ...any)
}

// Recorder counts notifications, typically for metrics.
type Recorder interface {
	RecordNotification(severity string)
}

// Option configures a Center.
type Option func(*Center)

// WithAutoClose removes notifications after d. Zero keeps them until Remove.
func WithAutoClose(d time.Duration) Option {
	return func(c *Center) { c.autoClose = d }
}

// WithLogger sets the logger.
func WithLogger(l LogWriter) Option {
	return func(c *Center) { c.logger = l }
}

// WithRecorder reports every shown notification to r.
func WithRecorder(r Recorder) Option {
	return func(c *Center) { c.recorder = r }
}

// Center is a Sink that prints notifications to a writer and tracks which are active.
type Center struct {
	out       io.Writer
	autoClose time.Duration
	logger    LogWriter
	recorder  Recorder

	mu      sync.Mutex
	active  map[string]Notification
	order   []string
	history []Notification
	timers  map[string]*time.Timer
}

var _ Sink = (*Center)(nil)

// NewCenter creates a Center writing to out. A nil out discards output.
func NewCenter(out io.Writer, opts ...Option) *Center {
	if out == nil {
		out = io.Discard
	}
	c := &Center{
		out:       out,
		autoClose: DefaultAutoClose,
		active:    make(map[string]Notification),
		timers:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show implements Sink.
func (c *Center) Show(severity Severity, message, title string) string {
	if title == "" {
		title = defaultTitle(severity)
	}
	n := Notification{
		ID:        uuid.NewString(),
		Severity:  severity,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	c.active[n.ID] = n
	c.order = append(c.order, n.ID)
	c.history = append(c.history, n)
	if c.autoClose > 0 {
		id := n.ID
		c.timers[id] = time.AfterFunc(c.autoClose, func() { c.Remove(id) })
	}
	_, _ = fmt.Fprintf(c.out, "%s%s: %s\n", prefix(severity), n.Title, n.Message)
	c.mu.Unlock()

	if c.recorder != nil {
		c.recorder.RecordNotification(string(severity))
	}
	if c.logger != nil {
		c.logger.Debug("notification %s [%s] %s", n.ID, severity, n.Title)
	}
	return n.ID
}

// Remove implements Sink. Unknown ids are ignored.
func (c *Center) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.active[id]; !ok {
		return
	}
	delete(c.active, id)
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Active returns the notifications not yet removed, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.active[id])
	}
	return out
}

// History returns every notification shown, oldest first.
func (c *Center) History() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.history...)
}

// Close stops pending auto-close timers.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}

func defaultTitle(s Severity) string {
	switch s {
	case Success:
		return "Success"
	case Error:
		return "Error"
	case Warning:
		return "Warning"
	default:
		return "Info"
	}
}

func prefix(s Severity) string {
	switch s {
	case Success:
		return output.PrefixSuccess
	case Error:
		return output.PrefixError
	case Warning:
		return output.PrefixWarn
	default:
		return output.PrefixInfo
	}
}
