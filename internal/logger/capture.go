package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// Record is one captured log line from a plugin or action execution.
type Record struct {
	Level   string
	Message string
}

// Capture collects log records emitted through a logger derived with
// WithCapture. Safe for concurrent use; records keep emission order.
type Capture struct {
	mu      sync.Mutex
	records []Record
}

// Records returns a copy of all captured records.
func (c *Capture) Records() []Record {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

func (c *Capture) append(record Record) {
	c.mu.Lock()
	c.records = append(c.records, record)
	c.mu.Unlock()
}

type captureHook struct {
	capture *Capture
}

func (h captureHook) Run(_ *zerolog.Event, level zerolog.Level, message string) {
	if h.capture == nil || level == zerolog.Disabled {
		return
	}
	h.capture.append(Record{Level: level.String(), Message: message})
}
