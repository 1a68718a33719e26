// Package errsink records errors and warnings about ingested requests.
//
// Sinks own their persistence and never fail the caller: a sink that
// cannot write logs the problem and returns.
package errsink

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/PratikDhanave/gamedata-server/internal/models"
)

// Report is the single call shape used by the pipeline and the processor.
type Report struct {
	Task         models.Task
	Request      models.Request // nil when the payload was never normalized
	Message      string
	Severity     models.Severity
	RecordStored bool
}

// Sink receives reports.
type Sink interface {
	Record(ctx context.Context, r Report)
}

// Writer persists error-log entries.
type Writer interface {
	InsertErrorEntry(ctx context.Context, e models.ErrorEntry) error
}

// Entry flattens a report into the persisted error-log shape.
func Entry(r Report) models.ErrorEntry {
	ts := time.Now()
	return models.ErrorEntry{
		Timestamp:        ts,
		Type:             r.Severity,
		RecordStored:     r.RecordStored,
		Message:          r.Message,
		RawPayload:       r.Task.Payload,
		DataType:         r.Request.Value("data"),
		SessionToken:     r.Request.Value("session_token"),
		GameSessionCode:  r.Request.Value("game_session_code"),
		GameVersionCode:  r.Request.Value("game_version_code"),
		OrganizationCode: r.Request.Value("organization_code"),
	}
}

// LogSink writes every report as one log line.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink logs through logger, or the standard logger when nil.
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(_ context.Context, r Report) {
	s.logger.Printf("%s: %s task=%s data=%q stored=%t",
		r.Severity, r.Message, r.Task.ID, r.Request.Value("data"), r.RecordStored)
}

// StoreSink persists reports through a Writer.
type StoreSink struct {
	w      Writer
	logger *log.Logger
}

// NewStoreSink wraps w; write failures are logged through logger.
func NewStoreSink(w Writer, logger *log.Logger) *StoreSink {
	if logger == nil {
		logger = log.Default()
	}
	return &StoreSink{w: w, logger: logger}
}

func (s *StoreSink) Record(ctx context.Context, r Report) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Printf("errsink: panic while storing report for task %s: %v", r.Task.ID, p)
		}
	}()
	if err := s.w.InsertErrorEntry(ctx, Entry(r)); err != nil {
		s.logger.Printf("errsink: store report for task %s: %v (message: %s)", r.Task.ID, err, r.Message)
	}
}

// Multi fans a report out to several sinks in order.
type Multi []Sink

func (m Multi) Record(ctx context.Context, r Report) {
	for _, s := range m {
		if s != nil {
			s.Record(ctx, r)
		}
	}
}

// Collector keeps reports in memory. It backs the status endpoint's recent
// error view and is convenient in tests.
type Collector struct {
	mu      sync.Mutex
	reports []Report
	limit   int
}

// NewCollector keeps at most limit reports (0 keeps everything).
func NewCollector(limit int) *Collector {
	return &Collector{limit: limit}
}

func (c *Collector) Record(_ context.Context, r Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, r)
	if c.limit > 0 && len(c.reports) > c.limit {
		c.reports = c.reports[len(c.reports)-c.limit:]
	}
}

// Reports returns a copy of the retained reports, oldest first.
func (c *Collector) Reports() []Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Report, len(c.reports))
	copy(out, c.reports)
	return out
}

// Count returns how many retained reports have the given severity.
func (c *Collector) Count(sev models.Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.reports {
		if r.Severity == sev {
			n++
		}
	}
	return n
}
