// Package pipeline owns the ingestion queue and the single background worker
// that drains it.
//
// The worker is started once and stopped once. Stopping is immediate: the
// task in flight sees a cancelled context and waiting tasks are discarded.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/PratikDhanave/gamedata-server/internal/errsink"
	"github.com/PratikDhanave/gamedata-server/internal/models"
	"github.com/PratikDhanave/gamedata-server/internal/processor"
	"github.com/PratikDhanave/gamedata-server/internal/queue"
)

// State is the worker lifecycle state.
type State int32

const (
	NotStarted State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

var (
	ErrStopped    = errors.New("pipeline stopped")
	ErrNotRunning = errors.New("pipeline not running")
)

// Backend is the storage the worker needs once it runs.
type Backend struct {
	Repo    processor.Repository
	Errors  errsink.Writer              // optional; reports are only logged when nil
	Ping    func(context.Context) error // optional
	Release func()                      // optional; called after the worker exits
}

// OpenFunc acquires the backend when processing starts.
type OpenFunc func(ctx context.Context) (Backend, error)

// Stats are cumulative worker counters.
type Stats struct {
	Processed uint64 `json:"processed"`
	Stored    uint64 `json:"stored"`
	Rejected  uint64 `json:"rejected"`
	Failed    uint64 `json:"failed"`
}

// Pipeline connects the intake to the worker.
type Pipeline struct {
	queue    *queue.Queue
	open     OpenFunc
	sink     errsink.Sink
	recent   *errsink.Collector
	logger   *log.Logger
	procOpts []processor.Option

	startMu    sync.Mutex // serializes StartProcessing
	mu         sync.Mutex
	state      State
	startupErr error
	backend    Backend
	cancel     context.CancelFunc
	worker     bool
	done       chan struct{}
	doneOnce   sync.Once

	active    atomic.Bool
	processed atomic.Uint64
	stored    atomic.Uint64
	rejected  atomic.Uint64
	failed    atomic.Uint64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSink adds a sink that receives every report.
func WithSink(s errsink.Sink) Option {
	return func(p *Pipeline) { p.sink = errsink.Multi{p.sink, s} }
}

// WithLogger sets the logger used for lifecycle lines and logged reports.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithProcessorOptions passes options to the processor built at start.
func WithProcessorOptions(opts ...processor.Option) Option {
	return func(p *Pipeline) { p.procOpts = append(p.procOpts, opts...) }
}

// WithRecent keeps the last n reports for status reporting.
func WithRecent(n int) Option {
	return func(p *Pipeline) { p.recent = errsink.NewCollector(n) }
}

// New returns a pipeline that opens its backend through open.
func New(open OpenFunc, opts ...Option) *Pipeline {
	p := &Pipeline{
		queue:  queue.New(),
		open:   open,
		recent: errsink.NewCollector(50),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	return p
}

// Enqueue hands a task to the worker. It never blocks.
func (p *Pipeline) Enqueue(task models.Task) {
	p.queue.Enqueue(task)
}

// StartProcessing opens the backend and starts the worker. Calling it while
// running is a no-op. A failure to open the backend is kept as the startup
// error and returned; the worker stays not started. The backend is opened
// without holding the state lock, so status readers never wait on it.
func (p *Pipeline) StartProcessing(ctx context.Context) error {
	p.startMu.Lock()
	defer p.startMu.Unlock()

	p.mu.Lock()
	state := p.state
	p.mu.Unlock()
	switch state {
	case Running:
		return nil
	case Stopped:
		return ErrStopped
	}

	b, err := p.openBackend(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Stopped {
		if err == nil && b.Release != nil {
			b.Release()
		}
		return ErrStopped
	}
	if err != nil {
		p.startupErr = err
		p.logger.Printf("pipeline: not started: %v", err)
		return err
	}
	p.startupErr = nil
	p.backend = b

	sink := errsink.Multi{errsink.NewLogSink(p.logger), p.recent, p.sink}
	if b.Errors != nil {
		sink = append(sink, errsink.NewStoreSink(b.Errors, p.logger))
	}
	proc := processor.New(b.Repo, sink, p.procOpts...)

	wctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.state = Running
	p.worker = true
	go p.loop(wctx, proc, sink, b)

	p.logger.Printf("pipeline: worker started")
	return nil
}

func (p *Pipeline) openBackend(ctx context.Context) (Backend, error) {
	if p.open == nil {
		return Backend{}, errors.New("no storage backend configured")
	}
	b, err := p.open(ctx)
	if err != nil {
		return Backend{}, err
	}
	if b.Repo == nil {
		if b.Release != nil {
			b.Release()
		}
		return Backend{}, errors.New("storage backend has no repository")
	}
	return b, nil
}

// StopProcessing stops the worker without draining the queue. It does not
// wait for the in-flight task; use Done for that.
func (p *Pipeline) StopProcessing() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = Stopped
	if p.cancel != nil {
		p.cancel()
	}
	p.queue.Close()
	if !p.worker {
		p.closeDone()
	}
}

// Done is closed once the worker has exited, or at stop when it never ran.
func (p *Pipeline) Done() <-chan struct{} { return p.done }

func (p *Pipeline) closeDone() {
	p.doneOnce.Do(func() { close(p.done) })
}

// IsActive reports whether the worker is handling a task right now. It is a
// best-effort liveness signal.
func (p *Pipeline) IsActive() bool { return p.active.Load() }

// State returns the lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// StartupError returns why the worker could not start, if it could not.
func (p *Pipeline) StartupError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startupErr
}

// Ready returns nil when the worker runs and its backend answers.
func (p *Pipeline) Ready(ctx context.Context) error {
	p.mu.Lock()
	state, startupErr, ping := p.state, p.startupErr, p.backend.Ping
	p.mu.Unlock()

	if startupErr != nil {
		return startupErr
	}
	if state != Running {
		return fmt.Errorf("%w: %s", ErrNotRunning, state)
	}
	if ping != nil {
		return ping(ctx)
	}
	return nil
}

// QueueLen returns the number of waiting tasks.
func (p *Pipeline) QueueLen() int { return p.queue.Len() }

// Stats returns the worker counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Processed: p.processed.Load(),
		Stored:    p.stored.Load(),
		Rejected:  p.rejected.Load(),
		Failed:    p.failed.Load(),
	}
}

// Recent returns the most recent reports, oldest first.
func (p *Pipeline) Recent() []errsink.Report { return p.recent.Reports() }
