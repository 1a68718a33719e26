// Package processor resolves a normalized request into a typed,
// foreign-key-consistent output record.
//
// Resolution is strictly top-down: game session (by token or by codes),
// access tokens, game mission, then the player or group attempt, and finally
// the record itself. The first failing step reports an ERROR to the sink and
// ends the request without writing anything.
//
// Lookups and lazy creations are independent read-then-write calls without a
// spanning transaction. This relies on a single writer: one worker in one
// process. Two processes running the pipeline against one database may
// create duplicate sessions, players, groups or attempts.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PratikDhanave/gamedata-server/internal/errsink"
	"github.com/PratikDhanave/gamedata-server/internal/models"
)

// errRejected marks a request that was rejected and already reported.
var errRejected = errors.New("request rejected")

// Processor stores normalized requests.
type Processor struct {
	repo Repository
	sink errsink.Sink
	now  func() time.Time
	loc  *time.Location
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock sets the clock used for the play date of auto-created sessions.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// WithLocation sets the zone for date-times sent without one.
func WithLocation(loc *time.Location) Option {
	return func(p *Processor) { p.loc = loc }
}

// New returns a processor writing through repo and reporting to sink.
func New(repo Repository, sink errsink.Sink, opts ...Option) *Processor {
	p := &Processor{repo: repo, sink: sink, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Outcome describes what Store did with one request.
type Outcome struct {
	Stored bool
	Kind   models.DataKind
	Record models.Record
	ID     int64
}

// Store resolves req and writes at most one record.
//
// Validation and reference failures are reported to the sink and yield an
// Outcome with Stored false and a nil error. A non-nil error means an
// unexpected storage failure; it has not been reported yet.
func (p *Processor) Store(ctx context.Context, task models.Task, req models.Request) (Outcome, error) {
	r := &run{p: p, ctx: ctx, task: task, req: req}
	out, err := r.store()
	r.flush(out.Stored)
	if errors.Is(err, errRejected) {
		return out, nil
	}
	return out, err
}

// run holds the entity chain resolved so far for one request.
type run struct {
	p    *Processor
	ctx  context.Context
	task models.Task
	req  models.Request

	game         models.Game
	version      models.GameVersion
	organization models.Organization
	grant        models.OrganizationGame
	session      models.GameSession
	mission      models.GameMission

	player        models.Player
	playerAttempt models.PlayerAttempt
	group         models.Group
	groupAttempt  models.GroupAttempt
	groupRole     models.GroupRole

	// messages for fields that fell back to a default
	pending []string
}

func (r *run) store() (Outcome, error) {
	raw, hasData := r.req.Get("data")
	if !hasData {
		r.report(models.SeverityError, "no data element in the request")
		if len(r.req) == 0 {
			return Outcome{}, errRejected
		}
	}

	if err := r.resolveSession(); err != nil {
		return Outcome{}, err
	}
	if err := r.checkTokens(); err != nil {
		return Outcome{}, err
	}
	if err := r.resolveMission(); err != nil {
		return Outcome{}, err
	}

	kind, known := models.ParseDataKind(raw)
	if !known {
		if hasData {
			r.report(models.SeverityError, fmt.Sprintf("unknown message data type: %s", raw))
		}
		return Outcome{}, errRejected
	}

	rec, err := r.build(kind)
	if err != nil {
		return Outcome{Kind: kind}, err
	}
	id, err := r.p.repo.InsertRecord(r.ctx, rec)
	if err != nil {
		return Outcome{Kind: kind}, fmt.Errorf("store %s: %w", kind, err)
	}
	return Outcome{Stored: true, Kind: kind, Record: rec, ID: id}, nil
}

func (r *run) report(sev models.Severity, msg string) {
	r.reportStored(sev, msg, false)
}

func (r *run) reportStored(sev models.Severity, msg string, stored bool) {
	r.p.sink.Record(r.ctx, errsink.Report{
		Task:         r.task,
		Request:      r.req,
		Message:      msg,
		Severity:     sev,
		RecordStored: stored,
	})
}

// reject reports an ERROR and returns errRejected.
func (r *run) reject(format string, args ...any) error {
	r.report(models.SeverityError, fmt.Sprintf(format, args...)+r.where())
	return errRejected
}

// lookup turns a repository error into a rejection (not found) or an
// unexpected storage error.
func (r *run) lookup(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrNotFound) {
		return r.reject(format, args...)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// where names the session and game resolved so far, for messages.
func (r *run) where() string {
	switch {
	case r.session.Code != "" && r.game.Code != "":
		return fmt.Sprintf(" (game session %s, game %s)", r.session.Code, r.game.Code)
	case r.game.Code != "":
		return fmt.Sprintf(" (game %s)", r.game.Code)
	}
	return ""
}

// soft accepts a field's value and remembers its parse error, if any.
func soft[T any](r *run, f Field[T]) T {
	if f.Err != nil {
		r.pending = append(r.pending, f.Err.Error()+r.where())
	}
	return f.Value
}

// require returns a required string field or rejects the request.
func (r *run) require(key string) (string, error) {
	f := String(r.req, key, true, "")
	if !f.OK() {
		return "", r.reject("%s", f.Err.Error())
	}
	return f.Value, nil
}

// optional returns a pointer to the raw value, or nil when absent.
func (r *run) optional(key string) *string {
	v, ok := r.req.Get(key)
	if !ok {
		return nil
	}
	return &v
}

func (r *run) flush(stored bool) {
	for _, msg := range r.pending {
		r.reportStored(models.SeverityError, msg, stored)
	}
	r.pending = nil
}
