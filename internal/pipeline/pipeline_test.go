package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PratikDhanave/gamedata-server/internal/models"
	"github.com/PratikDhanave/gamedata-server/internal/store/memstore"
)

const baseQuery = "data=mission_event&game_session_code=s1&game_code=g1&game_version_code=v1&organization_code=tud&game_mission=m1&value=v"

func seed() *memstore.Store {
	st := memstore.New()
	g := st.AddGame(models.Game{Code: "g1"})
	o := st.AddOrganization(models.Organization{Code: "tud"})
	v := st.AddGameVersion(models.GameVersion{GameID: g.ID, Code: "v1"})
	st.AddOrganizationGame(models.OrganizationGame{OrganizationID: o.ID, GameID: g.ID, AnonymousSessions: true})
	st.AddGameMission(models.GameMission{GameVersionID: v.ID, Code: "m1"})
	return st
}

type panicky struct {
	*memstore.Store
}

func (p panicky) GameByCode(ctx context.Context, code string) (models.Game, error) {
	if code == "boom" {
		panic("poisoned lookup")
	}
	return p.Store.GameByCode(ctx, code)
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func start(t *testing.T, backend Backend) *Pipeline {
	t.Helper()
	p := New(func(context.Context) (Backend, error) { return backend, nil }, WithLogger(quietLogger()))
	if err := p.StartProcessing(context.Background()); err != nil {
		t.Fatalf("StartProcessing: %v", err)
	}
	t.Cleanup(func() {
		p.StopProcessing()
		<-p.Done()
	})
	return p
}

func waitProcessed(t *testing.T, p *Pipeline, n uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.Stats().Processed >= n && p.QueueLen() == 0 && !p.IsActive() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out: %+v, queue %d", p.Stats(), p.QueueLen())
}

func TestProcessesTasksInOrder(t *testing.T) {
	st := seed()
	p := start(t, Backend{Repo: st, Errors: st})

	for _, k := range []string{"k1", "k2", "k3"} {
		p.Enqueue(models.NewTask("GET", "", baseQuery+"&key="+k))
	}
	waitProcessed(t, p, 3)

	recs := st.Records()
	if len(recs) != 3 {
		t.Fatalf("expected 3 records got %d (reports %+v)", len(recs), p.Recent())
	}
	for i, want := range []string{"k1", "k2", "k3"} {
		if got := recs[i].(models.MissionEvent).Key; got != want {
			t.Fatalf("record %d: expected %s got %s", i, want, got)
		}
	}
	if s := p.Stats(); s.Stored != 3 || s.Rejected != 0 || s.Failed != 0 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestSurvivesPoisonTask(t *testing.T) {
	st := seed()
	p := start(t, Backend{Repo: panicky{st}, Errors: st})

	poison := strings.Replace(baseQuery, "game_code=g1", "game_code=boom", 1) + "&key=k"
	p.Enqueue(models.NewTask("GET", "", poison))
	p.Enqueue(models.NewTask("GET", "", baseQuery+"&key=after"))
	waitProcessed(t, p, 2)

	if s := p.Stats(); s.Failed != 1 || s.Stored != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
	entries := st.ErrorEntries()
	if len(entries) != 1 || !strings.Contains(entries[0].Message, "poisoned lookup") || entries[0].Type != models.SeverityError {
		t.Fatalf("expected one persisted ERROR for the panic, got %+v", entries)
	}
	if entries[0].GameSessionCode != "s1" || entries[0].DataType != "mission_event" {
		t.Fatalf("report should carry the normalized request: %+v", entries[0])
	}
}

func TestRejectsUnsupportedRequests(t *testing.T) {
	st := seed()
	p := start(t, Backend{Repo: st, Errors: st})

	p.Enqueue(models.NewTask("PUT", "application/json", `{"data":"mission_event"}`))
	p.Enqueue(models.NewTask("POST", "text/plain", "data=mission_event"))
	waitProcessed(t, p, 2)

	entries := st.ErrorEntries()
	if len(entries) != 2 {
		t.Fatalf("expected two errors got %+v", entries)
	}
	if !strings.Contains(entries[0].Message, "unsupported request method") ||
		!strings.Contains(entries[1].Message, "unsupported content type") {
		t.Fatalf("unexpected messages %+v", entries)
	}
	if entries[0].RawPayload != `{"data":"mission_event"}` || entries[0].DataType != "" {
		t.Fatalf("rejected before normalization: %+v", entries[0])
	}
	if s := p.Stats(); s.Rejected != 2 || len(st.Records()) != 0 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestDuplicateKeysWarnAndParseErrorsReport(t *testing.T) {
	st := seed()
	p := start(t, Backend{Repo: st, Errors: st})

	p.Enqueue(models.NewTask("GET", "", baseQuery+"&key=first&key=second"))
	p.Enqueue(models.NewTask("POST", "application/json", `{"data": `))
	waitProcessed(t, p, 2)

	recs := st.Records()
	if len(recs) != 1 || recs[0].(models.MissionEvent).Key != "second" {
		t.Fatalf("last duplicate should win: %+v", recs)
	}

	var warnings, errs []models.ErrorEntry
	for _, e := range st.ErrorEntries() {
		if e.Type == models.SeverityWarning {
			warnings = append(warnings, e)
		} else {
			errs = append(errs, e)
		}
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "duplicate key key") || warnings[0].RecordStored {
		t.Fatalf("unexpected warnings %+v", warnings)
	}
	if len(errs) != 2 || !strings.Contains(errs[0].Message, "cannot parse json") ||
		errs[1].Message != "no data element in the request" {
		t.Fatalf("unexpected errors %+v", errs)
	}
}

func TestStartupError(t *testing.T) {
	boom := errors.New("database credentials missing")
	p := New(func(context.Context) (Backend, error) { return Backend{}, boom }, WithLogger(quietLogger()))

	if err := p.StartProcessing(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected startup error, got %v", err)
	}
	if p.State() != NotStarted || !errors.Is(p.StartupError(), boom) {
		t.Fatalf("state %s, startup error %v", p.State(), p.StartupError())
	}
	if err := p.Ready(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("not ready expected, got %v", err)
	}

	// tasks are still accepted while the worker is down
	p.Enqueue(models.NewTask("GET", "", "data=x"))
	if p.QueueLen() != 1 {
		t.Fatalf("expected queued task, have %d", p.QueueLen())
	}

	p.StopProcessing()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed for a pipeline that never ran")
	}
}

func TestLifecycle(t *testing.T) {
	var opened, released atomic.Int32
	var pinged atomic.Bool
	st := seed()
	p := New(func(context.Context) (Backend, error) {
		opened.Add(1)
		return Backend{
			Repo:    st,
			Ping:    func(context.Context) error { pinged.Store(true); return nil },
			Release: func() { released.Add(1) },
		}, nil
	}, WithLogger(quietLogger()))

	if p.State() != NotStarted {
		t.Fatalf("unexpected state %s", p.State())
	}
	if err := p.Ready(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := p.StartProcessing(context.Background()); err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
	}
	if opened.Load() != 1 || p.State() != Running {
		t.Fatalf("start must be idempotent: opened %d, state %s", opened.Load(), p.State())
	}
	if err := p.Ready(context.Background()); err != nil || !pinged.Load() {
		t.Fatalf("ready should ping the backend: %v", err)
	}

	p.StopProcessing()
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	if p.State() != Stopped || released.Load() != 1 || p.IsActive() {
		t.Fatalf("state %s, released %d", p.State(), released.Load())
	}
	if err := p.StartProcessing(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("restart after stop must fail, got %v", err)
	}

	// no draining: tasks enqueued after stop are discarded
	p.Enqueue(models.NewTask("GET", "", baseQuery+"&key=late"))
	if p.QueueLen() != 0 || len(st.Records()) != 0 {
		t.Fatal("stopped pipeline must not accept work")
	}
}

func TestStatusReadersDoNotWaitForSlowOpen(t *testing.T) {
	st := seed()
	opening := make(chan struct{})
	unblock := make(chan struct{})
	var released atomic.Bool
	p := New(func(context.Context) (Backend, error) {
		close(opening)
		<-unblock
		return Backend{Repo: st, Release: func() { released.Store(true) }}, nil
	}, WithLogger(quietLogger()))

	startErr := make(chan error, 1)
	go func() { startErr <- p.StartProcessing(context.Background()) }()
	<-opening

	readers := make(chan struct{})
	go func() {
		_ = p.State()
		_ = p.StartupError()
		_ = p.Ready(context.Background())
		close(readers)
	}()
	select {
	case <-readers:
	case <-time.After(time.Second):
		close(unblock)
		t.Fatal("status readers blocked while the backend was opening")
	}
	if p.State() != NotStarted {
		t.Fatalf("expected not_started while opening, got %s", p.State())
	}

	p.StopProcessing()
	close(unblock)
	if err := <-startErr; !errors.Is(err, ErrStopped) {
		t.Fatalf("start racing a stop should report ErrStopped, got %v", err)
	}
	if !released.Load() {
		t.Fatal("backend opened after stop must be released")
	}
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed")
	}
}
