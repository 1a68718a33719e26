package errsink

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/PratikDhanave/gamedata-server/internal/models"
)

type failingWriter struct{ panics bool }

func (w failingWriter) InsertErrorEntry(context.Context, models.ErrorEntry) error {
	if w.panics {
		panic("boom")
	}
	return errors.New("db down")
}

type captureWriter struct{ entries []models.ErrorEntry }

func (w *captureWriter) InsertErrorEntry(_ context.Context, e models.ErrorEntry) error {
	w.entries = append(w.entries, e)
	return nil
}

func sampleReport() Report {
	return Report{
		Task: models.NewTask("POST", "application/json", `{"data":"player_event"}`),
		Request: models.Request{
			"data":              "player_event",
			"game_session_code": "s1",
			"game_version_code": "v1",
			"organization_code": "tud",
		},
		Message:  "No record found for game g1",
		Severity: models.SeverityError,
	}
}

func TestEntry_CopiesRequestIdentity(t *testing.T) {
	e := Entry(sampleReport())
	if e.Type != models.SeverityError || e.RecordStored {
		t.Fatalf("unexpected severity/flag: %+v", e)
	}
	if e.DataType != "player_event" || e.GameSessionCode != "s1" || e.GameVersionCode != "v1" || e.OrganizationCode != "tud" {
		t.Fatalf("identity not copied: %+v", e)
	}
	if e.SessionToken != "" {
		t.Fatalf("absent session token must stay empty, got %q", e.SessionToken)
	}
	if e.RawPayload != `{"data":"player_event"}` {
		t.Fatalf("raw payload not kept: %q", e.RawPayload)
	}
	if e.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}
}

func TestEntry_NilRequest(t *testing.T) {
	r := sampleReport()
	r.Request = nil
	if e := Entry(r); e.DataType != "" {
		t.Fatalf("expected empty data type got %q", e.DataType)
	}
}

func TestStoreSink_SwallowsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	NewStoreSink(failingWriter{}, logger).Record(context.Background(), sampleReport())
	NewStoreSink(failingWriter{panics: true}, logger).Record(context.Background(), sampleReport())

	out := buf.String()
	if !strings.Contains(out, "db down") || !strings.Contains(out, "panic") {
		t.Fatalf("failures should be logged, got %q", out)
	}
}

func TestMulti_FansOut(t *testing.T) {
	w := &captureWriter{}
	c := NewCollector(0)
	var buf bytes.Buffer

	Multi{NewLogSink(log.New(&buf, "", 0)), NewStoreSink(w, nil), c, nil}.Record(context.Background(), sampleReport())

	if len(w.entries) != 1 || len(c.Reports()) != 1 {
		t.Fatalf("expected one entry per sink, got %d and %d", len(w.entries), len(c.Reports()))
	}
	if !strings.HasPrefix(buf.String(), "ERROR: No record found") {
		t.Fatalf("unexpected log line %q", buf.String())
	}
}

func TestCollector_Limit(t *testing.T) {
	c := NewCollector(2)
	for _, msg := range []string{"a", "b", "c"} {
		r := sampleReport()
		r.Message = msg
		c.Record(context.Background(), r)
	}
	got := c.Reports()
	if len(got) != 2 || got[0].Message != "b" || got[1].Message != "c" {
		t.Fatalf("expected [b c] got %+v", got)
	}
	if c.Count(models.SeverityError) != 2 || c.Count(models.SeverityWarning) != 0 {
		t.Fatal("unexpected counts")
	}
}
