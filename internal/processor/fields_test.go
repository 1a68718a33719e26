package processor

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/PratikDhanave/gamedata-server/internal/models"
)

func TestFieldContract(t *testing.T) {
	req := models.Request{"n": "12", "bad": "twelve", "s": "x"}

	// absent + required: error, nothing usable
	f := Int(req, "missing", true, 7)
	if f.OK() || !f.Err.Missing || f.Value != 0 {
		t.Fatalf("required missing: %+v", f)
	}

	// absent + optional: default, no error
	f = Int(req, "missing", false, 7)
	if !f.OK() || f.Present || f.Value != 7 {
		t.Fatalf("optional missing: %+v", f)
	}

	// present + valid
	f = Int(req, "N", true, 7)
	if !f.OK() || !f.Present || f.Value != 12 {
		t.Fatalf("present: %+v", f)
	}

	// present + invalid: error naming the key, default as fallback
	f = Int(req, "bad", false, 7)
	if f.OK() || f.Value != 7 || f.Err.Key != "bad" || f.Err.Raw != "twelve" || f.Err.Missing {
		t.Fatalf("invalid: %+v", f)
	}
	if msg := f.Err.Error(); msg != `value "twelve" for key bad is not a valid integer` {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestBoolField(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
		ok   bool
	}{
		{"0", false, true},
		{"1", true, true},
		{"-3", true, true},
		{" 2 ", true, true},
		{"true", false, false},
	}
	for _, tc := range cases {
		f := Bool(models.Request{"b": tc.raw}, "b", false, false)
		if f.OK() != tc.ok || f.Value != tc.want {
			t.Fatalf("%q: expected (%v, ok=%v) got %+v", tc.raw, tc.want, tc.ok, f)
		}
	}
}

func TestFloatField_NaNSentinel(t *testing.T) {
	f := Float(models.Request{}, "delta", false, math.NaN())
	if !f.OK() || !math.IsNaN(f.Value) {
		t.Fatalf("absent delta should keep NaN default: %+v", f)
	}
	if nullable(f.Value) != nil {
		t.Fatal("NaN must map to nil")
	}

	f = Float(models.Request{"delta": "-2.5"}, "delta", false, math.NaN())
	if p := nullable(f.Value); p == nil || *p != -2.5 {
		t.Fatalf("expected -2.5 got %+v", f)
	}
}

func TestDateTimeField(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	def := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		raw  string
		want time.Time
	}{
		{"2024-12-03T10:15:30", time.Date(2024, 12, 3, 10, 15, 30, 0, loc)},
		{"2024-12-03T10:15:30.250", time.Date(2024, 12, 3, 10, 15, 30, 250_000_000, loc)},
		{"2024-12-03T10:15", time.Date(2024, 12, 3, 10, 15, 0, 0, loc)},
		{"2024-12-03T10:15:30Z", time.Date(2024, 12, 3, 10, 15, 30, 0, time.UTC)},
	}
	for _, tc := range cases {
		f := DateTime(models.Request{"timestamp": tc.raw}, "timestamp", false, def, loc)
		if !f.OK() || !f.Value.Equal(tc.want) {
			t.Fatalf("%s: expected %v got %+v", tc.raw, tc.want, f)
		}
	}

	f := DateTime(models.Request{"timestamp": "03-12-2024"}, "timestamp", false, def, loc)
	if f.OK() || !f.Value.Equal(def) {
		t.Fatalf("invalid date should fall back to default: %+v", f)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 45); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	long := strings.Repeat("é", 50)
	if got := []rune(truncate(long, 45)); len(got) != 45 {
		t.Fatalf("expected 45 runes got %d", len(got))
	}
}
