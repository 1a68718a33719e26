package processor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PratikDhanave/gamedata-server/internal/models"
)

// FieldError describes a field that was missing or could not be parsed.
type FieldError struct {
	Key      string
	Expected string
	Raw      string
	Missing  bool
}

func (e *FieldError) Error() string {
	if e.Missing {
		return fmt.Sprintf("no tag %s found", e.Key)
	}
	return fmt.Sprintf("value %q for key %s is not a valid %s", e.Raw, e.Key, e.Expected)
}

// Field is the result of reading one typed field from a request.
//
// A missing required field has Err set and the zero Value. A missing
// optional field has the default Value and no error. A present field that
// fails to parse has Err set and the default Value as a fallback.
type Field[T any] struct {
	Value   T
	Present bool
	Err     *FieldError
}

// OK reports whether the field can be used as-is.
func (f Field[T]) OK() bool { return f.Err == nil }

// Expected formats named in parse errors.
const (
	kindString   = "string"
	kindInteger  = "integer"
	kindDouble   = "double"
	kindBoolean  = "boolean (0 or non-zero integer)"
	kindDateTime = "ISO-8601 date-time, e.g. 2024-12-03T10:15:30"
)

func parseField[T any](req models.Request, key string, required bool, def T, expected string, parse func(string) (T, error)) Field[T] {
	raw, ok := req.Get(key)
	if !ok {
		if required {
			var zero T
			return Field[T]{Value: zero, Err: &FieldError{Key: key, Expected: expected, Missing: true}}
		}
		return Field[T]{Value: def}
	}
	v, err := parse(raw)
	if err != nil {
		return Field[T]{Value: def, Present: true, Err: &FieldError{Key: key, Expected: expected, Raw: raw}}
	}
	return Field[T]{Value: v, Present: true}
}

// String reads a string field.
func String(req models.Request, key string, required bool, def string) Field[string] {
	return parseField(req, key, required, def, kindString, func(s string) (string, error) { return s, nil })
}

// Int reads a decimal integer field.
func Int(req models.Request, key string, required bool, def int) Field[int] {
	return parseField(req, key, required, def, kindInteger, func(s string) (int, error) {
		return strconv.Atoi(strings.TrimSpace(s))
	})
}

// Float reads a floating point field. "NaN" parses to NaN.
func Float(req models.Request, key string, required bool, def float64) Field[float64] {
	return parseField(req, key, required, def, kindDouble, func(s string) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	})
}

// Bool reads a boolean encoded as an integer: 0 is false, anything else true.
func Bool(req models.Request, key string, required bool, def bool) Field[bool] {
	return parseField(req, key, required, def, kindBoolean, func(s string) (bool, error) {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return false, err
		}
		return n != 0, nil
	})
}

// DateTime reads an ISO-8601 date-time. Values without a zone are read in loc.
func DateTime(req models.Request, key string, required bool, def time.Time, loc *time.Location) Field[time.Time] {
	return parseField(req, key, required, def, kindDateTime, func(s string) (time.Time, error) {
		return parseDateTime(s, loc)
	})
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

var errDateTime = errors.New("not an ISO-8601 date-time")

func parseDateTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errDateTime
}
