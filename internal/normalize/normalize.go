// Package normalize turns raw form, JSON and XML payloads into one canonical
// key/value map. Keys are lower-cased and trimmed; values stay raw strings.
// A key that occurs more than once keeps its last value and is reported in
// Result.Duplicates; duplicates never fail a payload.
package normalize

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PratikDhanave/gamedata-server/internal/models"
)

var (
	// ErrUnsupportedMethod rejects anything other than GET and POST.
	ErrUnsupportedMethod = errors.New("unsupported request method")
	// ErrUnsupportedContentType rejects POST bodies of an unknown format.
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

// Content type fragments, matched as case-insensitive substrings.
const (
	FormContentType = "x-www-form-urlencoded"
	JSONContentType = "application/json"
	XMLContentType  = "application/xml"
)

// Result is the outcome of one normalization.
type Result struct {
	Request    models.Request
	Duplicates []string // keys seen more than once, in order of collision
}

// ParseError reports a payload that could not be parsed at all.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s payload: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Task selects the converter for a task. GET requests always use the form
// grammar against the query string. Unsupported methods and content types
// are returned as errors before any parsing is attempted.
func Task(t models.Task) (Result, error) {
	switch t.Method {
	case http.MethodGet:
		return Form(t.Payload)
	case http.MethodPost:
		ct := strings.ToLower(t.ContentType)
		switch {
		case strings.Contains(ct, FormContentType):
			return Form(t.Payload)
		case strings.Contains(ct, JSONContentType):
			return JSON(t.Payload)
		case strings.Contains(ct, XMLContentType):
			return XML(t.Payload)
		}
		return empty(), fmt.Errorf("%w: %q", ErrUnsupportedContentType, t.ContentType)
	}
	return empty(), fmt.Errorf("%w: %q", ErrUnsupportedMethod, t.Method)
}

func empty() Result {
	return Result{Request: models.Request{}}
}

type builder struct {
	req  models.Request
	dups []string
}

func newBuilder() *builder {
	return &builder{req: models.Request{}}
}

func (b *builder) put(key, value string) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}
	if _, seen := b.req[key]; seen {
		b.dups = append(b.dups, key)
	}
	b.req[key] = value
}

func (b *builder) result() Result {
	return Result{Request: b.req, Duplicates: b.dups}
}
