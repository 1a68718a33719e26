package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task is one accepted-but-unprocessed storage request.
// It is created by the HTTP layer and consumed exactly once by the worker.
type Task struct {
	ID          string
	Method      string // GET or POST; anything else is rejected downstream
	ContentType string // lower-cased Content-Type header
	Payload     string // raw query string (GET) or body (POST)
	Timestamp   time.Time
}

// NewTask builds a task stamped with the current time.
// The timestamp is the default for any event that carries no explicit time.
func NewTask(method, contentType, payload string) Task {
	return NewTaskAt(method, contentType, payload, time.Now())
}

// NewTaskAt builds a task with an explicit receipt time.
func NewTaskAt(method, contentType, payload string, ts time.Time) Task {
	if ts.IsZero() {
		ts = time.Now()
	}
	return Task{
		ID:          uuid.NewString(),
		Method:      strings.ToUpper(strings.TrimSpace(method)),
		ContentType: strings.ToLower(strings.TrimSpace(contentType)),
		Payload:     payload,
		Timestamp:   ts,
	}
}

// Request is the canonical key/value map produced by normalization.
// Keys are lower-cased; values are raw strings parsed on demand.
type Request map[string]string

// Get returns the value stored under key (case-insensitive).
func (r Request) Get(key string) (string, bool) {
	v, ok := r[strings.ToLower(key)]
	return v, ok
}

// Has reports whether key is present, even with an empty value.
func (r Request) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Value returns the stored value or "".
func (r Request) Value(key string) string {
	v, _ := r.Get(key)
	return v
}
