package normalize

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	errInvalidJSON = errors.New("invalid JSON")
	errNotObject   = errors.New("JSON payload is not an object")
)

// JSON parses a JSON object. A bare field list without the outer braces is
// accepted and wrapped. Each value is taken in its string form: strings
// unquoted, null as "", nested objects and arrays as their raw JSON.
func JSON(payload string) (Result, error) {
	s := strings.TrimSpace(payload)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		s = "{" + s + "}"
	}
	if !gjson.Valid(s) {
		return empty(), &ParseError{Format: "json", Err: errInvalidJSON}
	}
	doc := gjson.Parse(s)
	if !doc.IsObject() {
		return empty(), &ParseError{Format: "json", Err: errNotObject}
	}

	// ForEach walks the raw object, so repeated keys are visited in order.
	b := newBuilder()
	doc.ForEach(func(key, value gjson.Result) bool {
		b.put(key.String(), jsonString(value))
		return true
	})
	return b.result(), nil
}

func jsonString(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.JSON:
		return v.Raw
	}
	return v.String()
}
