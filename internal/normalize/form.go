package normalize

import (
	"net/url"
	"strings"
)

// Form parses an application/x-www-form-urlencoded payload or a query string.
// Pairs split on '&' and then on the first '='; key and value are decoded
// independently. A pair without '=' yields an empty value.
func Form(payload string) (Result, error) {
	b := newBuilder()
	if payload == "" {
		return b.result(), nil
	}
	for _, pair := range strings.Split(payload, "&") {
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return empty(), &ParseError{Format: "form", Err: err}
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return empty(), &ParseError{Format: "form", Err: err}
		}
		b.put(key, value)
	}
	return b.result(), nil
}
