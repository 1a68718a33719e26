package normalize

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

type xmlNode struct {
	name     string
	text     strings.Builder
	children []*xmlNode
}

// XML parses an XML payload. A single root element with child elements,
// such as <gamedata><data>..</data></gamedata>, contributes its direct
// children; otherwise every top-level element is a field. The tag name is
// the key and the whitespace-normalized text content is the value.
func XML(payload string) (Result, error) {
	dec := xml.NewDecoder(strings.NewReader(payload))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var (
		top   []*xmlNode
		stack []*xmlNode
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return empty(), &ParseError{Format: "xml", Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: t.Name.Local}
			if len(stack) == 0 {
				top = append(top, n)
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			for _, a := range stack {
				a.text.Write(t)
			}
		}
	}

	fields := top
	if len(top) == 1 && len(top[0].children) > 0 {
		fields = top[0].children
	}

	b := newBuilder()
	for _, n := range fields {
		b.put(n.name, strings.Join(strings.Fields(n.text.String()), " "))
	}
	return b.result(), nil
}
