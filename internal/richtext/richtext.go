// Package richtext reads and builds the JSON documents stored in task
// content: {"type":"doc","content":[{"type":"paragraph","content":[...]}]}.
package richtext

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Empty is the content of a task that has never been edited.
const Empty = "{}"

type node struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Content []node `json:"content,omitempty"`
}

// FromPlainText builds a document with one paragraph per line of s.
// An empty string yields Empty.
func FromPlainText(s string) string {
	if s == "" {
		return Empty
	}
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	doc := node{Type: "doc", Content: make([]node, 0, len(lines))}
	for _, line := range lines {
		p := node{Type: "paragraph"}
		if line != "" {
			p.Content = []node{{Type: "text", Text: line}}
		}
		doc.Content = append(doc.Content, p)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return Empty
	}
	return string(b)
}

// PlainText extracts the text of a document, one line per block. Invalid or
// empty documents yield "".
func PlainText(doc string) string {
	if !gjson.Valid(doc) {
		return ""
	}
	root := gjson.Parse(doc)
	if !root.Get("content").IsArray() {
		return ""
	}
	return render(root)
}

// IsEmpty reports whether doc carries no text.
func IsEmpty(doc string) bool {
	return strings.TrimSpace(PlainText(doc)) == ""
}

// Preview returns the first non-blank line of doc, cut to at most n runes.
func Preview(doc string, n int) string {
	for _, line := range strings.Split(PlainText(doc), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if n > 0 && len(runes) > n {
			if n == 1 {
				return "…"
			}
			return string(runes[:n-1]) + "…"
		}
		return line
	}
	return ""
}

func render(n gjson.Result) string {
	switch n.Get("type").String() {
	case "text":
		return n.Get("text").String()
	case "hardBreak":
		return "\n"
	}

	var b strings.Builder
	first := true
	n.Get("content").ForEach(func(_, child gjson.Result) bool {
		if !inline(child) {
			if !first {
				b.WriteByte('\n')
			}
			first = false
		}
		b.WriteString(render(child))
		return true
	})
	return b.String()
}

func inline(n gjson.Result) bool {
	switch n.Get("type").String() {
	case "text", "hardBreak", "mention":
		return true
	}
	return false
}
