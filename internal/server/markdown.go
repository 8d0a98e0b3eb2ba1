package server

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// renderMarkdown converts a folder description to HTML. goldmark drops raw
// HTML by default, so the result is safe to embed.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return ""
	}
	return buf.String()
}
