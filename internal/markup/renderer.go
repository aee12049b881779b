package markup

import (
	"bytes"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts stored markdown to HTML for display. Raw HTML embedded
// in the markdown is passed through by the converter and then scrubbed by
// the sanitizer, so the output policy is enforced in exactly one place.
//
// Rendered HTML is always produced per request and never persisted or
// cached; only markdown source is stored.
type Renderer struct {
	md        goldmark.Markdown
	sanitizer *Sanitizer
}

// NewRenderer builds a Renderer that shares the given sanitizer with the
// write path, so both passes apply the same allow-list.
func NewRenderer(sanitizer *Sanitizer) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithUnsafe(),
		),
	)
	return &Renderer{md: md, sanitizer: sanitizer}
}

// Render converts markdown to sanitized HTML. It never fails: if the
// converter reports an error the source is degraded to escaped literal
// text inside a paragraph rather than dropped. Empty input yields an
// empty string.
func (r *Renderer) Render(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "<p>" + html.EscapeString(source) + "</p>"
	}
	return r.sanitizer.Sanitize(buf.String())
}
