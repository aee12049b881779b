// Package markup implements the two-stage content pipeline for user
// supplied markdown: sanitize on write, render and sanitize again on read.
package markup

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips disallowed HTML from markdown source and rendered
// output using a fixed allow-list. Sanitization is applied twice per
// document lifetime: once before storage and once after rendering, so
// stored markdown and served HTML are both clean even if one stage is
// bypassed.
//
// Sanitize is a pure function of its input and is idempotent: sanitizing
// already-sanitized content returns it unchanged.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds a Sanitizer with the service allow-list: basic
// formatting, headings, lists, tables, code blocks and links. Everything
// else is stripped, and the contents of script and style elements are
// dropped entirely.
func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"a", "abbr", "acronym", "b", "blockquote", "code", "em", "i",
		"li", "ol", "p", "pre", "span", "strong", "ul",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"table", "thead", "tbody", "tr", "th", "td",
	)

	p.AllowAttrs("class", "id").Globally()
	p.AllowStyles("color", "background-color", "text-align", "font-weight", "font-style").Globally()
	p.AllowAttrs("href", "title", "name", "target", "rel").OnElements("a")
	p.AllowAttrs("title").OnElements("abbr", "acronym")
	p.AllowStandardURLs()

	return &Sanitizer{policy: p}
}

// Sanitize returns input with all disallowed markup removed. It never
// fails: any input, however malformed, yields a string. Empty input
// yields an empty string.
func (s *Sanitizer) Sanitize(input string) string {
	if input == "" {
		return ""
	}
	return s.policy.Sanitize(input)
}

// SanitizeFields sanitizes each string in place and reports whether any
// of them changed. Callers use the changed flag to log stripped content.
func (s *Sanitizer) SanitizeFields(fields ...*string) bool {
	changed := false
	for _, f := range fields {
		if f == nil {
			continue
		}
		clean := s.Sanitize(*f)
		if clean != *f {
			changed = true
		}
		*f = clean
	}
	return changed
}

// TrimmedEmpty reports whether the input is empty after sanitization and
// whitespace trimming. Used to reject bodies that contain only markup.
func (s *Sanitizer) TrimmedEmpty(input string) bool {
	return strings.TrimSpace(s.Sanitize(input)) == ""
}
