// Package sections splits plain resume text into labelled sections using
// header keywords found at the start of a line.
package sections

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// HeaderMatch is the outcome of testing a line against the header pattern.
type HeaderMatch struct {
	Keyword string
	Content string
}

// Result maps every catalog section to its collected text. Sections that
// were never opened map to the empty string.
type Result map[SectionID]string

// Get returns the text for id, or "" when absent.
func (r Result) Get(id SectionID) string {
	return r[id]
}

// Empty reports whether no section collected any text.
func (r Result) Empty() bool {
	for _, v := range r {
		if v != "" {
			return false
		}
	}
	return true
}

// Extractor holds a compiled header pattern for one catalog. It is immutable
// after construction and safe for concurrent use.
type Extractor struct {
	catalog Catalog
	pattern *regexp.Regexp
	header  int
	content int
}

var defaultExtractor = mustNewExtractor(defaultCatalog)

// Extract runs the default extractor over text.
func Extract(text string) Result {
	return defaultExtractor.Extract(text)
}

// NewExtractor compiles the header pattern for catalog.
func NewExtractor(catalog Catalog) (*Extractor, error) {
	if len(catalog) == 0 {
		return nil, errors.New("sections: empty catalog")
	}
	seen := make(map[SectionID]bool, len(catalog))
	var alts []string
	for _, s := range catalog {
		if s.ID == "" {
			return nil, errors.New("sections: section with empty id")
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("sections: duplicate section %q", s.ID)
		}
		seen[s.ID] = true
		if len(s.Keywords) == 0 {
			return nil, fmt.Errorf("sections: section %q has no keywords", s.ID)
		}
		for _, k := range s.Keywords {
			if strings.TrimSpace(k) == "" {
				return nil, fmt.Errorf("sections: section %q has an empty keyword", s.ID)
			}
			alts = append(alts, regexp.QuoteMeta(k))
		}
	}

	// Go's regexp picks the leftmost-first alternative, so keyword order in
	// the catalog decides ties.
	expr := `(?i)^` + space + `*(?P<header>` + strings.Join(alts, "|") + `)` + space + `*[:\-]?` + space + `*(?P<content>.*)$`
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("sections: compile header pattern: %w", err)
	}
	return &Extractor{
		catalog: catalog.clone(),
		pattern: re,
		header:  re.SubexpIndex("header"),
		content: re.SubexpIndex("content"),
	}, nil
}

// space matches one whitespace rune inside a line. It includes the unit
// separator, which unicode.IsSpace leaves out.
const space = `[\s\p{Zs}\x1f]`

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, isSpace)
}

func mustNewExtractor(catalog Catalog) *Extractor {
	e, err := NewExtractor(catalog)
	if err != nil {
		panic(err)
	}
	return e
}

// Catalog returns a copy of the extractor's catalog.
func (e *Extractor) Catalog() Catalog {
	return e.catalog.clone()
}

// MatchHeader tests whether line opens a section.
func (e *Extractor) MatchHeader(line string) (HeaderMatch, bool) {
	sub := e.pattern.FindStringSubmatch(line)
	if sub == nil {
		return HeaderMatch{}, false
	}
	return HeaderMatch{
		Keyword: trimSpace(sub[e.header]),
		Content: trimSpace(sub[e.content]),
	}, true
}

// Lookup finds the section owning keyword, ignoring case.
func (e *Extractor) Lookup(keyword string) (SectionID, bool) {
	for _, s := range e.catalog {
		for _, k := range s.Keywords {
			if strings.EqualFold(k, keyword) {
				return s.ID, true
			}
		}
	}
	return "", false
}

// Extract walks text line by line and returns the collected sections.
func (e *Extractor) Extract(text string) Result {
	acc := make(map[SectionID][]string, len(e.catalog))
	s := state{kind: idle}
	for _, line := range splitLines(text) {
		var (
			appendText string
			ok         bool
		)
		s, appendText, ok = e.step(s, line)
		if ok {
			acc[s.section] = append(acc[s.section], appendText)
		}
	}

	res := make(Result, len(e.catalog))
	for _, sec := range e.catalog {
		res[sec.ID] = trimSpace(strings.Join(acc[sec.ID], "\n"))
	}
	return res
}

// splitLines breaks text on the same boundaries as a universal-newline
// reader, treating "\r\n" as one break. A trailing break does not produce
// an extra empty line.
func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch r {
		case '\n', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
			lines = append(lines, text[start:i])
			i += size
			start = i
		case '\r':
			lines = append(lines, text[start:i])
			i += size
			if i < len(text) && text[i] == '\n' {
				i++
			}
			start = i
		default:
			i += size
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
