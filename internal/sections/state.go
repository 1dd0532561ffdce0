package sections

type stateKind int

const (
	idle stateKind = iota
	active
)

// state is the extractor's position while walking lines: either no
// section has been opened yet, or one section is collecting lines.
type state struct {
	kind    stateKind
	section SectionID
}

func (s state) open(id SectionID) state {
	return state{kind: active, section: id}
}

// step feeds one line through the state machine. It returns the next state
// and, when ok is true, the text to append to the next state's section.
func (e *Extractor) step(s state, line string) (next state, text string, ok bool) {
	m, isHeader := e.MatchHeader(line)
	if !isHeader {
		if s.kind == idle {
			return s, "", false
		}
		return s, line, true
	}

	id, found := e.Lookup(m.Keyword)
	if !found {
		// The pattern is built from the catalog, so this should not happen.
		return s, "", false
	}
	next = s.open(id)
	if m.Content == "" {
		return next, "", false
	}
	return next, m.Content, true
}
