// Package textwriter is a small streaming pretty printer with nested bracket scopes.
package textwriter

import (
	"strings"
)

type ScopeType int

const (
	Block ScopeType = iota
	Arguments
	Array
)

func (t ScopeType) brackets() (string, string) {
	switch t {
	case Arguments:
		return "(", ")"
	case Array:
		return "[", "]"
	default:
		return "{", "}"
	}
}

// Scope configures a bracketed region opened by Writer.Scope.
type Scope struct {
	Type       ScopeType
	MultiLines bool
	// Separator overrides the default separator: a line break for multi-line
	// scopes, ", " otherwise.
	Separator string
	Prefix    string
	Suffix    string
}

type scopeState struct {
	Scope
	dirty bool
}

// Writer assembles text. Indentation is applied at the start of every physical line.
type Writer struct {
	indent    string
	b         strings.Builder
	level     int
	lineDirty bool
	scopes    []*scopeState
}

func New(indent string) *Writer {
	return &Writer{indent: indent}
}

// Text appends value, which may span several lines.
func (w *Writer) Text(value string) {
	lines := strings.Split(value, "\n")
	for i, line := range lines {
		if i > 0 {
			w.b.WriteByte('\n')
			w.lineDirty = false
		}
		if line == "" {
			continue
		}
		if !w.lineDirty {
			w.b.WriteString(strings.Repeat(w.indent, w.level))
			w.lineDirty = true
		}
		w.b.WriteString(line)
	}
	if value != "" {
		w.markDirty()
	}
}

// Scope writes s's opening bracket, runs action one level deeper when s is
// multi-line, and closes the bracket.
func (w *Writer) Scope(s Scope, action func()) {
	open, closing := s.Type.brackets()
	w.Text(s.Prefix + open)
	if s.MultiLines {
		w.Text("\n")
		w.level++
	}

	w.scopes = append(w.scopes, &scopeState{Scope: s})
	action()
	w.scopes = w.scopes[:len(w.scopes)-1]

	if s.MultiLines {
		w.level--
		if w.lineDirty {
			w.Text("\n")
		}
	}
	w.Text(closing + s.Suffix)
}

// Separator writes value, or the current scope's separator when value is omitted,
// but only once something has been written in the current scope.
func (w *Writer) Separator(value ...string) {
	if len(w.scopes) == 0 {
		return
	}
	scope := w.scopes[len(w.scopes)-1]
	if !scope.dirty {
		return
	}

	switch {
	case len(value) > 0:
		w.Text(strings.Join(value, ""))
	case scope.Separator != "":
		w.Text(scope.Separator)
	case scope.MultiLines:
		w.Text("\n")
	default:
		w.Text(", ")
	}
}

func (w *Writer) markDirty() {
	if len(w.scopes) > 0 {
		w.scopes[len(w.scopes)-1].dirty = true
	}
}

func (w *Writer) String() string {
	return w.b.String()
}
