// Package errors is the compiler's structured diagnostic type: every
// error the pipeline reports carries a kind, a message and a source
// location (spec §7).
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies a diagnostic by which pipeline stage raised it.
// Lexing/parsing stay out of this package's primary scope (spec §1
// treats them as given collaborators) but the kind exists so a future
// lexer/parser can report through the same type.
type Kind string

const (
	LexError   Kind = "LexError"
	ParseError Kind = "ParseError"
	TypeError  Kind = "TypeError"
	EmitError  Kind = "EmitError"
)

// Location pins a diagnostic to a file and line (spec §7: "each
// reported with filename + line number"). Column is optional and used
// only when the caller has one (lexer/parser); the type checker and
// later stages only ever populate Line.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// CompileError is the single error type produced by every stage.
type CompileError struct {
	Kind     Kind
	Message  string
	Location Location
	Source   string // the offending source line, if available
}

func (e *CompileError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if e.Location.File != "" {
		fmt.Fprintf(&b, " (at %s)", e.Location)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, "\n  %d | %s", e.Location.Line, e.Source)
	}
	return b.String()
}

// WithSource attaches the offending source line for a richer
// diagnostic; returns the receiver for chaining.
func (e *CompileError) WithSource(source string) *CompileError {
	e.Source = source
	return e
}

func newError(kind Kind, file string, line int, format string, args ...interface{}) *CompileError {
	return &CompileError{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Location: Location{File: file, Line: line},
	}
}

// NewTypeError builds a TypeError at file:line with a formatted
// message. This is the constructor the type checker uses for every
// diagnostic in spec §4.3/§7.
func NewTypeError(file string, line int, format string, args ...interface{}) *CompileError {
	return newError(TypeError, file, line, format, args...)
}

// NewEmitError builds an EmitError — reserved for the emitter's fatal
// structural failures (spec §7: "the emitter treats a null outputFile
// as a fatal abort"), not per-node diagnostics.
func NewEmitError(format string, args ...interface{}) *CompileError {
	return newError(EmitError, "", 0, format, args...)
}

// List accumulates diagnostics across a full type-check pass so that
// — per spec §4.3's propagation policy — checking continues after an
// error instead of aborting on the first one.
type List struct {
	errs []*CompileError
}

func (l *List) Add(e *CompileError) {
	if e != nil {
		l.errs = append(l.errs, e)
	}
}

func (l *List) HasErrors() bool { return len(l.errs) > 0 }

func (l *List) Errors() []*CompileError { return l.errs }

func (l *List) Error() string {
	parts := make([]string, len(l.errs))
	for i, e := range l.errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}
