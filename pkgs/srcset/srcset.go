package srcset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptySourceSet is returned when a source set that must produce an
// archive resolves to no compilation units.
var ErrEmptySourceSet = errors.New("source set is empty")

// Unit is a single native source file path, relative to the build root.
type Unit string

// SourceSet is the ordered list of units compiled into one archive.
// Duplicates are retained.
type SourceSet []Unit

// Paths returns the units as plain strings.
func (s SourceSet) Paths() []string {
	paths := make([]string, len(s))
	for i, u := range s {
		paths[i] = string(u)
	}
	return paths
}

func (s SourceSet) String() string {
	return strings.Join(s.Paths(), " ")
}

// MissingSourceListError reports a mandatory source list variable that is
// absent from the build environment.
type MissingSourceListError struct {
	Var string
}

func (e *MissingSourceListError) Error() string {
	return fmt.Sprintf("%s is missing", e.Var)
}

// isSpace reports whether c is ASCII whitespace: space, tab, line feed,
// form feed or carriage return. Vertical tab is not a delimiter.
func isSpace(c rune) bool {
	switch c {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

// Split turns a whitespace-delimited path list into units. Runs of
// whitespace collapse, so no empty unit is ever produced.
func Split(s string) SourceSet {
	fields := strings.FieldsFunc(s, isSpace)
	if len(fields) == 0 {
		return nil
	}
	units := make(SourceSet, len(fields))
	for i, f := range fields {
		units[i] = Unit(f)
	}
	return units
}

// LookupFunc looks up a variable in the build environment. ok is false when
// the variable is absent; an empty value is still present.
type LookupFunc func(name string) (value string, ok bool)

// Source names where a source list comes from: a literal string, or the
// name of a variable holding one. Env takes precedence when both are set.
type Source struct {
	Literal string
	Env     string
}

// Literal returns a Source for a literal path list.
func Literal(s string) Source {
	return Source{Literal: s}
}

// FromEnv returns a Source read from the named variable.
func FromEnv(name string) Source {
	return Source{Env: name}
}

func (s Source) String() string {
	if s.Env != "" {
		return "$" + s.Env
	}
	return s.Literal
}

// Resolver resolves Sources into ordered units.
type Resolver struct {
	Lookup LookupFunc
}

// NewResolver creates a Resolver backed by lookup.
func NewResolver(lookup LookupFunc) *Resolver {
	return &Resolver{Lookup: lookup}
}

// Resolve resolves src. A variable that is absent fails with
// *MissingSourceListError; a present but empty one yields no units.
func (r *Resolver) Resolve(src Source) (SourceSet, error) {
	if src.Env == "" {
		return Split(src.Literal), nil
	}
	if r.Lookup == nil {
		return nil, &MissingSourceListError{Var: src.Env}
	}
	val, ok := r.Lookup(src.Env)
	if !ok {
		return nil, &MissingSourceListError{Var: src.Env}
	}
	return Split(val), nil
}
