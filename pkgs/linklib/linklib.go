// Package linklib classifies external library references.
//
// A reference is either a bare library name, resolved by the linker's default
// search, or a path to a static archive named lib<name>.a. The file name is
// the only thing inspected: the file system is never probed, so a dangling
// path surfaces as a link failure, not here.
//
// Known limitation: the convention is purely syntactic. A dynamic library
// whose file name is literally "lib.a" classifies as a static archive with an
// empty name. This mirrors the convention other tools apply and is kept as is.
package linklib

import (
	"os"
	"path/filepath"
	"strings"
)

// Kind is the link kind of a library reference.
type Kind int

const (
	// Dynamic libraries are referenced by name and resolved at load time.
	Dynamic Kind = iota
	// Static archives are copied into the executable at link time.
	Static
)

func (k Kind) String() string {
	switch k {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	}
	return "unknown"
}

// Ref is a classified library reference.
type Ref struct {
	Kind Kind
	// Name is the library name: <X> for a static lib<X>.a, the reference
	// unchanged for a dynamic library.
	Name string
	// Dir is the directory containing a static archive, or "" when the
	// reference has no directory component.
	Dir string
}

// Classify classifies ref. ok is false when ref has no file name component
// (empty, ending in a separator, or ending in ".."); such references are
// placeholders and must be skipped without error. A trailing "." component
// names its parent, so "dir/." has the file name "dir".
func Classify(ref string) (r Ref, ok bool) {
	dir, file := filepath.Split(ref)
	for file == "." && dir != "" {
		dir, file = filepath.Split(trimSeparators(dir))
	}
	if file == "" || file == ".." || file == "." {
		return Ref{}, false
	}
	name, isStatic := StaticName(file)
	if !isStatic {
		return Ref{Kind: Dynamic, Name: ref}, true
	}
	if dir != "" {
		dir = filepath.Clean(dir)
	}
	return Ref{Kind: Static, Name: name, Dir: dir}, true
}

func trimSeparators(path string) string {
	i := len(path)
	for i > 0 && os.IsPathSeparator(path[i-1]) {
		i--
	}
	return path[:i]
}

// StaticName returns <X> when file follows the lib<X>.a convention.
func StaticName(file string) (name string, ok bool) {
	name, ok = strings.CutSuffix(file, ".a")
	if !ok {
		return "", false
	}
	return strings.CutPrefix(name, "lib")
}

// ArchiveFile returns the file name of the static archive for name.
func ArchiveFile(name string) string {
	return "lib" + name + ".a"
}
