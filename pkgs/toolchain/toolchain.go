package toolchain

import (
	"context"
	"fmt"

	"github.com/goplus/llink/pkgs/srcset"
)

// Toolchain compiles a source set into one named static archive.
// Implementations own any parallelism across the units of a single archive.
type Toolchain interface {
	// Compile compiles units and packs them into the archive lib<name>.a.
	// A failing unit aborts the whole archive with a *CompileError and no
	// archive file is left behind.
	Compile(ctx context.Context, name string, units srcset.SourceSet) (Archive, error)
}

// Archive is a compiled static archive, referenced by name after creation.
type Archive struct {
	Name string
	Path string
}

// CompileError reports a unit the compiler rejected. Diagnostic holds the
// compiler output verbatim.
type CompileError struct {
	Archive    string
	File       string
	Diagnostic []byte
	Err        error
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("compile %s (archive %s): %v", e.File, e.Archive, e.Err)
	if len(e.Diagnostic) > 0 {
		msg += "\n" + string(e.Diagnostic)
	}
	return msg
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
