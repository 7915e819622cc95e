// Package bridge hands the process arguments to a foreign entry point.
//
// Arguments are converted byte for byte into NUL-terminated buffers: no text
// decoding happens, so arguments that are not valid UTF-8 reach the entry
// point unchanged. An argument containing a NUL byte cannot be represented
// and fails the conversion before the entry point is called.
package bridge

import (
	"fmt"
	"os"
	"unsafe"
)

// EntryPoint is a foreign main: it receives (argc, argv) and returns the
// process exit status. argv has argc+1 elements, the last one nil.
type EntryPoint interface {
	Main(argc int, argv []*byte) int
}

// EntryFunc adapts a function to EntryPoint.
type EntryFunc func(argc int, argv []*byte) int

func (f EntryFunc) Main(argc int, argv []*byte) int {
	return f(argc, argv)
}

// EmbeddedNulError reports an argument that contains a NUL byte.
type EmbeddedNulError struct {
	Index int
	Err   error
}

func (e *EmbeddedNulError) Error() string {
	return fmt.Sprintf("argument %d contains a NUL byte", e.Index)
}

func (e *EmbeddedNulError) Unwrap() error {
	return e.Err
}

// Argv is a marshalled argument vector. The buffers are owned by Argv and
// must stay reachable while the entry point runs.
type Argv struct {
	bufs [][]byte
	ptrs []*byte
}

// Argc returns the number of arguments.
func (a *Argv) Argc() int {
	return len(a.bufs)
}

// Pointers returns the argv array, terminated by a nil pointer.
func (a *Argv) Pointers() []*byte {
	return a.ptrs
}

// Marshal converts args into an Argv. No partial Argv is returned on error.
func Marshal(args []string) (*Argv, error) {
	a := &Argv{
		bufs: make([][]byte, len(args)),
		ptrs: make([]*byte, len(args)+1),
	}
	for i, arg := range args {
		buf, err := cbytes(arg)
		if err != nil {
			return nil, &EmbeddedNulError{Index: i, Err: err}
		}
		a.bufs[i] = buf
		a.ptrs[i] = &buf[0]
	}
	return a, nil
}

// Run marshals args and calls entry, returning its result verbatim. entry is
// never called when marshalling fails.
func Run(entry EntryPoint, args []string) (int, error) {
	argv, err := Marshal(args)
	if err != nil {
		return 0, err
	}
	return entry.Main(argv.Argc(), argv.Pointers()), nil
}

// Main runs entry with the process arguments and exits with its result. It
// panics before calling entry if an argument cannot be marshalled.
func Main(entry EntryPoint) {
	code, err := Run(entry, os.Args)
	if err != nil {
		panic(err)
	}
	os.Exit(code)
}

// GoBytes copies the NUL-terminated buffer at p, without the terminator.
func GoBytes(p *byte) []byte {
	if p == nil {
		return nil
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return append([]byte(nil), unsafe.Slice(p, n)...)
}
