//go:build cgo && cmain

// Package cmain calls the C entry point c_main linked in from the program
// archives. Binaries importing it must be linked against an archive that
// defines c_main.
package cmain

/*
#include <stdlib.h>

extern int c_main(int argc, char **argv);
*/
import "C"

import (
	"unsafe"

	"github.com/goplus/llink/internal/bridge"
)

// Entry is the bridge.EntryPoint for c_main.
type Entry struct{}

// Main copies argv into C memory that is never freed, since c_main may keep
// it for the life of the process, and calls c_main.
func (Entry) Main(argc int, argv []*byte) int {
	size := C.size_t(argc+1) * C.size_t(unsafe.Sizeof((*C.char)(nil)))
	cargv := unsafe.Slice((**C.char)(C.malloc(size)), argc+1)
	for i := 0; i < argc; i++ {
		buf := bridge.GoBytes(argv[i])
		cargv[i] = (*C.char)(C.CBytes(append(buf, 0)))
	}
	cargv[argc] = nil
	return int(C.c_main(C.int(argc), &cargv[0]))
}
