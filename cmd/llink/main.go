// Command llink compiles program archives and writes the linker directives
// that assemble them into binaries.
package main

import "github.com/goplus/llink/cmd/llink/internal"

func main() {
	internal.Execute()
}
