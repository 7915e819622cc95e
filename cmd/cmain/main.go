//go:build cgo && cmain

// Command cmain runs the C main of a program archive. Build it with
//
//	go build -tags cmain -ldflags "-extldflags '-L$OUT_DIR -lgit-daemon -lgit-builtin'"
package main

import (
	"github.com/goplus/llink/internal/bridge"
	"github.com/goplus/llink/internal/bridge/cmain"
)

func main() {
	bridge.Main(cmain.Entry{})
}
