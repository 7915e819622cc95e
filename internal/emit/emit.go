package emit

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goplus/llink/internal/linkgraph"
	"github.com/goplus/llink/pkgs/linklib"
)

// Emitter writes the linker directive stream consumed by the packaging tool.
type Emitter interface {
	// RerunIfChanged registers path for change tracking.
	RerunIfChanged(path string) error
	// RerunIfEnvChanged registers an environment variable for change tracking.
	RerunIfEnvChanged(name string) error
	// Directive writes a link directive.
	Directive(d linkgraph.Directive) error
}

// Formats lists the names accepted by New.
var Formats = []string{"cargo", "json"}

// New creates an Emitter writing format to w.
func New(format string, w io.Writer) (Emitter, error) {
	switch format {
	case "", "cargo":
		return NewCargo(w), nil
	case "json":
		return NewJSON(w), nil
	}
	return nil, fmt.Errorf("unknown directive format %q", format)
}

// WriteGraph writes every directive of g in stream order.
func WriteGraph(e Emitter, g *linkgraph.Graph) error {
	for _, d := range g.Directives() {
		if err := e.Directive(d); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// Cargo writes the cargo build-script line protocol.
type Cargo struct {
	w io.Writer
}

// NewCargo creates a Cargo emitter.
func NewCargo(w io.Writer) *Cargo {
	return &Cargo{w: w}
}

func (c *Cargo) println(format string, args ...any) error {
	_, err := fmt.Fprintf(c.w, "cargo:"+format+"\n", args...)
	return err
}

func (c *Cargo) RerunIfChanged(path string) error {
	return c.println("rerun-if-changed=%s", path)
}

func (c *Cargo) RerunIfEnvChanged(name string) error {
	return c.println("rerun-if-env-changed=%s", name)
}

// Directive writes d. Directives scoped to a binary become raw link
// arguments for that binary.
func (c *Cargo) Directive(d linkgraph.Directive) error {
	if d.Binary != "" {
		return c.println("rustc-link-arg-bin=%s=%s", d.Binary, LinkArg(d))
	}
	switch d.Kind {
	case linkgraph.Search:
		return c.println("rustc-link-search=%s", d.Dir)
	case linkgraph.Static:
		return c.println("rustc-link-lib=static=%s", d.Lib)
	case linkgraph.Dynamic:
		return c.println("rustc-link-lib=%s", d.Lib)
	}
	return fmt.Errorf("unknown directive kind %v", d.Kind)
}

// LinkArg returns d as a raw linker argument. Static libraries are named by
// archive file (-l:lib<name>.a) so a shared library of the same name next to
// the archive is never picked instead.
func LinkArg(d linkgraph.Directive) string {
	switch d.Kind {
	case linkgraph.Search:
		return "-L" + d.Dir
	case linkgraph.Static:
		return "-l:" + linklib.ArchiveFile(d.Lib)
	}
	return "-l" + d.Lib
}

// -----------------------------------------------------------------------------

// record is one line of the JSON stream.
type record struct {
	Kind   string `json:"kind"`
	Binary string `json:"binary,omitempty"`
	Lib    string `json:"lib,omitempty"`
	Dir    string `json:"dir,omitempty"`
	Path   string `json:"path,omitempty"`
	Env    string `json:"env,omitempty"`
}

// JSON writes one JSON object per line.
type JSON struct {
	enc *json.Encoder
}

// NewJSON creates a JSON emitter.
func NewJSON(w io.Writer) *JSON {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSON{enc: enc}
}

func (j *JSON) RerunIfChanged(path string) error {
	return j.enc.Encode(record{Kind: "rerun-if-changed", Path: path})
}

func (j *JSON) RerunIfEnvChanged(name string) error {
	return j.enc.Encode(record{Kind: "rerun-if-env-changed", Env: name})
}

func (j *JSON) Directive(d linkgraph.Directive) error {
	return j.enc.Encode(record{Kind: d.Kind.String(), Binary: d.Binary, Lib: d.Lib, Dir: d.Dir})
}
