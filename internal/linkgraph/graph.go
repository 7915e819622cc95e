package linkgraph

import (
	"slices"

	"github.com/goplus/llink/pkgs/linklib"
)

// Kind is the kind of a link directive.
type Kind int

const (
	// Search adds Dir to the library search path.
	Search Kind = iota
	// Static links the static library Lib.
	Static
	// Dynamic links the dynamic library Lib.
	Dynamic
)

func (k Kind) String() string {
	switch k {
	case Search:
		return "search"
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	}
	return "unknown"
}

// Directive is one instruction of the linker directive stream.
type Directive struct {
	// Binary scopes the directive to one output binary. Empty means every
	// binary.
	Binary string
	Kind   Kind
	// Lib is the library name for Static and Dynamic.
	Lib string
	// Dir is the directory for Search.
	Dir string
}

// refDirectives turns a library reference into directives for binary.
// References without a file name produce none.
func refDirectives(binary, ref string) []Directive {
	r, ok := linklib.Classify(ref)
	if !ok {
		return nil
	}
	if r.Kind == linklib.Dynamic {
		return []Directive{{Binary: binary, Kind: Dynamic, Lib: r.Name}}
	}
	var ds []Directive
	if r.Dir != "" {
		ds = append(ds, Directive{Binary: binary, Kind: Search, Dir: r.Dir})
	}
	return append(ds, Directive{Binary: binary, Kind: Static, Lib: r.Name})
}

type binaryLinks struct {
	self Directive
	libs []Directive
}

// Graph is the ordered set of link directives of a build.
type Graph struct {
	binaries []string
	links    map[string]*binaryLinks
	search   []Directive
	core     []Directive
	global   []Directive
}

func newGraph() *Graph {
	return &Graph{links: make(map[string]*binaryLinks)}
}

func (g *Graph) attach(binary, archive string) {
	g.binaries = append(g.binaries, binary)
	g.links[binary] = &binaryLinks{
		self: Directive{Binary: binary, Kind: Static, Lib: archive},
	}
}

func (g *Graph) require(binary, ref string) {
	bl := g.links[binary]
	bl.libs = append(bl.libs, refDirectives(binary, ref)...)
}

// Binaries returns the binaries of the graph in declaration order.
func (g *Graph) Binaries() []string {
	return slices.Clone(g.binaries)
}

// Directives returns the full directive stream: per-binary directives in
// declaration order, then directives shared by every binary.
func (g *Graph) Directives() []Directive {
	var ds []Directive
	for _, bin := range g.binaries {
		bl := g.links[bin]
		ds = append(ds, bl.self)
		ds = append(ds, bl.libs...)
	}
	ds = append(ds, g.search...)
	ds = append(ds, g.core...)
	return append(ds, g.global...)
}

// ForBinary returns the effective link line of binary: the archive search
// path, its own archive, the core archives, its required libraries, then the
// remaining shared directives. It returns nil for an unknown binary.
func (g *Graph) ForBinary(binary string) []Directive {
	bl, ok := g.links[binary]
	if !ok {
		return nil
	}
	ds := slices.Clone(g.search)
	ds = append(ds, bl.self)
	ds = append(ds, g.core...)
	ds = append(ds, bl.libs...)
	return append(ds, g.global...)
}
