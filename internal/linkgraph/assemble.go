package linkgraph

import (
	"errors"
	"fmt"

	"github.com/goplus/llink/pkgs/srcset"
	"github.com/goplus/llink/program"
)

var (
	// ErrDuplicateArchive is returned when two archives share a name.
	ErrDuplicateArchive = errors.New("duplicate archive name")
	// ErrDuplicateBinary is returned when two archives attach to one binary.
	ErrDuplicateBinary = errors.New("duplicate binary name")
)

// Options configures Assemble.
type Options struct {
	// Lookup reads environment-supplied lists.
	Lookup srcset.LookupFunc
	// RootDir is the search directory of prebuilt libraries without one.
	RootDir string
	// ArchiveDir is where the toolchain writes archives. Empty means the
	// linker already searches it.
	ArchiveDir string
}

// ArchiveSpec is an archive to build.
type ArchiveSpec struct {
	Name  string
	Units srcset.SourceSet
}

// Plan is a fully resolved build: archives in build order plus the link
// graph. Producing a Plan performs no compilation.
type Plan struct {
	Prefix   string
	Archives []ArchiveSpec
	Graph    *Graph
	// Env lists the environment variables the plan was resolved from.
	Env []string
}

// Archive returns the spec of the named archive.
func (p *Plan) Archive(name string) (ArchiveSpec, bool) {
	for _, a := range p.Archives {
		if a.Name == name {
			return a, true
		}
	}
	return ArchiveSpec{}, false
}

type assembler struct {
	r        *srcset.Resolver
	plan     *Plan
	archives map[string]bool
}

func (a *assembler) addArchive(name string, units srcset.SourceSet) error {
	if len(units) == 0 {
		return fmt.Errorf("archive %s: %w", name, srcset.ErrEmptySourceSet)
	}
	if a.archives[name] {
		return fmt.Errorf("%w: %s", ErrDuplicateArchive, name)
	}
	a.archives[name] = true
	a.plan.Archives = append(a.plan.Archives, ArchiveSpec{Name: name, Units: units})
	return nil
}

func (a *assembler) attach(binary, archive string) error {
	if _, ok := a.plan.Graph.links[binary]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBinary, binary)
	}
	a.plan.Graph.attach(binary, archive)
	return nil
}

// Assemble resolves t into a Plan. Every environment-supplied list is read
// before anything is returned, so a missing variable fails the whole build
// with a *srcset.MissingSourceListError before any archive is compiled.
//
// Archives are ordered core, standalone, then programs. Per-binary
// directives follow declaration order; library references are classified by
// linklib.Classify and never checked against the file system.
func Assemble(t *program.Table, opts Options) (*Plan, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	a := &assembler{
		r: srcset.NewResolver(opts.Lookup),
		plan: &Plan{
			Prefix: t.Prefix,
			Graph:  newGraph(),
			Env:    t.Env(),
		},
		archives: make(map[string]bool),
	}
	g := a.plan.Graph

	for _, c := range t.Core {
		units, err := a.r.Resolve(c.Source())
		if err != nil {
			return nil, fmt.Errorf("core archive %s: %w", c.Name, err)
		}
		name := archiveName(t.Prefix, c.Name)
		if err := a.addArchive(name, units); err != nil {
			return nil, err
		}
		g.core = append(g.core, Directive{Kind: Static, Lib: name})
	}

	var extra srcset.SourceSet
	if t.ExtraLibsEnv != "" {
		var err error
		if extra, err = a.r.Resolve(srcset.FromEnv(t.ExtraLibsEnv)); err != nil {
			return nil, fmt.Errorf("extra libraries: %w", err)
		}
	}

	for _, s := range t.Standalone {
		if err := a.addArchive(s.Archive, srcset.Split(s.Sources)); err != nil {
			return nil, err
		}
		if err := a.attach(s.Binary, s.Archive); err != nil {
			return nil, err
		}
	}

	for _, p := range t.Programs {
		name := p.ArchiveName(t.Prefix)
		if err := a.addArchive(name, p.SourceSet()); err != nil {
			return nil, err
		}
		bin := p.BinaryName(t.Prefix)
		if err := a.attach(bin, name); err != nil {
			return nil, err
		}
		for _, lib := range p.Libs {
			g.require(bin, lib)
		}
	}

	if opts.ArchiveDir != "" {
		g.search = append(g.search, Directive{Kind: Search, Dir: opts.ArchiveDir})
	}
	var lastDir string
	for _, pb := range t.Prebuilt {
		dir := pb.Dir
		if dir == "" {
			dir = opts.RootDir
		}
		if dir != "" && dir != lastDir {
			g.global = append(g.global, Directive{Kind: Search, Dir: dir})
			lastDir = dir
		}
		g.global = append(g.global, Directive{Kind: Static, Lib: pb.Name})
	}
	for _, ref := range extra {
		g.global = append(g.global, refDirectives("", string(ref))...)
	}
	return a.plan, nil
}

func archiveName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "-" + name
}
