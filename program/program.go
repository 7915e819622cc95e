package program

import (
	"errors"
	"fmt"

	"github.com/goplus/llink/pkgs/srcset"
)

// -----------------------------------------------------------------------------

// Descriptor describes one executable of the table.
type Descriptor struct {
	// Name is the program name; its archive and default binary are
	// <prefix>-<name>.
	Name string
	// Main reports whether the program embeds a self-named <name>.c.
	Main bool
	// Sources is a whitespace-delimited list of extra sources.
	Sources string
	// Libs are the required external libraries, in link order.
	Libs []string
	// Binary overrides the binary the archive is attached to.
	Binary string
}

// SourceSet returns <name>.c (when Main) followed by the extra sources.
// Concatenation is literal: duplicates and order are kept.
func (d Descriptor) SourceSet() srcset.SourceSet {
	var units srcset.SourceSet
	if d.Main {
		units = append(units, srcset.Unit(d.Name+".c"))
	}
	return append(units, srcset.Split(d.Sources)...)
}

// ArchiveName returns the archive name of d under prefix.
func (d Descriptor) ArchiveName(prefix string) string {
	return prefix + "-" + d.Name
}

// BinaryName returns the binary d's archive is attached to.
func (d Descriptor) BinaryName(prefix string) string {
	if d.Binary != "" {
		return d.Binary
	}
	return d.ArchiveName(prefix)
}

// Archive is a shared core archive, linked into every binary.
type Archive struct {
	// Name is the archive name without prefix.
	Name string
	// Sources is a literal path list. Ignored when SourcesEnv is set.
	Sources string
	// SourcesEnv names a mandatory variable holding the path list.
	SourcesEnv string
}

// Source returns where the archive's source list comes from.
func (a Archive) Source() srcset.Source {
	if a.SourcesEnv != "" {
		return srcset.FromEnv(a.SourcesEnv)
	}
	return srcset.Literal(a.Sources)
}

// Standalone is an archive attached to a single, explicitly named binary.
type Standalone struct {
	Archive string
	Sources string
	Binary  string
}

// Prebuilt is a static library produced outside this build. An empty Dir
// means the build root.
type Prebuilt struct {
	Name string
	Dir  string
}

// Table is the complete description of a build.
type Table struct {
	// Prefix distinguishes program archives from core archives.
	Prefix     string
	Core       []Archive
	Standalone []Standalone
	Programs   []Descriptor
	Prebuilt   []Prebuilt
	// ExtraLibsEnv names a mandatory variable listing extra libraries
	// linked into every binary. Empty disables it.
	ExtraLibsEnv string
	// FlagsEnv names the variable holding shell-escaped compiler flags.
	FlagsEnv string
}

// ErrNoPrefix is returned by Validate when the table has programs but no
// prefix.
var ErrNoPrefix = errors.New("program table has no prefix")

// Validate checks the static shape of t. Names must be non-empty and
// program names unique.
func (t *Table) Validate() error {
	if t.Prefix == "" && len(t.Programs) > 0 {
		return ErrNoPrefix
	}
	for _, a := range t.Core {
		if a.Name == "" {
			return errors.New("core archive without name")
		}
	}
	for _, s := range t.Standalone {
		if s.Archive == "" || s.Binary == "" {
			return fmt.Errorf("standalone archive %q: archive and binary are required", s.Archive)
		}
	}
	seen := make(map[string]bool, len(t.Programs))
	for _, p := range t.Programs {
		if p.Name == "" {
			return errors.New("program without name")
		}
		if seen[p.Name] {
			return fmt.Errorf("program %q declared twice", p.Name)
		}
		seen[p.Name] = true
	}
	for _, p := range t.Prebuilt {
		if p.Name == "" {
			return errors.New("prebuilt library without name")
		}
	}
	return nil
}

// Env returns the variables t reads from the build environment, in order.
func (t *Table) Env() []string {
	var vars []string
	for _, a := range t.Core {
		if a.SourcesEnv != "" {
			vars = append(vars, a.SourcesEnv)
		}
	}
	if t.ExtraLibsEnv != "" {
		vars = append(vars, t.ExtraLibsEnv)
	}
	if t.FlagsEnv != "" {
		vars = append(vars, t.FlagsEnv)
	}
	return vars
}

// -----------------------------------------------------------------------------

// Default returns the table of the git program family.
func Default() *Table {
	return &Table{
		Prefix: "git",
		Core: []Archive{
			{Name: "builtin", SourcesEnv: "BUILTIN_SRCS"},
			{Name: "common-main", Sources: "common-main.c"},
		},
		Standalone: []Standalone{
			{Archive: "git-main", Sources: "git.c", Binary: "git"},
			{Archive: "scalar", Sources: "scalar.c", Binary: "scalar"},
		},
		Programs: []Descriptor{
			{Name: "daemon", Main: true},
			{Name: "http-backend", Main: true},
			{Name: "imap-send", Main: true},
			{Name: "sh-i18n--envsubst", Main: true},
			{Name: "shell", Main: true},
			{Name: "http-fetch", Main: true, Sources: "http.c http-walker.c http-fetch.c", Libs: []string{"curl"}},
			{Name: "http-push", Main: true, Sources: "http.c http-push.c", Libs: []string{"curl", "expat"}},
			{Name: "remote-http", Sources: "remote-curl.c http.c http-walker.c", Libs: []string{"curl", "expat"}},
		},
		Prebuilt:     []Prebuilt{{Name: "git"}},
		ExtraLibsEnv: "RUST_LIBS",
		FlagsEnv:     "GIT_CFLAGS",
	}
}

// -----------------------------------------------------------------------------
