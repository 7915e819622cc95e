package program

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Vars are the variables available to expressions in a table file.
type Vars struct {
	// Root is exposed as `root`.
	Root string
	// OutDir is exposed as `out_dir`.
	OutDir string
}

func (v Vars) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"root":    cty.StringVal(v.Root),
			"out_dir": cty.StringVal(v.OutDir),
		},
	}
}

// tableFile mirrors the top level of a table file. Blocks keep their
// declaration order.
type tableFile struct {
	Prefix       string            `hcl:"prefix,optional"`
	ExtraLibsEnv string            `hcl:"extra_libs_env,optional"`
	FlagsEnv     string            `hcl:"flags_env,optional"`
	Core         []coreBlock       `hcl:"core,block"`
	Standalone   []standaloneBlock `hcl:"standalone,block"`
	Programs     []programBlock    `hcl:"program,block"`
	Prebuilt     []prebuiltBlock   `hcl:"prebuilt,block"`
}

type coreBlock struct {
	Name       string `hcl:"name,label"`
	Sources    string `hcl:"sources,optional"`
	SourcesEnv string `hcl:"sources_env,optional"`
}

type standaloneBlock struct {
	Archive string `hcl:"archive,label"`
	Sources string `hcl:"sources"`
	Binary  string `hcl:"binary"`
}

type programBlock struct {
	Name    string   `hcl:"name,label"`
	Main    bool     `hcl:"main,optional"`
	Sources string   `hcl:"sources,optional"`
	Libs    []string `hcl:"libs,optional"`
	Binary  string   `hcl:"binary,optional"`
}

type prebuiltBlock struct {
	Name string `hcl:"name,label"`
	Dir  string `hcl:"dir,optional"`
}

// LoadFile loads a table from an HCL file.
//
//	prefix         = "git"
//	extra_libs_env = "RUST_LIBS"
//
//	core "builtin" {
//	  sources_env = "BUILTIN_SRCS"
//	}
//	program "http-push" {
//	  main    = true
//	  sources = "http.c http-push.c"
//	  libs    = ["curl", "expat"]
//	}
//	prebuilt "git" {
//	  dir = root
//	}
func LoadFile(path string, vars Vars) (*Table, error) {
	f, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse program table %s: %w", path, diags)
	}
	return decode(path, f, vars)
}

// Load loads a table from HCL source. filename is used in diagnostics.
func Load(src []byte, filename string, vars Vars) (*Table, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse program table %s: %w", filename, diags)
	}
	return decode(filename, f, vars)
}

func decode(filename string, f *hcl.File, vars Vars) (*Table, error) {
	var root tableFile
	if diags := gohcl.DecodeBody(f.Body, vars.evalContext(), &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode program table %s: %w", filename, diags)
	}

	t := &Table{
		Prefix:       root.Prefix,
		ExtraLibsEnv: root.ExtraLibsEnv,
		FlagsEnv:     root.FlagsEnv,
	}
	for _, b := range root.Core {
		t.Core = append(t.Core, Archive{Name: b.Name, Sources: b.Sources, SourcesEnv: b.SourcesEnv})
	}
	for _, b := range root.Standalone {
		t.Standalone = append(t.Standalone, Standalone{Archive: b.Archive, Sources: b.Sources, Binary: b.Binary})
	}
	for _, b := range root.Programs {
		t.Programs = append(t.Programs, Descriptor{
			Name:    b.Name,
			Main:    b.Main,
			Sources: b.Sources,
			Libs:    b.Libs,
			Binary:  b.Binary,
		})
	}
	for _, b := range root.Prebuilt {
		t.Prebuilt = append(t.Prebuilt, Prebuilt{Name: b.Name, Dir: b.Dir})
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("program table %s: %w", filename, err)
	}
	return t, nil
}
