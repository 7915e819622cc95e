package cc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/goplus/llink/pkgs/linklib"
	"github.com/goplus/llink/pkgs/srcset"
	"github.com/anmitsu/go-shlex"
	"github.com/goplus/llink/pkgs/toolchain"
	"golang.org/x/sync/errgroup"
	"mvdan.cc/sh/v3/syntax"
)

// Options configures a CC toolchain.
type Options struct {
	// CC and AR are the compiler and archiver executables.
	// They default to "cc" and "ar".
	CC string
	AR string
	// RootDir is the directory unit paths are relative to.
	RootDir string
	// OutDir receives objects and archives.
	OutDir string
	// Flags are passed to every compilation.
	Flags []string
	// Jobs bounds concurrent compilations within one archive.
	// Zero means runtime.NumCPU().
	Jobs int
	// Env overrides entries of the process environment for the compiler
	// and the archiver.
	Env map[string]string
	// Logger defaults to log.Default().
	Logger *log.Logger
}

// CC compiles C units with a cc-compatible driver and packs them with ar.
type CC struct {
	opts Options
}

var _ toolchain.Toolchain = (*CC)(nil)

// New creates a CC toolchain.
func New(opts Options) *CC {
	if opts.CC == "" {
		opts.CC = "cc"
	}
	if opts.AR == "" {
		opts.AR = "ar"
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &CC{opts: opts}
}

// Compile implements toolchain.Toolchain.
func (c *CC) Compile(ctx context.Context, name string, units srcset.SourceSet) (toolchain.Archive, error) {
	if len(units) == 0 {
		return toolchain.Archive{}, fmt.Errorf("archive %s: %w", name, srcset.ErrEmptySourceSet)
	}
	objDir := filepath.Join(c.opts.OutDir, name+".objs")
	if err := os.MkdirAll(objDir, 0o755); err != nil {
		return toolchain.Archive{}, err
	}
	archive := toolchain.Archive{
		Name: name,
		Path: filepath.Join(c.opts.OutDir, linklib.ArchiveFile(name)),
	}
	// A failed build must not leave a stale archive behind.
	if err := os.Remove(archive.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return toolchain.Archive{}, err
	}

	// A unit listed twice is compiled and packed once.
	objs := make([]string, 0, len(units))
	seen := make(map[string]bool, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Jobs)
	for _, u := range units {
		src := string(u)
		obj := objectPath(objDir, src)
		if seen[obj] {
			continue
		}
		seen[obj] = true
		objs = append(objs, obj)
		g.Go(func() error {
			return c.compileUnit(gctx, name, src, obj)
		})
	}
	if err := g.Wait(); err != nil {
		return toolchain.Archive{}, err
	}

	args := append([]string{"crs", archive.Path}, objs...)
	c.opts.Logger.Debug("exec", "cmd", commandLine(c.opts.AR, args))
	var out bytes.Buffer
	if err := run(ctx, c.opts.AR, args, c.opts.Env, c.opts.RootDir, &out); err != nil {
		os.Remove(archive.Path)
		return toolchain.Archive{}, &toolchain.CompileError{
			Archive:    name,
			File:       archive.Path,
			Diagnostic: out.Bytes(),
			Err:        err,
		}
	}
	c.opts.Logger.Debug("archived", "archive", archive.Path, "objects", len(objs))
	return archive, nil
}

func (c *CC) compileUnit(ctx context.Context, archive, src, obj string) error {
	if err := os.MkdirAll(filepath.Dir(obj), 0o755); err != nil {
		return err
	}
	args := make([]string, 0, len(c.opts.Flags)+4)
	args = append(args, "-c")
	args = append(args, c.opts.Flags...)
	args = append(args, "-o", obj, src)

	c.opts.Logger.Debug("compile", "file", src, "archive", archive, "cmd", commandLine(c.opts.CC, args))
	var out bytes.Buffer
	if err := run(ctx, c.opts.CC, args, c.opts.Env, c.opts.RootDir, &out); err != nil {
		return &toolchain.CompileError{
			Archive:    archive,
			File:       src,
			Diagnostic: out.Bytes(),
			Err:        err,
		}
	}
	if out.Len() > 0 {
		// warnings
		c.opts.Logger.Warn(strings.TrimRight(out.String(), "\n"), "file", src)
	}
	return nil
}

// objectPath maps a unit to its object file. Local paths keep their
// directory structure; others are flattened under a hash of their directory.
func objectPath(objDir, src string) string {
	clean := filepath.Clean(src)
	if filepath.IsLocal(clean) {
		return filepath.Join(objDir, clean+".o")
	}
	h := fnv.New32a()
	io.WriteString(h, filepath.Dir(clean))
	return filepath.Join(objDir, "_ext", fmt.Sprintf("%08x-%s.o", h.Sum32(), filepath.Base(clean)))
}

// FlagsFromEnv reads shell-escaped compiler flags from the variable name.
// Only quoting and backslash escapes are interpreted: "$" and glob characters
// are kept literally. An absent variable yields no flags.
func FlagsFromEnv(lookup srcset.LookupFunc, name string) ([]string, error) {
	if name == "" || lookup == nil {
		return nil, nil
	}
	val, ok := lookup(name)
	if !ok {
		return nil, nil
	}
	flags, err := shlex.Split(val, true)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return flags, nil
}

// commandLine renders a command for logs, quoting arguments as a POSIX
// shell would need them.
func commandLine(bin string, args []string) string {
	words := make([]string, 0, len(args)+1)
	for _, s := range append([]string{bin}, args...) {
		q, err := syntax.Quote(s, syntax.LangPOSIX)
		if err != nil {
			q = fmt.Sprintf("%q", s)
		}
		words = append(words, q)
	}
	return strings.Join(words, " ")
}

func run(ctx context.Context, bin string, args []string, env map[string]string, workdir string, out io.Writer) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	if workdir != "" {
		cmd.Dir = workdir
	}
	cmd.Stdout = out
	cmd.Stderr = out
	if len(env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), env)
	}
	return cmd.Run()
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
