package build

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/goplus/llink/internal/emit"
	"github.com/goplus/llink/internal/linkgraph"
	"github.com/goplus/llink/pkgs/srcset"
	"github.com/goplus/llink/pkgs/toolchain"
	"github.com/goplus/llink/program"
)

// fakeToolchain writes an empty archive per call and fails on failFile.
type fakeToolchain struct {
	outDir   string
	failFile string
	calls    []string
}

func (f *fakeToolchain) Compile(ctx context.Context, name string, units srcset.SourceSet) (toolchain.Archive, error) {
	f.calls = append(f.calls, name)
	for _, u := range units {
		if string(u) == f.failFile {
			return toolchain.Archive{}, &toolchain.CompileError{
				Archive:    name,
				File:       f.failFile,
				Diagnostic: []byte(f.failFile + ":1:1: error: expected ';'"),
				Err:        errors.New("exit status 1"),
			}
		}
	}
	path := filepath.Join(f.outDir, "lib"+name+".a")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return toolchain.Archive{}, err
	}
	return toolchain.Archive{Name: name, Path: path}, nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func writeSources(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(root, name), []byte("/* "+name+" */"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func testTable() *program.Table {
	return &program.Table{
		Prefix:   "git",
		Core:     []program.Archive{{Name: "common-main", Sources: "common-main.c"}},
		Programs: []program.Descriptor{{Name: "daemon", Main: true}, {Name: "http-fetch", Main: true, Sources: "http.c", Libs: []string{"curl"}}},
		FlagsEnv: "GIT_CFLAGS",
	}
}

func TestBuild(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()
	writeSources(t, root, "common-main.c", "daemon.c", "http-fetch.c", "http.c")

	plan, err := linkgraph.Assemble(testTable(), linkgraph.Options{ArchiveDir: out})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	tc := &fakeToolchain{outDir: out}
	var buf bytes.Buffer
	b, err := NewBuilder(Options{
		Toolchain: tc,
		Emitter:   emit.NewCargo(&buf),
		RootDir:   root,
		CacheDir:  out,
		Logger:    quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	archives, err := b.Build(context.Background(), plan)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(archives) != 3 {
		t.Fatalf("got %d archives, want 3", len(archives))
	}
	if got, want := strings.Join(tc.calls, " "), "git-common-main git-daemon git-http-fetch"; got != want {
		t.Errorf("compile order = %q, want %q", got, want)
	}

	want := strings.Join([]string{
		"cargo:rerun-if-env-changed=GIT_CFLAGS",
		"cargo:rerun-if-changed=common-main.c",
		"cargo:rerun-if-changed=daemon.c",
		"cargo:rerun-if-changed=http-fetch.c",
		"cargo:rerun-if-changed=http.c",
		"cargo:rustc-link-arg-bin=git-daemon=-l:libgit-daemon.a",
		"cargo:rustc-link-arg-bin=git-http-fetch=-l:libgit-http-fetch.a",
		"cargo:rustc-link-arg-bin=git-http-fetch=-lcurl",
		"cargo:rustc-link-search=" + out,
		"cargo:rustc-link-lib=static=git-common-main",
	}, "\n") + "\n"
	if got := buf.String(); got != want {
		t.Errorf("stream =\n%s\nwant\n%s", got, want)
	}

	statuses, err := Status(plan, root, out)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	for _, st := range statuses {
		if st.State != Fresh {
			t.Errorf("%s: state = %s (%s), want fresh", st.Name, st.State, st.Reason)
		}
	}

	if err := os.WriteFile(filepath.Join(root, "http.c"), []byte("changed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(out, "libgit-daemon.a")); err != nil {
		t.Fatal(err)
	}
	statuses, err = Status(plan, root, out)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	got := map[string]State{}
	for _, st := range statuses {
		got[st.Name] = st.State
	}
	if got["git-common-main"] != Fresh || got["git-daemon"] != Missing || got["git-http-fetch"] != Stale {
		t.Errorf("statuses after change = %v", got)
	}
}

func TestBuildCompileFailure(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()
	plan, err := linkgraph.Assemble(testTable(), linkgraph.Options{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	tc := &fakeToolchain{outDir: out, failFile: "daemon.c"}
	var buf bytes.Buffer
	b, err := NewBuilder(Options{Toolchain: tc, Emitter: emit.NewCargo(&buf), RootDir: root, Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}

	_, err = b.Build(context.Background(), plan)
	var cerr *toolchain.CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("Build error = %v, want *toolchain.CompileError", err)
	}
	if cerr.File != "daemon.c" || !strings.Contains(err.Error(), "expected ';'") {
		t.Errorf("error = %v", err)
	}
	if got := strings.Join(tc.calls, " "); got != "git-common-main git-daemon" {
		t.Errorf("compile calls = %q, build should stop at the failure", got)
	}
	if strings.Contains(buf.String(), "rustc-link") {
		t.Errorf("link directives emitted after a failed build:\n%s", buf.String())
	}
}

func TestStatusWithoutManifest(t *testing.T) {
	plan, err := linkgraph.Assemble(testTable(), linkgraph.Options{})
	if err != nil {
		t.Fatal(err)
	}
	statuses, err := Status(plan, t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	for _, st := range statuses {
		if st.State != Missing {
			t.Errorf("%s: state = %s, want missing", st.Name, st.State)
		}
	}
}

func TestNewBuilderRequiresCollaborators(t *testing.T) {
	if _, err := NewBuilder(Options{Emitter: emit.NewCargo(io.Discard)}); err == nil {
		t.Error("NewBuilder without toolchain returned nil error")
	}
	if _, err := NewBuilder(Options{Toolchain: &fakeToolchain{}}); err == nil {
		t.Error("NewBuilder without emitter returned nil error")
	}
}
