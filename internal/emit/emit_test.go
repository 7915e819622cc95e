package emit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/goplus/llink/internal/linkgraph"
	"github.com/goplus/llink/program"
)

func TestCargoDirective(t *testing.T) {
	tests := []struct {
		d    linkgraph.Directive
		want string
	}{
		{linkgraph.Directive{Kind: linkgraph.Search, Dir: "/usr/lib"}, "cargo:rustc-link-search=/usr/lib\n"},
		{linkgraph.Directive{Kind: linkgraph.Static, Lib: "foo"}, "cargo:rustc-link-lib=static=foo\n"},
		{linkgraph.Directive{Kind: linkgraph.Dynamic, Lib: "curl"}, "cargo:rustc-link-lib=curl\n"},
		{linkgraph.Directive{Binary: "git-daemon", Kind: linkgraph.Static, Lib: "git-daemon"}, "cargo:rustc-link-arg-bin=git-daemon=-l:libgit-daemon.a\n"},
		{linkgraph.Directive{Binary: "git-http-push", Kind: linkgraph.Dynamic, Lib: "expat"}, "cargo:rustc-link-arg-bin=git-http-push=-lexpat\n"},
		{linkgraph.Directive{Binary: "x", Kind: linkgraph.Search, Dir: "/opt/lib"}, "cargo:rustc-link-arg-bin=x=-L/opt/lib\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := NewCargo(&buf).Directive(tt.d); err != nil {
			t.Fatalf("Directive(%+v): %v", tt.d, err)
		}
		if got := buf.String(); got != tt.want {
			t.Errorf("Directive(%+v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestCargoStaticRequirement(t *testing.T) {
	tbl := &program.Table{
		Prefix: "git",
		Programs: []program.Descriptor{
			{Name: "http-push", Main: true, Libs: []string{"curl", "/opt/expat/libexpat.a"}},
		},
	}
	plan, err := linkgraph.Assemble(tbl, linkgraph.Options{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteGraph(NewCargo(&buf), plan.Graph); err != nil {
		t.Fatalf("WriteGraph: %v", err)
	}
	want := strings.Join([]string{
		"cargo:rustc-link-arg-bin=git-http-push=-l:libgit-http-push.a",
		"cargo:rustc-link-arg-bin=git-http-push=-lcurl",
		"cargo:rustc-link-arg-bin=git-http-push=-L/opt/expat",
		"cargo:rustc-link-arg-bin=git-http-push=-l:libexpat.a",
	}, "\n") + "\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteGraph =\n%s\nwant\n%s", got, want)
	}
}

func TestLinkArg(t *testing.T) {
	tests := []struct {
		d    linkgraph.Directive
		want string
	}{
		{linkgraph.Directive{Kind: linkgraph.Search, Dir: "/opt/lib"}, "-L/opt/lib"},
		{linkgraph.Directive{Kind: linkgraph.Static, Lib: "expat"}, "-l:libexpat.a"},
		{linkgraph.Directive{Kind: linkgraph.Dynamic, Lib: "expat"}, "-lexpat"},
		{linkgraph.Directive{Kind: linkgraph.Dynamic, Lib: "/usr/lib/libz.so"}, "-l/usr/lib/libz.so"},
	}
	for _, tt := range tests {
		if got := LinkArg(tt.d); got != tt.want {
			t.Errorf("LinkArg(%+v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestCargoRerun(t *testing.T) {
	var buf bytes.Buffer
	c := NewCargo(&buf)
	if err := c.RerunIfChanged("daemon.c"); err != nil {
		t.Fatal(err)
	}
	if err := c.RerunIfEnvChanged("BUILTIN_SRCS"); err != nil {
		t.Fatal(err)
	}
	want := "cargo:rerun-if-changed=daemon.c\ncargo:rerun-if-env-changed=BUILTIN_SRCS\n"
	if got := buf.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWriteGraph(t *testing.T) {
	tbl := &program.Table{
		Prefix:   "git",
		Core:     []program.Archive{{Name: "common-main", Sources: "common-main.c"}},
		Programs: []program.Descriptor{{Name: "http-fetch", Main: true, Libs: []string{"curl"}}},
	}
	plan, err := linkgraph.Assemble(tbl, linkgraph.Options{ArchiveDir: "/out"})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteGraph(NewCargo(&buf), plan.Graph); err != nil {
		t.Fatalf("WriteGraph: %v", err)
	}
	want := strings.Join([]string{
		"cargo:rustc-link-arg-bin=git-http-fetch=-l:libgit-http-fetch.a",
		"cargo:rustc-link-arg-bin=git-http-fetch=-lcurl",
		"cargo:rustc-link-search=/out",
		"cargo:rustc-link-lib=static=git-common-main",
	}, "\n") + "\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteGraph =\n%s\nwant\n%s", got, want)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSON(&buf)
	if err := j.RerunIfChanged("a&b.c"); err != nil {
		t.Fatal(err)
	}
	if err := j.Directive(linkgraph.Directive{Binary: "git", Kind: linkgraph.Static, Lib: "git-main"}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if lines[0] != `{"kind":"rerun-if-changed","path":"a&b.c"}` {
		t.Errorf("line 0 = %s", lines[0])
	}
	var rec record
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec != (record{Kind: "static", Binary: "git", Lib: "git-main"}) {
		t.Errorf("record = %+v", rec)
	}
}

func TestNew(t *testing.T) {
	for _, f := range append(Formats, "") {
		if _, err := New(f, &bytes.Buffer{}); err != nil {
			t.Errorf("New(%q): %v", f, err)
		}
	}
	if _, err := New("yaml", &bytes.Buffer{}); err == nil {
		t.Error("New(yaml) returned nil error")
	}
}
