package bridge

import (
	"bytes"
	"errors"
	"testing"
)

// recorder is an entry point that records what it receives.
type recorder struct {
	called bool
	argc   int
	args   [][]byte
	nilEnd bool
	ret    int
}

func (r *recorder) Main(argc int, argv []*byte) int {
	r.called = true
	r.argc = argc
	for _, p := range argv[:argc] {
		r.args = append(r.args, GoBytes(p))
	}
	r.nilEnd = len(argv) == argc+1 && argv[argc] == nil
	return r.ret
}

func TestRun(t *testing.T) {
	tests := []struct {
		name string
		args []string
		ret  int
	}{
		{"single", []string{"git"}, 0},
		{"args", []string{"git", "status", "--short"}, 0},
		{"exit status", []string{"git", "bogus"}, 129},
		{"empty argument", []string{"git", "", "x"}, 1},
		{"invalid utf8", []string{"git", "add", "caf\xe9.txt", "\xff\xfe"}, 0},
		{"negative", []string{"scalar"}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{ret: tt.ret}
			got, err := Run(r, tt.args)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got != tt.ret {
				t.Errorf("Run() = %d, want %d", got, tt.ret)
			}
			if r.argc != len(tt.args) {
				t.Errorf("argc = %d, want %d", r.argc, len(tt.args))
			}
			if !r.nilEnd {
				t.Error("argv is not terminated by a nil pointer")
			}
			for i, arg := range tt.args {
				if !bytes.Equal(r.args[i], []byte(arg)) {
					t.Errorf("argv[%d] = %q, want %q", i, r.args[i], arg)
				}
			}
		})
	}
}

func TestRunEmbeddedNul(t *testing.T) {
	r := &recorder{}
	_, err := Run(r, []string{"git", "log", "a\x00b"})
	var nulErr *EmbeddedNulError
	if !errors.As(err, &nulErr) {
		t.Fatalf("Run error = %v, want *EmbeddedNulError", err)
	}
	if nulErr.Index != 2 {
		t.Errorf("Index = %d, want 2", nulErr.Index)
	}
	if r.called {
		t.Error("entry point was called after a marshalling failure")
	}
}

func TestMarshal(t *testing.T) {
	argv, err := Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal(nil): %v", err)
	}
	if argv.Argc() != 0 || len(argv.Pointers()) != 1 || argv.Pointers()[0] != nil {
		t.Errorf("Marshal(nil) = argc %d, %d pointers", argv.Argc(), len(argv.Pointers()))
	}

	if _, err := Marshal([]string{"\x00"}); err == nil {
		t.Error("Marshal of a bare NUL returned nil error")
	}
}

func TestEntryFunc(t *testing.T) {
	entry := EntryFunc(func(argc int, argv []*byte) int {
		return argc * 10
	})
	got, err := Run(entry, []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if got != 30 {
		t.Errorf("Run() = %d, want 30", got)
	}
}

func TestGoBytes(t *testing.T) {
	if GoBytes(nil) != nil {
		t.Error("GoBytes(nil) != nil")
	}
	buf := []byte("abc\x00def")
	if got := GoBytes(&buf[0]); string(got) != "abc" {
		t.Errorf("GoBytes = %q, want %q", got, "abc")
	}
}
