package interp

import (
	"fmt"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
)

// TestGoldenPrograms runs every program/want pair archived in
// testdata/programs.txtar, the scenario-table coverage of §8 collected
// into one fixture instead of scattered literal strings: a program
// either prints its final value matching its ".want" file, or (when
// ".want" is the literal "ERROR") is expected to fail to parse or run.
func TestGoldenPrograms(t *testing.T) {
	arc, err := txtar.ParseFile("testdata/programs.txtar")
	if err != nil {
		t.Fatalf("reading testdata/programs.txtar: %v", err)
	}

	programs := map[string]string{}
	wants := map[string]string{}
	for _, f := range arc.Files {
		name, kind, ok := strings.Cut(f.Name, ".")
		if !ok {
			continue
		}
		switch kind {
		case "a68":
			programs[name] = string(f.Data)
		case "want":
			wants[name] = strings.TrimSpace(string(f.Data))
		}
	}

	for name, src := range programs {
		want, ok := wants[name]
		if !ok {
			t.Fatalf("%s: no matching .want fixture", name)
		}
		t.Run(name, func(t *testing.T) {
			i := New(Options{})
			v, err := i.Eval(src)
			if want == "ERROR" {
				if err == nil {
					t.Fatalf("expected an error, got value %v", v)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := fmt.Sprint(v); got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}
