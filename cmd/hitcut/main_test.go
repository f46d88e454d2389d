package main

import (
	"strings"
	"testing"
)

func TestTrimHelpExitsNonZero(t *testing.T) {
	for _, flag := range []string{"-h", "--help"} {
		res := runCLI(t, "trim", flag)
		if res.code == 0 {
			t.Fatalf("trim %s exited 0", flag)
		}
		if !strings.Contains(res.stdout, "trim [log]") {
			t.Fatalf("trim %s did not print usage: %q", flag, res.stdout)
		}
	}
}

func TestRootHelpExitsZero(t *testing.T) {
	res := runCLI(t, "--help")
	if res.code != 0 {
		t.Fatalf("root help exited %d", res.code)
	}
	for _, name := range []string{"render", "trim", "markers", "deps", "config"} {
		if !strings.Contains(res.stdout, name) {
			t.Fatalf("help output missing %q command:\n%s", name, res.stdout)
		}
	}
}

func TestExitErrorMessage(t *testing.T) {
	if got := (&exitError{code: 3}).Error(); got != "exit status 3" {
		t.Fatalf("Error() = %q", got)
	}
	if got := (&exitError{code: 1, msg: "tools missing"}).Error(); got != "tools missing" {
		t.Fatalf("Error() = %q", got)
	}
}
