package gui

import "testing"

func TestTclList(t *testing.T) {
	got := tclList("hello", "a{b}", `path\to`)
	want := `{hello} {a\{b\}} {path\\to}`
	if got != want {
		t.Fatalf("tclList = %q, want %q", got, want)
	}
}

func TestEscapeTclString(t *testing.T) {
	if got := escapeTclString("plain"); got != "plain" {
		t.Fatalf("plain strings must pass through, got %q", got)
	}
	if got := escapeTclString("{x}"); got != `\{x\}` {
		t.Fatalf("braces must be escaped, got %q", got)
	}
}
