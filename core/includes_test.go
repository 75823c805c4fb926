package core

import (
	"strings"
	"testing"
)

func TestDetermineRequiredIncludesMinimal(t *testing.T) {
	features := map[string]bool{"ASSERT_SECONDS_RELATIVE": true}
	got := DetermineRequiredIncludes(features, nil)
	if len(got) != 1 || got[0] != "condition_codes.clib" {
		t.Fatalf("expected only condition_codes.clib, got %v", got)
	}
}

func TestDetermineRequiredIncludesAddsUtilityMacros(t *testing.T) {
	features := map[string]bool{"ASSERT_SECONDS_RELATIVE": true, "assert": true}
	got := DetermineRequiredIncludes(features, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 libraries, got %v", got)
	}
	if !containsString(got, "condition_codes.clib") || !containsString(got, "utility_macros.clib") {
		t.Fatalf("expected condition_codes.clib and utility_macros.clib, got %v", got)
	}
}

func TestDetermineRequiredIncludesRemovesStaleLibraryWhenFeatureDropped(t *testing.T) {
	withAssert := DetermineRequiredIncludes(map[string]bool{"assert": true}, nil)
	if !containsString(withAssert, "utility_macros.clib") {
		t.Fatalf("expected utility_macros.clib while assert is used, got %v", withAssert)
	}
	withoutAssert := DetermineRequiredIncludes(map[string]bool{"assert": false}, nil)
	if containsString(withoutAssert, "utility_macros.clib") {
		t.Fatalf("expected utility_macros.clib dropped once assert is unused, got %v", withoutAssert)
	}
}

func TestDetermineRequiredIncludesPreservesManual(t *testing.T) {
	got := DetermineRequiredIncludes(nil, []string{"opcodes.clib"})
	if len(got) != 1 || got[0] != "opcodes.clib" {
		t.Fatalf("expected manually requested include preserved, got %v", got)
	}
}

func TestDetermineRequiredIncludesDeterministicOrder(t *testing.T) {
	features := map[string]bool{"assert": true, "sha256tree": true, "_curry_treehash": true}
	first := DetermineRequiredIncludes(features, nil)
	second := DetermineRequiredIncludes(features, nil)
	if len(first) != len(second) {
		t.Fatalf("expected stable length across calls")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("expected stable sorted order, got %v then %v", first, second)
		}
	}
}

func TestExpandIncludesSubstitutesInlineBody(t *testing.T) {
	src := "(mod (X) (include sha256tree.clib) (sha256tree X))"
	out := ExpandIncludes(src, []string{"sha256tree.clib"})
	if strings.Contains(out, "(include sha256tree.clib)") {
		t.Fatalf("expected the include directive to be replaced, got %q", out)
	}
	if !strings.Contains(out, "defun sha256tree") {
		t.Fatalf("expected the inline library body spliced in, got %q", out)
	}
}

func TestExpandIncludesLeavesUnknownIncludeUntouched(t *testing.T) {
	src := "(include nonexistent.clib)"
	out := ExpandIncludes(src, []string{"nonexistent.clib"})
	if out != src {
		t.Fatalf("expected an unknown include left untouched, got %q", out)
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
