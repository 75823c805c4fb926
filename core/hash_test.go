package core

import (
	"crypto/sha256"
	"testing"
)

func TestTreeHashNilIsHashOfSingleByte(t *testing.T) {
	want := sha256.Sum256([]byte{0x01})
	if TreeHash(Nil()) != want {
		t.Fatalf("TreeHash(nil) mismatch")
	}
	if TreeHash(List()) != want {
		t.Fatalf("TreeHash(empty list) must match TreeHash(nil)")
	}
}

func TestTreeHashAtomPrefixesWithOne(t *testing.T) {
	want := sha256.Sum256(append([]byte{0x01}, []byte("hello")...))
	if TreeHash(Symbol("hello")) != want {
		t.Fatalf("TreeHash(symbol) mismatch")
	}
}

func TestTreeHashConsPrefixesWithTwo(t *testing.T) {
	a := Symbol("a")
	b := Symbol("b")
	ah := TreeHash(a)
	bh := TreeHash(b)
	want := sha256.Sum256(append(append([]byte{0x02}, ah[:]...), bh[:]...))
	if TreeHash(Cons(a, b)) != want {
		t.Fatalf("TreeHash(cons) mismatch")
	}
}

func TestTreeHashDeterministic(t *testing.T) {
	n := List(Symbol("mod"), List(Symbol("X")), List(Symbol("q"), Symbol("X")))
	h1 := TreeHash(n)
	h2 := TreeHash(n)
	if h1 != h2 {
		t.Fatalf("TreeHash must be deterministic for the same input")
	}
}

func TestTreeHashHexHasPrefix(t *testing.T) {
	out := TreeHashHex(Int(1))
	if len(out) != 66 || out[:2] != "0x" {
		t.Fatalf("expected a 0x-prefixed 32-byte hex string, got %q", out)
	}
}

func TestCurryByPositionPrependsArgs(t *testing.T) {
	puzzle := List(Symbol("q"), Symbol("X"))
	curried := CurryByPosition(puzzle, Int(10), Bytes([]byte("h")))
	items, tail := curried.AsList()
	if !tail.IsNil() || len(items) != 3 {
		t.Fatalf("expected (a (q . P) args), got %+v", curried)
	}
	if items[0].Sym != "a" {
		t.Fatalf("expected head symbol a, got %+v", items[0])
	}
	quotedProgram := items[1]
	if quotedProgram.Kind != KindCons {
		t.Fatalf("expected the program position to be a cons (q . P), got %+v", quotedProgram)
	}
	if quotedProgram.First.Sym != "q" {
		t.Fatalf("expected (q . P)'s first element to be the symbol q, got %+v", quotedProgram.First)
	}
	if !Equal(quotedProgram.Rest, puzzle) {
		t.Fatalf("expected (q . P)'s rest to be the puzzle itself, got %+v", quotedProgram.Rest)
	}
}

func TestCurryByNameSubstitutesMatchingSymbols(t *testing.T) {
	body := List(Symbol("+"), Symbol("X"), Symbol("Y"))
	out := CurryByName(body, map[string]*TreeNode{"X": Int(5)})
	items, _ := out.AsList()
	if items[1].AsBigInt().Int64() != 5 {
		t.Fatalf("expected X substituted with 5, got %+v", items[1])
	}
	if items[2].Sym != "Y" {
		t.Fatalf("expected Y left unsubstituted, got %+v", items[2])
	}
}

func TestCurryByNameLeavesUnmatchedSymbolsAlone(t *testing.T) {
	body := Symbol("Z")
	out := CurryByName(body, map[string]*TreeNode{"X": Int(1)})
	if out.Sym != "Z" {
		t.Fatalf("expected Z unchanged, got %+v", out)
	}
}
