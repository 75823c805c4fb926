package core

import (
	"math/big"
	"testing"
)

func TestNilIsNil(t *testing.T) {
	if !Nil().IsNil() {
		t.Fatalf("Nil() must report IsNil() true")
	}
	if !List().IsNil() {
		t.Fatalf("empty list must report IsNil() true")
	}
	if !Int(0).IsNil() {
		t.Fatalf("zero integer atom must report IsNil() true")
	}
	if !Bytes(nil).IsNil() {
		t.Fatalf("empty bytes atom must report IsNil() true")
	}
	if Cons(Nil(), Nil()).IsNil() {
		t.Fatalf("a cons pair is never nil, even of two nils")
	}
}

func TestIntRoundTripsThroughAsBigInt(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 127, 128, -128, -129, 255, 256, 1 << 40, -(1 << 40)} {
		got := Int(v).AsBigInt()
		if got.Cmp(big.NewInt(v)) != 0 {
			t.Fatalf("Int(%d).AsBigInt() = %s, want %d", v, got, v)
		}
	}
}

func TestAsBytesMinimalEncoding(t *testing.T) {
	cases := []struct {
		v    int64
		want []byte
	}{
		{0, nil},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x00, 0x80}},
		{-1, []byte{0xff}},
		{-128, []byte{0x80}},
		{-129, []byte{0xff, 0x7f}},
	}
	for _, c := range cases {
		got := Int(c.v).AsBytes()
		if !bytesEqual(got, c.want) {
			t.Fatalf("Int(%d).AsBytes() = % x, want % x", c.v, got, c.want)
		}
	}
}

func TestSymbolAndBytesEmptyCollapseToNil(t *testing.T) {
	if !Symbol("").IsNil() {
		t.Fatalf("Symbol(\"\") should collapse to Nil per constructor contract")
	}
	if !Bytes([]byte{}).IsNil() {
		t.Fatalf("Bytes([]byte{}) should collapse to Nil per constructor contract")
	}
}

func TestListAndConsChainStructurallyEqual(t *testing.T) {
	a := List(Int(1), Int(2), Int(3))
	b := Cons(Int(1), Cons(Int(2), Cons(Int(3), Nil())))
	if !Equal(a, b) {
		t.Fatalf("a right-nested cons chain must compare equal to the equivalent List")
	}
	if TreeHash(a) != TreeHash(b) {
		t.Fatalf("a right-nested cons chain must tree-hash equal to the equivalent List")
	}
}

func TestAsListImproperTail(t *testing.T) {
	n := Cons(Int(1), Cons(Int(2), Symbol("rest")))
	items, tail := n.AsList()
	if len(items) != 2 {
		t.Fatalf("expected 2 items before the improper tail, got %d", len(items))
	}
	if tail.IsNil() || tail.Sym != "rest" {
		t.Fatalf("expected improper tail symbol %q, got %+v", "rest", tail)
	}
}

func TestEqualDistinguishesAtomKinds(t *testing.T) {
	// An integer atom and a symbol atom with coincidentally matching bytes
	// are not equal at the AST level.
	if Equal(Int(102), Symbol("f")) {
		t.Fatalf("an integer atom must not equal a symbol atom even with the same byte encoding")
	}
	// But integer and bytes atoms with the same minimal encoding ARE equal,
	// since both branches feed AsBytes() identically.
	if !Equal(Int(1), Bytes([]byte{0x01})) {
		t.Fatalf("an integer atom and a bytes atom with the same minimal encoding must compare equal")
	}
}

func TestBigIntNegative(t *testing.T) {
	v := big.NewInt(-1000000)
	node := BigInt(v)
	if node.AsBigInt().Cmp(v) != 0 {
		t.Fatalf("BigInt round-trip failed: got %s, want %s", node.AsBigInt(), v)
	}
}
