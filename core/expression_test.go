package core

import "testing"

func TestExpressionArithmeticBuildsExpectedIR(t *testing.T) {
	a := Expr(Symbol("X"))
	b := Expr(Symbol("Y"))
	sum := a.Add(b)
	items, _ := sum.Node().AsList()
	if len(items) != 3 || items[0].Sym != "+" {
		t.Fatalf("expected (+ X Y), got %+v", sum.Node())
	}
}

func TestExpressionTreeHashOfMarksFeatureOnOwningBuilder(t *testing.T) {
	pb := NewPuzzleBuilder()
	e := pb.Expr(Symbol("X"))
	e.TreeHashOf()
	if !pb.FeaturesUsed()["sha256tree"] {
		t.Fatalf("expected TreeHashOf to mark the sha256tree feature on its owning builder")
	}
}

func TestExpressionWithoutOwnerDoesNotPanicOnTreeHashOf(t *testing.T) {
	e := Expr(Symbol("X"))
	out := e.TreeHashOf()
	items, _ := out.Node().AsList()
	if items[0].Sym != "sha256tree" {
		t.Fatalf("expected (sha256tree X), got %+v", out.Node())
	}
}

func TestAndOrBuildVariadicPrimitives(t *testing.T) {
	e1 := Expr(Symbol("A"))
	e2 := Expr(Symbol("B"))
	and := And(e1, e2)
	items, _ := and.Node().AsList()
	if items[0].Sym != "all" {
		t.Fatalf("expected primitive `all`, got %+v", and.Node())
	}
	or := Or(e1, e2)
	items, _ = or.Node().AsList()
	if items[0].Sym != "any" {
		t.Fatalf("expected primitive `any`, got %+v", or.Node())
	}
}

func TestExpressionOwnerPropagatesFromEitherSide(t *testing.T) {
	pb := NewPuzzleBuilder()
	owned := pb.Expr(Symbol("X"))
	unowned := Expr(Symbol("Y"))
	combined := unowned.Add(owned)
	combined.TreeHashOf()
	if !pb.FeaturesUsed()["sha256tree"] {
		t.Fatalf("expected the owning builder to be found even when it's the right-hand operand")
	}
}
