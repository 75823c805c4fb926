package core

import (
	"strings"
	"testing"
)

func TestPuzzleBuilderCreateCoinMarksFeatureAndIncludesLibrary(t *testing.T) {
	pb := NewPuzzleBuilder()
	pb.CreateCoin(Bytes(make([]byte, 32)), Int(1000))
	if _, err := pb.Build(); err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if !pb.FeaturesUsed()["CREATE_COIN"] {
		t.Fatalf("expected CREATE_COIN feature marked")
	}
	includes := pb.requiredIncludes()
	if len(includes) != 1 || includes[0] != "condition_codes.clib" {
		t.Fatalf("expected condition_codes.clib required, got %v", includes)
	}
}

func TestPuzzleBuilderIfThenElse(t *testing.T) {
	pb := NewPuzzleBuilder()
	pb.WithSolutionParams("flag")
	cond := pb.Param("flag")
	pb.If(cond).
		Then(func(b *PuzzleBuilder) { b.CreateCoin(Bytes(make([]byte, 32)), Int(1)) }).
		Else(func(b *PuzzleBuilder) { b.Raise() })
	ir, err := pb.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	// Body should be a single (i flag then else) form nested inside the mod.
	items, _ := ir.AsList()
	body := items[len(items)-1]
	bodyItems, _ := body.AsList()
	if bodyItems[0].Sym != "i" {
		t.Fatalf("expected the puzzle body to be an (i ...) conditional, got %+v", body)
	}
}

func TestPuzzleBuilderElseIfChain(t *testing.T) {
	pb := NewPuzzleBuilder()
	pb.WithSolutionParams("n")
	n := pb.Param("n")
	one := Expr(Int(1))
	two := Expr(Int(2))
	pb.If(n.Eq(one)).
		Then(func(b *PuzzleBuilder) { b.CreateCoin(Bytes(make([]byte, 32)), Int(1)) }).
		ElseIf(n.Eq(two)).
		Then(func(b *PuzzleBuilder) { b.CreateCoin(Bytes(make([]byte, 32)), Int(2)) }).
		Else(func(b *PuzzleBuilder) { b.Raise() })
	if _, err := pb.Build(); err != nil {
		t.Fatalf("Build error: %v", err)
	}
}

func TestPuzzleBuilderThenWithoutIfIsBuilderError(t *testing.T) {
	pb := NewPuzzleBuilder()
	pb.Then(func(*PuzzleBuilder) {})
	if _, err := pb.Build(); err == nil {
		t.Fatalf("expected a BuilderError for then() without a preceding if()")
	}
}

func TestPuzzleBuilderIncompleteIfIsBuilderError(t *testing.T) {
	pb := NewPuzzleBuilder()
	pb.If(Expr(Int(1)))
	if _, err := pb.Build(); err == nil {
		t.Fatalf("expected a BuilderError for an unclosed if() block")
	}
}

func TestPuzzleBuilderRequireSignatureValidatesPubkeyShape(t *testing.T) {
	pb := NewPuzzleBuilder()
	badKey := make([]byte, 10)
	pb.RequireSignature(Bytes(badKey))
	if _, err := pb.Build(); err == nil {
		t.Fatalf("expected a pubkey-shape validation error for a 10-byte key")
	}
}

func TestPuzzleBuilderRequireSignatureAcceptsBLSLength(t *testing.T) {
	pb := NewPuzzleBuilder()
	key := make([]byte, BLSPubkeyLen)
	pb.RequireSignature(Bytes(key))
	if _, err := pb.Build(); err != nil {
		t.Fatalf("unexpected error for a correctly-shaped BLS key: %v", err)
	}
	if !pb.FeaturesUsed()["AGG_SIG_ME"] {
		t.Fatalf("expected AGG_SIG_ME feature marked")
	}
}

func TestPuzzleBuilderCurriedParamsSubstituted(t *testing.T) {
	pb := NewPuzzleBuilder()
	pb.WithCurriedParam("OWNER", Bytes(make([]byte, 32)))
	pb.CreateCoin(Symbol("OWNER"), Int(1))
	ir, err := pb.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	items, _ := ir.AsList()
	body := items[len(items)-1]
	bodyItems, _ := body.AsList()
	condItems, _ := bodyItems[0].AsList()
	if condItems[1].AKind != AtomBytes {
		t.Fatalf("expected OWNER substituted with its curried bytes value, got %+v", condItems[1])
	}
}

func TestPuzzleBuilderCurriedShadowingSolutionParamIsError(t *testing.T) {
	pb := NewPuzzleBuilder()
	pb.WithSolutionParams("X")
	pb.WithCurriedParam("X", Int(1))
	if _, err := pb.Build(); err == nil {
		t.Fatalf("expected an error when a curried name shadows a solution parameter")
	}
}

func TestPuzzleBuilderNoModOmitsModEnvelope(t *testing.T) {
	pb := NewPuzzleBuilder()
	pb.NoMod()
	pb.CreateCoin(Bytes(make([]byte, 32)), Int(1))
	ir, err := pb.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	items, _ := ir.AsList()
	if items[0].Sym == "mod" {
		t.Fatalf("expected no mod envelope when NoMod() is set, got %+v", ir)
	}
}

func TestPuzzleBuilderToChiaLispIncludesAutoDerivedLibrary(t *testing.T) {
	pb := NewPuzzleBuilder()
	pb.CreateCoin(Bytes(make([]byte, 32)), Int(1))
	out, err := pb.ToChiaLisp()
	if err != nil {
		t.Fatalf("ToChiaLisp error: %v", err)
	}
	if !strings.Contains(out, "condition_codes.clib") {
		t.Fatalf("expected the auto-derived include directive in rendered output, got %q", out)
	}
}

func TestPuzzleBuilderToModHashIsStableAndIndependentOfEngine(t *testing.T) {
	pb := NewPuzzleBuilder()
	pb.CreateCoin(Bytes(make([]byte, 32)), Int(1))
	h1, err := pb.ToModHash()
	if err != nil {
		t.Fatalf("ToModHash error: %v", err)
	}
	h2, err := pb.ToModHash()
	if err != nil {
		t.Fatalf("ToModHash error: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected a stable puzzle hash across calls")
	}
}

func TestCanonicalizeSolutionAcceptsMultipleShapes(t *testing.T) {
	fromNode, err := canonicalizeSolution(Int(1))
	if err != nil || fromNode.AsBigInt().Int64() != 1 {
		t.Fatalf("canonicalizeSolution(*TreeNode) failed: %v", err)
	}
	sb := NewSolutionBuilder().AddInt(2)
	fromBuilder, err := canonicalizeSolution(sb)
	if err != nil {
		t.Fatalf("canonicalizeSolution(*SolutionBuilder) failed: %v", err)
	}
	items, _ := fromBuilder.AsList()
	if len(items) != 1 || items[0].AsBigInt().Int64() != 2 {
		t.Fatalf("expected solution builder's built IR, got %+v", fromBuilder)
	}
	fromString, err := canonicalizeSolution("(q 1 2)")
	if err != nil {
		t.Fatalf("canonicalizeSolution(string) failed: %v", err)
	}
	if fromString.Kind != KindList {
		t.Fatalf("expected parsed list from string solution, got %+v", fromString)
	}
	if _, err := canonicalizeSolution(42); err == nil {
		t.Fatalf("expected an error for an unsupported solution type")
	}
}
