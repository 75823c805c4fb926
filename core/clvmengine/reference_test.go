// SPDX-License-Identifier: BUSL-1.1
package clvmengine

import (
	"strings"
	"testing"

	"coinscript/core"
)

func TestReferenceRunNamedParamBinding(t *testing.T) {
	eng := New()
	prog, err := eng.Compile("(mod (a b) (+ a b))")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	solution, err := core.Parse("(3 4)")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	res, err := eng.Run(prog, solution)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Result.AsBigInt().Int64() != 7 {
		t.Fatalf("expected 7, got %v", res.Result)
	}
	if res.Cost == 0 {
		t.Fatalf("expected a non-zero cost")
	}
}

func TestReferenceRunWholeArgBinding(t *testing.T) {
	eng := New()
	prog, err := eng.Compile("(mod @ (f @))")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	solution, err := core.Parse("(9 10)")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	res, err := eng.Run(prog, solution)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Result.AsBigInt().Int64() != 9 {
		t.Fatalf("expected 9, got %v", res.Result)
	}
}

func TestReferenceIfConditional(t *testing.T) {
	eng := New()
	prog, err := eng.Compile("(mod (x) (i x (q . 1) (q . 2)))")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	truthy, _ := core.Parse("(1)")
	res, err := eng.Run(prog, truthy)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Result.AsBigInt().Int64() != 1 {
		t.Fatalf("expected the then-branch value 1, got %v", res.Result)
	}
	falsy, _ := core.Parse("(())")
	res, err = eng.Run(prog, falsy)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Result.AsBigInt().Int64() != 2 {
		t.Fatalf("expected the else-branch value 2, got %v", res.Result)
	}
}

func TestReferenceSha256AndSha256Tree(t *testing.T) {
	eng := New()
	prog, err := eng.Compile(`(mod (x) (sha256 x))`)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	solution, _ := core.Parse(`("abc")`)
	res, err := eng.Run(prog, solution)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(res.Result.AsBytes()) != 32 {
		t.Fatalf("expected a 32-byte sha256 digest, got %d bytes", len(res.Result.AsBytes()))
	}

	treeProg, err := eng.Compile(`(mod (x) (sha256tree x))`)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	res2, err := eng.Run(treeProg, solution)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	want := core.TreeHash(solutionFirst(t, solution))
	if string(res2.Result.AsBytes()) != string(want[:]) {
		t.Fatalf("expected sha256tree to match core.TreeHash of the bound argument")
	}
}

func solutionFirst(t *testing.T, solution *core.TreeNode) *core.TreeNode {
	items, _ := solution.AsList()
	if len(items) == 0 {
		t.Fatalf("expected a non-empty solution")
	}
	return items[0]
}

func TestReferenceConcatAndSubstr(t *testing.T) {
	eng := New()
	prog, err := eng.Compile(`(mod (a b) (concat a b))`)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	solution, _ := core.Parse(`("foo" "bar")`)
	res, err := eng.Run(prog, solution)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if string(res.Result.AsBytes()) != "foobar" {
		t.Fatalf("expected \"foobar\", got %q", res.Result.AsBytes())
	}

	subProg, err := eng.Compile(`(mod (a) (substr a 1 3))`)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	sol2, _ := core.Parse(`("hello")`)
	res2, err := eng.Run(subProg, sol2)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if string(res2.Result.AsBytes()) != "el" {
		t.Fatalf("expected \"el\", got %q", res2.Result.AsBytes())
	}
}

func TestReferenceArithmeticAndComparison(t *testing.T) {
	eng := New()
	prog, err := eng.Compile(`(mod (a b) (> a b))`)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	solution, _ := core.Parse("(5 3)")
	res, err := eng.Run(prog, solution)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Result.IsNil() {
		t.Fatalf("expected 5 > 3 to be truthy")
	}
}

func TestReferenceDivmodReturnsConsPair(t *testing.T) {
	eng := New()
	prog, err := eng.Compile(`(mod (a b) (divmod a b))`)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	solution, _ := core.Parse("(17 5)")
	res, err := eng.Run(prog, solution)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Result.Kind != core.KindCons {
		t.Fatalf("expected divmod to return a cons pair, got kind %v", res.Result.Kind)
	}
	if res.Result.First.AsBigInt().Int64() != 3 || res.Result.Rest.AsBigInt().Int64() != 2 {
		t.Fatalf("expected (3 . 2) for (divmod 17 5), got (%v . %v)", res.Result.First, res.Result.Rest)
	}
}

func TestReferenceDivisionByZero(t *testing.T) {
	eng := New()
	prog, err := eng.Compile(`(mod (a b) (/ a b))`)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	solution, _ := core.Parse("(1 0)")
	if _, err := eng.Run(prog, solution); err == nil {
		t.Fatalf("expected a division-by-zero error")
	}
}

func TestReferenceRaiseProducesError(t *testing.T) {
	eng := New()
	prog, err := eng.Compile(`(mod (x) (x))`)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	solution, _ := core.Parse("(1)")
	if _, err := eng.Run(prog, solution); err == nil {
		t.Fatalf("expected (x) to raise an error")
	}
}

func TestReferenceRefusesBLSCurveOps(t *testing.T) {
	eng := New()
	prog, err := eng.Compile(`(mod (a b) (point_add a b))`)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	solution, _ := core.Parse("(1 2)")
	_, err = eng.Run(prog, solution)
	if err == nil {
		t.Fatalf("expected point_add to be refused")
	}
	if !strings.Contains(err.Error(), "BLS") {
		t.Fatalf("expected the error to mention BLS curve arithmetic, got %v", err)
	}
}

func TestReferenceSerializeHexAndDeserializeRoundTrip(t *testing.T) {
	eng := New()
	prog, err := eng.Compile(`(mod (x) (+ x 1))`)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	hexOut := prog.SerializeHex()
	if hexOut == "" {
		t.Fatalf("expected a non-empty hex encoding")
	}
	reloaded, err := eng.DeserializeHex(hexOut)
	if err != nil {
		t.Fatalf("DeserializeHex error: %v", err)
	}
	if reloaded.TreeHash() != prog.TreeHash() {
		t.Fatalf("expected the round-tripped program to have the same tree hash")
	}
}

func TestReferenceCurryAppliesPositionalArgs(t *testing.T) {
	eng := New()
	prog, err := eng.Compile(`(mod (a b) (+ a b))`)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	curried, err := prog.Curry(core.Int(10))
	if err != nil {
		t.Fatalf("Curry error: %v", err)
	}
	res, err := eng.Run(curried, mustParse(t, "(5)"))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Result.AsBigInt().Int64() != 15 {
		t.Fatalf("expected 10 + 5 = 15, got %v", res.Result)
	}
}

func mustParse(t *testing.T, src string) *core.TreeNode {
	t.Helper()
	node, err := core.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return node
}
