package codegen

import (
	"encoding/hex"
	"strings"
	"testing"

	"coinscript/core"
	"coinscript/core/coinscript"
)

func compileSource(t *testing.T, src string) *Result {
	t.Helper()
	file, err := coinscript.Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	res, err := Compile(file)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	return res
}

// findOpcode searches node (and its subtree) for a List/Cons whose head is
// the integer opcode op, returning the full condition node.
func findOpcode(node *core.TreeNode, op int64) (*core.TreeNode, bool) {
	if node == nil || node.Kind == core.KindAtom {
		return nil, false
	}
	items, tail := node.AsList()
	if len(items) > 0 && items[0].Kind == core.KindAtom && items[0].AKind == core.AtomInteger {
		if items[0].AsBigInt().Int64() == op {
			return node, true
		}
	}
	for _, item := range items {
		if found, ok := findOpcode(item, op); ok {
			return found, true
		}
	}
	if found, ok := findOpcode(tail, op); ok {
		return found, true
	}
	return nil, false
}

// findBytes searches node's subtree for a byte atom equal to want.
func findBytes(node *core.TreeNode, want []byte) bool {
	if node == nil {
		return false
	}
	if node.Kind == core.KindAtom {
		return node.AKind == core.AtomBytes && string(node.AsBytes()) == string(want)
	}
	items, tail := node.AsList()
	for _, item := range items {
		if findBytes(item, want) {
			return true
		}
	}
	return findBytes(tail, want)
}

func TestCodegenAddressLiteralCurriesPuzzleHash(t *testing.T) {
	const src = `
coin AddressTest {
  storage address owner = xch1xf23pd3ludh8chksgaxcs6dkhcwpfm0gv64h02q9rmy6mwwp8w7qtsp7ph;
  action payOwner() {
    send(owner, 100);
  }
}
`
	res := compileSource(t, src)
	want, err := hex.DecodeString("325510b63fe36e7c5ed0474d8869b6be1c14ede866ab77a8051ec9adb9c13bbc")
	if err != nil {
		t.Fatalf("DecodeString error: %v", err)
	}
	if !findBytes(res.MainPuzzle, want) {
		t.Fatalf("expected the curried puzzle hash to appear in the compiled puzzle")
	}
}

func TestCodegenInvalidAddressLiteralIsSemanticError(t *testing.T) {
	const src = `
coin BadAddress {
  storage address owner = xch1invalid;
  action payOwner() {
    send(owner, 100);
  }
}
`
	file, err := coinscript.Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	_, err = Compile(file)
	if err == nil {
		t.Fatalf("expected a semantic error for an invalid Chia address")
	}
	if !strings.Contains(err.Error(), "Invalid Chia address") {
		t.Fatalf("expected the error to mention \"Invalid Chia address\", got %v", err)
	}
}

func TestCodegenRequireSignatureGuard(t *testing.T) {
	const src = `
coin SenderValidation {
  storage address owner = xch1xf23pd3ludh8chksgaxcs6dkhcwpfm0gv64h02q9rmy6mwwp8w7qtsp7ph;
  action onlyOwner() {
    require(msg.sender == owner, "Not owner");
    send(owner, 100);
  }
}
`
	res := compileSource(t, src)
	if _, ok := findOpcode(res.MainPuzzle, int64(core.OpAggSigMe)); !ok {
		t.Fatalf("expected an AGG_SIG_ME condition in the compiled puzzle")
	}
	if _, ok := findOpcode(res.MainPuzzle, int64(core.OpCreateCoin)); !ok {
		t.Fatalf("expected a CREATE_COIN condition in the compiled puzzle")
	}
	ownerHash, err := hex.DecodeString("325510b63fe36e7c5ed0474d8869b6be1c14ede866ab77a8051ec9adb9c13bbc")
	if err != nil {
		t.Fatalf("DecodeString error: %v", err)
	}
	aggSig, ok := findOpcode(res.MainPuzzle, int64(core.OpAggSigMe))
	if !ok {
		t.Fatalf("expected to find the AGG_SIG_ME condition node")
	}
	if !findBytes(aggSig, ownerHash) {
		t.Fatalf("expected AGG_SIG_ME to reference the owner's puzzle hash")
	}
}

func TestCodegenStatefulCounterEmitsStateLayer(t *testing.T) {
	const src = `
coin Counter {
  state { uint256 count; }
  @stateful action increment() {
    state.count += 1;
    recreateSelf();
  }
}
`
	res := compileSource(t, src)
	if !res.Metadata.HasStatefulActions {
		t.Fatalf("expected Metadata.HasStatefulActions to be true")
	}
	if _, ok := findOpcode(res.MainPuzzle, int64(core.OpCreateCoin)); !ok {
		t.Fatalf("expected the stateful action to emit a CREATE_COIN for self-recreation")
	}
}

func TestCodegenEscrowThreeWayDispatch(t *testing.T) {
	const src = `
coin Escrow {
  storage address seller = xch1xf23pd3ludh8chksgaxcs6dkhcwpfm0gv64h02q9rmy6mwwp8w7qtsp7ph;
  action release() {
    send(seller, 100);
  }
  action refund() {
    send(seller, 100);
  }
  action timeoutRefund() {
    send(seller, 100);
  }
}
`
	res := compileSource(t, src)
	want := map[string]bool{"release": true, "refund": true, "timeoutRefund": true}
	if len(res.Metadata.ActionNames) != 3 {
		t.Fatalf("expected 3 action names, got %v", res.Metadata.ActionNames)
	}
	for _, name := range res.Metadata.ActionNames {
		if !want[name] {
			t.Fatalf("unexpected action name %q", name)
		}
	}
}

func TestCodegenUnknownActionRaises(t *testing.T) {
	const src = `
coin SingleAction {
  storage address owner = xch1xf23pd3ludh8chksgaxcs6dkhcwpfm0gv64h02q9rmy6mwwp8w7qtsp7ph;
  action release() {
    send(owner, 1);
  }
}
`
	res := compileSource(t, src)
	// Structural check: the dispatch cascade's terminal else branch is a bare
	// raise, i.e. the puzzle contains `(x)` reachable outside any action's
	// own body.
	if !containsRaise(res.MainPuzzle) {
		t.Fatalf("expected the compiled puzzle to contain a raise for unmatched actions")
	}
}

func containsRaise(node *core.TreeNode) bool {
	if node == nil || node.Kind == core.KindAtom {
		return false
	}
	items, tail := node.AsList()
	if len(items) == 1 && items[0].Kind == core.KindAtom && items[0].AKind == core.AtomSymbol && items[0].Sym == "x" {
		return true
	}
	for _, item := range items {
		if containsRaise(item) {
			return true
		}
	}
	return containsRaise(tail)
}

func TestCodegenRejectsSecondCoinDecl(t *testing.T) {
	const src = `
coin First {
  action a() { revert(); }
}
coin Second {
  action b() { revert(); }
}
`
	file, err := coinscript.Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if _, err := Compile(file); err == nil {
		t.Fatalf("expected an error for a file declaring two coins")
	}
}

func TestCodegenRequiresAtLeastOneAction(t *testing.T) {
	const src = `
coin Empty {
  storage uint256 x = 1;
}
`
	file, err := coinscript.Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if _, err := Compile(file); err == nil {
		t.Fatalf("expected an error for a coin with no actions")
	}
}

func TestCodegenMappingIndexReadIsUnsupported(t *testing.T) {
	const src = `
coin Balances {
  state { uint256[address] balances; }
  @stateful action read() {
    uint256 x = state.balances[msg.sender];
    recreateSelf();
  }
}
`
	file, err := coinscript.Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	_, err = Compile(file)
	if err == nil {
		t.Fatalf("expected a semantic error for reading a mapping by index")
	}
	if !strings.Contains(err.Error(), "mapping index is unsupported") {
		t.Fatalf("expected the error to mention \"mapping index is unsupported\", got %v", err)
	}
}
