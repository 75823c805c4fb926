package codegen

import (
	"testing"

	"coinscript/core"
)

func TestRegisteredLayersIncludesBuiltins(t *testing.T) {
	names := RegisteredLayers()
	want := map[string]bool{"Singleton": true, "CAT": true, "NFTState": true, "NFTOwnership": true}
	if len(names) < len(want) {
		t.Fatalf("expected at least %d registered layers, got %v", len(want), names)
	}
	for _, n := range names {
		if !want[n] {
			continue
		}
		delete(want, n)
	}
	if len(want) != 0 {
		t.Fatalf("missing expected builtin layers: %v", want)
	}
}

func TestRegisterLayerPanicsOnCollision(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected RegisterLayer to panic on a duplicate name")
		}
	}()
	RegisterLayer("Singleton", func(inner *core.TreeNode, args []*core.TreeNode) (LayerResult, error) {
		return LayerResult{Puzzle: inner}, nil
	})
}

func TestApplyUnknownLayerErrors(t *testing.T) {
	if _, err := ApplyLayer("NoSuchLayer", core.Nil(), nil); err == nil {
		t.Fatalf("expected an error applying an unregistered layer")
	}
}

func TestSingletonLayerRequiresLauncherID(t *testing.T) {
	if _, err := ApplyLayer("Singleton", core.Nil(), nil); err == nil {
		t.Fatalf("expected an error when no launcher id argument is supplied")
	}
}

func TestSingletonLayerWrapsInnerPuzzleAndPublishesLauncher(t *testing.T) {
	inner := core.List(core.Symbol("q"), core.Int(1))
	launcherID := core.Bytes(make([]byte, 32))
	result, err := ApplyLayer("Singleton", inner, []*core.TreeNode{launcherID})
	if err != nil {
		t.Fatalf("ApplyLayer error: %v", err)
	}
	if result.Puzzle == nil {
		t.Fatalf("expected a wrapped puzzle")
	}
	if _, ok := result.AdditionalPuzzles["singleton_launcher"]; !ok {
		t.Fatalf("expected a published singleton_launcher puzzle")
	}
}

func TestCATLayerRequiresTailHash(t *testing.T) {
	if _, err := ApplyLayer("CAT", core.Nil(), nil); err == nil {
		t.Fatalf("expected an error when no TAIL program hash argument is supplied")
	}
}

func TestCATLayerWrapsInnerPuzzle(t *testing.T) {
	inner := core.List(core.Symbol("q"), core.Int(1))
	tailHash := core.Bytes(make([]byte, 32))
	result, err := ApplyLayer("CAT", inner, []*core.TreeNode{tailHash})
	if err != nil {
		t.Fatalf("ApplyLayer error: %v", err)
	}
	if result.Puzzle == nil {
		t.Fatalf("expected a wrapped puzzle")
	}
}

func TestNFTOwnershipLayerDefaultsTransferProgramToNil(t *testing.T) {
	inner := core.List(core.Symbol("q"), core.Int(1))
	owner := core.Bytes(make([]byte, 32))
	result, err := ApplyLayer("NFTOwnership", inner, []*core.TreeNode{owner})
	if err != nil {
		t.Fatalf("ApplyLayer error: %v", err)
	}
	if result.Puzzle == nil {
		t.Fatalf("expected a wrapped puzzle")
	}
}
