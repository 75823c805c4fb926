// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – Code Generator ▸ Layer catalog
// ---------------------------------------------------------
//
//   - Outer-puzzle layers (singleton, CAT v2, NFT state/ownership) wrap a
//     compiled inner puzzle's IR, per §4.8 step 6. Modeled as a small
//     name -> LayerFunc registry guarded by a mutex, the same shape as the
//     teacher's opcode dispatcher (core/opcode_dispatcher.go: Register
//     panics on collision, Dispatch looks up under RLock); here it gives
//     "@singleton"/"@cat" class decorators a real registered handler
//     instead of a no-op switch.
package codegen

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"coinscript/core"
)

// LayerResult is what a LayerFunc produces: the wrapped puzzle IR plus any
// additional puzzles the layer needs published alongside it (e.g. the
// singleton launcher).
type LayerResult struct {
	Puzzle            *core.TreeNode
	AdditionalPuzzles map[string]*core.TreeNode
}

// LayerFunc wraps innerPuzzle with layer-specific curried parameters.
type LayerFunc func(innerPuzzle *core.TreeNode, args []*core.TreeNode) (LayerResult, error)

var (
	layerMu    sync.RWMutex
	layerTable = make(map[string]LayerFunc, 8)
)

// RegisterLayer binds name to fn. Panics on duplicate registration, mirroring
// the teacher's "collisions are fatal at start-up" policy for its opcode
// table.
func RegisterLayer(name string, fn LayerFunc) {
	layerMu.Lock()
	defer layerMu.Unlock()
	if _, exists := layerTable[name]; exists {
		log.Panicf("[layers] collision: layer %q already registered", name)
	}
	layerTable[name] = fn
}

// ApplyLayer looks up name and wraps innerPuzzle with it.
func ApplyLayer(name string, innerPuzzle *core.TreeNode, args []*core.TreeNode) (LayerResult, error) {
	layerMu.RLock()
	fn, ok := layerTable[name]
	layerMu.RUnlock()
	if !ok {
		return LayerResult{}, fmt.Errorf("unknown layer %q", name)
	}
	return fn(innerPuzzle, args)
}

// RegisteredLayers returns the sorted list of known layer names, used by
// includelint-style tooling and tests to enumerate coverage.
func RegisteredLayers() []string {
	layerMu.RLock()
	defer layerMu.RUnlock()
	names := make([]string, 0, len(layerTable))
	for n := range layerTable {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterLayer("Singleton", singletonLayer)
	RegisterLayer("CAT", catLayer)
	RegisterLayer("NFTState", nftStateLayer)
	RegisterLayer("NFTOwnership", nftOwnershipLayer)
}

// singletonLayer wraps innerPuzzle in a singleton outer mod: the outer
// puzzle includes singleton_truths.clib and runs the inner puzzle with the
// list (SINGLETON_STRUCT launcher_id) prepended to its environment. It
// emits no uniqueness assertion (no ASSERT_MY_COIN_ID or lineage check) of
// its own; the launcher puzzle hash is not part of the struct.
// args[0] is the launcher coin id (32 bytes).
func singletonLayer(innerPuzzle *core.TreeNode, args []*core.TreeNode) (LayerResult, error) {
	if len(args) < 1 {
		return LayerResult{}, fmt.Errorf("Singleton layer requires a launcher id argument")
	}
	launcherID := args[0]
	singletonStruct := core.List(core.Symbol("SINGLETON_STRUCT"), launcherID)
	wrapped := core.List(
		core.Symbol("mod"), core.Symbol("@"),
		core.List(core.Symbol("include"), core.Symbol("singleton_truths.clib")),
		core.List(
			core.Symbol("a"),
			core.Cons(core.Symbol("q"), innerPuzzle),
			core.List(core.Symbol("c"), singletonStruct, core.Symbol("1")),
		),
	)
	launcher := core.List(core.Symbol("mod"), core.Symbol("@"), launcherID)
	return LayerResult{
		Puzzle:            wrapped,
		AdditionalPuzzles: map[string]*core.TreeNode{"singleton_launcher": launcher},
	}, nil
}

// catLayer wraps innerPuzzle in the CAT v2 envelope, currying in the TAIL
// program hash (args[0]) so the coin's asset id is fixed, and including
// cat_truths.clib for the lineage-proof helper projections.
func catLayer(innerPuzzle *core.TreeNode, args []*core.TreeNode) (LayerResult, error) {
	if len(args) < 1 {
		return LayerResult{}, fmt.Errorf("CAT layer requires a TAIL program hash argument")
	}
	tailHash := args[0]
	wrapped := core.List(
		core.Symbol("mod"), core.Symbol("@"),
		core.List(core.Symbol("include"), core.Symbol("cat_truths.clib")),
		core.List(
			core.Symbol("a"),
			core.Cons(core.Symbol("q"), innerPuzzle),
			core.List(core.Symbol("c"), tailHash, core.Symbol("1")),
		),
	)
	return LayerResult{Puzzle: wrapped}, nil
}

// nftStateLayer runs innerPuzzle with the metadata/state uri list (args[0])
// prepended to its environment. It does not itself emit a CREATE_COIN that
// re-creates the coin with updated metadata.
func nftStateLayer(innerPuzzle *core.TreeNode, args []*core.TreeNode) (LayerResult, error) {
	if len(args) < 1 {
		return LayerResult{}, fmt.Errorf("NFTState layer requires a metadata argument")
	}
	metadata := args[0]
	wrapped := core.List(
		core.Symbol("mod"), core.Symbol("@"),
		core.List(
			core.Symbol("a"),
			core.Cons(core.Symbol("q"), innerPuzzle),
			core.List(core.Symbol("c"), metadata, core.Symbol("1")),
		),
	)
	return LayerResult{Puzzle: wrapped}, nil
}

// nftOwnershipLayer curries the current owner puzzle hash (args[0]) and an
// optional transfer-program inner puzzle (args[1]) around innerPuzzle.
func nftOwnershipLayer(innerPuzzle *core.TreeNode, args []*core.TreeNode) (LayerResult, error) {
	if len(args) < 1 {
		return LayerResult{}, fmt.Errorf("NFTOwnership layer requires an owner argument")
	}
	owner := args[0]
	transferProgram := core.Nil()
	if len(args) > 1 {
		transferProgram = args[1]
	}
	wrapped := core.List(
		core.Symbol("mod"), core.Symbol("@"),
		core.List(
			core.Symbol("a"),
			core.Cons(core.Symbol("q"), innerPuzzle),
			core.List(core.Symbol("c"), owner, core.List(core.Symbol("c"), transferProgram, core.Symbol("1"))),
		),
	)
	return LayerResult{Puzzle: wrapped}, nil
}
