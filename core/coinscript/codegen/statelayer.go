// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – Code Generator ▸ State layer (slot machine, C11)
// --------------------------------------------------------------------------
//
//   - Implements §4.9: a contract declaring `state { … }` compiles so that
//     each stateful spend recreates the same puzzle with the current
//     state's solution-carried record replaced by the updated one. Because
//     `current_state` travels in the *solution*, never curried (§4.9's
//     solution shape), a coin's full puzzle hash never changes across its
//     lifetime — only the state payload in each spend's solution differs.
//
//   - That still leaves one genuine self-reference problem: the
//     `CREATE_COIN` a stateful action emits must name *this puzzle's own*
//     hash as the recreated coin's puzzle hash, and that hash cannot be a
//     literal baked into the body (the literal would have to already
//     contain itself). Real ChiaLisp resolves this with the
//     curry-and-treehash trick: curry in MOD_HASH, the hash of the
//     *uncurried* puzzle template (computable once, since the template
//     doesn't yet contain any curried values, only their symbols), and
//     have the body recompute its own full hash at *run time* from
//     MOD_HASH plus its curried arguments' hashes. selfPuzzleHashCallNode
//     emits that recomputation call; modHashOfTemplate performs the
//     one-time, circularity-free hash of the template that MOD_HASH is
//     curried to (§9's design note: compute self-hash "via sha256tree over
//     the curried-parameters slot", not host-side string substitution).
package codegen

import "coinscript/core"

const modHashParamName = "MOD_HASH"

// modHashOfTemplate hashes body as it exists BEFORE any curried parameter
// is substituted into it (storage/state names remain free symbols), giving
// the hash of the puzzle's shape independent of any particular curried
// binding — the only value that can be curried back in without creating a
// self-reference cycle.
func modHashOfTemplate(body *core.TreeNode) [32]byte {
	return core.TreeHash(body)
}

// selfPuzzleHashCallNode builds the runtime expression a stateful action's
// recreate condition uses in place of a literal puzzle hash:
// `(curry_and_treehash MOD_HASH (sha256tree storage1) (sha256tree storage2) ...)`.
// `curry_and_treehash` is exported by curry-and-treehash.clinc in this
// module's include catalog (feature flag `_curry_treehash`); it is not meant
// to reproduce chia-blockchain's bit-for-bit `curry_hashes` helper, only to
// give emitted CoinScript a documented, symbolically-correct way to name
// "this puzzle, recreated with its own curried arguments unchanged".
func selfPuzzleHashCallNode(storageNames []string) *core.TreeNode {
	args := make([]*core.TreeNode, 0, len(storageNames)+2)
	args = append(args, core.Symbol("curry_and_treehash"), core.Symbol(modHashParamName))
	for _, name := range storageNames {
		args = append(args, core.List(core.Symbol("sha256tree"), core.Symbol(name)))
	}
	return core.List(args...)
}

// newStateRecordNode builds the updated state record (§4.9: "records
// serialize as flat lists, preserving declaration order"), taking the
// written value for each field the action touched and the unchanged
// current value (via stateFieldAccessor) for every field it didn't.
func newStateRecordNode(ctx *actionCtx) *core.TreeNode {
	fields := make([]*core.TreeNode, len(ctx.en.coin.State))
	for i, s := range ctx.en.coin.State {
		if v, ok := ctx.stateWrites[s.Name]; ok {
			fields[i] = v.Node()
			continue
		}
		fields[i] = stateFieldAccessor(ctx.pb, ctx.en, s.Name).Node()
	}
	return core.List(fields...)
}

// finalizeStateLayer emits the single CREATE_COIN condition every stateful
// action must produce exactly once (§4.9 invariant), directed at this
// puzzle's own (invariant) hash and carrying the updated state record as
// its memo. The state record is not curried into the recreated puzzle.
func finalizeStateLayer(ctx *actionCtx, storageNames []string) {
	newState := newStateRecordNode(ctx)
	ctx.pb.MarkFeature("_curry_treehash")
	ctx.pb.MarkFeature("sha256tree")
	selfHash := selfPuzzleHashCallNode(storageNames)
	amount := ctx.pb.Param("my_amount")
	ctx.pb.CreateCoin(selfHash, amount.Node(), newState)
}
