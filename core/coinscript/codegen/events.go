// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – Code Generator ▸ Event tagging
// ---------------------------------------------------------
//
//   - `emit Event(args…)` lowers to a CREATE_COIN_ANNOUNCEMENT condition
//     carrying a tagged message (§4.8 step 4): `sha256(event-name || arg
//     encoding)`. That hash is the on-chain announcement message and MUST
//     use the same sha256tree-compatible hashing this module uses
//     everywhere else (core.TreeHash), since the consensus layer only
//     understands sha256-derived announcement ids.
//
//   - Separately, tooling that surfaces event activity to off-chain
//     consumers (indexers, the CLI's `--verbose` event log) wants a
//     stable, collision-resistant *identifier* for the event signature
//     itself, independent of argument values — the same role Keccak256
//     event-topic hashing plays for EVM logs. EventTopic fills that role
//     using github.com/ethereum/go-ethereum/crypto (already a teacher
//     dependency via core/virtual_machine.go) and
//     github.com/ethereum/go-ethereum/common's Hash type, giving that
//     dependency a concrete home without repurposing it as the on-chain
//     announcement hash.
package codegen

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"coinscript/core"
)

// EventSignature renders an event's canonical signature text, e.g.
// "Transfer(address,uint256)", the same way Solidity derives a log topic.
func EventSignature(name string, paramTypes []string) string {
	sig := name + "("
	for i, t := range paramTypes {
		if i > 0 {
			sig += ","
		}
		sig += t
	}
	return sig + ")"
}

// EventTopic returns a stable off-chain identifier for an event signature,
// for indexers and CLI diagnostics only — never consumed on-chain.
func EventTopic(name string, paramTypes []string) common.Hash {
	return crypto.Keccak256Hash([]byte(EventSignature(name, paramTypes)))
}

// AnnouncementMessage builds the on-chain CREATE_COIN_ANNOUNCEMENT payload
// node for `emit name(args…)`: sha256tree(name-symbol . args-as-list),
// matching this core's single hashing primitive (core.TreeHash) so the
// message an action creates and the message a counterparty asserts via
// AssertAnnouncement agree bit-for-bit.
func AnnouncementMessage(name string, args []*core.TreeNode) *core.TreeNode {
	tagged := core.Cons(core.Symbol(name), core.List(args...))
	hash := core.TreeHash(tagged)
	return core.Bytes(hash[:])
}

// ValidateEventArgs is a small arity guard invoked during lowering before
// AnnouncementMessage is built, surfacing a CodegenError-shaped message
// rather than panicking on a length mismatch.
func ValidateEventArgs(eventName string, wantArity, gotArity int) error {
	if wantArity != gotArity {
		return fmt.Errorf("event %q expects %d argument(s), got %d", eventName, wantArity, gotArity)
	}
	return nil
}
