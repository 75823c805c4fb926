// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – Core ▸ CLVM Cost Schedule
// -------------------------------------------------
//
//   - This file contains the per-opcode cost table charged by the reference
//     Engine's Run implementation (clvmengine.Reference) when reporting
//     {result, cost} back to callers. The numbers are illustrative, not a
//     consensus-accurate replica of the chain's real cost schedule — the
//     core makes no performance guarantees (spec Non-goals) — but every
//     opcode in the primitive table has an entry so `simulate()` always
//     returns a cost figure instead of silently charging zero.
package core

import (
	"log"
	"sync"
)

// DefaultOpCost is charged for any primitive opcode missing from costTable.
const DefaultOpCost uint64 = 100

var costTable = map[string]uint64{
	"q": 1, "a": 90, "i": 33, "c": 10, "f": 9, "r": 9, "l": 9, "x": 10,
	"=": 11, ">s": 12, "sha256": 80, "substr": 10, "strlen": 10, "concat": 12,
	"+": 10, "-": 10, "*": 12, "/": 13, "divmod": 16, ">": 11,
	"ash": 10, "lsh": 10, "logand": 10, "logior": 10, "logxor": 10, "lognot": 8,
	"point_add": 150, "pubkey_for_exp": 150, "not": 9, "any": 9, "all": 9, "softfork": 1,
}

var costWarnOnce sync.Map

// OpCost returns the base cost for a primitive opcode's ChiaLisp name.
func OpCost(name string) uint64 {
	if c, ok := costTable[name]; ok {
		return c
	}
	if _, seen := costWarnOnce.LoadOrStore(name, struct{}{}); !seen {
		log.Printf("[cost] no cost entry for opcode %q; charging default %d", name, DefaultOpCost)
	}
	return DefaultOpCost
}
