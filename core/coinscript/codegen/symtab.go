// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – Code Generator ▸ Symbol table
// -------------------------------------------------------
//
//   - Binds every identifier a CoinScript action body can reference to
//     exactly one entry (§3.4 invariant: "every identifier resolves to
//     exactly one symbol table entry at code-gen time").
package codegen

import (
	"coinscript/core"
	"coinscript/core/coinscript"
)

type symbolKind int

const (
	symStorage symbolKind = iota
	symState
	symParam
	symConst
	symBuiltin
)

type symbolEntry struct {
	kind symbolKind
	typ  coinscript.Type
	// chialispName is the symbol this identifier lowers to in the emitted
	// puzzle: a curried storage name, a solution-carried state field
	// accessor, a solution parameter name, or (for builtins) unused.
	chialispName string
	// inlineNode is set for local variables (symConst): the lowered
	// initializer expression, substituted at every reference site instead
	// of occupying a solution position.
	inlineNode *core.TreeNode
}

// env is the per-action symbol table, seeded with the coin's storage/state
// fields and extended with the action's own parameters.
type env struct {
	coin      *coinscript.CoinDecl
	entries   map[string]symbolEntry
	stateful  bool
	stateName string // solution-position symbol the current state record is bound to
}

func newEnv(coin *coinscript.CoinDecl) *env {
	e := &env{coin: coin, entries: make(map[string]symbolEntry)}
	for _, s := range coin.Storage {
		e.entries[s.Name] = symbolEntry{kind: symStorage, typ: s.Type, chialispName: s.Name}
	}
	for _, s := range coin.State {
		e.entries[s.Name] = symbolEntry{kind: symState, typ: s.Type, chialispName: s.Name}
	}
	for _, m := range coin.Modifiers {
		_ = m // modifiers are inlined at usage sites, not symbol-table entries
	}
	return e
}

func (e *env) bindParams(params []coinscript.Param) {
	for _, p := range params {
		e.entries[p.Name] = symbolEntry{kind: symParam, typ: p.Type, chialispName: p.Name}
	}
}

// bindLocal records a local variable's already-lowered initializer node so
// later references inline it directly.
func (e *env) bindLocal(name string, node *core.TreeNode) {
	ent := e.entries[name]
	ent.kind = symConst
	ent.inlineNode = node
	e.entries[name] = ent
}

func (e *env) lookup(name string) (symbolEntry, bool) {
	switch name {
	case "msg", "block":
		return symbolEntry{kind: symBuiltin, typ: coinscript.TypeUnknown}, true
	}
	ent, ok := e.entries[name]
	return ent, ok
}
