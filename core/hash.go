package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// TreeHash computes sha256tree1 over n: SHA256(0x01||bytes(atom)) for atoms,
// SHA256(0x02||hash(first)||hash(rest)) for cons pairs, with proper lists
// hashed as their equivalent right-nested cons chain. The empty list hashes
// as hash(nil) == SHA256(0x01).
func TreeHash(n *TreeNode) [32]byte {
	if n == nil || n.IsNil() {
		return sha256.Sum256([]byte{0x01})
	}
	switch n.Kind {
	case KindAtom:
		buf := append([]byte{0x01}, n.AsBytes()...)
		return sha256.Sum256(buf)
	case KindList:
		return TreeHash(toConsChain(n.Items, Nil()))
	case KindCons:
		fh := TreeHash(n.First)
		rh := TreeHash(n.Rest)
		buf := make([]byte, 0, 1+32+32)
		buf = append(buf, 0x02)
		buf = append(buf, fh[:]...)
		buf = append(buf, rh[:]...)
		return sha256.Sum256(buf)
	}
	return sha256.Sum256([]byte{0x01})
}

// TreeHashHex formats TreeHash's output with a leading 0x, as callers expect
// an on-chain-style puzzle hash string.
func TreeHashHex(n *TreeNode) string {
	h := TreeHash(n)
	return "0x" + hex.EncodeToString(h[:])
}

// CurryByPosition implements the classic curry wrapper (§4.4.1): given
// compiled puzzle program and args, produce
//
//	(a (q . P) (c (q . a1) (c (q . a2) ... (c (q . an) 1))))
//
// which prepends a1..an to the incoming solution before invoking P.
func CurryByPosition(puzzle *TreeNode, args ...*TreeNode) *TreeNode {
	quotedPuzzle := Cons(Symbol("q"), puzzle)
	// Build (q . ai) wrapped in cons cells, terminated by `1` (the running
	// solution placeholder).
	tail := Int(1)
	for i := len(args) - 1; i >= 0; i-- {
		quotedArg := Cons(Symbol("q"), args[i])
		tail = List(Symbol("c"), quotedArg, tail)
	}
	return List(Symbol("a"), quotedPuzzle, tail)
}

// CurryByName implements named substitution (§4.4.2): walk body, replacing
// every symbol atom whose name matches a curried-parameter name with its
// bound value. It touches no parameter list; Build rejects a curried name
// that is also a solution parameter (validateNoCurriedShadow) before
// calling it. Substitution is capture-free for CoinScript-emitted IR (no
// shadowing of curried names).
func CurryByName(body *TreeNode, curried map[string]*TreeNode) *TreeNode {
	return substitute(body, curried)
}

func substitute(n *TreeNode, curried map[string]*TreeNode) *TreeNode {
	if n == nil {
		return Nil()
	}
	switch n.Kind {
	case KindAtom:
		if n.AKind == AtomSymbol {
			if v, ok := curried[n.Sym]; ok {
				return v
			}
		}
		return n
	case KindList:
		items := make([]*TreeNode, len(n.Items))
		for i, it := range n.Items {
			items[i] = substitute(it, curried)
		}
		return List(items...)
	case KindCons:
		return Cons(substitute(n.First, curried), substitute(n.Rest, curried))
	}
	return n
}

// validateNoCurriedShadow reports an error if any curried-parameter name also
// appears in solutionParams, which would make the capture-free substitution
// unsound (§9 design note).
func validateNoCurriedShadow(curried map[string]*TreeNode, solutionParams []string) error {
	for _, p := range solutionParams {
		if _, ok := curried[p]; ok {
			return BuilderError("curried parameter %q also appears in solution parameter list", p)
		}
	}
	return nil
}
