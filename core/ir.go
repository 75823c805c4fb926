// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – Core ▸ Tree IR
// -------------------------------------
//
//   - Every ChiaLisp expression the toolchain produces or parses is represented
//     as a TreeNode: Atom | List | ConsPair. List/ConsPair are structurally
//     equivalent (a List is a right-nested, nil-terminated Cons chain) and
//     MUST compare equal and tree-hash equal after normalization.
//
//   - Atom values are immutable once constructed; transformations (currying,
//     substitution) always return new nodes.
package core

import (
	"math/big"
)

// AtomKind tags the semantic interpretation of an Atom's underlying bytes.
type AtomKind int

const (
	AtomNil AtomKind = iota
	AtomInteger
	AtomBytes
	AtomSymbol
	AtomString
)

// Kind discriminates the three TreeNode variants.
type Kind int

const (
	KindAtom Kind = iota
	KindList
	KindCons
)

// TreeNode is the sum type at the heart of the compiler: Atom, List, or ConsPair.
//
// Only one of the variant-specific fields is meaningful for a given Kind:
//
//	KindAtom -> AtomKind/Int/Bytes/Sym
//	KindList -> Items
//	KindCons -> First/Rest
type TreeNode struct {
	Kind Kind

	// Atom fields.
	AKind AtomKind
	Int   *big.Int
	Bytes []byte
	Sym   string

	// List field.
	Items []*TreeNode

	// Cons fields.
	First *TreeNode
	Rest  *TreeNode
}

// Nil is the distinguished empty atom: equal to the empty list, byte
// representation is the empty byte string.
func Nil() *TreeNode { return &TreeNode{Kind: KindAtom, AKind: AtomNil} }

// Int constructs an arbitrary-precision integer atom.
func Int(v int64) *TreeNode { return BigInt(big.NewInt(v)) }

// BigInt constructs an arbitrary-precision integer atom from a *big.Int.
func BigInt(v *big.Int) *TreeNode {
	if v == nil {
		return Nil()
	}
	if v.Sign() == 0 {
		return Nil()
	}
	return &TreeNode{Kind: KindAtom, AKind: AtomInteger, Int: new(big.Int).Set(v)}
}

// Bytes constructs a raw binary atom.
func Bytes(b []byte) *TreeNode {
	if len(b) == 0 {
		return Nil()
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return &TreeNode{Kind: KindAtom, AKind: AtomBytes, Bytes: cp}
}

// Symbol constructs an identifier atom.
func Symbol(name string) *TreeNode {
	if name == "" {
		return Nil()
	}
	return &TreeNode{Kind: KindAtom, AKind: AtomSymbol, Sym: name}
}

// Str constructs a quoted-text atom, stored as UTF-8 bytes but rendered quoted.
func Str(s string) *TreeNode {
	return &TreeNode{Kind: KindAtom, AKind: AtomString, Bytes: []byte(s)}
}

// List constructs a proper list node from the given elements.
func List(items ...*TreeNode) *TreeNode {
	return &TreeNode{Kind: KindList, Items: items}
}

// Cons constructs a (first . rest) pair.
func Cons(first, rest *TreeNode) *TreeNode {
	return &TreeNode{Kind: KindCons, First: first, Rest: rest}
}

// IsNil reports whether n is the distinguished empty atom (or an empty list).
func (n *TreeNode) IsNil() bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case KindAtom:
		return n.AKind == AtomNil || (n.AKind == AtomInteger && (n.Int == nil || n.Int.Sign() == 0)) ||
			(n.AKind == AtomBytes && len(n.Bytes) == 0)
	case KindList:
		return len(n.Items) == 0
	case KindCons:
		return false
	}
	return false
}

// AsBytes returns the minimal byte encoding of an atom: nil -> empty, integer
// -> minimal two's-complement (sign-extended so the high bit agrees with the
// sign), bytes/string -> verbatim, symbol -> its UTF-8 name.
func (n *TreeNode) AsBytes() []byte {
	if n == nil || n.Kind != KindAtom {
		return nil
	}
	switch n.AKind {
	case AtomNil:
		return nil
	case AtomInteger:
		return encodeMinimalInt(n.Int)
	case AtomBytes, AtomString:
		return n.Bytes
	case AtomSymbol:
		return []byte(n.Sym)
	}
	return nil
}

// AsBigInt returns an atom's value as a signed integer: nil -> 0, integer ->
// itself, bytes/string/symbol -> decoded via minimal two's-complement
// (mirroring how the reference engine treats any atom as arithmetic input).
func (n *TreeNode) AsBigInt() *big.Int {
	if n == nil || n.Kind != KindAtom {
		return big.NewInt(0)
	}
	if n.AKind == AtomInteger && n.Int != nil {
		return n.Int
	}
	return decodeMinimalInt(n.AsBytes())
}

func encodeMinimalInt(v *big.Int) []byte {
	if v == nil || v.Sign() == 0 {
		return nil
	}
	if v.Sign() > 0 {
		b := v.Bytes()
		if len(b) > 0 && b[0]&0x80 != 0 {
			out := make([]byte, len(b)+1)
			copy(out[1:], b)
			return out
		}
		return b
	}
	// Two's complement for negative values: find the smallest byte-width n such
	// that -2^(8n-1) <= v, then encode v+2^(8n) in that width.
	abs := new(big.Int).Neg(v)
	width := (abs.BitLen() + 7) / 8
	if width == 0 {
		width = 1
	}
	for {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(width*8))
		enc := new(big.Int).Add(mod, v)
		b := enc.Bytes()
		for len(b) < width {
			b = append([]byte{0}, b...)
		}
		if len(b) > width {
			width++
			continue
		}
		if b[0]&0x80 == 0 {
			width++
			continue
		}
		return b
	}
}

// decodeMinimalInt is the inverse of encodeMinimalInt: minimal two's-complement
// bytes (big-endian) -> signed big.Int, with empty bytes denoting zero.
func decodeMinimalInt(b []byte) *big.Int {
	if len(b) == 0 {
		return big.NewInt(0)
	}
	v := new(big.Int).SetBytes(b)
	if b[0]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8))
		v.Sub(v, mod)
	}
	return v
}

// AsList normalizes a ConsPair chain or a List into a Go slice of elements,
// plus the final improper tail (nil when the chain is a proper list).
func (n *TreeNode) AsList() (items []*TreeNode, tail *TreeNode) {
	if n == nil {
		return nil, Nil()
	}
	switch n.Kind {
	case KindList:
		return n.Items, Nil()
	case KindCons:
		items = append(items, n.First)
		rest := n.Rest
		for rest.Kind == KindCons {
			items = append(items, rest.First)
			rest = rest.Rest
		}
		if rest.Kind == KindList {
			items = append(items, rest.Items...)
			return items, Nil()
		}
		if rest.IsNil() {
			return items, Nil()
		}
		return items, rest
	default:
		return nil, n
	}
}

// toConsChain builds the right-nested cons chain for items terminated by tail.
func toConsChain(items []*TreeNode, tail *TreeNode) *TreeNode {
	result := tail
	for i := len(items) - 1; i >= 0; i-- {
		result = Cons(items[i], result)
	}
	return result
}

// Equal decides structural equality, ignoring List vs. right-nested-Cons
// representational differences (normalization).
func Equal(a, b *TreeNode) bool {
	aItems, aTail := a.AsList()
	bItems, bTail := b.AsList()
	if aItems != nil || bItems != nil || !aTail.IsNil() || !bTail.IsNil() {
		// Either side is a list/cons chain (or both sides are atoms and
		// AsList degenerates to the atom itself as an "improper tail").
		if a.isAtomLike() && b.isAtomLike() && len(aItems) == 0 && len(bItems) == 0 {
			return atomEqual(a, b)
		}
		if len(aItems) != len(bItems) {
			return false
		}
		for i := range aItems {
			if !Equal(aItems[i], bItems[i]) {
				return false
			}
		}
		return Equal(aTail, bTail)
	}
	return atomEqual(a, b)
}

func (n *TreeNode) isAtomLike() bool {
	return n == nil || n.Kind == KindAtom
}

func atomEqual(a, b *TreeNode) bool {
	if a.IsNil() && b.IsNil() {
		return true
	}
	if a.IsNil() != b.IsNil() {
		return false
	}
	if a.Kind != KindAtom || b.Kind != KindAtom {
		return false
	}
	// Symbols/strings compare by decoded bytes identity only when kinds match;
	// an integer atom and a bytes atom with the same encoding are NOT equal at
	// the AST level (only their serialized bytes coincide) except both reduce
	// through AsBytes for hashing purposes elsewhere.
	if a.AKind != b.AKind {
		if (a.AKind == AtomInteger || a.AKind == AtomBytes) && (b.AKind == AtomInteger || b.AKind == AtomBytes) {
			return bytesEqual(a.AsBytes(), b.AsBytes())
		}
		return false
	}
	switch a.AKind {
	case AtomInteger:
		return a.Int.Cmp(b.Int) == 0
	case AtomBytes, AtomString:
		return bytesEqual(a.Bytes, b.Bytes)
	case AtomSymbol:
		return a.Sym == b.Sym
	}
	return true
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
