// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – Core ▸ Solution builder (C8)
// ------------------------------------------------------
//
//   - Fluently constructs the solution (args) list a puzzle is run against
//     (§4.6). Unlike PuzzleBuilder, a solution carries one of two structure
//     shapes: a flat ordered `list` or a two-element `cons` pair
//     (asConsCell). There is no whole-solution `raw` shape: AddRaw parses its
//     source into one element of the list. There is no mod wrapper, no
//     currying, and no control flow.
package core

import (
	"encoding/hex"
	"fmt"
)

// solutionShape names the structural form Build() assembles the accumulated
// values into.
type solutionShape int

const (
	shapeList solutionShape = iota
	shapeCons
)

// SolutionBuilder fluently constructs the solution (args) list a puzzle is
// run against (§4.6, C8).
type SolutionBuilder struct {
	values []*TreeNode
	shape  solutionShape
	err    error
}

// NewSolutionBuilder returns an empty solution.
func NewSolutionBuilder() *SolutionBuilder {
	return &SolutionBuilder{}
}

// Add appends a raw IR value to the solution.
func (sb *SolutionBuilder) Add(v *TreeNode) *SolutionBuilder {
	sb.values = append(sb.values, v)
	return sb
}

// AddNil appends a nil atom, e.g. for an action with no parameters.
func (sb *SolutionBuilder) AddNil() *SolutionBuilder {
	return sb.Add(Nil())
}

// AddInt appends an integer value.
func (sb *SolutionBuilder) AddInt(v int64) *SolutionBuilder {
	return sb.Add(Int(v))
}

// AddBool appends a boolean, converted per §4.6's `add` table: true -> 1,
// false -> nil.
func (sb *SolutionBuilder) AddBool(v bool) *SolutionBuilder {
	if v {
		return sb.Add(Int(1))
	}
	return sb.AddNil()
}

// AddBytes appends a byte-string value (e.g. a puzzle hash or public key).
func (sb *SolutionBuilder) AddBytes(v []byte) *SolutionBuilder {
	return sb.Add(Bytes(v))
}

// AddString appends a string value, serialized as an atom per ChiaLisp
// convention (not auto-converted to a symbol, since solutions carry data,
// not code).
func (sb *SolutionBuilder) AddString(v string) *SolutionBuilder {
	return sb.Add(Bytes([]byte(v)))
}

// AddList appends a nested list as a single solution element, populated by
// invoking cb against a fresh sub-builder that shares this solution's
// conversion rules — e.g. the conditions list some puzzles expect as their
// sole argument.
func (sb *SolutionBuilder) AddList(cb func(*SolutionBuilder)) *SolutionBuilder {
	nested := NewSolutionBuilder()
	if cb != nil {
		cb(nested)
	}
	if nested.err != nil && sb.err == nil {
		sb.err = nested.err
	}
	return sb.Add(List(nested.values...))
}

// AddConditions appends a list of puzzle conditions, built by invoking cb
// against a scratch PuzzleBuilder that shares the same condition catalog
// (CreateCoin, RequireSignature, ...) a full puzzle body uses.
func (sb *SolutionBuilder) AddConditions(cb func(*PuzzleBuilder)) *SolutionBuilder {
	scratch := NewPuzzleBuilder()
	if cb != nil {
		cb(scratch)
	}
	if scratch.err != nil && sb.err == nil {
		sb.err = scratch.err
	}
	return sb.Add(List(scratch.nodes...))
}

// AddAction appends the canonical dispatcher-consumed action invocation
// shape: the action's name symbol followed by its parameter list, or nil
// when it takes none.
func (sb *SolutionBuilder) AddAction(name string, params ...*TreeNode) *SolutionBuilder {
	sb.Add(Symbol(name))
	if len(params) == 0 {
		return sb.AddNil()
	}
	return sb.Add(List(params...))
}

// StateField is one named value of a state record passed to AddState, kept
// ordered so record encoding preserves declaration/insertion order.
type StateField struct {
	Name  string
	Value any
}

// AddState encodes a typed state record and appends it as a single solution
// element (§4.6): booleans -> 1/nil, integers -> atom, strings -> bytes,
// byte slices -> bytes, nested records ([]StateField) -> list of (k v)
// pairs in insertion order, *TreeNode passed through unchanged.
func (sb *SolutionBuilder) AddState(fields []StateField) *SolutionBuilder {
	node, err := encodeStateRecord(fields)
	if err != nil && sb.err == nil {
		sb.err = err
	}
	return sb.Add(node)
}

func encodeStateRecord(fields []StateField) (*TreeNode, error) {
	pairs := make([]*TreeNode, len(fields))
	for i, f := range fields {
		v, err := encodeStateValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("state field %q: %w", f.Name, err)
		}
		pairs[i] = List(Symbol(f.Name), v)
	}
	return List(pairs...), nil
}

func encodeStateValue(v any) (*TreeNode, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return Int(1), nil
		}
		return Nil(), nil
	case int:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case string:
		return Bytes([]byte(x)), nil
	case []byte:
		return Bytes(x), nil
	case []StateField:
		return encodeStateRecord(x)
	case *TreeNode:
		return x, nil
	default:
		return nil, fmt.Errorf("unsupported state value type %T", v)
	}
}

// AddMerkleProof appends a Merkle authentication path to the solution as a
// flat list of sibling hashes (§4.6). Implemented in merkle.go, grounded on
// this module's MerkleTree.

// AddDelegatedPuzzle appends a delegated puzzle/solution pair, the shape a
// graftroot- or delegation-style puzzle expects its solution to carry: the
// delegated puzzle's IR followed by its own solution's IR.
func (sb *SolutionBuilder) AddDelegatedPuzzle(puzzle, solution *TreeNode) *SolutionBuilder {
	return sb.Add(List(puzzle, solution))
}

// AddRaw parses src as ChiaLisp source and splices the resulting IR in
// directly, preserving the stated `add(...)` contract that every value
// entering a solution is real IR rather than an opaque host-language symbol
// (see DESIGN.md's note on this §9 open question).
func (sb *SolutionBuilder) AddRaw(src string) *SolutionBuilder {
	node, err := Parse(src)
	if err != nil {
		if sb.err == nil {
			sb.err = fmt.Errorf("addRaw: %w", err)
		}
		return sb
	}
	return sb.Add(node)
}

// AsConsCell switches this solution's structure type from a flat list to a
// cons pair: Build() requires exactly 2 accumulated items and emits
// `(c a b)`-shaped IR (a single pair, not a terminated list).
func (sb *SolutionBuilder) AsConsCell() *SolutionBuilder {
	sb.shape = shapeCons
	return sb
}

// Build returns the accumulated solution as a single IR node: a proper list
// by default, or a cons pair of exactly two items after AsConsCell.
func (sb *SolutionBuilder) Build() (*TreeNode, error) {
	if sb.err != nil {
		return nil, sb.err
	}
	switch sb.shape {
	case shapeCons:
		if len(sb.values) != 2 {
			return nil, BuilderError("asConsCell solution requires exactly 2 items, got %d", len(sb.values))
		}
		return Cons(sb.values[0], sb.values[1]), nil
	default:
		return List(sb.values...), nil
	}
}

// ToChiaLisp renders the built solution as ChiaLisp source text.
func (sb *SolutionBuilder) ToChiaLisp() (string, error) {
	ir, err := sb.Build()
	if err != nil {
		return "", err
	}
	return Serialize(ir)
}

// ToHex renders the built solution as ChiaLisp source re-encoded to hex,
// the same simplified wire-format convention the reference engine's
// Program.SerializeHex uses (core/clvmengine/reference.go), so a solution
// can travel alongside a puzzle reveal without requiring an Engine.
func (sb *SolutionBuilder) ToHex() (string, error) {
	text, err := sb.ToChiaLisp()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString([]byte(text)), nil
}
