// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – Code Generator ▸ Expression lowering
// -----------------------------------------------------------
//
//   - Lowers a CoinScript Expr (§3.4) to a core.Expression plus its static
//     Type, checking operand types along the way (§4.8 semantic analysis:
//     "control-flow predicates must be boolean", "comparison operands").
package codegen

import (
	"math/big"
	"strings"

	"coinscript/core"
	"coinscript/core/coinscript"
)

// stateParamName is the solution position a stateful action's current state
// record is bound to (§4.9's "current_state").
const stateParamName = "current_state"

// senderParamName / heightParamName are the synthetic solution positions
// msg.sender / block.height resolve to when referenced outside the
// require(msg.sender == owner) sugar handled specially in lower_stmt.go.
const senderParamName = "msg_sender"
const heightParamName = "block_height"

func lowerExpr(pb *core.PuzzleBuilder, en *env, e coinscript.Expr) (core.Expression, coinscript.Type, error) {
	switch x := e.(type) {
	case *coinscript.IntLit:
		v, ok := new(big.Int).SetString(x.Value, 10)
		if !ok {
			return core.Expression{}, coinscript.TypeUnknown, semErrorf("invalid integer literal %q", x.Value)
		}
		return pb.Expr(core.BigInt(v)), coinscript.TypeUint256, nil
	case *coinscript.BoolLit:
		if x.Value {
			return pb.Expr(core.Int(1)), coinscript.TypeBool, nil
		}
		return pb.Expr(core.Nil()), coinscript.TypeBool, nil
	case *coinscript.StringLit:
		return pb.Expr(core.Str(x.Value)), coinscript.TypeString, nil
	case *coinscript.HexLit:
		b, err := decodeHexLit(x.Value)
		if err != nil {
			return core.Expression{}, coinscript.TypeUnknown, semErrorf("%s", err)
		}
		return pb.Expr(core.Bytes(b)), coinscript.TypeBytes32, nil
	case *coinscript.AddressLit:
		ph, err := DecodeAddress(x.Value)
		if err != nil {
			return core.Expression{}, coinscript.TypeUnknown, semErrorf("%s", err)
		}
		return pb.Expr(core.Bytes(ph[:])), coinscript.TypeAddress, nil
	case *coinscript.Ident:
		return lowerIdent(pb, en, x.Name)
	case *coinscript.MemberExpr:
		return lowerMember(pb, en, x)
	case *coinscript.IndexExpr:
		return lowerIndex(pb, en, x)
	case *coinscript.BinaryExpr:
		return lowerBinary(pb, en, x)
	case *coinscript.UnaryExpr:
		return lowerUnary(pb, en, x)
	case *coinscript.CallExpr:
		return lowerBuiltinValueCall(pb, en, x)
	case *coinscript.TernaryExpr:
		return lowerTernary(pb, en, x)
	case *coinscript.CastExpr:
		return lowerCast(pb, en, x)
	default:
		return core.Expression{}, coinscript.TypeUnknown, codegenErrorf("unsupported expression node %T", e)
	}
}

func decodeHexLit(lit string) ([]byte, error) {
	s := strings.TrimPrefix(lit, "0x")
	if len(s)%2 != 0 {
		return nil, semErrorf("hex literal %q has odd length", lit)
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, ok1 := hexNibble(s[2*i])
		lo, ok2 := hexNibble(s[2*i+1])
		if !ok1 || !ok2 {
			return nil, semErrorf("invalid hex literal %q", lit)
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

func lowerIdent(pb *core.PuzzleBuilder, en *env, name string) (core.Expression, coinscript.Type, error) {
	ent, ok := en.lookup(name)
	if !ok {
		return core.Expression{}, coinscript.TypeUnknown, semErrorf("undefined identifier %q", name)
	}
	switch ent.kind {
	case symStorage, symParam:
		return pb.Param(ent.chialispName), ent.typ, nil
	case symState:
		return stateFieldAccessor(pb, en, ent.chialispName), ent.typ, nil
	case symConst:
		return pb.Expr(ent.inlineNode), ent.typ, nil
	default:
		return core.Expression{}, coinscript.TypeUnknown, semErrorf("identifier %q cannot be used as a value here", name)
	}
}

func lowerMember(pb *core.PuzzleBuilder, en *env, m *coinscript.MemberExpr) (core.Expression, coinscript.Type, error) {
	if base, ok := m.X.(*coinscript.Ident); ok {
		switch base.Name {
		case "msg":
			switch m.Field {
			case "sender":
				return pb.Param(senderParamName), coinscript.TypeAddress, nil
			case "amount":
				return pb.Param("my_amount"), coinscript.TypeUint256, nil
			}
		case "block":
			switch m.Field {
			case "height":
				return pb.Param(heightParamName), coinscript.TypeUint256, nil
			}
		case "state":
			return stateFieldAccessor(pb, en, m.Field), stateFieldType(en, m.Field), nil
		}
	}
	return core.Expression{}, coinscript.TypeUnknown, semErrorf("unsupported member expression %q", m.Field)
}

func stateFieldType(en *env, name string) coinscript.Type {
	for _, s := range en.coin.State {
		if s.Name == name {
			return s.Type
		}
	}
	return coinscript.TypeUnknown
}

// stateFieldAccessor extracts the Nth field (by declaration order) from
// the current_state solution record, which §4.9 serializes as a flat list
// in declaration order.
func stateFieldAccessor(pb *core.PuzzleBuilder, en *env, field string) core.Expression {
	idx := -1
	for i, s := range en.coin.State {
		if s.Name == field {
			idx = i
			break
		}
	}
	node := core.Symbol(stateParamName)
	for i := 0; i < idx; i++ {
		node = core.List(core.Symbol("r"), node)
	}
	node = core.List(core.Symbol("f"), node)
	return pb.Expr(node)
}

// lowerIndex rejects mapping-index expressions (`state.balances[key]`).
// §4.9 fixes the state record encoding as a flat, declaration-order list
// (stateFieldAccessor above) or an ordered list of (key . value) pairs, but
// §6.1's include catalog is closed — there is no library in the fixed
// catalog that exports a mapping-lookup primitive, and §1 explicitly scopes
// out "supporting arbitrary inherited puzzle libraries" beyond that
// catalog. Emitting a call to an unresolvable symbol would compile but
// never evaluate, so this is rejected at semantic-analysis time instead.
func lowerIndex(pb *core.PuzzleBuilder, en *env, ix *coinscript.IndexExpr) (core.Expression, coinscript.Type, error) {
	if _, ok := ix.X.(*coinscript.MemberExpr); !ok {
		return core.Expression{}, coinscript.TypeUnknown, semErrorf("indexing is only supported on state mappings")
	}
	return core.Expression{}, coinscript.TypeUnknown, semErrorf("mapping index is unsupported: no fixed-catalog library provides a mapping-lookup primitive (§6.1)")
}

func lowerBinary(pb *core.PuzzleBuilder, en *env, b *coinscript.BinaryExpr) (core.Expression, coinscript.Type, error) {
	left, ltyp, err := lowerExpr(pb, en, b.Left)
	if err != nil {
		return core.Expression{}, coinscript.TypeUnknown, err
	}
	right, rtyp, err := lowerExpr(pb, en, b.Right)
	if err != nil {
		return core.Expression{}, coinscript.TypeUnknown, err
	}
	switch b.Op {
	case "+":
		return left.Add(right), coinscript.TypeUint256, nil
	case "-":
		return left.Sub(right), coinscript.TypeUint256, nil
	case "*":
		return left.Mul(right), coinscript.TypeUint256, nil
	case "/":
		return left.Div(right), coinscript.TypeUint256, nil
	case "==":
		if err := checkComparable(ltyp, rtyp); err != nil {
			return core.Expression{}, coinscript.TypeUnknown, err
		}
		return left.Eq(right), coinscript.TypeBool, nil
	case "!=":
		if err := checkComparable(ltyp, rtyp); err != nil {
			return core.Expression{}, coinscript.TypeUnknown, err
		}
		return left.Eq(right).Not(), coinscript.TypeBool, nil
	case ">":
		return left.Gt(right), coinscript.TypeBool, nil
	case "<":
		return right.Gt(left), coinscript.TypeBool, nil
	case ">=":
		return right.Gt(left).Not(), coinscript.TypeBool, nil
	case "<=":
		return left.Gt(right).Not(), coinscript.TypeBool, nil
	case "&&":
		return core.And(left, right), coinscript.TypeBool, nil
	case "||":
		return core.Or(left, right), coinscript.TypeBool, nil
	default:
		return core.Expression{}, coinscript.TypeUnknown, codegenErrorf("unsupported binary operator %q", b.Op)
	}
}

func checkComparable(a, b coinscript.Type) error {
	if a == coinscript.TypeUnknown || b == coinscript.TypeUnknown {
		return nil
	}
	if a != b {
		return semErrorf("cannot compare mismatched types %s and %s", a, b)
	}
	return nil
}

func lowerUnary(pb *core.PuzzleBuilder, en *env, u *coinscript.UnaryExpr) (core.Expression, coinscript.Type, error) {
	x, typ, err := lowerExpr(pb, en, u.X)
	if err != nil {
		return core.Expression{}, coinscript.TypeUnknown, err
	}
	switch u.Op {
	case "!":
		if typ != coinscript.TypeUnknown && typ != coinscript.TypeBool {
			return core.Expression{}, coinscript.TypeUnknown, semErrorf("'!' requires a bool operand, got %s", typ)
		}
		return x.Not(), coinscript.TypeBool, nil
	case "-":
		return pb.Expr(core.Int(0)).Sub(x), typ, nil
	default:
		return core.Expression{}, coinscript.TypeUnknown, codegenErrorf("unsupported unary operator %q", u.Op)
	}
}

func lowerTernary(pb *core.PuzzleBuilder, en *env, t *coinscript.TernaryExpr) (core.Expression, coinscript.Type, error) {
	cond, ctyp, err := lowerExpr(pb, en, t.Cond)
	if err != nil {
		return core.Expression{}, coinscript.TypeUnknown, err
	}
	if ctyp != coinscript.TypeUnknown && ctyp != coinscript.TypeBool {
		return core.Expression{}, coinscript.TypeUnknown, semErrorf("ternary condition must be bool, got %s", ctyp)
	}
	then, typ, err := lowerExpr(pb, en, t.Then)
	if err != nil {
		return core.Expression{}, coinscript.TypeUnknown, err
	}
	els, _, err := lowerExpr(pb, en, t.Else)
	if err != nil {
		return core.Expression{}, coinscript.TypeUnknown, err
	}
	node := core.List(core.Symbol("i"), cond.Node(), then.Node(), els.Node())
	return pb.Expr(node), typ, nil
}

func lowerCast(pb *core.PuzzleBuilder, en *env, c *coinscript.CastExpr) (core.Expression, coinscript.Type, error) {
	x, _, err := lowerExpr(pb, en, c.X)
	if err != nil {
		return core.Expression{}, coinscript.TypeUnknown, err
	}
	return x, c.Type, nil
}

// lowerBuiltinValueCall handles built-ins used in expression position, e.g.
// sha256tree(x). Statement-position built-ins (send, require, emit, ...)
// are handled in lower_stmt.go.
func lowerBuiltinValueCall(pb *core.PuzzleBuilder, en *env, c *coinscript.CallExpr) (core.Expression, coinscript.Type, error) {
	switch c.Callee {
	case "sha256":
		if len(c.Args) != 1 {
			return core.Expression{}, coinscript.TypeUnknown, semErrorf("sha256 expects 1 argument, got %d", len(c.Args))
		}
		x, _, err := lowerExpr(pb, en, c.Args[0])
		if err != nil {
			return core.Expression{}, coinscript.TypeUnknown, err
		}
		return x.Sha256(), coinscript.TypeBytes32, nil
	case "sha256tree":
		if len(c.Args) != 1 {
			return core.Expression{}, coinscript.TypeUnknown, semErrorf("sha256tree expects 1 argument, got %d", len(c.Args))
		}
		x, _, err := lowerExpr(pb, en, c.Args[0])
		if err != nil {
			return core.Expression{}, coinscript.TypeUnknown, err
		}
		return x.TreeHashOf(), coinscript.TypeBytes32, nil
	default:
		return core.Expression{}, coinscript.TypeUnknown, codegenErrorf("unknown built-in %q used as a value", c.Callee)
	}
}
