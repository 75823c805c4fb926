// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – CLVM Engine ▸ Reference
// ---------------------------------------------------
//
//   - Reference is a pure-Go stand-in for the external CLVM-capable VM the
//     core delegates to (§4.3, §6.3). It is NOT a consensus-accurate CLVM
//     implementation: real raw-bytecode apply semantics (integer path
//     addressing into a binary environment tree) are explicitly out of
//     scope here — they belong to the canonical CLVM implementation this
//     core never reimplements (spec §4.3 design note). Reference instead
//     evaluates the *symbolic* model CoinScript and PuzzleBuilder actually
//     emit: named parameters bound by the mod's own parameter list,
//     straight-line arithmetic/comparison/boolean primitives, and the
//     (i cond then else) conditional — the subset a compiled puzzle body
//     built by this toolchain actually exercises. `point_add` and
//     `pubkey_for_exp` (BLS curve arithmetic) are refused explicitly rather
//     than silently faked, since BLS stays an external capability (§1).
package clvmengine

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"

	"coinscript/core"
)

// Reference is the default core.Engine implementation used by tests, the
// simulation harness, and the CLI's `run` subcommand.
type Reference struct{}

// New returns a Reference engine.
func New() *Reference { return &Reference{} }

// program is Reference's core.Program implementation: an already-parsed IR
// tree plus its source mod parameter list, extracted once at Compile time so
// Run doesn't need to re-parse the mod envelope.
type program struct {
	ir       *core.TreeNode
	params   []string // nil means "@" (whole-solution binding)
	wholeArg bool
	body     *core.TreeNode
}

// SerializeHex renders the program as ChiaLisp source re-encoded to hex,
// since Reference has no independent bytecode form — a real CLVM bridge
// would return genuine compiled bytecode here.
func (p *program) SerializeHex() string {
	text, err := core.Serialize(p.ir)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", []byte(text))
}

// TreeHash returns the program's puzzle hash.
func (p *program) TreeHash() [32]byte { return core.TreeHash(p.ir) }

// Curry applies the classic positional curry wrapper (§4.4.1).
func (p *program) Curry(args ...*core.TreeNode) (core.Program, error) {
	curried := core.CurryByPosition(p.ir, args...)
	return &program{ir: curried, wholeArg: true, body: curried}, nil
}

// IR returns the underlying tree.
func (p *program) IR() *core.TreeNode { return p.ir }

// Compile parses source (after include expansion has already happened, per
// §4.7) and, if it is a (mod params... body) form, records the parameter
// binding shape for Run.
func (r *Reference) Compile(source string) (core.Program, error) {
	ir, err := core.Parse(source)
	if err != nil {
		return nil, err
	}
	p := &program{ir: ir, body: ir, wholeArg: true}
	items, tail := ir.AsList()
	if tail.IsNil() && len(items) >= 2 {
		if head, ok := symbolName(items[0]); ok && head == "mod" {
			p.params, p.wholeArg = paramNames(items[1])
			p.body = items[len(items)-1]
		}
	}
	return p, nil
}

// DeserializeHex decodes the hex produced by SerializeHex back into a
// program by re-parsing the embedded ChiaLisp source.
func (r *Reference) DeserializeHex(hexStr string) (core.Program, error) {
	raw, err := decodeHex(hexStr)
	if err != nil {
		return nil, core.CompileErrorf(err, "decoding program hex")
	}
	return r.Compile(string(raw))
}

// Run binds solution to program's parameter list and evaluates its body.
func (r *Reference) Run(prog core.Program, solution *core.TreeNode) (*core.RunResult, error) {
	p, ok := prog.(*program)
	if !ok {
		return nil, core.SimulationErrorf(nil, "program not produced by this engine")
	}
	env := make(map[string]*core.TreeNode)
	if p.wholeArg || len(p.params) == 0 {
		env["@"] = solution
	} else {
		items, _ := solution.AsList()
		for i, name := range p.params {
			if i < len(items) {
				env[name] = items[i]
			} else {
				env[name] = core.Nil()
			}
		}
	}
	result, cost, err := eval(p.body, env)
	if err != nil {
		return nil, core.SimulationErrorf(err, "evaluating program")
	}
	return &core.RunResult{Result: result, Cost: cost}, nil
}

func symbolName(n *core.TreeNode) (string, bool) {
	if n == nil || n.Kind != core.KindAtom || n.AKind != core.AtomSymbol {
		return "", false
	}
	return n.Sym, true
}

// paramNames reports whether the mod's parameter form is "@" (whole-solution
// binding) or a list of named parameters.
func paramNames(paramList *core.TreeNode) ([]string, bool) {
	if name, ok := symbolName(paramList); ok {
		if name == "@" {
			return nil, true
		}
		return []string{name}, false
	}
	items, _ := paramList.AsList()
	names := make([]string, 0, len(items))
	for _, it := range items {
		if name, ok := symbolName(it); ok {
			names = append(names, name)
		}
	}
	return names, false
}

func decodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string")
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, ok1 := hexVal(s[i*2])
		lo, ok2 := hexVal(s[i*2+1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("invalid hex digit at offset %d", i*2)
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexVal(c byte) (byte, bool) {
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

//---------------------------------------------------------------------
// Evaluator
//---------------------------------------------------------------------

func eval(expr *core.TreeNode, env map[string]*core.TreeNode) (*core.TreeNode, uint64, error) {
	if expr == nil || expr.IsNil() {
		return core.Nil(), core.OpCost("q"), nil
	}
	switch expr.Kind {
	case core.KindAtom:
		if expr.AKind == core.AtomSymbol {
			return evalSymbol(expr.Sym, env)
		}
		return expr, 1, nil
	case core.KindCons:
		if head, ok := symbolName(expr.First); ok && head == "q" {
			return expr.Rest, core.OpCost("q"), nil
		}
		items, tail := expr.AsList()
		if !tail.IsNil() {
			fv, fc, err := eval(expr.First, env)
			if err != nil {
				return nil, 0, err
			}
			rv, rc, err := eval(expr.Rest, env)
			if err != nil {
				return nil, 0, err
			}
			return core.Cons(fv, rv), fc + rc, nil
		}
		return evalForm(items, env)
	case core.KindList:
		items, _ := expr.AsList()
		return evalForm(items, env)
	}
	return nil, 0, fmt.Errorf("unreachable node kind")
}

func evalSymbol(name string, env map[string]*core.TreeNode) (*core.TreeNode, uint64, error) {
	if v, ok := env[name]; ok {
		return v, 1, nil
	}
	if op, ok := core.ConditionOpcodeByName(name); ok {
		return core.Int(int64(op)), 1, nil
	}
	return nil, 0, fmt.Errorf("unbound symbol %q", name)
}

func evalForm(items []*core.TreeNode, env map[string]*core.TreeNode) (*core.TreeNode, uint64, error) {
	if len(items) == 0 {
		return core.Nil(), core.OpCost("q"), nil
	}
	head, ok := symbolName(items[0])
	if !ok {
		return evalData(items, env)
	}
	switch head {
	case "q":
		return evalQuote(items), core.OpCost("q"), nil
	case "i":
		return evalIf(items, env)
	case "a":
		return evalApply(items, env)
	case "c":
		return evalBinary(head, items, env, func(a, b *core.TreeNode) (*core.TreeNode, error) {
			return core.Cons(a, b), nil
		})
	case "f":
		return evalUnary(head, items, env, func(a *core.TreeNode) (*core.TreeNode, error) {
			if a.Kind != core.KindCons {
				al, _ := a.AsList()
				if len(al) == 0 {
					return nil, fmt.Errorf("first of nil")
				}
				return al[0], nil
			}
			return a.First, nil
		})
	case "r":
		return evalUnary(head, items, env, func(a *core.TreeNode) (*core.TreeNode, error) {
			if a.Kind != core.KindCons {
				al, _ := a.AsList()
				if len(al) == 0 {
					return nil, fmt.Errorf("rest of nil")
				}
				return core.List(al[1:]...), nil
			}
			return a.Rest, nil
		})
	case "l":
		return evalUnary(head, items, env, func(a *core.TreeNode) (*core.TreeNode, error) {
			if a.Kind == core.KindCons || (a.Kind == core.KindList && len(a.Items) > 0) {
				return core.Int(1), nil
			}
			return core.Nil(), nil
		})
	case "x":
		return evalRaise(items, env)
	case "not":
		return evalUnary(head, items, env, func(a *core.TreeNode) (*core.TreeNode, error) {
			if a.IsNil() {
				return core.Int(1), nil
			}
			return core.Nil(), nil
		})
	case "any":
		return evalVariadicBool(head, items, env, false)
	case "all":
		return evalVariadicBool(head, items, env, true)
	case "=":
		return evalCompareBytes(items, env, func(a, b []byte) bool { return bytes.Equal(a, b) })
	case ">s":
		return evalCompareBytes(items, env, func(a, b []byte) bool { return bytes.Compare(a, b) > 0 })
	case "sha256":
		return evalSha256(items, env)
	case "sha256tree":
		return evalSha256Tree(items, env)
	case "concat":
		return evalConcat(items, env)
	case "strlen":
		return evalUnary(head, items, env, func(a *core.TreeNode) (*core.TreeNode, error) {
			return core.Int(int64(len(a.AsBytes()))), nil
		})
	case "substr":
		return evalSubstr(items, env)
	case "divmod":
		return evalDivmod(items, env)
	case "+", "-", "*", "/", ">", "ash", "lsh", "logand", "logior", "logxor", "lognot":
		return evalArith(head, items, env)
	case "point_add", "pubkey_for_exp":
		return nil, 0, fmt.Errorf("opcode %q requires BLS curve arithmetic, an external capability not implemented by the reference engine", head)
	case "softfork":
		return core.Int(1), core.OpCost("softfork"), nil
	default:
		if v, ok := env[head]; ok {
			return evalApplyUserValue(v, items[1:], env)
		}
		return evalData(items, env)
	}
}

// evalData treats a list whose head is not a recognized operator as literal
// data construction (the role chialisp's `list` macro plays): evaluate each
// element and reconstruct the list. This is how a puzzle body's accumulated
// condition nodes — themselves built as plain List(opcodeInt, args...) data,
// never as operator calls — are returned as the puzzle's result.
func evalData(items []*core.TreeNode, env map[string]*core.TreeNode) (*core.TreeNode, uint64, error) {
	out := make([]*core.TreeNode, len(items))
	var total uint64
	for i, it := range items {
		v, c, err := eval(it, env)
		if err != nil {
			return nil, 0, err
		}
		out[i] = v
		total += c
	}
	return core.List(out...), total, nil
}

func evalApplyUserValue(v *core.TreeNode, args []*core.TreeNode, env map[string]*core.TreeNode) (*core.TreeNode, uint64, error) {
	// A bound symbol used in head position (e.g. a curried constant holding
	// a condition opcode) is not itself callable; treat the whole form as
	// data, same as evalData, with the head's bound value substituted in.
	evaluated := append([]*core.TreeNode{v}, args...)
	return evalData(evaluated, env)
}

func evalQuote(items []*core.TreeNode) *core.TreeNode {
	switch len(items) {
	case 1:
		return core.Nil()
	case 2:
		return items[1]
	default:
		return core.List(items[1:]...)
	}
}

func evalIf(items []*core.TreeNode, env map[string]*core.TreeNode) (*core.TreeNode, uint64, error) {
	if len(items) != 4 {
		return nil, 0, fmt.Errorf("(i cond then else) requires exactly 3 arguments")
	}
	cv, cc, err := eval(items[1], env)
	if err != nil {
		return nil, 0, err
	}
	branch := items[2]
	if cv.IsNil() {
		branch = items[3]
	}
	rv, rc, err := eval(branch, env)
	if err != nil {
		return nil, 0, err
	}
	return rv, core.OpCost("i") + cc + rc, nil
}

// evalApply approximates (a PROGRAM ENVEXPR): PROGRAM must reduce to a
// quoted literal (the shape CurryByPosition produces);
// ENVEXPR is evaluated and bound to "@" for PROGRAM's own evaluation. This
// captures the curry-wrapper's actual usage without implementing raw
// integer path-addressing (see file header).
func evalApply(items []*core.TreeNode, env map[string]*core.TreeNode) (*core.TreeNode, uint64, error) {
	if len(items) != 3 {
		return nil, 0, fmt.Errorf("(a program envexpr) requires exactly 2 arguments")
	}
	progNode, pc, err := eval(items[1], env)
	if err != nil {
		return nil, 0, err
	}
	envVal, ec, err := eval(items[2], env)
	if err != nil {
		return nil, 0, err
	}
	subEnv := map[string]*core.TreeNode{"@": envVal}
	rv, rc, err := eval(progNode, subEnv)
	if err != nil {
		return nil, 0, err
	}
	return rv, core.OpCost("a") + pc + ec + rc, nil
}

func evalRaise(items []*core.TreeNode, env map[string]*core.TreeNode) (*core.TreeNode, uint64, error) {
	msg := "puzzle raised (x)"
	if len(items) > 1 {
		if v, _, err := eval(items[1], env); err == nil {
			msg = fmt.Sprintf("puzzle raised: %x", v.AsBytes())
		}
	}
	return nil, 0, fmt.Errorf("%s", msg)
}

func evalUnary(name string, items []*core.TreeNode, env map[string]*core.TreeNode, fn func(*core.TreeNode) (*core.TreeNode, error)) (*core.TreeNode, uint64, error) {
	if len(items) != 2 {
		return nil, 0, fmt.Errorf("%s requires exactly 1 argument", name)
	}
	a, ac, err := eval(items[1], env)
	if err != nil {
		return nil, 0, err
	}
	out, err := fn(a)
	if err != nil {
		return nil, 0, err
	}
	return out, core.OpCost(name) + ac, nil
}

func evalBinary(name string, items []*core.TreeNode, env map[string]*core.TreeNode, fn func(a, b *core.TreeNode) (*core.TreeNode, error)) (*core.TreeNode, uint64, error) {
	if len(items) != 3 {
		return nil, 0, fmt.Errorf("%s requires exactly 2 arguments", name)
	}
	a, ac, err := eval(items[1], env)
	if err != nil {
		return nil, 0, err
	}
	b, bc, err := eval(items[2], env)
	if err != nil {
		return nil, 0, err
	}
	out, err := fn(a, b)
	if err != nil {
		return nil, 0, err
	}
	return out, core.OpCost(name) + ac + bc, nil
}

func evalVariadicBool(name string, items []*core.TreeNode, env map[string]*core.TreeNode, all bool) (*core.TreeNode, uint64, error) {
	var total uint64
	for _, it := range items[1:] {
		v, c, err := eval(it, env)
		if err != nil {
			return nil, 0, err
		}
		total += c
		truthy := !v.IsNil()
		if all && !truthy {
			return core.Nil(), core.OpCost(name) + total, nil
		}
		if !all && truthy {
			return core.Int(1), core.OpCost(name) + total, nil
		}
	}
	if all {
		return core.Int(1), core.OpCost(name) + total, nil
	}
	return core.Nil(), core.OpCost(name) + total, nil
}

func evalCompareBytes(items []*core.TreeNode, env map[string]*core.TreeNode, cmp func(a, b []byte) bool) (*core.TreeNode, uint64, error) {
	if len(items) != 3 {
		return nil, 0, fmt.Errorf("comparison requires exactly 2 arguments")
	}
	a, ac, err := eval(items[1], env)
	if err != nil {
		return nil, 0, err
	}
	b, bc, err := eval(items[2], env)
	if err != nil {
		return nil, 0, err
	}
	if cmp(a.AsBytes(), b.AsBytes()) {
		return core.Int(1), core.OpCost("=") + ac + bc, nil
	}
	return core.Nil(), core.OpCost("=") + ac + bc, nil
}

func evalSha256(items []*core.TreeNode, env map[string]*core.TreeNode) (*core.TreeNode, uint64, error) {
	h := sha256.New()
	var total uint64
	for _, it := range items[1:] {
		v, c, err := eval(it, env)
		if err != nil {
			return nil, 0, err
		}
		total += c
		h.Write(v.AsBytes())
	}
	return core.Bytes(h.Sum(nil)), core.OpCost("sha256") + total, nil
}

func evalSha256Tree(items []*core.TreeNode, env map[string]*core.TreeNode) (*core.TreeNode, uint64, error) {
	if len(items) != 2 {
		return nil, 0, fmt.Errorf("sha256tree requires exactly 1 argument")
	}
	v, c, err := eval(items[1], env)
	if err != nil {
		return nil, 0, err
	}
	h := core.TreeHash(v)
	return core.Bytes(h[:]), core.OpCost("sha256") + c, nil
}

func evalConcat(items []*core.TreeNode, env map[string]*core.TreeNode) (*core.TreeNode, uint64, error) {
	var buf []byte
	var total uint64
	for _, it := range items[1:] {
		v, c, err := eval(it, env)
		if err != nil {
			return nil, 0, err
		}
		total += c
		buf = append(buf, v.AsBytes()...)
	}
	return core.Bytes(buf), core.OpCost("concat") + total, nil
}

func evalSubstr(items []*core.TreeNode, env map[string]*core.TreeNode) (*core.TreeNode, uint64, error) {
	if len(items) < 2 || len(items) > 4 {
		return nil, 0, fmt.Errorf("substr requires 1 to 3 arguments")
	}
	v, c, err := eval(items[1], env)
	if err != nil {
		return nil, 0, err
	}
	b := v.AsBytes()
	start, end := 0, len(b)
	var total uint64 = c
	if len(items) >= 3 {
		sv, sc, err := eval(items[2], env)
		if err != nil {
			return nil, 0, err
		}
		total += sc
		start = int(sv.AsBigInt().Int64())
	}
	if len(items) == 4 {
		ev, ec, err := eval(items[3], env)
		if err != nil {
			return nil, 0, err
		}
		total += ec
		end = int(ev.AsBigInt().Int64())
	}
	if start < 0 || end > len(b) || start > end {
		return nil, 0, fmt.Errorf("substr range out of bounds")
	}
	return core.Bytes(b[start:end]), core.OpCost("substr") + total, nil
}

// evalDivmod implements `(divmod a b)`, which unlike the other arithmetic
// opcodes returns a cons pair `(quotient . remainder)` rather than a single
// atom, so it cannot share evalArith's single-big.Int-result plumbing.
func evalDivmod(items []*core.TreeNode, env map[string]*core.TreeNode) (*core.TreeNode, uint64, error) {
	if len(items) != 3 {
		return nil, 0, fmt.Errorf("divmod requires exactly 2 arguments")
	}
	a, ac, err := eval(items[1], env)
	if err != nil {
		return nil, 0, err
	}
	b, bc, err := eval(items[2], env)
	if err != nil {
		return nil, 0, err
	}
	bv := b.AsBigInt()
	if bv.Sign() == 0 {
		return nil, 0, fmt.Errorf("division by zero")
	}
	q, r := new(big.Int), new(big.Int)
	q.QuoRem(a.AsBigInt(), bv, r)
	return core.Cons(core.BigInt(q), core.BigInt(r)), core.OpCost("divmod") + ac + bc, nil
}

func evalArith(name string, items []*core.TreeNode, env map[string]*core.TreeNode) (*core.TreeNode, uint64, error) {
	vals := make([]*big.Int, 0, len(items)-1)
	var total uint64
	for _, it := range items[1:] {
		v, c, err := eval(it, env)
		if err != nil {
			return nil, 0, err
		}
		total += c
		vals = append(vals, v.AsBigInt())
	}
	result, err := applyArith(name, vals)
	if err != nil {
		return nil, 0, err
	}
	return core.BigInt(result), core.OpCost(name) + total, nil
}

func applyArith(name string, vals []*big.Int) (*big.Int, error) {
	switch name {
	case "+":
		out := big.NewInt(0)
		for _, v := range vals {
			out.Add(out, v)
		}
		return out, nil
	case "*":
		out := big.NewInt(1)
		for _, v := range vals {
			out.Mul(out, v)
		}
		return out, nil
	case "-":
		if len(vals) == 0 {
			return big.NewInt(0), nil
		}
		out := new(big.Int).Set(vals[0])
		for _, v := range vals[1:] {
			out.Sub(out, v)
		}
		return out, nil
	case "/":
		if len(vals) != 2 {
			return nil, fmt.Errorf("/ requires exactly 2 arguments")
		}
		if vals[1].Sign() == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		q, _ := new(big.Int).QuoRem(vals[0], vals[1], new(big.Int))
		return q, nil
	case ">":
		if len(vals) != 2 {
			return nil, fmt.Errorf("> requires exactly 2 arguments")
		}
		if vals[0].Cmp(vals[1]) > 0 {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	case "ash":
		if len(vals) != 2 {
			return nil, fmt.Errorf("ash requires exactly 2 arguments")
		}
		shift := vals[1].Int64()
		out := new(big.Int)
		if shift >= 0 {
			out.Lsh(vals[0], uint(shift))
		} else {
			out.Rsh(vals[0], uint(-shift))
		}
		return out, nil
	case "lsh":
		if len(vals) != 2 {
			return nil, fmt.Errorf("lsh requires exactly 2 arguments")
		}
		shift := vals[1].Int64()
		out := new(big.Int)
		if shift >= 0 {
			out.Lsh(vals[0], uint(shift))
		} else {
			out.Rsh(vals[0], uint(-shift))
		}
		return out, nil
	case "logand":
		out := big.NewInt(-1)
		for _, v := range vals {
			out.And(out, v)
		}
		return out, nil
	case "logior":
		out := big.NewInt(0)
		for _, v := range vals {
			out.Or(out, v)
		}
		return out, nil
	case "logxor":
		out := big.NewInt(0)
		for _, v := range vals {
			out.Xor(out, v)
		}
		return out, nil
	case "lognot":
		if len(vals) != 1 {
			return nil, fmt.Errorf("lognot requires exactly 1 argument")
		}
		return new(big.Int).Not(vals[0]), nil
	}
	return nil, fmt.Errorf("unhandled arithmetic opcode %q", name)
}
