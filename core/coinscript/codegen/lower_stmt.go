// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – Code Generator ▸ Statement lowering
// -----------------------------------------------------------
//
//   - Lowers an action body's statements (§4.8 step 4) into condition
//     emissions against a PuzzleBuilder. actionCtx threads the pending
//     state-write set (§4.9) through nested if/else blocks so the state
//     layer finalizer sees every branch's writes.
package codegen

import (
	"coinscript/core"
	"coinscript/core/coinscript"
)

// actionCtx carries the mutable lowering state for one action body.
type actionCtx struct {
	pb           *core.PuzzleBuilder
	en           *env
	stateful     bool
	stateWrites  map[string]core.Expression // field name -> new value, in write order
	writeOrder   []string
	terminated   bool // set when the body calls recreateSelf()
}

func newActionCtx(pb *core.PuzzleBuilder, en *env, stateful bool) *actionCtx {
	return &actionCtx{pb: pb, en: en, stateful: stateful, stateWrites: make(map[string]core.Expression)}
}

func (ctx *actionCtx) recordWrite(field string, value core.Expression) {
	if _, exists := ctx.stateWrites[field]; !exists {
		ctx.writeOrder = append(ctx.writeOrder, field)
	}
	ctx.stateWrites[field] = value
}

func lowerActionBody(ctx *actionCtx, stmts []coinscript.Stmt) error {
	for _, s := range stmts {
		if err := lowerStmt(ctx, s); err != nil {
			return err
		}
		if _, ok := s.(*coinscript.ReturnStmt); ok {
			break
		}
	}
	return nil
}

func lowerStmt(ctx *actionCtx, s coinscript.Stmt) error {
	switch st := s.(type) {
	case *coinscript.RequireStmt:
		return lowerRequire(ctx, st)
	case *coinscript.RevertStmt:
		ctx.pb.Raise()
		return nil
	case *coinscript.IfStmt:
		return lowerIf(ctx, st)
	case *coinscript.ReturnStmt:
		// Actions are effect-based (§5: single-threaded, synchronous
		// condition emission); a bare return emits nothing, and
		// lowerActionBody stops lowering the rest of its block.
		return nil
	case *coinscript.EmitStmt:
		return lowerEmit(ctx, st)
	case *coinscript.Assign:
		return lowerAssign(ctx, st)
	case *coinscript.VarDecl:
		return lowerVarDecl(ctx, st)
	case *coinscript.ExprStmt:
		return lowerExprStmt(ctx, st)
	default:
		return codegenErrorf("unsupported statement node %T", s)
	}
}

// lowerRequire implements §4.8 step 4's `require(expr, msg?)` -> `(i expr ()
// (x))`, the shape utility_macros.clib's `assert` macro expands to. It marks
// the `assert` feature so that macro is pulled into the auto-included set
// even though the condition itself is emitted directly via If/Then/Else
// rather than a literal `(assert expr)` call, with one special-cased sugar:
// `require(msg.sender == X)` lowers to an AGG_SIG_ME signature requirement
// against X (scenario S4), since a bare equality check cannot itself
// authenticate a sender on-chain.
func lowerRequire(ctx *actionCtx, st *coinscript.RequireStmt) error {
	if owner, ok := senderEqualityTarget(st.Cond); ok {
		keyExpr, _, err := lowerExpr(ctx.pb, ctx.en, owner)
		if err != nil {
			return err
		}
		ctx.pb.RequireSignature(keyExpr.Node())
		return nil
	}
	cond, typ, err := lowerExpr(ctx.pb, ctx.en, st.Cond)
	if err != nil {
		return err
	}
	if typ != coinscript.TypeUnknown && typ != coinscript.TypeBool {
		return semErrorf("require() predicate must be bool, got %s", typ)
	}
	ctx.pb.MarkFeature("assert")
	ctx.pb.If(cond).Then(func(*core.PuzzleBuilder) {}).Else(func(b *core.PuzzleBuilder) { b.Raise() })
	return nil
}

// senderEqualityTarget recognizes `msg.sender == X` / `X == msg.sender` and
// returns X.
func senderEqualityTarget(e coinscript.Expr) (coinscript.Expr, bool) {
	b, ok := e.(*coinscript.BinaryExpr)
	if !ok || b.Op != "==" {
		return nil, false
	}
	if isMsgSender(b.Left) {
		return b.Right, true
	}
	if isMsgSender(b.Right) {
		return b.Left, true
	}
	return nil, false
}

func isMsgSender(e coinscript.Expr) bool {
	m, ok := e.(*coinscript.MemberExpr)
	if !ok || m.Field != "sender" {
		return false
	}
	id, ok := m.X.(*coinscript.Ident)
	return ok && id.Name == "msg"
}

func lowerIf(ctx *actionCtx, st *coinscript.IfStmt) error {
	cond, typ, err := lowerExpr(ctx.pb, ctx.en, st.Cond)
	if err != nil {
		return err
	}
	if typ != coinscript.TypeUnknown && typ != coinscript.TypeBool {
		return semErrorf("if condition must be bool, got %s", typ)
	}
	var thenErr, elseErr error
	ctx.pb.If(cond).Then(func(*core.PuzzleBuilder) {
		thenErr = lowerActionBody(ctx, st.Then)
	})
	if thenErr != nil {
		return thenErr
	}
	if len(st.Else) == 1 {
		if nested, ok := st.Else[0].(*coinscript.IfStmt); ok {
			nestedCond, ntyp, err := lowerExpr(ctx.pb, ctx.en, nested.Cond)
			if err != nil {
				return err
			}
			if ntyp != coinscript.TypeUnknown && ntyp != coinscript.TypeBool {
				return semErrorf("if condition must be bool, got %s", ntyp)
			}
			ctx.pb.ElseIf(nestedCond).Then(func(*core.PuzzleBuilder) {
				thenErr = lowerActionBody(ctx, nested.Then)
			})
			if thenErr != nil {
				return thenErr
			}
			if len(nested.Else) > 0 {
				return lowerElseChain(ctx, nested.Else, &elseErr)
			}
			ctx.pb.Else(func(*core.PuzzleBuilder) {})
			return elseErr
		}
	}
	ctx.pb.Else(func(b *core.PuzzleBuilder) {
		elseErr = lowerActionBody(ctx, st.Else)
	})
	return elseErr
}

// lowerElseChain is invoked only for a second or deeper `else if` link;
// since PuzzleBuilder's ElseIf/Else pair operates on the top of its own
// internal if-stack, the remaining statements (a further `if` included,
// which lowerActionBody hands back to lowerIf) are lowered inside Else so
// the pending ElseIf frame is closed with them as its else branch.
func lowerElseChain(ctx *actionCtx, elseStmts []coinscript.Stmt, errOut *error) error {
	ctx.pb.Else(func(*core.PuzzleBuilder) {
		*errOut = lowerActionBody(ctx, elseStmts)
	})
	return *errOut
}

func lowerEmit(ctx *actionCtx, st *coinscript.EmitStmt) error {
	var evtDecl *coinscript.EventDecl
	for i := range ctx.en.coin.Events {
		if ctx.en.coin.Events[i].Name == st.Event {
			evtDecl = &ctx.en.coin.Events[i]
			break
		}
	}
	if evtDecl == nil {
		return semErrorf("emit of undeclared event %q", st.Event)
	}
	if err := ValidateEventArgs(st.Event, len(evtDecl.Params), len(st.Args)); err != nil {
		return err
	}
	args := make([]*core.TreeNode, len(st.Args))
	for i, a := range st.Args {
		lowered, _, err := lowerExpr(ctx.pb, ctx.en, a)
		if err != nil {
			return err
		}
		args[i] = lowered.Node()
	}
	msg := AnnouncementMessage(st.Event, args)
	ctx.pb.CreateAnnouncement(msg)
	return nil
}

func lowerAssign(ctx *actionCtx, st *coinscript.Assign) error {
	member, ok := st.Target.(*coinscript.MemberExpr)
	if !ok {
		return semErrorf("assignment target must be a state field")
	}
	base, ok := member.X.(*coinscript.Ident)
	if !ok || base.Name != "state" {
		return semErrorf("storage is immutable; only state.* may be assigned")
	}
	if !ctx.stateful {
		return semErrorf("state.%s written outside a @stateful action", member.Field)
	}
	field := member.Field
	value, _, err := lowerExpr(ctx.pb, ctx.en, st.Value)
	if err != nil {
		return err
	}
	current := stateFieldAccessor(ctx.pb, ctx.en, field)
	switch st.Op {
	case "=":
		ctx.recordWrite(field, value)
	case "+=":
		ctx.recordWrite(field, current.Add(value))
	case "-=":
		ctx.recordWrite(field, current.Sub(value))
	default:
		return codegenErrorf("unsupported assignment operator %q", st.Op)
	}
	return nil
}

func lowerVarDecl(ctx *actionCtx, st *coinscript.VarDecl) error {
	if st.Init == nil {
		return nil
	}
	val, typ, err := lowerExpr(ctx.pb, ctx.en, st.Init)
	if err != nil {
		return err
	}
	// Local variables are inlined at each reference rather than carried as
	// a solution position: the symbol table entry points straight at the
	// lowered node.
	ctx.en.entries[st.Name] = symbolEntry{kind: symConst, typ: typ}
	ctx.en.bindLocal(st.Name, val.Node())
	return nil
}

func lowerExprStmt(ctx *actionCtx, st *coinscript.ExprStmt) error {
	call, ok := st.X.(*coinscript.CallExpr)
	if !ok {
		return codegenErrorf("expression statements must be built-in calls")
	}
	switch call.Callee {
	case "send", "sendCoins":
		return lowerSend(ctx, call)
	case "requireSignature":
		if len(call.Args) < 1 {
			return semErrorf("requireSignature expects a public key argument")
		}
		key, _, err := lowerExpr(ctx.pb, ctx.en, call.Args[0])
		if err != nil {
			return err
		}
		ctx.pb.RequireSignature(key.Node())
		return nil
	case "recreateSelf":
		ctx.terminated = true
		// Emits nothing here: in a @stateful action finalizeStateLayer emits
		// the re-creating CREATE_COIN; in any other action recreateSelf()
		// emits no condition.
		return nil
	default:
		return codegenErrorf("unknown built-in %q used as a statement", call.Callee)
	}
}

func lowerSend(ctx *actionCtx, call *coinscript.CallExpr) error {
	if len(call.Args) < 2 {
		return semErrorf("%s expects (address, amount) arguments", call.Callee)
	}
	addr, _, err := lowerExpr(ctx.pb, ctx.en, call.Args[0])
	if err != nil {
		return err
	}
	amount, _, err := lowerExpr(ctx.pb, ctx.en, call.Args[1])
	if err != nil {
		return err
	}
	var memo []*core.TreeNode
	if len(call.Args) > 2 {
		m, _, err := lowerExpr(ctx.pb, ctx.en, call.Args[2])
		if err != nil {
			return err
		}
		memo = append(memo, m.Node())
	}
	ctx.pb.CreateCoin(addr.Node(), amount.Node(), memo...)
	return nil
}
