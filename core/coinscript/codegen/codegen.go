// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – Code Generator ▸ Top-level entry point
// -----------------------------------------------------------------
//
//   - Implements §4.8 step "Lowering to puzzle builder" end to end: storage
//     fields become curried parameters, the solution carries
//     (current_state? action_name action_params msg_sender my_amount
//     block_height) (§4.9), and each action becomes one arm of an
//     action-name dispatch cascade, terminated by an unconditional `(x)`
//     raise, so an unrecognized action name fails the puzzle at spend time.
//     Class-level `layer(...)` directives wrap the assembled inner puzzle
//     (§4.8 step 6); inline inner puzzles compile recursively and are
//     published as additional puzzles alongside the main one.
package codegen

import (
	"sort"

	"coinscript/core"
	"coinscript/core/coinscript"
)

// Fixed, documented solution layout (§4.9). Every compiled coin's solution
// follows this shape so a hand-authored spend doesn't need to consult
// per-coin metadata to know where action_name/action_params live.
var fixedSolutionTail = []string{"action_name", "action_params", "msg_sender", "my_amount", "block_height"}

// Metadata summarizes compile-time facts about the produced puzzle, used by
// cmd/coinscript and by tests asserting scenario-level properties (§8).
type Metadata struct {
	HasStatefulActions bool
	HasSingleton       bool
	HasCAT             bool
	ActionNames        []string
}

// Result is the top-level compile output (§6.4).
type Result struct {
	MainPuzzle        *core.TreeNode
	AdditionalPuzzles map[string]*core.TreeNode
	Metadata          Metadata
}

// Compile lowers a parsed CoinScript file to ChiaLisp IR. A file may declare
// exactly one `coin` (the output's main puzzle) and any number of standalone
// `puzzle` declarations (published as additional puzzles, referenceable as
// inner-puzzle composition targets).
func Compile(file *coinscript.File) (*Result, error) {
	fileConsts, err := lowerFileConsts(file)
	if err != nil {
		return nil, err
	}
	var coin *coinscript.CoinDecl
	additional := make(map[string]*core.TreeNode)
	for _, d := range file.Decls {
		switch t := d.(type) {
		case *coinscript.CoinDecl:
			if coin != nil {
				return nil, semErrorf("a CoinScript file may declare only one coin, found a second: %q", t.Name)
			}
			coin = t
		case *coinscript.PuzzleDecl:
			ir, err := compilePuzzleDecl(t, fileConsts)
			if err != nil {
				return nil, err
			}
			additional[t.Name] = ir
		}
	}
	if coin == nil {
		return nil, semErrorf("no coin declaration found")
	}
	return compileCoin(coin, additional, fileConsts)
}

// lowerFileConsts folds file-scope `const` declarations into literal IR
// nodes, in declaration order so a later const may reference an earlier one.
func lowerFileConsts(file *coinscript.File) (map[string]symbolEntry, error) {
	en := &env{coin: &coinscript.CoinDecl{}, entries: make(map[string]symbolEntry)}
	pb := core.NewPuzzleBuilder()
	out := make(map[string]symbolEntry)
	for _, d := range file.Decls {
		c, ok := d.(*coinscript.ConstDecl)
		if !ok {
			continue
		}
		val, _, err := lowerExpr(pb, en, c.Value)
		if err != nil {
			return nil, err
		}
		ent := symbolEntry{kind: symConst, typ: c.Type, inlineNode: val.Node()}
		en.entries[c.Name] = ent
		out[c.Name] = ent
	}
	return out, nil
}

func seedConsts(en *env, consts map[string]symbolEntry) {
	for name, ent := range consts {
		en.entries[name] = ent
	}
}

// compilePuzzleDecl compiles a standalone `puzzle` block: storage only, no
// state, no layers — a composable inner puzzle.
func compilePuzzleDecl(p *coinscript.PuzzleDecl, consts map[string]symbolEntry) (*core.TreeNode, error) {
	synth := &coinscript.CoinDecl{Name: p.Name, Storage: p.Storage, Actions: p.Actions}
	pb := core.NewPuzzleBuilder()
	if err := curryStorage(pb, p.Storage); err != nil {
		return nil, err
	}
	pb.WithSolutionParams(fixedSolutionTail...)
	if err := lowerDispatchCascade(pb, synth, consts); err != nil {
		return nil, err
	}
	return pb.Build()
}

// compileCoin compiles the primary `coin` declaration into the module's
// main puzzle, applying state-layer and outer-layer wrapping as declared.
func compileCoin(coin *coinscript.CoinDecl, additional map[string]*core.TreeNode, consts map[string]symbolEntry) (*Result, error) {
	pb := core.NewPuzzleBuilder()
	if err := curryStorage(pb, coin.Storage); err != nil {
		return nil, err
	}
	if len(coin.State) > 0 {
		pb.WithSolutionParams(stateParamName)
	}
	pb.WithSolutionParams(fixedSolutionTail...)

	if err := compileInnerSlots(pb, coin, consts, additional); err != nil {
		return nil, err
	}

	stateful := false
	for _, a := range coin.Actions {
		for _, dec := range a.Decorators {
			if dec == "@stateful" {
				stateful = true
			}
		}
	}
	if stateful && len(coin.State) == 0 {
		return nil, semErrorf("coin %q has @stateful actions but declares no state block", coin.Name)
	}

	if stateful {
		modHash, err := computeModHash(coin, consts)
		if err != nil {
			return nil, err
		}
		pb.WithCurriedParam(modHashParamName, core.Bytes(modHash[:]))
	}

	if err := lowerDispatchCascade(pb, coin, consts); err != nil {
		return nil, err
	}

	innerIR, err := pb.Build()
	if err != nil {
		return nil, err
	}

	mainIR := innerIR
	hasSingleton, hasCAT := false, false
	for _, layer := range coin.Layers {
		args := make([]*core.TreeNode, len(layer.Args))
		layerEnv := newEnv(coin)
		seedConsts(layerEnv, consts)
		for i, a := range layer.Args {
			v, _, err := lowerExpr(pb, layerEnv, a)
			if err != nil {
				return nil, err
			}
			args[i] = v.Node()
		}
		result, err := ApplyLayer(layer.Name, mainIR, args)
		if err != nil {
			return nil, semErrorf("%s", err)
		}
		mainIR = result.Puzzle
		for name, puz := range result.AdditionalPuzzles {
			additional[name] = puz
		}
		switch layer.Name {
		case "Singleton":
			hasSingleton = true
		case "CAT":
			hasCAT = true
		}
	}

	names := make([]string, len(coin.Actions))
	for i, a := range coin.Actions {
		names[i] = a.Name
	}
	sort.Strings(names)

	return &Result{
		MainPuzzle:        mainIR,
		AdditionalPuzzles: additional,
		Metadata: Metadata{
			HasStatefulActions: stateful,
			HasSingleton:       hasSingleton,
			HasCAT:             hasCAT,
			ActionNames:        names,
		},
	}, nil
}

// curryStorage binds each storage field to its literal default (§3.4:
// "storage initializers must be compile-time constants of matching type").
func curryStorage(pb *core.PuzzleBuilder, fields []coinscript.StorageField) error {
	for _, f := range fields {
		node, err := lowerConstExpr(f.Default, f.Type)
		if err != nil {
			return err
		}
		pb.WithCurriedParam(f.Name, node)
	}
	return nil
}

// lowerConstExpr restricts expression lowering to the literal forms valid in
// a storage initializer, applying the type's zero value when Default is nil.
func lowerConstExpr(e coinscript.Expr, typ coinscript.Type) (*core.TreeNode, error) {
	if e == nil {
		return zeroValue(typ), nil
	}
	pb := core.NewPuzzleBuilder()
	en := &env{coin: &coinscript.CoinDecl{}, entries: make(map[string]symbolEntry)}
	val, _, err := lowerExpr(pb, en, e)
	if err != nil {
		return nil, err
	}
	return val.Node(), nil
}

func zeroValue(typ coinscript.Type) *core.TreeNode {
	switch typ {
	case coinscript.TypeBool:
		return core.Nil()
	case coinscript.TypeString:
		return core.Str("")
	case coinscript.TypeBytes32, coinscript.TypeAddress:
		return core.Bytes(make([]byte, 32))
	default:
		return core.Int(0)
	}
}

// compileInnerSlots compiles inline `inner puzzle { ... }` slots and
// publishes them as additional puzzles; externally-supplied `inner IPuzzle`
// slots are reserved as curried placeholders, substituted by the caller
// before the puzzle is used (no action-body syntax yet calls into them).
func compileInnerSlots(pb *core.PuzzleBuilder, coin *coinscript.CoinDecl, consts map[string]symbolEntry, additional map[string]*core.TreeNode) error {
	for _, slot := range coin.Inners {
		if slot.Inline != nil {
			ir, err := compilePuzzleDecl(slot.Inline, consts)
			if err != nil {
				return err
			}
			additional[slot.Name] = ir
			continue
		}
		pb.WithCurriedParam(slot.Name, core.Nil())
	}
	return nil
}

// lowerDispatchCascade builds the `(= action_name "x") -> ... ; else raise`
// chain (§4.8 step 4) covering every declared action.
func lowerDispatchCascade(pb *core.PuzzleBuilder, coin *coinscript.CoinDecl, consts map[string]symbolEntry) error {
	if len(coin.Actions) == 0 {
		return codegenErrorf("coin %q declares no actions", coin.Name)
	}
	return lowerDispatchArm(pb, coin, consts, coin.Actions, 0)
}

func lowerDispatchArm(pb *core.PuzzleBuilder, coin *coinscript.CoinDecl, consts map[string]symbolEntry, actions []coinscript.ActionDecl, i int) error {
	action := actions[i]
	cond := pb.Param("action_name").Eq(pb.Expr(core.Str(action.Name)))
	var bodyErr error
	if i == 0 {
		pb.If(cond)
	} else {
		pb.ElseIf(cond)
	}
	pb.Then(func(*core.PuzzleBuilder) {
		bodyErr = lowerAction(pb, coin, consts, action)
	})
	if bodyErr != nil {
		return bodyErr
	}
	if i+1 < len(actions) {
		return lowerDispatchArm(pb, coin, consts, actions, i+1)
	}
	pb.Else(func(b *core.PuzzleBuilder) { b.Raise() })
	return nil
}

func lowerAction(pb *core.PuzzleBuilder, coin *coinscript.CoinDecl, consts map[string]symbolEntry, action coinscript.ActionDecl) error {
	stateful := false
	onlyOwner := false
	for _, dec := range action.Decorators {
		switch dec {
		case "@stateful":
			stateful = true
		case "@onlyOwner":
			onlyOwner = true
		}
	}

	en := newEnv(coin)
	seedConsts(en, consts)
	for i, p := range action.Params {
		en.entries[p.Name] = symbolEntry{kind: symParam, typ: p.Type}
		en.bindLocal(p.Name, actionParamAccessor(i))
	}

	ctx := newActionCtx(pb, en, stateful)

	if onlyOwner {
		owner, ok := en.lookup("owner")
		if !ok || owner.kind != symStorage {
			return semErrorf("@onlyOwner on action %q requires a storage field named owner", action.Name)
		}
		pb.RequireSignature(pb.Param("owner").Node())
	}

	if err := lowerActionBody(ctx, action.Body); err != nil {
		return err
	}

	if stateful {
		storageNames := make([]string, len(coin.Storage))
		for i, s := range coin.Storage {
			storageNames[i] = s.Name
		}
		finalizeStateLayer(ctx, storageNames)
	}
	return nil
}

// computeModHash lowers the dispatch cascade a second time into a throwaway,
// body-only builder where storage is left as free symbols (never curried),
// so the resulting hash is a function of the puzzle's shape alone — the one
// value a stateful action's self-recreate condition can curry back in
// without the circularity of a puzzle embedding its own final hash (see
// statelayer.go).
func computeModHash(coin *coinscript.CoinDecl, consts map[string]symbolEntry) ([32]byte, error) {
	template := core.NewPuzzleBuilder()
	template.NoMod()
	storageNames := make([]string, len(coin.Storage))
	for i, s := range coin.Storage {
		storageNames[i] = s.Name
	}
	template.WithSolutionParams(storageNames...)
	if len(coin.State) > 0 {
		template.WithSolutionParams(stateParamName)
	}
	template.WithSolutionParams(fixedSolutionTail...)
	if err := lowerDispatchCascade(template, coin, consts); err != nil {
		return [32]byte{}, err
	}
	body, err := template.Build()
	if err != nil {
		return [32]byte{}, err
	}
	return modHashOfTemplate(body), nil
}

// actionParamAccessor extracts the Nth element (by declaration order) from
// the action_params solution list, mirroring stateFieldAccessor's
// declaration-order f/r chain.
func actionParamAccessor(idx int) *core.TreeNode {
	node := core.Symbol("action_params")
	for i := 0; i < idx; i++ {
		node = core.List(core.Symbol("r"), node)
	}
	return core.List(core.Symbol("f"), node)
}
