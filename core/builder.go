// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – Core ▸ Puzzle Builder
// ----------------------------------------------
//
//   - Fluent IR construction for ChiaLisp puzzles. Maintains an ordered list
//     of emitted condition/expression nodes plus curried/solution parameter
//     bindings, a feature-usage set consumed by the auto-include engine
//     (§4.7), and a small control-flow scratchpad for if/then/else/elseIf.
package core

import "fmt"

type ifFrame struct {
	cond           *TreeNode
	thenNodes      []*TreeNode
	haveThen       bool
	elseIsNestedIf bool
}

// PuzzleBuilder accumulates IR for a single ChiaLisp puzzle.
type PuzzleBuilder struct {
	nodes          []*TreeNode
	sink           *[]*TreeNode
	curriedParams  map[string]*TreeNode
	curriedOrder   []string
	solutionParams []string
	includes       []string
	featuresUsed   map[string]bool
	comments       map[*TreeNode]string
	modBlockComment string
	customMod      *TreeNode
	noMod          bool
	ifStack        []*ifFrame
	err            error
}

// NewPuzzleBuilder returns an empty builder ready to accumulate conditions.
func NewPuzzleBuilder() *PuzzleBuilder {
	pb := &PuzzleBuilder{
		curriedParams: make(map[string]*TreeNode),
		featuresUsed:  make(map[string]bool),
		comments:      make(map[*TreeNode]string),
	}
	pb.sink = &pb.nodes
	return pb
}

func (pb *PuzzleBuilder) emit(n *TreeNode) *PuzzleBuilder {
	*pb.sink = append(*pb.sink, n)
	return pb
}

// MarkFeature records that a puzzle uses a named on-chain capability, driving
// include minimization (core.DetermineRequiredIncludes) and exposed via
// FeaturesUsed for callers outside this package (e.g. codegen's state layer).
func (pb *PuzzleBuilder) MarkFeature(name string) {
	pb.featuresUsed[name] = true
}

// WithSolutionParams sets the puzzle's solution parameter names, in order.
func (pb *PuzzleBuilder) WithSolutionParams(names ...string) *PuzzleBuilder {
	pb.solutionParams = append(pb.solutionParams, names...)
	return pb
}

// WithCurriedParam binds name to value as a curried (constant) parameter.
func (pb *PuzzleBuilder) WithCurriedParam(name string, value *TreeNode) *PuzzleBuilder {
	if _, exists := pb.curriedParams[name]; !exists {
		pb.curriedOrder = append(pb.curriedOrder, name)
	}
	pb.curriedParams[name] = value
	return pb
}

// WithInclude adds a manually-required include library, preserved verbatim
// alongside whatever the auto-include engine derives from featuresUsed.
func (pb *PuzzleBuilder) WithInclude(name string) *PuzzleBuilder {
	pb.includes = append(pb.includes, name)
	return pb
}

// WithCustomMod loads an already-built mod program to be re-curried rather
// than rebuilt from accumulated nodes.
func (pb *PuzzleBuilder) WithCustomMod(mod *TreeNode) *PuzzleBuilder {
	pb.customMod = mod
	return pb
}

// NoMod flags this puzzle as body-only (no enclosing `(mod ...)` envelope).
func (pb *PuzzleBuilder) NoMod() *PuzzleBuilder {
	pb.noMod = true
	return pb
}

// Comment attaches a per-node trailing comment, rendered by the serializer
// when pretty-printing.
func (pb *PuzzleBuilder) Comment(e Expression, text string) *PuzzleBuilder {
	pb.comments[e.node] = text
	return pb
}

// BlockComment attaches a comment rendered between the mod's parameter list
// and its body.
func (pb *PuzzleBuilder) BlockComment(text string) *PuzzleBuilder {
	pb.modBlockComment = text
	return pb
}

// FeaturesUsed exposes the accumulated feature set (read-only use expected).
func (pb *PuzzleBuilder) FeaturesUsed() map[string]bool { return pb.featuresUsed }

//---------------------------------------------------------------------
// Condition operations
//---------------------------------------------------------------------

func opNode(op ConditionOpcode, args ...*TreeNode) *TreeNode {
	items := append([]*TreeNode{Int(int64(op))}, args...)
	return List(items...)
}

// CreateCoin emits CREATE_COIN; memo is optional.
func (pb *PuzzleBuilder) CreateCoin(puzzleHash, amount *TreeNode, memo ...*TreeNode) *PuzzleBuilder {
	args := []*TreeNode{puzzleHash, amount}
	if len(memo) > 0 {
		args = append(args, List(memo...))
	}
	pb.MarkFeature("CREATE_COIN")
	return pb.emit(opNode(OpCreateCoin, args...))
}

// RequireSignature emits AGG_SIG_ME; message defaults to nil when omitted.
func (pb *PuzzleBuilder) RequireSignature(pubkey *TreeNode, message ...*TreeNode) *PuzzleBuilder {
	pb.checkPubkeyShape(pubkey)
	msg := Nil()
	if len(message) > 0 {
		msg = message[0]
	}
	pb.MarkFeature("AGG_SIG_ME")
	return pb.emit(opNode(OpAggSigMe, pubkey, msg))
}

// RequireSignatureUnsafe emits AGG_SIG_UNSAFE; the message is mandatory
// because this condition is not bound to the spending transaction.
func (pb *PuzzleBuilder) RequireSignatureUnsafe(pubkey, message *TreeNode) *PuzzleBuilder {
	pb.checkPubkeyShape(pubkey)
	pb.MarkFeature("AGG_SIG_UNSAFE")
	return pb.emit(opNode(OpAggSigUnsafe, pubkey, message))
}

// checkPubkeyShape validates a literal (non-symbol) pubkey atom's byte
// length, leaving curried/solution-parameter references (symbols) unchecked
// since their concrete bytes are not known at build time.
func (pb *PuzzleBuilder) checkPubkeyShape(pubkey *TreeNode) {
	if pb.err != nil || pubkey == nil || pubkey.Kind != KindAtom || pubkey.AKind != AtomBytes {
		return
	}
	if err := ValidatePubkeyShape(pubkey.AsBytes()); err != nil {
		pb.err = err
	}
}

// RequireAfterSeconds emits ASSERT_SECONDS_RELATIVE: the coin must be at
// least `seconds` old at spend time.
func (pb *PuzzleBuilder) RequireAfterSeconds(seconds *TreeNode) *PuzzleBuilder {
	pb.MarkFeature("ASSERT_SECONDS_RELATIVE")
	return pb.emit(opNode(OpAssertSecondsRelative, seconds))
}

// RequireAfterHeight emits ASSERT_HEIGHT_ABSOLUTE: the spend is valid only at
// or after the given absolute block height.
func (pb *PuzzleBuilder) RequireAfterHeight(height *TreeNode) *PuzzleBuilder {
	pb.MarkFeature("ASSERT_HEIGHT_ABSOLUTE")
	return pb.emit(opNode(OpAssertHeightAbsolute, height))
}

// RequireBeforeSeconds emits ASSERT_SECONDS_ABSOLUTE. The fixed opcode table
// (§6.2) has no upper-bound ("before") timelock primitive; this method is
// the deadline-flavoured counterpart to RequireAfterSeconds using the
// remaining ASSERT_SECONDS_* opcode. See DESIGN.md for the resolved
// ambiguity.
func (pb *PuzzleBuilder) RequireBeforeSeconds(timestamp *TreeNode) *PuzzleBuilder {
	pb.MarkFeature("ASSERT_SECONDS_ABSOLUTE")
	return pb.emit(opNode(OpAssertSecondsAbsolute, timestamp))
}

// RequireBeforeHeight emits ASSERT_HEIGHT_RELATIVE, the remaining
// ASSERT_HEIGHT_* opcode paired with RequireBeforeSeconds. See DESIGN.md.
func (pb *PuzzleBuilder) RequireBeforeHeight(blocks *TreeNode) *PuzzleBuilder {
	pb.MarkFeature("ASSERT_HEIGHT_RELATIVE")
	return pb.emit(opNode(OpAssertHeightRelative, blocks))
}

// ReserveFee emits RESERVE_FEE.
func (pb *PuzzleBuilder) ReserveFee(amount *TreeNode) *PuzzleBuilder {
	pb.MarkFeature("RESERVE_FEE")
	return pb.emit(opNode(OpReserveFee, amount))
}

// CreateAnnouncement emits CREATE_COIN_ANNOUNCEMENT.
func (pb *PuzzleBuilder) CreateAnnouncement(message *TreeNode) *PuzzleBuilder {
	pb.MarkFeature("CREATE_COIN_ANNOUNCEMENT")
	return pb.emit(opNode(OpCreateCoinAnnouncement, message))
}

// AssertAnnouncement emits ASSERT_COIN_ANNOUNCEMENT.
func (pb *PuzzleBuilder) AssertAnnouncement(announcementID *TreeNode) *PuzzleBuilder {
	pb.MarkFeature("ASSERT_COIN_ANNOUNCEMENT")
	return pb.emit(opNode(OpAssertCoinAnnouncement, announcementID))
}

// CreatePuzzleAnnouncement emits CREATE_PUZZLE_ANNOUNCEMENT.
func (pb *PuzzleBuilder) CreatePuzzleAnnouncement(message *TreeNode) *PuzzleBuilder {
	pb.MarkFeature("CREATE_PUZZLE_ANNOUNCEMENT")
	return pb.emit(opNode(OpCreatePuzzleAnnouncement, message))
}

// AssertPuzzleAnnouncement emits ASSERT_PUZZLE_ANNOUNCEMENT.
func (pb *PuzzleBuilder) AssertPuzzleAnnouncement(announcementID *TreeNode) *PuzzleBuilder {
	pb.MarkFeature("ASSERT_PUZZLE_ANNOUNCEMENT")
	return pb.emit(opNode(OpAssertPuzzleAnnouncement, announcementID))
}

// AssertMyCoinID emits ASSERT_MY_COIN_ID.
func (pb *PuzzleBuilder) AssertMyCoinID(id *TreeNode) *PuzzleBuilder {
	pb.MarkFeature("ASSERT_MY_COIN_ID")
	return pb.emit(opNode(OpAssertMyCoinID, id))
}

// AssertMyParentID emits ASSERT_MY_PARENT_ID.
func (pb *PuzzleBuilder) AssertMyParentID(id *TreeNode) *PuzzleBuilder {
	pb.MarkFeature("ASSERT_MY_PARENT_ID")
	return pb.emit(opNode(OpAssertMyParentID, id))
}

// AssertMyPuzzleHash emits ASSERT_MY_PUZZLEHASH.
func (pb *PuzzleBuilder) AssertMyPuzzleHash(hash *TreeNode) *PuzzleBuilder {
	pb.MarkFeature("ASSERT_MY_PUZZLEHASH")
	return pb.emit(opNode(OpAssertMyPuzzlehash, hash))
}

// AssertMyAmount emits ASSERT_MY_AMOUNT.
func (pb *PuzzleBuilder) AssertMyAmount(amount *TreeNode) *PuzzleBuilder {
	pb.MarkFeature("ASSERT_MY_AMOUNT")
	return pb.emit(opNode(OpAssertMyAmount, amount))
}

// AddCondition emits an arbitrary condition by opcode, for conditions not
// covered by a dedicated method.
func (pb *PuzzleBuilder) AddCondition(opcode ConditionOpcode, args ...*TreeNode) *PuzzleBuilder {
	if name, ok := conditionNames[opcode]; ok {
		pb.MarkFeature(name)
	}
	return pb.emit(opNode(opcode, args...))
}

// Raise emits `(x)`, unconditionally failing the puzzle.
func (pb *PuzzleBuilder) Raise() *PuzzleBuilder {
	return pb.emit(List(Symbol("x")))
}

//---------------------------------------------------------------------
// Control flow
//---------------------------------------------------------------------

// If begins a conditional block; must be followed by Then (and optionally
// ElseIf/Else).
func (pb *PuzzleBuilder) If(cond Expression) *PuzzleBuilder {
	pb.ifStack = append(pb.ifStack, &ifFrame{cond: cond.node})
	return pb
}

// Then runs cb, collecting whatever it emits as the then-branch body.
func (pb *PuzzleBuilder) Then(cb func(*PuzzleBuilder)) *PuzzleBuilder {
	if len(pb.ifStack) == 0 {
		pb.err = BuilderError("then() called without a preceding if()")
		return pb
	}
	frame := pb.ifStack[len(pb.ifStack)-1]
	if frame.haveThen {
		pb.err = BuilderError("then() called twice for the same if()")
		return pb
	}
	prevSink := pb.sink
	var thenNodes []*TreeNode
	pb.sink = &thenNodes
	cb(pb)
	pb.sink = prevSink
	frame.thenNodes = thenNodes
	frame.haveThen = true
	return pb
}

// ElseIf desugars to a nested if inside the current if's else branch.
func (pb *PuzzleBuilder) ElseIf(cond Expression) *PuzzleBuilder {
	if len(pb.ifStack) == 0 {
		pb.err = BuilderError("elseIf() called without a preceding if()")
		return pb
	}
	frame := pb.ifStack[len(pb.ifStack)-1]
	if !frame.haveThen {
		pb.err = BuilderError("elseIf() called without a preceding then()")
		return pb
	}
	frame.elseIsNestedIf = true
	pb.ifStack = append(pb.ifStack, &ifFrame{cond: cond.node})
	return pb
}

// Else runs cb, collecting whatever it emits as the else-branch body, and
// finalizes the (i cond then else) node into the enclosing sink.
func (pb *PuzzleBuilder) Else(cb func(*PuzzleBuilder)) *PuzzleBuilder {
	if len(pb.ifStack) == 0 {
		pb.err = BuilderError("else() called without a preceding if()")
		return pb
	}
	frame := pb.ifStack[len(pb.ifStack)-1]
	if !frame.haveThen {
		pb.err = BuilderError("else() called without a preceding then()")
		return pb
	}
	prevSink := pb.sink
	var elseNodes []*TreeNode
	pb.sink = &elseNodes
	cb(pb)
	pb.sink = prevSink
	pb.ifStack = pb.ifStack[:len(pb.ifStack)-1]
	node := List(Symbol("i"), frame.cond, foldSeq(frame.thenNodes), foldSeq(elseNodes))
	pb.resolveIfNode(node)
	return pb
}

func (pb *PuzzleBuilder) resolveIfNode(node *TreeNode) {
	if len(pb.ifStack) > 0 {
		top := pb.ifStack[len(pb.ifStack)-1]
		if top.elseIsNestedIf {
			pb.ifStack = pb.ifStack[:len(pb.ifStack)-1]
			outer := List(Symbol("i"), top.cond, foldSeq(top.thenNodes), node)
			pb.resolveIfNode(outer)
			return
		}
	}
	pb.emit(node)
}

func foldSeq(nodes []*TreeNode) *TreeNode {
	switch len(nodes) {
	case 0:
		return Nil()
	case 1:
		return nodes[0]
	default:
		return toConsChain(nodes, Nil())
	}
}

//---------------------------------------------------------------------
// Building
//---------------------------------------------------------------------

func (pb *PuzzleBuilder) paramListNode() *TreeNode {
	if len(pb.solutionParams) == 0 {
		return Symbol("@")
	}
	syms := make([]*TreeNode, len(pb.solutionParams))
	for i, p := range pb.solutionParams {
		syms[i] = Symbol(p)
	}
	return List(syms...)
}

func (pb *PuzzleBuilder) curriedMap() map[string]*TreeNode {
	return pb.curriedParams
}

// requiredIncludes runs auto-include analysis (§4.7) without mutating the
// builder, so callers can inspect it ahead of Build().
func (pb *PuzzleBuilder) requiredIncludes() []string {
	return DetermineRequiredIncludes(pb.featuresUsed, pb.includes)
}

// Build runs the five-step build algorithm (§4.5) and returns the final IR.
func (pb *PuzzleBuilder) Build() (*TreeNode, error) {
	if pb.err != nil {
		return nil, pb.err
	}
	if len(pb.ifStack) > 0 {
		return nil, BuilderError("incomplete control flow: %d unclosed if() block(s)", len(pb.ifStack))
	}
	if err := validateNoCurriedShadow(pb.curriedParams, pb.solutionParams); err != nil {
		return nil, err
	}
	includes := pb.requiredIncludes()

	if pb.customMod != nil {
		return CurryByName(pb.customMod, pb.curriedMap()), nil
	}

	body := foldSeq(pb.nodes)
	body = CurryByName(body, pb.curriedMap())

	if pb.noMod {
		return body, nil
	}

	items := []*TreeNode{Symbol("mod"), pb.paramListNode()}
	for _, inc := range includes {
		items = append(items, List(Symbol("include"), Symbol(inc)))
	}
	items = append(items, body)
	mod := List(items...)
	return mod, nil
}

//---------------------------------------------------------------------
// Outputs
//---------------------------------------------------------------------

func (pb *PuzzleBuilder) serializeOptions(ir *TreeNode) SerializeOptions {
	libs := make(map[string]bool)
	for _, inc := range pb.requiredIncludes() {
		libs[inc] = true
	}
	opts := SerializeOptions{Indent: true, IncludedLibraries: libs, Comments: pb.comments}
	if len(ir.Items) > 0 && pb.modBlockComment != "" {
		opts.BlockComments = map[*TreeNode]string{ir.Items[0]: pb.modBlockComment}
	}
	return opts
}

// ToChiaLisp renders the built puzzle as pretty-printed ChiaLisp source.
func (pb *PuzzleBuilder) ToChiaLisp() (string, error) {
	ir, err := pb.Build()
	if err != nil {
		return "", err
	}
	return SerializeWithOptions(ir, pb.serializeOptions(ir))
}

// ToModHash returns the 32-byte tree hash of the built puzzle, hex-encoded
// with a 0x prefix. This does not require an external Engine: tree hashing
// is a core algorithm (§4.4), not delegated to the CLVM bridge.
func (pb *PuzzleBuilder) ToModHash() (string, error) {
	ir, err := pb.Build()
	if err != nil {
		return "", err
	}
	return TreeHashHex(ir), nil
}

// ToCLVM compiles the built puzzle via engine and returns its hex-encoded
// wire format.
func (pb *PuzzleBuilder) ToCLVM(engine Engine) (string, error) {
	prog, err := pb.compile(engine)
	if err != nil {
		return "", err
	}
	return prog.SerializeHex(), nil
}

// ToPuzzleReveal is an alias of ToCLVM: the puzzle reveal is simply the
// compiled program's hex, without any additional wrapping.
func (pb *PuzzleBuilder) ToPuzzleReveal(engine Engine) (string, error) {
	return pb.ToCLVM(engine)
}

func (pb *PuzzleBuilder) compile(engine Engine) (Program, error) {
	text, err := pb.ToChiaLisp()
	if err != nil {
		return nil, err
	}
	expanded := ExpandIncludes(text, pb.requiredIncludes())
	prog, err := engine.Compile(expanded)
	if err != nil {
		return nil, CompileErrorf(err, "compiling puzzle")
	}
	return prog, nil
}

// Simulate compiles the puzzle and runs it against solution, delegating
// execution to the external Engine (§4.3). solution may be any of: a
// *TreeNode, a SolutionBuilder, a compiled Program, or a ChiaLisp source
// string — all are canonicalized to IR before reaching the Engine.
func (pb *PuzzleBuilder) Simulate(engine Engine, solution any) (*RunResult, error) {
	prog, err := pb.compile(engine)
	if err != nil {
		return nil, err
	}
	solIR, err := canonicalizeSolution(solution)
	if err != nil {
		return nil, SimulationErrorf(err, "invalid solution")
	}
	res, err := engine.Run(prog, solIR)
	if err != nil {
		return nil, SimulationErrorf(err, "running puzzle")
	}
	return res, nil
}

// canonicalizeSolution implements the polymorphic-solution open question
// (§9): accept any plausible solution shape and reduce it to IR.
func canonicalizeSolution(solution any) (*TreeNode, error) {
	switch v := solution.(type) {
	case *TreeNode:
		return v, nil
	case *SolutionBuilder:
		return v.Build()
	case Program:
		return v.IR(), nil
	case string:
		return Parse(v)
	default:
		return nil, fmt.Errorf("unsupported solution type %T", solution)
	}
}
