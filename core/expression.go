package core

// Expression wraps a TreeNode with fluent arithmetic/comparison/boolean
// combinators (§4.5), optionally bound to the PuzzleBuilder that produced it
// so combinators can record feature usage for auto-include resolution.
type Expression struct {
	node *TreeNode
	pb   *PuzzleBuilder
}

// Expr wraps a raw IR node as a standalone Expression, with no owning
// builder (feature tracking is a no-op for such expressions).
func Expr(n *TreeNode) Expression { return Expression{node: n} }

// Expr wraps n as an Expression bound to pb, so combinators built from it
// can mark required features on pb.
func (pb *PuzzleBuilder) Expr(n *TreeNode) Expression { return Expression{node: n, pb: pb} }

// Param returns an Expression referencing a named solution parameter.
func (pb *PuzzleBuilder) Param(name string) Expression {
	return Expression{node: Symbol(name), pb: pb}
}

// Node returns the underlying IR node.
func (e Expression) Node() *TreeNode { return e.node }

func (e Expression) owner(other Expression) *PuzzleBuilder {
	if e.pb != nil {
		return e.pb
	}
	return other.pb
}

func (e Expression) binary(op string, other Expression) Expression {
	return Expression{node: List(Symbol(op), e.node, other.node), pb: e.owner(other)}
}

// Add builds (+ e other).
func (e Expression) Add(other Expression) Expression { return e.binary("+", other) }

// Sub builds (- e other).
func (e Expression) Sub(other Expression) Expression { return e.binary("-", other) }

// Mul builds (* e other).
func (e Expression) Mul(other Expression) Expression { return e.binary("*", other) }

// Div builds (/ e other).
func (e Expression) Div(other Expression) Expression { return e.binary("/", other) }

// Gt builds (> e other), integer comparison.
func (e Expression) Gt(other Expression) Expression { return e.binary(">", other) }

// GtBytes builds (>s e other), lexicographic byte-string comparison.
func (e Expression) GtBytes(other Expression) Expression { return e.binary(">s", other) }

// Eq builds (= e other).
func (e Expression) Eq(other Expression) Expression { return e.binary("=", other) }

// Not builds (not e).
func (e Expression) Not() Expression {
	return Expression{node: List(Symbol("not"), e.node), pb: e.pb}
}

// Sha256 builds (sha256 e), the primitive opcode (no include required).
func (e Expression) Sha256() Expression {
	return Expression{node: List(Symbol("sha256"), e.node), pb: e.pb}
}

// TreeHashOf builds (sha256tree e), requiring sha256tree.clib.
func (e Expression) TreeHashOf() Expression {
	out := Expression{node: List(Symbol("sha256tree"), e.node), pb: e.pb}
	if out.pb != nil {
		out.pb.MarkFeature("sha256tree")
	}
	return out
}

// And builds (all e1 e2 ...), the primitive variadic-AND opcode — unlike the
// short-circuiting `and` macro in utility_macros.clib, this always evaluates
// every argument.
func And(exprs ...Expression) Expression {
	return variadic("all", exprs)
}

// Or builds (any e1 e2 ...), the primitive variadic-OR opcode — unlike the
// short-circuiting `or` macro in utility_macros.clib, this always evaluates
// every argument.
func Or(exprs ...Expression) Expression {
	return variadic("any", exprs)
}

func variadic(opSymbol string, exprs []Expression) Expression {
	nodes := make([]*TreeNode, 0, len(exprs)+1)
	nodes = append(nodes, Symbol(opSymbol))
	var pb *PuzzleBuilder
	for _, e := range exprs {
		nodes = append(nodes, e.node)
		if pb == nil {
			pb = e.pb
		}
	}
	return Expression{node: List(nodes...), pb: pb}
}
