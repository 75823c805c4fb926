// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – CoinScript Front-End ▸ Parser
// ----------------------------------------------------
//
//   - Recursive-descent parser producing the AST of §3.4 from a Token
//     stream. Recovers a few common mistakes with pointed messages
//     (unterminated string already caught at lex time; missing ';', missing
//     closing brace) per §4.8. Structured the same way core/parser.go
//     hand-rolls the ChiaLisp reader: a cursor over a token/byte slice plus
//     small `expect`/`peek` helpers, no parser-generator dependency.
package coinscript

import "fmt"

// ParseError is returned for CoinScript syntax failures (§7 ParseError).
type ParseError struct {
	Msg  string
	Line int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("coinscript parse error at line %d: %s", e.Line, e.Msg)
}

// Parser consumes a Token stream and builds a File AST.
type Parser struct {
	toks []Token
	pos  int
}

// Parse lexes and parses src into a File.
func Parse(src string) (*File, error) {
	toks, err := NewLexer(src).Lex()
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	p := &Parser{toks: toks}
	return p.parseFile()
}

func (p *Parser) cur() Token  { return p.toks[p.pos] }
func (p *Parser) at(k TokenKind) bool { return p.cur().Kind == k }

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k TokenKind, what string) (Token, error) {
	if !p.at(k) {
		return Token{}, &ParseError{Msg: fmt.Sprintf("expected %s, found %q", what, p.cur().Text), Line: p.cur().Line}
	}
	return p.advance(), nil
}

func (p *Parser) parseFile() (*File, error) {
	f := &File{}
	for !p.at(TokEOF) {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		f.Decls = append(f.Decls, d)
	}
	return f, nil
}

func (p *Parser) parseDecl() (Decl, error) {
	switch p.cur().Kind {
	case TokInclude:
		return p.parseIncludeDecl()
	case TokConst:
		return p.parseConstDecl()
	case TokCoin:
		return p.parseCoinDecl()
	case TokPuzzle:
		return p.parsePuzzleDecl()
	default:
		return nil, &ParseError{Msg: fmt.Sprintf("expected top-level declaration, found %q", p.cur().Text), Line: p.cur().Line}
	}
}

func (p *Parser) parseIncludeDecl() (Decl, error) {
	p.advance() // include
	name, err := p.expect(TokString, "library name string")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokSemicolon, "';'"); err != nil {
		return nil, err
	}
	return &IncludeDecl{Name: name.Text}, nil
}

func (p *Parser) parseType() (Type, error) {
	switch p.cur().Kind {
	case TokTypeAddress:
		p.advance()
		return TypeAddress, nil
	case TokTypeUint256:
		p.advance()
		return TypeUint256, nil
	case TokTypeBool:
		p.advance()
		return TypeBool, nil
	case TokTypeString:
		p.advance()
		return TypeString, nil
	case TokTypeBytes32:
		p.advance()
		return TypeBytes32, nil
	case TokTypeIPuzzle:
		p.advance()
		return TypeIPuzzle, nil
	default:
		return TypeUnknown, &ParseError{Msg: fmt.Sprintf("expected type, found %q", p.cur().Text), Line: p.cur().Line}
	}
}

func (p *Parser) parseConstDecl() (Decl, error) {
	p.advance() // const
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(TokIdent, "constant name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokAssign, "'='"); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokSemicolon, "';'"); err != nil {
		return nil, err
	}
	return &ConstDecl{Name: name.Text, Type: typ, Value: val}, nil
}

func (p *Parser) parseCoinDecl() (Decl, error) {
	p.advance() // coin
	name, err := p.expect(TokIdent, "coin name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBrace, "'{'"); err != nil {
		return nil, err
	}
	c := &CoinDecl{Name: name.Text}
	for !p.at(TokRBrace) {
		if p.at(TokEOF) {
			return nil, &ParseError{Msg: "unterminated coin body, missing '}'", Line: p.cur().Line}
		}
		if err := p.parseCoinMember(c); err != nil {
			return nil, err
		}
	}
	p.advance() // }
	return c, nil
}

func (p *Parser) parsePuzzleDecl() (Decl, error) {
	p.advance() // puzzle
	name, err := p.expect(TokIdent, "puzzle name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBrace, "'{'"); err != nil {
		return nil, err
	}
	pd := &PuzzleDecl{Name: name.Text}
	c := &CoinDecl{}
	for !p.at(TokRBrace) {
		if p.at(TokEOF) {
			return nil, &ParseError{Msg: "unterminated puzzle body, missing '}'", Line: p.cur().Line}
		}
		if err := p.parseCoinMember(c); err != nil {
			return nil, err
		}
	}
	p.advance() // }
	pd.Storage = c.Storage
	pd.Actions = c.Actions
	return pd, nil
}

func (p *Parser) parseCoinMember(c *CoinDecl) error {
	switch p.cur().Kind {
	case TokStorage:
		return p.parseStorageBlock(c)
	case TokState:
		return p.parseStateBlock(c)
	case TokInner:
		return p.parseInnerSlot(c)
	case TokEvent:
		return p.parseEventDecl(c)
	case TokModifier:
		return p.parseModifierDecl(c)
	case TokLayer:
		return p.parseLayerDirective(c)
	case TokDecorator:
		return p.parseDecoratedAction(c)
	case TokIdent:
		// bare "action" is also a keyword, but allow a bare action with no
		// decorators to fall into the same path below.
		return &ParseError{Msg: fmt.Sprintf("unexpected identifier %q in coin body", p.cur().Text), Line: p.cur().Line}
	default:
		if p.cur().Kind == TokAction {
			return p.parseAction(c, nil)
		}
		return &ParseError{Msg: fmt.Sprintf("unexpected token %q in coin body", p.cur().Text), Line: p.cur().Line}
	}
}

func (p *Parser) parseStorageBlock(c *CoinDecl) error {
	p.advance() // storage
	typ, err := p.parseType()
	if err != nil {
		return err
	}
	name, err := p.expect(TokIdent, "storage field name")
	if err != nil {
		return err
	}
	var def Expr
	if p.at(TokAssign) {
		p.advance()
		def, err = p.parseExpr()
		if err != nil {
			return err
		}
	}
	if _, err := p.expect(TokSemicolon, "';'"); err != nil {
		return err
	}
	c.Storage = append(c.Storage, StorageField{Name: name.Text, Type: typ, Default: def})
	return nil
}

func (p *Parser) parseStateBlock(c *CoinDecl) error {
	p.advance() // state
	if _, err := p.expect(TokLBrace, "'{'"); err != nil {
		return err
	}
	for !p.at(TokRBrace) {
		typ, err := p.parseType()
		if err != nil {
			return err
		}
		isMapping := false
		var keyType Type
		if p.at(TokLBracket) {
			// mapping(keyType => valType) spelled as `valType[keyType] name;`
			p.advance()
			keyType, err = p.parseType()
			if err != nil {
				return err
			}
			if _, err := p.expect(TokRBracket, "']'"); err != nil {
				return err
			}
			isMapping = true
		}
		name, err := p.expect(TokIdent, "state field name")
		if err != nil {
			return err
		}
		if _, err := p.expect(TokSemicolon, "';'"); err != nil {
			return err
		}
		c.State = append(c.State, StateField{Name: name.Text, Type: typ, IsMapping: isMapping, KeyType: keyType})
	}
	p.advance() // }
	return nil
}

func (p *Parser) parseInnerSlot(c *CoinDecl) error {
	p.advance() // inner
	if p.at(TokPuzzle) {
		decl, err := p.parsePuzzleDecl()
		if err != nil {
			return err
		}
		pd := decl.(*PuzzleDecl)
		c.Inners = append(c.Inners, InnerSlot{Name: pd.Name, Inline: pd})
		return nil
	}
	iface, err := p.expect(TokTypeIPuzzle, "IPuzzle")
	if err != nil {
		return err
	}
	name, err := p.expect(TokIdent, "inner slot name")
	if err != nil {
		return err
	}
	if _, err := p.expect(TokSemicolon, "';'"); err != nil {
		return err
	}
	c.Inners = append(c.Inners, InnerSlot{Name: name.Text, Interface: iface.Text})
	return nil
}

func (p *Parser) parseEventDecl(c *CoinDecl) error {
	p.advance() // event
	name, err := p.expect(TokIdent, "event name")
	if err != nil {
		return err
	}
	params, err := p.parseParamList()
	if err != nil {
		return err
	}
	if _, err := p.expect(TokSemicolon, "';'"); err != nil {
		return err
	}
	c.Events = append(c.Events, EventDecl{Name: name.Text, Params: params})
	return nil
}

func (p *Parser) parseModifierDecl(c *CoinDecl) error {
	p.advance() // modifier
	name, err := p.expect(TokIdent, "modifier name")
	if err != nil {
		return err
	}
	if _, err := p.expect(TokLParen, "'('"); err != nil {
		return err
	}
	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return err
	}
	body, err := p.parseBlock()
	if err != nil {
		return err
	}
	c.Modifiers = append(c.Modifiers, ModifierDecl{Name: name.Text, Body: body})
	return nil
}

func (p *Parser) parseLayerDirective(c *CoinDecl) error {
	p.advance() // layer
	name, err := p.expect(TokIdent, "layer name")
	if err != nil {
		return err
	}
	var args []Expr
	if p.at(TokLParen) {
		p.advance()
		for !p.at(TokRParen) {
			a, err := p.parseExpr()
			if err != nil {
				return err
			}
			args = append(args, a)
			if p.at(TokComma) {
				p.advance()
			}
		}
		p.advance() // )
	}
	if _, err := p.expect(TokSemicolon, "';'"); err != nil {
		return err
	}
	c.Layers = append(c.Layers, LayerDirective{Name: name.Text, Args: args})
	return nil
}

func (p *Parser) parseDecoratedAction(c *CoinDecl) error {
	var decorators []string
	for p.at(TokDecorator) {
		decorators = append(decorators, p.advance().Text)
	}
	if !p.at(TokAction) {
		return &ParseError{Msg: fmt.Sprintf("expected 'action' after decorator, found %q", p.cur().Text), Line: p.cur().Line}
	}
	return p.parseAction(c, decorators)
}

func (p *Parser) parseAction(c *CoinDecl, decorators []string) error {
	p.advance() // action
	name, err := p.expect(TokIdent, "action name")
	if err != nil {
		return err
	}
	params, err := p.parseParamList()
	if err != nil {
		return err
	}
	body, err := p.parseBlock()
	if err != nil {
		return err
	}
	c.Actions = append(c.Actions, ActionDecl{Name: name.Text, Params: params, Decorators: decorators, Body: body})
	return nil
}

func (p *Parser) parseParamList() ([]Param, error) {
	if _, err := p.expect(TokLParen, "'('"); err != nil {
		return nil, err
	}
	var params []Param
	for !p.at(TokRParen) {
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		name, err := p.expect(TokIdent, "parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Name: name.Text, Type: typ})
		if p.at(TokComma) {
			p.advance()
		}
	}
	p.advance() // )
	return params, nil
}

func (p *Parser) parseBlock() ([]Stmt, error) {
	if _, err := p.expect(TokLBrace, "'{'"); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for !p.at(TokRBrace) {
		if p.at(TokEOF) {
			return nil, &ParseError{Msg: "unterminated block, missing '}'", Line: p.cur().Line}
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	p.advance() // }
	return stmts, nil
}

func (p *Parser) parseStmt() (Stmt, error) {
	switch p.cur().Kind {
	case TokRequire:
		return p.parseRequireStmt()
	case TokRevert:
		return p.parseRevertStmt()
	case TokIf:
		return p.parseIfStmt()
	case TokReturn:
		return p.parseReturnStmt()
	case TokEmit:
		return p.parseEmitStmt()
	case TokTypeAddress, TokTypeUint256, TokTypeBool, TokTypeString, TokTypeBytes32:
		return p.parseVarDecl()
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *Parser) parseRequireStmt() (Stmt, error) {
	p.advance() // require
	if _, err := p.expect(TokLParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	msg := ""
	if p.at(TokComma) {
		p.advance()
		m, err := p.expect(TokString, "message string")
		if err != nil {
			return nil, err
		}
		msg = m.Text
	}
	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokSemicolon, "';'"); err != nil {
		return nil, err
	}
	return &RequireStmt{Cond: cond, Message: msg}, nil
}

func (p *Parser) parseRevertStmt() (Stmt, error) {
	p.advance() // revert
	msg := ""
	if p.at(TokLParen) {
		p.advance()
		if p.at(TokString) {
			msg = p.advance().Text
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokSemicolon, "';'"); err != nil {
		return nil, err
	}
	return &RevertStmt{Message: msg}, nil
}

func (p *Parser) parseIfStmt() (Stmt, error) {
	p.advance() // if
	if _, err := p.expect(TokLParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var els []Stmt
	if p.at(TokElse) {
		p.advance()
		if p.at(TokIf) {
			nested, err := p.parseIfStmt()
			if err != nil {
				return nil, err
			}
			els = []Stmt{nested}
		} else {
			els, err = p.parseBlock()
			if err != nil {
				return nil, err
			}
		}
	}
	return &IfStmt{Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseReturnStmt() (Stmt, error) {
	p.advance() // return
	var v Expr
	if !p.at(TokSemicolon) {
		var err error
		v, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokSemicolon, "';'"); err != nil {
		return nil, err
	}
	return &ReturnStmt{Value: v}, nil
}

func (p *Parser) parseEmitStmt() (Stmt, error) {
	p.advance() // emit
	name, err := p.expect(TokIdent, "event name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLParen, "'('"); err != nil {
		return nil, err
	}
	var args []Expr
	for !p.at(TokRParen) {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.at(TokComma) {
			p.advance()
		}
	}
	p.advance() // )
	if _, err := p.expect(TokSemicolon, "';'"); err != nil {
		return nil, err
	}
	return &EmitStmt{Event: name.Text, Args: args}, nil
}

func (p *Parser) parseVarDecl() (Stmt, error) {
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(TokIdent, "variable name")
	if err != nil {
		return nil, err
	}
	var init Expr
	if p.at(TokAssign) {
		p.advance()
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokSemicolon, "';'"); err != nil {
		return nil, err
	}
	return &VarDecl{Name: name.Text, Type: typ, Init: init}, nil
}

func (p *Parser) parseExprOrAssignStmt() (Stmt, error) {
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	switch p.cur().Kind {
	case TokAssign, TokPlusAssign, TokMinusAssign:
		op := p.advance().Text
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokSemicolon, "';'"); err != nil {
			return nil, err
		}
		return &Assign{Target: x, Op: op, Value: v}, nil
	default:
		if _, err := p.expect(TokSemicolon, "';'"); err != nil {
			return nil, err
		}
		return &ExprStmt{X: x}, nil
	}
}

// Expression parsing: precedence climbing, lowest to highest.
//
//	|| && == != < <= > >= + - * / unary primary

func (p *Parser) parseExpr() (Expr, error) { return p.parseTernary() }

func (p *Parser) parseTernary() (Expr, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.at(TokQuestion) {
		p.advance()
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon, "':'"); err != nil {
			return nil, err
		}
		els, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &TernaryExpr{Cond: cond, Then: then, Else: els}, nil
	}
	return cond, nil
}

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(TokOrOr) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.at(TokAndAnd) {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEquality() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.at(TokEq) || p.at(TokNeq) {
		op := p.advance().Text
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.at(TokLt) || p.at(TokLte) || p.at(TokGt) || p.at(TokGte) {
		op := p.advance().Text
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(TokPlus) || p.at(TokMinus) {
		op := p.advance().Text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(TokStar) || p.at(TokSlash) {
		op := p.advance().Text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.at(TokNot) || p.at(TokMinus) {
		op := p.advance().Text
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, X: x}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case TokDot:
			p.advance()
			name, err := p.expect(TokIdent, "member name")
			if err != nil {
				return nil, err
			}
			x = &MemberExpr{X: x, Field: name.Text}
		case TokLBracket:
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokRBracket, "']'"); err != nil {
				return nil, err
			}
			x = &IndexExpr{X: x, Index: idx}
		default:
			return x, nil
		}
	}
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case TokInt:
		p.advance()
		return &IntLit{Value: tok.Text}, nil
	case TokString:
		p.advance()
		return &StringLit{Value: tok.Text}, nil
	case TokTrue:
		p.advance()
		return &BoolLit{Value: true}, nil
	case TokFalse:
		p.advance()
		return &BoolLit{Value: false}, nil
	case TokHex:
		p.advance()
		return &HexLit{Value: tok.Text}, nil
	case TokAddress:
		p.advance()
		return &AddressLit{Value: tok.Text}, nil
	case TokLParen:
		p.advance()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return nil, err
		}
		return x, nil
	case TokTypeAddress, TokTypeUint256, TokTypeBool, TokTypeString, TokTypeBytes32:
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokLParen, "'('"); err != nil {
			return nil, err
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return nil, err
		}
		return &CastExpr{Type: typ, X: x}, nil
	case TokState:
		p.advance()
		return &Ident{Name: tok.Text}, nil
	case TokIdent:
		p.advance()
		if p.at(TokLParen) {
			p.advance()
			var args []Expr
			for !p.at(TokRParen) {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.at(TokComma) {
					p.advance()
				}
			}
			p.advance() // )
			return &CallExpr{Callee: tok.Text, Args: args}, nil
		}
		return &Ident{Name: tok.Text}, nil
	default:
		return nil, &ParseError{Msg: fmt.Sprintf("unexpected token %q in expression", tok.Text), Line: tok.Line}
	}
}
