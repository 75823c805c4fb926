package coinscript

import "testing"

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	toks, err := NewLexer(src).Lex()
	if err != nil {
		t.Fatalf("Lex(%q) error: %v", src, err)
	}
	return toks
}

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func assertKinds(t *testing.T, got []TokenKind, want ...TokenKind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got kind %d, want %d", i, got[i], want[i])
		}
	}
}

func TestLexKeywordsAndIdentifiers(t *testing.T) {
	toks := lexAll(t, "coin action state myVar")
	assertKinds(t, kinds(toks), TokCoin, TokAction, TokState, TokIdent, TokEOF)
}

func TestLexDecorator(t *testing.T) {
	toks := lexAll(t, "@stateful")
	assertKinds(t, kinds(toks), TokDecorator, TokEOF)
	if toks[0].Text != "@stateful" {
		t.Fatalf("expected decorator text \"@stateful\", got %q", toks[0].Text)
	}
}

func TestLexDecoratorWithoutIdentifierErrors(t *testing.T) {
	if _, err := NewLexer("@ ").Lex(); err == nil {
		t.Fatalf("expected an error for a bare '@' with no following identifier")
	}
}

func TestLexStringWithEscapes(t *testing.T) {
	toks := lexAll(t, `"line\nend\t\"quoted\""`)
	assertKinds(t, kinds(toks), TokString, TokEOF)
	want := "line\nend\t\"quoted\""
	if toks[0].Text != want {
		t.Fatalf("got %q, want %q", toks[0].Text, want)
	}
}

func TestLexUnterminatedStringErrors(t *testing.T) {
	if _, err := NewLexer(`"no closing quote`).Lex(); err == nil {
		t.Fatalf("expected an error for an unterminated string literal")
	}
}

func TestLexInvalidEscapeErrors(t *testing.T) {
	if _, err := NewLexer(`"bad \q escape"`).Lex(); err == nil {
		t.Fatalf("expected an error for an invalid escape sequence")
	}
}

func TestLexHexLiteral(t *testing.T) {
	toks := lexAll(t, "0xdeadBEEF")
	assertKinds(t, kinds(toks), TokHex, TokEOF)
	if toks[0].Text != "0xdeadBEEF" {
		t.Fatalf("got %q", toks[0].Text)
	}
}

func TestLexBech32Address(t *testing.T) {
	toks := lexAll(t, "xch1xf23pd3ludh8chksgaxcs6dkhcwpfm0gv64h02q9rmy6mwwp8w7qtsp7ph")
	assertKinds(t, kinds(toks), TokAddress, TokEOF)
}

func TestLexTestnetAddressPrefix(t *testing.T) {
	toks := lexAll(t, "txch1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq")
	assertKinds(t, kinds(toks), TokAddress, TokEOF)
}

func TestLexIntegerLiteral(t *testing.T) {
	toks := lexAll(t, "42")
	assertKinds(t, kinds(toks), TokInt, TokEOF)
	if toks[0].Text != "42" {
		t.Fatalf("got %q", toks[0].Text)
	}
}

func TestLexOperators(t *testing.T) {
	toks := lexAll(t, "== != <= >= && || += -= = < > + - * /")
	assertKinds(t, kinds(toks),
		TokEq, TokNeq, TokLte, TokGte, TokAndAnd, TokOrOr, TokPlusAssign, TokMinusAssign,
		TokAssign, TokLt, TokGt, TokPlus, TokMinus, TokStar, TokSlash, TokEOF)
}

func TestLexPunctuation(t *testing.T) {
	toks := lexAll(t, "{ } ( ) [ ] ; , . : ? !")
	assertKinds(t, kinds(toks),
		TokLBrace, TokRBrace, TokLParen, TokRParen, TokLBracket, TokRBracket,
		TokSemicolon, TokComma, TokDot, TokColon, TokQuestion, TokNot, TokEOF)
}

func TestLexUnexpectedCharacterErrors(t *testing.T) {
	if _, err := NewLexer("#").Lex(); err == nil {
		t.Fatalf("expected an error for an unrecognized character")
	}
}

func TestLexLineCommentSkipped(t *testing.T) {
	toks := lexAll(t, "coin // a trailing comment\naction")
	assertKinds(t, kinds(toks), TokCoin, TokAction, TokEOF)
}

func TestLexBlockCommentSkipped(t *testing.T) {
	toks := lexAll(t, "coin /* spans\nmultiple\nlines */ action")
	assertKinds(t, kinds(toks), TokCoin, TokAction, TokEOF)
	if toks[1].Line != 3 {
		t.Fatalf("expected the line counter to advance across the block comment, got line %d", toks[1].Line)
	}
}

func TestLexUnterminatedBlockCommentConsumesToEOF(t *testing.T) {
	toks := lexAll(t, "coin /* never closed")
	assertKinds(t, kinds(toks), TokCoin, TokEOF)
}

func TestLexTypeKeywords(t *testing.T) {
	toks := lexAll(t, "address uint256 bool string bytes32 IPuzzle")
	assertKinds(t, kinds(toks),
		TokTypeAddress, TokTypeUint256, TokTypeBool, TokTypeString, TokTypeBytes32, TokTypeIPuzzle, TokEOF)
}

func TestLexBooleanLiteralsAsKeywords(t *testing.T) {
	toks := lexAll(t, "true false")
	assertKinds(t, kinds(toks), TokTrue, TokFalse, TokEOF)
}

func TestLexRequireRevertEmitInclude(t *testing.T) {
	toks := lexAll(t, "require revert emit include")
	assertKinds(t, kinds(toks), TokRequire, TokRevert, TokEmit, TokInclude, TokEOF)
}

func TestTokenStringIncludesKindAndText(t *testing.T) {
	tok := Token{Kind: TokIdent, Text: "foo", Offset: 3}
	if got := tok.String(); got != `IDENT("foo")@3` {
		t.Fatalf("got %q", got)
	}
}
