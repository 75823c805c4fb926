// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – CoinScript Front-End ▸ Tokens
// ----------------------------------------------------
//
//   - Token kinds for the `.coins` surface language (§4.8/§3.4). Mirrors the
//     teacher's opcode-as-constant-table habit (core/opcodes.go in this
//     module, itself grounded on the teacher's own const-block conventions)
//     rather than reaching for a parser-generator dependency absent from the
//     pack.
package coinscript

import "fmt"

// TokenKind discriminates lexical token categories.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokInt
	TokString
	TokHex
	TokAddress
	TokBool
	TokDecorator // @stateful, @onlyOwner, @singleton, @cat, ...

	// Keywords.
	TokCoin
	TokPuzzle
	TokStorage
	TokState
	TokAction
	TokConst
	TokEvent
	TokModifier
	TokLayer
	TokInner
	TokUse
	TokCompose
	TokIf
	TokElse
	TokReturn
	TokRequire
	TokRevert
	TokEmit
	TokInclude
	TokTrue
	TokFalse

	// Type keywords.
	TokTypeAddress
	TokTypeUint256
	TokTypeBool
	TokTypeString
	TokTypeBytes32
	TokTypeIPuzzle

	// Punctuation / operators.
	TokLBrace
	TokRBrace
	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokSemicolon
	TokComma
	TokDot
	TokColon
	TokQuestion

	TokAssign
	TokPlusAssign
	TokMinusAssign
	TokEq
	TokNeq
	TokLt
	TokLte
	TokGt
	TokGte
	TokPlus
	TokMinus
	TokStar
	TokSlash
	TokAndAnd
	TokOrOr
	TokNot
)

var keywords = map[string]TokenKind{
	"coin":     TokCoin,
	"puzzle":   TokPuzzle,
	"storage":  TokStorage,
	"state":    TokState,
	"action":   TokAction,
	"const":    TokConst,
	"event":    TokEvent,
	"modifier": TokModifier,
	"layer":    TokLayer,
	"inner":    TokInner,
	"use":      TokUse,
	"compose":  TokCompose,
	"if":       TokIf,
	"else":     TokElse,
	"return":   TokReturn,
	"require":  TokRequire,
	"revert":   TokRevert,
	"emit":     TokEmit,
	"include":  TokInclude,
	"true":     TokTrue,
	"false":    TokFalse,

	"address": TokTypeAddress,
	"uint256": TokTypeUint256,
	"bool":    TokTypeBool,
	"string":  TokTypeString,
	"bytes32": TokTypeBytes32,
	"IPuzzle": TokTypeIPuzzle,
}

// Token is a single lexed unit with its source position.
type Token struct {
	Kind   TokenKind
	Text   string
	Offset int
	Line   int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", tokenKindName(t.Kind), t.Text, t.Offset)
}

func tokenKindName(k TokenKind) string {
	switch k {
	case TokEOF:
		return "EOF"
	case TokIdent:
		return "IDENT"
	case TokInt:
		return "INT"
	case TokString:
		return "STRING"
	case TokHex:
		return "HEX"
	case TokAddress:
		return "ADDRESS"
	case TokBool:
		return "BOOL"
	case TokDecorator:
		return "DECORATOR"
	default:
		return "TOKEN"
	}
}
