// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – Core ▸ Opcode Catalogue
// ----------------------------------------------
//
//   - Every condition opcode (§6.2) and every primitive CLVM opcode recognised
//     by the serializer/parser is listed exactly once below. Collisions
//     (two names mapping to the same integer, or vice-versa) are checked by
//     ValidateOpcodeCatalogue, which opcodes_test.go runs — mirroring the
//     opcode-uniqueness invariant the chain itself enforces on condition
//     codes. `cmd/includelint` does not call it.
package core

import "math/big"

// ConditionOpcode names a condition's numeric opcode (§6.2).
type ConditionOpcode int

const (
	OpRemark                  ConditionOpcode = 1
	OpAggSigUnsafe            ConditionOpcode = 49
	OpAggSigMe                ConditionOpcode = 50
	OpCreateCoin              ConditionOpcode = 51
	OpReserveFee              ConditionOpcode = 52
	OpCreateCoinAnnouncement  ConditionOpcode = 60
	OpAssertCoinAnnouncement  ConditionOpcode = 61
	OpCreatePuzzleAnnouncement ConditionOpcode = 62
	OpAssertPuzzleAnnouncement ConditionOpcode = 63
	OpAssertMyCoinID          ConditionOpcode = 70
	OpAssertMyParentID        ConditionOpcode = 71
	OpAssertMyPuzzlehash      ConditionOpcode = 72
	OpAssertMyAmount          ConditionOpcode = 73
	OpAssertSecondsRelative   ConditionOpcode = 80
	OpAssertSecondsAbsolute   ConditionOpcode = 81
	OpAssertHeightRelative    ConditionOpcode = 82
	OpAssertHeightAbsolute    ConditionOpcode = 83
)

var conditionNames = map[ConditionOpcode]string{
	OpRemark:                   "REMARK",
	OpAggSigUnsafe:             "AGG_SIG_UNSAFE",
	OpAggSigMe:                 "AGG_SIG_ME",
	OpCreateCoin:               "CREATE_COIN",
	OpReserveFee:               "RESERVE_FEE",
	OpCreateCoinAnnouncement:   "CREATE_COIN_ANNOUNCEMENT",
	OpAssertCoinAnnouncement:   "ASSERT_COIN_ANNOUNCEMENT",
	OpCreatePuzzleAnnouncement: "CREATE_PUZZLE_ANNOUNCEMENT",
	OpAssertPuzzleAnnouncement: "ASSERT_PUZZLE_ANNOUNCEMENT",
	OpAssertMyCoinID:           "ASSERT_MY_COIN_ID",
	OpAssertMyParentID:         "ASSERT_MY_PARENT_ID",
	OpAssertMyPuzzlehash:       "ASSERT_MY_PUZZLEHASH",
	OpAssertMyAmount:           "ASSERT_MY_AMOUNT",
	OpAssertSecondsRelative:    "ASSERT_SECONDS_RELATIVE",
	OpAssertSecondsAbsolute:    "ASSERT_SECONDS_ABSOLUTE",
	OpAssertHeightRelative:     "ASSERT_HEIGHT_RELATIVE",
	OpAssertHeightAbsolute:     "ASSERT_HEIGHT_ABSOLUTE",
}

var conditionByName = func() map[string]ConditionOpcode {
	m := make(map[string]ConditionOpcode, len(conditionNames))
	for op, name := range conditionNames {
		m[name] = op
	}
	return m
}()

func conditionNameByOpcode(v *big.Int) (string, bool) {
	if v == nil || !v.IsInt64() {
		return "", false
	}
	name, ok := conditionNames[ConditionOpcode(v.Int64())]
	return name, ok
}

// ConditionOpcodeByName looks up a condition's integer opcode by its symbolic
// name (e.g. "CREATE_COIN" -> 51).
func ConditionOpcodeByName(name string) (ConditionOpcode, bool) {
	op, ok := conditionByName[name]
	return op, ok
}

// primitiveOpcodes is the closed table of primitive CLVM opcodes (§6.2),
// accepted in both numeric and symbolic form.
var primitiveOpcodes = map[string]int64{
	"q":              1,
	"a":              2,
	"i":              3,
	"c":              4,
	"f":              5,
	"r":              6,
	"l":              7,
	"x":              8,
	"=":              9,
	">s":             10,
	"sha256":         11,
	"substr":         12,
	"strlen":         13,
	"concat":         14,
	"+":              16,
	"-":              17,
	"*":              18,
	"/":              19,
	"divmod":         20,
	">":              21,
	"ash":            22,
	"lsh":            23,
	"logand":         24,
	"logior":         25,
	"logxor":         26,
	"lognot":         27,
	"point_add":      28,
	"pubkey_for_exp": 29,
	"not":            30,
	"any":            31,
	"all":            32,
	"softfork":       33,
}

var primitiveNameByOp = func() map[int64]string {
	m := make(map[int64]string, len(primitiveOpcodes))
	for name, op := range primitiveOpcodes {
		m[op] = name
	}
	return m
}()

func primitiveSymbolByOpcode(v *big.Int) (string, bool) {
	if v == nil || !v.IsInt64() {
		return "", false
	}
	name, ok := primitiveNameByOp[v.Int64()]
	return name, ok
}

func primitiveOpcodeBySymbol(upper string) (int64, bool) {
	// Callers pass an upper-cased lookup key; primitiveOpcodes itself is
	// keyed by the lowercase ChiaLisp keyword.
	for name, op := range primitiveOpcodes {
		if toUpperASCII(name) == upper {
			return op, true
		}
	}
	return 0, false
}

func toUpperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// OpcodeCollision describes a name/value clash found by ValidateOpcodeCatalogue.
type OpcodeCollision struct {
	Description string
}

// ValidateOpcodeCatalogue checks that every condition opcode and every
// primitive opcode is unique both by name and by integer value. It is the
// compile-time analogue of spec property 5 (minimality/uniqueness).
func ValidateOpcodeCatalogue() []OpcodeCollision {
	var issues []OpcodeCollision

	seenOp := make(map[ConditionOpcode]string)
	seenCondName := make(map[string]bool)
	for op, name := range conditionNames {
		if prev, ok := seenOp[op]; ok {
			issues = append(issues, OpcodeCollision{Description: "duplicate condition opcode " + prev + "/" + name})
		}
		seenOp[op] = name
		if seenCondName[name] {
			issues = append(issues, OpcodeCollision{Description: "duplicate condition name " + name})
		}
		seenCondName[name] = true
	}

	seenPrimOp := make(map[int64]string)
	for name, op := range primitiveOpcodes {
		if prev, ok := seenPrimOp[op]; ok {
			issues = append(issues, OpcodeCollision{Description: "duplicate primitive opcode " + prev + "/" + name})
		}
		seenPrimOp[op] = name
	}

	return issues
}
