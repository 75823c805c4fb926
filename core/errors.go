package core

import "fmt"

// Position marks a location in source text; Line/Col are 1-based, Offset is
// the 0-based byte offset. A zero Position means "no position available".
type Position struct {
	Offset int
	Line   int
	Col    int
}

func (p Position) String() string {
	if p.Line == 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// errKind names one of the distinct error kinds from spec §7. Tests observe
// this, not only the message.
type errKind string

const (
	kindParse      errKind = "ParseError"
	kindSemantic   errKind = "SemanticError"
	kindCodegen    errKind = "CodegenError"
	kindBuilder    errKind = "BuilderError"
	kindSerialize  errKind = "SerializeError"
	kindCompile    errKind = "CompileError"
	kindSimulation errKind = "SimulationError"
)

// CompilerError is the common shape of every error kind the toolchain raises.
type CompilerError struct {
	Kind errKind
	Msg  string
	Pos  Position
	Err  error // wrapped cause, if any
}

func (e *CompilerError) Error() string {
	if pos := e.Pos.String(); pos != "" {
		return fmt.Sprintf("%s at %s: %s", e.Kind, pos, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *CompilerError) Unwrap() error { return e.Err }

func newErr(kind errKind, pos Position, format string, args ...any) *CompilerError {
	return &CompilerError{Kind: kind, Msg: fmt.Sprintf(format, args...), Pos: pos}
}

func wrapErr(kind errKind, pos Position, cause error, format string, args ...any) *CompilerError {
	return &CompilerError{Kind: kind, Msg: fmt.Sprintf(format, args...), Pos: pos, Err: cause}
}

// ParseError reports a ChiaLisp or CoinScript syntax failure.
func ParseError(pos Position, format string, args ...any) *CompilerError {
	return newErr(kindParse, pos, format, args...)
}

// SemanticError reports CoinScript type/scope/decorator misuse.
func SemanticError(pos Position, format string, args ...any) *CompilerError {
	return newErr(kindSemantic, pos, format, args...)
}

// CodegenError reports an unreachable invariant violated during lowering.
func CodegenError(format string, args ...any) *CompilerError {
	return newErr(kindCodegen, Position{}, format, args...)
}

// BuilderError reports misuse of a fluent builder API.
func BuilderError(format string, args ...any) *CompilerError {
	return newErr(kindBuilder, Position{}, format, args...)
}

// SerializeError reports an atom value that cannot be rendered.
func SerializeError(format string, args ...any) *CompilerError {
	return newErr(kindSerialize, Position{}, format, args...)
}

// CompileErrorf reports a CLVM compilation failure from the bridge, wrapping
// the original message from the external engine.
func CompileErrorf(cause error, format string, args ...any) *CompilerError {
	return wrapErr(kindCompile, Position{}, cause, format, args...)
}

// SimulationErrorf reports a runtime failure from simulate()/Engine.Run.
func SimulationErrorf(cause error, format string, args ...any) *CompilerError {
	return wrapErr(kindSimulation, Position{}, cause, format, args...)
}

// Is lets callers use errors.Is(err, core.ErrParse) etc. via sentinel kind
// values compared against CompilerError.Kind.
func (e *CompilerError) Is(target error) bool {
	t, ok := target.(*CompilerError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel zero-value errors usable with errors.Is to test a returned error's
// kind without caring about its message, e.g.:
//
//	if errors.Is(err, core.ErrParse) { ... }
var (
	ErrParse      = &CompilerError{Kind: kindParse}
	ErrSemantic   = &CompilerError{Kind: kindSemantic}
	ErrCodegen    = &CompilerError{Kind: kindCodegen}
	ErrBuilder    = &CompilerError{Kind: kindBuilder}
	ErrSerialize  = &CompilerError{Kind: kindSerialize}
	ErrCompile    = &CompilerError{Kind: kindCompile}
	ErrSimulation = &CompilerError{Kind: kindSimulation}
)
