package core

// Program is an opaque compiled CLVM program handle. Its concrete
// representation is owned by whichever Engine produced it; callers must not
// assume anything about its internal layout beyond the Engine methods
// exposed here.
type Program interface {
	// SerializeHex returns the program's wire-format bytes, hex-encoded,
	// without a leading "0x".
	SerializeHex() string
	// TreeHash returns the program's on-chain puzzle hash.
	TreeHash() [32]byte
	// Curry applies the classic positional curry wrapper and returns a new
	// Program handle (§4.4.1).
	Curry(args ...*TreeNode) (Program, error)
	// IR recovers the TreeNode this program was compiled from, when known.
	IR() *TreeNode
}

// RunResult is what Engine.Run returns on success.
type RunResult struct {
	Result *TreeNode
	Cost   uint64
}

// Engine is the narrow capability boundary to an external CLVM-capable VM
// (§4.3, §6.3). The core never reimplements CLVM evaluation for production
// use; it only requires an Engine to exist. clvmengine.Reference is the
// default, pure-Go implementation used by tests and the CLI.
type Engine interface {
	// Compile turns ChiaLisp source text (after include expansion) into a
	// compiled Program, or a CompileError.
	Compile(source string) (Program, error)
	// DeserializeHex parses a program's wire-format hex back into a Program.
	DeserializeHex(hex string) (Program, error)
	// Run executes program against solution and returns the resulting value
	// plus its cost, or a SimulationError.
	Run(program Program, solution *TreeNode) (*RunResult, error)
}
