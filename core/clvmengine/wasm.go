// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – CLVM Engine ▸ WASM-hosted backend
// --------------------------------------------------------------
//
//   - WasmHost is an *optional* alternate core.Engine that shells a
//     WASM-compiled CLVM evaluator via wasmer-go, the same way the teacher's
//     HeavyVM (core/virtual_machine.go) hosts compiled contract bytecode:
//     a wasmer.Engine/Store/Module/Instance per run, exchanging data through
//     the module's linear memory (no host imports are provided). It exists
//     to give a concrete,
//     swappable home to a real CLVM implementation compiled to WASM; the
//     default backend used by tests, simulate(), and the CLI is the pure-Go
//     Reference engine (§6.3 only requires *an* Engine to exist).
package clvmengine

import (
	"encoding/binary"
	"fmt"

	"github.com/wasmerio/wasmer-go/wasmer"

	"coinscript/core"
)

// WasmHost runs a WASM module exposing the entry points this engine calls:
// "clvm_compile" and "clvm_run" (plus an "alloc" function and a "memory"
// export). Each takes byte buffers in the module's linear memory and
// returns an offset to a length-prefixed result. Currying is done host-side
// with core.CurryByPosition rather than by the module.
type WasmHost struct {
	engine *wasmer.Engine
	module *wasmer.Module
}

// NewWasmHost compiles wasmBytes (a CLVM evaluator built to WASM) once and
// returns a host that can spawn fresh instances per Compile/Run call, the
// way NewHeavyVM holds a shared wasmer.Engine across invocations.
func NewWasmHost(wasmBytes []byte) (*WasmHost, error) {
	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)
	module, err := wasmer.NewModule(store, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compiling CLVM wasm module: %w", err)
	}
	return &WasmHost{engine: engine, module: module}, nil
}

type wasmProgram struct {
	ir    *core.TreeNode
	bytes []byte
}

func (p *wasmProgram) SerializeHex() string { return fmt.Sprintf("%x", p.bytes) }
func (p *wasmProgram) TreeHash() [32]byte   { return core.TreeHash(p.ir) }
func (p *wasmProgram) IR() *core.TreeNode   { return p.ir }

func (p *wasmProgram) Curry(args ...*core.TreeNode) (core.Program, error) {
	curried := core.CurryByPosition(p.ir, args...)
	return &wasmProgram{ir: curried}, nil
}

func (h *WasmHost) newInstance() (*wasmer.Instance, error) {
	store := wasmer.NewStore(h.engine)
	importObject := wasmer.NewImportObject()
	instance, err := wasmer.NewInstance(h.module, importObject)
	if err != nil {
		return nil, fmt.Errorf("instantiating CLVM wasm module: %w", err)
	}
	_ = store
	return instance, nil
}

// writeBuffer copies data into the instance's exported linear memory at the
// offset returned by its "alloc" export, returning (offset, length).
func writeBuffer(instance *wasmer.Instance, data []byte) (int32, int32, error) {
	alloc, err := instance.Exports.GetFunction("alloc")
	if err != nil {
		return 0, 0, fmt.Errorf("wasm module missing alloc export: %w", err)
	}
	mem, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return 0, 0, fmt.Errorf("wasm module missing memory export: %w", err)
	}
	res, err := alloc(len(data))
	if err != nil {
		return 0, 0, err
	}
	offset := res.(int32)
	copy(mem.Data()[offset:], data)
	return offset, int32(len(data)), nil
}

// Compile serializes source's ChiaLisp text and hands it to the module's
// "clvm_compile" export, expecting back a length-prefixed compiled program.
func (h *WasmHost) Compile(source string) (core.Program, error) {
	ir, err := core.Parse(source)
	if err != nil {
		return nil, err
	}
	instance, err := h.newInstance()
	if err != nil {
		return nil, core.CompileErrorf(err, "instantiating wasm CLVM module")
	}
	compileFn, err := instance.Exports.GetFunction("clvm_compile")
	if err != nil {
		return nil, core.CompileErrorf(err, "wasm module missing clvm_compile export")
	}
	offset, length, err := writeBuffer(instance, []byte(source))
	if err != nil {
		return nil, core.CompileErrorf(err, "writing source into wasm memory")
	}
	res, err := compileFn(offset, length)
	if err != nil {
		return nil, core.CompileErrorf(err, "clvm_compile failed")
	}
	outOffset := res.(int32)
	mem, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return nil, core.CompileErrorf(err, "wasm module missing memory export")
	}
	outLen := binary.LittleEndian.Uint32(mem.Data()[outOffset : outOffset+4])
	compiled := append([]byte{}, mem.Data()[outOffset+4:outOffset+4+int32(outLen)]...)
	return &wasmProgram{ir: ir, bytes: compiled}, nil
}

// DeserializeHex is unsupported for the WASM backend: the module's own
// "clvm_compile" export is the only code path that produces a wasmProgram,
// since a bare hex blob carries no IR for TreeHash/Curry to operate on.
func (h *WasmHost) DeserializeHex(hex string) (core.Program, error) {
	return nil, core.CompileErrorf(nil, "WasmHost does not support deserializing bare hex; recompile from source")
}

// Run hands program's compiled bytes and solution to the module's
// "clvm_run" export.
func (h *WasmHost) Run(program core.Program, solution *core.TreeNode) (*core.RunResult, error) {
	p, ok := program.(*wasmProgram)
	if !ok {
		return nil, core.SimulationErrorf(nil, "program not produced by WasmHost")
	}
	instance, err := h.newInstance()
	if err != nil {
		return nil, core.SimulationErrorf(err, "instantiating wasm CLVM module")
	}
	runFn, err := instance.Exports.GetFunction("clvm_run")
	if err != nil {
		return nil, core.SimulationErrorf(err, "wasm module missing clvm_run export")
	}
	solText, err := core.Serialize(solution)
	if err != nil {
		return nil, core.SimulationErrorf(err, "serializing solution")
	}
	progOff, progLen, err := writeBuffer(instance, p.bytes)
	if err != nil {
		return nil, core.SimulationErrorf(err, "writing program into wasm memory")
	}
	solOff, solLen, err := writeBuffer(instance, []byte(solText))
	if err != nil {
		return nil, core.SimulationErrorf(err, "writing solution into wasm memory")
	}
	res, err := runFn(progOff, progLen, solOff, solLen)
	if err != nil {
		return nil, core.SimulationErrorf(err, "clvm_run failed")
	}
	outOffset := res.(int32)
	mem, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return nil, core.SimulationErrorf(err, "wasm module missing memory export")
	}
	outLen := binary.LittleEndian.Uint32(mem.Data()[outOffset : outOffset+4])
	costBytes := mem.Data()[outOffset+4 : outOffset+12]
	resultBytes := append([]byte{}, mem.Data()[outOffset+12:outOffset+12+int32(outLen)]...)
	resultIR, err := core.Parse(string(resultBytes))
	if err != nil {
		return nil, core.SimulationErrorf(err, "parsing wasm result")
	}
	return &core.RunResult{Result: resultIR, Cost: binary.LittleEndian.Uint64(costBytes)}, nil
}
