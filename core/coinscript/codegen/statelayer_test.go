package codegen

import (
	"testing"

	"coinscript/core"
	"coinscript/core/coinscript"
)

func TestModHashOfTemplateIsDeterministic(t *testing.T) {
	body := core.List(core.Symbol("q"), core.Int(1))
	a := modHashOfTemplate(body)
	b := modHashOfTemplate(body)
	if a != b {
		t.Fatalf("expected modHashOfTemplate to be deterministic")
	}
}

func TestSelfPuzzleHashCallNodeNamesEachStorageField(t *testing.T) {
	node := selfPuzzleHashCallNode([]string{"owner", "limit"})
	items, _ := node.AsList()
	if len(items) != 4 {
		t.Fatalf("expected curry_and_treehash, MOD_HASH, and one sha256tree call per storage field, got %+v", node)
	}
	if items[0].Sym != "curry_and_treehash" || items[1].Sym != modHashParamName {
		t.Fatalf("expected (curry_and_treehash MOD_HASH ...), got %+v", node)
	}
}

func TestNewStateRecordNodePreservesUnwrittenFieldsAndOrder(t *testing.T) {
	coin := &coinscript.CoinDecl{
		State: []coinscript.StateField{
			{Name: "count", Type: coinscript.TypeUint256},
			{Name: "active", Type: coinscript.TypeBool},
		},
	}
	en := newEnv(coin)
	pb := core.NewPuzzleBuilder()
	ctx := newActionCtx(pb, en, true)
	ctx.recordWrite("count", pb.Expr(core.Int(5)))

	record := newStateRecordNode(ctx)
	items, _ := record.AsList()
	if len(items) != 2 {
		t.Fatalf("expected a 2-field state record, got %+v", record)
	}
	if items[0].AsBigInt().Int64() != 5 {
		t.Fatalf("expected the written count field to be 5, got %+v", items[0])
	}
	// The untouched "active" field falls back to the current_state accessor,
	// i.e. a symbolic (f (r current_state)) expression, not a literal.
	if items[1].Kind != core.KindList && items[1].Kind != core.KindCons {
		t.Fatalf("expected the unwritten field to fall back to a state accessor expression, got %+v", items[1])
	}
}

func TestFinalizeStateLayerMarksFeaturesAndEmitsCreateCoin(t *testing.T) {
	coin := &coinscript.CoinDecl{
		State: []coinscript.StateField{{Name: "count", Type: coinscript.TypeUint256}},
	}
	en := newEnv(coin)
	pb := core.NewPuzzleBuilder()
	pb.WithSolutionParams("current_state", "action_name", "action_params", "msg_sender", "my_amount", "block_height")
	ctx := newActionCtx(pb, en, true)
	ctx.recordWrite("count", pb.Expr(core.Int(6)))

	finalizeStateLayer(ctx, nil)

	if !pb.FeaturesUsed()["_curry_treehash"] || !pb.FeaturesUsed()["sha256tree"] {
		t.Fatalf("expected finalizeStateLayer to mark _curry_treehash and sha256tree features")
	}
	if !pb.FeaturesUsed()["CREATE_COIN"] {
		t.Fatalf("expected finalizeStateLayer to emit a CREATE_COIN condition")
	}
}
