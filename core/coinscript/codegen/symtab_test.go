package codegen

import (
	"testing"

	"coinscript/core"
	"coinscript/core/coinscript"
)

func TestNewEnvSeedsStorageAndState(t *testing.T) {
	coin := &coinscript.CoinDecl{
		Storage: []coinscript.StorageField{{Name: "owner", Type: coinscript.TypeAddress}},
		State:   []coinscript.StateField{{Name: "count", Type: coinscript.TypeUint256}},
	}
	en := newEnv(coin)
	owner, ok := en.lookup("owner")
	if !ok || owner.kind != symStorage {
		t.Fatalf("expected owner to be a storage symbol, got %+v", owner)
	}
	count, ok := en.lookup("count")
	if !ok || count.kind != symState {
		t.Fatalf("expected count to be a state symbol, got %+v", count)
	}
}

func TestEnvLookupResolvesBuiltinNamespaces(t *testing.T) {
	en := newEnv(&coinscript.CoinDecl{})
	for _, name := range []string{"msg", "block"} {
		ent, ok := en.lookup(name)
		if !ok || ent.kind != symBuiltin {
			t.Fatalf("expected %q to resolve as a builtin namespace", name)
		}
	}
}

func TestEnvLookupUnknownIdentifierFails(t *testing.T) {
	en := newEnv(&coinscript.CoinDecl{})
	if _, ok := en.lookup("nonexistent"); ok {
		t.Fatalf("expected lookup of an undeclared identifier to fail")
	}
}

func TestEnvBindLocalOverridesWithInlineNode(t *testing.T) {
	en := newEnv(&coinscript.CoinDecl{})
	node := core.Int(42)
	en.bindLocal("x", node)
	ent, ok := en.lookup("x")
	if !ok || ent.kind != symConst {
		t.Fatalf("expected x to become a symConst entry after bindLocal, got %+v", ent)
	}
	if ent.inlineNode != node {
		t.Fatalf("expected the bound node to be stored verbatim")
	}
}

func TestEnvBindParamsAssignsParamKind(t *testing.T) {
	en := newEnv(&coinscript.CoinDecl{})
	en.bindParams([]coinscript.Param{{Name: "amount", Type: coinscript.TypeUint256}})
	ent, ok := en.lookup("amount")
	if !ok || ent.kind != symParam || ent.chialispName != "amount" {
		t.Fatalf("expected amount to be a param symbol named \"amount\", got %+v", ent)
	}
}
