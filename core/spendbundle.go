// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – Core ▸ Spend Bundle Assembly
// -------------------------------------------------------
//
//   - Implements §6.5's unsigned spend-bundle shape. Signature aggregation
//     is an external capability (§1 Out-of-scope): SignatureAggregator names
//     github.com/herumi/bls-eth-go-binary as its intended production
//     implementation but this package ships only NoopAggregator, a test
//     double that returns an all-zero placeholder signature.
package core

import "encoding/hex"

// Coin identifies a CLVM coin by its parent, puzzle hash, and amount.
type Coin struct {
	ParentCoinInfo [32]byte
	PuzzleHash     [32]byte
	Amount         uint64
}

// CoinSpend pairs a Coin with the puzzle reveal and solution used to spend
// it.
type CoinSpend struct {
	Coin          Coin
	PuzzleReveal  []byte
	SolutionBytes []byte
}

// SpendBundle is the unsigned (or signed, once AggregatedSignature is
// populated) transaction object consumed by a Chia full node.
type SpendBundle struct {
	CoinSpends          []CoinSpend
	AggregatedSignature [96]byte // BLS G2 signature length; zero until signed
}

// SignatureAggregator is the external BLS capability this core delegates to
// (§1 Out-of-scope). A production implementation wraps
// github.com/herumi/bls-eth-go-binary to aggregate per-coin-spend
// signatures into the bundle's single AggregatedSignature. The core ships
// only NoopAggregator.
type SignatureAggregator interface {
	// Aggregate combines signatures for each CoinSpend (produced externally,
	// e.g. by a wallet holding the relevant private keys) into the bundle's
	// single 96-byte aggregated BLS signature.
	Aggregate(spends []CoinSpend) ([96]byte, error)
}

// NoopAggregator is a SignatureAggregator test double that always returns
// the zero signature. Bundles it signs are not valid for broadcast; it
// exists so spend-bundle assembly can be exercised without a real BLS
// dependency.
type NoopAggregator struct{}

// Aggregate implements SignatureAggregator.
func (NoopAggregator) Aggregate(spends []CoinSpend) ([96]byte, error) {
	return [96]byte{}, nil
}

// NewSpendBundle assembles an unsigned spend bundle from coin spends.
func NewSpendBundle(spends []CoinSpend) *SpendBundle {
	return &SpendBundle{CoinSpends: spends}
}

// Sign runs agg over the bundle's coin spends and populates
// AggregatedSignature.
func (sb *SpendBundle) Sign(agg SignatureAggregator) error {
	sig, err := agg.Aggregate(sb.CoinSpends)
	if err != nil {
		return err
	}
	sb.AggregatedSignature = sig
	return nil
}

// spendBundleJSON mirrors §6.5's wire shape for serialization.
type spendBundleJSON struct {
	CoinSpends []coinSpendJSON `json:"coin_spends"`
	AggSig     string          `json:"aggregated_signature"`
}

type coinSpendJSON struct {
	Coin         coinJSON `json:"coin"`
	PuzzleReveal string   `json:"puzzle_reveal"`
	Solution     string   `json:"solution"`
}

type coinJSON struct {
	ParentCoinInfo string `json:"parent_coin_info"`
	PuzzleHash     string `json:"puzzle_hash"`
	Amount         uint64 `json:"amount"`
}

// ToWireShape converts sb into the §6.5 JSON-friendly representation.
func (sb *SpendBundle) ToWireShape() any {
	out := spendBundleJSON{AggSig: "0x" + hex.EncodeToString(sb.AggregatedSignature[:])}
	for _, cs := range sb.CoinSpends {
		out.CoinSpends = append(out.CoinSpends, coinSpendJSON{
			Coin: coinJSON{
				ParentCoinInfo: "0x" + hex.EncodeToString(cs.Coin.ParentCoinInfo[:]),
				PuzzleHash:     "0x" + hex.EncodeToString(cs.Coin.PuzzleHash[:]),
				Amount:         cs.Coin.Amount,
			},
			PuzzleReveal: "0x" + hex.EncodeToString(cs.PuzzleReveal),
			Solution:     "0x" + hex.EncodeToString(cs.SolutionBytes),
		})
	}
	return out
}
