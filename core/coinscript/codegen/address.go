// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – Code Generator ▸ Address literals
// ----------------------------------------------------------
//
//   - Decodes `xch1…`/`txch1…` bech32m Chia addresses and `0x…` hex puzzle
//     hashes into the 32-byte puzzle hash storage initializers expect
//     (§4.8 semantic analysis). Wired to github.com/btcsuite/btcd/btcutil's
//     bech32 codec per SPEC_FULL.md's domain-stack table rather than a
//     hand-rolled bech32 implementation, since a real bech32/bech32m decoder
//     is exactly the kind of library the rest of the pack (the coinjoin
//     repo's address handling) already depends on.
package codegen

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// chiaAddressPrefixes are the two network human-readable parts this core
// recognizes (mainnet/testnet); anything else is rejected.
var chiaAddressPrefixes = map[string]bool{"xch": true, "txch": true}

// DecodeAddress validates and decodes a CoinScript `address` literal into
// its 32-byte puzzle hash. Accepts bech32m `xch1…`/`txch1…` values or
// `0x…` 32-byte hex. Any other shape is a semantic error (§4.8: "Invalid
// Chia address").
func DecodeAddress(literal string) ([32]byte, error) {
	var out [32]byte
	if strings.HasPrefix(literal, "0x") {
		b, err := hex.DecodeString(strings.TrimPrefix(literal, "0x"))
		if err != nil || len(b) != 32 {
			return out, fmt.Errorf("Invalid Chia address %q: expected 32-byte hex", literal)
		}
		copy(out[:], b)
		return out, nil
	}
	hrp, data, err := bech32.DecodeNoLimit(literal)
	if err != nil {
		return out, fmt.Errorf("Invalid Chia address %q: %w", literal, err)
	}
	if !chiaAddressPrefixes[hrp] {
		return out, fmt.Errorf("Invalid Chia address %q: unrecognized prefix %q", literal, hrp)
	}
	converted, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil || len(converted) != 32 {
		return out, fmt.Errorf("Invalid Chia address %q: expected 32-byte payload", literal)
	}
	copy(out[:], converted)
	return out, nil
}

// EncodeAddress is the inverse of DecodeAddress, used by tooling (e.g. the
// CLI) that needs to render a puzzle hash back as a human-readable address.
func EncodeAddress(network string, puzzleHash [32]byte) (string, error) {
	if !chiaAddressPrefixes[network] {
		return "", fmt.Errorf("unrecognized network prefix %q", network)
	}
	converted, err := bech32.ConvertBits(puzzleHash[:], 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.EncodeM(network, converted)
}
