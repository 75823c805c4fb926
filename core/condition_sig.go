// SPDX-License-Identifier: BUSL-1.1
//
// CoinScript Compiler – Core ▸ Signature Shape Validation
// -----------------------------------------------------------
//
//   - requireSignature/requireSignatureUnsafe accept a raw public-key byte
//     string; BLS itself stays an external capability (§1 Out-of-scope), but
//     test fixtures and the CLI benefit from a quick sanity check on key
//     shape before handing bytes to a condition. When a supplied key is
//     secp256k1-compressed-length, this actually parses it as a secp256k1
//     curve point via btcec (rather than just comparing lengths) so the
//     diagnostic distinguishes "a valid point on the wrong curve" from
//     "garbage of a coincidentally matching length" — never used as a BLS
//     substitute.
package core

import "github.com/btcsuite/btcd/btcec/v2"

// BLSPubkeyLen is the length in bytes of a BLS12-381 G1 public key, the
// shape requireSignature/requireSignatureUnsafe expect.
const BLSPubkeyLen = 48

// secp256k1CompressedLen is btcec.PubKeyBytesLenCompressed, used only to
// distinguish "this looks like a secp256k1 key, not a BLS key" in
// ValidatePubkeyShape's diagnostic message.
const secp256k1CompressedLen = btcec.PubKeyBytesLenCompressed

// ValidatePubkeyShape reports whether b has the byte length of a BLS G1
// public key. It does not validate BLS curve membership — that requires the
// external BLS library this core does not depend on for production use.
func ValidatePubkeyShape(b []byte) error {
	switch len(b) {
	case BLSPubkeyLen:
		return nil
	case secp256k1CompressedLen:
		if _, err := btcec.ParsePubKey(b); err == nil {
			return BuilderError("public key is a valid secp256k1 point (%d bytes); requireSignature expects a %d-byte BLS12-381 key", secp256k1CompressedLen, BLSPubkeyLen)
		}
		return BuilderError("public key must be %d bytes, got %d", BLSPubkeyLen, len(b))
	default:
		return BuilderError("public key must be %d bytes, got %d", BLSPubkeyLen, len(b))
	}
}
