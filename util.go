package cardano

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"filippo.io/edwards25519"
	"github.com/fxamacker/cbor/v2"
	"github.com/shopspring/decimal"
)

// LovelacePerAda is the scaling factor between the chain's smallest unit and
// its display unit.
const LovelacePerAda = 1_000_000

func ExpandEd25519PrivateKey(private *ed25519.PrivateKey) {
	if len(*private) == 32 {
		var scalar edwards25519.Scalar
		_, _ = scalar.SetBytesWithClamping(*private)
		var p edwards25519.Point
		p.ScalarBaseMult(&scalar)
		*private = append(*private, p.Bytes()...)
	}
}

// SecureErase overwrites the buffer in place. Every code path that holds
// private key bytes calls this before releasing the buffer, including error
// paths.
func SecureErase(buffer []byte) {
	for i := range buffer {
		buffer[i] = 0
	}
}

// LovelaceToAda converts an integer lovelace amount to its display value.
// Display conversion is the only place non-integer arithmetic is permitted.
func LovelaceToAda(lovelace uint64) decimal.Decimal {
	return decimal.NewFromInt(int64(lovelace)).
		Div(decimal.NewFromInt(LovelacePerAda))
}

// AdaToLovelace converts a display amount to integer lovelace, truncating any
// precision below one lovelace.
func AdaToLovelace(ada decimal.Decimal) uint64 {
	return uint64(ada.Mul(decimal.NewFromInt(LovelacePerAda)).IntPart())
}

type HexBytes []byte

func (h HexBytes) String() string {
	return hex.EncodeToString(h)
}

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return []byte(`"` + hex.EncodeToString(h) + `"`), nil
}

func (h *HexBytes) UnmarshalJSON(data []byte) (err error) {
	decoded, err := hex.DecodeString(strings.Trim(string(data), `"`))
	if err != nil {
		return
	}
	*h = decoded
	return
}

type HexString string

func (h HexString) Bytes() []byte {
	out, _ := hex.DecodeString(string(h))
	return out
}

func IndentCbor(input string) string {
	var index = 0
	var output = ""
	indent := 0
	var newline bool

	for {
		if index >= len(input) {
			break
		}

		nextChar := input[index]

		if nextChar == '[' || nextChar == '{' {
			if newline {
				output += strings.Repeat(" ", indent*2)
				newline = false
			}
			indent++
			output += string(nextChar) + "\n" + strings.Repeat(" ", indent*2)
		} else if nextChar == ']' || nextChar == '}' {
			indent--
			output += "\n" + strings.Repeat(" ", indent*2) + string(nextChar)
		} else if nextChar == ',' {
			output += ",\n"
			newline = true
		} else {
			if newline {
				if nextChar == ' ' {
					index++
					continue
				}
				output += strings.Repeat(" ", indent*2)
				newline = false
			}
			output += string(nextChar)
		}

		index++
	}

	return output
}

var StandardCborDecoder, _ = cbor.DecOptions{
	UTF8: cbor.UTF8DecodeInvalid,
}.DecMode()

// CanonicalCborEncoder produces RFC 8949 core deterministic encodings. The
// transaction body hash and every signature are computed over bytes emitted
// by this mode, so two builds of the same logical transaction are
// byte-identical.
var CanonicalCborEncoder, _ = cbor.CoreDetEncOptions().EncMode()
