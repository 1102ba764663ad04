package cardano

import (
	"encoding/hex"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// UTXO is an immutable snapshot of a spendable output. The data layer owns
// the source of truth; this package only ever reads these.
type UTXO struct {
	TxHash  HexBytes   `json:"txHash"`
	Index   uint32     `json:"index"`
	Amount  uint64     `json:"amount"`
	Address Address    `json:"address"`
	Assets  MultiAsset `json:"assets,omitempty"`
}

func (u UTXO) Validate() (err error) {
	if len(u.TxHash) != TxHashLength {
		err = errors.Errorf("expected %d byte transaction hash, got %d",
			TxHashLength, len(u.TxHash))
	}
	return
}

// MultiAsset maps hex policy id -> hex asset name -> quantity.
type MultiAsset map[string]map[string]uint64

// AssetID joins a policy and asset name into the "policy.name" form used in
// error reporting and selector bookkeeping.
func AssetID(policyID, assetName string) string {
	return policyID + "." + assetName
}

func (m MultiAsset) Empty() bool {
	for _, assets := range m {
		for _, quantity := range assets {
			if quantity > 0 {
				return false
			}
		}
	}
	return true
}

func (m MultiAsset) Quantity(policyID, assetName string) uint64 {
	return m[policyID][assetName]
}

func (m MultiAsset) Add(policyID, assetName string, quantity uint64) MultiAsset {
	if m == nil {
		m = MultiAsset{}
	}
	if m[policyID] == nil {
		m[policyID] = map[string]uint64{}
	}
	m[policyID][assetName] += quantity
	return m
}

func (m MultiAsset) Clone() MultiAsset {
	if m == nil {
		return nil
	}
	out := MultiAsset{}
	for policy, assets := range m {
		for name, quantity := range assets {
			out = out.Add(policy, name, quantity)
		}
	}
	return out
}

// Missing reports every asset in required that m cannot cover, keyed by
// AssetID, valued by the shortfall.
func (m MultiAsset) Missing(required MultiAsset) map[string]uint64 {
	missing := map[string]uint64{}
	for policy, assets := range required {
		for name, quantity := range assets {
			if have := m.Quantity(policy, name); have < quantity {
				missing[AssetID(policy, name)] = quantity - have
			}
		}
	}
	return missing
}

func (m MultiAsset) Covers(required MultiAsset) bool {
	return len(m.Missing(required)) == 0
}

// cborMap converts the hex-keyed form into the byte-keyed map the wire
// format requires.
func (m MultiAsset) cborMap() (out map[cbor.ByteString]map[cbor.ByteString]uint64, err error) {
	out = map[cbor.ByteString]map[cbor.ByteString]uint64{}

	for policy, assets := range m {
		policyBytes, decodeErr := hex.DecodeString(policy)
		if decodeErr != nil {
			err = errors.Wrapf(decodeErr, "invalid policy id '%s'", policy)
			return
		}

		inner := map[cbor.ByteString]uint64{}
		for name, quantity := range assets {
			nameBytes, decodeErr := hex.DecodeString(name)
			if decodeErr != nil {
				err = errors.Wrapf(decodeErr, "invalid asset name '%s'", name)
				return
			}
			inner[cbor.ByteString(nameBytes)] = quantity
		}

		out[cbor.ByteString(policyBytes)] = inner
	}

	return
}

// Value is an output amount: lovelace plus an optional multi-asset bundle.
// Coin-only values encode as a bare integer, mixed values as
// [coin, multiasset].
type Value struct {
	Coin   uint64     `json:"coin"`
	Assets MultiAsset `json:"assets,omitempty"`
}

func (v Value) MarshalCBOR() ([]byte, error) {
	if v.Assets.Empty() {
		return CanonicalCborEncoder.Marshal(v.Coin)
	}

	assets, err := v.Assets.cborMap()
	if err != nil {
		return nil, err
	}

	return CanonicalCborEncoder.Marshal([]interface{}{v.Coin, assets})
}

func (v *Value) UnmarshalCBOR(data []byte) (err error) {
	var coin uint64
	if err = StandardCborDecoder.Unmarshal(data, &coin); err == nil {
		v.Coin = coin
		v.Assets = nil
		return
	}

	var pair struct {
		_      struct{} `cbor:",toarray"`
		Coin   uint64
		Assets map[cbor.ByteString]map[cbor.ByteString]uint64
	}
	if err = StandardCborDecoder.Unmarshal(data, &pair); err != nil {
		return errors.WithStack(err)
	}

	v.Coin = pair.Coin
	v.Assets = MultiAsset{}
	for policy, assets := range pair.Assets {
		for name, quantity := range assets {
			v.Assets = v.Assets.Add(
				hex.EncodeToString([]byte(policy)),
				hex.EncodeToString([]byte(name)),
				quantity)
		}
	}
	return
}
