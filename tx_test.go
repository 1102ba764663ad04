package cardano

import (
	"bytes"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func TestTransactionBody_DeterministicEncoding(t *testing.T) {
	stake := testStakeCredential(t, 0)

	rewardA, err := NewRewardAddress(NetworkPreProd, stake)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	rewardB, err := NewRewardAddress(NetworkPreProd, testStakeCredential(t, 1))
	if err != nil {
		t.Fatalf("%+v", err)
	}

	body := TransactionBody{
		Inputs: []TxInput{{TxHash: testUtxo(0x01, 0, 0).TxHash, Index: 3}},
		Outputs: []TxOutput{{
			Address: testAddress(t, 0, 0),
			Value:   Value{Coin: 5_000_000},
		}},
		Fee: 170_000,
		Ttl: 88_000_000,
		Withdrawals: map[cbor.ByteString]uint64{
			cbor.ByteString(rewardA.Bytes()): 1_000_000,
			cbor.ByteString(rewardB.Bytes()): 2_000_000,
		},
	}

	first, err := body.Bytes()
	if err != nil {
		t.Fatalf("%+v", err)
	}

	// Canonical encoding admits exactly one byte form, map ordering included.
	for i := 0; i < 20; i++ {
		again, encodeErr := body.Bytes()
		if encodeErr != nil {
			t.Fatalf("%+v", encodeErr)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("encoding is not deterministic")
		}
	}

	hash, err := body.Hash()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(hash) != TxHashLength {
		t.Fatalf("expected %d byte hash, got %d", TxHashLength, len(hash))
	}
}

func TestValue_RoundTrip(t *testing.T) {
	policy := "b0d07d45fe9514f80213f4020e5a61241458be626841cde717cb38a7"
	name := "6d7951756d6d79546f6b656e"

	testCases := []Value{
		{Coin: 0},
		{Coin: 1_000_000},
		{Coin: 2_500_000, Assets: MultiAsset{}.Add(policy, name, 42)},
	}

	for _, value := range testCases {
		encoded, err := CanonicalCborEncoder.Marshal(value)
		if err != nil {
			t.Fatalf("%+v", err)
		}

		var decoded Value
		if err = StandardCborDecoder.Unmarshal(encoded, &decoded); err != nil {
			t.Fatalf("%+v", err)
		}

		if decoded.Coin != value.Coin {
			t.Fatalf("expected coin %d, got %d", value.Coin, decoded.Coin)
		}
		if decoded.Assets.Quantity(policy, name) != value.Assets.Quantity(policy, name) {
			t.Fatal("asset bundle did not survive the round trip")
		}
	}

	// A pure-lovelace value encodes as a bare integer, not an array.
	encoded, err := CanonicalCborEncoder.Marshal(Value{Coin: 7})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !bytes.Equal(encoded, []byte{0x07}) {
		t.Fatalf("expected bare integer encoding, got %x", encoded)
	}
}

func TestTxOutput_RoundTrip(t *testing.T) {
	output := TxOutput{
		Address: testAddress(t, 0, 0),
		Value:   Value{Coin: 3_000_000},
	}

	encoded, err := CanonicalCborEncoder.Marshal(output)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	var decoded TxOutput
	if err = StandardCborDecoder.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("%+v", err)
	}

	if decoded.Address.String() != output.Address.String() {
		t.Fatal("address did not survive the round trip")
	}
	if decoded.Value.Coin != output.Value.Coin {
		t.Fatal("amount did not survive the round trip")
	}
}

func TestUnsignedTransaction_FrozenEncoding(t *testing.T) {
	unsigned := testUnsignedTransaction(t)

	hash := unsigned.Hash().String()

	// Mutating the returned copies must not reach the frozen state.
	leaked := unsigned.Bytes()
	for i := range leaked {
		leaked[i] = 0xFF
	}
	leakedHash := unsigned.Hash()
	for i := range leakedHash {
		leakedHash[i] = 0xFF
	}

	if unsigned.Hash().String() != hash {
		t.Fatal("frozen hash was mutated through a returned copy")
	}

	recomputed, err := Blake2bSum256(unsigned.Bytes())
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if HexBytes(recomputed).String() != hash {
		t.Fatal("hash does not match the frozen body encoding")
	}
}

func TestSignedTransaction_Envelope(t *testing.T) {
	unsigned := testUnsignedTransaction(t)

	pair, err := DerivePaymentKeyPair(testPhrase, "", 0, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer pair.Wipe()

	signed, err := Sign(unsigned, pair)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	encoded, err := signed.Bytes()
	if err != nil {
		t.Fatalf("%+v", err)
	}

	var envelope []cbor.RawMessage
	if err = StandardCborDecoder.Unmarshal(encoded, &envelope); err != nil {
		t.Fatalf("%+v", err)
	}
	if len(envelope) != 4 {
		t.Fatalf("expected [body, witnesses, valid, aux], got %d elements", len(envelope))
	}

	// The body is spliced in byte for byte; re-hashing it yields the tx id.
	if !bytes.Equal(envelope[0], unsigned.Bytes()) {
		t.Fatal("envelope body differs from the signed encoding")
	}

	var valid bool
	if err = StandardCborDecoder.Unmarshal(envelope[2], &valid); err != nil || !valid {
		t.Fatal("expected the validity flag to encode as true")
	}

	// No metadata: the auxiliary slot is null.
	if !bytes.Equal(envelope[3], []byte{0xF6}) {
		t.Fatalf("expected null auxiliary data, got %x", envelope[3])
	}

	var witnessSet WitnessSet
	if err = StandardCborDecoder.Unmarshal(envelope[1], &witnessSet); err != nil {
		t.Fatalf("%+v", err)
	}
	if len(witnessSet.VKeys) != 1 {
		t.Fatalf("expected 1 witness in the envelope, got %d", len(witnessSet.VKeys))
	}
}
