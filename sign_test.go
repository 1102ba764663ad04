package cardano

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
)

func testUnsignedTransaction(t *testing.T) UnsignedTransaction {
	t.Helper()

	body := TransactionBody{
		Inputs: []TxInput{{TxHash: testUtxo(0x01, 0, 0).TxHash, Index: 0}},
		Outputs: []TxOutput{{
			Address: testAddress(t, 0, 1),
			Value:   Value{Coin: 2_000_000},
		}},
		Fee: 170_000,
		Ttl: 88_000_000,
	}

	unsigned, err := NewUnsignedTransaction(body, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	return unsigned
}

func TestSignExtended(t *testing.T) {
	pair, err := DerivePaymentKeyPair(testPhrase, "", 0, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer pair.Wipe()

	message := []byte("arbitrary message bytes")

	signature, err := SignExtended(pair.PrivateKey, message)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(signature) != SignatureLength {
		t.Fatalf("expected %d byte signature, got %d", SignatureLength, len(signature))
	}

	// The scheme must verify with a stock Ed25519 verifier.
	if !ed25519.Verify(ed25519.PublicKey(pair.PublicKey), message, signature) {
		t.Fatal("signature failed stock ed25519 verification")
	}

	if ed25519.Verify(ed25519.PublicKey(pair.PublicKey), []byte("different message"), signature) {
		t.Fatal("signature verified against the wrong message")
	}
}

func TestSignAndVerify(t *testing.T) {
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

	if len(signed.WitnessSet.VKeys) != 1 {
		t.Fatalf("expected 1 witness, got %d", len(signed.WitnessSet.VKeys))
	}
	if !Verify(signed) {
		t.Fatal("signed transaction failed verification")
	}

	// Signing attaches a witness without touching the body bytes or the hash.
	if signed.Hash().String() != unsigned.Hash().String() {
		t.Fatal("signing changed the transaction hash")
	}
}

func TestAddSignature_MultipleWitnesses(t *testing.T) {
	unsigned := testUnsignedTransaction(t)

	first, err := DerivePaymentKeyPair(testPhrase, "", 0, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer first.Wipe()

	second, err := DerivePaymentKeyPair(testPhrase, "", 0, 1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer second.Wipe()

	signed, err := Sign(unsigned, first)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if err = signed.AddSignature(second); err != nil {
		t.Fatalf("%+v", err)
	}

	if len(signed.WitnessSet.VKeys) != 2 {
		t.Fatalf("expected 2 witnesses, got %d", len(signed.WitnessSet.VKeys))
	}
	if !Verify(signed) {
		t.Fatal("multi-witness transaction failed verification")
	}
}

func TestVerify_Tamper(t *testing.T) {
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

	// No witnesses at all is never a signed transaction.
	if Verify(SignedTransaction{Unsigned: unsigned}) {
		t.Fatal("witnessless transaction must not verify")
	}

	// A flipped signature bit must fail.
	tampered := signed
	tampered.WitnessSet.VKeys = append([]VKeyWitness{}, signed.WitnessSet.VKeys...)
	tampered.WitnessSet.VKeys[0].Signature = append(HexBytes{}, signed.WitnessSet.VKeys[0].Signature...)
	tampered.WitnessSet.VKeys[0].Signature[0] ^= 0x01
	if Verify(tampered) {
		t.Fatal("tampered signature must not verify")
	}

	// A witness from an unrelated key must fail.
	wrongKey := signed
	wrongKey.WitnessSet.VKeys = append([]VKeyWitness{}, signed.WitnessSet.VKeys...)
	other, err := DerivePaymentKeyPair(testPhrase, "", 0, 1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer other.Wipe()
	wrongKey.WitnessSet.VKeys[0].VKey = append(HexBytes{}, other.PublicKey...)
	if Verify(wrongKey) {
		t.Fatal("substituted public key must not verify")
	}
}

func TestSignWithKey(t *testing.T) {
	unsigned := testUnsignedTransaction(t)

	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	// Full 64-byte private key.
	signed, err := SignWithKey(unsigned, private)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !Verify(signed) {
		t.Fatal("transaction signed with a full key failed verification")
	}
	if signed.WitnessSet.VKeys[0].VKey.String() != HexBytes(public).String() {
		t.Fatal("witness must carry the signing public key")
	}

	// 32-byte seed form.
	signed, err = SignWithKey(unsigned, private.Seed())
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !Verify(signed) {
		t.Fatal("transaction signed with a seed failed verification")
	}

	// Anything else is rejected.
	if _, err = SignWithKey(unsigned, make([]byte, 16)); err == nil {
		t.Fatal("expected rejection of a 16 byte key")
	}
}

func TestSign_UnfinalizedBody(t *testing.T) {
	pair, err := DerivePaymentKeyPair(testPhrase, "", 0, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer pair.Wipe()

	// A zero-value unsigned transaction was never run through
	// NewUnsignedTransaction and has no frozen encoding.
	if _, err = Sign(UnsignedTransaction{}, pair); err == nil {
		t.Fatal("expected rejection of an unfinalized transaction")
	}
}
