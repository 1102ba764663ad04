package cardano

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/shopspring/decimal"
)

func TestExpandEd25519PrivateKey(t *testing.T) {
	master, err := NewMasterKeyFromPhrase(testPhrase, "")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer master.Wipe()

	// The master scalar is already clamped, so expanding it must agree with
	// the extended-key public derivation.
	private := ed25519.PrivateKey(append([]byte{}, master[:32]...))
	ExpandEd25519PrivateKey(&private)
	defer SecureErase(private)

	if len(private) != ed25519.PrivateKeySize {
		t.Fatalf("expected %d byte expanded key, got %d",
			ed25519.PrivateKeySize, len(private))
	}
	if !bytes.Equal(private[32:], master.PublicKey()) {
		t.Fatal("expanded public half does not match the derived public key")
	}

	// A key that already carries its public half is left alone.
	before := append([]byte{}, private...)
	ExpandEd25519PrivateKey(&private)
	if !bytes.Equal(private, before) {
		t.Fatal("expanding a full key must be a no-op")
	}
}

func TestIndentCbor(t *testing.T) {
	input := "[1, 2, [3, 4]]"
	expected := "[\n" +
		"  1,\n" +
		"  2,\n" +
		"  [\n" +
		"    3,\n" +
		"    4\n" +
		"  ]\n" +
		"]"

	if got := IndentCbor(input); got != expected {
		t.Fatalf("expected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestLovelaceAdaConversion(t *testing.T) {
	if LovelaceToAda(1_500_000).String() != "1.5" {
		t.Fatalf("expected 1.5 ada, got %s", LovelaceToAda(1_500_000))
	}

	ada, err := decimal.NewFromString("2.345678")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if AdaToLovelace(ada) != 2_345_678 {
		t.Fatalf("expected 2345678 lovelace, got %d", AdaToLovelace(ada))
	}

	// Round trip is exact at lovelace precision.
	if AdaToLovelace(LovelaceToAda(987_654_321)) != 987_654_321 {
		t.Fatal("lovelace round trip lost precision")
	}
}
