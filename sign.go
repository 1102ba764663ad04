package cardano

import (
	"crypto/ed25519"
	"crypto/sha512"

	"filippo.io/edwards25519"
	"github.com/pkg/errors"
)

const SignatureLength = 64

// SignExtended signs a message with a BIP32-Ed25519 extended key. The scheme
// is standard Ed25519 with the derived scalar in place of the clamped seed
// hash and the key's right half as the nonce prefix, so the result verifies
// with any stock Ed25519 verifier.
func SignExtended(key XPrv, message []byte) (signature []byte, err error) {
	if err = key.Validate(); err != nil {
		return
	}

	kl, kr := key[:32], key[32:64]
	public := key.PublicKey()

	nonceDigest := sha512.New()
	nonceDigest.Write(kr)
	nonceDigest.Write(message)

	r, err := new(edwards25519.Scalar).SetUniformBytes(nonceDigest.Sum(nil))
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	bigR := new(edwards25519.Point).ScalarBaseMult(r).Bytes()

	challengeDigest := sha512.New()
	challengeDigest.Write(bigR)
	challengeDigest.Write(public)
	challengeDigest.Write(message)

	k, err := new(edwards25519.Scalar).SetUniformBytes(challengeDigest.Sum(nil))
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	var wide [64]byte
	copy(wide[:32], kl)
	scalar, err := new(edwards25519.Scalar).SetUniformBytes(wide[:])
	if err != nil {
		err = errors.WithStack(err)
		return
	}
	SecureErase(wide[:])

	s := new(edwards25519.Scalar).MultiplyAdd(k, scalar, r)

	signature = append(bigR, s.Bytes()...)
	return
}

// Sign hashes nothing itself: the unsigned transaction's frozen body hash is
// the message. The witness attaches without touching the body bytes.
func Sign(unsigned UnsignedTransaction, pair KeyPair) (signed SignedTransaction, err error) {
	signed = SignedTransaction{Unsigned: unsigned}
	err = signed.AddSignature(pair)
	return
}

// AddSignature appends one more witness, for transactions spending inputs
// held by several keys.
func (t *SignedTransaction) AddSignature(pair KeyPair) (err error) {
	if len(t.Unsigned.bodyBytes) == 0 {
		err = errors.New("cannot sign: transaction body was never finalized")
		return
	}

	signature, err := SignExtended(pair.PrivateKey, t.Unsigned.Hash())
	if err != nil {
		return
	}

	public := pair.PublicKey
	if len(public) == 0 {
		public = pair.PrivateKey.PublicKey()
	}

	if !ed25519.Verify(ed25519.PublicKey(public), t.Unsigned.Hash(), signature) {
		err = errors.WithStack(ErrSignatureInvalid)
		return
	}

	t.WitnessSet.VKeys = append(t.WitnessSet.VKeys, VKeyWitness{
		VKey:      append(HexBytes{}, public...),
		Signature: signature,
	})
	return
}

// SignWithKey signs with a plain Ed25519 key (32-byte seed or 64-byte
// private key) instead of a derived extended key.
func SignWithKey(unsigned UnsignedTransaction, privateKey ed25519.PrivateKey) (signed SignedTransaction, err error) {
	switch len(privateKey) {
	case ed25519.SeedSize:
		privateKey = ed25519.NewKeyFromSeed(privateKey)
	case ed25519.PrivateKeySize:
	default:
		err = errors.Wrapf(ErrInvalidKeyLength,
			"expected %d or %d byte ed25519 key, got %d",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(privateKey))
		return
	}

	if len(unsigned.bodyBytes) == 0 {
		err = errors.New("cannot sign: transaction body was never finalized")
		return
	}

	signature := ed25519.Sign(privateKey, unsigned.Hash())

	signed = SignedTransaction{
		Unsigned: unsigned,
		WitnessSet: WitnessSet{VKeys: []VKeyWitness{{
			VKey:      append(HexBytes{}, privateKey.Public().(ed25519.PublicKey)...),
			Signature: signature,
		}}},
	}
	return
}

// Verify recomputes the body hash from the frozen encoding and checks every
// witness against it. A transaction with no witnesses is never considered
// signed.
func Verify(signed SignedTransaction) bool {
	if len(signed.WitnessSet.VKeys) == 0 {
		return false
	}

	hash, err := Blake2bSum256(signed.Unsigned.bodyBytes)
	if err != nil {
		return false
	}

	for _, witness := range signed.WitnessSet.VKeys {
		if len(witness.VKey) != ed25519.PublicKeySize ||
			len(witness.Signature) != SignatureLength {
			return false
		}
		if !ed25519.Verify(ed25519.PublicKey(witness.VKey), hash, witness.Signature) {
			return false
		}
	}

	return true
}
