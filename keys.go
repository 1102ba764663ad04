package cardano

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"strconv"
	"strings"

	"filippo.io/edwards25519"
	ogbech "github.com/btcsuite/btcutil/bech32"
	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// XPrvLength is an extended private key: 32-byte scalar, 32-byte nonce
	// extension, 32-byte chain code.
	XPrvLength = 96

	PublicKeyLength = 32

	// HardenedOffset marks the first hardened child index.
	HardenedOffset uint32 = 0x8000_0000

	icarusIterations = 4096
)

// CIP-1852 path constants: m / 1852' / 1815' / account' / role / index.
const (
	PurposeShelley uint32 = 1852
	CoinTypeAda    uint32 = 1815

	RolePayment uint32 = 0
	RoleChange  uint32 = 1
	RoleStake   uint32 = 2
)

func Harden(index uint32) uint32 {
	return index | HardenedOffset
}

// XPrv is a BIP32-Ed25519 extended private key. The caller that created it
// owns the bytes and is responsible for calling Wipe once finished.
type XPrv []byte

type PublicKey []byte

type KeyPair struct {
	PrivateKey XPrv
	PublicKey  PublicKey
}

// Bytes returns the full 128-byte form: extended private key followed by the
// public key.
func (k KeyPair) Bytes() []byte {
	return append(append([]byte{}, k.PrivateKey...), k.PublicKey...)
}

func (k *KeyPair) Wipe() {
	k.PrivateKey.Wipe()
}

func (x XPrv) Wipe() {
	SecureErase(x)
}

func (x XPrv) Validate() (err error) {
	if len(x) != XPrvLength {
		err = errors.Wrapf(ErrInvalidKeyLength,
			"expected %d byte extended private key, got %d", XPrvLength, len(x))
	}
	return
}

// NewMasterKeyFromPhrase implements the CIP-3 (Icarus) master key algorithm:
// the phrase's raw entropy is stretched with PBKDF2-HMAC-SHA512 keyed by the
// optional passphrase, then the scalar is clamped. The phrase text itself is
// never fed to the KDF, only the entropy it encodes.
func NewMasterKeyFromPhrase(phrase, passphrase string) (master XPrv, err error) {
	entropy, err := phraseEntropy(phrase)
	if err != nil {
		return
	}
	defer SecureErase(entropy)

	key := pbkdf2.Key([]byte(passphrase), entropy, icarusIterations, XPrvLength, sha512.New)

	key[0] &= 0b1111_1000
	key[31] &= 0b0001_1111
	key[31] |= 0b0100_0000

	master = XPrv(key)
	return
}

// Derive produces the child key for a single path segment. Hardened indices
// (>= HardenedOffset) derive from the private material, soft indices from the
// public key. Identical parent and index always yield an identical child.
func (x XPrv) Derive(index uint32) (child XPrv, err error) {
	if err = x.Validate(); err != nil {
		return
	}

	kl, kr, chainCode := x[:32], x[32:64], x[64:]

	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], index)

	zmac := hmac.New(sha512.New, chainCode)
	ccmac := hmac.New(sha512.New, chainCode)

	if index >= HardenedOffset {
		zmac.Write([]byte{0x00})
		zmac.Write(kl)
		zmac.Write(kr)
		zmac.Write(idx[:])

		ccmac.Write([]byte{0x01})
		ccmac.Write(kl)
		ccmac.Write(kr)
		ccmac.Write(idx[:])
	} else {
		public := x.PublicKey()

		zmac.Write([]byte{0x02})
		zmac.Write(public)
		zmac.Write(idx[:])

		ccmac.Write([]byte{0x03})
		ccmac.Write(public)
		ccmac.Write(idx[:])
	}

	z := zmac.Sum(nil)
	cc := ccmac.Sum(nil)

	child = make(XPrv, 0, XPrvLength)
	child = append(child, add28Mul8(kl, z[:32])...)
	child = append(child, add256(kr, z[32:64])...)
	child = append(child, cc[32:]...)

	SecureErase(z)
	SecureErase(cc)

	return
}

// add28Mul8 computes kl + 8 * zl[:28] over 32 little-endian bytes.
func add28Mul8(kl, zl []byte) []byte {
	out := make([]byte, 32)
	var carry uint16

	for i := 0; i < 28; i++ {
		r := uint16(kl[i]) + uint16(zl[i])<<3 + carry
		out[i] = byte(r)
		carry = r >> 8
	}
	for i := 28; i < 32; i++ {
		r := uint16(kl[i]) + carry
		out[i] = byte(r)
		carry = r >> 8
	}

	return out
}

// add256 computes kr + zr over 32 little-endian bytes, discarding the final
// carry.
func add256(kr, zr []byte) []byte {
	out := make([]byte, 32)
	var carry uint16

	for i := 0; i < 32; i++ {
		r := uint16(kr[i]) + uint16(zr[i]) + carry
		out[i] = byte(r)
		carry = r >> 8
	}

	return out
}

// PublicKey is the pure scalar-to-point mapping of the key's left half. The
// scalar is not clamped again: derivation arithmetic keeps it in shape.
func (x XPrv) PublicKey() PublicKey {
	var wide [64]byte
	copy(wide[:32], x[:32])

	scalar, err := new(edwards25519.Scalar).SetUniformBytes(wide[:])
	if err != nil {
		// SetUniformBytes only rejects inputs that are not 64 bytes.
		panic(err)
	}

	point := new(edwards25519.Point).ScalarBaseMult(scalar)

	SecureErase(wide[:])

	return point.Bytes()
}

func PublicKeyOf(privateKey XPrv) (public PublicKey, err error) {
	if err = privateKey.Validate(); err != nil {
		return
	}
	public = privateKey.PublicKey()
	return
}

type PathSegment struct {
	Index    uint32
	Hardened bool
}

type DerivationPath []PathSegment

// ParsePath reads the usual textual form, e.g. "m/1852'/1815'/0'/0/0".
func ParsePath(path string) (parsed DerivationPath, err error) {
	trimmed := strings.TrimPrefix(path, "m/")
	if trimmed == "" || trimmed == "m" {
		err = errors.Wrapf(ErrInvalidDerivationIndex, "malformed path '%s'", path)
		return
	}

	for _, segment := range strings.Split(trimmed, "/") {
		hardened := strings.HasSuffix(segment, "'") || strings.HasSuffix(segment, "H")
		segment = strings.TrimRight(segment, "'H")

		index, parseErr := strconv.ParseUint(segment, 10, 32)
		if parseErr != nil || uint32(index) >= HardenedOffset {
			err = errors.Wrapf(ErrInvalidDerivationIndex,
				"malformed path segment '%s' in '%s'", segment, path)
			return
		}

		parsed = append(parsed, PathSegment{Index: uint32(index), Hardened: hardened})
	}

	return
}

func (p PathSegment) childIndex() uint32 {
	if p.Hardened {
		return Harden(p.Index)
	}
	return p.Index
}

// DerivePath walks every segment from the parent, wiping each intermediate
// key. The parent is left intact for the caller to wipe.
func (x XPrv) DerivePath(path DerivationPath) (child XPrv, err error) {
	if len(path) == 0 {
		child = append(XPrv{}, x...)
		return
	}

	current := x

	for i, segment := range path {
		next, deriveErr := current.Derive(segment.childIndex())
		if i > 0 {
			current.Wipe()
		}
		if deriveErr != nil {
			err = deriveErr
			return
		}
		current = next
	}

	child = current
	return
}

// shelleyPath is the fixed CIP-1852 walk shared by every convenience
// derivation below.
func shelleyPath(account, role, index uint32) DerivationPath {
	return DerivationPath{
		{Index: PurposeShelley, Hardened: true},
		{Index: CoinTypeAda, Hardened: true},
		{Index: account, Hardened: true},
		{Index: role},
		{Index: index},
	}
}

func deriveKeyPair(phrase, passphrase string, account, role, index uint32) (pair KeyPair, err error) {
	if account >= HardenedOffset {
		err = errors.Wrapf(ErrInvalidDerivationIndex, "account %d out of range", account)
		return
	}
	if index >= HardenedOffset {
		err = errors.Wrapf(ErrInvalidDerivationIndex, "address index %d out of range", index)
		return
	}

	master, err := NewMasterKeyFromPhrase(phrase, passphrase)
	if err != nil {
		return
	}
	defer master.Wipe()

	leaf, err := master.DerivePath(shelleyPath(account, role, index))
	if err != nil {
		return
	}

	pair = KeyPair{
		PrivateKey: leaf,
		PublicKey:  leaf.PublicKey(),
	}
	return
}

// DerivePaymentKeyPair derives the external spending key at
// m/1852'/1815'/account'/0/index.
func DerivePaymentKeyPair(phrase, passphrase string, account, index uint32) (KeyPair, error) {
	return deriveKeyPair(phrase, passphrase, account, RolePayment, index)
}

// DeriveChangeKeyPair derives the internal change key at
// m/1852'/1815'/account'/1/index.
func DeriveChangeKeyPair(phrase, passphrase string, account, index uint32) (KeyPair, error) {
	return deriveKeyPair(phrase, passphrase, account, RoleChange, index)
}

// DeriveStakeKeyPair derives the staking key at m/1852'/1815'/account'/2/0.
func DeriveStakeKeyPair(phrase, passphrase string, account uint32) (KeyPair, error) {
	return deriveKeyPair(phrase, passphrase, account, RoleStake, 0)
}

// Bech32String renders the key with a CIP-5 prefix such as "addr_vk" or
// "stake_vk".
func (p PublicKey) Bech32String(prefix string) (encoded string, err error) {
	converted, err := ogbech.ConvertBits(p, 8, 5, true)
	if err != nil {
		err = errors.Wrap(err, "failed to convert bits")
		return
	}

	encoded, err = ogbech.Encode(prefix, converted)
	if err != nil {
		err = errors.Wrap(err, "failed to encode bech32 key")
	}
	return
}

// ParseBech32PublicKey reverses PublicKey.Bech32String, returning the prefix
// alongside the raw key.
func ParseBech32PublicKey(encoded string) (prefix string, public PublicKey, err error) {
	prefix, data, err := ogbech.Decode(encoded)
	if err != nil {
		err = errors.Wrap(err, "failed to decode bech32 key")
		return
	}

	converted, err := ogbech.ConvertBits(data, 5, 8, false)
	if err != nil {
		err = errors.Wrap(err, "failed to convert bits")
		return
	}

	if len(converted) != PublicKeyLength {
		err = errors.Wrapf(ErrInvalidKeyLength,
			"expected %d byte public key, got %d", PublicKeyLength, len(converted))
		return
	}

	public = converted
	return
}
