package cardano

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

type Address []byte

func (a Address) MarshalJSON() ([]byte, error) {
	encoded, err := a.Bech32String()
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf(`"%s"`, encoded)), nil
}

func (a Address) String() string {
	encoded, err := a.Bech32String()
	if err != nil {
		return fmt.Sprintf("invalid(%x)", []byte(a))
	}
	return encoded
}

func (a Address) Bytes() []byte {
	return a
}

func (a Address) Header() (header AddressHeader, err error) {
	if len(a) == 0 {
		err = errors.New("cannot get header for empty address")
		return
	}
	header = AddressHeader(a[0])
	return
}

func (a Address) Type() (typ AddressType, err error) {
	header, err := a.Header()
	if err != nil {
		return
	}
	return header.Type()
}

func (a Address) Network() (net AddressHeaderNetwork, err error) {
	header, err := a.Header()
	if err != nil {
		return
	}
	return header.Network()
}

// Bech32String encodes the address with the prefix its own header dictates.
// No external network context is consulted; the header bit alone decides
// between the mainnet and testnet prefixes.
func (a Address) Bech32String() (encoded string, err error) {
	header, err := a.Header()
	if err != nil {
		return
	}

	prefix, err := header.Prefix()
	if err != nil {
		return
	}

	encoded, err = bech32.ConvertAndEncode(prefix, a)
	if err != nil {
		err = errors.Errorf("failed to convert to bech32: %+v", err)
		return
	}

	return
}

// ParseBech32String decodes and validates a bech32 address in place. The
// prefix must be exactly the one the decoded header would itself produce.
func (a *Address) ParseBech32String(encoded string) (err error) {
	prefix, addr, err := bech32.DecodeAndConvert(encoded)
	if err != nil {
		return AddressDecodeError{Input: encoded, Reason: err.Error()}
	}

	if len(addr) == 0 {
		return AddressDecodeError{Input: encoded, Reason: "empty payload"}
	}

	header := AddressHeader(addr[0])

	if err = header.Validate(); err != nil {
		return AddressDecodeError{Input: encoded, Reason: err.Error()}
	}

	expectedPrefix, err := header.Prefix()
	if err != nil {
		return AddressDecodeError{Input: encoded, Reason: err.Error()}
	}

	if prefix != expectedPrefix {
		return AddressDecodeError{
			Input:  encoded,
			Reason: fmt.Sprintf("prefix '%s' does not match header (want '%s')", prefix, expectedPrefix),
		}
	}

	if err = validatePayloadLength(header, addr); err != nil {
		return AddressDecodeError{Input: encoded, Reason: err.Error()}
	}

	*a = addr
	return nil
}

func validatePayloadLength(header AddressHeader, payload []byte) (err error) {
	typ, err := header.Type()
	if err != nil {
		return
	}

	switch typ {
	case AddressTypePaymentAndStake, AddressTypeScriptAndStake,
		AddressTypePaymentAndScript, AddressTypeScriptAndScript:
		if len(payload) != 1+KeyHashLength*2 {
			err = errors.Errorf("expected %d byte base address, got %d",
				1+KeyHashLength*2, len(payload))
		}
	case AddressTypePaymentAndPointer, AddressTypeScriptAndPointer:
		if len(payload) < 1+KeyHashLength+3 {
			err = errors.Errorf("pointer address payload too short: %d bytes", len(payload))
			return
		}
		if _, parseErr := parsePointer(payload[1+KeyHashLength:]); parseErr != nil {
			err = parseErr
		}
	case AddressTypePayment, AddressTypeScript,
		AddressTypeStakeReward, AddressTypeScriptReward:
		if len(payload) != 1+KeyHashLength {
			err = errors.Errorf("expected %d byte address, got %d",
				1+KeyHashLength, len(payload))
		}
	}
	return
}

// DecodeAddress parses a bech32 address string into a typed Address. Byron
// era base58 addresses are recognised and rejected with a distinct error so
// callers can tell "legacy" from "garbage".
func DecodeAddress(address string) (decoded Address, err error) {
	addr := &Address{}
	err = addr.ParseBech32String(address)
	if err == nil {
		decoded = *addr
		return
	}

	if isByronAddress(address) {
		err = errors.Wrapf(ErrByronAddressUnsupported, "'%s'", address)
		return
	}

	return
}

// ValidateAddress is the total wrapper around DecodeAddress used for gating
// user input: false on any malformed input, it never panics.
func ValidateAddress(address string) bool {
	if address == "" {
		return false
	}
	_, err := DecodeAddress(address)
	return err == nil
}

func isByronAddress(address string) bool {
	raw, err := base58.Decode(address)
	if err != nil {
		return false
	}

	// Byron addresses are a CBOR array [tagged-payload, crc].
	var envelope []interface{}
	return StandardCborDecoder.Unmarshal(raw, &envelope) == nil && len(envelope) == 2
}

type CredentialKind int

const (
	CredentialKeyHash CredentialKind = iota
	CredentialScriptHash
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialKeyHash:
		return "key hash"
	case CredentialScriptHash:
		return "script hash"
	default:
		return "invalid"
	}
}

// Credential is a typed 28-byte hash used as an address building block. It is
// produced from key material by hashing and is never invertible.
type Credential struct {
	Kind CredentialKind
	Hash HexBytes
}

func (c Credential) Validate() (err error) {
	if len(c.Hash) != KeyHashLength {
		err = errors.Errorf("expected %d byte credential hash, got %d",
			KeyHashLength, len(c.Hash))
	}
	return
}

func (c Credential) Equal(other Credential) bool {
	return c.Kind == other.Kind && bytes.Equal(c.Hash, other.Hash)
}

// NewKeyCredential hashes an Ed25519 public key with blake2b-224.
func NewKeyCredential(publicKey []byte) (credential Credential, err error) {
	if len(publicKey) != ed25519.PublicKeySize {
		err = errors.Wrapf(ErrInvalidKeyLength,
			"expected a %d length ed25519 public key, got %d bytes",
			ed25519.PublicKeySize, len(publicKey))
		return
	}

	hash, err := Blake2bSum224(publicKey)
	if err != nil {
		return
	}

	credential = Credential{Kind: CredentialKeyHash, Hash: hash}
	return
}

func NewScriptCredential(scriptHash []byte) (credential Credential, err error) {
	credential = Credential{Kind: CredentialScriptHash, Hash: scriptHash}
	err = credential.Validate()
	return
}

// Pointer locates a stake credential by chain position instead of carrying
// its hash.
type Pointer struct {
	Slot      uint64 `json:"slot"`
	TxIndex   uint64 `json:"txIndex"`
	CertIndex uint64 `json:"certIndex"`
}

// PointerResolver is the resolution contract for pointer addresses. The
// backing store is a historical certificate index this package deliberately
// does not implement.
type PointerResolver interface {
	ResolvePointer(pointer Pointer) (Credential, error)
}

func (p Pointer) encode() []byte {
	out := encodeNat(nil, p.Slot)
	out = encodeNat(out, p.TxIndex)
	return encodeNat(out, p.CertIndex)
}

// encodeNat appends the CIP-19 variable-length natural: big-endian 7-bit
// groups, high bit set on every group but the last.
func encodeNat(out []byte, n uint64) []byte {
	group := []byte{byte(n & 0x7f)}
	n >>= 7
	for n > 0 {
		group = append(group, byte(n&0x7f)|0x80)
		n >>= 7
	}
	for i := len(group) - 1; i >= 0; i-- {
		out = append(out, group[i])
	}
	return out
}

func decodeNat(buf []byte) (n uint64, consumed int, err error) {
	for i, b := range buf {
		if i >= 10 {
			err = errors.New("variable-length natural overflows uint64")
			return
		}
		n = n<<7 | uint64(b&0x7f)
		if b&0x80 == 0 {
			consumed = i + 1
			return
		}
	}
	err = errors.New("truncated variable-length natural")
	return
}

func parsePointer(buf []byte) (pointer Pointer, err error) {
	fields := make([]uint64, 3)
	offset := 0

	for i := range fields {
		n, consumed, parseErr := decodeNat(buf[offset:])
		if parseErr != nil {
			err = parseErr
			return
		}
		fields[i] = n
		offset += consumed
	}

	if offset != len(buf) {
		err = errors.Errorf("%d trailing bytes after chain pointer", len(buf)-offset)
		return
	}

	pointer = Pointer{Slot: fields[0], TxIndex: fields[1], CertIndex: fields[2]}
	return
}

// NewBaseAddress builds a payment+stake address; the header type is chosen
// from the two credential kinds.
func NewBaseAddress(net Network, payment, stake Credential) (addr Address, err error) {
	if err = payment.Validate(); err != nil {
		return
	}
	if err = stake.Validate(); err != nil {
		return
	}

	var typ AddressType
	switch {
	case payment.Kind == CredentialKeyHash && stake.Kind == CredentialKeyHash:
		typ = AddressTypePaymentAndStake
	case payment.Kind == CredentialScriptHash && stake.Kind == CredentialKeyHash:
		typ = AddressTypeScriptAndStake
	case payment.Kind == CredentialKeyHash && stake.Kind == CredentialScriptHash:
		typ = AddressTypePaymentAndScript
	default:
		typ = AddressTypeScriptAndScript
	}

	header, err := buildHeader(net, typ)
	if err != nil {
		return
	}

	addr = append([]byte{byte(header)}, payment.Hash...)
	addr = append(addr, stake.Hash...)
	return
}

// NewEnterpriseAddress builds a payment-only address with no staking rights.
func NewEnterpriseAddress(net Network, payment Credential) (addr Address, err error) {
	if err = payment.Validate(); err != nil {
		return
	}

	typ := AddressTypePayment
	if payment.Kind == CredentialScriptHash {
		typ = AddressTypeScript
	}

	header, err := buildHeader(net, typ)
	if err != nil {
		return
	}

	addr = append([]byte{byte(header)}, payment.Hash...)
	return
}

// NewRewardAddress builds a stake/reward account address.
func NewRewardAddress(net Network, stake Credential) (addr Address, err error) {
	if err = stake.Validate(); err != nil {
		return
	}

	typ := AddressTypeStakeReward
	if stake.Kind == CredentialScriptHash {
		typ = AddressTypeScriptReward
	}

	header, err := buildHeader(net, typ)
	if err != nil {
		return
	}

	addr = append([]byte{byte(header)}, stake.Hash...)
	return
}

// NewPointerAddress builds a payment address whose stake credential is a
// chain pointer.
func NewPointerAddress(net Network, payment Credential, pointer Pointer) (addr Address, err error) {
	if err = payment.Validate(); err != nil {
		return
	}

	typ := AddressTypePaymentAndPointer
	if payment.Kind == CredentialScriptHash {
		typ = AddressTypeScriptAndPointer
	}

	header, err := buildHeader(net, typ)
	if err != nil {
		return
	}

	addr = append([]byte{byte(header)}, payment.Hash...)
	addr = append(addr, pointer.encode()...)
	return
}

func buildHeader(net Network, typ AddressType) (header AddressHeader, err error) {
	networkBits, err := net.HeaderNetwork()
	if err != nil {
		return
	}

	format, err := typ.Format()
	if err != nil {
		return
	}

	h := new(AddressHeader)
	h.SetType(format.HeaderType)
	h.SetNetwork(networkBits)
	header = *h
	return
}

// EncodeAddress accepts an Ed25519 public key and returns an enterprise or
// reward address for it, depending on typ.
func EncodeAddress(publicKey []byte, net Network, typ AddressType) (addr Address, err error) {
	credential, err := NewKeyCredential(publicKey)
	if err != nil {
		return
	}

	switch typ {
	case AddressTypePayment:
		return NewEnterpriseAddress(net, credential)
	case AddressTypeStakeReward:
		return NewRewardAddress(net, credential)
	default:
		err = errors.Errorf("cannot encode '%s' address from a single public key", typ)
		return
	}
}

// DecodedAddress carries each address component as data; nothing needs to be
// re-derived from runtime types.
type DecodedAddress struct {
	Network AddressHeaderNetwork
	Type    AddressType
	Payment *Credential
	Stake   *Credential
	Pointer *Pointer
}

// Decoded splits the address into its typed parts.
func (a Address) Decoded() (decoded DecodedAddress, err error) {
	header, err := a.Header()
	if err != nil {
		return
	}

	if err = header.Validate(); err != nil {
		return
	}

	if err = validatePayloadLength(header, a); err != nil {
		return
	}

	decoded.Network, _ = header.Network()
	decoded.Type, _ = header.Type()

	body := []byte(a[1:])

	credential := func(kind CredentialKind, hash []byte) *Credential {
		return &Credential{Kind: kind, Hash: append(HexBytes{}, hash...)}
	}

	switch decoded.Type {
	case AddressTypePaymentAndStake:
		decoded.Payment = credential(CredentialKeyHash, body[:KeyHashLength])
		decoded.Stake = credential(CredentialKeyHash, body[KeyHashLength:])
	case AddressTypeScriptAndStake:
		decoded.Payment = credential(CredentialScriptHash, body[:KeyHashLength])
		decoded.Stake = credential(CredentialKeyHash, body[KeyHashLength:])
	case AddressTypePaymentAndScript:
		decoded.Payment = credential(CredentialKeyHash, body[:KeyHashLength])
		decoded.Stake = credential(CredentialScriptHash, body[KeyHashLength:])
	case AddressTypeScriptAndScript:
		decoded.Payment = credential(CredentialScriptHash, body[:KeyHashLength])
		decoded.Stake = credential(CredentialScriptHash, body[KeyHashLength:])
	case AddressTypePaymentAndPointer, AddressTypeScriptAndPointer:
		kind := CredentialKeyHash
		if decoded.Type == AddressTypeScriptAndPointer {
			kind = CredentialScriptHash
		}
		decoded.Payment = credential(kind, body[:KeyHashLength])
		pointer, parseErr := parsePointer(body[KeyHashLength:])
		if parseErr != nil {
			err = parseErr
			return
		}
		decoded.Pointer = &pointer
	case AddressTypePayment:
		decoded.Payment = credential(CredentialKeyHash, body)
	case AddressTypeScript:
		decoded.Payment = credential(CredentialScriptHash, body)
	case AddressTypeStakeReward:
		decoded.Stake = credential(CredentialKeyHash, body)
	case AddressTypeScriptReward:
		decoded.Stake = credential(CredentialScriptHash, body)
	}

	return
}

// ResolveStakeCredential returns the address's stake credential, consulting
// the resolver for pointer addresses. A nil resolver makes pointer addresses
// unresolvable rather than guessed at.
func (a Address) ResolveStakeCredential(resolver PointerResolver) (credential Credential, err error) {
	decoded, err := a.Decoded()
	if err != nil {
		return
	}

	if decoded.Stake != nil {
		credential = *decoded.Stake
		return
	}

	if decoded.Pointer == nil {
		err = errors.Errorf("address type '%s' carries no stake credential", decoded.Type)
		return
	}

	if resolver == nil {
		err = errors.WithStack(ErrPointerUnresolvable)
		return
	}

	return resolver.ResolvePointer(*decoded.Pointer)
}

const (
	AddressTypePaymentAndStake AddressType = iota
	AddressTypeScriptAndStake
	AddressTypePaymentAndScript
	AddressTypeScriptAndScript
	AddressTypePaymentAndPointer
	AddressTypeScriptAndPointer
	AddressTypePayment
	AddressTypeScript
	AddressTypeStakeReward
	AddressTypeScriptReward
)

type AddressType int

func (a AddressType) String() string {
	switch a {
	case AddressTypePaymentAndStake:
		return "payment and stake"
	case AddressTypeScriptAndStake:
		return "script and stake"
	case AddressTypePaymentAndScript:
		return "payment and script"
	case AddressTypeScriptAndScript:
		return "script and script"
	case AddressTypePaymentAndPointer:
		return "payment and pointer"
	case AddressTypeScriptAndPointer:
		return "script and pointer"
	case AddressTypePayment:
		return "payment"
	case AddressTypeScript:
		return "script"
	case AddressTypeStakeReward:
		return "stake reward"
	case AddressTypeScriptReward:
		return "script reward"
	default:
		return "invalid"
	}
}

// Reward returns true for the two stake-account address types, which carry
// the delegation bech32 prefix instead of the payment one.
func (a AddressType) Reward() bool {
	return a == AddressTypeStakeReward || a == AddressTypeScriptReward
}

func (a AddressType) Format() (format AddressFormat, err error) {
	for _, t := range AddressTypeMap {
		if t.Type == a {
			return t, nil
		}
	}
	err = errors.Errorf("invalid address type '%d'", a)
	return
}

type AddressFormat struct {
	Type       AddressType
	HeaderType AddressHeaderType
}

var AddressTypeMap = map[AddressType]AddressFormat{
	AddressTypePaymentAndStake: {
		Type:       AddressTypePaymentAndStake,
		HeaderType: AddressHeaderTypeStakePaymentKeyHash,
	},
	AddressTypeScriptAndStake: {
		Type:       AddressTypeScriptAndStake,
		HeaderType: AddressHeaderTypeStakeScriptHash,
	},
	AddressTypePaymentAndScript: {
		Type:       AddressTypePaymentAndScript,
		HeaderType: AddressHeaderTypeScriptPaymentKeyHash,
	},
	AddressTypeScriptAndScript: {
		Type:       AddressTypeScriptAndScript,
		HeaderType: AddressHeaderTypeScriptScriptHash,
	},
	AddressTypePaymentAndPointer: {
		Type:       AddressTypePaymentAndPointer,
		HeaderType: AddressHeaderTypePointerPaymentKeyHash,
	},
	AddressTypeScriptAndPointer: {
		Type:       AddressTypeScriptAndPointer,
		HeaderType: AddressHeaderTypePointerScriptHash,
	},
	AddressTypePayment: {
		Type:       AddressTypePayment,
		HeaderType: AddressHeaderTypePaymentKeyHash,
	},
	AddressTypeScript: {
		Type:       AddressTypeScript,
		HeaderType: AddressHeaderTypeScriptHash,
	},
	AddressTypeStakeReward: {
		Type:       AddressTypeStakeReward,
		HeaderType: AddressHeaderTypeStakeRewardHash,
	},
	AddressTypeScriptReward: {
		Type:       AddressTypeScriptReward,
		HeaderType: AddressHeaderTypeScriptRewardHash,
	},
}

var (
	AddressHeaderTypeStakePaymentKeyHash   AddressHeaderType = [4]byte{0, 0, 0, 0}
	AddressHeaderTypeStakeScriptHash       AddressHeaderType = [4]byte{0, 0, 0, 1}
	AddressHeaderTypeScriptPaymentKeyHash  AddressHeaderType = [4]byte{0, 0, 1, 0}
	AddressHeaderTypeScriptScriptHash      AddressHeaderType = [4]byte{0, 0, 1, 1}
	AddressHeaderTypePointerPaymentKeyHash AddressHeaderType = [4]byte{0, 1, 0, 0}
	AddressHeaderTypePointerScriptHash     AddressHeaderType = [4]byte{0, 1, 0, 1}
	AddressHeaderTypePaymentKeyHash        AddressHeaderType = [4]byte{0, 1, 1, 0}
	AddressHeaderTypeScriptHash            AddressHeaderType = [4]byte{0, 1, 1, 1}
	AddressHeaderTypeStakeRewardHash       AddressHeaderType = [4]byte{1, 1, 1, 0}
	AddressHeaderTypeScriptRewardHash      AddressHeaderType = [4]byte{1, 1, 1, 1}

	AddressHeaderNetworkTestnet AddressHeaderNetwork = [4]byte{0, 0, 0, 0}
	AddressHeaderNetworkMainnet AddressHeaderNetwork = [4]byte{0, 0, 0, 1}
)

type (
	AddressHeader        byte
	AddressHeaderType    [4]byte
	AddressHeaderNetwork [4]byte
)

func (a AddressHeaderNetwork) String() string {
	switch a {
	case AddressHeaderNetworkTestnet:
		return "testnet"
	case AddressHeaderNetworkMainnet:
		return "mainnet"
	default:
		return "unknown"
	}
}

func (a AddressHeader) toBytes() (extracted [8]byte) {
	for i := 0; i < 8; i++ {
		if a&(1<<i) > 0 {
			extracted[7-i] = 1
		}
	}
	return
}

func (a *AddressHeader) fromBytes(bitAsBytes [8]byte) {
	x := byte(0)
	for i := 0; i < 8; i++ {
		if bitAsBytes[7-i] > 0 {
			x |= 1 << i
		}
	}
	*a = AddressHeader(x)
}

func (a AddressHeader) String() string {
	typ, err := a.Type()
	if err != nil {
		return fmt.Sprintf("%08b (invalid)", a)
	}
	network, err := a.Network()
	if err != nil {
		return fmt.Sprintf("%08b (invalid)", a)
	}
	return fmt.Sprintf("%s/%s | 0x%x | %08b", typ, network, byte(a), a)
}

func (a AddressHeader) Network() (network AddressHeaderNetwork, err error) {
	header := a.toBytes()
	for _, n := range []AddressHeaderNetwork{
		AddressHeaderNetworkMainnet,
		AddressHeaderNetworkTestnet,
	} {
		if bytes.HasSuffix(header[:], n[:]) {
			return n, nil
		}
	}
	err = errors.Errorf("invalid network bits in address header: %08b", a)
	return
}

func (a AddressHeader) Validate() (err error) {
	if _, networkErr := a.Network(); networkErr != nil {
		return networkErr
	}
	if _, typeErr := a.Type(); typeErr != nil {
		return typeErr
	}
	return
}

func (a AddressHeader) Valid() bool {
	return a.Validate() == nil
}

func (a AddressHeader) Type() (typ AddressType, err error) {
	header := a.toBytes()
	for _, t := range AddressTypeMap {
		if bytes.HasPrefix(header[:], t.HeaderType[:]) {
			return t.Type, nil
		}
	}
	err = errors.Errorf("invalid type bits in address header: %08b", a)
	return
}

func (a AddressHeader) Format() (format AddressFormat, err error) {
	typ, err := a.Type()
	if err != nil {
		return
	}
	return typ.Format()
}

// Prefix returns the exact bech32 human-readable prefix for this header.
func (a AddressHeader) Prefix() (prefix string, err error) {
	typ, err := a.Type()
	if err != nil {
		return
	}

	network, err := a.Network()
	if err != nil {
		return
	}

	params := &PreProdParams
	if network == AddressHeaderNetworkMainnet {
		params = &MainNetParams
	}

	prefix = params.AddressPrefix
	if typ.Reward() {
		prefix = params.DelegationPrefix
	}
	return
}

func (a *AddressHeader) SetType(headerType AddressHeaderType) {
	b := a.toBytes()
	a.fromBytes([8]byte(append(headerType[:], b[4:]...)))
}

func (a *AddressHeader) SetNetwork(network AddressHeaderNetwork) {
	b := a.toBytes()
	a.fromBytes([8]byte(append(b[:4], network[:]...)))
}
