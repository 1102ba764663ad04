package cardano

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

type TxInput struct {
	_      struct{} `cbor:",toarray"`
	TxHash HexBytes `json:"txHash"`
	Index  uint32   `json:"index"`
}

type TxOutput struct {
	Address Address `json:"address"`
	Value   Value   `json:"value"`
}

func (o TxOutput) MarshalCBOR() ([]byte, error) {
	return CanonicalCborEncoder.Marshal([]interface{}{[]byte(o.Address), o.Value})
}

func (o *TxOutput) UnmarshalCBOR(data []byte) (err error) {
	var raw struct {
		_       struct{} `cbor:",toarray"`
		Address []byte
		Value   Value
	}
	if err = StandardCborDecoder.Unmarshal(data, &raw); err != nil {
		return errors.WithStack(err)
	}
	o.Address = raw.Address
	o.Value = raw.Value
	return
}

// certificateList encodes the closed certificate union into its wire arrays.
type certificateList []Certificate

func (l certificateList) MarshalCBOR() ([]byte, error) {
	arr := make([]interface{}, len(l))
	for i, certificate := range l {
		encoded, err := certificate.certificateCbor()
		if err != nil {
			return nil, err
		}
		arr[i] = encoded
	}
	return CanonicalCborEncoder.Marshal(arr)
}

// TransactionBody is the canonical body map. Keys follow the ledger CDDL;
// hashing and signing are computed over this struct's deterministic encoding.
type TransactionBody struct {
	Inputs       []TxInput                  `cbor:"0,keyasint" json:"inputs"`
	Outputs      []TxOutput                 `cbor:"1,keyasint" json:"outputs"`
	Fee          uint64                     `cbor:"2,keyasint" json:"fee"`
	Ttl          uint64                     `cbor:"3,keyasint,omitempty" json:"ttl,omitempty"`
	Certificates certificateList            `cbor:"4,keyasint,omitempty" json:"certificates,omitempty"`
	Withdrawals  map[cbor.ByteString]uint64 `cbor:"5,keyasint,omitempty" json:"withdrawals,omitempty"`
	AuxDataHash  HexBytes                   `cbor:"7,keyasint,omitempty" json:"auxDataHash,omitempty"`
}

func (b TransactionBody) Bytes() (encoded []byte, err error) {
	encoded, err = CanonicalCborEncoder.Marshal(b)
	if err != nil {
		err = errors.Wrap(err, "failed to encode transaction body")
	}
	return
}

func (b TransactionBody) Hash() (hash HexBytes, err error) {
	encoded, err := b.Bytes()
	if err != nil {
		return
	}
	return Blake2bSum256(encoded)
}

type VKeyWitness struct {
	_         struct{} `cbor:",toarray"`
	VKey      HexBytes `json:"vkey"`
	Signature HexBytes `json:"signature"`
}

type WitnessSet struct {
	VKeys []VKeyWitness `cbor:"0,keyasint,omitempty" json:"vkeys,omitempty"`
}

// AuxiliaryData is transaction metadata in its simple label -> metadatum map
// form.
type AuxiliaryData map[uint64]interface{}

func (a AuxiliaryData) Bytes() (encoded []byte, err error) {
	encoded, err = CanonicalCborEncoder.Marshal(map[uint64]interface{}(a))
	if err != nil {
		err = errors.Wrap(err, "failed to encode auxiliary data")
	}
	return
}

func (a AuxiliaryData) Hash() (hash HexBytes, err error) {
	encoded, err := a.Bytes()
	if err != nil {
		return
	}
	return Blake2bSum256(encoded)
}

// UnsignedTransaction freezes the body encoding at construction. The hash,
// every signature, and the final envelope all refer to these exact bytes;
// nothing mutates them afterwards.
type UnsignedTransaction struct {
	Body TransactionBody
	Aux  AuxiliaryData

	bodyBytes []byte
	hash      HexBytes
}

func NewUnsignedTransaction(body TransactionBody, aux AuxiliaryData) (unsigned UnsignedTransaction, err error) {
	bodyBytes, err := body.Bytes()
	if err != nil {
		return
	}

	hash, err := Blake2bSum256(bodyBytes)
	if err != nil {
		return
	}

	unsigned = UnsignedTransaction{
		Body:      body,
		Aux:       aux,
		bodyBytes: bodyBytes,
		hash:      hash,
	}
	return
}

// Bytes returns a copy of the frozen canonical body encoding.
func (u UnsignedTransaction) Bytes() []byte {
	return append([]byte{}, u.bodyBytes...)
}

// Hash is the blake2b-256 digest of the canonical body encoding: the id the
// network will know this transaction by, and the message every witness signs.
func (u UnsignedTransaction) Hash() HexBytes {
	return append(HexBytes{}, u.hash...)
}

type SignedTransaction struct {
	Unsigned   UnsignedTransaction
	WitnessSet WitnessSet
}

func (t SignedTransaction) Hash() HexBytes {
	return t.Unsigned.Hash()
}

// Bytes encodes the broadcast envelope [body, witnesses, valid, aux]. The
// body bytes are spliced in verbatim so the encoded form always matches what
// was hashed and signed.
func (t SignedTransaction) Bytes() (encoded []byte, err error) {
	if len(t.Unsigned.bodyBytes) == 0 {
		err = errors.New("signed transaction has no frozen body encoding")
		return
	}

	var aux interface{}
	if len(t.Unsigned.Aux) > 0 {
		auxBytes, auxErr := t.Unsigned.Aux.Bytes()
		if auxErr != nil {
			err = auxErr
			return
		}
		aux = cbor.RawMessage(auxBytes)
	}

	encoded, err = CanonicalCborEncoder.Marshal([]interface{}{
		cbor.RawMessage(t.Unsigned.bodyBytes),
		t.WitnessSet,
		true,
		aux,
	})
	if err != nil {
		err = errors.Wrap(err, "failed to encode signed transaction")
	}
	return
}
