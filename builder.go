package cardano

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// envelopeOverhead covers the outer array and witness-set framing bytes that
// sit around the body in the broadcast encoding.
const envelopeOverhead = 12

const defaultBalanceIterations = 8

type BuilderState int

const (
	BuilderEmpty BuilderState = iota
	BuilderInputsAdded
	BuilderOutputsAdded
	BuilderFinalized
	BuilderSigned
)

func (s BuilderState) String() string {
	switch s {
	case BuilderEmpty:
		return "empty"
	case BuilderInputsAdded:
		return "inputs added"
	case BuilderOutputsAdded:
		return "outputs added"
	case BuilderFinalized:
		return "finalized"
	case BuilderSigned:
		return "signed"
	default:
		return "invalid"
	}
}

type BuildOptions struct {
	Ttl          uint64
	Metadata     AuxiliaryData
	Certificates []Certificate
	// Withdrawals maps bech32 reward addresses to the lovelace being drawn
	// from them.
	Withdrawals map[string]uint64
	Params      *ProtocolParameters
	// MaxIterations caps the select -> fee -> change loop.
	MaxIterations int
}

func (o *BuildOptions) setDefaults() {
	if o.Params == nil {
		params := DefaultProtocolParameters()
		o.Params = &params
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = defaultBalanceIterations
	}
}

// TxBuilder assembles one transaction. It moves strictly forward through
// empty -> inputs added -> outputs added -> finalized -> signed; any call out
// of sequence fails rather than silently reordering.
type TxBuilder struct {
	state         BuilderState
	available     []UTXO
	outputs       []TxOutput
	changeAddress Address
	options       BuildOptions
	unsigned      UnsignedTransaction
	signed        SignedTransaction
}

func NewTxBuilder(options *BuildOptions) *TxBuilder {
	if options == nil {
		options = &BuildOptions{}
	}
	options.setDefaults()
	return &TxBuilder{options: *options}
}

func (b *TxBuilder) State() BuilderState {
	return b.state
}

func (b *TxBuilder) expect(states ...BuilderState) error {
	for _, state := range states {
		if b.state == state {
			return nil
		}
	}
	return errors.Wrapf(ErrBuilderState, "in state '%s'", b.state)
}

// AddInputs registers spendable UTXOs; selection decides which are used.
func (b *TxBuilder) AddInputs(utxos ...UTXO) (err error) {
	if err = b.expect(BuilderEmpty, BuilderInputsAdded); err != nil {
		return
	}

	for _, utxo := range utxos {
		if err = utxo.Validate(); err != nil {
			return
		}
	}

	b.available = append(b.available, utxos...)
	b.state = BuilderInputsAdded
	return
}

func (b *TxBuilder) AddOutput(output TxOutput) (err error) {
	if err = b.expect(BuilderInputsAdded, BuilderOutputsAdded); err != nil {
		return
	}

	if _, err = output.Address.Header(); err != nil {
		return
	}

	b.outputs = append(b.outputs, output)
	b.state = BuilderOutputsAdded
	return
}

func (b *TxBuilder) SetChangeAddress(address Address) (err error) {
	header, err := address.Header()
	if err != nil {
		return
	}
	if err = header.Validate(); err != nil {
		return
	}
	b.changeAddress = address
	return
}

// Build balances and finalizes the transaction. On success the builder holds
// an immutable unsigned transaction; on failure no partial transaction
// escapes.
func (b *TxBuilder) Build() (unsigned UnsignedTransaction, err error) {
	if err = b.expect(BuilderOutputsAdded); err != nil {
		return
	}

	unsigned, err = BuildTransaction(b.available, b.outputs, b.changeAddress, &b.options)
	if err != nil {
		return
	}

	b.unsigned = unsigned
	b.state = BuilderFinalized
	return
}

func (b *TxBuilder) Sign(pair KeyPair) (signed SignedTransaction, err error) {
	if err = b.expect(BuilderFinalized, BuilderSigned); err != nil {
		return
	}

	if b.state == BuilderFinalized {
		b.signed, err = Sign(b.unsigned, pair)
	} else {
		err = b.signed.AddSignature(pair)
	}
	if err != nil {
		return
	}

	b.state = BuilderSigned
	signed = b.signed
	return
}

// BuildTransaction selects inputs for the requested outputs, prices the fee
// from the actual encoding, routes surplus into a change output when it
// clears the minimum UTXO, and iterates until the fee stabilizes.
func BuildTransaction(available []UTXO, outputs []TxOutput, changeAddress Address, options *BuildOptions) (unsigned UnsignedTransaction, err error) {
	if options == nil {
		options = &BuildOptions{}
	}
	options.setDefaults()
	params := *options.Params

	if len(outputs) == 0 {
		err = errors.New("transaction requires at least one output")
		return
	}

	if err = validateCertificateSequence(options.Certificates); err != nil {
		return
	}

	withdrawals, withdrawalTotal, err := buildWithdrawals(options.Withdrawals)
	if err != nil {
		return
	}

	var outputsTotal uint64
	requiredAssets := MultiAsset{}
	for _, output := range outputs {
		minimum, minErr := MinimumUtxo(params, output)
		if minErr != nil {
			err = minErr
			return
		}
		if output.Value.Coin < minimum {
			err = errors.Wrapf(ErrUnableToBalance,
				"output of %d lovelace is below the minimum of %d",
				output.Value.Coin, minimum)
			return
		}
		outputsTotal += output.Value.Coin
		for policy, assets := range output.Value.Assets {
			for name, quantity := range assets {
				requiredAssets = requiredAssets.Add(policy, name, quantity)
			}
		}
	}

	deposit, refund := certificateDeposits(options.Certificates, params)

	var aux AuxiliaryData
	var auxHash HexBytes
	if len(options.Metadata) > 0 {
		aux = options.Metadata
		if auxHash, err = aux.Hash(); err != nil {
			return
		}
	}

	certs := certificateList(options.Certificates)
	if len(certs) == 0 {
		certs = nil
	}

	// Seed the loop with a structural estimate, then re-price against the
	// real encoding until the two agree.
	fee := EstimateFeeStructural(params, 1, len(outputs)+1, 2)

	for iteration := 0; iteration < options.MaxIterations; iteration++ {
		spend := outputsTotal + fee + deposit
		credit := withdrawalTotal + refund

		var target uint64
		if spend > credit {
			target = spend - credit
		}

		selection, selectErr := SelectWithAssets(available, target, requiredAssets)
		if selectErr != nil {
			err = selectErr
			return
		}

		// The ledger rejects input-less transactions. When refunds or
		// withdrawals already cover the spend, one input must still be
		// consumed.
		if len(selection.Selected) == 0 {
			forced, forceErr := SelectWithLimit(available, 1, 1)
			if forceErr != nil {
				err = forceErr
				return
			}
			selection.Selected = forced.Selected
			selection.Total = forced.Total
		}

		body := TransactionBody{
			Outputs:      append([]TxOutput{}, outputs...),
			Fee:          fee,
			Ttl:          options.Ttl,
			Certificates: certs,
			Withdrawals:  withdrawals,
			AuxDataHash:  auxHash,
		}
		for _, utxo := range selection.Selected {
			body.Inputs = append(body.Inputs, TxInput{
				TxHash: utxo.TxHash,
				Index:  utxo.Index,
			})
		}

		surplus := selection.Total + credit - outputsTotal - fee - deposit
		changeAssets := surplusAssets(selection.Selected, requiredAssets)

		if surplus > 0 || !changeAssets.Empty() {
			if len(changeAddress) == 0 {
				err = errors.Wrap(ErrUnableToBalance, "change required but no change address given")
				return
			}

			changeOutput := TxOutput{
				Address: changeAddress,
				Value:   Value{Coin: surplus, Assets: changeAssets},
			}

			minimum, minErr := MinimumUtxo(params, changeOutput)
			if minErr != nil {
				err = minErr
				return
			}

			switch {
			case surplus >= minimum:
				body.Outputs = append(body.Outputs, changeOutput)
			case changeAssets.Empty():
				// Surplus too small for an output of its own: pay it into
				// the fee instead.
				body.Fee += surplus
			default:
				err = errors.Wrapf(ErrUnableToBalance,
					"change of %d lovelace cannot carry surplus assets (minimum %d)",
					surplus, minimum)
				return
			}
		}

		bodyBytes, encodeErr := body.Bytes()
		if encodeErr != nil {
			err = encodeErr
			return
		}

		witnesses := estimateWitnessCount(selection.Selected, options)
		txSize := uint64(len(bodyBytes)) +
			uint64(witnesses)*estimatedWitnessSize + envelopeOverhead

		if txSize > params.MaxTxSize {
			err = errors.Wrapf(ErrTransactionTooLarge,
				"%d bytes exceeds the %d byte limit", txSize, params.MaxTxSize)
			return
		}

		requiredFee := EstimateFee(params, txSize)
		if requiredFee <= fee {
			return NewUnsignedTransaction(body, aux)
		}

		fee = requiredFee
	}

	err = errors.Wrapf(ErrUnableToBalance,
		"fee did not stabilize within %d iterations", options.MaxIterations)
	return
}

func buildWithdrawals(requested map[string]uint64) (withdrawals map[cbor.ByteString]uint64, total uint64, err error) {
	if len(requested) == 0 {
		return
	}

	withdrawals = map[cbor.ByteString]uint64{}
	for encoded, amount := range requested {
		address, decodeErr := DecodeAddress(encoded)
		if decodeErr != nil {
			err = decodeErr
			return
		}

		typ, typErr := address.Type()
		if typErr != nil {
			err = typErr
			return
		}
		if !typ.Reward() {
			err = errors.Errorf(
				"withdrawal address '%s' is not a reward address", encoded)
			return
		}

		withdrawals[cbor.ByteString(address.Bytes())] = amount
		total += amount
	}
	return
}

// certificateDeposits totals the key deposits the transaction must pay
// (registrations) and the refunds it receives (deregistrations).
func certificateDeposits(certificates []Certificate, params ProtocolParameters) (deposit, refund uint64) {
	for _, certificate := range certificates {
		switch certificate.Kind() {
		case CertStakeRegistration:
			deposit += params.KeyDeposit
		case CertStakeDeregistration:
			refund += params.KeyDeposit
		}
	}
	return
}

// surplusAssets computes the assets arriving on selected inputs beyond what
// the outputs consume; they must ride the change output.
func surplusAssets(selected []UTXO, consumed MultiAsset) MultiAsset {
	incoming := MultiAsset{}
	for _, utxo := range selected {
		for policy, assets := range utxo.Assets {
			for name, quantity := range assets {
				incoming = incoming.Add(policy, name, quantity)
			}
		}
	}

	surplus := MultiAsset{}
	for policy, assets := range incoming {
		for name, quantity := range assets {
			if used := consumed.Quantity(policy, name); quantity > used {
				surplus = surplus.Add(policy, name, quantity-used)
			}
		}
	}

	if surplus.Empty() {
		return nil
	}
	return surplus
}

// estimateWitnessCount counts the distinct payment addresses among the
// inputs, plus one stake witness when certificates or withdrawals are
// present.
func estimateWitnessCount(selected []UTXO, options *BuildOptions) int {
	distinct := map[string]struct{}{}
	for _, utxo := range selected {
		distinct[string(utxo.Address)] = struct{}{}
	}

	count := len(distinct)
	if count == 0 {
		count = 1
	}
	if len(options.Certificates) > 0 || len(options.Withdrawals) > 0 {
		count++
	}
	return count
}
