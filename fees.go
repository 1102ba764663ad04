package cardano

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	// DefaultParameterTTL is how long a fetched parameter bundle stays fresh.
	DefaultParameterTTL = 30 * time.Minute

	// DefaultFetchTimeout bounds the single best-effort parameter fetch.
	DefaultFetchTimeout = 10 * time.Second

	// MinUtxoLovelaceFloor is the network floor below which no output may
	// fall regardless of its encoded size.
	MinUtxoLovelaceFloor = 1_000_000

	// utxoEntryOverhead is the ledger's fixed per-output byte overhead added
	// on top of the serialized output when pricing minimum UTXO values.
	utxoEntryOverhead = 160
)

// Structural size estimates for a transaction that has not been built yet.
// They intentionally round up: a structural estimate must never undershoot
// the fee of the transaction it predicts.
const (
	estimatedTxOverhead  = 180
	estimatedInputSize   = 44
	estimatedOutputSize  = 70
	estimatedWitnessSize = 102
)

// Estimator computes fees and minimum-UTXO values from protocol parameters.
// Each estimator owns its parameter cache; there is no process-wide state.
type Estimator struct {
	Source       ParameterSource
	Store        *ParameterStore
	TTL          time.Duration
	FetchTimeout time.Duration
}

func NewEstimator(source ParameterSource) *Estimator {
	return &Estimator{
		Source:       source,
		Store:        NewParameterStore(),
		TTL:          DefaultParameterTTL,
		FetchTimeout: DefaultFetchTimeout,
	}
}

// CurrentParameters returns the freshest bundle available: a live cache hit,
// then one bounded fetch attempt, then the offline defaults. It never blocks
// beyond the fetch timeout and never fails.
func (e *Estimator) CurrentParameters(ctx context.Context) ProtocolParameters {
	if e.Store == nil {
		e.Store = NewParameterStore()
	}

	ttl := e.TTL
	if ttl == 0 {
		ttl = DefaultParameterTTL
	}

	if e.Store.Fresh(ttl) {
		params, _, _ := e.Store.Get()
		return params
	}

	if e.Source != nil {
		timeout := e.FetchTimeout
		if timeout == 0 {
			timeout = DefaultFetchTimeout
		}

		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		params, err := e.Source.FetchParameters(fetchCtx)
		if err == nil {
			e.Store.Set(params)
			return params
		}

		log.Warn().Msgf("parameter fetch failed, falling back: %v", err)
	}

	// A stale cached value still beats the static defaults.
	if params, _, ok := e.Store.Get(); ok {
		return params
	}

	return DefaultProtocolParameters()
}

// EstimateFee computes the linear fee for a transaction of the given encoded
// byte size. Integer arithmetic only.
func EstimateFee(params ProtocolParameters, sizeBytes uint64) uint64 {
	return params.MinFeeB + params.MinFeeA*sizeBytes
}

// EstimateFeeStructural predicts the fee of a transaction that has not been
// encoded yet from its planned shape. Adding inputs, outputs or witnesses
// never lowers the estimate.
func EstimateFeeStructural(params ProtocolParameters, inputs, outputs, witnesses int) uint64 {
	size := uint64(estimatedTxOverhead) +
		uint64(inputs)*estimatedInputSize +
		uint64(outputs)*estimatedOutputSize +
		uint64(witnesses)*estimatedWitnessSize
	return EstimateFee(params, size)
}

// MinimumUtxo prices the smallest amount the output may carry. The size term
// uses the output's actual canonical encoding, so attached assets and
// metadata grow the requirement.
func MinimumUtxo(params ProtocolParameters, output TxOutput) (minimum uint64, err error) {
	encoded, err := CanonicalCborEncoder.Marshal(output)
	if err != nil {
		err = errors.Wrap(err, "failed to encode output for minimum utxo sizing")
		return
	}

	minimum = params.CoinsPerUtxoByte * (utxoEntryOverhead + uint64(len(encoded)))
	if minimum < MinUtxoLovelaceFloor {
		minimum = MinUtxoLovelaceFloor
	}
	return
}

// FeeTiers is a display band around a computed fee: low is -20%, high is
// +50%. Low <= Medium <= High holds for every input by construction.
type FeeTiers struct {
	Low    uint64 `json:"low"`
	Medium uint64 `json:"medium"`
	High   uint64 `json:"high"`
}

func EstimateFeeTiers(fee uint64) FeeTiers {
	return FeeTiers{
		Low:    fee - fee/5,
		Medium: fee,
		High:   fee + fee/2,
	}
}

// DisplayAda renders a tier in the display unit. This is the only outward
// conversion; all fee computation stays in integer lovelace.
func (t FeeTiers) DisplayAda() (low, medium, high decimal.Decimal) {
	return LovelaceToAda(t.Low), LovelaceToAda(t.Medium), LovelaceToAda(t.High)
}
