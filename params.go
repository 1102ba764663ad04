package cardano

import (
	"context"
	"sync"
	"time"
)

// ProtocolParameters is the slice of the ledger parameter bundle this package
// needs for fee and minimum-UTXO arithmetic. Field names follow the
// cardano-cli JSON output.
type ProtocolParameters struct {
	MinFeeA          uint64 `json:"txFeePerByte"`
	MinFeeB          uint64 `json:"txFeeFixed"`
	MaxTxSize        uint64 `json:"maxTxSize"`
	KeyDeposit       uint64 `json:"stakeAddressDeposit"`
	PoolDeposit      uint64 `json:"stakePoolDeposit"`
	CoinsPerUtxoByte uint64 `json:"utxoCostPerByte"`
	MaxValSize       uint64 `json:"maxValueSize"`
}

// DefaultProtocolParameters is the fixed offline bundle. Operating from it is
// a first-class mode: every computation in this package works without a
// network fetch ever having succeeded.
func DefaultProtocolParameters() ProtocolParameters {
	return ProtocolParameters{
		MinFeeA:          44,
		MinFeeB:          155381,
		MaxTxSize:        16384,
		KeyDeposit:       2_000_000,
		PoolDeposit:      500_000_000,
		CoinsPerUtxoByte: 4310,
		MaxValSize:       5000,
	}
}

// ParameterSource is the external collaborator that fetches live protocol
// parameters. Implementations must honour the context deadline; the
// estimator never retries a failed fetch within a call.
type ParameterSource interface {
	FetchParameters(ctx context.Context) (ProtocolParameters, error)
}

// UtxoSource yields the spendable outputs for an address. The returned slice
// is a read-only snapshot.
type UtxoSource interface {
	FetchUtxos(ctx context.Context, address Address) ([]UTXO, error)
}

// BroadcastSink accepts an encoded signed transaction and returns the
// transaction id the network assigned, or a delivery error.
type BroadcastSink interface {
	Broadcast(ctx context.Context, signedTx []byte) (txID string, err error)
}

// ParameterStore is a single-writer last-value cache. A fresh fetch replaces
// the cached value whole; readers only ever observe a fully-formed bundle.
type ParameterStore struct {
	mu        sync.RWMutex
	current   *ProtocolParameters
	fetchedAt time.Time
}

func NewParameterStore() *ParameterStore {
	return &ParameterStore{}
}

func (s *ParameterStore) Get() (params ProtocolParameters, fetchedAt time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return
	}

	return *s.current, s.fetchedAt, true
}

func (s *ParameterStore) Set(params ProtocolParameters) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = &params
	s.fetchedAt = time.Now()
}

// Fresh reports whether the cached bundle is younger than ttl.
func (s *ParameterStore) Fresh(ttl time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current != nil && time.Since(s.fetchedAt) < ttl
}
