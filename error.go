package cardano

import (
	"fmt"
	"strings"
)

var (
	ErrInvalidRecoveryPhrase   = fmt.Errorf("invalid recovery phrase")
	ErrInvalidDerivationIndex  = fmt.Errorf("invalid derivation index")
	ErrInvalidAddress          = fmt.Errorf("invalid address")
	ErrByronAddressUnsupported = fmt.Errorf("byron era addresses are not supported")
	ErrInvalidKeyLength        = fmt.Errorf("invalid key length")
	ErrNotEnoughFunds          = fmt.Errorf("not enough funds")
	ErrMissingAssets           = fmt.Errorf("missing required assets")
	ErrSelectionLimit          = fmt.Errorf("input selection limit reached")
	ErrUnableToBalance         = fmt.Errorf("unable to balance transaction")
	ErrInvalidCertificates     = fmt.Errorf("invalid certificate sequence")
	ErrTransactionTooLarge     = fmt.Errorf("transaction exceeds maximum size")
	ErrBuilderState            = fmt.Errorf("builder operation out of sequence")
	ErrSignatureInvalid        = fmt.Errorf("signature verification failed")
	ErrPointerUnresolvable     = fmt.Errorf("pointer address cannot be resolved locally")
)

// InsufficientFundsError reports the exact shortfall so callers can surface
// required vs available amounts without re-running selection.
type InsufficientFundsError struct {
	Required  uint64
	Available uint64
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"%s: required %d lovelace, available %d lovelace",
		ErrNotEnoughFunds, e.Required, e.Available)
}

func (e InsufficientFundsError) Unwrap() error {
	return ErrNotEnoughFunds
}

func (e InsufficientFundsError) Shortfall() uint64 {
	return e.Required - e.Available
}

type SelectionLimitError struct {
	Limit    int
	Required uint64
	Selected uint64
}

func (e SelectionLimitError) Error() string {
	return fmt.Sprintf(
		"%s: %d inputs cover %d of %d lovelace",
		ErrSelectionLimit, e.Limit, e.Selected, e.Required)
}

func (e SelectionLimitError) Unwrap() error {
	return ErrSelectionLimit
}

// MissingAssetsError lists every required asset the available UTXO set could
// not cover, keyed by "policyIdHex.assetNameHex".
type MissingAssetsError struct {
	Missing map[string]uint64
}

func (e MissingAssetsError) Error() string {
	ids := make([]string, 0, len(e.Missing))
	for id, quantity := range e.Missing {
		ids = append(ids, fmt.Sprintf("%s (short %d)", id, quantity))
	}
	return fmt.Sprintf("%s: %s", ErrMissingAssets, strings.Join(ids, ", "))
}

func (e MissingAssetsError) Unwrap() error {
	return ErrMissingAssets
}

type CertificateSequenceError struct {
	Reason string
}

func (e CertificateSequenceError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidCertificates, e.Reason)
}

func (e CertificateSequenceError) Unwrap() error {
	return ErrInvalidCertificates
}

type AddressDecodeError struct {
	Input  string
	Reason string
}

func (e AddressDecodeError) Error() string {
	return fmt.Sprintf("%s: '%s': %s", ErrInvalidAddress, e.Input, e.Reason)
}

func (e AddressDecodeError) Unwrap() error {
	return ErrInvalidAddress
}
