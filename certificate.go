package cardano

import (
	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/pkg/errors"
)

type CertificateKind int

const (
	CertStakeRegistration CertificateKind = iota
	CertStakeDeregistration
	CertStakeDelegation
)

func (k CertificateKind) String() string {
	switch k {
	case CertStakeRegistration:
		return "stake registration"
	case CertStakeDeregistration:
		return "stake deregistration"
	case CertStakeDelegation:
		return "stake delegation"
	default:
		return "invalid"
	}
}

// Certificate is a closed union: every transaction kind that carries one of
// these matches exhaustively on Kind rather than probing optional fields.
type Certificate interface {
	Kind() CertificateKind
	Validate() error
	certificateCbor() ([]interface{}, error)
}

type StakeRegistration struct {
	Stake Credential
}

func (c StakeRegistration) Kind() CertificateKind {
	return CertStakeRegistration
}

func (c StakeRegistration) Validate() error {
	return c.Stake.Validate()
}

func (c StakeRegistration) certificateCbor() ([]interface{}, error) {
	return []interface{}{0, credentialCbor(c.Stake)}, nil
}

type StakeDeregistration struct {
	Stake Credential
}

func (c StakeDeregistration) Kind() CertificateKind {
	return CertStakeDeregistration
}

func (c StakeDeregistration) Validate() error {
	return c.Stake.Validate()
}

func (c StakeDeregistration) certificateCbor() ([]interface{}, error) {
	return []interface{}{1, credentialCbor(c.Stake)}, nil
}

type StakeDelegation struct {
	Stake Credential
	Pool  HexBytes
}

func (c StakeDelegation) Kind() CertificateKind {
	return CertStakeDelegation
}

func (c StakeDelegation) Validate() (err error) {
	if err = c.Stake.Validate(); err != nil {
		return
	}
	if len(c.Pool) != KeyHashLength {
		err = errors.Errorf("expected %d byte pool key hash, got %d",
			KeyHashLength, len(c.Pool))
	}
	return
}

func (c StakeDelegation) certificateCbor() ([]interface{}, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return []interface{}{2, credentialCbor(c.Stake), []byte(c.Pool)}, nil
}

func credentialCbor(c Credential) []interface{} {
	kind := 0
	if c.Kind == CredentialScriptHash {
		kind = 1
	}
	return []interface{}{kind, []byte(c.Hash)}
}

// ParsePoolID decodes a bech32 "pool1..." identifier into its 28-byte key
// hash.
func ParsePoolID(poolID string) (hash HexBytes, err error) {
	prefix, data, err := bech32.DecodeAndConvert(poolID)
	if err != nil {
		err = errors.Errorf("invalid pool id '%s': %+v", poolID, err)
		return
	}

	if prefix != "pool" {
		err = errors.Errorf("invalid pool id prefix '%s'", prefix)
		return
	}

	if len(data) != KeyHashLength {
		err = errors.Errorf("expected %d byte pool key hash, got %d",
			KeyHashLength, len(data))
		return
	}

	hash = data
	return
}

// validateCertificateSequence enforces the structural rules the ledger
// applies: registration before delegation, registration and deregistration
// never together, one certificate of each kind at most.
func validateCertificateSequence(certificates []Certificate) (err error) {
	seen := map[CertificateKind]int{}
	position := map[CertificateKind]int{}

	for i, certificate := range certificates {
		if certificate == nil {
			return CertificateSequenceError{Reason: "nil certificate"}
		}
		if err = certificate.Validate(); err != nil {
			return
		}

		kind := certificate.Kind()
		if _, duplicate := seen[kind]; duplicate {
			return CertificateSequenceError{
				Reason: "duplicate " + kind.String() + " certificate",
			}
		}
		seen[kind] = 1
		position[kind] = i
	}

	_, hasRegistration := seen[CertStakeRegistration]
	_, hasDeregistration := seen[CertStakeDeregistration]
	_, hasDelegation := seen[CertStakeDelegation]

	if hasRegistration && hasDeregistration {
		return CertificateSequenceError{
			Reason: "registration and deregistration cannot share a transaction",
		}
	}

	if hasRegistration && hasDelegation &&
		position[CertStakeRegistration] > position[CertStakeDelegation] {
		return CertificateSequenceError{
			Reason: "stake registration must precede delegation",
		}
	}

	return
}
