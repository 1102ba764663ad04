package cardano

import "github.com/pkg/errors"

func init() {
	MainNetParams.Name = NetworkMainNet
	MainNetParams.Magic = NetworkMagicMainNet
	MainNetParams.AddressPrefix = "addr"
	MainNetParams.DelegationPrefix = "stake"

	PreProdParams.Name = NetworkPreProd
	PreProdParams.Magic = NetworkMagicPreProd
	PreProdParams.AddressPrefix = "addr_test"
	PreProdParams.DelegationPrefix = "stake_test"

	PreviewParams.Name = NetworkPreview
	PreviewParams.Magic = NetworkMagicPreview
	PreviewParams.AddressPrefix = "addr_test"
	PreviewParams.DelegationPrefix = "stake_test"

	PrivateNetParams.Name = NetworkPrivateNet
	PrivateNetParams.Magic = NetworkMagicPrivateNet
	PrivateNetParams.AddressPrefix = "addr_test"
	PrivateNetParams.DelegationPrefix = "stake_test"
}

type NetworkParams struct {
	Name             Network
	Magic            NetworkMagic
	AddressPrefix    string
	DelegationPrefix string
}

var MainNetParams = NetworkParams{}
var PreProdParams = NetworkParams{}
var PreviewParams = NetworkParams{}
var PrivateNetParams = NetworkParams{}

const (
	NetworkMainNet    Network = "mainnet"
	NetworkPreProd    Network = "preprod"
	NetworkPreview    Network = "preview"
	NetworkPrivateNet Network = "privnet"
)

type Network string

func (n Network) Valid() bool {
	switch n {
	case NetworkMainNet, NetworkPreProd, NetworkPreview, NetworkPrivateNet:
		return true
	}
	return false
}

func (n Network) Validate() (err error) {
	if !n.Valid() {
		err = errors.Errorf("invalid network: '%s'", n)
	}
	return
}

func (n Network) Params() (params *NetworkParams, err error) {
	if err = n.Validate(); err != nil {
		return
	}

	switch n {
	case NetworkMainNet:
		return &MainNetParams, nil
	case NetworkPreProd:
		return &PreProdParams, nil
	case NetworkPreview:
		return &PreviewParams, nil
	case NetworkPrivateNet:
		return &PrivateNetParams, nil
	}

	return
}

// HeaderNetwork collapses the network onto the single bit carried in a CIP-19
// address header. Every non-mainnet network shares the testnet bit.
func (n Network) HeaderNetwork() (header AddressHeaderNetwork, err error) {
	if err = n.Validate(); err != nil {
		return
	}

	header = AddressHeaderNetworkTestnet
	if n == NetworkMainNet {
		header = AddressHeaderNetworkMainnet
	}
	return
}

type NetworkMagic uint64

const (
	NetworkMagicMainNet    NetworkMagic = 764824073
	NetworkMagicPreProd    NetworkMagic = 1
	NetworkMagicPreview    NetworkMagic = 2
	NetworkMagicPrivateNet NetworkMagic = 42
)
