package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"flag"
	"fmt"
	"strings"

	. "github.com/alexdcox/cardano-wallet-go"
	"github.com/fxamacker/cbor/v2"
)

var log = Log()

var (
	phrase  string
	key     string
	private bool
	account uint
	index   uint
)

func main() {
	flag.StringVar(&phrase, "phrase", "", "A recovery phrase to derive keys from")
	flag.StringVar(&key, "key", "", "An ed25519 public key as hex/cbor")
	flag.BoolVar(&private, "private", false, "Treat --key as a private ed25519 key instead")
	flag.UintVar(&account, "account", 0, "The account index")
	flag.UintVar(&index, "index", 0, "The address index")
	flag.Parse()

	switch {
	case phrase != "":
		buildFromPhrase()
	case key != "" && private:
		key = strings.Trim(key, " \"")
		if !attemptPrivateHex() {
			fmt.Println("invalid key")
		}
	case key != "":
		key = strings.Trim(key, " \"")
		if !attemptPublicCbor() && !attemptPublicHex() {
			fmt.Println("invalid key")
		}
	default:
		fmt.Println("usage: addr_build (--phrase WORDS [--account N] [--index N] | --key KEY [--private])")
	}
}

func buildFromPhrase() {
	if !ValidateRecoveryPhrase(phrase) {
		log.Fatal().Msg("invalid recovery phrase")
	}

	payment, err := DerivePaymentKeyPair(phrase, "", uint32(account), uint32(index))
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}
	defer payment.Wipe()

	stake, err := DeriveStakeKeyPair(phrase, "", uint32(account))
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}
	defer stake.Wipe()

	fmt.Printf("payment vkey:      %x\n", payment.PublicKey)
	fmt.Printf("stake vkey:        %x\n", stake.PublicKey)
	fmt.Println("")

	encodeAllNetworks(payment.PublicKey, stake.PublicKey)
}

func attemptPublicHex() bool {
	keyBytes, err := hex.DecodeString(key)
	if err != nil || len(keyBytes) != PublicKeyLength {
		return false
	}

	keyCbor, err := cbor.Marshal(keyBytes)
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	fmt.Println("key type:          public | hex")
	fmt.Printf("key cbor:          %x\n", keyCbor)
	fmt.Printf("key hex:           %x\n", keyBytes)

	encodeAllNetworks(keyBytes, nil)

	return true
}

func attemptPrivateHex() bool {
	keyBytes, err := hex.DecodeString(key)
	if err != nil {
		return false
	}

	privateKey := ed25519.PrivateKey(keyBytes)
	switch len(privateKey) {
	case 32:
		ExpandEd25519PrivateKey(&privateKey)
	case ed25519.PrivateKeySize:
	default:
		return false
	}
	defer SecureErase(privateKey[:32])

	publicKey := []byte(privateKey[32:])

	fmt.Println("key type:          private | hex")
	fmt.Printf("public key:        %x\n", publicKey)

	encodeAllNetworks(publicKey, nil)

	return true
}

func attemptPublicCbor() bool {
	keyCbor, err := hex.DecodeString(key)
	if err != nil {
		return false
	}

	var keyBytes []byte
	if err2 := cbor.Unmarshal(keyCbor, &keyBytes); err2 != nil {
		return false
	}

	if len(keyBytes) != PublicKeyLength {
		return false
	}

	fmt.Println("key type:          public | cbor")
	fmt.Printf("key hex:           %x\n", keyBytes)
	fmt.Printf("key cbor:          %x\n", keyCbor)

	encodeAllNetworks(keyBytes, nil)

	return true
}

func encodeAllNetworks(paymentKey, stakeKey []byte) {
	for _, net := range []Network{
		NetworkMainNet,
		NetworkPreProd,
	} {
		fmt.Printf("network:           %s\n", net)

		enterprise, err := EncodeAddress(paymentKey, net, AddressTypePayment)
		if err != nil {
			log.Fatal().Msgf("%+v", err)
		}
		printAddress("enterprise", enterprise)

		if stakeKey == nil {
			continue
		}

		paymentCred, err := NewKeyCredential(paymentKey)
		if err != nil {
			log.Fatal().Msgf("%+v", err)
		}
		stakeCred, err := NewKeyCredential(stakeKey)
		if err != nil {
			log.Fatal().Msgf("%+v", err)
		}

		base, err := NewBaseAddress(net, paymentCred, stakeCred)
		if err != nil {
			log.Fatal().Msgf("%+v", err)
		}
		printAddress("base", base)

		reward, err := NewRewardAddress(net, stakeCred)
		if err != nil {
			log.Fatal().Msgf("%+v", err)
		}
		printAddress("reward", reward)
	}
}

func printAddress(label string, addr Address) {
	encoded, err := addr.Bech32String()
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}
	fmt.Printf("  %-12s     %s\n", label, encoded)
}
