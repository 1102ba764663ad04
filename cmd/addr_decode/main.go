package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"strings"

	. "github.com/alexdcox/cardano-wallet-go"
	"github.com/fxamacker/cbor/v2"
)

var log = Log()

var (
	address  string
	cborData string
)

func main() {
	flag.StringVar(&address, "address", "", "The address to decode")
	flag.StringVar(&cborData, "cbor", "", "Hex-encoded CBOR to pretty-print (e.g. a transaction)")
	flag.Parse()

	switch {
	case address != "":
		decodeBech32Address()
	case cborData != "":
		printCbor()
	default:
		fmt.Println("usage: addr_decode (--address BECH32 | --cbor HEX)")
	}
}

func decodeBech32Address() {
	address = strings.Trim(address, " \"")

	fmt.Printf("\ndecoding address:  %s\n\n", address)

	decoded, err := DecodeAddress(address)
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	header, err := decoded.Header()
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	parts, err := decoded.Decoded()
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	fmt.Printf("addr header byte:  %s\n", header)
	fmt.Printf("addr (8-bit):      %x\n", decoded.Bytes())
	fmt.Printf("network:           %s\n", parts.Network)
	fmt.Printf("type:              %s\n", parts.Type)

	if parts.Payment != nil {
		fmt.Printf("payment cred:      %s (%s)\n", parts.Payment.Hash, parts.Payment.Kind)
	}
	if parts.Stake != nil {
		fmt.Printf("stake cred:        %s (%s)\n", parts.Stake.Hash, parts.Stake.Kind)
	}
	if parts.Pointer != nil {
		fmt.Printf("stake pointer:     slot %d, tx %d, cert %d\n",
			parts.Pointer.Slot, parts.Pointer.TxIndex, parts.Pointer.CertIndex)
	}
}

func printCbor() {
	raw, err := hex.DecodeString(strings.Trim(cborData, " \""))
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	diagnostic, err := cbor.Diagnose(raw)
	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	fmt.Println(IndentCbor(diagnostic))
}
