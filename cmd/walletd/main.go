package main

import (
	"github.com/kelseyhightower/envconfig"

	cardano "github.com/alexdcox/cardano-wallet-go"
	"github.com/alexdcox/cardano-wallet-go/paramclient"
)

var log = cardano.Log()

// Config is read from the environment with the WALLETD prefix, e.g.
// WALLETD_LISTEN, WALLETD_NETWORK, WALLETD_NODE_URL.
type Config struct {
	Listen  string `default:":3001"`
	Network string `default:"mainnet"`
	NodeURL string `envconfig:"NODE_URL"`
}

func main() {
	var config Config
	if err := envconfig.Process("walletd", &config); err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	network := cardano.Network(config.Network)
	if err := network.Validate(); err != nil {
		log.Fatal().Msgf("%+v", err)
	}

	var source cardano.ParameterSource
	if config.NodeURL != "" {
		client, err := paramclient.NewClient(config.NodeURL, network)
		if err != nil {
			log.Fatal().Msgf("%+v", err)
		}
		source = client
	} else {
		log.Info().Msg("no node url configured, operating on offline protocol parameters")
	}

	server := NewServer(&config, network, cardano.NewEstimator(source))
	if err := server.Start(); err != nil {
		log.Fatal().Msgf("%+v", err)
	}
}
