// Package paramclient implements the wallet core's external collaborator
// interfaces over a plain HTTP node gateway: protocol parameter retrieval,
// UTXO queries and transaction broadcast.
package paramclient

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	cardano "github.com/alexdcox/cardano-wallet-go"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

func NewClient(hostPort string, network cardano.Network) (client *Client, err error) {
	if err = network.Validate(); err != nil {
		return
	}

	client = &Client{
		HostPort: hostPort,
		Network:  network,
	}
	return
}

type Client struct {
	HostPort string
	Network  cardano.Network
}

func (c *Client) req(ctx context.Context, method string, path string, body io.Reader) (out []byte, err error) {
	req, err2 := http.NewRequestWithContext(ctx, method, c.HostPort+path, body)
	if err2 != nil {
		err = errors.WithStack(err2)
		return
	}

	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	rsp, err := http.DefaultClient.Do(req)
	if err != nil {
		err = errors.WithStack(err)
		return
	}
	defer rsp.Body.Close()

	out, err = io.ReadAll(rsp.Body)
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	if rsp.Status[0] != '2' {
		err = errors.Errorf("gateway returned %s: %s", rsp.Status, out)
	}

	return
}

// FetchParameters probes the gateway's protocol-parameter JSON for the
// fields the fee arithmetic needs. Field names follow the cardano-cli query
// output.
func (c *Client) FetchParameters(ctx context.Context) (params cardano.ProtocolParameters, err error) {
	out, err := c.req(ctx, http.MethodGet, "/protocol-parameters", nil)
	if err != nil {
		return
	}

	jsn := gjson.ParseBytes(out)
	if !jsn.IsObject() {
		err = errors.Errorf("unexpected protocol parameter payload: %s", out)
		return
	}

	params = cardano.ProtocolParameters{
		MinFeeA:          jsn.Get("txFeePerByte").Uint(),
		MinFeeB:          jsn.Get("txFeeFixed").Uint(),
		MaxTxSize:        jsn.Get("maxTxSize").Uint(),
		KeyDeposit:       jsn.Get("stakeAddressDeposit").Uint(),
		PoolDeposit:      jsn.Get("stakePoolDeposit").Uint(),
		CoinsPerUtxoByte: jsn.Get("utxoCostPerByte").Uint(),
		MaxValSize:       jsn.Get("maxValueSize").Uint(),
	}

	if params.MinFeeA == 0 || params.MinFeeB == 0 {
		err = errors.Errorf("gateway returned incomplete fee parameters: %s", out)
	}

	return
}

// FetchUtxos parses the cardano-cli style utxo map keyed by "txhash#index".
func (c *Client) FetchUtxos(ctx context.Context, address cardano.Address) (utxos []cardano.UTXO, err error) {
	encoded, err := address.Bech32String()
	if err != nil {
		return
	}

	out, err := c.req(ctx, http.MethodGet, "/utxo/"+encoded, nil)
	if err != nil {
		return
	}

	jsn := gjson.ParseBytes(out)
	if !jsn.IsObject() {
		err = errors.Errorf("unexpected utxo payload: %s", out)
		return
	}

	jsn.ForEach(func(key, value gjson.Result) bool {
		txHash, index, splitErr := splitUtxoKey(key.String())
		if splitErr != nil {
			err = splitErr
			return false
		}

		utxo := cardano.UTXO{
			TxHash:  txHash,
			Index:   index,
			Amount:  value.Get("value.lovelace").Uint(),
			Address: address,
		}

		value.Get("value").ForEach(func(policy, assets gjson.Result) bool {
			if policy.String() == "lovelace" {
				return true
			}
			assets.ForEach(func(name, quantity gjson.Result) bool {
				utxo.Assets = utxo.Assets.Add(
					policy.String(), name.String(), quantity.Uint())
				return true
			})
			return true
		})

		utxos = append(utxos, utxo)
		return true
	})

	return
}

func splitUtxoKey(key string) (txHash cardano.HexBytes, index uint32, err error) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] != '#' {
			continue
		}

		hash, decodeErr := hex.DecodeString(key[:i])
		if decodeErr != nil {
			err = errors.Wrapf(decodeErr, "bad utxo key '%s'", key)
			return
		}

		parsed, parseErr := strconv.ParseUint(key[i+1:], 10, 32)
		if parseErr != nil {
			err = errors.Wrapf(parseErr, "bad utxo key '%s'", key)
			return
		}

		txHash = hash
		index = uint32(parsed)
		return
	}

	err = errors.Errorf("bad utxo key '%s'", key)
	return
}

// Broadcast submits the signed transaction bytes and returns the network's
// transaction id.
func (c *Client) Broadcast(ctx context.Context, signedTx []byte) (txID string, err error) {
	payload, err := json.Marshal(map[string]string{
		"tx": hex.EncodeToString(signedTx),
	})
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	out, err := c.req(ctx, http.MethodPost, "/submit", bytes.NewReader(payload))
	if err != nil {
		return
	}

	txID = gjson.ParseBytes(out).Get("txId").String()
	if txID == "" {
		err = errors.Errorf("gateway did not return a transaction id: %s", out)
	}
	return
}
