package main

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"

	cardano "github.com/alexdcox/cardano-wallet-go"
)

func NewServer(config *Config, network cardano.Network, estimator *cardano.Estimator) *Server {
	return &Server{
		config:    config,
		network:   network,
		estimator: estimator,
	}
}

type Server struct {
	app       *fiber.App
	config    *Config
	network   cardano.Network
	estimator *cardano.Estimator
}

func (s *Server) Start() (err error) {
	s.app = fiber.New(fiber.Config{
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
	})
	s.app.Use(recover.New())
	s.app.Use(func(c *fiber.Ctx) error {
		rsp := c.Next()
		log.Info().Msgf("http response: [%d] %s - %s %s", c.Response().StatusCode(), c.IP(), c.Method(), c.Path())
		return rsp
	})

	s.app.Post("/phrase/validate", s.postPhraseValidate)
	s.app.Post("/phrase/generate", s.postPhraseGenerate)
	s.app.Post("/address/derive", s.postAddressDerive)
	s.app.Get("/address/decode/:address", s.getAddressDecode)
	s.app.Get("/parameters", s.getParameters)
	s.app.Post("/tx/estimate-fee", s.postEstimateFee)
	s.app.Post("/tx/build", s.postTransactionBuild)
	s.app.Post("/tx/sign", s.postTransactionSign)

	log.Info().Msgf("walletd listening on %s", s.config.Listen)

	return errors.WithStack(s.app.Listen(s.config.Listen))
}

func (s *Server) errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(http.StatusBadRequest).JSON(map[string]any{
		"error": fmt.Sprintf("%v", err),
	})
}

func (s *Server) postPhraseValidate(c *fiber.Ctx) error {
	var in struct {
		Phrase string `json:"phrase"`
	}
	if err := c.BodyParser(&in); err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(map[string]any{
		"valid": cardano.ValidateRecoveryPhrase(in.Phrase),
	})
}

func (s *Server) postPhraseGenerate(c *fiber.Ctx) error {
	var in struct {
		Words int `json:"words"`
	}
	if err := c.BodyParser(&in); err != nil {
		return s.errorResponse(c, err)
	}
	if in.Words == 0 {
		in.Words = 24
	}

	phrase, err := cardano.GenerateRecoveryPhrase(in.Words)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(map[string]any{"phrase": phrase})
}

type deriveRequest struct {
	Phrase     string `json:"phrase"`
	Passphrase string `json:"passphrase"`
	Account    uint32 `json:"account"`
	Index      uint32 `json:"index"`
}

func (s *Server) derivePairs(in deriveRequest) (payment, stake cardano.KeyPair, err error) {
	payment, err = cardano.DerivePaymentKeyPair(in.Phrase, in.Passphrase, in.Account, in.Index)
	if err != nil {
		return
	}

	stake, err = cardano.DeriveStakeKeyPair(in.Phrase, in.Passphrase, in.Account)
	if err != nil {
		payment.Wipe()
	}
	return
}

func (s *Server) postAddressDerive(c *fiber.Ctx) error {
	var in deriveRequest
	if err := c.BodyParser(&in); err != nil {
		return s.errorResponse(c, err)
	}

	payment, stake, err := s.derivePairs(in)
	if err != nil {
		return s.errorResponse(c, err)
	}
	defer payment.Wipe()
	defer stake.Wipe()

	paymentCred, err := cardano.NewKeyCredential(payment.PublicKey)
	if err != nil {
		return s.errorResponse(c, err)
	}
	stakeCred, err := cardano.NewKeyCredential(stake.PublicKey)
	if err != nil {
		return s.errorResponse(c, err)
	}

	base, err := cardano.NewBaseAddress(s.network, paymentCred, stakeCred)
	if err != nil {
		return s.errorResponse(c, err)
	}
	enterprise, err := cardano.NewEnterpriseAddress(s.network, paymentCred)
	if err != nil {
		return s.errorResponse(c, err)
	}
	reward, err := cardano.NewRewardAddress(s.network, stakeCred)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(map[string]any{
		"paymentVkey": payment.PublicKey,
		"stakeVkey":   stake.PublicKey,
		"base":        base,
		"enterprise":  enterprise,
		"reward":      reward,
	})
}

func (s *Server) getAddressDecode(c *fiber.Ctx) error {
	address, err := cardano.DecodeAddress(c.Params("address"))
	if err != nil {
		return s.errorResponse(c, err)
	}

	decoded, err := address.Decoded()
	if err != nil {
		return s.errorResponse(c, err)
	}

	out := map[string]any{
		"network": decoded.Network.String(),
		"type":    decoded.Type.String(),
	}
	if decoded.Payment != nil {
		out["paymentCredential"] = decoded.Payment.Hash
	}
	if decoded.Stake != nil {
		out["stakeCredential"] = decoded.Stake.Hash
	}
	if decoded.Pointer != nil {
		out["pointer"] = decoded.Pointer
	}

	return c.JSON(out)
}

func (s *Server) getParameters(c *fiber.Ctx) error {
	return c.JSON(s.estimator.CurrentParameters(c.Context()))
}

func (s *Server) postEstimateFee(c *fiber.Ctx) error {
	var in struct {
		Inputs    int `json:"inputs"`
		Outputs   int `json:"outputs"`
		Witnesses int `json:"witnesses"`
	}
	if err := c.BodyParser(&in); err != nil {
		return s.errorResponse(c, err)
	}
	if in.Witnesses == 0 {
		in.Witnesses = 1
	}

	params := s.estimator.CurrentParameters(c.Context())
	fee := cardano.EstimateFeeStructural(params, in.Inputs, in.Outputs, in.Witnesses)
	tiers := cardano.EstimateFeeTiers(fee)
	low, medium, high := tiers.DisplayAda()

	return c.JSON(map[string]any{
		"fee":   fee,
		"tiers": tiers,
		"ada": map[string]string{
			"low":    low.String(),
			"medium": medium.String(),
			"high":   high.String(),
		},
	})
}

type buildRequest struct {
	Utxos         []cardano.UTXO     `json:"utxos"`
	Outputs       []buildOutput      `json:"outputs"`
	ChangeAddress string             `json:"changeAddress"`
	Ttl           uint64             `json:"ttl"`
	Withdrawals   map[string]uint64  `json:"withdrawals"`
	Metadata      map[uint64]any     `json:"metadata"`
	Certificates  []buildCertificate `json:"certificates"`
}

type buildOutput struct {
	Address string             `json:"address"`
	Amount  uint64             `json:"amount"`
	Assets  cardano.MultiAsset `json:"assets"`
}

type buildCertificate struct {
	Type      string `json:"type"`
	StakeVkey string `json:"stakeVkey"`
	PoolID    string `json:"poolId"`
}

func (s *Server) buildFromRequest(c *fiber.Ctx, in buildRequest) (unsigned cardano.UnsignedTransaction, err error) {
	outputs := make([]cardano.TxOutput, 0, len(in.Outputs))
	for _, out := range in.Outputs {
		address, decodeErr := cardano.DecodeAddress(out.Address)
		if decodeErr != nil {
			err = decodeErr
			return
		}
		outputs = append(outputs, cardano.TxOutput{
			Address: address,
			Value:   cardano.Value{Coin: out.Amount, Assets: out.Assets},
		})
	}

	var changeAddress cardano.Address
	if in.ChangeAddress != "" {
		if changeAddress, err = cardano.DecodeAddress(in.ChangeAddress); err != nil {
			return
		}
	}

	certificates, err := s.parseCertificates(in.Certificates)
	if err != nil {
		return
	}

	params := s.estimator.CurrentParameters(c.Context())

	return cardano.BuildTransaction(in.Utxos, outputs, changeAddress, &cardano.BuildOptions{
		Ttl:          in.Ttl,
		Metadata:     cardano.AuxiliaryData(in.Metadata),
		Certificates: certificates,
		Withdrawals:  in.Withdrawals,
		Params:       &params,
	})
}

func (s *Server) parseCertificates(in []buildCertificate) (certificates []cardano.Certificate, err error) {
	for _, request := range in {
		vkey, decodeErr := hex.DecodeString(request.StakeVkey)
		if decodeErr != nil {
			err = errors.Wrap(decodeErr, "invalid stake vkey")
			return
		}

		credential, credErr := cardano.NewKeyCredential(vkey)
		if credErr != nil {
			err = credErr
			return
		}

		switch request.Type {
		case "registration":
			certificates = append(certificates, cardano.StakeRegistration{Stake: credential})
		case "deregistration":
			certificates = append(certificates, cardano.StakeDeregistration{Stake: credential})
		case "delegation":
			pool, poolErr := cardano.ParsePoolID(request.PoolID)
			if poolErr != nil {
				err = poolErr
				return
			}
			certificates = append(certificates, cardano.StakeDelegation{Stake: credential, Pool: pool})
		default:
			err = errors.Errorf("unknown certificate type '%s'", request.Type)
			return
		}
	}
	return
}

func (s *Server) postTransactionBuild(c *fiber.Ctx) error {
	var in buildRequest
	if err := c.BodyParser(&in); err != nil {
		return s.errorResponse(c, err)
	}

	unsigned, err := s.buildFromRequest(c, in)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(map[string]any{
		"body": hex.EncodeToString(unsigned.Bytes()),
		"hash": unsigned.Hash(),
		"fee":  unsigned.Body.Fee,
	})
}

func (s *Server) postTransactionSign(c *fiber.Ctx) error {
	var in struct {
		buildRequest
		deriveRequest
	}
	if err := c.BodyParser(&in); err != nil {
		return s.errorResponse(c, err)
	}

	unsigned, err := s.buildFromRequest(c, in.buildRequest)
	if err != nil {
		return s.errorResponse(c, err)
	}

	payment, stake, err := s.derivePairs(in.deriveRequest)
	if err != nil {
		return s.errorResponse(c, err)
	}
	defer payment.Wipe()
	defer stake.Wipe()

	signed, err := cardano.Sign(unsigned, payment)
	if err != nil {
		return s.errorResponse(c, err)
	}

	if len(in.Certificates) > 0 || len(in.Withdrawals) > 0 {
		if err = signed.AddSignature(stake); err != nil {
			return s.errorResponse(c, err)
		}
	}

	encoded, err := signed.Bytes()
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(map[string]any{
		"tx":   hex.EncodeToString(encoded),
		"hash": signed.Hash(),
	})
}
