package app_test

import (
	"crypto/ecdsa"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/celestiaorg/hyperlane-core/app"
	"github.com/celestiaorg/hyperlane-core/app/metrics"
	"github.com/celestiaorg/hyperlane-core/pkg/checkpoint"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
	"github.com/celestiaorg/hyperlane-core/test/util/hyperlanetest"
	"github.com/celestiaorg/hyperlane-core/x/fraudproofs/types"
)

const (
	domainA = 1
	domainB = 2

	// dispatchFee is the igp quote for the default gas limit at a 1:1
	// exchange rate and a gas price of one.
	dispatchFee = 50_000
)

type RelayerTestSuite struct {
	suite.Suite

	a, b    *app.Chain
	keys    []*ecdsa.PrivateKey
	sender  util.HexAddress
	metrics *metrics.Relayer
}

func TestRelayerTestSuite(t *testing.T) {
	suite.Run(t, new(RelayerTestSuite))
}

func (suite *RelayerTestSuite) SetupTest() {
	t := suite.T()

	suite.keys = nil
	validators := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		key, err := crypto.GenerateKey()
		suite.Require().NoError(err)
		suite.keys = append(suite.keys, key)
		validators = append(validators, crypto.PubkeyToAddress(key.PublicKey).Hex())
	}

	config := func(remote uint32) app.ChainConfig {
		return app.ChainConfig{
			GasOracles: []app.GasOracleConfig{
				{Domain: remote, TokenExchangeRate: "10000000000", GasPrice: "1"},
			},
			ValidatorSets: []app.ValidatorSetConfig{
				{Origin: remote, Threshold: 2, Validators: validators},
			},
		}
	}
	suite.a = hyperlanetest.NewChain(t, domainA, config(domainB))
	suite.b = hyperlanetest.NewChain(t, domainB, config(domainA))
	suite.Require().NoError(app.Connect(suite.a, suite.b))

	suite.sender = hyperlanetest.Account("sender")
	hyperlanetest.Fund(t, suite.a, suite.sender, 1_000_000)

	m, err := metrics.NewRelayer(prometheus.NewRegistry())
	suite.Require().NoError(err)
	suite.metrics = m
}

func (suite *RelayerTestSuite) relayer(keys ...*ecdsa.PrivateKey) *app.Relayer {
	r, err := app.NewRelayer(log.NewNopLogger(), hyperlanetest.Account("relayer"), []*app.Chain{suite.a, suite.b}, keys, suite.metrics)
	suite.Require().NoError(err)
	return r
}

func (suite *RelayerTestSuite) dispatch(body string) common.Hash {
	ctx := suite.a.Context()
	id, err := suite.a.Mailbox.Dispatch(ctx, suite.sender, math.NewInt(dispatchFee), domainB, suite.b.Inbox.Address(), []byte(body), nil, util.ZeroAddress)
	suite.Require().NoError(err)
	return id
}

func (suite *RelayerTestSuite) TestRelay() {
	r := suite.relayer(suite.keys...)

	ids := []common.Hash{suite.dispatch("a"), suite.dispatch("b"), suite.dispatch("c")}

	delivered, err := r.Step(time.Second)
	suite.Require().NoError(err)
	suite.Require().Equal(3, delivered)
	suite.Require().Zero(r.Pending())

	ctx := suite.b.Context()
	for _, id := range ids {
		ok, err := suite.b.Mailbox.Delivered(ctx, id)
		suite.Require().NoError(err)
		suite.Require().True(ok)
	}

	received, err := suite.b.Inbox.Messages(ctx)
	suite.Require().NoError(err)
	suite.Require().Len(received, 3)
	for i, body := range []string{"a", "b", "c"} {
		suite.Require().Equal(uint32(domainA), received[i].Origin)
		suite.Require().Equal(suite.sender, received[i].Sender)
		suite.Require().Equal([]byte(body), received[i].Body)
	}

	// the relayer mirrors the on chain tree
	count, err := suite.a.MerkleTreeHook.Count(suite.a.Context())
	suite.Require().NoError(err)
	suite.Require().Equal(uint32(3), count)

	suite.Require().Equal(math.NewInt(1_000_000-3*dispatchFee), suite.a.Balance(suite.a.Context(), suite.sender))
	suite.Require().Equal(math.NewInt(3*dispatchFee), suite.a.Balance(suite.a.Context(), suite.a.Igp.Address()))

	suite.Require().Equal(float64(3), testutil.ToFloat64(suite.metrics.Dispatched.WithLabelValues("1", "2")))
	suite.Require().Equal(float64(3), testutil.ToFloat64(suite.metrics.Delivered.WithLabelValues("1", "2")))
	suite.Require().Equal(float64(0), testutil.ToFloat64(suite.metrics.Pending))

	// nothing new to deliver
	delivered, err = r.Step(time.Second)
	suite.Require().NoError(err)
	suite.Require().Zero(delivered)
}

func (suite *RelayerTestSuite) TestRelayWithoutQuorum() {
	r := suite.relayer(suite.keys[0])

	id := suite.dispatch("a")
	delivered, err := r.Step(time.Second)
	suite.Require().NoError(err)
	suite.Require().Zero(delivered)
	suite.Require().Equal(float64(1), testutil.ToFloat64(suite.metrics.Failed.WithLabelValues("1", "2")))

	ok, err := suite.b.Mailbox.Delivered(suite.b.Context(), id)
	suite.Require().NoError(err)
	suite.Require().False(ok)
}

func (suite *RelayerTestSuite) TestRelayFraudProof() {
	r := suite.relayer(suite.keys...)

	// nothing has been dispatched on A, so any checkpoint is premature
	key := suite.keys[0]
	signer := crypto.PubkeyToAddress(key.PublicKey)
	cp := checkpoint.Checkpoint{
		Origin:     domainA,
		MerkleTree: suite.a.MerkleTreeHook.Address(),
		Index:      7,
		MessageId:  common.HexToHash("0x07"),
	}
	sig, err := checkpoint.Sign(cp, key)
	suite.Require().NoError(err)
	_, err = suite.a.FraudProofs.AttributePremature(suite.a.Context(), cp, sig)
	suite.Require().NoError(err)

	_, err = suite.a.FraudProofRouter.SendFraudProof(suite.a.Context(), suite.sender, math.NewInt(dispatchFee), domainB, signer, cp.MerkleTree, cp.Digest())
	suite.Require().NoError(err)

	delivered, err := r.Step(time.Second)
	suite.Require().NoError(err)
	suite.Require().Equal(1, delivered)

	remote, err := suite.b.FraudProofRouter.RemoteAttribution(suite.b.Context(), domainA, signer, cp.MerkleTree, cp.Digest())
	suite.Require().NoError(err)
	suite.Require().Equal(types.FraudTypePremature, remote.FraudType)
}

func (suite *RelayerTestSuite) TestNewRelayerRejectsDuplicateDomains() {
	_, err := app.NewRelayer(log.NewNopLogger(), hyperlanetest.Account("relayer"), []*app.Chain{suite.a, suite.a}, nil, suite.metrics)
	suite.Require().Error(err)

	bare := hyperlanetest.NewBareChain(suite.T(), 3)
	_, err = app.NewRelayer(log.NewNopLogger(), hyperlanetest.Account("relayer"), []*app.Chain{bare}, nil, suite.metrics)
	suite.Require().Error(err)
}
