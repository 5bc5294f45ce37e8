package igp_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
	"github.com/celestiaorg/hyperlane-core/test/util/hyperlanetest"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/hooks/igp"
	"github.com/celestiaorg/hyperlane-core/x/hooks/types"
)

const remoteDomain = 2

type KeeperTestSuite struct {
	suite.Suite

	h           *hyperlanetest.Harness
	igp         *igp.Keeper
	beneficiary util.HexAddress
}

func TestKeeperTestSuite(t *testing.T) {
	suite.Run(t, new(KeeperTestSuite))
}

func (suite *KeeperTestSuite) SetupTest() {
	suite.h = hyperlanetest.NewHarness(suite.T(), 1)
	suite.beneficiary = hyperlanetest.Account("beneficiary")

	k, err := igp.NewKeeper(suite.h.Ctx(), suite.h.Chain.Env, hyperlanetest.Owner, suite.beneficiary)
	suite.Require().NoError(err)
	suite.igp = k

	err = k.SetDestinationGasConfigs(suite.h.Ctx(), hyperlanetest.Owner, []igp.DestinationGasConfigEntry{{
		Domain: remoteDomain,
		Config: igp.DestinationGasConfig{
			TokenExchangeRate: igp.TokenExchangeRateScale,
			GasPrice:          math.NewInt(2),
			GasOverhead:       10_000,
		},
	}})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.h.Mailbox.SetDefaultHook(suite.h.Ctx(), hyperlanetest.Owner, k.Address()))
}

func (suite *KeeperTestSuite) balance(addr util.HexAddress) int64 {
	return suite.h.Chain.Balance(suite.h.Ctx(), addr).Int64()
}

func (suite *KeeperTestSuite) TestQuoteGasPayment() {
	ctx := suite.h.Ctx()

	quote, err := suite.igp.QuoteGasPayment(ctx, remoteDomain, math.NewInt(1_000))
	suite.Require().NoError(err)
	suite.Require().Equal(int64(2_000), quote.Int64())

	// half the exchange rate halves the quote
	err = suite.igp.SetDestinationGasConfigs(ctx, hyperlanetest.Owner, []igp.DestinationGasConfigEntry{{
		Domain: 3,
		Config: igp.DestinationGasConfig{TokenExchangeRate: math.NewInt(5_000_000_000), GasPrice: math.NewInt(2)},
	}})
	suite.Require().NoError(err)
	quote, err = suite.igp.QuoteGasPayment(ctx, 3, math.NewInt(1_000))
	suite.Require().NoError(err)
	suite.Require().Equal(int64(1_000), quote.Int64())

	_, err = suite.igp.QuoteGasPayment(ctx, 99, math.NewInt(1_000))
	suite.Require().ErrorIs(err, types.ErrUnsupportedDestination)

	destinations, err := suite.igp.Destinations(ctx)
	suite.Require().NoError(err)
	suite.Require().Equal([]uint32{remoteDomain, 3}, destinations)
}

func (suite *KeeperTestSuite) TestHookQuoteUsesMetadataGasLimit() {
	ctx := suite.h.Ctx()
	message := util.HyperlaneMessage{Destination: remoteDomain}

	quote, err := suite.igp.QuoteDispatch(ctx, nil, message)
	suite.Require().NoError(err)
	suite.Require().Equal(int64((types.DefaultGasLimit+10_000)*2), quote.Int64())

	metadata := util.FormatStandardHookMetadata(nil, uint256.NewInt(100_000), common.Address{}, nil)
	quote, err = suite.igp.QuoteDispatch(ctx, metadata, message)
	suite.Require().NoError(err)
	suite.Require().Equal(int64(220_000), quote.Int64())
}

func (suite *KeeperTestSuite) TestHugeGasLimitIsRejected() {
	ctx := suite.h.Ctx()
	recipient := hyperlanetest.Account("recipient")
	maxWord := new(uint256.Int).SetAllOne()

	// the limit alone overflows once the destination overhead is added
	metadata := util.FormatStandardHookMetadata(nil, maxWord, common.Address{}, nil)
	_, err := suite.h.Mailbox.QuoteDispatch(ctx, suite.h.Sender, remoteDomain, recipient, nil, metadata, util.ZeroAddress)
	suite.Require().ErrorIs(err, types.ErrInvalidMetadata)

	// the limit fits but its cost does not
	metadata = util.FormatStandardHookMetadata(nil, new(uint256.Int).Rsh(maxWord, 1), common.Address{}, nil)
	_, err = suite.h.Mailbox.QuoteDispatch(ctx, suite.h.Sender, remoteDomain, recipient, nil, metadata, util.ZeroAddress)
	suite.Require().ErrorIs(err, types.ErrInvalidMetadata)

	_, err = suite.h.Mailbox.Dispatch(ctx, suite.h.Sender, math.NewInt(1_000), remoteDomain, recipient, nil, metadata, util.ZeroAddress)
	suite.Require().ErrorIs(err, types.ErrInvalidMetadata)
	suite.Require().Equal(int64(hyperlanetest.SenderFunds), suite.balance(suite.h.Sender))

	_, err = suite.igp.QuoteGasPayment(ctx, remoteDomain, util.IntFromUint256(maxWord))
	suite.Require().ErrorIs(err, types.ErrInvalidMetadata)
}

func (suite *KeeperTestSuite) TestDispatchPaysForGas() {
	ctx := suite.h.Ctx()
	sender := suite.h.Sender

	id, err := suite.h.Mailbox.Dispatch(ctx, sender, math.NewInt(150_000), remoteDomain, hyperlanetest.Account("recipient"), nil, nil, util.ZeroAddress)
	suite.Require().NoError(err)

	suite.Require().Equal(int64(120_000), suite.balance(suite.igp.Address()))
	suite.Require().Equal(int64(hyperlanetest.SenderFunds-120_000), suite.balance(sender))

	var found bool
	for _, event := range ctx.EventManager().Events() {
		if event.Type != types.EventTypeGasPayment {
			continue
		}
		found = true
		attr, ok := event.GetAttribute(types.AttributeKeyMessageId)
		suite.Require().True(ok)
		suite.Require().Equal(id.Hex(), attr.Value)
		attr, ok = event.GetAttribute(types.AttributeKeyGasAmount)
		suite.Require().True(ok)
		suite.Require().Equal("60000", attr.Value)
	}
	suite.Require().True(found)

	claimed, err := suite.igp.Claim(ctx)
	suite.Require().NoError(err)
	suite.Require().Equal(int64(120_000), claimed.Int64())
	suite.Require().Equal(int64(120_000), suite.balance(suite.beneficiary))

	_, err = suite.igp.Claim(ctx)
	suite.Require().ErrorIs(err, types.ErrNothingToClaim)
}

func (suite *KeeperTestSuite) TestDispatchUnsupportedDestination() {
	_, err := suite.h.Mailbox.Dispatch(suite.h.Ctx(), suite.h.Sender, math.NewInt(1_000_000), 99, hyperlanetest.Account("recipient"), nil, nil, util.ZeroAddress)
	suite.Require().ErrorIs(err, types.ErrUnsupportedDestination)
	suite.Require().Equal(int64(hyperlanetest.SenderFunds), suite.balance(suite.h.Sender))
}

func (suite *KeeperTestSuite) TestPayForGasRefundsOverpayment() {
	ctx := suite.h.Ctx()
	payer := suite.h.Sender
	refund := hyperlanetest.Account("refund")

	err := suite.igp.PayForGas(ctx, payer, common.Hash{0x01}, remoteDomain, math.NewInt(1_000), refund, math.NewInt(5_000))
	suite.Require().NoError(err)
	suite.Require().Equal(int64(2_000), suite.balance(suite.igp.Address()))
	suite.Require().Equal(int64(3_000), suite.balance(refund))
	suite.Require().Equal(int64(hyperlanetest.SenderFunds-5_000), suite.balance(payer))

	err = suite.igp.PayForGas(ctx, payer, common.Hash{0x02}, remoteDomain, math.NewInt(1_000), refund, math.NewInt(1_999))
	suite.Require().ErrorIs(err, types.ErrInsufficientGasPayment)
	suite.Require().Equal(int64(hyperlanetest.SenderFunds-5_000), suite.balance(payer))
}

func (suite *KeeperTestSuite) TestOwnerCalls() {
	ctx := suite.h.Ctx()
	stranger := hyperlanetest.Account("stranger")

	err := suite.igp.SetBeneficiary(ctx, stranger, stranger)
	suite.Require().ErrorIs(err, coretypes.ErrUnauthorized)
	err = suite.igp.SetDestinationGasConfigs(ctx, stranger, nil)
	suite.Require().ErrorIs(err, coretypes.ErrUnauthorized)

	err = suite.igp.SetDestinationGasConfigs(ctx, hyperlanetest.Owner, []igp.DestinationGasConfigEntry{{
		Domain: 5,
		Config: igp.DestinationGasConfig{TokenExchangeRate: math.NewInt(-1), GasPrice: math.NewInt(1)},
	}})
	suite.Require().ErrorIs(err, types.ErrInvalidConfig)

	suite.Require().NoError(suite.igp.SetBeneficiary(ctx, hyperlanetest.Owner, stranger))
	beneficiary, err := suite.igp.Beneficiary(ctx)
	suite.Require().NoError(err)
	suite.Require().Equal(stranger, beneficiary)
}

func (suite *KeeperTestSuite) TestGasConfigEncoding() {
	cfg := igp.DestinationGasConfig{
		TokenExchangeRate: math.NewInt(123_456_789),
		GasPrice:          math.NewIntFromUint64(1 << 63),
		GasOverhead:       42,
	}
	decoded, err := igp.ParseDestinationGasConfig(cfg.Bytes())
	suite.Require().NoError(err)
	suite.Require().True(cfg.TokenExchangeRate.Equal(decoded.TokenExchangeRate))
	suite.Require().True(cfg.GasPrice.Equal(decoded.GasPrice))
	suite.Require().Equal(cfg.GasOverhead, decoded.GasOverhead)
}
