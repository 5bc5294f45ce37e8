package multisig_test

import (
	"bytes"
	"crypto/ecdsa"
	"sort"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/suite"

	"github.com/celestiaorg/hyperlane-core/pkg/checkpoint"
	"github.com/celestiaorg/hyperlane-core/pkg/merkle"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
	"github.com/celestiaorg/hyperlane-core/test/util/hyperlanetest"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/ism/multisig"
	"github.com/celestiaorg/hyperlane-core/x/ism/types"
)

const origin = 2

type validator struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

type KeeperTestSuite struct {
	suite.Suite

	h          *hyperlanetest.Harness
	ism        *multisig.Keeper
	validators []validator // sorted by address
	merkleTree util.HexAddress

	tree     *merkle.ProvingTree
	messages []util.HyperlaneMessage
}

func TestKeeperTestSuite(t *testing.T) {
	suite.Run(t, new(KeeperTestSuite))
}

func (suite *KeeperTestSuite) SetupTest() {
	suite.h = hyperlanetest.NewHarness(suite.T(), 1)

	k, err := multisig.NewKeeper(suite.h.Ctx(), suite.h.Chain.Env, hyperlanetest.Owner)
	suite.Require().NoError(err)
	suite.ism = k

	suite.validators = nil
	addrs := make([]common.Address, 0, 3)
	for i := 0; i < 3; i++ {
		key, err := crypto.GenerateKey()
		suite.Require().NoError(err)
		v := validator{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
		suite.validators = append(suite.validators, v)
		addrs = append(addrs, v.addr)
	}
	sort.Slice(suite.validators, func(i, j int) bool {
		return bytes.Compare(suite.validators[i].addr.Bytes(), suite.validators[j].addr.Bytes()) < 0
	})

	ctx := suite.h.Ctx()
	suite.Require().NoError(k.EnrollValidators(ctx, hyperlanetest.Owner, origin, addrs))
	suite.Require().NoError(k.SetThreshold(ctx, hyperlanetest.Owner, origin, 2))

	// messages dispatched on the origin, tracked by a relayer side tree
	suite.merkleTree = hyperlanetest.Account("remote_merkle_tree")
	suite.tree = merkle.NewProvingTree()
	suite.messages = nil
	for i := 0; i < 5; i++ {
		message := util.HyperlaneMessage{
			Version:     util.MessageVersion,
			Nonce:       uint32(i),
			Origin:      origin,
			Sender:      hyperlanetest.Account("remote_sender"),
			Destination: 1,
			Recipient:   hyperlanetest.Account("recipient"),
			Body:        []byte{byte(i)},
		}
		suite.messages = append(suite.messages, message)
		_, err := suite.tree.Ingest(message.Id())
		suite.Require().NoError(err)
	}
}

// metadata proves suite.messages[index] against the latest checkpoint,
// signed by signers.
func (suite *KeeperTestSuite) metadata(index uint32, signers ...validator) multisig.Metadata {
	latest := suite.tree.Count() - 1
	signedId, err := suite.tree.Leaf(latest)
	suite.Require().NoError(err)
	proof, err := suite.tree.Proof(index)
	suite.Require().NoError(err)

	md := multisig.Metadata{
		MerkleTree:      suite.merkleTree,
		Root:            suite.tree.Root(),
		Index:           latest,
		MessageIndex:    index,
		SignedMessageId: signedId,
		Proof:           proof,
	}
	for _, v := range suite.validators {
		md.Validators = append(md.Validators, v.addr)
	}

	cp := md.Checkpoint(origin)
	for _, signer := range signers {
		sig, err := checkpoint.Sign(cp, signer.key)
		suite.Require().NoError(err)
		md.Signatures = append(md.Signatures, sig)
	}
	return md
}

func (suite *KeeperTestSuite) verify(md multisig.Metadata, message util.HyperlaneMessage) bool {
	ok, err := suite.ism.Verify(suite.h.Ctx(), md.Bytes(), message)
	suite.Require().NoError(err)
	return ok
}

func (suite *KeeperTestSuite) TestVerify() {
	v := suite.validators

	suite.Require().True(suite.verify(suite.metadata(2, v[0], v[1]), suite.messages[2]))
	suite.Require().True(suite.verify(suite.metadata(4, v[0], v[2]), suite.messages[4]))
	suite.Require().True(suite.verify(suite.metadata(0, v[1], v[2]), suite.messages[0]))
}

func (suite *KeeperTestSuite) TestVerifyRejects() {
	v := suite.validators
	outsider, err := crypto.GenerateKey()
	suite.Require().NoError(err)
	stranger := validator{key: outsider, addr: crypto.PubkeyToAddress(outsider.PublicKey)}

	testCases := []struct {
		name     string
		malleate func() (multisig.Metadata, util.HyperlaneMessage)
	}{
		{
			name: "descending signers",
			malleate: func() (multisig.Metadata, util.HyperlaneMessage) {
				return suite.metadata(1, v[1], v[0]), suite.messages[1]
			},
		},
		{
			name: "duplicate signer",
			malleate: func() (multisig.Metadata, util.HyperlaneMessage) {
				return suite.metadata(1, v[0], v[0]), suite.messages[1]
			},
		},
		{
			name: "signer not enrolled",
			malleate: func() (multisig.Metadata, util.HyperlaneMessage) {
				md := suite.metadata(1, v[0])
				other := suite.metadata(1, stranger)
				md.Signatures = append(md.Signatures, other.Signatures[0])
				return md, suite.messages[1]
			},
		},
		{
			name: "below threshold",
			malleate: func() (multisig.Metadata, util.HyperlaneMessage) {
				return suite.metadata(1, v[0]), suite.messages[1]
			},
		},
		{
			name: "validator list differs from commitment",
			malleate: func() (multisig.Metadata, util.HyperlaneMessage) {
				md := suite.metadata(1, v[0], v[1])
				md.Validators = md.Validators[:2]
				return md, suite.messages[1]
			},
		},
		{
			name: "message not in root",
			malleate: func() (multisig.Metadata, util.HyperlaneMessage) {
				md := suite.metadata(1, v[0], v[1])
				forged := suite.messages[1]
				forged.Body = []byte("forged")
				return md, forged
			},
		},
		{
			name: "proof for another index",
			malleate: func() (multisig.Metadata, util.HyperlaneMessage) {
				md := suite.metadata(1, v[0], v[1])
				md.MessageIndex = 3
				return md, suite.messages[1]
			},
		},
		{
			name: "message index after checkpoint",
			malleate: func() (multisig.Metadata, util.HyperlaneMessage) {
				md := suite.metadata(1, v[0], v[1])
				md.Index = 0
				return md, suite.messages[1]
			},
		},
		{
			name: "signatures over another root",
			malleate: func() (multisig.Metadata, util.HyperlaneMessage) {
				md := suite.metadata(1, v[0], v[1])
				md.MerkleTree = hyperlanetest.Account("other_tree")
				return md, suite.messages[1]
			},
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			md, message := tc.malleate()
			suite.Require().False(suite.verify(md, message))
		})
	}
}

func (suite *KeeperTestSuite) TestVerifyErrors() {
	ctx := suite.h.Ctx()
	v := suite.validators

	_, err := suite.ism.Verify(ctx, []byte{0x01, 0x02}, suite.messages[0])
	suite.Require().ErrorIs(err, types.ErrInvalidMetadata)

	md := suite.metadata(0, v[0], v[1]).Bytes()
	_, err = suite.ism.Verify(ctx, md[:len(md)-1], suite.messages[0])
	suite.Require().ErrorIs(err, types.ErrInvalidMetadata)

	unknownOrigin := suite.messages[0]
	unknownOrigin.Origin = 77
	_, err = suite.ism.Verify(ctx, md, unknownOrigin)
	suite.Require().ErrorIs(err, types.ErrNoValidators)
}

func (suite *KeeperTestSuite) TestMetadataEncoding() {
	v := suite.validators
	md := suite.metadata(3, v[0], v[2])

	decoded, err := multisig.ParseMetadata(md.Bytes())
	suite.Require().NoError(err)
	suite.Require().Equal(md, decoded)
	suite.Require().Equal(2, decoded.Threshold())
}

func (suite *KeeperTestSuite) TestValidatorSetManagement() {
	ctx := suite.h.Ctx()
	owner := hyperlanetest.Owner

	validators, err := suite.ism.Validators(ctx, origin)
	suite.Require().NoError(err)
	suite.Require().Len(validators, 3)
	for i, v := range suite.validators {
		suite.Require().Equal(v.addr, validators[i])
	}

	commitment, err := suite.ism.Commitment(ctx, origin)
	suite.Require().NoError(err)
	suite.Require().Equal(multisig.Commitment(2, validators), commitment)

	err = suite.ism.EnrollValidator(ctx, owner, origin, validators[0])
	suite.Require().ErrorIs(err, types.ErrValidatorEnrolled)
	err = suite.ism.UnenrollValidator(ctx, owner, origin, common.Address{0x01})
	suite.Require().ErrorIs(err, types.ErrValidatorNotEnrolled)

	err = suite.ism.SetThreshold(ctx, owner, origin, 0)
	suite.Require().ErrorIs(err, types.ErrInvalidThreshold)
	err = suite.ism.SetThreshold(ctx, owner, origin, 4)
	suite.Require().ErrorIs(err, types.ErrInvalidThreshold)

	suite.Require().NoError(suite.ism.SetThreshold(ctx, owner, origin, 3))
	err = suite.ism.UnenrollValidator(ctx, owner, origin, validators[1])
	suite.Require().ErrorIs(err, types.ErrInvalidThreshold)

	suite.Require().NoError(suite.ism.SetThreshold(ctx, owner, origin, 2))
	suite.Require().NoError(suite.ism.UnenrollValidator(ctx, owner, origin, validators[1]))

	enrolled, err := suite.ism.IsEnrolled(ctx, origin, validators[1])
	suite.Require().NoError(err)
	suite.Require().False(enrolled)

	commitment, err = suite.ism.Commitment(ctx, origin)
	suite.Require().NoError(err)
	suite.Require().Equal(multisig.Commitment(2, []common.Address{validators[0], validators[2]}), commitment)

	var updates int
	for _, event := range ctx.EventManager().Events() {
		if event.Type == types.EventTypeCommitmentUpdated {
			updates++
		}
	}
	// enroll, threshold 2, threshold 3, threshold 2, unenroll
	suite.Require().Equal(5, updates)

	stranger := hyperlanetest.Account("stranger")
	err = suite.ism.EnrollValidator(ctx, stranger, origin, common.Address{0x02})
	suite.Require().ErrorIs(err, coretypes.ErrUnauthorized)
	err = suite.ism.SetThreshold(ctx, stranger, origin, 1)
	suite.Require().ErrorIs(err, coretypes.ErrUnauthorized)
}

func (suite *KeeperTestSuite) TestGatesMailboxProcess() {
	ctx := suite.h.Ctx()
	v := suite.validators
	suite.Require().NoError(suite.h.Mailbox.SetDefaultIsm(ctx, hyperlanetest.Owner, suite.ism.Address()))

	recipient := hyperlanetest.DeployRecipient(suite.T(), suite.h.Chain)
	message := suite.messages[0]
	message.Recipient = recipient.Address()
	suite.tree = merkle.NewProvingTree()
	_, err := suite.tree.Ingest(message.Id())
	suite.Require().NoError(err)

	err = suite.h.Mailbox.Process(ctx, hyperlanetest.Account("relayer"), suite.metadata(0, v[0]).Bytes(), message.Bytes())
	suite.Require().ErrorIs(err, coretypes.ErrVerificationFailed)

	err = suite.h.Mailbox.Process(ctx, hyperlanetest.Account("relayer"), suite.metadata(0, v[0], v[1]).Bytes(), message.Bytes())
	suite.Require().NoError(err)
	suite.Require().Len(recipient.Received, 1)
}
