package app

import (
	"crypto/ecdsa"
	"fmt"
	"sort"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/celestiaorg/hyperlane-core/app/metrics"
	"github.com/celestiaorg/hyperlane-core/pkg/checkpoint"
	"github.com/celestiaorg/hyperlane-core/pkg/merkle"
	"github.com/celestiaorg/hyperlane-core/pkg/util"
	coretypes "github.com/celestiaorg/hyperlane-core/x/core/types"
	"github.com/celestiaorg/hyperlane-core/x/ism/multisig"
)

type pendingMessage struct {
	message util.HyperlaneMessage
	index   uint32
}

// Relayer moves messages between chains of one process. It indexes the
// dispatch events of every origin mailbox, mirrors each merkle tree hook
// with a proving tree, and delivers messages with multisig metadata signed
// by the validator keys it holds.
type Relayer struct {
	logger  log.Logger
	address util.HexAddress
	metrics *metrics.Relayer

	domains []uint32
	chains  map[uint32]*Chain
	trees   map[uint32]*merkle.ProvingTree
	signers map[common.Address]*ecdsa.PrivateKey

	indexed map[common.Hash]bool
	pending []pendingMessage
}

// NewRelayer relays between chains as address, signing checkpoints with
// signers.
func NewRelayer(logger log.Logger, address util.HexAddress, chains []*Chain, signers []*ecdsa.PrivateKey, m *metrics.Relayer) (*Relayer, error) {
	r := &Relayer{
		logger:  logger.With("module", "relayer"),
		address: address,
		metrics: m,
		chains:  make(map[uint32]*Chain, len(chains)),
		trees:   make(map[uint32]*merkle.ProvingTree, len(chains)),
		signers: make(map[common.Address]*ecdsa.PrivateKey, len(signers)),
		indexed: make(map[common.Hash]bool),
	}
	for _, c := range chains {
		if _, ok := r.chains[c.Domain()]; ok {
			return nil, fmt.Errorf("duplicate domain %d", c.Domain())
		}
		if c.Mailbox == nil {
			return nil, fmt.Errorf("domain %d has no contracts deployed", c.Domain())
		}
		r.chains[c.Domain()] = c
		r.trees[c.Domain()] = merkle.NewProvingTree()
		r.domains = append(r.domains, c.Domain())
	}
	sort.Slice(r.domains, func(i, j int) bool { return r.domains[i] < r.domains[j] })

	for _, key := range signers {
		r.signers[crypto.PubkeyToAddress(key.PublicKey)] = key
	}
	return r, nil
}

// Pending is the number of messages indexed but not delivered.
func (r *Relayer) Pending() int {
	return len(r.pending)
}

// Step ends the current block on every chain, indexing the messages it
// dispatched, and delivers every pending message in the next block. It
// returns the number of messages delivered.
func (r *Relayer) Step(blockTime time.Duration) (int, error) {
	for _, domain := range r.domains {
		c := r.chains[domain]
		if err := r.index(c); err != nil {
			return 0, fmt.Errorf("indexing domain %d: %w", domain, err)
		}
		c.NextBlock(blockTime)
	}
	return r.deliver(), nil
}

func (r *Relayer) index(c *Chain) error {
	mailbox := c.Mailbox.Address().String()

	for _, event := range c.Context().EventManager().Events() {
		if event.Type != coretypes.EventTypeDispatch {
			continue
		}
		attrs := make(map[string]string, len(event.Attributes))
		for _, attr := range event.Attributes {
			attrs[attr.Key] = attr.Value
		}
		if attrs[coretypes.AttributeKeyContract] != mailbox {
			continue
		}

		raw, err := hexutil.Decode(attrs[coretypes.AttributeKeyMessage])
		if err != nil {
			return err
		}
		message, err := util.ParseHyperlaneMessage(raw)
		if err != nil {
			return err
		}
		id := message.Id()
		if r.indexed[id] {
			continue
		}
		r.indexed[id] = true

		index, err := r.trees[c.Domain()].Ingest(id)
		if err != nil {
			return err
		}
		r.pending = append(r.pending, pendingMessage{message: message, index: index})
		r.metrics.Dispatched.WithLabelValues(metrics.Labels(message.Origin, message.Destination)...).Inc()
		r.logger.Debug("indexed message", "id", id.Hex(), "origin", message.Origin, "nonce", message.Nonce, "index", index)
	}

	r.metrics.Pending.Set(float64(len(r.pending)))
	return nil
}

func (r *Relayer) deliver() int {
	delivered := 0
	remaining := r.pending[:0]

	for _, p := range r.pending {
		message := p.message
		logger := r.logger.With("id", message.Id().Hex(), "origin", message.Origin, "destination", message.Destination)
		labels := metrics.Labels(message.Origin, message.Destination)

		destination, ok := r.chains[message.Destination]
		if !ok {
			logger.Debug("no chain for destination, dropping message")
			r.metrics.Failed.WithLabelValues(labels...).Inc()
			continue
		}

		metadata, err := r.Metadata(message, p.index)
		if err != nil {
			logger.Error("building metadata", "err", err)
			r.metrics.Failed.WithLabelValues(labels...).Inc()
			continue
		}

		err = destination.Mailbox.Process(destination.Context(), r.address, metadata, message.Bytes())
		switch {
		case err == nil:
			delivered++
			r.metrics.Delivered.WithLabelValues(labels...).Inc()
			logger.Info("delivered message")
		case errorsmod.IsOf(err, coretypes.ErrAlreadyDelivered):
			logger.Debug("message delivered by someone else")
		case errorsmod.IsOf(err, coretypes.ErrPaused):
			remaining = append(remaining, p)
		default:
			logger.Error("processing message", "err", err)
			r.metrics.Failed.WithLabelValues(labels...).Inc()
		}
	}

	r.pending = remaining
	r.metrics.Pending.Set(float64(len(r.pending)))
	return delivered
}

// Metadata proves message, the leaf at index of its origin tree, against
// the latest checkpoint of the origin. The checkpoint is signed by the first
// validators enrolled on the destination for which the relayer holds keys.
func (r *Relayer) Metadata(message util.HyperlaneMessage, index uint32) ([]byte, error) {
	origin, ok := r.chains[message.Origin]
	if !ok {
		return nil, fmt.Errorf("unknown origin %d", message.Origin)
	}
	destination, ok := r.chains[message.Destination]
	if !ok {
		return nil, fmt.Errorf("unknown destination %d", message.Destination)
	}
	tree := r.trees[message.Origin]

	latest := tree.Count() - 1
	signedId, err := tree.Leaf(latest)
	if err != nil {
		return nil, err
	}
	proof, err := tree.Proof(index)
	if err != nil {
		return nil, err
	}

	validators, threshold, err := destination.Multisig.ValidatorsAndThreshold(destination.Context(), message)
	if err != nil {
		return nil, err
	}
	if threshold == 0 {
		return nil, fmt.Errorf("no validators enrolled for origin %d", message.Origin)
	}

	md := multisig.Metadata{
		MerkleTree:      origin.MerkleTreeHook.Address(),
		Root:            tree.Root(),
		Index:           latest,
		MessageIndex:    index,
		SignedMessageId: signedId,
		Proof:           proof,
		Validators:      validators,
	}

	cp := md.Checkpoint(message.Origin)
	// validators are sorted, so signatures follow the order required by the ism
	for _, validator := range validators {
		if len(md.Signatures) == int(threshold) {
			break
		}
		key, ok := r.signers[validator]
		if !ok {
			continue
		}
		sig, err := checkpoint.Sign(cp, key)
		if err != nil {
			return nil, err
		}
		md.Signatures = append(md.Signatures, sig)
	}
	if len(md.Signatures) < int(threshold) {
		return nil, fmt.Errorf("holding %d of %d signers for origin %d", len(md.Signatures), threshold, message.Origin)
	}
	return md.Bytes(), nil
}
