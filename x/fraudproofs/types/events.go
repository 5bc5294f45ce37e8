package types

const (
	EventTypeCheckpointStored  = "checkpoint_stored"
	EventTypeWhitelisted       = "merkle_tree_whitelisted"
	EventTypeFraudAttributed   = "fraud_attributed"
	EventTypeFraudProofSent    = "fraud_proof_sent"
	EventTypeRemoteAttribution = "remote_attribution"

	AttributeKeyContract    = "contract"
	AttributeKeyMerkleTree  = "merkle_tree"
	AttributeKeyRoot        = "root"
	AttributeKeyIndex       = "index"
	AttributeKeySigner      = "signer"
	AttributeKeyDigest      = "digest"
	AttributeKeyFraudType   = "fraud_type"
	AttributeKeyTimestamp   = "timestamp"
	AttributeKeyOrigin      = "origin"
	AttributeKeyDestination = "destination"
	AttributeKeyMessageId   = "message_id"
)
