package types

const (
	EventTypeValidatorEnrolled   = "validator_enrolled"
	EventTypeValidatorUnenrolled = "validator_unenrolled"
	EventTypeThresholdSet        = "threshold_set"
	EventTypeCommitmentUpdated   = "commitment_updated"
	EventTypeModuleSet           = "module_set"
	EventTypeModuleRemoved       = "module_removed"
	EventTypePreVerified         = "pre_verified"
	EventTypeFraudulent          = "marked_fraudulent"
	EventTypeFraudWindowSet      = "fraud_window_set"
	EventTypeAuthorizedHookSet   = "authorized_hook_set"

	AttributeKeyContract   = "contract"
	AttributeKeyOrigin     = "origin"
	AttributeKeyValidator  = "validator"
	AttributeKeyThreshold  = "threshold"
	AttributeKeyCommitment = "commitment"
	AttributeKeyIsm        = "ism"
	AttributeKeyMessageId  = "message_id"
	AttributeKeyValue      = "value"
	AttributeKeyWatcher    = "watcher"
	AttributeKeyWindow     = "window"
	AttributeKeyHook       = "hook"
)
