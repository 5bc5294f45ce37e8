package types

const (
	EventTypeDispatch             = "dispatch"
	EventTypeDispatchId           = "dispatch_id"
	EventTypeProcess              = "process"
	EventTypeProcessId            = "process_id"
	EventTypeDefaultIsmSet        = "default_ism_set"
	EventTypeDefaultHookSet       = "default_hook_set"
	EventTypeRequiredHookSet      = "required_hook_set"
	EventTypePaused               = "paused"
	EventTypeUnpaused             = "unpaused"
	EventTypeOwnershipTransferred = "ownership_transferred"

	AttributeKeyContract      = "contract"
	AttributeKeySender        = "sender"
	AttributeKeyDestination   = "destination"
	AttributeKeyRecipient     = "recipient"
	AttributeKeyMessage       = "message"
	AttributeKeyMessageId     = "message_id"
	AttributeKeyOrigin        = "origin"
	AttributeKeyIsm           = "ism"
	AttributeKeyHook          = "hook"
	AttributeKeyPreviousOwner = "previous_owner"
	AttributeKeyNewOwner      = "new_owner"
)
