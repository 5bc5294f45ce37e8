package types

const (
	EventTypeInsertedIntoTree     = "inserted_into_tree"
	EventTypeGasPayment           = "gas_payment"
	EventTypeDestinationGasConfig = "destination_gas_config_set"
	EventTypeBeneficiarySet       = "beneficiary_set"
	EventTypeClaim                = "claim"
	EventTypeHookSet              = "hook_set"
	EventTypeHookRemoved          = "hook_removed"
	EventTypeMessageIdSent        = "message_id_sent"

	AttributeKeyContract          = "contract"
	AttributeKeyMessageId         = "message_id"
	AttributeKeyIndex             = "index"
	AttributeKeyDestination       = "destination"
	AttributeKeyGasAmount         = "gas_amount"
	AttributeKeyPayment           = "payment"
	AttributeKeyTokenExchangeRate = "token_exchange_rate"
	AttributeKeyGasPrice          = "gas_price"
	AttributeKeyGasOverhead       = "gas_overhead"
	AttributeKeyBeneficiary       = "beneficiary"
	AttributeKeyAmount            = "amount"
	AttributeKeyHook              = "hook"
	AttributeKeyIsm               = "ism"
	AttributeKeyValue             = "value"
)
