package types

const (
	EventTypeRemoteRouterEnrolled   = "remote_router_enrolled"
	EventTypeRemoteRouterUnenrolled = "remote_router_unenrolled"
	EventTypeDestinationGasSet      = "destination_gas_set"
	EventTypeHookSet                = "hook_set"
	EventTypeIsmSet                 = "ism_set"

	AttributeKeyContract = "contract"
	AttributeKeyDomain   = "domain"
	AttributeKeyRouter   = "router"
	AttributeKeyGas      = "gas"
	AttributeKeyHook     = "hook"
	AttributeKeyIsm      = "ism"
)
