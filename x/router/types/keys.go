package types

const (
	// ModuleName is the codespace of mailbox client routers.
	ModuleName = "router"

	// DefaultDestinationGas is the gas limit requested for handling a message
	// on a destination without a configured limit.
	DefaultDestinationGas = 50_000
)
