package types

const (
	// ModuleName is the codespace of every interchain security module.
	ModuleName = "ism"
)
