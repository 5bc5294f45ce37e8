package types

const (
	// ModuleName is the codespace of the fraud proof contracts.
	ModuleName = "fraudproofs"
)
