package types

// Interchain security module types.
const (
	ModuleTypeUnused uint8 = iota
	ModuleTypeRouting
	ModuleTypeAggregation
	ModuleTypeLegacyMultisig
	ModuleTypeMerkleRootMultisig
	ModuleTypeMessageIdMultisig
	ModuleTypeNull
	ModuleTypeCcipRead
	ModuleTypeArbL2ToL1
	ModuleTypeWeightedMerkleRootMultisig
	ModuleTypeWeightedMessageIdMultisig
	ModuleTypeOpL2ToL1
	ModuleTypePolymer
	ModuleTypeOptimistic
)
