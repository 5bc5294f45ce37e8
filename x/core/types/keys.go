package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"cosmossdk.io/collections"
)

const (
	// ModuleName defines the module name
	ModuleName = "core"

	// StoreKey is the store shared by every contract deployed on a chain. Each
	// contract owns the sub-store prefixed by its address.
	StoreKey = "contracts"

	// ContractClass is used to derive mailbox addresses.
	ContractClass = "mailbox"
)

var (
	NonceKey              = collections.NewPrefix(0)
	DeliveredKey          = collections.NewPrefix(1)
	LatestDispatchedIdKey = collections.NewPrefix(2)
	DefaultIsmKey         = collections.NewPrefix(3)
	DefaultHookKey        = collections.NewPrefix(4)
	RequiredHookKey       = collections.NewPrefix(5)
	OwnerKey              = collections.NewPrefix(6)
	PausedKey             = collections.NewPrefix(7)
)

// EncodeHex is a convenience function to encode byte slices as 0x prefixed hexadecimal strings.
func EncodeHex(bz []byte) string {
	return fmt.Sprintf("0x%s", hex.EncodeToString(bz))
}

// DecodeHex is a convenience function to decode 0x prefixed hexadecimal strings as byte slices.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}

	return b, nil
}
