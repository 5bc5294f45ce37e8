package util

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/holiman/uint256"
)

// IntFromUint256 converts a 256 bit word into a native amount.
func IntFromUint256(v *uint256.Int) math.Int {
	if v == nil {
		return math.ZeroInt()
	}
	return math.NewIntFromBigInt(v.ToBig())
}

// Uint256FromInt converts a non-negative native amount into a 256 bit word.
func Uint256FromInt(v math.Int) (*uint256.Int, error) {
	if v.IsNil() {
		return uint256.NewInt(0), nil
	}
	if v.IsNegative() {
		return nil, fmt.Errorf("negative amount %s", v)
	}

	out, overflow := uint256.FromBig(v.BigInt())
	if overflow {
		return nil, fmt.Errorf("amount %s overflows 256 bits", v)
	}
	return out, nil
}

// AddAmounts sums a and b, failing when the sum leaves 256 bits.
func AddAmounts(a, b math.Int) (math.Int, error) {
	x, err := Uint256FromInt(a)
	if err != nil {
		return math.Int{}, err
	}
	y, err := Uint256FromInt(b)
	if err != nil {
		return math.Int{}, err
	}
	sum, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return math.Int{}, fmt.Errorf("%s + %s overflows 256 bits", a, b)
	}
	return IntFromUint256(sum), nil
}
