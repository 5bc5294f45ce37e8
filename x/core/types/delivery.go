package types

import (
	"encoding/binary"
	"fmt"

	"github.com/celestiaorg/hyperlane-core/pkg/util"
)

// Delivery records who processed a message and at which height.
type Delivery struct {
	Processor   util.HexAddress
	BlockHeight int64
}

func (d Delivery) Bytes() []byte {
	out := make([]byte, 0, util.HexAddressLength+8)
	out = append(out, d.Processor[:]...)
	return binary.BigEndian.AppendUint64(out, uint64(d.BlockHeight))
}

func ParseDelivery(bz []byte) (Delivery, error) {
	if len(bz) != util.HexAddressLength+8 {
		return Delivery{}, fmt.Errorf("invalid delivery length %d", len(bz))
	}
	var d Delivery
	copy(d.Processor[:], bz[:util.HexAddressLength])
	d.BlockHeight = int64(binary.BigEndian.Uint64(bz[util.HexAddressLength:]))
	return d, nil
}

// DeliveryValue stores a Delivery in collections.
var DeliveryValue = util.NewValueCodec("hyperlane/Delivery", Delivery.Bytes, ParseDelivery)
