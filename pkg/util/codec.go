package util

import (
	"encoding/json"
	"fmt"

	collcodec "cosmossdk.io/collections/codec"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type valueCodec[T any] struct {
	name   string
	encode func(T) []byte
	decode func([]byte) (T, error)
}

var _ collcodec.ValueCodec[HexAddress] = valueCodec[HexAddress]{}

// NewValueCodec adapts a fixed binary encoding into a collections value codec.
// JSON renders the binary form as a 0x prefixed hex string.
func NewValueCodec[T any](name string, encode func(T) []byte, decode func([]byte) (T, error)) collcodec.ValueCodec[T] {
	return valueCodec[T]{name: name, encode: encode, decode: decode}
}

func (c valueCodec[T]) Encode(value T) ([]byte, error) {
	return c.encode(value), nil
}

func (c valueCodec[T]) Decode(bz []byte) (T, error) {
	return c.decode(bz)
}

func (c valueCodec[T]) EncodeJSON(value T) ([]byte, error) {
	return json.Marshal(hexutil.Encode(c.encode(value)))
}

func (c valueCodec[T]) DecodeJSON(bz []byte) (T, error) {
	var (
		s    string
		zero T
	)
	if err := json.Unmarshal(bz, &s); err != nil {
		return zero, err
	}

	raw, err := hexutil.Decode(s)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", c.name, err)
	}

	return c.decode(raw)
}

func (c valueCodec[T]) Stringify(value T) string {
	return hexutil.Encode(c.encode(value))
}

func (c valueCodec[T]) ValueType() string {
	return c.name
}
