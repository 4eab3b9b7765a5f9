package interchange

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

type msgpackCodec struct{}

// MsgPack returns a MessagePack codec.
func MsgPack() Codec { return msgpackCodec{} }

func (msgpackCodec) Name() string        { return "msgpack" }
func (msgpackCodec) ContentType() string { return "application/msgpack" }

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, encodeError("msgpack", err)
	}
	return data, nil
}

// Unmarshal decodes numbers loosely as int64, uint64 or float64.
func (msgpackCodec) Unmarshal(data []byte) (any, error) {
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	dec.UseLooseInterfaceDecoding(true)
	v, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return nil, decodeError("msgpack", err)
	}
	if n := r.Len(); n > 0 {
		return nil, decodeError("msgpack", fmt.Errorf("%d trailing bytes", n))
	}
	return v, nil
}
