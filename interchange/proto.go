package interchange

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type protoCodec struct {
	mo proto.MarshalOptions
	uo proto.UnmarshalOptions
}

// Proto returns a codec carrying values as a google.protobuf.Value message
// with deterministic marshaling. Numbers travel as doubles, so integers
// above 2^53 lose precision.
func Proto() Codec {
	return protoCodec{
		mo: proto.MarshalOptions{Deterministic: true},
		uo: proto.UnmarshalOptions{},
	}
}

func (protoCodec) Name() string        { return "proto" }
func (protoCodec) ContentType() string { return "application/x-protobuf" }

func (p protoCodec) Marshal(v any) ([]byte, error) {
	val, err := structpb.NewValue(v)
	if err != nil {
		return nil, encodeError("proto", err)
	}
	data, err := p.mo.Marshal(val)
	if err != nil {
		return nil, encodeError("proto", err)
	}
	return data, nil
}

func (p protoCodec) Unmarshal(data []byte) (any, error) {
	var val structpb.Value
	if err := p.uo.Unmarshal(data, &val); err != nil {
		return nil, decodeError("proto", err)
	}
	return val.AsInterface(), nil
}
