package interchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

type jsonCodec struct{}

// JSON returns a JSON codec. Numbers decode as json.Number so integers above
// 2^53 survive.
func JSON() Codec { return jsonCodec{} }

func (jsonCodec) Name() string        { return "json" }
func (jsonCodec) ContentType() string { return "application/json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, encodeError("json", err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, decodeError("json", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, decodeError("json", fmt.Errorf("trailing data after offset %d", dec.InputOffset()))
	}
	return v, nil
}
