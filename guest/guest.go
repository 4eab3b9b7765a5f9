// Package guest moves BSOS payloads in and out of WebAssembly linear memory.
//
// A payload in memory is framed as a LEB128 byte length followed by the
// encoded record, so a guest only needs to pass a single offset to hand a
// value to the host.
package guest

import (
	"context"
	"encoding/binary"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/firecraftgaming/binary-structured-objects/errors"
)

// maxFrameHeader is the longest LEB128 encoding of a uint64.
const maxFrameHeader = binary.MaxVarintLen64

// Registry is the part of a bsos.Registry guest needs.
type Registry interface {
	Encode(name string, value any) ([]byte, error)
	Decode(name string, data []byte) (any, error)
}

// Write encodes value as the record type name and writes the framed payload
// to mem at offset. It returns the number of bytes written.
func Write(reg Registry, mem api.Memory, offset uint32, name string, value any) (uint32, error) {
	data, err := reg.Encode(name, value)
	if err != nil {
		return 0, err
	}
	frame := make([]byte, 0, maxFrameHeader+len(data))
	frame = binary.AppendUvarint(frame, uint64(len(data)))
	frame = append(frame, data...)

	if uint64(offset)+uint64(len(frame)) > uint64(mem.Size()) || !mem.Write(offset, frame) {
		return 0, outOfBounds(errors.PhaseEncode, offset, uint64(len(frame)), mem.Size())
	}
	return uint32(len(frame)), nil
}

// Read decodes the framed payload at offset as the record type name. It
// returns the value and the number of bytes the frame occupies.
func Read(reg Registry, mem api.Memory, offset uint32, name string) (any, uint32, error) {
	size := mem.Size()
	if offset >= size {
		return nil, 0, outOfBounds(errors.PhaseDecode, offset, 1, size)
	}

	header, _ := mem.Read(offset, min(maxFrameHeader, size-offset))
	length, n := binary.Uvarint(header)
	switch {
	case n == 0 && len(header) < maxFrameHeader:
		return nil, 0, outOfBounds(errors.PhaseDecode, offset, uint64(len(header))+1, size)
	case n <= 0:
		return nil, 0, errors.New(errors.PhaseDecode, errors.KindOverflow).
			Detail("frame length at offset %d overflows 64 bits", offset).
			Build()
	}

	start := uint64(offset) + uint64(n)
	if start+length > uint64(size) {
		return nil, 0, outOfBounds(errors.PhaseDecode, offset, uint64(n)+length, size)
	}
	data, ok := mem.Read(uint32(start), uint32(length))
	if !ok {
		return nil, 0, outOfBounds(errors.PhaseDecode, offset, uint64(n)+length, size)
	}

	v, err := reg.Decode(name, data)
	if err != nil {
		return nil, 0, err
	}
	return v, uint32(n) + uint32(length), nil
}

func outOfBounds(phase errors.Phase, offset uint32, need uint64, size uint32) error {
	return errors.New(phase, errors.KindOutOfBounds).
		Detail("frame at offset %d needs %d bytes, memory size is %d", offset, need, size).
		Build()
}

// ScratchModule returns a WebAssembly binary that only exports a memory
// named "memory" of the given number of pages.
func ScratchModule(pages uint32) []byte {
	limits := binary.AppendUvarint([]byte{0x01, 0x00}, uint64(pages))

	bin := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	bin = append(bin, 0x05)
	bin = binary.AppendUvarint(bin, uint64(len(limits)))
	bin = append(bin, limits...)
	bin = append(bin, 0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00)
	return bin
}

// Scratch instantiates ScratchModule(pages) in rt under name. Hosts use it
// to stage payloads before handing them to a guest that imports memory.
func Scratch(ctx context.Context, rt wazero.Runtime, name string, pages uint32) (api.Module, error) {
	mod, err := rt.InstantiateWithConfig(ctx, ScratchModule(pages), wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseInterop, errors.KindInvalidInput, err, "instantiate scratch memory")
	}
	return mod, nil
}
