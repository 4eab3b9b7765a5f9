// Package interchange converts keyed BSOS values to and from other
// serialization formats.
//
// Every codec decodes into plain Go values (maps, slices, strings, numbers,
// booleans). Normalize turns that output into the keyed form the marshaller
// accepts, so a value can travel JSON -> BSOS -> CBOR without any schema
// specific code.
package interchange

import (
	"sort"
	"strings"

	"github.com/firecraftgaming/binary-structured-objects/errors"
)

// Codec converts between bytes in one format and plain Go values.
type Codec interface {
	// Name is the short identifier used on the command line, e.g. "json".
	Name() string
	ContentType() string
	Marshal(v any) ([]byte, error)
	// Unmarshal decodes exactly one value; trailing data is an error.
	Unmarshal(data []byte) (any, error)
}

// Registry maps format names and content types to codecs.
type Registry struct {
	byName map[string]Codec
}

// NewRegistry returns a registry holding the JSON, MessagePack, CBOR and
// protobuf codecs.
func NewRegistry() (*Registry, error) {
	r := &Registry{byName: make(map[string]Codec)}
	r.Register(JSON())
	r.Register(MsgPack())
	r.Register(Proto())
	c, err := CBOR()
	if err != nil {
		return nil, err
	}
	r.Register(c)
	return r, nil
}

// Register adds c under its name and content type, replacing any codec
// already registered under either.
func (r *Registry) Register(c Codec) {
	r.byName[c.Name()] = c
	r.byName[c.ContentType()] = c
}

// Get returns the codec registered as name, which may be a format name or a
// content type.
func (r *Registry) Get(name string) (Codec, error) {
	c, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.NotFound(errors.PhaseInterop, "format", name)
	}
	return c, nil
}

// Names returns the registered format names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName)/2)
	for key, c := range r.byName {
		if key == c.Name() {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	return names
}

func encodeError(format string, err error) error {
	return errors.Wrap(errors.PhaseInterop, errors.KindInvalidInput, err, format+": encode failed")
}

func decodeError(format string, err error) error {
	return errors.Wrap(errors.PhaseInterop, errors.KindInvalidData, err, format+": decode failed")
}
