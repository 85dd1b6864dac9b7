package codec

import (
	"fmt"

	"github.com/ValentinKolb/kvmarket/lib/common"
)

// ICodec is the interface for all collection codecs.
// A codec turns a whole collection (registry, catalog, cart, history) into the bytes stored
// under a single key and back.
type ICodec interface {
	// Encode serializes v into a byte array
	Encode(v any) ([]byte, error)
	// Decode deserializes b into the value pointed to by v
	Decode(b []byte, v any) error
	// Name returns the configuration name of the codec
	Name() common.Serializer
}

// New returns the codec registered under the given name
func New(name common.Serializer) (ICodec, error) {
	switch name {
	case common.SerializerJSON, "":
		return NewJSONCodec(), nil
	case common.SerializerGOB:
		return NewGOBCodec(), nil
	default:
		return nil, fmt.Errorf("unknown serializer: %q", name)
	}
}
