package helpers

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ============================================================================
// MSGPACK CODEC — compact wire form for frames and selections
// ============================================================================
// Field names follow the msgpack tag, falling back to the json tag, so both
// codecs produce the same keys for every linkview type.
// ============================================================================

// MsgpackContentType is the media type the server negotiates for msgpack.
const MsgpackContentType = "application/msgpack"

// EncodeMsgpack serializes v into MessagePack.
func EncodeMsgpack(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode MessagePack: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeMsgpack deserializes MessagePack data into v, which must be a
// pointer.
func DecodeMsgpack(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty MessagePack data")
	}
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}
	return nil
}
