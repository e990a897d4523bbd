package api

import (
	"encoding/json"
)

// CodecName is the connect codec name; it selects application/json.
const CodecName = "json"

// JSONCodec marshals plain Go message structs with encoding/json.
// Register it on both handlers and clients with connect.WithCodec.
type JSONCodec struct{}

// Name implements connect.Codec.
func (JSONCodec) Name() string { return CodecName }

// Marshal implements connect.Codec.
func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal implements connect.Codec. An empty body leaves msg at its zero value.
func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
