package rpc

import (
	"github.com/fxamacker/cbor/v2"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content subtype of the store service's messages.
const CodecName = "cbor"

type codec struct{}

func (codec) Marshal(v interface{}) ([]byte, error) {
	return cbor.Marshal(v)
}

func (codec) Unmarshal(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}

func (codec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(codec{})
}
