package rpc

import (
	"encoding/json"
	"errors"

	"connectrpc.com/connect"

	conversationsvc "listingassist/internal/gateway/service/conversation"
)

// jsonCodec lets connect carry plain Go structs as JSON. It replaces the
// protojson codec registered under the same name.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// CodecOption is the option clients need to talk to the conversation service.
func CodecOption() connect.Option { return connect.WithCodec(jsonCodec{}) }

func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, conversationsvc.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, conversationsvc.ErrInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// wsCode is the error code string sent over the websocket.
func wsCode(err error) string {
	switch {
	case errors.Is(err, conversationsvc.ErrNotFound):
		return "not_found"
	case errors.Is(err, conversationsvc.ErrInvalidInput):
		return "invalid_argument"
	}
	return "internal"
}
