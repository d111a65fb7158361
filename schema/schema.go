package schema

import (
	"bytes"
	"encoding/json"

	"github.com/go-faster/errors"

	"github.com/blurstudio/maxdap/internal/conv"
)

// Message type discriminators used by the Debug Adapter Protocol envelope.
const (
	TypeRequest  = "request"
	TypeResponse = "response"
	TypeEvent    = "event"
)

// Message is the DAP protocol envelope. A single struct covers requests,
// responses and events; Type selects which fields are meaningful.
// Raw preserves the original payload so that messages the proxy does not
// rewrite can be forwarded byte for byte.
type Message struct {
	Seq  int64  `json:"seq"`
	Type string `json:"type"`

	// request
	Command   string          `json:"command,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`

	// response
	RequestSeq int64  `json:"request_seq,omitempty"`
	Success    *bool  `json:"success,omitempty"`
	Message    string `json:"message,omitempty"`

	// event
	Event string          `json:"event,omitempty"`
	Body  json.RawMessage `json:"body,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// IsRequest reports whether the message is a request.
func (m *Message) IsRequest() bool { return m.Type == TypeRequest }

// IsResponse reports whether the message is a response.
func (m *Message) IsResponse() bool { return m.Type == TypeResponse }

// IsEvent reports whether the message is an event.
func (m *Message) IsEvent() bool { return m.Type == TypeEvent }

// Succeeded reports whether a response message carries success=true.
func (m *Message) Succeeded() bool { return m.Success != nil && *m.Success }

// Decode peels the DAP envelope from a raw payload. The payload is retained
// in Raw untouched. Sequence numbers are coerced, some backends have been
// seen emitting them as strings, and numbers must not round trip through
// float64 since synthesized seqs sit near the int64 ceiling.
func Decode(payload []byte) (*Message, error) {
	msg := &Message{}
	type alias Message
	aux := &struct {
		Seq        interface{} `json:"seq"`
		RequestSeq interface{} `json:"request_seq"`
		*alias
	}{alias: (*alias)(msg)}
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	if err := decoder.Decode(aux); err != nil {
		return nil, errors.Wrap(err, "failed to decode DAP message")
	}
	msg.Seq = conv.AsInt64(aux.Seq, 0)
	msg.RequestSeq = conv.AsInt64(aux.RequestSeq, 0)
	msg.Raw = payload
	return msg, nil
}

// Encode serializes a message constructed by the proxy itself.
func Encode(message *Message) ([]byte, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode DAP message")
	}
	return data, nil
}

// NewRequest creates a request with the supplied seq, command and arguments.
func NewRequest(seq int64, command string, arguments interface{}) (*Message, error) {
	msg := &Message{Seq: seq, Type: TypeRequest, Command: command}
	if arguments != nil {
		data, err := json.Marshal(arguments)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request arguments")
		}
		msg.Arguments = data
	}
	return msg, nil
}

// NewResponse creates a success response correlated to requestSeq.
func NewResponse(seq, requestSeq int64, command string, body interface{}) (*Message, error) {
	success := true
	msg := &Message{
		Seq:        seq,
		Type:       TypeResponse,
		Command:    command,
		RequestSeq: requestSeq,
		Success:    &success,
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal response body")
		}
		msg.Body = data
	}
	return msg, nil
}

// NewEvent creates an event message.
func NewEvent(seq int64, event string, body interface{}) (*Message, error) {
	msg := &Message{Seq: seq, Type: TypeEvent, Event: event}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal event body")
		}
		msg.Body = data
	}
	return msg, nil
}
