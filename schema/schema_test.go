package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	testCases := []struct {
		description string
		payload     string
		expectType  string
		expectSeq   int64
	}{
		{
			description: "request",
			payload:     `{"seq":4,"type":"request","command":"continue","arguments":{"threadId":1}}`,
			expectType:  TypeRequest,
			expectSeq:   4,
		},
		{
			description: "event",
			payload:     `{"seq":11,"type":"event","event":"stopped","body":{"reason":"breakpoint"}}`,
			expectType:  TypeEvent,
			expectSeq:   11,
		},
		{
			description: "string seq coerced",
			payload:     `{"seq":"7","type":"request","command":"next"}`,
			expectType:  TypeRequest,
			expectSeq:   7,
		},
		{
			description: "seq near the int64 ceiling kept exact",
			payload:     `{"seq":9223372036854775806,"type":"request","command":"pause"}`,
			expectType:  TypeRequest,
			expectSeq:   9223372036854775806,
		},
	}

	for _, testCase := range testCases {
		msg, err := Decode([]byte(testCase.payload))
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expectType, msg.Type, testCase.description)
		assert.Equal(t, testCase.expectSeq, msg.Seq, testCase.description)
		assert.Equal(t, testCase.payload, string(msg.Raw), testCase.description)
	}
}

func TestDecodeResponse(t *testing.T) {
	payload := `{"seq":2,"type":"response","request_seq":9,"success":true,"command":"variables","body":{}}`
	msg, err := Decode([]byte(payload))
	require.NoError(t, err)
	assert.True(t, msg.IsResponse())
	assert.True(t, msg.Succeeded())
	assert.EqualValues(t, 9, msg.RequestSeq)
	assert.Equal(t, CommandVariables, msg.Command)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}

func TestNewResponseRoundTrip(t *testing.T) {
	response, err := NewResponse(1, 3, CommandInitialize, DefaultCapabilities())
	require.NoError(t, err)
	payload, err := Encode(response)
	require.NoError(t, err)

	decoded, err := Decode(payload)
	require.NoError(t, err)
	assert.True(t, decoded.IsResponse())
	assert.True(t, decoded.Succeeded())
	assert.EqualValues(t, 3, decoded.RequestSeq)

	capabilities := &Capabilities{}
	require.NoError(t, json.Unmarshal(decoded.Body, capabilities))
	assert.True(t, capabilities.SupportsConfigurationDoneRequest)
	require.Len(t, capabilities.ExceptionBreakpointFilters, 2)
	assert.Equal(t, "uncaught", capabilities.ExceptionBreakpointFilters[1].Filter)
	assert.True(t, capabilities.ExceptionBreakpointFilters[1].Default)
}

func TestNewErrorResponse(t *testing.T) {
	response := NewErrorResponse(0, 5, CommandAttach, "no program")
	payload, err := Encode(response)
	require.NoError(t, err)
	decoded, err := Decode(payload)
	require.NoError(t, err)
	assert.True(t, decoded.IsResponse())
	assert.False(t, decoded.Succeeded())
	assert.Equal(t, "no program", decoded.Message)
}

func TestNewRequest(t *testing.T) {
	request, err := NewRequest(100, CommandPause, &PauseArguments{ThreadID: 1})
	require.NoError(t, err)
	payload, err := Encode(request)
	require.NoError(t, err)
	assert.JSONEq(t, `{"seq":100,"type":"request","command":"pause","arguments":{"threadId":1}}`, string(payload))
}
