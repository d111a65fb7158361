package schema

// NewErrorResponse creates a failed response correlated to requestSeq with a
// short error message for the front-end UI.
func NewErrorResponse(seq, requestSeq int64, command, message string) *Message {
	success := false
	return &Message{
		Seq:        seq,
		Type:       TypeResponse,
		Command:    command,
		RequestSeq: requestSeq,
		Success:    &success,
		Message:    message,
	}
}
