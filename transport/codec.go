package transport

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// contentLengthHeader is the only mandatory header of the DAP base protocol.
const contentLengthHeader = "Content-Length:"

// maxContentLength guards against a corrupted header claiming an absurd body.
const maxContentLength = 16 << 20

// ReadMessage reads one Content-Length framed payload. Unknown headers are
// skipped; the returned slice holds exactly the message body.
func ReadMessage(reader *bufio.Reader) ([]byte, error) {
	contentLength := 0
	for {
		header, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		header = strings.TrimSpace(header)
		if header == "" {
			break
		}
		if strings.HasPrefix(header, contentLengthHeader) {
			value := strings.TrimSpace(header[len(contentLengthHeader):])
			contentLength, err = strconv.Atoi(value)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid %v header: %q", contentLengthHeader, value)
			}
		}
	}
	if contentLength <= 0 {
		return nil, errors.Errorf("missing or empty %v header", contentLengthHeader)
	}
	if contentLength > maxContentLength {
		return nil, errors.Errorf("declared content length %v exceeds limit", contentLength)
	}
	payload := make([]byte, contentLength)
	if _, err := io.ReadFull(reader, payload); err != nil {
		return nil, errors.Wrap(err, "failed to read message body")
	}
	return payload, nil
}

// WriteMessage writes one framed payload.
func WriteMessage(writer io.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(writer, "%v %v\r\n\r\n", contentLengthHeader, len(payload)); err != nil {
		return errors.Wrap(err, "failed to write message header")
	}
	if _, err := writer.Write(payload); err != nil {
		return errors.Wrap(err, "failed to write message body")
	}
	return nil
}
