package mcstatus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// ProtocolVersion is the handshake protocol version advertised by the
// scanner. The server's own reported protocol (in the status JSON) is
// stored as-is and never compared against this value.
const ProtocolVersion = 757

// DefaultMaxFrameSize bounds how large a status response frame the decoder
// will accept before aborting with ErrFrameTooLarge.
const DefaultMaxFrameSize = 2 * 1024 * 1024

// ErrFrameTooLarge is returned when a response frame's declared length
// exceeds the configured maximum.
var ErrFrameTooLarge = errors.New("mcstatus: frame exceeds max size")

// BuildHandshake builds the outbound Handshake packet requesting the
// status (next_state=1) pre-login state.
func BuildHandshake(serverAddress string, serverPort uint16) ([]byte, error) {
	inner := AppendVarInt(nil, 0x00)
	inner = AppendVarInt(inner, ProtocolVersion)
	inner, err := AppendString(inner, serverAddress)
	if err != nil {
		return nil, fmt.Errorf("encode server address: %w", err)
	}
	inner = AppendUint16(inner, serverPort)
	inner = AppendVarInt(inner, 1) // next_state: status

	outer := AppendVarInt(nil, int32(len(inner)))
	return append(outer, inner...), nil
}

// BuildStatusRequest builds the outbound (empty) Status Request packet.
func BuildStatusRequest() []byte {
	inner := AppendVarInt(nil, 0x00)
	outer := AppendVarInt(nil, int32(len(inner)))
	return append(outer, inner...)
}

// ReadStatusResponse reads a framed Status Response from r: an outer VarInt
// length, followed by that many bytes containing a VarInt packet id and a
// length-prefixed JSON string. maxFrameSize bounds the declared length; if
// zero, DefaultMaxFrameSize is used.
func ReadStatusResponse(r io.Reader, maxFrameSize int) (json string, err error) {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}

	br := bufio.NewReaderSize(r, 1)
	length, err := ReadVarIntFromStream(br)
	if err != nil {
		return "", fmt.Errorf("read frame length: %w", err)
	}
	if length < 0 || int(length) > maxFrameSize {
		return "", fmt.Errorf("%w: declared %d bytes", ErrFrameTooLarge, length)
	}

	buf := make([]byte, length)
	// bufio raises the requested size of 1 to its 16-byte minimum, so br
	// may hold bytes read past the length varint; draining through it (not
	// r directly) keeps those bytes in the frame body.
	if _, err := io.ReadFull(br, buf); err != nil {
		return "", fmt.Errorf("read frame body: %w", err)
	}

	var index int
	if _, err := ReadVarInt(buf, &index); err != nil {
		return "", fmt.Errorf("read packet id: %w", err)
	}
	s, err := ReadString(buf, &index)
	if err != nil {
		return "", fmt.Errorf("read response string: %w", err)
	}
	return s, nil
}
