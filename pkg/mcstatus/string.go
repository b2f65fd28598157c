package mcstatus

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf16"
	"unicode/utf8"
)

// MaxStringUTF16Len is the maximum UTF-16 code-unit length the protocol
// allows for a length-prefixed string.
const MaxStringUTF16Len = 32767

// ErrStringTooLong is returned by AppendString when s exceeds
// MaxStringUTF16Len UTF-16 code units.
var ErrStringTooLong = errors.New("mcstatus: string exceeds max protocol length")

// ErrInvalidUTF8 is returned by ReadString when the decoded bytes aren't
// valid UTF-8.
var ErrInvalidUTF8 = errors.New("mcstatus: invalid utf-8 in string")

// AppendString appends the length-prefixed encoding of s (VarInt UTF-16
// code-unit count, followed by the UTF-8 bytes) to buf.
func AppendString(buf []byte, s string) ([]byte, error) {
	n := utf16Len(s)
	if n > MaxStringUTF16Len {
		return nil, fmt.Errorf("%w: %d code units", ErrStringTooLong, n)
	}
	buf = AppendVarInt(buf, int32(n))
	return append(buf, s...), nil
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// ReadString decodes a length-prefixed string from data starting at *index.
// The length prefix is interpreted as a byte length for the following UTF-8
// data, per the wire contract of the status response.
func ReadString(data []byte, index *int) (string, error) {
	length, err := ReadVarInt(data, index)
	if err != nil {
		return "", err
	}
	if length < 0 {
		return "", fmt.Errorf("mcstatus: negative string length %d", length)
	}

	start := *index
	end := start + int(length)
	if end > len(data) {
		return "", fmt.Errorf("mcstatus: %w: string length %d exceeds buffer", io.ErrUnexpectedEOF, length)
	}

	b := data[start:end]
	*index = end

	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}
