// Package mcstatus implements the pre-login status portion of the Minecraft
// Java Edition protocol: VarInt/VarLong framing, length-prefixed strings,
// and the Handshake/Status Request/Status Response packets.
package mcstatus

import (
	"errors"
	"fmt"
	"io"
)

const (
	segmentBits = 0x7F
	continueBit = 0x80

	maxVarIntBytes  = 5
	maxVarLongBytes = 10
)

// ErrMalformedVarInt is returned when a VarInt or VarLong exceeds its
// maximum encoded length without a terminating byte.
var ErrMalformedVarInt = errors.New("mcstatus: malformed varint")

// AppendVarInt appends the VarInt encoding of v to buf and returns the
// extended slice.
func AppendVarInt(buf []byte, v int32) []byte {
	return appendVarIntGeneric(buf, uint64(uint32(v)))
}

// AppendVarLong appends the VarLong encoding of v to buf and returns the
// extended slice.
func AppendVarLong(buf []byte, v int64) []byte {
	return appendVarIntGeneric(buf, uint64(v))
}

func appendVarIntGeneric(buf []byte, value uint64) []byte {
	for {
		if value <= segmentBits {
			return append(buf, byte(value))
		}
		buf = append(buf, byte(value&segmentBits)|continueBit)
		value >>= 7
	}
}

// ReadVarInt decodes a VarInt from data starting at *index, advancing
// *index past the bytes consumed. If index is nil, decoding starts at 0.
func ReadVarInt(data []byte, index *int) (int32, error) {
	v, err := readVarIntGeneric(data, index, maxVarIntBytes)
	return int32(v), err
}

// ReadVarLong decodes a VarLong from data starting at *index.
func ReadVarLong(data []byte, index *int) (int64, error) {
	v, err := readVarIntGeneric(data, index, maxVarLongBytes)
	return v, err
}

func readVarIntGeneric(data []byte, index *int, maxBytes int) (int64, error) {
	var offset int
	if index != nil {
		offset = *index
	}

	var value int64
	var position uint
	var n int
	for offset < len(data) {
		b := data[offset]
		offset++
		n++

		value |= int64(b&segmentBits) << position
		if b&continueBit == 0 {
			if index != nil {
				*index = offset
			}
			return value, nil
		}

		if n >= maxBytes {
			return 0, ErrMalformedVarInt
		}
		position += 7
	}
	return 0, fmt.Errorf("mcstatus: %w: unexpected eof", io.ErrUnexpectedEOF)
}

// ReadVarIntFromStream decodes a VarInt directly from a byte-at-a-time
// reader, used to read the outer frame length before the payload is known.
func ReadVarIntFromStream(r io.ByteReader) (int32, error) {
	var value uint32
	var position uint
	var n int
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		n++

		value |= uint32(b&segmentBits) << position
		if b&continueBit == 0 {
			return int32(value), nil
		}
		if n >= maxVarIntBytes {
			return 0, ErrMalformedVarInt
		}
		position += 7
	}
}
