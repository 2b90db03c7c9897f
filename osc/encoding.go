package osc

import (
	"bytes"
	"encoding/binary"
	"math"
)

const (
	bit32Size = 4
	bit64Size = 8
)

var zeroes [bit32Size]byte

////
// De/Encoding functions
////

// padBytesNeeded returns how many zero bytes follow a string of length
// elementLen on the wire: the terminator plus the padding up to the next
// 4 byte boundary. The result is always between 1 and 4, so a string whose
// length is already a multiple of 4 gets a full block of zeroes.
func padBytesNeeded(elementLen int) int {
	return 4*(elementLen/4+1) - elementLen
}

// paddedLen returns the on-wire length of a string of length n.
func paddedLen(n int) int {
	return n + padBytesNeeded(n)
}

// readPaddedString reads a zero terminated string from data starting at
// offset. It returns the string and the offset of the field that follows the
// padding. The returned offset may lie beyond len(data) when the trailing
// padding of the last field was not transmitted.
func readPaddedString(data []byte, offset int) (string, int, bool) {
	if offset > len(data) {
		return "", offset, false
	}
	end := bytes.IndexByte(data[offset:], 0)
	if end == -1 {
		return "", offset, false
	}
	return string(data[offset : offset+end]), offset + paddedLen(end), true
}

// writePaddedString writes a string with its terminator and padding bytes to
// the buffer. Returns the number of written bytes.
func writePaddedString(str string, buff *bytes.Buffer) int {
	n, _ := buff.WriteString(str)
	pad := padBytesNeeded(n)
	buff.Write(zeroes[:pad])
	return n + pad
}

func writeInt32(v int32, buff *bytes.Buffer) {
	var b [bit32Size]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	buff.Write(b[:])
}

func writeInt64(v int64, buff *bytes.Buffer) {
	var b [bit64Size]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buff.Write(b[:])
}

func writeFloat32(v float32, buff *bytes.Buffer) {
	writeInt32(int32(math.Float32bits(v)), buff)
}

func writeFloat64(v float64, buff *bytes.Buffer) {
	writeInt64(int64(math.Float64bits(v)), buff)
}
