package osc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Lobaro/slip"
	"github.com/zeebo/xxh3"
)

// A capture is a sequence of SLIP frames, one per datagram. Each frame holds
// the receive time (unix nanoseconds), the xxh3 hash of the datagram and the
// datagram itself, all big-endian:
//
//	| time int64 | hash uint64 | datagram ... |
const recordHeaderSize = 2 * bit64Size

// ErrCorruptRecord is returned by CaptureReader.Next for a frame that is
// too short or whose checksum does not match.
var ErrCorruptRecord = errors.New("corrupt capture record")

// Record is one captured datagram.
type Record struct {
	Time time.Time
	Data []byte
}

// CaptureWriter appends datagrams to a capture. It is safe for concurrent
// use.
type CaptureWriter struct {
	mu  sync.Mutex
	w   *slip.Writer
	buf []byte
}

// NewCaptureWriter returns a CaptureWriter writing frames to w. Every Write
// results in a single write to w, so w need not be buffered.
func NewCaptureWriter(w io.Writer) *CaptureWriter {
	return &CaptureWriter{w: slip.NewWriter(w)}
}

// Write appends one datagram received at t.
func (cw *CaptureWriter) Write(t time.Time, data []byte) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.buf = cw.buf[:0]
	cw.buf = binary.BigEndian.AppendUint64(cw.buf, uint64(t.UnixNano()))
	cw.buf = binary.BigEndian.AppendUint64(cw.buf, xxh3.Hash(data))
	cw.buf = append(cw.buf, data...)

	if err := cw.w.WritePacket(cw.buf); err != nil {
		return fmt.Errorf("osc: write capture record: %w", err)
	}
	return nil
}

// CaptureReader reads datagrams back from a capture.
type CaptureReader struct {
	r *slip.Reader
}

// NewCaptureReader returns a CaptureReader reading frames from r.
func NewCaptureReader(r io.Reader) *CaptureReader {
	return &CaptureReader{r: slip.NewReader(r)}
}

// Next returns the next record. At the end of the capture it returns io.EOF;
// a capture that ends in the middle of a frame yields ErrCorruptRecord.
func (cr *CaptureReader) Next() (Record, error) {
	var frame []byte
	for {
		p, isPrefix, err := cr.r.ReadPacket()
		frame = append(frame, p...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(frame) == 0 {
					return Record{}, io.EOF
				}
				return Record{}, fmt.Errorf("osc: %w: truncated frame", ErrCorruptRecord)
			}
			return Record{}, fmt.Errorf("osc: read capture record: %w", err)
		}
		if isPrefix {
			continue
		}
		// Empty frames come from back to back END bytes.
		if len(frame) > 0 {
			break
		}
	}

	if len(frame) < recordHeaderSize {
		return Record{}, fmt.Errorf("osc: %w: %d byte frame", ErrCorruptRecord, len(frame))
	}

	ts := int64(binary.BigEndian.Uint64(frame[:bit64Size]))
	sum := binary.BigEndian.Uint64(frame[bit64Size:recordHeaderSize])
	data := frame[recordHeaderSize:]
	if xxh3.Hash(data) != sum {
		return Record{}, fmt.Errorf("osc: %w: checksum mismatch", ErrCorruptRecord)
	}

	return Record{Time: time.Unix(0, ts), Data: data}, nil
}
