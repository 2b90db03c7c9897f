package osc

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/Lobaro/slip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewCaptureWriter(&buf)

	start := time.Unix(1700000000, 123456789)
	datagrams := [][]byte{
		[]byte("/ping\x00\x00\x00,i\x00\x00\x00\x00\x00\x2a"),
		{0xc0, 0xdb, 0x00, 0xc0}, // SLIP END and ESC bytes in the payload
		[]byte("/foo"),
	}
	for i, d := range datagrams {
		require.NoError(t, w.Write(start.Add(time.Duration(i)*time.Millisecond), d))
	}

	r := NewCaptureReader(&buf)
	for i, d := range datagrams {
		rec, err := r.Next()
		require.NoError(t, err, "record %d", i)
		assert.Equal(t, d, rec.Data, "record %d", i)
		assert.Equal(t, start.Add(time.Duration(i)*time.Millisecond).UnixNano(), rec.Time.UnixNano(), "record %d", i)
	}

	_, err := r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCaptureEmpty(t *testing.T) {
	_, err := NewCaptureReader(&bytes.Buffer{}).Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCaptureChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCaptureWriter(&buf).Write(time.Now(), []byte("/abc\x00\x00\x00\x00")))

	raw := buf.Bytes()
	i := bytes.LastIndex(raw, []byte("/abc"))
	require.NotEqual(t, -1, i)
	raw[i+1] = 'x'

	_, err := NewCaptureReader(bytes.NewReader(raw)).Next()
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestCaptureShortFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, slip.NewWriter(&buf).WritePacket([]byte{1, 2, 3}))

	_, err := NewCaptureReader(&buf).Next()
	assert.ErrorIs(t, err, ErrCorruptRecord)
}
