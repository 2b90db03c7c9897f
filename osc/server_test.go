package osc

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	msg  *Message
	from net.Addr
}

// startServer serves a loopback socket until the test ends and returns the
// channels fed by the server's handlers and a client aimed at it.
func startServer(t *testing.T, s *Server) (<-chan received, <-chan error, *Client) {
	t.Helper()

	conn, err := ListenPacket(context.Background(), "127.0.0.1:0")
	require.NoError(t, err)

	msgs := make(chan received, 16)
	errs := make(chan error, 16)
	s.Handler = HandlerFunc(func(msg *Message, from net.Addr) {
		msgs <- received{msg, from}
	})
	s.ErrorHandler = func(err error, data []byte, from net.Addr) {
		errs <- err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, conn)
	}()

	client := NewClient("127.0.0.1", conn.LocalAddr().(*net.UDPAddr).Port)
	t.Cleanup(func() {
		client.Close()
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("Serve did not return after cancel")
		}
	})

	return msgs, errs, client
}

func waitMessage(t *testing.T, msgs <-chan received) received {
	t.Helper()
	select {
	case r := <-msgs:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return received{}
	}
}

func waitError(t *testing.T, errs <-chan error) error {
	t.Helper()
	select {
	case err := <-errs:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for decode error")
		return nil
	}
}

func TestServerKeepsServingAfterDecodeError(t *testing.T) {
	msgs, errs, client := startServer(t, &Server{})
	ctx := context.Background()

	require.NoError(t, client.Send(ctx, []byte("/unterminated")))
	assert.ErrorIs(t, waitError(t, errs), ErrMissingTerminator)

	raw, err := Encode("/ping", []Arg{{TypeInt32, "42"}})
	require.NoError(t, err)
	require.NoError(t, client.Send(ctx, raw))

	r := waitMessage(t, msgs)
	assert.Equal(t, "/ping ,i 42", r.msg.String())
	assert.NotNil(t, r.from)
}

func TestServerPreservesOrder(t *testing.T) {
	msgs, _, client := startServer(t, &Server{})
	ctx := context.Background()

	for i := int32(0); i < 5; i++ {
		require.NoError(t, client.SendMessage(ctx, NewMessage("/seq", i)))
	}
	for i := int32(0); i < 5; i++ {
		r := waitMessage(t, msgs)
		assert.Equal(t, []interface{}{i}, r.msg.Arguments)
	}
}

func TestServerReadTimeout(t *testing.T) {
	msgs, _, client := startServer(t, &Server{ReadTimeout: 5 * time.Millisecond})

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, client.SendMessage(context.Background(), NewMessage("/late")))

	r := waitMessage(t, msgs)
	assert.Equal(t, "/late", r.msg.Address)
}

func TestServerStrictDecoder(t *testing.T) {
	_, errs, client := startServer(t, &Server{Decoder: Decoder{Strict: true}})

	require.NoError(t, client.Send(context.Background(), []byte("/a\x00\x00,b\x00\x00")))
	assert.ErrorIs(t, waitError(t, errs), ErrUnsupportedType)
}

func TestServeReturnsReadErrors(t *testing.T) {
	conn, err := ListenPacket(context.Background(), "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	s := &Server{}
	assert.Error(t, s.Serve(context.Background(), conn))
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- (&Server{Addr: "127.0.0.1:0"}).ListenAndServe(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}

func TestListenPacketDualStack(t *testing.T) {
	conn, err := ListenPacket(context.Background(), "[::]:0")
	if err != nil {
		t.Skipf("IPv6 not available: %v", err)
	}
	defer conn.Close()

	port := conn.LocalAddr().(*net.UDPAddr).Port
	client := NewClient("127.0.0.1", port)
	defer client.Close()
	require.NoError(t, client.SendMessage(context.Background(), NewMessage("/v4")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, MaxPacketSize)
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)

	msg, err := Decode(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, "/v4", msg.Address)
}

func TestServeDatagramMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	s := &Server{Metrics: m}

	var handled int
	s.Handler = HandlerFunc(func(*Message, net.Addr) { handled++ })

	good, err := NewMessage("/ok", int32(1)).MarshalBinary()
	require.NoError(t, err)

	s.ServeDatagram([]byte("/bad"), nil)
	s.ServeDatagram([]byte("/a\x00\x00,i\x00\x00"), nil)
	s.ServeDatagram(good, nil)

	assert.Equal(t, 1, handled)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.datagrams))
	assert.Equal(t, float64(4+8+len(good)), testutil.ToFloat64(m.bytes))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.decodeErrors.WithLabelValues("missing_terminator")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.decodeErrors.WithLabelValues("truncated_argument")))
}

func TestServeDatagramRecords(t *testing.T) {
	var capture bytes.Buffer
	s := &Server{Recorder: NewCaptureWriter(&capture)}

	good, err := NewMessage("/ok", "fine").MarshalBinary()
	require.NoError(t, err)

	s.ServeDatagram([]byte("/bad"), nil)
	s.ServeDatagram(good, nil)

	r := NewCaptureReader(&capture)
	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("/bad"), rec.Data)

	rec, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, good, rec.Data)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}
