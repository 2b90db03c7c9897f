package osc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
)

const (
	// DefaultPort is the UDP port osclisten binds when none is given.
	DefaultPort = 9001

	// MaxPacketSize is the size of the receive buffer. Larger datagrams are
	// truncated by the kernel.
	MaxPacketSize = 65536
)

// Handler handles decoded OSC messages.
type Handler interface {
	HandleMessage(msg *Message, from net.Addr)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(msg *Message, from net.Addr)

// HandleMessage calls f(msg, from).
func (f HandlerFunc) HandleMessage(msg *Message, from net.Addr) {
	f(msg, from)
}

// ErrorHandlerFunc is called for every datagram that fails to decode. data is
// only valid for the duration of the call.
type ErrorHandlerFunc func(err error, data []byte, from net.Addr)

// Server receives OSC datagrams on Addr and hands every decoded message to
// Handler. Datagrams are handled one at a time, in the order they arrive, on
// the goroutine running Serve.
type Server struct {
	Addr         string
	Handler      Handler
	ErrorHandler ErrorHandlerFunc
	Decoder      Decoder

	// ReadTimeout bounds each blocking read. A read that times out is not an
	// error; the loop simply reads again.
	ReadTimeout time.Duration

	// Recorder, when set, receives a copy of every datagram before decoding.
	Recorder *CaptureWriter
	Metrics  *Metrics
	Logger   *slog.Logger
}

// ListenAndServe binds a dual-stack UDP socket on s.Addr and serves it until
// ctx is cancelled. The socket is closed on return.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.Addr
	if addr == "" {
		addr = fmt.Sprintf("[::]:%d", DefaultPort)
	}

	conn, err := ListenPacket(ctx, addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer conn.Close()

	s.logger().Info("listening", slog.String("addr", conn.LocalAddr().String()))

	return s.Serve(ctx, conn)
}

// Serve reads datagrams from c until ctx is cancelled or a read fails.
// Cancelling ctx closes c to unblock the pending read, and Serve then
// returns nil. Decode failures never stop the loop.
func (s *Server) Serve(ctx context.Context, c net.PacketConn) error {
	stop := context.AfterFunc(ctx, func() {
		c.Close()
	})
	defer stop()

	buf := make([]byte, MaxPacketSize)
	for {
		if s.ReadTimeout != 0 {
			if err := c.SetReadDeadline(time.Now().Add(s.ReadTimeout)); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}

		n, addr, err := c.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}

		s.serve(buf[:n], addr)
	}
}

// ServeDatagram decodes a single datagram as if it had been received from
// from, reporting the result to the handlers.
func (s *Server) ServeDatagram(data []byte, from net.Addr) {
	s.serve(data, from)
}

func (s *Server) serve(data []byte, from net.Addr) {
	s.Metrics.observeDatagram(len(data))

	if s.Recorder != nil {
		if err := s.Recorder.Write(time.Now(), data); err != nil {
			s.logger().Error("recording datagram", slog.Any("error", err))
		}
	}

	msg, err := s.Decoder.Decode(data)
	if err != nil {
		s.Metrics.observeDecodeError(err)
		s.logger().Debug("dropping datagram",
			slog.String("from", addrString(from)),
			slog.Int("bytes", len(data)),
			slog.String("kind", ErrorKind(err)),
			slog.Any("error", err))
		if s.ErrorHandler != nil {
			s.ErrorHandler(err, data, from)
		}
		return
	}

	if s.Handler != nil {
		s.Handler.HandleMessage(msg, from)
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func addrString(a net.Addr) string {
	if a == nil {
		return "<unknown>"
	}
	return a.String()
}

// ListenPacket opens a UDP socket on addr. When addr names the IPv6 wildcard
// address the socket also accepts IPv4 traffic. SO_REUSEADDR is set where
// the platform supports it.
func ListenPacket(ctx context.Context, addr string) (net.PacketConn, error) {
	lc := net.ListenConfig{Control: dualStackControl}
	conn, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("osc: listen %s: %w", addr, err)
	}
	return conn, nil
}
