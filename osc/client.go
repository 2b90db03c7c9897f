package osc

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
)

// MaxDatagramSize is the largest UDP payload that fits in a single IPv4
// datagram.
const MaxDatagramSize = 65507

// Client sends OSC datagrams to a single destination. Sends are fire and
// forget: the only errors reported are local ones and, on platforms that
// surface ICMP errors on connected sockets, a refused destination.
type Client struct {
	addr    string
	laddr   *net.UDPAddr
	conn    net.Conn
	breaker *gobreaker.CircuitBreaker[int]
}

// NewClient creates a new OSC client for the given host and port. The
// connection is opened by the first Send, or explicitly with Dial.
func NewClient(host string, port int) *Client {
	return &Client{addr: net.JoinHostPort(host, strconv.Itoa(port))}
}

// Addr returns the destination address.
func (c *Client) Addr() string {
	return c.addr
}

// SetLocalAddr sets the local address the client sends from.
func (c *Client) SetLocalAddr(ip string, port int) error {
	laddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	c.laddr = laddr
	return nil
}

// SetBreaker guards every send with cb. Once the breaker opens, Send fails
// fast with gobreaker.ErrOpenState until it lets requests through again.
func (c *Client) SetBreaker(cb *gobreaker.CircuitBreaker[int]) {
	c.breaker = cb
}

// NewBreaker returns a circuit breaker that opens after maxFailures
// consecutive failed sends and probes again after timeout.
func NewBreaker(name string, maxFailures uint32, timeout time.Duration, onChange func(from, to gobreaker.State)) *gobreaker.CircuitBreaker[int] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	}
	if onChange != nil {
		settings.OnStateChange = func(_ string, from, to gobreaker.State) {
			onChange(from, to)
		}
	}
	return gobreaker.NewCircuitBreaker[int](settings)
}

// Dial opens the UDP socket. It is a no-op if the client is already
// connected.
func (c *Client) Dial(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	d := net.Dialer{}
	if c.laddr != nil {
		d.LocalAddr = c.laddr
	}
	conn, err := d.DialContext(ctx, "udp", c.addr)
	if err != nil {
		return fmt.Errorf("osc: dial %s: %w", c.addr, err)
	}
	c.conn = conn
	return nil
}

// Send transmits data as a single datagram.
func (c *Client) Send(ctx context.Context, data []byte) error {
	if len(data) > MaxDatagramSize {
		return fmt.Errorf("osc: %w: %d bytes", ErrPacketTooLarge, len(data))
	}
	if err := c.Dial(ctx); err != nil {
		return err
	}

	write := func() (int, error) {
		return c.conn.Write(data)
	}

	var err error
	if c.breaker != nil {
		_, err = c.breaker.Execute(write)
	} else {
		_, err = write()
	}
	if err != nil {
		return fmt.Errorf("osc: send to %s: %w", c.addr, err)
	}
	return nil
}

// SendMessage encodes msg and sends it.
func (c *Client) SendMessage(ctx context.Context, msg *Message) error {
	data, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	return c.Send(ctx, data)
}

// Close closes the connection, if one was opened.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
