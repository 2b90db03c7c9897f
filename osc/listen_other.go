//go:build !unix

package osc

import "syscall"

// The runtime already opens wildcard IPv6 sockets in dual-stack mode here.
func dualStackControl(network, address string, c syscall.RawConn) error {
	return nil
}
