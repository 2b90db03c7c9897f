package main

import (
	"fmt"
	"io"
	"net"

	"github.com/showcontroller/osctools/osc"
)

// printer writes one line per datagram, in the format of the original
// oscdump-style listener.
type printer struct {
	w io.Writer
}

func (p *printer) HandleMessage(msg *osc.Message, _ net.Addr) {
	fmt.Fprintln(p.w, msg.String())
}

func (p *printer) parseError(err error, data []byte, from net.Addr) {
	fmt.Fprintf(p.w, "<parse error: %v, %d bytes from %v>\n", err, len(data), from)
}
