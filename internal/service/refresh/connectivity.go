package refresh

import (
	"context"
	"net"
	"time"
)

// TCPChecker probes a single address to decide whether the network
// precondition for a refresh pass holds.
type TCPChecker struct {
	Addr    string
	Timeout time.Duration
}

func NewTCPChecker(addr string) *TCPChecker {
	return &TCPChecker{Addr: addr, Timeout: 5 * time.Second}
}

func (c *TCPChecker) Online(ctx context.Context) bool {
	d := net.Dialer{Timeout: c.Timeout}
	conn, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

var _ ConnectivityChecker = (*TCPChecker)(nil)
