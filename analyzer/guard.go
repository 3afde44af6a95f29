package analyzer

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrBlockedHost is returned when a page resolves to a non public address
var ErrBlockedHost = errors.New("host resolves to a non public address")

// publicOnly is a net.Dialer control hook that refuses loopback, private,
// link-local and unspecified targets. It runs after name resolution so
// hostnames pointing at internal addresses are caught too.
func publicOnly(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedHost, address)
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublicIP(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedHost, host)
	}
	return nil
}

func isPublicIP(ip net.IP) bool {
	switch {
	case ip.IsLoopback(), ip.IsUnspecified(), ip.IsPrivate():
		return false
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast(), ip.IsInterfaceLocalMulticast():
		return false
	}
	return true
}
