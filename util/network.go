package util

import (
	"fmt"
	"net"
	"strconv"
)

// FormatAddr returns "host:port".
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// SplitAddr parses "host:port" or a bare "host".  A bare host gets
// defPort; defPort 0 makes the port mandatory.
func SplitAddr(addr string, defPort int) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		if defPort == 0 {
			return "", 0, fmt.Errorf("address %q: %w", addr, err)
		}
		if addr == "" {
			return "", 0, fmt.Errorf("address is empty")
		}
		return addr, defPort, nil
	}
	if host == "" {
		return "", 0, fmt.Errorf("address %q: host is required", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("address %q: invalid port %q", addr, portStr)
	}
	return host, port, nil
}
