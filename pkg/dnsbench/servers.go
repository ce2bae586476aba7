package dnsbench

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strings"
)

// ParseServer parses a single server address. The address is an IPv4 or IPv6 address optionally followed by a port,
// for example "8.8.8.8", "8.8.8.8:53", "2001:4860:4860::8888" or "[2001:4860:4860::8888]:53".
// Addresses without a port get defaultPort.
func ParseServer(s string, defaultPort uint16) (netip.AddrPort, error) {
	if addr, err := netip.ParseAddr(s); err == nil {
		return netip.AddrPortFrom(addr.Unmap(), defaultPort), nil
	}
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("'%s' is not an IP address", s)
	}
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port()), nil
}

// ParseServers reads newline delimited server addresses. Empty lines and lines starting with '#' or ';' are skipped.
func ParseServers(r io.Reader, defaultPort uint16) ([]netip.AddrPort, error) {
	var servers []netip.AddrPort
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' || line[0] == ';' {
			continue
		}
		server, err := ParseServer(line, defaultPort)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		servers = append(servers, server)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return servers, nil
}

// ReadServersFile reads server addresses from the file, see ParseServers.
func ReadServersFile(path string, defaultPort uint16) ([]netip.AddrPort, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open server list: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	servers, err := ParseServers(f, defaultPort)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server list '%s': %w", path, err)
	}
	return servers, nil
}
