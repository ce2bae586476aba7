//go:build unix

package dnsbench

import (
	"net/netip"

	"github.com/miekg/dns"
)

const resolvConfPath = "/etc/resolv.conf"

// SystemNameServers fetches name servers configured in /etc/resolv.conf.
// If the file cannot be read, nil is returned.
func SystemNameServers(defaultPort uint16) []netip.AddrPort {
	return nameServersFromResolvConf(resolvConfPath, defaultPort)
}

func nameServersFromResolvConf(path string, defaultPort uint16) []netip.AddrPort {
	cfg, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return nil
	}
	var servers []netip.AddrPort
	for _, s := range cfg.Servers {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			// hostnames are not resolved, only addresses are usable
			continue
		}
		servers = append(servers, netip.AddrPortFrom(addr.Unmap(), defaultPort))
	}
	return servers
}
