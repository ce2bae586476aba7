//go:build windows

package dnsbench

import (
	"net/netip"
	"os/exec"
	"regexp"
)

var nslookupAddressRe = regexp.MustCompile(`Address:\s+([^\s]+)`)

// SystemNameServers fetches the default system name server based on the nslookup call.
func SystemNameServers(defaultPort uint16) []netip.AddrPort {
	out, err := exec.Command("nslookup").Output()
	if err != nil {
		return nil
	}

	matches := nslookupAddressRe.FindStringSubmatch(string(out))
	if len(matches) != 2 {
		return nil
	}
	addr, err := netip.ParseAddr(matches[1])
	if err != nil {
		return nil
	}
	return []netip.AddrPort{netip.AddrPortFrom(addr.Unmap(), defaultPort)}
}
