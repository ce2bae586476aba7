//go:build !(unix || windows)

package dnsbench

import "net/netip"

// SystemNameServers fetches name servers configured in the system. It is not supported on this platform.
func SystemNameServers(uint16) []netip.AddrPort {
	return nil
}
