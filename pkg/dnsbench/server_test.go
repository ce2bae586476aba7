package dnsbench_test

import (
	"net/netip"

	"github.com/miekg/dns"
	"github.com/tantalor93/dnsrank/pkg/dnsbench"
)

// Server represents simple DNS server.
type Server struct {
	Addr  netip.AddrPort
	inner *dns.Server
}

// Close shuts down running DNS server instance.
func (s *Server) Close() {
	_ = s.inner.Shutdown()
}

// NewServer creates and starts new UDP DNS server instance listening on the loopback.
func NewServer(f dns.HandlerFunc) *Server {
	ch := make(chan bool)
	s := &dns.Server{Net: dnsbench.UDPTransport, Addr: "127.0.0.1:0", NotifyStartedFunc: func() { close(ch) }, Handler: f}

	go func() {
		if err := s.ListenAndServe(); err != nil {
			panic(err)
		}
	}()

	<-ch
	return &Server{inner: s, Addr: netip.MustParseAddrPort(s.PacketConn.LocalAddr().String())}
}

// A returns an A record from rr. It panics on errors.
func A(rr string) *dns.A { r, _ := dns.NewRR(rr); return r.(*dns.A) }
