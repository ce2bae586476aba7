package dnsbench

import (
	"context"
	"encoding/binary"
	"errors"
	"math/rand"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"
)

// Failure classifies an unsuccessful probe.
type Failure int

const (
	// FailureNone means that a matching response arrived in time.
	FailureNone Failure = iota
	// FailureTimeout means that no matching response arrived before the probe timeout.
	FailureTimeout
	// FailureNetwork means that sending or receiving failed, for example the server is unreachable.
	FailureNetwork
	// FailureMalformed means that a datagram carrying the query ID could not be parsed as DNS message.
	FailureMalformed
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureTimeout:
		return "timeout"
	case FailureNetwork:
		return "network"
	case FailureMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ProbeOutcome is a result of a single probe.
type ProbeOutcome struct {
	// Start is the time the query was sent.
	Start time.Time
	// Duration is the round-trip time, valid only when Failure is FailureNone.
	Duration time.Duration
	Failure  Failure
	// Rcode of the matched response.
	Rcode int
	// Err is the underlying error of a failed probe.
	Err error
	// Mismatched is the number of datagrams discarded while waiting, because their ID did not match.
	Mismatched int64

	req  *dns.Msg
	resp *dns.Msg
}

// Success reports whether the probe measured a round trip.
func (o ProbeOutcome) Success() bool {
	return o.Failure == FailureNone
}

// Prober issues a single DNS query to a single server and measures its round trip.
type Prober interface {
	Probe(ctx context.Context, server netip.AddrPort, domain string, timeout time.Duration) ProbeOutcome
}

// UDPProber probes servers using plain DNS over UDP. It keeps one connected socket, so it must not be
// shared between goroutines. Responses left over from earlier timed out probes on the socket are discarded
// based on their ID.
type UDPProber struct {
	Qtype        uint16
	Recurse      bool
	Edns0        uint16
	WriteTimeout time.Duration

	rando  *rand.Rand
	co     *dns.Conn
	server netip.AddrPort
	buf    []byte
}

// NewUDPProber creates UDPProber using the query options of the benchmark.
func NewUDPProber(qtype uint16, recurse bool, edns0 uint16) *UDPProber {
	return &UDPProber{
		Qtype:        qtype,
		Recurse:      recurse,
		Edns0:        edns0,
		WriteTimeout: DefaultWriteTimeout,
		// nolint:gosec
		rando: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Probe sends one query for domain to the server and waits at most timeout for the matching response.
func (p *UDPProber) Probe(ctx context.Context, server netip.AddrPort, domain string, timeout time.Duration) ProbeOutcome {
	req := p.newQuery(domain)
	outcome := ProbeOutcome{req: req}

	if p.co != nil && p.server != server {
		p.Close()
	}
	if p.co == nil {
		dialer := net.Dialer{Timeout: timeout}
		conn, err := dialer.DialContext(ctx, UDPTransport, server.String())
		if err != nil {
			outcome.Start = time.Now()
			outcome.Failure = FailureNetwork
			outcome.Err = err
			return outcome
		}
		p.co = &dns.Conn{Conn: conn}
		p.server = server
		if p.Edns0 > 0 {
			p.co.UDPSize = p.Edns0
		}
	}
	co := p.co

	start := time.Now()
	outcome.Start = start
	deadline := start.Add(timeout)

	_ = co.SetWriteDeadline(start.Add(p.WriteTimeout))
	if err := co.WriteMsg(req); err != nil {
		outcome.Failure = FailureNetwork
		outcome.Err = err
		p.Close()
		return outcome
	}
	_ = co.SetReadDeadline(deadline)

	// interrupt a pending read once the benchmark is canceled, registered after the deadline is set,
	// so it cannot be overwritten
	stop := context.AfterFunc(ctx, func() {
		_ = co.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		n, err := co.Read(p.buf)
		if err != nil {
			outcome.Err = err
			if isTimeout(err) {
				outcome.Failure = FailureTimeout
				return outcome
			}
			outcome.Failure = FailureNetwork
			p.Close()
			return outcome
		}

		resp := new(dns.Msg)
		if err := resp.Unpack(p.buf[:n]); err != nil {
			if n >= 2 && binary.BigEndian.Uint16(p.buf) == req.Id {
				outcome.Failure = FailureMalformed
				outcome.Err = err
				return outcome
			}
			outcome.Mismatched++
			continue
		}
		if resp.Id != req.Id || !resp.Response {
			outcome.Mismatched++
			continue
		}

		outcome.Duration = time.Since(start)
		outcome.Rcode = resp.Rcode
		outcome.resp = resp
		return outcome
	}
}

// Close releases the socket held by the prober.
func (p *UDPProber) Close() error {
	if p.co == nil {
		return nil
	}
	err := p.co.Close()
	p.co = nil
	return err
}

func (p *UDPProber) newQuery(domain string) *dns.Msg {
	if p.rando == nil {
		// nolint:gosec
		p.rando = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if p.buf == nil {
		p.buf = make([]byte, dns.MaxMsgSize)
	}
	m := dns.Msg{}
	m.Id = uint16(p.rando.Uint32())
	m.RecursionDesired = p.Recurse
	m.Question = []dns.Question{{Name: dns.Fqdn(domain), Qtype: p.Qtype, Qclass: dns.ClassINET}}
	if p.Edns0 > 0 {
		m.SetEdns0(p.Edns0, false)
	}
	return &m
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
