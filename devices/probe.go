package devices

import (
	"fmt"
	"net"
	"sync"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// Prober checks host reachability. Successful ICMP results are cached for a
// short window so the connect path and the health monitor don't generate
// probe storms when several call sites ask "are we still connected" in
// quick succession.
type Prober struct {
	CacheWindow time.Duration
	PingTimeout time.Duration

	mu     sync.Mutex
	lastOK map[string]time.Time

	// ping is swappable in tests.
	ping func(host string, timeout time.Duration) error
}

func NewProber() *Prober {
	return &Prober{
		CacheWindow: 3 * time.Second,
		PingTimeout: 2 * time.Second,
		lastOK:      map[string]time.Time{},
		ping:        icmpPing,
	}
}

// Ping reports whether host answers an ICMP echo. A success within the
// cache window is reused; failures are never cached.
func (p *Prober) Ping(host string) error {
	p.mu.Lock()
	if t, ok := p.lastOK[host]; ok && time.Since(t) < p.CacheWindow {
		p.mu.Unlock()
		return nil
	}
	timeout := p.PingTimeout
	ping := p.ping
	p.mu.Unlock()

	if err := ping(host, timeout); err != nil {
		return err
	}

	p.mu.Lock()
	p.lastOK[host] = time.Now()
	p.mu.Unlock()
	return nil
}

func icmpPing(host string, timeout time.Duration) error {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return err
	}
	pinger.Count = 1
	pinger.Timeout = timeout
	// Unprivileged UDP echo works without root on macOS, and on Linux when
	// ping_group_range permits it.
	pinger.SetPrivileged(false)
	if err := pinger.Run(); err != nil {
		return err
	}
	if pinger.Statistics().PacketsRecv == 0 {
		return fmt.Errorf("no echo reply from %s within %s", host, timeout)
	}
	return nil
}

// ProbeTCP checks that addr accepts a TCP connection within timeout.
func ProbeTCP(addr string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return err
	}
	return conn.Close()
}
