package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/rebeliceyang/lazyes/internal/models"
)

// DefaultPorts are the local ports probed for a running node
var DefaultPorts = []int{9200, 9201}

// Scanner finds nodes listening on local ports
type Scanner struct {
	dial func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewScanner creates a scanner with a short dial timeout
func NewScanner() *Scanner {
	d := &net.Dialer{Timeout: 500 * time.Millisecond}
	return &Scanner{dial: d.DialContext}
}

// ScanPorts probes host on each port concurrently and returns a
// connection for every open port, in port order.
func (s *Scanner) ScanPorts(ctx context.Context, host string, ports []int) []models.Connection {
	if len(ports) == 0 {
		ports = DefaultPorts
	}

	p := pool.NewWithResults[*models.Connection]().WithContext(ctx)
	for _, port := range ports {
		port := port
		p.Go(func(ctx context.Context) (*models.Connection, error) {
			address := fmt.Sprintf("%s:%d", host, port)
			conn, err := s.dial(ctx, "tcp", address)
			if err != nil {
				return nil, nil
			}
			_ = conn.Close()
			return &models.Connection{
				Alias: fmt.Sprintf("%s:%d", host, port),
				Host:  "http://" + address,
			}, nil
		})
	}
	found, _ := p.Wait()

	out := make([]models.Connection, 0, len(found))
	for _, port := range ports {
		want := fmt.Sprintf("%s:%d", host, port)
		for _, c := range found {
			if c != nil && c.Alias == want {
				out = append(out, *c)
			}
		}
	}
	return out
}

// ScanLocalhost probes the default ports on localhost
func (s *Scanner) ScanLocalhost(ctx context.Context) []models.Connection {
	return s.ScanPorts(ctx, "localhost", DefaultPorts)
}
