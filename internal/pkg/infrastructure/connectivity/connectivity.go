package connectivity

import (
	"context"
	"net"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

const dialTimeout = 5 * time.Second

// Checker probes whether the notification transport endpoint is reachable.
// Connect makes a bounded number of dial attempts with a fixed interval in
// between; the overall wall-clock time is therefore hard bounded.
type Checker struct {
	addr     string
	attempts int
	interval time.Duration

	dial func(addr string, timeout time.Duration) (net.Conn, error)
}

func New(addr string, attempts int, interval time.Duration) *Checker {
	if attempts <= 0 {
		attempts = 1
	}

	return &Checker{
		addr:     addr,
		attempts: attempts,
		interval: interval,
		dial: func(addr string, timeout time.Duration) (net.Conn, error) {
			return net.DialTimeout("tcp", addr, timeout)
		},
	}
}

// Connect reports whether the endpoint answered within the retry budget.
// Each attempt is logged so a stalled link is visible while retrying.
func (c *Checker) Connect(ctx context.Context) bool {
	log := logging.GetFromContext(ctx)

	for attempt := 1; attempt <= c.attempts; attempt++ {
		conn, err := c.dial(c.addr, dialTimeout)
		if err == nil {
			conn.Close()
			log.Debug().Str("addr", c.addr).Int("attempt", attempt).Msg("transport endpoint reachable")
			return true
		}

		log.Debug().Err(err).Str("addr", c.addr).Int("attempt", attempt).Int("budget", c.attempts).Msg("connect attempt failed")

		if attempt < c.attempts {
			time.Sleep(c.interval)
		}
	}

	return false
}

// Disconnect releases the link. The probe holds no long-lived resources, so
// this only exists to give the controller a teardown hook that is always
// safe to call.
func (c *Checker) Disconnect() {}
