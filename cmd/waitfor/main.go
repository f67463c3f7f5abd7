package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
}

var (
	host     = flag.String("host", "localhost", "the host to connect to")
	port     = flag.String("port", "5432", "the port to connect to")
	attempts = flag.Int("attempts", 20, "maximum number of connection attempts")
	interval = flag.Duration("interval", time.Second, "delay between attempts")
	timeout  = flag.Duration("timeout", 10*time.Second, "timeout of a single attempt")
)

// waitFor dials addr until a TCP connection succeeds or attempts run out.
func waitFor(addr string, attempts int, interval, timeout time.Duration) error {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		conn, err := net.DialTimeout("tcp", addr, timeout)
		if err == nil {
			conn.Close()
			return nil
		}
		lastErr = err
		log.WithError(err).WithField("addr", addr).WithField("attempt", i).Info("connection not yet available")
		time.Sleep(interval)
	}
	return fmt.Errorf("could not open TCP connection on [%s] after %d attempts: %w", addr, attempts, lastErr)
}

func main() {
	flag.Parse()

	addr := net.JoinHostPort(*host, *port)
	if err := waitFor(addr, *attempts, *interval, *timeout); err != nil {
		log.WithError(err).Fatal("dependency not available")
	}
	log.WithField("addr", addr).Info("TCP connection available")
}
