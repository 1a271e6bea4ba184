package printer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultRawPort is the raw printing port (JetDirect).
const DefaultRawPort = "9100"

// NetworkConnection is a raw TCP link to a network printer.
type NetworkConnection struct {
	address string
	opts    Options
	log     *zap.Logger

	mu   sync.Mutex
	conn net.Conn
}

// NewNetworkConnection returns an unopened connection to host[:port].
func NewNetworkConnection(hostPort string, opts Options) *NetworkConnection {
	if _, _, err := net.SplitHostPort(hostPort); err != nil {
		hostPort = net.JoinHostPort(hostPort, DefaultRawPort)
	}
	opts = opts.withDefaults()
	return &NetworkConnection{
		address: hostPort,
		opts:    opts,
		log:     opts.Logger.Named("network").With(zap.String("addr", hostPort)),
	}
}

func (c *NetworkConnection) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	dialer := net.Dialer{Timeout: c.opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return fmt.Errorf("failed to connect to network printer: %w", err)
	}
	c.conn = conn
	c.log.Debug("connected")
	return nil
}

func (c *NetworkConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *NetworkConnection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *NetworkConnection) Address() string {
	return "tcp://" + c.address
}

// Read mirrors the serial port: a read that times out returns 0, nil.
func (c *NetworkConnection) Read(p []byte) (int, error) {
	conn := c.current()
	if conn == nil {
		return 0, ErrNotConnected
	}
	conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
	n, err := conn.Read(p)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return n, nil
	}
	return n, err
}

func (c *NetworkConnection) Write(p []byte) (int, error) {
	conn := c.current()
	if conn == nil {
		return 0, ErrNotConnected
	}
	n, err := conn.Write(p)
	if err != nil {
		return n, fmt.Errorf("failed to write to network printer: %w", err)
	}
	return n, nil
}

func (c *NetworkConnection) current() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}
