package pairing

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"tagprint/internal/printer"
)

// fakeConn records writes and how often it was opened and closed. Reads
// replay reply once and then report a timeout.
type fakeConn struct {
	mu       sync.Mutex
	address  string
	openErr  error
	writeErr error
	reply    []byte
	written  bytes.Buffer
	opened   int
	closed   int
	isOpen   bool
	notReady bool
}

func (c *fakeConn) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened++
	if c.openErr != nil {
		return c.openErr
	}
	c.isOpen = !c.notReady
	return ctx.Err()
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	c.isOpen = false
	return nil
}

func (c *fakeConn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOpen
}

func (c *fakeConn) Address() string { return c.address }

func (c *fakeConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := copy(p, c.reply)
	c.reply = c.reply[n:]
	return n, nil
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	return c.written.Write(p)
}

func (c *fakeConn) Written() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.String()
}

var errDial = errors.New("dial refused")

// dialerFor returns a Dialer handing out conn for every address except
// "bad", which fails to dial.
func dialerFor(conn *fakeConn) Dialer {
	return func(address string) (printer.Connection, error) {
		if address == "bad" {
			return nil, errDial
		}
		conn.address = address
		return conn, nil
	}
}
