package printer

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDial(t *testing.T) {
	_, err := Dial("  ", Options{})
	assert.ErrorIs(t, err, ErrEmptyAddress)

	conn, err := Dial("tcp://10.0.0.5", Options{})
	require.NoError(t, err)
	assert.IsType(t, &NetworkConnection{}, conn)
	assert.Equal(t, "tcp://10.0.0.5:9100", conn.Address())
	assert.False(t, conn.IsConnected())

	conn, err = Dial("AC:3F:A4:00:11:22", Options{})
	require.NoError(t, err)
	assert.IsType(t, &BluetoothConnection{}, conn)
	assert.Equal(t, "AC:3F:A4:00:11:22", conn.Address())
	assert.NoError(t, conn.Close())
}

func TestNetworkConnection_RoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan string, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		buf := make([]byte, 64)
		n, _ := c.Read(buf)
		received <- string(buf[:n])
		io.WriteString(c, "\"832.0\"")
	}()

	conn := NewNetworkConnection(ln.Addr().String(), Options{ReadTimeout: 500 * time.Millisecond})
	require.NoError(t, conn.Open(context.Background()))
	defer conn.Close()
	assert.True(t, conn.IsConnected())

	width := PrintWidth(conn, "ezpl.print_width")
	require.NotNil(t, width)
	assert.Equal(t, 832.0, *width)
	assert.Equal(t, "! U1 getvar \"ezpl.print_width\"\r\n", <-received)

	require.NoError(t, conn.Close())
	assert.False(t, conn.IsConnected())
	_, err = conn.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestNetworkConnection_OpenRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	conn := NewNetworkConnection(addr, Options{DialTimeout: time.Second})
	assert.Error(t, conn.Open(context.Background()))
	assert.False(t, conn.IsConnected())
}
