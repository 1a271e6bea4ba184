package printer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// Common errors
var (
	ErrEmptyAddress       = errors.New("printer address is empty")
	ErrNotConnected       = errors.New("printer not connected")
	ErrTimeout            = errors.New("operation timed out")
	ErrNoDevicesFound     = errors.New("no paired Bluetooth devices found")
	ErrRFCOMMFailed       = errors.New("failed to establish RFCOMM connection")
	ErrPrivilegeRequired  = errors.New("root privileges required for RFCOMM")
	ErrConnectionCanceled = errors.New("connection canceled")
	ErrNotSupported       = errors.New("operation not supported on this platform")
)

// Connection is a point-to-point link to a printer. A connection is opened
// once, used, and closed; Close is safe to call on an unopened connection.
type Connection interface {
	io.ReadWriter
	Open(ctx context.Context) error
	Close() error
	IsConnected() bool
	Address() string
}

// Options tune how connections are established.
type Options struct {
	Channel     int           // RFCOMM channel
	BaudRate    int           // serial speed of the RFCOMM tty
	DialTimeout time.Duration // bound on establishing the link
	ReadTimeout time.Duration // bound on a single read
	Logger      *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Channel <= 0 {
		o.Channel = 1
	}
	if o.BaudRate <= 0 {
		o.BaudRate = 115200
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 15 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 3 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Dial builds an unopened connection for address. Addresses of the form
// tcp://host[:port] reach network printers; anything else is treated as a
// Bluetooth address (a COM port name on Windows).
func Dial(address string, opts Options) (Connection, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrEmptyAddress
	}
	opts = opts.withDefaults()

	if hostPort, ok := strings.CutPrefix(address, "tcp://"); ok {
		return NewNetworkConnection(hostPort, opts), nil
	}
	return NewBluetoothConnection(address, opts), nil
}

// BluetoothDevice represents a paired Bluetooth device
type BluetoothDevice struct {
	Name string
	MAC  string // MAC address on Linux, or COM port on Windows
}

// BluetoothConnection is a serial (SPP) link to a Bluetooth printer.
type BluetoothConnection struct {
	mac  string
	opts Options
	log  *zap.Logger

	mu   sync.Mutex
	port serial.Port
	link *rfcommLink
}

// NewBluetoothConnection returns an unopened connection to mac.
func NewBluetoothConnection(mac string, opts Options) *BluetoothConnection {
	opts = opts.withDefaults()
	return &BluetoothConnection{
		mac:  mac,
		opts: opts,
		log:  opts.Logger.Named("bluetooth").With(zap.String("mac", mac)),
	}
}

// Open binds the RFCOMM channel and opens its serial device.
func (c *BluetoothConnection) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	defer cancel()

	link, err := bindRFCOMM(ctx, c.mac, c.opts.Channel, c.log)
	if err != nil {
		return err
	}

	mode := &serial.Mode{
		BaudRate: c.opts.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(link.devicePath, mode)
	if err != nil {
		link.release()
		return fmt.Errorf("failed to open port %s: %w", link.devicePath, err)
	}
	if err := port.SetReadTimeout(c.opts.ReadTimeout); err != nil {
		port.Close()
		link.release()
		return fmt.Errorf("set read timeout: %w", err)
	}

	c.port = port
	c.link = link
	c.log.Debug("serial port open", zap.String("device", link.devicePath))
	return nil
}

// Close releases the serial port and the RFCOMM binding.
func (c *BluetoothConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.port != nil {
		err = c.port.Close()
		c.port = nil
	}
	if c.link != nil {
		c.link.release()
		c.link = nil
	}
	return err
}

func (c *BluetoothConnection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port != nil
}

func (c *BluetoothConnection) Address() string {
	return c.mac
}

// Read returns 0, nil when the read timeout elapses, like the serial port.
func (c *BluetoothConnection) Read(p []byte) (int, error) {
	port := c.currentPort()
	if port == nil {
		return 0, ErrNotConnected
	}
	return port.Read(p)
}

func (c *BluetoothConnection) Write(p []byte) (int, error) {
	port := c.currentPort()
	if port == nil {
		return 0, ErrNotConnected
	}
	n, err := port.Write(p)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}
	return n, nil
}

func (c *BluetoothConnection) currentPort() serial.Port {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port
}
