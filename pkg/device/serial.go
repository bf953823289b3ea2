package device

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the UART rate of the sensor board firmware.
	DefaultBaudRate = 115200
	// DefaultReadTimeout bounds a single request/response exchange.
	DefaultReadTimeout = 500 * time.Millisecond
)

// Line protocol shared with the firmware.
const (
	cmdRead      = "R"
	cmdOutputOn  = "B1"
	cmdOutputOff = "B0"
	replyOK      = "OK"
	replyErr     = "ERR"
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a sensor board attached over a serial port.
type Serial struct {
	port        string
	baudRate    int
	readTimeout time.Duration

	mu        sync.Mutex
	conn      io.ReadWriteCloser
	pending   []byte // Received bytes not yet consumed as a reply line
	buf       [64]byte
	connected bool
}

// inputResetter is implemented by serial.Port.
type inputResetter interface {
	ResetInputBuffer() error
}

// NewSerial creates a new Serial device for the given port.
func NewSerial(port string, baudRate int, readTimeout time.Duration) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if readTimeout == 0 {
		readTimeout = DefaultReadTimeout
	}

	return &Serial{
		port:        port,
		baudRate:    baudRate,
		readTimeout: readTimeout,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(d.port, &serial.Mode{
		BaudRate: d.baudRate,
	})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}
	if err := port.SetReadTimeout(d.readTimeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout on %s: %w", d.port, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		log.Printf("Failed to flush input of %s: %v", d.port, err)
	}

	d.attach(port)
	return nil
}

// attach binds an open connection. Caller holds d.mu.
func (d *Serial) attach(conn io.ReadWriteCloser) {
	d.conn = conn
	d.pending = d.pending[:0]
	d.connected = true
}

// Close closes the connection.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.connected = false
	d.pending = nil
	if d.conn != nil {
		err := d.conn.Close()
		d.conn = nil
		if err != nil {
			return fmt.Errorf("failed to close serial port %s: %w", d.port, err)
		}
	}

	return nil
}

// ReadRaw requests a single ADC conversion from the board.
func (d *Serial) ReadRaw() (uint16, error) {
	line, err := d.exchange(cmdRead)
	if err != nil {
		return 0, err
	}
	return parseReading(line)
}

// SetOutput switches the buzzer output.
func (d *Serial) SetOutput(on bool) error {
	cmd := cmdOutputOff
	if on {
		cmd = cmdOutputOn
	}

	line, err := d.exchange(cmd)
	if err != nil {
		return err
	}
	return parseAck(line)
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// exchange sends one command line and returns the trimmed reply line. The
// whole exchange is bounded by the read timeout. After a failure, buffered
// input is discarded so a late reply is not taken as the answer to the next
// command.
func (d *Serial) exchange(cmd string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return "", ErrNotConnected
	}

	// Anything still buffered answers an earlier command.
	d.pending = d.pending[:0]

	if _, err := io.WriteString(d.conn, cmd+"\n"); err != nil {
		d.discardInput()
		return "", fmt.Errorf("failed to send %q: %w", cmd, err)
	}

	line, err := d.readLine(time.Now().Add(d.readTimeout))
	if err != nil {
		d.discardInput()
		return "", fmt.Errorf("failed to read reply to %q: %w", cmd, err)
	}
	return line, nil
}

// readLine returns the next non-empty line. The port's Read returns (0, nil)
// when its own read timeout expires.
func (d *Serial) readLine(deadline time.Time) (string, error) {
	for {
		if i := bytes.IndexByte(d.pending, '\n'); i >= 0 {
			line := strings.TrimSpace(string(d.pending[:i]))
			d.pending = d.pending[i+1:]
			if line != "" {
				return line, nil
			}
			continue
		}

		if !time.Now().Before(deadline) {
			return "", ErrTimeout
		}

		n, err := d.conn.Read(d.buf[:])
		d.pending = append(d.pending, d.buf[:n]...)
		if err != nil {
			return "", err
		}
	}
}

// discardInput drops buffered input on both sides of the connection.
func (d *Serial) discardInput() {
	d.pending = d.pending[:0]
	if r, ok := d.conn.(inputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			log.Printf("Failed to flush input of %s: %v", d.port, err)
		}
	}
}

// parseReading parses the board's reply to a read command.
// Format: decimal raw value, e.g. "2048", or "ERR <message>".
func parseReading(line string) (uint16, error) {
	if err := parseError(line); err != nil {
		return 0, err
	}

	value, err := strconv.ParseUint(line, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid reading %q: %w", line, err)
	}

	return uint16(value), nil
}

// parseAck parses the board's reply to an output command.
func parseAck(line string) error {
	if err := parseError(line); err != nil {
		return err
	}
	if line != replyOK {
		return fmt.Errorf("unexpected reply %q", line)
	}
	return nil
}

func parseError(line string) error {
	if line == replyErr || strings.HasPrefix(line, replyErr+" ") {
		msg := strings.TrimSpace(strings.TrimPrefix(line, replyErr))
		if msg == "" {
			msg = "unspecified"
		}
		return fmt.Errorf("board error: %s", msg)
	}
	return nil
}
