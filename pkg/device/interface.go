package device

import "errors"

var (
	// ErrNotConnected is returned by I/O on a device that is not connected.
	ErrNotConnected = errors.New("not connected")
	// ErrTimeout is returned when the board does not answer within the read timeout.
	ErrTimeout = errors.New("board reply timed out")
)

// Device defines the interface for sensor boards (real or mocked).
// A board exposes one analog channel wired to the gas sensor and one
// digital output driving the buzzer.
type Device interface {
	Connect() error
	Close() error
	ReadRaw() (uint16, error)
	SetOutput(on bool) error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
