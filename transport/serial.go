package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the line speed of a PIM serial interface.
const DefaultBaudRate = 4800

// EffectiveBaudRate returns the rate OpenSerial uses for baud.
func EffectiveBaudRate(baud int) int {
	if baud == 0 {
		return DefaultBaudRate
	}

	return baud
}

// SerialPort is a PIM attached to a local serial port, 8N1.
type SerialPort struct {
	name string
	port serial.Port
}

// OpenSerial opens the serial port name. A zero baud uses DefaultBaudRate.
func OpenSerial(name string, baud int) (*SerialPort, error) {
	baud = EffectiveBaudRate(baud)
	if baud < 0 {
		return nil, fmt.Errorf("transport: invalid baud rate %d", baud)
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open serial port %s: %w", name, err)
	}

	return &SerialPort{name: name, port: port}, nil
}

// Name returns the device name the port was opened with.
func (s *SerialPort) Name() string {
	return s.name
}

func (s *SerialPort) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialPort) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// SetReadTimeout sets the timeout of subsequent reads. A read that times out
// returns (0, nil).
func (s *SerialPort) SetReadTimeout(t time.Duration) error {
	return s.port.SetReadTimeout(t)
}

func (s *SerialPort) Close() error {
	return s.port.Close()
}

// ListSerialPorts returns the serial ports present on the system.
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("transport: list serial ports: %w", err)
	}

	return ports, nil
}
