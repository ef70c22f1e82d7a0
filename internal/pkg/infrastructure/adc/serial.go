package adc

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the sampling MCU firmware.
	DefaultBaudRate = 115200

	readTimeout = 2 * time.Second
)

// Serial reads raw sample values from a sampling MCU over a serial port.
// The protocol is line based: the host writes "READ <input>\n" and the MCU
// answers with a single line containing the decimal raw value.
type Serial struct {
	port string
	baud int

	mu        sync.Mutex
	conn      serial.Port
	reader    *bufio.Reader
	connected bool
}

func NewSerial(port string, baud int) *Serial {
	if baud == 0 {
		baud = DefaultBaudRate
	}

	return &Serial{
		port: port,
		baud: baud,
	}
}

// Connect opens the serial port. Read connects lazily, so calling Connect
// up front is optional but surfaces port problems early.
func (s *Serial) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked()
}

func (s *Serial) connectLocked() error {
	if s.connected {
		return nil
	}

	conn, err := serial.Open(s.port, &serial.Mode{BaudRate: s.baud})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}

	if err := conn.SetReadTimeout(readTimeout); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set read timeout on %s: %w", s.port, err)
	}

	s.conn = conn
	s.reader = bufio.NewReader(conn)
	s.connected = true

	return nil
}

func (s *Serial) Read(_ context.Context, input string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(); err != nil {
		return 0, err
	}

	if _, err := s.conn.Write([]byte(fmt.Sprintf("READ %s\n", input))); err != nil {
		s.dropLocked()
		return 0, fmt.Errorf("failed to request sample for input %s: %w", input, err)
	}

	line, err := s.reader.ReadString('\n')
	if err != nil {
		s.dropLocked()
		return 0, fmt.Errorf("failed to read sample for input %s: %w", input, err)
	}

	value, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, fmt.Errorf("unexpected sample response %q for input %s: %w", strings.TrimSpace(line), input, err)
	}

	return value, nil
}

// dropLocked closes the port so the next read reconnects from scratch.
func (s *Serial) dropLocked() {
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn = nil
	s.reader = nil
	s.connected = false
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil
	s.reader = nil
	s.connected = false

	return err
}
