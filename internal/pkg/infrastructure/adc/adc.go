package adc

import (
	"context"
	"sync"
)

// Source reads raw integer sample values from a named analog input.
type Source interface {
	Read(ctx context.Context, input string) (int, error)
	Close() error
}

var _ Source = (*Serial)(nil)
var _ Source = (*IIO)(nil)
var _ Source = (*Mock)(nil)

// Mock is a sample source backed by canned values, used in tests and when the
// service runs without hardware attached.
type Mock struct {
	mu     sync.Mutex
	values map[string]int
	reads  map[string]int
}

func NewMock(values map[string]int) *Mock {
	return &Mock{
		values: values,
		reads:  map[string]int{},
	}
}

func (m *Mock) Read(_ context.Context, input string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads[input]++
	return m.values[input], nil
}

func (m *Mock) Close() error {
	return nil
}

// Reads returns how many times the given input has been sampled.
func (m *Mock) Reads(input string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[input]
}

// Set changes the value returned for an input on subsequent reads.
func (m *Mock) Set(input string, value int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[input] = value
}
