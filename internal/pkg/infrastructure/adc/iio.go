package adc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IIO reads raw sample values from a sysfs industrial-IO device directory,
// one in_voltage<N>_raw file per analog input.
type IIO struct {
	dir string
}

func NewIIO(dir string) *IIO {
	return &IIO{dir: dir}
}

func (s *IIO) Read(_ context.Context, input string) (int, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("in_voltage%s_raw", input))

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("unexpected contents in %s: %w", path, err)
	}

	return value, nil
}

func (s *IIO) Close() error {
	return nil
}
