package sampler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvik/battwatch/domain"
	"github.com/mvik/battwatch/internal/pkg/infrastructure/adc"
)

func engineChannel() domain.Channel {
	return domain.Channel{
		ID:          domain.ChannelA,
		Name:        "Engine",
		Input:       "34",
		Calibration: 189,
		WarnLow:     11.5,
		AlarmLow:    10.5,
		Monitored:   true,
	}
}

func TestIdenticalReadingsAverageExactly(t *testing.T) {
	source := adc.NewMock(map[string]int{"34": 2362})
	s := New(source, 25, 0)

	m := s.Sample(context.Background(), engineChannel())

	assert.Equal(t, domain.ChannelA, m.Channel)
	assert.Equal(t, float64(2362)/189, m.Volts)
	assert.Equal(t, 25, source.Reads("34"))
}

func TestDisabledChannelIsNeverSampled(t *testing.T) {
	source := adc.NewMock(map[string]int{"35": 2000})

	ch := engineChannel()
	ch.ID = domain.ChannelB
	ch.Input = "35"
	ch.Monitored = false

	s := New(source, 25, 0)
	m := s.Sample(context.Background(), ch)

	assert.Equal(t, domain.Unmeasured, m.Volts)
	assert.False(t, m.Measured())
	assert.Zero(t, source.Reads("35"))
}

func TestSampleCountOfOneUsesSingleReading(t *testing.T) {
	source := adc.NewMock(map[string]int{"34": 1890})
	s := New(source, 1, 0)

	m := s.Sample(context.Background(), engineChannel())

	assert.Equal(t, 10.0, m.Volts)
	assert.Equal(t, 1, source.Reads("34"))
}

func TestFailedReadsFlowThroughAsZero(t *testing.T) {
	// An absent input yields zero from the mock, standing in for a
	// malfunctioning sensor. The implausible voltage is not an error.
	source := adc.NewMock(map[string]int{})
	s := New(source, 5, 0)

	m := s.Sample(context.Background(), engineChannel())

	assert.True(t, m.Measured())
	assert.Equal(t, 0.0, m.Volts)
}
