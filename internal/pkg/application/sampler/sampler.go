package sampler

import (
	"context"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"

	"github.com/mvik/battwatch/domain"
	"github.com/mvik/battwatch/internal/pkg/infrastructure/adc"
)

// Sampler turns raw analog readings into calibrated voltage measurements by
// averaging a fixed number of samples per channel.
type Sampler struct {
	source adc.Source
	count  int
	delay  time.Duration
}

func New(source adc.Source, count int, delay time.Duration) *Sampler {
	if count <= 0 {
		count = 1
	}

	return &Sampler{
		source: source,
		count:  count,
		delay:  delay,
	}
}

// Sample measures one channel. Channels that are not monitored are never
// sampled and yield the unmeasured sentinel. A failing read counts as a raw
// value of zero; the implausible voltage that results is left for the
// evaluator to judge against the thresholds.
func (s *Sampler) Sample(ctx context.Context, ch domain.Channel) domain.Measurement {
	if !ch.Monitored {
		return domain.Measurement{Channel: ch.ID, Volts: domain.Unmeasured}
	}

	log := logging.GetFromContext(ctx)

	sum := 0
	for i := 0; i < s.count; i++ {
		if i > 0 && s.delay > 0 {
			time.Sleep(s.delay)
		}

		value, err := s.source.Read(ctx, ch.Input)
		if err != nil {
			log.Warn().Err(err).Str("channel", string(ch.ID)).Msg("raw sample read failed")
		}
		sum += value
	}

	volts := (float64(sum) / float64(s.count)) / ch.Calibration

	log.Debug().
		Str("channel", string(ch.ID)).
		Int("samples", s.count).
		Float64("volts", volts).
		Msg("channel sampled")

	return domain.Measurement{Channel: ch.ID, Volts: volts}
}
