package application

import (
	"context"
	"sync"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"

	"github.com/mvik/battwatch/domain"
	"github.com/mvik/battwatch/internal/pkg/application/evaluator"
	"github.com/mvik/battwatch/internal/pkg/infrastructure/counter"
	"github.com/mvik/battwatch/internal/pkg/infrastructure/mailer"
)

var tracer = otel.Tracer("battwatch/app")

// VoltageSampler produces one measurement per channel.
type VoltageSampler interface {
	Sample(ctx context.Context, ch domain.Channel) domain.Measurement
}

// Connector establishes and tears down transport connectivity. Connect blocks
// for at most its internal retry budget and reports reachability as a bool.
type Connector interface {
	Connect(ctx context.Context) bool
	Disconnect()
}

// Status is a snapshot of the controller state for the status endpoint.
type Status struct {
	WakeCount   uint64 `json:"wake_count"`
	LastOutcome string `json:"last_outcome"`
}

// Monitor is the power cycle controller. It alternates between an active
// phase (sample, evaluate, possibly notify) and a suspended phase of fixed
// duration, and owns the persisted wake counter.
type Monitor struct {
	channels []domain.Channel
	sampler  VoltageSampler
	eval     *evaluator.Evaluator
	conn     Connector
	notifier mailer.Notifier
	store    counter.Store
	sleep    time.Duration
	suppress bool

	mu     sync.Mutex
	status Status
}

func New(
	channels []domain.Channel,
	smp VoltageSampler,
	eval *evaluator.Evaluator,
	conn Connector,
	notifier mailer.Notifier,
	store counter.Store,
	sleep time.Duration,
	suppress bool,
) *Monitor {
	return &Monitor{
		channels: channels,
		sampler:  smp,
		eval:     eval,
		conn:     conn,
		notifier: notifier,
		store:    store,
		sleep:    sleep,
		suppress: suppress,
	}
}

// Run executes wake cycles until the context is cancelled. Cancellation is
// only honored during the suspended phase; a cycle that has started always
// runs to completion.
func (m *Monitor) Run(ctx context.Context) error {
	log := logging.GetFromContext(ctx)

	for {
		wakeCount, err := m.store.Load()
		if err != nil {
			log.Error().Err(err).Msg("failed to load wake counter")
		}

		if err := m.store.Save(wakeCount + 1); err != nil {
			log.Error().Err(err).Msg("failed to persist wake counter")
		}

		outcome := m.RunCycle(ctx, wakeCount)
		m.setStatus(wakeCount, outcome)

		log.Info().
			Uint64("wake_count", wakeCount).
			Str("outcome", outcome.String()).
			Dur("sleep", m.sleep).
			Msg("cycle complete, suspending")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.sleep):
		}
	}
}

// RunCycle performs a single pass of the pipeline: measure every channel,
// evaluate, and deliver a notification when one is needed and the transport
// is reachable. Failures never abort the cycle; whatever happens, the caller
// proceeds to the suspended phase.
func (m *Monitor) RunCycle(ctx context.Context, wakeCount uint64) domain.Outcome {
	var err error

	ctx, span := tracer.Start(ctx, "wake-cycle")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx)

	measurements := make([]domain.Measurement, 0, len(m.channels))
	for _, ch := range m.channels {
		measurements = append(measurements, m.sampler.Sample(ctx, ch))
	}

	state := m.eval.Evaluate(measurements, wakeCount)
	if !state.Send {
		return domain.OutcomeNotNeeded
	}

	log.Info().
		Bool("heartbeat", state.Heartbeat).
		Str("subject", state.Subject).
		Msg("notification needed")

	if !m.conn.Connect(ctx) {
		log.Warn().Msg("transport unreachable, skipping notification this cycle")
		return domain.OutcomeUnreachable
	}
	defer m.conn.Disconnect()

	if m.suppress {
		log.Info().Str("subject", state.Subject).Msg("notification suppressed by configuration")
		return domain.OutcomeSuppressed
	}

	// Delivery failure is logged only; there is no retry at this level.
	if sendErr := m.notifier.Send(ctx, state.Subject, state.Body); sendErr != nil {
		log.Error().Err(sendErr).Msg("notification delivery failed")
	}

	return domain.OutcomeSent
}

func (m *Monitor) setStatus(wakeCount uint64, outcome domain.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = Status{WakeCount: wakeCount, LastOutcome: outcome.String()}
}

// Status returns a snapshot for the status endpoint.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}
