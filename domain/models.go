package domain

// ChannelID identifies a monitored battery circuit.
type ChannelID string

const (
	ChannelA ChannelID = "A"
	ChannelB ChannelID = "B"
)

// Unmeasured is the sentinel voltage assigned to channels that are not monitored.
const Unmeasured float64 = -1.0

// Channel describes one battery circuit. Channels are defined at configuration
// time and never change while the service is running.
type Channel struct {
	ID          ChannelID
	Name        string  // display name, e.g. "Engine" or "DeepCycle"
	Input       string  // analog input identifier the raw samples are read from
	Calibration float64 // divisor converting an averaged raw sample to volts
	WarnLow     float64 // volts
	AlarmLow    float64 // volts
	Monitored   bool
}

// Measurement is a single channel's computed voltage for the current wake cycle.
type Measurement struct {
	Channel ChannelID
	Volts   float64
}

func (m Measurement) Measured() bool {
	return m.Volts >= 0
}

// Severity classifies a measurement against the channel thresholds.
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityWarn
	SeverityAlarm
)

func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityAlarm:
		return "alarm"
	default:
		return "normal"
	}
}

// CycleState is the aggregate decision for one wake cycle.
type CycleState struct {
	Send      bool
	Subject   string
	Body      string
	Heartbeat bool
}

// Outcome is the result of running one wake cycle.
type Outcome int

const (
	// OutcomeNotNeeded means no channel alerted and no heartbeat was due.
	OutcomeNotNeeded Outcome = iota
	// OutcomeSent means a notification was needed and handed to the notifier.
	OutcomeSent
	// OutcomeSuppressed means a notification was needed but sending is disabled.
	OutcomeSuppressed
	// OutcomeUnreachable means a notification was needed but connectivity
	// could not be established within the retry budget.
	OutcomeUnreachable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeUnreachable:
		return "unreachable"
	default:
		return "not-needed"
	}
}
