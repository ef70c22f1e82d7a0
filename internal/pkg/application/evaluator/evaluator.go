package evaluator

import (
	"fmt"
	"strings"

	"github.com/mvik/battwatch/domain"
)

const heartbeatSubject = "OK: Batteries Charged"

// Evaluator compares measurements against the per-channel thresholds and
// composes the notification text for the cycle.
type Evaluator struct {
	channels  []domain.Channel
	heartbeat uint64
	separator string
}

// New creates an evaluator. The channel order given here is the order the
// composed message fragments appear in.
func New(channels []domain.Channel, heartbeatInterval uint64, subjectSeparator string) *Evaluator {
	if heartbeatInterval == 0 {
		heartbeatInterval = 1
	}

	return &Evaluator{
		channels:  channels,
		heartbeat: heartbeatInterval,
		separator: subjectSeparator,
	}
}

// Classify maps a voltage onto a severity. The alarm threshold is checked
// before the warn threshold and both compares are inclusive, so a voltage
// exactly at a threshold triggers that tier.
func Classify(ch domain.Channel, volts float64) domain.Severity {
	switch {
	case volts <= ch.AlarmLow:
		return domain.SeverityAlarm
	case volts <= ch.WarnLow:
		return domain.SeverityWarn
	default:
		return domain.SeverityNormal
	}
}

// Evaluate produces the cycle decision: whether a notification is needed and,
// if so, its subject and body. When no channel alerts, a heartbeat message is
// produced on the last wake before the heartbeat interval rolls over.
func (e *Evaluator) Evaluate(measurements []domain.Measurement, wakeCount uint64) domain.CycleState {
	byChannel := make(map[domain.ChannelID]domain.Measurement, len(measurements))
	for _, m := range measurements {
		byChannel[m.Channel] = m
	}

	var subjects []string
	var bodies []string

	for _, ch := range e.channels {
		m, ok := byChannel[ch.ID]
		if !ch.Monitored || !ok || !m.Measured() {
			continue
		}

		switch Classify(ch, m.Volts) {
		case domain.SeverityAlarm:
			subjects = append(subjects, fmt.Sprintf("Alarm: Battery %s (%s) %.2fV", ch.ID, ch.Name, m.Volts))
			bodies = append(bodies, fmt.Sprintf(
				"Battery %s (%s) measured %.2f V, at or below the alarm threshold of %.2f V.",
				ch.ID, ch.Name, m.Volts, ch.AlarmLow))
		case domain.SeverityWarn:
			subjects = append(subjects, fmt.Sprintf("Warn: Battery %s (%s) %.2fV", ch.ID, ch.Name, m.Volts))
			bodies = append(bodies, fmt.Sprintf(
				"Battery %s (%s) measured %.2f V, at or below the warning threshold of %.2f V.",
				ch.ID, ch.Name, m.Volts, ch.WarnLow))
		}
	}

	if len(subjects) > 0 {
		return domain.CycleState{
			Send:    true,
			Subject: strings.Join(subjects, e.separator),
			Body:    strings.Join(bodies, "\n\n"),
		}
	}

	if wakeCount%e.heartbeat == e.heartbeat-1 {
		return domain.CycleState{
			Send:      true,
			Subject:   heartbeatSubject,
			Body:      e.heartbeatBody(byChannel),
			Heartbeat: true,
		}
	}

	return domain.CycleState{}
}

func (e *Evaluator) heartbeatBody(byChannel map[domain.ChannelID]domain.Measurement) string {
	lines := []string{"All monitored batteries are above their warning thresholds."}

	for _, ch := range e.channels {
		m, ok := byChannel[ch.ID]
		if !ch.Monitored || !ok || !m.Measured() {
			continue
		}
		lines = append(lines, fmt.Sprintf("Battery %s (%s): %.2f V", ch.ID, ch.Name, m.Volts))
	}

	return strings.Join(lines, "\n")
}
