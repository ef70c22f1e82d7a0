package application

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/mvik/battwatch/domain"
	"github.com/mvik/battwatch/internal/pkg/application/evaluator"
	"github.com/mvik/battwatch/internal/pkg/application/sampler"
	"github.com/mvik/battwatch/internal/pkg/infrastructure/adc"
	"github.com/mvik/battwatch/internal/pkg/infrastructure/counter"
)

type fakeConnector struct {
	reachable   bool
	connects    int
	disconnects int
}

func (f *fakeConnector) Connect(ctx context.Context) bool {
	f.connects++
	return f.reachable
}

func (f *fakeConnector) Disconnect() {
	f.disconnects++
}

type fakeNotifier struct {
	sent    []string
	bodies  []string
	sendErr error
}

func (f *fakeNotifier) Send(ctx context.Context, subject, body string) error {
	f.sent = append(f.sent, subject)
	f.bodies = append(f.bodies, body)
	return f.sendErr
}

func testChannels() []domain.Channel {
	return []domain.Channel{
		{ID: domain.ChannelA, Name: "Engine", Input: "34", Calibration: 189, WarnLow: 11.5, AlarmLow: 10.5, Monitored: true},
		{ID: domain.ChannelB, Name: "DeepCycle", Input: "35", Calibration: 179, WarnLow: 11.5, AlarmLow: 10.5, Monitored: true},
	}
}

func newTestMonitor(t *testing.T, source adc.Source, conn Connector, notify *fakeNotifier, heartbeat uint64, suppress bool) *Monitor {
	channels := testChannels()

	return New(
		channels,
		sampler.New(source, 3, 0),
		evaluator.New(channels, heartbeat, "; "),
		conn,
		notify,
		counter.NewFileStore(filepath.Join(t.TempDir(), "wakecount")),
		time.Millisecond,
		suppress,
	)
}

// raw values chosen so 12.6 V is well above and 10.2 V well below thresholds
func rawFor(volts float64, calibration float64) int {
	return int(volts * calibration)
}

func TestCycleWithAlarmSendsNotification(t *testing.T) {
	is := is.New(t)

	source := adc.NewMock(map[string]int{
		"34": rawFor(10.2, 189),
		"35": rawFor(12.6, 179),
	})
	conn := &fakeConnector{reachable: true}
	notify := &fakeNotifier{}

	m := newTestMonitor(t, source, conn, notify, 4, false)

	outcome := m.RunCycle(context.Background(), 0)

	is.Equal(outcome, domain.OutcomeSent)
	is.Equal(len(notify.sent), 1)
	is.True(strings.Contains(notify.sent[0], "Alarm: Battery A (Engine)"))
	is.Equal(conn.connects, 1)
	is.Equal(conn.disconnects, 1)
}

func TestQuietCycleMidIntervalSendsNothing(t *testing.T) {
	is := is.New(t)

	source := adc.NewMock(map[string]int{
		"34": rawFor(12.6, 189),
		"35": rawFor(12.6, 179),
	})
	conn := &fakeConnector{reachable: true}
	notify := &fakeNotifier{}

	m := newTestMonitor(t, source, conn, notify, 4, false)

	outcome := m.RunCycle(context.Background(), 1) // 1 mod 4 != 3

	is.Equal(outcome, domain.OutcomeNotNeeded)
	is.Equal(len(notify.sent), 0)
	is.Equal(conn.connects, 0) // connectivity never attempted
}

func TestQuietCycleAtIntervalEndSendsHeartbeat(t *testing.T) {
	is := is.New(t)

	source := adc.NewMock(map[string]int{
		"34": rawFor(12.6, 189),
		"35": rawFor(12.6, 179),
	})
	conn := &fakeConnector{reachable: true}
	notify := &fakeNotifier{}

	m := newTestMonitor(t, source, conn, notify, 4, false)

	outcome := m.RunCycle(context.Background(), 3) // 3 mod 4 == 3

	is.Equal(outcome, domain.OutcomeSent)
	is.Equal(len(notify.sent), 1)
	is.Equal(notify.sent[0], "OK: Batteries Charged")
	is.True(strings.Contains(notify.bodies[0], "Battery A (Engine)"))
	is.True(strings.Contains(notify.bodies[0], "Battery B (DeepCycle)"))
}

func TestUnreachableTransportSkipsNotification(t *testing.T) {
	is := is.New(t)

	source := adc.NewMock(map[string]int{
		"34": rawFor(10.2, 189),
		"35": rawFor(12.6, 179),
	})
	conn := &fakeConnector{reachable: false}
	notify := &fakeNotifier{}

	m := newTestMonitor(t, source, conn, notify, 4, false)

	outcome := m.RunCycle(context.Background(), 0)

	is.Equal(outcome, domain.OutcomeUnreachable)
	is.Equal(len(notify.sent), 0)
	is.Equal(conn.disconnects, 0) // nothing to tear down
}

func TestSuppressionFlagSkipsDelivery(t *testing.T) {
	is := is.New(t)

	source := adc.NewMock(map[string]int{
		"34": rawFor(10.2, 189),
		"35": rawFor(12.6, 179),
	})
	conn := &fakeConnector{reachable: true}
	notify := &fakeNotifier{}

	m := newTestMonitor(t, source, conn, notify, 4, true)

	outcome := m.RunCycle(context.Background(), 0)

	is.Equal(outcome, domain.OutcomeSuppressed)
	is.Equal(len(notify.sent), 0)
}

func TestDeliveryFailureDoesNotChangeOutcome(t *testing.T) {
	is := is.New(t)

	source := adc.NewMock(map[string]int{
		"34": rawFor(10.2, 189),
		"35": rawFor(12.6, 179),
	})
	conn := &fakeConnector{reachable: true}
	notify := &fakeNotifier{sendErr: errors.New("550 mailbox unavailable")}

	m := newTestMonitor(t, source, conn, notify, 4, false)

	outcome := m.RunCycle(context.Background(), 0)

	is.Equal(outcome, domain.OutcomeSent)
	is.Equal(conn.disconnects, 1) // teardown still happens
}

func TestRunAdvancesWakeCounterAcrossCycles(t *testing.T) {
	is := is.New(t)

	source := adc.NewMock(map[string]int{
		"34": rawFor(12.6, 189),
		"35": rawFor(12.6, 179),
	})
	conn := &fakeConnector{reachable: true}
	notify := &fakeNotifier{}

	store := counter.NewFileStore(filepath.Join(t.TempDir(), "wakecount"))
	channels := testChannels()

	m := New(
		channels,
		sampler.New(source, 1, 0),
		evaluator.New(channels, 1000, "; "), // quiet: no heartbeat in this window
		conn,
		notify,
		store,
		time.Millisecond,
		false,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := m.Run(ctx)
	is.True(errors.Is(err, context.DeadlineExceeded))

	count, loadErr := store.Load()
	is.NoErr(loadErr)
	is.True(count >= 1)

	status := m.Status()
	is.Equal(status.LastOutcome, "not-needed")
	is.Equal(status.WakeCount, count-1) // status reports the last executed wake index
}
