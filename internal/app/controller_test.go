package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/find_north/internal/heading"
	"github.com/relabs-tech/find_north/internal/led"
	"github.com/relabs-tech/find_north/internal/mag"
)

var errSensorGone = errors.New("sensor gone")

// scriptedMag returns the queued samples in order, then errSensorGone.
type scriptedMag struct {
	samples []mag.Sample
	reads   int
}

func (m *scriptedMag) ReadMag() (mag.Sample, error) {
	if m.reads >= len(m.samples) {
		m.reads++
		return mag.Sample{}, errSensorGone
	}
	s := m.samples[m.reads]
	m.reads++
	return s, nil
}

// recordingBank records every Set command.
type recordingBank struct {
	count int
	cmds  []bool
	index []int
	fail  error
}

func (b *recordingBank) Count() int { return b.count }

func (b *recordingBank) Set(index int, on bool) error {
	if b.fail != nil {
		return b.fail
	}
	b.index = append(b.index, index)
	b.cmds = append(b.cmds, on)
	return nil
}

func (b *recordingBank) Close() error { return nil }

func TestNewController_LEDSelection(t *testing.T) {
	for count, want := range map[int]int{0: 0, 1: 0, 2: 1, 3: 1, 8: 1} {
		c := NewController(&scriptedMag{}, &recordingBank{count: count})
		assert.Equal(t, want, c.LEDIndex(), "count %d", count)
	}
}

func TestStep_OneReadOneCommand(t *testing.T) {
	m := &scriptedMag{samples: []mag.Sample{
		{X: -11, Y: 5, Z: 0},
		{X: -10, Y: 5, Z: 0},
		{X: 10, Y: 0, Z: 0},
	}}
	b := &recordingBank{count: 3}
	c := NewController(m, b)

	for i, want := range []bool{true, false, false} {
		d, err := c.Step()
		require.NoError(t, err)
		assert.Equal(t, want, d.Facing)
		assert.Equal(t, i+1, m.reads, "reads after step %d", i)
		assert.Len(t, b.cmds, i+1, "commands after step %d", i)
	}
	assert.Equal(t, []bool{true, false, false}, b.cmds)
	assert.Equal(t, []int{1, 1, 1}, b.index)
}

func TestStep_ReadErrorSkipsCommand(t *testing.T) {
	m := &scriptedMag{}
	b := &recordingBank{count: 1}
	c := NewController(m, b)

	_, err := c.Step()
	require.Error(t, err)
	assert.ErrorIs(t, err, errSensorGone)
	assert.Empty(t, b.cmds)
}

func TestStep_LEDFault(t *testing.T) {
	m := &scriptedMag{samples: []mag.Sample{{X: -100}}}
	b := &recordingBank{count: 2, fail: led.ErrIndexOutOfRange}
	c := NewController(m, b)

	_, err := c.Step()
	require.Error(t, err)
	assert.ErrorIs(t, err, led.ErrIndexOutOfRange)
}

func TestStep_SingleLEDMockBank(t *testing.T) {
	m := &scriptedMag{samples: []mag.Sample{{X: -100}, {X: -100}, {X: 100}}}
	b := led.NewMockBank(1)
	c := NewController(m, b)

	_, err := c.Step()
	require.NoError(t, err)
	assert.True(t, b.State(0))

	// Same command again leaves the LED as it was.
	_, err = c.Step()
	require.NoError(t, err)
	assert.True(t, b.State(0))

	_, err = c.Step()
	require.NoError(t, err)
	assert.False(t, b.State(0))
	assert.Equal(t, 3, b.Writes())
}

func TestStep_EmptyBankFaults(t *testing.T) {
	m := &scriptedMag{samples: []mag.Sample{{X: -100}}}
	c := NewController(m, led.NewMockBank(0))

	_, err := c.Step()
	assert.ErrorIs(t, err, led.ErrIndexOutOfRange)
}

func TestStep_Observer(t *testing.T) {
	m := &scriptedMag{samples: []mag.Sample{{X: -50, Y: 1, Z: 1}}}
	var got []heading.Decision
	c := NewController(m, &recordingBank{count: 2},
		WithObserver(func(d heading.Decision) { got = append(got, d) }),
		WithSampleLogging(true),
	)

	_, err := c.Step()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, heading.Decision{Sample: mag.Sample{X: -50, Y: 1, Z: 1}, Facing: true, LED: 1}, got[0])
}

func TestRun_EndsOnReadFault(t *testing.T) {
	samples := make([]mag.Sample, 100)
	for i := range samples {
		samples[i] = mag.Sample{X: -i, Y: i % 7, Z: -(i % 3)}
	}
	m := &scriptedMag{samples: samples}
	b := &recordingBank{count: 2}

	err := NewController(m, b).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errSensorGone)
	assert.Len(t, b.cmds, len(samples))
	assert.Equal(t, len(samples)+1, m.reads)
}

// endlessMag never fails; it cancels ctx after n reads.
type endlessMag struct {
	n      int
	reads  int
	cancel context.CancelFunc
}

func (m *endlessMag) ReadMag() (mag.Sample, error) {
	m.reads++
	if m.reads == m.n {
		m.cancel()
	}
	return mag.Sample{X: -100}, nil
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := &endlessMag{n: 5, cancel: cancel}
	b := &recordingBank{count: 2}

	done := make(chan error, 1)
	go func() { done <- NewController(m, b).Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	// The step in flight when ctx was cancelled still completes.
	assert.Equal(t, 5, m.reads)
	assert.Len(t, b.cmds, 5)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &scriptedMag{samples: []mag.Sample{{X: -100}}}

	require.NoError(t, NewController(m, &recordingBank{count: 1}).Run(ctx))
	assert.Zero(t, m.reads)
}
