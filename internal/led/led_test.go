package led

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/relabs-tech/find_north/internal/config"
)

func newTestPins(n int) []*gpiotest.Pin {
	pins := make([]*gpiotest.Pin, n)
	for i := range pins {
		pins[i] = &gpiotest.Pin{N: "LED", Num: i, L: gpio.High}
	}
	return pins
}

func asPinOuts(pins []*gpiotest.Pin) []gpio.PinOut {
	out := make([]gpio.PinOut, len(pins))
	for i, p := range pins {
		out[i] = p
	}
	return out
}

func TestGPIOBank_InitDrivesLow(t *testing.T) {
	pins := newTestPins(3)
	b, err := newGPIOBank(asPinOuts(pins))
	require.NoError(t, err)

	assert.Equal(t, 3, b.Count())
	for i, p := range pins {
		assert.Equal(t, gpio.Low, p.Read(), "pin %d", i)
	}
}

func TestGPIOBank_Set(t *testing.T) {
	pins := newTestPins(3)
	b, err := newGPIOBank(asPinOuts(pins))
	require.NoError(t, err)

	require.NoError(t, b.Set(1, true))
	assert.Equal(t, gpio.Low, pins[0].Read())
	assert.Equal(t, gpio.High, pins[1].Read())
	assert.Equal(t, gpio.Low, pins[2].Read())

	require.NoError(t, b.Set(1, false))
	assert.Equal(t, gpio.Low, pins[1].Read())
}

func TestGPIOBank_SetIdempotent(t *testing.T) {
	pins := newTestPins(2)
	b, err := newGPIOBank(asPinOuts(pins))
	require.NoError(t, err)

	require.NoError(t, b.Set(1, true))
	require.NoError(t, b.Set(1, true))
	assert.Equal(t, gpio.High, pins[1].Read())
}

func TestGPIOBank_OutOfRange(t *testing.T) {
	b, err := newGPIOBank(asPinOuts(newTestPins(1)))
	require.NoError(t, err)

	for _, idx := range []int{-1, 1, 5} {
		err := b.Set(idx, true)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "index %d: %v", idx, err)
	}
}

func TestGPIOBank_CloseTurnsOff(t *testing.T) {
	pins := newTestPins(2)
	b, err := newGPIOBank(asPinOuts(pins))
	require.NoError(t, err)
	require.NoError(t, b.Set(0, true))

	require.NoError(t, b.Close())
	assert.Equal(t, gpio.Low, pins[0].Read())
}

func TestMockBank(t *testing.T) {
	m := NewMockBank(3)
	assert.Equal(t, 3, m.Count())

	require.NoError(t, m.Set(1, true))
	require.NoError(t, m.Set(1, true))
	assert.True(t, m.State(1))
	assert.False(t, m.State(0))
	assert.Equal(t, 2, m.Writes())

	require.NoError(t, m.Set(1, false))
	assert.False(t, m.State(1))

	assert.ErrorIs(t, m.Set(3, true), ErrIndexOutOfRange)
	assert.Equal(t, 3, m.Writes())
}

func TestMockBank_Empty(t *testing.T) {
	m := NewMockBank(0)
	assert.ErrorIs(t, m.Set(0, true), ErrIndexOutOfRange)
}

func TestStripBank(t *testing.T) {
	rec := &spitest.Record{}
	b, err := newStripBank(rec, 3, 64)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Count())
	require.NotEmpty(t, rec.Ops, "initial frame should be written")
	allOff := rec.Ops[len(rec.Ops)-1].W

	require.NoError(t, b.Set(1, true))
	lit := rec.Ops[len(rec.Ops)-1].W
	assert.False(t, bytes.Equal(allOff, lit), "lit frame should differ from dark frame")

	require.NoError(t, b.Set(1, true))
	assert.Equal(t, lit, rec.Ops[len(rec.Ops)-1].W, "same command should produce the same frame")

	require.NoError(t, b.Set(1, false))
	assert.Equal(t, allOff, rec.Ops[len(rec.Ops)-1].W)

	assert.ErrorIs(t, b.Set(3, true), ErrIndexOutOfRange)
}

func TestOpen_Mock(t *testing.T) {
	cfg := config.Default()
	cfg.LEDDriver = config.LEDDriverMock
	cfg.LEDMockCount = 2

	b, err := Open(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Count())
	require.NoError(t, b.Close())
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.LEDDriver = "lamp"

	_, err := Open(cfg)
	require.Error(t, err)
}
