// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/find_north/internal/mag"
)

// mockFieldStrength is the horizontal field magnitude in counts.
const mockFieldStrength = 400

// MockSource simulates a board slowly spinning in a horizontal field,
// so the north indication comes and goes.
type MockSource struct {
	start    time.Time
	interval time.Duration
	now      func() time.Time
	sleep    func(time.Duration)
}

// NewMockSource creates a mock source that produces one sample per interval.
func NewMockSource(interval time.Duration) *MockSource {
	return &MockSource{
		start:    time.Now(),
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

func (m *MockSource) ReadMag() (mag.Sample, error) {
	if m.interval > 0 {
		m.sleep(m.interval)
	}
	return mockSample(m.now().Sub(m.start)), nil
}

func (m *MockSource) Close() error {
	return nil
}

// mockSample is one turn every 12 s, heading north at t=0 (x negative).
func mockSample(elapsed time.Duration) mag.Sample {
	angle := 2 * math.Pi * elapsed.Seconds() / 12
	return mag.Sample{
		X: int(math.Round(-mockFieldStrength * math.Cos(angle))),
		Y: int(math.Round(mockFieldStrength * math.Sin(angle))),
		Z: int(math.Round(40 * math.Sin(angle*0.5))),
	}
}
