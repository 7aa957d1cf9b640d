// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package led

import (
	"log"
)

// MockBank is an in-memory LED bank for development on a PC.
// It logs state changes only, so repeated commands stay quiet.
type MockBank struct {
	state  []bool
	writes int
}

// NewMockBank creates a bank of count LEDs, all off.
func NewMockBank(count int) *MockBank {
	log.Printf("led: using MOCK bank with %d LED(s)", count)
	return &MockBank{state: make([]bool, count)}
}

func (m *MockBank) Count() int {
	return len(m.state)
}

func (m *MockBank) Set(index int, on bool) error {
	if err := checkIndex(index, len(m.state)); err != nil {
		return err
	}
	m.writes++
	if m.state[index] != on {
		log.Printf("led: mock LED %d -> %v", index, onOff(on))
	}
	m.state[index] = on
	return nil
}

// State reports whether the LED at index is lit.
func (m *MockBank) State(index int) bool {
	return m.state[index]
}

// Writes returns how many Set commands were accepted.
func (m *MockBank) Writes() int {
	return m.writes
}

func (m *MockBank) Close() error {
	for i := range m.state {
		m.state[i] = false
	}
	return nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
