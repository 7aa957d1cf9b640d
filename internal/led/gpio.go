// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package led

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIOBank drives one LED per GPIO pin through periph.
// LEDs are active high.
type GPIOBank struct {
	pins []gpio.PinOut
}

// NewGPIOBank looks up the named pins (e.g. "GPIO17", "17") and drives them low.
func NewGPIOBank(names []string) (*GPIOBank, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("led: periph host init: %w", err)
	}

	pins := make([]gpio.PinOut, 0, len(names))
	for _, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("led: gpio pin %q not found", name)
		}
		pins = append(pins, p)
	}
	return newGPIOBank(pins)
}

func newGPIOBank(pins []gpio.PinOut) (*GPIOBank, error) {
	for _, p := range pins {
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("led: init %s: %w", p, err)
		}
	}
	return &GPIOBank{pins: pins}, nil
}

// Count returns the number of configured pins.
func (b *GPIOBank) Count() int {
	return len(b.pins)
}

// Set drives the pin at index high (on) or low (off).
func (b *GPIOBank) Set(index int, on bool) error {
	if err := checkIndex(index, len(b.pins)); err != nil {
		return err
	}
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := b.pins[index].Out(level); err != nil {
		return fmt.Errorf("led: set %s: %w", b.pins[index], err)
	}
	return nil
}

// Close switches every LED off and halts the pins.
func (b *GPIOBank) Close() error {
	var firstErr error
	for _, p := range b.pins {
		if err := p.Out(gpio.Low); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := p.Halt(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
