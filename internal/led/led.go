// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package led drives the indicator LEDs used to show the heading decision.
package led

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/find_north/internal/config"
)

// ErrIndexOutOfRange is returned when an LED index is outside [0, Count()).
var ErrIndexOutOfRange = errors.New("led index out of range")

// Bank is a fixed set of on/off indicator LEDs.
//
// Set must be idempotent: commanding an LED to the state it is already in
// has no further visible effect.
type Bank interface {
	Count() int
	Set(index int, on bool) error
	Close() error
}

func checkIndex(index, count int) error {
	if index < 0 || index >= count {
		return fmt.Errorf("%w: %d (count %d)", ErrIndexOutOfRange, index, count)
	}
	return nil
}

// Open builds the bank selected by cfg.LEDDriver.
func Open(cfg *config.Config) (Bank, error) {
	switch cfg.LEDDriver {
	case config.LEDDriverGPIO:
		b, err := NewGPIOBank(cfg.LEDGPIOPins)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.LEDDriverRPIO:
		b, err := NewRPiBank(cfg.LEDRPIOPins)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.LEDDriverAPA102:
		b, err := NewStripBank(cfg.LEDAPA102SPI, cfg.LEDAPA102Count, cfg.LEDAPA102Intensity)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.LEDDriverMock:
		return NewMockBank(cfg.LEDMockCount), nil
	default:
		return nil, fmt.Errorf("led: unknown driver %q", cfg.LEDDriver)
	}
}
