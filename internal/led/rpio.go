// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package led

import (
	"fmt"
	"log"

	"github.com/stianeikeland/go-rpio/v4"
)

// RPiBank drives LEDs on Raspberry Pi BCM pins through go-rpio.
// Requires /dev/gpiomem access or root.
type RPiBank struct {
	pins []rpio.Pin
}

// NewRPiBank memory-maps the GPIO block and configures each BCM pin as an output, low.
func NewRPiBank(bcm []int) (*RPiBank, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("led: open gpio: %w (are you running on a Raspberry Pi?)", err)
	}

	pins := make([]rpio.Pin, 0, len(bcm))
	for _, n := range bcm {
		p := rpio.Pin(n)
		p.Output()
		p.Low()
		pins = append(pins, p)
	}
	log.Printf("led: rpio bank ready with %d pin(s) %v", len(pins), bcm)
	return &RPiBank{pins: pins}, nil
}

func (b *RPiBank) Count() int {
	return len(b.pins)
}

func (b *RPiBank) Set(index int, on bool) error {
	if err := checkIndex(index, len(b.pins)); err != nil {
		return err
	}
	if on {
		b.pins[index].High()
	} else {
		b.pins[index].Low()
	}
	return nil
}

// Close switches the LEDs off, returns the pins to input (safe state) and unmaps GPIO memory.
func (b *RPiBank) Close() error {
	for _, p := range b.pins {
		p.Low()
		p.Input()
	}
	return rpio.Close()
}
