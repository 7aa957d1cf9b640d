// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"

	"github.com/relabs-tech/find_north/internal/heading"
	"github.com/relabs-tech/find_north/internal/led"
	"github.com/relabs-tech/find_north/internal/mag"
)

// MagReader is the blocking magnetometer read the controller consumes.
type MagReader interface {
	ReadMag() (mag.Sample, error)
}

// Observer receives every decision after the LED has been commanded.
// It runs on the control loop, so it must not block for long.
type Observer func(heading.Decision)

// Controller is the sense-decide-actuate loop: one magnetometer read and
// one LED command per step.
type Controller struct {
	mag        MagReader
	leds       led.Bank
	ledIndex   int
	logSamples bool
	observe    Observer
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithSampleLogging logs every sample as "x: %d, y: %d, z: %d".
func WithSampleLogging(on bool) ControllerOption {
	return func(c *Controller) { c.logSamples = on }
}

// WithObserver registers a callback invoked after each step.
func WithObserver(o Observer) ControllerOption {
	return func(c *Controller) { c.observe = o }
}

// NewController picks the indicator LED from the bank size once, up front.
func NewController(m MagReader, leds led.Bank, opts ...ControllerOption) *Controller {
	c := &Controller{
		mag:      m,
		leds:     leds,
		ledIndex: heading.SelectLED(leds.Count()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LEDIndex returns the LED chosen at construction.
func (c *Controller) LEDIndex() int {
	return c.ledIndex
}

// Step performs exactly one read and one LED command.
// Read and LED errors are returned unchanged in meaning; the caller decides
// whether they are fatal.
func (c *Controller) Step() (heading.Decision, error) {
	s, err := c.mag.ReadMag()
	if err != nil {
		return heading.Decision{}, fmt.Errorf("read magnetometer: %w", err)
	}
	if c.logSamples {
		log.Printf("x: %d, y: %d, z: %d", s.X, s.Y, s.Z)
	}

	d := heading.Decision{
		Sample: s,
		Facing: heading.FacingNorth(s),
		LED:    c.ledIndex,
	}
	if err := c.leds.Set(c.ledIndex, d.Facing); err != nil {
		return d, fmt.Errorf("set led %d: %w", c.ledIndex, err)
	}

	if c.observe != nil {
		c.observe(d)
	}
	return d, nil
}

// Run steps until a read or LED fault, or until ctx is cancelled.
// The loop adds no pacing of its own; the blocking read sets the rate.
// A cancelled context returns nil.
func (c *Controller) Run(ctx context.Context) error {
	log.Printf("controller: driving LED %d of %d", c.ledIndex, c.leds.Count())
	for {
		select {
		case <-ctx.Done():
			log.Println("controller: stopping")
			return nil
		default:
		}

		if _, err := c.Step(); err != nil {
			return err
		}
	}
}
