// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package led

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/apa102"
	"periph.io/x/host/v3"
)

// onColor is the RGB value written to a lit pixel.
var onColor = [3]byte{0x00, 0xFF, 0x00}

// StripBank treats each pixel of an APA102 strip as one LED.
type StripBank struct {
	dev    *apa102.Dev
	port   spi.Port
	pixels []byte // RGB, 3 bytes per pixel
}

// NewStripBank opens the SPI port (empty name means the first one) and
// drives an APA102 strip of count pixels, all off.
func NewStripBank(spiPort string, count int, intensity uint8) (*StripBank, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("led: periph host init: %w", err)
	}
	port, err := spireg.Open(spiPort)
	if err != nil {
		return nil, fmt.Errorf("led: spi open %q: %w", spiPort, err)
	}
	b, err := newStripBank(port, count, intensity)
	if err != nil {
		port.Close()
		return nil, err
	}
	return b, nil
}

func newStripBank(port spi.Port, count int, intensity uint8) (*StripBank, error) {
	opts := apa102.DefaultOpts
	opts.NumPixels = count
	opts.Intensity = intensity

	dev, err := apa102.New(port, &opts)
	if err != nil {
		return nil, fmt.Errorf("led: apa102 init: %w", err)
	}
	b := &StripBank{
		dev:    dev,
		port:   port,
		pixels: make([]byte, 3*count),
	}
	if err := b.flush(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *StripBank) Count() int {
	return len(b.pixels) / 3
}

// Set lights or clears one pixel and rewrites the strip.
func (b *StripBank) Set(index int, on bool) error {
	if err := checkIndex(index, b.Count()); err != nil {
		return err
	}
	c := [3]byte{}
	if on {
		c = onColor
	}
	copy(b.pixels[3*index:3*index+3], c[:])
	return b.flush()
}

func (b *StripBank) flush() error {
	if _, err := b.dev.Write(b.pixels); err != nil {
		return fmt.Errorf("led: apa102 write: %w", err)
	}
	return nil
}

// Close turns the strip off and releases the SPI port.
func (b *StripBank) Close() error {
	err := b.dev.Halt()
	if c, ok := b.port.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
