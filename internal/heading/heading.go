// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package heading holds the decision rule that turns a raw magnetometer
// sample into a "facing north" indication, and the LED selection policy.
package heading

import (
	"github.com/relabs-tech/find_north/internal/mag"
)

// dominance is the factor by which |x| must exceed both |y| and |z|.
const dominance = 2

// preferredLED is the LED used when the device has more than one.
// On RGB boards this is usually the green channel.
const preferredLED = 1

// Decision is the outcome of one control cycle.
type Decision struct {
	mag.Sample
	Facing bool `json:"facing"`
	LED    int  `json:"led"`
}

// Report is a Decision stamped with the time it was made, as published on MQTT.
type Report struct {
	Decision
	Time string `json:"time"` // RFC3339
}

// FacingNorth reports whether the sample is classified as north-aligned:
// x is negative and |x| is strictly more than twice both |y| and |z|.
//
// The axis convention and the margin are fixed; a sample exactly on the
// boundary (|x| == 2|y|) is not facing.
func FacingNorth(s mag.Sample) bool {
	absX := abs(s.X)
	absY := abs(s.Y)
	absZ := abs(s.Z)

	return s.X < 0 && dominates(absX, absY) && dominates(absX, absZ)
}

// dominates reports a > dominance*b without computing the product, which
// can overflow for counts near the int limits.
func dominates(a, b uint64) bool {
	return b < (a+dominance-1)/dominance
}

// SelectLED picks the indicator LED from the number of LEDs the device has.
// It returns 1 when more than one LED exists and 0 otherwise.
func SelectLED(count int) int {
	if count > 1 {
		return preferredLED
	}
	return 0
}

// abs returns |v| as uint64, so |math.MinInt| is representable.
func abs(v int) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}
