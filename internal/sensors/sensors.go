// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors provides the magnetometer sources the controller can read:
// the FXOS8700CQ over I²C, a serial console stream, an MQTT feed and a mock.
package sensors

import (
	"fmt"

	"github.com/relabs-tech/find_north/internal/config"
	"github.com/relabs-tech/find_north/internal/mag"
)

// MagReader yields one raw magnetometer sample per call, blocking until
// one is available. Errors are not retried here.
type MagReader interface {
	ReadMag() (mag.Sample, error)
	Close() error
}

// Open builds the MagReader selected by cfg.MagSource.
func Open(cfg *config.Config) (MagReader, error) {
	var (
		r   MagReader
		err error
	)
	switch cfg.MagSource {
	case config.MagSourceFXOS8700CQ:
		var d *FXOS8700CQ
		if d, err = OpenFXOS8700CQ(cfg.MagI2CBus, cfg.MagI2CAddr); err == nil {
			r = d
		}
	case config.MagSourceSerial:
		var s *SerialSource
		if s, err = OpenSerial(cfg.MagSerialPort, cfg.MagBaudRate); err == nil {
			r = s
		}
	case config.MagSourceMQTT:
		var s *MQTTSource
		if s, err = OpenMQTT(cfg.MQTTBroker, cfg.MQTTClientIDController+"-mag", cfg.TopicMagRaw); err == nil {
			r = s
		}
	case config.MagSourceMock:
		r = NewMockSource(cfg.MockInterval())
	default:
		err = fmt.Errorf("sensors: unknown magnetometer source %q", cfg.MagSource)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}
