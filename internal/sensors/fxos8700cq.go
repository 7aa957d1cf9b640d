// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/find_north/internal/mag"
)

// ErrNotFXOS8700CQ is returned when WHO_AM_I does not identify an FXOS8700CQ.
var ErrNotFXOS8700CQ = errors.New("device is not an FXOS8700CQ")

// ErrDataNotReady is returned when the magnetometer reports no fresh data
// within the ready timeout.
var ErrDataNotReady = errors.New("magnetometer data not ready")

// FXOS8700CQ reads the magnetometer half of an NXP FXOS8700CQ over I²C.
type FXOS8700CQ struct {
	dev     *i2c.Dev
	bus     i2c.BusCloser // owned bus, nil when the caller provided it
	poll    time.Duration
	timeout time.Duration
}

// OpenFXOS8700CQ initializes periph, opens the named I²C bus (empty name
// means the first available) and configures the sensor at addr.
func OpenFXOS8700CQ(busName string, addr uint16) (*FXOS8700CQ, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("fxos8700cq: periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("fxos8700cq: i2c open %q: %w", busName, err)
	}

	d, err := NewFXOS8700CQ(bus, addr)
	if err != nil {
		bus.Close()
		return nil, err
	}
	d.bus = bus
	log.Printf("fxos8700cq: magnetometer ready on bus %s addr 0x%02X", bus, addr)
	return d, nil
}

// NewFXOS8700CQ configures the sensor on an already opened bus.
// An addr of 0 selects the default address 0x1E.
func NewFXOS8700CQ(bus i2c.Bus, addr uint16) (*FXOS8700CQ, error) {
	if addr == 0 {
		addr = fxosDefaultAddr
	}
	d := &FXOS8700CQ{
		dev:     &i2c.Dev{Bus: bus, Addr: addr},
		poll:    time.Millisecond,
		timeout: time.Second,
	}

	id, err := d.readReg(regWhoAmI)
	if err != nil {
		return nil, fmt.Errorf("fxos8700cq: read WHO_AM_I: %w", err)
	}
	if id != whoAmIFXOS8700CQ {
		return nil, fmt.Errorf("fxos8700cq: WHO_AM_I = 0x%02X: %w", id, ErrNotFXOS8700CQ)
	}

	// Control registers may only be changed in standby.
	steps := []struct {
		reg, val byte
		name     string
	}{
		{regCtrlReg1, ctrlReg1Standby, "CTRL_REG1 standby"},
		{regMCtrlReg1, mCtrlReg1Hybrid, "M_CTRL_REG1"},
		{regMCtrlReg2, mCtrlReg2AutoInc, "M_CTRL_REG2"},
		{regCtrlReg1, ctrlReg1Active, "CTRL_REG1 active"},
	}
	for _, w := range steps {
		if err := d.writeReg(w.reg, w.val); err != nil {
			return nil, fmt.Errorf("fxos8700cq: write %s: %w", w.name, err)
		}
	}
	return d, nil
}

// ReadMag blocks until the sensor flags a fresh X/Y/Z set, then returns it.
func (d *FXOS8700CQ) ReadMag() (mag.Sample, error) {
	deadline := time.Now().Add(d.timeout)
	for {
		status, err := d.readReg(regMDRStatus)
		if err != nil {
			return mag.Sample{}, fmt.Errorf("fxos8700cq: read M_DR_STATUS: %w", err)
		}
		if status&mDRStatusZYXDR != 0 {
			break
		}
		if time.Now().After(deadline) {
			return mag.Sample{}, fmt.Errorf("fxos8700cq: after %s: %w", d.timeout, ErrDataNotReady)
		}
		time.Sleep(d.poll)
	}

	var buf [6]byte
	if err := d.dev.Tx([]byte{regMOutXMSB}, buf[:]); err != nil {
		return mag.Sample{}, fmt.Errorf("fxos8700cq: read M_OUT: %w", err)
	}
	return mag.Sample{
		X: int(int16(binary.BigEndian.Uint16(buf[0:2]))),
		Y: int(int16(binary.BigEndian.Uint16(buf[2:4]))),
		Z: int(int16(binary.BigEndian.Uint16(buf[4:6]))),
	}, nil
}

// Close puts the sensor in standby and releases the bus if it was opened here.
func (d *FXOS8700CQ) Close() error {
	err := d.writeReg(regCtrlReg1, ctrlReg1Standby)
	if d.bus != nil {
		if cerr := d.bus.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (d *FXOS8700CQ) readReg(reg byte) (byte, error) {
	var b [1]byte
	if err := d.dev.Tx([]byte{reg}, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *FXOS8700CQ) writeReg(reg, val byte) error {
	return d.dev.Tx([]byte{reg, val}, nil)
}
