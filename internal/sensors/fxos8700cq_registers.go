// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

// FXOS8700CQ register map (magnetometer subset).
const (
	fxosDefaultAddr = 0x1E // SA1=0, SA0=0

	regWhoAmI    = 0x0D // Device ID, reads 0xC7
	regCtrlReg1  = 0x2A // System ODR, active/standby
	regMDRStatus = 0x32 // Magnetometer data-ready status
	regMOutXMSB  = 0x33 // First of 6 magnetometer output bytes (X, Y, Z big-endian)
	regMCtrlReg1 = 0x5B // Magnetometer control 1: oversampling, hybrid mode
	regMCtrlReg2 = 0x5C // Magnetometer control 2: auto-increment, reset behaviour
)

const (
	whoAmIFXOS8700CQ = 0xC7

	ctrlReg1Standby = 0x00
	// ODR 200 Hz in hybrid mode (100 Hz per sensor), low noise, active.
	ctrlReg1Active = 0x0D

	// m_os=7 (max oversampling), m_hms=11 (hybrid accel+mag).
	mCtrlReg1Hybrid = 0x1F
	// hyb_autoinc_mode: burst read continues from accel into mag registers.
	mCtrlReg2AutoInc = 0x20

	// ZYXDR: new X, Y and Z data available.
	mDRStatusZYXDR = 0x08
)
