// Package ec provides register addresses, command opcodes and bitfields used
// in the operation of the isolated EC (electrical conductivity) probe
// interface.
package ec

import "time"

const (
	// 7-bit I2C address.
	AddressDefault = 0x3C

	// --- Register map (float registers are 4 bytes, little-endian) ---
	regVersion      = 0  // R, byte
	regMS           = 1  // R
	regTemp         = 5  // R/W
	regSolution     = 9  // R/W, calibration solution / command argument
	regTempCoef     = 13 // R/W
	regCalRefHigh   = 17 // R/W
	regCalRefLow    = 21 // R/W
	regCalReadHigh  = 25 // R/W
	regCalReadLow   = 29 // R/W
	regCalOffset    = 33 // R/W
	regSalinity     = 37 // R, PSU
	regRaw          = 41 // R
	regTempConstant = 45 // R/W, compensation reference temperature
	regBuffer       = 49 // R/W, EEPROM data
	regFirmware     = 53 // R, byte
	regConfig       = 54 // R/W, byte
	regTask         = 55 // W, byte

	// --- Task opcodes (written to regTask) ---
	cmdMeasureEC     = 80
	cmdMeasureTemp   = 40
	cmdCalibrate     = 20
	cmdCalibrateLow  = 10
	cmdCalibrateHigh = 8
	cmdChangeAddress = 4
	cmdReadEEPROM    = 2
	cmdWriteEEPROM   = 1
)

// Sentinels reported by the device or derived by the driver.
const (
	// VersionAbsent is read back when nothing answers at the address.
	VersionAbsent = 0xFF
	// Invalid marks derived electrical quantities that could not be measured.
	Invalid float32 = -1
	// TempFault is reported by the device when the temperature sensor fails.
	TempFault float32 = -127
)

// Temperature compensation defaults.
const (
	TempCoefEC       float32 = 0.019
	TempCoefSalinity float32 = 0.021
	TempConstantRef  float32 = 25
)

// Settle delays.
const (
	ECMeasureTime   = 250 * time.Millisecond // until Connect picks a model delay
	ECDelayLong     = 750 * time.Millisecond // hardware version <= 2
	ECDelayShort    = 500 * time.Millisecond
	TempMeasureTime = 750 * time.Millisecond
	ResetSettle     = 10 * time.Millisecond

	longDelayMaxVersion = 2
)
