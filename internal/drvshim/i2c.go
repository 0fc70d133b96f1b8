// Package drvshim adapts Linux host buses to the tinygo drivers interfaces
// so the same device drivers run on a Raspberry Pi and on a microcontroller.
package drvshim

import (
	"errors"

	"github.com/kidoman/embd"
)

// ErrAddress is returned for addresses outside the 7-bit range.
var ErrAddress = errors.New("drvshim: address out of range")

// Bus is the part of embd.I2CBus the shim drives.
type Bus interface {
	WriteBytes(addr byte, value []byte) error
	ReadBytes(addr byte, num int) ([]byte, error)
	Close() error
}

// I2C implements drivers.I2C on top of an embd bus. A transaction with both
// w and r is a write followed by a separate read; the probe interface does
// not need a repeated start.
type I2C struct {
	bus Bus
}

func New(bus Bus) *I2C { return &I2C{bus: bus} }

// Open returns the Linux I²C bus /dev/i2c-<n>. The caller must have imported
// an embd host (github.com/kidoman/embd/host/all).
func Open(n byte) *I2C { return New(embd.NewI2CBus(n)) }

func (c *I2C) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return ErrAddress
	}
	a := byte(addr)
	if len(w) > 0 {
		if err := c.bus.WriteBytes(a, w); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		b, err := c.bus.ReadBytes(a, len(r))
		if err != nil {
			return err
		}
		copy(r, b)
	}
	return nil
}

func (c *I2C) Close() error { return c.bus.Close() }
