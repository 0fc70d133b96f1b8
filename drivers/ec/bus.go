package ec

import "time"

// Register access. Float reads select the register and then fetch each byte
// in its own transaction; the device does not support a 4-byte burst read.

func (d *Device) writeFloat(reg byte, v float32) error {
	d.w[0] = reg
	putFloat32(d.w[1:5], v)
	return d.i2c.Tx(d.addr, d.w[:5], nil)
}

func (d *Device) readFloat(reg byte) (float32, error) {
	d.w[0] = reg
	if err := d.i2c.Tx(d.addr, d.w[:1], nil); err != nil {
		return 0, err
	}
	for i := 0; i < 4; i++ {
		if err := d.i2c.Tx(d.addr, nil, d.r[i:i+1]); err != nil {
			return 0, err
		}
	}
	return float32At(d.r[:4]), nil
}

func (d *Device) writeByte(reg, val byte) error {
	d.w[0] = reg
	d.w[1] = val
	return d.i2c.Tx(d.addr, d.w[:2], nil)
}

func (d *Device) readByte(reg byte) (byte, error) {
	d.w[0] = reg
	if err := d.i2c.Tx(d.addr, d.w[:1], nil); err != nil {
		return 0, err
	}
	if err := d.i2c.Tx(d.addr, nil, d.r[:1]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

// command writes an opcode to the task register and, when blocking, waits
// for the device to finish.
func (d *Device) command(op byte, settle time.Duration) error {
	if err := d.writeByte(regTask, op); err != nil {
		return err
	}
	if d.blocking {
		d.sleep(settle)
	}
	return nil
}
