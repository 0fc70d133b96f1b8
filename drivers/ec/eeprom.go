package ec

// The device exposes a small bank of EEPROM float cells. The cell address is
// passed through the solution register and data through the buffer register.

func (d *Device) ReadEEPROM(addr uint8) (float32, error) {
	if err := d.writeFloat(regSolution, float32(addr)); err != nil {
		return 0, err
	}
	if err := d.writeByte(regTask, cmdReadEEPROM); err != nil {
		return 0, err
	}
	return d.readFloat(regBuffer)
}

func (d *Device) WriteEEPROM(addr uint8, v float32) error {
	if err := d.writeFloat(regSolution, float32(addr)); err != nil {
		return err
	}
	if err := d.writeFloat(regBuffer, v); err != nil {
		return err
	}
	return d.writeByte(regTask, cmdWriteEEPROM)
}
