package ec

// Calibration commands take the solution conductivity at the measured
// temperature, rescale it to 25 °C with the device's stored coefficient and
// return the value the device recorded.

// CalibrateSingle performs single-point calibration and returns the stored
// offset. Dual-point mode is suspended for the duration of the command.
func (d *Device) CalibrateSingle(solutionMS, tempC float32) (float32, error) {
	dual, err := d.UsingDualPoint()
	if err != nil {
		return 0, err
	}
	if dual {
		if err := d.UseDualPoint(false); err != nil {
			return 0, err
		}
	}
	v, err := d.calibrate(cmdCalibrate, solutionMS, tempC, regCalOffset)
	if dual {
		if rerr := d.UseDualPoint(true); err == nil {
			err = rerr
		}
	}
	return v, err
}

// CalibrateLow records the low point of a dual-point calibration and returns
// the device's low reading.
func (d *Device) CalibrateLow(solutionMS, tempC float32) (float32, error) {
	return d.calibrate(cmdCalibrateLow, solutionMS, tempC, regCalReadLow)
}

// CalibrateHigh records the high point and returns the device's high reading.
func (d *Device) CalibrateHigh(solutionMS, tempC float32) (float32, error) {
	return d.calibrate(cmdCalibrateHigh, solutionMS, tempC, regCalReadHigh)
}

func (d *Device) calibrate(op byte, solutionMS, tempC float32, result byte) (float32, error) {
	coef, err := d.readFloat(regTempCoef)
	if err != nil {
		return 0, err
	}
	if isNaN(coef) {
		coef = TempCoefEC
	}
	if err := d.writeFloat(regSolution, toMS25(solutionMS, tempC, coef)); err != nil {
		return 0, err
	}
	if err := d.command(op, d.ecDelay); err != nil {
		return 0, err
	}
	return d.readFloat(result)
}

// SetDualPointCalibration writes all four dual-point slots directly.
func (d *Device) SetDualPointCalibration(refLow, refHigh, readLow, readHigh float32) error {
	for _, w := range [...]struct {
		reg byte
		v   float32
	}{
		{regCalRefLow, refLow},
		{regCalRefHigh, refHigh},
		{regCalReadLow, readLow},
		{regCalReadHigh, readHigh},
	} {
		if err := d.writeFloat(w.reg, w.v); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) SetCalibrateOffset(v float32) error { return d.writeFloat(regCalOffset, v) }

func (d *Device) CalibrateOffset() (float32, error) { return d.readFloat(regCalOffset) }
func (d *Device) LowReference() (float32, error)    { return d.readFloat(regCalRefLow) }
func (d *Device) HighReference() (float32, error)   { return d.readFloat(regCalRefHigh) }
func (d *Device) LowReading() (float32, error)      { return d.readFloat(regCalReadLow) }
func (d *Device) HighReading() (float32, error)     { return d.readFloat(regCalReadHigh) }

// ReadCalibration reads every calibration slot and both config flags.
func (d *Device) ReadCalibration() (Calibration, error) {
	var c Calibration
	var err error
	if c.Offset, err = d.CalibrateOffset(); err != nil {
		return c, err
	}
	if c.RefLow, err = d.LowReference(); err != nil {
		return c, err
	}
	if c.RefHigh, err = d.HighReference(); err != nil {
		return c, err
	}
	if c.ReadLow, err = d.LowReading(); err != nil {
		return c, err
	}
	if c.ReadHigh, err = d.HighReading(); err != nil {
		return c, err
	}
	b, err := d.Config()
	if err != nil {
		return c, err
	}
	c.DualPoint = b.Has(ConfigDualPoint)
	c.TempComp = b.Has(ConfigTempComp)
	return c, nil
}

// SetTempConstant sets the reference temperature compensation targets.
func (d *Device) SetTempConstant(c float32) error { return d.writeFloat(regTempConstant, c) }
func (d *Device) TempConstant() (float32, error)  { return d.readFloat(regTempConstant) }

// SetTempCoefficient sets the compensation coefficient (per °C).
func (d *Device) SetTempCoefficient(c float32) error { return d.writeFloat(regTempCoef, c) }
func (d *Device) TempCoefficient() (float32, error)  { return d.readFloat(regTempCoef) }

// Reset clears every calibration slot, restores compensation defaults and
// disables both config flags. Each write is given time to reach the device's
// EEPROM.
func (d *Device) Reset() error {
	steps := [...]func() error{
		func() error { return d.writeFloat(regCalOffset, nan32()) },
		func() error { return d.writeFloat(regCalRefHigh, nan32()) },
		func() error { return d.writeFloat(regCalRefLow, nan32()) },
		func() error { return d.writeFloat(regCalReadHigh, nan32()) },
		func() error { return d.writeFloat(regCalReadLow, nan32()) },
		func() error { return d.SetTempConstant(TempConstantRef) },
		func() error { return d.SetTempCoefficient(TempCoefEC) },
		func() error { return d.UseTemperatureCompensation(false) },
		func() error { return d.UseDualPoint(false) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
		d.sleep(ResetSettle)
	}
	return nil
}
