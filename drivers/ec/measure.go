package ec

// MeasureEC measures conductivity using the default EC temperature
// coefficient. tempC is the solution temperature used for compensation.
func (d *Device) MeasureEC(tempC float32) (float32, error) {
	return d.MeasureECWith(tempC, TempCoefEC)
}

// MeasureECWith writes the compensation temperature and coefficient, enables
// compensation, triggers a measurement and returns mS. The full result is
// available from Measurement.
func (d *Device) MeasureECWith(tempC, coef float32) (float32, error) {
	if err := d.SetTemp(tempC); err != nil {
		return 0, err
	}
	if err := d.UseTemperatureCompensation(true); err != nil {
		return 0, err
	}
	if err := d.SetTempCoefficient(coef); err != nil {
		return 0, err
	}
	if err := d.command(cmdMeasureEC, d.ecDelay); err != nil {
		return 0, err
	}
	if err := d.Update(); err != nil {
		return 0, err
	}
	return d.last.MS, nil
}

// MeasureSalinity measures with the salinity coefficient and returns PSU.
func (d *Device) MeasureSalinity(tempC float32) (float32, error) {
	if _, err := d.MeasureECWith(tempC, TempCoefSalinity); err != nil {
		return 0, err
	}
	return d.last.SalinityPSU, nil
}

// MeasureRaw triggers an uncompensated measurement and returns the raw
// count.
func (d *Device) MeasureRaw() (float32, error) {
	if err := d.UseTemperatureCompensation(false); err != nil {
		return 0, err
	}
	if err := d.command(cmdMeasureEC, d.ecDelay); err != nil {
		return 0, err
	}
	if err := d.Update(); err != nil {
		return 0, err
	}
	return d.last.Raw, nil
}

// MeasureTemp asks the probe's sensor for a temperature and returns °C
// (TempFault if the sensor is missing).
func (d *Device) MeasureTemp() (float32, error) {
	if err := d.command(cmdMeasureTemp, TempMeasureTime); err != nil {
		return 0, err
	}
	c, err := d.readFloat(regTemp)
	if err != nil {
		return 0, err
	}
	d.last.setTemp(c)
	return c, nil
}

// SetTemp stores a compensation temperature without measuring.
func (d *Device) SetTemp(tempC float32) error {
	if err := d.writeFloat(regTemp, tempC); err != nil {
		return err
	}
	d.last.setTemp(tempC)
	return nil
}

// Update re-reads the measurement registers into the snapshot. A raw reading
// of zero means no usable probe signal and invalidates the electrical
// values.
func (d *Device) Update() error {
	var m Measurement
	raw, err := d.readFloat(regRaw)
	if err != nil {
		return err
	}
	m.Raw = raw

	mS := nan32()
	if raw != 0 {
		if mS, err = d.readFloat(regMS); err != nil {
			return err
		}
	}
	if m.derive(mS) {
		if m.SalinityPSU, err = d.readFloat(regSalinity); err != nil {
			return err
		}
	}

	c, err := d.readFloat(regTemp)
	if err != nil {
		return err
	}
	m.setTemp(c)
	d.last = m
	return nil
}

// Measurement returns the last snapshot.
func (d *Device) Measurement() Measurement { return d.last }
