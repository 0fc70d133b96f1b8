package ec

// ConfigBits mirrors the device configuration byte.
type ConfigBits uint8

const (
	ConfigDualPoint ConfigBits = 1 << 0
	ConfigTempComp  ConfigBits = 1 << 1
)

func (b ConfigBits) Has(f ConfigBits) bool { return b&f != 0 }

// With returns b with f set or cleared.
func (b ConfigBits) With(f ConfigBits, on bool) ConfigBits {
	if on {
		return b | f
	}
	return b &^ f
}

// Config reads the configuration byte.
func (d *Device) Config() (ConfigBits, error) {
	v, err := d.readByte(regConfig)
	return ConfigBits(v), err
}

// modifyConfig performs a read-modify-write of the configuration byte so
// that only the flag being changed is touched.
func (d *Device) modifyConfig(f ConfigBits, on bool) error {
	cur, err := d.Config()
	if err != nil {
		return err
	}
	next := cur.With(f, on)
	if next == cur {
		return nil
	}
	return d.writeByte(regConfig, byte(next))
}

func (d *Device) UseTemperatureCompensation(on bool) error {
	return d.modifyConfig(ConfigTempComp, on)
}

func (d *Device) UsingTemperatureCompensation() (bool, error) {
	b, err := d.Config()
	return b.Has(ConfigTempComp), err
}

func (d *Device) UseDualPoint(on bool) error {
	return d.modifyConfig(ConfigDualPoint, on)
}

func (d *Device) UsingDualPoint() (bool, error) {
	b, err := d.Config()
	return b.Has(ConfigDualPoint), err
}
