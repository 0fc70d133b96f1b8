package ec

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"

	"ecprobe-go/x/mathx"
)

var ErrInvalidAddress = errors.New("ec: address must be in 1..127")

// Driver configuration.
type Config struct {
	Address uint16
	// Blocking makes command methods wait the settle delay before reading
	// results back. Non-blocking callers schedule their own reads.
	Blocking bool
	// Sleep is used for settle delays; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// DefaultConfig returns a blocking configuration at AddressDefault.
func DefaultConfig() Config {
	return Config{
		Address:  AddressDefault,
		Blocking: true,
		Sleep:    time.Sleep,
	}
}

func (c Config) Validate() error {
	if !validAddress(c.Address) {
		return ErrInvalidAddress
	}
	return nil
}

func validAddress(a uint16) bool { return mathx.Between(a, 1, 127) }

// Device represents one EC probe interface on an I²C bus. It is not safe for
// concurrent use; a single owner must serialise calls.
type Device struct {
	i2c      drivers.I2C
	addr     uint16
	blocking bool
	sleep    func(time.Duration)

	// EC settle delay, chosen from the hardware version on Connect.
	ecDelay time.Duration

	last Measurement

	// Fixed buffers to avoid per-call heap allocations.
	w [5]byte
	r [4]byte
}

// New constructs a Device with supplied config. It does not touch the bus.
func New(i2c drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = AddressDefault
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Device{
		i2c:      i2c,
		addr:     cfg.Address,
		blocking: cfg.Blocking,
		sleep:    cfg.Sleep,
		ecDelay:  ECMeasureTime,
		last:     invalidMeasurement(),
	}
}

// Connect probes the device at addr (0 keeps the current address) and picks
// the EC settle delay for its hardware revision. It reports whether the
// device answered.
func (d *Device) Connect(addr uint16) (bool, error) {
	if addr != 0 {
		if !validAddress(addr) {
			return false, ErrInvalidAddress
		}
		d.addr = addr
	}
	v, err := d.Version()
	if err != nil {
		return false, err
	}
	if v == VersionAbsent {
		return false, nil
	}
	if v <= longDelayMaxVersion {
		d.ecDelay = ECDelayLong
	} else {
		d.ecDelay = ECDelayShort
	}
	return true, nil
}

// Connected reports whether the device answers with a version byte. Bus
// errors count as not connected.
func (d *Device) Connected() bool {
	v, err := d.Version()
	return err == nil && v != VersionAbsent
}

// Version returns the hardware version byte (0xFF when absent).
func (d *Device) Version() (uint8, error) { return d.readByte(regVersion) }

// Firmware returns the firmware revision byte.
func (d *Device) Firmware() (uint8, error) { return d.readByte(regFirmware) }

func (d *Device) Address() uint16             { return d.addr }
func (d *Device) Blocking() bool              { return d.blocking }
func (d *Device) SetBlocking(b bool)          { d.blocking = b }
func (d *Device) MeasureDelay() time.Duration { return d.ecDelay }

// SetAddress moves the device to a new bus address. The device stores the
// address itself; the driver follows it once the command has been sent.
func (d *Device) SetAddress(addr uint16) error {
	if !validAddress(addr) {
		return ErrInvalidAddress
	}
	if err := d.writeFloat(regSolution, float32(addr)); err != nil {
		return err
	}
	if err := d.writeByte(regTask, cmdChangeAddress); err != nil {
		return err
	}
	d.addr = addr
	return nil
}
