// Package ecsim simulates the EC probe interface at the I²C transaction
// level. It implements drivers.I2C so the real driver can run against it in
// tests and on hosts without hardware.
package ecsim

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
)

// Register and opcode numbers as seen on the wire.
const (
	regVersion     = 0
	regMS          = 1
	regTemp        = 5
	regSolution    = 9
	regTempCoef    = 13
	regCalRefHigh  = 17
	regCalRefLow   = 21
	regCalReadHigh = 25
	regCalReadLow  = 29
	regCalOffset   = 33
	regSalinity    = 37
	regRaw         = 41
	regTempConst   = 45
	regBuffer      = 49
	regFirmware    = 53
	regConfig      = 54
	regTask        = 55

	opMeasureEC   = 80
	opMeasureTemp = 40
	opCalibrate   = 20
	opCalLow      = 10
	opCalHigh     = 8
	opAddress     = 4
	opReadEEPROM  = 2
	opWriteEEPROM = 1

	cfgDualPoint = 1 << 0
	cfgTempComp  = 1 << 1

	// Counts per mS reported in the raw register.
	rawPerMS = 100
)

// ErrNoDevice is returned for transactions addressed elsewhere.
var ErrNoDevice = errors.New("ecsim: no device at address")

// Probe is a simulated probe interface. Exported fields describe the
// environment and may be changed between transactions under Lock/Unlock.
type Probe struct {
	mu sync.Mutex

	Address uint16
	// SolutionMS is the conductivity of the solution at 25 °C; zero means
	// the probe is dry.
	SolutionMS float32
	WaterTempC float32
	// NoSensor makes temperature measurements report -127.
	NoSensor bool

	mem    [64]byte
	ptr    int
	eeprom [256]float32
	log    []byte
}

// New returns a probe at addr with fresh calibration.
func New(addr uint16, version, firmware uint8) *Probe {
	p := &Probe{Address: addr, WaterTempC: 25}
	p.mem[regVersion] = version
	p.mem[regFirmware] = firmware
	for _, r := range []int{regCalOffset, regCalRefHigh, regCalRefLow, regCalReadHigh, regCalReadLow} {
		p.setF(r, float32(math.NaN()))
	}
	p.setF(regTempConst, 25)
	p.setF(regTempCoef, 0.019)
	p.setF(regTemp, 25)
	return p
}

func (p *Probe) Lock()   { p.mu.Lock() }
func (p *Probe) Unlock() { p.mu.Unlock() }

// Tx implements drivers.I2C.
func (p *Probe) Tx(addr uint16, w, r []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if addr != p.Address {
		return ErrNoDevice
	}
	if len(w) > 0 {
		p.ptr = int(w[0])
		if len(w) > 1 {
			if w[0] == regTask {
				p.run(w[1])
			} else if p.ptr+len(w)-1 <= len(p.mem) {
				copy(p.mem[p.ptr:], w[1:])
			}
		}
	}
	for i := range r {
		if p.ptr < len(p.mem) {
			r[i] = p.mem[p.ptr]
		} else {
			r[i] = 0xFF
		}
		p.ptr++
	}
	return nil
}

// Commands returns the opcodes executed so far.
func (p *Probe) Commands() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.log...)
}

// Float returns the value of a float register.
func (p *Probe) Float(reg int) float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.f(reg)
}

// Config returns the configuration byte.
func (p *Probe) Config() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mem[regConfig]
}

// EEPROM returns one scratch cell.
func (p *Probe) EEPROM(addr uint8) float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eeprom[addr]
}

func (p *Probe) f(reg int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(p.mem[reg:]))
}

func (p *Probe) setF(reg int, v float32) {
	binary.LittleEndian.PutUint32(p.mem[reg:], math.Float32bits(v))
}

func (p *Probe) run(op byte) {
	p.log = append(p.log, op)
	switch op {
	case opMeasureEC:
		p.measure()
	case opMeasureTemp:
		if p.NoSensor {
			p.setF(regTemp, -127)
		} else {
			p.setF(regTemp, p.WaterTempC)
		}
	case opCalibrate:
		p.setF(regCalOffset, p.f(regSolution))
	case opCalLow:
		p.setF(regCalRefLow, p.f(regSolution))
		p.setF(regCalReadLow, p.uncalibrated())
	case opCalHigh:
		p.setF(regCalRefHigh, p.f(regSolution))
		p.setF(regCalReadHigh, p.uncalibrated())
	case opAddress:
		p.Address = uint16(p.f(regSolution))
	case opReadEEPROM:
		p.setF(regBuffer, p.eeprom[uint8(p.f(regSolution))])
	case opWriteEEPROM:
		p.eeprom[uint8(p.f(regSolution))] = p.f(regBuffer)
	}
}

// uncalibrated is the conductivity the cell sees at the water temperature.
func (p *Probe) uncalibrated() float32 {
	coef := p.f(regTempCoef)
	if coef != coef {
		coef = 0.019
	}
	return p.SolutionMS * (1 + coef*(p.WaterTempC-25))
}

func (p *Probe) measure() {
	ms := p.uncalibrated()
	p.setF(regRaw, ms*rawPerMS)
	if ms <= 0 {
		p.setF(regMS, float32(math.NaN()))
		p.setF(regSalinity, -1)
		return
	}
	cfg := p.mem[regConfig]
	if cfg&cfgTempComp != 0 {
		coef := p.f(regTempCoef)
		ref := p.f(regTempConst)
		ms = ms / (1 + coef*(p.f(regTemp)-ref))
	}
	if cfg&cfgDualPoint != 0 {
		rl, rh := p.f(regCalRefLow), p.f(regCalRefHigh)
		ml, mh := p.f(regCalReadLow), p.f(regCalReadHigh)
		if mh != ml && rl == rl && rh == rh {
			ms = rl + (ms-ml)*(rh-rl)/(mh-ml)
		}
	}
	p.setF(regMS, ms)
	p.setF(regSalinity, salinityPSU(ms))
}

// salinityPSU is a linear approximation of PSS-78 near seawater
// conductivity, good enough for a simulator.
func salinityPSU(ms float32) float32 {
	return ms * 35 / 53.065
}
