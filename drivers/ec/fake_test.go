package ec

import (
	"errors"
	"time"
)

// fakeProbe is a register-file model of the probe interface. Writes land at
// the selected register; single-byte reads walk forward from it. Commands
// written to the task register run immediately.
type fakeProbe struct {
	mem    [64]byte
	ptr    int
	absent bool
	failOn int // fail the nth Tx (1-based); 0 disables
	nTx    int

	eeprom   map[uint8]float32
	commands []byte
	txs      []tx
	// config byte observed when each command ran
	cfgAtCmd []ConfigBits
	// onMeasure is called for cmdMeasureEC.
	onMeasure func(p *fakeProbe)
}

type tx struct {
	w []byte
	r int
}

var errBus = errors.New("bus: nack")

func newFakeProbe(version byte) *fakeProbe {
	p := &fakeProbe{eeprom: map[uint8]float32{}}
	p.mem[regVersion] = version
	return p
}

func (p *fakeProbe) Tx(addr uint16, w, r []byte) error {
	p.nTx++
	p.txs = append(p.txs, tx{w: append([]byte(nil), w...), r: len(r)})
	if p.failOn != 0 && p.nTx == p.failOn {
		return errBus
	}
	if len(w) > 0 {
		p.ptr = int(w[0])
		if len(w) > 1 {
			if w[0] == regTask {
				p.run(w[1])
			} else {
				copy(p.mem[p.ptr:], w[1:])
			}
		}
	}
	for i := range r {
		if p.absent {
			r[i] = 0xFF
			continue
		}
		r[i] = p.mem[p.ptr]
		p.ptr++
	}
	return nil
}

func (p *fakeProbe) float(reg byte) float32  { return float32At(p.mem[reg:]) }
func (p *fakeProbe) set(reg byte, v float32) { putFloat32(p.mem[reg:reg+4], v) }
func (p *fakeProbe) config() ConfigBits      { return ConfigBits(p.mem[regConfig]) }
func (p *fakeProbe) setConfig(b ConfigBits)  { p.mem[regConfig] = byte(b) }

func (p *fakeProbe) run(op byte) {
	p.commands = append(p.commands, op)
	p.cfgAtCmd = append(p.cfgAtCmd, p.config())
	sol := p.float(regSolution)
	switch op {
	case cmdMeasureEC:
		if p.onMeasure != nil {
			p.onMeasure(p)
		}
	case cmdCalibrate:
		p.set(regCalOffset, sol)
	case cmdCalibrateLow:
		p.set(regCalRefLow, sol)
		p.set(regCalReadLow, sol)
	case cmdCalibrateHigh:
		p.set(regCalRefHigh, sol)
		p.set(regCalReadHigh, sol)
	case cmdReadEEPROM:
		p.set(regBuffer, p.eeprom[uint8(sol)])
	case cmdWriteEEPROM:
		p.eeprom[uint8(sol)] = p.float(regBuffer)
	}
}

type sleepRecorder struct{ slept []time.Duration }

func (s *sleepRecorder) sleep(d time.Duration) { s.slept = append(s.slept, d) }

func (s *sleepRecorder) total() time.Duration {
	var t time.Duration
	for _, d := range s.slept {
		t += d
	}
	return t
}

func newTestDevice(p *fakeProbe) (*Device, *sleepRecorder) {
	rec := &sleepRecorder{}
	cfg := DefaultConfig()
	cfg.Sleep = rec.sleep
	return New(p, cfg), rec
}
