// Package textcmd answers short text commands ("ec 21.5", "eo 1.413") with
// one-key JSON objects. It is the line protocol used over serial consoles
// and other character transports.
package textcmd

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/google/shlex"

	"ecprobe-go/drivers/ec"
	"ecprobe-go/errcode"
	"ecprobe-go/x/mathx"
)

// Driver is the subset of *ec.Device the adapter uses.
type Driver interface {
	Connected() bool
	MeasureEC(tempC float32) (float32, error)
	MeasureTemp() (float32, error)
	TempConstant() (float32, error)
	SetTempConstant(float32) error
	TempCoefficient() (float32, error)
	SetTempCoefficient(float32) error
	CalibrateSingle(solutionMS, tempC float32) (float32, error)
	CalibrateLow(solutionMS, tempC float32) (float32, error)
	CalibrateHigh(solutionMS, tempC float32) (float32, error)
	CalibrateOffset() (float32, error)
	LowReference() (float32, error)
	LowReading() (float32, error)
	HighReference() (float32, error)
	HighReading() (float32, error)
	Reset() error
}

// Unset is the reply value for calibration slots that hold no data.
const Unset = "-"

type Processor struct {
	dev   Driver
	value float32
}

func New(dev Driver) *Processor { return &Processor{dev: dev, value: -1} }

// Value returns the number carried by the last reply, or -1 when the last
// command was unknown or carried no number.
func (p *Processor) Value() float32 { return p.value }

// Process runs one command line. Unknown commands return "".
func (p *Processor) Process(line string) string {
	toks, err := shlex.Split(line)
	if err != nil || len(toks) == 0 {
		p.value = -1
		return ""
	}
	cmd, arg := toks[0], ""
	if len(toks) > 1 {
		arg = toks[1]
	}

	var v any
	switch cmd {
	case "ec":
		v, err = p.measure(arg)
	case "etc":
		v, err = p.setGet(arg, p.dev.SetTempConstant, p.dev.TempConstant)
	case "eco":
		v, err = p.setGet(arg, p.dev.SetTempCoefficient, p.dev.TempCoefficient)
	case "ehrf":
		v, err = p.calibrate(arg, p.dev.CalibrateHigh, p.dev.HighReference)
	case "ehr":
		v, err = slot(p.dev.HighReading())
	case "elrf":
		v, err = p.calibrate(arg, p.dev.CalibrateLow, p.dev.LowReference)
	case "elr":
		v, err = slot(p.dev.LowReading())
	case "ecr":
		v, err = "ecr", p.dev.Reset()
	case "ecc":
		v = p.dev.Connected()
	case "eo":
		v, err = p.calibrate(arg, p.dev.CalibrateSingle, p.dev.CalibrateOffset)
	case "ect":
		c, merr := p.dev.MeasureTemp()
		v, err = slot(mathx.RoundTo(c, 2), merr)
	default:
		p.value = -1
		return ""
	}
	if err != nil {
		v = string(errcode.MapDriverErr(err))
	}

	p.value = -1
	if f, ok := v.(float32); ok {
		p.value = f
	}
	out, err := json.Marshal(map[string]any{cmd: v})
	if err != nil {
		p.value = -1
		out, _ = json.Marshal(map[string]string{cmd: string(errcode.Error)})
	}
	return string(out)
}

func (p *Processor) measure(arg string) (any, error) {
	tempC := ec.TempConstantRef
	if arg != "" {
		t, err := parseFloat(arg)
		if err != nil {
			return nil, err
		}
		tempC = t
	}
	ms, err := p.dev.MeasureEC(tempC)
	return slot(mathx.RoundTo(ms, 2), err)
}

func (p *Processor) setGet(arg string, set func(float32) error, get func() (float32, error)) (any, error) {
	if arg != "" {
		f, err := parseFloat(arg)
		if err != nil {
			return nil, err
		}
		if err := set(f); err != nil {
			return nil, err
		}
	}
	return slot(get())
}

// calibrate runs cal when a solution is given and replies with the stored
// slot. Solutions are taken at the 25 °C reference.
func (p *Processor) calibrate(arg string, cal func(solutionMS, tempC float32) (float32, error), get func() (float32, error)) (any, error) {
	if arg != "" {
		f, err := parseFloat(arg)
		if err != nil {
			return nil, err
		}
		if _, err := cal(f, ec.TempConstantRef); err != nil {
			return nil, err
		}
	}
	return slot(get())
}

// slot replies Unset for values that hold no number (NaN or infinite).
func slot(v float32, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
		return Unset, nil
	}
	return v, nil
}

// parseFloat accepts finite numbers only; "nan" and "inf" are rejected so
// they never reach a device register.
func parseFloat(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errcode.InvalidParams
	}
	return float32(f), nil
}
