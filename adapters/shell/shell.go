// Package shell is the interactive operator console for a probe: status
// dumps, calibration, compensation settings, address changes and EEPROM
// access. Lines it does not recognise are passed to the text command
// adapter.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/google/shlex"

	"ecprobe-go/adapters/textcmd"
	"ecprobe-go/drivers/ec"
	"ecprobe-go/errcode"
	"ecprobe-go/x/mathx"
)

// Driver is the subset of *ec.Device the shell uses.
type Driver interface {
	textcmd.Driver
	Version() (uint8, error)
	Firmware() (uint8, error)
	Blocking() bool
	SetBlocking(bool)
	SetTemp(tempC float32) error
	MeasureSalinity(tempC float32) (float32, error)
	MeasureRaw() (float32, error)
	Measurement() ec.Measurement
	ReadCalibration() (ec.Calibration, error)
	UseTemperatureCompensation(bool) error
	UsingTemperatureCompensation() (bool, error)
	UseDualPoint(bool) error
	UsingDualPoint() (bool, error)
	SetAddress(uint16) error
	ReadEEPROM(addr uint8) (float32, error)
	WriteEEPROM(addr uint8, v float32) error
}

// sigDigits is the precision used when printing readings.
const sigDigits = 7

type command struct {
	help string
	run  func(s *Shell, args []string) error
}

type Shell struct {
	dev  Driver
	out  io.Writer
	json *textcmd.Processor
}

func New(dev Driver, out io.Writer) *Shell {
	return &Shell{dev: dev, out: out, json: textcmd.New(dev)}
}

// Run reads lines from in until EOF or "exit".
func (s *Shell) Run(in io.Reader) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for sc.Scan() {
		if sc.Text() == "exit" {
			return nil
		}
		s.Exec(sc.Text())
		fmt.Fprint(s.out, "> ")
	}
	return sc.Err()
}

// Exec runs one line and prints its result.
func (s *Shell) Exec(line string) {
	args, err := shlex.Split(line)
	if err != nil {
		fmt.Fprintln(s.out, "error:", err)
		return
	}
	if len(args) == 0 {
		return
	}
	c, ok := commands[args[0]]
	if !ok {
		if reply := s.json.Process(line); reply != "" {
			fmt.Fprintln(s.out, reply)
			return
		}
		fmt.Fprintf(s.out, "unknown command %q (try help)\n", args[0])
		return
	}
	if err := c.run(s, args[1:]); err != nil {
		fmt.Fprintln(s.out, "error:", errcode.MapDriverErr(err))
	}
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"config":   {"prints all configuration data", (*Shell).config},
		"reset":    {"resets all saved calibration values", (*Shell).reset},
		"temp":     {"measures temperature, or sets it: temp [C]", (*Shell).temp},
		"raw":      {"uncompensated measurement", (*Shell).raw},
		"ec":       {"measures conductivity: ec [C]", (*Shell).ec},
		"tc":       {"temperature compensation: tc [0|1 [constant]]", (*Shell).tc},
		"low":      {"low calibration point: low [solution mS]", (*Shell).low},
		"high":     {"high calibration point: high [solution mS]", (*Shell).high},
		"sal":      {"measures salinity: sal [C]", (*Shell).sal},
		"dp":       {"dual point calibration: dp [0|1]", (*Shell).dp},
		"cal":      {"single point calibration: cal [solution mS]", (*Shell).cal},
		"data":     {"prints the last measurement", (*Shell).data},
		"version":  {"prints hardware and firmware version", (*Shell).version},
		"i2c":      {"changes the bus address: i2c <addr>", (*Shell).i2c},
		"read":     {"reads an EEPROM cell: read <addr>", (*Shell).read},
		"write":    {"writes an EEPROM cell: write <addr> <value>", (*Shell).write},
		"blocking": {"waits for measurements: blocking [0|1]", (*Shell).blocking},
		"help":     {"lists commands", (*Shell).help},
	}
}

func (s *Shell) help([]string) error {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(s.out, "%-9s %s\n", n, commands[n].help)
	}
	return nil
}

func (s *Shell) config([]string) error {
	state := "**disconnected**"
	if s.dev.Connected() {
		state = "connected"
	}
	fmt.Fprintln(s.out, "EC Interface Config:", state)
	c, err := s.dev.ReadCalibration()
	if err != nil {
		return err
	}
	tc, err := s.dev.TempConstant()
	if err != nil {
		return err
	}
	coef, err := s.dev.TempCoefficient()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "calibration:")
	fmt.Fprintln(s.out, "\toffset:", num(c.Offset))
	fmt.Fprintln(s.out, "\tdual point:", c.DualPoint)
	fmt.Fprintln(s.out, "\tlow reference / read:", num(c.RefLow), "/", num(c.ReadLow))
	fmt.Fprintln(s.out, "\thigh reference / reading:", num(c.RefHigh), "/", num(c.ReadHigh))
	fmt.Fprintln(s.out, "\ttemp. compensation:", c.TempComp)
	fmt.Fprintln(s.out, "\t\tconstant:", num(tc))
	fmt.Fprintln(s.out, "\t\tcoefficient:", num(coef))
	fmt.Fprintln(s.out, "\tblocking:", s.dev.Blocking())
	return s.version(nil)
}

func (s *Shell) reset([]string) error {
	if err := s.dev.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "reset")
	return nil
}

func (s *Shell) temp(args []string) error {
	if len(args) > 0 {
		c, err := parseFloat(args[0])
		if err != nil {
			return err
		}
		if err := s.dev.SetTemp(c); err != nil {
			return err
		}
	} else if _, err := s.dev.MeasureTemp(); err != nil {
		return err
	}
	m := s.dev.Measurement()
	fmt.Fprintln(s.out, "C/F:", num(m.TempC), "/", num(m.TempF))
	return nil
}

func (s *Shell) raw([]string) error {
	r, err := s.dev.MeasureRaw()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "raw:", num(r))
	return nil
}

func (s *Shell) ec(args []string) error {
	t, err := optTemp(args)
	if err != nil {
		return err
	}
	ms, err := s.dev.MeasureEC(t)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "mS:", num(ms))
	return nil
}

func (s *Shell) sal(args []string) error {
	t, err := optTemp(args)
	if err != nil {
		return err
	}
	psu, err := s.dev.MeasureSalinity(t)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "salinity PSU:", num(psu))
	return nil
}

func (s *Shell) tc(args []string) error {
	if len(args) >= 1 {
		on, err := parseBool(args[0])
		if err != nil {
			return err
		}
		if err := s.dev.UseTemperatureCompensation(on); err != nil {
			return err
		}
	}
	if len(args) >= 2 {
		c, err := parseFloat(args[1])
		if err != nil {
			return err
		}
		if err := s.dev.SetTempConstant(c); err != nil {
			return err
		}
	}
	on, err := s.dev.UsingTemperatureCompensation()
	if err != nil {
		return err
	}
	c, err := s.dev.TempConstant()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "\ttemp. compensation:", on)
	fmt.Fprintln(s.out, "\t\tconstant:", num(c))
	return nil
}

func (s *Shell) low(args []string) error {
	if len(args) > 0 {
		ms, err := parseFloat(args[0])
		if err != nil {
			return err
		}
		if _, err := s.dev.CalibrateLow(ms, ec.TempConstantRef); err != nil {
			return err
		}
	}
	c, err := s.dev.ReadCalibration()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "\tlow reference / read:", num(c.RefLow), "/", num(c.ReadLow))
	return nil
}

func (s *Shell) high(args []string) error {
	if len(args) > 0 {
		ms, err := parseFloat(args[0])
		if err != nil {
			return err
		}
		if _, err := s.dev.CalibrateHigh(ms, ec.TempConstantRef); err != nil {
			return err
		}
	}
	c, err := s.dev.ReadCalibration()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "\thigh reference / reading:", num(c.RefHigh), "/", num(c.ReadHigh))
	return nil
}

func (s *Shell) dp(args []string) error {
	if len(args) > 0 {
		on, err := parseBool(args[0])
		if err != nil {
			return err
		}
		if err := s.dev.UseDualPoint(on); err != nil {
			return err
		}
	}
	on, err := s.dev.UsingDualPoint()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "\tdual point:", on)
	return nil
}

func (s *Shell) cal(args []string) error {
	if len(args) > 0 {
		ms, err := parseFloat(args[0])
		if err != nil {
			return err
		}
		if _, err := s.dev.CalibrateSingle(ms, ec.TempConstantRef); err != nil {
			return err
		}
	}
	off, err := s.dev.CalibrateOffset()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "offset:", num(off))
	return nil
}

func (s *Shell) data([]string) error {
	m := s.dev.Measurement()
	fmt.Fprintln(s.out, "raw:", num(m.Raw))
	fmt.Fprintln(s.out, "S:", num(m.S))
	fmt.Fprintln(s.out, "mS:", num(m.MS))
	fmt.Fprintln(s.out, "uS:", num(m.US))
	fmt.Fprintln(s.out, "TDS 500 | 640 | 700:", num(m.PPM500), "|", num(m.PPM640), "|", num(m.PPM700))
	fmt.Fprintln(s.out, "salinity PSU:", num(m.SalinityPSU))
	fmt.Fprintln(s.out, "C/F:", num(m.TempC), "/", num(m.TempF))
	return nil
}

func (s *Shell) version([]string) error {
	v, err := s.dev.Version()
	if err != nil {
		return err
	}
	fw, err := s.dev.Firmware()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "\tversion: %d.%d\n", v, fw)
	return nil
}

func (s *Shell) i2c(args []string) error {
	if len(args) < 1 {
		return errcode.InvalidParams
	}
	a, err := strconv.ParseUint(args[0], 0, 16)
	if err != nil {
		return errcode.InvalidParams
	}
	if err := s.dev.SetAddress(uint16(a)); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "address: 0x%02x\n", a)
	return nil
}

func (s *Shell) read(args []string) error {
	if len(args) < 1 {
		return errcode.InvalidParams
	}
	addr, err := parseCell(args[0])
	if err != nil {
		return err
	}
	v, err := s.dev.ReadEEPROM(addr)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, num(v))
	return nil
}

func (s *Shell) write(args []string) error {
	if len(args) < 2 {
		return errcode.InvalidParams
	}
	addr, err := parseCell(args[0])
	if err != nil {
		return err
	}
	v, err := parseFloat(args[1])
	if err != nil {
		return err
	}
	return s.dev.WriteEEPROM(addr, v)
}

func (s *Shell) blocking(args []string) error {
	if len(args) > 0 {
		on, err := parseBool(args[0])
		if err != nil {
			return err
		}
		s.dev.SetBlocking(on)
	}
	fmt.Fprintln(s.out, "blocking:", s.dev.Blocking())
	return nil
}

// ---- parsing and formatting ----

// num prints a reading rounded to sigDigits significant digits.
func num(v float32) string {
	if v != v {
		return "nan"
	}
	return strconv.FormatFloat(float64(mathx.RoundSig(v, sigDigits)), 'g', -1, 32)
}

func optTemp(args []string) (float32, error) {
	if len(args) == 0 {
		return ec.TempConstantRef, nil
	}
	return parseFloat(args[0])
}

func parseFloat(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errcode.InvalidParams
	}
	return float32(f), nil
}

func parseBool(s string) (bool, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, errcode.InvalidParams
	}
	return b, nil
}

func parseCell(s string) (uint8, error) {
	a, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, errcode.InvalidParams
	}
	return uint8(a), nil
}
