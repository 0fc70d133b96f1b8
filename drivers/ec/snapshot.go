package ec

// Measurement is the last set of values read back from the device.
// Electrical quantities are Invalid (-1) when the probe reading was unusable;
// TempF mirrors TempFault when the temperature sensor failed.
type Measurement struct {
	Raw         float32
	MS          float32
	US          float32
	S           float32
	PPM500      float32
	PPM640      float32
	PPM700      float32
	SalinityPSU float32
	TempC       float32
	TempF       float32
}

func invalidMeasurement() Measurement {
	return Measurement{
		MS:          Invalid,
		US:          Invalid,
		S:           Invalid,
		PPM500:      Invalid,
		PPM640:      Invalid,
		PPM700:      Invalid,
		SalinityPSU: Invalid,
		TempC:       TempFault,
		TempF:       TempFault,
	}
}

// derive fills the conductivity-derived fields from mS. A NaN mS marks the
// whole electrical group invalid; salinity is filled by the caller.
func (m *Measurement) derive(mS float32) bool {
	if isNaN(mS) {
		m.MS, m.US, m.S = Invalid, Invalid, Invalid
		m.PPM500, m.PPM640, m.PPM700 = Invalid, Invalid, Invalid
		m.SalinityPSU = Invalid
		return false
	}
	m.MS = mS
	m.US = mS * 1000
	m.S = mS / 1000
	m.PPM500 = mS * 500
	m.PPM640 = mS * 640
	m.PPM700 = mS * 700
	return true
}

func (m *Measurement) setTemp(c float32) {
	m.TempC = c
	if c == TempFault {
		m.TempF = TempFault
		return
	}
	m.TempF = c*9/5 + 32
}

// Calibration holds the five calibration slots. NaN means unset.
type Calibration struct {
	Offset    float32
	RefLow    float32
	RefHigh   float32
	ReadLow   float32
	ReadHigh  float32
	DualPoint bool
	TempComp  bool
}
