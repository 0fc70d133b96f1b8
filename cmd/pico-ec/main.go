//go:build rp2040

// Firmware for a Pico with the probe interface on I2C0. The probe service is
// configured from the embedded "pico" config; UART0 carries the text
// command console ("ec 21.5" -> {"ec":1.41}).
package main

import (
	"context"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"ecprobe-go/bus"
	"ecprobe-go/drivers/ec"
	"ecprobe-go/services/config"
	"ecprobe-go/services/heartbeat"
	"ecprobe-go/services/probe"
	"ecprobe-go/types"
)

const (
	deviceID    = "pico"
	consoleBaud = 115200
	maxLine     = 64
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot")

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: 100 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		println("[main] i2c configure failed:", err.Error())
	}

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, deviceID)
	b := bus.NewBus(4)

	probe.New(ec.New(i2c, ec.DefaultConfig())).Start(ctx, b.NewConnection("probe"))
	heartbeat.New().Start(ctx, b.NewConnection("heartbeat"))
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	mon := b.NewConnection("ui")
	status := mon.Subscribe(bus.T("hal", "cap", "env", bus.SingleWild, bus.SingleWild, "status"))
	go func() {
		for m := range status.Channel() {
			if st, ok := m.Payload.(types.CapabilityStatus); ok {
				println("[main] status", string(st.Link), st.Error)
			}
		}
	}()

	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{
		BaudRate: consoleBaud,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	}); err != nil {
		println("[main] uart configure failed:", err.Error())
		select {}
	}
	console(ctx, u, b.NewConnection("console"))
}

// console reads newline-terminated commands from u and forwards them to the
// probe service, which owns the I²C device.
func console(ctx context.Context, u *uartx.UART, conn *bus.Connection) {
	ctrl := probe.CapCtrl(types.KindConductivity, probe.DefaultName, probe.VerbText)
	var (
		line [maxLine]byte
		n    int
		buf  [16]byte
	)
	for {
		k, err := u.RecvSomeContext(ctx, buf[:])
		if err != nil {
			println("[console] recv:", err.Error())
			return
		}
		for _, c := range buf[:k] {
			switch {
			case c == '\r' || c == '\n':
				if n > 0 {
					u.Write(append(request(ctx, conn, ctrl, string(line[:n])), '\n'))
					n = 0
				}
			case n < maxLine:
				line[n] = c
				n++
			}
		}
	}
}

func request(ctx context.Context, conn *bus.Connection, ctrl bus.Topic, line string) []byte {
	rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rep, err := conn.RequestWait(rctx, conn.NewMessage(ctrl, types.TextCommand{Line: line}, false))
	if err != nil {
		return []byte(`{"error":"timeout"}`)
	}
	switch p := rep.Payload.(type) {
	case types.TextReply:
		return []byte(p.Line)
	case types.ErrorReply:
		return []byte(`{"error":"` + p.Error + `"}`)
	}
	return []byte(`{"error":"error"}`)
}
