// Command ecshell drives an EC probe from a Linux host. By default it runs
// the interactive shell on stdin. -serve runs the probe service with a
// Prometheus endpoint; -ble exposes the probe as a BLE peripheral.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/kidoman/embd/host/all"
	"tinygo.org/x/bluetooth"
	"tinygo.org/x/drivers"

	"ecprobe-go/adapters/ble"
	"ecprobe-go/adapters/shell"
	"ecprobe-go/bus"
	"ecprobe-go/drivers/ec"
	"ecprobe-go/drivers/ec/ecsim"
	"ecprobe-go/internal/drvshim"
	"ecprobe-go/services/exporter"
	"ecprobe-go/services/heartbeat"
	"ecprobe-go/services/probe"
	"ecprobe-go/types"
)

var (
	busNum   = flag.Int("bus", 1, "I²C bus number (/dev/i2c-N)")
	addr     = flag.Uint("addr", ec.AddressDefault, "probe I²C address")
	blocking = flag.Bool("blocking", true, "wait for measurements to complete")
	sim      = flag.Bool("sim", false, "use a simulated probe instead of hardware")
	serve    = flag.Bool("serve", false, "run the probe service and metrics endpoint")
	bleMode  = flag.Bool("ble", false, "advertise the probe as a BLE peripheral")
	interval = flag.Duration("interval", 2*time.Second, "poll interval for -serve and -ble")
	metrics  = flag.String("metrics", ":9105", "metrics listen address for -serve")
	name     = flag.String("name", "probe0", "probe name used in topics and metrics")
)

func main() {
	flag.Parse()
	if *serve && *bleMode {
		log.Fatal("-serve and -ble are exclusive")
	}

	i2c, closeBus := openBus()
	defer closeBus()

	cfg := ec.DefaultConfig()
	cfg.Address = uint16(*addr)
	cfg.Blocking = *blocking
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	dev := ec.New(i2c, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *serve:
		runService(ctx, dev)
	case *bleMode:
		runBLE(ctx, dev)
	default:
		if ok, err := dev.Connect(cfg.Address); err != nil || !ok {
			log.Printf("no probe at 0x%02x (err=%v)", cfg.Address, err)
		}
		if err := shell.New(dev, os.Stdout).Run(os.Stdin); err != nil {
			log.Fatal(err)
		}
	}
}

func openBus() (drivers.I2C, func()) {
	if *sim {
		p := ecsim.New(uint16(*addr), 3, 1)
		p.SolutionMS = 1.413
		p.WaterTempC = 22.5
		log.Printf("using simulated probe at 0x%02x", *addr)
		return p, func() {}
	}
	b := drvshim.Open(byte(*busNum))
	return b, func() {
		if err := b.Close(); err != nil {
			log.Printf("close i2c: %v", err)
		}
	}
}

func runService(ctx context.Context, dev *ec.Device) {
	b := bus.NewBus(16)
	probe.New(dev).Start(ctx, b.NewConnection("probe"))

	heartbeat.New().Start(ctx, b.NewConnection("heartbeat"))

	exp := exporter.New()
	exp.Start(ctx, b.NewConnection("exporter"))

	blk := *blocking
	conn := b.NewConnection("main")
	conn.Publish(conn.NewMessage(bus.T("config", "probe"), types.ProbeConfig{
		Name:         *name,
		Address:      uint16(*addr),
		IntervalMs:   int(interval.Milliseconds()),
		Blocking:     &blk,
		UseProbeTemp: true,
		TempC:        ec.TempConstantRef,
		Coefficient:  ec.TempCoefEC,
	}, true))

	mux := http.NewServeMux()
	mux.Handle("/metrics", exp.Handler())
	srv := &http.Server{Addr: *metrics, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	log.Printf("serving metrics on %s", *metrics)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func runBLE(ctx context.Context, dev *ec.Device) {
	if ok, err := dev.Connect(uint16(*addr)); err != nil || !ok {
		log.Fatalf("no probe at 0x%02x (err=%v)", *addr, err)
	}
	s := ble.New(dev)
	if err := s.Refresh(); err != nil {
		log.Printf("initial refresh: %v", err)
	}
	if err := ble.Start(bluetooth.DefaultAdapter, s); err != nil {
		log.Fatal(err)
	}
	log.Printf("advertising as %q", ble.LocalName)
	s.Run(ctx, *interval)
}
