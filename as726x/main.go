package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-logr/stdr"

	"github.com/cgxeiji/as726x"
	"github.com/cgxeiji/as726x/as7262"
)

type config struct {
	bus         string
	addr        uint
	led         bool
	gain        uint
	integration uint
	n           int
}

// check rejects values that do not fit the chip registers.
func (c config) check() error {
	if c.addr > 0x7F {
		return fmt.Errorf("address %#x is not a 7-bit I2C address", c.addr)
	}
	if c.gain > uint(as7262.Gain64X) {
		return fmt.Errorf("gain %d out of range [0, %d]", c.gain, as7262.Gain64X)
	}
	if c.integration > 0xFF {
		return fmt.Errorf("integration time %d out of range [0, 255]", c.integration)
	}
	if c.n < 0 {
		return fmt.Errorf("number of spectra %d is negative", c.n)
	}
	return nil
}

func main() {
	var cfg config
	flag.StringVar(&cfg.bus, "b", "", "I2C bus to use (\"/dev/i2c-1\", \"I2C1\", \"1\")")
	flag.UintVar(&cfg.addr, "a", as7262.Addr, "I2C address of the sensor")
	flag.BoolVar(&cfg.led, "led", false, "turn on the driver LED while measuring")
	flag.UintVar(&cfg.gain, "gain", uint(as7262.Gain64X), "channel gain (0: 1x, 1: 3.7x, 2: 16x, 3: 64x)")
	flag.UintVar(&cfg.integration, "t", 50, "integration time in ticks of 2.8ms (0-255)")
	flag.IntVar(&cfg.n, "n", 0, "number of spectra to read (0: forever)")
	v := flag.Int("v", 0, "log verbosity")
	flag.Parse()

	if err := cfg.check(); err != nil {
		log.Fatal(err)
	}

	stdr.SetVerbosity(*v)
	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags))

	sensor, err := as726x.New(
		as726x.OnBus(cfg.bus),
		as726x.OnAddr(uint16(cfg.addr)),
		as726x.WithLogger(logger),
		as726x.Illuminate(cfg.led),
	)
	if err != nil {
		log.Fatal(err)
	}

	err = run(sensor, cfg)
	if cerr := sensor.Close(); cerr != nil {
		log.Print(cerr)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func run(sensor *as726x.Device, cfg config) error {
	chip, err := sensor.ToAS7262()
	if err != nil {
		return err
	}
	if _, err := chip.Options(
		as7262.ChannelGain(as7262.Gain(cfg.gain)),
		as7262.Integration(byte(cfg.integration)),
	); err != nil {
		return err
	}

	settings := chip.Settings()
	fmt.Printf("AS7262 fw.%#04x detected (gain %v, integration %v)\n",
		sensor.FWVersion, settings.Gain, settings.IntegrationTime())

	t := time.NewTicker(500 * time.Millisecond)
	defer t.Stop()

	for i := 0; cfg.n == 0 || i < cfg.n; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*settings.IntegrationTime()+time.Second)
		s, err := sensor.Spectrum(ctx)
		cancel()
		if err != nil {
			log.Printf("read error: %v", err)
		} else {
			temp, err := sensor.Temperature()
			if err != nil {
				log.Printf("temperature error: %v", err)
			}
			fmt.Printf("temp = %v %v\n", temp, s)
		}
		<-t.C
	}
	return nil
}
