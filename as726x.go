// Package as726x reads spectra from an AS726x spectral sensor. The
// low-level chip functions live in the as7262 package.
package as726x

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"

	"github.com/cgxeiji/as726x/as7262"
)

var (
	// ErrWrongDevice is thrown when trying to convert an as726x.Device to the
	// underlying chip and the device does not match.
	ErrWrongDevice = errors.New("wrong device")
	// ErrNotReady is thrown when a conversion does not finish before the
	// context is done.
	ErrNotReady = errors.New("data not ready")
)

// Device defines an AS726x device.
type Device struct {
	sensor sensor
	closer io.Closer
	readCh chan struct{}

	busName    string
	addr       uint16
	log        logr.Logger
	illuminate bool
	poll       time.Duration
	smoothing  int
	avg        [as7262.NumChannels]movingAverage

	// FWVersion is the firmware version reported by the device.
	FWVersion uint16
}

type sensor interface {
	Temperature() (physic.Temperature, error)
	FirmwareVersion() (uint16, error)
	StartMeasurement() error
	DataReady() (bool, error)
	ReadRawValues(buf []uint16, n int) error
	ReadCalibratedValues(buf []float32, n int) error
	DriverOn() error
	DriverOff() error
	Halt() error
}

// Spectrum is one measurement of all channels, in as7262.Color order.
type Spectrum struct {
	Raw        [as7262.NumChannels]uint16
	Calibrated [as7262.NumChannels]float32
}

func (s Spectrum) String() string {
	var b strings.Builder
	for i := range s.Calibrated {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%v(%v)=%.2f", as7262.Color(i), Wavelengths[i], s.Calibrated[i])
	}
	return b.String()
}

// New returns a new AS726x device on the first available I²C bus. Use OnBus
// and OnAddr to select another bus or address.
func New(options ...Option) (*Device, error) {
	d := newDevice(options...)

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("as726x: could not initialize host: %w", err)
	}

	bus, err := i2creg.Open(d.busName)
	if err != nil {
		return nil, fmt.Errorf("as726x: could not open I2C bus: %w", err)
	}

	opts := as7262.DefaultOpts
	opts.Logger = d.log
	chip, err := as7262.NewI2C(bus, d.addr, &opts)
	if err != nil {
		return nil, multierr.Append(
			fmt.Errorf("as726x: could not initialize device: %w", err),
			bus.Close(),
		)
	}

	if err := d.attach(chip, bus); err != nil {
		return nil, multierr.Append(err, bus.Close())
	}

	return d, nil
}

func newDevice(options ...Option) *Device {
	d := &Device{
		readCh:    make(chan struct{}, 1),
		log:       logr.Discard(),
		poll:      defaultPoll,
		smoothing: defaultSmoothing,
	}
	for i := range d.avg {
		d.avg[i].n = d.smoothing
	}
	for _, opt := range options {
		opt(d)
	}
	if d.log.GetSink() == nil {
		d.log = logr.Discard()
	}
	if d.poll <= 0 {
		d.poll = defaultPoll
	}
	d.readCh <- struct{}{}

	return d
}

// attach binds the device to an initialized chip.
func (d *Device) attach(s sensor, c io.Closer) error {
	d.sensor = s
	d.closer = c

	v, err := s.FirmwareVersion()
	if err != nil {
		return fmt.Errorf("as726x: could not get firmware version: %w", err)
	}
	d.FWVersion = v
	d.log.V(1).Info("attached", "firmware", fmt.Sprintf("%#04x", v))

	return nil
}

// Close turns off the LEDs and releases the bus. Calling Close again is a
// no-op.
func (d *Device) Close() error {
	<-d.readCh
	defer func() { d.readCh <- struct{}{} }()

	var err error
	if d.sensor != nil {
		err = multierr.Append(err, d.sensor.Halt())
		d.sensor = nil
	}
	if d.closer != nil {
		err = multierr.Append(err, d.closer.Close())
		d.closer = nil
	}
	return err
}

// Temperature returns the current temperature of the device.
func (d *Device) Temperature() (physic.Temperature, error) {
	return d.sensor.Temperature()
}

// Spectrum starts a one shot conversion, waits for it to finish and returns
// the raw and calibrated values of all channels. If ctx is done before the
// data is ready, the returned error wraps ErrNotReady.
func (d *Device) Spectrum(ctx context.Context) (Spectrum, error) {
	select {
	case <-d.readCh:
	case <-ctx.Done():
		return Spectrum{}, fmt.Errorf("as726x: could not get spectrum: %w", ctx.Err())
	}
	defer func() { d.readCh <- struct{}{} }()

	s, err := d.measure(ctx)
	if err != nil {
		return Spectrum{}, fmt.Errorf("as726x: could not get spectrum: %w", err)
	}

	for i, v := range s.Calibrated {
		d.avg[i].add(float64(v))
	}

	return s, nil
}

func (d *Device) measure(ctx context.Context) (s Spectrum, err error) {
	if d.illuminate {
		if err := d.sensor.DriverOn(); err != nil {
			return s, err
		}
		defer func() {
			err = multierr.Append(err, d.sensor.DriverOff())
		}()
	}

	if err := d.sensor.StartMeasurement(); err != nil {
		return s, err
	}
	if err := d.waitReady(ctx); err != nil {
		return s, err
	}

	if err := d.sensor.ReadRawValues(s.Raw[:], as7262.NumChannels); err != nil {
		return s, err
	}
	if err := d.sensor.ReadCalibratedValues(s.Calibrated[:], as7262.NumChannels); err != nil {
		return s, err
	}

	return s, nil
}

func (d *Device) waitReady(ctx context.Context) error {
	t := time.NewTicker(d.poll)
	defer t.Stop()

	for {
		ready, err := d.sensor.DataReady()
		if err != nil {
			return err
		}
		if ready {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrNotReady, ctx.Err())
		case <-t.C:
		}
	}
}

// Average returns the moving average of the calibrated values of the last
// spectra, as set by Smoothing.
func (d *Device) Average() [as7262.NumChannels]float64 {
	<-d.readCh
	defer func() { d.readCh <- struct{}{} }()

	var a [as7262.NumChannels]float64
	for i := range d.avg {
		a[i] = d.avg[i].mean
	}
	return a
}

// ResetAverage clears the moving average.
func (d *Device) ResetAverage() {
	<-d.readCh
	defer func() { d.readCh <- struct{}{} }()

	for i := range d.avg {
		d.avg[i].reset()
	}
}

// ToAS7262 converts an as726x device to an as7262 device to access low level
// functions. Check the package as726x/as7262 for detailed behavior.
func (d *Device) ToAS7262() (*as7262.Device, error) {
	device, ok := d.sensor.(*as7262.Device)
	if !ok {
		return nil, ErrWrongDevice
	}

	return device, nil
}
