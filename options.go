package as726x

import (
	"time"

	"github.com/go-logr/logr"
)

// An Option configures a device.
type Option func(d *Device) Option

// OnBus can be used to specify I²C bus name
// ("/dev/i2c-2", "I2C2", "2"). By default, the bus name is "", which selects
// the first available bus.
func OnBus(name string) Option {
	return func(d *Device) Option {
		old := d.busName
		d.busName = name
		return OnBus(old)
	}
}

// OnAddr can be used to specify alternative I²C address.
// By default, the address is 0x49.
func OnAddr(addr uint16) Option {
	return func(d *Device) Option {
		old := d.addr
		d.addr = addr
		return OnAddr(old)
	}
}

// WithLogger sets the logger used by the device.
func WithLogger(l logr.Logger) Option {
	return func(d *Device) Option {
		old := d.log
		d.log = l
		return WithLogger(old)
	}
}

// Illuminate turns on the driver LED during each measurement.
func Illuminate(on bool) Option {
	return func(d *Device) Option {
		old := d.illuminate
		d.illuminate = on
		return Illuminate(old)
	}
}

// Smoothing sets the number of measurements averaged by Average. A value of
// 1 or less disables smoothing. By default, 4 measurements are averaged.
func Smoothing(n int) Option {
	return func(d *Device) Option {
		old := d.smoothing
		d.smoothing = n
		for i := range d.avg {
			d.avg[i].n = n
			d.avg[i].reset()
		}
		return Smoothing(old)
	}
}

// PollEvery sets the interval between two data ready checks.
func PollEvery(interval time.Duration) Option {
	return func(d *Device) Option {
		old := d.poll
		d.poll = interval
		return PollEvery(old)
	}
}
