package as7262

import "fmt"

// Option defines a functional option for the device.
type Option func(d *Device) (Option, error)

// Options set different configuration options and returns the previous value
// of the last option passed.
func (d *Device) Options(options ...Option) (Option, error) {
	var old Option
	var err error
	for _, opt := range options {
		old, err = opt(d)
		if err != nil {
			return nil, err
		}
	}

	return old, nil
}

// Conversion sets the conversion mode of the device.
func Conversion(mode ConversionMode) Option {
	return func(d *Device) (Option, error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		old := d.cs.mode
		if err := d.setMode(mode); err != nil {
			return nil, fmt.Errorf("as7262: could not configure conversion mode to %v: %w", mode, err)
		}

		return Conversion(old), nil
	}
}

// ChannelGain sets the gain of all channels.
func ChannelGain(gain Gain) Option {
	return func(d *Device) (Option, error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		old := d.cs.gain
		if err := d.setGain(gain); err != nil {
			return nil, fmt.Errorf("as7262: could not configure gain to %v: %w", gain, err)
		}

		return ChannelGain(old), nil
	}
}

// Integration sets the integration time in ticks of 2.8ms.
func Integration(ticks byte) Option {
	return func(d *Device) (Option, error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		old := d.intT
		if err := d.writeIntTime(ticks); err != nil {
			return nil, fmt.Errorf("as7262: could not configure integration time to %d: %w", ticks, err)
		}

		return Integration(old), nil
	}
}

// Interrupt enables or disables the interrupt pin.
func Interrupt(on bool) Option {
	return func(d *Device) (Option, error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		old := d.cs.interrupt
		if err := d.setInterrupt(on); err != nil {
			return nil, fmt.Errorf("as7262: could not configure interrupt to %v: %w", on, err)
		}

		return Interrupt(old), nil
	}
}

// Indicator turns the indicator LED on or off.
func Indicator(on bool) Option {
	return func(d *Device) (Option, error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		old := d.led.indicator
		if err := d.setIndicator(on); err != nil {
			return nil, fmt.Errorf("as7262: could not configure indicator LED to %v: %w", on, err)
		}

		return Indicator(old), nil
	}
}

// IndicatorLimit sets the current limit of the indicator LED.
func IndicatorLimit(current IndicatorCurrent) Option {
	return func(d *Device) (Option, error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		old := d.led.indicatorCurrent
		if err := d.setIndicatorCurrent(current); err != nil {
			return nil, fmt.Errorf("as7262: could not configure indicator current to %v: %w", current, err)
		}

		return IndicatorLimit(old), nil
	}
}

// Driver turns the driver LED on or off.
func Driver(on bool) Option {
	return func(d *Device) (Option, error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		old := d.led.driver
		if err := d.setDriver(on); err != nil {
			return nil, fmt.Errorf("as7262: could not configure driver LED to %v: %w", on, err)
		}

		return Driver(old), nil
	}
}

// DriverLimit sets the current limit of the driver LED.
func DriverLimit(current DriverCurrent) Option {
	return func(d *Device) (Option, error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		old := d.led.driverCurrent
		if err := d.setDriverCurrent(current); err != nil {
			return nil, fmt.Errorf("as7262: could not configure driver current to %v: %w", current, err)
		}

		return DriverLimit(old), nil
	}
}
