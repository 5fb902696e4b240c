// Package as7262 drives the AS7262 6-channel visible spectral sensor over
// I²C.
//
// The chip hides its registers behind three physical registers (status,
// write and read). Every access to a virtual register polls the status
// register before each phase, so a single Device must never be shared by
// two goroutines without going through its methods, which serialize all
// transactions.
package as7262

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"periph.io/x/periph/conn"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/physic"
)

var (
	// ErrNotDevice is returned when the hardware version does not match an
	// AS7262 signature (0x40).
	ErrNotDevice = errors.New("as7262: hardware version does not match (0x40)")
	// ErrTimeout is returned when the device does not update its status
	// register within Opts.Timeout.
	ErrTimeout = errors.New("as7262: device unresponsive")
)

// Opts holds the bring-up parameters of the device.
type Opts struct {
	// BootDelay is the wait after the reset pulse. It must cover the device
	// boot time.
	BootDelay time.Duration
	// Timeout bounds each status poll. 0 polls forever.
	Timeout time.Duration
	// PollInterval is the pause between two status reads.
	PollInterval time.Duration
	// Logger receives bring-up and diagnostic messages.
	Logger logr.Logger
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	BootDelay: time.Second,
	Timeout:   time.Second,
}

// Device defines an AS7262 device.
type Device struct {
	t    Transport
	opts Opts
	log  logr.Logger

	mu   sync.Mutex
	cs   controlSetup
	intT byte
	led  ledControl
}

// New returns a new AS7262 device on the given transport. The device is
// reset and configured with a driver LED current of 12.5mA (off), an
// integration time of 50 ticks (140ms), a gain of 64x, one shot conversion
// and interrupts enabled.
//
// If opts is nil, DefaultOpts is used.
func New(t Transport, opts *Opts) (*Device, error) {
	if opts == nil {
		opts = &DefaultOpts
	}

	d := &Device{
		t:    t,
		opts: *opts,
		log:  opts.Logger,
		// power-on values
		cs: controlSetup{
			mode: Mode2,
			gain: Gain1X,
		},
		intT: 0xFF,
	}
	if d.log.GetSink() == nil {
		d.log = logr.Discard()
	}

	if err := d.Init(); err != nil {
		return nil, err
	}

	return d, nil
}

// NewI2C returns a new AS7262 device at addr on bus. An addr of 0 selects
// the default address (0x49).
func NewI2C(bus i2c.Bus, addr uint16, opts *Opts) (*Device, error) {
	return New(NewBus(bus, addr), opts)
}

// Init resets the device, checks its hardware version and applies the
// default configuration. When the version does not match, ErrNotDevice is
// returned and only the reset pulse has been written.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	cs := d.cs
	cs.reset = true
	if err := d.writeControl(cs); err != nil {
		return fmt.Errorf("as7262: could not reset: %w", err)
	}
	d.cs.reset = false
	d.log.V(1).Info("reset", "delay", d.opts.BootDelay)

	time.Sleep(d.opts.BootDelay)

	version, err := d.virtualRead(HWVersion)
	if err != nil {
		return fmt.Errorf("as7262: could not get hardware version: %w", err)
	}
	d.log.Info("hardware version", "version", version)
	if version != Version {
		return ErrNotDevice
	}

	led := d.led
	led.driverCurrent = Limit12mA5
	if err := d.writeLED(led); err != nil {
		return fmt.Errorf("as7262: could not initialize device: %w", err)
	}
	led.driver = false
	if err := d.writeLED(led); err != nil {
		return fmt.Errorf("as7262: could not initialize device: %w", err)
	}
	if err := d.writeIntTime(50); err != nil {
		return fmt.Errorf("as7262: could not initialize device: %w", err)
	}

	cs = d.cs
	cs.gain = Gain64X
	if err := d.writeControl(cs); err != nil {
		return fmt.Errorf("as7262: could not initialize device: %w", err)
	}
	cs.mode = OneShot
	if err := d.writeControl(cs); err != nil {
		return fmt.Errorf("as7262: could not initialize device: %w", err)
	}
	cs.interrupt = true
	if err := d.writeControl(cs); err != nil {
		return fmt.Errorf("as7262: could not initialize device: %w", err)
	}

	return nil
}

// String implements conn.Resource.
func (d *Device) String() string {
	return fmt.Sprintf("AS7262{%v}", d.t)
}

// Halt turns off both LEDs.
func (d *Device) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	led := d.led
	led.indicator = false
	led.driver = false
	if err := d.writeLED(led); err != nil {
		return fmt.Errorf("as7262: could not halt: %w", err)
	}
	return nil
}

var _ conn.Resource = &Device{}

// writeControl writes cs and keeps it as the control/setup image.
func (d *Device) writeControl(cs controlSetup) error {
	if err := d.virtualWrite(ControlSetup, cs.pack()); err != nil {
		return err
	}
	d.cs = cs
	return nil
}

func (d *Device) writeLED(led ledControl) error {
	if err := d.virtualWrite(LEDControl, led.pack()); err != nil {
		return err
	}
	d.led = led
	return nil
}

func (d *Device) writeIntTime(ticks byte) error {
	if err := d.virtualWrite(IntTime, ticks); err != nil {
		return err
	}
	d.intT = ticks
	return nil
}

// Settings is a snapshot of the configuration written to the device.
type Settings struct {
	Mode             ConversionMode
	Gain             Gain
	IntegrationTicks byte
	Interrupt        bool
	Indicator        bool
	IndicatorCurrent IndicatorCurrent
	Driver           bool
	DriverCurrent    DriverCurrent
}

// IntegrationTime returns the integration time in real time.
func (s Settings) IntegrationTime() time.Duration {
	return time.Duration(s.IntegrationTicks) * TickDuration
}

// Settings returns the current configuration image.
func (d *Device) Settings() Settings {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Settings{
		Mode:             d.cs.mode,
		Gain:             d.cs.gain,
		IntegrationTicks: d.intT,
		Interrupt:        d.cs.interrupt,
		Indicator:        d.led.indicator,
		IndicatorCurrent: d.led.indicatorCurrent,
		Driver:           d.led.driver,
		DriverCurrent:    d.led.driverCurrent,
	}
}

// SetConversionMode sets the conversion mode.
func (d *Device) SetConversionMode(mode ConversionMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setMode(mode); err != nil {
		return fmt.Errorf("as7262: could not set conversion mode: %w", err)
	}
	return nil
}

// SetGain sets the gain of all channels.
func (d *Device) SetGain(gain Gain) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setGain(gain); err != nil {
		return fmt.Errorf("as7262: could not set gain: %w", err)
	}
	return nil
}

// SetIntegrationTime sets the integration time in ticks of 2.8ms.
func (d *Device) SetIntegrationTime(ticks byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writeIntTime(ticks); err != nil {
		return fmt.Errorf("as7262: could not set integration time: %w", err)
	}
	return nil
}

// EnableInterrupt enables the interrupt pin.
func (d *Device) EnableInterrupt() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setInterrupt(true); err != nil {
		return fmt.Errorf("as7262: could not enable interrupt: %w", err)
	}
	return nil
}

// DisableInterrupt disables the interrupt pin.
func (d *Device) DisableInterrupt() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setInterrupt(false); err != nil {
		return fmt.Errorf("as7262: could not disable interrupt: %w", err)
	}
	return nil
}

// IndicatorLED turns the indicator LED on or off.
func (d *Device) IndicatorLED(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setIndicator(on); err != nil {
		return fmt.Errorf("as7262: could not set indicator LED: %w", err)
	}
	return nil
}

// SetIndicatorCurrent sets the current limit of the indicator LED.
func (d *Device) SetIndicatorCurrent(current IndicatorCurrent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setIndicatorCurrent(current); err != nil {
		return fmt.Errorf("as7262: could not set indicator current: %w", err)
	}
	return nil
}

// DriverOn turns on the driver LED.
func (d *Device) DriverOn() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setDriver(true); err != nil {
		return fmt.Errorf("as7262: could not turn on driver LED: %w", err)
	}
	return nil
}

// DriverOff turns off the driver LED.
func (d *Device) DriverOff() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setDriver(false); err != nil {
		return fmt.Errorf("as7262: could not turn off driver LED: %w", err)
	}
	return nil
}

// SetDriverCurrent sets the current limit of the driver LED.
func (d *Device) SetDriverCurrent(current DriverCurrent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setDriverCurrent(current); err != nil {
		return fmt.Errorf("as7262: could not set driver current: %w", err)
	}
	return nil
}

// The set* helpers expect d.mu to be held.

func (d *Device) setMode(mode ConversionMode) error {
	cs := d.cs
	cs.mode = mode & 0b11
	return d.writeControl(cs)
}

func (d *Device) setGain(gain Gain) error {
	cs := d.cs
	cs.gain = gain & 0b11
	return d.writeControl(cs)
}

func (d *Device) setInterrupt(on bool) error {
	cs := d.cs
	cs.interrupt = on
	return d.writeControl(cs)
}

func (d *Device) setIndicator(on bool) error {
	led := d.led
	led.indicator = on
	return d.writeLED(led)
}

func (d *Device) setIndicatorCurrent(current IndicatorCurrent) error {
	led := d.led
	led.indicatorCurrent = current & 0b11
	return d.writeLED(led)
}

func (d *Device) setDriver(on bool) error {
	led := d.led
	led.driver = on
	return d.writeLED(led)
}

func (d *Device) setDriverCurrent(current DriverCurrent) error {
	led := d.led
	led.driverCurrent = current & 0b11
	return d.writeLED(led)
}

// StartMeasurement clears the data ready flag and starts a one shot
// conversion. Poll DataReady before reading the results.
func (d *Device) StartMeasurement() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	cs := d.cs
	cs.dataReady = false
	if err := d.writeControl(cs); err != nil {
		return fmt.Errorf("as7262: could not start measurement: %w", err)
	}
	cs.mode = OneShot
	if err := d.writeControl(cs); err != nil {
		return fmt.Errorf("as7262: could not start measurement: %w", err)
	}
	return nil
}

// DataReady reports whether a conversion result is available. The flag is
// read from the device; the configuration image is left untouched.
func (d *Device) DataReady() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.virtualRead(ControlSetup)
	if err != nil {
		return false, fmt.Errorf("as7262: could not read data ready: %w", err)
	}
	return unpackControlSetup(b).dataReady, nil
}

// Temperature returns the die temperature, in whole degrees Celsius.
func (d *Device) Temperature() (physic.Temperature, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.virtualRead(DeviceTemp)
	if err != nil {
		return 0, fmt.Errorf("as7262: could not read temperature: %w", err)
	}
	return physic.ZeroCelsius + physic.Temperature(t)*physic.Celsius, nil
}

// FirmwareVersion returns the two bytes of the firmware version register.
func (d *Device) FirmwareVersion() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.readUint16(FWVersion)
	if err != nil {
		return 0, fmt.Errorf("as7262: could not read firmware version: %w", err)
	}
	return v, nil
}

// ReadChannel reads the raw 16-bit value at the virtual address reg.
func (d *Device) ReadChannel(reg byte) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.readUint16(reg)
	if err != nil {
		return 0, fmt.Errorf("as7262: could not read channel %#x: %w", reg, err)
	}
	return v, nil
}

// ReadCalibratedValue reads the calibrated value at the virtual address reg.
// The four bytes are the IEEE-754 representation of the value.
func (d *Device) ReadCalibratedValue(reg byte) (float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.readFloat32(reg)
	if err != nil {
		return 0, fmt.Errorf("as7262: could not read calibrated channel %#x: %w", reg, err)
	}
	return v, nil
}

// Violet returns the raw violet reading.
func (d *Device) Violet() (uint16, error) { return d.ReadChannel(VioletRaw) }

// Blue returns the raw blue reading.
func (d *Device) Blue() (uint16, error) { return d.ReadChannel(BlueRaw) }

// Green returns the raw green reading.
func (d *Device) Green() (uint16, error) { return d.ReadChannel(GreenRaw) }

// Yellow returns the raw yellow reading.
func (d *Device) Yellow() (uint16, error) { return d.ReadChannel(YellowRaw) }

// Orange returns the raw orange reading.
func (d *Device) Orange() (uint16, error) { return d.ReadChannel(OrangeRaw) }

// Red returns the raw red reading.
func (d *Device) Red() (uint16, error) { return d.ReadChannel(RedRaw) }

// CalibratedViolet returns the calibrated violet reading.
func (d *Device) CalibratedViolet() (float32, error) { return d.ReadCalibratedValue(VioletCal) }

// CalibratedBlue returns the calibrated blue reading.
func (d *Device) CalibratedBlue() (float32, error) { return d.ReadCalibratedValue(BlueCal) }

// CalibratedGreen returns the calibrated green reading.
func (d *Device) CalibratedGreen() (float32, error) { return d.ReadCalibratedValue(GreenCal) }

// CalibratedYellow returns the calibrated yellow reading.
func (d *Device) CalibratedYellow() (float32, error) { return d.ReadCalibratedValue(YellowCal) }

// CalibratedOrange returns the calibrated orange reading.
func (d *Device) CalibratedOrange() (float32, error) { return d.ReadCalibratedValue(OrangeCal) }

// CalibratedRed returns the calibrated red reading.
func (d *Device) CalibratedRed() (float32, error) { return d.ReadCalibratedValue(RedCal) }

// ReadRawValues reads up to n raw values into buf, in Color order. Indexes
// past Red are skipped and their slots left untouched. The loop also stops
// at len(buf).
func (d *Device) ReadRawValues(buf []uint16, n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := 0; i < n && i < len(buf); i++ {
		switch c := Color(i); c {
		case Violet, Blue, Green, Yellow, Orange, Red:
			v, err := d.readUint16(c.Raw())
			if err != nil {
				return fmt.Errorf("as7262: could not read %v: %w", c, err)
			}
			buf[i] = v
		default:
		}
	}
	return nil
}

// ReadCalibratedValues reads up to n calibrated values into buf, in Color
// order, with the same rules as ReadRawValues.
func (d *Device) ReadCalibratedValues(buf []float32, n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := 0; i < n && i < len(buf); i++ {
		switch c := Color(i); c {
		case Violet, Blue, Green, Yellow, Orange, Red:
			v, err := d.readFloat32(c.Calibrated())
			if err != nil {
				return fmt.Errorf("as7262: could not read calibrated %v: %w", c, err)
			}
			buf[i] = v
		default:
		}
	}
	return nil
}

// DebugRegister logs the value of a virtual register.
func (d *Device) DebugRegister(addr byte) {
	b, err := d.Read(addr)
	if err != nil {
		d.log.Error(err, "debug register", "addr", addr)
		return
	}
	kv := []interface{}{"addr", fmt.Sprintf("%#x", addr), "value", fmt.Sprintf("%#x (%#b)", b, b)}
	switch addr {
	case ControlSetup:
		cs := unpackControlSetup(b)
		kv = append(kv,
			"dataReady", cs.dataReady,
			"mode", cs.mode,
			"gain", cs.gain,
			"interrupt", cs.interrupt,
		)
	case LEDControl:
		led := unpackLEDControl(b)
		kv = append(kv,
			"indicator", led.indicator,
			"indicatorCurrent", led.indicatorCurrent,
			"driver", led.driver,
			"driverCurrent", led.driverCurrent,
		)
	}
	d.log.V(1).Info("register", kv...)
}
