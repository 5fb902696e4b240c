package as7262

import (
	"fmt"
	"time"

	"periph.io/x/periph/conn/physic"
)

// Virtual register addresses
const (
	HWVersion    = 0x00
	FWVersion    = 0x02
	ControlSetup = 0x04
	IntTime      = 0x05
	DeviceTemp   = 0x06
	LEDControl   = 0x07

	VioletRaw = 0x08
	BlueRaw   = 0x0A
	GreenRaw  = 0x0C
	YellowRaw = 0x0E
	OrangeRaw = 0x10
	RedRaw    = 0x12

	VioletCal = 0x14
	BlueCal   = 0x18
	GreenCal  = 0x1C
	YellowCal = 0x20
	OrangeCal = 0x24
	RedCal    = 0x28
)

// Physical register addresses
const (
	RegStatus = 0x00
	RegWrite  = 0x01
	RegRead   = 0x02
)

// Status flags
const (
	RxValid byte = (1 << 0)
	TxValid byte = (1 << 1)

	// writeFlag marks the address phase of a virtual write.
	writeFlag byte = (1 << 7)
)

// Device constants
const (
	Addr    = 0x49
	Version = 0x40

	// NumChannels is the number of spectral channels.
	NumChannels = 6

	// TickDuration is the integration time of one tick.
	TickDuration = 2800 * time.Microsecond

	chunkSize = 32
)

// Color indexes a spectral channel in bulk reads.
type Color int

// Colors in read order.
const (
	Violet Color = iota
	Blue
	Green
	Yellow
	Orange
	Red
)

var colorNames = [NumChannels]string{"violet", "blue", "green", "yellow", "orange", "red"}

func (c Color) String() string {
	if c < 0 || c >= NumChannels {
		return fmt.Sprintf("Color(%d)", int(c))
	}
	return colorNames[c]
}

// Raw returns the virtual address of the 16-bit raw reading.
func (c Color) Raw() byte {
	return VioletRaw + 2*byte(c)
}

// Calibrated returns the virtual address of the 32-bit calibrated reading.
func (c Color) Calibrated() byte {
	return VioletCal + 4*byte(c)
}

// ConversionMode selects how the device acquires data. Default is Mode2.
type ConversionMode byte

// Conversion modes
const (
	Mode0 ConversionMode = iota
	Mode1
	Mode2
	OneShot
)

func (m ConversionMode) String() string {
	switch m {
	case Mode0:
		return "mode 0"
	case Mode1:
		return "mode 1"
	case Mode2:
		return "mode 2"
	case OneShot:
		return "one shot"
	}
	return fmt.Sprintf("ConversionMode(%d)", byte(m))
}

// Gain is the channel gain, shared by all channels. Default is Gain1X.
type Gain byte

// Gain settings
const (
	Gain1X Gain = iota
	Gain3X7
	Gain16X
	Gain64X
)

func (g Gain) String() string {
	switch g {
	case Gain1X:
		return "1x"
	case Gain3X7:
		return "3.7x"
	case Gain16X:
		return "16x"
	case Gain64X:
		return "64x"
	}
	return fmt.Sprintf("Gain(%d)", byte(g))
}

// IndicatorCurrent is the indicator LED current limit. Default is Limit1mA.
type IndicatorCurrent byte

// Indicator LED current limits
const (
	Limit1mA IndicatorCurrent = iota
	Limit2mA
	Limit4mA
	Limit8mA
)

// Current returns the current limit as a physical value.
func (i IndicatorCurrent) Current() physic.ElectricCurrent {
	return physic.MilliAmpere << (i & 0b11)
}

func (i IndicatorCurrent) String() string {
	return i.Current().String()
}

// DriverCurrent is the driver LED current limit. Default is Limit12mA5.
type DriverCurrent byte

// Driver LED current limits
const (
	Limit12mA5 DriverCurrent = iota
	Limit25mA
	Limit50mA
	Limit100mA
)

// Current returns the current limit as a physical value.
func (c DriverCurrent) Current() physic.ElectricCurrent {
	return (12500 * physic.MicroAmpere) << (c & 0b11)
}

func (c DriverCurrent) String() string {
	return c.Current().String()
}
