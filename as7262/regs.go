package as7262

// Control/setup bit layout
const (
	dataRdyShift = 1
	bankShift    = 2
	gainShift    = 4
	intShift     = 6
	rstShift     = 7

	DataReady byte = (1 << dataRdyShift)
	bankMask  byte = 0b11 << bankShift
	gainMask  byte = 0b11 << gainShift
	intMask   byte = (1 << intShift)
	rstMask   byte = (1 << rstShift)
)

// LED control bit layout
const (
	ledIndShift = 0
	iclIndShift = 1
	ledDrvShift = 3
	iclDrvShift = 4
)

// controlSetup mirrors the CONTROL_SETUP virtual register.
type controlSetup struct {
	dataReady bool
	mode      ConversionMode
	gain      Gain
	interrupt bool
	reset     bool
}

func (c controlSetup) pack() byte {
	return bit(c.dataReady)<<dataRdyShift |
		byte(c.mode&0b11)<<bankShift |
		byte(c.gain&0b11)<<gainShift |
		bit(c.interrupt)<<intShift |
		bit(c.reset)<<rstShift
}

func unpackControlSetup(b byte) controlSetup {
	return controlSetup{
		dataReady: b&DataReady != 0,
		mode:      ConversionMode((b & bankMask) >> bankShift),
		gain:      Gain((b & gainMask) >> gainShift),
		interrupt: b&intMask != 0,
		reset:     b&rstMask != 0,
	}
}

// ledControl mirrors the LED_CONTROL virtual register.
type ledControl struct {
	indicator        bool
	indicatorCurrent IndicatorCurrent
	driver           bool
	driverCurrent    DriverCurrent
}

func (l ledControl) pack() byte {
	return bit(l.indicator)<<ledIndShift |
		byte(l.indicatorCurrent&0b11)<<iclIndShift |
		bit(l.driver)<<ledDrvShift |
		byte(l.driverCurrent&0b11)<<iclDrvShift
}

func unpackLEDControl(b byte) ledControl {
	return ledControl{
		indicator:        b&(1<<ledIndShift) != 0,
		indicatorCurrent: IndicatorCurrent((b >> iclIndShift) & 0b11),
		driver:           b&(1<<ledDrvShift) != 0,
		driverCurrent:    DriverCurrent((b >> iclDrvShift) & 0b11),
	}
}

func bit(b bool) byte {
	if b {
		return 1
	}
	return 0
}
