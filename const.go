package as726x

import (
	"time"

	"periph.io/x/periph/conn/physic"

	"github.com/cgxeiji/as726x/as7262"
)

// Wavelengths holds the center wavelength of each channel, in Color order.
var Wavelengths = [as7262.NumChannels]physic.Distance{
	450 * physic.NanoMetre,
	500 * physic.NanoMetre,
	550 * physic.NanoMetre,
	570 * physic.NanoMetre,
	600 * physic.NanoMetre,
	650 * physic.NanoMetre,
}

const (
	defaultSmoothing = 4
	defaultPoll      = 10 * time.Millisecond
)
