package as7262

import (
	"fmt"

	"periph.io/x/periph/conn/i2c"
)

// Transport reads and writes the physical registers of a single device.
type Transport interface {
	// ReadBytes reads n bytes starting at reg.
	ReadBytes(reg byte, n int) ([]byte, error)
	// WriteBytes writes b starting at reg as one operation.
	WriteBytes(reg byte, b []byte) error
}

// Bus is a Transport over an I²C bus.
type Bus struct {
	dev *i2c.Dev
}

// NewBus returns a Transport for the device at addr on bus. An addr of 0
// selects the default address (0x49).
func NewBus(bus i2c.Bus, addr uint16) *Bus {
	if addr == 0 {
		addr = Addr
	}
	return &Bus{
		dev: &i2c.Dev{
			Addr: addr,
			Bus:  bus,
		},
	}
}

// ReadBytes reads n bytes from a register, split in transactions of at most
// 32 bytes.
func (b *Bus) ReadBytes(reg byte, n int) ([]byte, error) {
	buf := make([]byte, n)
	for pos := 0; pos < n; {
		now := n - pos
		if now > chunkSize {
			now = chunkSize
		}
		if err := b.dev.Tx([]byte{reg + byte(pos)}, buf[pos:pos+now]); err != nil {
			return nil, fmt.Errorf("as7262: could not read %d bytes from %#x: %w", now, reg+byte(pos), err)
		}
		pos += now
	}

	return buf, nil
}

// WriteBytes writes data to a register.
func (b *Bus) WriteBytes(reg byte, data []byte) error {
	w := make([]byte, 0, len(data)+1)
	w = append(w, reg)
	w = append(w, data...)

	n, err := b.dev.Write(w)
	if err != nil {
		return fmt.Errorf("as7262: could not write to %#x: %w", reg, err)
	}
	n-- // remove register write
	if n != len(data) {
		return fmt.Errorf("as7262: wrong number of bytes written: want %d, got %d", len(data), n)
	}

	return nil
}

func (b *Bus) String() string {
	return fmt.Sprintf("%s(%#x)", b.dev.Bus, b.dev.Addr)
}
