package as7262

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// poll calls cond until it reports true, cond fails, or the timeout expires.
// A timeout of 0 polls forever.
func poll(timeout, interval time.Duration, cond func() (bool, error)) error {
	start := time.Now()
	for {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if timeout > 0 && time.Since(start) > timeout {
			return ErrTimeout
		}
		if interval > 0 {
			time.Sleep(interval)
		}
	}
}

func (d *Device) status() (byte, error) {
	b, err := d.t.ReadBytes(RegStatus, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// waitUntil polls the status register until flag is set (bit 1) or clear
// (bit 0).
func (d *Device) waitUntil(flag byte, bit byte) error {
	err := poll(d.opts.Timeout, d.opts.PollInterval, func() (bool, error) {
		state, err := d.status()
		if err != nil {
			return false, err
		}
		if bit == 1 {
			return state&flag != 0, nil
		}
		return state&flag == 0, nil
	})
	if err != nil {
		d.log.Error(err, "status poll failed", "flag", flag, "want", bit)
		return fmt.Errorf("could not wait for %#x in status to be %v: %w", flag, bit, err)
	}
	return nil
}

// virtualWrite writes value to the virtual register addr.
func (d *Device) virtualWrite(addr, value byte) error {
	if err := d.waitUntil(TxValid, 0); err != nil {
		return err
	}
	if err := d.t.WriteBytes(RegWrite, []byte{addr | writeFlag}); err != nil {
		return err
	}
	if err := d.waitUntil(TxValid, 0); err != nil {
		return err
	}
	return d.t.WriteBytes(RegWrite, []byte{value})
}

// virtualRead reads the virtual register addr.
func (d *Device) virtualRead(addr byte) (byte, error) {
	if err := d.waitUntil(TxValid, 0); err != nil {
		return 0, err
	}
	if err := d.t.WriteBytes(RegWrite, []byte{addr &^ writeFlag}); err != nil {
		return 0, err
	}
	if err := d.waitUntil(RxValid, 1); err != nil {
		return 0, err
	}
	b, err := d.t.ReadBytes(RegRead, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// virtualReadN reads n consecutive virtual registers starting at addr.
func (d *Device) virtualReadN(addr byte, n int) ([]byte, error) {
	b := make([]byte, n)
	for i := range b {
		v, err := d.virtualRead(addr + byte(i))
		if err != nil {
			return nil, err
		}
		b[i] = v
	}
	return b, nil
}

func (d *Device) readUint16(addr byte) (uint16, error) {
	b, err := d.virtualReadN(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *Device) readFloat32(addr byte) (float32, error) {
	b, err := d.virtualReadN(addr, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

// Read reads a single byte from a virtual register.
func (d *Device) Read(addr byte) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.virtualRead(addr)
	if err != nil {
		return 0, fmt.Errorf("as7262: could not read %#x: %w", addr, err)
	}
	return b, nil
}

// Write writes a byte to a virtual register. Writes to the configuration
// registers bypass the in-memory image; use the setters instead.
func (d *Device) Write(addr, value byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.virtualWrite(addr, value); err != nil {
		return fmt.Errorf("as7262: could not write %#x: %w", addr, err)
	}
	return nil
}
