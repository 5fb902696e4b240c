package as7262

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// vop is a completed virtual register transaction seen by fakeChip.
type vop struct {
	Write bool
	Addr  byte
	Value byte
}

// fakeChip models the status/write/read physical registers of the chip.
type fakeChip struct {
	regs [128]byte

	// busy is the number of status reads reporting TX_VALID after each write
	// to the write register.
	busy    int
	pending int
	stuck   bool

	addr    byte
	hasAddr bool
	rx      bool
	rxData  byte

	ops         []vop
	statusReads int
	failWrites  error
}

func newFakeChip() *fakeChip {
	f := &fakeChip{}
	f.regs[HWVersion] = Version
	return f
}

func (f *fakeChip) ReadBytes(reg byte, n int) ([]byte, error) {
	if n != 1 {
		return nil, fmt.Errorf("fake: unexpected read of %d bytes", n)
	}
	switch reg {
	case RegStatus:
		f.statusReads++
		var s byte
		if f.stuck || f.pending > 0 {
			if f.pending > 0 {
				f.pending--
			}
			s |= TxValid
		}
		if f.rx {
			s |= RxValid
		}
		return []byte{s}, nil
	case RegRead:
		if !f.rx {
			return nil, errors.New("fake: read without staged data")
		}
		f.rx = false
		return []byte{f.rxData}, nil
	}
	return nil, fmt.Errorf("fake: read of unknown register %#x", reg)
}

func (f *fakeChip) WriteBytes(reg byte, b []byte) error {
	if f.failWrites != nil {
		return f.failWrites
	}
	if reg != RegWrite || len(b) != 1 {
		return fmt.Errorf("fake: unexpected write %#x % x", reg, b)
	}
	if f.pending > 0 || f.stuck {
		return errors.New("fake: write while TX pending")
	}
	f.pending = f.busy

	v := b[0]
	switch {
	case f.hasAddr:
		f.regs[f.addr] = v
		f.hasAddr = false
		f.ops = append(f.ops, vop{Write: true, Addr: f.addr, Value: v})
	case v&writeFlag != 0:
		f.addr = v &^ writeFlag
		f.hasAddr = true
	default:
		f.rxData = f.regs[v]
		f.rx = true
		f.ops = append(f.ops, vop{Addr: v, Value: f.rxData})
	}
	return nil
}

// writes returns the completed virtual writes.
func (f *fakeChip) writes() []vop {
	var w []vop
	for _, op := range f.ops {
		if op.Write {
			w = append(w, op)
		}
	}
	return w
}

func testLogger(t *testing.T) logr.Logger {
	return funcr.New(func(prefix, args string) {
		t.Log(prefix, args)
	}, funcr.Options{Verbosity: 1})
}

func testOpts(t *testing.T) *Opts {
	return &Opts{
		Timeout: time.Second,
		Logger:  testLogger(t),
	}
}

// newTestDevice returns a device brought up on f with the op log cleared.
func newTestDevice(t *testing.T, f *fakeChip) *Device {
	t.Helper()
	d, err := New(f, testOpts(t))
	if err != nil {
		t.Fatalf("could not create device: %v", err)
	}
	f.ops = nil
	return d
}

// rawDevice returns a device on tr that skipped bring-up.
func rawDevice(t *testing.T, tr Transport, opts Opts) *Device {
	return &Device{t: tr, opts: opts, log: testLogger(t)}
}
