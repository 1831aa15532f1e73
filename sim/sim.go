// Package sim builds a simulated register file from an SVD device
// description, so that register accesses can be exercised without hardware.
package sim

import (
	"slices"

	"mmreg/hw/hwio"
	"mmreg/log"
	"mmreg/svd"
)

// Sim is the register file of a device: one hwio.Reg32 per aligned 32-bit
// word holding registers, mapped at its address and holding its reset value.
// Bits of read-only fields are not modifiable through the bus.
//
// The address blocks of the peripherals are mapped too: "buffer" blocks as
// plain memory, the others as reserved space where every access is a fault.
type Sim struct {
	*hwio.Table

	dev    *svd.Device
	words  []simWord
	bufs   []*hwio.Mem
	faults int
}

type simWord struct {
	reset uint32
	reg   *hwio.Reg32
	names []string // "PERIPH.REG" of the registers in the word
}

// New returns a simulated register file for all the registers of dev.
// Registers overlapping a previously mapped one are skipped.
func New(dev *svd.Device) *Sim {
	s := &Sim{
		Table: hwio.NewTable(dev.Name),
		dev:   dev,
	}
	s.Unmapped = &hwio.Device{
		Name:    "unmapped",
		ReadCb:  s.faultRead,
		WriteCb: s.faultWrite,
	}

	for _, p := range dev.Peripherals {
		for _, b := range p.Blocks {
			s.mapBlock(p, b)
		}
	}

	mapped := make(map[uint32]bool)
	for _, p := range dev.Peripherals {
		for _, w := range p.Words() {
			name := p.Name + "." + w.Name()
			if mapped[w.Addr] {
				log.ModSim.WarnZ("overlapping register, skipped").
					String("reg", name).
					Hex32("addr", w.Addr).
					End()
				continue
			}
			mapped[w.Addr] = true

			reg := &hwio.Reg32{
				Name:   name,
				Value:  w.Reset(),
				RoMask: ^w.Writable(),
			}
			switch w.Access() {
			case svd.AccessReadOnly:
				reg.Flags = hwio.ReadOnlyFlag
			case svd.AccessWriteOnly:
				reg.Flags = hwio.WriteOnlyFlag
			}

			sw := simWord{reset: reg.Value, reg: reg}
			for _, r := range w.Registers {
				sw.names = append(sw.names, p.Name+"."+r.Name)
			}

			// Carve the word out of the address block holding it.
			s.Unmap(w.Addr, w.Addr+3)
			s.MapReg32(w.Addr, reg)
			s.words = append(s.words, sw)
		}
	}

	log.ModSim.DebugZ("register file ready").
		String("device", dev.Name).
		Int("words", len(s.words)).
		Int("buffers", len(s.bufs)).
		End()
	return s
}

func (s *Sim) mapBlock(p *svd.Peripheral, b svd.AddressBlock) {
	begin := p.BaseAddress + b.Offset
	if b.Size < 4 || s.Mapped(begin, begin+b.Size-1) {
		log.ModSim.WarnZ("address block skipped").
			String("peripheral", p.Name).
			Hex32("addr", begin).
			Hex32("size", b.Size).
			End()
		return
	}

	if b.Usage == "buffer" {
		// The backing slice length must be a power of 2, VSize keeps the
		// mapping to the block size.
		n := 1
		for n < int(b.Size/4) {
			n <<= 1
		}
		mem := &hwio.Mem{
			Name:  p.Name,
			Data:  make([]uint32, n),
			VSize: int(b.Size),
		}
		s.MapMem(begin, mem)
		s.bufs = append(s.bufs, mem)
		return
	}

	s.MapDevice(begin, &hwio.Device{
		Name:    p.Name + " reserved",
		Size:    int(b.Size),
		ReadCb:  s.faultRead,
		WriteCb: s.faultWrite,
	})
}

func (s *Sim) faultRead(addr uint32) uint32 {
	s.faults++
	log.ModSim.WarnZ("read from unmapped address").Hex32("addr", addr).End()
	return 0
}

func (s *Sim) faultWrite(addr, val uint32) {
	s.faults++
	log.ModSim.WarnZ("write to unmapped address").Hex32("addr", addr).Hex32("val", val).End()
}

// Device returns the device description the register file was built from.
func (s *Sim) Device() *svd.Device { return s.dev }

// Reg returns the simulated word holding the register named "PERIPH.REG",
// or nil.
func (s *Sim) Reg(name string) *hwio.Reg32 {
	for _, w := range s.words {
		if slices.Contains(w.names, name) {
			return w.reg
		}
	}
	return nil
}

// Faults returns the number of bus accesses to unmapped or reserved
// addresses.
func (s *Sim) Faults() int { return s.faults }

// Reset restores every register to its reset value, clears the buffers and
// the fault counter.
func (s *Sim) Reset() {
	for _, w := range s.words {
		w.reg.Value = w.reset
	}
	for _, m := range s.bufs {
		clear(m.Data)
	}
	s.faults = 0
}
