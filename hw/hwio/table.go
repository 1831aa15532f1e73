package hwio

import (
	"fmt"
	"slices"

	"mmreg/log"
)

// log unmapped accesses (useful for debugging but verbose when probing
// partially described peripherals)
const logUnmapped = false

// BankIO32 is the 32-bit bus capability that registers are accessed through.
type BankIO32 interface {
	// Read32 reads a word from the given address. If peek is true, the read
	// shouldn't have any side effects (debugging/tracing).
	Read32(addr uint32, peek bool) uint32
	Write32(addr uint32, val uint32)
}

type mapping struct {
	begin, end uint32 // inclusive
	io         BankIO32
}

// Table is an address decoder forwarding each access to the BankIO32 mapped
// at that address.
type Table struct {
	Name string

	// Unmapped, if not nil, receives accesses to addresses where nothing is
	// mapped. Otherwise reads return 0 and writes are dropped.
	Unmapped BankIO32

	maps []mapping // sorted, non-overlapping
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

func (t *Table) Reset() {
	t.maps = nil
}

func (t *Table) search(addr uint32) BankIO32 {
	i, found := slices.BinarySearchFunc(t.maps, addr, func(m mapping, addr uint32) int {
		switch {
		case m.end < addr:
			return -1
		case m.begin > addr:
			return 1
		}
		return 0
	})
	if !found {
		return nil
	}
	return t.maps[i].io
}

func (t *Table) insert(begin, end uint32, io BankIO32) error {
	if end < begin {
		return fmt.Errorf("invalid range [%08x, %08x]", begin, end)
	}
	i, _ := slices.BinarySearchFunc(t.maps, begin, func(m mapping, addr uint32) int {
		if m.begin < addr {
			return -1
		}
		if m.begin > addr {
			return 1
		}
		return 0
	})
	if i > 0 && t.maps[i-1].end >= begin {
		return fmt.Errorf("range [%08x, %08x] overlaps [%08x, %08x]", begin, end, t.maps[i-1].begin, t.maps[i-1].end)
	}
	if i < len(t.maps) && t.maps[i].begin <= end {
		return fmt.Errorf("range [%08x, %08x] overlaps [%08x, %08x]", begin, end, t.maps[i].begin, t.maps[i].end)
	}
	t.maps = slices.Insert(t.maps, i, mapping{begin: begin, end: end, io: io})
	return nil
}

// Map a register bank (that is, a structure containing multiple Reg32, Mem or
// Device fields). For this function to work, registers must have a struct tag
// "hwio", containing the following fields:
//
//	offset=0x12     Byte-offset within the register bank at which this
//	                register is mapped. There is no default value: if this
//	                option is missing, the register is assumed not to be
//	                part of the bank, and is ignored by this call.
//
//	bank=NN         Ordinal bank number (if not specified, default to zero).
//	                This option allows for a structure to expose multiple
//	                banks, as regs can be grouped by bank by specified the
//	                bank number.
//
// See InitRegs for the options initializing the registers themselves.
func (t *Table) MapBank(addr uint32, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Reg32:
			t.MapReg32(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint32, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		begin := addr + reg.offset
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.Unmap(begin, begin+uint32(r.VSize)-1)
		case *Reg32:
			t.Unmap(begin, begin+3)
		case *Device:
			t.Unmap(begin, begin+uint32(r.Size)-1)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) mapBus32(addr, size uint32, io BankIO32) {
	if err := t.insert(addr, addr+size-1, io); err != nil {
		panic(fmt.Errorf("%s: %w", t.Name, err))
	}
}

func (t *Table) MapReg32(addr uint32, io *Reg32) {
	log.ModHwIo.DebugZ("mapping reg").
		Hex32("addr", addr).
		String("reg", io.Name).
		String("bus", t.Name).
		End()

	t.mapBus32(addr, 4, io)
}

func (t *Table) MapDevice(addr uint32, io *Device) {
	t.mapBus32(addr, uint32(io.Size), io)
}

func (t *Table) MapMem(addr uint32, mem *Mem) {
	log.ModHwIo.DebugZ("mapping mem").
		Hex32("addr", addr).
		Hex32("size", uint32(mem.VSize)).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	t.mapBus32(addr, uint32(mem.VSize), mem.BankIO32())
}

// Unmap removes whatever is mapped in [begin, end]. Mappings straddling a
// boundary are cut, keeping the part outside the range.
func (t *Table) Unmap(begin, end uint32) {
	var kept []mapping
	for _, m := range t.maps {
		if m.end < begin || m.begin > end {
			kept = append(kept, m)
			continue
		}
		if m.begin < begin {
			kept = append(kept, mapping{begin: m.begin, end: begin - 1, io: m.io})
		}
		if m.end > end {
			kept = append(kept, mapping{begin: end + 1, end: m.end, io: m.io})
		}
	}
	t.maps = kept
}

// Mapped reports whether any address in [begin, end] is mapped.
func (t *Table) Mapped(begin, end uint32) bool {
	for _, m := range t.maps {
		if m.begin <= end && m.end >= begin {
			return true
		}
	}
	return false
}

// Read32 searches in the table for the device mapped at the given address and
// forward the read to it.
func (t *Table) Read32(addr uint32, peek bool) uint32 {
	io := t.search(addr)
	if io == nil {
		if t.Unmapped != nil {
			return t.Unmapped.Read32(addr, peek)
		}
		if logUnmapped && !peek {
			log.ModHwIo.ErrorZ("unmapped Read32").
				String("name", t.Name).
				Hex32("addr", addr).
				End()
		}
		return 0
	}
	return io.Read32(addr, peek)
}

// Peek32 is a convenience function.
func (t *Table) Peek32(addr uint32) uint32 {
	return t.Read32(addr, true)
}

func (t *Table) Write32(addr uint32, val uint32) {
	io := t.search(addr)
	if io == nil {
		if t.Unmapped != nil {
			t.Unmapped.Write32(addr, val)
			return
		}
		if logUnmapped {
			log.ModHwIo.ErrorZ("unmapped Write32").
				String("name", t.Name).
				Hex32("addr", addr).
				Hex32("val", val).
				End()
		}
		return
	}
	if mem, ok := io.(*mem); ok {
		if !mem.Write32CheckRO(addr, val) {
			log.ModHwIo.ErrorZ("Write32 to read-only address").
				String("name", t.Name).
				Hex32("addr", addr).
				Hex32("val", val).
				End()
		}
		return
	}
	io.Write32(addr, val)
}
