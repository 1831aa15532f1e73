package hwio

import (
	"mmreg/log"
)

// mem is the adaptor used by Table for linear memory access.
//
// It is used by pointer so that Table can detect it behind the BankIO32
// interface and take the fast path.
type mem struct {
	name string
	data []uint32
	mask uint32 // word index mask
	wcb  func(uint32, uint32)
	ro   MemFlags
}

func newMem(m *Mem) *mem {
	n := len(m.Data)
	if n == 0 || n&(n-1) != 0 {
		panic("memory buffer size is not pow2")
	}
	return &mem{
		name: m.Name,
		data: m.Data,
		mask: uint32(n - 1),
		wcb:  m.WriteCb,
		ro:   m.Flags,
	}
}

func (m *mem) Read32(addr uint32, _ bool) uint32 {
	return m.data[(addr>>2)&m.mask]
}

// Write32CheckRO performs the write if the memory is writable and reports
// whether the write was accepted (silently dropped writes count as accepted).
func (m *mem) Write32CheckRO(addr uint32, val uint32) bool {
	if m.ro == MemFlagReadWrite {
		m.data[(addr>>2)&m.mask] = val
		if m.wcb != nil {
			m.wcb(addr, val)
		}
		return true
	}
	return m.ro&MemFlagNoROLog != 0
}

func (m *mem) Write32(addr uint32, val uint32) {
	if !m.Write32CheckRO(addr, val) {
		log.ModHwIo.ErrorZ("Write32 to readonly memory").
			String("name", m.name).
			Hex32("val", val).
			Hex32("addr", addr).
			End()
	}
}

type MemFlags int

const (
	MemFlagReadWrite MemFlags = 0
	MemFlagReadOnly  MemFlags = (1 << iota) // read-only accesses
	MemFlagNoROLog                          // skip logging attempts to write when configured to readonly
)

// Mem is a linear area of 32-bit words that can be mapped into a Table.
// Addresses are mirrored every len(Data)*4 bytes up to VSize.
type Mem struct {
	Name    string               // name of the memory area (for debugging)
	Data    []uint32             // backing words, length must be a power of 2
	VSize   int                  // virtual size in bytes (can be bigger than physical size)
	Flags   MemFlags             // flags determining how the memory can be accessed
	WriteCb func(uint32, uint32) // optional callback invoked after each accepted write
}

// BankIO32 returns the adaptor that implements bus access for this memory.
func (m *Mem) BankIO32() BankIO32 {
	return newMem(m)
}
