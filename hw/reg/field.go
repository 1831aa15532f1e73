package reg

import (
	"fmt"
	"math/bits"

	"mmreg/hw/hwio"
)

// Field describes a bitfield of the 32-bit register at Addr: the bits set in
// Mask<<Offset. Mask is right-aligned. Fields are meant to be declared once,
// as package-level values, and never modified.
//
// Combinations where Offset+Width() exceeds 32 are not validated: the bits
// shifted past bit 31 are silently dropped.
type Field[P Policy] struct {
	Addr   uint32
	Mask   uint32
	Offset uint32
}

// Width returns the bit width of the field mask.
func (f Field[P]) Width() int {
	return bits.Len32(f.Mask)
}

// Bits returns the field mask in register position.
func (f Field[P]) Bits() uint32 {
	return f.Mask << f.Offset
}

func (f Field[P]) String() string {
	if f.Mask == 0 {
		return fmt.Sprintf("0x%08x[]", f.Addr)
	}
	msb := int(f.Offset) + f.Width() - 1
	if msb == int(f.Offset) {
		return fmt.Sprintf("0x%08x[%d]", f.Addr, f.Offset)
	}
	return fmt.Sprintf("0x%08x[%d:%d]", f.Addr, msb, f.Offset)
}

// Read returns the current value of the field, right-aligned.
func Read[P Readable](bus hwio.BankIO32, f Field[P]) uint32 {
	var p P
	return p.read(bus, f.Addr, f.Mask, f.Offset, false)
}

// Peek is like Read but asks the bus for a side-effect free access. On real
// hardware this is the same as Read.
func Peek[P Readable](bus hwio.BankIO32, f Field[P]) uint32 {
	var p P
	return p.read(bus, f.Addr, f.Mask, f.Offset, true)
}

// Write sets the field to val&f.Mask, leaving the other bits of the register
// untouched. It is a non-atomic read-modify-write of the whole register.
func Write[P Writable](bus hwio.BankIO32, f Field[P], val uint32) {
	var p P
	p.write(bus, f.Addr, f.Mask, f.Offset, val)
}
