package svd

import "strings"

// Device is a resolved CMSIS-SVD device description: derived peripherals are
// expanded, dim arrays unrolled and sizes and accesses inherited, so that
// every register and field carries its effective properties.
type Device struct {
	Name        string
	Description string
	Peripherals []*Peripheral
}

type Peripheral struct {
	Name        string
	Description string
	GroupName   string
	BaseAddress uint32
	DerivedFrom string
	Blocks      []AddressBlock
	Registers   []*Register
}

// AddressBlock is an address range of a peripheral. Usage is "registers",
// "buffer" or "reserved".
type AddressBlock struct {
	Offset uint32 // from the peripheral base address
	Size   uint32 // in bytes
	Usage  string
}

type Register struct {
	Name          string
	Description   string
	AddressOffset uint32
	Address       uint32 // absolute: peripheral base + offset
	Size          uint32 // in bits
	Access        Access
	ResetValue    uint32
	Fields        []*Field
}

// Mask returns the mask covering the whole register.
func (r *Register) Mask() uint32 {
	if r.Size >= 32 {
		return 0xFFFFFFFF
	}
	return 1<<r.Size - 1
}

// WordAddr returns the address of the aligned 32-bit word holding the
// register.
func (r *Register) WordAddr() uint32 { return r.Address &^ 3 }

// Shift returns the bit position of the register in its 32-bit word.
func (r *Register) Shift() uint32 { return (r.Address & 3) * 8 }

// ReadOnlyBits returns the bits of the register belonging to read-only
// fields.
func (r *Register) ReadOnlyBits() uint32 {
	var m uint32
	for _, f := range r.Fields {
		if f.Access == AccessReadOnly {
			m |= f.Mask() << f.BitOffset
		}
	}
	return m
}

type Field struct {
	Name        string
	Description string
	BitOffset   uint32
	BitWidth    uint32
	Access      Access
	Enums       []EnumValue
}

// Mask returns the right-aligned mask of the field.
func (f *Field) Mask() uint32 {
	if f.BitWidth >= 32 {
		return 0xFFFFFFFF
	}
	return 1<<f.BitWidth - 1
}

type EnumValue struct {
	Name        string
	Description string
	Value       uint32
}

// Peripheral returns the peripheral with the given name, or nil. Names are
// matched case-insensitively.
func (d *Device) Peripheral(name string) *Peripheral {
	for _, p := range d.Peripherals {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}
