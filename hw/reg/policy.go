package reg

import "mmreg/hw/hwio"

// Policy is implemented by the access policies of this package: ReadWrite,
// WriteOnly and ReadOnly. It cannot be implemented outside of it.
type Policy interface {
	policy()
}

// Readable is satisfied by the policies allowing reads.
type Readable interface {
	Policy
	read(bus hwio.BankIO32, addr, mask, offset uint32, peek bool) uint32
}

// Writable is satisfied by the policies allowing writes.
type Writable interface {
	Policy
	write(bus hwio.BankIO32, addr, mask, offset, val uint32)
}

// ReadWrite fields can be read and written.
type ReadWrite struct{}

// WriteOnly fields can only be written, they model registers where reading
// back is undefined (write-to-clear, command registers).
type WriteOnly struct{}

// ReadOnly fields can only be read (status and identification registers).
type ReadOnly struct{}

func (ReadWrite) policy() {}
func (WriteOnly) policy() {}
func (ReadOnly) policy() {}

func (ReadWrite) read(bus hwio.BankIO32, addr, mask, offset uint32, peek bool) uint32 {
	return Extract(bus.Read32(addr, peek), mask, offset)
}

func (ReadWrite) write(bus hwio.BankIO32, addr, mask, offset, val uint32) {
	bus.Write32(addr, Insert(bus.Read32(addr, false), mask, offset, val))
}

// The register can't be read architecturally, the read half of the
// read-modify-write is a peek.
func (WriteOnly) write(bus hwio.BankIO32, addr, mask, offset, val uint32) {
	bus.Write32(addr, Insert(bus.Read32(addr, true), mask, offset, val))
}

func (ReadOnly) read(bus hwio.BankIO32, addr, mask, offset uint32, peek bool) uint32 {
	return Extract(bus.Read32(addr, peek), mask, offset)
}
