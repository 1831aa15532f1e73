// Package reg provides typed access to bitfields of memory-mapped 32-bit
// registers.
//
// A bitfield is described by a Field: the register address, the field mask
// (right-aligned) and the field bit offset. The access policy is the type
// parameter of the field, so that reading a write-only field or writing a
// read-only one does not compile:
//
//	var (
//		CR_EN   = reg.Field[reg.ReadWrite]{Addr: 0x4001_0000, Mask: 0x1, Offset: 0}
//		SR_BUSY = reg.Field[reg.ReadOnly]{Addr: 0x4001_0004, Mask: 0x1, Offset: 7}
//	)
//
//	reg.Write(bus, CR_EN, 1)
//	busy := reg.Read(bus, SR_BUSY)
//	reg.Write(bus, SR_BUSY, 0) // compile error: ReadOnly does not satisfy Writable
//
// Registers are reached through a hwio.BankIO32, typically a hwio.Mmap of
// /dev/mem on real hardware, or a hwio.Table of simulated registers.
//
// Writes are read-modify-write sequences and are not atomic: a modification
// of the same register by another goroutine, an interrupt handler or the
// hardware itself between the read and the write is lost. Callers sharing a
// register across goroutines must serialize accesses themselves.
package reg
