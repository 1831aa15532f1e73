package svd

import (
	"cmp"
	"slices"
	"strings"

	"mmreg/log"
)

// Word is an aligned 32-bit word of a peripheral. It holds a single register
// or several registers narrower than 32 bits, each at its Shift.
type Word struct {
	Addr      uint32
	Registers []*Register
}

// Name joins the names of the registers of the word.
func (w Word) Name() string {
	names := make([]string, len(w.Registers))
	for i, r := range w.Registers {
		names[i] = r.Name
	}
	return strings.Join(names, "_")
}

// Bits returns the bits of the word covered by a register.
func (w Word) Bits() uint32 {
	var m uint32
	for _, r := range w.Registers {
		m |= r.Mask() << r.Shift()
	}
	return m
}

// Reset returns the reset value of the word.
func (w Word) Reset() uint32 {
	var v uint32
	for _, r := range w.Registers {
		v |= (r.ResetValue & r.Mask()) << r.Shift()
	}
	return v
}

// Writable returns the bits of the word that can be modified by a write:
// the bits of non read-only registers, minus their read-only fields.
func (w Word) Writable() uint32 {
	var m uint32
	for _, r := range w.Registers {
		if r.Access == AccessReadOnly {
			continue
		}
		m |= (r.Mask() &^ r.ReadOnlyBits()) << r.Shift()
	}
	return m
}

// Access returns the access shared by all the registers of the word, or
// read-write if they differ.
func (w Word) Access() Access {
	a := w.Registers[0].Access
	for _, r := range w.Registers[1:] {
		if r.Access != a {
			return AccessReadWrite
		}
	}
	return a
}

// Words groups the registers of p by aligned 32-bit word, in address order.
// A register overlapping the bits of one already in its word is left out.
func (p *Peripheral) Words() []Word {
	regs := slices.Clone(p.Registers)
	slices.SortStableFunc(regs, func(a, b *Register) int { return cmp.Compare(a.Address, b.Address) })

	var words []Word
	for _, r := range regs {
		if n := len(words); n != 0 && words[n-1].Addr == r.WordAddr() {
			w := &words[n-1]
			if w.Bits()&(r.Mask()<<r.Shift()) != 0 {
				log.ModSVD.WarnZ("overlapping register, skipped").
					String("peripheral", p.Name).
					String("reg", r.Name).
					Hex32("addr", r.Address).
					End()
				continue
			}
			w.Registers = append(w.Registers, r)
			continue
		}
		words = append(words, Word{Addr: r.WordAddr(), Registers: []*Register{r}})
	}
	return words
}
