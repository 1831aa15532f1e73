package svd

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

// Entry is a register, or a field of a register, found by Device.Lookup.
type Entry struct {
	Peripheral *Peripheral
	Register   *Register
	Field      *Field // nil for a whole register
}

// Addr returns the address of the aligned 32-bit word holding the entry.
func (e Entry) Addr() uint32 { return e.Register.WordAddr() }

func (e Entry) Mask() uint32 {
	if e.Field != nil {
		return e.Field.Mask()
	}
	return e.Register.Mask()
}

// Offset returns the position of the entry in the word at Addr.
func (e Entry) Offset() uint32 {
	if e.Field != nil {
		return e.Register.Shift() + e.Field.BitOffset
	}
	return e.Register.Shift()
}

func (e Entry) Access() Access {
	if e.Field != nil {
		return e.Field.Access
	}
	return e.Register.Access
}

func (e Entry) String() string {
	s := e.Peripheral.Name + "." + e.Register.Name
	if e.Field != nil {
		s += "." + e.Field.Name
	}
	return s
}

// Describe returns a one-line human readable description of the entry.
func (e Entry) Describe() string {
	s := fmt.Sprintf("%s @ 0x%08x", e, e.Register.Address)
	if e.Field != nil {
		lsb := e.Field.BitOffset
		s += fmt.Sprintf(" [%d:%d]", lsb+e.Field.BitWidth-1, lsb)
	}
	s += " " + e.Access().SVDName()
	desc := e.Register.Description
	if e.Field != nil {
		desc = e.Field.Description
	}
	if desc != "" {
		s += " (" + desc + ")"
	}
	return s
}

// Lookup finds a register ("PERIPH.REG") or a field ("PERIPH.REG.FIELD").
// Names are matched case-insensitively.
func (d *Device) Lookup(path string) (Entry, error) {
	parts := strings.Split(path, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Entry{}, errors.Errorf("invalid path %q, want PERIPH.REG[.FIELD]", path)
	}

	var e Entry
	for _, p := range d.Peripherals {
		if strings.EqualFold(p.Name, parts[0]) {
			e.Peripheral = p
			break
		}
	}
	if e.Peripheral == nil {
		return Entry{}, errors.Errorf("%s: unknown peripheral %q", path, parts[0])
	}

	for _, r := range e.Peripheral.Registers {
		if strings.EqualFold(r.Name, parts[1]) {
			e.Register = r
			break
		}
	}
	if e.Register == nil {
		return Entry{}, errors.Errorf("%s: unknown register %q in %s", path, parts[1], e.Peripheral.Name)
	}
	if len(parts) == 2 {
		return e, nil
	}

	for _, f := range e.Register.Fields {
		if strings.EqualFold(f.Name, parts[2]) {
			e.Field = f
			return e, nil
		}
	}
	return Entry{}, errors.Errorf("%s: unknown field %q in %s.%s", path, parts[2], e.Peripheral.Name, e.Register.Name)
}
