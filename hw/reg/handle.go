package reg

import "mmreg/hw/hwio"

// RW is a read-write field bound to a bus.
type RW struct {
	bus hwio.BankIO32
	f   Field[ReadWrite]
}

func NewRW(bus hwio.BankIO32, f Field[ReadWrite]) RW { return RW{bus: bus, f: f} }

func (r RW) Read() uint32 { return Read(r.bus, r.f) }
func (r RW) Peek() uint32 { return Peek(r.bus, r.f) }
func (r RW) Write(val uint32) { Write(r.bus, r.f, val) }
func (r RW) Field() Field[ReadWrite] { return r.f }

// RO is a read-only field bound to a bus. It has no Write method.
type RO struct {
	bus hwio.BankIO32
	f   Field[ReadOnly]
}

func NewRO(bus hwio.BankIO32, f Field[ReadOnly]) RO { return RO{bus: bus, f: f} }

func (r RO) Read() uint32 { return Read(r.bus, r.f) }
func (r RO) Peek() uint32 { return Peek(r.bus, r.f) }
func (r RO) Field() Field[ReadOnly] { return r.f }

// WO is a write-only field bound to a bus. It has no Read method.
type WO struct {
	bus hwio.BankIO32
	f   Field[WriteOnly]
}

func NewWO(bus hwio.BankIO32, f Field[WriteOnly]) WO { return WO{bus: bus, f: f} }

func (r WO) Write(val uint32) { Write(r.bus, r.f, val) }
func (r WO) Field() Field[WriteOnly] { return r.f }
