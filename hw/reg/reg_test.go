package reg

import (
	"math/rand/v2"
	"reflect"
	"testing"

	"mmreg/hw/hwio"
)

// wordBus is a sparse word-addressed bus recording accesses.
type wordBus struct {
	words  map[uint32]uint32
	reads  int
	peeks  int
	writes int
}

func newWordBus() *wordBus {
	return &wordBus{words: make(map[uint32]uint32)}
}

func (b *wordBus) Read32(addr uint32, peek bool) uint32 {
	if peek {
		b.peeks++
	} else {
		b.reads++
	}
	return b.words[addr]
}

func (b *wordBus) Write32(addr uint32, val uint32) {
	b.writes++
	b.words[addr] = val
}

func TestWriteReadScenario(t *testing.T) {
	bus := newWordBus()
	bus.words[0x4000_0000] = 0xFFFFFFFF

	f := Field[ReadWrite]{Addr: 0x4000_0000, Mask: 0x0F, Offset: 4}
	Write(bus, f, 0xA5)

	if got := bus.words[0x4000_0000]; got != 0xFFFFFF5F {
		t.Errorf("register = %08X, want FFFFFF5F", got)
	}
	if got := Read(bus, f); got != 0x05 {
		t.Errorf("Read() = %X, want 5", got)
	}
	if bus.writes != 1 {
		t.Errorf("Write performed %d bus writes, want 1", bus.writes)
	}
}

func TestWritePreservesOtherBits(t *testing.T) {
	for range 10000 {
		mask := rand.Uint32()
		offset := rand.Uint32N(32)
		initial := rand.Uint32()
		val := rand.Uint32()

		bus := newWordBus()
		bus.words[0x100] = initial

		f := Field[WriteOnly]{Addr: 0x100, Mask: mask, Offset: offset}
		Write(bus, f, val)

		outside := ^(mask << offset)
		got := bus.words[0x100]
		if got&outside != initial&outside {
			t.Fatalf("Write(%08x) mask=%08x offset=%d initial=%08x: register=%08x, bits outside the field changed",
				val, mask, offset, initial, got)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for range 10000 {
		offset := rand.Uint32N(32)
		width := rand.UintN(33 - uint(offset))
		mask := uint32(uint64(1)<<width - 1)
		val := rand.Uint32()

		bus := newWordBus()
		bus.words[0] = rand.Uint32()

		f := Field[ReadWrite]{Mask: mask, Offset: offset}
		Write(bus, f, val)
		if got := Read(bus, f); got != val&mask {
			t.Fatalf("mask=%08x offset=%d: Write(%08x); Read() = %08x, want %08x",
				mask, offset, val, got, val&mask)
		}
	}
}

func TestWriteIdempotent(t *testing.T) {
	for range 1000 {
		f := Field[ReadWrite]{Addr: 8, Mask: rand.Uint32(), Offset: rand.Uint32N(32)}
		val := rand.Uint32()
		initial := rand.Uint32()

		once, twice := newWordBus(), newWordBus()
		once.words[8], twice.words[8] = initial, initial

		Write(once, f, val)
		Write(twice, f, val)
		Write(twice, f, val)
		if once.words[8] != twice.words[8] {
			t.Fatalf("Write twice = %08x, once = %08x", twice.words[8], once.words[8])
		}
	}
}

func TestOverflowingFieldTruncates(t *testing.T) {
	bus := newWordBus()
	f := Field[ReadWrite]{Mask: 0xFF, Offset: 30}

	Write(bus, f, 0xFF)
	if got := bus.words[0]; got != 0xC000_0000 {
		t.Errorf("register = %08x, want c0000000", got)
	}
	if got := Read(bus, f); got != 0x3 {
		t.Errorf("Read() = %x, want 3", got)
	}
}

func TestPeek(t *testing.T) {
	bus := newWordBus()
	bus.words[4] = 0xF0

	if got := Peek(bus, Field[ReadOnly]{Addr: 4, Mask: 0xF, Offset: 4}); got != 0xF {
		t.Errorf("Peek() = %x, want f", got)
	}
	if bus.peeks != 1 || bus.reads != 0 {
		t.Errorf("Peek: %d peeks, %d reads, want 1 peek and no read", bus.peeks, bus.reads)
	}
}

func TestHandles(t *testing.T) {
	bus := newWordBus()

	rw := NewRW(bus, Field[ReadWrite]{Addr: 0, Mask: 0x3, Offset: 2})
	rw.Write(0x7)
	if got := rw.Read(); got != 0x3 {
		t.Errorf("RW.Read() = %x, want 3", got)
	}
	if got := rw.Peek(); got != 0x3 {
		t.Errorf("RW.Peek() = %x, want 3", got)
	}

	ro := NewRO(bus, Field[ReadOnly]{Addr: 0, Mask: 0xF, Offset: 0})
	if got := ro.Read(); got != 0xC {
		t.Errorf("RO.Read() = %x, want c", got)
	}

	wo := NewWO(bus, Field[WriteOnly]{Addr: 0, Mask: 0x1, Offset: 31})
	wo.Write(1)
	if got := bus.words[0]; got != 0x8000_000C {
		t.Errorf("register = %08x, want 8000000c", got)
	}
	if wo.Field().Offset != 31 || ro.Field().Mask != 0xF || rw.Field().Addr != 0 {
		t.Errorf("Field() does not return the bound field")
	}
}

// Capabilities are part of the types: the compiler rejects
//
//	Read(bus, Field[WriteOnly]{})
//	Write(bus, Field[ReadOnly]{})
//	NewWO(bus, f).Read()
//
// These tests check the method sets that enforce it.
func TestCapabilities(t *testing.T) {
	tests := []struct {
		policy   Policy
		readable bool
		writable bool
	}{
		{ReadWrite{}, true, true},
		{WriteOnly{}, false, true},
		{ReadOnly{}, true, false},
	}
	for _, tt := range tests {
		t.Run(reflect.TypeOf(tt.policy).Name(), func(t *testing.T) {
			if _, ok := tt.policy.(Readable); ok != tt.readable {
				t.Errorf("implements Readable = %t, want %t", ok, tt.readable)
			}
			if _, ok := tt.policy.(Writable); ok != tt.writable {
				t.Errorf("implements Writable = %t, want %t", ok, tt.writable)
			}
		})
	}

	handles := []struct {
		typ         reflect.Type
		read, write bool
	}{
		{reflect.TypeFor[RW](), true, true},
		{reflect.TypeFor[RO](), true, false},
		{reflect.TypeFor[WO](), false, true},
	}
	for _, h := range handles {
		if _, ok := h.typ.MethodByName("Read"); ok != h.read {
			t.Errorf("%s has Read method = %t, want %t", h.typ.Name(), ok, h.read)
		}
		if _, ok := h.typ.MethodByName("Peek"); ok != h.read {
			t.Errorf("%s has Peek method = %t, want %t", h.typ.Name(), ok, h.read)
		}
		if _, ok := h.typ.MethodByName("Write"); ok != h.write {
			t.Errorf("%s has Write method = %t, want %t", h.typ.Name(), ok, h.write)
		}
	}
}

func TestFieldString(t *testing.T) {
	tests := []struct {
		f    Field[ReadWrite]
		want string
	}{
		{Field[ReadWrite]{Addr: 0x4002_0000, Mask: 0xF, Offset: 4}, "0x40020000[7:4]"},
		{Field[ReadWrite]{Addr: 0x10, Mask: 0x1, Offset: 3}, "0x00000010[3]"},
		{Field[ReadWrite]{Addr: 0x10, Mask: 0xFFFFFFFF}, "0x00000010[31:0]"},
		{Field[ReadWrite]{Addr: 0x10}, "0x00000010[]"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	f := Field[ReadWrite]{Mask: 0x7, Offset: 8}
	if f.Width() != 3 || f.Bits() != 0x700 {
		t.Errorf("Width() = %d, Bits() = %x, want 3 and 700", f.Width(), f.Bits())
	}
}

func TestOverSimulatedRegister(t *testing.T) {
	// A status register with a write-1-to-clear interrupt flag and read-only
	// upper half, mapped on a table.
	sr := &hwio.Reg32{Name: "SR", Value: 0xABCD_0003, RoMask: 0xFFFF_0000}
	sr.WriteCb = func(old, val uint32) { sr.Value = hwio.W1C(old, val&0x1) | val&^0x1 }

	bus := hwio.NewTable("test")
	bus.MapReg32(0x4000_0000, sr)

	id := Field[ReadOnly]{Addr: 0x4000_0000, Mask: 0xFFFF, Offset: 16}
	flag := Field[ReadWrite]{Addr: 0x4000_0000, Mask: 0x1, Offset: 0}

	if got := Read(bus, id); got != 0xABCD {
		t.Errorf("ID = %x, want abcd", got)
	}
	Write(bus, flag, 1)
	if got := Read(bus, flag); got != 0 {
		t.Errorf("flag after W1C = %x, want 0", got)
	}
	if got := bus.Read32(0x4000_0000, false); got != 0xABCD_0002 {
		t.Errorf("SR = %08x, want abcd0002", got)
	}
}
