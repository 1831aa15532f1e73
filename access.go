package main

import (
	"strconv"

	"github.com/go-faster/errors"

	"mmreg/hw/hwio"
	"mmreg/hw/reg"
	"mmreg/svd"
)

// The access policy of an SVD entry is only known at run time, so the
// command line tools pick the field type after checking it.

func readEntry(bus hwio.BankIO32, e svd.Entry, peek bool) (uint32, error) {
	if !e.Access().CanRead() {
		return 0, errors.Errorf("%s is %s", e, e.Access().SVDName())
	}
	f := reg.Field[reg.ReadOnly]{Addr: e.Addr(), Mask: e.Mask(), Offset: e.Offset()}
	if peek {
		return reg.Peek(bus, f), nil
	}
	return reg.Read(bus, f), nil
}

func writeEntry(bus hwio.BankIO32, e svd.Entry, val uint32) error {
	if val&^e.Mask() != 0 {
		return errors.Errorf("value 0x%x overflows %s (mask 0x%x)", val, e, e.Mask())
	}
	switch e.Access() {
	case svd.AccessReadWrite:
		reg.Write(bus, reg.Field[reg.ReadWrite]{Addr: e.Addr(), Mask: e.Mask(), Offset: e.Offset()}, val)
	case svd.AccessWriteOnly:
		reg.Write(bus, reg.Field[reg.WriteOnly]{Addr: e.Addr(), Mask: e.Mask(), Offset: e.Offset()}, val)
	default:
		return errors.Errorf("%s is %s", e, e.Access().SVDName())
	}
	return nil
}

func parseValue(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.Errorf("invalid value %q", s)
	}
	return uint32(v), nil
}

// mapEntry maps the physical memory word holding e.
func mapEntry(device string, e svd.Entry) (*hwio.Mmap, error) {
	return hwio.OpenMmap(device, e.Addr(), 4)
}
