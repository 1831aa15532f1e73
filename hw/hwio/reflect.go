package hwio

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type regInfo struct {
	offset uint32
	regPtr any
}

type tagOpts map[string]string

func parseTag(tag string) tagOpts {
	opts := make(tagOpts)
	for _, kv := range strings.Split(tag, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		opts[k] = v
	}
	return opts
}

func (o tagOpts) uint32(key string) (uint32, bool, error) {
	s, ok := o[key]
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, true, fmt.Errorf("invalid %s=%q: %w", key, s, err)
	}
	return uint32(v), true, nil
}

var (
	typReg32  = reflect.TypeFor[Reg32]()
	typMem    = reflect.TypeFor[Mem]()
	typDevice = reflect.TypeFor[Device]()
)

// regFields iterates over the hwio-tagged fields of the struct pointed by
// ptr, calling fn for each of them.
func regFields(ptr any, fn func(f reflect.StructField, v reflect.Value, opts tagOpts) error) error {
	pv := reflect.ValueOf(ptr)
	if pv.Kind() != reflect.Pointer || pv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("invalid type %T: must be a pointer to struct", ptr)
	}
	sv := pv.Elem()
	for i := range sv.NumField() {
		f := sv.Type().Field(i)
		tag, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		if err := fn(f, sv.Field(i), parseTag(tag)); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

func bankGetRegs(bank any, bankNum int) ([]regInfo, error) {
	var regs []regInfo
	err := regFields(bank, func(f reflect.StructField, v reflect.Value, opts tagOpts) error {
		num := 0
		if s, ok := opts["bank"]; ok {
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("invalid bank=%q: %w", s, err)
			}
			num = n
		}
		if num != bankNum {
			return nil
		}
		off, ok, err := opts.uint32("offset")
		if err != nil || !ok {
			return err
		}
		regs = append(regs, regInfo{offset: off, regPtr: v.Addr().Interface()})
		return nil
	})
	return regs, err
}

// lookupCb returns the method of the bank named name (if the tag value is
// empty, the default name is used) converted to type T.
func lookupCb[T any](bank reflect.Value, opts tagOpts, key, defname string) (T, error) {
	var zero T
	name, ok := opts[key]
	if !ok {
		return zero, nil
	}
	if name == "" {
		name = defname
	}
	m := bank.MethodByName(name)
	if !m.IsValid() {
		return zero, fmt.Errorf("%s: method %s not found", key, name)
	}
	cb, ok := m.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("%s: method %s has type %s, want %T", key, name, m.Type(), zero)
	}
	return cb, nil
}

func rwFlags(opts tagOpts) RWFlags {
	var flags RWFlags
	if _, ok := opts["readonly"]; ok {
		flags |= ReadOnlyFlag
	}
	if _, ok := opts["writeonly"]; ok {
		flags |= WriteOnlyFlag
	}
	return flags
}

// InitRegs initializes all the hwio-tagged Reg32, Mem and Device fields of
// the struct pointed by bank. On top of the offset/bank options used by
// Table.MapBank, the tag accepts:
//
//	reset=0x12      Initial value of a Reg32.
//	rwmask=0xF0     Bits of a Reg32 writable through the bus (default all).
//	size=0x100      Size in bytes of a Mem (allocated) or a Device.
//	vsize=0x400     Virtual size of a Mem (default: size).
//	readonly        Access flags (Reg32, Device, Mem).
//	writeonly
//	rcb[=Name]      Bind callbacks to methods of the bank. Default method
//	wcb[=Name]      names are ReadXXX, WriteXXX and PeekXXX, where XXX is
//	pcb[=Name]      the upper-cased field name.
func InitRegs(bank any) error {
	bv := reflect.ValueOf(bank)
	return regFields(bank, func(f reflect.StructField, v reflect.Value, opts tagOpts) error {
		upper := strings.ToUpper(f.Name)
		switch f.Type {
		case typReg32:
			return initReg32(v.Addr().Interface().(*Reg32), f.Name, upper, bv, opts)
		case typMem:
			return initMem(v.Addr().Interface().(*Mem), f.Name, upper, bv, opts)
		case typDevice:
			return initDevice(v.Addr().Interface().(*Device), f.Name, upper, bv, opts)
		}
		return fmt.Errorf("invalid hwio field type %s", f.Type)
	})
}

// MustInitRegs is like InitRegs but panics on error.
func MustInitRegs(bank any) {
	if err := InitRegs(bank); err != nil {
		panic(err)
	}
}

func initReg32(reg *Reg32, name, upper string, bank reflect.Value, opts tagOpts) error {
	reg.Name = name
	reg.Flags = rwFlags(opts)

	reset, _, err := opts.uint32("reset")
	if err != nil {
		return err
	}
	reg.Value = reset

	rwmask, ok, err := opts.uint32("rwmask")
	if err != nil {
		return err
	}
	if ok {
		reg.RoMask = ^rwmask
	}

	if reg.ReadCb, err = lookupCb[func(uint32) uint32](bank, opts, "rcb", "Read"+upper); err != nil {
		return err
	}
	if reg.PeekCb, err = lookupCb[func(uint32) uint32](bank, opts, "pcb", "Peek"+upper); err != nil {
		return err
	}
	reg.WriteCb, err = lookupCb[func(uint32, uint32)](bank, opts, "wcb", "Write"+upper)
	return err
}

func initMem(mem *Mem, name, upper string, bank reflect.Value, opts tagOpts) error {
	mem.Name = name

	size, ok, err := opts.uint32("size")
	if err != nil {
		return err
	}
	if !ok || size < 4 {
		return fmt.Errorf("missing or invalid size")
	}
	mem.Data = make([]uint32, size/4)
	mem.VSize = int(size)
	if vsize, ok, err := opts.uint32("vsize"); err != nil {
		return err
	} else if ok {
		mem.VSize = int(vsize)
	}

	if _, ok := opts["readonly"]; ok {
		mem.Flags |= MemFlagReadOnly
	}
	mem.WriteCb, err = lookupCb[func(uint32, uint32)](bank, opts, "wcb", "Write"+upper)
	return err
}

func initDevice(dev *Device, name, upper string, bank reflect.Value, opts tagOpts) error {
	dev.Name = name
	dev.Flags = rwFlags(opts)

	size, ok, err := opts.uint32("size")
	if err != nil {
		return err
	}
	if !ok || size == 0 {
		return fmt.Errorf("missing or invalid size")
	}
	dev.Size = int(size)

	if dev.ReadCb, err = lookupCb[func(uint32) uint32](bank, opts, "rcb", "Read"+upper); err != nil {
		return err
	}
	if dev.PeekCb, err = lookupCb[func(uint32) uint32](bank, opts, "pcb", "Peek"+upper); err != nil {
		return err
	}
	dev.WriteCb, err = lookupCb[func(uint32, uint32)](bank, opts, "wcb", "Write"+upper)
	return err
}
