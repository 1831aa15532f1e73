package svd

import (
	"fmt"
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

func hex32(v uint32) string { return fmt.Sprintf("0x%08x", v) }

// WriteJSON writes the resolved device as an indented JSON document.
func WriteJSON(w io.Writer, dev *Device) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.SetIdent(2)

	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(dev.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(dev.Description) })
		e.Field("peripherals", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range dev.Peripherals {
					encodePeripheral(e, p)
				}
			})
		})
	})

	if _, err := w.Write(append(e.Bytes(), '\n')); err != nil {
		return errors.Wrap(err, "write json")
	}
	return nil
}

func encodePeripheral(e *jx.Encoder, p *Peripheral) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		if p.Description != "" {
			e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		}
		if p.GroupName != "" {
			e.Field("group", func(e *jx.Encoder) { e.Str(p.GroupName) })
		}
		if p.DerivedFrom != "" {
			e.Field("derivedFrom", func(e *jx.Encoder) { e.Str(p.DerivedFrom) })
		}
		e.Field("baseAddress", func(e *jx.Encoder) { e.Str(hex32(p.BaseAddress)) })
		if len(p.Blocks) != 0 {
			e.Field("addressBlocks", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, b := range p.Blocks {
						e.Obj(func(e *jx.Encoder) {
							e.Field("offset", func(e *jx.Encoder) { e.Str(hex32(b.Offset)) })
							e.Field("size", func(e *jx.Encoder) { e.Str(hex32(b.Size)) })
							e.Field("usage", func(e *jx.Encoder) { e.Str(b.Usage) })
						})
					}
				})
			})
		}
		e.Field("registers", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, r := range p.Registers {
					encodeRegister(e, r)
				}
			})
		})
	})
}

func encodeRegister(e *jx.Encoder, r *Register) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(r.Name) })
		if r.Description != "" {
			e.Field("description", func(e *jx.Encoder) { e.Str(r.Description) })
		}
		e.Field("address", func(e *jx.Encoder) { e.Str(hex32(r.Address)) })
		e.Field("size", func(e *jx.Encoder) { e.UInt32(r.Size) })
		e.Field("access", func(e *jx.Encoder) { e.Str(r.Access.SVDName()) })
		e.Field("resetValue", func(e *jx.Encoder) { e.Str(hex32(r.ResetValue)) })
		if len(r.Fields) == 0 {
			return
		}
		e.Field("fields", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, f := range r.Fields {
					encodeField(e, f)
				}
			})
		})
	})
}

func encodeField(e *jx.Encoder, f *Field) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(f.Name) })
		if f.Description != "" {
			e.Field("description", func(e *jx.Encoder) { e.Str(f.Description) })
		}
		e.Field("bitOffset", func(e *jx.Encoder) { e.UInt32(f.BitOffset) })
		e.Field("bitWidth", func(e *jx.Encoder) { e.UInt32(f.BitWidth) })
		e.Field("access", func(e *jx.Encoder) { e.Str(f.Access.SVDName()) })
		if len(f.Enums) == 0 {
			return
		}
		e.Field("enums", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, ev := range f.Enums {
					e.Field(ev.Name, func(e *jx.Encoder) { e.UInt32(ev.Value) })
				}
			})
		})
	})
}
