// Package gen generates Go register definitions from SVD device
// descriptions. For every register of every peripheral it declares a
// reg.Field for the whole register and one per bitfield, typed with the
// access policy found in the description.
//
// Fields address the aligned 32-bit word holding their register: an 8 or
// 16-bit register that isn't word-aligned gets the word address and an
// offset shifted by its position in the word.
//
// With Options.Banks, it also declares per peripheral an hwio-tagged struct
// simulating the register words, to be mapped on an hwio.Table with MapBank.
package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/go-faster/errors"

	"mmreg/log"
	"mmreg/svd"
)

const (
	DefaultRegImport  = "mmreg/hw/reg"
	DefaultHwioImport = "mmreg/hw/hwio"
)

// Options control the generated source.
type Options struct {
	Package     string   // package name of the generated file
	Source      string   // name of the SVD file, for the header
	Peripherals []string // only generate these peripherals (all if empty)
	Enums       bool     // generate constants for enumerated values
	RegImport   string   // import path of the reg package (default DefaultRegImport)
	Banks       bool     // generate simulated register banks
	HwioImport  string   // import path of the hwio package (default DefaultHwioImport)
}

type decl struct {
	Name    string
	Comment string
	Value   string
}

type block struct {
	Comment string
	Consts  []decl
	Fields  []decl
	Enums   []decl
	Bank    *bank
}

// bank is the simulated register bank of a peripheral. Value of its decls
// holds the hwio struct tag.
type bank struct {
	Type   string
	Periph string
	Base   string
	Regs   []decl
	Mems   []decl
}

type fileData struct {
	Source     string
	Package    string
	Device     string
	DevDesc    string
	RegImport  string // empty if no field is declared
	HwioImport string // empty if no bank is declared
	Blocks     []block
}

var fileTmpl = template.Must(template.New("file").Parse(`// Code generated by mmreg gen{{if .Source}} from {{.Source}}{{end}}; DO NOT EDIT.

// Package {{.Package}} describes the memory-mapped registers of the {{.Device}} device.
{{- if .DevDesc}}
//
// {{.DevDesc}}
{{- end}}
package {{.Package}}

import (
{{- if .HwioImport}}
	"{{.HwioImport}}"
{{- end}}
{{- if .RegImport}}
	"{{.RegImport}}"
{{- end}}
)
{{range .Blocks}}
// {{.Comment}}
const (
{{- range .Consts}}
	{{.Name}} = {{.Value}}{{if .Comment}} // {{.Comment}}{{end}}
{{- end}}
)
{{if .Fields}}
var (
{{- range .Fields}}
{{- if .Comment}}
	// {{.Comment}}
{{- end}}
	{{.Name}} = {{.Value}}
{{- end}}
)
{{end}}
{{- if .Enums}}
const (
{{- range .Enums}}
	{{.Name}} = {{.Value}}{{if .Comment}} // {{.Comment}}{{end}}
{{- end}}
)
{{end}}
{{- with .Bank}}
// {{.Type}} simulates the {{.Periph}} registers. Map it at {{.Base}} with
// hwio.Table.MapBank.
type {{.Type}} struct {
{{- range .Regs}}
	{{.Name}} hwio.Reg32 ` + "`" + `hwio:"{{.Value}}"` + "`" + `{{if .Comment}} // {{.Comment}}{{end}}
{{- end}}
{{- range .Mems}}
	{{.Name}} hwio.Mem ` + "`" + `hwio:"{{.Value}}"` + "`" + `
{{- end}}
}

// New{{.Type}} returns a {{.Periph}} register bank holding the reset values.
func New{{.Type}}() *{{.Type}} {
	b := new({{.Type}})
	hwio.MustInitRegs(b)
	return b
}
{{end}}
{{- end}}`))

// PackageName turns a device or file name into a valid package name.
func PackageName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + 'a' - 'A'
		}
		return -1
	}, name)
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		name = "regs" + name
	}
	return name
}

// ident turns an SVD name into a Go identifier.
func ident(parts ...string) string {
	s := strings.Join(parts, "_")
	if s == "" || !unicode.IsLetter(rune(s[0])) {
		s = "X" + s
	}
	return s
}

// exported turns an SVD name into an exported Go identifier.
func exported(name string) string {
	if name == "" {
		return "R"
	}
	r := rune(name[0])
	switch {
	case unicode.IsUpper(r):
		return name
	case unicode.IsLower(r):
		return string(unicode.ToUpper(r)) + name[1:]
	}
	return "R" + name
}

func policy(a svd.Access) string {
	switch a {
	case svd.AccessReadOnly:
		return "reg.ReadOnly"
	case svd.AccessWriteOnly:
		return "reg.WriteOnly"
	}
	return "reg.ReadWrite"
}

func fieldDecl(name, comment string, a svd.Access, addr, mask, offset uint32) decl {
	return decl{
		Name:    name,
		Comment: comment,
		Value:   fmt.Sprintf("reg.Field[%s]{Addr: 0x%08x, Mask: 0x%x, Offset: %d}", policy(a), addr, mask, offset),
	}
}

// Generate returns the gofmt'ed Go source declaring the registers of dev.
func Generate(dev *svd.Device, opts Options) ([]byte, error) {
	if opts.Package == "" {
		opts.Package = PackageName(dev.Name)
	}
	if opts.RegImport == "" {
		opts.RegImport = DefaultRegImport
	}
	if opts.HwioImport == "" {
		opts.HwioImport = DefaultHwioImport
	}

	periphs := dev.Peripherals
	if len(opts.Peripherals) != 0 {
		periphs = nil
		for _, name := range opts.Peripherals {
			p := dev.Peripheral(name)
			if p == nil {
				return nil, errors.Errorf("unknown peripheral %q", name)
			}
			periphs = append(periphs, p)
		}
	}

	data := fileData{
		Package: opts.Package,
		Device:  dev.Name,
		DevDesc: dev.Description,
	}
	if opts.Source != "" {
		data.Source = filepath.Base(opts.Source)
	}

	seen := make(map[string]bool)
	unique := func(d decl) bool {
		if seen[d.Name] {
			log.ModGen.WarnZ("duplicate identifier, skipped").String("name", d.Name).End()
			return false
		}
		seen[d.Name] = true
		return true
	}

	for _, p := range periphs {
		b := block{Comment: p.Name}
		if p.Description != "" {
			b.Comment += ": " + p.Description
		}

		// Fields first: the constants get whatever identifiers are left.
		for _, r := range p.Registers {
			rname := ident(p.Name, r.Name)
			if d := fieldDecl(rname, r.Description, r.Access, r.WordAddr(), r.Mask(), r.Shift()); unique(d) {
				b.Fields = append(b.Fields, d)
			}

			for _, f := range r.Fields {
				if f.BitWidth == 0 {
					continue
				}
				fname := rname + "_" + f.Name
				if d := fieldDecl(fname, f.Description, f.Access, r.WordAddr(), f.Mask(), r.Shift()+f.BitOffset); unique(d) {
					b.Fields = append(b.Fields, d)
				}
				if !opts.Enums {
					continue
				}
				for _, ev := range f.Enums {
					d := decl{Name: fname + "_" + ev.Name, Value: fmt.Sprintf("0x%x", ev.Value), Comment: ev.Description}
					if unique(d) {
						b.Enums = append(b.Enums, d)
					}
				}
			}
		}

		if d := (decl{Name: ident(p.Name, "BASE"), Value: fmt.Sprintf("0x%08x", p.BaseAddress)}); unique(d) {
			b.Consts = append(b.Consts, d)
		}
		for _, r := range p.Registers {
			d := decl{Name: ident(p.Name, r.Name, "RESETVALUE"), Value: fmt.Sprintf("0x%08x", r.ResetValue)}
			if unique(d) {
				b.Consts = append(b.Consts, d)
			}
		}

		if len(b.Fields) != 0 {
			data.RegImport = opts.RegImport
		}
		if opts.Banks {
			b.Bank = newBank(p, unique)
			if b.Bank != nil {
				data.HwioImport = opts.HwioImport
			}
		}
		data.Blocks = append(data.Blocks, b)
	}

	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, "execute template")
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "format generated source")
	}

	log.ModGen.DebugZ("generated").
		String("device", dev.Name).
		Int("peripherals", len(periphs)).
		Int("identifiers", len(seen)).
		End()
	return src, nil
}

// newBank returns the simulated register bank of p, or nil if p has nothing
// to simulate.
func newBank(p *svd.Peripheral, unique func(decl) bool) *bank {
	if p.BaseAddress&3 != 0 {
		log.ModGen.WarnZ("unaligned peripheral, no bank generated").
			String("peripheral", p.Name).
			Hex32("base", p.BaseAddress).
			End()
		return nil
	}

	bk := &bank{
		Type:   ident(p.Name, "Bank"),
		Periph: p.Name,
		Base:   ident(p.Name, "BASE"),
	}

	words := p.Words()
	for _, w := range words {
		tag := fmt.Sprintf("offset=0x%x,reset=0x%x,rwmask=0x%x", w.Addr-p.BaseAddress, w.Reset(), w.Writable())
		switch w.Access() {
		case svd.AccessReadOnly:
			tag += ",readonly"
		case svd.AccessWriteOnly:
			tag += ",writeonly"
		}
		d := decl{Name: exported(w.Name()), Value: tag}
		if len(w.Registers) > 1 {
			d.Comment = "packed registers"
		}
		bk.Regs = append(bk.Regs, d)
	}

	type span struct{ begin, end uint32 }
	var taken []span
	for _, w := range words {
		taken = append(taken, span{w.Addr - p.BaseAddress, w.Addr - p.BaseAddress + 3})
	}
	for i, blk := range p.Blocks {
		if blk.Usage != "buffer" || blk.Size < 4 {
			continue
		}
		cur := span{blk.Offset, blk.Offset + blk.Size - 1}
		if slices.ContainsFunc(taken, func(s span) bool { return s.begin <= cur.end && s.end >= cur.begin }) {
			log.ModGen.WarnZ("overlapping buffer, not simulated").
				String("peripheral", p.Name).
				Hex32("offset", blk.Offset).
				End()
			continue
		}
		taken = append(taken, cur)

		// hwio.Mem needs a power of 2 number of words.
		n := uint32(1)
		for n < blk.Size/4 {
			n <<= 1
		}
		name := "Buffer"
		if i != 0 {
			name += strconv.Itoa(i)
		}
		tag := fmt.Sprintf("offset=0x%x,size=0x%x", blk.Offset, n*4)
		if n*4 != blk.Size {
			tag += fmt.Sprintf(",vsize=0x%x", blk.Size)
		}
		bk.Mems = append(bk.Mems, decl{Name: name, Value: tag})
	}

	if len(bk.Regs) == 0 && len(bk.Mems) == 0 {
		return nil
	}
	// The constructor shares the namespace of the other declarations.
	if !unique(decl{Name: bk.Type}) || !unique(decl{Name: "New" + bk.Type}) {
		return nil
	}
	return bk
}
