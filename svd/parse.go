package svd

import (
	"encoding/xml"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"mmreg/log"
)

type xmlDevice struct {
	XMLName     xml.Name        `xml:"device"`
	Name        string          `xml:"name"`
	Description string          `xml:"description"`
	Size        string          `xml:"size"`
	Access      string          `xml:"access"`
	ResetValue  string          `xml:"resetValue"`
	Peripherals []xmlPeripheral `xml:"peripherals>peripheral"`
}

type xmlPeripheral struct {
	DerivedFrom string        `xml:"derivedFrom,attr"`
	Name        string        `xml:"name"`
	Description string        `xml:"description"`
	GroupName   string        `xml:"groupName"`
	BaseAddress string        `xml:"baseAddress"`
	Size        string        `xml:"size"`
	Access      string        `xml:"access"`
	ResetValue  string        `xml:"resetValue"`
	Blocks      []struct {
		Offset string `xml:"offset"`
		Size   string `xml:"size"`
		Usage  string `xml:"usage"`
	} `xml:"addressBlock"`
	Registers *xmlRegisters `xml:"registers"`
}

type xmlRegisters struct {
	Registers []xmlRegister `xml:"register"`
	Clusters  []struct {
		Name string `xml:"name"`
	} `xml:"cluster"`
}

type xmlDim struct {
	Dim          string `xml:"dim"`
	DimIncrement string `xml:"dimIncrement"`
	DimIndex     string `xml:"dimIndex"`
}

type xmlRegister struct {
	xmlDim
	DerivedFrom   string     `xml:"derivedFrom,attr"`
	Name          string     `xml:"name"`
	Description   string     `xml:"description"`
	AddressOffset string     `xml:"addressOffset"`
	Size          string     `xml:"size"`
	Access        string     `xml:"access"`
	ResetValue    string     `xml:"resetValue"`
	Fields        []xmlField `xml:"fields>field"`
}

type xmlField struct {
	xmlDim
	Name             string                `xml:"name"`
	Description      string                `xml:"description"`
	BitOffset        string                `xml:"bitOffset"`
	BitWidth         string                `xml:"bitWidth"`
	Lsb              string                `xml:"lsb"`
	Msb              string                `xml:"msb"`
	BitRange         string                `xml:"bitRange"`
	Access           string                `xml:"access"`
	EnumeratedValues []xmlEnumeratedValues `xml:"enumeratedValues"`
}

type xmlEnumeratedValues struct {
	Usage  string `xml:"usage"`
	Values []struct {
		Name        string `xml:"name"`
		Description string `xml:"description"`
		Value       string `xml:"value"`
		IsDefault   string `xml:"isDefault"`
	} `xml:"enumeratedValue"`
}

// ParseFile parses the SVD file at path.
func ParseFile(path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open svd")
	}
	defer f.Close()

	dev, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return dev, nil
}

// Parse reads an SVD description from r and resolves it into a Device.
func Parse(r io.Reader) (*Device, error) {
	var xd xmlDevice
	if err := xml.NewDecoder(r).Decode(&xd); err != nil {
		return nil, errors.Wrap(err, "decode xml")
	}
	return resolve(&xd)
}

var nonWord = regexp.MustCompile(`\W+`)

// sanitize removes all non-word characters, so that SVD names can be used as
// identifiers.
func sanitize(name string) string {
	return nonWord.ReplaceAllString(name, "")
}

// parseNum parses an SVD scaledNonNegativeInteger: decimal, 0x hexadecimal,
// or #binary (where 'x' don't care bits are taken as 0).
func parseNum(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	var (
		v   uint64
		err error
	)
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseUint(s[2:], 16, 32)
	case strings.HasPrefix(s, "#"):
		v, err = strconv.ParseUint(strings.NewReplacer("x", "0", "X", "0").Replace(s[1:]), 2, 32)
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		v, err = strconv.ParseUint(s[2:], 2, 32)
	default:
		v, err = strconv.ParseUint(s, 10, 32)
	}
	if err != nil {
		return 0, errors.Errorf("invalid number %q", s)
	}
	return uint32(v), nil
}

// props are the register properties inherited down the device hierarchy.
type props struct {
	size   uint32
	access Access
	reset  uint32
}

func (p props) override(size, access, reset string) (props, error) {
	if size != "" {
		v, err := parseNum(size)
		if err != nil {
			return p, errors.Wrap(err, "size")
		}
		p.size = v
	}
	if access != "" {
		a, ok := ParseAccess(access)
		if !ok {
			return p, errors.Errorf("invalid access %q", access)
		}
		p.access = a
	}
	if reset != "" {
		v, err := parseNum(reset)
		if err != nil {
			return p, errors.Wrap(err, "resetValue")
		}
		p.reset = v
	}
	return p, nil
}

func resolve(xd *xmlDevice) (*Device, error) {
	dev := &Device{
		Name:        sanitize(xd.Name),
		Description: cleanDesc(xd.Description),
	}

	devProps, err := props{size: 32, access: AccessReadWrite}.override(xd.Size, xd.Access, xd.ResetValue)
	if err != nil {
		return nil, errors.Wrap(err, "device")
	}

	byName := make(map[string]*xmlPeripheral, len(xd.Peripherals))
	for i := range xd.Peripherals {
		byName[xd.Peripherals[i].Name] = &xd.Peripherals[i]
	}

	for i := range xd.Peripherals {
		xp := &xd.Peripherals[i]
		p, err := resolvePeripheral(xp, byName, devProps)
		if err != nil {
			return nil, errors.Wrapf(err, "peripheral %s", xp.Name)
		}
		dev.Peripherals = append(dev.Peripherals, p)
	}

	log.ModSVD.DebugZ("parsed device").
		String("name", dev.Name).
		Int("peripherals", len(dev.Peripherals)).
		End()
	return dev, nil
}

func resolvePeripheral(xp *xmlPeripheral, byName map[string]*xmlPeripheral, devProps props) (*Peripheral, error) {
	p := &Peripheral{
		Name:        sanitize(xp.Name),
		Description: cleanDesc(xp.Description),
		GroupName:   xp.GroupName,
		DerivedFrom: xp.DerivedFrom,
	}

	base, err := parseNum(xp.BaseAddress)
	if err != nil {
		return nil, errors.Wrap(err, "baseAddress")
	}
	p.BaseAddress = base

	// A derived peripheral inherits everything it does not redefine from its
	// base, which can't itself be derived.
	src := xp
	pprops := devProps
	if xp.DerivedFrom != "" {
		orig, ok := byName[xp.DerivedFrom]
		if !ok {
			return nil, errors.Errorf("derivedFrom unknown peripheral %q", xp.DerivedFrom)
		}
		if orig.DerivedFrom != "" {
			return nil, errors.Errorf("derivedFrom %q which is itself derived", xp.DerivedFrom)
		}
		if pprops, err = pprops.override(orig.Size, orig.Access, orig.ResetValue); err != nil {
			return nil, err
		}
		if p.Description == "" {
			p.Description = cleanDesc(orig.Description)
		}
		if p.GroupName == "" {
			p.GroupName = orig.GroupName
		}
		if xp.Registers == nil {
			src = orig
		}
	}
	if pprops, err = pprops.override(xp.Size, xp.Access, xp.ResetValue); err != nil {
		return nil, err
	}

	blocks := xp.Blocks
	if len(blocks) == 0 && xp.DerivedFrom != "" {
		blocks = byName[xp.DerivedFrom].Blocks
	}
	for _, xb := range blocks {
		off, err := parseNum(xb.Offset)
		if err != nil {
			return nil, errors.Wrap(err, "addressBlock offset")
		}
		size, err := parseNum(xb.Size)
		if err != nil {
			return nil, errors.Wrap(err, "addressBlock size")
		}
		p.Blocks = append(p.Blocks, AddressBlock{Offset: off, Size: size, Usage: strings.TrimSpace(xb.Usage)})
	}

	if src.Registers == nil {
		return p, nil
	}
	for _, c := range src.Registers.Clusters {
		log.ModSVD.WarnZ("register clusters are not supported, skipped").
			String("peripheral", p.Name).
			String("cluster", c.Name).
			End()
	}

	regByName := make(map[string]*xmlRegister)
	for i := range src.Registers.Registers {
		regByName[src.Registers.Registers[i].Name] = &src.Registers.Registers[i]
	}
	for i := range src.Registers.Registers {
		xr := &src.Registers.Registers[i]
		regs, err := resolveRegister(xr, regByName, p.BaseAddress, pprops)
		if err != nil {
			return nil, errors.Wrapf(err, "register %s", xr.Name)
		}
		for _, r := range regs {
			// Registers are accessed through the 32-bit word holding them.
			if r.Shift()+min(r.Size, 32) > 32 {
				log.ModSVD.WarnZ("register straddles a 32-bit word, skipped").
					String("peripheral", p.Name).
					String("reg", r.Name).
					Hex32("addr", r.Address).
					Uint("size", uint64(r.Size)).
					End()
				continue
			}
			p.Registers = append(p.Registers, r)
		}
	}
	return p, nil
}

func resolveRegister(xr *xmlRegister, byName map[string]*xmlRegister, base uint32, pprops props) ([]*Register, error) {
	// Register level derivation: the derived register only overrides what it
	// specifies.
	if xr.DerivedFrom != "" {
		orig, ok := byName[xr.DerivedFrom]
		if !ok {
			return nil, errors.Errorf("derivedFrom unknown register %q", xr.DerivedFrom)
		}
		merged := *orig
		merged.DerivedFrom = ""
		merged.Name = xr.Name
		merged.AddressOffset = xr.AddressOffset
		merged.xmlDim = xr.xmlDim
		if xr.Description != "" {
			merged.Description = xr.Description
		}
		if xr.Size != "" {
			merged.Size = xr.Size
		}
		if xr.Access != "" {
			merged.Access = xr.Access
		}
		if xr.ResetValue != "" {
			merged.ResetValue = xr.ResetValue
		}
		if len(xr.Fields) != 0 {
			merged.Fields = xr.Fields
		}
		xr = &merged
	}

	rprops, err := pprops.override(xr.Size, xr.Access, xr.ResetValue)
	if err != nil {
		return nil, err
	}
	offset, err := parseNum(xr.AddressOffset)
	if err != nil {
		return nil, errors.Wrap(err, "addressOffset")
	}

	var fields []*Field
	for i := range xr.Fields {
		xf := &xr.Fields[i]
		ff, err := resolveField(xf, rprops.access)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", xf.Name)
		}
		fields = append(fields, ff...)
	}

	names, steps, err := expandDim(xr.Name, xr.xmlDim)
	if err != nil {
		return nil, err
	}
	regs := make([]*Register, 0, len(names))
	for i, name := range names {
		off := offset + steps[i]
		regs = append(regs, &Register{
			Name:          name,
			Description:   cleanDesc(xr.Description),
			AddressOffset: off,
			Address:       base + off,
			Size:          rprops.size,
			Access:        rprops.access,
			ResetValue:    rprops.reset,
			Fields:        fields,
		})
	}
	return regs, nil
}

func resolveField(xf *xmlField, regAccess Access) ([]*Field, error) {
	offset, width, err := bitRange(xf)
	if err != nil {
		return nil, err
	}
	access, ok := ParseAccess(xf.Access)
	if !ok {
		return nil, errors.Errorf("invalid access %q", xf.Access)
	}

	var enums []EnumValue
	for _, ev := range xf.EnumeratedValues {
		for _, v := range ev.Values {
			if v.Value == "" {
				// isDefault entries describe every other value.
				continue
			}
			n, err := parseNum(v.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "enumeratedValue %s", v.Name)
			}
			enums = append(enums, EnumValue{
				Name:        sanitize(v.Name),
				Description: cleanDesc(v.Description),
				Value:       n,
			})
		}
	}

	names, steps, err := expandDim(xf.Name, xf.xmlDim)
	if err != nil {
		return nil, err
	}
	fields := make([]*Field, 0, len(names))
	for i, name := range names {
		fields = append(fields, &Field{
			Name:        name,
			Description: cleanDesc(xf.Description),
			BitOffset:   offset + steps[i],
			BitWidth:    width,
			Access:      access.or(regAccess),
			Enums:       enums,
		})
	}
	return fields, nil
}

// bitRange returns the offset and width of a field, which can be given in
// any of the 3 SVD styles.
func bitRange(xf *xmlField) (offset, width uint32, err error) {
	switch {
	case xf.BitOffset != "":
		if offset, err = parseNum(xf.BitOffset); err != nil {
			return 0, 0, errors.Wrap(err, "bitOffset")
		}
		width = 1
		if xf.BitWidth != "" {
			if width, err = parseNum(xf.BitWidth); err != nil {
				return 0, 0, errors.Wrap(err, "bitWidth")
			}
		}
		return offset, width, nil

	case xf.Lsb != "" && xf.Msb != "":
		lsb, err := parseNum(xf.Lsb)
		if err != nil {
			return 0, 0, errors.Wrap(err, "lsb")
		}
		msb, err := parseNum(xf.Msb)
		if err != nil {
			return 0, 0, errors.Wrap(err, "msb")
		}
		if msb < lsb {
			return 0, 0, errors.Errorf("msb %d < lsb %d", msb, lsb)
		}
		return lsb, msb - lsb + 1, nil

	case xf.BitRange != "":
		s := strings.TrimSpace(xf.BitRange)
		if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
			return 0, 0, errors.Errorf("invalid bitRange %q", xf.BitRange)
		}
		smsb, slsb, ok := strings.Cut(s[1:len(s)-1], ":")
		if !ok {
			return 0, 0, errors.Errorf("invalid bitRange %q", xf.BitRange)
		}
		msb, err1 := parseNum(smsb)
		lsb, err2 := parseNum(slsb)
		if err1 != nil || err2 != nil || msb < lsb {
			return 0, 0, errors.Errorf("invalid bitRange %q", xf.BitRange)
		}
		return lsb, msb - lsb + 1, nil
	}
	return 0, 0, errors.New("missing bit range")
}

// expandDim unrolls an SVD dim array. It returns the element names and their
// offset increments. Without dim, it returns the sanitized name alone.
func expandDim(name string, d xmlDim) ([]string, []uint32, error) {
	if d.Dim == "" {
		return []string{sanitize(name)}, []uint32{0}, nil
	}
	dim, err := parseNum(d.Dim)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dim")
	}
	incr, err := parseNum(d.DimIncrement)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dimIncrement")
	}
	idx, err := dimIndices(d.DimIndex, dim)
	if err != nil {
		return nil, nil, err
	}

	names := make([]string, dim)
	steps := make([]uint32, dim)
	for i := range dim {
		names[i] = sanitize(strings.ReplaceAll(name, "%s", idx[i]))
		steps[i] = i * incr
	}
	return names, steps, nil
}

func dimIndices(s string, dim uint32) ([]string, error) {
	s = strings.TrimSpace(s)
	var idx []string
	switch {
	case s == "":
		for i := range dim {
			idx = append(idx, strconv.Itoa(int(i)))
		}
	case strings.Contains(s, ","):
		for _, v := range strings.Split(s, ",") {
			idx = append(idx, strings.TrimSpace(v))
		}
	case strings.Contains(s, "-"):
		sfrom, sto, _ := strings.Cut(s, "-")
		from, err1 := strconv.Atoi(sfrom)
		to, err2 := strconv.Atoi(sto)
		if err1 != nil || err2 != nil || to < from {
			// Letter ranges (A-D)
			if len(sfrom) == 1 && len(sto) == 1 && sfrom[0] <= sto[0] {
				for c := sfrom[0]; c <= sto[0]; c++ {
					idx = append(idx, string(c))
				}
				break
			}
			return nil, errors.Errorf("invalid dimIndex %q", s)
		}
		for i := from; i <= to; i++ {
			idx = append(idx, strconv.Itoa(i))
		}
	default:
		idx = []string{s}
	}
	if uint32(len(idx)) != dim {
		return nil, errors.Errorf("dimIndex %q has %d elements, want %d", s, len(idx), dim)
	}
	return idx, nil
}

// cleanDesc collapses the whitespace of multi-line SVD descriptions.
func cleanDesc(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
