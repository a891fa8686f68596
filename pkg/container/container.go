// Package container reads and writes ARBC unit files: a magic/version
// header followed by a canonical-CBOR body. Loading links every invoke's
// target to its method definition, synthesizing external stubs for
// references that live outside the unit.
package container

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/altair/pkg/rbc"
)

// UnitMagic identifies an ARBC unit file.
var UnitMagic = [4]byte{'A', 'R', 'B', 'C'}

// UnitVersion is the current unit format version.
// Increment when making incompatible changes to the format.
const UnitVersion uint16 = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("container: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ----------------------------------------------------------------------------
// Wire structures
// ----------------------------------------------------------------------------

type unitWire struct {
	Version uint16      `cbor:"version"`
	Name    string      `cbor:"name"`
	Classes []classWire `cbor:"classes"`
}

type classWire struct {
	Name       string       `cbor:"name"`
	Super      string       `cbor:"super,omitempty"`
	Interfaces []string     `cbor:"interfaces,omitempty"`
	External   bool         `cbor:"external,omitempty"`
	Direct     []methodWire `cbor:"direct,omitempty"`
	Virtual    []methodWire `cbor:"virtual,omitempty"`
}

type methodWire struct {
	Name     string    `cbor:"name"`
	Params   []string  `cbor:"params,omitempty"`
	Ret      string    `cbor:"ret"`
	Access   uint32    `cbor:"access,omitempty"`
	External bool      `cbor:"external,omitempty"`
	Code     *codeWire `cbor:"code,omitempty"`
}

type codeWire struct {
	Registers uint16     `cbor:"registers"`
	Insns     []insnWire `cbor:"insns"`
}

type insnWire struct {
	Op        uint8    `cbor:"op"`
	Dest      uint16   `cbor:"dest,omitempty"`
	Srcs      []uint16 `cbor:"srcs,omitempty"`
	RangeBase uint16   `cbor:"rbase,omitempty"`
	RangeSize uint16   `cbor:"rsize,omitempty"`
	Literal   int64    `cbor:"lit,omitempty"`
	Field     string   `cbor:"field,omitempty"`

	// Invoke target reference, present iff the opcode carries one.
	TargetClass  string   `cbor:"tcls,omitempty"`
	TargetName   string   `cbor:"tname,omitempty"`
	TargetParams []string `cbor:"tparams,omitempty"`
	TargetRet    string   `cbor:"tret,omitempty"`
}

// ----------------------------------------------------------------------------
// Saving
// ----------------------------------------------------------------------------

// Save writes a unit to w.
func Save(w io.Writer, unit *rbc.Unit) error {
	uw := unitWire{Version: UnitVersion, Name: unit.Name}
	for _, c := range unit.Classes {
		uw.Classes = append(uw.Classes, encodeClass(c))
	}
	body, err := cborEncMode.Marshal(&uw)
	if err != nil {
		return fmt.Errorf("container: marshal unit %s: %w", unit.Name, err)
	}
	if _, err := w.Write(UnitMagic[:]); err != nil {
		return fmt.Errorf("container: write unit %s: %w", unit.Name, err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("container: write unit %s: %w", unit.Name, err)
	}
	return nil
}

// SaveFile writes a unit to the given path.
func SaveFile(path string, unit *rbc.Unit) error {
	var buf bytes.Buffer
	if err := Save(&buf, unit); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("container: cannot write %s: %w", path, err)
	}
	return nil
}

func encodeClass(c *rbc.Class) classWire {
	cw := classWire{
		Name:       c.Name,
		Super:      c.Super,
		Interfaces: c.Interfaces,
		External:   c.External,
	}
	for _, m := range c.DMethods {
		cw.Direct = append(cw.Direct, encodeMethod(m))
	}
	for _, m := range c.VMethods {
		cw.Virtual = append(cw.Virtual, encodeMethod(m))
	}
	return cw
}

func encodeMethod(m *rbc.Method) methodWire {
	mw := methodWire{
		Name:     m.Name,
		Params:   m.Proto.Params,
		Ret:      m.Proto.Ret,
		Access:   uint32(m.Access),
		External: m.External,
	}
	if m.Code != nil {
		cw := &codeWire{Registers: m.Code.Registers}
		for _, in := range m.Code.Insns {
			cw.Insns = append(cw.Insns, encodeInsn(in))
		}
		mw.Code = cw
	}
	return mw
}

func encodeInsn(in *rbc.Instruction) insnWire {
	iw := insnWire{
		Op:        uint8(in.Op),
		Dest:      in.Dest,
		Srcs:      in.Srcs,
		RangeBase: in.RangeBase,
		RangeSize: in.RangeSize,
		Literal:   in.Literal,
		Field:     in.Field,
	}
	if in.Target != nil {
		if in.Target.Class != nil {
			iw.TargetClass = in.Target.Class.Name
		}
		iw.TargetName = in.Target.Name
		iw.TargetParams = in.Target.Proto.Params
		iw.TargetRet = in.Target.Proto.Ret
	}
	return iw
}

// ----------------------------------------------------------------------------
// Loading
// ----------------------------------------------------------------------------

// Load reads one unit from r. Instruction targets are linked against the
// unit's own classes; a reference to a class or method the unit does not
// define gets an external stub so resolution can still name it.
func Load(r io.Reader) (*rbc.Unit, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("container: read unit: %w", err)
	}
	if len(data) < len(UnitMagic) || !bytes.Equal(data[:len(UnitMagic)], UnitMagic[:]) {
		return nil, fmt.Errorf("container: bad magic, not an ARBC unit")
	}
	var uw unitWire
	if err := cbor.Unmarshal(data[len(UnitMagic):], &uw); err != nil {
		return nil, fmt.Errorf("container: unmarshal unit: %w", err)
	}
	if uw.Version != UnitVersion {
		return nil, fmt.Errorf("container: unit version %d, want %d", uw.Version, UnitVersion)
	}
	return decodeUnit(&uw)
}

// LoadFile reads one unit from the given path.
func LoadFile(path string) (*rbc.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("container: cannot read %s: %w", path, err)
	}
	return Load(bytes.NewReader(data))
}

type linker struct {
	classes map[string]*rbc.Class
	synth   []*rbc.Class // external stubs created while linking targets
}

func decodeUnit(uw *unitWire) (*rbc.Unit, error) {
	unit := &rbc.Unit{Name: uw.Name}
	lk := &linker{classes: make(map[string]*rbc.Class)}

	// First pass: classes and method declarations, so targets can link.
	for i := range uw.Classes {
		cw := &uw.Classes[i]
		c := &rbc.Class{
			Name:       cw.Name,
			Super:      cw.Super,
			Interfaces: cw.Interfaces,
			External:   cw.External,
		}
		for j := range cw.Direct {
			c.AddDMethod(decodeMethodDecl(&cw.Direct[j]))
		}
		for j := range cw.Virtual {
			c.AddVMethod(decodeMethodDecl(&cw.Virtual[j]))
		}
		unit.Classes = append(unit.Classes, c)
		lk.classes[c.Name] = c
	}

	// Second pass: bodies, with targets linked.
	for i := range uw.Classes {
		cw := &uw.Classes[i]
		c := lk.classes[cw.Name]
		for j := range cw.Direct {
			if err := lk.decodeBody(c.DMethods[j], &cw.Direct[j]); err != nil {
				return nil, err
			}
		}
		for j := range cw.Virtual {
			if err := lk.decodeBody(c.VMethods[j], &cw.Virtual[j]); err != nil {
				return nil, err
			}
		}
	}
	unit.Classes = append(unit.Classes, lk.synth...)
	return unit, nil
}

func decodeMethodDecl(mw *methodWire) *rbc.Method {
	return &rbc.Method{
		Name:     mw.Name,
		Proto:    rbc.Proto{Params: mw.Params, Ret: mw.Ret},
		Access:   rbc.Access(mw.Access),
		External: mw.External,
	}
}

func (lk *linker) decodeBody(m *rbc.Method, mw *methodWire) error {
	if mw.Code == nil {
		return nil
	}
	code := &rbc.Code{Registers: mw.Code.Registers}
	for i := range mw.Code.Insns {
		in, err := lk.decodeInsn(m, &mw.Code.Insns[i])
		if err != nil {
			return err
		}
		code.Insns = append(code.Insns, in)
	}
	m.Code = code
	return nil
}

func (lk *linker) decodeInsn(m *rbc.Method, iw *insnWire) (*rbc.Instruction, error) {
	op := rbc.Opcode(iw.Op)
	if strings.HasPrefix(rbc.GetOpcodeInfo(op).Name, "UNKNOWN") {
		return nil, fmt.Errorf("container: %s: unknown opcode 0x%02X", m, iw.Op)
	}
	in := &rbc.Instruction{
		Op:        op,
		Dest:      iw.Dest,
		Srcs:      iw.Srcs,
		RangeBase: iw.RangeBase,
		RangeSize: iw.RangeSize,
		Literal:   iw.Literal,
		Field:     iw.Field,
	}
	if op.HasTarget() {
		if iw.TargetName == "" {
			return nil, fmt.Errorf("container: %s: invoke %s has no target", m, op)
		}
		in.Target = lk.linkTarget(iw)
	}
	return in, nil
}

// linkTarget finds the referenced method declaration, creating external
// class and method stubs when the unit does not define it.
func (lk *linker) linkTarget(iw *insnWire) *rbc.Method {
	proto := rbc.Proto{Params: iw.TargetParams, Ret: iw.TargetRet}
	c, ok := lk.classes[iw.TargetClass]
	if !ok {
		c = &rbc.Class{Name: iw.TargetClass, External: true}
		lk.classes[iw.TargetClass] = c
		lk.synth = append(lk.synth, c)
	}
	if m := c.FindVMethod(iw.TargetName, proto); m != nil {
		return m
	}
	if m := c.FindDMethod(iw.TargetName, proto); m != nil {
		return m
	}
	stub := &rbc.Method{Name: iw.TargetName, Proto: proto, External: true}
	return c.AddVMethod(stub)
}
