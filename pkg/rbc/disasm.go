package rbc

import (
	"fmt"
	"strings"
)

// String returns a one-line assembly rendering of the instruction.
func (in *Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(in.Op.String())

	info := GetOpcodeInfo(in.Op)
	if info.HasDest {
		fmt.Fprintf(&sb, " v%d", in.Dest)
	}

	switch {
	case info.Range:
		fmt.Fprintf(&sb, " {v%d..v%d}", in.RangeBase, in.RangeBase+in.RangeSize-1)
	case len(in.Srcs) > 0:
		sb.WriteString(" {")
		for i, r := range in.Srcs {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "v%d", r)
		}
		sb.WriteString("}")
	case in.Op.IsInvoke():
		sb.WriteString(" {}")
	}

	if in.Target != nil {
		fmt.Fprintf(&sb, " %s", in.Target)
	}
	if in.Op == OpConst {
		fmt.Fprintf(&sb, " #%d", in.Literal)
	}
	if in.Field != "" {
		fmt.Fprintf(&sb, " %s", in.Field)
	}
	return sb.String()
}

// Disassemble returns a human-readable listing of the method body.
func (m *Method) Disassemble() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; === %s ===\n", m)

	var flags []string
	if m.IsStatic() {
		flags = append(flags, "static")
	}
	if m.IsAbstract() {
		flags = append(flags, "abstract")
	}
	if m.IsConstructor() {
		flags = append(flags, "constructor")
	}
	if m.External {
		flags = append(flags, "external")
	}
	if len(flags) > 0 {
		fmt.Fprintf(&sb, "; Flags: %s\n", strings.Join(flags, " "))
	}

	if m.Code == nil {
		sb.WriteString("; (no body)\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "; Registers: %d\n", m.Code.Registers)
	for i, in := range m.Code.Insns {
		fmt.Fprintf(&sb, "%04d  %s\n", i, in)
	}
	return sb.String()
}
