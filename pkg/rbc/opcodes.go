package rbc

import "fmt"

// Opcode identifies one register-bytecode operation.
// The set is closed: every opcode the format defines appears below, and
// anything else reaching a dispatch table is an internal-consistency error.
type Opcode uint8

const (
	// ========================================================================
	// Moves and constants (0x00-0x1F)
	// ========================================================================

	OpNop        Opcode = 0x00 // No operation
	OpMove       Opcode = 0x01 // vA <- vB
	OpMoveObject Opcode = 0x07 // vA <- vB (reference)
	OpMoveResult Opcode = 0x0A // vA <- result of preceding invoke
	OpConst      Opcode = 0x12 // vA <- literal

	// ========================================================================
	// Returns (0x0E-0x11, interleaved per format numbering)
	// ========================================================================

	OpReturnVoid   Opcode = 0x0E // return
	OpReturn       Opcode = 0x0F // return vA
	OpReturnObject Opcode = 0x11 // return vA (reference)

	// ========================================================================
	// Instance fields (0x52-0x5F)
	// ========================================================================

	OpIGet Opcode = 0x52 // vA <- vB.field
	OpIPut Opcode = 0x59 // vB.field <- vA

	// ========================================================================
	// Invokes, explicit form (0x6E-0x72): sources listed one by one
	// ========================================================================

	OpInvokeVirtual   Opcode = 0x6E
	OpInvokeSuper     Opcode = 0x6F
	OpInvokeDirect    Opcode = 0x70
	OpInvokeStatic    Opcode = 0x71
	OpInvokeInterface Opcode = 0x72

	// ========================================================================
	// Invokes, range form (0x74-0x78): sources are a contiguous register
	// window [base, base+size). A range invoke cannot encode zero arguments.
	// ========================================================================

	OpInvokeVirtualRange   Opcode = 0x74
	OpInvokeSuperRange     Opcode = 0x75
	OpInvokeDirectRange    Opcode = 0x76
	OpInvokeStaticRange    Opcode = 0x77
	OpInvokeInterfaceRange Opcode = 0x78

	// ========================================================================
	// Arithmetic (0x90-0xAF)
	// ========================================================================

	OpAddInt Opcode = 0x90 // vA <- vB + vC

	// ========================================================================
	// Parameter-load pseudo-opcodes (0xF0-0xF2). One per parameter at the
	// head of every method body; the first one in an instance method loads
	// the receiver.
	// ========================================================================

	OpLoadParam       Opcode = 0xF0
	OpLoadParamObject Opcode = 0xF1
	OpLoadParamWide   Opcode = 0xF2
)

// OpcodeInfo provides metadata about each opcode for decoding and validation.
type OpcodeInfo struct {
	Name      string // Human-readable name
	HasDest   bool   // Writes a destination register
	HasTarget bool   // Carries a method call target
	Range     bool   // Uses the range-form argument window
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpNop:        {"nop", false, false, false},
	OpMove:       {"move", true, false, false},
	OpMoveObject: {"move-object", true, false, false},
	OpMoveResult: {"move-result", true, false, false},
	OpConst:      {"const", true, false, false},

	OpReturnVoid:   {"return-void", false, false, false},
	OpReturn:       {"return", false, false, false},
	OpReturnObject: {"return-object", false, false, false},

	OpIGet: {"iget", true, false, false},
	OpIPut: {"iput", false, false, false},

	OpInvokeVirtual:   {"invoke-virtual", false, true, false},
	OpInvokeSuper:     {"invoke-super", false, true, false},
	OpInvokeDirect:    {"invoke-direct", false, true, false},
	OpInvokeStatic:    {"invoke-static", false, true, false},
	OpInvokeInterface: {"invoke-interface", false, true, false},

	OpInvokeVirtualRange:   {"invoke-virtual/range", false, true, true},
	OpInvokeSuperRange:     {"invoke-super/range", false, true, true},
	OpInvokeDirectRange:    {"invoke-direct/range", false, true, true},
	OpInvokeStaticRange:    {"invoke-static/range", false, true, true},
	OpInvokeInterfaceRange: {"invoke-interface/range", false, true, true},

	OpAddInt: {"add-int", true, false, false},

	OpLoadParam:       {"load-param", true, false, false},
	OpLoadParamObject: {"load-param-object", true, false, false},
	OpLoadParamWide:   {"load-param-wide", true, false, false},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not defined.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// HasTarget reports whether this opcode carries a method call target.
func (op Opcode) HasTarget() bool {
	return GetOpcodeInfo(op).HasTarget
}

// HasDest reports whether this opcode writes a destination register.
func (op Opcode) HasDest() bool {
	return GetOpcodeInfo(op).HasDest
}

// IsRange reports whether this opcode encodes its arguments as a contiguous
// register window instead of an explicit source list.
func (op Opcode) IsRange() bool {
	return GetOpcodeInfo(op).Range
}

// IsInvokeVirtual reports whether this opcode is a virtual invoke in either
// encoding.
func (op Opcode) IsInvokeVirtual() bool {
	return op == OpInvokeVirtual || op == OpInvokeVirtualRange
}

// IsInvokeSuper reports whether this opcode is a super invoke in either
// encoding.
func (op Opcode) IsInvokeSuper() bool {
	return op == OpInvokeSuper || op == OpInvokeSuperRange
}

// IsInvokeDirect reports whether this opcode is a direct invoke in either
// encoding.
func (op Opcode) IsInvokeDirect() bool {
	return op == OpInvokeDirect || op == OpInvokeDirectRange
}

// IsInvokeStatic reports whether this opcode is a static invoke in either
// encoding.
func (op Opcode) IsInvokeStatic() bool {
	return op == OpInvokeStatic || op == OpInvokeStaticRange
}

// IsInvoke reports whether this opcode is any kind of method invocation.
func (op Opcode) IsInvoke() bool {
	return (op >= OpInvokeVirtual && op <= OpInvokeInterface) ||
		(op >= OpInvokeVirtualRange && op <= OpInvokeInterfaceRange)
}

// IsLoadParam reports whether this opcode is a parameter-load pseudo-opcode.
func (op Opcode) IsLoadParam() bool {
	return op >= OpLoadParam && op <= OpLoadParamWide
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
