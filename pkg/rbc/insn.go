package rbc

import "fmt"

// Instruction is one decoded bytecode operation. Instructions are mutated in
// place by optimization passes; their identity (pointer) is stable for the
// lifetime of the enclosing Code unless the pass replaces them wholesale via
// Code.Replace.
//
// Explicit-form and range-form argument encodings are mutually exclusive:
// for a range opcode Srcs is empty and [RangeBase, RangeBase+RangeSize)
// describes the argument window; otherwise Srcs lists the source registers
// and the range fields are zero.
type Instruction struct {
	Op   Opcode
	Dest uint16 // destination register, valid when Op writes one

	Srcs      []uint16 // explicit-form source registers
	RangeBase uint16   // range-form window start
	RangeSize uint16   // range-form window length

	Target *Method // invoke target; non-nil iff Op.HasTarget()

	Literal int64  // const payload
	Field   string // iget/iput field name
}

// NewInvoke builds an explicit-form invoke instruction.
func NewInvoke(op Opcode, target *Method, srcs ...uint16) *Instruction {
	return &Instruction{Op: op, Target: target, Srcs: srcs}
}

// NewInvokeRange builds a range-form invoke instruction.
func NewInvokeRange(op Opcode, target *Method, base, size uint16) *Instruction {
	return &Instruction{Op: op, Target: target, RangeBase: base, RangeSize: size}
}

// HasTarget reports whether the instruction carries a method call target.
func (in *Instruction) HasTarget() bool {
	return in.Target != nil
}

// SrcCount returns the number of explicit-form source registers.
func (in *Instruction) SrcCount() int {
	return len(in.Srcs)
}

// Src returns the i-th explicit-form source register.
func (in *Instruction) Src(i int) uint16 {
	return in.Srcs[i]
}

// SetSrc overwrites the i-th explicit-form source register.
func (in *Instruction) SetSrc(i int, reg uint16) {
	in.Srcs[i] = reg
}

// SetSrcCount truncates the explicit-form source list to n registers.
func (in *Instruction) SetSrcCount(n int) {
	in.Srcs = in.Srcs[:n]
}

// Code is a method body: an ordered instruction list plus the register frame
// size. Passes may edit instructions in place while iterating Insns, but any
// change to the list's shape must go through Replace after iteration ends.
type Code struct {
	Registers uint16
	Insns     []*Instruction
}

// NewCode builds a Code from an instruction sequence.
func NewCode(registers uint16, insns ...*Instruction) *Code {
	return &Code{Registers: registers, Insns: insns}
}

// Replace swaps old for repl at old's position. Identity-based: old must be
// the exact instruction pointer currently in the body.
func (c *Code) Replace(old, repl *Instruction) error {
	for i, in := range c.Insns {
		if in == old {
			c.Insns[i] = repl
			return nil
		}
	}
	return fmt.Errorf("rbc: replace: instruction %s not in body", old)
}
