// Package mutators performs callee-side method surgery for optimization
// passes. Call-site rewriting lives with the passes themselves; this package
// only mutates a method's own declaration and body.
package mutators

import (
	"fmt"

	"github.com/chazu/altair/pkg/rbc"
)

// MakeStatic converts an instance method's declaration to static.
//
// With keepThis, the receiver survives as an ordinary first parameter: the
// proto gains the declaring class's type up front and the body is untouched,
// its leading parameter load now loading that explicit argument.
//
// Without keepThis, the receiver is elided: the leading receiver-load
// pseudo-instruction is removed and every register reference above the
// receiver's register shifts down by one, closing the gap in the frame.
// Callers must have verified that the body never reads the receiver.
func MakeStatic(m *rbc.Method, keepThis bool) error {
	if !m.IsConcrete() {
		return fmt.Errorf("mutators: cannot staticize %s: no body to rewrite", m)
	}
	if m.IsStatic() {
		return fmt.Errorf("mutators: %s is already static", m)
	}

	if keepThis {
		m.Proto.Params = append([]string{m.Class.Name}, m.Proto.Params...)
		m.Access |= rbc.AccStatic
		return nil
	}

	code := m.Code
	if len(code.Insns) == 0 {
		return fmt.Errorf("mutators: %s has no instructions", m)
	}
	load := code.Insns[0]
	if load.Op != rbc.OpLoadParamObject {
		return fmt.Errorf("mutators: %s does not start with a receiver load (%s)", m, load)
	}
	thisReg := load.Dest

	code.Insns = code.Insns[1:]
	for _, in := range code.Insns {
		for i := range in.Srcs {
			if in.Srcs[i] > thisReg {
				in.Srcs[i]--
			}
		}
		if in.Op.HasDest() && in.Dest > thisReg {
			in.Dest--
		}
		if in.Op.IsRange() && in.RangeBase > thisReg {
			in.RangeBase--
		}
	}
	if code.Registers > 0 {
		code.Registers--
	}
	m.Access |= rbc.AccStatic
	return nil
}
