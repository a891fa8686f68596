// Package walk provides restartable traversals over every method body in a
// scope. Callbacks may edit the current instruction's opcode and operands in
// place; anything that changes a body's shape must be deferred and applied
// through rbc.Code.Replace after the body's traversal completes.
package walk

import "github.com/chazu/altair/pkg/rbc"

// All is a method predicate that accepts every method.
func All(*rbc.Method) bool { return true }

// Methods calls fn for every method in the scope, direct methods first,
// in scope order.
func Methods(s *rbc.Scope, fn func(*rbc.Method)) {
	for _, c := range s.Classes {
		for _, m := range c.DMethods {
			fn(m)
		}
		for _, m := range c.VMethods {
			fn(m)
		}
	}
}

// Code calls fn with each method that passes pred and has a body. A non-nil
// error from fn stops the walk.
func Code(s *rbc.Scope, pred func(*rbc.Method) bool, fn func(*rbc.Method, *rbc.Code) error) error {
	var err error
	Methods(s, func(m *rbc.Method) {
		if err != nil || m.Code == nil || !pred(m) {
			return
		}
		err = fn(m, m.Code)
	})
	return err
}

// Opcodes calls fn with every instruction of every method passing pred.
// A non-nil error from fn stops the walk.
func Opcodes(s *rbc.Scope, pred func(*rbc.Method) bool, fn func(*rbc.Method, *rbc.Instruction) error) error {
	return Code(s, pred, func(m *rbc.Method, code *rbc.Code) error {
		for _, in := range code.Insns {
			if err := fn(m, in); err != nil {
				return err
			}
		}
		return nil
	})
}
