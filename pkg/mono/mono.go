// Package mono computes monomorphic dispatch: the virtual methods for which
// exactly one implementation can ever be reached through their call slot.
// The result is computed once per scope and consumed read-only by
// optimization passes; this package never mutates the program.
package mono

import "github.com/chazu/altair/pkg/rbc"

// Devirtualizable returns, in scope order, every virtual method that is the
// only reachable implementation of its slot. The analysis is conservative:
// a method that overrides anything, is overridden anywhere, implements an
// interface slot, or sits above an external class in the hierarchy is
// rejected, since calls through the shared slot could reach another body.
func Devirtualizable(s *rbc.Scope) []*rbc.Method {
	a := &analysis{scope: s, children: make(map[string][]*rbc.Class)}
	for _, c := range s.Classes {
		if c.Super != "" {
			a.children[c.Super] = append(a.children[c.Super], c)
		}
	}

	var out []*rbc.Method
	for _, c := range s.Classes {
		if c.External {
			continue
		}
		for _, m := range c.VMethods {
			if !m.IsConcrete() || m.IsStatic() {
				continue
			}
			if a.slotSharedAbove(c, m) || a.overriddenBelow(c, m) {
				continue
			}
			out = append(out, m)
		}
	}
	return out
}

type analysis struct {
	scope    *rbc.Scope
	children map[string][]*rbc.Class
}

// slotSharedAbove reports whether m's slot also exists on an ancestor class
// or on any interface reachable from c's hierarchy.
func (a *analysis) slotSharedAbove(c *rbc.Class, m *rbc.Method) bool {
	for cur := c; cur != nil; cur = a.scope.Class(cur.Super) {
		if cur != c && cur.FindVMethod(m.Name, m.Proto) != nil {
			return true
		}
		for _, iface := range cur.Interfaces {
			if a.interfaceDeclares(iface, m, make(map[string]bool)) {
				return true
			}
		}
		if cur.Super != "" && a.scope.Class(cur.Super) == nil {
			// Ancestors we cannot see might declare the slot.
			return true
		}
	}
	return false
}

func (a *analysis) interfaceDeclares(name string, m *rbc.Method, seen map[string]bool) bool {
	if seen[name] {
		return false
	}
	seen[name] = true
	iface := a.scope.Class(name)
	if iface == nil {
		// Unknown interface: assume it declares the slot.
		return true
	}
	if iface.FindVMethod(m.Name, m.Proto) != nil {
		return true
	}
	for _, super := range iface.Interfaces {
		if a.interfaceDeclares(super, m, seen) {
			return true
		}
	}
	return false
}

// overriddenBelow reports whether any descendant of c redeclares m's slot,
// or whether the subtree contains an external class whose overrides are
// invisible.
func (a *analysis) overriddenBelow(c *rbc.Class, m *rbc.Method) bool {
	for _, child := range a.children[c.Name] {
		if child.External || child.FindVMethod(m.Name, m.Proto) != nil {
			return true
		}
		if a.overriddenBelow(child, m) {
			return true
		}
	}
	return false
}
