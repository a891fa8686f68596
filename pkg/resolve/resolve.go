// Package resolve maps call-target references to the method definition that
// would actually run. An instruction's target may name an abstract slot or a
// method inherited from a superclass; resolution walks the hierarchy to the
// defining class.
package resolve

import (
	"fmt"

	"github.com/chazu/altair/pkg/rbc"
)

// Search selects which method tables resolution may consult.
type Search int

const (
	// Any searches both virtual and direct method tables.
	Any Search = iota
	// Virtual searches virtual method tables only.
	Virtual
	// Direct searches direct method tables only.
	Direct
)

// String returns the search strategy's name.
func (s Search) String() string {
	switch s {
	case Any:
		return "any"
	case Virtual:
		return "virtual"
	case Direct:
		return "direct"
	default:
		return fmt.Sprintf("Search(%d)", int(s))
	}
}

// Method resolves ref to its definition under the given search strategy.
// Resolution starts at ref's declaring class and walks toward the root,
// returning the first matching declaration. The result may be abstract or
// external: callers that need a rewritable body check for concreteness
// themselves. Resolution fails when no class on the chain declares the
// method at all.
func Method(s *rbc.Scope, ref *rbc.Method, search Search) (*rbc.Method, error) {
	if ref.Class == nil {
		return nil, fmt.Errorf("resolve: reference %s has no declaring class", ref)
	}
	for c := ref.Class; c != nil; c = s.Class(c.Super) {
		if m := lookup(c, ref.Name, ref.Proto, search); m != nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("resolve: no definition for %s (search %s)", ref, search)
}

func lookup(c *rbc.Class, name string, proto rbc.Proto, search Search) *rbc.Method {
	if search == Any || search == Virtual {
		if m := c.FindVMethod(name, proto); m != nil {
			return m
		}
	}
	if search == Any || search == Direct {
		if m := c.FindDMethod(name, proto); m != nil {
			return m
		}
	}
	return nil
}
