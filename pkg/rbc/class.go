package rbc

// Class is one type under transformation. It exclusively owns its methods,
// split the way the format stores them: virtual methods (dispatched through
// the receiver's runtime type) and direct methods (constructors, private
// methods, statics).
type Class struct {
	Name       string // type descriptor, e.g. "LShape;"
	Super      string // superclass descriptor, empty for the root
	Interfaces []string
	External   bool // defined outside the unit under transformation

	VMethods []*Method
	DMethods []*Method
}

// NewClass builds an empty class with the given descriptor and superclass.
func NewClass(name, super string) *Class {
	return &Class{Name: name, Super: super}
}

// AddVMethod attaches a virtual method to the class.
func (c *Class) AddVMethod(m *Method) *Method {
	m.Class = c
	c.VMethods = append(c.VMethods, m)
	return m
}

// AddDMethod attaches a direct method to the class.
func (c *Class) AddDMethod(m *Method) *Method {
	m.Class = c
	c.DMethods = append(c.DMethods, m)
	return m
}

// FindVMethod returns the virtual method declared here with the given name
// and signature, or nil.
func (c *Class) FindVMethod(name string, proto Proto) *Method {
	for _, m := range c.VMethods {
		if m.Name == name && m.Proto.Equal(proto) {
			return m
		}
	}
	return nil
}

// FindDMethod returns the direct method declared here with the given name
// and signature, or nil.
func (c *Class) FindDMethod(name string, proto Proto) *Method {
	for _, m := range c.DMethods {
		if m.Name == name && m.Proto.Equal(proto) {
			return m
		}
	}
	return nil
}

// Unit is one load unit: a named group of classes as stored in a container
// file. A program is a list of units.
type Unit struct {
	Name    string
	Classes []*Class
}

// Scope is the ordered set of all classes for one optimizer run. Order is
// stable within a run; passes mutate member classes destructively and
// require exclusive access for the duration of the run.
type Scope struct {
	Classes []*Class

	byName map[string]*Class
}

// NewScope builds a scope over the given classes.
func NewScope(classes ...*Class) *Scope {
	s := &Scope{byName: make(map[string]*Class, len(classes))}
	for _, c := range classes {
		s.Add(c)
	}
	return s
}

// BuildScope flattens load units into a single scope, preserving unit order.
// Classes sharing a descriptor across units are unified: a defining class
// wins over the external stubs other units synthesized for it while loading,
// and every instruction target that pointed into a discarded duplicate is
// repointed at the unified class's declaration.
func BuildScope(units []*Unit) *Scope {
	s := NewScope()
	remap := make(map[*Method]*Method)
	for _, u := range units {
		for _, c := range u.Classes {
			prev := s.Class(c.Name)
			if prev == nil {
				s.Add(c)
				continue
			}
			if prev.External && !c.External {
				s.swap(prev, c)
				prev, c = c, prev
			}
			mergeClass(prev, c, remap)
		}
	}
	if len(remap) > 0 {
		for _, c := range s.Classes {
			repointTargets(c, remap)
		}
	}
	return s
}

// swap substitutes repl for old at old's position in the scope.
func (s *Scope) swap(old, repl *Class) {
	for i, c := range s.Classes {
		if c == old {
			s.Classes[i] = repl
			break
		}
	}
	s.byName[repl.Name] = repl
}

// mergeClass folds dup's methods into canon. Declarations dup shares with
// canon are recorded in remap for target repointing; the rest move over so
// references through the duplicate still resolve.
func mergeClass(canon, dup *Class, remap map[*Method]*Method) {
	for _, m := range dup.VMethods {
		if prev := canon.findAny(m); prev != nil {
			remap[m] = prev
		} else {
			canon.AddVMethod(m)
		}
	}
	for _, m := range dup.DMethods {
		if prev := canon.findAny(m); prev != nil {
			remap[m] = prev
		} else {
			canon.AddDMethod(m)
		}
	}
}

// findAny looks m's declaration up in either method table. A reference
// synthesized while loading always lands in the virtual table, so the
// matching definition may live in the other one.
func (c *Class) findAny(m *Method) *Method {
	if found := c.FindVMethod(m.Name, m.Proto); found != nil {
		return found
	}
	return c.FindDMethod(m.Name, m.Proto)
}

func repointTargets(c *Class, remap map[*Method]*Method) {
	for _, methods := range [][]*Method{c.DMethods, c.VMethods} {
		for _, m := range methods {
			if m.Code == nil {
				continue
			}
			for _, in := range m.Code.Insns {
				if repl, ok := remap[in.Target]; ok {
					in.Target = repl
				}
			}
		}
	}
}

// Add appends a class to the scope.
func (s *Scope) Add(c *Class) {
	if s.byName == nil {
		s.byName = make(map[string]*Class)
	}
	s.Classes = append(s.Classes, c)
	s.byName[c.Name] = c
}

// Class returns the class with the given descriptor, or nil.
func (s *Scope) Class(name string) *Class {
	return s.byName[name]
}
