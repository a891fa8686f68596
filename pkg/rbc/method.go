package rbc

import "strings"

// Access holds a method's declaration flags.
type Access uint32

const (
	AccPublic      Access = 0x0001
	AccPrivate     Access = 0x0002
	AccProtected   Access = 0x0004
	AccStatic      Access = 0x0008
	AccFinal       Access = 0x0010
	AccAbstract    Access = 0x0400
	AccConstructor Access = 0x10000
)

// Proto is a method signature: parameter type descriptors (receiver excluded)
// and the return type descriptor.
type Proto struct {
	Params []string
	Ret    string
}

// Descriptor renders the signature in compact form, e.g. "(ILShape;)V".
func (p Proto) Descriptor() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, t := range p.Params {
		sb.WriteString(t)
	}
	sb.WriteByte(')')
	sb.WriteString(p.Ret)
	return sb.String()
}

// Equal reports whether two signatures match exactly.
func (p Proto) Equal(q Proto) bool {
	if p.Ret != q.Ret || len(p.Params) != len(q.Params) {
		return false
	}
	for i, t := range p.Params {
		if t != q.Params[i] {
			return false
		}
	}
	return true
}

// Method is a named callable owned by its declaring class. A Method value
// also serves as a call-target reference inside instructions: the referenced
// method may be abstract or external, in which case a resolver maps it to
// the definition that would actually run.
type Method struct {
	Class    *Class // declaring class, set when attached
	Name     string
	Proto    Proto
	Access   Access
	External bool  // defined outside the unit under transformation
	Code     *Code // nil for abstract and external methods
}

// IsStatic reports whether the method is declared static.
func (m *Method) IsStatic() bool {
	return m.Access&AccStatic != 0
}

// IsAbstract reports whether the method has no body by declaration.
func (m *Method) IsAbstract() bool {
	return m.Access&AccAbstract != 0
}

// IsConstructor reports whether the method is an instance or class
// constructor.
func (m *Method) IsConstructor() bool {
	return m.Access&AccConstructor != 0
}

// IsConcrete reports whether the method is a definition this unit can
// inspect and rewrite: it has a body and is not external.
func (m *Method) IsConcrete() bool {
	return m.Code != nil && !m.External
}

// String renders the fully qualified name, e.g. "LShape;.draw:(I)V".
func (m *Method) String() string {
	cls := "?"
	if m.Class != nil {
		cls = m.Class.Name
	}
	return cls + "." + m.Name + ":" + m.Proto.Descriptor()
}
