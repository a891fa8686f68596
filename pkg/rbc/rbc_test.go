package rbc

import (
	"strings"
	"testing"
)

func TestProtoDescriptor(t *testing.T) {
	tests := []struct {
		proto Proto
		want  string
	}{
		{Proto{Ret: "V"}, "()V"},
		{Proto{Params: []string{"I"}, Ret: "V"}, "(I)V"},
		{Proto{Params: []string{"I", "LShape;"}, Ret: "Z"}, "(ILShape;)Z"},
	}
	for _, tt := range tests {
		if got := tt.proto.Descriptor(); got != tt.want {
			t.Errorf("Descriptor() = %q, want %q", got, tt.want)
		}
	}
}

func TestProtoEqual(t *testing.T) {
	a := Proto{Params: []string{"I"}, Ret: "V"}
	if !a.Equal(Proto{Params: []string{"I"}, Ret: "V"}) {
		t.Error("identical protos not equal")
	}
	if a.Equal(Proto{Params: []string{"J"}, Ret: "V"}) {
		t.Error("different param types equal")
	}
	if a.Equal(Proto{Params: []string{"I"}, Ret: "I"}) {
		t.Error("different return types equal")
	}
	if a.Equal(Proto{Ret: "V"}) {
		t.Error("different arities equal")
	}
}

func TestMethodFlags(t *testing.T) {
	m := &Method{Name: "m", Access: AccPublic | AccStatic}
	if !m.IsStatic() || m.IsAbstract() || m.IsConstructor() {
		t.Errorf("flags wrong for %#x", m.Access)
	}
	if m.IsConcrete() {
		t.Error("method without code reported concrete")
	}
	m.Code = NewCode(1)
	if !m.IsConcrete() {
		t.Error("method with code not concrete")
	}
	m.External = true
	if m.IsConcrete() {
		t.Error("external method reported concrete")
	}
}

func TestScopeLookup(t *testing.T) {
	a := NewClass("LA;", "")
	b := NewClass("LB;", "LA;")
	s := NewScope(a, b)
	if s.Class("LA;") != a || s.Class("LB;") != b {
		t.Error("scope lookup failed")
	}
	if s.Class("LC;") != nil {
		t.Error("lookup of unknown class should be nil")
	}
}

func TestBuildScopePreservesUnitOrder(t *testing.T) {
	u1 := &Unit{Name: "core", Classes: []*Class{NewClass("LA;", ""), NewClass("LB;", "")}}
	u2 := &Unit{Name: "app", Classes: []*Class{NewClass("LC;", "")}}
	s := BuildScope([]*Unit{u1, u2})
	if len(s.Classes) != 3 {
		t.Fatalf("scope has %d classes, want 3", len(s.Classes))
	}
	for i, want := range []string{"LA;", "LB;", "LC;"} {
		if s.Classes[i].Name != want {
			t.Errorf("class %d = %s, want %s", i, s.Classes[i].Name, want)
		}
	}
}

func TestBuildScopeUnifiesStubClasses(t *testing.T) {
	// lib defines LShape;.draw; app only holds the external stub a load
	// synthesizes for its cross-unit call site.
	buildUnits := func() (lib, app *Unit, draw *Method, site *Instruction) {
		shape := NewClass("LShape;", "")
		draw = shape.AddVMethod(&Method{
			Name:   "draw",
			Proto:  Proto{Ret: "V"},
			Access: AccPublic,
			Code: NewCode(1,
				&Instruction{Op: OpLoadParamObject, Dest: 0},
				&Instruction{Op: OpReturnVoid}),
		})
		lib = &Unit{Name: "lib", Classes: []*Class{shape}}

		stubClass := &Class{Name: "LShape;", External: true}
		stub := stubClass.AddVMethod(&Method{Name: "draw", Proto: Proto{Ret: "V"}, External: true})
		site = NewInvoke(OpInvokeVirtual, stub, 0)
		main := NewClass("LMain;", "")
		main.AddDMethod(&Method{
			Name:   "main",
			Proto:  Proto{Ret: "V"},
			Access: AccPublic | AccStatic,
			Code:   NewCode(1, site, &Instruction{Op: OpReturnVoid}),
		})
		app = &Unit{Name: "app", Classes: []*Class{main, stubClass}}
		return
	}

	t.Run("definition first", func(t *testing.T) {
		lib, app, draw, site := buildUnits()
		s := BuildScope([]*Unit{lib, app})
		if c := s.Class("LShape;"); c == nil || c.External {
			t.Fatal("scope holds the stub instead of the defining class")
		}
		if site.Target != draw {
			t.Errorf("site target = %s, want the defining unit's method", site.Target)
		}
	})

	t.Run("stub first", func(t *testing.T) {
		lib, app, draw, site := buildUnits()
		s := BuildScope([]*Unit{app, lib})
		if c := s.Class("LShape;"); c == nil || c.External {
			t.Fatal("scope holds the stub instead of the defining class")
		}
		if site.Target != draw {
			t.Errorf("site target = %s, want the defining unit's method", site.Target)
		}
	})
}

func TestCodeReplace(t *testing.T) {
	a := &Instruction{Op: OpNop}
	b := &Instruction{Op: OpReturnVoid}
	code := NewCode(1, a, b)

	repl := &Instruction{Op: OpMove}
	if err := code.Replace(a, repl); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if code.Insns[0] != repl || code.Insns[1] != b {
		t.Error("replacement did not preserve position")
	}

	if err := code.Replace(a, repl); err == nil {
		t.Error("expected error replacing an instruction no longer in the body")
	}
}

func TestInstructionString(t *testing.T) {
	cls := NewClass("LShape;", "")
	draw := cls.AddVMethod(&Method{Name: "draw", Proto: Proto{Params: []string{"I"}, Ret: "V"}})

	tests := []struct {
		in   *Instruction
		want string
	}{
		{&Instruction{Op: OpNop}, "nop"},
		{&Instruction{Op: OpConst, Dest: 2, Literal: 41}, "const v2 #41"},
		{NewInvoke(OpInvokeVirtual, draw, 0, 1), "invoke-virtual {v0, v1} LShape;.draw:(I)V"},
		{NewInvokeRange(OpInvokeVirtualRange, draw, 3, 2), "invoke-virtual/range {v3..v4} LShape;.draw:(I)V"},
		{NewInvoke(OpInvokeStatic, draw), "invoke-static {} LShape;.draw:(I)V"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestDisassemble(t *testing.T) {
	cls := NewClass("LShape;", "")
	m := cls.AddVMethod(&Method{
		Name:   "draw",
		Proto:  Proto{Ret: "V"},
		Access: AccPublic,
		Code: NewCode(2,
			&Instruction{Op: OpLoadParamObject, Dest: 0},
			&Instruction{Op: OpReturnVoid}),
	})

	out := m.Disassemble()
	for _, want := range []string{"LShape;.draw:()V", "Registers: 2", "load-param-object v0", "return-void"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}

	abs := cls.AddVMethod(&Method{Name: "todo", Proto: Proto{Ret: "V"}, Access: AccAbstract})
	if out := abs.Disassemble(); !strings.Contains(out, "(no body)") || !strings.Contains(out, "abstract") {
		t.Errorf("abstract listing wrong:\n%s", out)
	}
}
