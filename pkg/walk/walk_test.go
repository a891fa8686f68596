package walk

import (
	"errors"
	"testing"

	"github.com/chazu/altair/pkg/rbc"
)

func buildScope() *rbc.Scope {
	a := rbc.NewClass("LA;", "")
	a.AddDMethod(&rbc.Method{Name: "d1", Code: rbc.NewCode(1,
		&rbc.Instruction{Op: rbc.OpNop},
		&rbc.Instruction{Op: rbc.OpReturnVoid})})
	a.AddVMethod(&rbc.Method{Name: "v1", Code: rbc.NewCode(1,
		&rbc.Instruction{Op: rbc.OpReturnVoid})})
	a.AddVMethod(&rbc.Method{Name: "abstract", Access: rbc.AccAbstract})

	b := rbc.NewClass("LB;", "")
	b.AddVMethod(&rbc.Method{Name: "v2", Code: rbc.NewCode(1,
		&rbc.Instruction{Op: rbc.OpReturnVoid})})

	return rbc.NewScope(a, b)
}

func TestMethodsOrder(t *testing.T) {
	var got []string
	Methods(buildScope(), func(m *rbc.Method) {
		got = append(got, m.Name)
	})
	want := []string{"d1", "v1", "abstract", "v2"}
	if len(got) != len(want) {
		t.Fatalf("visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("visited %v, want %v", got, want)
		}
	}
}

func TestCodeSkipsBodylessMethods(t *testing.T) {
	var got []string
	err := Code(buildScope(), All, func(m *rbc.Method, _ *rbc.Code) error {
		got = append(got, m.Name)
		return nil
	})
	if err != nil {
		t.Fatalf("Code failed: %v", err)
	}
	for _, name := range got {
		if name == "abstract" {
			t.Error("visited a method without a body")
		}
	}
	if len(got) != 3 {
		t.Errorf("visited %d methods, want 3", len(got))
	}
}

func TestOpcodesCountsEveryInstruction(t *testing.T) {
	count := 0
	err := Opcodes(buildScope(), All, func(_ *rbc.Method, _ *rbc.Instruction) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("Opcodes failed: %v", err)
	}
	if count != 4 {
		t.Errorf("visited %d instructions, want 4", count)
	}
}

func TestOpcodesPredicateFilters(t *testing.T) {
	count := 0
	err := Opcodes(buildScope(), func(m *rbc.Method) bool { return m.Name == "d1" },
		func(_ *rbc.Method, _ *rbc.Instruction) error {
			count++
			return nil
		})
	if err != nil {
		t.Fatalf("Opcodes failed: %v", err)
	}
	if count != 2 {
		t.Errorf("visited %d instructions, want 2", count)
	}
}

func TestWalkStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	count := 0
	err := Opcodes(buildScope(), All, func(_ *rbc.Method, _ *rbc.Instruction) error {
		count++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
	if count != 1 {
		t.Errorf("walk continued after error: %d visits", count)
	}
}
