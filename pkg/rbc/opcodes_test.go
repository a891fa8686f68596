package rbc

import (
	"strings"
	"testing"
)

func TestAllOpcodesHaveMetadata(t *testing.T) {
	// Ensure every defined opcode has metadata
	for _, op := range AllOpcodes() {
		info := GetOpcodeInfo(op)
		if info.Name == "" || strings.HasPrefix(info.Name, "UNKNOWN") {
			t.Errorf("Opcode 0x%02X has no metadata", byte(op))
		}
	}
}

func TestUnknownOpcodeString(t *testing.T) {
	op := Opcode(0xEE) // Not defined
	if got := op.String(); !strings.HasPrefix(got, "UNKNOWN") {
		t.Errorf("Unknown opcode should return UNKNOWN, got %q", got)
	}
}

func TestOpcodeString(t *testing.T) {
	tests := []struct {
		op   Opcode
		want string
	}{
		{OpNop, "nop"},
		{OpMove, "move"},
		{OpReturnVoid, "return-void"},
		{OpInvokeVirtual, "invoke-virtual"},
		{OpInvokeStaticRange, "invoke-static/range"},
		{OpLoadParamObject, "load-param-object"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Opcode(0x%02X).String() = %q, want %q", byte(tt.op), got, tt.want)
		}
	}
}

func TestInvokePredicates(t *testing.T) {
	tests := []struct {
		op                             Opcode
		invoke, virt, sup, dir, static bool
	}{
		{OpInvokeVirtual, true, true, false, false, false},
		{OpInvokeVirtualRange, true, true, false, false, false},
		{OpInvokeSuper, true, false, true, false, false},
		{OpInvokeSuperRange, true, false, true, false, false},
		{OpInvokeDirect, true, false, false, true, false},
		{OpInvokeDirectRange, true, false, false, true, false},
		{OpInvokeStatic, true, false, false, false, true},
		{OpInvokeStaticRange, true, false, false, false, true},
		{OpInvokeInterface, true, false, false, false, false},
		{OpNop, false, false, false, false, false},
		{OpLoadParamObject, false, false, false, false, false},
	}
	for _, tt := range tests {
		if got := tt.op.IsInvoke(); got != tt.invoke {
			t.Errorf("%s.IsInvoke() = %v, want %v", tt.op, got, tt.invoke)
		}
		if got := tt.op.IsInvokeVirtual(); got != tt.virt {
			t.Errorf("%s.IsInvokeVirtual() = %v, want %v", tt.op, got, tt.virt)
		}
		if got := tt.op.IsInvokeSuper(); got != tt.sup {
			t.Errorf("%s.IsInvokeSuper() = %v, want %v", tt.op, got, tt.sup)
		}
		if got := tt.op.IsInvokeDirect(); got != tt.dir {
			t.Errorf("%s.IsInvokeDirect() = %v, want %v", tt.op, got, tt.dir)
		}
		if got := tt.op.IsInvokeStatic(); got != tt.static {
			t.Errorf("%s.IsInvokeStatic() = %v, want %v", tt.op, got, tt.static)
		}
	}
}

func TestRangePredicate(t *testing.T) {
	for _, op := range []Opcode{OpInvokeVirtualRange, OpInvokeSuperRange, OpInvokeDirectRange, OpInvokeStaticRange, OpInvokeInterfaceRange} {
		if !op.IsRange() {
			t.Errorf("%s.IsRange() = false", op)
		}
		if !op.HasTarget() {
			t.Errorf("%s.HasTarget() = false", op)
		}
	}
	for _, op := range []Opcode{OpInvokeVirtual, OpNop, OpConst, OpLoadParamObject} {
		if op.IsRange() {
			t.Errorf("%s.IsRange() = true", op)
		}
	}
}

func TestLoadParamPredicate(t *testing.T) {
	for _, op := range []Opcode{OpLoadParam, OpLoadParamObject, OpLoadParamWide} {
		if !op.IsLoadParam() {
			t.Errorf("%s.IsLoadParam() = false", op)
		}
		if !op.HasDest() {
			t.Errorf("%s.HasDest() = false", op)
		}
	}
	if OpInvokeVirtual.IsLoadParam() {
		t.Error("invoke-virtual reported as load-param")
	}
}
