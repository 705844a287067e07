package valuetracking

import (
	"testing"

	"github.com/invisibleboy/my-customized-llvm/ir"
)

func TestFindInsertedValue(t *testing.T) {
	m := ir.MustParse(`
define i32 @f(i32 %x, i32 %y, i8 %b) {
entry:
  %a0 = insertvalue { i32, i8 } undef, i32 %x, 0
  %a1 = insertvalue { i32, i8 } %a0, i8 %b, 1
  %n0 = insertvalue { { i32, i32 }, i8 } undef, i32 %x, 0, 0
  %n1 = insertvalue { { i32, i32 }, i8 } %n0, i32 %y, 0, 1
  %inner = extractvalue { { i32, i32 }, i8 } %n1, 0
  %deep = extractvalue { i32, i32 } %inner, 1
  ret i32 %deep
}

define i32 @g({ i32, i8 } %agg, i32 %x) {
entry:
  %o0 = insertvalue { i32, i8 } %agg, i32 %x, 0
  ret i32 %x
}
`)
	f := m.Func("f")
	x, y, b := f.Params[0], f.Params[1], f.Params[2]

	a1 := instrNamed(t, m, "a1")
	if got := FindInsertedValue(a1); got != ir.Value(a1) {
		t.Error("no indices must return the value unchanged")
	}
	if got := FindInsertedValue(a1, 0); got != ir.Value(x) {
		t.Errorf("field 0 = %v, want %%x", got)
	}
	if got := FindInsertedValue(a1, 1); got != ir.Value(b) {
		t.Errorf("field 1 = %v, want %%b", got)
	}

	n1 := instrNamed(t, m, "n1")
	if got := FindInsertedValue(n1, 0, 0); got != ir.Value(x) {
		t.Errorf("field 0,0 = %v, want %%x", got)
	}
	if got := FindInsertedValue(n1, 0, 1); got != ir.Value(y) {
		t.Errorf("field 0,1 = %v, want %%y", got)
	}

	// The never-inserted field reads through to the undef base.
	if got, ok := FindInsertedValue(n1, 1).(*ir.Undef); !ok || got.Typ != ir.I8 {
		t.Errorf("field 1 = %v, want undef i8", got)
	}

	// An opaque base hides its fields.
	if got := FindInsertedValue(instrNamed(t, m, "o0"), 1); got != nil {
		t.Errorf("field of opaque base = %v, want unknown", got)
	}

	// Extracting then indexing composes the chains.
	if got := FindInsertedValue(instrNamed(t, m, "inner"), 1); got != ir.Value(y) {
		t.Errorf("extract then field 1 = %v, want %%y", got)
	}
}

func TestFindInsertedValueRebuild(t *testing.T) {
	m := ir.MustParse(`
define i32 @f(i32 %x, i32 %y) {
entry:
  %n0 = insertvalue { { i32, i32 }, i8 } undef, i32 %x, 0, 0
  %n1 = insertvalue { { i32, i32 }, i8 } %n0, i32 %y, 0, 1
  ret i32 %x
}
`)
	f := m.Func("f")
	x, y := f.Params[0], f.Params[1]

	// Asking for the inner struct reassembles it from its leaves as a
	// dangling insertion chain.
	got := FindInsertedValue(instrNamed(t, m, "n1"), 0)
	if got == nil {
		t.Fatal("inner struct not rebuilt")
	}
	instr, ok := got.(*ir.Instr)
	if !ok || instr.Opcode() != ir.OpInsertValue {
		t.Fatalf("rebuilt value is %v, want an insertvalue chain", got)
	}
	if got := FindInsertedValue(instr, 0); got != ir.Value(x) {
		t.Errorf("rebuilt field 0 = %v, want %%x", got)
	}
	if got := FindInsertedValue(instr, 1); got != ir.Value(y) {
		t.Errorf("rebuilt field 1 = %v, want %%y", got)
	}

	// A half-filled chain rebuilds with undef in the missing slot.
	got = FindInsertedValue(instrNamed(t, m, "n0"), 0)
	if got == nil {
		t.Fatal("half-filled struct not rebuilt")
	}
	if got := FindInsertedValue(got, 0); got != ir.Value(x) {
		t.Errorf("rebuilt field 0 = %v, want %%x", got)
	}
	hole := FindInsertedValue(got, 1)
	if u, ok := hole.(*ir.Undef); !ok || u.Typ != ir.I32 {
		t.Errorf("rebuilt field 1 = %v, want undef i32", hole)
	}
}

func TestFindInsertedValueConst(t *testing.T) {
	cs := &ir.ConstStruct{
		Typ: ir.StructOf(ir.I32, ir.I8),
		Fields: []ir.Constant{
			ir.NewConstInt(ir.I32, 7),
			ir.NewConstInt(ir.I8, 3),
		},
	}
	if got := FindInsertedValue(cs, 0); got.(*ir.ConstInt).Val.Uint64() != 7 {
		t.Errorf("const field 0 = %v, want 7", got)
	}

	arr := &ir.ConstArray{
		Typ: ir.ArrayOf(2, ir.I32),
		Elems: []ir.Constant{
			ir.NewConstInt(ir.I32, 10),
			ir.NewConstInt(ir.I32, 20),
		},
	}
	if got := FindInsertedValue(arr, 1); got.(*ir.ConstInt).Val.Uint64() != 20 {
		t.Errorf("const element 1 = %v, want 20", got)
	}
	if got := FindInsertedValue(arr, 5); got != nil {
		t.Errorf("out of range element = %v, want nil", got)
	}

	zero := &ir.ConstAggregateZero{Typ: ir.ArrayOf(4, ir.I32)}
	if got := FindInsertedValue(zero, 2); !ir.IsNullValue(got) {
		t.Errorf("zeroinitializer element = %v, want 0", got)
	}

	u := &ir.Undef{Typ: ir.StructOf(ir.I32, ir.I8)}
	if got, ok := FindInsertedValue(u, 1).(*ir.Undef); !ok || got.Typ != ir.I8 {
		t.Errorf("undef field = %v, want undef i8", got)
	}

	if got := FindInsertedValue(cs, 5); got != nil {
		t.Errorf("out of range field = %v, want nil", got)
	}
}
