package valuetracking

import (
	"testing"

	"github.com/invisibleboy/my-customized-llvm/ir"
)

func TestIsPowerOfTwoConst(t *testing.T) {
	tests := []struct {
		val          uint64
		plain, orZero bool
	}{
		{16, true, true},
		{1, true, true},
		{12, false, false},
		{0, false, true},
	}
	for _, tc := range tests {
		c := ir.NewConstInt(ir.I32, tc.val)
		if got := IsPowerOfTwo(c, false); got != tc.plain {
			t.Errorf("IsPowerOfTwo(%d, false) = %v, want %v", tc.val, got, tc.plain)
		}
		if got := IsPowerOfTwo(c, true); got != tc.orZero {
			t.Errorf("IsPowerOfTwo(%d, true) = %v, want %v", tc.val, got, tc.orZero)
		}
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	m := ir.MustParse(`
define i32 @f(i32 %x, i16 %h, i1 %c) {
entry:
  %bit = shl i32 1, %x
  %top = lshr i32 -2147483648, %x
  %hbit = shl i16 1, %h
  %wide = zext i16 %hbit to i32
  %pick = select i1 %c, i32 %bit, i32 16
  %bad = select i1 %c, i32 %bit, i32 12
  %n = sub i32 0, %x
  %iso = and i32 %x, %n
  %masked = and i32 %bit, %x
  %shifted = lshr i32 %bit, 2
  %ex = lshr exact i32 %bit, 2
  %q = udiv exact i32 %top, 4
  ret i32 %iso
}
`)
	tests := []struct {
		name          string
		plain, orZero bool
	}{
		{"bit", true, true},      // 1 << x
		{"top", true, true},      // sign mask >> x
		{"wide", true, true},
		{"pick", true, true},
		{"bad", false, false},
		{"iso", false, true},     // x & -x isolates the lowest set bit
		{"masked", false, true},  // masking can only clear a power of two
		{"shifted", false, true},
		{"ex", true, true},       // exact drops only zeros
		{"q", true, true},
	}
	for _, tc := range tests {
		v := instrNamed(t, m, tc.name)
		if got := IsPowerOfTwo(v, false); got != tc.plain {
			t.Errorf("%%%s: IsPowerOfTwo = %v, want %v", tc.name, got, tc.plain)
		}
		if got := IsPowerOfTwo(v, true); got != tc.orZero {
			t.Errorf("%%%s orZero: IsPowerOfTwo = %v, want %v", tc.name, got, tc.orZero)
		}
	}

	if IsPowerOfTwo(m.Func("f").Params[0], true) {
		t.Error("opaque param claimed a power of two")
	}
}
