package valuetracking

import (
	"testing"

	"github.com/invisibleboy/my-customized-llvm/ir"
)

func byteVal(t *testing.T, v ir.Value) uint64 {
	t.Helper()
	c, ok := v.(*ir.ConstInt)
	if !ok || c.Typ.Bits != 8 {
		t.Fatalf("not an i8 constant: %v", v)
	}
	return c.Val.Uint64()
}

func TestBytewiseValue(t *testing.T) {
	// Byte-wide values splat themselves, even non-constant ones.
	b := ir.NewParam("b", ir.I8)
	if got := BytewiseValue(b); got != b {
		t.Errorf("i8 param: got %v, want the param itself", got)
	}

	tests := []struct {
		v    ir.Value
		want uint64
	}{
		{ir.NewConstInt(ir.I16, 0xABAB), 0xAB},
		{ir.NewConstInt(ir.I32, 0x01010101), 1},
		{ir.NewConstInt(ir.I64, 0), 0},
		{ir.NewConstFloatFromBits(ir.Float, 0xDBDBDBDB), 0xDB},
		{ir.NewConstFloatFromBits(ir.Double, 0x4545454545454545), 0x45},
		{&ir.ConstNull{Typ: ir.PointerTo(ir.I32)}, 0},
		{&ir.ConstAggregateZero{Typ: ir.ArrayOf(4, ir.I32)}, 0},
		{&ir.ConstArray{
			Typ: ir.ArrayOf(3, ir.I16),
			Elems: []ir.Constant{
				ir.NewConstInt(ir.I16, 0x2C2C),
				ir.NewConstInt(ir.I16, 0x2C2C),
				ir.NewConstInt(ir.I16, 0x2C2C),
			},
		}, 0x2C},
	}
	for _, tc := range tests {
		got := BytewiseValue(tc.v)
		if got == nil {
			t.Errorf("%v: no splat byte, want %#x", tc.v, tc.want)
			continue
		}
		if b := byteVal(t, got); b != tc.want {
			t.Errorf("%v: splat byte %#x, want %#x", tc.v, b, tc.want)
		}
	}

	nots := []ir.Value{
		ir.NewConstInt(ir.I16, 0xAB00),
		ir.NewConstInt(ir.I32, 0x01010102),
		ir.NewConstInt(ir.IntTy(24), 0x111111), // odd width, even if the bytes agree
		&ir.ConstArray{
			Typ: ir.ArrayOf(2, ir.I16),
			Elems: []ir.Constant{
				ir.NewConstInt(ir.I16, 0x2C2C),
				ir.NewConstInt(ir.I16, 0x2D2D),
			},
		},
		&ir.ConstArray{Typ: ir.ArrayOf(0, ir.I16)},
		ir.NewParam("h", ir.I16),
	}
	for _, v := range nots {
		if got := BytewiseValue(v); got != nil {
			t.Errorf("%v: got %v, want no splat", v, got)
		}
	}
}
