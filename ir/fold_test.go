package ir

import "testing"

func TestFoldBinop(t *testing.T) {
	ci := func(v int64) *ConstInt { return NewConstIntSigned(I32, v) }
	tests := []struct {
		op   Op
		a, b int64
		want int64
	}{
		{OpAdd, 3, 4, 7},
		{OpAdd, 1<<31 - 1, 1, -(1 << 31)},
		{OpSub, 3, 4, -1},
		{OpMul, -3, 4, -12},
		{OpAnd, 0xff0, 0x0ff, 0x0f0},
		{OpOr, 0xf00, 0x00f, 0xf0f},
		{OpXor, 0xff, 0x0f, 0xf0},
		{OpUDiv, 100, 7, 14},
		{OpURem, 100, 7, 2},
		{OpSDiv, -100, 7, -14},
		{OpSRem, -100, 7, -2},
		{OpShl, 3, 4, 48},
		{OpLShr, -1, 28, 0xf},
		{OpAShr, -16, 2, -4},
	}
	for _, tc := range tests {
		got := FoldBinop(tc.op, ci(tc.a), ci(tc.b))
		c, ok := got.(*ConstInt)
		if !ok {
			t.Errorf("%s %d, %d did not fold: %T", tc.op, tc.a, tc.b, got)
			continue
		}
		if c.Val.Int64() != tc.want {
			t.Errorf("%s %d, %d = %s, want %d", tc.op, tc.a, tc.b, c, tc.want)
		}
	}
}

func TestFoldBinopDivByZero(t *testing.T) {
	for _, op := range []Op{OpUDiv, OpSDiv, OpURem, OpSRem} {
		got := FoldBinop(op, NewConstInt(I32, 1), NewConstInt(I32, 0))
		if _, ok := got.(*ConstExpr); !ok {
			t.Errorf("%s by zero folded to %T", op, got)
		}
	}
}

func TestFoldBinopShiftOverflow(t *testing.T) {
	for _, op := range []Op{OpShl, OpLShr, OpAShr} {
		got := FoldBinop(op, NewConstInt(I32, 1), NewConstInt(I32, 32))
		if _, ok := got.(*Undef); !ok {
			t.Errorf("%s by 32 on i32 is %T, want undef", op, got)
		}
	}
}

func TestFoldBinopMixed(t *testing.T) {
	// Symbolic operands are kept symbolic.
	g := NewGlobal("g", I32)
	addr := NewConstExpr(OpPtrToInt, I64, g)
	got := FoldBinop(OpAdd, addr, NewConstInt(I64, 1))
	ce, ok := got.(*ConstExpr)
	if !ok {
		t.Fatalf("got %T", got)
	}
	if ce.Opcode() != OpAdd || ce.NumOperands() != 2 {
		t.Errorf("bad expression %s", ce)
	}
}

func TestFoldCast(t *testing.T) {
	tests := []struct {
		op   Op
		val  *ConstInt
		to   *IntType
		want int64
	}{
		{OpTrunc, NewConstInt(I32, 0x1ff), I8, -1},
		{OpZExt, NewConstInt(I8, 0xff), I32, 0xff},
		{OpSExt, NewConstInt(I8, 0xff), I32, -1},
		{OpSExt, NewConstInt(I8, 0x7f), I32, 0x7f},
	}
	for _, tc := range tests {
		got := FoldCast(tc.op, tc.val, tc.to)
		c, ok := got.(*ConstInt)
		if !ok {
			t.Errorf("%s %s did not fold: %T", tc.op, tc.val, got)
			continue
		}
		if c.Typ.Bits != tc.to.Bits || c.Val.Int64() != tc.want {
			t.Errorf("%s %s = %s, want %d", tc.op, tc.val, c, tc.want)
		}
	}

	// Wrong-direction width changes and pointer casts stay symbolic.
	if _, ok := FoldCast(OpTrunc, NewConstInt(I8, 1), I32).(*ConstExpr); !ok {
		t.Error("widening trunc must not fold")
	}
	if _, ok := FoldCast(OpBitCast, NewGlobal("g", I32), PointerTo(I8)).(*ConstExpr); !ok {
		t.Error("bitcast must stay symbolic")
	}
}
