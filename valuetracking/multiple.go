package valuetracking

import (
	"github.com/invisibleboy/my-customized-llvm/bitvec"
	"github.com/invisibleboy/my-customized-llvm/ir"
)

// ComputeMultiple tries to write the integer value v as base*m and
// returns the multiplier m. With lookThroughSExt set, sign extensions
// are stepped through and the returned multiplier is that of the
// narrower value, so it may be narrower than v.
func ComputeMultiple(v ir.Value, base uint64, lookThroughSExt bool) (ir.Value, bool) {
	return computeMultiple(v, base, lookThroughSExt, 0)
}

func computeMultiple(v ir.Value, base uint64, lookThroughSExt bool, depth int) (ir.Value, bool) {
	if !ir.IsInteger(v.Type()) {
		return nil, false
	}
	if base == 0 {
		return nil, false
	}
	if base == 1 {
		return v, true
	}

	if ci, ok := v.(*ir.ConstInt); ok && ci.Val.FitsUint64() {
		if val := ci.Val.Uint64(); val%base == 0 {
			return ir.NewConstInt(ci.Typ, val/base), true
		}
	}

	if depth == maxMultipleDepth {
		return nil, false
	}
	op, ok := v.(ir.Operator)
	if !ok {
		return nil, false
	}

	switch op.Opcode() {
	case ir.OpSExt:
		if !lookThroughSExt {
			return nil, false
		}
		return computeMultiple(op.Operand(0), base, lookThroughSExt, depth+1)

	case ir.OpZExt:
		return computeMultiple(op.Operand(0), base, lookThroughSExt, depth+1)

	case ir.OpShl, ir.OpMul:
		x, y := op.Operand(0), op.Operand(1)
		if op.Opcode() == ir.OpShl {
			// x << c is x * 2^c.
			c, ok := y.(*ir.ConstInt)
			if !ok {
				return nil, false
			}
			amt := c.Val.LimitedValue(uint64(c.Typ.Bits - 1))
			y = ir.NewConstIntFromVec(c.Typ, bitvec.One(c.Typ.Bits).Shl(uint(amt)))
		}

		// v = x*y, so if x = base*m then v = base*(m*y), and a
		// multiplier of exactly 1 passes the other operand through.
		if m, ok := computeMultiple(x, base, lookThroughSExt, depth+1); ok {
			if mc, yc, ok := constPair(m, y); ok {
				return mulConstants(mc, yc), true
			}
			if isConstOne(m) {
				return y, true
			}
		}
		if m, ok := computeMultiple(y, base, lookThroughSExt, depth+1); ok {
			if mc, xc, ok := constPair(m, x); ok {
				return mulConstants(mc, xc), true
			}
			if isConstOne(m) {
				return x, true
			}
		}
	}

	return nil, false
}

func constPair(a ir.Value, b ir.Value) (ir.Constant, ir.Constant, bool) {
	ca, aok := a.(ir.Constant)
	cb, bok := b.(ir.Constant)
	if !aok || !bok {
		return nil, nil, false
	}
	return ca, cb, true
}

// mulConstants folds a*b, zero extending the narrower integer operand
// to the wider one's width first. Sign extension stepping can leave
// the two at different widths.
func mulConstants(a, b ir.Constant) ir.Constant {
	wa, wb := ir.IntBits(a.Type()), ir.IntBits(b.Type())
	if wa < wb {
		a = ir.FoldCast(ir.OpZExt, a, ir.IntTy(wb))
	} else if wb < wa {
		b = ir.FoldCast(ir.OpZExt, b, ir.IntTy(wa))
	}
	return ir.FoldBinop(ir.OpMul, a, b)
}
