package ir

// FoldBinop applies a binary operator to two constants, folding to a
// plain constant where the result is defined. Division by zero and
// operands that are not integer constants yield an unfolded constant
// expression; shifts by at least the width yield undef.
func FoldBinop(op Op, a, b Constant) Constant {
	ca, aok := a.(*ConstInt)
	cb, bok := b.(*ConstInt)
	if aok && bok && ca.Typ.Bits == cb.Typ.Bits {
		if c, ok := foldInt(op, ca, cb); ok {
			return c
		}
	}
	return NewConstExpr(op, a.Type(), a, b)
}

func foldInt(op Op, a, b *ConstInt) (Constant, bool) {
	x, y := a.Val, b.Val
	width := uint(a.Typ.Bits)
	switch op {
	case OpAdd:
		return NewConstIntFromVec(a.Typ, x.Add(y)), true
	case OpSub:
		return NewConstIntFromVec(a.Typ, x.Sub(y)), true
	case OpMul:
		return NewConstIntFromVec(a.Typ, x.Mul(y)), true
	case OpAnd:
		return NewConstIntFromVec(a.Typ, x.And(y)), true
	case OpOr:
		return NewConstIntFromVec(a.Typ, x.Or(y)), true
	case OpXor:
		return NewConstIntFromVec(a.Typ, x.Xor(y)), true
	case OpUDiv:
		if y.IsZero() {
			return nil, false
		}
		return NewConstIntFromVec(a.Typ, x.Udiv(y)), true
	case OpURem:
		if y.IsZero() {
			return nil, false
		}
		return NewConstIntFromVec(a.Typ, x.Urem(y)), true
	case OpSDiv:
		if y.IsZero() {
			return nil, false
		}
		return NewConstIntFromVec(a.Typ, x.Sdiv(y)), true
	case OpSRem:
		if y.IsZero() {
			return nil, false
		}
		return NewConstIntFromVec(a.Typ, x.Srem(y)), true
	case OpShl, OpLShr, OpAShr:
		if !y.FitsUint64() || y.Uint64() >= uint64(width) {
			return &Undef{Typ: a.Typ}, true
		}
		n := uint(y.Uint64())
		switch op {
		case OpShl:
			return NewConstIntFromVec(a.Typ, x.Shl(n)), true
		case OpLShr:
			return NewConstIntFromVec(a.Typ, x.Lshr(n)), true
		default:
			return NewConstIntFromVec(a.Typ, x.Ashr(n)), true
		}
	}
	return nil, false
}

// FoldCast applies a cast operator to a constant. Integer width
// changes on integer constants fold; all other casts are kept as
// constant expressions.
func FoldCast(op Op, c Constant, to Type) Constant {
	ci, ok := c.(*ConstInt)
	toInt, intTo := to.(*IntType)
	if ok && intTo {
		switch op {
		case OpTrunc:
			if toInt.Bits <= ci.Typ.Bits {
				return NewConstIntFromVec(toInt, ci.Val.Trunc(toInt.Bits))
			}
		case OpZExt:
			if toInt.Bits >= ci.Typ.Bits {
				return NewConstIntFromVec(toInt, ci.Val.ZExt(toInt.Bits))
			}
		case OpSExt:
			if toInt.Bits >= ci.Typ.Bits {
				return NewConstIntFromVec(toInt, ci.Val.SExt(toInt.Bits))
			}
		}
	}
	return NewConstExpr(op, to, c)
}
