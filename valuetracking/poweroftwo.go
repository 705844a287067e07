package valuetracking

import "github.com/invisibleboy/my-customized-llvm/ir"

// IsPowerOfTwo reports whether v is known to be an integral power of
// two. With orZero set, zero is also accepted, which admits forms like
// x & -x whose result is a power of two or zero.
func IsPowerOfTwo(v ir.Value, orZero bool) bool {
	return isPowerOfTwo(v, orZero, 0)
}

func isPowerOfTwo(v ir.Value, orZero bool, depth int) bool {
	if c, ok := v.(ir.Constant); ok {
		if ir.IsNullValue(c) {
			return orZero
		}
		if ci, ok := c.(*ir.ConstInt); ok {
			return ci.Val.IsPow2()
		}
	}

	// 1 << X is a power of two unless the one is shifted off the top,
	// and then the result is undefined anyway. The sign mask shifted
	// right is the same pattern from the other end.
	if x, _, ok := binop(v, ir.OpShl); ok && isConstOne(x) {
		return true
	}
	if x, _, ok := binop(v, ir.OpLShr); ok && isSignMaskConst(x) {
		return true
	}

	if depth == maxAnalysisDepth {
		return false
	}
	depth++

	// Shifting a power of two or zero gives a power of two or zero.
	if orZero {
		if x, _, ok := binop(v, ir.OpShl, ir.OpLShr, ir.OpAShr); ok {
			return isPowerOfTwo(x, true, depth)
		}
	}

	if op, ok := v.(ir.Operator); ok {
		switch op.Opcode() {
		case ir.OpZExt:
			return isPowerOfTwo(op.Operand(0), orZero, depth)

		case ir.OpSelect:
			return isPowerOfTwo(op.Operand(1), orZero, depth) &&
				isPowerOfTwo(op.Operand(2), orZero, depth)

		case ir.OpAnd:
			if !orZero {
				break
			}
			x, y := op.Operand(0), op.Operand(1)
			// Masking a power of two can only clear it to zero, and
			// x & -x isolates the lowest set bit.
			if isPowerOfTwo(x, true, depth) || isPowerOfTwo(y, true, depth) {
				return true
			}
			if isNegOf(x, y) || isNegOf(y, x) {
				return true
			}
			return false

		case ir.OpLShr, ir.OpUDiv:
			// An exact shift or divide drops only zeros.
			if op.IsExact() {
				return isPowerOfTwo(op.Operand(0), orZero, depth)
			}
		}
	}

	return false
}
