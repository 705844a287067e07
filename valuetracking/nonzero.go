package valuetracking

import (
	"github.com/invisibleboy/my-customized-llvm/bitvec"
	"github.com/invisibleboy/my-customized-llvm/ir"
	"github.com/invisibleboy/my-customized-llvm/target"
)

// IsKnownNonZero reports whether v is known to have a value other than
// zero. For pointer values this means known not null.
func IsKnownNonZero(v ir.Value, td *target.Data) bool {
	return isKnownNonZero(v, td, 0)
}

func isKnownNonZero(v ir.Value, td *target.Data, depth int) bool {
	if c, ok := v.(ir.Constant); ok {
		if ir.IsNullValue(c) {
			return false
		}
		if _, ok := c.(*ir.ConstInt); ok {
			return true
		}
		return false
	}

	if depth >= maxAnalysisDepth {
		return false
	}
	depth++

	bw := bitWidth(v.Type(), td)

	if op, ok := v.(ir.Operator); ok {
		switch op.Opcode() {
		case ir.OpOr:
			// x | y keeps every set bit of both sides.
			return isKnownNonZero(op.Operand(0), td, depth) ||
				isKnownNonZero(op.Operand(1), td, depth)

		case ir.OpSExt, ir.OpZExt:
			return isKnownNonZero(op.Operand(0), td, depth)

		case ir.OpShl:
			if bw == 0 {
				break
			}
			// shl nuw cannot shift out a set bit, and shifting an odd
			// value left keeps at least one bit set or is undefined.
			if op.HasNUW() {
				return isKnownNonZero(op.Operand(0), td, depth)
			}
			if _, ko := knownBits(op.Operand(0), bitvec.One(bw), td, depth); ko.Bit(0) {
				return true
			}

		case ir.OpLShr, ir.OpAShr:
			// shr exact drops only zeros, and shifting a negative
			// value right keeps the sign bit somewhere or is
			// undefined.
			if op.IsExact() {
				return isKnownNonZero(op.Operand(0), td, depth)
			}
			if _, neg := signBit(op.Operand(0), td, depth); neg {
				return true
			}

		case ir.OpSDiv, ir.OpUDiv:
			// An exact divide yields zero only for a zero dividend.
			if op.IsExact() {
				return isKnownNonZero(op.Operand(0), td, depth)
			}

		case ir.OpAdd:
			x, y := op.Operand(0), op.Operand(1)
			xNonNeg, xNeg := signBit(x, td, depth)
			yNonNeg, yNeg := signBit(y, td, depth)

			// Two non-negative values sum to zero only when both are
			// zero.
			if xNonNeg && yNonNeg {
				if isKnownNonZero(x, td, depth) || isKnownNonZero(y, td, depth) {
					return true
				}
			}

			// Two negative values sum to zero only when both are the
			// minimum, so any other known-one bit rules it out.
			if bw != 0 && xNeg && yNeg {
				signedMax := bitvec.SignMask(bw).Not()
				if _, ko := knownBits(x, signedMax, td, depth); !ko.IsZero() {
					return true
				}
				if _, ko := knownBits(y, signedMax, td, depth); !ko.IsZero() {
					return true
				}
			}

			// A non-negative value plus a power of two is never zero.
			if xNonNeg && isPowerOfTwo(y, false, depth) {
				return true
			}
			if yNonNeg && isPowerOfTwo(x, false, depth) {
				return true
			}

		case ir.OpMul:
			// Without a wrap guarantee the product of two non-zero
			// values can still wrap around to zero.
			if (op.HasNSW() || op.HasNUW()) &&
				isKnownNonZero(op.Operand(0), td, depth) &&
				isKnownNonZero(op.Operand(1), td, depth) {
				return true
			}

		case ir.OpSelect:
			if isKnownNonZero(op.Operand(1), td, depth) &&
				isKnownNonZero(op.Operand(2), td, depth) {
				return true
			}
		}
	}

	if bw == 0 {
		return false
	}
	_, ko := knownBits(v, bitvec.AllOnes(bw), td, depth)
	return !ko.IsZero()
}
