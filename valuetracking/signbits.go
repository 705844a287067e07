package valuetracking

import (
	"github.com/invisibleboy/my-customized-llvm/bitvec"
	"github.com/invisibleboy/my-customized-llvm/ir"
	"github.com/invisibleboy/my-customized-llvm/target"
)

// NumSignBits returns the minimum number of equal high-order bits v is
// known to have, counting the sign bit itself. The answer is at least
// 1: every value trivially matches its own sign bit. A full-width
// answer means the value is known to be 0 or -1.
func NumSignBits(v ir.Value, td *target.Data) int {
	return numSignBits(v, td, 0)
}

func numSignBits(v ir.Value, td *target.Data, depth int) int {
	tyBits := bitWidth(v.Type(), td)
	if tyBits == 0 {
		return 1
	}
	firstAnswer := 1

	if depth == maxAnalysisDepth {
		return 1
	}

	if op, ok := v.(ir.Operator); ok {
		switch op.Opcode() {
		case ir.OpSExt:
			// The extension replicates the source's sign bits across
			// the widened range.
			added := tyBits - ir.IntBits(op.Operand(0).Type())
			return numSignBits(op.Operand(0), td, depth+1) + added

		case ir.OpAShr:
			n := numSignBits(op.Operand(0), td, depth+1)
			if c, ok := op.Operand(1).(*ir.ConstInt); ok {
				n += int(c.Val.LimitedValue(uint64(tyBits)))
				if n > tyBits {
					n = tyBits
				}
			}
			return n

		case ir.OpShl:
			if c, ok := op.Operand(1).(*ir.ConstInt); ok {
				amt := c.Val.LimitedValue(uint64(tyBits))
				n := numSignBits(op.Operand(0), td, depth+1)
				if amt < uint64(tyBits) && amt < uint64(n) {
					return n - int(amt)
				}
			}

		case ir.OpAnd, ir.OpOr, ir.OpXor:
			// Logical ops keep at least the sign bits common to both
			// sides; the bit-level fallback below may still do
			// better.
			n := numSignBits(op.Operand(0), td, depth+1)
			if n != 1 {
				n2 := numSignBits(op.Operand(1), td, depth+1)
				firstAnswer = min(n, n2)
			}

		case ir.OpSelect:
			n := numSignBits(op.Operand(1), td, depth+1)
			if n == 1 {
				return 1
			}
			n2 := numSignBits(op.Operand(2), td, depth+1)
			return min(n, n2)

		case ir.OpAdd:
			// At worst the carry costs one bit.
			n := numSignBits(op.Operand(0), td, depth+1)
			if n == 1 {
				return 1
			}

			// X + -1 is a decrement: if X is 0 or 1 the result is all
			// sign bits, and if X is positive there is no carry out.
			if c, ok := op.Operand(1).(*ir.ConstInt); ok && c.Val.IsAllOnes() {
				all := bitvec.AllOnes(tyBits)
				kz, _ := knownBits(op.Operand(0), all, td, depth+1)
				if kz.Or(bitvec.One(tyBits)).Eq(all) {
					return tyBits
				}
				if kz.Sign() {
					return n
				}
			}

			n2 := numSignBits(op.Operand(1), td, depth+1)
			if n2 == 1 {
				return 1
			}
			return min(n, n2) - 1

		case ir.OpSub:
			n2 := numSignBits(op.Operand(1), td, depth+1)
			if n2 == 1 {
				return 1
			}

			// 0 - X negates: a 0-or-1 input gives all sign bits, and
			// a positive input cannot carry.
			if c, ok := op.Operand(0).(*ir.ConstInt); ok && c.Val.IsZero() {
				all := bitvec.AllOnes(tyBits)
				kz, _ := knownBits(op.Operand(1), all, td, depth+1)
				if kz.Or(bitvec.One(tyBits)).Eq(all) {
					return tyBits
				}
				if kz.Sign() {
					return n2
				}
			}

			n := numSignBits(op.Operand(0), td, depth+1)
			if n == 1 {
				return 1
			}
			return min(n, n2) - 1

		case ir.OpPHI:
			phi, ok := v.(*ir.Instr)
			if ok && phi.NumIncoming() > 0 && phi.NumIncoming() <= 4 {
				in, _ := phi.Incoming(0)
				n := numSignBits(in, td, depth+1)
				for i := 1; i < phi.NumIncoming(); i++ {
					if n == 1 {
						return 1
					}
					in, _ := phi.Incoming(i)
					n = min(n, numSignBits(in, td, depth+1))
				}
				return n
			}
		}
	}

	// Fall back on the bit-level analysis: a known run at the top,
	// zero or one, is a run of sign bits.
	kz, ko := knownBits(v, bitvec.AllOnes(tyBits), td, depth)
	var m bitvec.Vec
	switch {
	case kz.Sign():
		m = kz
	case ko.Sign():
		m = ko
	default:
		return firstAnswer
	}
	return max(firstAnswer, m.LeadingOnes())
}
