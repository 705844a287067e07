package valuetracking

import (
	"strings"

	"github.com/invisibleboy/my-customized-llvm/ir"
)

// CannotBeNegativeZero reports whether the floating point value v is
// known not to be -0.0. It looks through the handful of operations
// that are guaranteed to produce +0.0 for a zero result.
func CannotBeNegativeZero(v ir.Value) bool {
	return cannotBeNegativeZero(v, 0)
}

func cannotBeNegativeZero(v ir.Value, depth int) bool {
	if c, ok := v.(*ir.ConstFloat); ok {
		return !c.IsNegZero()
	}

	if depth == maxAnalysisDepth {
		return true
	}

	op, ok := v.(ir.Operator)
	if !ok {
		return false
	}

	// x + 0.0 returns +0.0 even when x is -0.0.
	if op.Opcode() == ir.OpFAdd {
		if c, ok := op.Operand(1).(*ir.ConstFloat); ok && c.IsPosZero() {
			return true
		}
	}

	// Integer conversions produce +0.0 for zero.
	if op.Opcode() == ir.OpSIToFP || op.Opcode() == ir.OpUIToFP {
		return true
	}

	if instr, ok := v.(*ir.Instr); ok && instr.Opcode() == ir.OpCall && instr.NumArgs() >= 1 {
		// sqrt(-0.0) is -0.0, but no other negative result is
		// possible.
		if strings.HasPrefix(ir.CalledIntrinsic(instr), "llvm.sqrt.") {
			return cannotBeNegativeZero(instr.Arg(0), depth+1)
		}
		if f, ok := instr.Callee().(*ir.Function); ok && f.IsDeclaration() {
			switch f.Name() {
			case "abs", "fabs", "fabsf", "fabsl":
				return true
			case "sqrt", "sqrtf", "sqrtl":
				return cannotBeNegativeZero(instr.Arg(0), depth+1)
			}
		}
	}

	return false
}
