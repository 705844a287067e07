// Package valuetracking answers questions about the bits of SSA
// values: which bits are known to be zero or one, how many sign bits
// a value has, whether it is a power of two or known not to be zero,
// and a handful of derived facts about pointers, aggregates and
// constant strings.
//
// All analyses are depth-bounded. They walk a value's definition a
// fixed number of steps and report what they can prove within that
// budget; an inconclusive answer is always the safe one ("nothing
// known", "not proven non-zero"). Layout-dependent facts take a
// *target.Data and degrade to weaker answers when it is nil.
package valuetracking

import (
	"fmt"

	"github.com/invisibleboy/my-customized-llvm/bitvec"
	"github.com/invisibleboy/my-customized-llvm/ir"
	"github.com/invisibleboy/my-customized-llvm/target"
)

// maxAnalysisDepth bounds the recursion of the bit-level analyses.
// Six levels is enough to see through the instruction combinations
// that occur in practice without making analysis cost explode.
const maxAnalysisDepth = 6

// maxMultipleDepth bounds the recursion of ComputeMultiple, which
// walks value trees of a different shape than the bit analyses.
const maxMultipleDepth = 6

const debugging = false

func debugf(f string, args ...any) {
	if debugging {
		fmt.Printf(f, args...)
	}
}

func assertDisjoint(kz, ko bitvec.Vec) {
	if debugging && kz.Intersects(ko) {
		panic(fmt.Sprintf("valuetracking: bits known both zero and one: %s, %s", kz, ko))
	}
}

// assertIntegral guards the caller contract of the bit analyses:
// only integers, pointers and integer vectors carry bits to reason
// about.
func assertIntegral(v ir.Value) {
	if !debugging {
		return
	}
	t := v.Type()
	if vt, ok := t.(*ir.VectorType); ok {
		t = vt.Elem
	}
	if !ir.IsInteger(t) && !ir.IsPointer(t) {
		panic(fmt.Sprintf("valuetracking: bit analysis of %s value %s", v.Type(), v))
	}
}

// bitWidth returns the width of an integer type, the pointer width
// for pointer types when the layout is known, and 0 otherwise.
func bitWidth(t ir.Type, td *target.Data) int {
	if bits := ir.IntBits(t); bits != 0 {
		return bits
	}
	if ir.IsPointer(t) && td != nil {
		return td.PointerBits()
	}
	return 0
}

// binop destructures v as an application of one of the given opcodes.
func binop(v ir.Value, ops ...ir.Op) (x, y ir.Value, ok bool) {
	o, isOp := v.(ir.Operator)
	if !isOp || o.NumOperands() != 2 {
		return nil, nil, false
	}
	for _, op := range ops {
		if o.Opcode() == op {
			return o.Operand(0), o.Operand(1), true
		}
	}
	return nil, nil, false
}

// isConstOne reports whether v is the integer constant 1.
func isConstOne(v ir.Value) bool {
	c, ok := v.(*ir.ConstInt)
	return ok && c.Val.Eq(bitvec.One(c.Typ.Bits))
}

// isSignMaskConst reports whether v is the integer constant with only
// the sign bit set.
func isSignMaskConst(v ir.Value) bool {
	c, ok := v.(*ir.ConstInt)
	return ok && c.Val.Eq(bitvec.SignMask(c.Typ.Bits))
}

// isNegOf reports whether v computes 0 - x, with x matched
// syntactically.
func isNegOf(v, x ir.Value) bool {
	a, b, ok := binop(v, ir.OpSub)
	if !ok {
		return false
	}
	c, isConst := a.(*ir.ConstInt)
	return isConst && c.Val.IsZero() && b == x
}
