package valuetracking

import (
	"strings"

	"github.com/invisibleboy/my-customized-llvm/bitvec"
	"github.com/invisibleboy/my-customized-llvm/ir"
	"github.com/invisibleboy/my-customized-llvm/target"
)

// speculatableIntrinsics are the intrinsic families with no side
// effects and no undefined behavior on any input.
var speculatableIntrinsics = []string{
	"llvm.bswap.",
	"llvm.ctlz.",
	"llvm.ctpop.",
	"llvm.cttz.",
	"llvm.objectsize.",
	"llvm.sadd.with.overflow.",
	"llvm.smul.with.overflow.",
	"llvm.ssub.with.overflow.",
	"llvm.uadd.with.overflow.",
	"llvm.umul.with.overflow.",
	"llvm.usub.with.overflow.",
}

// IsSafeToSpeculate reports whether executing i before its controlling
// branch condition is known to hold cannot trap, fault or have side
// effects. It does not check whether i's operands would be available
// at the earlier point; hoisting transforms must check that
// separately.
func IsSafeToSpeculate(i *ir.Instr, td *target.Data) bool {
	for _, rand := range i.Operands() {
		if c, ok := rand.(ir.Constant); ok && ir.CanTrap(c) {
			return false
		}
	}

	switch i.Opcode() {
	case ir.OpUDiv, ir.OpURem:
		// x/y traps when y == 0; x/3 is fine.
		return isKnownNonZero(i.Operand(1), td, 0)

	case ir.OpSDiv, ir.OpSRem:
		// Signed division also traps on INT_MIN / -1.
		divisor := i.Operand(1)
		if !isKnownNonZero(divisor, td, 0) {
			return false
		}
		bw := bitWidth(divisor.Type(), td)
		if bw == 0 {
			return false
		}
		kz, _ := knownBits(divisor, bitvec.AllOnes(bw), td, 0)
		return !kz.IsZero()

	case ir.OpLoad:
		return i.IsUnordered() && isDereferenceable(i.Operand(0))

	case ir.OpCall:
		name := ir.CalledIntrinsic(i)
		if name == "" {
			return false
		}
		for _, prefix := range speculatableIntrinsics {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
		// Other calls may have side effects or undefined behavior no
		// attribute rules out.
		return false

	case ir.OpVAArg, ir.OpAlloca, ir.OpInvoke, ir.OpPHI, ir.OpStore,
		ir.OpRet, ir.OpBr, ir.OpIndirectBr, ir.OpSwitch, ir.OpUnwind,
		ir.OpUnreachable, ir.OpFence, ir.OpLandingPad, ir.OpAtomicRMW,
		ir.OpAtomicCmpXchg, ir.OpResume:
		return false
	}
	return true
}

// isDereferenceable reports whether loading through p cannot fault:
// the pointer provably refers to memory that exists for the lifetime
// of the use.
func isDereferenceable(p ir.Value) bool {
	switch p := p.(type) {
	case *ir.Instr:
		if p.Opcode() == ir.OpAlloca {
			return true
		}
	case *ir.Global:
		// Anything but an extern_weak global is a real object;
		// extern_weak may resolve to null.
		return p.Linkage != ir.ExternWeak
	case *ir.Param:
		// A byval argument is the caller's private copy.
		return p.ByVal
	}

	// A gep is dereferenceable when its base is and every index stays
	// inside the object.
	op, ok := p.(ir.Operator)
	if !ok || op.Opcode() != ir.OpGetElementPtr {
		return false
	}
	if !isDereferenceable(op.Operand(0)) {
		return false
	}
	cur := op.Operand(0).Type()
	for i := 1; i < op.NumOperands(); i++ {
		idx := op.Operand(i)
		if st, ok := cur.(*ir.StructType); ok {
			// Struct indices cannot be out of bounds.
			ci, ok := idx.(*ir.ConstInt)
			if !ok || !ci.Val.FitsUint64() || ci.Val.Uint64() >= uint64(len(st.Fields)) {
				return false
			}
			cur = st.Fields[ci.Val.Uint64()]
			continue
		}

		ci, ok := idx.(*ir.ConstInt)
		if !ok {
			return false
		}
		var child ir.Type
		switch t := cur.(type) {
		case *ir.PointerType:
			child = t.Elem
		case *ir.ArrayType:
			child = t.Elem
		case *ir.VectorType:
			child = t.Elem
		default:
			return false
		}
		if !ci.Val.IsZero() {
			// A nonzero index is in bounds only within an array.
			at, ok := cur.(*ir.ArrayType)
			if !ok || !ci.Val.FitsUint64() || ci.Val.Uint64() >= uint64(at.Len) {
				return false
			}
		}
		cur = child
	}
	return true
}
