package valuetracking

import (
	"strings"

	"github.com/invisibleboy/my-customized-llvm/ir"
)

// ConstantString reads the constant string v points to, starting
// offset bytes in. With stopAtNul set, reading stops at the first NUL
// byte, which is not included; otherwise the rest of the array is
// returned. The second result reports whether a string could be
// extracted at all.
//
// v may be the global itself or a bitcast or two-index gep of it, the
// shape the IR uses for string literals.
func ConstantString(v ir.Value, offset uint64, stopAtNul bool) (string, bool) {
	if op, ok := v.(ir.Operator); ok {
		if op.Opcode() == ir.OpBitCast {
			return ConstantString(op.Operand(0), offset, stopAtNul)
		}
		if op.Opcode() == ir.OpGetElementPtr {
			if op.NumOperands() != 3 {
				return "", false
			}
			// Only the form gep [n x i8]* @g, 0, idx pins down a
			// position inside the initializer.
			pt, ok := op.Operand(0).Type().(*ir.PointerType)
			if !ok {
				return "", false
			}
			at, ok := pt.Elem.(*ir.ArrayType)
			if !ok || ir.IntBits(at.Elem) != 8 {
				return "", false
			}
			first, ok := op.Operand(1).(*ir.ConstInt)
			if !ok || !first.Val.IsZero() {
				return "", false
			}
			idx, ok := op.Operand(2).(*ir.ConstInt)
			if !ok || !idx.Val.FitsUint64() {
				return "", false
			}
			return ConstantString(op.Operand(0), offset+idx.Val.Uint64(), stopAtNul)
		}
		return "", false
	}

	g, ok := v.(*ir.Global)
	if !ok || !g.IsConst || !g.HasDefinitiveInitializer() {
		return "", false
	}

	// A zero initializer is the empty string at any offset.
	if ir.IsNullValue(g.Init) {
		return "", true
	}

	arr, ok := g.Init.(*ir.ConstArray)
	if !ok || ir.IntBits(arr.Typ.Elem) != 8 {
		return "", false
	}
	if offset > uint64(len(arr.Elems)) {
		return "", false
	}

	var sb strings.Builder
	for i := int(offset); i < len(arr.Elems); i++ {
		c, ok := arr.Elems[i].(*ir.ConstInt)
		if !ok {
			return "", false
		}
		if stopAtNul && c.Val.IsZero() {
			return sb.String(), true
		}
		sb.WriteByte(byte(c.Val.Uint64()))
	}

	// No terminator, but the bytes up to the end are still good, as
	// for a memcpy source.
	return sb.String(), true
}

// StringLength returns the length of the NUL-terminated string v
// points to, including the terminator, or 0 if it cannot be
// determined. A result of 1 means the empty string.
func StringLength(v ir.Value) uint64 {
	if !ir.IsPointer(v.Type()) {
		return 0
	}
	n := stringLength(v, map[*ir.Instr]bool{})
	if n == missing {
		// Only an unresolvable phi cycle produces this, which means
		// the code is unreachable; call it an empty string rather
		// than failing.
		return 1
	}
	return n
}

// missing marks a phi arm that resolved to no length at all, as
// opposed to an unknown one.
const missing = ^uint64(0)

func stringLength(v ir.Value, visited map[*ir.Instr]bool) uint64 {
	if op, ok := v.(ir.Operator); ok && op.Opcode() == ir.OpBitCast {
		return stringLength(op.Operand(0), visited)
	}

	if instr, ok := v.(*ir.Instr); ok && instr.Opcode() == ir.OpPHI {
		if visited[instr] {
			return missing
		}
		visited[instr] = true

		// All arms must agree, except that an arm with no length of
		// its own, such as the back edge of a loop, does not vote.
		sofar := missing
		for i := 0; i < instr.NumIncoming(); i++ {
			in, _ := instr.Incoming(i)
			n := stringLength(in, visited)
			if n == 0 {
				return 0
			}
			if n == missing {
				continue
			}
			if sofar != missing && n != sofar {
				return 0
			}
			sofar = n
		}
		return sofar
	}

	if op, ok := v.(ir.Operator); ok && op.Opcode() == ir.OpSelect {
		n1 := stringLength(op.Operand(1), visited)
		if n1 == 0 {
			return 0
		}
		n2 := stringLength(op.Operand(2), visited)
		if n2 == 0 {
			return 0
		}
		if n1 == missing {
			return n2
		}
		if n2 == missing {
			return n1
		}
		if n1 != n2 {
			return 0
		}
		return n1
	}

	// A pointer straight at a zero-filled constant is the empty
	// string.
	if g, ok := v.(*ir.Global); ok {
		if g.IsConst && g.HasDefinitiveInitializer() && ir.IsNullValue(g.Init) {
			return 1
		}
		return 0
	}

	op, ok := v.(ir.Operator)
	if !ok || op.Opcode() != ir.OpGetElementPtr || op.NumOperands() != 3 {
		return 0
	}
	first, ok := op.Operand(1).(*ir.ConstInt)
	if !ok || !first.Val.IsZero() {
		return 0
	}
	idx, ok := op.Operand(2).(*ir.ConstInt)
	if !ok || !idx.Val.FitsUint64() {
		return 0
	}
	startIdx := idx.Val.Uint64()

	g, ok := op.Operand(0).(*ir.Global)
	if !ok || !g.IsConst || !g.HasDefinitiveInitializer() {
		return 0
	}
	if ir.IsNullValue(g.Init) {
		return 1
	}
	arr, ok := g.Init.(*ir.ConstArray)
	if !ok || ir.IntBits(arr.Typ.Elem) != 8 {
		return 0
	}
	for i := startIdx; i < uint64(len(arr.Elems)); i++ {
		c, ok := arr.Elems[i].(*ir.ConstInt)
		if !ok {
			return 0
		}
		if c.Val.IsZero() {
			return i - startIdx + 1
		}
	}
	return 0
}
