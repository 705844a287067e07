package valuetracking

import (
	"github.com/invisibleboy/my-customized-llvm/ir"
	"github.com/invisibleboy/my-customized-llvm/target"
)

// PointerBaseWithConstantOffset strips bitcasts and constant-index
// getelementptrs from p, returning the underlying base pointer and
// the accumulated byte offset. Without layout information p is
// returned unchanged with offset 0.
func PointerBaseWithConstantOffset(p ir.Value, td *target.Data) (ir.Value, int64) {
	if td == nil || !ir.IsPointer(p.Type()) {
		return p, 0
	}
	var offset int64
	for {
		op, ok := p.(ir.Operator)
		if !ok {
			return p, offset
		}
		if op.Opcode() == ir.OpBitCast {
			p = op.Operand(0)
			continue
		}
		if op.Opcode() != ir.OpGetElementPtr || !allConstIndices(op) {
			return p, offset
		}

		cur := op.Operand(0).Type()
		for i := 1; i < op.NumOperands(); i++ {
			c := op.Operand(i).(*ir.ConstInt)
			if st, ok := cur.(*ir.StructType); ok {
				if !c.Val.FitsUint64() || c.Val.Uint64() >= uint64(len(st.Fields)) {
					return p, offset
				}
				field := c.Val.Uint64()
				if !c.Val.IsZero() {
					offset += int64(td.StructLayout(st).Offsets[field])
				}
				cur = st.Fields[field]
				continue
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
				return p, offset
			}
			if !c.Val.IsZero() {
				offset += c.Val.Int64() * int64(td.AllocSize(child))
			}
			cur = child
		}

		// Offsets wrap at the pointer width; keep the running value
		// sign extended from there.
		if pb := td.PointerBits(); pb < 64 {
			offset = offset << (64 - pb) >> (64 - pb)
		}
		p = op.Operand(0)
	}
}

func allConstIndices(gep ir.Operator) bool {
	for i := 1; i < gep.NumOperands(); i++ {
		if _, ok := gep.Operand(i).(*ir.ConstInt); !ok {
			return false
		}
	}
	return true
}

// A Simplifier folds an instruction to an equivalent existing value,
// or returns nil. UnderlyingObject uses one to see through
// instructions beyond geps and bitcasts.
type Simplifier func(*ir.Instr, *target.Data) ir.Value

// DefaultMaxLookup is the step bound callers of UnderlyingObject
// usually want.
const DefaultMaxLookup = 6

// UnderlyingObject returns the object a pointer value refers to,
// stripping geps, bitcasts and non-overridable aliases for up to
// maxLookup steps; 0 means no bound. A non-nil simplify hook extends
// the walk through instructions that fold to simpler pointers.
func UnderlyingObject(v ir.Value, td *target.Data, maxLookup int, simplify Simplifier) ir.Value {
	if !ir.IsPointer(v.Type()) {
		return v
	}
	for count := 0; maxLookup == 0 || count < maxLookup; count++ {
		if op, ok := v.(ir.Operator); ok &&
			(op.Opcode() == ir.OpGetElementPtr || op.Opcode() == ir.OpBitCast) {
			v = op.Operand(0)
		} else if a, ok := v.(*ir.Alias); ok {
			if a.Linkage.MayBeOverridden() {
				return v
			}
			v = a.Aliasee
		} else {
			if instr, ok := v.(*ir.Instr); ok && simplify != nil {
				if s := simplify(instr, td); s != nil {
					v = s
					continue
				}
			}
			return v
		}
	}
	return v
}

// OnlyUsedByLifetimeMarkers reports whether every use of v is a
// lifetime start or end intrinsic call. The parent function's
// referrer lists must be built.
func OnlyUsedByLifetimeMarkers(v ir.Value) bool {
	instr, ok := v.(*ir.Instr)
	if !ok {
		return false
	}
	for _, use := range instr.Referrers() {
		switch ir.CalledIntrinsic(use) {
		case "llvm.lifetime.start", "llvm.lifetime.end":
		default:
			return false
		}
	}
	return true
}
