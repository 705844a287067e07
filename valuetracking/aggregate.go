package valuetracking

import (
	"github.com/invisibleboy/my-customized-llvm/ir"
)

// FindInsertedValue walks insertvalue and extractvalue chains to find
// the value an extractvalue with the given indices would produce, or
// nil if it cannot be determined.
//
// When the requested indices stop partway into an insertion chain,
// the result is a freshly built tree of dangling insertvalue
// instructions assembling the sub-aggregate from the individually
// recoverable leaves. The caller owns those instructions; they are
// attached to no block.
func FindInsertedValue(v ir.Value, idxs ...uint) ir.Value {
	if len(idxs) == 0 {
		return v
	}
	indexed := ir.IndexedType(v.Type(), idxs)
	if indexed == nil {
		return nil
	}

	switch v := v.(type) {
	case *ir.Undef:
		return &ir.Undef{Typ: indexed}
	case *ir.ConstAggregateZero:
		return ir.NullValue(indexed)
	case *ir.ConstArray:
		if int(idxs[0]) >= len(v.Elems) {
			return nil
		}
		return FindInsertedValue(v.Elems[idxs[0]], idxs[1:]...)
	case *ir.ConstStruct:
		if int(idxs[0]) >= len(v.Fields) {
			return nil
		}
		return FindInsertedValue(v.Fields[idxs[0]], idxs[1:]...)
	}

	op, ok := v.(ir.Operator)
	if !ok {
		return nil
	}
	switch op.Opcode() {
	case ir.OpInsertValue:
		instr, ok := v.(*ir.Instr)
		if !ok {
			return nil
		}
		// Walk the requested indices in parallel with the
		// instruction's own.
		for i, instrIdx := range instr.Indices {
			if i == len(idxs) {
				// The request names an aggregate this chain only
				// partially fills; reassemble the part it covers.
				return buildSubAggregate(v, idxs)
			}
			if idxs[i] != instrIdx {
				// The insertion is elsewhere; whatever was inserted
				// into may still hold the requested value.
				return FindInsertedValue(instr.Operand(0), idxs...)
			}
		}
		// The instruction's indices are a prefix of the request: the
		// answer lies within the inserted value.
		return FindInsertedValue(instr.Operand(1), idxs[len(instr.Indices):]...)

	case ir.OpExtractValue:
		instr, ok := v.(*ir.Instr)
		if !ok {
			return nil
		}
		// Extracting then indexing is indexing the source with the
		// concatenated chain.
		combined := make([]uint, 0, len(instr.Indices)+len(idxs))
		combined = append(combined, instr.Indices...)
		combined = append(combined, idxs...)
		return FindInsertedValue(instr.Operand(0), combined...)
	}
	return nil
}

// buildSubAggregate reconstructs the sub-aggregate of from at the
// given index prefix as a chain of dangling insertvalue instructions
// over undef, or nil if any leaf cannot be recovered.
func buildSubAggregate(from ir.Value, idxs []uint) ir.Value {
	indexed := ir.IndexedType(from.Type(), idxs)
	if indexed == nil {
		return nil
	}
	to := ir.Value(&ir.Undef{Typ: indexed})
	prefix := append([]uint(nil), idxs...)
	return buildSubAggregateRec(from, to, indexed, prefix, len(idxs))
}

func buildSubAggregateRec(from, to ir.Value, indexed ir.Type, idxs []uint, skip int) ir.Value {
	if st, ok := indexed.(*ir.StructType); ok {
		for i, f := range st.Fields {
			idxs = append(idxs, uint(i))
			to = buildSubAggregateRec(from, to, f, idxs, skip)
			idxs = idxs[:len(idxs)-1]
			if to == nil {
				return nil
			}
		}
		return to
	}

	// A non-struct leaf must be recoverable whole.
	v := FindInsertedValue(from, idxs...)
	if v == nil {
		return nil
	}
	instr := ir.NewInstr(ir.OpInsertValue, to.Type(), to, v)
	instr.Indices = append([]uint(nil), idxs[skip:]...)
	return instr
}
