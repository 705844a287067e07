package valuetracking

import (
	"math/bits"
	"strings"

	"github.com/invisibleboy/my-customized-llvm/bitvec"
	"github.com/invisibleboy/my-customized-llvm/ir"
	"github.com/invisibleboy/my-customized-llvm/target"
)

// KnownBits computes which bits of v must be zero and which must be
// one, looking only at the bit positions set in mask. The two results
// are disjoint; a position set in neither is simply unknown. The mask
// width fixes the width of the analysis and must match v's width, with
// pointers measured by the target's pointer size.
//
// The walk is bounded by maxAnalysisDepth, so a bit reported unknown
// here may still be provable by a deeper analysis.
func KnownBits(v ir.Value, mask bitvec.Vec, td *target.Data) (knownZero, knownOne bitvec.Vec) {
	assertIntegral(v)
	return knownBits(v, mask, td, 0)
}

// MaskedValueIsZero reports whether every bit of v selected by mask is
// known to be zero.
func MaskedValueIsZero(v ir.Value, mask bitvec.Vec, td *target.Data) bool {
	return maskedValueIsZero(v, mask, td, 0)
}

func maskedValueIsZero(v ir.Value, mask bitvec.Vec, td *target.Data, depth int) bool {
	kz, _ := knownBits(v, mask, td, depth)
	return kz.And(mask).Eq(mask)
}

// SignBit determines what is known about the sign bit of v: whether it
// is known clear, known set, or neither.
func SignBit(v ir.Value, td *target.Data) (knownZero, knownOne bool) {
	return signBit(v, td, 0)
}

func signBit(v ir.Value, td *target.Data, depth int) (knownZero, knownOne bool) {
	bw := bitWidth(v.Type(), td)
	if bw == 0 {
		return false, false
	}
	kz, ko := knownBits(v, bitvec.SignMask(bw), td, depth)
	return kz.Sign(), ko.Sign()
}

func knownBits(v ir.Value, mask bitvec.Vec, td *target.Data, depth int) (kz, ko bitvec.Vec) {
	bw := mask.Width()
	kz, ko = bitvec.New(bw), bitvec.New(bw)

	if debugging {
		defer func() {
			debugf("knownBits(%s, %s) = %s/%s\n", v, mask, kz, ko)
		}()
	}

	switch v := v.(type) {
	case *ir.ConstInt:
		ko = v.Val.And(mask)
		kz = v.Val.Not().And(mask)
		return
	case *ir.ConstNull, *ir.ConstAggregateZero:
		kz = mask
		return
	case *ir.ConstVector:
		// Bits known in every lane are known for the whole vector.
		kz, ko = bitvec.AllOnes(bw), bitvec.AllOnes(bw)
		for _, e := range v.Elems {
			ekz, eko := knownBits(e, mask, td, depth)
			kz = kz.And(ekz)
			ko = ko.And(eko)
		}
		return
	case *ir.Global:
		align := v.Align
		if align == 0 && td != nil && ir.IsSized(v.ValType) {
			// A definition this module owns gets the preferred
			// alignment; anything the linker may replace only gets
			// the ABI minimum.
			if !v.IsDeclaration() && !v.Linkage.MayBeOverridden() {
				align = td.PrefAlign(v.ValType)
			} else {
				align = td.ABIAlign(v.ValType)
			}
		}
		if align > 0 {
			kz = mask.And(bitvec.LowOnes(bw, bits.TrailingZeros32(uint32(align))))
		}
		return
	case *ir.Alias:
		// An overridable alias could point anywhere.
		if v.Linkage.MayBeOverridden() {
			return
		}
		return knownBits(v.Aliasee, mask, td, depth+1)
	case *ir.Param:
		if v.ByVal && v.Align > 0 {
			kz = mask.And(bitvec.LowOnes(bw, bits.TrailingZeros32(uint32(v.Align))))
		}
		return
	}

	if depth == maxAnalysisDepth || mask.IsZero() {
		return
	}
	op, ok := v.(ir.Operator)
	if !ok {
		return
	}

	switch op.Opcode() {
	case ir.OpAnd:
		// Bits zero on either side are zero in the result, so the
		// second query need not look at positions the first already
		// cleared.
		rkz, rko := knownBits(op.Operand(1), mask, td, depth+1)
		lkz, lko := knownBits(op.Operand(0), mask.AndNot(rkz), td, depth+1)
		ko = rko.And(lko)
		kz = rkz.Or(lkz)

	case ir.OpOr:
		rkz, rko := knownBits(op.Operand(1), mask, td, depth+1)
		lkz, lko := knownBits(op.Operand(0), mask.AndNot(rko), td, depth+1)
		kz = rkz.And(lkz)
		ko = rko.Or(lko)

	case ir.OpXor:
		rkz, rko := knownBits(op.Operand(1), mask, td, depth+1)
		lkz, lko := knownBits(op.Operand(0), mask, td, depth+1)
		kz, ko = rkz.And(lkz).Or(rko.And(lko)), rkz.And(lko).Or(rko.And(lkz))

	case ir.OpMul:
		all := bitvec.AllOnes(bw)
		rkz, rko := knownBits(op.Operand(1), all, td, depth+1)
		lkz, lko := knownBits(op.Operand(0), all, td, depth+1)

		knownNonNeg, knownNeg := false, false
		if mask.Sign() && op.HasNSW() {
			if op.Operand(0) == op.Operand(1) {
				// A value times itself cannot be negative.
				knownNonNeg = true
			} else {
				nonNegR, nonNegL := rkz.Sign(), lkz.Sign()
				negR, negL := rko.Sign(), lko.Sign()
				knownNonNeg = (negR && negL) || (nonNegR && nonNegL)
				if !knownNonNeg {
					knownNeg = (negR && nonNegL && isKnownNonZero(op.Operand(0), td, depth)) ||
						(negL && nonNegR && isKnownNonZero(op.Operand(1), td, depth))
				}
			}
		}

		// Trailing zeros add up; a conservative count of leading
		// zeros survives as well.
		trailZ := min(rkz.TrailingOnes()+lkz.TrailingOnes(), bw)
		leadZ := min(max(rkz.LeadingOnes()+lkz.LeadingOnes(), bw)-bw, bw)
		kz = bitvec.LowOnes(bw, trailZ).Or(bitvec.HighOnes(bw, leadZ)).And(mask)
		if knownNonNeg && !ko.Sign() {
			kz = kz.Or(bitvec.SignMask(bw))
		} else if knownNeg && !kz.Sign() {
			ko = ko.Or(bitvec.SignMask(bw))
		}

	case ir.OpUDiv:
		// The quotient keeps the dividend's leading zeros and gains
		// one for every leading zero the divisor is not known to
		// lack.
		all := bitvec.AllOnes(bw)
		lkz, _ := knownBits(op.Operand(0), all, td, depth+1)
		leadZ := lkz.LeadingOnes()
		_, rko := knownBits(op.Operand(1), all, td, depth+1)
		if unknownLeaders := rko.LeadingZeros(); unknownLeaders != bw {
			leadZ = min(bw, leadZ+bw-unknownLeaders-1)
		}
		kz = bitvec.HighOnes(bw, leadZ).And(mask)

	case ir.OpSelect:
		fkz, fko := knownBits(op.Operand(2), mask, td, depth+1)
		tkz, tko := knownBits(op.Operand(1), mask, td, depth+1)
		kz = fkz.And(tkz)
		ko = fko.And(tko)

	case ir.OpPtrToInt, ir.OpIntToPtr, ir.OpZExt, ir.OpTrunc:
		if opc := op.Opcode(); (opc == ir.OpPtrToInt || opc == ir.OpIntToPtr) && td == nil {
			return
		}
		srcBits := bitWidth(op.Operand(0).Type(), td)
		if srcBits == 0 {
			return
		}
		skz, sko := knownBits(op.Operand(0), mask.ZExtOrTrunc(srcBits), td, depth+1)
		kz = skz.ZExtOrTrunc(bw)
		ko = sko.ZExtOrTrunc(bw)
		if bw > srcBits {
			kz = kz.Or(bitvec.HighOnes(bw, bw-srcBits))
		}

	case ir.OpBitCast:
		src := op.Operand(0).Type()
		if ir.IsInteger(src) || ir.IsPointer(src) {
			if _, vec := v.Type().(*ir.VectorType); !vec {
				return knownBits(op.Operand(0), mask, td, depth+1)
			}
		}

	case ir.OpSExt:
		srcBits := ir.IntBits(op.Operand(0).Type())
		if srcBits == 0 {
			return
		}
		skz, sko := knownBits(op.Operand(0), mask.Trunc(srcBits), td, depth+1)
		kz = skz.ZExt(bw)
		ko = sko.ZExt(bw)
		// A known source sign bit fixes all the extended bits.
		if skz.Sign() {
			kz = kz.Or(bitvec.HighOnes(bw, bw-srcBits))
		} else if sko.Sign() {
			ko = ko.Or(bitvec.HighOnes(bw, bw-srcBits))
		}

	case ir.OpShl:
		// (shl X, C1) & C2 == 0   iff   (X & C2 >>u C1) == 0
		if c, ok := op.Operand(1).(*ir.ConstInt); ok {
			amt := uint(c.Val.LimitedValue(uint64(bw)))
			skz, sko := knownBits(op.Operand(0), mask.Lshr(amt), td, depth+1)
			kz = skz.Shl(amt).Or(bitvec.LowOnes(bw, int(amt)))
			ko = sko.Shl(amt)
		}

	case ir.OpLShr:
		if c, ok := op.Operand(1).(*ir.ConstInt); ok {
			amt := uint(c.Val.LimitedValue(uint64(bw)))
			skz, sko := knownBits(op.Operand(0), mask.Shl(amt), td, depth+1)
			kz = skz.Lshr(amt).Or(bitvec.HighOnes(bw, int(amt)))
			ko = sko.Lshr(amt)
		}

	case ir.OpAShr:
		if c, ok := op.Operand(1).(*ir.ConstInt); ok {
			amt := uint(c.Val.LimitedValue(uint64(bw - 1)))
			skz, sko := knownBits(op.Operand(0), mask.Shl(amt), td, depth+1)
			kz = skz.Lshr(amt)
			ko = sko.Lshr(amt)
			// The shifted-in bits copy the sign bit, now sitting at
			// position bw-1-amt.
			if kz.Bit(bw - 1 - int(amt)) {
				kz = kz.Or(bitvec.HighOnes(bw, int(amt)))
			} else if ko.Bit(bw - 1 - int(amt)) {
				ko = ko.Or(bitvec.HighOnes(bw, int(amt)))
			}
		}

	case ir.OpAdd, ir.OpSub:
		isAdd := op.Opcode() == ir.OpAdd
		if !isAdd {
			// C-X cannot wrap when X has fewer significant bits than
			// C, which pins the top of the result to C's leading
			// zeros.
			if c, ok := op.Operand(0).(*ir.ConstInt); ok && !c.Val.Sign() {
				nlz := c.Val.Add(bitvec.One(bw)).LeadingZeros()
				maskV := bitvec.HighOnes(bw, nlz+1)
				rkz, _ := knownBits(op.Operand(1), maskV, td, depth+1)
				if rkz.And(maskV).Eq(maskV) {
					kz = bitvec.HighOnes(bw, c.Val.LeadingZeros()).And(mask)
				}
			}
		}

		// Low bits below a run of known zeros in one operand pass
		// through from the other operand. For sub only the right
		// operand's zeros can be trusted this way.
		mask2 := bitvec.LowOnes(bw, bw-mask.LeadingZeros())
		lkz, lko := knownBits(op.Operand(0), mask2, td, depth+1)
		assertDisjoint(lkz, lko)
		rkz, rko := knownBits(op.Operand(1), mask2, td, depth+1)
		assertDisjoint(rkz, rko)
		lout, rout := lkz.TrailingOnes(), rkz.TrailingOnes()
		if lout > rout {
			if isAdd {
				low := bitvec.LowOnes(bw, lout)
				kz = kz.Or(rkz.And(low))
				ko = ko.Or(rko.And(low))
			} else {
				kz = kz.Or(bitvec.LowOnes(bw, min(lout, rout)))
			}
		} else {
			low := bitvec.LowOnes(bw, rout)
			kz = kz.Or(lkz.And(low))
			ko = ko.Or(lko.And(low))
		}

		if mask.Sign() && !kz.Sign() && !ko.Sign() && op.HasNSW() {
			if isAdd {
				// Same-sign operands cannot wrap across zero.
				if lkz.Sign() && rkz.Sign() {
					kz = kz.Or(bitvec.SignMask(bw))
				} else if lko.Sign() && rko.Sign() {
					ko = ko.Or(bitvec.SignMask(bw))
				}
			} else {
				if lkz.Sign() && rko.Sign() {
					kz = kz.Or(bitvec.SignMask(bw))
				} else if lko.Sign() && rkz.Sign() {
					ko = ko.Or(bitvec.SignMask(bw))
				}
			}
		}

	case ir.OpSRem:
		if c, ok := op.Operand(1).(*ir.ConstInt); ok {
			if ra := c.Val.Abs(); ra.IsPow2() {
				lowBits := ra.Sub(bitvec.One(bw))
				mask2 := lowBits.Or(bitvec.SignMask(bw))
				lkz, lko := knownBits(op.Operand(0), mask2, td, depth+1)

				// The remainder keeps the dividend's low bits. A
				// non-negative dividend, or one with all low bits
				// zero, clears the rest; a negative one with a set
				// low bit fills them.
				kz = lkz.And(lowBits)
				ko = lko.And(lowBits)
				if lkz.Sign() || lkz.And(lowBits).Eq(lowBits) {
					kz = kz.Or(lowBits.Not())
				}
				if lko.Sign() && lko.Intersects(lowBits) {
					ko = ko.Or(lowBits.Not())
				}
				kz = kz.And(mask)
				ko = ko.And(mask)
				assertDisjoint(kz, ko)
			}
		}

		// Unless the remainder is zero, it has the dividend's sign.
		if mask.Sign() && !kz.Sign() {
			lkz, _ := knownBits(op.Operand(0), bitvec.SignMask(bw), td, depth+1)
			if lkz.Sign() {
				kz = kz.Or(lkz)
			}
		}

	case ir.OpURem:
		if c, ok := op.Operand(1).(*ir.ConstInt); ok && c.Val.IsPow2() {
			lowBits := c.Val.Sub(bitvec.One(bw))
			lkz, lko := knownBits(op.Operand(0), lowBits.And(mask), td, depth+1)
			kz = lowBits.Not().And(mask).Or(lkz)
			ko = lko
			assertDisjoint(kz, ko)
			break
		}

		// The result is no larger than either operand, so it keeps
		// the larger run of leading zeros.
		all := bitvec.AllOnes(bw)
		lkz, _ := knownBits(op.Operand(0), all, td, depth+1)
		rkz, _ := knownBits(op.Operand(1), all, td, depth+1)
		leaders := max(lkz.LeadingOnes(), rkz.LeadingOnes())
		kz = bitvec.HighOnes(bw, leaders).And(mask)

	case ir.OpAlloca:
		instr, ok := v.(*ir.Instr)
		if !ok {
			return
		}
		align := instr.Align
		if align == 0 && td != nil {
			align = td.ABIAlign(instr.Alloc)
		}
		if align > 0 {
			kz = mask.And(bitvec.LowOnes(bw, bits.TrailingZeros32(uint32(align))))
		}

	case ir.OpGetElementPtr:
		// Every step contributes a factor to the address; the result
		// keeps the common trailing zeros of all of them.
		lkz, _ := knownBits(op.Operand(0), bitvec.AllOnes(bw), td, depth+1)
		trailZ := lkz.TrailingOnes()
		cur := op.Operand(0).Type()
		for i := 1; i < op.NumOperands(); i++ {
			idx := op.Operand(i)
			if st, ok := cur.(*ir.StructType); ok {
				if td == nil {
					return
				}
				ci, ok := idx.(*ir.ConstInt)
				if !ok || !ci.Val.FitsUint64() || ci.Val.Uint64() >= uint64(len(st.Fields)) {
					return
				}
				field := ci.Val.Uint64()
				off := td.StructLayout(st).Offsets[field]
				trailZ = min(trailZ, bits.TrailingZeros64(off))
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
				return
			}
			if !ir.IsSized(child) {
				return
			}
			idxBits := ir.IntBits(idx.Type())
			if idxBits == 0 {
				return
			}
			stride := uint64(1)
			if td != nil {
				stride = td.AllocSize(child)
			}
			ikz, _ := knownBits(idx, bitvec.AllOnes(idxBits), td, depth+1)
			trailZ = min(trailZ, bits.TrailingZeros64(stride)+ikz.TrailingOnes())
			cur = child
		}
		kz = bitvec.LowOnes(bw, min(trailZ, bw)).And(mask)

	case ir.OpPHI:
		phi, ok := v.(*ir.Instr)
		if !ok {
			return
		}
		// A two-arm recurrence like i = phi [entry, i op step] keeps
		// the common trailing zeros of the start and the step.
		if phi.NumIncoming() == 2 {
		recurrence:
			for i := 0; i != 2; i++ {
				l, _ := phi.Incoming(i)
				r, _ := phi.Incoming(1 - i)
				lu, ok := l.(ir.Operator)
				if !ok {
					continue
				}
				switch lu.Opcode() {
				case ir.OpAdd, ir.OpSub, ir.OpAnd, ir.OpOr, ir.OpMul:
				default:
					continue
				}
				switch {
				case lu.Operand(0) == v:
					l = lu.Operand(1)
				case lu.Operand(1) == v:
					l = lu.Operand(0)
				default:
					break recurrence
				}
				rkz, _ := knownBits(r, bitvec.AllOnes(bw), td, depth+1)
				lkz, _ := knownBits(l, bitvec.LowOnes(bw, rkz.TrailingOnes()), td, depth+1)
				kz = mask.And(bitvec.LowOnes(bw, min(rkz.TrailingOnes(), lkz.TrailingOnes())))
				break
			}
		}

		// Unreachable blocks can hold phis with no incoming edges.
		if phi.NumIncoming() == 0 {
			return
		}

		// Otherwise intersect what is known about every incoming
		// value, capping the recursion so loops cannot spin.
		if depth < maxAnalysisDepth-1 && kz.IsZero() && ko.IsZero() {
			allSelf := true
			for i := 0; i < phi.NumIncoming(); i++ {
				if in, _ := phi.Incoming(i); in != v {
					allSelf = false
					break
				}
			}
			if allSelf {
				break
			}
			kz, ko = bitvec.AllOnes(bw), bitvec.AllOnes(bw)
			for i := 0; i < phi.NumIncoming(); i++ {
				in, _ := phi.Incoming(i)
				if in == v {
					continue
				}
				ikz, iko := knownBits(in, kz.Or(ko), td, maxAnalysisDepth-1)
				kz = kz.And(ikz)
				ko = ko.And(iko)
				if kz.IsZero() && ko.IsZero() {
					break
				}
			}
		}

	case ir.OpCall:
		instr, ok := v.(*ir.Instr)
		if !ok {
			return
		}
		switch name := ir.CalledIntrinsic(instr); {
		case strings.HasPrefix(name, "llvm.ctlz.") || strings.HasPrefix(name, "llvm.cttz."):
			low := log2(bw) + 1
			// A count that is undefined for zero input cannot yield
			// the full width.
			if instr.NumArgs() >= 2 {
				if c, ok := instr.Arg(1).(*ir.ConstInt); ok && c.Typ.Bits == 1 && !c.Val.IsZero() {
					low--
				}
			}
			kz = bitvec.HighOnes(bw, bw-low)
		case strings.HasPrefix(name, "llvm.ctpop."):
			kz = bitvec.HighOnes(bw, bw-(log2(bw)+1))
		case name == "llvm.x86.sse42.crc32.64.8" || name == "llvm.x86.sse42.crc32.64.64":
			if bw == 64 {
				kz = bitvec.HighOnes(64, 32)
			}
		}
	}

	assertDisjoint(kz, ko)
	return kz, ko
}

// log2 returns the floor of the base-2 logarithm of n, for n >= 1.
func log2(n int) int { return bits.Len(uint(n)) - 1 }
