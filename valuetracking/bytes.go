package valuetracking

import (
	"github.com/invisibleboy/my-customized-llvm/ir"
)

// BytewiseValue returns the single byte that, repeated, fills every
// byte of v, or nil if v is not such a splat. The result is an i8
// value, possibly a non-constant one: any i8 value trivially splats
// itself. This is the form a memset can materialize.
func BytewiseValue(v ir.Value) ir.Value {
	// Byte-wide values splat themselves, constant or not.
	if ir.IntBits(v.Type()) == 8 {
		return v
	}

	if c, ok := v.(ir.Constant); ok && ir.IsNullValue(c) {
		return ir.NewConstInt(ir.I8, 0)
	}

	// Float constants splat when their bit pattern does.
	if c, ok := v.(*ir.ConstFloat); ok {
		switch c.Typ.Bits {
		case 32:
			v = ir.NewConstInt(ir.I32, c.Bits)
		case 64:
			v = ir.NewConstInt(ir.I64, c.Bits)
		default:
			// The longer formats have padding and other quirks; leave
			// them alone.
			return nil
		}
	}

	if c, ok := v.(*ir.ConstInt); ok {
		width := c.Typ.Bits
		if width > 8 && width&(width-1) == 0 {
			// Split in half repeatedly; a splat has equal halves all
			// the way down to one byte.
			val := c.Val
			for val.Width() != 8 {
				half := val.Width() / 2
				hi := val.Lshr(uint(half)).Trunc(half)
				val = val.Trunc(half)
				if !val.Eq(hi) {
					return nil
				}
			}
			return ir.NewConstIntFromVec(ir.I8, val)
		}
	}

	if c, ok := v.(*ir.ConstArray); ok {
		if len(c.Elems) == 0 {
			return nil
		}
		val := BytewiseValue(c.Elems[0])
		if val == nil {
			return nil
		}
		for i := 1; i < len(c.Elems); i++ {
			if !ir.Equal(c.Elems[i-1], c.Elems[i]) {
				return nil
			}
		}
		return val
	}

	return nil
}
