package main

import (
	"fmt"

	"github.com/invisibleboy/my-customized-llvm/bitvec"
	"github.com/invisibleboy/my-customized-llvm/ir"
	"github.com/invisibleboy/my-customized-llvm/target"
	"github.com/invisibleboy/my-customized-llvm/valuetracking"
)

// A valueReport is everything the analyses can say about one named
// instruction result.
type valueReport struct {
	Func     string `json:"func"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Bits     string `json:"bits,omitempty"`
	Sign     string `json:"sign,omitempty"`
	SignBits int    `json:"sign_bits,omitempty"`
	NonZero  bool   `json:"non_zero,omitempty"`
	Pow2     bool   `json:"power_of_two,omitempty"`
	Base     string `json:"base,omitempty"`
	Offset   int64  `json:"offset,omitempty"`
	Object   string `json:"object,omitempty"`
}

func (r valueReport) String() string {
	s := fmt.Sprintf("%s %s %s", r.Func, r.Name, r.Type)
	if r.Bits != "" {
		s += " " + r.Bits
	}
	if r.Sign != "" {
		s += " sign=" + r.Sign
	}
	if r.SignBits > 0 {
		s += fmt.Sprintf(" signbits=%d", r.SignBits)
	}
	if r.NonZero {
		s += " nonzero"
	}
	if r.Pow2 {
		s += " pow2"
	}
	if r.Base != "" {
		s += fmt.Sprintf(" base %s%+d", r.Base, r.Offset)
	}
	if r.Object != "" {
		s += " object " + r.Object
	}
	return s
}

func report(m *ir.Module, td *target.Data, funcFilter, valueFilter string) []valueReport {
	var out []valueReport
	for _, fn := range m.Funcs {
		if funcFilter != "" && fn.Name() != funcFilter {
			continue
		}
		for _, b := range fn.Blocks {
			for _, instr := range b.Instrs {
				if instr.Name() == "" {
					continue
				}
				if valueFilter != "" && instr.Name() != valueFilter {
					continue
				}
				if r, ok := describe(fn, instr, td); ok {
					out = append(out, r)
				}
			}
		}
	}
	return out
}

func describe(fn *ir.Function, instr *ir.Instr, td *target.Data) (valueReport, bool) {
	r := valueReport{
		Func: fn.String(),
		Name: instr.String(),
		Type: instr.Type().String(),
	}

	if w := ir.IntBits(instr.Type()); w > 0 {
		kz, ko := valuetracking.KnownBits(instr, bitvec.AllOnes(w), td)
		r.Bits = pattern(kz, ko)
		switch z, o := valuetracking.SignBit(instr, td); {
		case z:
			r.Sign = "+"
		case o:
			r.Sign = "-"
		default:
			r.Sign = "?"
		}
		r.SignBits = valuetracking.NumSignBits(instr, td)
		r.NonZero = valuetracking.IsKnownNonZero(instr, td)
		r.Pow2 = valuetracking.IsPowerOfTwo(instr, false)
		return r, true
	}

	if ir.IsPointer(instr.Type()) {
		base, off := valuetracking.PointerBaseWithConstantOffset(instr, td)
		r.Base = base.String()
		r.Offset = off
		r.Object = valuetracking.UnderlyingObject(instr, td, valuetracking.DefaultMaxLookup, nil).String()
		return r, true
	}

	return valueReport{}, false
}

// pattern renders the merged bit knowledge most significant bit
// first: 0 and 1 for known bits, x for unknown ones.
func pattern(kz, ko bitvec.Vec) string {
	w := kz.Width()
	b := make([]byte, w)
	for i := 0; i < w; i++ {
		c := byte('x')
		switch {
		case kz.Bit(i):
			c = '0'
		case ko.Bit(i):
			c = '1'
		}
		b[w-1-i] = c
	}
	return string(b)
}
