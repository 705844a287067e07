// Package ir defines a small SSA intermediate representation for
// integer, floating point, pointer and aggregate computation, close
// enough to LLVM assembly that modules round-trip through the textual
// form implemented in parse.go and print.go.
//
// Values form a closed set: constants, globals, aliases, function
// parameters and instructions. Instructions and constant expressions
// both satisfy Operator, which exposes an opcode, operands and
// overflow flags uniformly. Analyses dispatch on the operator
// abstraction and never need to distinguish the two.
package ir

import (
	"fmt"
	"strings"
)

// A Type describes the shape of a value. Types are compared
// structurally with Same; construction does not intern.
type Type interface {
	isType()
	String() string
}

type (
	// IntType is an integer type of an arbitrary bit width between 1
	// and bitvec.MaxWidth.
	IntType struct{ Bits int }

	// FloatType is a binary floating point type. Bits selects the
	// format: 16, 32, 64, 80 or 128.
	FloatType struct{ Bits int }

	// PointerType points to values of type Elem.
	PointerType struct{ Elem Type }

	// ArrayType is Len consecutive values of type Elem.
	ArrayType struct {
		Elem Type
		Len  int64
	}

	// VectorType is Len lanes of the scalar type Elem.
	VectorType struct {
		Elem Type
		Len  int64
	}

	// StructType is a sequence of fields, optionally packed.
	StructType struct {
		Fields []Type
		Packed bool
	}

	// FuncType describes a function signature.
	FuncType struct {
		Ret      Type
		Params   []Type
		Variadic bool
	}

	VoidType  struct{}
	LabelType struct{}
)

func (*IntType) isType()     {}
func (*FloatType) isType()   {}
func (*PointerType) isType() {}
func (*ArrayType) isType()   {}
func (*VectorType) isType()  {}
func (*StructType) isType()  {}
func (*FuncType) isType()    {}
func (*VoidType) isType()    {}
func (*LabelType) isType()   {}

var (
	Void  = &VoidType{}
	Label = &LabelType{}

	I1  = &IntType{Bits: 1}
	I8  = &IntType{Bits: 8}
	I16 = &IntType{Bits: 16}
	I32 = &IntType{Bits: 32}
	I64 = &IntType{Bits: 64}

	Float  = &FloatType{Bits: 32}
	Double = &FloatType{Bits: 64}
)

// IntTy returns the integer type of the given width, reusing the
// shared instance for the common widths.
func IntTy(bits int) *IntType {
	switch bits {
	case 1:
		return I1
	case 8:
		return I8
	case 16:
		return I16
	case 32:
		return I32
	case 64:
		return I64
	}
	return &IntType{Bits: bits}
}

func PointerTo(elem Type) *PointerType      { return &PointerType{Elem: elem} }
func ArrayOf(n int64, elem Type) *ArrayType { return &ArrayType{Elem: elem, Len: n} }

func VectorOf(n int64, elem Type) *VectorType { return &VectorType{Elem: elem, Len: n} }

func StructOf(fields ...Type) *StructType { return &StructType{Fields: fields} }

func (t *IntType) String() string { return fmt.Sprintf("i%d", t.Bits) }

func (t *FloatType) String() string {
	switch t.Bits {
	case 16:
		return "half"
	case 32:
		return "float"
	case 64:
		return "double"
	case 80:
		return "x86_fp80"
	case 128:
		return "fp128"
	}
	return fmt.Sprintf("f%d", t.Bits)
}

func (t *PointerType) String() string { return t.Elem.String() + "*" }
func (t *ArrayType) String() string   { return fmt.Sprintf("[%d x %s]", t.Len, t.Elem) }
func (t *VectorType) String() string  { return fmt.Sprintf("<%d x %s>", t.Len, t.Elem) }

func (t *StructType) String() string {
	fields := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = f.String()
	}
	if t.Packed {
		return "<{ " + strings.Join(fields, ", ") + " }>"
	}
	if len(fields) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}

func (t *FuncType) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.String()
	}
	if t.Variadic {
		params = append(params, "...")
	}
	return fmt.Sprintf("%s (%s)", t.Ret, strings.Join(params, ", "))
}

func (*VoidType) String() string  { return "void" }
func (*LabelType) String() string { return "label" }

// Same reports whether two types are structurally identical.
func Same(a, b Type) bool {
	switch a := a.(type) {
	case *IntType:
		b, ok := b.(*IntType)
		return ok && a.Bits == b.Bits
	case *FloatType:
		b, ok := b.(*FloatType)
		return ok && a.Bits == b.Bits
	case *PointerType:
		b, ok := b.(*PointerType)
		return ok && Same(a.Elem, b.Elem)
	case *ArrayType:
		b, ok := b.(*ArrayType)
		return ok && a.Len == b.Len && Same(a.Elem, b.Elem)
	case *VectorType:
		b, ok := b.(*VectorType)
		return ok && a.Len == b.Len && Same(a.Elem, b.Elem)
	case *StructType:
		b, ok := b.(*StructType)
		if !ok || a.Packed != b.Packed || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if !Same(a.Fields[i], b.Fields[i]) {
				return false
			}
		}
		return true
	case *FuncType:
		b, ok := b.(*FuncType)
		if !ok || a.Variadic != b.Variadic || len(a.Params) != len(b.Params) || !Same(a.Ret, b.Ret) {
			return false
		}
		for i := range a.Params {
			if !Same(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	case *VoidType:
		_, ok := b.(*VoidType)
		return ok
	case *LabelType:
		_, ok := b.(*LabelType)
		return ok
	}
	return false
}

// IsSized reports whether values of the type have a size in memory.
// Void, label and function types do not.
func IsSized(t Type) bool {
	switch t := t.(type) {
	case *IntType, *FloatType, *PointerType:
		return true
	case *ArrayType:
		return IsSized(t.Elem)
	case *VectorType:
		return IsSized(t.Elem)
	case *StructType:
		for _, f := range t.Fields {
			if !IsSized(f) {
				return false
			}
		}
		return true
	}
	return false
}

// IsInteger reports whether t is an integer type.
func IsInteger(t Type) bool {
	_, ok := t.(*IntType)
	return ok
}

// IsFloat reports whether t is a floating point type.
func IsFloat(t Type) bool {
	_, ok := t.(*FloatType)
	return ok
}

// IsPointer reports whether t is a pointer type.
func IsPointer(t Type) bool {
	_, ok := t.(*PointerType)
	return ok
}

// IntBits returns the width of an integer type, or 0 for any other
// type.
func IntBits(t Type) int {
	if t, ok := t.(*IntType); ok {
		return t.Bits
	}
	return 0
}

// IndexedType navigates an aggregate type by a chain of extractvalue
// or insertvalue indices. It returns nil if the chain does not
// describe a component of the type.
func IndexedType(agg Type, idxs []uint) Type {
	cur := agg
	for _, i := range idxs {
		switch t := cur.(type) {
		case *ArrayType:
			if int64(i) >= t.Len {
				return nil
			}
			cur = t.Elem
		case *StructType:
			if int(i) >= len(t.Fields) {
				return nil
			}
			cur = t.Fields[i]
		default:
			return nil
		}
	}
	return cur
}
