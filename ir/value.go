package ir

import (
	"fmt"
	"math"
	"strings"

	"github.com/invisibleboy/my-customized-llvm/bitvec"
)

// A Value is an SSA value: a constant, global, alias, function,
// parameter or instruction. String returns the form used to reference
// the value as an operand, such as "%x", "@g" or "42"; it does not
// include the type.
type Value interface {
	Type() Type
	String() string
}

// A Constant is a value known at compile time. Globals, aliases and
// functions count as constants: their addresses are fixed even though
// their contents may not be.
type Constant interface {
	Value
	isConstant()
}

func (*ConstInt) isConstant()           {}
func (*ConstFloat) isConstant()         {}
func (*ConstNull) isConstant()          {}
func (*ConstAggregateZero) isConstant() {}
func (*ConstArray) isConstant()         {}
func (*ConstStruct) isConstant()        {}
func (*ConstVector) isConstant()        {}
func (*Undef) isConstant()              {}
func (*ConstExpr) isConstant()          {}
func (*Global) isConstant()             {}
func (*Alias) isConstant()              {}
func (*Function) isConstant()           {}

// ConstInt is an integer constant of arbitrary width.
type ConstInt struct {
	Typ *IntType
	Val bitvec.Vec
}

// NewConstInt returns the constant with the given value truncated to
// the width of typ.
func NewConstInt(typ *IntType, v uint64) *ConstInt {
	return &ConstInt{Typ: typ, Val: bitvec.FromUint64(typ.Bits, v)}
}

// NewConstIntSigned returns the constant with the given value sign
// extended or truncated to the width of typ.
func NewConstIntSigned(typ *IntType, v int64) *ConstInt {
	return &ConstInt{Typ: typ, Val: bitvec.FromInt64(typ.Bits, v)}
}

// NewConstIntFromVec wraps an existing bit vector, whose width must
// match typ.
func NewConstIntFromVec(typ *IntType, v bitvec.Vec) *ConstInt {
	if v.Width() != typ.Bits {
		panic(fmt.Sprintf("ir: constant width %d does not match type %s", v.Width(), typ))
	}
	return &ConstInt{Typ: typ, Val: v}
}

func (c *ConstInt) Type() Type { return c.Typ }

func (c *ConstInt) String() string {
	if c.Typ.Bits == 1 {
		if c.Val.IsZero() {
			return "false"
		}
		return "true"
	}
	if c.Val.Sign() {
		return "-" + c.Val.Neg().Dec()
	}
	return c.Val.Dec()
}

// ConstFloat is a floating point constant, stored as its raw bit
// pattern. Only the 32 and 64 bit formats carry full semantics; wider
// formats hold their low 64 bits.
type ConstFloat struct {
	Typ  *FloatType
	Bits uint64
}

// NewConstFloat encodes v in the format of typ.
func NewConstFloat(typ *FloatType, v float64) *ConstFloat {
	var bits uint64
	if typ.Bits == 32 {
		bits = uint64(math.Float32bits(float32(v)))
	} else {
		bits = math.Float64bits(v)
	}
	return &ConstFloat{Typ: typ, Bits: bits}
}

// NewConstFloatFromBits wraps a raw bit pattern.
func NewConstFloatFromBits(typ *FloatType, bits uint64) *ConstFloat {
	return &ConstFloat{Typ: typ, Bits: bits}
}

func (c *ConstFloat) Type() Type { return c.Typ }

// Float64 decodes the constant's value.
func (c *ConstFloat) Float64() float64 {
	if c.Typ.Bits == 32 {
		return float64(math.Float32frombits(uint32(c.Bits)))
	}
	return math.Float64frombits(c.Bits)
}

// IsPosZero reports whether the constant is exactly +0.0.
func (c *ConstFloat) IsPosZero() bool { return c.Bits == 0 }

// IsNegZero reports whether the constant is exactly -0.0.
func (c *ConstFloat) IsNegZero() bool {
	if c.Typ.Bits == 32 {
		return c.Bits == 1<<31
	}
	return c.Bits == 1<<63
}

func (c *ConstFloat) String() string {
	// Floats print as the raw bit pattern of the equivalent double,
	// which round-trips exactly.
	bits := c.Bits
	if c.Typ.Bits == 32 {
		bits = math.Float64bits(float64(math.Float32frombits(uint32(c.Bits))))
	}
	return fmt.Sprintf("0x%X", bits)
}

// ConstNull is the null pointer constant.
type ConstNull struct{ Typ *PointerType }

func (c *ConstNull) Type() Type   { return c.Typ }
func (*ConstNull) String() string { return "null" }

// ConstAggregateZero is the zero value of an array, struct or vector
// type.
type ConstAggregateZero struct{ Typ Type }

func (c *ConstAggregateZero) Type() Type   { return c.Typ }
func (*ConstAggregateZero) String() string { return "zeroinitializer" }

// Undef is an undefined value of any type.
type Undef struct{ Typ Type }

func (c *Undef) Type() Type   { return c.Typ }
func (*Undef) String() string { return "undef" }

// ConstArray is an array constant with one constant per element.
type ConstArray struct {
	Typ   *ArrayType
	Elems []Constant
}

func (c *ConstArray) Type() Type { return c.Typ }

func (c *ConstArray) String() string {
	if s, ok := cString(c); ok {
		return s
	}
	elems := make([]string, len(c.Elems))
	for i, e := range c.Elems {
		elems[i] = e.Type().String() + " " + e.String()
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

// cString renders an array of i8 constants in the c"..." form.
func cString(c *ConstArray) (string, bool) {
	if IntBits(c.Typ.Elem) != 8 {
		return "", false
	}
	var sb strings.Builder
	sb.WriteString(`c"`)
	for _, e := range c.Elems {
		ci, ok := e.(*ConstInt)
		if !ok {
			return "", false
		}
		b := byte(ci.Val.Uint64())
		if b >= 0x20 && b <= 0x7e && b != '"' && b != '\\' {
			sb.WriteByte(b)
		} else {
			fmt.Fprintf(&sb, "\\%02X", b)
		}
	}
	sb.WriteByte('"')
	return sb.String(), true
}

// ConstStruct is a struct constant with one constant per field.
type ConstStruct struct {
	Typ    *StructType
	Fields []Constant
}

func (c *ConstStruct) Type() Type { return c.Typ }

func (c *ConstStruct) String() string {
	fields := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		fields[i] = f.Type().String() + " " + f.String()
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}

// ConstVector is a vector constant with one scalar constant per lane.
type ConstVector struct {
	Typ   *VectorType
	Elems []Constant
}

func (c *ConstVector) Type() Type { return c.Typ }

func (c *ConstVector) String() string {
	elems := make([]string, len(c.Elems))
	for i, e := range c.Elems {
		elems[i] = e.Type().String() + " " + e.String()
	}
	return "<" + strings.Join(elems, ", ") + ">"
}

// NullValue returns the zero constant of a type: 0, +0.0, null or
// zeroinitializer depending on the type's kind.
func NullValue(t Type) Constant {
	switch t := t.(type) {
	case *IntType:
		return NewConstInt(t, 0)
	case *FloatType:
		return &ConstFloat{Typ: t}
	case *PointerType:
		return &ConstNull{Typ: t}
	case *ArrayType, *VectorType, *StructType:
		return &ConstAggregateZero{Typ: t}
	}
	panic(fmt.Sprintf("ir: no null value for type %s", t))
}

// IsNullValue reports whether v is the zero constant of its type.
// Negative floating point zero does not count.
func IsNullValue(v Value) bool {
	switch v := v.(type) {
	case *ConstInt:
		return v.Val.IsZero()
	case *ConstFloat:
		return v.IsPosZero()
	case *ConstNull, *ConstAggregateZero:
		return true
	}
	return false
}

// Equal reports whether two values are the same constant or the same
// SSA value. Scalar and aggregate constants compare structurally;
// everything else compares by identity.
func Equal(a, b Value) bool {
	if a == b {
		return true
	}
	switch a := a.(type) {
	case *ConstInt:
		b, ok := b.(*ConstInt)
		return ok && a.Typ.Bits == b.Typ.Bits && a.Val.Eq(b.Val)
	case *ConstFloat:
		b, ok := b.(*ConstFloat)
		return ok && a.Typ.Bits == b.Typ.Bits && a.Bits == b.Bits
	case *ConstNull:
		b, ok := b.(*ConstNull)
		return ok && Same(a.Typ, b.Typ)
	case *ConstAggregateZero:
		b, ok := b.(*ConstAggregateZero)
		return ok && Same(a.Typ, b.Typ)
	case *Undef:
		b, ok := b.(*Undef)
		return ok && Same(a.Typ, b.Typ)
	case *ConstArray:
		b, ok := b.(*ConstArray)
		if !ok || len(a.Elems) != len(b.Elems) || !Same(a.Typ, b.Typ) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case *ConstStruct:
		b, ok := b.(*ConstStruct)
		if !ok || len(a.Fields) != len(b.Fields) || !Same(a.Typ, b.Typ) {
			return false
		}
		for i := range a.Fields {
			if !Equal(a.Fields[i], b.Fields[i]) {
				return false
			}
		}
		return true
	case *ConstVector:
		b, ok := b.(*ConstVector)
		if !ok || len(a.Elems) != len(b.Elems) || !Same(a.Typ, b.Typ) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Linkage controls how a global or function interacts with the
// linker.
type Linkage uint8

const (
	External Linkage = iota
	Private
	Internal
	LinkOnce
	Weak
	Common
	ExternWeak
)

var linkageNames = [...]string{
	External:   "",
	Private:    "private",
	Internal:   "internal",
	LinkOnce:   "linkonce",
	Weak:       "weak",
	Common:     "common",
	ExternWeak: "extern_weak",
}

func (l Linkage) String() string { return linkageNames[l] }

// MayBeOverridden reports whether another module's definition may
// replace this one at link time. Analyses must not look through the
// initializer or aliasee of an overridable value.
func (l Linkage) MayBeOverridden() bool {
	switch l {
	case LinkOnce, Weak, Common, ExternWeak:
		return true
	}
	return false
}

// A Global is a global variable. Its value type is ValType; the
// global itself has pointer type.
type Global struct {
	name string
	typ  *PointerType

	Linkage     Linkage
	ValType     Type
	Align       int // explicit alignment in bytes, 0 if unspecified
	IsConst     bool
	UnnamedAddr bool
	Init        Constant // nil for declarations
}

func NewGlobal(name string, valType Type) *Global {
	return &Global{name: name, typ: PointerTo(valType), ValType: valType}
}

func (g *Global) Name() string   { return g.name }
func (g *Global) Type() Type     { return g.typ }
func (g *Global) String() string { return "@" + quoteName(g.name) }

// IsDeclaration reports whether the global has no initializer in this
// module.
func (g *Global) IsDeclaration() bool { return g.Init == nil }

// HasDefinitiveInitializer reports whether Init is known to be the
// initializer the program will actually see.
func (g *Global) HasDefinitiveInitializer() bool {
	return g.Init != nil && !g.Linkage.MayBeOverridden()
}

// An Alias is an alternate name for another constant.
type Alias struct {
	name string
	typ  Type

	Linkage Linkage
	Aliasee Constant
}

func NewAlias(name string, aliasee Constant) *Alias {
	return &Alias{name: name, typ: aliasee.Type(), Aliasee: aliasee}
}

func (a *Alias) Name() string   { return a.name }
func (a *Alias) Type() Type     { return a.typ }
func (a *Alias) String() string { return "@" + quoteName(a.name) }

// A Param is a function parameter.
type Param struct {
	name string
	typ  Type

	ByVal bool
	Align int // alignment of the byval copy, 0 if unspecified
}

func NewParam(name string, typ Type) *Param {
	return &Param{name: name, typ: typ}
}

func (p *Param) Name() string   { return p.name }
func (p *Param) Type() Type     { return p.typ }
func (p *Param) String() string { return "%" + quoteName(p.name) }

func quoteName(s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
			c == '.' || c == '_' || c == '-' || c == '$' {
			continue
		}
		return `"` + s + `"`
	}
	return s
}
