package ir

import "fmt"

// Op identifies an instruction or constant expression opcode.
type Op uint8

const (
	OpInvalid Op = iota

	// Terminators
	OpRet
	OpBr
	OpSwitch
	OpIndirectBr
	OpInvoke
	OpUnwind
	OpResume
	OpUnreachable

	// Binary operators
	OpAdd
	OpFAdd
	OpSub
	OpFSub
	OpMul
	OpFMul
	OpUDiv
	OpSDiv
	OpFDiv
	OpURem
	OpSRem
	OpFRem

	// Bitwise operators
	OpShl
	OpLShr
	OpAShr
	OpAnd
	OpOr
	OpXor

	// Memory
	OpAlloca
	OpLoad
	OpStore
	OpGetElementPtr
	OpFence
	OpAtomicCmpXchg
	OpAtomicRMW

	// Casts
	OpTrunc
	OpZExt
	OpSExt
	OpFPToUI
	OpFPToSI
	OpUIToFP
	OpSIToFP
	OpFPTrunc
	OpFPExt
	OpPtrToInt
	OpIntToPtr
	OpBitCast

	// Everything else
	OpICmp
	OpFCmp
	OpPHI
	OpCall
	OpSelect
	OpVAArg
	OpExtractElement
	OpInsertElement
	OpShuffleVector
	OpExtractValue
	OpInsertValue
	OpLandingPad
)

var opNames = [...]string{
	OpInvalid:        "<invalid>",
	OpRet:            "ret",
	OpBr:             "br",
	OpSwitch:         "switch",
	OpIndirectBr:     "indirectbr",
	OpInvoke:         "invoke",
	OpUnwind:         "unwind",
	OpResume:         "resume",
	OpUnreachable:    "unreachable",
	OpAdd:            "add",
	OpFAdd:           "fadd",
	OpSub:            "sub",
	OpFSub:           "fsub",
	OpMul:            "mul",
	OpFMul:           "fmul",
	OpUDiv:           "udiv",
	OpSDiv:           "sdiv",
	OpFDiv:           "fdiv",
	OpURem:           "urem",
	OpSRem:           "srem",
	OpFRem:           "frem",
	OpShl:            "shl",
	OpLShr:           "lshr",
	OpAShr:           "ashr",
	OpAnd:            "and",
	OpOr:             "or",
	OpXor:            "xor",
	OpAlloca:         "alloca",
	OpLoad:           "load",
	OpStore:          "store",
	OpGetElementPtr:  "getelementptr",
	OpFence:          "fence",
	OpAtomicCmpXchg:  "cmpxchg",
	OpAtomicRMW:      "atomicrmw",
	OpTrunc:          "trunc",
	OpZExt:           "zext",
	OpSExt:           "sext",
	OpFPToUI:         "fptoui",
	OpFPToSI:         "fptosi",
	OpUIToFP:         "uitofp",
	OpSIToFP:         "sitofp",
	OpFPTrunc:        "fptrunc",
	OpFPExt:          "fpext",
	OpPtrToInt:       "ptrtoint",
	OpIntToPtr:       "inttoptr",
	OpBitCast:        "bitcast",
	OpICmp:           "icmp",
	OpFCmp:           "fcmp",
	OpPHI:            "phi",
	OpCall:           "call",
	OpSelect:         "select",
	OpVAArg:          "va_arg",
	OpExtractElement: "extractelement",
	OpInsertElement:  "insertelement",
	OpShuffleVector:  "shufflevector",
	OpExtractValue:   "extractvalue",
	OpInsertValue:    "insertvalue",
	OpLandingPad:     "landingpad",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// IsTerminator reports whether the opcode ends a basic block.
func (op Op) IsTerminator() bool {
	return op >= OpRet && op <= OpUnreachable
}

// IsCast reports whether the opcode converts a value between types.
func (op Op) IsCast() bool {
	return op >= OpTrunc && op <= OpBitCast
}

// Predicate is an icmp or fcmp comparison predicate.
type Predicate uint8

const (
	PredInvalid Predicate = iota

	IntEQ
	IntNE
	IntUGT
	IntUGE
	IntULT
	IntULE
	IntSGT
	IntSGE
	IntSLT
	IntSLE

	FloatFalse
	FloatOEQ
	FloatOGT
	FloatOGE
	FloatOLT
	FloatOLE
	FloatONE
	FloatORD
	FloatUEQ
	FloatUGT
	FloatUGE
	FloatULT
	FloatULE
	FloatUNE
	FloatUNO
	FloatTrue
)

var predNames = [...]string{
	PredInvalid: "<invalid>",
	IntEQ:       "eq",
	IntNE:       "ne",
	IntUGT:      "ugt",
	IntUGE:      "uge",
	IntULT:      "ult",
	IntULE:      "ule",
	IntSGT:      "sgt",
	IntSGE:      "sge",
	IntSLT:      "slt",
	IntSLE:      "sle",
	FloatFalse:  "false",
	FloatOEQ:    "oeq",
	FloatOGT:    "ogt",
	FloatOGE:    "oge",
	FloatOLT:    "olt",
	FloatOLE:    "ole",
	FloatONE:    "one",
	FloatORD:    "ord",
	FloatUEQ:    "ueq",
	FloatUGT:    "ugt",
	FloatUGE:    "uge",
	FloatULT:    "ult",
	FloatULE:    "ule",
	FloatUNE:    "une",
	FloatUNO:    "uno",
	FloatTrue:   "true",
}

func (p Predicate) String() string {
	if int(p) < len(predNames) {
		return predNames[p]
	}
	return fmt.Sprintf("pred(%d)", uint8(p))
}

// AtomicOrdering constrains the reordering of an atomic memory
// operation.
type AtomicOrdering uint8

const (
	NotAtomic AtomicOrdering = iota
	Unordered
	Monotonic
	Acquire
	Release
	AcquireRelease
	SeqCst
)

var orderingNames = [...]string{
	NotAtomic:      "",
	Unordered:      "unordered",
	Monotonic:      "monotonic",
	Acquire:        "acquire",
	Release:        "release",
	AcquireRelease: "acq_rel",
	SeqCst:         "seq_cst",
}

func (o AtomicOrdering) String() string { return orderingNames[o] }

// Flags carries the poison-generating flags an operator may have.
type Flags struct {
	NSW      bool // no signed wrap
	NUW      bool // no unsigned wrap
	Exact    bool // exact division or shift
	InBounds bool // getelementptr stays within the object
}

// An Operator is a value computed from operands: an instruction or a
// constant expression. Analyses dispatch on the opcode and treat both
// forms alike.
type Operator interface {
	Value
	Opcode() Op
	NumOperands() int
	Operand(i int) Value
	HasNSW() bool
	HasNUW() bool
	IsExact() bool
}

// An Instr is an instruction in a basic block. Operands that need
// more than a value, such as phi edges, branch targets, aggregate
// indices or alignment, live in the exported fields; which fields are
// meaningful depends on the opcode.
type Instr struct {
	name  string
	op    Op
	typ   Type
	ops   []Value
	refs  []*Instr
	block *Block

	Flags
	Blocks   []*Block       // phi predecessors or branch targets
	Indices  []uint         // extractvalue and insertvalue index chain
	Align    int            // alloca, load, store
	Volatile bool           // load, store
	Ordering AtomicOrdering // load, store, fence, cmpxchg, atomicrmw
	Alloc    Type           // alloca: type being allocated
	Pred     Predicate      // icmp, fcmp
	RMWOp    string         // atomicrmw operation, such as "add" or "xchg"
}

func (i *Instr) Name() string   { return i.name }
func (i *Instr) Type() Type     { return i.typ }
func (i *Instr) String() string { return "%" + quoteName(i.name) }

func (i *Instr) Opcode() Op          { return i.op }
func (i *Instr) NumOperands() int    { return len(i.ops) }
func (i *Instr) Operand(n int) Value { return i.ops[n] }

// Operands returns the operand slice. Callers must not modify it.
func (i *Instr) Operands() []Value { return i.ops }

// SetOperand replaces operand n.
func (i *Instr) SetOperand(n int, v Value) { i.ops[n] = v }

func (i *Instr) HasNSW() bool  { return i.NSW }
func (i *Instr) HasNUW() bool  { return i.NUW }
func (i *Instr) IsExact() bool { return i.Exact }

// Parent returns the block containing the instruction, or nil for a
// dangling instruction.
func (i *Instr) Parent() *Block { return i.block }

// Referrers returns the instructions that use i as an operand. The
// parent function's BuildReferrers must have run for the list to be
// populated.
func (i *Instr) Referrers() []*Instr { return i.refs }

// IsUnordered reports whether a load or store is neither volatile nor
// stronger than unordered atomic.
func (i *Instr) IsUnordered() bool {
	return !i.Volatile && (i.Ordering == NotAtomic || i.Ordering == Unordered)
}

// Callee returns the called value of a call or invoke.
func (i *Instr) Callee() Value { return i.ops[0] }

// NumArgs returns the argument count of a call or invoke.
func (i *Instr) NumArgs() int { return len(i.ops) - 1 }

// Arg returns the n'th argument of a call or invoke.
func (i *Instr) Arg(n int) Value { return i.ops[n+1] }

// NumIncoming returns the number of phi edges.
func (i *Instr) NumIncoming() int { return len(i.ops) }

// Incoming returns the n'th phi edge.
func (i *Instr) Incoming(n int) (Value, *Block) { return i.ops[n], i.Blocks[n] }

// A ConstExpr is a constant expression: an operator applied to
// constant operands, evaluated at link time.
type ConstExpr struct {
	op  Op
	typ Type
	ops []Constant

	Flags
	Indices []uint
	Pred    Predicate
}

// NewConstExpr builds a constant expression without folding. Use the
// Fold functions to fold where possible.
func NewConstExpr(op Op, typ Type, ops ...Constant) *ConstExpr {
	return &ConstExpr{op: op, typ: typ, ops: ops}
}

func (c *ConstExpr) Type() Type          { return c.typ }
func (c *ConstExpr) Opcode() Op          { return c.op }
func (c *ConstExpr) NumOperands() int    { return len(c.ops) }
func (c *ConstExpr) Operand(n int) Value { return c.ops[n] }

// ConstOperand returns operand n as a Constant.
func (c *ConstExpr) ConstOperand(n int) Constant { return c.ops[n] }

func (c *ConstExpr) HasNSW() bool  { return c.NSW }
func (c *ConstExpr) HasNUW() bool  { return c.NUW }
func (c *ConstExpr) IsExact() bool { return c.Exact }

// CanTrap reports whether evaluating the constant can fault. Only
// constant expressions trap, and only through a division or remainder
// whose divisor is not a nonzero integer constant.
func CanTrap(c Constant) bool {
	ce, ok := c.(*ConstExpr)
	if !ok {
		return false
	}
	for _, op := range ce.ops {
		if CanTrap(op) {
			return true
		}
	}
	switch ce.op {
	case OpUDiv, OpSDiv, OpFDiv, OpURem, OpSRem, OpFRem:
		rhs, ok := ce.ops[1].(*ConstInt)
		return !ok || rhs.Val.IsZero()
	}
	return false
}
