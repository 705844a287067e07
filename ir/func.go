package ir

import (
	"fmt"
	"strings"
)

// A Module is a collection of globals, aliases and functions.
type Module struct {
	TargetLayout string // the module's data layout string, if any
	TargetTriple string

	Globals []*Global
	Aliases []*Alias
	Funcs   []*Function
}

// Func returns the function with the given name, or nil.
func (m *Module) Func(name string) *Function {
	for _, f := range m.Funcs {
		if f.name == name {
			return f
		}
	}
	return nil
}

// Global returns the global with the given name, or nil.
func (m *Module) Global(name string) *Global {
	for _, g := range m.Globals {
		if g.name == name {
			return g
		}
	}
	return nil
}

// A Function is a function definition or declaration. A declaration
// has no blocks.
type Function struct {
	name string
	typ  *PointerType

	Sig     *FuncType
	Linkage Linkage
	Params  []*Param
	Blocks  []*Block

	nvalues int
}

// NewFunction returns a function with the given return type and
// parameters and no blocks.
func NewFunction(name string, ret Type, params ...*Param) *Function {
	sig := &FuncType{Ret: ret}
	for _, p := range params {
		sig.Params = append(sig.Params, p.Type())
	}
	return &Function{
		name:   name,
		typ:    PointerTo(sig),
		Sig:    sig,
		Params: params,
	}
}

func (f *Function) Name() string   { return f.name }
func (f *Function) Type() Type     { return f.typ }
func (f *Function) String() string { return "@" + quoteName(f.name) }

// IsDeclaration reports whether the function has no body in this
// module.
func (f *Function) IsDeclaration() bool { return len(f.Blocks) == 0 }

// IsIntrinsic reports whether the function is a compiler intrinsic.
func (f *Function) IsIntrinsic() bool { return strings.HasPrefix(f.name, "llvm.") }

// NewBlock appends an empty block to the function.
func (f *Function) NewBlock(name string) *Block {
	b := &Block{name: name, parent: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

// BuildReferrers populates the referrer list of every instruction in
// the function from the operand lists. It must run again after
// operands change.
func (f *Function) BuildReferrers() {
	for _, b := range f.Blocks {
		for _, instr := range b.Instrs {
			instr.refs = nil
		}
	}
	for _, b := range f.Blocks {
		for _, instr := range b.Instrs {
			for _, rand := range instr.ops {
				if rand, ok := rand.(*Instr); ok {
					rand.refs = append(rand.refs, instr)
				}
			}
		}
	}
}

// A Block is a basic block: a straight-line instruction sequence
// ending in a terminator.
type Block struct {
	name   string
	parent *Function

	Instrs []*Instr
}

func (b *Block) Name() string      { return b.name }
func (b *Block) Parent() *Function { return b.parent }
func (b *Block) String() string    { return "%" + quoteName(b.name) }

// NewInstr appends an instruction to the block. Instructions with a
// non-void type are given a fresh name.
func (b *Block) NewInstr(op Op, typ Type, ops ...Value) *Instr {
	i := NewInstr(op, typ, ops...)
	i.block = b
	if _, void := typ.(*VoidType); !void {
		i.name = fmt.Sprintf("t%d", b.parent.nvalues)
		b.parent.nvalues++
	}
	b.Instrs = append(b.Instrs, i)
	return i
}

// NewInstr returns an instruction that is not attached to any block.
func NewInstr(op Op, typ Type, ops ...Value) *Instr {
	return &Instr{op: op, typ: typ, ops: ops}
}

// SetName renames the instruction.
func (i *Instr) SetName(name string) { i.name = name }

// CalledIntrinsic returns the full name of the intrinsic called by a
// call instruction, or "" if it is not a direct intrinsic call.
func CalledIntrinsic(i *Instr) string {
	if i.op != OpCall || len(i.ops) == 0 {
		return ""
	}
	f, ok := i.ops[0].(*Function)
	if !ok || !f.IsIntrinsic() {
		return ""
	}
	return f.name
}
