package ir

import (
	"fmt"
	"io"
	"strings"
)

func typed(v Value) string { return v.Type().String() + " " + v.String() }

func (c *ConstExpr) String() string {
	var sb strings.Builder
	sb.WriteString(c.op.String())
	if c.op == OpGetElementPtr && c.InBounds {
		sb.WriteString(" inbounds")
	}
	if c.op == OpICmp || c.op == OpFCmp {
		sb.WriteString(" " + c.Pred.String())
	}
	sb.WriteString(" (")
	if c.op.IsCast() {
		sb.WriteString(typed(c.ops[0]))
		sb.WriteString(" to ")
		sb.WriteString(c.typ.String())
	} else {
		for i, op := range c.ops {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(typed(op))
		}
		for _, idx := range c.Indices {
			fmt.Fprintf(&sb, ", %d", idx)
		}
	}
	sb.WriteString(")")
	return sb.String()
}

func (i *Instr) flagString() string {
	var sb strings.Builder
	if i.NUW {
		sb.WriteString(" nuw")
	}
	if i.NSW {
		sb.WriteString(" nsw")
	}
	if i.Exact {
		sb.WriteString(" exact")
	}
	return sb.String()
}

// Def renders the instruction as a full line of assembly, without
// leading indentation.
func (i *Instr) Def() string {
	var sb strings.Builder
	if _, void := i.typ.(*VoidType); !void {
		sb.WriteString(i.String())
		sb.WriteString(" = ")
	}

	op := i.op
	sb.WriteString(op.String())
	switch {
	case op >= OpAdd && op <= OpXor:
		fmt.Fprintf(&sb, "%s %s %s, %s", i.flagString(), i.typ, i.ops[0], i.ops[1])
	case op.IsCast():
		fmt.Fprintf(&sb, " %s to %s", typed(i.ops[0]), i.typ)
	default:
		i.printRest(&sb)
	}
	return sb.String()
}

func (i *Instr) printRest(sb *strings.Builder) {
	switch i.op {
	case OpRet:
		if len(i.ops) == 0 {
			sb.WriteString(" void")
		} else {
			sb.WriteString(" " + typed(i.ops[0]))
		}
	case OpBr:
		if len(i.ops) == 0 {
			fmt.Fprintf(sb, " label %s", i.Blocks[0])
		} else {
			fmt.Fprintf(sb, " %s, label %s, label %s", typed(i.ops[0]), i.Blocks[0], i.Blocks[1])
		}
	case OpSwitch:
		fmt.Fprintf(sb, " %s, label %s [", typed(i.ops[0]), i.Blocks[0])
		for n := 1; n < len(i.ops); n++ {
			if n > 1 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(sb, "%s, label %s", typed(i.ops[n]), i.Blocks[n])
		}
		sb.WriteString("]")
	case OpIndirectBr:
		fmt.Fprintf(sb, " %s, [", typed(i.ops[0]))
		for n, b := range i.Blocks {
			if n > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "label %s", b)
		}
		sb.WriteString("]")
	case OpInvoke:
		fmt.Fprintf(sb, " %s %s(", i.typ, i.ops[0])
		i.printArgs(sb)
		fmt.Fprintf(sb, ") to label %s unwind label %s", i.Blocks[0], i.Blocks[1])
	case OpResume:
		sb.WriteString(" " + typed(i.ops[0]))
	case OpUnwind, OpUnreachable:
		// bare keyword
	case OpAlloca:
		sb.WriteString(" " + i.Alloc.String())
		if len(i.ops) == 1 {
			sb.WriteString(", " + typed(i.ops[0]))
		}
		if i.Align != 0 {
			fmt.Fprintf(sb, ", align %d", i.Align)
		}
	case OpLoad:
		if i.Ordering != NotAtomic {
			sb.WriteString(" atomic")
		}
		if i.Volatile {
			sb.WriteString(" volatile")
		}
		sb.WriteString(" " + typed(i.ops[0]))
		if i.Ordering != NotAtomic {
			sb.WriteString(" " + i.Ordering.String())
		}
		if i.Align != 0 {
			fmt.Fprintf(sb, ", align %d", i.Align)
		}
	case OpStore:
		if i.Ordering != NotAtomic {
			sb.WriteString(" atomic")
		}
		if i.Volatile {
			sb.WriteString(" volatile")
		}
		fmt.Fprintf(sb, " %s, %s", typed(i.ops[0]), typed(i.ops[1]))
		if i.Ordering != NotAtomic {
			sb.WriteString(" " + i.Ordering.String())
		}
		if i.Align != 0 {
			fmt.Fprintf(sb, ", align %d", i.Align)
		}
	case OpGetElementPtr:
		if i.InBounds {
			sb.WriteString(" inbounds")
		}
		for n, op := range i.ops {
			if n > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(" " + typed(op))
		}
	case OpFence:
		sb.WriteString(" " + i.Ordering.String())
	case OpAtomicCmpXchg:
		if i.Volatile {
			sb.WriteString(" volatile")
		}
		fmt.Fprintf(sb, " %s, %s, %s %s", typed(i.ops[0]), typed(i.ops[1]), typed(i.ops[2]), i.Ordering)
	case OpAtomicRMW:
		if i.Volatile {
			sb.WriteString(" volatile")
		}
		fmt.Fprintf(sb, " %s %s, %s %s", i.RMWOp, typed(i.ops[0]), typed(i.ops[1]), i.Ordering)
	case OpICmp, OpFCmp:
		fmt.Fprintf(sb, " %s %s %s, %s", i.Pred, i.ops[0].Type(), i.ops[0], i.ops[1])
	case OpPHI:
		sb.WriteString(" " + i.typ.String())
		for n := range i.ops {
			if n > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(sb, " [ %s, %s ]", i.ops[n], i.Blocks[n])
		}
	case OpCall:
		fmt.Fprintf(sb, " %s %s(", i.typ, i.ops[0])
		i.printArgs(sb)
		sb.WriteString(")")
	case OpSelect:
		fmt.Fprintf(sb, " %s, %s, %s", typed(i.ops[0]), typed(i.ops[1]), typed(i.ops[2]))
	case OpVAArg:
		fmt.Fprintf(sb, " %s, %s", typed(i.ops[0]), i.typ)
	case OpExtractValue:
		sb.WriteString(" " + typed(i.ops[0]))
		for _, idx := range i.Indices {
			fmt.Fprintf(sb, ", %d", idx)
		}
	case OpInsertValue:
		fmt.Fprintf(sb, " %s, %s", typed(i.ops[0]), typed(i.ops[1]))
		for _, idx := range i.Indices {
			fmt.Fprintf(sb, ", %d", idx)
		}
	case OpExtractElement:
		fmt.Fprintf(sb, " %s, %s", typed(i.ops[0]), typed(i.ops[1]))
	case OpInsertElement, OpShuffleVector:
		fmt.Fprintf(sb, " %s, %s, %s", typed(i.ops[0]), typed(i.ops[1]), typed(i.ops[2]))
	case OpLandingPad:
		fmt.Fprintf(sb, " %s personality %s cleanup", i.typ, typed(i.ops[0]))
	default:
		for n, op := range i.ops {
			if n > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(" " + typed(op))
		}
	}
}

func (i *Instr) printArgs(sb *strings.Builder) {
	for n := 1; n < len(i.ops); n++ {
		if n > 1 {
			sb.WriteString(", ")
		}
		sb.WriteString(typed(i.ops[n]))
	}
}

func paramString(p *Param, withName bool) string {
	var sb strings.Builder
	sb.WriteString(p.Type().String())
	if p.ByVal {
		sb.WriteString(" byval")
	}
	if p.Align != 0 {
		fmt.Fprintf(&sb, " align %d", p.Align)
	}
	if withName {
		sb.WriteString(" " + p.String())
	}
	return sb.String()
}

// WriteFunction writes a function definition or declaration in
// textual form.
func WriteFunction(w io.Writer, f *Function) {
	kw := "define"
	if f.IsDeclaration() {
		kw = "declare"
	}
	fmt.Fprintf(w, "%s ", kw)
	if l := f.Linkage.String(); l != "" {
		fmt.Fprintf(w, "%s ", l)
	}
	fmt.Fprintf(w, "%s %s(", f.Sig.Ret, f)
	for n, p := range f.Params {
		if n > 0 {
			io.WriteString(w, ", ")
		}
		io.WriteString(w, paramString(p, !f.IsDeclaration()))
	}
	if f.Sig.Variadic {
		if len(f.Params) > 0 {
			io.WriteString(w, ", ")
		}
		io.WriteString(w, "...")
	}
	io.WriteString(w, ")")
	if f.IsDeclaration() {
		io.WriteString(w, "\n")
		return
	}
	io.WriteString(w, " {\n")
	for n, b := range f.Blocks {
		if n > 0 {
			io.WriteString(w, "\n")
		}
		fmt.Fprintf(w, "%s:\n", quoteName(b.Name()))
		for _, instr := range b.Instrs {
			fmt.Fprintf(w, "  %s\n", instr.Def())
		}
	}
	io.WriteString(w, "}\n")
}

// WriteModule writes all globals, aliases and functions of a module
// in textual form.
func WriteModule(w io.Writer, m *Module) {
	if m.TargetLayout != "" {
		fmt.Fprintf(w, "target datalayout = %q\n", m.TargetLayout)
	}
	if m.TargetTriple != "" {
		fmt.Fprintf(w, "target triple = %q\n", m.TargetTriple)
	}
	for _, g := range m.Globals {
		fmt.Fprintf(w, "%s = ", g)
		switch {
		case g.IsDeclaration() && g.Linkage == External:
			io.WriteString(w, "external ")
		case g.Linkage != External:
			fmt.Fprintf(w, "%s ", g.Linkage)
		}
		if g.UnnamedAddr {
			io.WriteString(w, "unnamed_addr ")
		}
		if g.IsConst {
			io.WriteString(w, "constant ")
		} else {
			io.WriteString(w, "global ")
		}
		io.WriteString(w, g.ValType.String())
		if g.Init != nil {
			io.WriteString(w, " "+g.Init.String())
		}
		if g.Align != 0 {
			fmt.Fprintf(w, ", align %d", g.Align)
		}
		io.WriteString(w, "\n")
	}
	for _, a := range m.Aliases {
		fmt.Fprintf(w, "%s = alias ", a)
		if l := a.Linkage.String(); l != "" {
			fmt.Fprintf(w, "%s ", l)
		}
		fmt.Fprintf(w, "%s\n", typed(a.Aliasee))
	}
	for _, f := range m.Funcs {
		io.WriteString(w, "\n")
		WriteFunction(w, f)
	}
}

func (m *Module) String() string {
	var sb strings.Builder
	WriteModule(&sb, m)
	return sb.String()
}
