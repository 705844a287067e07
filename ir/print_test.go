package ir

import (
	"strings"
	"testing"
)

func TestInstrDef(t *testing.T) {
	f := NewFunction("f", I32, NewParam("x", I32))
	x := f.Params[0]
	b := f.NewBlock("entry")

	add := b.NewInstr(OpAdd, I32, x, NewConstInt(I32, 1))
	add.NSW = true
	add.NUW = true
	if got := add.Def(); got != "%t0 = add nuw nsw i32 %x, 1" {
		t.Errorf("got %q", got)
	}

	div := b.NewInstr(OpUDiv, I32, x, NewConstInt(I32, 8))
	div.Exact = true
	if got := div.Def(); got != "%t1 = udiv exact i32 %x, 8" {
		t.Errorf("got %q", got)
	}

	ext := b.NewInstr(OpZExt, I64, x)
	if got := ext.Def(); got != "%t2 = zext i32 %x to i64" {
		t.Errorf("got %q", got)
	}

	cmp := b.NewInstr(OpICmp, I1, x, NewConstInt(I32, 0))
	cmp.Pred = IntSGT
	if got := cmp.Def(); got != "%t3 = icmp sgt i32 %x, 0" {
		t.Errorf("got %q", got)
	}

	ret := b.NewInstr(OpRet, Void, x)
	if got := ret.Def(); got != "ret i32 %x" {
		t.Errorf("got %q", got)
	}
}

func TestInvokeAndLandingPad(t *testing.T) {
	// invoke and landingpad are built programmatically; only the
	// printer handles them.
	pers := NewFunction("__gxx_personality_v0", I32)
	pers.Sig.Variadic = true
	callee := NewFunction("may_throw", Void)

	f := NewFunction("f", Void)
	entry := f.NewBlock("entry")
	ok := f.NewBlock("ok")
	catch := f.NewBlock("catch")

	inv := entry.NewInstr(OpInvoke, Void, callee)
	inv.Blocks = []*Block{ok, catch}
	if got := inv.Def(); got != "invoke void @may_throw() to label %ok unwind label %catch" {
		t.Errorf("got %q", got)
	}

	lp := catch.NewInstr(OpLandingPad, StructOf(PointerTo(I8), I32), pers)
	if got := lp.Def(); got != "%t0 = landingpad { i8*, i32 } personality i32 (...)* @__gxx_personality_v0 cleanup" {
		t.Errorf("got %q", got)
	}

	res := catch.NewInstr(OpResume, Void, lp)
	if got := res.Def(); got != "resume { i8*, i32 } %t0" {
		t.Errorf("got %q", got)
	}
}

func TestIndirectBrDef(t *testing.T) {
	f := NewFunction("f", Void, NewParam("dest", PointerTo(I8)))
	b := f.NewBlock("entry")
	one := f.NewBlock("one")
	two := f.NewBlock("two")
	ib := b.NewInstr(OpIndirectBr, Void, f.Params[0])
	ib.Blocks = []*Block{one, two}
	if got := ib.Def(); got != "indirectbr i8* %dest, [label %one, label %two]" {
		t.Errorf("got %q", got)
	}
}

func TestConstExprString(t *testing.T) {
	g := NewGlobal("s", ArrayOf(6, I8))
	gep := NewConstExpr(OpGetElementPtr, PointerTo(I8), g, NewConstInt(I64, 0), NewConstInt(I64, 0))
	gep.InBounds = true
	if got := gep.String(); got != "getelementptr inbounds ([6 x i8]* @s, i64 0, i64 0)" {
		t.Errorf("got %q", got)
	}

	pi := NewConstExpr(OpPtrToInt, I64, g)
	if got := pi.String(); got != "ptrtoint ([6 x i8]* @s to i64)" {
		t.Errorf("got %q", got)
	}

	cmp := NewConstExpr(OpICmp, I1, NewConstExpr(OpPtrToInt, I64, g), NewConstInt(I64, 0))
	cmp.Pred = IntEQ
	if got := cmp.String(); got != "icmp eq (i64 ptrtoint ([6 x i8]* @s to i64), i64 0)" {
		t.Errorf("got %q", got)
	}
}

func TestWriteFunctionDeclaration(t *testing.T) {
	p0 := NewParam("arg0", PointerTo(I8))
	p0.ByVal = true
	p0.Align = 8
	f := NewFunction("use", Void, p0)
	f.Sig.Variadic = true

	var sb strings.Builder
	WriteFunction(&sb, f)
	if got := sb.String(); got != "declare void @use(i8* byval align 8, ...)\n" {
		t.Errorf("got %q", got)
	}
}

func TestWriteFunctionLinkage(t *testing.T) {
	f := NewFunction("helper", Void)
	f.Linkage = Internal
	f.NewBlock("entry").NewInstr(OpRet, Void)

	var sb strings.Builder
	WriteFunction(&sb, f)
	want := "define internal void @helper() {\nentry:\n  ret void\n}\n"
	if got := sb.String(); got != want {
		t.Errorf("got %q", got)
	}
}
