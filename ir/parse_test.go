package ir

import (
	"strings"
	"testing"
)

// Sources here are written in the exact form the printer emits, so a
// parse followed by a print must reproduce them byte for byte.
func TestRoundTrip(t *testing.T) {
	sources := []string{
		`target datalayout = "e-p:32:32:32-i64:64"
target triple = "i386-linux-gnu"
@counter = global i32 0, align 4
@msg = internal constant [3 x i8] c"ok\00"
@ext = external global i64
@cnt2 = alias i32* @counter

define i32 @get() {
entry:
  %t0 = load i32* @counter, align 4
  ret i32 %t0
}
`,
		`define i32 @count(i32 %n) {
entry:
  br label %loop

loop:
  %i = phi i32 [ 0, %entry ], [ %next, %loop ]
  %next = add nuw nsw i32 %i, 1
  %done = icmp eq i32 %next, %n
  br i1 %done, label %exit, label %loop

exit:
  ret i32 %i
}
`,
		`@table = global [4 x i32] [i32 1, i32 2, i32 4, i32 8]

define i64 @mix(i32 %x, i32* %p) {
entry:
  %t0 = getelementptr inbounds [4 x i32]* @table, i64 0, i64 2
  %t1 = load i32* %t0
  %t2 = select i1 true, i32 %t1, i32 %x
  %t3 = sext i32 %t2 to i64
  switch i32 %x, label %other [i32 0, label %zero i32 1, label %one]

zero:
  ret i64 %t3

one:
  %t4 = shl i64 %t3, 1
  ret i64 %t4

other:
  ret i64 0
}
`,
		`define void @sync(i32* %p) {
entry:
  %t0 = alloca i32, align 4
  store i32 1, i32* %t0
  %t1 = load atomic volatile i32* %p seq_cst, align 4
  store atomic i32 %t1, i32* %t0 release, align 4
  %t2 = atomicrmw add i32* %p, i32 1 acq_rel
  %t3 = cmpxchg i32* %p, i32 0, i32 1 monotonic
  fence seq_cst
  ret void
}
`,
		`@fmt = constant [3 x i8] c"%d\00"

declare i32 @printf(i8*, ...)

define void @show(i32 %v) {
entry:
  %t0 = getelementptr inbounds [3 x i8]* @fmt, i64 0, i64 0
  %t1 = call i32 @printf(i8* %t0, i32 %v)
  ret void
}
`,
		`define i32 @vec(<4 x i32> %v, i8** %ap) {
entry:
  %t0 = extractelement <4 x i32> %v, i32 0
  %t1 = insertelement <4 x i32> %v, i32 7, i32 1
  %t2 = shufflevector <4 x i32> %v, <4 x i32> %t1, <2 x i32> <i32 0, i32 5>
  %t3 = extractelement <2 x i32> %t2, i32 1
  %t4 = va_arg i8** %ap, i32
  %t5 = add i32 %t0, %t3
  %t6 = add i32 %t5, %t4
  ret i32 %t6
}
`,
		`define i64 @agg({ i32, [2 x i64] } %a) {
entry:
  %t0 = extractvalue { i32, [2 x i64] } %a, 1, 0
  %t1 = insertvalue { i32, [2 x i64] } %a, i64 9, 1, 1
  %t2 = extractvalue { i32, [2 x i64] } %t1, 1, 1
  %t3 = add i64 %t0, %t2
  ret i64 %t3
}
`,
		`@words = global [2 x i64] zeroinitializer
@zero = global { i32, i8* } zeroinitializer
@null = global i8* null
@wide = global i128 170141183460469231731687303715884105727
@half = weak global double 0x3FE0000000000000

define void @take([2 x i64]* byval align 8 %agg) {
entry:
  ret void
}
`,
		`define i8 @bits(i8 %x, i8 %y) {
entry:
  %t0 = and i8 %x, 15
  %t1 = or i8 %t0, %y
  %t2 = xor i8 %t1, -1
  %t3 = udiv exact i8 %t2, 4
  %t4 = sub i8 0, %t3
  %t5 = mul nsw i8 %t4, 3
  %t6 = lshr i8 %t5, 1
  %t7 = ashr exact i8 %t6, 1
  %t8 = srem i8 %t7, 5
  ret i8 %t8
}
`,
	}
	for _, src := range sources {
		m, err := Parse(src)
		if err != nil {
			t.Errorf("parse failed: %s\nsource:\n%s", err, src)
			continue
		}
		if got := m.String(); got != src {
			t.Errorf("round trip diverged.\nsource:\n%s\ngot:\n%s", src, got)
		}
	}
}

func TestImplicitEntryBlock(t *testing.T) {
	m := MustParse(`define i32 @f() {
  ret i32 4
}
`)
	f := m.Func("f")
	if len(f.Blocks) != 1 || f.Blocks[0].Name() != "entry" {
		t.Fatalf("blocks: %v", f.Blocks)
	}
	want := `
define i32 @f() {
entry:
  ret i32 4
}
`
	if got := m.String(); got != want {
		t.Errorf("got:\n%s", got)
	}
}

func TestAutoNaming(t *testing.T) {
	m := MustParse(`define i32 @f(i32 %x) {
entry:
  add i32 %x, 1
  mul i32 %t0, 2
  ret i32 %t1
}
`)
	instrs := m.Func("f").Blocks[0].Instrs
	if instrs[0].Name() != "t0" || instrs[1].Name() != "t1" {
		t.Errorf("auto names: %s, %s", instrs[0].Name(), instrs[1].Name())
	}
	if instrs[1].Operand(0) != Value(instrs[0]) {
		t.Error("auto-named instruction not referencable")
	}
}

func TestForwardLocalRefs(t *testing.T) {
	m := MustParse(`define i32 @f(i32 %n) {
entry:
  br label %loop

loop:
  %i = phi i32 [ 0, %entry ], [ %next, %loop ]
  %next = add i32 %i, 1
  %c = icmp ult i32 %next, %n
  br i1 %c, label %loop, label %out

out:
  ret i32 %i
}
`)
	f := m.Func("f")
	loop := f.Blocks[1]
	phi, add := loop.Instrs[0], loop.Instrs[1]
	if v, b := phi.Incoming(1); v != Value(add) || b.Name() != "loop" {
		t.Errorf("phi incoming 1 = %v from %s", v, b.Name())
	}
	// Referrers are built as part of parsing.
	found := false
	for _, r := range add.Referrers() {
		if r == phi {
			found = true
		}
	}
	if !found {
		t.Errorf("add not referred to by phi: %v", add.Referrers())
	}
}

func TestCallTypeForms(t *testing.T) {
	m := MustParse(`declare i32 @printf(i8*, ...)

define void @f(i8* %s) {
entry:
  %t0 = call i32 (i8*, ...)* @printf(i8* %s)
  ret void
}
`)
	call := m.Func("f").Blocks[0].Instrs[0]
	if !Same(call.Type(), I32) {
		t.Errorf("call type = %s, want i32", call.Type())
	}
	if call.Callee() != Value(m.Func("printf")) {
		t.Errorf("callee = %v", call.Callee())
	}
	if call.NumArgs() != 1 {
		t.Errorf("args = %d", call.NumArgs())
	}
}

func TestIndirectCall(t *testing.T) {
	m := MustParse(`define i32 @f(i32 (i32)* %fp) {
entry:
  %t0 = call i32 %fp(i32 7)
  ret i32 %t0
}
`)
	call := m.Func("f").Blocks[0].Instrs[0]
	if call.Callee() != Value(m.Func("f").Params[0]) {
		t.Errorf("callee = %v", call.Callee())
	}
}

func TestAliasOfFunction(t *testing.T) {
	// The aliasee may be defined after the alias, which the printer's
	// output order requires.
	src := `@run = alias void ()* @impl

define void @impl() {
entry:
  ret void
}
`
	m := MustParse(src)
	a := m.Aliases[0]
	if a.Aliasee != Constant(m.Func("impl")) {
		t.Fatalf("aliasee = %v", a.Aliasee)
	}
	if got := m.String(); got != src {
		t.Errorf("round trip diverged:\n%s", got)
	}
}

func TestConstExprs(t *testing.T) {
	m := MustParse(`@arr = global [6 x i8] c"abcde\00"
@p = global i8* getelementptr inbounds ([6 x i8]* @arr, i64 0, i64 2)
@addr = global i64 ptrtoint ([6 x i8]* @arr to i64)
@folded = global i32 6
`)
	p := m.Global("p")
	gep, ok := p.Init.(*ConstExpr)
	if !ok || gep.Opcode() != OpGetElementPtr || !gep.InBounds {
		t.Fatalf("init of @p: %v", p.Init)
	}
	if gep.NumOperands() != 3 {
		t.Errorf("gep operands: %d", gep.NumOperands())
	}
	if !Same(gep.Type(), PointerTo(I8)) {
		t.Errorf("gep type: %s", gep.Type())
	}

	addr := m.Global("addr")
	if ce, ok := addr.Init.(*ConstExpr); !ok || ce.Opcode() != OpPtrToInt {
		t.Errorf("init of @addr: %v", addr.Init)
	}
}

func TestConstExprFolding(t *testing.T) {
	m := MustParse(`@a = global i32 trunc (i64 300 to i32)
@b = global i64 add (i64 40, i64 2)
`)
	a, _ := m.Global("a").Init.(*ConstInt)
	if a == nil || a.Val.Uint64() != 44 {
		t.Errorf("@a init = %v", m.Global("a").Init)
	}
	b, _ := m.Global("b").Init.(*ConstInt)
	if b == nil || b.Val.Uint64() != 42 {
		t.Errorf("@b init = %v", m.Global("b").Init)
	}
}

func TestQuotedGlobalNames(t *testing.T) {
	src := `@"one two" = global i32 1

define void @f() {
entry:
  %t0 = load i32* @"one two"
  ret void
}
`
	m := MustParse(src)
	if m.Global("one two") == nil {
		t.Fatal("quoted global not found")
	}
	if got := m.String(); got != src {
		t.Errorf("round trip diverged:\n%s", got)
	}
}

func TestComments(t *testing.T) {
	m := MustParse(`; leading comment
@g = global i32 7 ; trailing

define i32 @f() { ; open
entry:
  ; a full-line comment
  %t0 = load i32* @g
  ret i32 %t0
}
`)
	if m.Global("g") == nil || m.Func("f") == nil {
		t.Error("comments broke parsing")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"unknown instruction",
			"define void @f() {\n  frob\n}\n",
			`unknown instruction "frob"`,
		},
		{
			"undefined local",
			"define i32 @f() {\n  ret i32 %x\n}\n",
			"reference to undefined local %x",
		},
		{
			"forward ref type mismatch",
			"define void @f() {\n  %a = add i32 %b, 0\n  %b = add i64 0, 0\n  ret void\n}\n",
			"%b has type i64, not i32",
		},
		{
			"undefined label",
			"define void @f() {\nentry:\n  br label %nowhere\n}\n",
			"reference to undefined label %nowhere",
		},
		{
			"redefined label",
			"define void @f() {\na:\n  br label %a\n\na:\n  ret void\n}\n",
			"redefinition of label %a",
		},
		{
			"redefined local",
			"define void @f() {\n  %x = add i32 0, 0\n  %x = add i32 1, 1\n  ret void\n}\n",
			"redefinition of %x",
		},
		{
			"redefined global",
			"@g = global i32 0\n@g = global i32 1\n",
			"redefinition of @g",
		},
		{
			"undefined global",
			"define void @f() {\n  call void @g()\n}\n",
			"reference to undefined global @g",
		},
		{
			"undefined aliasee",
			"@a = alias i32* @nope\n",
			"reference to undefined global @nope",
		},
		{
			"named void instruction",
			"define void @f() {\n  %x = store i32 0, i32* null\n}\n",
			"cannot name a void instruction",
		},
		{
			"bool for wide type",
			"define void @f() {\n  ret i32 true\n}\n",
			"boolean literal for type i32",
		},
		{
			"float for int type",
			"@g = global i32 1.5\n",
			"float literal for type i32",
		},
		{
			"gep index out of range",
			"@g = global { i32 } zeroinitializer\n@p = global i32* getelementptr ({ i32 }* @g, i64 0, i32 5)\n",
			"struct index 5 out of range",
		},
		{
			"operand type mismatch",
			"define void @f(i64 %x) {\n  %a = add i32 %x, 1\n  ret void\n}\n",
			"%x has type i64, not i32",
		},
		{
			"array arity",
			"@g = global [3 x i8] [i8 1, i8 2]\n",
			"array literal has 2 elements, type wants 3",
		},
		{
			"string length",
			`@g = global [9 x i8] c"hi\00"` + "\n",
			"string constant has 3 bytes, type wants 9",
		},
		{
			"truncated input",
			"define void @f() {\n  ret void\n",
			"unexpected end of input",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.src)
			if err == nil {
				t.Fatal("parse succeeded")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestErrorPositions(t *testing.T) {
	_, err := Parse("define void @f() {\n  frob\n}\n")
	if err == nil {
		t.Fatal("parse succeeded")
	}
	if !strings.HasPrefix(err.Error(), "2:3:") {
		t.Errorf("error %q does not carry position 2:3", err)
	}
}

func TestModuleLookups(t *testing.T) {
	m := MustParse(`@g = global i32 0

declare void @f()
`)
	if m.Global("g") == nil || m.Func("f") == nil {
		t.Error("lookups failed")
	}
	if m.Global("nope") != nil || m.Func("nope") != nil {
		t.Error("lookups invented entities")
	}
	if m.Func("g") != nil || m.Global("f") != nil {
		t.Error("lookups confused kinds")
	}
}

func TestParseTargetOnly(t *testing.T) {
	m := MustParse(`target datalayout = "E-p:64:64:64"
`)
	if m.TargetLayout != "E-p:64:64:64" {
		t.Errorf("layout = %q", m.TargetLayout)
	}
	if m.TargetTriple != "" {
		t.Errorf("triple = %q", m.TargetTriple)
	}
}
