package valuetracking

import (
	"testing"

	"github.com/invisibleboy/my-customized-llvm/ir"
)

func TestIsSafeToSpeculate(t *testing.T) {
	m := ir.MustParse(`
@glob = global i32 7
@weakg = extern_weak global i32
@arr = global [4 x i32] zeroinitializer

declare i32 @llvm.ctpop.i32(i32)
declare double @llvm.sqrt.f64(double)
declare i32 @helper(i32)

define i32 @f(i32 %x, i32 %y, i32* %p, i32* byval %bp, double %d) {
entry:
  %sum = add i32 %x, %y
  %cmp = icmp slt i32 %x, %y
  %tr = trunc i32 %x to i8
  %odd = or i32 %y, 1
  %du = udiv i32 %x, %odd
  %dup = udiv i32 %x, %y
  %duc = udiv i32 %x, 7
  %duz = udiv i32 %x, 0
  %ru = urem i32 %x, %odd
  %ds = sdiv i32 %x, 7
  %dsm = sdiv i32 %x, -1
  %dso = sdiv i32 %x, %odd
  %buf = alloca i32
  %la = load i32* %buf
  %lg = load i32* @glob
  %lw = load i32* @weakg
  %lp = load i32* %p
  %lb = load i32* %bp
  %lv = load volatile i32* @glob
  %lat = load atomic i32* @glob seq_cst, align 4
  %in = getelementptr inbounds [4 x i32]* @arr, i64 0, i64 2
  %li = load i32* %in
  %out = getelementptr [4 x i32]* @arr, i64 0, i64 6
  %lo = load i32* %out
  %vi = getelementptr [4 x i32]* @arr, i64 0, i32 %x
  %lvi = load i32* %vi
  %pop = call i32 @llvm.ctpop.i32(i32 %x)
  %sq = call double @llvm.sqrt.f64(double %d)
  %h = call i32 @helper(i32 %x)
  %trap = add i32 %x, udiv (i32 1, i32 0)
  ret i32 %sum
}
`)
	tests := []struct {
		name string
		want bool
	}{
		{"sum", true},
		{"cmp", true},
		{"tr", true},
		{"du", true},    // divisor has a known one bit
		{"dup", false},  // divisor could be zero
		{"duc", true},
		{"duz", false},
		{"ru", true},
		{"ds", true},    // 7 is neither 0 nor -1
		{"dsm", false},  // INT_MIN / -1 traps
		{"dso", false},  // non-zero but could still be -1
		{"la", true},
		{"lg", true},
		{"lw", false},   // extern_weak may be null
		{"lp", false},
		{"lb", true},    // byval is the callee's own copy
		{"lv", false},
		{"lat", false},
		{"li", true},
		{"lo", false},   // index past the array
		{"lvi", false},
		{"pop", true},
		{"sq", false},   // not on the intrinsic whitelist
		{"h", false},
		{"trap", false}, // trapping constant expression operand
	}
	for _, tc := range tests {
		if got := IsSafeToSpeculate(instrNamed(t, m, tc.name), nil); got != tc.want {
			t.Errorf("%%%s: IsSafeToSpeculate = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsSafeToSpeculateOpcodes(t *testing.T) {
	ptr := ir.NewParam("p", ir.PointerTo(ir.I32))
	instrs := []*ir.Instr{
		ir.NewInstr(ir.OpStore, ir.Void, ir.NewConstInt(ir.I32, 1), ptr),
		ir.NewInstr(ir.OpPHI, ir.I32),
		ir.NewInstr(ir.OpAlloca, ir.PointerTo(ir.I32)),
		ir.NewInstr(ir.OpFence, ir.Void),
		ir.NewInstr(ir.OpVAArg, ir.I32, ptr),
		ir.NewInstr(ir.OpUnreachable, ir.Void),
	}
	for _, i := range instrs {
		if IsSafeToSpeculate(i, nil) {
			t.Errorf("%s claimed speculatable", i.Opcode())
		}
	}
}
