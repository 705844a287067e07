package valuetracking

import (
	"testing"

	"github.com/invisibleboy/my-customized-llvm/ir"
)

const stringsFixture = `
@msg = constant [6 x i8] c"hello\00"
@raw = constant [3 x i8] c"abc"
@blank = constant [8 x i8] zeroinitializer
@ext = external constant [6 x i8]
@soft = weak constant [6 x i8] c"hello\00"
@mut = global [6 x i8] c"hello\00"

define i8* @f(i1 %c) {
entry:
  %start = getelementptr [6 x i8]* @msg, i64 0, i64 0
  %mid = getelementptr [6 x i8]* @msg, i64 0, i64 2
  %cast = bitcast [6 x i8]* @msg to i8*
  %nostop = getelementptr [3 x i8]* @raw, i64 0, i64 0
  %zs = getelementptr [8 x i8]* @blank, i64 0, i64 3
  %es = getelementptr [6 x i8]* @ext, i64 0, i64 0
  %ws = getelementptr [6 x i8]* @soft, i64 0, i64 0
  %ms = getelementptr [6 x i8]* @mut, i64 0, i64 0
  %pick = select i1 %c, i8* %start, i8* %start
  %pick2 = select i1 %c, i8* %start, i8* %mid
  br label %loop

loop:
  %str = phi i8* [ %start, %entry ], [ %str, %loop ]
  %cycle = phi i8* [ %cycle, %loop ]
  br label %loop
}
`

func TestConstantString(t *testing.T) {
	m := ir.MustParse(stringsFixture)

	tests := []struct {
		name      string
		offset    uint64
		stopAtNul bool
		want      string
		ok        bool
	}{
		{"start", 0, true, "hello", true},
		{"start", 1, true, "ello", true},
		{"start", 0, false, "hello\x00", true},
		{"mid", 0, true, "llo", true},
		{"mid", 1, true, "lo", true},
		{"cast", 0, true, "hello", true},
		{"nostop", 0, true, "abc", true}, // unterminated, but the bytes are there
		{"nostop", 0, false, "abc", true},
		{"zs", 0, true, "", true},
		{"es", 0, true, "", false},
		{"ws", 0, true, "", false},
		{"ms", 0, true, "", false},
	}
	for _, tc := range tests {
		got, ok := ConstantString(instrNamed(t, m, tc.name), tc.offset, tc.stopAtNul)
		if got != tc.want || ok != tc.ok {
			t.Errorf("%%%s offset %d: %q, %v, want %q, %v",
				tc.name, tc.offset, got, ok, tc.want, tc.ok)
		}
	}

	// The global itself works too.
	msg := m.Global("msg")
	if got, ok := ConstantString(msg, 2, true); !ok || got != "llo" {
		t.Errorf("@msg offset 2: %q, %v", got, ok)
	}
	if got, ok := ConstantString(msg, 6, true); !ok || got != "" {
		t.Errorf("@msg offset 6: %q, %v, want empty", got, ok)
	}
	if _, ok := ConstantString(msg, 7, true); ok {
		t.Error("@msg offset 7 answered past the end")
	}
	if _, ok := ConstantString(m.Func("f").Params[0], 0, true); ok {
		t.Error("opaque param answered")
	}
}

func TestStringLength(t *testing.T) {
	m := ir.MustParse(stringsFixture)

	tests := []struct {
		name string
		want uint64
	}{
		{"start", 6},
		{"mid", 4},
		{"cast", 0},  // only the gep form pins a start index
		{"nostop", 0},
		{"zs", 1},
		{"es", 0},
		{"ws", 0},
		{"ms", 0},
		{"pick", 6},
		{"pick2", 0},
		{"str", 6},   // the back edge does not vote
		{"cycle", 1}, // unreachable, pick the harmless answer
	}
	for _, tc := range tests {
		if got := StringLength(instrNamed(t, m, tc.name)); got != tc.want {
			t.Errorf("%%%s: length %d, want %d", tc.name, got, tc.want)
		}
	}

	if got := StringLength(m.Global("blank")); got != 1 {
		t.Errorf("@blank: length %d, want 1", got)
	}
	if got := StringLength(m.Global("msg")); got != 0 {
		t.Errorf("@msg: length %d, want 0", got)
	}
	if got := StringLength(ir.NewConstInt(ir.I64, 0)); got != 0 {
		t.Errorf("non-pointer: length %d, want 0", got)
	}
}
