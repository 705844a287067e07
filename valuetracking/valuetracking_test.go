package valuetracking

import (
	"testing"

	"github.com/invisibleboy/my-customized-llvm/ir"
)

// instrNamed finds the named instruction anywhere in the module.
// Fixtures keep instruction names unique across functions.
func instrNamed(t *testing.T, m *ir.Module, name string) *ir.Instr {
	t.Helper()
	for _, f := range m.Funcs {
		for _, b := range f.Blocks {
			for _, i := range b.Instrs {
				if i.Name() == name {
					return i
				}
			}
		}
	}
	t.Fatalf("no instruction %%%s", name)
	return nil
}
