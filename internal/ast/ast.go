// Package ast defines the syntax tree for the kernel language subset:
// function definitions over assignments, arithmetic, comparisons,
// conditionals, loops, calls, and literal tuples/slices.
package ast

import (
	"github.com/recht/triton/internal/source"
)

// Module is a parsed kernel source file.
type Module struct {
	Funcs []*FuncDef
	Src   *source.Buffer
}

// Func returns the function named name, or nil.
func (m *Module) Func(name string) *FuncDef {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FuncDef is one kernel or helper function definition.
type FuncDef struct {
	Name   string
	Pos    source.Pos
	Params []Param
	Body   []*Stmt
	Src    *source.Buffer
}

// Param is a declared parameter. Constexpr parameters are bound to
// compile-time constants at specialization time.
type Param struct {
	Name      string
	Pos       source.Pos
	Constexpr bool
	Default   *Expr
}

// ParamIndex returns the position of the named parameter, or -1.
func (f *FuncDef) ParamIndex(name string) int {
	for i := range f.Params {
		if f.Params[i].Name == name {
			return i
		}
	}
	return -1
}
