// Package noosexit reports direct os.Exit calls in the main function of a
// main package.
package noosexit

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

var Analyzer = &analysis.Analyzer{
	Name:     "noosexit",
	Doc:      "forbid direct os.Exit in main.main; return an error from run() instead",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (any, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}
	ins := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	ins.Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node) {
		fd := n.(*ast.FuncDecl)
		if fd.Recv != nil || fd.Name.Name != "main" || fd.Body == nil {
			return
		}
		if skipFile(pass, fd) {
			return
		}
		ast.Inspect(fd.Body, func(n ast.Node) bool {
			// deferred or goroutine closures run outside main's own flow
			if _, ok := n.(*ast.FuncLit); ok {
				return false
			}
			call, ok := n.(*ast.CallExpr)
			if ok && isOsExit(pass, call) {
				pass.Reportf(call.Pos(), "do not call os.Exit inside main; delegate to run() and return an error")
			}
			return true
		})
	})
	return nil, nil
}

func isOsExit(pass *analysis.Pass, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
	if !ok || fn.Pkg() == nil {
		return false
	}
	return fn.Pkg().Path() == "os" && fn.Name() == "Exit"
}

func skipFile(pass *analysis.Pass, fd *ast.FuncDecl) bool {
	name := pass.Fset.Position(fd.Pos()).Filename
	if strings.Contains(name, "/go-build/") || strings.HasSuffix(name, "_test.go") {
		return true
	}
	for _, f := range pass.Files {
		if f.Pos() <= fd.Pos() && fd.End() <= f.End() {
			return ast.IsGenerated(f)
		}
	}
	return false
}
