// Package noexit содержит анализатор, запрещающий завершать процесс из функции main пакета main.
package noexit

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

// NoExitAnalyzer проверяет отсутствие вызовов os.Exit и log.Fatal* в функции main пакета main.
var NoExitAnalyzer = &analysis.Analyzer{
	Name: "noexit",
	Doc:  "запрещает вызовы os.Exit и log.Fatal* в функции main пакета main",
	Run:  run,
}

// forbidden функции, завершающие процесс в обход отложенных вызовов
var forbidden = map[string]map[string]bool{
	"os":  {"Exit": true},
	"log": {"Fatal": true, "Fatalf": true, "Fatalln": true},
}

func run(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	for _, file := range pass.Files {
		// Сгенерированный go test файл с os.Exit(m.Run()) пропускаем
		if ast.IsGenerated(file) {
			continue
		}

		for _, decl := range file.Decls {
			funcDecl, ok := decl.(*ast.FuncDecl)
			if !ok || funcDecl.Recv != nil || funcDecl.Name.Name != "main" || funcDecl.Body == nil {
				continue
			}

			ast.Inspect(funcDecl.Body, func(n ast.Node) bool {
				callExpr, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				selExpr, ok := callExpr.Fun.(*ast.SelectorExpr)
				if !ok {
					return true
				}

				fn, ok := pass.TypesInfo.Uses[selExpr.Sel].(*types.Func)
				if !ok || fn.Pkg() == nil {
					return true
				}
				if forbidden[fn.Pkg().Path()][fn.Name()] {
					pass.Reportf(callExpr.Pos(), "прямой вызов %s.%s в функции main запрещен", fn.Pkg().Name(), fn.Name())
				}
				return true
			})
		}
	}

	return nil, nil
}
