// Команда staticlint запускает набор статических анализаторов для кода проекта.
//
// В набор входят:
//
//   - анализаторы golang.org/x/tools/go/analysis/passes: assign, atomic, bools, buildtag,
//     copylock, httpresponse, lostcancel, nilness, printf, shadow, unreachable;
//   - все анализаторы класса SA из staticcheck.io;
//   - ST1000 (комментарий пакета), ST1005 (тексты ошибок) и S1000 (упрощение select);
//   - errcheck для необработанных ошибок;
//   - noexit, запрещающий os.Exit и log.Fatal* в функции main пакета main.
//
// Запуск:
//
//	go run ./cmd/staticlint ./...
package main

import (
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/buildtag"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/kisielk/errcheck/errcheck"

	"github.com/tempizhere/shortlinks/cmd/staticlint/noexit"
)

// extraChecks проверки staticcheck вне класса SA
var extraChecks = map[string]bool{
	"ST1000": true,
	"ST1005": true,
	"S1000":  true,
}

func main() {
	multichecker.Main(analyzers()...)
}

func analyzers() []*analysis.Analyzer {
	list := []*analysis.Analyzer{
		assign.Analyzer,
		atomic.Analyzer,
		bools.Analyzer,
		buildtag.Analyzer,
		copylock.Analyzer,
		httpresponse.Analyzer,
		lostcancel.Analyzer,
		nilness.Analyzer,
		printf.Analyzer,
		shadow.Analyzer,
		unreachable.Analyzer,
		errcheck.Analyzer,
		noexit.NoExitAnalyzer,
	}

	// Класс SA целиком
	list = appendChecks(list, staticcheck.Analyzers, func(string) bool { return true })

	inExtra := func(name string) bool { return extraChecks[name] }
	list = appendChecks(list, stylecheck.Analyzers, inExtra)
	list = appendChecks(list, simple.Analyzers, inExtra)
	return list
}

func appendChecks(list []*analysis.Analyzer, checks []*lint.Analyzer, keep func(string) bool) []*analysis.Analyzer {
	for _, check := range checks {
		if keep(check.Analyzer.Name) {
			list = append(list, check.Analyzer)
		}
	}
	return list
}
