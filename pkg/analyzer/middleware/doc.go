// Package middleware detects middleware-shaped code in TypeScript and
// JavaScript sources and reports duplicated implementations, chains whose
// order departs from the codebase convention or breaks fixed safety rules,
// and implementations that could be consolidated or inlined.
//
// Analysis is stateful across files. A Session accumulates the
// implementations and usages of one run; each call to Analyzer.Analyze
// registers the file's contributions and then checks it against everything
// registered so far, so the order files are fed in matters:
//
//	a := middleware.New()
//	sess := middleware.NewSession()
//	for _, f := range files {
//	    issues = append(issues, a.Analyze(sess, f.Info, f.Tree)...)
//	}
//	summary := sess.Summary()
package middleware
