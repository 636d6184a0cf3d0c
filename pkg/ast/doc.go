// Package ast provides the parse-tree capability the middleware analyzer
// consumes: enumeration of function, arrow, class and variable declarations
// and call expressions, each with its declared name and rendered text.
//
// The Provider interface abstracts the parsing mechanism so analyzers work
// with any implementation. The treesitter subpackage is the production
// implementation.
//
// Usage:
//
//	provider := treesitter.New()
//	defer provider.Close()
//
//	file, err := provider.Parse("src/middleware/auth.ts")
//	if err != nil {
//	    return err
//	}
//
//	for _, fn := range file.Functions() {
//	    fmt.Printf("%s at line %d\n", fn.Name, fn.Start.Line)
//	}
package ast
