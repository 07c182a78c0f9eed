package query

import catalog "github.com/photocat/photocat"

// Compile parses and lowers one query expression in a single step.
func Compile(expr string) (*Compiled, error) {
	ast, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return Lower(ast)
}

// Run compiles expr and executes it against store, returning the
// matching images. An empty expr matches every image (§6).
func Run(store *catalog.Catalog, expr string) ([]*catalog.Image, error) {
	compiled, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return store.ExecuteQuery(compiled.SQL, compiled.Args)
}
