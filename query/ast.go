// Package query compiles the boolean tag-query grammar (§4.8) into a
// parameterized SQL query against the catalog's images table.
package query

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var queryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "And", Pattern: `&&`},
	{Name: "Or", Pattern: `\|\|`},
	{Name: "Le", Pattern: `<=`},
	{Name: "Ge", Pattern: `>=`},
	{Name: "Eq", Pattern: `==`},
	{Name: "Ne", Pattern: `!=`},
	{Name: "Lt", Pattern: `<`},
	{Name: "Gt", Pattern: `>`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`},
	{Name: "Float", Pattern: `\d+\.\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
})

// Expr is the left-fold root: one Term followed by any number of
// (op, Term) pairs, all at the same precedence and evaluated
// left-to-right, matching §4.8's explicit "no AND-binds-tighter" rule.
type Expr struct {
	Left  *Term     `@@`
	Right []*OpTerm `@@*`
}

// OpTerm is one "&& term" or "|| term" continuation.
type OpTerm struct {
	Op   string `@("&&" | "||")`
	Term *Term  `@@`
}

// Term is either a leaf comparison or a parenthesized sub-expression.
type Term struct {
	Comparison *Comparison `  @@`
	Sub        *Expr       `| "(" @@ ")"`
}

// Comparison is one tag_ref op value leaf.
type Comparison struct {
	Tag   *TagRef `@@`
	Op    string  `@("==" | "!=" | ">=" | "<=" | ">" | "<")`
	Value *Value  `@@`
}

// TagRef is the dotted path following "tag.", e.g. person, event.birthday.
type TagRef struct {
	Path []string `"tag" ("." @Ident)+`
}

// Value is a literal: a quoted string, a float, an int, or a boolean.
type Value struct {
	String *string  `  @String`
	Float  *float64 `| @Float`
	Int    *int64   `| @Int`
	Bool   *string  `| @("true" | "false")`
}

var grammar = participle.MustBuild(
	&Expr{},
	participle.Lexer(queryLexer),
	participle.Elide("Whitespace"),
)

// QueryParseError reports a syntactically invalid query expression.
type QueryParseError struct {
	Expr string
	Err  error
}

func (e *QueryParseError) Error() string {
	return "query: parse error in " + "\"" + e.Expr + "\": " + e.Err.Error()
}

func (e *QueryParseError) Unwrap() error { return e.Err }

// Parse compiles a query expression into an AST. An empty expression
// is valid and represents "match everything" (§6); Parse returns a nil
// *Expr in that case.
func Parse(expr string) (*Expr, error) {
	if expr == "" {
		return nil, nil
	}
	var ast Expr
	if err := grammar.ParseString("", expr, &ast); err != nil {
		return nil, &QueryParseError{Expr: expr, Err: err}
	}
	return &ast, nil
}

// unquote strips the matching leading/trailing quote character (either
// ' or ") and resolves \<quote> and \\ escapes. The grammar accepts
// both quote styles (§8's test corpus exercises both).
func unquote(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	quote := raw[0]
	inner := raw[1 : len(raw)-1]
	out := make([]byte, 0, len(inner))
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) && (inner[i+1] == quote || inner[i+1] == '\\') {
			out = append(out, inner[i+1])
			i++
			continue
		}
		out = append(out, inner[i])
	}
	return string(out)
}
