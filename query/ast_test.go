package query

import "testing"

func TestParseSimpleComparison(t *testing.T) {
	ast, err := Parse(`tag.person=="Alice"`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	c := ast.Left.Comparison
	if c == nil {
		t.Fatal("expected a comparison term")
	}
	if got := joinPath(c.Tag.Path); got != "person" {
		t.Errorf("expected tag path person, got %s", got)
	}
	if c.Op != "==" {
		t.Errorf("expected op ==, got %s", c.Op)
	}
	if c.Value.String == nil || *c.Value.String != `"Alice"` {
		t.Errorf("expected quoted string value, got %+v", c.Value)
	}
}

func joinPath(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}

func TestParseNumericComparison(t *testing.T) {
	ast, err := Parse("tag.datetime.year>=2018")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	c := ast.Left.Comparison
	if joinPath(c.Tag.Path) != "datetime.year" {
		t.Errorf("expected datetime.year, got %v", c.Tag.Path)
	}
	if c.Op != ">=" {
		t.Errorf("expected op >=, got %s", c.Op)
	}
	if c.Value.Int == nil || *c.Value.Int != 2018 {
		t.Errorf("expected int value 2018, got %+v", c.Value)
	}
}

func TestParseBooleanComparison(t *testing.T) {
	ast, err := Parse("tag.favorite==true")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	c := ast.Left.Comparison
	if c.Value.Bool == nil || *c.Value.Bool != "true" {
		t.Errorf("expected bool true, got %+v", c.Value)
	}
}

func TestParseAndExpression(t *testing.T) {
	ast, err := Parse(`tag.person=="Alice" && tag.event=="birthday"`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(ast.Right) != 1 || ast.Right[0].Op != "&&" {
		t.Fatalf("expected one && continuation, got %+v", ast.Right)
	}
}

func TestParseOrExpression(t *testing.T) {
	ast, err := Parse(`tag.scene=="indoor" || tag.scene=="outdoor"`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(ast.Right) != 1 || ast.Right[0].Op != "||" {
		t.Fatalf("expected one || continuation, got %+v", ast.Right)
	}
}

func TestParseNestedParentheses(t *testing.T) {
	ast, err := Parse(`(tag.person=="Alice" || tag.person=="Bob") && tag.event=="birthday"`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if ast.Left.Sub == nil {
		t.Fatal("expected the left term to be a parenthesized sub-expression")
	}
	if len(ast.Left.Sub.Right) != 1 || ast.Left.Sub.Right[0].Op != "||" {
		t.Errorf("expected the nested expression to be an ||, got %+v", ast.Left.Sub.Right)
	}
	if len(ast.Right) != 1 || ast.Right[0].Op != "&&" {
		t.Errorf("expected the outer continuation to be &&, got %+v", ast.Right)
	}
}

func TestParseSingleQuotedString(t *testing.T) {
	ast, err := Parse(`tag.person=='Alice'`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	c := ast.Left.Comparison
	if c.Value.String == nil || unquote(*c.Value.String) != "Alice" {
		t.Errorf("expected Alice, got %+v", c.Value)
	}
}

func TestParseNotEqual(t *testing.T) {
	ast, err := Parse(`tag.scene!="outdoor"`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if ast.Left.Comparison.Op != "!=" {
		t.Errorf("expected !=, got %s", ast.Left.Comparison.Op)
	}
}

func TestParseUnterminatedStringFails(t *testing.T) {
	if _, err := Parse(`tag.person=="Alice`); err == nil {
		t.Error("expected a parse error for an unterminated string")
	}
}

func TestParseMissingValueFails(t *testing.T) {
	if _, err := Parse(`tag.person==`); err == nil {
		t.Error("expected a parse error for a missing value")
	}
}

func TestParseEmptyExpressionMatchesAll(t *testing.T) {
	ast, err := Parse("")
	if err != nil {
		t.Fatalf("expected no error for empty expression, got %v", err)
	}
	if ast != nil {
		t.Error("expected a nil AST for an empty expression")
	}
}
