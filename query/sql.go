package query

import (
	"fmt"
	"strconv"
	"strings"
)

// fixedFieldColumns maps a dotted tag_ref path to its direct column on
// images, per §4.8. Paths not present here are dynamic tag paths.
var fixedFieldColumns = map[string]string{
	"favorite":              "favorite",
	"to_delete":             "to_delete",
	"reviewed":              "reviewed",
	"auto_tag_errors":       "auto_tag_errors",
	"datetime":              "datetime",
	"datetime.year":         "year",
	"datetime.month":        "month",
	"datetime.day":          "day",
	"datetime.hour":         "hour",
	"datetime.minute":       "minute",
	"datetime.second":       "second",
	"location.latitude":     "latitude",
	"location.longitude":    "longitude",
	"location.has_lat_lon":  "has_lat_lon",
	"location.city":         "city",
	"location.town":         "town",
	"location.state":        "state",
	"image_size.width":      "width",
	"image_size.height":     "height",
}

var boolColumns = map[string]bool{
	"favorite": true, "to_delete": true, "reviewed": true,
	"auto_tag_errors": true, "has_lat_lon": true,
}

var intColumns = map[string]bool{
	"year": true, "month": true, "day": true, "hour": true, "minute": true, "second": true,
	"width": true, "height": true,
}

var sqlOperators = map[string]string{
	"==": "=", "!=": "!=", ">": ">", ">=": ">=", "<": "<", "<=": "<=",
}

// Compiled is a lowered query ready to execute: parameterized SQL text
// plus its bound arguments, in the order the placeholders appear.
type Compiled struct {
	SQL  string
	Args []any
}

// Lower converts an Expr into a SELECT DISTINCT over images, mirroring
// the fixed-field-vs-dynamic-tag-path split and join-per-leaf strategy
// of §4.8. A nil expr (empty query string) matches every image.
func Lower(expr *Expr) (*Compiled, error) {
	if expr == nil {
		return &Compiled{SQL: `SELECT DISTINCT images.* FROM images`}, nil
	}
	l := &lowerer{}
	where, args, joins, err := l.lowerExpr(expr)
	if err != nil {
		return nil, err
	}
	sql := `SELECT DISTINCT images.* FROM images ` + strings.Join(joins, " ") + ` WHERE ` + where
	return &Compiled{SQL: sql, Args: args}, nil
}

type lowerer struct {
	joinCounter int
}

func (l *lowerer) lowerExpr(e *Expr) (where string, args []any, joins []string, err error) {
	where, args, joins, err = l.lowerTerm(e.Left)
	if err != nil {
		return "", nil, nil, err
	}
	for _, r := range e.Right {
		rWhere, rArgs, rJoins, err := l.lowerTerm(r.Term)
		if err != nil {
			return "", nil, nil, err
		}
		op := "AND"
		if r.Op == "||" {
			op = "OR"
		}
		where = fmt.Sprintf("(%s %s %s)", where, op, rWhere)
		args = append(args, rArgs...)
		joins = append(joins, rJoins...)
	}
	return where, args, joins, nil
}

func (l *lowerer) lowerTerm(t *Term) (string, []any, []string, error) {
	if t.Sub != nil {
		return l.lowerExpr(t.Sub)
	}
	return l.lowerComparison(t.Comparison)
}

func (l *lowerer) lowerComparison(c *Comparison) (string, []any, []string, error) {
	sqlOp, ok := sqlOperators[c.Op]
	if !ok {
		return "", nil, nil, fmt.Errorf("query: unknown operator %q", c.Op)
	}
	path := strings.Join(c.Tag.Path, ".")

	if column, ok := fixedFieldColumns[path]; ok {
		val, err := coerceFixedValue(c.Value, column)
		if err != nil {
			return "", nil, nil, err
		}
		return fmt.Sprintf("images.%s %s ?", column, sqlOp), []any{val}, nil, nil
	}

	return l.lowerDynamicTag(c.Tag.Path, sqlOp, c.Value)
}

// lowerDynamicTag builds the image_tags/tag_definitions join chain for
// one dotted tag path with fresh aliases on every call: one image_tags
// alias plus one tag_definitions alias per path segment (leaf first,
// then each parent), so each leaf comparison adds 1 + len(parts) joins.
func (l *lowerer) lowerDynamicTag(parts []string, sqlOp string, value *Value) (string, []any, []string, error) {
	l.joinCounter++
	aliasEdge := fmt.Sprintf("it%d", l.joinCounter)
	aliasTag := fmt.Sprintf("td%d", l.joinCounter)

	joins := []string{
		fmt.Sprintf("JOIN image_tags %s ON images.id = %s.image_id", aliasEdge, aliasEdge),
		fmt.Sprintf("JOIN tag_definitions %s ON %s.tag_id = %s.id", aliasTag, aliasEdge, aliasTag),
	}

	whereParts := []string{fmt.Sprintf("%s.name = ?", aliasTag)}
	args := []any{parts[len(parts)-1]}

	currentAlias := aliasTag
	for i := len(parts) - 2; i >= 0; i-- {
		l.joinCounter++
		parentAlias := fmt.Sprintf("td%d", l.joinCounter)
		joins = append(joins, fmt.Sprintf("JOIN tag_definitions %s ON %s.parent_id = %s.id", parentAlias, currentAlias, parentAlias))
		whereParts = append(whereParts, fmt.Sprintf("%s.name = ?", parentAlias))
		args = append(args, parts[i])
		currentAlias = parentAlias
	}

	whereParts = append(whereParts, fmt.Sprintf("%s.value %s ?", aliasEdge, sqlOp))
	args = append(args, valueToString(value))

	where := "(" + strings.Join(whereParts, " AND ") + ")"
	return where, args, joins, nil
}

// coerceFixedValue converts a literal to the Go type a fixed column's
// bind parameter should carry, per §4.8's coercion rules.
func coerceFixedValue(v *Value, column string) (any, error) {
	if boolColumns[column] {
		switch {
		case v.Bool != nil:
			return boolToInt(*v.Bool == "true"), nil
		case v.String != nil:
			s := strings.ToLower(unquote(*v.String))
			return boolToInt(s == "true" || s == "1" || s == "yes"), nil
		case v.Int != nil:
			return boolToInt(*v.Int != 0), nil
		case v.Float != nil:
			return boolToInt(*v.Float != 0), nil
		}
		return nil, fmt.Errorf("query: no value for boolean column %s", column)
	}
	if intColumns[column] {
		switch {
		case v.Int != nil:
			return *v.Int, nil
		case v.Float != nil:
			return int64(*v.Float), nil
		case v.String != nil:
			n, err := strconv.ParseInt(unquote(*v.String), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("query: %s requires an integer value: %w", column, err)
			}
			return n, nil
		}
		return nil, fmt.Errorf("query: no value for integer column %s", column)
	}
	switch {
	case v.String != nil:
		return unquote(*v.String), nil
	case v.Int != nil:
		return *v.Int, nil
	case v.Float != nil:
		return *v.Float, nil
	case v.Bool != nil:
		return *v.Bool, nil
	}
	return nil, fmt.Errorf("query: comparison has no value")
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// valueToString stringifies a literal for comparison against an
// image_tags.value column, which is always TEXT.
func valueToString(v *Value) string {
	switch {
	case v.String != nil:
		return unquote(*v.String)
	case v.Int != nil:
		return strconv.FormatInt(*v.Int, 10)
	case v.Float != nil:
		return strconv.FormatFloat(*v.Float, 'g', -1, 64)
	case v.Bool != nil:
		return *v.Bool
	}
	return ""
}
