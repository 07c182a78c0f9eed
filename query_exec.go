package catalog

// ExecuteQuery is the Store's single escape hatch (§4.1), used
// exclusively by the Query Compiler to run its lowered, parameterized
// SQL and materialize the resulting image rows. Values in args are
// always bound parameters, never interpolated.
func (c *Catalog) ExecuteQuery(sqlText string, args []any) ([]*Image, error) {
	rows, err := c.db.Query(sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}
