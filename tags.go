package catalog

import (
	"database/sql"
	"fmt"
	"strings"
)

// TagDefinition is one node of the hierarchical tag namespace (§3).
type TagDefinition struct {
	ID         int64
	Name       string
	ParentID   sql.NullInt64
	DataType   string
	IsCategory bool
}

// initSchema creates all tables, writes the schema-version row, and
// seeds the default tag forest. Grounded on the teacher's tx-wrapped
// exec-loop in catalog.go:initSchema.
func (c *Catalog) initSchema() error {
	return c.runInTx(func(tx *sql.Tx) error {
		for _, stmt := range schemaSQL {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("executing schema statement: %w\nstatement: %s", err, stmt)
			}
		}
		if _, err := tx.Exec(
			`INSERT INTO catalog_meta(key, value) VALUES ('schema_version', ?)`,
			fmt.Sprintf("%d", CurrentSchemaVersion),
		); err != nil {
			return err
		}
		return seedDefaultTagsTx(tx)
	})
}

// seedDefaultTagsTx inserts defaultTagTree, resolving each node's
// parent id by name against what has already been inserted in this
// call. Grounded on original_source/db/manager.py's _seed_default_tags
// name_to_id incremental-resolution pattern.
func seedDefaultTagsTx(tx *sql.Tx) error {
	nameToID := map[string]int64{}
	for _, node := range defaultTagTree {
		var parentID sql.NullInt64
		if node.parent != "" {
			id, ok := nameToID[node.parent]
			if !ok {
				return fmt.Errorf("seed tag %q: parent %q not yet defined", node.name, node.parent)
			}
			parentID = sql.NullInt64{Int64: id, Valid: true}
		}
		res, err := tx.Exec(
			`INSERT INTO tag_definitions(name, parent_id, data_type, is_category) VALUES (?, ?, ?, ?)`,
			node.name, parentID, node.dataType, node.isCategory,
		)
		if err != nil {
			return fmt.Errorf("seed tag %q: %w", node.name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		nameToID[node.name] = id
	}
	return nil
}

// AddTagDef inserts a standalone tag definition row.
func (c *Catalog) AddTagDef(name string, parentID *int64, dataType string, isCategory bool) (*TagDefinition, error) {
	var parent sql.NullInt64
	if parentID != nil {
		parent = sql.NullInt64{Int64: *parentID, Valid: true}
	}
	res, err := c.db.Exec(
		`INSERT INTO tag_definitions(name, parent_id, data_type, is_category) VALUES (?, ?, ?, ?)`,
		name, parent, dataType, isCategory,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: add tag def: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &TagDefinition{ID: id, Name: name, ParentID: parent, DataType: dataType, IsCategory: isCategory}, nil
}

// GetTagDef fetches a tag definition by id.
func (c *Catalog) GetTagDef(id int64) (*TagDefinition, error) {
	row := c.db.QueryRow(
		`SELECT id, name, parent_id, data_type, is_category FROM tag_definitions WHERE id = ?`, id,
	)
	return scanTagDef(row)
}

// GetTagDefByName looks up a tag by (name, parent). parentID nil means
// a root. When multiple siblings share the name - tolerated upstream
// corruption per spec.md §4.2 - the most recently inserted (highest id)
// wins, and the collision is logged.
func (c *Catalog) GetTagDefByName(name string, parentID *int64) (*TagDefinition, error) {
	var rows *sql.Rows
	var err error
	if parentID == nil {
		rows, err = c.db.Query(
			`SELECT id, name, parent_id, data_type, is_category FROM tag_definitions
			 WHERE name = ? AND parent_id IS NULL ORDER BY id DESC`, name,
		)
	} else {
		rows, err = c.db.Query(
			`SELECT id, name, parent_id, data_type, is_category FROM tag_definitions
			 WHERE name = ? AND parent_id = ? ORDER BY id DESC`, name, *parentID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get tag def by name: %w", err)
	}
	defer rows.Close()

	var defs []*TagDefinition
	for rows.Next() {
		def, err := scanTagDefRows(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, sql.ErrNoRows
	}
	if len(defs) > 1 {
		c.log.WithFields(map[string]interface{}{
			"name":      name,
			"parent_id": parentID,
			"count":     len(defs),
			"chosen_id": defs[0].ID,
		}).Warn("tag definition sibling-name collision, choosing most recently inserted")
	}
	return defs[0], nil
}

// ListTagDefs returns every tag definition, ordered by id.
func (c *Catalog) ListTagDefs() ([]*TagDefinition, error) {
	rows, err := c.db.Query(`SELECT id, name, parent_id, data_type, is_category FROM tag_definitions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*TagDefinition
	for rows.Next() {
		def, err := scanTagDefRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

// ChildrenOf returns the direct children of parentID (nil for roots),
// ordered by id.
func (c *Catalog) ChildrenOf(parentID *int64) ([]*TagDefinition, error) {
	var rows *sql.Rows
	var err error
	if parentID == nil {
		rows, err = c.db.Query(`SELECT id, name, parent_id, data_type, is_category FROM tag_definitions WHERE parent_id IS NULL ORDER BY id`)
	} else {
		rows, err = c.db.Query(`SELECT id, name, parent_id, data_type, is_category FROM tag_definitions WHERE parent_id = ? ORDER BY id`, *parentID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*TagDefinition
	for rows.Next() {
		def, err := scanTagDefRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

// PathOf walks parents to the root and reverses, producing the
// canonical dotted-path stringification of a tag (§4.2).
func (c *Catalog) PathOf(id int64) (string, error) {
	var segments []string
	cur := id
	for {
		def, err := c.GetTagDef(cur)
		if err != nil {
			return "", fmt.Errorf("catalog: path of %d: %w", id, err)
		}
		segments = append(segments, def.Name)
		if !def.ParentID.Valid {
			break
		}
		cur = def.ParentID.Int64
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, "."), nil
}

// ResolvePath resolves a dotted path to its leaf tag definition,
// following sibling collisions per the tie-break rule. Returns
// sql.ErrNoRows if any segment is missing.
func (c *Catalog) ResolvePath(dotted string) (*TagDefinition, error) {
	segments := strings.Split(dotted, ".")
	var parentID *int64
	var def *TagDefinition
	for _, seg := range segments {
		d, err := c.GetTagDefByName(seg, parentID)
		if err != nil {
			return nil, err
		}
		def = d
		id := d.ID
		parentID = &id
	}
	return def, nil
}

// EnsurePath implements the §4.2 ensure_path resolution rule: walk
// left-to-right, creating missing ancestors as categories (the final
// segment takes leafDataType and is_category=false), promoting an
// existing non-final leaf to a category in place.
func (c *Catalog) EnsurePath(dotted string, leafDataType string) (*TagDefinition, error) {
	segments := strings.Split(dotted, ".")
	var result *TagDefinition
	err := c.runInTx(func(tx *sql.Tx) error {
		var parentID *int64
		for i, seg := range segments {
			isFinal := i == len(segments)-1
			def, err := getTagDefByNameTx(tx, seg, parentID)
			if err == sql.ErrNoRows {
				dataType := "string"
				isCategory := true
				if isFinal {
					dataType = leafDataType
					isCategory = false
				}
				var parent sql.NullInt64
				if parentID != nil {
					parent = sql.NullInt64{Int64: *parentID, Valid: true}
				}
				res, err := tx.Exec(
					`INSERT INTO tag_definitions(name, parent_id, data_type, is_category) VALUES (?, ?, ?, ?)`,
					seg, parent, dataType, isCategory,
				)
				if err != nil {
					return fmt.Errorf("ensure_path: insert %q: %w", seg, err)
				}
				id, err := res.LastInsertId()
				if err != nil {
					return err
				}
				def = &TagDefinition{ID: id, Name: seg, ParentID: parent, DataType: dataType, IsCategory: isCategory}
			} else if err != nil {
				return fmt.Errorf("ensure_path: lookup %q: %w", seg, err)
			} else if !isFinal && !def.IsCategory {
				if _, err := tx.Exec(`UPDATE tag_definitions SET is_category = 1 WHERE id = ?`, def.ID); err != nil {
					return fmt.Errorf("ensure_path: promote %q: %w", seg, err)
				}
				def.IsCategory = true
			}
			id := def.ID
			parentID = &id
			result = def
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TagFromSlashPath accepts a `/`-separated path, as the teacher's
// Lightroom keyword hierarchy does, and ensures it as a dotted tag
// path. Convenience only - see SPEC_FULL.md §12.
func (c *Catalog) TagFromSlashPath(slashPath string) (*TagDefinition, error) {
	dotted := strings.ReplaceAll(slashPath, "/", ".")
	return c.EnsurePath(dotted, "string")
}

// TagTreeNode is one entry of the nested structure GetTree returns.
type TagTreeNode struct {
	*TagDefinition
	Children []*TagTreeNode
}

// GetTree returns the full forest as nested TagTreeNodes.
func (c *Catalog) GetTree() ([]*TagTreeNode, error) {
	defs, err := c.ListTagDefs()
	if err != nil {
		return nil, err
	}
	nodes := make(map[int64]*TagTreeNode, len(defs))
	for _, d := range defs {
		nodes[d.ID] = &TagTreeNode{TagDefinition: d}
	}
	var roots []*TagTreeNode
	for _, d := range defs {
		n := nodes[d.ID]
		if d.ParentID.Valid {
			if parent, ok := nodes[d.ParentID.Int64]; ok {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots, nil
}

func getTagDefByNameTx(tx *sql.Tx, name string, parentID *int64) (*TagDefinition, error) {
	var rows *sql.Rows
	var err error
	if parentID == nil {
		rows, err = tx.Query(
			`SELECT id, name, parent_id, data_type, is_category FROM tag_definitions
			 WHERE name = ? AND parent_id IS NULL ORDER BY id DESC`, name,
		)
	} else {
		rows, err = tx.Query(
			`SELECT id, name, parent_id, data_type, is_category FROM tag_definitions
			 WHERE name = ? AND parent_id = ? ORDER BY id DESC`, name, *parentID,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, sql.ErrNoRows
	}
	return scanTagDefRows(rows)
}

func scanTagDef(row *sql.Row) (*TagDefinition, error) {
	var d TagDefinition
	var isCategory int
	if err := row.Scan(&d.ID, &d.Name, &d.ParentID, &d.DataType, &isCategory); err != nil {
		return nil, err
	}
	d.IsCategory = isCategory != 0
	return &d, nil
}

func scanTagDefRows(rows *sql.Rows) (*TagDefinition, error) {
	var d TagDefinition
	var isCategory int
	if err := rows.Scan(&d.ID, &d.Name, &d.ParentID, &d.DataType, &isCategory); err != nil {
		return nil, err
	}
	d.IsCategory = isCategory != 0
	return &d, nil
}
