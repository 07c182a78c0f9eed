package catalog

import (
	"database/sql"
	"fmt"
)

// ImageTag is one image-tag edge (§3), optionally carrying a value.
type ImageTag struct {
	ID      int64
	ImageID int64
	TagID   int64
	Value   sql.NullString
}

// SetTag upserts an image-tag edge. (image_id, tag_id, value) is the
// uniqueness key; duplicates are silent no-ops (§3). The image_tags
// table carries no UNIQUE constraint, so this checks existence with
// `value IS ?` first (IS also matches a null value against NULL).
func (c *Catalog) SetTag(imageID, tagID int64, value *string) error {
	var exists int
	err := c.db.QueryRow(
		`SELECT COUNT(*) FROM image_tags WHERE image_id = ? AND tag_id = ? AND value IS ?`,
		imageID, tagID, nullStr(value),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("catalog: set tag: checking existing edge: %w", err)
	}
	if exists > 0 {
		return nil
	}
	_, err = c.db.Exec(
		`INSERT INTO image_tags(image_id, tag_id, value) VALUES (?, ?, ?)`,
		imageID, tagID, nullStr(value),
	)
	if err != nil {
		return fmt.Errorf("catalog: set tag: %w", err)
	}
	return nil
}

// RemoveTag deletes a matching edge. value nil matches only null-valued
// edges, not every value.
func (c *Catalog) RemoveTag(imageID, tagID int64, value *string) error {
	_, err := c.db.Exec(
		`DELETE FROM image_tags WHERE image_id = ? AND tag_id = ? AND value IS ?`,
		imageID, tagID, nullStr(value),
	)
	if err != nil {
		return fmt.Errorf("catalog: remove tag: %w", err)
	}
	return nil
}

// TagsOf returns every edge attached to an image.
func (c *Catalog) TagsOf(imageID int64) ([]*ImageTag, error) {
	rows, err := c.db.Query(
		`SELECT id, image_id, tag_id, value FROM image_tags WHERE image_id = ? ORDER BY id`, imageID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ImageTag
	for rows.Next() {
		var e ImageTag
		if err := rows.Scan(&e.ID, &e.ImageID, &e.TagID, &e.Value); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ImagesWith returns the ids of every image carrying tagID, optionally
// constrained to a specific value.
func (c *Catalog) ImagesWith(tagID int64, value *string) ([]int64, error) {
	var rows *sql.Rows
	var err error
	if value == nil {
		rows, err = c.db.Query(`SELECT DISTINCT image_id FROM image_tags WHERE tag_id = ? ORDER BY image_id`, tagID)
	} else {
		rows, err = c.db.Query(`SELECT DISTINCT image_id FROM image_tags WHERE tag_id = ? AND value = ? ORDER BY image_id`, tagID, *value)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// MigrateTags reassigns every edge on fromImageID to toImageID, used by
// duplicate-group deletion to preserve tags on the kept image before
// the duplicate row is removed. Edges that would collide are skipped
// (SetTag's own dedup), matching §3's silent-no-op semantics.
func (c *Catalog) MigrateTags(fromImageID, toImageID int64) error {
	edges, err := c.TagsOf(fromImageID)
	if err != nil {
		return err
	}
	for _, e := range edges {
		var value *string
		if e.Value.Valid {
			v := e.Value.String
			value = &v
		}
		if err := c.SetTag(toImageID, e.TagID, value); err != nil {
			return err
		}
	}
	return nil
}
