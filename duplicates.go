package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// DuplicateGroup is a set of images the Duplicate Engine has declared
// possibly-duplicate (§3).
type DuplicateGroup struct {
	ID          int64
	CreatedDate time.Time
	Members     []*GroupMember
}

// GroupMember is one image's membership in a DuplicateGroup.
type GroupMember struct {
	ID             int64
	GroupID        int64
	ImageID        int64
	IsKept         bool
	IsNotDuplicate bool
}

// CreateGroup inserts one duplicate_groups row plus one member row per
// image id, in insertion order.
func (c *Catalog) CreateGroup(imageIDs []int64) (*DuplicateGroup, error) {
	var group *DuplicateGroup
	err := c.runInTx(func(tx *sql.Tx) error {
		now := time.Now().UTC()
		res, err := tx.Exec(`INSERT INTO duplicate_groups(created_date) VALUES (?)`, now.Format(time.RFC3339))
		if err != nil {
			return err
		}
		groupID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		group = &DuplicateGroup{ID: groupID, CreatedDate: now}
		for _, imgID := range imageIDs {
			mres, err := tx.Exec(
				`INSERT INTO duplicate_group_members(group_id, image_id, is_kept, is_not_duplicate) VALUES (?, ?, 0, 0)`,
				groupID, imgID,
			)
			if err != nil {
				return err
			}
			memberID, err := mres.LastInsertId()
			if err != nil {
				return err
			}
			group.Members = append(group.Members, &GroupMember{ID: memberID, GroupID: groupID, ImageID: imgID})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: create group: %w", err)
	}
	return group, nil
}

// ListGroups returns every duplicate group with its members, groups
// ordered by id and members within a group ordered by id (§4.1).
func (c *Catalog) ListGroups() ([]*DuplicateGroup, error) {
	rows, err := c.db.Query(`SELECT id, created_date FROM duplicate_groups ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*DuplicateGroup
	byID := map[int64]*DuplicateGroup{}
	for rows.Next() {
		var g DuplicateGroup
		var created string
		if err := rows.Scan(&g.ID, &created); err != nil {
			return nil, err
		}
		g.CreatedDate, _ = time.Parse(time.RFC3339, created)
		groups = append(groups, &g)
		byID[g.ID] = &g
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	mrows, err := c.db.Query(`SELECT id, group_id, image_id, is_kept, is_not_duplicate FROM duplicate_group_members ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer mrows.Close()
	for mrows.Next() {
		var m GroupMember
		var isKept, isNotDup int
		if err := mrows.Scan(&m.ID, &m.GroupID, &m.ImageID, &isKept, &isNotDup); err != nil {
			return nil, err
		}
		m.IsKept = isKept != 0
		m.IsNotDuplicate = isNotDup != 0
		if g, ok := byID[m.GroupID]; ok {
			g.Members = append(g.Members, &m)
		}
	}
	return groups, mrows.Err()
}

// UpdateMember patches is_kept and/or is_not_duplicate on a single
// group member row; nil fields are left untouched. Enforces the
// invariant that at most one member per group has is_kept = true by
// clearing any sibling's flag first.
func (c *Catalog) UpdateMember(memberID int64, isKept, isNotDuplicate *bool) error {
	return c.runInTx(func(tx *sql.Tx) error {
		if isKept != nil && *isKept {
			var groupID int64
			if err := tx.QueryRow(`SELECT group_id FROM duplicate_group_members WHERE id = ?`, memberID).Scan(&groupID); err != nil {
				return err
			}
			if _, err := tx.Exec(`UPDATE duplicate_group_members SET is_kept = 0 WHERE group_id = ?`, groupID); err != nil {
				return err
			}
		}
		if isKept != nil {
			if _, err := tx.Exec(`UPDATE duplicate_group_members SET is_kept = ? WHERE id = ?`, *isKept, memberID); err != nil {
				return err
			}
		}
		if isNotDuplicate != nil {
			if _, err := tx.Exec(`UPDATE duplicate_group_members SET is_not_duplicate = ? WHERE id = ?`, *isNotDuplicate, memberID); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteGroup removes a duplicate group and (by cascade) its members.
func (c *Catalog) DeleteGroup(groupID int64) error {
	_, err := c.db.Exec(`DELETE FROM duplicate_groups WHERE id = ?`, groupID)
	return err
}

// DeleteAllGroups clears every duplicate group, used before a
// re-detect pass (§4.7's "pre-existing groups are deleted first").
func (c *Catalog) DeleteAllGroups() error {
	_, err := c.db.Exec(`DELETE FROM duplicate_groups`)
	return err
}

// PruneThinGroups deletes any duplicate group left with <= 1 member not
// flagged is_not_duplicate, per §3's group-lifecycle invariant. Call
// after DeleteImage, since SQLite's ON DELETE CASCADE removes the
// membership row but cannot express this group-level business rule.
func (c *Catalog) PruneThinGroups() error {
	rows, err := c.db.Query(`
		SELECT g.id,
		       (SELECT COUNT(*) FROM duplicate_group_members m WHERE m.group_id = g.id AND m.is_not_duplicate = 0)
		FROM duplicate_groups g`)
	if err != nil {
		return err
	}
	var thin []int64
	for rows.Next() {
		var id int64
		var effective int
		if err := rows.Scan(&id, &effective); err != nil {
			rows.Close()
			return err
		}
		if effective <= 1 {
			thin = append(thin, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, id := range thin {
		if err := c.DeleteGroup(id); err != nil {
			return err
		}
	}
	return nil
}
