package catalog

// schemaSQL is executed once, in order, inside the transaction that
// creates a fresh catalog. Statement order matters: foreign keys
// reference tables created earlier in the list.
var schemaSQL = []string{
	`CREATE TABLE catalog_meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	`CREATE TABLE images (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		filepath        TEXT NOT NULL UNIQUE,
		filename        TEXT NOT NULL,
		file_size       INTEGER,
		width           INTEGER,
		height          INTEGER,
		datetime        TEXT,
		year            INTEGER,
		month           INTEGER,
		day             INTEGER,
		hour            INTEGER,
		minute          INTEGER,
		second          INTEGER,
		latitude        TEXT,
		longitude       TEXT,
		has_lat_lon     INTEGER NOT NULL DEFAULT 0,
		city            TEXT,
		town            TEXT,
		state           TEXT,
		phash_0         TEXT,
		phash_90        TEXT,
		phash_180       TEXT,
		phash_270       TEXT,
		dhash_0         TEXT,
		dhash_90        TEXT,
		dhash_180       TEXT,
		dhash_270       TEXT,
		phash_hmirror   TEXT,
		dhash_hmirror   TEXT,
		favorite        INTEGER NOT NULL DEFAULT 0,
		to_delete       INTEGER NOT NULL DEFAULT 0,
		reviewed        INTEGER NOT NULL DEFAULT 0,
		auto_tag_errors INTEGER NOT NULL DEFAULT 0,
		date_added      TEXT NOT NULL,
		date_modified   TEXT NOT NULL
	)`,
	`CREATE INDEX idx_images_filepath ON images(filepath)`,
	`CREATE INDEX idx_images_year ON images(year)`,

	// Deliberately no UNIQUE(parent_id, name): spec.md §4.2 requires the
	// store to tolerate sibling-name collisions from upstream corruption
	// and resolve them with a logged tie-break, not reject them.
	`CREATE TABLE tag_definitions (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		parent_id   INTEGER REFERENCES tag_definitions(id),
		data_type   TEXT NOT NULL,
		is_category INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX idx_tagdef_parent_name ON tag_definitions(parent_id, name)`,

	`CREATE TABLE image_tags (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		image_id INTEGER NOT NULL REFERENCES images(id) ON DELETE CASCADE,
		tag_id   INTEGER NOT NULL REFERENCES tag_definitions(id),
		value    TEXT
	)`,
	`CREATE INDEX idx_imagetags_image ON image_tags(image_id)`,
	`CREATE INDEX idx_imagetags_tag ON image_tags(tag_id)`,

	`CREATE TABLE duplicate_groups (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		created_date TEXT NOT NULL
	)`,

	`CREATE TABLE duplicate_group_members (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		group_id         INTEGER NOT NULL REFERENCES duplicate_groups(id) ON DELETE CASCADE,
		image_id         INTEGER NOT NULL REFERENCES images(id) ON DELETE CASCADE,
		is_kept          INTEGER NOT NULL DEFAULT 0,
		is_not_duplicate INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX idx_groupmembers_group ON duplicate_group_members(group_id)`,
	`CREATE INDEX idx_groupmembers_image ON duplicate_group_members(image_id)`,
}

// defaultTagNode describes one entry of the seeded tag forest: a name,
// its parent's name within this same seed list (empty for a root), its
// leaf data type, and whether it is a category. Grounded on
// original_source/db/manager.py's DEFAULT_TAG_TREE shape and spec.md
// §3's explicit root enumeration.
type defaultTagNode struct {
	name       string
	parent     string
	dataType   string
	isCategory bool
}

var defaultTagTree = []defaultTagNode{
	{"favorite", "", "bool", false},
	{"to_delete", "", "bool", false},
	{"reviewed", "", "bool", false},
	{"auto_tag_errors", "", "bool", false},

	{"datetime", "", "string", true},
	{"year", "datetime", "int", false},
	{"month", "datetime", "int", false},
	{"day", "datetime", "int", false},
	{"hour", "datetime", "int", false},
	{"minute", "datetime", "int", false},
	{"second", "datetime", "int", false},

	{"location", "", "string", true},
	{"city", "location", "string", false},
	{"town", "location", "string", false},
	{"state", "location", "string", false},
	{"latitude", "location", "string", false},
	{"longitude", "location", "string", false},
	{"has_lat_lon", "location", "bool", false},

	{"image_size", "", "string", true},
	{"width", "image_size", "int", false},
	{"height", "image_size", "int", false},

	{"person", "", "string", true},
	{"event", "", "string", true},
	{"scene", "", "string", true},

	// Camera metadata auto-tag category, see SPEC_FULL.md §12.
	{"camera", "", "string", true},
	{"make", "camera", "string", false},
	{"model", "camera", "string", false},
	{"iso", "camera", "int", false},
	{"focal_length", "camera", "string", false},
}
