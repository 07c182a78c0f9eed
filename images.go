package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Image is one row of the images table (§3).
type Image struct {
	ID       int64
	FilePath string
	FileName string
	FileSize sql.NullInt64
	Width    sql.NullInt64
	Height   sql.NullInt64

	DateTime sql.NullString
	Year     sql.NullInt64
	Month    sql.NullInt64
	Day      sql.NullInt64
	Hour     sql.NullInt64
	Minute   sql.NullInt64
	Second   sql.NullInt64

	Latitude  sql.NullString
	Longitude sql.NullString
	HasLatLon bool
	City      sql.NullString
	Town      sql.NullString
	State     sql.NullString

	PHash0       sql.NullString
	PHash90      sql.NullString
	PHash180     sql.NullString
	PHash270     sql.NullString
	DHash0       sql.NullString
	DHash90      sql.NullString
	DHash180     sql.NullString
	DHash270     sql.NullString
	PHashHMirror sql.NullString
	DHashHMirror sql.NullString

	Favorite      bool
	ToDelete      bool
	Reviewed      bool
	AutoTagErrors bool

	DateAdded    time.Time
	DateModified time.Time
}

// Hashed reports whether every hash slot is populated, per §3's
// invariant that hash fields are either all-null or all-populated.
func (img *Image) Hashed() bool {
	return img.PHash0.Valid && img.PHash90.Valid && img.PHash180.Valid && img.PHash270.Valid &&
		img.DHash0.Valid && img.DHash90.Valid && img.DHash180.Valid && img.DHash270.Valid &&
		img.PHashHMirror.Valid && img.DHashHMirror.Valid
}

// NewImage is the caller-supplied shape for adding an image; all
// metadata fields are optional, matching the Scanner's staged
// enrichment (insert first, hash later).
type NewImage struct {
	FilePath string
	FileName string
	FileSize *int64
	Width    *int64
	Height   *int64

	DateTime *string
	Year     *int64
	Month    *int64
	Day      *int64
	Hour     *int64
	Minute   *int64
	Second   *int64

	Latitude  *string
	Longitude *string
	City      *string
	Town      *string
	State     *string
}

// AddImage inserts a new image row. A duplicate filepath is a silent
// skip per §7's constraint-violation taxonomy: it returns the existing
// row instead of erroring.
func (c *Catalog) AddImage(in *NewImage) (*Image, error) {
	if existing, err := c.GetImageByPath(in.FilePath); err == nil {
		return existing, nil
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	now := time.Now().UTC()
	hasLatLon := in.Latitude != nil && in.Longitude != nil

	res, err := c.db.Exec(
		`INSERT INTO images(
			filepath, filename, file_size, width, height,
			datetime, year, month, day, hour, minute, second,
			latitude, longitude, has_lat_lon, city, town, state,
			favorite, to_delete, reviewed, auto_tag_errors,
			date_added, date_modified
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, 0, ?, ?)`,
		in.FilePath, in.FileName, nullInt(in.FileSize), nullInt(in.Width), nullInt(in.Height),
		nullStr(in.DateTime), nullInt(in.Year), nullInt(in.Month), nullInt(in.Day), nullInt(in.Hour), nullInt(in.Minute), nullInt(in.Second),
		nullStr(in.Latitude), nullStr(in.Longitude), hasLatLon, nullStr(in.City), nullStr(in.Town), nullStr(in.State),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: add image: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return c.GetImageByID(id)
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullStr(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

const imageColumns = `id, filepath, filename, file_size, width, height,
	datetime, year, month, day, hour, minute, second,
	latitude, longitude, has_lat_lon, city, town, state,
	phash_0, phash_90, phash_180, phash_270, dhash_0, dhash_90, dhash_180, dhash_270, phash_hmirror, dhash_hmirror,
	favorite, to_delete, reviewed, auto_tag_errors, date_added, date_modified`

func scanImage(row interface{ Scan(...any) error }) (*Image, error) {
	var img Image
	var hasLatLon, favorite, toDelete, reviewed, autoTagErrors int
	var dateAdded, dateModified string
	err := row.Scan(
		&img.ID, &img.FilePath, &img.FileName, &img.FileSize, &img.Width, &img.Height,
		&img.DateTime, &img.Year, &img.Month, &img.Day, &img.Hour, &img.Minute, &img.Second,
		&img.Latitude, &img.Longitude, &hasLatLon, &img.City, &img.Town, &img.State,
		&img.PHash0, &img.PHash90, &img.PHash180, &img.PHash270,
		&img.DHash0, &img.DHash90, &img.DHash180, &img.DHash270, &img.PHashHMirror, &img.DHashHMirror,
		&favorite, &toDelete, &reviewed, &autoTagErrors, &dateAdded, &dateModified,
	)
	if err != nil {
		return nil, err
	}
	img.HasLatLon = hasLatLon != 0
	img.Favorite = favorite != 0
	img.ToDelete = toDelete != 0
	img.Reviewed = reviewed != 0
	img.AutoTagErrors = autoTagErrors != 0
	img.DateAdded, _ = time.Parse(time.RFC3339, dateAdded)
	img.DateModified, _ = time.Parse(time.RFC3339, dateModified)
	return &img, nil
}

// GetImageByID fetches one image by its primary key.
func (c *Catalog) GetImageByID(id int64) (*Image, error) {
	row := c.db.QueryRow(`SELECT `+imageColumns+` FROM images WHERE id = ?`, id)
	return scanImage(row)
}

// GetImageByPath fetches one image by its unique filepath.
func (c *Catalog) GetImageByPath(path string) (*Image, error) {
	row := c.db.QueryRow(`SELECT `+imageColumns+` FROM images WHERE filepath = ?`, path)
	return scanImage(row)
}

// validOrderColumns allowlists ListImages' order_by argument, mirroring
// original_source/db/manager.py's valid_orders set - never interpolate
// an unchecked caller string into ORDER BY.
var validOrderColumns = map[string]bool{
	"filepath": true, "filename": true, "file_size": true,
	"datetime": true, "date_added": true, "date_modified": true, "id": true,
}

// ListImages returns every image ordered by the given column (defaults
// to filepath, the canonical viewer order per §4.1).
func (c *Catalog) ListImages(orderBy string) ([]*Image, error) {
	if orderBy == "" || !validOrderColumns[orderBy] {
		orderBy = "filepath"
	}
	rows, err := c.db.Query(`SELECT ` + imageColumns + ` FROM images ORDER BY ` + orderBy)
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

// ListUnhashed returns images with no hash slots populated, the
// Hasher's work queue (§4.6).
func (c *Catalog) ListUnhashed() ([]*Image, error) {
	rows, err := c.db.Query(`SELECT ` + imageColumns + ` FROM images WHERE phash_0 IS NULL ORDER BY id`)
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

// ListHashed returns every image with a fully populated hash set, the
// Duplicate Engine's snapshot input (§4.7).
func (c *Catalog) ListHashed() ([]*Image, error) {
	rows, err := c.db.Query(`SELECT ` + imageColumns + ` FROM images WHERE phash_0 IS NOT NULL ORDER BY id`)
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

// ImageUpdate carries the mutable subset of Image fields an update can
// change; nil pointer fields are left untouched.
type ImageUpdate struct {
	Width, Height                                      *int64
	DateTime                                            *string
	Year, Month, Day, Hour, Minute, Second              *int64
	Latitude, Longitude                                 *string
	City, Town, State                                   *string
	Favorite, ToDelete, Reviewed, AutoTagErrors          *bool
	PHash0, PHash90, PHash180, PHash270                  *string
	DHash0, DHash90, DHash180, DHash270                  *string
	PHashHMirror, DHashHMirror                           *string
}

// UpdateImage applies a partial update and refreshes date_modified, per
// §4.1's update_image contract.
func (c *Catalog) UpdateImage(id int64, u *ImageUpdate) error {
	var sets []string
	var args []any

	add := func(col string, val any) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}
	if u.Width != nil {
		add("width", *u.Width)
	}
	if u.Height != nil {
		add("height", *u.Height)
	}
	if u.DateTime != nil {
		add("datetime", *u.DateTime)
	}
	if u.Year != nil {
		add("year", *u.Year)
	}
	if u.Month != nil {
		add("month", *u.Month)
	}
	if u.Day != nil {
		add("day", *u.Day)
	}
	if u.Hour != nil {
		add("hour", *u.Hour)
	}
	if u.Minute != nil {
		add("minute", *u.Minute)
	}
	if u.Second != nil {
		add("second", *u.Second)
	}
	if u.Latitude != nil {
		add("latitude", *u.Latitude)
	}
	if u.Longitude != nil {
		add("longitude", *u.Longitude)
	}
	if u.Latitude != nil || u.Longitude != nil {
		add("has_lat_lon", u.Latitude != nil && u.Longitude != nil)
	}
	if u.City != nil {
		add("city", *u.City)
	}
	if u.Town != nil {
		add("town", *u.Town)
	}
	if u.State != nil {
		add("state", *u.State)
	}
	if u.Favorite != nil {
		add("favorite", *u.Favorite)
	}
	if u.ToDelete != nil {
		add("to_delete", *u.ToDelete)
	}
	if u.Reviewed != nil {
		add("reviewed", *u.Reviewed)
	}
	if u.AutoTagErrors != nil {
		add("auto_tag_errors", *u.AutoTagErrors)
	}
	if u.PHash0 != nil {
		add("phash_0", *u.PHash0)
	}
	if u.PHash90 != nil {
		add("phash_90", *u.PHash90)
	}
	if u.PHash180 != nil {
		add("phash_180", *u.PHash180)
	}
	if u.PHash270 != nil {
		add("phash_270", *u.PHash270)
	}
	if u.DHash0 != nil {
		add("dhash_0", *u.DHash0)
	}
	if u.DHash90 != nil {
		add("dhash_90", *u.DHash90)
	}
	if u.DHash180 != nil {
		add("dhash_180", *u.DHash180)
	}
	if u.DHash270 != nil {
		add("dhash_270", *u.DHash270)
	}
	if u.PHashHMirror != nil {
		add("phash_hmirror", *u.PHashHMirror)
	}
	if u.DHashHMirror != nil {
		add("dhash_hmirror", *u.DHashHMirror)
	}

	if len(sets) == 0 {
		return nil
	}
	add("date_modified", time.Now().UTC().Format(time.RFC3339))
	args = append(args, id)

	_, err := c.db.Exec(`UPDATE images SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("catalog: update image %d: %w", id, err)
	}
	return nil
}

// DeleteImage removes an image row. Foreign keys cascade its
// image_tags and duplicate_group_members rows; the caller is
// responsible for invoking PruneThinGroups afterward to collapse any
// duplicate group left with <=1 effective member (§3, §8 property 11).
func (c *Catalog) DeleteImage(id int64) error {
	_, err := c.db.Exec(`DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete image %d: %w", id, err)
	}
	return nil
}

// ImageCount returns the total number of images in the catalog.
func (c *Catalog) ImageCount() (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM images`).Scan(&n)
	return n, err
}
