// Package scanner walks a directory tree, extracts per-image metadata
// via dater/exifmeta, applies tag templates, and populates the catalog
// (spec §4.4). Grounded on original_source/scanner/scanner.py.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	catalog "github.com/photocat/photocat"
	"github.com/photocat/photocat/dater"
	"github.com/photocat/photocat/exifmeta"
	"github.com/photocat/photocat/geoloc"
	"github.com/photocat/photocat/tagtemplate"
	"github.com/sirupsen/logrus"
)

// DefaultTemplateFileName is the filename the Scanner looks for beside
// a scanned directory when no templates are supplied explicitly,
// mirroring original_source/scanner/scanner.py's load_template.txt
// convention.
const DefaultTemplateFileName = "load_template.txt"

// DefaultMaxFileSizeMB is the default per-file size ceiling.
const DefaultMaxFileSizeMB = 500

// DefaultSupportedExtensions are the lowercased extensions (without
// the dot) the scanner considers images.
func DefaultSupportedExtensions() map[string]bool {
	return map[string]bool{
		"jpg": true, "jpeg": true, "png": true, "gif": true,
		"bmp": true, "tiff": true, "tif": true, "webp": true, "ico": true,
	}
}

// DefaultIgnorePatterns are filenames skipped outright regardless of
// extension.
func DefaultIgnorePatterns() []string {
	return []string{"Thumbs.db", ".DS_Store"}
}

// ProgressFunc is invoked after each file with (current, total, path).
type ProgressFunc func(current, total int, path string)

// Options configures one Scan call beyond its required arguments.
type Options struct {
	// Templates, if non-nil, are tried in order via tagtemplate.MatchFirst.
	// If nil, the scanner looks for DefaultTemplateFileName beside
	// directory and loads it if present; absent either way means no
	// tagging is attempted.
	Templates []*tagtemplate.Template
	// Recursive defaults to true.
	Recursive *bool
	// IgnoreHidden skips dot-prefixed files and directories. Defaults
	// to true.
	IgnoreHidden *bool
	// IgnorePatterns overrides DefaultIgnorePatterns when non-nil.
	IgnorePatterns []string
	// SupportedExtensions overrides DefaultSupportedExtensions when non-nil.
	SupportedExtensions map[string]bool
	// MaxFileSizeMB overrides DefaultMaxFileSizeMB when > 0.
	MaxFileSizeMB int64
	// Geocoder, if set, resolves city/state from GPS coordinates.
	Geocoder *geoloc.Resolver
	// Log receives structured warnings. Defaults to logrus.StandardLogger().
	Log logrus.FieldLogger
	// OnProgress, if set, is invoked after every file is processed.
	OnProgress ProgressFunc
}

func (o *Options) recursive() bool {
	return o == nil || o.Recursive == nil || *o.Recursive
}

func (o *Options) ignoreHidden() bool {
	return o == nil || o.IgnoreHidden == nil || *o.IgnoreHidden
}

func (o *Options) ignorePatterns() []string {
	if o == nil || o.IgnorePatterns == nil {
		return DefaultIgnorePatterns()
	}
	return o.IgnorePatterns
}

func (o *Options) extensions() map[string]bool {
	if o == nil || o.SupportedExtensions == nil {
		return DefaultSupportedExtensions()
	}
	return o.SupportedExtensions
}

func (o *Options) maxFileSizeBytes() int64 {
	mb := int64(DefaultMaxFileSizeMB)
	if o != nil && o.MaxFileSizeMB > 0 {
		mb = o.MaxFileSizeMB
	}
	return mb * 1024 * 1024
}

func (o *Options) logger() logrus.FieldLogger {
	if o == nil || o.Log == nil {
		return logrus.StandardLogger()
	}
	return o.Log
}

// Result is the outcome of one Scan call (spec §4.4).
type Result struct {
	SessionID  string
	TotalFound int
	Added      int
	Skipped    int
	Errors     int
	ErrorPaths []string
}

// Scanner drives one catalog's ingestion pipeline.
type Scanner struct {
	store *catalog.Catalog
}

// New builds a Scanner bound to store.
func New(store *catalog.Catalog) *Scanner {
	return &Scanner{store: store}
}

// Scan walks directory and ingests every supported image file found,
// per §4.4's six-step algorithm.
func (s *Scanner) Scan(directory string, opts *Options) (*Result, error) {
	info, err := os.Stat(directory)
	if err != nil {
		return nil, fmt.Errorf("scanner: stat %s: %w", directory, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scanner: not a directory: %s", directory)
	}

	log := opts.logger()

	templates := opts.Templates
	if templates == nil {
		candidate := filepath.Join(directory, DefaultTemplateFileName)
		if _, err := os.Stat(candidate); err == nil {
			templates, err = tagtemplate.LoadFile(candidate)
			if err != nil {
				return nil, fmt.Errorf("scanner: loading %s: %w", candidate, err)
			}
		}
	}

	files, err := s.findImageFiles(directory, opts)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	result := &Result{SessionID: catalog.NewCorrelationID(), TotalFound: len(files)}

	for i, path := range files {
		relPath, err := filepath.Rel(s.store.Root(), path)
		if err != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		if existing, err := s.store.GetImageByPath(relPath); err == nil && existing != nil {
			result.Skipped++
		} else if _, err := s.processFile(path, relPath, templates, opts); err != nil {
			log.WithFields(logrus.Fields{"path": path, "error": err}).Warn("failed to process image, skipping")
			result.Errors++
			result.ErrorPaths = append(result.ErrorPaths, path)
		} else {
			result.Added++
		}

		if opts != nil && opts.OnProgress != nil {
			opts.OnProgress(i+1, len(files), path)
		}
	}

	return result, nil
}

func (s *Scanner) findImageFiles(directory string, opts *Options) ([]string, error) {
	var files []string
	extensions := opts.extensions()
	ignorePatterns := opts.ignorePatterns()
	ignoreHidden := opts.ignoreHidden()
	maxSize := opts.maxFileSizeBytes()

	visit := func(dir string, recurse bool) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("scanner: reading %s: %w", dir, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() {
				if ignoreHidden && strings.HasPrefix(name, ".") {
					continue
				}
				if recurse {
					if err := visit(filepath.Join(dir, name), true); err != nil {
						return err
					}
				}
				continue
			}
			if ignoreHidden && strings.HasPrefix(name, ".") {
				continue
			}
			if matchesIgnorePattern(name, ignorePatterns) {
				continue
			}
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
			if !extensions[ext] {
				continue
			}
			path := filepath.Join(dir, name)
			if maxSize > 0 {
				info, err := entry.Info()
				if err != nil || info.Size() > maxSize {
					continue
				}
			}
			files = append(files, path)
		}
		return nil
	}

	if err := visit(directory, opts.recursive()); err != nil {
		return nil, err
	}
	return files, nil
}

func matchesIgnorePattern(name string, patterns []string) bool {
	for _, p := range patterns {
		if name == p {
			return true
		}
	}
	return false
}

// processFile extracts metadata, inserts the image row, and applies
// template-driven and camera-metadata tags.
func (s *Scanner) processFile(path, relPath string, templates []*tagtemplate.Template, opts *Options) (*catalog.Image, error) {
	data, err := exifmeta.Extract(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	in := &catalog.NewImage{
		FilePath: relPath,
		FileName: filepath.Base(path),
	}
	size := info.Size()
	in.FileSize = &size
	if data.Width > 0 {
		w := int64(data.Width)
		in.Width = &w
	}
	if data.Height > 0 {
		h := int64(data.Height)
		in.Height = &h
	}

	pdt := dater.ParseDateTime(path, &dater.ExifDateTime{
		DateTimeOriginal:  data.DateTimeOriginal,
		DateTimeDigitized: data.DateTimeDigitized,
		DateTimeModified:  data.DateTimeModified,
	})
	applyPartialDateTime(in, pdt)

	var log = opts.logger()
	if data.GPSLatitude != nil && data.GPSLongitude != nil {
		lat, errLat := dater.GPSCoordinate(data.GPSLatitude.Degrees, data.GPSLatitude.Minutes, data.GPSLatitude.Seconds, data.GPSLatitude.Ref)
		lng, errLng := dater.GPSCoordinate(data.GPSLongitude.Degrees, data.GPSLongitude.Minutes, data.GPSLongitude.Seconds, data.GPSLongitude.Ref)
		if errLat == nil && errLng == nil {
			in.Latitude = &lat
			in.Longitude = &lng
			if opts != nil && opts.Geocoder != nil {
				if loc, err := opts.Geocoder.Reverse(lat, lng); err == nil && loc != nil {
					in.City = &loc.City
					in.State = &loc.Province
				}
			}
		}
	}

	img, err := s.store.AddImage(in)
	if err != nil {
		return nil, fmt.Errorf("scanner: adding image %s: %w", relPath, err)
	}

	matched := false
	if len(templates) > 0 {
		if assignments, ok := tagtemplate.MatchFirst(relPath, templates); ok {
			matched = true
			for tagPath, value := range assignments {
				if err := s.applyTag(img.ID, tagPath, value); err != nil {
					log.WithFields(logrus.Fields{"path": relPath, "tag_path": tagPath, "error": err}).Warn("failed to apply template tag")
				}
			}
		}
		if !matched {
			autoTagErrors := true
			if err := s.store.UpdateImage(img.ID, &catalog.ImageUpdate{AutoTagErrors: &autoTagErrors}); err != nil {
				log.WithFields(logrus.Fields{"path": relPath, "error": err}).Warn("failed to flag auto_tag_errors")
			}
		}
	}

	s.applyCameraTags(img.ID, data, log)

	return img, nil
}

func toInt64(p *int) *int64 {
	if p == nil {
		return nil
	}
	v := int64(*p)
	return &v
}

func applyPartialDateTime(in *catalog.NewImage, pdt *dater.PartialDateTime) {
	if pdt == nil {
		return
	}
	in.Year = toInt64(pdt.Year)
	in.Month = toInt64(pdt.Month)
	in.Day = toInt64(pdt.Day)
	in.Hour = toInt64(pdt.Hour)
	in.Minute = toInt64(pdt.Minute)
	in.Second = toInt64(pdt.Second)

	var b strings.Builder
	if pdt.Year != nil {
		fmt.Fprintf(&b, "%04d", *pdt.Year)
		if pdt.Month != nil {
			fmt.Fprintf(&b, "-%02d", *pdt.Month)
			if pdt.Day != nil {
				fmt.Fprintf(&b, "-%02d", *pdt.Day)
				if pdt.Hour != nil && pdt.Minute != nil && pdt.Second != nil {
					fmt.Fprintf(&b, " %02d:%02d:%02d", *pdt.Hour, *pdt.Minute, *pdt.Second)
				}
			}
		}
	}
	if b.Len() > 0 {
		s := b.String()
		in.DateTime = &s
	}
}

// applyTag resolves tagPath (creating ancestor categories lazily) and
// writes the template-captured value, per §4.4 step 5.
func (s *Scanner) applyTag(imageID int64, tagPath, value string) error {
	tagDef, err := s.store.EnsurePath(tagPath, "string")
	if err != nil {
		return err
	}
	return s.store.SetTag(imageID, tagDef.ID, &value)
}

// applyCameraTags harvests the SPEC_FULL.md §12 camera.* auto-tags.
// Additive only: never overrides a tag already set by a template at
// the same path.
func (s *Scanner) applyCameraTags(imageID int64, data *exifmeta.Data, log logrus.FieldLogger) {
	assign := func(path, value string) {
		if value == "" {
			return
		}
		if err := s.applyTag(imageID, path, value); err != nil {
			log.WithFields(logrus.Fields{"tag_path": path, "error": err}).Warn("failed to apply camera auto-tag")
		}
	}
	assign("camera.make", data.CameraMake)
	assign("camera.model", data.CameraModel)
	if data.ISOSpeedRatings > 0 {
		assign("camera.iso", strconv.Itoa(data.ISOSpeedRatings))
	}
	assign("camera.focal_length", data.FocalLength)
}
