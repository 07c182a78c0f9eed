// Package exifmeta extracts structural metadata (dimensions, EXIF
// datetime fields, GPS tuples, camera settings) from an image file,
// for consumption by the dater and scanner packages.
package exifmeta

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// GPSTuple is a raw degrees/minutes/seconds EXIF GPS component plus its
// reference letter, handed to dater.GPSCoordinate for conversion -
// exifmeta does not compute decimal degrees itself (§4.3 assigns that
// math to the Dater).
type GPSTuple struct {
	Degrees, Minutes, Seconds float64
	Ref                       string
}

// Data is everything the Scanner/Dater need out of one file.
type Data struct {
	Width, Height int

	DateTimeOriginal  string
	DateTimeDigitized string
	DateTimeModified  string

	GPSLatitude  *GPSTuple
	GPSLongitude *GPSTuple

	// OrientationTag is the raw EXIF Orientation value (1-8), read here
	// but not applied to pixel data - the Hasher (§4.6) is the sole
	// consumer that rotates/flips based on it.
	OrientationTag int

	CameraMake         string
	CameraModel        string
	ISOSpeedRatings    int
	FocalLength        string
	ExposureTime       string
	FNumber            string
	Flash              string
	WhiteBalance       string
}

// Extract opens path, decodes EXIF if present, and falls back to
// image.DecodeConfig for dimensions when EXIF lacks PixelXDimension.
// Only a failure to open the file is returned as an error. EXIF and
// image decode failures are not returned: Extract still returns a Data
// (with zero dimensions when nothing decodes), so the Scanner records a
// skeleton row - see §7's decode-error taxonomy.
func Extract(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("exifmeta: open %s: %w", path, err)
	}
	defer f.Close()

	d := &Data{}

	x, exifErr := exif.Decode(f)
	if exifErr == nil {
		d.DateTimeOriginal = stringTag(x, exif.DateTimeOriginal)
		d.DateTimeDigitized = stringTag(x, exif.DateTimeDigitized)
		d.DateTimeModified = stringTag(x, exif.DateTime)

		d.Width = intTag(x, exif.PixelXDimension)
		d.Height = intTag(x, exif.PixelYDimension)

		d.OrientationTag = intTag(x, exif.Orientation)

		d.GPSLatitude = gpsTuple(x, exif.GPSLatitude, exif.GPSLatitudeRef)
		d.GPSLongitude = gpsTuple(x, exif.GPSLongitude, exif.GPSLongitudeRef)

		d.CameraMake = stringTag(x, exif.Make)
		d.CameraModel = stringTag(x, exif.Model)
		d.ISOSpeedRatings = intTag(x, exif.ISOSpeedRatings)
		d.FocalLength = ratioTag(x, exif.FocalLength)
		d.ExposureTime = ratioTag(x, exif.ExposureTime)
		d.FNumber = ratioTag(x, exif.FNumber)
		d.Flash = stringTag(x, exif.Flash)
		d.WhiteBalance = stringTag(x, exif.WhiteBalance)
	}

	if d.Width == 0 || d.Height == 0 {
		if _, err := f.Seek(0, 0); err == nil {
			if cfg, _, err := image.DecodeConfig(f); err == nil {
				d.Width, d.Height = cfg.Width, cfg.Height
			}
		}
	}

	return d, nil
}

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	v, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return v
}

func intTag(x *exif.Exif, name exif.FieldName) int {
	tag, err := x.Get(name)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return v
}

func ratioTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	num, denom, err := tag.Rat2(0)
	if err != nil || denom == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", num, denom)
}

func gpsTuple(x *exif.Exif, coordName, refName exif.FieldName) *GPSTuple {
	tag, err := x.Get(coordName)
	if err != nil {
		return nil
	}
	degNum, degDen, err := tag.Rat2(0)
	if err != nil || degDen == 0 {
		return nil
	}
	minNum, minDen, err := tag.Rat2(1)
	if err != nil || minDen == 0 {
		return nil
	}
	secNum, secDen, err := tag.Rat2(2)
	if err != nil || secDen == 0 {
		return nil
	}

	refTag, err := x.Get(refName)
	ref := "N"
	if err == nil {
		if v, err := refTag.StringVal(); err == nil {
			ref = v
		}
	}

	return &GPSTuple{
		Degrees: float64(degNum) / float64(degDen),
		Minutes: float64(minNum) / float64(minDen),
		Seconds: float64(secNum) / float64(secDen),
		Ref:     ref,
	}
}
