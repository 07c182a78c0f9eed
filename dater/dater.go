// Package dater extracts a best-effort, partially-precise timestamp for
// an image from EXIF, then filename patterns, then path components, in
// that strict priority order (spec §4.3).
package dater

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// PartialDateTime holds any suffix of {year, month, day, hour, minute,
// second}; every field may be nil to reflect that filename and path
// sources rarely supply full precision.
type PartialDateTime struct {
	Year, Month, Day, Hour, Minute, Second *int
}

func full(year, month, day, hour, minute, second int) *PartialDateTime {
	return &PartialDateTime{Year: &year, Month: &month, Day: &day, Hour: &hour, Minute: &minute, Second: &second}
}

func yearOnly(year int) *PartialDateTime {
	return &PartialDateTime{Year: &year}
}

// ExifDateTime is the subset of EXIF fields the Dater consults, already
// decoded by the exifmeta package. Empty strings mean the field was
// absent.
type ExifDateTime struct {
	DateTimeOriginal  string
	DateTimeDigitized string
	DateTimeModified  string
}

// parseExifValue tries the canonical EXIF layout (YYYY:MM:DD HH:MM:SS)
// plus the accepted alternates (-, /) and a fractional-second suffix,
// per §4.3.
func parseExifValue(v string) *PartialDateTime {
	if v == "" {
		return nil
	}
	// Strip a fractional-second suffix like "2020:06:15 10:30:00.500".
	if idx := strings.IndexByte(v, '.'); idx > 0 {
		v = v[:idx]
	}
	if pdt := tryParseFields(v); pdt != nil {
		return pdt
	}
	return nil
}

// tryParseFields splits on any of the accepted separators and extracts
// six integer fields directly, rather than going through time.Parse -
// this is fundamentally six independent integers (§3's partial-
// precision columns), not a single timezone-bearing timestamp.
func tryParseFields(value string) *PartialDateTime {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ':' || r == '-' || r == '/' || r == ' '
	})
	if len(parts) < 6 {
		return nil
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	day, err3 := strconv.Atoi(parts[2])
	hour, err4 := strconv.Atoi(parts[3])
	minute, err5 := strconv.Atoi(parts[4])
	second, err6 := strconv.Atoi(parts[5])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil {
		return nil
	}
	if year < 1000 || month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	return full(year, month, day, hour, minute, second)
}

// filenamePattern pairs a regex (applied with FindStringSubmatch against
// the filename stem) with a function that converts the captured groups
// into a PartialDateTime. Tried in order, first match wins (§4.3).
type filenamePattern struct {
	re      *regexp.Regexp
	extract func(m []string) *PartialDateTime
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

var filenamePatterns = []filenamePattern{
	{
		// YYYY[-_]MM[-_]DD[_ ]HH[-:]MM[-:]SS
		re: regexp.MustCompile(`(\d{4})[-_](\d{2})[-_](\d{2})[_ ](\d{2})[-:](\d{2})[-:](\d{2})`),
		extract: func(m []string) *PartialDateTime {
			return full(atoiOr(m[1], 0), atoiOr(m[2], 0), atoiOr(m[3], 0), atoiOr(m[4], 0), atoiOr(m[5], 0), atoiOr(m[6], 0))
		},
	},
	{
		// YYYYMMDD[_ -]HHMMSS
		re: regexp.MustCompile(`(\d{4})(\d{2})(\d{2})[_ -](\d{2})(\d{2})(\d{2})`),
		extract: func(m []string) *PartialDateTime {
			return full(atoiOr(m[1], 0), atoiOr(m[2], 0), atoiOr(m[3], 0), atoiOr(m[4], 0), atoiOr(m[5], 0), atoiOr(m[6], 0))
		},
	},
	{
		// IMG[_-]YYYYMMDD[_-]HHMMSS
		re: regexp.MustCompile(`(?i)IMG[_-](\d{4})(\d{2})(\d{2})[_-](\d{2})(\d{2})(\d{2})`),
		extract: func(m []string) *PartialDateTime {
			return full(atoiOr(m[1], 0), atoiOr(m[2], 0), atoiOr(m[3], 0), atoiOr(m[4], 0), atoiOr(m[5], 0), atoiOr(m[6], 0))
		},
	},
	{
		// YYYY-MM-DD
		re: regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`),
		extract: func(m []string) *PartialDateTime {
			year, month, day := atoiOr(m[1], 0), atoiOr(m[2], 0), atoiOr(m[3], 0)
			return &PartialDateTime{Year: &year, Month: &month, Day: &day}
		},
	},
	{
		// YYYYMMDD
		re: regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`),
		extract: func(m []string) *PartialDateTime {
			year, month, day := atoiOr(m[1], 0), atoiOr(m[2], 0), atoiOr(m[3], 0)
			return &PartialDateTime{Year: &year, Month: &month, Day: &day}
		},
	},
}

var pathYearRe = regexp.MustCompile(`^(19|20)\d\d$`)

// ParseDateTime implements §4.3's contract: EXIF > filename > directory
// path, returning as soon as the first source yields a hit.
func ParseDateTime(path string, exif *ExifDateTime) *PartialDateTime {
	if exif != nil {
		// First non-empty EXIF field wins, in canonical order
		// Original > Digitized > Modified (see SPEC_FULL.md §13: this
		// corrects the source's occasional DateTime-before-Digitized
		// ordering).
		for _, v := range []string{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTimeModified} {
			if pdt := parseExifValue(v); pdt != nil {
				return pdt
			}
		}
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, p := range filenamePatterns {
		if m := p.re.FindStringSubmatch(stem); m != nil {
			return p.extract(m)
		}
	}

	parts := strings.Split(filepath.ToSlash(filepath.Dir(path)), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if pathYearRe.MatchString(parts[i]) {
			year, err := strconv.Atoi(parts[i])
			if err == nil {
				return yearOnly(year)
			}
		}
	}

	return nil
}

// GPSCoordinate converts an EXIF degrees/minutes/seconds tuple to a
// decimal-degree string, negated for S/W reference letters. Returns an
// error if any component is non-finite or the reference is unrecognized
// (§4.3's "rejected on any malformed component").
func GPSCoordinate(degrees, minutes, seconds float64, ref string) (string, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if ref != "N" && ref != "S" && ref != "E" && ref != "W" {
		return "", fmt.Errorf("dater: unrecognized GPS reference %q", ref)
	}
	for _, c := range []float64{degrees, minutes, seconds} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return "", fmt.Errorf("dater: non-finite GPS component %v", c)
		}
	}
	value := degrees + minutes/60 + seconds/3600
	if ref == "S" || ref == "W" {
		value = -value
	}
	return strconv.FormatFloat(value, 'f', 6, 64), nil
}
