// Package tagtemplate compiles a declarative path-pattern template
// (spec §4.5) into a matcher that extracts tag assignments from a
// relative image filepath, plus a YAML variant with back-reference
// interpolation.
package tagtemplate

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

type segmentKind int

const (
	kindCapture segmentKind = iota
	kindCaptureExt
	kindWildcard
)

type segment struct {
	kind    segmentKind
	tagPath string
}

// Template is a compiled `/`-separated path pattern.
type Template struct {
	Raw         string
	dirSegments []segment
	fileSegment segment
}

// Parse compiles a raw template string into a Template. Grounded on
// original_source/scanner/tag_template.py:parse_template.
func Parse(raw string) (*Template, error) {
	parts := strings.Split(raw, "/")
	if len(parts) == 0 {
		return nil, fmt.Errorf("tagtemplate: empty template")
	}

	t := &Template{Raw: raw}
	for i, part := range parts {
		isFinal := i == len(parts)-1
		seg, err := parseSegment(part, isFinal)
		if err != nil {
			return nil, fmt.Errorf("tagtemplate: segment %q: %w", part, err)
		}
		if isFinal {
			t.fileSegment = seg
		} else {
			t.dirSegments = append(t.dirSegments, seg)
		}
	}
	return t, nil
}

func parseSegment(part string, isFinal bool) (segment, error) {
	switch {
	case part == "*" || part == ".*":
		return segment{kind: kindWildcard}, nil
	case strings.HasPrefix(part, "{") && strings.Contains(part, "}"):
		end := strings.IndexByte(part, '}')
		name := part[1:end]
		rest := part[end+1:]
		if rest == ".*" {
			if !isFinal {
				return segment{}, fmt.Errorf("extension capture %q only valid on the final segment", part)
			}
			return segment{kind: kindCaptureExt, tagPath: name}, nil
		}
		if rest != "" {
			return segment{}, fmt.Errorf("unexpected trailer %q after capture", rest)
		}
		return segment{kind: kindCapture, tagPath: name}, nil
	default:
		// A literal segment behaves as an unbound wildcard match,
		// matching the original's tolerant parser.
		return segment{kind: kindWildcard}, nil
	}
}

// Match applies the template to relpath, per §4.5's five-step
// algorithm. Returns the tag-path -> value map, or (nil, false) if the
// template does not apply.
func (t *Template) Match(relpath string) (map[string]string, bool) {
	normalized := strings.ReplaceAll(relpath, "\\", "/")
	normalized = strings.TrimPrefix(normalized, "./")
	components := strings.Split(normalized, "/")
	if len(components) == 0 {
		return nil, false
	}

	if len(components)-1 != len(t.dirSegments) {
		return nil, false
	}

	result := map[string]string{}
	for i, seg := range t.dirSegments {
		if seg.kind == kindCapture {
			result[seg.tagPath] = components[i]
		}
	}

	filename := components[len(components)-1]
	switch t.fileSegment.kind {
	case kindCaptureExt:
		stem := filename
		if idx := strings.LastIndexByte(filename, '.'); idx > 0 {
			stem = filename[:idx]
		}
		result[t.fileSegment.tagPath] = stem
	case kindCapture:
		result[t.fileSegment.tagPath] = filename
	}

	return result, true
}

// MatchFirst returns the result of the first template in templates
// whose Match succeeds; no template fusion (§4.5).
func MatchFirst(relpath string, templates []*Template) (map[string]string, bool) {
	for _, t := range templates {
		if result, ok := t.Match(relpath); ok {
			return result, true
		}
	}
	return nil, false
}

// LoadFile reads a plain-text template file: one template per
// non-empty, non-`#`-comment line. This is the canonical interchange
// format per spec §6.
func LoadFile(path string) ([]*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tagtemplate: load %s: %w", path, err)
	}
	defer f.Close()

	var templates []*Template
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		t, err := Parse(line)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, scanner.Err()
}

// Validate checks every captured tag path in t against exists, a
// caller-supplied resolver (typically catalog.Catalog.ResolvePath),
// returning a warning string per path that does not currently resolve.
// Ported from original_source/scanner/tag_template.py:validate_template
// - see SPEC_FULL.md §12.
func Validate(t *Template, exists func(tagPath string) bool) []string {
	var warnings []string
	check := func(seg segment) {
		if seg.kind == kindCapture || seg.kind == kindCaptureExt {
			if !exists(seg.tagPath) {
				warnings = append(warnings, fmt.Sprintf("tag path %q does not currently resolve", seg.tagPath))
			}
		}
	}
	for _, seg := range t.dirSegments {
		check(seg)
	}
	check(t.fileSegment)
	return warnings
}
