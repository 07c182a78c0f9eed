package tagtemplate

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// OnMismatch enumerates §4.5's on_mismatch options for the YAML
// template variant.
type OnMismatch string

const (
	OnMismatchSkipFile         OnMismatch = "skip_file"
	OnMismatchTagAutoTagErrors OnMismatch = "tag_auto_tag_errors"
)

// YAMLOptions are the configurable knobs of a YAML template document.
type YAMLOptions struct {
	CaseInsensitive  bool       `yaml:"case_insensitive"`
	RequireFullMatch bool       `yaml:"require_full_match"`
	OnMismatch       OnMismatch `yaml:"on_mismatch"`
}

// YAMLTemplate is a declarative path template with back-reference tag
// interpolation, the configurable variant described in §4.5.
type YAMLTemplate struct {
	Version int               `yaml:"version"`
	Pattern string            `yaml:"pattern"`
	Options YAMLOptions       `yaml:"options"`
	Tags    map[string]string `yaml:"tags"`

	compiled *Template
}

// LoadYAMLFile parses a single YAML template document.
func LoadYAMLFile(path string) (*YAMLTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tagtemplate: load yaml %s: %w", path, err)
	}
	var yt YAMLTemplate
	if err := yaml.Unmarshal(data, &yt); err != nil {
		return nil, fmt.Errorf("tagtemplate: parse yaml %s: %w", path, err)
	}
	if yt.Options.OnMismatch == "" {
		yt.Options.OnMismatch = OnMismatchSkipFile
	}
	pattern := yt.Pattern
	if yt.Options.CaseInsensitive {
		pattern = strings.ToLower(pattern)
	}
	compiled, err := Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("tagtemplate: compile pattern %q: %w", yt.Pattern, err)
	}
	yt.compiled = compiled
	return &yt, nil
}

var backrefRe = regexp.MustCompile(`\{([^}]+)\}`)

// Match runs the compiled pattern against relpath, then interpolates
// each entry of Tags (a tag path -> back-reference string such as
// "{scene}") against the captures the pattern produced. An unresolved
// back-reference skips that tag assignment, never the whole match, per
// §4.5.
func (yt *YAMLTemplate) Match(relpath string) (map[string]string, bool) {
	candidate := relpath
	if yt.Options.CaseInsensitive {
		candidate = strings.ToLower(relpath)
	}

	captures, ok := yt.compiled.Match(candidate)
	if !ok {
		return nil, false
	}
	if yt.Options.RequireFullMatch && len(captures) == 0 {
		return nil, false
	}

	result := map[string]string{}
	for tagPath, ref := range yt.Tags {
		value, resolved := interpolate(ref, captures)
		if resolved {
			result[tagPath] = value
		}
	}
	return result, true
}

// interpolate replaces every "{name}" back-reference in ref with the
// capture of that name; literal text around the references is kept. If
// any reference names a capture the pattern did not produce, it returns
// false and the tag assignment is skipped. A string with no
// back-reference is returned unchanged.
func interpolate(ref string, captures map[string]string) (string, bool) {
	resolved := true
	out := backrefRe.ReplaceAllStringFunc(ref, func(m string) string {
		value, ok := captures[m[1:len(m)-1]]
		if !ok {
			resolved = false
		}
		return value
	})
	if !resolved {
		return "", false
	}
	return out, true
}
