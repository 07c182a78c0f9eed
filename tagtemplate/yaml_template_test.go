package tagtemplate

import (
	"os"
	"path/filepath"
	"testing"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "template.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

func TestYAMLTemplateBackReference(t *testing.T) {
	path := writeYAML(t, `
version: 1
pattern: "{scene}/{person}.*"
tags:
  event.scene: "{scene}"
  person: "{person}"
`)
	yt, err := LoadYAMLFile(path)
	if err != nil {
		t.Fatalf("load yaml failed: %v", err)
	}

	result, ok := yt.Match("beach/Alice.jpg")
	if !ok {
		t.Fatal("expected match")
	}
	if result["event.scene"] != "beach" {
		t.Errorf("expected event.scene=beach, got %s", result["event.scene"])
	}
	if result["person"] != "Alice" {
		t.Errorf("expected person=Alice, got %s", result["person"])
	}
}

func TestYAMLTemplateCaseInsensitive(t *testing.T) {
	path := writeYAML(t, `
version: 1
pattern: "{scene}/{person}.*"
options:
  case_insensitive: true
tags:
  event.scene: "{scene}"
`)
	yt, err := LoadYAMLFile(path)
	if err != nil {
		t.Fatalf("load yaml failed: %v", err)
	}

	_, ok := yt.Match("BEACH/Alice.jpg")
	if !ok {
		t.Fatal("expected case-insensitive match")
	}
}

func TestYAMLTemplateUnresolvedBackReferenceSkipped(t *testing.T) {
	path := writeYAML(t, `
version: 1
pattern: "{scene}.*"
tags:
  event.scene: "{scene}"
  person: "{missing}"
`)
	yt, err := LoadYAMLFile(path)
	if err != nil {
		t.Fatalf("load yaml failed: %v", err)
	}

	result, ok := yt.Match("beach.jpg")
	if !ok {
		t.Fatal("expected match")
	}
	if _, present := result["person"]; present {
		t.Error("expected unresolved back-reference to be skipped")
	}
	if result["event.scene"] != "beach" {
		t.Errorf("expected event.scene=beach, got %s", result["event.scene"])
	}
}
