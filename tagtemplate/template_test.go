package tagtemplate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseAndMatchDirectoryCapture(t *testing.T) {
	tpl, err := Parse("{datetime.year}/{event.birthday}/{person}.*")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	result, ok := tpl.Match("2019/birthday/Alice.jpg")
	if !ok {
		t.Fatal("expected match")
	}
	if result["datetime.year"] != "2019" {
		t.Errorf("expected datetime.year=2019, got %s", result["datetime.year"])
	}
	if result["event.birthday"] != "birthday" {
		t.Errorf("expected event.birthday=birthday, got %s", result["event.birthday"])
	}
	if result["person"] != "Alice" {
		t.Errorf("expected person=Alice, got %s", result["person"])
	}
}

func TestMatchFailsOnComponentCountMismatch(t *testing.T) {
	tpl, _ := Parse("{datetime.year}/{person}.*")
	_, ok := tpl.Match("2019/too/many/components.jpg")
	if ok {
		t.Error("expected match to fail on wrong component count")
	}
}

func TestWildcardSegmentDoesNotBind(t *testing.T) {
	tpl, err := Parse("*/{person}.*")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	result, ok := tpl.Match("unrelated/Bob.jpg")
	if !ok {
		t.Fatal("expected match")
	}
	if len(result) != 1 || result["person"] != "Bob" {
		t.Errorf("expected only person=Bob bound, got %+v", result)
	}
}

func TestExtensionCaptureOnlyValidOnFinalSegment(t *testing.T) {
	_, err := Parse("{name}.*/{other}")
	if err == nil {
		t.Error("expected error for extension capture on non-final segment")
	}
}

func TestMatchFirstNoFusion(t *testing.T) {
	t1, _ := Parse("{a}/{b}.*")
	t2, _ := Parse("{c}.*")
	result, ok := MatchFirst("x/y.jpg", []*Template{t1, t2})
	if !ok {
		t.Fatal("expected first template to match")
	}
	if result["a"] != "x" || result["b"] != "y" {
		t.Errorf("expected a=x b=y, got %+v", result)
	}
}

func TestLoadFileSkipsCommentsAndBlank(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "load_template.txt")
	content := "# a comment\n\n{person}.*\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	templates, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(templates))
	}
}

func TestValidateReportsUnresolvedTagPaths(t *testing.T) {
	tpl, _ := Parse("{unknown.path}.*")
	exists := func(path string) bool { return false }
	warnings := Validate(tpl, exists)
	if len(warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(warnings))
	}
}
