package catalog

import "testing"

func TestEnsurePathCreatesAncestors(t *testing.T) {
	cat := createTestCatalog(t)
	defer cat.Close()

	leaf, err := cat.EnsurePath("event.birthday.Alice", "string")
	if err != nil {
		t.Fatalf("ensure_path failed: %v", err)
	}
	if leaf.Name != "Alice" {
		t.Errorf("expected leaf name Alice, got %s", leaf.Name)
	}

	path, err := cat.PathOf(leaf.ID)
	if err != nil {
		t.Fatalf("path_of failed: %v", err)
	}
	if path != "event.birthday.Alice" {
		t.Errorf("expected event.birthday.Alice, got %s", path)
	}
}

// TestTagPathRoundTrip is testable property 1: resolve_path(path_of(t.id)) == t.
func TestTagPathRoundTrip(t *testing.T) {
	cat := createTestCatalog(t)
	defer cat.Close()

	created, err := cat.EnsurePath("event.birthday.Alice", "string")
	if err != nil {
		t.Fatalf("ensure_path failed: %v", err)
	}

	path, err := cat.PathOf(created.ID)
	if err != nil {
		t.Fatalf("path_of failed: %v", err)
	}
	resolved, err := cat.ResolvePath(path)
	if err != nil {
		t.Fatalf("resolve_path failed: %v", err)
	}
	if resolved.ID != created.ID {
		t.Errorf("round trip mismatch: created id %d, resolved id %d", created.ID, resolved.ID)
	}
}

// TestEnsurePathIdempotence is testable property 2.
func TestEnsurePathIdempotence(t *testing.T) {
	cat := createTestCatalog(t)
	defer cat.Close()

	first, err := cat.EnsurePath("person.Bob", "string")
	if err != nil {
		t.Fatalf("ensure_path failed: %v", err)
	}
	before, err := cat.ListTagDefs()
	if err != nil {
		t.Fatalf("list tag defs failed: %v", err)
	}

	second, err := cat.EnsurePath("person.Bob", "string")
	if err != nil {
		t.Fatalf("ensure_path failed: %v", err)
	}
	after, err := cat.ListTagDefs()
	if err != nil {
		t.Fatalf("list tag defs failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected same id, got %d and %d", first.ID, second.ID)
	}
	if len(before) != len(after) {
		t.Errorf("expected tag count unchanged, got %d then %d", len(before), len(after))
	}
}

// TestLeafToCategoryPromotion is testable property 3.
func TestLeafToCategoryPromotion(t *testing.T) {
	cat := createTestCatalog(t)
	defer cat.Close()

	leaf, err := cat.EnsurePath("person.Alice", "string")
	if err != nil {
		t.Fatalf("ensure_path failed: %v", err)
	}
	if leaf.IsCategory {
		t.Fatal("expected person.Alice to start as a leaf")
	}

	child, err := cat.EnsurePath("person.Alice.portrait", "string")
	if err != nil {
		t.Fatalf("ensure_path failed: %v", err)
	}

	promoted, err := cat.GetTagDef(leaf.ID)
	if err != nil {
		t.Fatalf("get tag def failed: %v", err)
	}
	if !promoted.IsCategory {
		t.Error("expected person.Alice to be promoted to a category")
	}
	if child.IsCategory {
		t.Error("expected person.Alice.portrait to remain a leaf")
	}
}

func TestSiblingNameCollisionTieBreak(t *testing.T) {
	cat := createTestCatalog(t)
	defer cat.Close()

	first, err := cat.AddTagDef("Alice", nil, "string", false)
	if err != nil {
		t.Fatalf("add tag def failed: %v", err)
	}
	second, err := cat.AddTagDef("Alice", nil, "string", false)
	if err != nil {
		t.Fatalf("add tag def failed: %v", err)
	}

	resolved, err := cat.GetTagDefByName("Alice", nil)
	if err != nil {
		t.Fatalf("get tag def by name failed: %v", err)
	}
	if resolved.ID != second.ID {
		t.Errorf("expected most recently inserted id %d, got %d", second.ID, resolved.ID)
	}
	_ = first
}

func TestGetTree(t *testing.T) {
	cat := createTestCatalog(t)
	defer cat.Close()

	tree, err := cat.GetTree()
	if err != nil {
		t.Fatalf("get tree failed: %v", err)
	}
	found := false
	for _, node := range tree {
		if node.Name == "datetime" {
			found = true
			if len(node.Children) != 6 {
				t.Errorf("expected 6 datetime children, got %d", len(node.Children))
			}
		}
	}
	if !found {
		t.Error("expected datetime root in tree")
	}
}
