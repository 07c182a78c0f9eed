package catalog

import "testing"

func TestCreateAndListGroups(t *testing.T) {
	cat := createTestCatalog(t)
	defer cat.Close()

	img1, _ := cat.AddImage(&NewImage{FilePath: "a.jpg", FileName: "a.jpg"})
	img2, _ := cat.AddImage(&NewImage{FilePath: "b.jpg", FileName: "b.jpg"})

	group, err := cat.CreateGroup([]int64{img1.ID, img2.ID})
	if err != nil {
		t.Fatalf("create group failed: %v", err)
	}
	if len(group.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(group.Members))
	}

	groups, err := cat.ListGroups()
	if err != nil {
		t.Fatalf("list groups failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Members) != 2 {
		t.Errorf("expected 2 members in listed group, got %d", len(groups[0].Members))
	}
}

func TestUpdateMemberEnforcesSingleKept(t *testing.T) {
	cat := createTestCatalog(t)
	defer cat.Close()

	img1, _ := cat.AddImage(&NewImage{FilePath: "a.jpg", FileName: "a.jpg"})
	img2, _ := cat.AddImage(&NewImage{FilePath: "b.jpg", FileName: "b.jpg"})
	group, _ := cat.CreateGroup([]int64{img1.ID, img2.ID})

	isKept := true
	if err := cat.UpdateMember(group.Members[0].ID, &isKept, nil); err != nil {
		t.Fatalf("update member failed: %v", err)
	}
	if err := cat.UpdateMember(group.Members[1].ID, &isKept, nil); err != nil {
		t.Fatalf("update member failed: %v", err)
	}

	groups, _ := cat.ListGroups()
	keptCount := 0
	for _, m := range groups[0].Members {
		if m.IsKept {
			keptCount++
		}
	}
	if keptCount != 1 {
		t.Errorf("expected exactly 1 kept member, got %d", keptCount)
	}
}

// TestDeleteCascade is testable property 11: deleting an image removes
// its edges and group memberships; a group left with <=1 effective
// member is deleted.
func TestDeleteCascade(t *testing.T) {
	cat := createTestCatalog(t)
	defer cat.Close()

	img1, _ := cat.AddImage(&NewImage{FilePath: "a.jpg", FileName: "a.jpg"})
	img2, _ := cat.AddImage(&NewImage{FilePath: "b.jpg", FileName: "b.jpg"})
	tag, _ := cat.EnsurePath("person.Alice", "string")
	cat.SetTag(img1.ID, tag.ID, nil)
	cat.CreateGroup([]int64{img1.ID, img2.ID})

	if err := cat.DeleteImage(img1.ID); err != nil {
		t.Fatalf("delete image failed: %v", err)
	}
	if err := cat.PruneThinGroups(); err != nil {
		t.Fatalf("prune thin groups failed: %v", err)
	}

	edges, _ := cat.TagsOf(img1.ID)
	if len(edges) != 0 {
		t.Errorf("expected 0 edges after delete, got %d", len(edges))
	}

	groups, err := cat.ListGroups()
	if err != nil {
		t.Fatalf("list groups failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected group to be pruned, got %d groups", len(groups))
	}
}

func TestDeleteGroup(t *testing.T) {
	cat := createTestCatalog(t)
	defer cat.Close()

	img1, _ := cat.AddImage(&NewImage{FilePath: "a.jpg", FileName: "a.jpg"})
	img2, _ := cat.AddImage(&NewImage{FilePath: "b.jpg", FileName: "b.jpg"})
	group, _ := cat.CreateGroup([]int64{img1.ID, img2.ID})

	if err := cat.DeleteGroup(group.ID); err != nil {
		t.Fatalf("delete group failed: %v", err)
	}

	groups, err := cat.ListGroups()
	if err != nil {
		t.Fatalf("list groups failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected 0 groups, got %d", len(groups))
	}
}
