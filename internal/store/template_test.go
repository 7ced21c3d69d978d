// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"testing"

	"github.com/google/uuid"

	"slideforge/internal/models"
)

const testHTML = `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body><h1>{{ page_title }}</h1></body>
</html>`

func makeTemplate(t *testing.T, s *TemplateStore, name string, tags ...string) *models.MasterTemplate {
	t.Helper()
	created, err := s.Create(&models.MasterTemplate{
		Name:        name,
		Description: "integration test template",
		HTMLContent: testHTML,
		StyleConfig: &models.StyleConfig{
			Dimensions:  "1280x720",
			AspectRatio: "16:9",
			Framework:   "HTML + CSS",
		},
		Tags:     tags,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create %q: %v", name, err)
	}
	return created
}

func TestTemplateStoreCRUD(t *testing.T) {
	db := testDB(t)
	s := NewTemplateStore(db)

	names := []string{"it-crud-basic", "it-crud-renamed"}
	t.Cleanup(func() { cleanTemplates(t, db, names...) })
	cleanTemplates(t, db, names...)

	created := makeTemplate(t, s, "it-crud-basic", "test", "dark")
	if created.ID == uuid.Nil {
		t.Fatal("created template has no ID")
	}
	if created.CreatedBy != "system" {
		t.Errorf("created_by default: got %q, want system", created.CreatedBy)
	}

	t.Run("find by id round-trips jsonb columns", func(t *testing.T) {
		found, err := s.FindByID(created.ID)
		if err != nil {
			t.Fatalf("find by id: %v", err)
		}
		if found == nil {
			t.Fatal("template not found")
		}
		if found.StyleConfig == nil || found.StyleConfig.AspectRatio != "16:9" {
			t.Errorf("style config: got %+v", found.StyleConfig)
		}
		if len(found.Tags) != 2 {
			t.Errorf("tags: got %v", found.Tags)
		}
	})

	t.Run("find by name", func(t *testing.T) {
		found, err := s.FindByName("it-crud-basic")
		if err != nil {
			t.Fatalf("find by name: %v", err)
		}
		if found == nil || found.ID != created.ID {
			t.Errorf("got %+v, want the created template", found)
		}
	})

	t.Run("missing rows are nil not error", func(t *testing.T) {
		found, err := s.FindByID(uuid.New())
		if err != nil {
			t.Fatalf("find missing: %v", err)
		}
		if found != nil {
			t.Error("expected nil for unknown id")
		}
	})

	t.Run("update", func(t *testing.T) {
		created.Name = "it-crud-renamed"
		created.Description = "renamed"
		if err := s.Update(created); err != nil {
			t.Fatalf("update: %v", err)
		}
		found, _ := s.FindByID(created.ID)
		if found.Name != "it-crud-renamed" || found.Description != "renamed" {
			t.Errorf("after update: got %q/%q", found.Name, found.Description)
		}
	})

	t.Run("increment usage", func(t *testing.T) {
		ok, err := s.IncrementUsage(created.ID)
		if err != nil || !ok {
			t.Fatalf("increment: got (%v, %v)", ok, err)
		}
		found, _ := s.FindByID(created.ID)
		if found.UsageCount != 1 {
			t.Errorf("usage count: got %d, want 1", found.UsageCount)
		}

		ok, err = s.IncrementUsage(uuid.New())
		if err != nil || ok {
			t.Errorf("unknown id: got (%v, %v), want (false, nil)", ok, err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		deleted, err := s.Delete(created.ID)
		if err != nil || !deleted {
			t.Fatalf("delete: got (%v, %v)", deleted, err)
		}
		deleted, err = s.Delete(created.ID)
		if err != nil || deleted {
			t.Errorf("second delete: got (%v, %v), want (false, nil)", deleted, err)
		}
	})
}

func TestTemplateStoreDefaultFlag(t *testing.T) {
	db := testDB(t)
	s := NewTemplateStore(db)

	names := []string{"it-default-a", "it-default-b"}
	t.Cleanup(func() { cleanTemplates(t, db, names...) })
	cleanTemplates(t, db, names...)

	a := makeTemplate(t, s, "it-default-a")
	b := makeTemplate(t, s, "it-default-b")

	if err := s.SetDefault(a.ID); err != nil {
		t.Fatalf("set default a: %v", err)
	}
	if err := s.SetDefault(b.ID); err != nil {
		t.Fatalf("set default b: %v", err)
	}

	def, err := s.FindDefault()
	if err != nil {
		t.Fatalf("find default: %v", err)
	}
	if def == nil || def.ID != b.ID {
		t.Errorf("default: got %+v, want template b", def)
	}

	aAgain, _ := s.FindByID(a.ID)
	if aAgain.IsDefault {
		t.Error("template a kept the default flag")
	}

	if err := s.SetDefault(uuid.New()); err == nil {
		t.Error("set default on unknown id should fail")
	}
}

func TestTemplateStoreListing(t *testing.T) {
	db := testDB(t)
	s := NewTemplateStore(db)

	names := []string{"it-list-one", "it-list-two", "it-list-inactive"}
	t.Cleanup(func() { cleanTemplates(t, db, names...) })
	cleanTemplates(t, db, names...)

	makeTemplate(t, s, "it-list-one", "it-listing", "dark")
	makeTemplate(t, s, "it-list-two", "it-listing")
	inactive := makeTemplate(t, s, "it-list-inactive", "it-listing")
	inactive.IsActive = false
	if err := s.Update(inactive); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	t.Run("tags filter matches any overlap", func(t *testing.T) {
		found, err := s.FindByTags([]string{"dark", "no-such-tag"}, true)
		if err != nil {
			t.Fatalf("find by tags: %v", err)
		}
		if len(found) != 1 || found[0].Name != "it-list-one" {
			t.Errorf("got %d results, want just it-list-one", len(found))
		}
	})

	t.Run("active only excludes deactivated", func(t *testing.T) {
		found, err := s.FindByTags([]string{"it-listing"}, true)
		if err != nil {
			t.Fatalf("find by tags: %v", err)
		}
		for _, f := range found {
			if f.Name == "it-list-inactive" {
				t.Error("inactive template returned with activeOnly")
			}
		}

		all, err := s.FindByTags([]string{"it-listing"}, false)
		if err != nil {
			t.Fatalf("find by tags all: %v", err)
		}
		if len(all) != len(found)+1 {
			t.Errorf("all: got %d, want %d", len(all), len(found)+1)
		}
	})

	t.Run("search filters name and description", func(t *testing.T) {
		found, total, err := s.ListPaginated(true, 0, 10, "it-list-one")
		if err != nil {
			t.Fatalf("list paginated: %v", err)
		}
		if total != 1 || len(found) != 1 {
			t.Errorf("got %d/%d, want 1/1", len(found), total)
		}
	})

	t.Run("pagination offsets", func(t *testing.T) {
		page1, total, err := s.FindByTagsPaginated([]string{"it-listing"}, true, 0, 1, "")
		if err != nil {
			t.Fatalf("page 1: %v", err)
		}
		if total != 2 || len(page1) != 1 {
			t.Fatalf("page 1: got %d/%d, want 1 of 2", len(page1), total)
		}
		page2, _, err := s.FindByTagsPaginated([]string{"it-listing"}, true, 1, 1, "")
		if err != nil {
			t.Fatalf("page 2: %v", err)
		}
		if len(page2) != 1 || page2[0].ID == page1[0].ID {
			t.Error("page 2 should hold the other template")
		}
	})
}
