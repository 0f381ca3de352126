package db

import (
	"testing"
	"testing/fstest"

	"github.com/gever/intake/migrations"
)

func TestLoad_OrdersByVersion(t *testing.T) {
	src := fstest.MapFS{
		"010_tables.sql": {Data: []byte("SELECT 10;")},
		"002_second.sql": {Data: []byte("SELECT 2;")},
		"001_first.sql":  {Data: []byte("SELECT 1;")},
	}

	got, err := NewMigrator(nil, src).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(got))
	}
	want := []int{1, 2, 10}
	for i, v := range want {
		if got[i].Version != v {
			t.Errorf("position %d: expected version %d, got %d", i, v, got[i].Version)
		}
	}
	if got[0].Name != "001_first.sql" || got[0].SQL != "SELECT 1;" {
		t.Errorf("unexpected first migration %+v", got[0])
	}
}

func TestLoad_SkipsNonMigrations(t *testing.T) {
	src := fstest.MapFS{
		"001_core.sql":     {Data: []byte("SELECT 1;")},
		"README.md":        {Data: []byte("docs")},
		"notes.sql":        {Data: []byte("SELECT 0;")},
		"abc_bad.sql":      {Data: []byte("SELECT 0;")},
		"sub/002_deep.sql": {Data: []byte("SELECT 2;")},
	}

	got, err := NewMigrator(nil, src).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) != 1 || got[0].Version != 1 {
		t.Errorf("expected only 001_core.sql, got %+v", got)
	}
}

func TestLoad_DuplicateVersion(t *testing.T) {
	src := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 1;")},
	}
	if _, err := NewMigrator(nil, src).Load(); err == nil {
		t.Fatal("expected error for duplicate version")
	}
}

func TestLoad_EmbeddedMigrations(t *testing.T) {
	got, err := NewMigrator(nil, migrations.FS).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got) == 0 || got[0].Name != "001_blob_entries.sql" {
		t.Fatalf("expected embedded blob_entries migration first, got %+v", got)
	}
}
