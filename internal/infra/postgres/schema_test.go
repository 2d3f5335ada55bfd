package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestMigrationsEmbedded(t *testing.T) {
	ms, err := Migrations()
	if err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if len(ms) == 0 {
		t.Fatal("no embedded migrations")
	}
	for i, m := range ms {
		if m.Version != i+1 {
			t.Errorf("migration %s has version %d, want %d", m.Name, m.Version, i+1)
		}
		if strings.TrimSpace(m.SQL) == "" {
			t.Errorf("migration %s is empty", m.Name)
		}
	}
	if !strings.Contains(ms[0].SQL, "schema_version") {
		t.Error("first migration must create schema_version")
	}
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0010_late.sql":  {Data: []byte("SELECT 10")},
		"m/0002_next.sql":  {Data: []byte("SELECT 2")},
		"m/README.md":      {Data: []byte("docs")},
		"m/0001_first.sql": {Data: []byte("SELECT 1")},
	}

	ms, err := loadMigrations(fsys, "m")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := []int{}
	for _, m := range ms {
		got = append(got, m.Version)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 10 {
		t.Errorf("versions = %v, want [1 2 10]", got)
	}
}

func TestLoadMigrationsRejectsBadNames(t *testing.T) {
	tests := map[string]fstest.MapFS{
		"no version": {"m/init.sql": {Data: []byte("SELECT 1")}},
		"duplicate": {
			"m/0001_a.sql": {Data: []byte("SELECT 1")},
			"m/0001_b.sql": {Data: []byte("SELECT 1")},
		},
	}
	for name, fsys := range tests {
		if _, err := loadMigrations(fsys, "m"); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
