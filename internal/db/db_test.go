package db

import (
	"testing"
)

func TestNew_CreatesTables(t *testing.T) {
	database, err := New("", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer database.Close()

	tables := []string{"settings_snapshots", "_migrations"}
	for _, table := range tables {
		var name string
		err := database.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestNew_MigrationsIdempotent(t *testing.T) {
	database, err := New("", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer database.Close()

	if err := database.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}

	var count int
	err = database.Conn().QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count)
	if err != nil {
		t.Fatalf("count migrations error = %v", err)
	}

	if count != 2 {
		t.Errorf("migration count = %d, want 2", count)
	}
}

func TestNew_InstancesAreIsolated(t *testing.T) {
	db1, err := New("", nil)
	if err != nil {
		t.Fatalf("first New() error = %v", err)
	}
	defer db1.Close()

	db2, err := New("", nil)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	defer db2.Close()

	if db1.Name() == db2.Name() {
		t.Fatalf("Name() collision: %s", db1.Name())
	}

	_, err = db1.Conn().Exec(`
		INSERT INTO settings_snapshots (session_id, volume, left_bound, right_bound, playback_rate, captured_at)
		VALUES ('s1', 0.5, 0, 100, 1, '2026-01-01T00:00:00Z')
	`)
	if err != nil {
		t.Fatalf("insert error = %v", err)
	}

	var count int
	if err := db2.Conn().QueryRow("SELECT COUNT(*) FROM settings_snapshots").Scan(&count); err != nil {
		t.Fatalf("count error = %v", err)
	}
	if count != 0 {
		t.Errorf("second instance count = %d, want 0", count)
	}
}

func TestMemoryDSN(t *testing.T) {
	if got := memoryDSN("abc"); got != "file:abc?mode=memory&cache=shared" {
		t.Fatalf("memoryDSN() = %q", got)
	}
}
