package migrations

import (
	"strings"
	"testing"
)

func TestJournalMigrationCreatesTableAndIndexes(t *testing.T) {
	body, err := embeddedFS.ReadFile("sql/000001_query_journal.up.sql")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	sql := string(body)
	for _, snippet := range []string{
		"CREATE TABLE query_journal",
		"entry_id UUID PRIMARY KEY",
		"generated_sql TEXT",
		"CONSTRAINT query_journal_outcome_check",
		"CREATE INDEX idx_query_journal_created_at_desc",
		"CREATE INDEX idx_query_journal_session_created_at",
	} {
		if !strings.Contains(sql, snippet) {
			t.Fatalf("migration missing required snippet: %s", snippet)
		}
	}
}

func TestEmbeddedMigrationsLoad(t *testing.T) {
	items, err := loadMigrations(embeddedFS)
	if err != nil {
		t.Fatalf("loadMigrations() error = %v", err)
	}
	if len(items) == 0 || items[0].Version != 1 {
		t.Fatalf("embedded migrations = %+v", items)
	}
	if !strings.Contains(items[0].DownSQL, "DROP TABLE IF EXISTS query_journal") {
		t.Fatalf("down SQL = %q", items[0].DownSQL)
	}
}
