package storage

import "testing"

func TestBuildDatasetKey(t *testing.T) {
	key, err := BuildDatasetKey("CFO_SAP_PYL", "/tmp/seed/CFO_SAP_PYL.db")
	if err != nil {
		t.Fatalf("BuildDatasetKey() error = %v", err)
	}
	want := "datasets/CFO_SAP_PYL/CFO_SAP_PYL.db"
	if key != want {
		t.Fatalf("BuildDatasetKey() = %q, want %q", key, want)
	}
}

func TestBuildDatasetKeyRejectsInvalidTable(t *testing.T) {
	if _, err := BuildDatasetKey("../etc", "x.db"); err == nil {
		t.Fatal("expected invalid table name error")
	}
	if _, err := BuildDatasetKey("PYL", ""); err == nil {
		t.Fatal("expected invalid file name error")
	}
}

func TestContentTypeFor(t *testing.T) {
	if got := ContentTypeFor("a.PARQUET"); got != "application/vnd.apache.parquet" {
		t.Fatalf("ContentTypeFor(parquet) = %q", got)
	}
	if got := ContentTypeFor("a.db"); got != "application/vnd.sqlite3" {
		t.Fatalf("ContentTypeFor(db) = %q", got)
	}
	if got := ContentTypeFor("a.bin"); got != "application/octet-stream" {
		t.Fatalf("ContentTypeFor(bin) = %q", got)
	}
}
