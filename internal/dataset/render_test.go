package dataset

import (
	"strings"
	"testing"
)

func TestRenderIncludesIndexHeaderAndNulls(t *testing.T) {
	out := Render(Result{
		Columns: []string{"DICCIONARIO_COUNTRY", "IMPORTE"},
		Rows: [][]any{
			{"ARGENTINA", 1500.5},
			{"CHILE", nil},
		},
	})

	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("Render() lines = %d, want 3:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "DICCIONARIO_COUNTRY") || !strings.Contains(lines[0], "IMPORTE") {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[1]), "0") || !strings.HasSuffix(lines[1], "1500.5") {
		t.Fatalf("row 0 = %q", lines[1])
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[2]), "1") || !strings.HasSuffix(lines[2], "None") {
		t.Fatalf("row 1 = %q", lines[2])
	}
	if len(lines[0]) != len(lines[1]) || len(lines[1]) != len(lines[2]) {
		t.Fatalf("columns are not aligned:\n%s", out)
	}
}

func TestRenderFormatsNumbersWithoutExponent(t *testing.T) {
	out := Render(Result{Columns: []string{"IMPORTE"}, Rows: [][]any{{float64(123456789.25)}, {int64(7)}}})
	if !strings.Contains(out, "123456789.25") {
		t.Fatalf("Render() = %q", out)
	}
	if !strings.HasSuffix(out, "7") {
		t.Fatalf("Render() = %q", out)
	}
}
