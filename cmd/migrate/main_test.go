package main

import (
	"bufio"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func newSheet(t *testing.T, rows [][]interface{}) (*excelize.File, string) {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	return f, sheet
}

func headerRow() []interface{} {
	values := make([]interface{}, len(header))
	for i, h := range header {
		values[i] = h
	}
	return values
}

func TestNormalized(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "", true},
		{"done", "DONE", true},
		{" Done ", "DONE", true},
		{"완료", "DONE", true},
		{"게시", "PUBLISHED", true},
		{"skipped", "SKIP", true},
		{"미발행", "", true},
		{"TODO", "", true},
		{"PUBLISHED", "PUBLISHED", true},
		{"보류", "", false},
	}
	for _, tt := range tests {
		got, ok := normalized(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("normalized(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeStatus(t *testing.T) {
	f, sheet := newSheet(t, [][]interface{}{
		headerRow(),
		{"a", "body", "완료"},
		{"b", "body", "DONE"},
		{"c", "body", "보류"},
		{"d", "body", "대기"},
	})

	changed, err := normalizeStatus(f, sheet)
	if err != nil {
		t.Fatalf("normalizeStatus() error = %v", err)
	}
	if changed != 2 {
		t.Errorf("normalizeStatus() = %d, want 2", changed)
	}

	want := map[string]string{"C2": "DONE", "C3": "DONE", "C4": "보류", "C5": ""}
	for cell, v := range want {
		got, _ := f.GetCellValue(sheet, cell)
		if got != v {
			t.Errorf("%s = %q, want %q", cell, got, v)
		}
	}
}

func TestAddHeader(t *testing.T) {
	t.Run("data in first row", func(t *testing.T) {
		f, sheet := newSheet(t, [][]interface{}{{"첫 글", "본문"}})

		changed, err := addHeader(f, sheet)
		if err != nil || changed != 1 {
			t.Fatalf("addHeader() = %d, %v", changed, err)
		}
		if v, _ := f.GetCellValue(sheet, "A1"); v != "Title" {
			t.Errorf("A1 = %q", v)
		}
		if v, _ := f.GetCellValue(sheet, "A2"); v != "첫 글" {
			t.Errorf("A2 = %q, data row should move down", v)
		}
	})

	t.Run("korean header is replaced in place", func(t *testing.T) {
		f, sheet := newSheet(t, [][]interface{}{{"제목", "본문"}, {"첫 글", "본문"}})

		if changed, err := addHeader(f, sheet); err != nil || changed != 1 {
			t.Fatalf("addHeader() = %d, %v", changed, err)
		}
		if v, _ := f.GetCellValue(sheet, "F1"); v != "Category" {
			t.Errorf("F1 = %q", v)
		}
		if v, _ := f.GetCellValue(sheet, "A2"); v != "첫 글" {
			t.Errorf("A2 = %q", v)
		}
	})

	t.Run("current header is left alone", func(t *testing.T) {
		f, sheet := newSheet(t, [][]interface{}{headerRow()})

		if changed, err := addHeader(f, sheet); err != nil || changed != 0 {
			t.Errorf("addHeader() = %d, %v; want no change", changed, err)
		}
	})
}

func TestRemoveDuplicates(t *testing.T) {
	f, sheet := newSheet(t, [][]interface{}{
		headerRow(),
		{"같은 제목"},
		{"다른 제목"},
		{"같은 제목 "},
		{"다른 제목"},
		{"같은 제목"},
	})

	var asked []int
	removed, err := removeDuplicates(f, sheet, func(title string, row int) bool {
		asked = append(asked, row)
		return row != 5
	})
	if err != nil {
		t.Fatalf("removeDuplicates() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("removeDuplicates() = %d, want 2", removed)
	}
	if len(asked) != 3 {
		t.Errorf("asked about rows %v, want 3 duplicates", asked)
	}

	rows, _ := f.GetRows(sheet)
	var titles []string
	for _, r := range rows[1:] {
		titles = append(titles, r[0])
	}
	if got := strings.Join(titles, "|"); got != "같은 제목|다른 제목|다른 제목" {
		t.Errorf("remaining titles = %s", got)
	}
}

func TestConfirmDelete(t *testing.T) {
	tests := map[string]bool{
		"y\n":        true,
		"YES\n":      true,
		"\n":         false,
		"n\n":        false,
		"maybe\ny\n": true,
		"":           false,
	}
	for input, want := range tests {
		reader := bufio.NewReader(strings.NewReader(input))
		if got := confirmDelete(reader, "제목", 3); got != want {
			t.Errorf("confirmDelete(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestMigrateWritesOnlyOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.xlsx")
	f, _ := newSheet(t, [][]interface{}{headerRow(), {"a", "body", "완료"}})
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	if err := migrate(path, normalizeStatus); err != nil {
		t.Fatalf("migrate() error = %v", err)
	}

	out, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	if v, _ := out.GetCellValue(out.GetSheetName(0), "C2"); v != "DONE" {
		t.Errorf("C2 = %q after migrate", v)
	}

	calls := 0
	err = migrate(path, func(*excelize.File, string) (int, error) { calls++; return 0, nil })
	if err != nil || calls != 1 {
		t.Errorf("no-op migrate() = %v, calls %d", err, calls)
	}
}
