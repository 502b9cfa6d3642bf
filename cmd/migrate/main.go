package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/xuri/excelize/v2"
)

// Column layout of the queue sheet
var header = []string{"Title", "Body", "Status", "UpdatedAt", "ImageQuery", "Category"}

const statusColumn = 3

// legacyStatus maps spellings found in older queue files. Empty means pending.
var legacyStatus = map[string]string{
	"done":      "DONE",
	"완료":        "DONE",
	"발행완료":      "DONE",
	"published": "PUBLISHED",
	"발행":        "PUBLISHED",
	"게시":        "PUBLISHED",
	"skip":      "SKIP",
	"skipped":   "SKIP",
	"건너뜀":       "SKIP",
	"제외":        "SKIP",
	"미발행":       "",
	"대기":        "",
	"pending":   "",
	"todo":      "",
}

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <normalize-status|add-header|remove-duplicates> <queue.xlsx>")
	}

	command := os.Args[1]
	queuePath := os.Args[2]

	var err error
	switch command {
	case "normalize-status":
		err = migrate(queuePath, normalizeStatus)
	case "add-header":
		err = migrate(queuePath, addHeader)
	case "remove-duplicates":
		reader := bufio.NewReader(os.Stdin)
		err = migrate(queuePath, func(f *excelize.File, sheet string) (int, error) {
			return removeDuplicates(f, sheet, func(title string, row int) bool {
				return confirmDelete(reader, title, row)
			})
		})
	default:
		log.Fatalf("Unknown command %q", command)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// migrate opens the queue, applies fn to the active sheet and writes the file
// back only when fn changed something
func migrate(path string, fn func(f *excelize.File, sheet string) (int, error)) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	changed, err := fn(f, f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		return err
	}
	if changed == 0 {
		log.Printf("✓ %s: nothing to change", path)
		return nil
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encoding workbook: %w", err)
	}
	if err := atomic.WriteFile(path, buf); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Printf("✓ %s: %d change(s) written", path, changed)
	return nil
}

func normalizeStatus(f *excelize.File, sheet string) (int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("reading rows: %w", err)
	}

	changed := 0
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) < statusColumn {
			continue
		}
		current := rows[i][statusColumn-1]
		next, ok := normalized(current)
		if !ok {
			log.Printf("Row %d: unknown status %q, left as is", i+1, current)
			continue
		}
		if next == current {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(statusColumn, i+1)
		if err := f.SetCellValue(sheet, cell, next); err != nil {
			return changed, err
		}
		log.Printf("Row %d: %q -> %q", i+1, current, next)
		changed++
	}
	return changed, nil
}

// normalized returns the canonical spelling for a status cell
func normalized(status string) (string, bool) {
	trimmed := strings.TrimSpace(status)
	if trimmed == "" {
		return "", true
	}
	switch upper := strings.ToUpper(trimmed); upper {
	case "DONE", "PUBLISHED", "SKIP":
		return upper, true
	}
	next, ok := legacyStatus[strings.ToLower(trimmed)]
	return next, ok
}

// addHeader rewrites row 1 to the six-column layout. A first row that holds
// data rather than a header is pushed down first.
func addHeader(f *excelize.File, sheet string) (int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("reading rows: %w", err)
	}

	if len(rows) > 0 && !looksLikeHeader(rows[0]) {
		if err := f.InsertRows(sheet, 1, 1); err != nil {
			return 0, fmt.Errorf("inserting header row: %w", err)
		}
		log.Printf("Row 1 holds data, inserted a header above it")
	} else if len(rows) > 0 && sameHeader(rows[0]) {
		return 0, nil
	}

	values := make([]interface{}, len(header))
	for i, h := range header {
		values[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &values); err != nil {
		return 0, err
	}
	return 1, nil
}

func looksLikeHeader(row []string) bool {
	if len(row) == 0 {
		return true
	}
	first := strings.TrimSpace(row[0])
	return strings.EqualFold(first, "title") || first == "제목"
}

func sameHeader(row []string) bool {
	if len(row) < len(header) {
		return false
	}
	for i, h := range header {
		if row[i] != h {
			return false
		}
	}
	return true
}

// removeDuplicates deletes rows whose title already appeared above them,
// asking confirm for each one
func removeDuplicates(f *excelize.File, sheet string, confirm func(title string, row int) bool) (int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("reading rows: %w", err)
	}

	seen := make(map[string]int)
	var doomed []int
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) == 0 {
			continue
		}
		title := strings.TrimSpace(rows[i][0])
		if title == "" {
			continue
		}
		if first, ok := seen[title]; ok {
			fmt.Printf("\nRow %d duplicates row %d: %s\n", i+1, first, title)
			if confirm(title, i+1) {
				doomed = append(doomed, i+1)
			}
			continue
		}
		seen[title] = i + 1
	}

	// Bottom-up so earlier row numbers stay valid
	for i := len(doomed) - 1; i >= 0; i-- {
		if err := f.RemoveRow(sheet, doomed[i]); err != nil {
			return 0, fmt.Errorf("removing row %d: %w", doomed[i], err)
		}
		fmt.Printf("  REMOVED: row %d\n", doomed[i])
	}
	return len(doomed), nil
}

func confirmDelete(reader *bufio.Reader, title string, row int) bool {
	for {
		fmt.Printf("  DELETE row %d (%s)? [y/N]: ", row, title)
		input, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("Error reading input: %v", err)
			return false
		}
		response := strings.ToLower(strings.TrimSpace(input))
		switch response {
		case "y", "yes":
			return true
		case "", "n", "no":
			return false
		default:
			fmt.Println("  Please enter y or n.")
		}
	}
}
