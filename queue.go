package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
	"github.com/xuri/excelize/v2"
)

const queueSheetName = "posts"

// queueHeader is the column layout; positions are fixed, header text is cosmetic
var queueHeader = []string{"Title", "Body", "Status", "UpdatedAt", "ImageQuery", "Category"}

const (
	colTitle = iota + 1
	colBody
	colStatus
	colUpdatedAt
	colImageQuery
	colCategory
)

// sampleRows seeds a fresh queue file: title, body, image query, category
var sampleRows = [][4]string{
	{"[만성질환 관리/당뇨 관리] 혈당 관리 생활 습관", "아침 식사 후 혈당을 안정시키는 방법을 소개합니다.", "당뇨 식단", "만성질환 관리/당뇨 관리"},
	{"[생활습관 관리/운동 습관] 매일 걷기의 효과", "매일 30분 걷기만으로도 얻을 수 있는 건강상의 이점.", "운동", "생활습관 관리/운동 습관"},
	{"[마음과 몸 관리/불면증] 밤에 쉽게 잠드는 방법", "수면 위생을 지키는 생활 습관 가이드.", "수면", "마음과 몸 관리/불면증"},
	{"[생활습관 관리/식습관] 아침 식사의 중요성", "아침 식사가 대사와 집중력에 미치는 영향.", "건강 식단", "생활습관 관리/식습관"},
	{"[만성질환 관리/고혈압 관리] 소금 줄이는 팁", "짠맛을 줄이면서도 맛있게 먹는 방법.", "저염식", "만성질환 관리/고혈압 관리"},
}

// Store is the spreadsheet work queue. Every call re-reads the file; nothing
// is cached between calls.
type Store struct {
	path string
	lock *flock.Flock
}

// NewStore creates a store for the given .xlsx path
func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the queue file location
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the queue file is present
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// NextPending returns the first row, in sheet order, that is not terminal and
// has both title and body. Returns nil, nil when there is nothing to do.
func (s *Store) NextPending() (*Row, error) {
	rows, err := s.Rows()
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Pending() {
			return &rows[i], nil
		}
	}
	return nil, nil
}

// Rows returns every data row below the header
func (s *Store) Rows() ([]Row, error) {
	f, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cells, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}

	rows := make([]Row, 0, len(cells))
	for i := 1; i < len(cells); i++ {
		rows = append(rows, rowFromCells(i+1, cells[i]))
	}
	return rows, nil
}

// MarkDone sets the row's status to DONE with a timestamp and rewrites the
// whole file. No other row is touched.
func (s *Store) MarkDone(row *Row, now time.Time) error {
	if row == nil || row.Index < 2 {
		return fmt.Errorf("invalid queue row reference")
	}
	stamp := formatTimestamp(now)

	err := s.mutate(func(f *excelize.File, sheet string) error {
		if err := f.SetCellValue(sheet, cellName(colStatus, row.Index), StatusDone); err != nil {
			return err
		}
		return f.SetCellValue(sheet, cellName(colUpdatedAt, row.Index), stamp)
	})
	if err != nil {
		return fmt.Errorf("marking row %d done: %w", row.Index, err)
	}

	row.Status = StatusDone
	row.UpdatedAt = stamp
	return nil
}

// UpdateContent overwrites title, body, image query and category of one row
func (s *Store) UpdateContent(index int, title, body, imageQuery, category string, now time.Time) error {
	if index < 2 {
		return fmt.Errorf("invalid queue row index %d", index)
	}
	return s.mutate(func(f *excelize.File, sheet string) error {
		values := map[int]string{
			colTitle:      title,
			colBody:       body,
			colUpdatedAt:  formatTimestamp(now),
			colImageQuery: imageQuery,
			colCategory:   category,
		}
		for col, v := range values {
			if err := f.SetCellValue(sheet, cellName(col, index), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Append adds rows after the last used row
func (s *Store) Append(rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	return s.mutate(func(f *excelize.File, sheet string) error {
		existing, err := f.GetRows(sheet)
		if err != nil {
			return err
		}
		next := len(existing) + 1
		for i, r := range rows {
			values := []interface{}{r.Title, r.Body, r.Status, r.UpdatedAt, r.ImageQuery, r.Category}
			if err := f.SetSheetRow(sheet, cellName(colTitle, next+i), &values); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureExists creates the queue with sample rows when the file is absent.
// Reports whether a file was created.
func (s *Store) EnsureExists(samples int) (bool, error) {
	if s.Exists() {
		return false, nil
	}
	return s.WriteSample(samples, false)
}

// WriteSample writes a fresh queue file with n sample rows. An existing file
// is kept unless force is set.
func (s *Store) WriteSample(n int, force bool) (bool, error) {
	if s.Exists() && !force {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return false, fmt.Errorf("creating queue directory: %w", err)
	}

	err := s.withLock(func() error {
		f := excelize.NewFile()
		defer f.Close()

		if err := f.SetSheetName(f.GetSheetName(0), queueSheetName); err != nil {
			return err
		}
		header := make([]interface{}, len(queueHeader))
		for i, h := range queueHeader {
			header[i] = h
		}
		if err := f.SetSheetRow(queueSheetName, "A1", &header); err != nil {
			return err
		}

		stamp := formatTimestamp(time.Now())
		for i := 0; i < n; i++ {
			sample := sampleRows[i%len(sampleRows)]
			values := []interface{}{sample[0], sample[1], "", stamp, sample[2], sample[3]}
			if err := f.SetSheetRow(queueSheetName, cellName(colTitle, i+2), &values); err != nil {
				return err
			}
		}
		return s.save(f)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) open() (*excelize.File, error) {
	if !s.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrQueueMissing, s.path)
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening queue %s: %w", s.path, err)
	}
	return f, nil
}

// mutate runs a read-modify-write cycle under the queue lock
func (s *Store) mutate(fn func(f *excelize.File, sheet string) error) error {
	return s.withLock(func() error {
		f, err := s.open()
		if err != nil {
			return err
		}
		defer f.Close()

		if err := fn(f, f.GetSheetName(f.GetActiveSheetIndex())); err != nil {
			return err
		}
		return s.save(f)
	})
}

// save rewrites the whole file; there is no partial update
func (s *Store) save(f *excelize.File) error {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encoding workbook: %w", err)
	}
	if err := atomic.WriteFile(s.path, buf); err != nil {
		return fmt.Errorf("writing queue %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) withLock(fn func() error) error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring queue lock: %w", err)
	}
	if !ok {
		return ErrQueueLocked
	}
	defer s.lock.Unlock()
	return fn()
}

func rowFromCells(index int, cells []string) Row {
	get := func(col int) string {
		if col-1 < len(cells) {
			return cells[col-1]
		}
		return ""
	}
	return Row{
		Index:      index,
		Title:      get(colTitle),
		Body:       get(colBody),
		Status:     get(colStatus),
		UpdatedAt:  get(colUpdatedAt),
		ImageQuery: get(colImageQuery),
		Category:   get(colCategory),
	}
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		// only reachable with non-positive coordinates
		panic(err)
	}
	return name
}
