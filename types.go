package main

import (
	"strings"
	"time"
)

// Row is one unit of content in the work queue spreadsheet
type Row struct {
	Index      int    // 1-based sheet row number (header is row 1)
	Title      string
	Body       string
	Status     string
	UpdatedAt  string
	ImageQuery string
	Category   string
}

const (
	StatusDone      = "DONE"
	StatusPublished = "PUBLISHED"
	StatusSkip      = "SKIP"

	// statusUnpublished is what the content generator writes for new rows
	statusUnpublished = "미발행"

	defaultImageQuery = "건강"
	timestampLayout   = "2006-01-02 15:04:05"
)

// IsTerminalStatus reports whether a status value means the row must not be reprocessed
func IsTerminalStatus(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case StatusDone, StatusPublished, StatusSkip:
		return true
	}
	return false
}

// Pending reports whether the row is eligible for publishing
func (r Row) Pending() bool {
	return !IsTerminalStatus(r.Status) &&
		strings.TrimSpace(r.Title) != "" &&
		strings.TrimSpace(r.Body) != ""
}

// NeedsContent reports whether the generator should fill this row
func (r Row) NeedsContent() bool {
	if IsTerminalStatus(r.Status) {
		return false
	}
	return strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Body) == ""
}

// Query returns the image keyword, falling back to the default term
func (r Row) Query() string {
	if q := strings.TrimSpace(r.ImageQuery); q != "" {
		return q
	}
	return defaultImageQuery
}

// Categories splits "cat1/cat2" into its parts
func (r Row) Categories() (string, string, bool) {
	parts := strings.SplitN(r.Category, "/", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	cat1, cat2 := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if cat1 == "" || cat2 == "" {
		return "", "", false
	}
	return cat1, cat2, true
}

func formatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// ProcessingStatus represents the outcome status of one run
type ProcessingStatus string

const (
	StatusSuccess ProcessingStatus = "success"
	StatusSkipped ProcessingStatus = "skipped"
	StatusError   ProcessingStatus = "error"
)

// ProcessingResult tracks the outcome of processing one queue row
type ProcessingResult struct {
	Row     *Row
	Status  ProcessingStatus
	PostURL string
	Images  ImageTier
	Error   error
}
