package main

import (
	"strings"
	"testing"
)

func TestQueueReport(t *testing.T) {
	rows := []Row{
		{Index: 2, Title: "완료된 글", Body: "본문", Status: "DONE", UpdatedAt: "2025-03-01 09:00:00"},
		{Index: 3, Title: "대기 글", Body: "본문"},
		{Index: 4, Title: "", Body: "", Category: "생활습관 관리/금연"},
		{Index: 5, Title: "줄바꿈\n있는   제목", Body: "본문", Status: "미발행"},
	}

	out := queueReport(rows)

	if !strings.Contains(out, "4 row(s): 2 pending, 1 terminal, 1 waiting for content") {
		t.Errorf("summary missing from:\n%s", out)
	}
	if !strings.Contains(out, "줄바꿈 있는 제목") {
		t.Errorf("multi-line title should be flattened:\n%s", out)
	}
	for _, header := range []string{"ROW", "TITLE", "STATUS", "STATE"} {
		if !strings.Contains(out, header) {
			t.Errorf("header %q missing", header)
		}
	}
}

func TestQueueReportEmpty(t *testing.T) {
	out := queueReport(nil)
	if !strings.Contains(out, "0 row(s): 0 pending, 0 terminal, 0 waiting for content") {
		t.Errorf("queueReport(nil) = %q", out)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only-a"}}, nil)
	if !strings.Contains(out, "only-a") {
		t.Errorf("renderTable() = %q", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("no headers should render nothing")
	}
}
