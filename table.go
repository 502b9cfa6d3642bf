package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    48,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// queueReport renders the queue rows followed by a pending/terminal summary
func queueReport(rows []Row) string {
	var (
		body              [][]string
		pending, terminal int
	)
	for _, r := range rows {
		state := "waiting"
		switch {
		case IsTerminalStatus(r.Status):
			state = "terminal"
			terminal++
		case r.Pending():
			state = "pending"
			pending++
		}
		body = append(body, []string{
			fmt.Sprint(r.Index),
			oneLine(r.Title),
			r.Status,
			state,
			r.UpdatedAt,
			r.Category,
		})
	}

	out := renderTable(
		[]string{"Row", "Title", "Status", "State", "Updated", "Category"},
		body,
		[]columnAlignment{alignRight},
	)
	return fmt.Sprintf("%s\n%d row(s): %d pending, %d terminal, %d waiting for content\n",
		out, len(rows), pending, terminal, len(rows)-pending-terminal)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
