package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// frameInfo describes one iframe found on a page
type frameInfo struct {
	Index    int
	ID       string
	Name     string
	Src      string
	Editable bool
}

var editableProbe = []Selector{
	css("body[contenteditable='true']"),
	css("[contenteditable='true']"),
}

// listFrames reports every iframe on the current page and whether its
// document is content-editable. Used to find editor selectors for new layouts.
func listFrames(ctx context.Context, page Page) ([]frameInfo, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	var frames []frameInfo
	doc.Find("iframe").Each(func(i int, s *goquery.Selection) {
		frames = append(frames, frameInfo{
			Index: i + 1,
			ID:    s.AttrOr("id", ""),
			Name:  s.AttrOr("name", ""),
			Src:   s.AttrOr("src", ""),
		})
	})

	for i := range frames {
		frames[i].Editable = frameEditable(ctx, page, xpath(fmt.Sprintf("(//iframe)[%d]", frames[i].Index)))
	}
	return frames, nil
}

func frameEditable(ctx context.Context, page Page, frame Selector) bool {
	if err := page.EnterFrame(ctx, frame); err != nil {
		debugLog("entering %s: %v", frame, err)
		return false
	}
	defer page.ExitFrame()

	_, ok, err := firstPresent(ctx, page, editableProbe)
	return err == nil && ok
}

func framesReport(frames []frameInfo) string {
	rows := make([][]string, 0, len(frames))
	for _, f := range frames {
		editable := "no"
		if f.Editable {
			editable = "yes"
		}
		rows = append(rows, []string{fmt.Sprint(f.Index), f.ID, f.Name, f.Src, editable})
	}
	return renderTable([]string{"#", "ID", "Name", "Src", "Editable"}, rows, []columnAlignment{alignRight})
}
