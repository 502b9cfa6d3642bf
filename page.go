package main

import (
	"context"
	"strings"
)

// Selector is one element-matching rule; CSS unless XPath is set
type Selector struct {
	Query string
	XPath bool
}

func css(query string) Selector   { return Selector{Query: query} }
func xpath(query string) Selector { return Selector{Query: query, XPath: true} }

func (s Selector) String() string {
	if s.XPath {
		return "xpath:" + s.Query
	}
	return s.Query
}

// Page is the slice of browser behaviour the posting steps rely on.
// Queries are scoped to the current frame; EnterFrame/ExitFrame move that scope.
type Page interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Exists(ctx context.Context, sel Selector) (bool, error)
	Click(ctx context.Context, sel Selector) error
	// Value reads the current value of a form field
	Value(ctx context.Context, sel Selector) (string, error)
	// SetValue clears the field and types text into it
	SetValue(ctx context.Context, sel Selector, text string) error
	// SetHTML assigns innerHTML
	SetHTML(ctx context.Context, sel Selector, html string) error
	// AppendHTML inserts markup at the end of the element
	AppendHTML(ctx context.Context, sel Selector, html string) error
	// Check ticks a checkbox if it is not already checked
	Check(ctx context.Context, sel Selector) error
	Upload(ctx context.Context, sel Selector, files []string) error
	Press(ctx context.Context, sel Selector, key string) error
	EnterFrame(ctx context.Context, sel Selector) error
	ExitFrame()
	// DismissAlerts accepts up to limit pending dialogs and returns their messages
	DismissAlerts(ctx context.Context, limit int) []string
}

// firstPresent walks candidates in order and returns the first one present on
// the page. Probe errors count as "absent"; only context cancellation aborts.
func firstPresent(ctx context.Context, page Page, candidates []Selector) (Selector, bool, error) {
	for _, sel := range candidates {
		ok, err := page.Exists(ctx, sel)
		if err != nil {
			if ctx.Err() != nil {
				return Selector{}, false, ctx.Err()
			}
			debugLog("probe %s: %v", sel, err)
			continue
		}
		if ok {
			return sel, true, nil
		}
	}
	return Selector{}, false, nil
}

// clickFirst clicks the first present candidate. Reports whether anything was clicked.
func clickFirst(ctx context.Context, page Page, candidates []Selector) (bool, error) {
	sel, ok, err := firstPresent(ctx, page, candidates)
	if err != nil || !ok {
		return false, err
	}
	if err := page.Click(ctx, sel); err != nil {
		debugLog("click %s: %v", sel, err)
		return false, nil
	}
	return true, nil
}

// dismissAlerts accepts pending dialogs and logs them as noise
func dismissAlerts(ctx context.Context, page Page, limit int) int {
	messages := page.DismissAlerts(ctx, limit)
	for _, msg := range messages {
		logWarn("alert dismissed: %s", strings.TrimSpace(msg))
	}
	if limit > 0 && len(messages) >= limit {
		logWarn("alert budget of %d reached", limit)
	}
	return len(messages)
}
