package main

import (
	"context"
	"fmt"
	"strings"
)

// fakePage is an in-memory Page. Element presence is keyed by selector query
// and split between the top-level document and the (single) frame document.
type fakePage struct {
	url     string
	html    string
	htmlSeq []string // successive HTML() results; the last one sticks

	present      map[string]bool
	framePresent map[string]bool
	existsErr    map[string]error
	writeErr     map[string]error

	frame      string
	enterCalls int
	exitCalls  int

	values   map[string]string
	htmls    map[string]string
	checked  map[string]bool
	uploads  map[string][]string
	pressed  []string
	clicks   []string
	visited  []string
	alerts   []string
	onClick  map[string]func(p *fakePage)
	onNavURL map[string]func(p *fakePage)
}

func newFakePage(present ...string) *fakePage {
	p := &fakePage{
		present:      map[string]bool{},
		framePresent: map[string]bool{},
		existsErr:    map[string]error{},
		writeErr:     map[string]error{},
		values:       map[string]string{},
		htmls:        map[string]string{},
		checked:      map[string]bool{},
		uploads:      map[string][]string{},
		onClick:      map[string]func(p *fakePage){},
		onNavURL:     map[string]func(p *fakePage){},
	}
	for _, q := range present {
		p.present[q] = true
	}
	return p
}

func (p *fakePage) scope() map[string]bool {
	if p.frame != "" {
		return p.framePresent
	}
	return p.present
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.visited = append(p.visited, url)
	p.frame = ""
	p.url = url
	if fn, ok := p.onNavURL[url]; ok {
		fn(p)
	}
	return nil
}

func (p *fakePage) URL(ctx context.Context) (string, error) { return p.url, nil }

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	if len(p.htmlSeq) > 0 {
		p.html = p.htmlSeq[0]
		if len(p.htmlSeq) > 1 {
			p.htmlSeq = p.htmlSeq[1:]
		}
	}
	return p.html, nil
}

func (p *fakePage) Exists(ctx context.Context, sel Selector) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err, ok := p.existsErr[sel.Query]; ok {
		return false, err
	}
	return p.scope()[sel.Query], nil
}

func (p *fakePage) mustExist(sel Selector) error {
	if err, ok := p.writeErr[sel.Query]; ok {
		return err
	}
	if !p.scope()[sel.Query] {
		return fmt.Errorf("no node for %s", sel)
	}
	return nil
}

func (p *fakePage) Click(ctx context.Context, sel Selector) error {
	if err := p.mustExist(sel); err != nil {
		return err
	}
	p.clicks = append(p.clicks, sel.Query)
	if fn, ok := p.onClick[sel.Query]; ok {
		fn(p)
	}
	return nil
}

func (p *fakePage) Value(ctx context.Context, sel Selector) (string, error) {
	if err := p.mustExist(sel); err != nil {
		return "", err
	}
	return p.values[sel.Query], nil
}

func (p *fakePage) SetValue(ctx context.Context, sel Selector, text string) error {
	if err := p.mustExist(sel); err != nil {
		return err
	}
	p.values[sel.Query] = text
	return nil
}

func (p *fakePage) SetHTML(ctx context.Context, sel Selector, html string) error {
	if err := p.mustExist(sel); err != nil {
		return err
	}
	p.htmls[sel.Query] = html
	return nil
}

func (p *fakePage) AppendHTML(ctx context.Context, sel Selector, html string) error {
	if err := p.mustExist(sel); err != nil {
		return err
	}
	p.htmls[sel.Query] += html
	return nil
}

func (p *fakePage) Check(ctx context.Context, sel Selector) error {
	if err := p.mustExist(sel); err != nil {
		return err
	}
	p.checked[sel.Query] = true
	return nil
}

func (p *fakePage) Upload(ctx context.Context, sel Selector, files []string) error {
	if err := p.mustExist(sel); err != nil {
		return err
	}
	p.uploads[sel.Query] = files
	return nil
}

func (p *fakePage) Press(ctx context.Context, sel Selector, key string) error {
	if err := p.mustExist(sel); err != nil {
		return err
	}
	p.pressed = append(p.pressed, sel.Query+":"+key)
	return nil
}

func (p *fakePage) EnterFrame(ctx context.Context, sel Selector) error {
	p.enterCalls++
	if !p.present[sel.Query] {
		return fmt.Errorf("frame %s not found", sel)
	}
	p.frame = sel.Query
	return nil
}

func (p *fakePage) ExitFrame() {
	p.exitCalls++
	p.frame = ""
}

func (p *fakePage) DismissAlerts(ctx context.Context, limit int) []string {
	n := len(p.alerts)
	if n > limit {
		n = limit
	}
	out := p.alerts[:n]
	p.alerts = p.alerts[n:]
	return out
}

// clicked reports whether any click matched the query substring
func (p *fakePage) clicked(query string) bool {
	for _, c := range p.clicks {
		if strings.Contains(c, query) {
			return true
		}
	}
	return false
}
