package main

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NavState tracks where the navigator believes the browser is
type NavState int

const (
	NavUnknown NavState = iota
	NavOnListing
	NavOnForm
	NavUnreachable
)

func (s NavState) String() string {
	switch s {
	case NavOnListing:
		return "listing"
	case NavOnForm:
		return "form"
	case NavUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// FormTarget describes the loaded post form
type FormTarget struct {
	URL       string
	Mode      Mode
	Selectors ModeSelectors
}

// Navigator gets the browser onto the post-creation form
type Navigator struct {
	page       Page
	alertLimit int
	state      NavState
}

func NewNavigator(page Page, alertLimit int) *Navigator {
	return &Navigator{page: page, alertLimit: alertLimit}
}

func (n *Navigator) State() NavState {
	return n.state
}

type urlPair struct {
	direct  string
	listing string
}

// ReachForm tries the direct form URL, then the listing page's write button,
// first with the given URLs and then with their mobile/desktop counterparts.
func (n *Navigator) ReachForm(ctx context.Context, directURL, listingURL string) (*FormTarget, error) {
	attempts := []urlPair{{direct: directURL, listing: listingURL}}
	alt := urlPair{}
	alt.direct, _ = alternateURL(directURL)
	alt.listing, _ = alternateURL(listingURL)
	if alt.direct != "" || alt.listing != "" {
		attempts = append(attempts, alt)
	}

	for _, pair := range attempts {
		if pair.direct != "" {
			target, err := n.tryDirect(ctx, pair.direct)
			if err != nil {
				return nil, err
			}
			if target != nil {
				return target, nil
			}
		}
		if pair.listing != "" {
			target, err := n.tryListing(ctx, pair.listing)
			if err != nil {
				return nil, err
			}
			if target != nil {
				return target, nil
			}
		}
	}

	n.state = NavUnreachable
	return nil, ErrFormUnreachable
}

func (n *Navigator) tryDirect(ctx context.Context, formURL string) (*FormTarget, error) {
	logStep("Opening form %s", formURL)
	if err := n.page.Navigate(ctx, formURL); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logWarn("%v", err)
		return nil, nil
	}
	dismissAlerts(ctx, n.page, n.alertLimit)
	return n.checkForm(ctx)
}

func (n *Navigator) tryListing(ctx context.Context, listingURL string) (*FormTarget, error) {
	logStep("Opening listing %s", listingURL)
	if err := n.page.Navigate(ctx, listingURL); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logWarn("%v", err)
		return nil, nil
	}
	dismissAlerts(ctx, n.page, n.alertLimit)
	n.state = NavOnListing

	mode := n.currentMode(ctx)
	clicked, err := clickFirst(ctx, n.page, selectorsFor(mode).WriteOnListing)
	if err != nil {
		return nil, err
	}
	if !clicked {
		logWarn("no write button on %s", listingURL)
		return nil, nil
	}
	dismissAlerts(ctx, n.page, n.alertLimit)
	return n.checkForm(ctx)
}

func (n *Navigator) currentMode(ctx context.Context) Mode {
	current, err := n.page.URL(ctx)
	if err != nil {
		debugLog("reading url: %v", err)
	}
	html, err := n.page.HTML(ctx)
	if err != nil {
		debugLog("reading page: %v", err)
	}
	return detectMode(current, html)
}

// checkForm returns a target when the form markers for the detected layout
// are present, nil otherwise
func (n *Navigator) checkForm(ctx context.Context) (*FormTarget, error) {
	current, err := n.page.URL(ctx)
	if err != nil {
		debugLog("reading url: %v", err)
	}
	html, err := n.page.HTML(ctx)
	if err != nil {
		debugLog("reading page: %v", err)
	}
	mode := detectMode(current, html)
	sels := selectorsFor(mode)

	ok, err := formPresent(ctx, n.page, sels)
	if err != nil {
		return nil, err
	}
	if !ok {
		debugLog("no form on %s", current)
		return nil, nil
	}
	n.state = NavOnForm
	logDone("Form reached (%s layout): %s", mode, current)
	return &FormTarget{URL: current, Mode: mode, Selectors: sels}, nil
}

func formPresent(ctx context.Context, page Page, sels ModeSelectors) (bool, error) {
	_, ok, err := firstPresent(ctx, page, sels.FormMarkers)
	return ok, err
}

// alternateURL maps between the desktop and mobile variants of a site URL
func alternateURL(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	switch {
	case strings.HasPrefix(u.Host, "m."):
		u.Host = strings.TrimPrefix(u.Host, "m.")
	case u.Path == "/m" || strings.HasPrefix(u.Path, "/m/"):
		u.Path = strings.TrimPrefix(u.Path, "/m")
		if u.Path == "" {
			u.Path = "/"
		}
	case strings.HasPrefix(u.Path, "/bbs/"):
		u.Path = "/m" + u.Path
	default:
		return "", false
	}
	return u.String(), true
}

// detectMode decides between the desktop and mobile layouts from the URL and,
// failing that, the body class.
func detectMode(pageURL, html string) Mode {
	if u, err := url.Parse(pageURL); err == nil {
		if strings.HasPrefix(u.Host, "m.") {
			return ModeMobile
		}
		if strings.Contains(u.Path, "/m/") || strings.HasSuffix(u.Path, "/m") {
			return ModeMobile
		}
	}
	if html == "" {
		return ModeWeb
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ModeWeb
	}
	if class, ok := doc.Find("body").Attr("class"); ok && strings.Contains(strings.ToLower(class), "mobile") {
		return ModeMobile
	}
	return ModeWeb
}
