package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/peterh/liner"
)

// AuthMarkers are the page texts that reveal the login state
type AuthMarkers struct {
	Logout string
	Login  string
}

// Authenticated applies the logout-link heuristic: a visible logout marker
// means logged in, a login marker or a login URL means logged out, anything
// else is assumed to be logged in. A blank tab is never logged in.
func (m AuthMarkers) Authenticated(html, pageURL string) bool {
	if blankPage(html, pageURL) {
		return false
	}
	if m.Logout != "" && strings.Contains(html, m.Logout) {
		return true
	}
	if m.Login != "" && strings.Contains(html, m.Login) {
		return false
	}
	return !strings.Contains(strings.ToLower(pageURL), "login")
}

// blankPage reports an about: URL or a document with nothing rendered in it
func blankPage(html, pageURL string) bool {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(pageURL)), "about:") {
		return true
	}
	if strings.TrimSpace(html) == "" {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	body := doc.Find("body")
	return strings.TrimSpace(body.Text()) == "" && body.Find("a, form, input, img").Length() == 0
}

// AuthResult is the outcome of Ensure
type AuthResult int

const (
	AuthAlready AuthResult = iota
	AuthAutomatic
	AuthRequired
)

func (r AuthResult) String() string {
	switch r {
	case AuthAlready:
		return "already logged in"
	case AuthAutomatic:
		return "logged in automatically"
	default:
		return "login required"
	}
}

// ManualLogin resolves an AuthRequired result. It returns nil once the
// session is authenticated.
type ManualLogin func(ctx context.Context, auth *Authenticator) error

// Authenticator drives the site's login flow on a Page
type Authenticator struct {
	page      Page
	site      SiteSettings
	creds     Credentials
	markers   AuthMarkers
	selectors LoginSelectors
	settle    time.Duration // pause after submitting the login form
}

func NewAuthenticator(page Page, site SiteSettings, creds Credentials) *Authenticator {
	return &Authenticator{
		page:      page,
		site:      site,
		creds:     creds,
		markers:   AuthMarkers{Logout: site.LogoutText, Login: site.LoginText},
		selectors: defaultLoginSelectors,
		settle:    2 * time.Second,
	}
}

// Check reports whether the current page looks authenticated
func (a *Authenticator) Check(ctx context.Context) (bool, error) {
	html, err := a.page.HTML(ctx)
	if err != nil {
		return false, fmt.Errorf("reading page: %w", err)
	}
	current, err := a.page.URL(ctx)
	if err != nil {
		return false, fmt.Errorf("reading url: %w", err)
	}
	return a.markers.Authenticated(html, current), nil
}

// Ensure checks the current page and falls back to automatic login when
// credentials are available. It never prompts; AuthRequired is returned for
// the caller's ManualLogin to handle.
func (a *Authenticator) Ensure(ctx context.Context) (AuthResult, error) {
	ok, err := a.Check(ctx)
	if err != nil {
		return AuthRequired, err
	}
	if ok {
		return AuthAlready, nil
	}
	if a.creds.Empty() {
		logWarn("no ZAEDA_ID/ZAEDA_PW set, skipping automatic login")
		return AuthRequired, nil
	}
	ok, err = a.AttemptAutoLogin(ctx)
	if err != nil {
		return AuthRequired, err
	}
	if ok {
		return AuthAutomatic, nil
	}
	return AuthRequired, nil
}

// AttemptAutoLogin tries each configured login page in turn with the stored
// credentials.
func (a *Authenticator) AttemptAutoLogin(ctx context.Context) (bool, error) {
	if a.creds.Empty() {
		return false, nil
	}
	for _, loginURL := range a.site.LoginURLs {
		ok, err := a.tryLoginPage(ctx, loginURL)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			logWarn("auto login via %s failed: %v", loginURL, err)
			continue
		}
		if ok {
			logDone("Logged in automatically via %s", loginURL)
			return true, nil
		}
	}
	return false, nil
}

func (a *Authenticator) tryLoginPage(ctx context.Context, loginURL string) (bool, error) {
	logStep("Trying login page %s", loginURL)
	if err := a.page.Navigate(ctx, loginURL); err != nil {
		return false, err
	}
	dismissAlerts(ctx, a.page, a.site.AlertLimit)
	if ok, err := a.Check(ctx); err != nil || ok {
		return ok, err
	}

	idField, found, err := firstPresent(ctx, a.page, a.selectors.ID)
	if err != nil {
		return false, err
	}
	if !found {
		// Some layouts only show the form after the header link is used
		if _, err := clickFirst(ctx, a.page, a.selectors.LoginLink); err != nil {
			return false, err
		}
		if idField, found, err = firstPresent(ctx, a.page, a.selectors.ID); err != nil || !found {
			return false, err
		}
	}
	pwField, found, err := firstPresent(ctx, a.page, a.selectors.Password)
	if err != nil || !found {
		return false, err
	}

	if err := a.page.SetValue(ctx, idField, a.creds.ID); err != nil {
		return false, fmt.Errorf("filling id: %w", err)
	}
	if err := a.page.SetValue(ctx, pwField, a.creds.Password); err != nil {
		return false, fmt.Errorf("filling password: %w", err)
	}

	clicked, err := clickFirst(ctx, a.page, a.selectors.Submit)
	if err != nil {
		return false, err
	}
	if !clicked {
		if err := a.page.Press(ctx, pwField, "Enter"); err != nil {
			return false, fmt.Errorf("submitting login: %w", err)
		}
	}

	if err := sleepContext(ctx, a.settle); err != nil {
		return false, err
	}
	dismissAlerts(ctx, a.page, a.site.AlertLimit)
	return a.Check(ctx)
}

// AwaitManualLogin opens the login page and waits for the user to sign in
// in the browser window.
func (a *Authenticator) AwaitManualLogin(ctx context.Context, timeout, poll time.Duration) error {
	if len(a.site.LoginURLs) > 0 {
		if err := a.page.Navigate(ctx, a.site.LoginURLs[0]); err != nil {
			logWarn("opening login page: %v", err)
		}
	}
	logStep("Waiting up to %s for manual login in the browser", timeout)

	deadline := time.Now().Add(timeout)
	for {
		ok, err := a.Check(ctx)
		if err != nil {
			debugLog("login check: %v", err)
		}
		if ok {
			logDone("Login detected")
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrAuthTimeout
		}
		if err := sleepContext(ctx, poll); err != nil {
			return err
		}
	}
}

// pollManualLogin waits for the user to log in in the browser
func pollManualLogin(timeout, poll time.Duration) ManualLogin {
	return func(ctx context.Context, auth *Authenticator) error {
		return auth.AwaitManualLogin(ctx, timeout, poll)
	}
}

// promptManualLogin asks on the terminal and verifies once the user confirms
func promptManualLogin(attempts int) ManualLogin {
	return func(ctx context.Context, auth *Authenticator) error {
		if len(auth.site.LoginURLs) > 0 {
			if err := auth.page.Navigate(ctx, auth.site.LoginURLs[0]); err != nil {
				logWarn("opening login page: %v", err)
			}
		}

		line := liner.NewLiner()
		defer line.Close()
		line.SetCtrlCAborts(true)

		for i := 0; i < attempts; i++ {
			_, err := line.Prompt("Log in in the browser window, then press Enter: ")
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return ErrAuthRequired
			}
			if err != nil {
				return fmt.Errorf("reading prompt: %w", err)
			}
			ok, err := auth.Check(ctx)
			if err != nil {
				return err
			}
			if ok {
				logDone("Login confirmed")
				return nil
			}
			logWarn("still not logged in")
		}
		return ErrAuthRequired
	}
}

// abortManualLogin is used when no one is there to log in
func abortManualLogin(ctx context.Context, auth *Authenticator) error {
	return ErrAuthRequired
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
