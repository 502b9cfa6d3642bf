package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

const (
	probeTimeout  = 1500 * time.Millisecond
	probeInterval = 200 * time.Millisecond
	alertWait     = time.Second
)

// Session is one Chrome tab driven over CDP. It implements Page.
type Session struct {
	ctx         context.Context // tab context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
	profileDir  string

	dialogs chan string
	frame   *cdp.Node
}

// OpenSession starts Chrome bound to the configured profile. If that launch
// fails (profile locked by a running Chrome, crash, missing binary) the
// dedicated fallback profile is created and used instead.
func OpenSession(ctx context.Context, cfg BrowserSettings) (*Session, error) {
	sess, err := launchSession(ctx, cfg, cfg.UserDataDir, cfg.Profile)
	if err == nil {
		if cfg.UserDataDir != "" {
			logDone("Chrome started with profile %s", cfg.UserDataDir)
		}
		return sess, nil
	}
	logWarn("primary profile failed: %v", err)

	if cfg.FallbackDir == "" {
		return nil, fmt.Errorf("%w: %v", ErrProfileLaunch, err)
	}
	if err := os.MkdirAll(cfg.FallbackDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating fallback profile: %v", ErrProfileLaunch, err)
	}
	sess, err = launchSession(ctx, cfg, cfg.FallbackDir, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileLaunch, err)
	}
	logDone("Chrome started with fallback profile %s (log in once there and the session is kept)", cfg.FallbackDir)
	return sess, nil
}

func launchSession(ctx context.Context, cfg BrowserSettings, userDataDir, profile string) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("start-maximized", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("enable-automation", false),
	)
	if path := strings.TrimSpace(cfg.ChromePath); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	if ua := strings.TrimSpace(cfg.UserAgent); ua != "" {
		opts = append(opts, chromedp.UserAgent(ua))
	}
	if userDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(userDataDir))
	}
	if profile != "" {
		opts = append(opts, chromedp.Flag("profile-directory", profile))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
		timeout:     cfg.Timeout(),
		profileDir:  userDataDir,
		dialogs:     make(chan string, 16),
	}
	chromedp.ListenTarget(tabCtx, s.onEvent)

	// The first Run starts the browser; it must not carry a timeout or the
	// browser dies with it.
	if err := chromedp.Run(tabCtx, chromedp.Navigate("about:blank")); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// onEvent accepts JavaScript dialogs as soon as they open and records them
func (s *Session) onEvent(ev interface{}) {
	e, ok := ev.(*cdppage.EventJavascriptDialogOpening)
	if !ok {
		return
	}
	select {
	case s.dialogs <- e.Message:
	default:
	}
	go func() {
		if err := chromedp.Run(s.ctx, cdppage.HandleJavaScriptDialog(true)); err != nil {
			debugLog("accept dialog: %v", err)
		}
	}()
}

// Close terminates the tab and the browser process
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// run executes actions on the tab, bounded by the session timeout and by the
// caller's context
func (s *Session) run(callCtx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	if done := callCtx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				cancel()
			case <-runCtx.Done():
			}
		}()
	}
	return chromedp.Run(runCtx, actions...)
}

// queryOpts scopes sel to the current frame. chromedp only honours FromNode
// for CSS queries, so XPath selectors are refused inside a frame.
func (s *Session) queryOpts(sel Selector, extra ...chromedp.QueryOption) ([]chromedp.QueryOption, error) {
	opts := []chromedp.QueryOption{chromedp.ByQuery}
	if sel.XPath {
		if s.frame != nil {
			return nil, fmt.Errorf("%w: %s", ErrXPathInFrame, sel)
		}
		opts = []chromedp.QueryOption{chromedp.BySearch}
	}
	if s.frame != nil {
		opts = append(opts, chromedp.FromNode(s.frame))
	}
	return append(opts, extra...), nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.frame = nil
	err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	debugLog("loaded %s", url)
	return nil
}

func (s *Session) URL(ctx context.Context) (string, error) {
	var loc string
	err := s.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	opts, err := s.queryOpts(css("html"))
	if err != nil {
		return "", err
	}
	var html string
	err = s.run(ctx, chromedp.OuterHTML("html", &html, opts...))
	return html, err
}

// Exists polls briefly for the selector without failing when it is absent
func (s *Session) Exists(ctx context.Context, sel Selector) (bool, error) {
	opts, err := s.queryOpts(sel, chromedp.AtLeast(0))
	if err != nil {
		return false, err
	}
	deadline := time.Now().Add(probeTimeout)
	for {
		var nodes []*cdp.Node
		if err := s.run(ctx, chromedp.Nodes(sel.Query, &nodes, opts...)); err != nil {
			return false, err
		}
		if len(nodes) > 0 {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(probeInterval):
		}
	}
}

func (s *Session) Click(ctx context.Context, sel Selector) error {
	opts, err := s.queryOpts(sel)
	if err != nil {
		return err
	}
	return s.run(ctx,
		chromedp.ScrollIntoView(sel.Query, opts...),
		chromedp.Click(sel.Query, opts...),
	)
}

func (s *Session) Value(ctx context.Context, sel Selector) (string, error) {
	opts, err := s.queryOpts(sel)
	if err != nil {
		return "", err
	}
	var value string
	err = s.run(ctx, chromedp.Value(sel.Query, &value, opts...))
	return value, err
}

func (s *Session) SetValue(ctx context.Context, sel Selector, text string) error {
	opts, err := s.queryOpts(sel)
	if err != nil {
		return err
	}
	return s.run(ctx,
		chromedp.ScrollIntoView(sel.Query, opts...),
		chromedp.SetValue(sel.Query, "", opts...),
		chromedp.SendKeys(sel.Query, text, opts...),
	)
}

func (s *Session) SetHTML(ctx context.Context, sel Selector, html string) error {
	opts, err := s.queryOpts(sel)
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.SetJavascriptAttribute(sel.Query, "innerHTML", html, opts...))
}

func (s *Session) AppendHTML(ctx context.Context, sel Selector, html string) error {
	opts, err := s.queryOpts(sel)
	if err != nil {
		return err
	}
	var current string
	return s.run(ctx,
		chromedp.JavascriptAttribute(sel.Query, "innerHTML", &current, opts...),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return chromedp.SetJavascriptAttribute(sel.Query, "innerHTML", current+html, opts...).Do(ctx)
		}),
	)
}

func (s *Session) Check(ctx context.Context, sel Selector) error {
	opts, err := s.queryOpts(sel)
	if err != nil {
		return err
	}
	var checked bool
	if err := s.run(ctx, chromedp.JavascriptAttribute(sel.Query, "checked", &checked, opts...)); err != nil {
		return err
	}
	if checked {
		return nil
	}
	err = s.run(ctx,
		chromedp.ScrollIntoView(sel.Query, opts...),
		chromedp.Click(sel.Query, opts...),
		chromedp.JavascriptAttribute(sel.Query, "checked", &checked, opts...),
	)
	if err != nil {
		return err
	}
	if !checked {
		return fmt.Errorf("checkbox %s did not stay checked", sel)
	}
	return nil
}

func (s *Session) Upload(ctx context.Context, sel Selector, files []string) error {
	opts, err := s.queryOpts(sel)
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.SetUploadFiles(sel.Query, files, opts...))
}

func (s *Session) Press(ctx context.Context, sel Selector, key string) error {
	opts, err := s.queryOpts(sel)
	if err != nil {
		return err
	}
	if key == "Enter" {
		key = kb.Enter
	}
	return s.run(ctx, chromedp.SendKeys(sel.Query, key, opts...))
}

// EnterFrame scopes subsequent CSS queries to the document of the matched
// iframe. XPath selectors fail with ErrXPathInFrame until ExitFrame.
func (s *Session) EnterFrame(ctx context.Context, sel Selector) error {
	opts, err := s.queryOpts(sel)
	if err != nil {
		return err
	}
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(sel.Query, &nodes, opts...)); err != nil {
		return fmt.Errorf("locating frame %s: %w", sel, err)
	}
	if len(nodes) == 0 {
		return fmt.Errorf("frame %s not found", sel)
	}
	frame := nodes[0]
	if frame.ContentDocument != nil {
		frame = frame.ContentDocument
	}
	s.frame = frame
	return nil
}

// ExitFrame restores the top-level document scope
func (s *Session) ExitFrame() {
	s.frame = nil
}

func (s *Session) DismissAlerts(ctx context.Context, limit int) []string {
	var messages []string
	for len(messages) < limit {
		select {
		case msg := <-s.dialogs:
			messages = append(messages, msg)
		case <-time.After(alertWait):
			return messages
		case <-ctx.Done():
			return messages
		}
	}
	return messages
}
