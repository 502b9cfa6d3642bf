package main

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// SubmitResult is what the browser showed after the form was sent
type SubmitResult struct {
	URL       string
	Confirmed bool
}

// Submitter sends the post form and decides whether the site accepted it
type Submitter struct {
	page       Page
	sels       ModeSelectors
	formURL    string
	success    *regexp.Regexp
	alertLimit int
	settle     time.Duration
}

// NewSubmitter compiles the success pattern. An empty pattern means any
// navigation away from the form counts as success.
func NewSubmitter(page Page, target *FormTarget, site SiteSettings) (*Submitter, error) {
	s := &Submitter{
		page:       page,
		sels:       target.Selectors,
		formURL:    target.URL,
		alertLimit: site.AlertLimit,
		settle:     3 * time.Second,
	}
	if site.SuccessPattern != "" {
		re, err := regexp.Compile(site.SuccessPattern)
		if err != nil {
			return nil, fmt.Errorf("site.success_pattern: %w", err)
		}
		s.success = re
	}
	return s, nil
}

func (s *Submitter) Submit(ctx context.Context) (*SubmitResult, error) {
	sel, ok, err := firstPresent(ctx, s.page, s.sels.Submit)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ElementNotFoundError{Field: "submit"}
	}

	logStep("Submitting via %s", sel)
	if err := s.page.Click(ctx, sel); err != nil {
		return nil, fmt.Errorf("clicking submit: %w", err)
	}
	if err := sleepContext(ctx, s.settle); err != nil {
		return nil, err
	}
	dismissAlerts(ctx, s.page, s.alertLimit)

	current, err := s.page.URL(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading url after submit: %w", err)
	}
	return &SubmitResult{URL: current, Confirmed: s.confirmed(current)}, nil
}

func (s *Submitter) confirmed(current string) bool {
	if s.success != nil {
		return s.success.MatchString(current)
	}
	return current != "" && current != s.formURL
}
