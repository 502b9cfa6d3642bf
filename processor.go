// processor.go
package main

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// pageOpener starts a browser page; release must be called when done
type pageOpener func(ctx context.Context) (page Page, release func(), err error)

// PostProcessor handles the main workflow: one queue row per run
type PostProcessor struct {
	cfg       *Config
	store     *Store
	generator *ContentGenerator // nil skips content generation
	images    imageSource
	manual    ManualLogin
	open      pageOpener
	now       func() time.Time
	settle    time.Duration // wait after clicking submit
}

// NewPostProcessor wires the processor to a real Chrome session
func NewPostProcessor(cfg *Config, generator *ContentGenerator, manual ManualLogin) *PostProcessor {
	s := cfg.Settings
	if manual == nil {
		manual = pollManualLogin(s.Login.ManualTimeout(), s.Login.PollInterval())
	}
	return &PostProcessor{
		cfg:       cfg,
		store:     NewStore(s.QueuePath),
		generator: generator,
		images:    NewImageFetcher(s.Post.ImageBaseURL),
		manual:    manual,
		open: func(ctx context.Context) (Page, func(), error) {
			sess, err := OpenSession(ctx, s.Browser)
			if err != nil {
				return nil, func() {}, err
			}
			return sess, sess.Close, nil
		},
		now:    time.Now,
		settle: 3 * time.Second,
	}
}

// Run makes sure the queue exists, drafts missing content and posts the next
// pending row
func (p *PostProcessor) Run(ctx context.Context) ProcessingResult {
	created, err := p.store.EnsureExists(1)
	if err != nil {
		return failed(nil, fmt.Errorf("preparing queue: %w", err))
	}
	if created {
		logDone("Created sample queue %s", p.store.Path())
	}

	if p.generator != nil {
		n, err := p.generator.FillEmpty(p.store)
		if err != nil {
			return failed(nil, fmt.Errorf("generating content: %w", err))
		}
		if n > 0 {
			logDone("Drafted %d row(s)", n)
		}
	}

	return p.Post(ctx)
}

// Post publishes the next pending row. No pending row is a skip, not an error.
func (p *PostProcessor) Post(ctx context.Context) ProcessingResult {
	row, err := p.store.NextPending()
	if err != nil {
		return failed(nil, err)
	}
	if row == nil {
		logDone("Nothing to do: no pending rows in %s", p.store.Path())
		return ProcessingResult{Status: StatusSkipped}
	}
	logStep("Posting row %d: %s", row.Index, row.Title)

	page, release, err := p.open(ctx)
	defer release()
	if err != nil {
		return failed(row, err)
	}
	defer p.images.Cleanup()

	result := p.publish(ctx, page, row)
	if result.Error != nil {
		return result
	}

	if err := p.store.MarkDone(row, p.now()); err != nil {
		return failed(row, err)
	}
	logDone("Published row %d: %s", row.Index, result.PostURL)
	return result
}

func (p *PostProcessor) publish(ctx context.Context, page Page, row *Row) ProcessingResult {
	s := p.cfg.Settings

	if origin := s.Site.Origin(); origin != "" {
		if err := page.Navigate(ctx, origin); err != nil {
			return failed(row, err)
		}
		dismissAlerts(ctx, page, s.Site.AlertLimit)
	}

	auth := NewAuthenticator(page, s.Site, p.cfg.Credentials)
	state, err := auth.Ensure(ctx)
	if err != nil {
		return failed(row, fmt.Errorf("checking login: %w", err))
	}
	logStep("Login: %s", state)
	if state == AuthRequired {
		if err := p.manual(ctx, auth); err != nil {
			return failed(row, err)
		}
	}

	nav := NewNavigator(page, s.Site.AlertLimit)
	target, err := nav.ReachForm(ctx, s.Site.WriteURL, s.Site.ListURL)
	if err != nil {
		return failed(row, err)
	}

	form := NewFormFiller(page, target)
	if err := form.SetTitle(ctx, row.Title); err != nil {
		return failed(row, err)
	}
	tier, err := form.SetBody(ctx, row.Body)
	if err != nil {
		return failed(row, err)
	}
	logDone("Title and body filled (%s)", tier)

	images := NewImageAttacher(page, form, target, p.images).Attach(ctx, row.Query(), s.Post.ImageCount)
	if form.SetSecret(ctx, s.Post.Secret) {
		logDone("Secret post enabled")
	}

	submitter, err := NewSubmitter(page, target, s.Site)
	if err != nil {
		return failed(row, err)
	}
	submitter.settle = p.settle
	sub, err := submitter.Submit(ctx)
	if err != nil {
		return failed(row, err)
	}
	if !sub.Confirmed {
		res := failed(row, fmt.Errorf("%w: %s", ErrSubmitUnconfirmed, sub.URL))
		res.PostURL = sub.URL
		res.Images = images
		return res
	}

	return ProcessingResult{
		Row:     row,
		Status:  StatusSuccess,
		PostURL: sub.URL,
		Images:  images,
	}
}

func failed(row *Row, err error) ProcessingResult {
	return ProcessingResult{Row: row, Status: StatusError, Error: err}
}

// describeError adds a hint for errors the user can act on
func describeError(err error) string {
	switch {
	case errors.Is(err, ErrQueueMissing):
		return fmt.Sprintf("%v (run 'sample' to create one)", err)
	case errors.Is(err, ErrQueueLocked):
		return fmt.Sprintf("%v (another run is in progress)", err)
	case errors.Is(err, ErrAuthRequired), errors.Is(err, ErrAuthTimeout):
		return fmt.Sprintf("%v (set ZAEDA_ID/ZAEDA_PW or log in in the browser window)", err)
	case errors.Is(err, ErrProfileLaunch):
		return fmt.Sprintf("%v (close other Chrome windows using the profile)", err)
	}
	var notFound *ElementNotFoundError
	if errors.As(err, &notFound) {
		return fmt.Sprintf("%v (the page layout may have changed)", err)
	}
	return err.Error()
}
