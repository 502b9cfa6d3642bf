package main

import (
	"context"
	"fmt"
	"strings"
)

// BodyTier names the editor surface the body was written to
type BodyTier string

const (
	BodyNone     BodyTier = ""
	BodyTextarea BodyTier = "textarea"
	BodyEditable BodyTier = "contenteditable"
	BodyIframe   BodyTier = "iframe"
)

// bodyWriter is one way of putting text into the post body
type bodyWriter interface {
	Tier() BodyTier
	// Locate returns the element this writer would use, if present
	Locate(ctx context.Context, page Page, sels ModeSelectors) (Selector, bool, error)
	Write(ctx context.Context, page Page, sels ModeSelectors, el Selector, text string) error
	Append(ctx context.Context, page Page, sels ModeSelectors, el Selector, html string) error
}

// FormFiller fills the fields of a reached post form
type FormFiller struct {
	page    Page
	sels    ModeSelectors
	writers []bodyWriter

	// set by SetBody so images can be appended to the same surface
	written  bodyWriter
	bodyEl   Selector
	bodyText string
}

func NewFormFiller(page Page, target *FormTarget) *FormFiller {
	f := &FormFiller{page: page, sels: target.Selectors}

	// Most direct surface first
	f.addWriter(textareaWriter{})
	f.addWriter(editableWriter{})
	f.addWriter(iframeWriter{})
	return f
}

func (f *FormFiller) addWriter(w bodyWriter) {
	f.writers = append(f.writers, w)
}

// SetTitle types the post title into the first matching title field
func (f *FormFiller) SetTitle(ctx context.Context, text string) error {
	sel, ok, err := firstPresent(ctx, f.page, f.sels.Title)
	if err != nil {
		return err
	}
	if !ok {
		return &ElementNotFoundError{Field: "title"}
	}
	if err := f.page.SetValue(ctx, sel, text); err != nil {
		return fmt.Errorf("setting title: %w", err)
	}
	debugLog("title set via %s", sel)
	return nil
}

// SetBody writes the body through the first tier whose element exists. A tier
// that fails hands over to the next one.
func (f *FormFiller) SetBody(ctx context.Context, text string) (BodyTier, error) {
	var lastErr error
	for _, w := range f.writers {
		el, ok, err := w.Locate(ctx, f.page, f.sels)
		if err != nil {
			return BodyNone, err
		}
		if !ok {
			continue
		}
		if err := w.Write(ctx, f.page, f.sels, el, text); err != nil {
			logWarn("body via %s failed: %v", w.Tier(), err)
			lastErr = err
			continue
		}
		f.written, f.bodyEl, f.bodyText = w, el, text
		debugLog("body set via %s (%s)", w.Tier(), el)
		return w.Tier(), nil
	}
	if lastErr != nil {
		return BodyNone, fmt.Errorf("setting body: %w", lastErr)
	}
	return BodyNone, &ElementNotFoundError{Field: "body"}
}

// AppendBodyHTML adds markup after the body written by SetBody, or to the
// first available surface when SetBody has not run
func (f *FormFiller) AppendBodyHTML(ctx context.Context, html string) error {
	if f.written != nil {
		if tw, ok := f.written.(textareaWriter); ok {
			f.bodyText += "\n" + html
			return tw.Write(ctx, f.page, f.sels, f.bodyEl, f.bodyText)
		}
		return f.written.Append(ctx, f.page, f.sels, f.bodyEl, html)
	}
	for _, w := range f.writers {
		el, ok, err := w.Locate(ctx, f.page, f.sels)
		if err != nil {
			return err
		}
		if ok {
			return w.Append(ctx, f.page, f.sels, el, html)
		}
	}
	return &ElementNotFoundError{Field: "body"}
}

// SetSecret ticks the secret-post checkbox. Best effort: reports whether the
// box is now ticked.
func (f *FormFiller) SetSecret(ctx context.Context, enabled bool) bool {
	if !enabled {
		return false
	}
	sel, ok, err := firstPresent(ctx, f.page, f.sels.SecretCheckbox)
	if err != nil || !ok {
		logWarn("secret checkbox not found")
		return false
	}
	if err := f.page.Check(ctx, sel); err != nil {
		logWarn("secret checkbox: %v", err)
		return false
	}
	debugLog("secret set via %s", sel)
	return true
}

// toMarkup turns plain text into markup for rich editors. The text is not
// escaped.
func toMarkup(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\n", "<br>")
}

type textareaWriter struct{}

func (textareaWriter) Tier() BodyTier { return BodyTextarea }

func (textareaWriter) Locate(ctx context.Context, page Page, sels ModeSelectors) (Selector, bool, error) {
	return firstPresent(ctx, page, sels.BodyTextarea)
}

func (textareaWriter) Write(ctx context.Context, page Page, _ ModeSelectors, el Selector, text string) error {
	return page.SetValue(ctx, el, text)
}

// Append rewrites the field value; markup inserted into a textarea is not
// part of its value once the value has been set.
func (textareaWriter) Append(ctx context.Context, page Page, _ ModeSelectors, el Selector, html string) error {
	current, err := page.Value(ctx, el)
	if err != nil {
		return err
	}
	if current != "" {
		html = current + "\n" + html
	}
	return page.SetValue(ctx, el, html)
}

type editableWriter struct{}

func (editableWriter) Tier() BodyTier { return BodyEditable }

func (editableWriter) Locate(ctx context.Context, page Page, sels ModeSelectors) (Selector, bool, error) {
	return firstPresent(ctx, page, sels.BodyEditable)
}

func (editableWriter) Write(ctx context.Context, page Page, _ ModeSelectors, el Selector, text string) error {
	return page.SetHTML(ctx, el, toMarkup(text))
}

func (editableWriter) Append(ctx context.Context, page Page, _ ModeSelectors, el Selector, html string) error {
	return page.AppendHTML(ctx, el, html)
}

// iframeWriter writes into the document of an embedded editor. The page is
// always returned to the top-level document.
type iframeWriter struct{}

func (iframeWriter) Tier() BodyTier { return BodyIframe }

func (iframeWriter) Locate(ctx context.Context, page Page, sels ModeSelectors) (Selector, bool, error) {
	return firstPresent(ctx, page, sels.BodyIframe)
}

func (w iframeWriter) Write(ctx context.Context, page Page, sels ModeSelectors, el Selector, text string) error {
	return w.inFrame(ctx, page, sels, el, func(body Selector) error {
		return page.SetHTML(ctx, body, toMarkup(text))
	})
}

func (w iframeWriter) Append(ctx context.Context, page Page, sels ModeSelectors, el Selector, html string) error {
	return w.inFrame(ctx, page, sels, el, func(body Selector) error {
		return page.AppendHTML(ctx, body, html)
	})
}

func (iframeWriter) inFrame(ctx context.Context, page Page, sels ModeSelectors, frame Selector, fn func(body Selector) error) error {
	if err := page.EnterFrame(ctx, frame); err != nil {
		return err
	}
	defer page.ExitFrame()

	body, ok, err := firstPresent(ctx, page, sels.FrameBody)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no editable body inside %s", frame)
	}
	return fn(body)
}
