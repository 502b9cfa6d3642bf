package main

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// maxUploadFiles is the board's attachment limit
const maxUploadFiles = 10

// ImageTier names the strategy that got images into the post
type ImageTier string

const (
	ImageNone      ImageTier = "none"
	ImageFileInput ImageTier = "file-input"
	ImagePhotoIcon ImageTier = "photo-icon"
	ImageHTML      ImageTier = "html"
)

// imageSource is what ImageAttacher needs from ImageFetcher
type imageSource interface {
	RemoteURLs(query string, n int) []string
	Download(ctx context.Context, query string, n int) ([]string, error)
	Cleanup()
}

// ImageAttacher adds images to the post being written. It never fails the
// run; the worst outcome is a post without images.
type ImageAttacher struct {
	page   Page
	form   *FormFiller
	sels   ModeSelectors
	source imageSource
}

func NewImageAttacher(page Page, form *FormFiller, target *FormTarget, source imageSource) *ImageAttacher {
	return &ImageAttacher{page: page, form: form, sels: target.Selectors, source: source}
}

// Attach tries a direct file upload, then the editor's photo button, then
// inline <img> markup
func (a *ImageAttacher) Attach(ctx context.Context, query string, count int) ImageTier {
	if count <= 0 {
		return ImageNone
	}
	if count > maxUploadFiles {
		count = maxUploadFiles
	}
	logStep("Attaching %d image(s) for %q", count, query)

	files, err := a.source.Download(ctx, query, count)
	if err != nil {
		logWarn("downloading images: %v", err)
	}

	if len(files) > 0 {
		err := a.upload(ctx, files)
		if err == nil {
			logDone("Images uploaded through file input")
			return ImageFileInput
		}
		debugLog("file input: %v", err)

		if ok, _ := clickFirst(ctx, a.page, a.sels.PhotoIcon); ok {
			err = a.upload(ctx, files)
			if err == nil {
				logDone("Images uploaded through photo button")
				return ImagePhotoIcon
			}
			debugLog("photo button upload: %v", err)
		}
	}

	if err := a.form.AppendBodyHTML(ctx, imageMarkup(a.source.RemoteURLs(query, count))); err != nil {
		logWarn("images skipped: %v", err)
		return ImageNone
	}
	logDone("Images inserted as HTML")
	return ImageHTML
}

func (a *ImageAttacher) upload(ctx context.Context, files []string) error {
	sel, ok, err := firstPresent(ctx, a.page, a.sels.FileInput)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no file input")
	}
	return a.page.Upload(ctx, sel, files)
}

func imageMarkup(urls []string) string {
	var b strings.Builder
	for _, u := range urls {
		fmt.Fprintf(&b, `<p><img src="%s" alt="image"></p>`, html.EscapeString(u))
	}
	return b.String()
}
