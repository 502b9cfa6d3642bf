package main

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeImages struct {
	files       []string
	err         error
	downloads   int
	cleanups    int
	lastRequest int
}

func (f *fakeImages) RemoteURLs(query string, n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = "https://img.test/" + query
	}
	return urls
}

func (f *fakeImages) Download(ctx context.Context, query string, n int) ([]string, error) {
	f.downloads++
	f.lastRequest = n
	return f.files, f.err
}

func (f *fakeImages) Cleanup() { f.cleanups++ }

func newTestAttacher(page *fakePage, source imageSource) *ImageAttacher {
	target := webTarget()
	return NewImageAttacher(page, NewFormFiller(page, target), target, source)
}

func TestAttachFileInput(t *testing.T) {
	page := newFakePage("input[type='file']")
	source := &fakeImages{files: []string{"/tmp/a.jpg", "/tmp/b.jpg"}}

	tier := newTestAttacher(page, source).Attach(context.Background(), "운동", 2)

	if tier != ImageFileInput {
		t.Errorf("tier = %s, want file-input", tier)
	}
	if len(page.uploads["input[type='file']"]) != 2 {
		t.Errorf("uploads = %v", page.uploads)
	}
}

func TestAttachPhotoIcon(t *testing.T) {
	page := newFakePage("img[alt='사진']")
	page.onClick["img[alt='사진']"] = func(p *fakePage) {
		p.present["input[type='file'][name^='bf_file']"] = true
	}
	source := &fakeImages{files: []string{"/tmp/a.jpg"}}

	tier := newTestAttacher(page, source).Attach(context.Background(), "운동", 1)

	if tier != ImagePhotoIcon {
		t.Errorf("tier = %s, want photo-icon", tier)
	}
}

func TestAttachFallsBackToMarkup(t *testing.T) {
	page := newFakePage("div[contenteditable='true']")
	source := &fakeImages{err: errors.New("offline")}

	tier := newTestAttacher(page, source).Attach(context.Background(), "수면", 2)

	if tier != ImageHTML {
		t.Fatalf("tier = %s, want html", tier)
	}
	got := page.htmls["div[contenteditable='true']"]
	if strings.Count(got, "<img ") != 2 || !strings.Contains(got, "https://img.test/수면") {
		t.Errorf("markup = %q", got)
	}
}

func TestAttachNeverFails(t *testing.T) {
	page := newFakePage()
	source := &fakeImages{err: errors.New("offline")}

	if tier := newTestAttacher(page, source).Attach(context.Background(), "수면", 2); tier != ImageNone {
		t.Errorf("tier = %s, want none", tier)
	}
}

func TestAttachDisabled(t *testing.T) {
	source := &fakeImages{}

	if tier := newTestAttacher(newFakePage(), source).Attach(context.Background(), "수면", 0); tier != ImageNone {
		t.Errorf("tier = %s, want none", tier)
	}
	if source.downloads != 0 {
		t.Error("nothing should be downloaded when images are disabled")
	}
}

func TestAttachCapsUploadCount(t *testing.T) {
	source := &fakeImages{}
	newTestAttacher(newFakePage(), source).Attach(context.Background(), "수면", 25)

	if source.lastRequest != maxUploadFiles {
		t.Errorf("requested %d images, want %d", source.lastRequest, maxUploadFiles)
	}
}

func TestImageMarkupEscapesURL(t *testing.T) {
	got := imageMarkup([]string{`https://x.test/?a=1&b="2"`})
	if !strings.Contains(got, `a=1&amp;b=&#34;2&#34;`) {
		t.Errorf("imageMarkup() = %q", got)
	}
}
