package main

import (
	"context"
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Page = (*Session)(nil)
	_ Page = (*fakePage)(nil)
)

func TestQueryOptsTopLevel(t *testing.T) {
	s := &Session{}

	opts, err := s.queryOpts(css("textarea[name='contents']"))
	require.NoError(t, err)
	assert.Len(t, opts, 1)

	opts, err = s.queryOpts(xpath("//label[contains(.,'비밀글')]/input"))
	require.NoError(t, err)
	assert.Len(t, opts, 1)
}

func TestQueryOptsInsideFrame(t *testing.T) {
	s := &Session{frame: &cdp.Node{NodeName: "#document"}}

	opts, err := s.queryOpts(css("body[contenteditable='true']"))
	require.NoError(t, err)
	assert.Len(t, opts, 2, "css queries are scoped to the frame document")

	_, err = s.queryOpts(xpath("//body"))
	assert.ErrorIs(t, err, ErrXPathInFrame)

	s.ExitFrame()
	_, err = s.queryOpts(xpath("//body"))
	assert.NoError(t, err)
}

func TestSessionRefusesXPathInFrame(t *testing.T) {
	s := &Session{frame: &cdp.Node{}}
	ctx := context.Background()

	_, err := s.Exists(ctx, xpath("//iframe"))
	assert.ErrorIs(t, err, ErrXPathInFrame)
	assert.ErrorIs(t, s.SetHTML(ctx, xpath("//body"), "<p>x</p>"), ErrXPathInFrame)
	assert.ErrorIs(t, s.Check(ctx, xpath("//input")), ErrXPathInFrame)
}
