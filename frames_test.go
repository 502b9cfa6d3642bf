package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFrames(t *testing.T) {
	page := newFakePage("(//iframe)[1]")
	page.html = `<html><body>
		<iframe id="se2_iframe" name="ir1" src="/editor/SmartEditor2Skin.html"></iframe>
		<iframe src="https://ads.test/banner"></iframe>
	</body></html>`
	page.framePresent["body[contenteditable='true']"] = true

	frames, err := listFrames(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, frames, 2)

	assert.Equal(t, frameInfo{Index: 1, ID: "se2_iframe", Name: "ir1", Src: "/editor/SmartEditor2Skin.html", Editable: true}, frames[0])
	assert.Equal(t, 2, frames[1].Index)
	assert.False(t, frames[1].Editable, "a frame that cannot be entered is not editable")
	assert.Equal(t, page.enterCalls, page.exitCalls+1, "every entered frame is exited")
	assert.Empty(t, page.frame)

	report := framesReport(frames)
	assert.True(t, strings.Contains(report, "se2_iframe"))
	assert.True(t, strings.Contains(report, "yes"))
}

func TestListFramesNone(t *testing.T) {
	page := newFakePage()
	page.html = "<html><body><p>no editor</p></body></html>"

	frames, err := listFrames(context.Background(), page)
	require.NoError(t, err)
	assert.Empty(t, frames)
}
