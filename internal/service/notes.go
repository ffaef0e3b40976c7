package service

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	notesMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	notesSanitizer = bluemonday.UGCPolicy()
)

// RenderNotes 把习惯备注的 Markdown 渲染为净化后的 HTML。
// 备注由家庭成员自由输入，输出前必须过一遍白名单净化。
func RenderNotes(markdown string) (string, error) {
	if markdown == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := notesMarkdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render notes: %w", err)
	}

	return notesSanitizer.Sanitize(buf.String()), nil
}
