package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/df2lex/internal/index"
	"github.com/Zuo-Peng/df2lex/internal/render"
	"github.com/Zuo-Peng/df2lex/internal/search"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	intent  string
	seq     int
	content string
	hitLine int
	err     error
}

// loadPreviewCmd renders the intent preview off the update loop.
func loadPreviewCmd(db *index.DB, r search.Result, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content, hitLine, err := render.RenderIntent(db, r.Intent, render.Options{
			HitSeq: r.Seq,
			Width:  width,
			Query:  query,
		})
		return previewRenderedMsg{
			intent:  r.Intent,
			seq:     r.Seq,
			content: content,
			hitLine: hitLine,
			err:     err,
		}
	}
}

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
