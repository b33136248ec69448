package mosaic

// Text is a component that renders a block of (possibly styled) text,
// wrapped to the available width. Styles survive wrap points.
type Text struct {
	Compo
	content string
}

// NewText creates a Text component with the given initial content.
func NewText(content string) *Text {
	return &Text{content: content}
}

// SetContent replaces the displayed text.
func (t *Text) SetContent(content string) {
	if t.content == content {
		return
	}
	t.content = content
	t.Update()
}

// Content returns the current text.
func (t *Text) Content() string { return t.content }

// Append adds text to the end of the current content.
func (t *Text) Append(s string) {
	if s == "" {
		return
	}
	t.content += s
	t.Update()
}

func (t *Text) Render(ctx RenderContext) []string {
	if t.content == "" {
		return nil
	}
	return WrapText(t.content, ctx.Width)
}
