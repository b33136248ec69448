package mosaic

import (
	"time"
)

// Spinner is a component that shows an animated spinner.
type Spinner struct {
	Compo

	// Style wraps each frame (e.g. to apply color). May be nil.
	Style func(string) string

	frames   []string
	interval time.Duration
	start    time.Time
	label    string
}

// NewSpinner creates a dot-style spinner.
func NewSpinner() *Spinner {
	return &Spinner{
		frames:   []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"},
		interval: 80 * time.Millisecond,
	}
}

// SetLabel changes the text displayed after the spinner frame.
func (s *Spinner) SetLabel(label string) {
	if s.label == label {
		return
	}
	s.label = label
	s.Update()
}

// OnMount starts the animation ticker, bound to the mount lifetime.
func (s *Spinner) OnMount(ctx EventContext) {
	s.start = time.Now()
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx.Dispatch(s.Update)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Spinner) Render(ctx RenderContext) []string {
	elapsed := time.Since(s.start)
	idx := int(elapsed/s.interval) % len(s.frames)
	frame := s.frames[idx]
	if s.Style != nil {
		frame = s.Style(frame)
	}
	line := frame
	if s.label != "" {
		line += " " + s.label
	}
	if VisibleWidth(line) > ctx.Width {
		line = Truncate(line, ctx.Width, "")
	}
	return []string{line}
}
