package mosaic

import (
	"context"
	"sync/atomic"
)

// ── EventContext ───────────────────────────────────────────────────────────

// EventContext provides access to framework operations. It is passed to
// input handlers, lifecycle hooks, and dispatch callbacks: the places where
// components perform side effects. It is NOT available during Render, which
// should be a pure function of component state.
//
// EventContext embeds [context.Context]. The Done() channel is closed when
// the source component is dismounted, so background goroutines spawned from
// OnMount can use it as a cancellation signal.
type EventContext struct {
	context.Context
	tui    *TUI
	source Component
}

// SetFocus gives keyboard focus to the given component (or nil to blur).
func (ctx EventContext) SetFocus(comp Component) {
	ctx.tui.SetFocus(comp)
}

// ShowOverlay displays a component as an overlay and returns a handle.
func (ctx EventContext) ShowOverlay(comp Component, opts *OverlayOptions) *OverlayHandle {
	return ctx.tui.ShowOverlay(comp, opts)
}

// RequestRender schedules a render. If repaint is true, forces full redraw.
func (ctx EventContext) RequestRender(repaint bool) {
	ctx.tui.RequestRender(repaint)
}

// HasKittyKeyboard reports terminal keyboard protocol support.
func (ctx EventContext) HasKittyKeyboard() bool {
	return ctx.tui.HasKittyKeyboard()
}

// HasOverlay reports whether any overlay is currently visible.
func (ctx EventContext) HasOverlay() bool {
	return ctx.tui.HasOverlay()
}

// Matches reports whether a raw input chunk is the named key, using the
// TUI's key decoder (which knows the negotiated keyboard protocol).
func (ctx EventContext) Matches(data []byte, keyID string) bool {
	return ctx.tui.Keys().Matches(data, keyID)
}

// Dispatch schedules a function to run on the UI goroutine.
//
// Safe to call from any goroutine. This is the primary way for background
// goroutines (spawned from OnMount, timers, subprocess readers) to mutate
// component state and call [Compo.Update].
func (ctx EventContext) Dispatch(fn func()) {
	ctx.tui.Dispatch(fn)
}

// ── Render ─────────────────────────────────────────────────────────────────

// RenderContext carries everything a component needs to render.
type RenderContext struct {
	// Width is the available width in terminal columns.
	Width int
	// Height is the allocated height in lines. 0 means unconstrained
	// (the component may return as many lines as it wants).
	Height int
	// ScreenHeight is the actual terminal height in rows. It is always
	// set regardless of whether Height constrains the component.
	ScreenHeight int
}

// ── Compo ──────────────────────────────────────────────────────────────────

// Compo provides automatic render caching and dirty propagation for
// components. Embed it in your component struct:
//
//	type MyWidget struct {
//	    mosaic.Compo
//	    // ... your fields ...
//	}
//
// Call Update() when your component's state changes. The framework will
// re-render the component on the next frame. Between Update() calls,
// Render() is skipped entirely and the cached lines are reused.
//
// Update() propagates upward through the component tree, so parent
// Containers automatically know a child changed. If the tree is rooted
// in a TUI, Update() also schedules a render automatically.
//
// Dirty tracking uses a monotonic generation counter rather than a
// boolean flag. Update() increments the counter; renderComponent
// snapshots it before calling Render and records the snapshot
// afterwards. Any concurrent Update() during Render increments the
// counter past the snapshot, guaranteeing a re-render on the next
// frame.
type Compo struct {
	generation    atomic.Int64
	renderedGen   int64        // generation when last rendered; render-goroutine only
	cache         *renderCache // only accessed from the render goroutine
	parent        *Compo
	self          Component // the Component that embeds this Compo
	requestRender func()    // set on the root by TUI

	// Lifecycle, managed by the framework during mount/dismount.
	tui         *TUI
	mountCtx    context.Context
	mountCancel context.CancelFunc
}

type renderCache struct {
	lines []string
	width int
}

// Update marks the component as needing re-render on the next frame.
// Propagates upward so parent containers are also marked dirty. If the
// component tree is rooted in a TUI, a render is scheduled automatically.
//
// Must be called from the UI goroutine (input handlers, lifecycle hooks,
// or Dispatch callbacks). Background goroutines should use
// [EventContext.Dispatch] to schedule state changes and Update calls.
func (c *Compo) Update() {
	c.generation.Add(1)
	if c.parent != nil {
		c.parent.Update()
	} else if c.requestRender != nil {
		c.requestRender()
	}
}

// compo returns the embedded Compo. The unexported method ensures that
// only types embedding Compo can satisfy the Component interface.
func (c *Compo) compo() *Compo { return c }

// setComponentParent wires a component into (or out of) the component tree.
// It handles upward dirty propagation, sets the self reference for input
// bubbling, and triggers mount/dismount lifecycle hooks when the component
// enters or leaves a TUI-rooted tree.
//
// Managed automatically by Container.AddChild, Slot.Set, and RenderChild.
func setComponentParent(comp Component, parent *Compo) {
	cp := comp.compo()
	wasMounted := cp.tui != nil

	cp.parent = parent
	cp.self = comp

	shouldBeMounted := parent != nil && parent.tui != nil
	if wasMounted && !shouldBeMounted {
		dismountTree(comp)
	} else if !wasMounted && shouldBeMounted {
		mountTree(comp, parent.tui)
	}
}

// RenderChild renders a child component through this Compo, using the
// framework's render cache. It also wires the child's parent pointer so
// that Update() on the child propagates upward through this component.
//
// Note: RenderChild does NOT trigger mount/dismount lifecycle hooks.
// For lifecycle support, use Container or Slot instead.
func (c *Compo) RenderChild(child Component, ctx RenderContext) []string {
	child.compo().parent = c
	return renderComponent(child, ctx)
}

// renderComponent renders a component, using its Compo cache when the
// component is clean and the width hasn't changed. This is the core
// function that makes settled components O(1) per frame.
func renderComponent(ch Component, ctx RenderContext) []string {
	cp := ch.compo()

	gen := cp.generation.Load()
	if cp.cache != nil && gen == cp.renderedGen && cp.cache.width == ctx.Width {
		return cp.cache.lines
	}

	// Record the generation we snapshotted, not the current one, so any
	// Update() during Render() shows up as a mismatch on the next frame.
	lines := ch.Render(ctx)
	cp.cache = &renderCache{lines: lines, width: ctx.Width}
	cp.renderedGen = gen
	return lines
}

// ── Component interfaces ───────────────────────────────────────────────────

// Component is the interface all UI components must implement. All
// components must embed Compo to get automatic render caching and dirty
// propagation.
//
// Rendered lines may contain ANSI escapes. A component that wants the
// hardware cursor placed inside its output embeds [CursorMarker] at the
// desired position; the framework extracts the marker after compositing
// and positions the real cursor there.
type Component interface {
	// compo returns the embedded Compo. Unexported to keep it out of the
	// public API; satisfied automatically by embedding Compo.
	compo() *Compo

	// Render produces the visual output within the given constraints.
	Render(ctx RenderContext) []string
}

// Interactive is an optional interface for components that accept keyboard
// input when focused. Input arrives as complete chunks: one escape sequence,
// one paste payload, or a run of plain bytes. Use [EventContext.Matches] to
// test chunks against key identifiers.
//
// Input is delivered to the focused component first. If HandleInput returns
// false, the chunk bubbles up through parent components in the tree. If the
// focused component does not implement Interactive at all, the chunk
// bubbles immediately.
type Interactive interface {
	Component

	// HandleInput is called with a complete input chunk. Return true if
	// the chunk was consumed; return false to let it bubble to the
	// parent component.
	HandleInput(ctx EventContext, data []byte) bool
}

// KeyReleaseAware is an optional interface for components that want to
// receive key-release and key-repeat events from the kitty keyboard
// protocol. By default such events are filtered out before dispatch.
type KeyReleaseAware interface {
	// WantsKeyReleases reports whether release/repeat events should be
	// delivered to this component's HandleInput.
	WantsKeyReleases() bool
}

// Focusable is an optional interface for components that want to know when
// they gain or lose focus (e.g. to show/hide a cursor).
type Focusable interface {
	SetFocused(ctx EventContext, focused bool)
}

// Mounter is an optional interface for components that need to perform
// setup when they enter a TUI-rooted tree. The EventContext embeds
// context.Context whose Done() channel is closed when the component is
// dismounted; use it to bound background goroutine lifetimes.
type Mounter interface {
	OnMount(ctx EventContext)
}

// Dismounter is an optional interface for components that need to perform
// cleanup when they leave a TUI-rooted tree. The mount context's Done()
// channel is already closed when OnDismount is called.
//
// Dismount fires children-first (leaves before parents).
type Dismounter interface {
	OnDismount()
}

// ── Lifecycle propagation ──────────────────────────────────────────────────

// componentParent is implemented by components that hold children
// (Container, Slot) so that mount/dismount can propagate recursively.
type componentParent interface {
	componentChildren() []Component
}

// mountTree mounts a component and all its descendants, firing OnMount
// hooks parent-first.
func mountTree(comp Component, tui *TUI) {
	cp := comp.compo()
	ctx, cancel := context.WithCancel(context.Background())
	cp.tui = tui
	cp.mountCtx = ctx
	cp.mountCancel = cancel

	if m, ok := comp.(Mounter); ok {
		m.OnMount(EventContext{
			Context: ctx,
			tui:     tui,
			source:  comp,
		})
	}

	if p, ok := comp.(componentParent); ok {
		for _, child := range p.componentChildren() {
			mountTree(child, tui)
		}
	}
}

// dismountTree dismounts a component and all its descendants, firing
// OnDismount hooks children-first and cancelling mount contexts.
func dismountTree(comp Component) {
	if p, ok := comp.(componentParent); ok {
		for _, child := range p.componentChildren() {
			dismountTree(child)
		}
	}

	cp := comp.compo()
	if cp.mountCancel != nil {
		cp.mountCancel()
	}
	if d, ok := comp.(Dismounter); ok {
		d.OnDismount()
	}

	cp.tui = nil
	cp.mountCtx = nil
	cp.mountCancel = nil
}

// ── Container ──────────────────────────────────────────────────────────────

// Container is a Component that holds child components and renders them
// sequentially as a vertical stack. It embeds Compo, so parent containers
// can cache entire subtrees when nothing changes.
//
// Container uses renderComponent for each child, so children that haven't
// called Update() are skipped entirely.
type Container struct {
	Compo
	Children []Component
}

func (c *Container) componentChildren() []Component { return c.Children }

func (c *Container) AddChild(comp Component) {
	c.Children = append(c.Children, comp)
	setComponentParent(comp, &c.Compo)
	c.Update()
}

func (c *Container) RemoveChild(comp Component) {
	for i, ch := range c.Children {
		if ch == comp {
			c.Children = append(c.Children[:i], c.Children[i+1:]...)
			setComponentParent(comp, nil)
			c.Update()
			return
		}
	}
}

func (c *Container) Clear() {
	for _, ch := range c.Children {
		setComponentParent(ch, nil)
	}
	c.Children = nil
	c.Update()
}

func (c *Container) Render(ctx RenderContext) []string {
	var lines []string
	for _, ch := range c.Children {
		lines = append(lines, renderComponent(ch, ctx)...)
	}
	return lines
}

// ── Slot ───────────────────────────────────────────────────────────────────

// Slot is a component that delegates to a single replaceable child. Use it
// to swap between components (e.g. text input vs spinner) without modifying
// the parent container's child list.
type Slot struct {
	Compo
	child Component
}

func (s *Slot) componentChildren() []Component {
	if s.child != nil {
		return []Component{s.child}
	}
	return nil
}

// NewSlot creates a Slot with the given initial child.
func NewSlot(child Component) *Slot {
	s := &Slot{}
	s.setChild(child)
	return s
}

// Set replaces the current child.
func (s *Slot) Set(c Component) {
	s.setChild(c)
	s.Update()
}

func (s *Slot) setChild(c Component) {
	if s.child != nil {
		setComponentParent(s.child, nil)
	}
	s.child = c
	if c != nil {
		setComponentParent(c, &s.Compo)
	}
}

// Get returns the current child.
func (s *Slot) Get() Component {
	return s.child
}

func (s *Slot) Render(ctx RenderContext) []string {
	if s.child == nil {
		return nil
	}
	return renderComponent(s.child, ctx)
}
