package mosaic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlayLayoutCentered(t *testing.T) {
	opts := &OverlayOptions{Width: SizeAbs(20), Anchor: AnchorCenter}
	width, row, col, _, maxHSet := resolveOverlayLayout(opts, 5, 80, 24)

	assert.Equal(t, 20, width)
	assert.Equal(t, 9, row)  // (24-5)/2
	assert.Equal(t, 30, col) // (80-20)/2
	assert.False(t, maxHSet)
}

func TestOverlayLayoutAnchors(t *testing.T) {
	cases := []struct {
		anchor   OverlayAnchor
		row, col int
	}{
		{AnchorTopLeft, 0, 0},
		{AnchorTopRight, 0, 70},
		{AnchorBottomLeft, 20, 0},
		{AnchorBottomRight, 20, 70},
		{AnchorTopCenter, 0, 35},
		{AnchorBottomCenter, 20, 35},
		{AnchorLeftCenter, 10, 0},
		{AnchorRightCenter, 10, 70},
	}
	for _, tc := range cases {
		opts := &OverlayOptions{Width: SizeAbs(10), Anchor: tc.anchor}
		_, row, col, _, _ := resolveOverlayLayout(opts, 4, 80, 24)
		assert.Equal(t, tc.row, row, "anchor %d row", tc.anchor)
		assert.Equal(t, tc.col, col, "anchor %d col", tc.anchor)
	}
}

func TestOverlayLayoutMargins(t *testing.T) {
	opts := &OverlayOptions{
		Width:  SizeAbs(10),
		Anchor: AnchorBottomRight,
		Margin: OverlayMargin{Bottom: 1, Right: 2},
	}
	_, row, col, _, _ := resolveOverlayLayout(opts, 3, 80, 24)

	assert.Equal(t, 20, row) // 24 - 1 margin - 3 height
	assert.Equal(t, 68, col) // 80 - 2 margin - 10 width
}

func TestOverlayLayoutPercentWidth(t *testing.T) {
	opts := &OverlayOptions{Width: SizePct(50)}
	width, _, _, _, _ := resolveOverlayLayout(opts, 3, 80, 24)
	assert.Equal(t, 40, width)
}

func TestOverlayLayoutDefaultWidth(t *testing.T) {
	width, _, _, _, _ := resolveOverlayLayout(&OverlayOptions{}, 3, 120, 24)
	assert.Equal(t, 80, width)

	width, _, _, _, _ = resolveOverlayLayout(&OverlayOptions{}, 3, 60, 24)
	assert.Equal(t, 60, width)
}

func TestOverlayLayoutMinWidth(t *testing.T) {
	opts := &OverlayOptions{Width: SizeAbs(5), MinWidth: 12}
	width, _, _, _, _ := resolveOverlayLayout(opts, 3, 80, 24)
	assert.Equal(t, 12, width)
}

func TestOverlayLayoutWidthClampedToTerminal(t *testing.T) {
	opts := &OverlayOptions{Width: SizeAbs(500)}
	width, _, _, _, _ := resolveOverlayLayout(opts, 3, 80, 24)
	assert.Equal(t, 80, width)
}

func TestOverlayLayoutRowColOverride(t *testing.T) {
	opts := &OverlayOptions{Width: SizeAbs(10), Row: SizeAbs(2), Col: SizeAbs(7)}
	_, row, col, _, _ := resolveOverlayLayout(opts, 4, 80, 24)
	assert.Equal(t, 2, row)
	assert.Equal(t, 7, col)
}

func TestOverlayLayoutPercentRowPositionsInLeftover(t *testing.T) {
	opts := &OverlayOptions{Width: SizeAbs(10), Row: SizePct(100), Col: SizePct(50)}
	_, row, col, _, _ := resolveOverlayLayout(opts, 4, 80, 24)

	// 100% row flush-aligns to the bottom edge; 50% col centers.
	assert.Equal(t, 20, row)
	assert.Equal(t, 35, col)
}

func TestOverlayLayoutMaxHeight(t *testing.T) {
	opts := &OverlayOptions{
		Width:     SizeAbs(10),
		MaxHeight: SizeAbs(3),
		Anchor:    AnchorBottomLeft,
	}
	_, row, _, maxH, maxHSet := resolveOverlayLayout(opts, 10, 80, 24)

	assert.True(t, maxHSet)
	assert.Equal(t, 3, maxH)
	// Bottom anchoring uses the clamped height.
	assert.Equal(t, 21, row)
}

func TestOverlayLayoutOffsetsClamped(t *testing.T) {
	opts := &OverlayOptions{
		Width:   SizeAbs(10),
		Anchor:  AnchorTopLeft,
		OffsetX: -5,
		OffsetY: 1000,
	}
	_, row, col, _, _ := resolveOverlayLayout(opts, 4, 80, 24)
	assert.Equal(t, 20, row) // clamped to termH - height
	assert.Equal(t, 0, col)
}

func TestOverlayLayoutNilOptions(t *testing.T) {
	width, row, col, _, maxHSet := resolveOverlayLayout(nil, 4, 100, 30)
	assert.Equal(t, 80, width)
	assert.Equal(t, 13, row)
	assert.Equal(t, 10, col)
	assert.False(t, maxHSet)
}
