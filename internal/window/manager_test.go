package window

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManagerWithOptions(Options{
		Viewport:      Size{Width: 1000, Height: 800},
		SnapThreshold: 20,
		DefaultSize:   Size{Width: 400, Height: 300},
		DefaultMin:    Size{Width: 100, Height: 80},
	})
}

func TestCreateIsNoOpOnExistingID(t *testing.T) {
	m := newTestManager()

	require.True(t, m.Create("w1", CreateOptions{Title: "T"}))
	assert.False(t, m.Create("w1", CreateOptions{Title: "U"}))

	st, ok := m.Get("w1")
	require.True(t, ok)
	assert.Equal(t, "T", st.Title)
}

func TestCreateMergesDefaultsUnderOverrides(t *testing.T) {
	m := newTestManager()

	m.Create("w1", CreateOptions{})
	st, _ := m.Get("w1")
	assert.True(t, st.Visible)
	assert.Equal(t, Size{Width: 400, Height: 300}, st.Size)
	assert.Equal(t, "w1", st.Title)
	assert.Equal(t, SnapNone, st.Snap)

	m.Create("w2", CreateOptions{
		Title:    "Tools",
		Position: &Point{X: 10, Y: 20},
		Size:     &Size{Width: 500, Height: 350},
	})
	st, _ = m.Get("w2")
	assert.Equal(t, "Tools", st.Title)
	assert.Equal(t, Point{X: 10, Y: 20}, st.Position)
	assert.Equal(t, Size{Width: 500, Height: 350}, st.Size)
}

func TestFocusAssignsMonotonicZIndex(t *testing.T) {
	m := newTestManager()
	m.Create("w1", CreateOptions{})
	m.Create("w2", CreateOptions{})

	z1First, err := m.Focus("w1")
	require.NoError(t, err)
	z2, err := m.Focus("w2")
	require.NoError(t, err)
	z1Final, err := m.Focus("w1")
	require.NoError(t, err)

	assert.Greater(t, z2, z1First)
	assert.Greater(t, z1Final, z2)

	// exactly one window holds the maximum z-index
	top := 0
	holders := 0
	for _, st := range m.List() {
		if st.ZIndex > top {
			top = st.ZIndex
			holders = 1
		} else if st.ZIndex == top {
			holders++
		}
	}
	assert.Equal(t, 1, holders)

	_, err = m.Focus("missing")
	assert.ErrorIs(t, err, ErrWindowNotFound)
}

func TestCloseRetainsState(t *testing.T) {
	m := newTestManager()
	m.Create("w1", CreateOptions{Title: "T"})

	require.NoError(t, m.Close("w1"))
	st, ok := m.Get("w1")
	require.True(t, ok, "closed window must stay in the registry")
	assert.False(t, st.Visible)
	assert.Equal(t, "T", st.Title)

	require.NoError(t, m.Show("w1"))
	st, _ = m.Get("w1")
	assert.True(t, st.Visible)
}

func TestUpdateShallowMerge(t *testing.T) {
	m := newTestManager()
	m.Create("w1", CreateOptions{Title: "T"})

	title := "Renamed"
	require.NoError(t, m.Update("w1", Patch{Title: &title, Position: &Point{X: 100, Y: 120}}))
	st, _ := m.Get("w1")
	assert.Equal(t, "Renamed", st.Title)
	assert.Equal(t, Point{X: 100, Y: 120}, st.Position)
	// untouched fields survive
	assert.Equal(t, Size{Width: 400, Height: 300}, st.Size)

	assert.ErrorIs(t, m.Update("missing", Patch{}), ErrWindowNotFound)
}

func TestMinimizeMaximizeMutualExclusion(t *testing.T) {
	m := newTestManager()
	m.Create("w1", CreateOptions{})

	require.NoError(t, m.Minimize("w1"))
	st, _ := m.Get("w1")
	assert.True(t, st.Minimized)
	assert.False(t, st.Maximized)

	require.NoError(t, m.Maximize("w1"))
	st, _ = m.Get("w1")
	assert.True(t, st.Maximized)
	assert.False(t, st.Minimized, "maximizing clears minimized")

	require.NoError(t, m.Restore("w1"))
	st, _ = m.Get("w1")
	assert.False(t, st.Maximized)
	assert.False(t, st.Minimized)
}

func TestMaximizeRestoreRoundTripsGeometry(t *testing.T) {
	m := newTestManager()
	m.Create("w1", CreateOptions{Position: &Point{X: 150, Y: 90}, Size: &Size{Width: 420, Height: 310}})

	require.NoError(t, m.Maximize("w1"))
	st, _ := m.Get("w1")
	// stored geometry untouched by maximize itself
	assert.Equal(t, Point{X: 150, Y: 90}, st.Position)
	assert.Equal(t, Size{Width: 420, Height: 310}, st.Size)

	require.NoError(t, m.Restore("w1"))
	st, _ = m.Get("w1")
	assert.Equal(t, Point{X: 150, Y: 90}, st.Position)
	assert.Equal(t, Size{Width: 420, Height: 310}, st.Size)
}

func TestMoveToClampsNearEdges(t *testing.T) {
	m := newTestManager()
	m.Create("w1", CreateOptions{Position: &Point{X: 300, Y: 300}})

	require.NoError(t, m.MoveTo("w1", Point{X: -5, Y: -5}))
	st, _ := m.Get("w1")
	assert.Equal(t, Point{X: 0, Y: 0}, st.Position)
	assert.Equal(t, SnapLeft, st.Snap)
}

func TestMoveToClampsFarEdges(t *testing.T) {
	m := newTestManager()
	m.Create("w1", CreateOptions{Size: &Size{Width: 400, Height: 300}})

	// right edge would exceed viewport width 1000 minus threshold
	require.NoError(t, m.MoveTo("w1", Point{X: 700, Y: 200}))
	st, _ := m.Get("w1")
	assert.Equal(t, 600, st.Position.X, "window flush against the right edge")
	assert.Equal(t, SnapRight, st.Snap)

	require.NoError(t, m.MoveTo("w1", Point{X: 200, Y: 750}))
	st, _ = m.Get("w1")
	assert.Equal(t, 500, st.Position.Y, "window flush against the bottom edge")
	assert.Equal(t, SnapBottom, st.Snap)

	// interior positions clear the snap state
	require.NoError(t, m.MoveTo("w1", Point{X: 200, Y: 200}))
	st, _ = m.Get("w1")
	assert.Equal(t, Point{X: 200, Y: 200}, st.Position)
	assert.Equal(t, SnapNone, st.Snap)
}

func TestMoveAndResizeRefusedWhileMaximized(t *testing.T) {
	m := newTestManager()
	m.Create("w1", CreateOptions{})
	require.NoError(t, m.Maximize("w1"))

	assert.ErrorIs(t, m.MoveTo("w1", Point{X: 10, Y: 10}), ErrWindowMaximized)
	assert.ErrorIs(t, m.ResizeTo("w1", Size{Width: 500, Height: 400}), ErrWindowMaximized)
}

func TestResizeToClampsToMinimum(t *testing.T) {
	m := newTestManager()
	m.Create("w1", CreateOptions{MinSize: &Size{Width: 200, Height: 150}})

	require.NoError(t, m.ResizeTo("w1", Size{Width: 50, Height: 40}))
	st, _ := m.Get("w1")
	assert.Equal(t, Size{Width: 200, Height: 150}, st.Size)
}

func TestMinimizedBarListsOnlyVisibleMinimized(t *testing.T) {
	m := newTestManager()
	m.Create("w1", CreateOptions{})
	m.Create("w2", CreateOptions{})
	m.Create("w3", CreateOptions{})

	require.NoError(t, m.Minimize("w1"))
	require.NoError(t, m.Minimize("w2"))
	require.NoError(t, m.Close("w2"))

	bar := m.Minimized()
	require.Len(t, bar, 1)
	assert.Equal(t, "w1", bar[0].ID)
}

func TestStackedOrdersByZIndex(t *testing.T) {
	m := newTestManager()
	m.Create("w1", CreateOptions{})
	m.Create("w2", CreateOptions{})
	m.Create("w3", CreateOptions{})
	_, _ = m.Focus("w1")
	require.NoError(t, m.Minimize("w3"))

	stacked := m.Stacked()
	require.Len(t, stacked, 2)
	assert.Equal(t, "w2", stacked[0].ID)
	assert.Equal(t, "w1", stacked[1].ID)
}

func TestLayoutSaveAndLoad(t *testing.T) {
	dataDir := t.TempDir()
	opts := Options{
		DataDir:       dataDir,
		Viewport:      Size{Width: 1000, Height: 800},
		SnapThreshold: 20,
		DefaultSize:   Size{Width: 400, Height: 300},
		DefaultMin:    Size{Width: 100, Height: 80},
	}

	m := NewManagerWithOptions(opts)
	m.Create("w1", CreateOptions{Title: "T", Position: &Point{X: 50, Y: 60}})
	_, _ = m.Focus("w1")
	require.NoError(t, m.SaveLayout(context.Background()))

	m2 := NewManagerWithOptions(opts)
	require.NoError(t, m2.LoadLayout(context.Background()))
	st, ok := m2.Get("w1")
	require.True(t, ok)
	assert.Equal(t, "T", st.Title)
	assert.Equal(t, Point{X: 50, Y: 60}, st.Position)

	// the z-counter resumes past restored windows
	m2.Create("w2", CreateOptions{})
	next, _ := m2.Get("w2")
	assert.Greater(t, next.ZIndex, st.ZIndex)
}
